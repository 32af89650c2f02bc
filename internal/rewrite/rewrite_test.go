package rewrite

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-cribo/cribo/pkg/types"
)

func buildCycleGraph() (*types.DependencyGraph, []*types.Cycle) {
	a := &types.Module{
		ID: 0, DottedName: "a",
		Items: []*types.Item{
			{ID: 0, Kind: types.ItemFromImport, Defines: map[string]bool{"g": true}, ImmediateReads: map[string]bool{}, DeferredReads: map[string]bool{},
				Imports: []*types.ImportInfo{{Form: types.FormFromImportName, Module: "b", OriginalName: "g", Alias: "g", Placement: types.PlacementModule, SideEffecting: false, ReferringItemID: 0}}},
			{ID: 1, Kind: types.ItemFunctionDef, Name: "h", Defines: map[string]bool{"h": true}, ImmediateReads: map[string]bool{}, DeferredReads: map[string]bool{"g": true}},
		},
	}
	b := &types.Module{
		ID: 1, DottedName: "b",
		Items: []*types.Item{
			{ID: 0, Kind: types.ItemFunctionDef, Name: "g", Defines: map[string]bool{"g": true}, ImmediateReads: map[string]bool{}, DeferredReads: map[string]bool{}},
		},
	}
	g := types.NewDependencyGraph([]*types.Module{a, b})
	g.AddEdge(types.ImportEdge{From: 0, To: 1, ReferringItemID: 0, Form: types.FormFromImportName, Placement: types.PlacementModule, SideEffecting: false, ImportedNames: []string{"g"}})

	cycles := []*types.Cycle{{Modules: []types.ModuleId{0, 1}, Kind: types.CycleFunctionLevel}}
	return g, cycles
}

func TestPlanMovesModuleLevelImportIntoFunction(t *testing.T) {
	g, cycles := buildCycleGraph()
	moves := Plan(g, cycles)

	require.Len(t, moves, 1)
	require.Equal(t, types.ModuleId(0), moves[0].ModuleID)
	require.Equal(t, 0, moves[0].ItemID)
	require.Equal(t, []string{"h"}, moves[0].FunctionNames)
}

func TestPlanSkipsImportUsedAtModuleLevel(t *testing.T) {
	g, cycles := buildCycleGraph()
	g.Modules[0].Items[0].ImmediateReads["g"] = true

	moves := Plan(g, cycles)
	require.Empty(t, moves)
}

func TestPlanIsIdempotent(t *testing.T) {
	g, cycles := buildCycleGraph()
	first := Plan(g, cycles)
	require.Len(t, first, 1)

	// Simulate the emitter having applied the move: the import item no
	// longer sits at module scope.
	g.Modules[0].Items[0].Scope = []types.ScopePathEntry{{Kind: types.ItemFunctionDef, Name: "h"}}

	second := Plan(g, cycles)
	require.Empty(t, second)
}

func TestCoalesceByFunctionGroupsSameModule(t *testing.T) {
	moves := []Move{
		{FunctionNames: []string{"h"}, Import: &types.ImportInfo{Module: "b", OriginalName: "g", Alias: "g"}},
		{FunctionNames: []string{"h"}, Import: &types.ImportInfo{Module: "b", OriginalName: "f", Alias: "f"}},
	}
	grouped := CoalesceByFunction(moves)
	require.Len(t, grouped["h"], 2)
	require.Equal(t, "f", grouped["h"][0].OriginalName)
	require.Equal(t, "g", grouped["h"][1].OriginalName)
}
