package depgraph

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-cribo/cribo/pkg/types"
)

func modWithDeferredRead(id types.ModuleId, name, readsName string) *types.Module {
	return &types.Module{
		ID:         id,
		DottedName: name,
		Items: []*types.Item{
			{
				ID:             0,
				Kind:           types.ItemFunctionDef,
				Name:           "h",
				Scope:          nil,
				Defines:        map[string]bool{"h": true},
				ImmediateReads: map[string]bool{},
				DeferredReads:  map[string]bool{readsName: true},
			},
		},
	}
}

func TestAnalyzeNoCycle(t *testing.T) {
	a := &types.Module{ID: 0, DottedName: "a"}
	b := &types.Module{ID: 1, DottedName: "b"}
	builder := NewBuilder([]*types.Module{a, b})
	builder.AddEdge(0, 1, 0, types.FormFromImportName, types.PlacementModule, false, []string{"x"})

	cycles := Analyze(builder.Graph())
	require.Empty(t, cycles)
}

func TestAnalyzeFunctionLevelCycle(t *testing.T) {
	a := modWithDeferredRead(0, "a", "g")
	b := modWithDeferredRead(1, "b", "f")
	builder := NewBuilder([]*types.Module{a, b})
	builder.AddEdge(0, 1, 0, types.FormFromImportName, types.PlacementFunction, false, []string{"g"})
	builder.AddEdge(1, 0, 0, types.FormFromImportName, types.PlacementFunction, false, []string{"f"})

	cycles := Analyze(builder.Graph())
	require.Len(t, cycles, 1)
	require.Equal(t, types.CycleFunctionLevel, cycles[0].Kind)
	require.True(t, cycles[0].Kind.Resolvable())
}

func TestAnalyzeClassLevelCycle(t *testing.T) {
	a := &types.Module{
		ID: 0, DottedName: "a",
		Items: []*types.Item{{
			ID: 0, Kind: types.ItemClassDef, Name: "A",
			Defines:         map[string]bool{"A": true},
			ImmediateReads:  map[string]bool{},
			DeferredReads:   map[string]bool{},
			ClassLevelReads: map[string]bool{"B": true},
		}},
	}
	b := &types.Module{
		ID: 1, DottedName: "b",
		Items: []*types.Item{{
			ID: 0, Kind: types.ItemClassDef, Name: "B",
			Defines:         map[string]bool{"B": true},
			ImmediateReads:  map[string]bool{},
			DeferredReads:   map[string]bool{},
			ClassLevelReads: map[string]bool{"A": true},
		}},
	}
	builder := NewBuilder([]*types.Module{a, b})
	builder.AddEdge(0, 1, 0, types.FormFromImportName, types.PlacementClass, false, []string{"B"})
	builder.AddEdge(1, 0, 0, types.FormFromImportName, types.PlacementClass, false, []string{"A"})

	cycles := Analyze(builder.Graph())
	require.Len(t, cycles, 1)
	require.Equal(t, types.CycleClassLevel, cycles[0].Kind)
	require.False(t, cycles[0].Kind.Resolvable())
}

func TestCondensationOrderLeavesFirst(t *testing.T) {
	entry := &types.Module{ID: 0, DottedName: "entry"}
	leaf := &types.Module{ID: 1, DottedName: "leaf"}
	builder := NewBuilder([]*types.Module{entry, leaf})
	builder.AddEdge(0, 1, 0, types.FormImportModule, types.PlacementModule, true, nil)

	order := CondensationOrder(builder.Graph(), 0)
	require.Equal(t, []types.ModuleId{1, 0}, order)
}

func TestAnalyzeModuleLevelDeferredCycleIsFunctionLevel(t *testing.T) {
	// "from b import g" at module scope, with g only read inside a function
	// body -- the shape the import rewriter can fix.
	a := modWithDeferredRead(0, "a", "g")
	b := modWithDeferredRead(1, "b", "f")
	builder := NewBuilder([]*types.Module{a, b})
	builder.AddEdge(0, 1, 0, types.FormFromImportName, types.PlacementModule, false, []string{"g"})
	builder.AddEdge(1, 0, 0, types.FormFromImportName, types.PlacementModule, false, []string{"f"})

	cycles := Analyze(builder.Graph())
	require.Len(t, cycles, 1)
	require.Equal(t, types.CycleFunctionLevel, cycles[0].Kind)
}

func TestAnalyzeModuleConstantCycle(t *testing.T) {
	mk := func(id types.ModuleId, name, reads string) *types.Module {
		return &types.Module{
			ID: id, DottedName: name,
			Items: []*types.Item{{
				ID: 0, Kind: types.ItemAssign, Name: "X",
				Defines:        map[string]bool{"X": true},
				ImmediateReads: map[string]bool{reads: true},
				DeferredReads:  map[string]bool{},
			}},
		}
	}
	a := mk(0, "a", "Y")
	b := mk(1, "b", "X")
	builder := NewBuilder([]*types.Module{a, b})
	builder.AddEdge(0, 1, 0, types.FormFromImportName, types.PlacementModule, false, []string{"Y"})
	builder.AddEdge(1, 0, 0, types.FormFromImportName, types.PlacementModule, false, []string{"X"})

	cycles := Analyze(builder.Graph())
	require.Len(t, cycles, 1)
	require.Equal(t, types.CycleModuleConstants, cycles[0].Kind)
	require.False(t, cycles[0].Kind.Resolvable())
}
