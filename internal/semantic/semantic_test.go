package semantic

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-cribo/cribo/pkg/types"
)

func TestAnalyzeGlobals(t *testing.T) {
	module := &types.Module{
		Items: []*types.Item{
			{ID: 0, Kind: types.ItemAssign, Name: "counter", Defines: map[string]bool{"counter": true}, ImmediateReads: map[string]bool{}, DeferredReads: map[string]bool{}},
			{ID: 1, Kind: types.ItemFunctionDef, Name: "bump", Defines: map[string]bool{"bump": true}, ImmediateReads: map[string]bool{}, DeferredReads: map[string]bool{}},
			{ID: 2, Kind: types.ItemGlobal, Scope: []types.ScopePathEntry{{Kind: types.ItemFunctionDef, Name: "bump"}}, GlobalNames: []string{"counter"}, Defines: map[string]bool{}, ImmediateReads: map[string]bool{}, DeferredReads: map[string]bool{}},
		},
	}

	a := Analyze(module, func(*types.ImportInfo) (types.ModuleId, bool) { return 0, false })
	require.True(t, a.ModuleLevelNames["counter"])
	require.True(t, a.ModuleLevelNames["bump"])
	require.Contains(t, a.Globals, "counter")
	require.Equal(t, []string{"bump"}, a.Globals["counter"].Functions)
}

func TestAnalyzeNamespaceUsage(t *testing.T) {
	module := &types.Module{
		Items: []*types.Item{
			{ID: 0, Kind: types.ItemFromImport, Defines: map[string]bool{"sub": true}, ImmediateReads: map[string]bool{}, DeferredReads: map[string]bool{},
				Imports: []*types.ImportInfo{{Module: "pkg", OriginalName: "sub", Alias: "sub"}}},
		},
	}

	a := Analyze(module, func(imp *types.ImportInfo) (types.ModuleId, bool) {
		if imp.Module == "pkg" && imp.OriginalName == "sub" {
			return 7, true
		}
		return 0, false
	})
	require.Equal(t, types.ModuleId(7), a.NamespaceUsage["sub"].Module)
	require.Equal(t, "sub", a.NamespaceUsage["sub"].Import.OriginalName)
}
