package symbols

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-cribo/cribo/pkg/types"
)

func TestBuildNoCollision(t *testing.T) {
	a := &types.Module{ID: 0, DottedName: "pkg.a", Items: []*types.Item{
		{Kind: types.ItemFunctionDef, Name: "helper", Defines: map[string]bool{"helper": true}},
	}}
	table := Build([]*types.Module{a}, nil)
	final, ok := table.Lookup(0, "helper")
	require.True(t, ok)
	require.Equal(t, "helper", final)
}

func TestBuildCollisionUsesStableSuffix(t *testing.T) {
	a := &types.Module{ID: 0, DottedName: "pkg.alpha_mod", Items: []*types.Item{
		{Kind: types.ItemFunctionDef, Name: "run", Defines: map[string]bool{"run": true}},
	}}
	b := &types.Module{ID: 1, DottedName: "pkg.beta_mod", Items: []*types.Item{
		{Kind: types.ItemFunctionDef, Name: "run", Defines: map[string]bool{"run": true}},
	}}
	table := Build([]*types.Module{a, b}, nil)

	finalA, _ := table.Lookup(0, "run")
	finalB, _ := table.Lookup(1, "run")
	require.NotEqual(t, finalA, finalB)
	require.Equal(t, "run", finalA, "first module in iteration order keeps the original name")
	require.Contains(t, finalB, "beta")
}

func TestBuildImportAliasIsNotAFreshSymbol(t *testing.T) {
	util := &types.Module{ID: 0, DottedName: "util", Items: []*types.Item{
		{Kind: types.ItemFunctionDef, Name: "add", Defines: map[string]bool{"add": true}},
	}}
	main := &types.Module{ID: 1, DottedName: "main", Items: []*types.Item{
		{ID: 0, Kind: types.ItemFromImport, StartByte: 0, EndByte: 25, Defines: map[string]bool{"add": true},
			Imports: []*types.ImportInfo{{Form: types.FormFromImportName, Module: "util", OriginalName: "add", Alias: "add"}}},
	}}

	table := Build([]*types.Module{util, main}, nil)

	finalUtil, _ := table.Lookup(0, "add")
	require.Equal(t, "add", finalUtil, "the only real definition keeps its name")
	finalMain, ok := table.Lookup(1, "add")
	require.True(t, ok)
	require.Equal(t, "add", finalMain, "the importing side resolves to the same final name")
}

func TestBuildReservedNameGetsNumericSuffix(t *testing.T) {
	a := &types.Module{ID: 0, DottedName: "pkg.a", Items: []*types.Item{
		{Kind: types.ItemAssign, Name: "list", Defines: map[string]bool{"list": true}},
	}}
	table := Build([]*types.Module{a}, nil)
	final, ok := table.Lookup(0, "list")
	require.True(t, ok)
	require.Equal(t, "list_2", final)
}

func TestBuildReexportCollapsesToSourceFinalName(t *testing.T) {
	b := &types.Module{
		ID: 1, DottedName: "pkg.b",
		Items: []*types.Item{
			{Kind: types.ItemFunctionDef, Name: "helper", Defines: map[string]bool{"helper": true}},
		},
	}
	a := &types.Module{
		ID: 0, DottedName: "pkg.a",
		HasExplicitAll: true, AllExports: []string{"helper"},
		Items: []*types.Item{
			{ID: 0, Kind: types.ItemFromImport, StartByte: 0, EndByte: 20, Defines: map[string]bool{"helper": true},
				Imports: []*types.ImportInfo{{Module: "pkg.b", OriginalName: "helper", Alias: "helper"}}},
		},
	}

	table := Build([]*types.Module{b, a}, nil)
	finalB, _ := table.Lookup(1, "helper")
	finalA, _ := table.Lookup(0, "helper")
	require.Equal(t, finalB, finalA)
}
