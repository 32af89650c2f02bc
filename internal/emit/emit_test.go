package emit

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-cribo/cribo/internal/classify"
	"github.com/go-cribo/cribo/internal/fsys"
	"github.com/go-cribo/cribo/internal/pyparse"
	"github.com/go-cribo/cribo/internal/semantic"
	"github.com/go-cribo/cribo/pkg/types"
)

func mustParse(t *testing.T, p *pyparse.Parser, src string) *pyparse.Tree {
	t.Helper()
	tree, err := p.Parse([]byte(src), "m.py")
	require.NoError(t, err)
	return tree
}

func resolveAmong(modules []*types.Module) func(*types.Module, *types.ImportInfo) *types.Module {
	byName := map[string]*types.Module{}
	for _, m := range modules {
		byName[m.DottedName] = m
	}
	return func(_ *types.Module, imp *types.ImportInfo) *types.Module {
		if imp.OriginalName != "" && imp.OriginalName != "*" {
			if sub, ok := byName[imp.Module+"."+imp.OriginalName]; ok {
				return sub
			}
		}
		return byName[imp.Module]
	}
}

func TestEmitInlinesLeafBeforeEntry(t *testing.T) {
	p, err := pyparse.New()
	require.NoError(t, err)
	defer p.Close()

	leafSrc := "def helper():\n    return 1\n"
	entrySrc := "from pkg.leaf import helper\n\nprint(helper())\n"

	leafTree := mustParse(t, p, leafSrc)
	entryTree := mustParse(t, p, entrySrc)
	defer leafTree.Close()
	defer entryTree.Close()

	leaf := &types.Module{
		ID: 0, DottedName: "pkg.leaf", Path: "/proj/pkg/leaf.py", Source: leafTree.Content,
		Items: []*types.Item{
			{ID: 0, Kind: types.ItemFunctionDef, Name: "helper", StartByte: 0, EndByte: uint(len(leafSrc)),
				Defines: map[string]bool{"helper": true}, ImmediateReads: map[string]bool{}, DeferredReads: map[string]bool{}},
		},
	}
	entryImportEnd := uint(len("from pkg.leaf import helper\n"))
	printStart := entryImportEnd + 1
	entry := &types.Module{
		ID: 1, DottedName: "pkg.entry", Path: "/proj/pkg/entry.py", Source: entryTree.Content,
		Items: []*types.Item{
			{ID: 0, Kind: types.ItemFromImport, StartByte: 0, EndByte: entryImportEnd,
				Defines: map[string]bool{"helper": true}, ImmediateReads: map[string]bool{}, DeferredReads: map[string]bool{},
				Imports: []*types.ImportInfo{{Form: types.FormFromImportName, Module: "pkg.leaf", OriginalName: "helper", Alias: "helper", ReferringItemID: 0}}},
			{ID: 1, Kind: types.ItemExpr, StartByte: printStart, EndByte: uint(len(entrySrc)),
				Defines: map[string]bool{}, ImmediateReads: map[string]bool{"print": true, "helper": true}, DeferredReads: map[string]bool{}},
		},
	}

	g := types.NewDependencyGraph([]*types.Module{leaf, entry})
	g.AddEdge(types.ImportEdge{From: 1, To: 0, ReferringItemID: 0, Form: types.FormFromImportName, ImportedNames: []string{"helper"}})

	table := types.NewSymbolTable()
	table.Set(types.SymbolKey{Module: 0, Original: "helper"}, "helper")
	table.Set(types.SymbolKey{Module: 1, Original: "helper"}, "helper")

	mem := fsys.NewMemory()
	mem.AddFile("/proj/pkg/leaf.py", leafSrc)
	mem.AddFile("/proj/pkg/entry.py", entrySrc)
	classifier := classify.NewDefault(mem, []string{"/proj"})

	out := Emit(Input{
		Graph:      g,
		Order:      []types.ModuleId{0, 1},
		Entry:      1,
		Trees:      map[types.ModuleId]*pyparse.Tree{0: leafTree, 1: entryTree},
		Table:      table,
		Analyses:   map[types.ModuleId]*semantic.Analysis{},
		Namespaces: map[types.ModuleId][]*types.Namespace{},
		Classifier: classifier,
		Resolve:    resolveAmong([]*types.Module{leaf, entry}),
	})

	text := string(out)
	require.Contains(t, text, "def helper():")
	require.NotContains(t, text, "from pkg.leaf import helper")
	require.Contains(t, text, "print(helper())")

	helperIdx := strings.Index(text, "def helper")
	printIdx := strings.Index(text, "print(helper())")
	require.Less(t, helperIdx, printIdx)
}

func TestEmitWrappedModuleProducesIdempotentInit(t *testing.T) {
	p, err := pyparse.New()
	require.NoError(t, err)
	defer p.Close()

	modSrc := "state = {}\n\ndef poke():\n    return globals()\n"
	tree := mustParse(t, p, modSrc)
	defer tree.Close()

	stateEnd := uint(len("state = {}"))
	m := &types.Module{
		ID: 0, DottedName: "pkg.state", Path: "/proj/pkg/state.py", Source: tree.Content,
		Items: []*types.Item{
			{ID: 0, Kind: types.ItemAssign, Name: "state", StartByte: 0, EndByte: stateEnd,
				Defines: map[string]bool{"state": true}, ImmediateReads: map[string]bool{}, DeferredReads: map[string]bool{}},
			{ID: 1, Kind: types.ItemFunctionDef, Name: "poke", StartByte: stateEnd + 2, EndByte: uint(len(modSrc)),
				Defines: map[string]bool{"poke": true}, ImmediateReads: map[string]bool{}, DeferredReads: map[string]bool{"globals": true}},
		},
	}

	g := types.NewDependencyGraph([]*types.Module{m})

	mem := fsys.NewMemory()
	mem.AddFile("/proj/pkg/state.py", modSrc)
	classifier := classify.NewDefault(mem, []string{"/proj"})

	out := Emit(Input{
		Graph:      g,
		Order:      []types.ModuleId{0},
		Entry:      0,
		Trees:      map[types.ModuleId]*pyparse.Tree{0: tree},
		Table:      types.NewSymbolTable(),
		Analyses:   map[types.ModuleId]*semantic.Analysis{},
		Namespaces: map[types.ModuleId][]*types.Namespace{},
		Classifier: classifier,
		Resolve:    resolveAmong([]*types.Module{m}),
	})

	text := string(out)
	require.Contains(t, text, "def _cribo_init_pkg_state():")
	require.Contains(t, text, "if 'pkg.state' in sys.modules:")
	require.Contains(t, text, "sys.modules['pkg.state'] = _mod")
	require.Contains(t, text, "_mod.state = state")
	require.Contains(t, text, "_mod.poke = poke")

	defIdx := strings.Index(text, "def _cribo_init_pkg_state")
	callIdx := strings.Index(text, "\n_cribo_init_pkg_state()")
	require.Greater(t, callIdx, -1)
	require.Less(t, defIdx, callIdx)
}

func TestRenderNamespaceChain(t *testing.T) {
	leaf := &types.Namespace{
		LocalName: "t", Dotted: "p.s.t", SourceModule: 2,
		Attrs: map[string]string{"foo": "foo"}, AttrOrder: []string{"foo"},
	}
	mid := &types.Namespace{
		LocalName: "s", Dotted: "p.s", SourceModule: types.InvalidModuleId,
		Attrs: map[string]string{}, Children: map[string]*types.Namespace{"t": leaf},
	}
	root := &types.Namespace{
		LocalName: "p", Dotted: "p", SourceModule: types.InvalidModuleId,
		Attrs: map[string]string{}, Children: map[string]*types.Namespace{"s": mid},
	}

	text := RenderNamespace(root)
	require.Contains(t, text, "p = _BundledNamespace('p')")
	require.Contains(t, text, "p.s = _BundledNamespace('p.s')")
	require.Contains(t, text, "p.s.t = _BundledNamespace('p.s.t')")
	require.Contains(t, text, "p.s.t.foo = foo")

	rootIdx := strings.Index(text, "p = ")
	leafIdx := strings.Index(text, "p.s.t = ")
	require.Less(t, rootIdx, leafIdx)
}

func TestCollectPreservedSkipsFunctionScopedAndWrapped(t *testing.T) {
	inline := &types.Module{
		ID: 0, DottedName: "a", Path: "/proj/a.py", Strategy: types.StrategyInline,
		Items: []*types.Item{
			{ID: 0, Kind: types.ItemImport,
				Imports: []*types.ImportInfo{{Form: types.FormImportModule, Module: "os", Alias: "os", Placement: types.PlacementModule}}},
			{ID: 1, Kind: types.ItemImport, Scope: []types.ScopePathEntry{{Kind: types.ItemFunctionDef, Name: "f"}},
				Imports: []*types.ImportInfo{{Form: types.FormImportModule, Module: "json", Alias: "json", Placement: types.PlacementFunction}}},
		},
	}
	wrapped := &types.Module{
		ID: 1, DottedName: "b", Path: "/proj/b.py", Strategy: types.StrategyWrapped,
		Items: []*types.Item{
			{ID: 0, Kind: types.ItemImport,
				Imports: []*types.ImportInfo{{Form: types.FormImportModule, Module: "re", Alias: "re", Placement: types.PlacementModule}}},
		},
	}

	classifier := classify.NewDefault(fsys.NewMemory(), nil)
	preserved, futures := CollectPreserved([]*types.Module{inline, wrapped}, classifier)

	require.Empty(t, futures)
	require.Len(t, preserved, 1)
	require.Equal(t, "os", preserved[0].Module)
}

func TestCollectPreservedDeduplicatesAndGathersFutures(t *testing.T) {
	mk := func(id types.ModuleId, name string) *types.Module {
		return &types.Module{
			ID: id, DottedName: name, Path: "/proj/" + name + ".py", Strategy: types.StrategyInline,
			Items: []*types.Item{
				{ID: 0, Kind: types.ItemFromImport,
					Imports: []*types.ImportInfo{{Form: types.FormFromImportName, Module: "__future__", OriginalName: "annotations", Alias: "annotations", Placement: types.PlacementModule}}},
				{ID: 1, Kind: types.ItemImport,
					Imports: []*types.ImportInfo{{Form: types.FormImportModule, Module: "sys", Alias: "sys", Placement: types.PlacementModule}}},
			},
		}
	}

	classifier := classify.NewDefault(fsys.NewMemory(), nil)
	preserved, futures := CollectPreserved([]*types.Module{mk(0, "a"), mk(1, "b")}, classifier)

	require.Equal(t, []string{"annotations"}, futures)
	require.Len(t, preserved, 1)
	require.Equal(t, "sys", preserved[0].Module)
}
