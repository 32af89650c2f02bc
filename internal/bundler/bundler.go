// Package bundler orchestrates the full pipeline -- discover, scan, build
// graph, analyze cycles, rewrite imports, run semantic analysis, assign
// symbols, emit -- into a single entry point, shaped after the teacher's
// pipeline.Pipeline (discover -> parse -> analyze -> score -> output) but
// collapsed to the bundler's single-pass, deterministic data flow (spec
// §5: "a single-threaded cooperative pipeline with well-defined phase
// boundaries", with scanning parallelized via a worker pool).
package bundler

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/go-cribo/cribo/internal/classify"
	"github.com/go-cribo/cribo/internal/depgraph"
	"github.com/go-cribo/cribo/internal/diag"
	"github.com/go-cribo/cribo/internal/discovery"
	"github.com/go-cribo/cribo/internal/emit"
	"github.com/go-cribo/cribo/internal/fsys"
	"github.com/go-cribo/cribo/internal/pyparse"
	"github.com/go-cribo/cribo/internal/rewrite"
	"github.com/go-cribo/cribo/internal/scanner"
	"github.com/go-cribo/cribo/internal/semantic"
	"github.com/go-cribo/cribo/internal/symbols"
	"github.com/go-cribo/cribo/pkg/types"
)

// Options configures one bundling run.
type Options struct {
	SrcRoots   []string
	Entry      string // dotted module name or file path of the entry module
	FS         fsys.FileSystem
	Classifier classify.Classifier
	OnProgress ProgressFunc
}

// Result is the outcome of a successful bundle.
type Result struct {
	Source  []byte
	Modules int // number of first-party modules bundled
	Diag    *diag.Bag
}

// Bundle runs the full pipeline and returns the bundled source.
func Bundle(opts Options) (*Result, error) {
	if opts.OnProgress == nil {
		opts.OnProgress = func(string, string) {}
	}
	bag := diag.NewBag()

	opts.OnProgress("discover", "Scanning source tree...")
	files, err := discovery.NewWalker().Discover(opts.SrcRoots)
	if err != nil {
		return nil, &types.ExitError{Code: 1, Message: err.Error()}
	}
	if len(files) == 0 {
		return nil, &types.ExitError{Code: 1, Message: "no Python source files found under the configured roots"}
	}

	fs := opts.FS
	if fs == nil {
		fs = fsys.NewOS()
	}

	opts.OnProgress("scan", "Parsing and scanning modules...")
	modules, trees, err := scanAll(files, fs)
	if err != nil {
		return nil, &types.ExitError{Code: 1, Message: err.Error()}
	}
	defer func() {
		for _, t := range trees {
			t.Close()
		}
	}()

	entryID, ok := resolveEntry(modules, opts.Entry)
	if !ok {
		return nil, &types.ExitError{Code: 1, Message: fmt.Sprintf("entry module %q not found among discovered sources", opts.Entry)}
	}

	byName := map[string]*types.Module{}
	for _, m := range modules {
		byName[m.DottedName] = m
	}

	if err := normalizeRelativeImports(modules, opts.Classifier, bag); err != nil {
		return nil, err
	}

	for _, m := range modules {
		scanner.DetectAllExports(m)
		scanner.InferExports(m)
		scanner.DetectSideEffects(m)
	}

	if err := expandStarImports(modules, byName, opts.Classifier, bag); err != nil {
		return nil, err
	}
	if err := checkClassifications(modules, opts.Classifier, bag); err != nil {
		return nil, err
	}

	opts.OnProgress("graph", "Building dependency graph...")
	g := buildGraph(modules, byName)

	// A module whose source already holds function-scoped first-party
	// imports cannot inline (spec §4.3), and the imported module must be
	// registered in sys.modules before that import runs at call time --
	// both ends of such an edge wrap. Conditionally-guarded imports stay
	// verbatim in their container, so their targets need registration too.
	for _, e := range g.Edges {
		switch e.Placement {
		case types.PlacementFunction:
			g.Modules[e.From].HasFunctionScopedImports = true
			g.Modules[e.To].NeedsModuleObject = true
		case types.PlacementConditional:
			g.Modules[e.To].NeedsModuleObject = true
		}
	}

	opts.OnProgress("cycles", "Analyzing cycles...")
	cycles := depgraph.Analyze(g)
	for _, c := range cycles {
		if !c.Kind.Resolvable() {
			d := bag.New(diag.CyclicDependency, true, c.String(g)+": "+c.Reason)
			return nil, d
		}
	}

	opts.OnProgress("rewrite", "Rewriting function-scoped imports...")
	moves := rewrite.Plan(g, cycles)
	applyMoves(modules, moves)

	// Every member of a resolved cycle wraps: the moved imports re-enter
	// through sys.modules at call time, so each member needs a registered
	// module object.
	for _, c := range cycles {
		for _, mid := range c.Modules {
			g.Modules[mid].NeedsModuleObject = true
		}
	}

	emit.DecideStrategies(modules)

	opts.OnProgress("analyze", "Running semantic analysis...")
	analyses := map[types.ModuleId]*semantic.Analysis{}
	for _, m := range modules {
		a := semantic.Analyze(m, func(imp *types.ImportInfo) (types.ModuleId, bool) {
			return resolveWholeModuleImport(byName, imp)
		})
		m.ModuleLevelNames = a.ModuleLevelNames
		analyses[m.ID] = a
	}

	reachable := reachableFrom(g, entryID)

	inlineModules := inlineCandidates(modules, reachable)
	table := symbols.Build(inlineModules, func(mid types.ModuleId, detail string) {
		bag.New(diag.SymbolAssignmentFailure, false, detail)
	})

	namespaces := buildNamespaces(modules, byName, analyses, table, reachable)

	var order []types.ModuleId
	for _, mid := range depgraph.CondensationOrder(g, entryID) {
		if reachable[mid] {
			order = append(order, mid)
		}
	}

	opts.OnProgress("emit", "Emitting bundle...")
	out := emit.Emit(emit.Input{
		Graph:      g,
		Order:      order,
		Entry:      entryID,
		Trees:      trees,
		Table:      table,
		Analyses:   analyses,
		Namespaces: namespaces,
		Classifier: opts.Classifier,
		Resolve: func(referrer *types.Module, imp *types.ImportInfo) *types.Module {
			return resolveModuleForImport(byName, imp)
		},
	})

	return &Result{Source: out, Modules: len(order), Diag: bag}, nil
}

// scanResult pairs a discovered source file with its scanned module and
// live parse tree (kept open through emission for span-splice rendering).
type scanResult struct {
	file   discovery.SourceFile
	module *types.Module
	tree   *pyparse.Tree
	err    error
}

// scanAll parses and scans every discovered file. This is the one
// embarrassingly-parallel phase of the pipeline (spec §5): each file's
// parse + item-graph build is independent of every other's.
func scanAll(files []discovery.SourceFile, fs fsys.FileSystem) ([]*types.Module, map[types.ModuleId]*pyparse.Tree, error) {
	p, err := pyparse.New()
	if err != nil {
		return nil, nil, fmt.Errorf("init parser: %w", err)
	}
	defer p.Close()

	sc := scanner.New()
	results := make([]scanResult, len(files))

	g := new(errgroup.Group)
	var mu sync.Mutex
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			content, err := fs.Read(f.Path)
			if err != nil {
				mu.Lock()
				results[i] = scanResult{file: f, err: err}
				mu.Unlock()
				return nil
			}
			tree, err := p.Parse(content, f.Path)
			if err != nil {
				mu.Lock()
				results[i] = scanResult{file: f, err: err}
				mu.Unlock()
				return nil
			}
			module := sc.Scan(tree)
			module.DottedName = f.DottedName
			module.Path = f.Path
			module.IsPackage = f.IsPackage
			mu.Lock()
			results[i] = scanResult{file: f, module: module, tree: tree}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	var modules []*types.Module
	trees := map[types.ModuleId]*pyparse.Tree{}
	for i, r := range results {
		if r.err != nil {
			return nil, nil, fmt.Errorf("%s: %w", r.file.Path, r.err)
		}
		r.module.ID = types.ModuleId(i)
		modules = append(modules, r.module)
		trees[r.module.ID] = r.tree
	}
	return modules, trees, nil
}

func resolveEntry(modules []*types.Module, entry string) (types.ModuleId, bool) {
	for _, m := range modules {
		if m.DottedName == entry || m.Path == entry {
			return m.ID, true
		}
	}
	return types.InvalidModuleId, false
}

// normalizeRelativeImports rewrites every relative import clause into its
// absolute dotted form, so every later stage (graph, registry, emitter)
// deals with one spelling only.
func normalizeRelativeImports(modules []*types.Module, classifier classify.Classifier, bag *diag.Bag) error {
	for _, m := range modules {
		for _, item := range m.Items {
			for _, imp := range item.Imports {
				if imp.Level == 0 {
					continue
				}
				dotted, err := classifier.ResolveRelative(m.Path, imp.Level, imp.Module)
				if err != nil || dotted == "" {
					d := bag.New(diag.ClassificationError, true,
						fmt.Sprintf("%s: cannot resolve relative import (level %d)", m.DottedName, imp.Level))
					return d
				}
				imp.Module = dotted
				imp.Level = 0
			}
		}
	}
	return nil
}

// expandStarImports resolves first-party `from M import *` at scan time
// (spec §4.7): fatal without an explicit __all__ on M, otherwise expanded
// into the listed names.
func expandStarImports(modules []*types.Module, byName map[string]*types.Module, classifier classify.Classifier, bag *diag.Bag) error {
	for _, m := range modules {
		for _, item := range m.Items {
			if item.Kind != types.ItemFromImport {
				continue
			}
			for idx, imp := range item.Imports {
				if imp.OriginalName != "*" {
					continue
				}
				target, ok := byName[imp.Module]
				if !ok {
					if classifier.Classify(imp.Module, m.Path).Kind == classify.FirstParty {
						d := bag.New(diag.ClassificationError, true,
							fmt.Sprintf("%s: star import of unresolvable first-party module %q", m.DottedName, imp.Module))
						return d
					}
					continue // third-party star import is preserved as-is
				}
				if !target.HasExplicitAll {
					d := bag.New(diag.StarImportWithoutAll, true,
						fmt.Sprintf("%s: from %s import * requires %s to declare __all__", m.DottedName, imp.Module, imp.Module))
					return d
				}
				var expanded []*types.ImportInfo
				for _, name := range target.AllExports {
					expanded = append(expanded, &types.ImportInfo{
						Form:            types.FormFromImportName,
						Module:          imp.Module,
						OriginalName:    name,
						Alias:           name,
						Placement:       imp.Placement,
						SideEffecting:   imp.SideEffecting,
						ReferringItemID: imp.ReferringItemID,
					})
					item.Defines[name] = true
				}
				item.Imports = append(item.Imports[:idx], append(expanded, item.Imports[idx+1:]...)...)
				break
			}
		}
	}
	return nil
}

// checkClassifications surfaces Unresolved imports in first-party code as
// fatal ClassificationErrors (spec §7).
func checkClassifications(modules []*types.Module, classifier classify.Classifier, bag *diag.Bag) error {
	for _, m := range modules {
		for _, item := range m.Items {
			for _, imp := range item.Imports {
				if imp.Module == "" || imp.Module == "__future__" {
					continue
				}
				if classifier.Classify(imp.Module, m.Path).Kind == classify.Unresolved {
					d := bag.New(diag.ClassificationError, true,
						fmt.Sprintf("%s: unresolved import %q", m.DottedName, imp.Module))
					return d
				}
			}
		}
	}
	return nil
}

// buildGraph follows every first-party import edge discovered by the
// scanner (spec §4.2: "following first-party imports only"). Presence in
// the discovered module set is what makes an import first-party here; the
// classifier already vetted everything else.
func buildGraph(modules []*types.Module, byName map[string]*types.Module) *types.DependencyGraph {
	builder := depgraph.NewBuilder(modules)
	for _, m := range modules {
		for _, item := range m.Items {
			for _, imp := range item.Imports {
				target := resolveModuleForImport(byName, imp)
				if target == nil || target.ID == m.ID {
					continue
				}
				builder.AddEdge(m.ID, target.ID, item.ID, imp.Form, imp.Placement, imp.SideEffecting, importedNamesOf(item))
			}
		}
	}
	return builder.Graph()
}

func importedNamesOf(item *types.Item) []string {
	var names []string
	for _, imp := range item.Imports {
		names = append(names, imp.Alias)
	}
	return names
}

// resolveModuleForImport maps one (already absolute) import clause to the
// first-party module it refers to, or nil. For from-imports a submodule
// match wins over the package itself: "from pkg import sub" refers to
// pkg.sub when that file exists, and to a symbol of pkg otherwise.
func resolveModuleForImport(byName map[string]*types.Module, imp *types.ImportInfo) *types.Module {
	switch imp.Form {
	case types.FormImportModule, types.FormImportModuleAs:
		return byName[imp.Module]
	default:
		if imp.OriginalName != "" && imp.OriginalName != "*" {
			if sub, ok := byName[imp.Module+"."+imp.OriginalName]; ok {
				return sub
			}
		}
		return byName[imp.Module]
	}
}

// resolveWholeModuleImport reports whether imp binds a first-party module
// as a whole object (spec §4.4 bullet 4), as opposed to pulling a symbol
// out of one.
func resolveWholeModuleImport(byName map[string]*types.Module, imp *types.ImportInfo) (types.ModuleId, bool) {
	switch imp.Form {
	case types.FormImportModule, types.FormImportModuleAs:
		if t, ok := byName[imp.Module]; ok {
			return t.ID, true
		}
	case types.FormFromImportName, types.FormFromImportNameAs:
		if t, ok := byName[imp.Module+"."+imp.OriginalName]; ok {
			return t.ID, true
		}
	}
	return 0, false
}

// applyMoves marks the moved import items and records the rendered
// function-scoped statements on their modules for the emitter. An item is
// only moved when every one of its clauses qualified; a partially
// qualifying statement stays at module scope.
func applyMoves(modules []*types.Module, moves []rewrite.Move) {
	byID := map[types.ModuleId]*types.Module{}
	itemByID := map[types.ModuleId]map[int]*types.Item{}
	for _, m := range modules {
		byID[m.ID] = m
		itemByID[m.ID] = map[int]*types.Item{}
		for _, item := range m.Items {
			itemByID[m.ID][item.ID] = item
		}
	}

	movedPerItem := map[types.ModuleId]map[int]int{}
	for _, mv := range moves {
		if movedPerItem[mv.ModuleID] == nil {
			movedPerItem[mv.ModuleID] = map[int]int{}
		}
		movedPerItem[mv.ModuleID][mv.ItemID]++
	}

	type fnKey struct {
		mid types.ModuleId
		fn  string
	}
	grouped := map[fnKey][]*types.ImportInfo{}
	var keys []fnKey
	for _, mv := range moves {
		item := itemByID[mv.ModuleID][mv.ItemID]
		if item == nil || movedPerItem[mv.ModuleID][mv.ItemID] < len(item.Imports) {
			continue
		}
		item.Moved = true
		m := byID[mv.ModuleID]
		m.HasFunctionScopedImports = true
		for _, fn := range mv.FunctionNames {
			k := fnKey{mid: mv.ModuleID, fn: fn}
			if _, ok := grouped[k]; !ok {
				keys = append(keys, k)
			}
			grouped[k] = append(grouped[k], mv.Import)
		}
	}

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].mid != keys[j].mid {
			return keys[i].mid < keys[j].mid
		}
		return keys[i].fn < keys[j].fn
	})
	for _, k := range keys {
		m := byID[k.mid]
		for _, stmt := range rewrite.RenderStatements(grouped[k]) {
			m.MovedImports = append(m.MovedImports, types.MovedImport{FunctionName: k.fn, Statement: stmt})
		}
	}
}

// reachableFrom computes the set of modules reachable from the entry over
// the dependency graph; only those are bundled.
func reachableFrom(g *types.DependencyGraph, entry types.ModuleId) map[types.ModuleId]bool {
	reach := map[types.ModuleId]bool{}
	var visit func(types.ModuleId)
	visit = func(mid types.ModuleId) {
		if reach[mid] {
			return
		}
		reach[mid] = true
		for _, idx := range g.Out[mid] {
			visit(g.Edges[idx].To)
		}
	}
	visit(entry)
	return reach
}

// inlineCandidates returns the reachable modules strategy selection marked
// Inline; symbol assignment only considers those, since wrapped modules
// keep their own namespace (spec §4.6.1).
func inlineCandidates(modules []*types.Module, reachable map[types.ModuleId]bool) []*types.Module {
	var out []*types.Module
	for _, m := range modules {
		if reachable[m.ID] && m.Strategy == types.StrategyInline {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// buildNamespaces synthesizes one Namespace per whole-module import of an
// inlined first-party module (spec §4.6.4), including the intermediate
// chain for dotted "import p.s.t" forms. Wrapped targets bind through
// their init function instead and need no namespace.
func buildNamespaces(modules []*types.Module, byName map[string]*types.Module, analyses map[types.ModuleId]*semantic.Analysis, table *types.SymbolTable, reachable map[types.ModuleId]bool) map[types.ModuleId][]*types.Namespace {
	out := map[types.ModuleId][]*types.Namespace{}
	byID := map[types.ModuleId]*types.Module{}
	for _, m := range modules {
		byID[m.ID] = m
	}

	for _, m := range modules {
		if !reachable[m.ID] {
			continue
		}
		a := analyses[m.ID]
		if a == nil {
			continue
		}
		var locals []string
		for local := range a.NamespaceUsage {
			locals = append(locals, local)
		}
		sort.Strings(locals)

		for _, local := range locals {
			ref := a.NamespaceUsage[local]
			source := byID[ref.Module]
			if source.Strategy == types.StrategyWrapped {
				continue
			}
			imp := ref.Import
			if imp.Form == types.FormImportModule && strings.Contains(imp.Module, ".") {
				out[m.ID] = append(out[m.ID], namespaceChain(imp.Module, byName, table))
				continue
			}
			ns := &types.Namespace{LocalName: local, Dotted: source.DottedName, SourceModule: source.ID, Attrs: map[string]string{}}
			fillNamespaceAttrs(ns, source, table)
			out[m.ID] = append(out[m.ID], ns)
		}
	}
	return out
}

// namespaceChain builds the P -> P.S -> P.S.T namespace chain for a dotted
// whole-module import; each prefix that is itself a bundled inline module
// mirrors that module's exports.
func namespaceChain(dotted string, byName map[string]*types.Module, table *types.SymbolTable) *types.Namespace {
	segs := strings.Split(dotted, ".")
	var root, cur *types.Namespace
	for i := range segs {
		path := strings.Join(segs[:i+1], ".")
		ns := &types.Namespace{
			LocalName:    segs[i],
			Dotted:       path,
			SourceModule: types.InvalidModuleId,
			Attrs:        map[string]string{},
			Children:     map[string]*types.Namespace{},
		}
		if m, ok := byName[path]; ok && m.Strategy == types.StrategyInline {
			ns.SourceModule = m.ID
			fillNamespaceAttrs(ns, m, table)
		}
		if cur == nil {
			root = ns
		} else {
			cur.Children[segs[i]] = ns
		}
		cur = ns
	}
	return root
}

func fillNamespaceAttrs(ns *types.Namespace, source *types.Module, table *types.SymbolTable) {
	for _, export := range source.Exports() {
		if final, ok := table.Lookup(source.ID, export); ok {
			ns.Attrs[export] = final
			ns.AttrOrder = append(ns.AttrOrder, export)
		}
	}
}
