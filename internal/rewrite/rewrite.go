// Package rewrite implements the Import Rewriter (spec §4.3): for each
// resolvable (FunctionLevel) cycle, it moves module-level imports used only
// by deferred reads into the function bodies that actually use them.
package rewrite

import (
	"sort"

	"github.com/go-cribo/cribo/pkg/types"
)

// Move describes one import relocation the rewriter has decided on: delete
// the module-level Item identified by ModuleID/ItemID, and insert an
// equivalent import at the top of every function in FunctionNames.
type Move struct {
	ModuleID      types.ModuleId
	ItemID        int
	Import        *types.ImportInfo
	FunctionNames []string
}

// Plan computes the set of Moves for every FunctionLevel cycle in cycles.
// It is idempotent: calling Plan again on a graph whose qualifying imports
// have already been moved to function scope finds none left at module
// scope and returns no further moves, per spec §4.3's idempotency rule.
func Plan(g *types.DependencyGraph, cycles []*types.Cycle) []Move {
	var moves []Move
	for _, c := range cycles {
		if c.Kind != types.CycleFunctionLevel {
			continue
		}
		members := map[types.ModuleId]bool{}
		for _, m := range c.Modules {
			members[m] = true
		}
		for _, mid := range c.Modules {
			moves = append(moves, planModule(g, mid, members)...)
		}
	}
	return moves
}

func planModule(g *types.DependencyGraph, mid types.ModuleId, cycleMembers map[types.ModuleId]bool) []Move {
	module := g.Modules[mid]
	var moves []Move

	for _, item := range module.Items {
		if len(item.Scope) != 0 || item.Moved || len(item.Imports) == 0 {
			continue
		}
		if !resolvesIntoCycle(g, mid, item, cycleMembers) {
			continue
		}
		if usedAtClassLevel(module, item) {
			continue
		}
		for _, imp := range item.Imports {
			if imp.SideEffecting && isSideEffectingModule(g, mid, imp) {
				continue
			}
			functions := functionsUsingOnlyDeferred(module, imp.Alias)
			if len(functions) == 0 {
				continue
			}
			moves = append(moves, Move{
				ModuleID:      mid,
				ItemID:        item.ID,
				Import:        imp,
				FunctionNames: functions,
			})
		}
	}
	return moves
}

// resolvesIntoCycle reports whether item's import statement corresponds to
// at least one graph edge whose target is a cycle member.
func resolvesIntoCycle(g *types.DependencyGraph, from types.ModuleId, item *types.Item, members map[types.ModuleId]bool) bool {
	for _, idx := range g.Out[from] {
		e := g.Edges[idx]
		if e.ReferringItemID == item.ID && members[e.To] {
			return true
		}
	}
	return false
}

// isSideEffectingModule reports whether the target module of imp (if it can
// be resolved among g.Modules) is itself flagged side-effecting; spec §4.3
// only withholds imports whose *removal* would change observable behavior,
// i.e. importing a side-effecting module.
func isSideEffectingModule(g *types.DependencyGraph, from types.ModuleId, imp *types.ImportInfo) bool {
	for _, idx := range g.Out[from] {
		e := g.Edges[idx]
		if e.From == from {
			target := g.Modules[e.To]
			if target.DottedName == imp.Module || hasSuffix(target.DottedName, imp.Module) {
				return target.SideEffects
			}
		}
	}
	return false
}

func hasSuffix(s, suffix string) bool {
	return len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix
}

// usedAtClassLevel reports whether any of item's bound names are read by a
// class body at class-definition time anywhere in module.
func usedAtClassLevel(module *types.Module, item *types.Item) bool {
	for _, other := range module.Items {
		if other.Kind != types.ItemClassDef {
			continue
		}
		for _, imp := range item.Imports {
			if other.ClassLevelReads[imp.Alias] {
				return true
			}
		}
	}
	return false
}

// functionsUsingOnlyDeferred returns the sorted names of every top-level
// function in module whose DeferredReads contains name, or nil when some
// other top-level statement reads name immediately (the name is then also
// used at module scope, disqualifying the move). A function's own
// ImmediateReads (defaults, decorators) are not checked.
func functionsUsingOnlyDeferred(module *types.Module, name string) []string {
	usedImmediately := false
	for _, item := range module.Items {
		if len(item.Scope) == 0 && item.Kind != types.ItemFunctionDef && item.ImmediateReads[name] {
			usedImmediately = true
		}
	}
	if usedImmediately {
		return nil
	}

	var names []string
	for _, item := range module.Items {
		if len(item.Scope) != 0 || item.Kind != types.ItemFunctionDef {
			continue
		}
		if item.DeferredReads[name] {
			names = append(names, item.Name)
		}
	}
	sort.Strings(names)
	return names
}

// CoalesceByFunction groups moves destined for the same function and
// source module into a single synthesized import statement per spec §4.3's
// "insert at most one import per imported module name" rule.
func CoalesceByFunction(moves []Move) map[string][]*types.ImportInfo {
	out := map[string][]*types.ImportInfo{}
	for _, mv := range moves {
		for _, fn := range mv.FunctionNames {
			out[fn] = append(out[fn], mv.Import)
		}
	}
	for fn, imports := range out {
		out[fn] = coalesceSameModule(imports)
	}
	return out
}

// RenderStatements renders a coalesced import group as Python statements:
// same-module from-imports collapse into one "from M import a, b as c"
// line; plain imports render one statement each, preserving aliases (spec
// §4.3: "preserve the exact import form").
func RenderStatements(imports []*types.ImportInfo) []string {
	var out []string
	var fromModule string
	var fromNames []string
	flush := func() {
		if len(fromNames) > 0 {
			out = append(out, "from "+fromModule+" import "+joinComma(fromNames))
			fromNames = nil
		}
	}

	for _, imp := range coalesceSameModule(imports) {
		switch imp.Form {
		case types.FormImportModule:
			flush()
			out = append(out, "import "+imp.Module)
		case types.FormImportModuleAs:
			flush()
			out = append(out, "import "+imp.Module+" as "+imp.Alias)
		default:
			if imp.Module != fromModule {
				flush()
				fromModule = imp.Module
			}
			name := imp.OriginalName
			if imp.Alias != "" && imp.Alias != imp.OriginalName {
				name += " as " + imp.Alias
			}
			fromNames = append(fromNames, name)
		}
	}
	flush()
	return out
}

func joinComma(names []string) string {
	s := ""
	for i, n := range names {
		if i > 0 {
			s += ", "
		}
		s += n
	}
	return s
}

// coalesceSameModule merges same-module from-imports into one ImportInfo
// group ordered by original name; distinct modules are each kept separate
// and ordered for determinism.
func coalesceSameModule(imports []*types.ImportInfo) []*types.ImportInfo {
	byModule := map[string][]*types.ImportInfo{}
	var modules []string
	for _, imp := range imports {
		if _, ok := byModule[imp.Module]; !ok {
			modules = append(modules, imp.Module)
		}
		byModule[imp.Module] = append(byModule[imp.Module], imp)
	}
	sort.Strings(modules)

	var out []*types.ImportInfo
	for _, m := range modules {
		group := byModule[m]
		sort.Slice(group, func(i, j int) bool { return group[i].OriginalName < group[j].OriginalName })
		out = append(out, group...)
	}
	return out
}
