package depgraph

import (
	"sort"

	"github.com/go-cribo/cribo/pkg/types"
)

// Analyze finds the dependency graph's cycles and classifies each (spec
// §4.2). Singleton SCCs without a self-edge are not cycles and are
// excluded from the returned slice.
func Analyze(g *types.DependencyGraph) []*types.Cycle {
	sccs := StronglyConnectedComponents(g)

	var cycles []*types.Cycle
	for _, component := range sccs {
		members := map[types.ModuleId]bool{}
		for _, m := range component {
			members[m] = true
		}
		edgeIdxs := EdgeIndexesBetween(g, members)

		if len(component) == 1 && !hasSelfEdge(g, edgeIdxs, component[0]) {
			continue
		}

		edges := edgesAt(g, edgeIdxs)
		kind, reason := classify(g, edges)
		cycles = append(cycles, &types.Cycle{
			Modules:  component,
			EdgeIdxs: edgeIdxs,
			Kind:     kind,
			Reason:   reason,
		})
	}
	return cycles
}

func hasSelfEdge(g *types.DependencyGraph, edgeIdxs []int, m types.ModuleId) bool {
	for _, idx := range edgeIdxs {
		e := g.Edges[idx]
		if e.From == m && e.To == m {
			return true
		}
	}
	return false
}

func edgesAt(g *types.DependencyGraph, idxs []int) []types.ImportEdge {
	out := make([]types.ImportEdge, len(idxs))
	for i, idx := range idxs {
		out[i] = g.Edges[idx]
	}
	return out
}

// classify implements spec §4.2's four-way decision tree, evaluated in
// priority order across every edge of the SCC.
func classify(g *types.DependencyGraph, edges []types.ImportEdge) (types.CycleKind, string) {
	// A cycle is FunctionLevel when every edge is already function-scoped,
	// or sits at module scope but binds names that are only ever read from
	// inside function bodies -- those are the imports the rewriter can move.
	allDeferred := true
	for _, e := range edges {
		if e.Placement == types.PlacementFunction {
			continue
		}
		referrer := g.Modules[e.From]
		if e.Placement != types.PlacementModule || !namesOnlyDeferred(referrer, e.ImportedNames) {
			allDeferred = false
			break
		}
	}
	if allDeferred {
		return types.CycleFunctionLevel, "every import used only via deferred reads"
	}

	for _, e := range edges {
		referrer := g.Modules[e.From]
		if namesAnyClassLevel(referrer, e.ImportedNames) {
			return types.CycleClassLevel, "imported name used in a class base, decorator, or metaclass"
		}
	}

	for _, e := range edges {
		referrer := g.Modules[e.From]
		if namesAnyModuleConstant(referrer, e.ImportedNames) {
			return types.CycleModuleConstants, "imported name read immediately by a module-level non-def statement"
		}
	}

	return types.CycleImportTime, "imported name used only at import time outside function/class scope"
}

// namesOnlyDeferred consults only module-scope items: a nested item's own
// immediate reads are already folded into its enclosing def's deferred set
// by the scanner.
func namesOnlyDeferred(m *types.Module, names []string) bool {
	if len(names) == 0 {
		return true
	}
	for _, item := range m.Items {
		if len(item.Scope) != 0 {
			continue
		}
		for _, name := range names {
			if item.ImmediateReads[name] || item.ClassLevelReads[name] {
				return false
			}
		}
	}
	return true
}

func namesAnyClassLevel(m *types.Module, names []string) bool {
	for _, item := range m.Items {
		if item.Kind != types.ItemClassDef {
			continue
		}
		for _, name := range names {
			if item.ClassLevelReads[name] {
				return true
			}
		}
	}
	return false
}

func namesAnyModuleConstant(m *types.Module, names []string) bool {
	for _, item := range m.Items {
		if len(item.Scope) != 0 {
			continue
		}
		if item.Kind == types.ItemFunctionDef || item.Kind == types.ItemClassDef {
			continue
		}
		for _, name := range names {
			if item.ImmediateReads[name] {
				return true
			}
		}
	}
	return false
}

// CondensationOrder returns module ids in reverse topological order over
// the condensation DAG (leaves first), with ties within an SCC broken by
// first-appearance DFS from entry, then canonical dotted name (spec §4.2).
func CondensationOrder(g *types.DependencyGraph, entry types.ModuleId) []types.ModuleId {
	sccOf := map[types.ModuleId]int{}
	sccs := StronglyConnectedComponents(g)
	for i, c := range sccs {
		for _, m := range c {
			sccOf[m] = i
		}
	}

	// Order each SCC's members by DFS-first appearance from entry, ties by
	// canonical name.
	appearance := dfsAppearanceOrder(g, entry)
	orderedSCCs := make([][]types.ModuleId, len(sccs))
	for i, c := range sccs {
		cc := append([]types.ModuleId(nil), c...)
		sort.Slice(cc, func(a, b int) bool {
			ra, oka := appearance[cc[a]]
			rb, okb := appearance[cc[b]]
			if oka && okb && ra != rb {
				return ra < rb
			}
			if oka != okb {
				return oka
			}
			return g.Modules[cc[a]].DottedName < g.Modules[cc[b]].DottedName
		})
		orderedSCCs[i] = cc
	}

	// sccs from Tarjan already come out in reverse topological order
	// (leaves first), per StronglyConnectedComponents' contract.
	var out []types.ModuleId
	for _, c := range orderedSCCs {
		out = append(out, c...)
	}
	return out
}

func dfsAppearanceOrder(g *types.DependencyGraph, entry types.ModuleId) map[types.ModuleId]int {
	order := map[types.ModuleId]int{}
	visited := map[types.ModuleId]bool{}
	next := 0

	var visit func(types.ModuleId)
	visit = func(m types.ModuleId) {
		if visited[m] {
			return
		}
		visited[m] = true
		order[m] = next
		next++
		for _, idx := range g.Out[m] {
			visit(g.Edges[idx].To)
		}
	}
	visit(entry)
	for _, m := range g.Modules {
		visit(m.ID)
	}
	return order
}
