// Package depgraph builds the first-party module dependency graph and
// classifies its cycles (spec §4.2), grounded in the standard Tarjan SCC
// formulation the teacher uses for its own call-graph cycle detection.
package depgraph

import "github.com/go-cribo/cribo/pkg/types"

type tarjanState struct {
	graph   *types.DependencyGraph
	index   map[types.ModuleId]int
	lowlink map[types.ModuleId]int
	onStack map[types.ModuleId]bool
	stack   []types.ModuleId
	next    int
	sccs    [][]types.ModuleId
}

// StronglyConnectedComponents returns g's SCCs via Tarjan's algorithm, in
// reverse topological order (a component with no outgoing edge to another
// component comes first).
func StronglyConnectedComponents(g *types.DependencyGraph) [][]types.ModuleId {
	st := &tarjanState{
		graph:   g,
		index:   make(map[types.ModuleId]int),
		lowlink: make(map[types.ModuleId]int),
		onStack: make(map[types.ModuleId]bool),
	}
	for _, m := range g.Modules {
		if _, seen := st.index[m.ID]; !seen {
			st.strongConnect(m.ID)
		}
	}
	return st.sccs
}

func (st *tarjanState) strongConnect(v types.ModuleId) {
	st.index[v] = st.next
	st.lowlink[v] = st.next
	st.next++
	st.stack = append(st.stack, v)
	st.onStack[v] = true

	for _, edgeIdx := range st.graph.Out[v] {
		w := st.graph.Edges[edgeIdx].To
		if _, seen := st.index[w]; !seen {
			st.strongConnect(w)
			if st.lowlink[w] < st.lowlink[v] {
				st.lowlink[v] = st.lowlink[w]
			}
		} else if st.onStack[w] {
			if st.index[w] < st.lowlink[v] {
				st.lowlink[v] = st.index[w]
			}
		}
	}

	if st.lowlink[v] == st.index[v] {
		var component []types.ModuleId
		for {
			n := len(st.stack) - 1
			w := st.stack[n]
			st.stack = st.stack[:n]
			st.onStack[w] = false
			component = append(component, w)
			if w == v {
				break
			}
		}
		st.sccs = append(st.sccs, component)
	}
}
