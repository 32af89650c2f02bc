package depgraph

import "github.com/go-cribo/cribo/pkg/types"

// Builder accumulates first-party import edges discovered by the scanner
// into a DependencyGraph. Non-first-party imports never reach here: the
// classifier has already filtered them out before this stage runs (spec
// §4.2: "following first-party imports only").
type Builder struct {
	graph *types.DependencyGraph
}

// NewBuilder creates a Builder over modules, indexed by their assigned
// ModuleId (modules[i].ID must equal i for the condensation/DFS helpers in
// cycle.go to index correctly).
func NewBuilder(modules []*types.Module) *Builder {
	return &Builder{graph: types.NewDependencyGraph(modules)}
}

// AddEdge records one first-party import edge.
func (b *Builder) AddEdge(from, to types.ModuleId, referringItemID int, form types.ImportForm, placement types.ImportPlacement, sideEffecting bool, importedNames []string) {
	b.graph.AddEdge(types.ImportEdge{
		From:            from,
		To:              to,
		ReferringItemID: referringItemID,
		Form:            form,
		Placement:       placement,
		SideEffecting:   sideEffecting,
		ImportedNames:   importedNames,
	})
}

// Graph returns the built graph.
func (b *Builder) Graph() *types.DependencyGraph { return b.graph }

// EdgeIndexesBetween returns the indices into g.Edges of every edge whose
// From and To both lie in members.
func EdgeIndexesBetween(g *types.DependencyGraph, members map[types.ModuleId]bool) []int {
	var out []int
	for i, e := range g.Edges {
		if members[e.From] && members[e.To] {
			out = append(out, i)
		}
	}
	return out
}
