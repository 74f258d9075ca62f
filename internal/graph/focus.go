package graph

import "github.com/nao1215/sitegraph/internal/model"

// Focus derives the neighborhood view of a selected node: the edges touching
// it, plus a recoloring that dims every node outside that neighborhood.
//
// Nodes are never removed, only recolored. Removing them would change the
// node count under the external force layout mid-interaction and destabilize
// it; dimming gives the same visual focus while the layout keeps every body
// it was seeded with. The renderer should therefore treat a Focus change as
// a restyle plus an edge-subset swap, not as a reason to re-seed.
//
// An empty selectedID means no selection, and the input graph is returned
// unchanged. Focus never mutates its input: the dimmed view is built on
// copies, so the base graph can be re-focused for any later selection.
func Focus(g *model.Graph, selectedID string) *model.Graph {
	if selectedID == "" {
		return g
	}

	edges := make([]model.Edge, 0, len(g.Edges))
	touched := map[string]struct{}{selectedID: {}}
	for _, e := range g.Edges {
		if e.Source != selectedID && e.Target != selectedID {
			continue
		}
		edges = append(edges, e)
		touched[e.Source] = struct{}{}
		touched[e.Target] = struct{}{}
	}

	nodes := make([]model.Node, len(g.Nodes))
	copy(nodes, g.Nodes)
	for i := range nodes {
		if _, ok := touched[nodes[i].ID]; ok {
			continue
		}
		nodes[i].Color = model.ColorDimmed
		nodes[i].Dimmed = true
	}

	return &model.Graph{Nodes: nodes, Edges: edges}
}
