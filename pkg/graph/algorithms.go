package graph

import (
	"slices"

	"github.com/paulmach/osm"
)

// LargestWeakComponent returns the subgraph induced by the largest
// weakly-connected component: the maximal set of nodes mutually reachable
// when edge direction is ignored. Edges are kept only when both endpoints
// fall inside the component. Ties between equally-sized components are broken
// by the smallest member ID for determinism.
//
// Returns an empty graph for an empty input.
func (g *Graph) LargestWeakComponent() *Graph {
	seen := make(map[osm.NodeID]bool, len(g.nodes))
	var best []osm.NodeID

	for _, start := range g.NodeIDs() {
		if seen[start] {
			continue
		}
		comp := g.weakComponentFrom(start, seen)
		if len(comp) > len(best) {
			best = comp
		}
	}

	member := make(map[osm.NodeID]bool, len(best))
	for _, id := range best {
		member[id] = true
	}

	out := New(g.attrs.Clone())
	for _, id := range g.order {
		if member[id] {
			_ = out.AddNode(Node{ID: id, Attrs: g.nodes[id].Attrs})
		}
	}
	for _, e := range g.edges {
		if member[e.U] && member[e.V] {
			_ = out.AddEdge(Edge{U: e.U, V: e.V, Key: e.Key, Attrs: e.Attrs})
		}
	}
	return out
}

// weakComponentFrom collects the weakly-connected component containing start
// via breadth-first search over the union of outgoing and incoming adjacency.
func (g *Graph) weakComponentFrom(start osm.NodeID, seen map[osm.NodeID]bool) []osm.NodeID {
	comp := []osm.NodeID{start}
	seen[start] = true
	for i := 0; i < len(comp); i++ {
		id := comp[i]
		for _, next := range g.outgoing[id] {
			if !seen[next] {
				seen[next] = true
				comp = append(comp, next)
			}
		}
		for _, next := range g.incoming[id] {
			if !seen[next] {
				seen[next] = true
				comp = append(comp, next)
			}
		}
	}
	return comp
}

// TopologicalSort returns the node IDs in a topological order respecting edge
// direction, using Kahn's algorithm. Among simultaneously-ready nodes the
// smallest ID goes first, so output is deterministic.
//
// Returns ErrGraphHasCycle when a directed cycle makes the sort infeasible.
func (g *Graph) TopologicalSort() ([]osm.NodeID, error) {
	indegree := make(map[osm.NodeID]int, len(g.nodes))
	for id := range g.nodes {
		indegree[id] = len(g.incoming[id])
	}

	var ready []osm.NodeID
	for id, d := range indegree {
		if d == 0 {
			ready = append(ready, id)
		}
	}
	slices.Sort(ready)

	order := make([]osm.NodeID, 0, len(g.nodes))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)

		for _, next := range g.outgoing[id] {
			indegree[next]--
			if indegree[next] == 0 {
				ready = insertSorted(ready, next)
			}
		}
	}

	if len(order) < len(g.nodes) {
		return nil, ErrGraphHasCycle
	}
	return order, nil
}

func insertSorted(ids []osm.NodeID, id osm.NodeID) []osm.NodeID {
	i, _ := slices.BinarySearch(ids, id)
	return slices.Insert(ids, i, id)
}
