package osmxml

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/paulmach/osm"

	"github.com/waygraph/waygraph/pkg/graph"
)

// WayEdge is one edge fragment of an OSM way: an (origin, destination) pair.
// A way's fragments arrive as an unordered collection; OrderedWayNodes
// recovers the traversal order.
type WayEdge struct {
	U, V osm.NodeID
}

// OrderedWayNodes recovers the ordered sequence of unique node IDs that
// represents the original traversal order of one way, given the unordered
// edge fragments sharing that way's membership ID.
//
// A single edge trivially orders as [origin, destination]. Otherwise a
// scratch multigraph over the fragments is reduced to its largest
// weakly-connected component (a way may carry mixed-direction fragments
// after splitting) and topologically sorted. When the component contains a
// directed cycle - the common case being a way that loops back onto its
// first node - the sort is infeasible; the fallback peels the first edge's
// origin, recovers the order of the remaining fragments recursively, and
// prepends the peeled node.
//
// If fragments are disconnected, nodes outside the largest component are
// dropped and the partial recovery is logged; the foreign schema does not
// forbid such ways, so this is not an error. The peel fallback is verified
// for a single simple loop only; ways containing multiple independent cycles
// are a known limitation and may order incorrectly.
func OrderedWayNodes(edges []WayEdge, logger *log.Logger) []osm.NodeID {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if len(edges) == 0 {
		return nil
	}
	if len(edges) == 1 {
		return []osm.NodeID{edges[0].U, edges[0].V}
	}

	// Scratch graph lives only for this way's processing.
	scratch := graph.New(nil)
	unique := map[osm.NodeID]bool{}
	for _, e := range edges {
		for _, id := range []osm.NodeID{e.U, e.V} {
			if !unique[id] {
				unique[id] = true
				_ = scratch.AddNode(graph.Node{ID: id})
			}
		}
		_, _ = scratch.AddEdgeAutoKey(e.U, e.V, nil)
	}

	component := scratch.LargestWeakComponent()
	order, err := component.TopologicalSort()
	if err != nil {
		// Directed cycle: peel the first edge's origin and recurse. The
		// peeled node resurfaces at the tail of a closed loop's recursive
		// order, so duplicates are filtered keeping first occurrence.
		first := edges[0].U
		rest := OrderedWayNodes(edges[1:], logger)
		return uniqueIDs(append([]osm.NodeID{first}, rest...))
	}

	if len(order) < len(unique) {
		logger.Info("recovered partial node order for way",
			"recovered", len(order), "total", len(unique))
	}
	return order
}

func uniqueIDs(ids []osm.NodeID) []osm.NodeID {
	seen := make(map[osm.NodeID]bool, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
