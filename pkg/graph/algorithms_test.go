package graph

import (
	"errors"
	"slices"
	"testing"

	"github.com/paulmach/osm"
)

func buildGraph(t *testing.T, nodes []osm.NodeID, edges [][2]osm.NodeID) *Graph {
	t.Helper()
	g := New(nil)
	for _, id := range nodes {
		if err := g.AddNode(Node{ID: id}); err != nil {
			t.Fatalf("AddNode(%d): %v", id, err)
		}
	}
	for _, e := range edges {
		if _, err := g.AddEdgeAutoKey(e[0], e[1], nil); err != nil {
			t.Fatalf("AddEdge(%d, %d): %v", e[0], e[1], err)
		}
	}
	return g
}

func TestTopologicalSort(t *testing.T) {
	tests := []struct {
		name  string
		nodes []osm.NodeID
		edges [][2]osm.NodeID
		want  []osm.NodeID
	}{
		{
			name:  "chain",
			nodes: []osm.NodeID{3, 1, 2, 4},
			edges: [][2]osm.NodeID{{2, 3}, {1, 2}, {3, 4}},
			want:  []osm.NodeID{1, 2, 3, 4},
		},
		{
			name:  "diamond picks smallest ready node first",
			nodes: []osm.NodeID{1, 2, 3, 4},
			edges: [][2]osm.NodeID{{1, 2}, {1, 3}, {2, 4}, {3, 4}},
			want:  []osm.NodeID{1, 2, 3, 4},
		},
		{
			name:  "single node",
			nodes: []osm.NodeID{7},
			want:  []osm.NodeID{7},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := buildGraph(t, tt.nodes, tt.edges)
			got, err := g.TopologicalSort()
			if err != nil {
				t.Fatalf("TopologicalSort error: %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("TopologicalSort = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTopologicalSortCycle(t *testing.T) {
	g := buildGraph(t,
		[]osm.NodeID{1, 2, 3},
		[][2]osm.NodeID{{1, 2}, {2, 3}, {3, 1}})

	_, err := g.TopologicalSort()
	if !errors.Is(err, ErrGraphHasCycle) {
		t.Errorf("TopologicalSort on cycle = %v, want ErrGraphHasCycle", err)
	}
}

func TestLargestWeakComponent(t *testing.T) {
	// Two components: {1,2,3} connected only through mixed edge directions,
	// and {10,11}. Direction must not matter for membership.
	g := buildGraph(t,
		[]osm.NodeID{1, 2, 3, 10, 11},
		[][2]osm.NodeID{{1, 2}, {3, 2}, {10, 11}})

	comp := g.LargestWeakComponent()
	if comp.NodeCount() != 3 {
		t.Fatalf("component size = %d, want 3", comp.NodeCount())
	}
	for _, id := range []osm.NodeID{1, 2, 3} {
		if !comp.HasNode(id) {
			t.Errorf("component missing node %d", id)
		}
	}
	if comp.HasNode(10) {
		t.Error("component contains node from the smaller component")
	}
	if comp.EdgeCount() != 2 {
		t.Errorf("component edges = %d, want 2", comp.EdgeCount())
	}
}

func TestLargestWeakComponentWholeGraph(t *testing.T) {
	g := buildGraph(t,
		[]osm.NodeID{1, 2},
		[][2]osm.NodeID{{1, 2}})

	comp := g.LargestWeakComponent()
	if comp.NodeCount() != 2 || comp.EdgeCount() != 1 {
		t.Errorf("component = %d nodes %d edges, want 2 and 1",
			comp.NodeCount(), comp.EdgeCount())
	}
}
