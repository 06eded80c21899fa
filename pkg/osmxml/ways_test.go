package osmxml

import (
	"bytes"
	"slices"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/paulmach/osm"
)

func TestOrderedWayNodes(t *testing.T) {
	tests := []struct {
		name  string
		edges []WayEdge
		want  []osm.NodeID
	}{
		{
			name: "empty",
		},
		{
			name:  "single edge",
			edges: []WayEdge{{7, 9}},
			want:  []osm.NodeID{7, 9},
		},
		{
			name:  "unordered chain",
			edges: []WayEdge{{2, 3}, {1, 2}, {3, 4}},
			want:  []osm.NodeID{1, 2, 3, 4},
		},
		{
			name:  "closed loop recovered by peeling",
			edges: []WayEdge{{1, 2}, {2, 3}, {3, 1}},
			want:  []osm.NodeID{1, 2, 3},
		},
		{
			name:  "disconnected fragments keep the largest run",
			edges: []WayEdge{{1, 2}, {2, 3}, {5, 6}},
			want:  []osm.NodeID{1, 2, 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := OrderedWayNodes(tt.edges, nil)
			if !slices.Equal(got, tt.want) {
				t.Errorf("OrderedWayNodes(%v) = %v, want %v", tt.edges, got, tt.want)
			}
		})
	}
}

func TestOrderedWayNodesReportsPartialRecovery(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf)

	// 5 unique nodes, largest component holds 3.
	got := OrderedWayNodes([]WayEdge{{1, 2}, {2, 3}, {5, 6}}, logger)
	if !slices.Equal(got, []osm.NodeID{1, 2, 3}) {
		t.Fatalf("OrderedWayNodes = %v, want [1 2 3]", got)
	}

	out := buf.String()
	if !strings.Contains(out, "recovered=3") || !strings.Contains(out, "total=5") {
		t.Errorf("partial recovery log = %q, want recovered=3 of total=5", out)
	}
}

func TestOrderedWayNodesUnique(t *testing.T) {
	// A loop's recovered order must not repeat its start node.
	got := OrderedWayNodes([]WayEdge{{1, 2}, {2, 3}, {3, 1}}, nil)
	seen := map[osm.NodeID]bool{}
	for _, id := range got {
		if seen[id] {
			t.Fatalf("node %d repeated in %v", id, got)
		}
		seen[id] = true
	}
}
