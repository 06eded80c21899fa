package graph

import (
	"errors"
	"slices"

	"github.com/paulmach/osm"
)

var (
	// ErrDuplicateNode is returned by [Graph.AddNode] when a node with the
	// same ID already exists in the graph. Node IDs must be unique.
	ErrDuplicateNode = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is returned by [Graph.AddEdge] when the U endpoint
	// does not exist in the node collection.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [Graph.AddEdge] when the V endpoint
	// does not exist in the node collection.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrDuplicateEdgeKey is returned by [Graph.AddEdge] when an edge with
	// the same (U, V, Key) triple already exists. Parallel edges between the
	// same node pair must carry distinct keys.
	ErrDuplicateEdgeKey = errors.New("duplicate edge key")

	// ErrGraphHasCycle is returned by [Graph.TopologicalSort] when the graph
	// contains a directed cycle, making a total order infeasible.
	ErrGraphHasCycle = errors.New("graph contains a cycle")
)

// Metadata stores arbitrary key-value attributes attached to the graph, a
// node, or an edge. Values hold their native types in memory (float64, int64,
// bool, string, orb geometries, slices); serialization codecs are responsible
// for converting to and from text.
type Metadata map[string]any

// Clone returns a shallow copy of the metadata map.
// Returns an initialized empty map when m is nil.
func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Node is a street-network vertex identified by its OSM node ID.
// Coordinates live in Attrs under the "x" and "y" keys alongside any extra
// attributes (elevation, street_count, user-defined fields).
type Node struct {
	ID    osm.NodeID
	Attrs Metadata
}

// EdgeKey uniquely identifies one edge of the multigraph.
// Key disambiguates parallel edges between the same node pair and is
// unrelated to the OSM way ID stored in edge attributes.
type EdgeKey struct {
	U, V osm.NodeID
	Key  int
}

// Edge is a directed street segment between two nodes. Attrs holds the
// optional way-membership ID ("osmid"), geometry, length, oneway flag, and
// arbitrary extras.
type Edge struct {
	U, V  osm.NodeID
	Key   int
	Attrs Metadata
}

// Graph is a directed multigraph with attribute bags at graph, node, and
// edge scope. Every edge references two node IDs present in the node
// collection; AddEdge enforces the invariant.
//
// The zero value is not usable - use New. Graph is not safe for concurrent
// mutation without external synchronization.
type Graph struct {
	attrs    Metadata
	nodes    map[osm.NodeID]*Node
	order    []osm.NodeID // node insertion order
	edges    []*Edge      // edge insertion order
	byKey    map[EdgeKey]*Edge
	outgoing map[osm.NodeID][]osm.NodeID
	incoming map[osm.NodeID][]osm.NodeID
}

// New creates an empty graph with optional graph-level attributes.
// A nil attrs is replaced by an empty map.
func New(attrs Metadata) *Graph {
	if attrs == nil {
		attrs = Metadata{}
	}
	return &Graph{
		attrs:    attrs,
		nodes:    make(map[osm.NodeID]*Node),
		byKey:    make(map[EdgeKey]*Edge),
		outgoing: make(map[osm.NodeID][]osm.NodeID),
		incoming: make(map[osm.NodeID][]osm.NodeID),
	}
}

// Attrs returns the graph-level attribute map. Never nil.
func (g *Graph) Attrs() Metadata { return g.attrs }

// AddNode adds a node to the graph.
// Returns ErrDuplicateNode if the ID is already present. A nil Attrs map is
// initialized to an empty one.
func (g *Graph) AddNode(n Node) error {
	if _, exists := g.nodes[n.ID]; exists {
		return ErrDuplicateNode
	}
	if n.Attrs == nil {
		n.Attrs = Metadata{}
	}
	node := &n
	g.nodes[node.ID] = node
	g.order = append(g.order, node.ID)
	return nil
}

// AddEdge adds a directed edge between two existing nodes.
// Returns ErrUnknownSourceNode or ErrUnknownTargetNode when an endpoint is
// missing, and ErrDuplicateEdgeKey when the (U, V, Key) triple is taken.
func (g *Graph) AddEdge(e Edge) error {
	if _, ok := g.nodes[e.U]; !ok {
		return ErrUnknownSourceNode
	}
	if _, ok := g.nodes[e.V]; !ok {
		return ErrUnknownTargetNode
	}
	k := EdgeKey{e.U, e.V, e.Key}
	if _, exists := g.byKey[k]; exists {
		return ErrDuplicateEdgeKey
	}
	if e.Attrs == nil {
		e.Attrs = Metadata{}
	}
	edge := &e
	g.edges = append(g.edges, edge)
	g.byKey[k] = edge
	g.outgoing[e.U] = append(g.outgoing[e.U], e.V)
	g.incoming[e.V] = append(g.incoming[e.V], e.U)
	return nil
}

// AddEdgeAutoKey adds an edge between u and v, assigning the lowest unused
// parallel-edge key, and returns the key. Endpoint validation matches AddEdge.
func (g *Graph) AddEdgeAutoKey(u, v osm.NodeID, attrs Metadata) (int, error) {
	key := 0
	for {
		if _, exists := g.byKey[EdgeKey{u, v, key}]; !exists {
			break
		}
		key++
	}
	return key, g.AddEdge(Edge{U: u, V: v, Key: key, Attrs: attrs})
}

// Node returns the node with the given ID and true, or nil and false.
// The pointer refers to the stored node; attribute mutations are visible.
func (g *Graph) Node(id osm.NodeID) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// HasNode reports whether a node with the given ID exists.
func (g *Graph) HasNode(id osm.NodeID) bool {
	_, ok := g.nodes[id]
	return ok
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		nodes = append(nodes, g.nodes[id])
	}
	return nodes
}

// NodeIDs returns all node IDs in ascending order.
// Serialization uses this for deterministic output.
func (g *Graph) NodeIDs() []osm.NodeID {
	ids := slices.Clone(g.order)
	slices.Sort(ids)
	return ids
}

// Edge returns the edge identified by (u, v, key) and true, or nil and false.
func (g *Graph) Edge(u, v osm.NodeID, key int) (*Edge, bool) {
	e, ok := g.byKey[EdgeKey{u, v, key}]
	return e, ok
}

// Edges returns all edges in insertion order. The slice is a copy but the
// edge pointers refer to stored edges.
func (g *Graph) Edges() []*Edge { return slices.Clone(g.edges) }

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges, counting parallel edges separately.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Successors returns the target IDs of edges leaving the node, one entry per
// parallel edge. Read-only view.
func (g *Graph) Successors(id osm.NodeID) []osm.NodeID { return g.outgoing[id] }

// Predecessors returns the source IDs of edges entering the node, one entry
// per parallel edge. Read-only view.
func (g *Graph) Predecessors(id osm.NodeID) []osm.NodeID { return g.incoming[id] }

// InDegree returns the number of incoming edges of the node.
func (g *Graph) InDegree(id osm.NodeID) int { return len(g.incoming[id]) }

// Copy returns a new graph with cloned attribute maps at every scope.
// Attribute values themselves are shared (geometry values are treated as
// immutable), which is sufficient for codecs that replace rather than mutate
// values.
func (g *Graph) Copy() *Graph {
	out := New(g.attrs.Clone())
	for _, id := range g.order {
		n := g.nodes[id]
		// endpoints always exist, errors impossible here
		_ = out.AddNode(Node{ID: n.ID, Attrs: n.Attrs.Clone()})
	}
	for _, e := range g.edges {
		_ = out.AddEdge(Edge{U: e.U, V: e.V, Key: e.Key, Attrs: e.Attrs.Clone()})
	}
	return out
}
