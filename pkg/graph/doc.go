// Package graph provides the attributed directed multigraph underlying a
// street network.
//
// # Model
//
// Nodes are identified by OSM node IDs and carry coordinate plus arbitrary
// attributes. Edges are keyed by an (origin, destination, parallel-index)
// triple so multiple street segments between the same intersection pair stay
// distinguishable; the parallel index is internal bookkeeping and unrelated
// to the OSM way ID an edge may reference in its attributes.
//
// Attribute values are held in Metadata maps with their native in-memory
// types. The serialization codecs in pkg/graphml and pkg/osmxml convert to
// and from text; this package never does.
//
// # Algorithms
//
// The package carries only the traversal primitives the serialization layer
// needs: largest weakly-connected component extraction and Kahn topological
// sorting, both used when recovering the original node order of an OSM way
// from its unordered edge fragments.
//
// # Ownership
//
// Graphs are plain in-memory values owned by the caller. Codec operations
// either borrow a graph read-only or work on a Copy; they never retain
// references across calls.
package graph
