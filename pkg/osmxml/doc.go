// Package osmxml converts between the internal street-network graph and the
// OSM XML interchange format.
//
// # Export
//
// SaveGraphXML and WriteDocument flatten a graph into node and way records.
// The export is lossy: edge geometry and attributes outside the configured
// column lists are dropped, and bookkeeping fields the graph does not track
// are filled with fixed placeholders. Edges that were split from one original
// way are merged back by their shared membership id, with node order
// recovered by OrderedWayNodes and tag conflicts resolved by the aggregation
// operators in this package.
//
// # Import
//
// ParseFile reads a foreign OSM XML file (optionally bz2 or gzip compressed)
// in a single streaming pass into a Document of typed element records. It
// performs no graph construction; callers decide what to build from the raw
// records.
package osmxml
