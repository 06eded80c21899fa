// Package graphml provides the lossless round-trip serialization of street
// network graphs through GraphML, a text-only format in which every
// attribute value becomes a string.
//
// # Save
//
// On save, every graph-, node-, and edge-level value is stringified
// unconditionally: booleans as the canonical True/False literals, floats in
// shortest round-trip form, geometries as well-known text, collections as
// bracketed literals. An optional unique-key mode re-keys edges sequentially
// for consumers that require a single-valued edge id; it never mutates the
// caller's graph.
//
// # Load
//
// On load the process reverses in three passes per value: bracket-shaped
// text is structurally parsed into lists/sets/mappings (a failed parse keeps
// the original string - that fallback is an explicit, tested behavior, not
// an accident of error handling); registered per-scope coercions convert the
// value, element-wise over collections; and the edge "geometry" attribute is
// decoded from well-known text. Default coercion rules cover the standard
// street-network attributes and can be overridden per call.
//
// Exactly one of a file path or an in-memory document string must be given
// to Load; anything else is an INVALID_ARGUMENT error before any work
// happens.
package graphml
