package graphml

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"

	"github.com/beevik/etree"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"

	"github.com/waygraph/waygraph/pkg/graph"
)

// GraphML namespace declarations for the document root.
const (
	xmlnsGraphML  = "http://graphml.graphdrawing.org/xmlns"
	xmlnsXSI      = "http://www.w3.org/2001/XMLSchema-instance"
	schemaLocation = "http://graphml.graphdrawing.org/xmlns http://graphml.graphdrawing.org/xmlns/1.0/graphml.xsd"
)

// DefaultEncoding is the character encoding declared by saved documents.
const DefaultEncoding = "utf-8"

// SaveOptions configures the lossless save path.
type SaveOptions struct {
	// Encoding is the character encoding written into the XML declaration.
	// Defaults to utf-8. Output bytes are always UTF-8; the declaration
	// exists for consumers that require an explicit one.
	Encoding string

	// UniqueKeys assigns every edge a fresh, sequential key so each edge is
	// distinguishable by tools that only track a single-valued id per edge
	// record. The re-keying happens on an internally constructed copy; the
	// caller's graph is never touched. Without it, the multigraph's
	// structural (U, V, Key) identity is preserved.
	UniqueKeys bool
}

// Marshal serializes the graph to GraphML bytes.
// Every attribute value at every scope is replaced by its canonical string
// representation, unconditionally - already-string values included.
func Marshal(g *graph.Graph, opts SaveOptions) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(g, &buf, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write serializes the graph as GraphML to w.
// The caller's graph is borrowed read-only; stringification happens on the
// way out, never in place.
func Write(g *graph.Graph, w io.Writer, opts SaveOptions) error {
	if opts.UniqueKeys {
		g = reKeyed(g)
	}
	doc := buildDocument(g, opts)
	doc.Indent(2)
	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("write graphml: %w", err)
	}
	return nil
}

// SaveFile writes the graph as a GraphML file at path.
// The file is created with 0644 permissions.
func SaveFile(g *graph.Graph, path string, opts SaveOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return Write(g, f, opts)
}

// reKeyed returns an equivalent graph whose edges carry sequential keys
// 0..n-1 in insertion order. Applying it twice yields the same keys.
func reKeyed(g *graph.Graph) *graph.Graph {
	out := graph.New(g.Attrs().Clone())
	for _, n := range g.Nodes() {
		_ = out.AddNode(graph.Node{ID: n.ID, Attrs: n.Attrs.Clone()})
	}
	for i, e := range g.Edges() {
		_ = out.AddEdge(graph.Edge{U: e.U, V: e.V, Key: i, Attrs: e.Attrs.Clone()})
	}
	return out
}

// keyTable assigns GraphML <key> ids to (scope, attribute name) pairs in
// first-seen order.
type keyTable struct {
	ids   map[Scope]map[string]string
	order []struct {
		scope Scope
		name  string
		id    string
	}
}

func newKeyTable() *keyTable {
	return &keyTable{ids: map[Scope]map[string]string{
		ScopeGraph: {}, ScopeNode: {}, ScopeEdge: {},
	}}
}

func (t *keyTable) id(scope Scope, name string) string {
	if id, ok := t.ids[scope][name]; ok {
		return id
	}
	id := "d" + strconv.Itoa(len(t.order))
	t.ids[scope][name] = id
	t.order = append(t.order, struct {
		scope Scope
		name  string
		id    string
	}{scope, name, id})
	return id
}

func buildDocument(g *graph.Graph, opts SaveOptions) *etree.Document {
	enc := opts.Encoding
	if enc == "" {
		enc = DefaultEncoding
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", fmt.Sprintf("version=%q encoding=%q", "1.0", enc))
	root := doc.CreateElement("graphml")
	root.CreateAttr("xmlns", xmlnsGraphML)
	root.CreateAttr("xmlns:xsi", xmlnsXSI)
	root.CreateAttr("xsi:schemaLocation", schemaLocation)

	keys := newKeyTable()

	// Pre-register every attribute so <key> declarations precede <graph>.
	for _, name := range sortedKeys(g.Attrs()) {
		keys.id(ScopeGraph, name)
	}
	for _, n := range g.Nodes() {
		for _, name := range sortedKeys(n.Attrs) {
			keys.id(ScopeNode, name)
		}
	}
	for _, e := range g.Edges() {
		for _, name := range sortedKeys(e.Attrs) {
			keys.id(ScopeEdge, name)
		}
	}
	for _, k := range keys.order {
		el := root.CreateElement("key")
		el.CreateAttr("id", k.id)
		el.CreateAttr("for", string(k.scope))
		el.CreateAttr("attr.name", k.name)
		el.CreateAttr("attr.type", "string")
	}

	gr := root.CreateElement("graph")
	gr.CreateAttr("edgedefault", "directed")
	writeData(gr, keys, ScopeGraph, g.Attrs())

	for _, n := range g.Nodes() {
		el := gr.CreateElement("node")
		el.CreateAttr("id", strconv.FormatInt(int64(n.ID), 10))
		writeData(el, keys, ScopeNode, n.Attrs)
	}
	for _, e := range g.Edges() {
		el := gr.CreateElement("edge")
		el.CreateAttr("source", strconv.FormatInt(int64(e.U), 10))
		el.CreateAttr("target", strconv.FormatInt(int64(e.V), 10))
		el.CreateAttr("id", strconv.Itoa(e.Key))
		writeData(el, keys, ScopeEdge, e.Attrs)
	}
	return doc
}

func writeData(parent *etree.Element, keys *keyTable, scope Scope, attrs graph.Metadata) {
	for _, name := range sortedKeys(attrs) {
		el := parent.CreateElement("data")
		el.CreateAttr("key", keys.id(scope, name))
		el.SetText(Stringify(attrs[name]))
	}
}

func sortedKeys(m graph.Metadata) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Stringify renders an attribute value into its canonical serialized text:
// strings verbatim, geometries as well-known text, everything else through
// the literal repr (True/False booleans, shortest round-trip floats,
// bracketed collections).
func Stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case orb.Geometry:
		return wkt.MarshalString(t)
	default:
		return Repr(v)
	}
}
