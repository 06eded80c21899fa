package graphml

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/osm"

	"github.com/waygraph/waygraph/pkg/errors"
	"github.com/waygraph/waygraph/pkg/graph"
)

// Bookkeeping attribute names injected by writers, stripped on load.
const (
	attrEdgeID      = "id"           // edge key echoed back as a data attribute
	attrNodeDefault = "node_default" // reader default-template keys
	attrEdgeDefault = "edge_default"
	attrGeometry    = "geometry"
)

// LoadOptions configures the lossless load path. Exactly one of Path or XML
// must be set. The dtype maps override or extend the default per-scope
// coercion rules; caller entries win on name collision.
type LoadOptions struct {
	Path string // read the document from a file
	XML  string // parse the document from an in-memory string

	GraphDtypes map[string]Converter
	NodeDtypes  map[string]Converter
	EdgeDtypes  map[string]Converter

	Logger *log.Logger
}

// Load reads a GraphML document and reconstructs the typed multigraph.
//
// For every attribute value at every scope: bracket-shaped text is first
// structurally parsed into its collection form (a failed parse keeps the
// string - malformed bracket-shaped text is legal free-form data); then the
// registered coercion for the attribute name runs, element-wise over parsed
// collections. Edge "id" bookkeeping attributes are dropped and "geometry"
// values are parsed from well-known text. Graph-level default-template keys
// are removed before coercion.
func Load(opts LoadOptions) (*graph.Graph, error) {
	if (opts.Path == "") == (opts.XML == "") {
		return nil, errors.New(errors.ErrCodeInvalidArgument,
			"pass exactly one of Path or XML")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	var r io.Reader
	if opts.Path != "" {
		f, err := os.Open(opts.Path)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", opts.Path)
		}
		defer f.Close()
		r = f
	} else {
		r = strings.NewReader(opts.XML)
	}

	registry := DefaultRegistry()
	registry.Override(ScopeGraph, opts.GraphDtypes)
	registry.Override(ScopeNode, opts.NodeDtypes)
	registry.Override(ScopeEdge, opts.EdgeDtypes)

	raw, err := decodeDocument(r)
	if err != nil {
		return nil, err
	}
	g, err := buildGraph(raw, registry, logger)
	if err != nil {
		return nil, err
	}
	logger.Debug("loaded graph", "nodes", g.NodeCount(), "edges", g.EdgeCount())
	return g, nil
}

// rawGraph is the untyped document form: every attribute still a string.
type rawGraph struct {
	attrs map[string]string
	nodes []rawNode
	edges []rawEdge
}

type rawNode struct {
	id    string
	attrs map[string]string
}

type rawEdge struct {
	source, target, id string
	attrs              map[string]string
}

// decodeDocument stream-parses GraphML: <key> declarations map data ids back
// to scoped attribute names, then <data> payloads attach to the enclosing
// graph, node, or edge element.
func decodeDocument(r io.Reader) (*rawGraph, error) {
	dec := xml.NewDecoder(r)

	type keyDecl struct {
		scope Scope
		name  string
	}
	keys := map[string]keyDecl{}
	raw := &rawGraph{attrs: map[string]string{}}

	var (
		curNode *rawNode
		curEdge *rawEdge
		dataKey string
		inData  bool
		text    strings.Builder
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse graphml")
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "key":
				var id, scope, name string
				for _, a := range t.Attr {
					switch a.Name.Local {
					case "id":
						id = a.Value
					case "for":
						scope = a.Value
					case "attr.name":
						name = a.Value
					}
				}
				keys[id] = keyDecl{scope: Scope(scope), name: name}
			case "node":
				n := rawNode{attrs: map[string]string{}}
				for _, a := range t.Attr {
					if a.Name.Local == "id" {
						n.id = a.Value
					}
				}
				curNode = &n
			case "edge":
				e := rawEdge{attrs: map[string]string{}}
				for _, a := range t.Attr {
					switch a.Name.Local {
					case "source":
						e.source = a.Value
					case "target":
						e.target = a.Value
					case "id":
						e.id = a.Value
					}
				}
				curEdge = &e
			case "data":
				for _, a := range t.Attr {
					if a.Name.Local == "key" {
						dataKey = a.Value
					}
				}
				inData = true
				text.Reset()
			}
		case xml.CharData:
			if inData {
				text.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "data":
				inData = false
				decl, ok := keys[dataKey]
				if !ok {
					break
				}
				value := text.String()
				switch {
				case curNode != nil:
					curNode.attrs[decl.name] = value
				case curEdge != nil:
					curEdge.attrs[decl.name] = value
				default:
					raw.attrs[decl.name] = value
				}
			case "node":
				if curNode != nil {
					raw.nodes = append(raw.nodes, *curNode)
					curNode = nil
				}
			case "edge":
				if curEdge != nil {
					raw.edges = append(raw.edges, *curEdge)
					curEdge = nil
				}
			}
		}
	}
	return raw, nil
}

// buildGraph applies the structural-parse and coercion passes to the raw
// document and assembles the typed multigraph.
func buildGraph(raw *rawGraph, registry *Registry, logger *log.Logger) (*graph.Graph, error) {
	// Graph scope: strip reader bookkeeping before coercion.
	delete(raw.attrs, attrNodeDefault)
	delete(raw.attrs, attrEdgeDefault)
	gattrs, err := convertAttrs(raw.attrs, ScopeGraph, registry, logger)
	if err != nil {
		return nil, err
	}
	g := graph.New(gattrs)

	nodeID := nodeIDConverter(registry)
	for _, rn := range raw.nodes {
		id, err := nodeID(rn.id)
		if err != nil {
			return nil, err
		}
		attrs, err := convertAttrs(rn.attrs, ScopeNode, registry, logger)
		if err != nil {
			return nil, err
		}
		if err := g.AddNode(graph.Node{ID: id, Attrs: attrs}); err != nil {
			return nil, fmt.Errorf("add node %s: %w", rn.id, err)
		}
	}

	for _, re := range raw.edges {
		u, err := nodeID(re.source)
		if err != nil {
			return nil, err
		}
		v, err := nodeID(re.target)
		if err != nil {
			return nil, err
		}

		// Writer bookkeeping: the edge key echoed as a data attribute is
		// meaningless to the caller.
		delete(re.attrs, attrEdgeID)

		attrs, err := convertAttrs(re.attrs, ScopeEdge, registry, logger)
		if err != nil {
			return nil, err
		}
		if wktText, ok := attrs[attrGeometry].(string); ok {
			geom, err := wkt.Unmarshal(wktText)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeGeometry, err,
					"parse geometry of edge (%s, %s)", re.source, re.target)
			}
			attrs[attrGeometry] = geom
		}

		if key, err := strconv.Atoi(re.id); err == nil {
			err = g.AddEdge(graph.Edge{U: u, V: v, Key: key, Attrs: attrs})
			if err != nil {
				return nil, fmt.Errorf("add edge (%s, %s, %d): %w", re.source, re.target, key, err)
			}
		} else if _, err := g.AddEdgeAutoKey(u, v, attrs); err != nil {
			return nil, fmt.Errorf("add edge (%s, %s): %w", re.source, re.target, err)
		}
	}
	return g, nil
}

// convertAttrs runs the structural-parse pass then the registry coercions
// over one attribute map.
func convertAttrs(in map[string]string, scope Scope, registry *Registry, logger *log.Logger) (graph.Metadata, error) {
	out := make(graph.Metadata, len(in))
	for name, value := range in {
		parsed := structural(value, logger)
		typed, err := registry.Apply(scope, name, parsed)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeConversion, err,
				"convert %s attribute %q", scope, name)
		}
		out[name] = typed
	}
	return out, nil
}

// structural attempts the strict collection parse on bracket-shaped text.
// A failed parse is not an error: the text is legal free-form string data.
func structural(value string, logger *log.Logger) any {
	if !BracketShaped(value) {
		return value
	}
	parsed, err := ParseLiteral(value)
	if err != nil {
		logger.Debug("keeping malformed literal as string", "value", value)
		return value
	}
	return parsed
}

// nodeIDConverter derives the node-id coercion from the registry's node
// "osmid" rule, falling back to int64 parsing when a caller unregistered it.
func nodeIDConverter(registry *Registry) func(string) (osm.NodeID, error) {
	conv, ok := registry.Resolve(ScopeNode, "osmid")
	return func(s string) (osm.NodeID, error) {
		if ok {
			v, err := conv(s)
			if err != nil {
				return 0, errors.Wrap(errors.ErrCodeConversion, err, "convert node id %q", s)
			}
			if id, isInt := v.(int64); isInt {
				return osm.NodeID(id), nil
			}
		}
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, errors.New(errors.ErrCodeConversion, "invalid node id %q", s)
		}
		return osm.NodeID(id), nil
	}
}
