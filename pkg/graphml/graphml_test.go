package graphml

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/paulmach/orb"

	"github.com/waygraph/waygraph/pkg/errors"
	"github.com/waygraph/waygraph/pkg/graph"
)

func streetGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New(graph.Metadata{"crs": "epsg:4326", "simplified": true})
	if err := g.AddNode(graph.Node{ID: 1, Attrs: graph.Metadata{
		"x": -122.25, "y": 37.87, "street_count": int64(3),
	}}); err != nil {
		t.Fatal(err)
	}
	if err := g.AddNode(graph.Node{ID: 2, Attrs: graph.Metadata{
		"x": -122.26, "y": 37.88, "street_count": int64(2),
	}}); err != nil {
		t.Fatal(err)
	}
	if err := g.AddEdge(graph.Edge{U: 1, V: 2, Key: 0, Attrs: graph.Metadata{
		"osmid":   int64(123),
		"length":  12.5,
		"oneway":  false,
		"name":    "Main Street",
		"highway": "residential",
	}}); err != nil {
		t.Fatal(err)
	}
	return g
}

func TestRoundTrip(t *testing.T) {
	g := streetGraph(t)

	data, err := Marshal(g, SaveOptions{})
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}

	back, err := Load(LoadOptions{XML: string(data)})
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if got := back.Attrs()["simplified"]; got != true {
		t.Errorf("graph simplified = %#v, want true", got)
	}
	if got := back.Attrs()["crs"]; got != "epsg:4326" {
		t.Errorf("graph crs = %#v, want epsg:4326", got)
	}

	n, ok := back.Node(1)
	if !ok {
		t.Fatal("node 1 missing after round trip")
	}
	if n.Attrs["x"] != -122.25 {
		t.Errorf("node x = %#v, want float64 -122.25", n.Attrs["x"])
	}
	if n.Attrs["street_count"] != int64(3) {
		t.Errorf("node street_count = %#v, want int64 3", n.Attrs["street_count"])
	}

	e, ok := back.Edge(1, 2, 0)
	if !ok {
		t.Fatal("edge (1, 2, 0) missing after round trip")
	}
	want := graph.Metadata{
		"osmid":   int64(123),
		"length":  12.5,
		"oneway":  false,
		"name":    "Main Street",
		"highway": "residential",
	}
	if !reflect.DeepEqual(e.Attrs, want) {
		t.Errorf("edge attrs = %#v, want %#v", e.Attrs, want)
	}
	if _, present := e.Attrs["id"]; present {
		t.Error("edge key bookkeeping attribute survived the round trip")
	}
}

func TestRoundTripListAttribute(t *testing.T) {
	g := streetGraph(t)
	e, _ := g.Edge(1, 2, 0)
	e.Attrs["osmid"] = []any{int64(1), int64(2)}

	data, err := Marshal(g, SaveOptions{})
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	back, err := Load(LoadOptions{XML: string(data)})
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	got, _ := back.Edge(1, 2, 0)
	if !reflect.DeepEqual(got.Attrs["osmid"], []any{int64(1), int64(2)}) {
		t.Errorf("osmid list = %#v, want [1 2] as int64", got.Attrs["osmid"])
	}
}

func TestRoundTripGeometry(t *testing.T) {
	g := streetGraph(t)
	line := orb.LineString{{-122.25, 37.87}, {-122.26, 37.88}}
	e, _ := g.Edge(1, 2, 0)
	e.Attrs["geometry"] = line

	data, err := Marshal(g, SaveOptions{})
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	back, err := Load(LoadOptions{XML: string(data)})
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	got, _ := back.Edge(1, 2, 0)
	if !reflect.DeepEqual(got.Attrs["geometry"], line) {
		t.Errorf("geometry = %#v, want %#v", got.Attrs["geometry"], line)
	}
}

func TestRoundTripParallelEdges(t *testing.T) {
	g := streetGraph(t)
	if err := g.AddEdge(graph.Edge{U: 1, V: 2, Key: 1, Attrs: graph.Metadata{"length": 13.0}}); err != nil {
		t.Fatal(err)
	}

	data, err := Marshal(g, SaveOptions{})
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	back, err := Load(LoadOptions{XML: string(data)})
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if back.EdgeCount() != 2 {
		t.Fatalf("EdgeCount = %d, want 2", back.EdgeCount())
	}
	if _, ok := back.Edge(1, 2, 1); !ok {
		t.Error("parallel edge key 1 lost in round trip")
	}
}

func TestUniqueKeys(t *testing.T) {
	g := streetGraph(t)
	_ = g.AddEdge(graph.Edge{U: 1, V: 2, Key: 7, Attrs: graph.Metadata{"length": 13.0}})

	first, err := Marshal(g, SaveOptions{UniqueKeys: true})
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}

	// The caller's graph keeps its original keys.
	if _, ok := g.Edge(1, 2, 7); !ok {
		t.Error("UniqueKeys mutated the caller's edge keys")
	}

	// Re-keying an already re-keyed graph changes nothing.
	back, err := Load(LoadOptions{XML: string(first)})
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	second, err := Marshal(back, SaveOptions{UniqueKeys: true})
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("UniqueKeys save is not idempotent")
	}

	if !strings.Contains(string(first), `target="2" id="1"`) {
		t.Error("sequential edge ids missing from output")
	}
}

func TestLoadRequiresExactlyOneSource(t *testing.T) {
	if _, err := Load(LoadOptions{}); !errors.Is(err, errors.ErrCodeInvalidArgument) {
		t.Errorf("Load with no source = %v, want INVALID_ARGUMENT", err)
	}
	if _, err := Load(LoadOptions{Path: "x.graphml", XML: "<graphml/>"}); !errors.Is(err, errors.ErrCodeInvalidArgument) {
		t.Errorf("Load with both sources = %v, want INVALID_ARGUMENT", err)
	}
}

const strictBoolDoc = `<?xml version="1.0" encoding="utf-8"?>
<graphml>
  <key id="d0" for="edge" attr.name="oneway" attr.type="string"/>
  <graph edgedefault="directed">
    <node id="1"/>
    <node id="2"/>
    <edge source="1" target="2" id="0"><data key="d0">maybe</data></edge>
  </graph>
</graphml>`

func TestLoadStrictBoolean(t *testing.T) {
	_, err := Load(LoadOptions{XML: strictBoolDoc})
	if !errors.Is(err, errors.ErrCodeConversion) {
		t.Errorf("Load with oneway=maybe = %v, want CONVERSION_ERROR", err)
	}

	// The canonical literal converts.
	relaxed := strings.Replace(strictBoolDoc, "maybe", "False", 1)
	g, err := Load(LoadOptions{XML: relaxed})
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	e, _ := g.Edge(1, 2, 0)
	if e.Attrs["oneway"] != false {
		t.Errorf("oneway = %#v, want false", e.Attrs["oneway"])
	}

	// A caller override relaxes the rule for the same document.
	g, err = Load(LoadOptions{
		XML:        strictBoolDoc,
		EdgeDtypes: map[string]Converter{"oneway": ConvertString},
	})
	if err != nil {
		t.Fatalf("Load with string override error: %v", err)
	}
	e, _ = g.Edge(1, 2, 0)
	if e.Attrs["oneway"] != "maybe" {
		t.Errorf("overridden oneway = %#v, want the raw string", e.Attrs["oneway"])
	}
}

const malformedLiteralDoc = `<?xml version="1.0" encoding="utf-8"?>
<graphml>
  <key id="d0" for="edge" attr.name="note" attr.type="string"/>
  <graph edgedefault="directed">
    <node id="1"/>
    <node id="2"/>
    <edge source="1" target="2" id="0"><data key="d0">[1, 2</data></edge>
  </graph>
</graphml>`

func TestLoadKeepsMalformedLiteralAsString(t *testing.T) {
	g, err := Load(LoadOptions{XML: malformedLiteralDoc})
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	e, _ := g.Edge(1, 2, 0)
	if e.Attrs["note"] != "[1, 2" {
		t.Errorf("note = %#v, want the raw string", e.Attrs["note"])
	}
}

const parenthesizedDoc = `<?xml version="1.0" encoding="utf-8"?>
<graphml>
  <key id="d0" for="edge" attr.name="note" attr.type="string"/>
  <graph edgedefault="directed">
    <node id="1"/>
    <node id="2"/>
    <edge source="1" target="2" id="0"><data key="d0">(1, 2)</data></edge>
  </graph>
</graphml>`

func TestLoadKeepsParenthesizedValueAsString(t *testing.T) {
	g, err := Load(LoadOptions{XML: parenthesizedDoc})
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	e, _ := g.Edge(1, 2, 0)
	if e.Attrs["note"] != "(1, 2)" {
		t.Errorf("note = %#v, want the raw string", e.Attrs["note"])
	}
}

const readerDefaultsDoc = `<?xml version="1.0" encoding="utf-8"?>
<graphml>
  <key id="d0" for="graph" attr.name="node_default" attr.type="string"/>
  <key id="d1" for="graph" attr.name="edge_default" attr.type="string"/>
  <key id="d2" for="graph" attr.name="crs" attr.type="string"/>
  <graph edgedefault="directed">
    <data key="d0">{}</data>
    <data key="d1">{}</data>
    <data key="d2">epsg:4326</data>
    <node id="1"/>
  </graph>
</graphml>`

func TestLoadStripsReaderDefaults(t *testing.T) {
	g, err := Load(LoadOptions{XML: readerDefaultsDoc})
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if _, ok := g.Attrs()["node_default"]; ok {
		t.Error("node_default survived load")
	}
	if _, ok := g.Attrs()["edge_default"]; ok {
		t.Error("edge_default survived load")
	}
	if g.Attrs()["crs"] != "epsg:4326" {
		t.Errorf("crs = %#v, want epsg:4326", g.Attrs()["crs"])
	}
}

func TestSaveDoesNotMutateCaller(t *testing.T) {
	g := streetGraph(t)
	e, _ := g.Edge(1, 2, 0)
	before := e.Attrs.Clone()

	if _, err := Marshal(g, SaveOptions{}); err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	if !reflect.DeepEqual(e.Attrs, before) {
		t.Errorf("Marshal stringified the caller's attributes: %#v", e.Attrs)
	}
}
