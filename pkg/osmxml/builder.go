package osmxml

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/beevik/etree"
	"github.com/charmbracelet/log"
	"github.com/paulmach/osm"

	"github.com/waygraph/waygraph/pkg/errors"
	"github.com/waygraph/waygraph/pkg/graph"
	"github.com/waygraph/waygraph/pkg/graphml"
)

// GeneratorName identifies documents produced by this builder. The foreign
// parser warns when it encounters it, since re-importing our own export is
// not guaranteed to round-trip.
const GeneratorName = "waygraph"

// DefaultAPIVersion is the schema version written to the document root.
const DefaultAPIVersion = "0.6"

// DefaultPrecision is the number of decimal places kept on coordinates.
const DefaultPrecision = 6

// BuildOptions configures the way-schema export.
type BuildOptions struct {
	NodeAttrs []string // node record attributes (nil = DefaultNodeAttrs)
	NodeTags  []string // node tag sub-elements (nil = DefaultNodeTags)
	WayAttrs  []string // way record attributes (nil = DefaultWayAttrs)
	WayTags   []string // way tag sub-elements (nil = DefaultWayTags)

	// OnewayDefault fills missing oneway values before the tag is mapped to
	// the schema's yes/no literal tokens.
	OnewayDefault bool

	// MergeEdges groups edges by way-membership id and emits one way record
	// per group, with node order recovered from the fragments. When false,
	// every edge becomes its own two-node way record: structurally
	// non-conformant but readable by most tools, useful for inspection.
	MergeEdges bool

	// TagAggs names the aggregation operator applied per way tag when edges
	// merge. Tags without an entry take the first edge's value.
	TagAggs []AggSpec

	APIVersion string // schema version for the root record ("" = 0.6)
	Precision  int    // coordinate rounding decimals (0 = default 6)

	// Workers bounds the pool that processes way groups concurrently.
	// Values below 2 keep processing serial. Output order is identical
	// either way: results merge back in way-group order.
	Workers int

	Logger *log.Logger
}

// DefaultBuildOptions returns the export configuration used when the caller
// has no overrides: merged ways, schema defaults, serial processing.
func DefaultBuildOptions() BuildOptions {
	return BuildOptions{
		MergeEdges: true,
		APIVersion: DefaultAPIVersion,
		Precision:  DefaultPrecision,
	}
}

func (o *BuildOptions) fillDefaults() {
	if o.NodeAttrs == nil {
		o.NodeAttrs = DefaultNodeAttrs
	}
	if o.NodeTags == nil {
		o.NodeTags = DefaultNodeTags
	}
	if o.WayAttrs == nil {
		o.WayAttrs = DefaultWayAttrs
	}
	if o.WayTags == nil {
		o.WayTags = DefaultWayTags
	}
	if o.APIVersion == "" {
		o.APIVersion = DefaultAPIVersion
	}
	if o.Precision == 0 {
		o.Precision = DefaultPrecision
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
}

// SaveGraphXML writes the graph as an OSM-formatted XML file at path.
// The destination handle is scope-acquired and released on every exit path;
// a partially written file on error is acceptable.
func SaveGraphXML(g *graph.Graph, path string, opts BuildOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteDocument(g, f, opts)
}

// WriteDocument serializes the graph in the way-based schema to w.
// The graph is borrowed read-only; the tabular split copies every attribute
// map.
func WriteDocument(g *graph.Graph, w io.Writer, opts BuildOptions) error {
	opts.fillDefaults()
	now := time.Now()
	return WriteTables(nodeRows(g, opts.Precision, now), edgeRows(g, now), w, opts)
}

// WriteTables serializes an already-split node/edge tabular pair. Node rows
// must carry id/lat/lon columns; edge rows carry u/v endpoint columns plus
// tags.
func WriteTables(nodes, edges []graph.Metadata, w io.Writer, opts BuildOptions) error {
	opts.fillDefaults()

	aggs := make(map[string]AggFunc, len(opts.TagAggs))
	for _, spec := range opts.TagAggs {
		fn, ok := AggByName(spec.Op)
		if !ok {
			return errors.New(errors.ErrCodeInvalidArgument, "unknown aggregation operator %q", spec.Op)
		}
		aggs[spec.Tag] = fn
	}

	fillOneway(edges, opts.OnewayDefault)

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement("osm")
	root.CreateAttr("version", opts.APIVersion)
	root.CreateAttr("generator", GeneratorName)

	for _, row := range nodes {
		el := root.CreateElement("node")
		writeRecordAttrs(el, row, opts.NodeAttrs)
		writeTags(el, row, opts.NodeTags)
	}

	if opts.MergeEdges {
		groups := groupByWay(edges)
		ways, err := buildWays(groups, aggs, opts)
		if err != nil {
			return err
		}
		for _, way := range ways {
			root.AddChild(way)
		}
	} else {
		for i, row := range edges {
			root.AddChild(buildSingleEdgeWay(row, wayID(row, i), opts))
		}
	}

	doc.Indent(2)
	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("write osm xml: %w", err)
	}
	return nil
}

// wayGroup is the set of edge rows sharing one way-membership id.
type wayGroup struct {
	id   string
	rows []graph.Metadata
}

// groupByWay groups edge rows by their way-membership id ("osmid") in
// first-seen order. Rows without one each form a singleton group keyed by
// their table position.
func groupByWay(edges []graph.Metadata) []wayGroup {
	var groups []wayGroup
	index := map[string]int{}
	for i, row := range edges {
		id := wayID(row, i)
		if at, ok := index[id]; ok {
			groups[at].rows = append(groups[at].rows, row)
			continue
		}
		index[id] = len(groups)
		groups = append(groups, wayGroup{id: id, rows: []graph.Metadata{row}})
	}
	return groups
}

func wayID(row graph.Metadata, position int) string {
	if v, ok := row["osmid"]; ok && v != nil {
		return graphml.Stringify(v)
	}
	return strconv.Itoa(position)
}

// buildWays renders one way element per group. With Workers > 1 the groups
// are processed by a bounded pool; each group touches only its own rows, and
// results are merged back in group order so output is identical to serial
// processing.
func buildWays(groups []wayGroup, aggs map[string]AggFunc, opts BuildOptions) ([]*etree.Element, error) {
	results := make([]*etree.Element, len(groups))
	errs := make([]error, len(groups))

	if opts.Workers > 1 {
		sem := make(chan struct{}, opts.Workers)
		var wg sync.WaitGroup
		for i := range groups {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				sem <- struct{}{}
				defer func() { <-sem }()
				results[i], errs[i] = buildWay(groups[i], aggs, opts)
			}(i)
		}
		wg.Wait()
	} else {
		for i := range groups {
			results[i], errs[i] = buildWay(groups[i], aggs, opts)
		}
	}

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

// buildWay renders one merged way record: attributes from the sample (first)
// edge, node order from the reconstructor, tags from the aggregator.
func buildWay(group wayGroup, aggs map[string]AggFunc, opts BuildOptions) (*etree.Element, error) {
	sample := group.rows[0]

	el := etree.NewElement("way")
	writeWayAttrs(el, sample, group.id, opts.WayAttrs)

	if len(group.rows) == 1 {
		writeNodeRef(el, sample["u"])
		writeNodeRef(el, sample["v"])
	} else {
		fragments := make([]WayEdge, 0, len(group.rows))
		for _, row := range group.rows {
			u, uok := asFloat(row["u"])
			v, vok := asFloat(row["v"])
			if !uok || !vok {
				return nil, errors.New(errors.ErrCodeInvalidFormat, "edge row of way %s lacks u/v endpoints", group.id)
			}
			fragments = append(fragments, WayEdge{U: osm.NodeID(u), V: osm.NodeID(v)})
		}
		for _, id := range OrderedWayNodes(fragments, opts.Logger) {
			writeNodeRef(el, int64(id))
		}
	}

	tags, err := mergeTags(sample, group.rows, opts.WayTags, aggs)
	if err != nil {
		return nil, err
	}
	for _, tag := range opts.WayTags {
		if v, ok := tags[tag]; ok {
			writeTag(el, tag, v)
		}
	}
	return el, nil
}

// buildSingleEdgeWay renders the degenerate unmerged form: one way per edge
// with exactly its two endpoints.
func buildSingleEdgeWay(row graph.Metadata, id string, opts BuildOptions) *etree.Element {
	el := etree.NewElement("way")
	writeWayAttrs(el, row, id, opts.WayAttrs)
	writeNodeRef(el, row["u"])
	writeNodeRef(el, row["v"])
	writeTags(el, row, opts.WayTags)
	return el
}

func writeWayAttrs(el *etree.Element, row graph.Metadata, id string, attrs []string) {
	for _, name := range attrs {
		if name == "id" {
			el.CreateAttr("id", id)
			continue
		}
		if v, ok := row[name]; ok && v != nil {
			el.CreateAttr(name, graphml.Stringify(v))
		}
	}
}

func writeRecordAttrs(el *etree.Element, row graph.Metadata, attrs []string) {
	for _, name := range attrs {
		if v, ok := row[name]; ok && v != nil {
			el.CreateAttr(name, graphml.Stringify(v))
		}
	}
}

func writeTags(el *etree.Element, row graph.Metadata, tags []string) {
	for _, tag := range tags {
		if v, ok := row[tag]; ok && v != nil {
			writeTag(el, tag, v)
		}
	}
}

func writeTag(el *etree.Element, k string, v any) {
	tag := el.CreateElement("tag")
	tag.CreateAttr("k", k)
	tag.CreateAttr("v", graphml.Stringify(v))
}

func writeNodeRef(el *etree.Element, ref any) {
	nd := el.CreateElement("nd")
	nd.CreateAttr("ref", graphml.Stringify(ref))
}

// fillOneway fills missing oneway values with the caller default and maps
// boolean-like values onto the schema's yes/no literal tokens. The format
// stores oneway as enumerated text, not a structured boolean.
//
// When no edge carries a oneway value at all the column does not exist, so
// nothing is filled and no oneway tags are emitted.
func fillOneway(edges []graph.Metadata, def bool) {
	present := false
	for _, row := range edges {
		if v, ok := row["oneway"]; ok && v != nil {
			present = true
			break
		}
	}
	if !present {
		return
	}
	for _, row := range edges {
		v, ok := row["oneway"]
		if !ok || v == nil {
			v = def
		}
		text := graphml.Stringify(v)
		text = strings.ReplaceAll(text, "False", "no")
		text = strings.ReplaceAll(text, "True", "yes")
		row["oneway"] = text
	}
}
