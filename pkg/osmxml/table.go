package osmxml

import (
	"math"
	"strconv"
	"time"

	"github.com/waygraph/waygraph/pkg/graph"
)

// Default attribute and tag column selections for the OSM XML schema,
// matching the external format's node/way record layout. Callers override
// them through BuildOptions (usually from pkg/config).
var (
	DefaultNodeAttrs = []string{"id", "timestamp", "uid", "user", "version", "changeset", "lat", "lon"}
	DefaultNodeTags  = []string{"highway"}
	DefaultWayAttrs  = []string{"id", "timestamp", "uid", "user", "version", "changeset"}
	DefaultWayTags   = []string{"highway", "lanes", "maxspeed", "name", "oneway"}
)

// Fixed placeholder values for bookkeeping fields the schema mandates but
// the internal graph does not track.
const (
	placeholderUID       = "1"
	placeholderUser      = "waygraph"
	placeholderVersion   = "1"
	placeholderChangeset = "1"
	timestampLayout      = "2006-01-02T15:04:05Z"
)

// nodeRows flattens graph nodes into tabular rows for the XML builder:
// coordinate columns renamed to the schema's lon/lat and rounded to the
// given precision, the node ID as the "id" column, and bookkeeping
// placeholders filled in. The graph's attribute maps are copied, never
// touched.
func nodeRows(g *graph.Graph, precision int, now time.Time) []graph.Metadata {
	rows := make([]graph.Metadata, 0, g.NodeCount())
	for _, n := range g.Nodes() {
		row := n.Attrs.Clone()
		row["id"] = int64(n.ID)
		if x, ok := asFloat(row["x"]); ok {
			row["lon"] = roundTo(x, precision)
		}
		if y, ok := asFloat(row["y"]); ok {
			row["lat"] = roundTo(y, precision)
		}
		delete(row, "x")
		delete(row, "y")
		addPlaceholders(row, now)
		rows = append(rows, row)
	}
	return rows
}

// edgeRows flattens graph edges into tabular rows, carrying the endpoints in
// "u"/"v" columns and bookkeeping placeholders. The multigraph key column is
// dropped: the way-membership id ("osmid") is the identity the schema cares
// about.
func edgeRows(g *graph.Graph, now time.Time) []graph.Metadata {
	rows := make([]graph.Metadata, 0, g.EdgeCount())
	for _, e := range g.Edges() {
		row := e.Attrs.Clone()
		row["u"] = int64(e.U)
		row["v"] = int64(e.V)
		addPlaceholders(row, now)
		rows = append(rows, row)
	}
	return rows
}

func addPlaceholders(row graph.Metadata, now time.Time) {
	row["uid"] = placeholderUID
	row["user"] = placeholderUser
	row["version"] = placeholderVersion
	row["changeset"] = placeholderChangeset
	row["timestamp"] = now.UTC().Format(timestampLayout)
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int64:
		return float64(t), true
	case int:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	}
	return 0, false
}

func roundTo(f float64, precision int) float64 {
	scale := math.Pow10(precision)
	return math.Round(f*scale) / scale
}
