package osmxml

import (
	"compress/bzip2"
	"compress/gzip"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/waygraph/waygraph/pkg/errors"
)

// Document is the in-memory form of a foreign OSM XML file: the root record's
// metadata plus every node, way, and relation in file order.
type Document struct {
	Version   string
	Generator string
	Elements  []Element
}

// Element is one node, way, or relation record. Fields that do not apply to
// the element's type stay at their zero values.
type Element struct {
	Type string // "node", "way", or "relation"
	ID   int64

	Lat, Lon float64 // nodes only

	UID       int64
	Version   int64
	Changeset int64
	User      string
	Timestamp string

	Tags    map[string]string
	Nodes   []int64  // ways: ordered nd refs
	Members []Member // relations only
}

// Member is one relation membership entry.
type Member struct {
	Type string
	Ref  int64
	Role string
}

// ParseFile reads a foreign OSM XML file in a single streaming pass.
// Files ending in .bz2 or .gz are decompressed transparently. If the file
// announces our own generator it is parsed anyway, with a warning: the
// way-schema export is lossy and not guaranteed to round-trip.
func ParseFile(path string, logger *log.Logger) (*Document, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
	}
	defer f.Close()

	r, err := wrapCompression(f, path)
	if err != nil {
		return nil, err
	}
	doc, err := Parse(r)
	if err != nil {
		return nil, err
	}
	if strings.Contains(doc.Generator, GeneratorName) {
		logger.Warn("file was produced by this tool's lossy export, contents may not round-trip",
			"path", path, "generator", doc.Generator)
	}
	return doc, nil
}

func wrapCompression(f *os.File, path string) (io.Reader, error) {
	switch filepath.Ext(path) {
	case ".bz2":
		return bzip2.NewReader(f), nil
	case ".gz":
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "gzip %s", path)
		}
		return gz, nil
	}
	return f, nil
}

// Parse decodes an OSM XML stream. The decoder keeps a single current element
// and flushes it when its end tag arrives, so memory stays proportional to
// one record plus the accumulated output slice.
func Parse(r io.Reader) (*Document, error) {
	dec := xml.NewDecoder(r)
	doc := &Document{}
	var current *Element

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode osm xml")
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "osm":
				for _, a := range t.Attr {
					switch a.Name.Local {
					case "version":
						doc.Version = a.Value
					case "generator":
						doc.Generator = a.Value
					}
				}
			case "node", "way", "relation":
				el, err := newElement(t)
				if err != nil {
					return nil, err
				}
				current = el
			case "tag":
				if current != nil {
					var k, v string
					for _, a := range t.Attr {
						switch a.Name.Local {
						case "k":
							k = a.Value
						case "v":
							v = a.Value
						}
					}
					current.Tags[k] = v
				}
			case "nd":
				if current != nil {
					for _, a := range t.Attr {
						if a.Name.Local == "ref" {
							ref, err := strconv.ParseInt(a.Value, 10, 64)
							if err != nil {
								return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "nd ref %q", a.Value)
							}
							current.Nodes = append(current.Nodes, ref)
						}
					}
				}
			case "member":
				if current != nil {
					m := Member{}
					for _, a := range t.Attr {
						switch a.Name.Local {
						case "type":
							m.Type = a.Value
						case "role":
							m.Role = a.Value
						case "ref":
							ref, err := strconv.ParseInt(a.Value, 10, 64)
							if err != nil {
								return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "member ref %q", a.Value)
							}
							m.Ref = ref
						}
					}
					current.Members = append(current.Members, m)
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "node", "way", "relation":
				if current != nil {
					doc.Elements = append(doc.Elements, *current)
					current = nil
				}
			}
		}
	}
	return doc, nil
}

// newElement builds the current record from a node/way/relation start tag,
// coercing the integer bookkeeping attributes and node coordinates. Unknown
// attributes are ignored.
func newElement(t xml.StartElement) (*Element, error) {
	el := &Element{Type: t.Name.Local, Tags: map[string]string{}}
	for _, a := range t.Attr {
		switch a.Name.Local {
		case "id", "uid", "version", "changeset":
			n, err := strconv.ParseInt(a.Value, 10, 64)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err,
					"%s attribute %s=%q", t.Name.Local, a.Name.Local, a.Value)
			}
			switch a.Name.Local {
			case "id":
				el.ID = n
			case "uid":
				el.UID = n
			case "version":
				el.Version = n
			case "changeset":
				el.Changeset = n
			}
		case "lat", "lon":
			f, err := strconv.ParseFloat(a.Value, 64)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err,
					"%s attribute %s=%q", t.Name.Local, a.Name.Local, a.Value)
			}
			if a.Name.Local == "lat" {
				el.Lat = f
			} else {
				el.Lon = f
			}
		case "user":
			el.User = a.Value
		case "timestamp":
			el.Timestamp = a.Value
		}
	}
	return el, nil
}

// Summary counts element records by type, for display surfaces.
func (d *Document) Summary() map[string]int {
	out := map[string]int{}
	for _, el := range d.Elements {
		out[el.Type]++
	}
	return out
}

// String implements fmt.Stringer with a short one-line description.
func (d *Document) String() string {
	s := d.Summary()
	return fmt.Sprintf("osm v%s (%s): %d nodes, %d ways, %d relations",
		d.Version, d.Generator, s["node"], s["way"], s["relation"])
}
