package osmxml

import (
	"strconv"

	"github.com/waygraph/waygraph/pkg/errors"
	"github.com/waygraph/waygraph/pkg/graph"
)

// AggFunc reduces the column of per-edge values for one tag into a single
// merged value.
type AggFunc func([]any) (any, error)

// AggSpec pairs a way tag with the name of the aggregation operator applied
// to it when edges merge into one way record.
type AggSpec struct {
	Tag string
	Op  string
}

// AggByName resolves a built-in aggregation operator: "sum", "mean",
// "first", "min", or "max".
func AggByName(name string) (AggFunc, bool) {
	switch name {
	case "sum":
		return AggSum, true
	case "mean":
		return AggMean, true
	case "first":
		return AggFirst, true
	case "min":
		return AggMin, true
	case "max":
		return AggMax, true
	}
	return nil, false
}

// AggSum sums the column as float64.
func AggSum(values []any) (any, error) {
	var total float64
	for _, v := range values {
		f, err := toFloat(v)
		if err != nil {
			return nil, err
		}
		total += f
	}
	return total, nil
}

// AggMean averages the column as float64.
func AggMean(values []any) (any, error) {
	if len(values) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidArgument, "mean of empty column")
	}
	sum, err := AggSum(values)
	if err != nil {
		return nil, err
	}
	return sum.(float64) / float64(len(values)), nil
}

// AggFirst takes the first value of the column.
func AggFirst(values []any) (any, error) {
	if len(values) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidArgument, "first of empty column")
	}
	return values[0], nil
}

// AggMin takes the numeric minimum of the column.
func AggMin(values []any) (any, error) {
	return extremum(values, func(a, b float64) bool { return a < b })
}

// AggMax takes the numeric maximum of the column.
func AggMax(values []any) (any, error) {
	return extremum(values, func(a, b float64) bool { return a > b })
}

func extremum(values []any, better func(a, b float64) bool) (any, error) {
	if len(values) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidArgument, "extremum of empty column")
	}
	best, err := toFloat(values[0])
	if err != nil {
		return nil, err
	}
	for _, v := range values[1:] {
		f, err := toFloat(v)
		if err != nil {
			return nil, err
		}
		if better(f, best) {
			best = f
		}
	}
	return best, nil
}

func toFloat(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case int64:
		return float64(t), nil
	case int:
		return float64(t), nil
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err == nil {
			return f, nil
		}
	}
	return 0, errors.New(errors.ErrCodeConversion, "non-numeric value in aggregated column: %v", v)
}

// mergeTags produces one way record's tag values from a group of edge rows.
// The sample edge (first of the group) sources every tag that has no
// registered aggregation; aggregated tags are computed over the whole column
// of present values and override the sample. Input rows are never mutated.
func mergeTags(sample graph.Metadata, rows []graph.Metadata, tags []string, aggs map[string]AggFunc) (map[string]any, error) {
	out := make(map[string]any, len(tags))
	for _, tag := range tags {
		if _, aggregated := aggs[tag]; aggregated {
			continue
		}
		if v, ok := sample[tag]; ok && v != nil {
			out[tag] = v
		}
	}

	for tag, agg := range aggs {
		column := make([]any, 0, len(rows))
		for _, row := range rows {
			if v, ok := row[tag]; ok && v != nil {
				column = append(column, v)
			}
		}
		if len(column) == 0 {
			continue
		}
		merged, err := agg(column)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeConversion, err, "aggregate way tag %q", tag)
		}
		out[tag] = merged
	}
	return out, nil
}
