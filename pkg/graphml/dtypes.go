package graphml

import (
	"strconv"

	"github.com/waygraph/waygraph/pkg/errors"
)

// Scope identifies which attribute namespace a coercion rule applies to.
// The values double as the GraphML "for" attribute of key declarations.
type Scope string

// Attribute scopes.
const (
	ScopeGraph Scope = "graph"
	ScopeNode  Scope = "node"
	ScopeEdge  Scope = "edge"
)

// Converter coerces a parsed intermediate value (a string, or an element of
// a structurally-parsed collection) into its typed in-memory form. A
// converter fails with a CONVERSION_ERROR when the input is not a valid
// instance of the expected type.
type Converter func(any) (any, error)

// Registry maps scope and attribute name to the coercion applied on load.
// It only applies on deserialization; on save every value is stringified
// unconditionally regardless of registry contents.
type Registry struct {
	rules map[Scope]map[string]Converter
}

// DefaultRegistry returns the built-in coercion rules for street-network
// graphs: coordinates, elevations, and lengths as float64; OSM IDs and
// street counts as int64; simplified/oneway/reversed flags as strict
// booleans.
func DefaultRegistry() *Registry {
	return &Registry{rules: map[Scope]map[string]Converter{
		ScopeGraph: {
			"simplified": ConvertBoolString,
		},
		ScopeNode: {
			"elevation":     ConvertFloat,
			"elevation_res": ConvertFloat,
			"lat":           ConvertFloat,
			"lon":           ConvertFloat,
			"x":             ConvertFloat,
			"y":             ConvertFloat,
			"osmid":         ConvertInt,
			"street_count":  ConvertInt,
		},
		ScopeEdge: {
			"bearing":     ConvertFloat,
			"grade":       ConvertFloat,
			"grade_abs":   ConvertFloat,
			"length":      ConvertFloat,
			"oneway":      ConvertBoolString,
			"osmid":       ConvertInt,
			"reversed":    ConvertBoolString,
			"speed_kph":   ConvertFloat,
			"travel_time": ConvertFloat,
		},
	}}
}

// Override merges caller-supplied coercion rules into the registry.
// Caller rules win on attribute-name collision. A nil map is a no-op.
func (r *Registry) Override(scope Scope, rules map[string]Converter) {
	if len(rules) == 0 {
		return
	}
	if r.rules[scope] == nil {
		r.rules[scope] = map[string]Converter{}
	}
	for name, fn := range rules {
		r.rules[scope][name] = fn
	}
}

// Resolve returns the converter registered for the attribute, or false when
// the attribute has no coercion rule and its value should be kept as-is.
func (r *Registry) Resolve(scope Scope, name string) (Converter, bool) {
	fn, ok := r.rules[scope][name]
	return fn, ok
}

// Apply coerces value using the rule registered for (scope, name), if any.
// When value is a collection produced by the structural-parse pass, the
// converter runs element-wise over its members rather than on the collection
// as a whole.
func (r *Registry) Apply(scope Scope, name string, value any) (any, error) {
	fn, ok := r.Resolve(scope, name)
	if !ok {
		return value, nil
	}
	if items, isList := value.([]any); isList {
		out := make([]any, len(items))
		for i, item := range items {
			conv, err := fn(item)
			if err != nil {
				return nil, err
			}
			out[i] = conv
		}
		return out, nil
	}
	return fn(value)
}

// ConvertBoolString converts the literal text "True" or "False" to the
// corresponding boolean. Any other text fails: default truthiness semantics
// would silently turn "False" (or the empty string) into true, which is
// exactly the footgun this converter exists to close. An already-boolean
// value passes through, accommodating members of structurally-parsed lists.
func ConvertBoolString(v any) (any, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		switch t {
		case "True":
			return true, nil
		case "False":
			return false, nil
		}
	}
	return nil, errors.New(errors.ErrCodeConversion, "invalid literal for boolean: %v", v)
}

// ConvertFloat coerces text or numeric values to float64.
func ConvertFloat(v any) (any, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case int64:
		return float64(t), nil
	case int:
		return float64(t), nil
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return nil, errors.New(errors.ErrCodeConversion, "invalid literal for float: %q", t)
		}
		return f, nil
	}
	return nil, errors.New(errors.ErrCodeConversion, "invalid literal for float: %v", v)
}

// ConvertInt coerces text or numeric values to int64.
func ConvertInt(v any) (any, error) {
	switch t := v.(type) {
	case int64:
		return t, nil
	case int:
		return int64(t), nil
	case string:
		i, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			return nil, errors.New(errors.ErrCodeConversion, "invalid literal for int: %q", t)
		}
		return i, nil
	}
	return nil, errors.New(errors.ErrCodeConversion, "invalid literal for int: %v", v)
}

// ConvertString coerces any value to its plain string form. Registered by
// callers that need to force an attribute (e.g. oneway under all-oneway
// datasets) to stay textual.
func ConvertString(v any) (any, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	return Repr(v), nil
}
