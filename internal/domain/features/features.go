// Package features binds caller-supplied feature values to the ordered
// numeric vector a model evaluates.
package features

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/kailas-cloud/modelserve/internal/domain"
)

// Schema is the ordered list of features a model requires (immutable).
type Schema struct {
	names []string
	index map[string]int
}

// NewSchema validates names (non-empty, unique) and creates a Schema.
func NewSchema(names []string) (Schema, error) {
	index := make(map[string]int, len(names))
	for i, n := range names {
		if n == "" {
			return Schema{}, fmt.Errorf("feature name at position %d is empty", i)
		}
		if _, dup := index[n]; dup {
			return Schema{}, fmt.Errorf("duplicate feature name: %s", n)
		}
		index[n] = i
	}
	own := make([]string, len(names))
	copy(own, names)
	return Schema{names: own, index: index}, nil
}

// SortedSchema builds a Schema from an unordered name set, sorted lexicographically.
func SortedSchema(set map[string]struct{}) Schema {
	names := make([]string, 0, len(set))
	for n := range set {
		names = append(names, n)
	}
	sort.Strings(names)
	s, _ := NewSchema(names) // set keys are unique and callers never insert ""
	return s
}

// DefaultNames returns f1..fN.
func DefaultNames(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("f%d", i+1)
	}
	return names
}

// Names returns the required feature names in model order.
func (s Schema) Names() []string { return s.names }

// Len returns the number of required features.
func (s Schema) Len() int { return len(s.names) }

// Has reports whether name is part of the schema.
func (s Schema) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Input is a caller-owned feature set, either named or dense.
type Input struct {
	named map[string]any
	dense []any
	dns   bool
}

// Named creates a sparse input keyed by feature name.
func Named(values map[string]any) Input {
	return Input{named: values}
}

// NamedFloats is a convenience wrapper over Named for numeric maps.
func NamedFloats(values map[string]float64) Input {
	m := make(map[string]any, len(values))
	for k, v := range values {
		m[k] = v
	}
	return Named(m)
}

// Dense creates a positional input that follows the schema order.
func Dense(values []float64) Input {
	raw := make([]any, len(values))
	for i, v := range values {
		raw[i] = v
	}
	return Input{dense: raw, dns: true}
}

// DenseValues creates a positional input from decoded values of any
// supported type. Values are converted on Bind.
func DenseValues(values []any) Input {
	return Input{dense: values, dns: true}
}

// Len returns the number of supplied values.
func (in Input) Len() int {
	if in.dns {
		return len(in.dense)
	}
	return len(in.named)
}

// IsDense reports whether the input is positional.
func (in Input) IsDense() bool { return in.dns }

// Vector is a feature vector bound to a Schema. Read-only.
type Vector struct {
	schema Schema
	values []float64
}

// Values returns the ordered values.
func (v Vector) Values() []float64 { return v.values }

// Get returns the value bound to name.
func (v Vector) Get(name string) (float64, bool) {
	i, ok := v.schema.index[name]
	if !ok {
		return 0, false
	}
	return v.values[i], true
}

// Bind aligns input to schema. Problems are reported for the first offending
// feature in schema order.
func Bind(schema Schema, in Input) (Vector, error) {
	if in.dns {
		return bindDense(schema, in.dense)
	}
	values := make([]float64, len(schema.names))
	for i, name := range schema.names {
		raw, ok := in.named[name]
		if !ok {
			return Vector{}, domain.NewMissingFeature(name)
		}
		f, err := ToFloat(raw)
		if err != nil {
			return Vector{}, domain.NewInvalidFeatureValue(name, raw, err.Error())
		}
		values[i] = f
	}
	return Vector{schema: schema, values: values}, nil
}

func bindDense(schema Schema, dense []any) (Vector, error) {
	if len(dense) != len(schema.names) {
		if len(dense) < len(schema.names) {
			return Vector{}, domain.NewMissingFeature(schema.names[len(dense)])
		}
		return Vector{}, domain.NewInvalidFeatureValue(
			"", len(dense),
			fmt.Sprintf("dense input has %d values, model expects %d", len(dense), len(schema.names)),
		)
	}
	values := make([]float64, len(dense))
	for i, raw := range dense {
		f, err := ToFloat(raw)
		if err != nil {
			return Vector{}, domain.NewInvalidFeatureValue(schema.names[i], raw, err.Error())
		}
		values[i] = f
	}
	return Vector{schema: schema, values: values}, nil
}

// ToFloat interprets a decoded feature value as a finite float64.
// Booleans map to 1 and 0.
func ToFloat(v any) (float64, error) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int8:
		f = float64(x)
	case int16:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint:
		f = float64(x)
	case uint8:
		f = float64(x)
	case uint16:
		f = float64(x)
	case uint32:
		f = float64(x)
	case uint64:
		f = float64(x)
	case bool:
		if x {
			f = 1
		}
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0, fmt.Errorf("not a number: %w", err)
		}
		f = parsed
	case nil:
		return 0, fmt.Errorf("value is null")
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("value is not finite")
	}
	return f, nil
}
