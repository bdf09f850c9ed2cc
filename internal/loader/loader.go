// Package loader parses exported model artifacts and validates their
// structure before a model handle is handed out.
package loader

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/kailas-cloud/modelserve/internal/domain"
	"github.com/kailas-cloud/modelserve/internal/domain/features"
	"github.com/kailas-cloud/modelserve/internal/domain/forest"
	"github.com/kailas-cloud/modelserve/internal/domain/linear"
	"github.com/kailas-cloud/modelserve/internal/domain/model"
	"github.com/kailas-cloud/modelserve/internal/domain/model/kind"
	"github.com/kailas-cloud/modelserve/internal/domain/tree"
)

// MaxDepth bounds tree nesting accepted from an artifact.
const MaxDepth = 512

// Options control how an artifact is interpreted.
type Options struct {
	Kind         kind.Kind // empty: detect from the artifact
	FeatureNames []string  // empty: artifact envelope, then defaults
	Vote         forest.Vote
}

// Option mutates Options.
type Option func(*Options)

// WithKind declares the expected model kind.
func WithKind(k kind.Kind) Option {
	return func(o *Options) { o.Kind = k }
}

// WithFeatureNames declares the model's feature names in binding order.
func WithFeatureNames(names []string) Option {
	return func(o *Options) { o.FeatureNames = names }
}

// WithVote sets the forest aggregation policy.
func WithVote(v forest.Vote) Option {
	return func(o *Options) { o.Vote = v }
}

// envelope is the self-describing artifact form.
type envelope struct {
	Kind         string          `json:"kind"`
	FeatureNames []string        `json:"feature_names"`
	Vote         string          `json:"vote"`
	Model        json.RawMessage `json:"model"`
}

// LoadReader reads the whole artifact from r and loads it.
func LoadReader(r io.Reader, opts ...Option) (*model.Model, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	return Load(data, opts...)
}

// Load parses an artifact. Every structural problem is reported as a
// *domain.SchemaError; an unknown kind as *domain.UnsupportedModelKindError.
// No model is returned unless validation fully succeeds.
func Load(data []byte, opts ...Option) (*model.Model, error) {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	if o.Kind != "" && !o.Kind.IsValid() {
		return nil, domain.NewUnsupportedModelKind(string(o.Kind))
	}

	raw := json.RawMessage(bytes.TrimSpace(data))
	if len(raw) == 0 {
		return nil, domain.NewSchemaError("$", "artifact is empty")
	}
	if !json.Valid(raw) {
		return nil, domain.NewSchemaError("$", "artifact is not valid JSON")
	}

	raw, err := unwrapEnvelope(raw, &o)
	if err != nil {
		return nil, err
	}

	k := o.Kind
	if k == "" {
		if k, err = detect(raw); err != nil {
			return nil, err
		}
	}

	switch k {
	case kind.Logistic:
		return loadLogistic(raw, o)
	case kind.Tree:
		return loadTree(raw, o)
	case kind.Forest:
		return loadForest(raw, o)
	default:
		return nil, domain.NewUnsupportedModelKind(string(k))
	}
}

// unwrapEnvelope merges envelope metadata into o and returns the inner model.
// Caller options win over envelope values; a declared kind must agree.
func unwrapEnvelope(raw json.RawMessage, o *Options) (json.RawMessage, error) {
	if raw[0] != '{' {
		return raw, nil
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, domain.NewSchemaError("$", "invalid object: %v", err)
	}
	_, hasModel := probe["model"]
	_, hasKind := probe["kind"]
	if !hasModel || !hasKind {
		return raw, nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, domain.NewSchemaError("$", "invalid envelope: %v", err)
	}
	envKind, err := kind.Parse(env.Kind)
	if err != nil {
		return nil, err
	}
	if envKind == "" {
		return nil, domain.NewSchemaError("$.kind", "envelope kind is empty")
	}
	if o.Kind != "" && o.Kind != envKind {
		return nil, domain.NewSchemaError("$.kind", "artifact is a %s model, %s was declared", envKind, o.Kind)
	}
	o.Kind = envKind
	if len(o.FeatureNames) == 0 {
		o.FeatureNames = env.FeatureNames
	}
	if o.Vote == "" && env.Vote != "" {
		v, err := forest.ParseVote(env.Vote)
		if err != nil {
			return nil, domain.NewSchemaError("$.vote", "%v", err)
		}
		o.Vote = v
	}
	inner := json.RawMessage(bytes.TrimSpace(env.Model))
	if len(inner) == 0 || isNull(inner) {
		return nil, domain.NewSchemaError("$.model", "envelope model is empty")
	}
	return inner, nil
}

func detect(raw json.RawMessage) (kind.Kind, error) {
	switch raw[0] {
	case '[':
		return kind.Forest, nil
	case '{':
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(raw, &probe); err != nil {
			return "", domain.NewSchemaError("$", "invalid object: %v", err)
		}
		if _, ok := probe["weight"]; ok {
			return kind.Logistic, nil
		}
		_, hasFeature := probe["feature"]
		_, hasValue := probe["value"]
		if hasFeature || hasValue {
			return kind.Tree, nil
		}
		return "", domain.NewSchemaError("$", "cannot detect model kind from artifact keys")
	default:
		return "", domain.NewSchemaError("$", "artifact must be a JSON object or array")
	}
}

func loadLogistic(raw json.RawMessage, o Options) (*model.Model, error) {
	obj, err := decodeObject(raw, "$")
	if err != nil {
		return nil, err
	}

	weightRaw, ok := obj["weight"]
	if !ok {
		return nil, domain.NewSchemaError("$.weight", "field is required")
	}
	weights, err := decodeNumbers(weightRaw, "$.weight")
	if err != nil {
		return nil, err
	}
	if len(weights) == 0 {
		return nil, domain.NewSchemaError("$.weight", "must not be empty")
	}

	biasRaw, ok := obj["bias"]
	if !ok {
		return nil, domain.NewSchemaError("$.bias", "field is required")
	}
	bias, err := decodeBias(biasRaw)
	if err != nil {
		return nil, err
	}

	lm, err := linear.New(weights, bias)
	if err != nil {
		return nil, domain.NewSchemaError("$", "%v", err)
	}

	names := o.FeatureNames
	if len(names) == 0 {
		names = features.DefaultNames(len(weights))
	}
	schema, err := features.NewSchema(names)
	if err != nil {
		return nil, domain.NewSchemaError("$.feature_names", "%v", err)
	}
	m, err := model.NewLogistic(schema, lm)
	if err != nil {
		return nil, domain.NewSchemaError("$.feature_names", "%v", err)
	}
	return m, nil
}

// decodeBias accepts [b] or a bare b.
func decodeBias(raw json.RawMessage) (float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		values, err := decodeNumbers(raw, "$.bias")
		if err != nil {
			return 0, err
		}
		if len(values) != 1 {
			return 0, domain.NewSchemaError("$.bias", "must hold exactly one value, got %d", len(values))
		}
		return values[0], nil
	}
	return decodeNumber(raw, "$.bias")
}

func loadTree(raw json.RawMessage, o Options) (*model.Model, error) {
	t, err := parseTree(raw, "$")
	if err != nil {
		return nil, err
	}
	schema, err := treeSchema(o.FeatureNames, t.Features())
	if err != nil {
		return nil, err
	}
	m, err := model.NewTree(schema, t)
	if err != nil {
		return nil, domain.NewSchemaError("$.feature_names", "%v", err)
	}
	return m, nil
}

func loadForest(raw json.RawMessage, o Options) (*model.Model, error) {
	if raw[0] != '[' {
		return nil, domain.NewSchemaError("$", "forest artifact must be an array of trees")
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, domain.NewSchemaError("$", "invalid array: %v", err)
	}
	if len(elems) == 0 {
		return nil, domain.NewSchemaError("$", "forest has no trees")
	}

	trees := make([]*tree.Tree, len(elems))
	for i, elem := range elems {
		t, err := parseTree(elem, "$["+strconv.Itoa(i)+"]")
		if err != nil {
			return nil, err
		}
		trees[i] = t
	}

	f, err := forest.New(trees, o.Vote)
	if err != nil {
		return nil, domain.NewSchemaError("$", "%v", err)
	}
	schema, err := treeSchema(o.FeatureNames, f.Features())
	if err != nil {
		return nil, err
	}
	m, err := model.NewForest(schema, f)
	if err != nil {
		return nil, domain.NewSchemaError("$.feature_names", "%v", err)
	}
	return m, nil
}

func treeSchema(declared []string, used map[string]struct{}) (features.Schema, error) {
	if len(declared) == 0 {
		return features.SortedSchema(used), nil
	}
	schema, err := features.NewSchema(declared)
	if err != nil {
		return features.Schema{}, domain.NewSchemaError("$.feature_names", "%v", err)
	}
	return schema, nil
}

func parseTree(raw json.RawMessage, path string) (*tree.Tree, error) {
	root, err := parseNode(raw, path, 0)
	if err != nil {
		return nil, err
	}
	t, err := tree.New(root)
	if err != nil {
		return nil, domain.NewSchemaError(path, "%v", err)
	}
	return t, nil
}

var splitKeys = [...]string{"feature", "threshold", "left", "right"}

func parseNode(raw json.RawMessage, path string, depth int) (*tree.Node, error) {
	if depth > MaxDepth {
		return nil, domain.NewSchemaError(path, "tree deeper than %d levels", MaxDepth)
	}
	obj, err := decodeObject(raw, path)
	if err != nil {
		return nil, err
	}

	present := 0
	var missing string
	for _, k := range splitKeys {
		if _, ok := obj[k]; ok {
			present++
		} else if missing == "" {
			missing = k
		}
	}
	valueRaw, hasValue := obj["value"]

	switch {
	case hasValue && present > 0:
		return nil, domain.NewSchemaError(path, "node mixes leaf value with split fields")
	case hasValue:
		return parseLeaf(valueRaw, path+".value")
	case present == 0:
		return nil, domain.NewSchemaError(path, "node has neither split fields nor a leaf value")
	case present < len(splitKeys):
		return nil, domain.NewSchemaError(path, "incomplete split node: %q is missing", missing)
	}

	var feature string
	if err := json.Unmarshal(obj["feature"], &feature); err != nil || isNull(obj["feature"]) {
		return nil, domain.NewSchemaError(path+".feature", "must be a string")
	}
	threshold, err := decodeNumber(obj["threshold"], path+".threshold")
	if err != nil {
		return nil, err
	}
	left, err := parseNode(obj["left"], path+".left", depth+1)
	if err != nil {
		return nil, err
	}
	right, err := parseNode(obj["right"], path+".right", depth+1)
	if err != nil {
		return nil, err
	}
	n, err := tree.NewInternal(feature, threshold, left, right)
	if err != nil {
		return nil, domain.NewSchemaError(path, "%v", err)
	}
	return n, nil
}

// parseLeaf accepts [[c0, c1, ...]] (exactly one row) or a flat [c0, c1, ...].
func parseLeaf(raw json.RawMessage, path string) (*tree.Node, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, domain.NewSchemaError(path, "must be an array")
	}
	var outer []json.RawMessage
	if err := json.Unmarshal(raw, &outer); err != nil {
		return nil, domain.NewSchemaError(path, "invalid array: %v", err)
	}
	if len(outer) == 0 {
		return nil, domain.NewSchemaError(path, "must not be empty")
	}

	var counts []float64
	first := bytes.TrimSpace(outer[0])
	if len(first) > 0 && first[0] == '[' {
		if len(outer) != 1 {
			return nil, domain.NewSchemaError(path, "holds %d rows, only single-output trees are supported", len(outer))
		}
		row, err := decodeNumbers(first, path+"[0]")
		if err != nil {
			return nil, err
		}
		counts = row
	} else {
		row, err := decodeNumbers(raw, path)
		if err != nil {
			return nil, err
		}
		counts = row
	}
	if len(counts) == 0 {
		return nil, domain.NewSchemaError(path, "class counts must not be empty")
	}

	n, err := tree.NewLeaf(counts)
	if err != nil {
		return nil, domain.NewSchemaError(path, "%v", err)
	}
	return n, nil
}

func decodeObject(raw json.RawMessage, path string) (map[string]json.RawMessage, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, domain.NewSchemaError(path, "must be an object")
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, domain.NewSchemaError(path, "invalid object: %v", err)
	}
	return obj, nil
}

func decodeNumbers(raw json.RawMessage, path string) ([]float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, domain.NewSchemaError(path, "must be an array of numbers")
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, domain.NewSchemaError(path, "invalid array: %v", err)
	}
	out := make([]float64, len(elems))
	for i, e := range elems {
		f, err := decodeNumber(e, path+"["+strconv.Itoa(i)+"]")
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

func decodeNumber(raw json.RawMessage, path string) (float64, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return 0, domain.NewSchemaError(path, "must be a number")
	}
	n, ok := v.(json.Number)
	if !ok {
		return 0, domain.NewSchemaError(path, "must be a number, got %s", jsonType(v))
	}
	f, err := n.Float64()
	if err != nil {
		return 0, domain.NewSchemaError(path, "number out of range: %s", n)
	}
	return f, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func jsonType(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
