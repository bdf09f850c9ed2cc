// Package model is the closed union over the supported model kinds.
package model

import (
	"fmt"

	"github.com/kailas-cloud/modelserve/internal/domain/features"
	"github.com/kailas-cloud/modelserve/internal/domain/forest"
	"github.com/kailas-cloud/modelserve/internal/domain/linear"
	"github.com/kailas-cloud/modelserve/internal/domain/model/kind"
	"github.com/kailas-cloud/modelserve/internal/domain/prediction"
	"github.com/kailas-cloud/modelserve/internal/domain/tree"
)

// Model is a loaded, immutable classifier. Exactly one of the kind-specific
// fields is set, selected by kind at construction time. Safe for concurrent use.
type Model struct {
	kind     kind.Kind
	schema   features.Schema
	logistic linear.Model
	tree     *tree.Tree
	forest   *forest.Forest
}

// NewLogistic wraps a logistic model; schema must have one name per weight.
func NewLogistic(schema features.Schema, m linear.Model) (*Model, error) {
	if schema.Len() != m.NumFeatures() {
		return nil, fmt.Errorf("%d feature names for %d weights", schema.Len(), m.NumFeatures())
	}
	return &Model{kind: kind.Logistic, schema: schema, logistic: m}, nil
}

// NewTree wraps a decision tree; schema must cover every split feature.
func NewTree(schema features.Schema, t *tree.Tree) (*Model, error) {
	if err := covers(schema, t.Features()); err != nil {
		return nil, err
	}
	return &Model{kind: kind.Tree, schema: schema, tree: t}, nil
}

// NewForest wraps a forest; schema must cover every split feature.
func NewForest(schema features.Schema, f *forest.Forest) (*Model, error) {
	if err := covers(schema, f.Features()); err != nil {
		return nil, err
	}
	return &Model{kind: kind.Forest, schema: schema, forest: f}, nil
}

func covers(schema features.Schema, used map[string]struct{}) error {
	for _, name := range features.SortedSchema(used).Names() {
		if !schema.Has(name) {
			return fmt.Errorf("split feature %q is not among the declared feature names", name)
		}
	}
	return nil
}

// Kind returns the model kind.
func (m *Model) Kind() kind.Kind { return m.kind }

// Schema returns the required features in binding order.
func (m *Model) Schema() features.Schema { return m.schema }

// Logistic returns the logistic model when Kind() is Logistic.
func (m *Model) Logistic() (linear.Model, bool) { return m.logistic, m.kind == kind.Logistic }

// Tree returns the tree when Kind() is Tree.
func (m *Model) Tree() (*tree.Tree, bool) { return m.tree, m.kind == kind.Tree }

// Forest returns the forest when Kind() is Forest.
func (m *Model) Forest() (*forest.Forest, bool) { return m.forest, m.kind == kind.Forest }

// Classes returns the number of output classes.
func (m *Model) Classes() int {
	switch m.kind {
	case kind.Tree:
		return m.tree.Classes()
	case kind.Forest:
		return m.forest.Classes()
	default:
		return 2
	}
}

// Predict binds the input to the model's schema and evaluates it.
func (m *Model) Predict(in features.Input) (prediction.Prediction, error) {
	v, err := features.Bind(m.schema, in)
	if err != nil {
		return prediction.Prediction{}, err
	}
	switch m.kind {
	case kind.Logistic:
		return m.logistic.Predict(v.Values())
	case kind.Tree:
		return m.tree.Predict(v)
	case kind.Forest:
		return m.forest.Predict(v)
	default:
		return prediction.Prediction{}, fmt.Errorf("model has no kind")
	}
}
