// Package modelserve loads exported classifier artifacts (logistic
// regression, decision tree, random forest) and evaluates them in-process.
//
// A single artifact can be used directly:
//
//	m, err := modelserve.LoadFile("titanic/forest.json")
//	p, err := m.Predict(map[string]any{"Age": 22.0, "Sex_male": true})
//
// A Client keeps many named models in a shared store (Valkey, Redis,
// SQLite or memory) with a local LRU cache in front of it.
package modelserve

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kailas-cloud/modelserve/internal/domain/features"
	"github.com/kailas-cloud/modelserve/internal/domain/forest"
	"github.com/kailas-cloud/modelserve/internal/domain/model"
	"github.com/kailas-cloud/modelserve/internal/domain/model/kind"
	"github.com/kailas-cloud/modelserve/internal/loader"
)

// Kind identifies the model family of an artifact.
type Kind = kind.Kind

// Model kinds.
const (
	Logistic = kind.Logistic
	Tree     = kind.Tree
	Forest   = kind.Forest
)

// Vote is the forest aggregation policy.
type Vote = forest.Vote

// Forest vote policies. SoftVote is used when none is given.
const (
	SoftVote = forest.Soft
	HardVote = forest.Hard
)

// ParseKind resolves a kind name or alias ("decisiontree", "randomforest").
// An empty name yields an empty Kind.
func ParseKind(s string) (Kind, error) { return kind.Parse(s) }

// ParseVote resolves a vote policy name. An empty name yields SoftVote.
func ParseVote(s string) (Vote, error) { return forest.ParseVote(s) }

// Model is a validated, immutable classifier. Safe for concurrent use.
type Model struct {
	m *model.Model
}

// Load parses and validates an artifact.
func Load(data []byte, opts ...ModelOption) (*Model, error) {
	m, err := loader.Load(data, loaderOptions(opts)...)
	if err != nil {
		return nil, err
	}
	return &Model{m: m}, nil
}

// LoadFile reads and loads an artifact file.
func LoadFile(path string, opts ...ModelOption) (*Model, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("modelserve: read artifact: %w", err)
	}
	return Load(data, opts...)
}

// Kind returns the model family.
func (m *Model) Kind() Kind { return m.m.Kind() }

// FeatureNames returns the feature names in binding order.
func (m *Model) FeatureNames() []string {
	return append([]string(nil), m.m.Schema().Names()...)
}

// Classes returns the number of output classes.
func (m *Model) Classes() int { return m.m.Classes() }

// Predict classifies a named feature set. Values may be numbers, booleans
// or json.Number; unknown names are ignored.
func (m *Model) Predict(values map[string]any) (Prediction, error) {
	p, err := m.m.Predict(features.Named(values))
	if err != nil {
		return Prediction{}, err
	}
	return predictionFromDomain(p), nil
}

// PredictDense classifies a positional feature vector in FeatureNames order.
func (m *Model) PredictDense(values []float64) (Prediction, error) {
	p, err := m.m.Predict(features.Dense(values))
	if err != nil {
		return Prediction{}, err
	}
	return predictionFromDomain(p), nil
}

// PredictValues classifies a positional vector of decoded values (numbers,
// booleans or json.Number) in FeatureNames order.
func (m *Model) PredictValues(values []any) (Prediction, error) {
	p, err := m.m.Predict(features.DenseValues(values))
	if err != nil {
		return Prediction{}, err
	}
	return predictionFromDomain(p), nil
}
