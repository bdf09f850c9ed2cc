package registry

import (
	"slices"

	domart "github.com/kailas-cloud/modelserve/internal/domain/artifact"
	"github.com/kailas-cloud/modelserve/internal/domain/forest"
	"github.com/kailas-cloud/modelserve/internal/domain/model"
	"github.com/kailas-cloud/modelserve/internal/domain/model/kind"
)

// Description summarizes a registered model. Kind-specific fields are zero
// for other kinds.
type Description struct {
	Name         string
	Kind         kind.Kind
	FeatureNames []string
	Classes      int
	Checksum     string
	CreatedAt    int64

	// logistic
	Weights []float64
	Bias    float64

	// tree
	Depth  int
	Leaves int

	// forest
	Trees int
	Vote  forest.Vote
}

// Describe builds a Description from stored metadata and the loaded model.
// The returned slices are copies.
func Describe(a domart.Artifact, m *model.Model) Description {
	d := Description{
		Name:         a.Name(),
		Kind:         m.Kind(),
		FeatureNames: slices.Clone(m.Schema().Names()),
		Classes:      m.Classes(),
		Checksum:     a.Checksum(),
		CreatedAt:    a.CreatedAt(),
	}
	switch m.Kind() {
	case kind.Logistic:
		lm, _ := m.Logistic()
		d.Weights = slices.Clone(lm.Weights())
		d.Bias = lm.Bias()
	case kind.Tree:
		t, _ := m.Tree()
		d.Depth = t.Depth()
		d.Leaves = t.Leaves()
	case kind.Forest:
		f, _ := m.Forest()
		d.Trees = len(f.Trees())
		d.Vote = f.Vote()
		for _, t := range f.Trees() {
			d.Depth = max(d.Depth, t.Depth())
			d.Leaves += t.Leaves()
		}
	}
	return d
}
