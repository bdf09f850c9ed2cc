package modelserve

import (
	"slices"
	"time"

	dombatch "github.com/kailas-cloud/modelserve/internal/domain/batch"
	"github.com/kailas-cloud/modelserve/internal/domain/prediction"
	registryuc "github.com/kailas-cloud/modelserve/internal/usecase/registry"
)

// Prediction is the result of classifying one input.
type Prediction struct {
	Label  int
	Scores []float64
	// Decision is the logistic decision value, nil for tree models.
	Decision *float64
}

// Description summarizes a registered model.
type Description struct {
	Name         string
	Kind         Kind
	FeatureNames []string
	Classes      int
	Checksum     string
	CreatedAt    time.Time

	Weights []float64 // logistic
	Bias    float64   // logistic
	Depth   int       // tree, forest (deepest tree)
	Leaves  int       // tree, forest (total)
	Trees   int       // forest
	Vote    Vote      // forest
}

// BatchItem is one row of a batch prediction.
type BatchItem struct {
	Index      int
	Prediction Prediction
	Err        error
}

// OK reports whether the row was classified.
func (b BatchItem) OK() bool { return b.Err == nil }

func predictionFromDomain(p prediction.Prediction) Prediction {
	out := Prediction{
		Label:  p.Label(),
		Scores: slices.Clone(p.Scores()),
	}
	if d, ok := p.Decision(); ok {
		out.Decision = &d
	}
	return out
}

func descriptionFromRegistry(d registryuc.Description) Description {
	return Description{
		Name:         d.Name,
		Kind:         d.Kind,
		FeatureNames: slices.Clone(d.FeatureNames),
		Classes:      d.Classes,
		Checksum:     d.Checksum,
		CreatedAt:    time.UnixMilli(d.CreatedAt).UTC(),
		Weights:      slices.Clone(d.Weights),
		Bias:         d.Bias,
		Depth:        d.Depth,
		Leaves:       d.Leaves,
		Trees:        d.Trees,
		Vote:         d.Vote,
	}
}

func batchItemFromDomain(r dombatch.Result) BatchItem {
	if r.Status() != dombatch.StatusOK {
		return BatchItem{Index: r.Index(), Err: r.Err()}
	}
	return BatchItem{Index: r.Index(), Prediction: predictionFromDomain(r.Prediction())}
}
