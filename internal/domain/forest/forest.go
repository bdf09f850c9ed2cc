// Package forest aggregates decision tree ensembles.
package forest

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/kailas-cloud/modelserve/internal/domain/prediction"
	"github.com/kailas-cloud/modelserve/internal/domain/tree"
)

// Vote is the aggregation policy across trees.
type Vote string

// Vote policies.
const (
	// Soft averages per-tree class probabilities.
	Soft Vote = "soft"
	// Hard counts one vote per tree for its majority class.
	Hard Vote = "hard"
)

// IsValid checks if the vote policy is supported.
func (v Vote) IsValid() bool {
	return v == Soft || v == Hard
}

// ParseVote resolves a policy name; empty means Soft.
func ParseVote(s string) (Vote, error) {
	if s == "" {
		return Soft, nil
	}
	v := Vote(s)
	if !v.IsValid() {
		return "", fmt.Errorf("invalid vote policy %q (want soft or hard)", s)
	}
	return v, nil
}

// Forest is a non-empty ensemble of trees sharing one class count (immutable).
type Forest struct {
	trees   []*tree.Tree
	classes int
	vote    Vote
}

// New validates and creates a Forest.
func New(trees []*tree.Tree, vote Vote) (*Forest, error) {
	if len(trees) == 0 {
		return nil, fmt.Errorf("forest has no trees")
	}
	if vote == "" {
		vote = Soft
	}
	if !vote.IsValid() {
		return nil, fmt.Errorf("invalid vote policy %q", vote)
	}
	classes := 0
	for i, t := range trees {
		if t == nil {
			return nil, fmt.Errorf("tree %d is nil", i)
		}
		if classes == 0 {
			classes = t.Classes()
		} else if t.Classes() != classes {
			return nil, fmt.Errorf("tree %d has %d classes, expected %d", i, t.Classes(), classes)
		}
	}
	own := make([]*tree.Tree, len(trees))
	copy(own, trees)
	return &Forest{trees: own, classes: classes, vote: vote}, nil
}

// Trees returns the member trees.
func (f *Forest) Trees() []*tree.Tree { return f.trees }

// Classes returns the number of classes.
func (f *Forest) Classes() int { return f.classes }

// Vote returns the aggregation policy.
func (f *Forest) Vote() Vote { return f.vote }

// Features returns the union of split features across trees.
func (f *Forest) Features() map[string]struct{} {
	out := make(map[string]struct{})
	for _, t := range f.trees {
		for name := range t.Features() {
			out[name] = struct{}{}
		}
	}
	return out
}

// Evaluate returns the leaf class counts reached in every tree, in tree order.
// The first failing tree aborts evaluation.
func (f *Forest) Evaluate(x tree.Lookup) ([][]float64, error) {
	out := make([][]float64, len(f.trees))
	for i, t := range f.trees {
		counts, err := t.Evaluate(x)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		out[i] = counts
	}
	return out, nil
}

// Aggregate combines per-tree counts under the forest's vote policy.
func (f *Forest) Aggregate(perTree [][]float64) []float64 {
	agg := make([]float64, f.classes)
	switch f.vote {
	case Hard:
		for _, counts := range perTree {
			agg[prediction.ArgMax(counts)]++
		}
	default:
		for _, counts := range perTree {
			floats.Add(agg, prediction.Normalize(counts))
		}
	}
	floats.Scale(1/float64(len(perTree)), agg)
	return agg
}

// Predict evaluates every tree and labels the aggregate by its argmax
// (ties resolve to the lowest class index).
func (f *Forest) Predict(x tree.Lookup) (prediction.Prediction, error) {
	perTree, err := f.Evaluate(x)
	if err != nil {
		return prediction.Prediction{}, err
	}
	return prediction.FromScores(f.Aggregate(perTree)), nil
}
