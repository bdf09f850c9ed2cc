package prediction

import "gonum.org/v1/gonum/floats"

// Prediction is the outcome of evaluating one feature vector (immutable value object).
type Prediction struct {
	label       int
	scores      []float64
	decision    float64
	hasDecision bool
}

// New creates a prediction with a label and per-class scores.
func New(label int, scores []float64) Prediction {
	return Prediction{label: label, scores: scores}
}

// NewWithDecision creates a prediction that also carries a raw decision score.
func NewWithDecision(label int, scores []float64, decision float64) Prediction {
	return Prediction{label: label, scores: scores, decision: decision, hasDecision: true}
}

// FromScores labels the scores by their argmax.
func FromScores(scores []float64) Prediction {
	return New(ArgMax(scores), scores)
}

// Label returns the predicted class index.
func (p Prediction) Label() int { return p.label }

// Scores returns per-class scores in training class order.
func (p Prediction) Scores() []float64 { return p.scores }

// Decision returns the raw decision score and whether the model produces one.
func (p Prediction) Decision() (float64, bool) { return p.decision, p.hasDecision }

// ArgMax returns the index of the largest value; ties resolve to the lowest index.
// Returns 0 for an empty slice.
func ArgMax(values []float64) int {
	if len(values) == 0 {
		return 0
	}
	// floats.MaxIdx returns the first maximum.
	return floats.MaxIdx(values)
}

// Normalize scales non-negative counts to sum to 1. A zero-sum row yields zeros.
// The input is not modified.
func Normalize(counts []float64) []float64 {
	out := make([]float64, len(counts))
	total := floats.Sum(counts)
	if total == 0 {
		return out
	}
	for i, c := range counts {
		out[i] = c / total
	}
	return out
}
