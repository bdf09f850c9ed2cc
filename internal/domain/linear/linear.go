// Package linear evaluates binary logistic regression models.
package linear

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/kailas-cloud/modelserve/internal/domain/prediction"
)

// Threshold is the probability at or above which the positive class is predicted.
const Threshold = 0.5

// Model is a logistic regression model (immutable value object).
type Model struct {
	weights []float64
	bias    float64
}

// New validates and creates a Model. Weights must be non-empty and finite.
func New(weights []float64, bias float64) (Model, error) {
	if len(weights) == 0 {
		return Model{}, fmt.Errorf("weights must not be empty")
	}
	for i, w := range weights {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return Model{}, fmt.Errorf("weight %d is not finite", i)
		}
	}
	if math.IsNaN(bias) || math.IsInf(bias, 0) {
		return Model{}, fmt.Errorf("bias is not finite")
	}
	own := make([]float64, len(weights))
	copy(own, weights)
	return Model{weights: own, bias: bias}, nil
}

// Weights returns the coefficient vector.
func (m Model) Weights() []float64 { return m.weights }

// Bias returns the intercept.
func (m Model) Bias() float64 { return m.bias }

// NumFeatures returns the number of features the model expects.
func (m Model) NumFeatures() int { return len(m.weights) }

// Decision computes z = w·x + b.
func (m Model) Decision(x []float64) (float64, error) {
	if len(x) != len(m.weights) {
		return 0, fmt.Errorf("feature vector has %d values, model expects %d", len(x), len(m.weights))
	}
	return floats.Dot(m.weights, x) + m.bias, nil
}

// Predict returns label 1 when sigmoid(z) >= 0.5, with scores [1-p, p].
func (m Model) Predict(x []float64) (prediction.Prediction, error) {
	z, err := m.Decision(x)
	if err != nil {
		return prediction.Prediction{}, err
	}
	p := Sigmoid(z)
	label := 0
	if p >= Threshold {
		label = 1
	}
	return prediction.NewWithDecision(label, []float64{1 - p, p}, z), nil
}

// Sigmoid is the logistic function, stable for large |z|.
func Sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
