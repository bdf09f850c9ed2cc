package sdk

import "time"

// Kind is a model family.
type Kind string

// Model kinds.
const (
	KindLogistic Kind = "logistic"
	KindTree     Kind = "tree"
	KindForest   Kind = "forest"
)

// Vote is a forest aggregation policy.
type Vote string

// Vote policies.
const (
	VoteSoft Vote = "soft"
	VoteHard Vote = "hard"
)

// RegisterOptions describe how the server interprets an artifact.
// Zero values let the server detect or default them.
type RegisterOptions struct {
	Kind         Kind
	Vote         Vote
	FeatureNames []string
}

// Model describes a registered model. Kind-specific fields are zero for
// other kinds.
type Model struct {
	Name         string
	Kind         Kind
	FeatureNames []string
	Classes      int
	Checksum     string
	CreatedAt    time.Time

	Weights []float64
	Bias    *float64
	Depth   int
	Leaves  int
	Trees   int
	Vote    Vote
}

// Prediction is the result of classifying one input.
type Prediction struct {
	ID       string
	Model    string
	Label    int
	Scores   []float64
	Decision *float64
}

// BatchItem is the outcome of one batch row. Err is nil on success.
type BatchItem struct {
	Index    int
	Label    int
	Scores   []float64
	Decision *float64
	Err      error
}

// BatchResult is a batch prediction response.
type BatchResult struct {
	ID        string
	Model     string
	Succeeded int
	Failed    int
	Items     []BatchItem
}

// HealthStatus represents the aggregated server health.
type HealthStatus struct {
	Status string            // "ok", "degraded", "error"
	Checks map[string]string // component → "ok"/"error"
}
