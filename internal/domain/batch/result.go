package batch

import "github.com/kailas-cloud/modelserve/internal/domain/prediction"

// ItemStatus is the processing outcome of a single batch row.
type ItemStatus string

// Batch item status values.
const (
	StatusOK    ItemStatus = "ok"
	StatusError ItemStatus = "error"
)

// Result is the outcome of predicting one row of a batch.
type Result struct {
	index      int
	status     ItemStatus
	prediction prediction.Prediction
	err        error
}

// NewOK creates a successful batch result.
func NewOK(index int, p prediction.Prediction) Result {
	return Result{index: index, status: StatusOK, prediction: p}
}

// NewError creates a failed batch result.
func NewError(index int, err error) Result {
	return Result{index: index, status: StatusError, err: err}
}

// Index returns the row position in the request.
func (r Result) Index() int { return r.index }

// Status returns the processing outcome.
func (r Result) Status() ItemStatus { return r.status }

// Prediction returns the row prediction; zero value on error.
func (r Result) Prediction() prediction.Prediction { return r.prediction }

// Err returns the error, if any.
func (r Result) Err() error { return r.err }

// Summary counts outcomes across results.
func Summary(results []Result) (ok, failed int) {
	for _, r := range results {
		if r.status == StatusOK {
			ok++
		} else {
			failed++
		}
	}
	return ok, failed
}
