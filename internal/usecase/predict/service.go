package predict

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/kailas-cloud/modelserve/internal/domain"
	dombatch "github.com/kailas-cloud/modelserve/internal/domain/batch"
	"github.com/kailas-cloud/modelserve/internal/domain/features"
	"github.com/kailas-cloud/modelserve/internal/domain/model"
	"github.com/kailas-cloud/modelserve/internal/domain/prediction"
	"github.com/kailas-cloud/modelserve/internal/metrics"
)

// DefaultMaxBatchSize is the maximum number of rows per batch request.
const DefaultMaxBatchSize = 1000

// Service runs predictions against registered models.
type Service struct {
	models       ModelGetter
	workers      int
	maxBatchSize int
}

// New creates a prediction service with one worker per CPU.
func New(models ModelGetter) *Service {
	return &Service{
		models:       models,
		workers:      runtime.GOMAXPROCS(0),
		maxBatchSize: DefaultMaxBatchSize,
	}
}

// WithWorkers configures the batch worker pool size.
func (s *Service) WithWorkers(n int) *Service {
	if n > 0 {
		s.workers = n
	}
	return s
}

// WithMaxBatchSize configures the maximum batch size.
func (s *Service) WithMaxBatchSize(size int) *Service {
	if size > 0 {
		s.maxBatchSize = size
	}
	return s
}

// MaxBatchSize returns the configured batch limit.
func (s *Service) MaxBatchSize() int { return s.maxBatchSize }

// Predict classifies one input with the named model.
func (s *Service) Predict(ctx context.Context, name string, in features.Input) (prediction.Prediction, error) {
	m, err := s.models.Get(ctx, name)
	if err != nil {
		return prediction.Prediction{}, fmt.Errorf("resolve model: %w", err)
	}
	return s.evaluate(name, m, in)
}

// PredictBatch classifies every input with the named model on a bounded
// worker pool. Results keep input order; a failing row does not affect the
// others. On cancellation, rows not yet dispatched report the context error.
func (s *Service) PredictBatch(ctx context.Context, name string, inputs []features.Input) ([]dombatch.Result, error) {
	if len(inputs) > s.maxBatchSize {
		return nil, fmt.Errorf("%d rows exceeds limit %d: %w", len(inputs), s.maxBatchSize, domain.ErrBatchTooLarge)
	}
	m, err := s.models.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("resolve model: %w", err)
	}
	metrics.PredictionBatchSize.Observe(float64(len(inputs)))

	results := make([]dombatch.Result, len(inputs))
	if len(inputs) == 0 {
		return results, nil
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < min(s.workers, len(inputs)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				p, err := s.evaluate(name, m, inputs[i])
				if err != nil {
					results[i] = dombatch.NewError(i, err)
					continue
				}
				results[i] = dombatch.NewOK(i, p)
			}
		}()
	}

	next := 0
dispatch:
	for ; next < len(inputs); next++ {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- next:
		}
	}
	close(jobs)
	wg.Wait()

	for i := next; i < len(inputs); i++ {
		results[i] = dombatch.NewError(i, ctx.Err())
	}
	return results, nil
}

func (s *Service) evaluate(name string, m *model.Model, in features.Input) (prediction.Prediction, error) {
	k := string(m.Kind())
	start := time.Now()
	p, err := m.Predict(in)
	metrics.PredictionDuration.WithLabelValues(k).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.PredictionsTotal.WithLabelValues(name, k, "error").Inc()
		return prediction.Prediction{}, err
	}
	metrics.PredictionsTotal.WithLabelValues(name, k, "ok").Inc()
	return p, nil
}
