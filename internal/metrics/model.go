package metrics

import "github.com/prometheus/client_golang/prometheus"

// Model registry and prediction Prometheus metrics.
var (
	ModelLoadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "modelserve",
			Name:      "model_loads_total",
			Help:      "Total number of model artifact loads",
		},
		[]string{"kind", "status"},
	)

	ModelsCached = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "modelserve",
			Name:      "models_cached",
			Help:      "Number of loaded models held in the registry cache",
		},
	)

	ModelCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "modelserve",
			Name:      "model_cache_total",
			Help:      "Model cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	PredictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "modelserve",
			Name:      "predictions_total",
			Help:      "Total number of predictions",
		},
		[]string{"model", "kind", "status"},
	)

	PredictionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "modelserve",
			Name:      "prediction_duration_seconds",
			Help:      "Single prediction duration in seconds",
			Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		},
		[]string{"kind"},
	)

	PredictionBatchSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "modelserve",
			Name:      "prediction_batch_size",
			Help:      "Rows per batch prediction request",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		},
	)
)

var modelMetricsRegistered bool

// RegisterModelMetrics registers registry and prediction metrics. Must be called once from main.
func RegisterModelMetrics() {
	if modelMetricsRegistered {
		return
	}
	prometheus.MustRegister(ModelLoadsTotal)
	prometheus.MustRegister(ModelsCached)
	prometheus.MustRegister(ModelCacheTotal)
	prometheus.MustRegister(PredictionsTotal)
	prometheus.MustRegister(PredictionDuration)
	prometheus.MustRegister(PredictionBatchSize)
	modelMetricsRegistered = true
}
