package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterModelMetrics_Idempotent(t *testing.T) {
	RegisterModelMetrics()
	RegisterModelMetrics() // second call must not panic on duplicate registration

	ModelLoadsTotal.WithLabelValues("tree", "ok").Inc()
	if v := testutil.ToFloat64(ModelLoadsTotal.WithLabelValues("tree", "ok")); v < 1 {
		t.Errorf("expected model_loads_total >= 1, got %f", v)
	}

	ModelsCached.Set(3)
	if v := testutil.ToFloat64(ModelsCached); v != 3 {
		t.Errorf("expected models_cached = 3, got %f", v)
	}
}
