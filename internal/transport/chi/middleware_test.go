package chi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	logpkg "github.com/kailas-cloud/modelserve/internal/logger"
	gen "github.com/kailas-cloud/modelserve/internal/transport/generated"
)

func TestJSONRecoverer(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	handler := JSONRecoverer(zap.New(core))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/models", http.NoBody))

	expectError(t, rr, http.StatusInternalServerError, gen.ErrorResponseCodeInternalError)
	if logs.FilterMessage("panic recovered").Len() != 1 {
		t.Error("expected panic to be logged")
	}
}

func TestWideEventMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	var sawLogger bool
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawLogger = logpkg.FromContext(r.Context()).Core().Enabled(zapcore.InfoLevel)
		w.WriteHeader(http.StatusTeapot)
	})
	handler := chiMiddleware.RequestID(WideEventMiddleware(zap.New(core))(inner))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/models/m/predict", http.NoBody))

	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
	if !sawLogger {
		t.Error("expected request logger in context")
	}
	entries := logs.FilterMessage("http_request").All()
	if len(entries) != 1 {
		t.Fatalf("expected one canonical log line, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["status"] != int64(http.StatusTeapot) || fields["path"] != "/models/m/predict" {
		t.Errorf("unexpected fields: %v", fields)
	}
	if fields["request_id"] == "" {
		t.Error("expected request_id field")
	}
}

func TestDomainErrorLogCarriesModel(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	env := newTestEnv(t)
	handler := chiMiddleware.RequestID(WideEventMiddleware(zap.New(core))(env.handler))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/models/absent", http.NoBody))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("got %d: %s", rr.Code, rr.Body.String())
	}

	entries := logs.FilterMessage("domain error").All()
	if len(entries) != 1 {
		t.Fatalf("expected one domain error log, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["model"] != "absent" || fields["request_id"] == "" {
		t.Errorf("unexpected fields: %v", fields)
	}
}
