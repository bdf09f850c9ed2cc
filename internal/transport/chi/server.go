package chi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/modelserve/internal/domain"
	dombatch "github.com/kailas-cloud/modelserve/internal/domain/batch"
	"github.com/kailas-cloud/modelserve/internal/domain/features"
	"github.com/kailas-cloud/modelserve/internal/domain/forest"
	"github.com/kailas-cloud/modelserve/internal/domain/model/kind"
	"github.com/kailas-cloud/modelserve/internal/domain/prediction"
	logpkg "github.com/kailas-cloud/modelserve/internal/logger"
	gen "github.com/kailas-cloud/modelserve/internal/transport/generated"
	healthuc "github.com/kailas-cloud/modelserve/internal/usecase/health"
	predictuc "github.com/kailas-cloud/modelserve/internal/usecase/predict"
	registryuc "github.com/kailas-cloud/modelserve/internal/usecase/registry"
)

// DefaultMaxBodyBytes limits request bodies, artifacts included.
const DefaultMaxBodyBytes int64 = 32 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server implements generated.ServerInterface for the oapi-codegen chi router.
type Server struct {
	gen.Unimplemented
	registry      *registryuc.Service
	predictor     *predictuc.Service
	health        *healthuc.Service
	compat        map[kind.Kind]string
	maxBodyBytes  int64
	logger        *zap.Logger
	errorHandlers []errorHandler
}

var _ gen.ServerInterface = (*Server)(nil)

// NewServer creates an HTTP API server.
func NewServer(
	registry *registryuc.Service,
	predictor *predictuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		registry:     registry,
		predictor:    predictor,
		health:       health,
		compat:       map[kind.Kind]string{},
		maxBodyBytes: DefaultMaxBodyBytes,
		logger:       logger,
	}
	s.errorHandlers = []errorHandler{
		typedHandler[*domain.SchemaError](http.StatusBadRequest, gen.ErrorResponseCodeSchemaError),
		typedHandler[*domain.MissingFeatureError](http.StatusUnprocessableEntity, gen.ErrorResponseCodeMissingFeature),
		typedHandler[*domain.InvalidFeatureValueError](
			http.StatusUnprocessableEntity, gen.ErrorResponseCodeInvalidFeatureValue),
		typedHandler[*domain.UnsupportedModelKindError](
			http.StatusBadRequest, gen.ErrorResponseCodeUnsupportedModelKind),
		sentinelHandler(domain.ErrSchema, http.StatusBadRequest, gen.ErrorResponseCodeSchemaError),
		sentinelHandler(domain.ErrMissingFeature, http.StatusUnprocessableEntity, gen.ErrorResponseCodeMissingFeature),
		sentinelHandler(domain.ErrInvalidFeatureValue,
			http.StatusUnprocessableEntity, gen.ErrorResponseCodeInvalidFeatureValue),
		sentinelHandler(domain.ErrUnsupportedModelKind,
			http.StatusBadRequest, gen.ErrorResponseCodeUnsupportedModelKind),
		sentinelHandler(domain.ErrModelNotFound, http.StatusNotFound, gen.ErrorResponseCodeModelNotFound),
		sentinelHandler(domain.ErrInvalidName, http.StatusBadRequest, gen.ErrorResponseCodeInvalidModelName),
		sentinelHandler(domain.ErrBatchTooLarge, http.StatusBadRequest, gen.ErrorResponseCodeBatchTooLarge),
	}
	return s
}

// WithCompat maps model kinds to registered model names for POST /predict.
func (s *Server) WithCompat(m map[kind.Kind]string) *Server {
	for k, name := range m {
		s.compat[k] = name
	}
	return s
}

// WithMaxBodyBytes configures the request body limit.
func (s *Server) WithMaxBodyBytes(n int64) *Server {
	if n > 0 {
		s.maxBodyBytes = n
	}
	return s
}

// RegisterModel handles PUT /models/{model}.
func (s *Server) RegisterModel(
	w http.ResponseWriter,
	r *http.Request,
	model gen.ModelName,
	params gen.RegisterModelParams,
) {
	r = r.WithContext(logpkg.WithModel(r.Context(), model))
	opts, err := registerOptionsFromGen(params)
	if err != nil {
		if errors.Is(err, domain.ErrUnsupportedModelKind) {
			s.handleDomainError(w, r, err)
			return
		}
		writeError(w, http.StatusBadRequest, gen.ErrorResponseCodeBadRequest, err.Error())
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	if err != nil {
		writeBodyError(w, err)
		return
	}

	desc, err := s.registry.Register(r.Context(), model, data, opts)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	w.Header().Set("Location", "/models/"+model)
	writeJSON(w, http.StatusCreated, descriptionToGen(desc))
}

// ListModels handles GET /models.
func (s *Server) ListModels(w http.ResponseWriter, r *http.Request) {
	descs, err := s.registry.List(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]gen.ModelDescription, len(descs))
	for i, d := range descs {
		items[i] = descriptionToGen(d)
	}
	writeJSON(w, http.StatusOK, gen.ModelListResponse{Items: items, Total: len(items)})
}

// GetModel handles GET /models/{model}.
func (s *Server) GetModel(w http.ResponseWriter, r *http.Request, model gen.ModelName) {
	r = r.WithContext(logpkg.WithModel(r.Context(), model))
	desc, err := s.registry.Describe(r.Context(), model)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	w.Header().Set("ETag", strconv.Quote(desc.Checksum))
	writeJSON(w, http.StatusOK, descriptionToGen(desc))
}

// DeleteModel handles DELETE /models/{model}.
func (s *Server) DeleteModel(w http.ResponseWriter, r *http.Request, model gen.ModelName) {
	r = r.WithContext(logpkg.WithModel(r.Context(), model))
	if err := s.registry.Delete(r.Context(), model); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// PredictModel handles POST /models/{model}/predict.
func (s *Server) PredictModel(w http.ResponseWriter, r *http.Request, model gen.ModelName) {
	r = r.WithContext(logpkg.WithModel(r.Context(), model))
	var req gen.PredictRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBodyBytes)).Decode(&req); err != nil {
		writeBodyError(w, err)
		return
	}

	in, err := decodeFeatures(req.Features)
	if err != nil {
		writeError(w, http.StatusBadRequest, gen.ErrorResponseCodeBadRequest, "features: "+err.Error())
		return
	}

	p, err := s.predictor.Predict(r.Context(), model, in)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	resp := gen.PredictResponse{
		Id:     uuid.New(),
		Model:  model,
		Label:  p.Label(),
		Scores: p.Scores(),
	}
	if d, ok := p.Decision(); ok {
		resp.Decision = &d
	}
	writeJSON(w, http.StatusOK, resp)
}

// PredictBatch handles POST /models/{model}/predict/batch.
func (s *Server) PredictBatch(w http.ResponseWriter, r *http.Request, model gen.ModelName) {
	r = r.WithContext(logpkg.WithModel(r.Context(), model))
	var req gen.BatchPredictRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBodyBytes)).Decode(&req); err != nil {
		writeBodyError(w, err)
		return
	}

	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, gen.ErrorResponseCodeBadRequest,
			fmt.Sprintf("items count must be between 1 and %d", s.predictor.MaxBatchSize()))
		return
	}

	inputs := make([]features.Input, len(req.Items))
	for i, raw := range req.Items {
		in, err := decodeFeatures(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, gen.ErrorResponseCodeBadRequest,
				fmt.Sprintf("items[%d]: %s", i, err.Error()))
			return
		}
		inputs[i] = in
	}

	results, err := s.predictor.PredictBatch(r.Context(), model, inputs)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]gen.BatchPredictItem, len(results))
	for i, res := range results {
		items[i] = batchResultToGen(res)
	}
	succeeded, failed := dombatch.Summary(results)

	writeJSON(w, http.StatusOK, gen.BatchPredictResponse{
		Id:        uuid.New(),
		Model:     model,
		Items:     items,
		Succeeded: succeeded,
		Failed:    failed,
	})
}

// CompatPredict handles POST /predict: positional features, model picked by
// architecture, label returned as plain text.
func (s *Server) CompatPredict(w http.ResponseWriter, r *http.Request) {
	var req gen.CompatPredictRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		writeBodyError(w, err)
		return
	}

	k, err := kind.Parse(req.ModelArchitecture)
	if err == nil && k == "" {
		err = domain.NewUnsupportedModelKind(req.ModelArchitecture)
	}
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	name, ok := s.compat[k]
	if !ok {
		s.handleDomainError(w, r, fmt.Errorf("no model mapped to architecture %s: %w", k, domain.ErrModelNotFound))
		return
	}
	r = r.WithContext(logpkg.WithModel(r.Context(), name))

	p, err := s.predictor.Predict(r.Context(), name, features.DenseValues(req.Features))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, strconv.Itoa(p.Label()))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]gen.HealthResponseChecks)
	for k, v := range report.Checks {
		checks[k] = gen.HealthResponseChecks(v)
	}

	status := gen.HealthResponseStatus(report.Status)
	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, gen.HealthResponse{
		Status: status,
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// ParamErrorHandler answers parameter binding failures from the generated router.
func ParamErrorHandler(w http.ResponseWriter, _ *http.Request, err error) {
	var pe *gen.InvalidParamFormatError
	if errors.As(err, &pe) {
		writeError(w, http.StatusBadRequest, gen.ErrorResponseCodeBadRequest, "invalid parameter "+pe.ParamName)
		return
	}
	writeError(w, http.StatusBadRequest, gen.ErrorResponseCodeBadRequest, "invalid request")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code gen.ErrorResponseCode, message string) {
	writeJSON(w, status, gen.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeBodyError(w http.ResponseWriter, err error) {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		writeError(w, http.StatusRequestEntityTooLarge, gen.ErrorResponseCodeBadRequest,
			fmt.Sprintf("request body exceeds %d bytes", mbe.Limit))
		return
	}
	writeError(w, http.StatusBadRequest, gen.ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrSchema,
		domain.ErrMissingFeature,
		domain.ErrInvalidFeatureValue,
		domain.ErrUnsupportedModelKind,
		domain.ErrModelNotFound,
		domain.ErrInvalidName,
		domain.ErrBatchTooLarge,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// typedHandler matches a detail-carrying domain error and reports its own message.
func typedHandler[T error](status int, code gen.ErrorResponseCode) errorHandler {
	return func(w http.ResponseWriter, err error, _ string) bool {
		var target T
		if !errors.As(err, &target) {
			return false
		}
		writeError(w, status, code, target.Error())
		return true
	}
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code gen.ErrorResponseCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := s.requestLogger(r)
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, gen.ErrorResponseCodeInternalError, "internal error")
}

// requestLogger prefers the request-scoped logger placed by the logging middleware.
func (s *Server) requestLogger(r *http.Request) *zap.Logger {
	if l := logpkg.FromContext(r.Context()); l.Core().Enabled(zap.ErrorLevel) {
		return l
	}
	return s.logger
}

func registerOptionsFromGen(params gen.RegisterModelParams) (registryuc.Options, error) {
	var opts registryuc.Options
	if params.Kind != nil {
		k, err := kind.Parse(string(*params.Kind))
		if err != nil {
			return registryuc.Options{}, err
		}
		opts.Kind = k
	}
	if params.Vote != nil {
		v, err := forest.ParseVote(string(*params.Vote))
		if err != nil {
			return registryuc.Options{}, err
		}
		opts.Vote = v
	}
	if params.FeatureNames != nil {
		opts.FeatureNames = *params.FeatureNames
	}
	return opts, nil
}

// decodeFeatures turns a JSON object into a named input and a JSON array
// into a dense one. Numbers keep full precision until Bind.
func decodeFeatures(raw json.RawMessage) (features.Input, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return features.Input{}, errors.New("required")
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	switch trimmed[0] {
	case '{':
		var named map[string]any
		if err := dec.Decode(&named); err != nil {
			return features.Input{}, fmt.Errorf("decode object: %w", err)
		}
		return features.Named(named), nil
	case '[':
		var dense []any
		if err := dec.Decode(&dense); err != nil {
			return features.Input{}, fmt.Errorf("decode array: %w", err)
		}
		return features.DenseValues(dense), nil
	default:
		return features.Input{}, errors.New("must be an object or an array")
	}
}

func descriptionToGen(d registryuc.Description) gen.ModelDescription {
	out := gen.ModelDescription{
		Name:         d.Name,
		Kind:         gen.ModelKind(d.Kind),
		FeatureNames: d.FeatureNames,
		Classes:      d.Classes,
		Checksum:     d.Checksum,
		CreatedAt:    time.UnixMilli(d.CreatedAt).UTC(),
	}
	if out.FeatureNames == nil {
		out.FeatureNames = []string{}
	}
	switch d.Kind {
	case kind.Logistic:
		weights := d.Weights
		bias := d.Bias
		out.Weights = &weights
		out.Bias = &bias
	case kind.Tree:
		depth, leaves := d.Depth, d.Leaves
		out.Depth = &depth
		out.Leaves = &leaves
	case kind.Forest:
		depth, leaves, trees := d.Depth, d.Leaves, d.Trees
		vote := gen.VotePolicy(d.Vote)
		out.Depth = &depth
		out.Leaves = &leaves
		out.Trees = &trees
		out.Vote = &vote
	}
	return out
}

func batchResultToGen(r dombatch.Result) gen.BatchPredictItem {
	item := gen.BatchPredictItem{
		Index:  r.Index(),
		Status: gen.BatchPredictItemStatus(r.Status()),
	}
	if r.Err() != nil {
		errResp := gen.ErrorResponse{
			Code:    batchErrorCode(r.Err()),
			Message: batchErrorMessage(r.Err()),
		}
		item.Error = &errResp
		return item
	}
	predictionToItem(&item, r.Prediction())
	return item
}

func predictionToItem(item *gen.BatchPredictItem, p prediction.Prediction) {
	label := p.Label()
	scores := p.Scores()
	item.Label = &label
	item.Scores = &scores
	if d, ok := p.Decision(); ok {
		item.Decision = &d
	}
}

func batchErrorCode(err error) gen.ErrorResponseCode {
	switch {
	case errors.Is(err, domain.ErrMissingFeature):
		return gen.ErrorResponseCodeMissingFeature
	case errors.Is(err, domain.ErrInvalidFeatureValue):
		return gen.ErrorResponseCodeInvalidFeatureValue
	case errors.Is(err, domain.ErrSchema):
		return gen.ErrorResponseCodeSchemaError
	case errors.Is(err, domain.ErrModelNotFound):
		return gen.ErrorResponseCodeModelNotFound
	default:
		return gen.ErrorResponseCodeInternalError
	}
}

// batchErrorMessage keeps feature detail for input errors and hides everything else.
func batchErrorMessage(err error) string {
	var mf *domain.MissingFeatureError
	if errors.As(err, &mf) {
		return mf.Error()
	}
	var iv *domain.InvalidFeatureValueError
	if errors.As(err, &iv) {
		return iv.Error()
	}
	return safeDomainMessage(err)
}
