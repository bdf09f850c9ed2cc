package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	gen "github.com/kailas-cloud/modelserve/internal/transport/generated"
	"github.com/kailas-cloud/modelserve/internal/version"
)

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 1 << 20

// Client is the modelserve HTTP API client. Safe for concurrent use.
type Client struct {
	baseURL   *url.URL
	apiKey    string
	http      *http.Client
	userAgent string
	obs       *observer
}

// New creates a Client for the server at baseURL (e.g. http://localhost:8080).
func New(baseURL string, opts ...Option) (*Client, error) {
	cfg := &clientConfig{timeout: defaultTimeout}
	for _, o := range opts {
		o.apply(cfg)
	}

	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("modelserve: invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return nil, fmt.Errorf("modelserve: base URL must be absolute http(s), got %q", baseURL)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	hc := cfg.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.timeout}
	}
	ua := cfg.userAgent
	if ua == "" {
		ua = "modelserve-sdk/" + version.Version
	}

	return &Client{baseURL: u, apiKey: cfg.apiKey, http: hc, userAgent: ua, obs: obs}, nil
}

// RegisterModel uploads an artifact under name, replacing any previous version.
func (c *Client) RegisterModel(
	ctx context.Context, name string, artifact []byte, opts RegisterOptions,
) (m Model, err error) {
	start := time.Now()
	defer func() { c.obs.observe("register_model", start, err) }()

	q := url.Values{}
	if opts.Kind != "" {
		q.Set("kind", string(opts.Kind))
	}
	if opts.Vote != "" {
		q.Set("vote", string(opts.Vote))
	}
	if len(opts.FeatureNames) > 0 {
		q.Set("feature_names", strings.Join(opts.FeatureNames, ","))
	}

	var out gen.ModelDescription
	if err = c.do(ctx, http.MethodPut, q, bytes.NewReader(artifact), &out, "models", url.PathEscape(name)); err != nil {
		return Model{}, err
	}
	return modelFromGen(out), nil
}

// GetModel describes a registered model.
func (c *Client) GetModel(ctx context.Context, name string) (m Model, err error) {
	start := time.Now()
	defer func() { c.obs.observe("get_model", start, err) }()

	var out gen.ModelDescription
	if err = c.do(ctx, http.MethodGet, nil, nil, &out, "models", url.PathEscape(name)); err != nil {
		return Model{}, err
	}
	return modelFromGen(out), nil
}

// ListModels describes every registered model, sorted by name.
func (c *Client) ListModels(ctx context.Context) (models []Model, err error) {
	start := time.Now()
	defer func() { c.obs.observe("list_models", start, err) }()

	var out gen.ModelListResponse
	if err = c.do(ctx, http.MethodGet, nil, nil, &out, "models"); err != nil {
		return nil, err
	}
	models = make([]Model, len(out.Items))
	for i, d := range out.Items {
		models[i] = modelFromGen(d)
	}
	return models, nil
}

// DeleteModel removes a model.
func (c *Client) DeleteModel(ctx context.Context, name string) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("delete_model", start, err) }()

	return c.do(ctx, http.MethodDelete, nil, nil, nil, "models", url.PathEscape(name))
}

// Predict classifies one feature set: a map keyed by feature name or a
// slice in the model's feature order.
func (c *Client) Predict(ctx context.Context, name string, features any) (p Prediction, err error) {
	start := time.Now()
	defer func() { c.obs.observe("predict", start, err) }()

	raw, err := json.Marshal(features)
	if err != nil {
		return Prediction{}, fmt.Errorf("modelserve: encode features: %w", err)
	}
	body, err := json.Marshal(gen.PredictRequest{Features: raw})
	if err != nil {
		return Prediction{}, fmt.Errorf("modelserve: encode request: %w", err)
	}

	var out gen.PredictResponse
	err = c.do(ctx, http.MethodPost, nil, bytes.NewReader(body), &out, "models", url.PathEscape(name), "predict")
	if err != nil {
		return Prediction{}, err
	}
	return predictionFromGen(out), nil
}

// PredictBatch classifies every item. Row failures are reported per item;
// the returned error covers only whole-request failures.
func (c *Client) PredictBatch(ctx context.Context, name string, items []any) (r BatchResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("predict_batch", start, err) }()

	req := gen.BatchPredictRequest{Items: make([]gen.Features, len(items))}
	for i, it := range items {
		raw, err := json.Marshal(it)
		if err != nil {
			return BatchResult{}, fmt.Errorf("modelserve: encode item %d: %w", i, err)
		}
		req.Items[i] = raw
	}
	body, err := json.Marshal(req)
	if err != nil {
		return BatchResult{}, fmt.Errorf("modelserve: encode request: %w", err)
	}

	var out gen.BatchPredictResponse
	err = c.do(ctx, http.MethodPost, nil, bytes.NewReader(body), &out,
		"models", url.PathEscape(name), "predict", "batch")
	if err != nil {
		return BatchResult{}, err
	}
	return batchFromGen(out), nil
}

// Health returns the server health. A degraded or failing server still
// yields a status; err is set only when no report could be read.
func (c *Client) Health(ctx context.Context) (h HealthStatus, err error) {
	start := time.Now()
	defer func() { c.obs.observe("health", start, err) }()

	resp, err := c.send(ctx, http.MethodGet, nil, nil, "health")
	if err != nil {
		return HealthStatus{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusServiceUnavailable {
		return HealthStatus{}, readAPIError(resp)
	}
	var out gen.HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return HealthStatus{}, fmt.Errorf("modelserve: decode health: %w", err)
	}
	return healthFromGen(out), nil
}

// do sends a request and decodes a 2xx JSON body into out (ignored when nil).
func (c *Client) do(
	ctx context.Context, method string, query url.Values, body io.Reader, out any, path ...string,
) error {
	resp, err := c.send(ctx, method, query, body, path...)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readAPIError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("modelserve: decode response: %w", err)
	}
	return nil
}

func (c *Client) send(
	ctx context.Context, method string, query url.Values, body io.Reader, path ...string,
) (*http.Response, error) {
	u := c.baseURL.JoinPath(path...)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("modelserve: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("modelserve: %s %s: %w", method, u.Path, err)
	}
	return resp, nil
}

func readAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var body gen.ErrorResponse
	if err := json.Unmarshal(data, &body); err == nil && body.Code != "" {
		apiErr.Code = string(body.Code)
		apiErr.Message = body.Message
		return apiErr
	}

	apiErr.Code = strings.ReplaceAll(strings.ToLower(http.StatusText(resp.StatusCode)), " ", "_")
	apiErr.Message = strings.TrimSpace(string(data))
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

// IsNotFound reports whether err is a missing model.
func IsNotFound(err error) bool { return errors.Is(err, ErrModelNotFound) }
