package modelserve

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/modelserve/internal/config"
	"github.com/kailas-cloud/modelserve/internal/db"
	"github.com/kailas-cloud/modelserve/internal/domain/features"
	artifactrepo "github.com/kailas-cloud/modelserve/internal/repository/artifact"
	"github.com/kailas-cloud/modelserve/internal/storage"
	predictuc "github.com/kailas-cloud/modelserve/internal/usecase/predict"
	registryuc "github.com/kailas-cloud/modelserve/internal/usecase/registry"
)

const defaultReadinessTimeout = 10 * time.Second

// Client is a registry of named models backed by a shared store.
type Client struct {
	store     db.Store
	registry  *registryuc.Service
	predictor *predictuc.Service
}

// New creates a Client and waits for its store to become ready.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o(cfg)
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("modelserve: store not ready: %w", err)
	}

	return wireClient(store, cfg), nil
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.storage.Driver {
	case "":
		return nil, errors.New("modelserve: storage required (use WithValkey, WithRedis, WithSQLite or WithMemory)")
	case config.DriverValkey, config.DriverRedis:
		if len(cfg.storage.Addrs) == 0 {
			return nil, fmt.Errorf("modelserve: %s address required", cfg.storage.Driver)
		}
	}
	s, err := storage.Open(cfg.storage)
	if err != nil {
		return nil, fmt.Errorf("modelserve: %w", err)
	}
	return s, nil
}

func wireClient(store db.Store, cfg *clientConfig) *Client {
	logger := cfg.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	registry := registryuc.New(artifactrepo.New(store), cfg.cacheSize, 0, logger)
	predictor := predictuc.New(registry).
		WithWorkers(cfg.workers).
		WithMaxBatchSize(cfg.maxBatchSize)

	return &Client{store: store, registry: registry, predictor: predictor}
}

// Close releases the store.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks store connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Register validates and stores an artifact under name, replacing any
// previous version. Nothing is stored when validation fails.
func (c *Client) Register(ctx context.Context, name string, data []byte, opts ...ModelOption) (Description, error) {
	mc := applyModelOptions(opts)
	d, err := c.registry.Register(ctx, name, data, registryuc.Options{
		Kind:         mc.kind,
		FeatureNames: mc.featureNames,
		Vote:         mc.vote,
	})
	if err != nil {
		return Description{}, err
	}
	return descriptionFromRegistry(d), nil
}

// Describe returns the description of a registered model.
func (c *Client) Describe(ctx context.Context, name string) (Description, error) {
	d, err := c.registry.Describe(ctx, name)
	if err != nil {
		return Description{}, err
	}
	return descriptionFromRegistry(d), nil
}

// List describes every registered model, sorted by name.
func (c *Client) List(ctx context.Context) ([]Description, error) {
	ds, err := c.registry.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Description, len(ds))
	for i, d := range ds {
		out[i] = descriptionFromRegistry(d)
	}
	return out, nil
}

// Delete removes a model.
func (c *Client) Delete(ctx context.Context, name string) error {
	return c.registry.Delete(ctx, name)
}

// Predict classifies a named feature set with the named model.
func (c *Client) Predict(ctx context.Context, name string, values map[string]any) (Prediction, error) {
	p, err := c.predictor.Predict(ctx, name, features.Named(values))
	if err != nil {
		return Prediction{}, err
	}
	return predictionFromDomain(p), nil
}

// PredictBatch classifies every row with the named model. Row failures are
// reported per item; the error covers only whole-batch failures.
func (c *Client) PredictBatch(ctx context.Context, name string, rows []map[string]any) ([]BatchItem, error) {
	inputs := make([]features.Input, len(rows))
	for i, r := range rows {
		inputs[i] = features.Named(r)
	}
	results, err := c.predictor.PredictBatch(ctx, name, inputs)
	if err != nil {
		return nil, err
	}
	out := make([]BatchItem, len(results))
	for i, r := range results {
		out[i] = batchItemFromDomain(r)
	}
	return out, nil
}
