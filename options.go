package modelserve

import (
	"go.uber.org/zap"

	"github.com/kailas-cloud/modelserve/internal/config"
	"github.com/kailas-cloud/modelserve/internal/loader"
)

// ModelOption configures how an artifact is interpreted.
type ModelOption func(*modelConfig)

type modelConfig struct {
	kind         Kind
	featureNames []string
	vote         Vote
}

// WithKind declares the expected model kind instead of detecting it.
func WithKind(k Kind) ModelOption {
	return func(c *modelConfig) { c.kind = k }
}

// WithFeatureNames sets the feature names in binding order.
func WithFeatureNames(names ...string) ModelOption {
	return func(c *modelConfig) { c.featureNames = names }
}

// WithVote sets the forest vote policy.
func WithVote(v Vote) ModelOption {
	return func(c *modelConfig) { c.vote = v }
}

func applyModelOptions(opts []ModelOption) modelConfig {
	var c modelConfig
	for _, o := range opts {
		o(&c)
	}
	return c
}

func loaderOptions(opts []ModelOption) []loader.Option {
	c := applyModelOptions(opts)
	out := make([]loader.Option, 0, 3)
	if c.kind != "" {
		out = append(out, loader.WithKind(c.kind))
	}
	if len(c.featureNames) > 0 {
		out = append(out, loader.WithFeatureNames(c.featureNames))
	}
	if c.vote != "" {
		out = append(out, loader.WithVote(c.vote))
	}
	return out
}

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	storage      config.StorageConfig
	cacheSize    int
	workers      int
	maxBatchSize int
	logger       *zap.Logger
}

// WithValkey stores models in Valkey.
func WithValkey(addrs ...string) Option {
	return func(c *clientConfig) {
		c.storage.Driver = config.DriverValkey
		c.storage.Addrs = addrs
	}
}

// WithRedis stores models in Redis.
func WithRedis(addrs ...string) Option {
	return func(c *clientConfig) {
		c.storage.Driver = config.DriverRedis
		c.storage.Addrs = addrs
	}
}

// WithPassword sets the Valkey/Redis password.
func WithPassword(password string) Option {
	return func(c *clientConfig) { c.storage.Password = password }
}

// WithSQLite stores models in a SQLite database file.
func WithSQLite(path string) Option {
	return func(c *clientConfig) {
		c.storage.Driver = config.DriverSQLite
		c.storage.SQLitePath = path
	}
}

// WithMemory keeps models in process memory only.
func WithMemory() Option {
	return func(c *clientConfig) { c.storage.Driver = config.DriverMemory }
}

// WithCacheSize bounds the number of loaded models kept in memory.
func WithCacheSize(n int) Option {
	return func(c *clientConfig) { c.cacheSize = n }
}

// WithWorkers sets the batch prediction worker count.
func WithWorkers(n int) Option {
	return func(c *clientConfig) { c.workers = n }
}

// WithMaxBatchSize caps the rows accepted by PredictBatch.
func WithMaxBatchSize(n int) Option {
	return func(c *clientConfig) { c.maxBatchSize = n }
}

// WithLogger sets the logger used for registry events.
func WithLogger(l *zap.Logger) Option {
	return func(c *clientConfig) { c.logger = l }
}
