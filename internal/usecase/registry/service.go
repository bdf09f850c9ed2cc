package registry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"github.com/kailas-cloud/modelserve/internal/domain"
	domart "github.com/kailas-cloud/modelserve/internal/domain/artifact"
	"github.com/kailas-cloud/modelserve/internal/domain/forest"
	"github.com/kailas-cloud/modelserve/internal/domain/model"
	"github.com/kailas-cloud/modelserve/internal/domain/model/kind"
	"github.com/kailas-cloud/modelserve/internal/loader"
	"github.com/kailas-cloud/modelserve/internal/metrics"
)

// DefaultCacheSize is used when the configured size is not positive.
const DefaultCacheSize = 128

// Options describe how an artifact should be interpreted on registration.
type Options struct {
	Kind         kind.Kind
	FeatureNames []string
	Vote         forest.Vote
}

// PreloadEntry is an artifact file registered at startup.
type PreloadEntry struct {
	Name string
	Path string
	Options
}

// entry is a cached loaded model with its metadata (artifact bytes dropped).
type entry struct {
	model *model.Model
	meta  domart.Artifact
}

// Service loads, validates, stores and caches models.
//
// Every write bumps the name's generation. A cache miss only publishes what
// it loaded if no write to that name happened since it started reading.
type Service struct {
	repo   Repository
	cache  *expirable.LRU[string, entry]
	logger *zap.Logger

	writeMu sync.Mutex // serializes store write + cache update

	mu   sync.Mutex // guards gens and cache publication
	gens map[string]uint64
}

// New creates a registry service. ttl <= 0 keeps cached models until evicted.
func New(repo Repository, cacheSize int, ttl time.Duration, logger *zap.Logger) *Service {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{repo: repo, logger: logger, gens: make(map[string]uint64)}
	s.cache = expirable.NewLRU[string, entry](cacheSize, func(name string, _ entry) {
		logger.Debug("Model evicted from cache", zap.String("model", name))
	}, ttl)
	return s
}

// Register validates the artifact, then persists it, then publishes the
// loaded model. Nothing is stored when validation fails.
func (s *Service) Register(ctx context.Context, name string, data []byte, opts Options) (Description, error) {
	if err := domart.ValidateName(name); err != nil {
		return Description{}, err
	}

	m, err := s.load(data, opts)
	if err != nil {
		return Description{}, fmt.Errorf("load model %s: %w", name, err)
	}

	a, err := domart.New(name, m.Kind(), data, opts.FeatureNames, opts.Vote)
	if err != nil {
		return Description{}, fmt.Errorf("validate artifact: %w", err)
	}

	s.writeMu.Lock()
	if err := s.repo.Save(ctx, a); err != nil {
		s.writeMu.Unlock()
		return Description{}, fmt.Errorf("save artifact: %w", err)
	}
	s.replace(name, &entry{model: m, meta: stripData(a)})
	s.writeMu.Unlock()

	s.logger.Info("Model registered",
		zap.String("model", name),
		zap.String("kind", string(m.Kind())),
		zap.String("checksum", a.Checksum()),
	)
	return Describe(a, m), nil
}

// Get returns the loaded model, loading it from storage on a cache miss.
// Returned models are immutable and safe for concurrent use.
func (s *Service) Get(ctx context.Context, name string) (*model.Model, error) {
	e, err := s.get(ctx, name)
	if err != nil {
		return nil, err
	}
	return e.model, nil
}

// Describe returns the description of a registered model.
func (s *Service) Describe(ctx context.Context, name string) (Description, error) {
	e, err := s.get(ctx, name)
	if err != nil {
		return Description{}, err
	}
	return Describe(e.meta, e.model), nil
}

// List describes all stored models sorted by name. Artifacts that no longer
// load are logged and skipped.
func (s *Service) List(ctx context.Context) ([]Description, error) {
	gens := s.generations()
	artifacts, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}

	out := make([]Description, 0, len(artifacts))
	for _, a := range artifacts {
		e, ok := s.cache.Get(a.Name())
		if !ok || e.meta.Checksum() != a.Checksum() {
			m, err := s.loadArtifact(a)
			if err != nil {
				s.logger.Warn("Skipping unloadable model", zap.String("model", a.Name()), zap.Error(err))
				continue
			}
			e = entry{model: m, meta: stripData(a)}
			s.publishIfCurrent(a.Name(), e, gens[a.Name()])
		}
		out = append(out, Describe(e.meta, e.model))
	}
	return out, nil
}

// Delete removes the model from storage and the cache.
func (s *Service) Delete(ctx context.Context, name string) error {
	if err := domart.ValidateName(name); err != nil {
		return err
	}
	s.writeMu.Lock()
	if err := s.repo.Delete(ctx, name); err != nil {
		s.writeMu.Unlock()
		return fmt.Errorf("delete model: %w", err)
	}
	s.replace(name, nil)
	s.writeMu.Unlock()
	s.logger.Info("Model deleted", zap.String("model", name))
	return nil
}

// Preload registers artifact files. Every entry is attempted; failures are
// returned joined.
func (s *Service) Preload(ctx context.Context, entries []PreloadEntry) error {
	var errs []error
	for _, e := range entries {
		data, err := os.ReadFile(e.Path)
		if err != nil {
			errs = append(errs, fmt.Errorf("preload %s: %w", e.Name, err))
			continue
		}
		if _, err := s.Register(ctx, e.Name, data, e.Options); err != nil {
			errs = append(errs, fmt.Errorf("preload %s: %w", e.Name, err))
		}
	}
	return errors.Join(errs...)
}

// RegisterFile registers an artifact discovered on disk.
func (s *Service) RegisterFile(ctx context.Context, name string, k kind.Kind, data []byte) error {
	_, err := s.Register(ctx, name, data, Options{Kind: k})
	return err
}

// UnregisterFile deletes a model whose file disappeared.
func (s *Service) UnregisterFile(ctx context.Context, name string) error {
	err := s.Delete(ctx, name)
	if errors.Is(err, domain.ErrModelNotFound) {
		s.replace(name, nil)
		return nil
	}
	return err
}

func (s *Service) get(ctx context.Context, name string) (entry, error) {
	if err := domart.ValidateName(name); err != nil {
		return entry{}, err
	}
	if e, ok := s.cache.Get(name); ok {
		metrics.ModelCacheTotal.WithLabelValues("hit").Inc()
		return e, nil
	}
	metrics.ModelCacheTotal.WithLabelValues("miss").Inc()

	gen := s.generation(name)
	a, err := s.repo.Get(ctx, name)
	if err != nil {
		return entry{}, fmt.Errorf("get model: %w", err)
	}
	m, err := s.loadArtifact(a)
	if err != nil {
		return entry{}, fmt.Errorf("load model %s: %w", name, err)
	}
	e := entry{model: m, meta: stripData(a)}
	s.publishIfCurrent(name, e, gen)
	return e, nil
}

func (s *Service) loadArtifact(a domart.Artifact) (*model.Model, error) {
	return s.load(a.Data(), Options{Kind: a.Kind(), FeatureNames: a.FeatureNames(), Vote: a.Vote()})
}

func (s *Service) load(data []byte, opts Options) (*model.Model, error) {
	m, err := loader.Load(data,
		loader.WithKind(opts.Kind),
		loader.WithFeatureNames(opts.FeatureNames),
		loader.WithVote(opts.Vote),
	)
	if err != nil {
		k := string(opts.Kind)
		if k == "" {
			k = "unknown"
		}
		metrics.ModelLoadsTotal.WithLabelValues(k, "error").Inc()
		return nil, err
	}
	metrics.ModelLoadsTotal.WithLabelValues(string(m.Kind()), "ok").Inc()
	return m, nil
}

func (s *Service) generation(name string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gens[name]
}

func (s *Service) generations() map[string]uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]uint64, len(s.gens))
	for name, g := range s.gens {
		out[name] = g
	}
	return out
}

// replace records a write to name and caches e, or evicts when e is nil.
func (s *Service) replace(name string, e *entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gens[name]++
	if e == nil {
		s.cache.Remove(name)
	} else {
		s.cache.Add(name, *e)
	}
	metrics.ModelsCached.Set(float64(s.cache.Len()))
}

// publishIfCurrent caches a model read from storage unless name was written
// after generation gen was observed.
func (s *Service) publishIfCurrent(name string, e entry, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gens[name] != gen {
		s.logger.Debug("Dropping stale model load", zap.String("model", name))
		return false
	}
	s.cache.Add(name, e)
	metrics.ModelsCached.Set(float64(s.cache.Len()))
	return true
}

func stripData(a domart.Artifact) domart.Artifact {
	return domart.Reconstruct(a.Name(), a.Kind(), nil, a.FeatureNames(), a.Vote(), a.Checksum(), a.CreatedAt())
}
