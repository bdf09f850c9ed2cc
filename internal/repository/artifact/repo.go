package artifact

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/modelserve/internal/domain"
	domart "github.com/kailas-cloud/modelserve/internal/domain/artifact"
)

// store is the consumer interface for artifacts (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo implements usecase/registry.Repository.
type Repo struct {
	store store
}

// New creates an artifact repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Save stores an artifact, replacing any previous one under the same name.
func (r *Repo) Save(ctx context.Context, a domart.Artifact) error {
	hashData, err := artifactToHash(a)
	if err != nil {
		return err
	}
	if err := r.store.HSet(ctx, artifactKey(a.Name()), hashData); err != nil {
		return fmt.Errorf("hset artifact %s: %w", a.Name(), err)
	}
	return nil
}

// Get retrieves an artifact by name.
func (r *Repo) Get(ctx context.Context, name string) (domart.Artifact, error) {
	m, err := r.store.HGetAll(ctx, artifactKey(name))
	if err != nil {
		return domart.Artifact{}, fmt.Errorf("hgetall artifact %s: %w", name, err)
	}
	if len(m) == 0 {
		return domart.Artifact{}, domain.ErrModelNotFound
	}
	return artifactFromHash(m)
}

// List returns all artifacts sorted by name.
func (r *Repo) List(ctx context.Context) ([]domart.Artifact, error) {
	keys, err := r.store.Scan(ctx, artifactKey("*"))
	if err != nil {
		return nil, fmt.Errorf("scan artifacts: %w", err)
	}
	if len(keys) == 0 {
		return []domart.Artifact{}, nil
	}

	results, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hgetall multi artifacts: %w", err)
	}

	artifacts := make([]domart.Artifact, 0, len(results))
	for i, m := range results {
		// deleted between SCAN and HGETALL
		if len(m) == 0 {
			continue
		}
		a, err := artifactFromHash(m)
		if err != nil {
			return nil, fmt.Errorf("parse artifact %s: %w", keys[i], err)
		}
		artifacts = append(artifacts, a)
	}

	sort.Slice(artifacts, func(i, j int) bool {
		return artifacts[i].Name() < artifacts[j].Name()
	})

	return artifacts, nil
}

// Names returns stored model names sorted, without fetching artifact bodies.
func (r *Repo) Names(ctx context.Context) ([]string, error) {
	keys, err := r.store.Scan(ctx, artifactKey("*"))
	if err != nil {
		return nil, fmt.Errorf("scan artifacts: %w", err)
	}
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = strings.TrimPrefix(k, artifactKey(""))
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes an artifact.
func (r *Repo) Delete(ctx context.Context, name string) error {
	key := artifactKey(name)
	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if !exists {
		return domain.ErrModelNotFound
	}
	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del artifact %s: %w", name, err)
	}
	return nil
}

// Key pattern: modelserve:artifact:{name}

func artifactKey(name string) string {
	return fmt.Sprintf("%sartifact:%s", domain.KeyPrefix, name)
}
