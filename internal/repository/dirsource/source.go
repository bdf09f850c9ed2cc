// Package dirsource feeds model artifacts from a directory of JSON files
// into the registry and keeps it in sync with fsnotify.
package dirsource

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/kailas-cloud/modelserve/internal/domain/artifact"
	"github.com/kailas-cloud/modelserve/internal/domain/model/kind"
)

const ext = ".json"

// Handler receives artifact file changes.
type Handler interface {
	RegisterFile(ctx context.Context, name string, k kind.Kind, data []byte) error
	UnregisterFile(ctx context.Context, name string) error
}

// Source maps <dir>/<name>.json and <dir>/<name>.<kind>.json to models.
type Source struct {
	dir     string
	handler Handler
	logger  *zap.Logger
}

// New creates a directory source.
func New(dir string, h Handler, logger *zap.Logger) *Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Source{dir: dir, handler: h, logger: logger}
}

// ParseFileName splits a base file name into model name and optional kind.
// ok is false for files the source ignores.
func ParseFileName(base string) (name string, k kind.Kind, ok bool) {
	if !strings.HasSuffix(base, ext) || strings.HasPrefix(base, ".") {
		return "", "", false
	}
	stem := strings.TrimSuffix(base, ext)
	if i := strings.LastIndexByte(stem, '.'); i > 0 {
		if parsed, err := kind.Parse(stem[i+1:]); err == nil && parsed != "" {
			stem, k = stem[:i], parsed
		}
	}
	if artifact.ValidateName(stem) != nil {
		return "", "", false
	}
	return stem, k, true
}

// LoadAll registers every artifact file in the directory. A bad file does
// not stop the others; all failures are returned joined.
func (s *Source) LoadAll(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("read models dir: %w", err)
	}

	var errs []error
	loaded := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, _, ok := ParseFileName(e.Name()); !ok {
			continue
		}
		if err := s.register(ctx, filepath.Join(s.dir, e.Name())); err != nil {
			errs = append(errs, err)
			continue
		}
		loaded++
	}
	return loaded, errors.Join(errs...)
}

// Watch starts watching the directory. It returns once the watch is active;
// the returned channel is closed after ctx is cancelled and the watcher stops.
func (s *Source) Watch(ctx context.Context) (<-chan struct{}, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(s.dir); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch %s: %w", s.dir, err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer func() { _ = w.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				s.handle(ctx, ev)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				s.logger.Warn("models dir watcher error", zap.Error(err))
			}
		}
	}()

	s.logger.Info("Watching models dir", zap.String("dir", s.dir))
	return done, nil
}

func (s *Source) handle(ctx context.Context, ev fsnotify.Event) {
	name, _, ok := ParseFileName(filepath.Base(ev.Name))
	if !ok {
		return
	}

	switch {
	case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
		if err := s.register(ctx, ev.Name); err != nil {
			s.logger.Warn("Failed to reload model file", zap.String("path", ev.Name), zap.Error(err))
		}
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		if err := s.handler.UnregisterFile(ctx, name); err != nil {
			s.logger.Warn("Failed to unregister model", zap.String("model", name), zap.Error(err))
			return
		}
		s.logger.Info("Model file removed", zap.String("model", name))
	}
}

func (s *Source) register(ctx context.Context, path string) error {
	name, k, _ := ParseFileName(filepath.Base(path))
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := s.handler.RegisterFile(ctx, name, k, data); err != nil {
		return fmt.Errorf("register %s: %w", path, err)
	}
	s.logger.Info("Model file loaded", zap.String("model", name), zap.String("path", path))
	return nil
}
