package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/modelserve/internal/config"
	"github.com/kailas-cloud/modelserve/internal/domain"
	"github.com/kailas-cloud/modelserve/internal/domain/forest"
	"github.com/kailas-cloud/modelserve/internal/domain/model/kind"
	logpkg "github.com/kailas-cloud/modelserve/internal/logger"
	"github.com/kailas-cloud/modelserve/internal/metrics"
	artifactrepo "github.com/kailas-cloud/modelserve/internal/repository/artifact"
	"github.com/kailas-cloud/modelserve/internal/repository/dirsource"
	"github.com/kailas-cloud/modelserve/internal/storage"
	chiTransport "github.com/kailas-cloud/modelserve/internal/transport/chi"
	gen "github.com/kailas-cloud/modelserve/internal/transport/generated"
	healthuc "github.com/kailas-cloud/modelserve/internal/usecase/health"
	predictuc "github.com/kailas-cloud/modelserve/internal/usecase/predict"
	registryuc "github.com/kailas-cloud/modelserve/internal/usecase/registry"
	"github.com/kailas-cloud/modelserve/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level, logpkg.FileConfig{
		Path:       cfg.Logging.File.Path,
		MaxSizeMB:  cfg.Logging.File.MaxSizeMB,
		MaxBackups: cfg.Logging.File.MaxBackups,
		MaxAgeDays: cfg.Logging.File.MaxAgeDays,
		Compress:   cfg.Logging.File.Compress,
	})
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting modelserve API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("storage_driver", cfg.Storage.Driver),
		zap.Strings("storage_addrs", cfg.Storage.Addrs),
	)

	store, err := storage.Open(cfg.Storage)
	if err != nil {
		logger.Fatal("Failed to create artifact store", zap.Error(err))
	}
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := store.WaitForReady(ctx, time.Duration(cfg.Storage.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Artifact store not ready", zap.Error(err))
	}
	logger.Info("Connected to artifact store")

	// Register model metrics explicitly (no init())
	metrics.RegisterModelMetrics()

	registry := registryuc.New(
		artifactrepo.New(store),
		cfg.Models.CacheSize,
		time.Duration(cfg.Models.CacheTTLSec)*time.Second,
		logger,
	)

	if err := registry.Preload(ctx, preloadEntries(cfg.Models.Preload)); err != nil {
		logger.Error("Some models failed to preload", zap.Error(err))
	}

	var watchDone <-chan struct{}
	if cfg.Models.Dir != "" {
		watchDone = startDirSource(ctx, cfg.Models, registry, logger)
	}

	predictor := predictuc.New(registry).
		WithWorkers(cfg.Predict.Workers).
		WithMaxBatchSize(cfg.Predict.MaxBatchSize)

	if err := checkCompatSchemas(ctx, registry, cfg.Models.CompatKinds()); err != nil {
		logger.Error("Compat models disagree on positional feature order", zap.Error(err))
	}

	healthSvc := healthuc.New(store, registry, cfg.Models.Required)

	server := chiTransport.NewServer(registry, predictor, healthSvc, logger).
		WithCompat(cfg.Models.CompatKinds()).
		WithMaxBodyBytes(cfg.HTTP.MaxBodyBytes)

	r := chi.NewRouter()
	r.Use(chiTransport.JSONRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(chiTransport.WideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	gen.HandlerWithOptions(server, gen.ChiServerOptions{
		BaseRouter:       r,
		ErrorHandlerFunc: chiTransport.ParamErrorHandler,
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second,
	)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}
	if watchDone != nil {
		<-watchDone
	}

	logger.Info("Server stopped gracefully")
}

// preloadEntries converts validated config entries to registry entries. An
// unset vote is left to the artifact.
func preloadEntries(cfgs []config.PreloadConfig) []registryuc.PreloadEntry {
	entries := make([]registryuc.PreloadEntry, 0, len(cfgs))
	for _, p := range cfgs {
		k, _ := kind.Parse(p.Kind)
		var v forest.Vote
		if p.Vote != "" {
			v, _ = forest.ParseVote(p.Vote)
		}
		entries = append(entries, registryuc.PreloadEntry{
			Name: p.Name,
			Path: p.Path,
			Options: registryuc.Options{
				Kind:         k,
				FeatureNames: p.FeatureNames,
				Vote:         v,
			},
		})
	}
	return entries
}

// startDirSource registers every artifact in the models directory and, when
// enabled, keeps watching it until ctx is cancelled. The returned channel is
// nil when nothing is watched.
func startDirSource(
	ctx context.Context, cfg config.ModelsConfig, registry *registryuc.Service, logger *zap.Logger,
) <-chan struct{} {
	src := dirsource.New(cfg.Dir, registry, logger)

	n, err := src.LoadAll(ctx)
	if err != nil {
		logger.Error("Some model files failed to load", zap.String("dir", cfg.Dir), zap.Error(err))
	}
	logger.Info("Model directory loaded", zap.String("dir", cfg.Dir), zap.Int("models", n))

	if !cfg.Watch {
		return nil
	}
	done, err := src.Watch(ctx)
	if err != nil {
		logger.Error("Failed to watch model directory", zap.String("dir", cfg.Dir), zap.Error(err))
		return nil
	}
	return done
}

// checkCompatSchemas verifies that every model mapped for POST /predict binds
// a positional vector in the same feature order. Unregistered models are
// skipped; they are reported by /predict itself.
func checkCompatSchemas(ctx context.Context, registry *registryuc.Service, compat map[kind.Kind]string) error {
	kinds := make([]kind.Kind, 0, len(compat))
	for k := range compat {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)

	var (
		refName  string
		refOrder []string
	)
	for _, k := range kinds {
		name := compat[k]
		m, err := registry.Get(ctx, name)
		if errors.Is(err, domain.ErrModelNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("compat %s: %w", k, err)
		}
		order := m.Schema().Names()
		if refOrder == nil {
			refName, refOrder = name, order
			continue
		}
		if !slices.Equal(order, refOrder) {
			return fmt.Errorf("compat %s: model %s binds %v, model %s binds %v", k, name, order, refName, refOrder)
		}
	}
	return nil
}
