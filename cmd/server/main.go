// Command server runs the chaincore process: the HTTP API that accepts and
// serves graph data, and the single background worker that applies queued
// changes, archives snapshots, and feeds the delta log.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"chaincore/internal/blob"
	"chaincore/internal/config"
	"chaincore/internal/deltalog"
	"chaincore/internal/logging"
	"chaincore/internal/queue"
	"chaincore/internal/server"
	"chaincore/internal/store"
	"chaincore/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	blobs, err := blob.Open(ctx, cfg.Blob)
	if err != nil {
		logger.Fatal("failed to open blob store", zap.Error(err))
	}
	logger.Info("blob store ready", zap.String("driver", string(blobs.Driver())))

	deltas, err := deltalog.Open(cfg.DeltaLog)
	if err != nil {
		logger.Fatal("failed to open delta log", zap.Error(err))
	}
	defer func() { _ = deltas.Close() }()

	changes, err := queue.Open(cfg.Queue)
	if err != nil {
		logger.Fatal("failed to open change queue", zap.Error(err))
	}
	defer func() { _ = changes.Close() }()

	graphs := store.New(blobs, logger)

	registry := prometheus.NewRegistry()
	metrics := worker.NewMetrics(registry)

	// Single consumer per process; see the worker package for the
	// single-writer rule.
	w := worker.New(changes, graphs, deltas, logger, metrics)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.Run(ctx)
	}()

	api := server.New(graphs, changes, logger, registry, cfg.DefaultVersion)
	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: api.Router(cfg.IsProduction()),
	}

	go func() {
		logger.Info("http server listening", zap.String("port", cfg.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", zap.Error(err))
	}

	// The worker finishes its in-flight record before returning.
	wg.Wait()
	logger.Info("shutdown complete")
}
