package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"

	"github.com/nikhilbhutani/reviewinsight/internal/bootstrap"
	"github.com/nikhilbhutani/reviewinsight/internal/config"
	"github.com/nikhilbhutani/reviewinsight/internal/ingest"
	"github.com/nikhilbhutani/reviewinsight/internal/llm"
	"github.com/nikhilbhutani/reviewinsight/internal/metrics"
	"github.com/nikhilbhutani/reviewinsight/internal/queue"
	"github.com/nikhilbhutani/reviewinsight/internal/queue/workers"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	metrics.Init()

	index, pool, err := bootstrap.Index(context.Background(), cfg)
	if err != nil {
		slog.Error("failed to create search index client", "error", err)
		os.Exit(1)
	}
	if pool != nil {
		defer pool.Close()
	}

	blobs, err := bootstrap.BlobStore(cfg)
	if err != nil {
		slog.Error("failed to create blob store", "error", err)
		os.Exit(1)
	}

	gw := llm.NewGateway(cfg.LLM)
	ingester := ingest.NewIngester(index, bootstrap.Embedder(cfg, gw), cfg.Ingest.BatchSize)

	// Loads upsert keyed documents; one at a time keeps batches ordered.
	const concurrency = 1
	srv := asynq.NewServer(queue.RedisOpt(cfg.Redis), asynq.Config{Concurrency: concurrency})

	registry := queue.NewHandlersRegistry()
	ingestWorker := workers.NewIngestWorker(blobs, ingester)
	registry.Register(queue.TypeIngestCSV, asynq.HandlerFunc(ingestWorker.ProcessTask))

	slog.Info("starting worker", "concurrency", concurrency)
	if err := srv.Run(registry.Mux()); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}
}
