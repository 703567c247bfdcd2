package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nikhilbhutani/reviewinsight/internal/bootstrap"
	"github.com/nikhilbhutani/reviewinsight/internal/config"
	"github.com/nikhilbhutani/reviewinsight/internal/ingest"
	"github.com/nikhilbhutani/reviewinsight/internal/llm"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("ingest failed", "error", err)
		os.Exit(1)
	}
	slog.Info("done")
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	index, pool, err := bootstrap.Index(ctx, cfg)
	if err != nil {
		return err
	}
	if pool != nil {
		defer pool.Close()
	}

	schema := bootstrap.Schema(cfg)
	slog.Info("creating or updating index", "index", schema.Name, "vector_dim", cfg.Search.EmbeddingDim)
	if err := index.EnsureIndex(ctx, schema); err != nil {
		return err
	}
	slog.Info("index ready", "index", schema.Name)

	gw := llm.NewGateway(cfg.LLM)
	embedder := bootstrap.Embedder(cfg, gw)

	if cfg.Ingest.CSVPath != "" {
		n, err := ingest.NewIngester(index, embedder, cfg.Ingest.BatchSize).LoadFile(ctx, cfg.Ingest.CSVPath)
		if err != nil {
			return err
		}
		slog.Info("csv loaded", "path", cfg.Ingest.CSVPath, "documents", n)
	} else {
		slog.Warn("CSV_PATH not set, skipping load")
	}

	if cfg.Ingest.SampleQuery == "" {
		return nil
	}
	res, err := ingest.Probe(ctx, index, embedder, cfg.Ingest.SampleQuery)
	if err != nil {
		return err
	}
	for _, d := range res.Documents {
		slog.Info("top hit",
			"review_id", d.ReviewID,
			"product_name", d.ProductName,
			"product_group", d.ProductGroup,
			"review_text", truncate(d.ReviewText, 50),
		)
	}
	for field, buckets := range res.Facets {
		for _, b := range buckets {
			slog.Info("facet", "field", field, "value", b.Value, "count", b.Count)
		}
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
