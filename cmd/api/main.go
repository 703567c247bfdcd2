package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nikhilbhutani/reviewinsight/internal/api"
	"github.com/nikhilbhutani/reviewinsight/internal/api/handlers"
	"github.com/nikhilbhutani/reviewinsight/internal/api/middleware"
	"github.com/nikhilbhutani/reviewinsight/internal/bootstrap"
	"github.com/nikhilbhutani/reviewinsight/internal/chat"
	"github.com/nikhilbhutani/reviewinsight/internal/config"
	"github.com/nikhilbhutani/reviewinsight/internal/filter"
	"github.com/nikhilbhutani/reviewinsight/internal/llm"
	"github.com/nikhilbhutani/reviewinsight/internal/metrics"
	"github.com/nikhilbhutani/reviewinsight/internal/queue"
	"github.com/nikhilbhutani/reviewinsight/internal/rag"
	"github.com/nikhilbhutani/reviewinsight/internal/session"
	"github.com/nikhilbhutani/reviewinsight/internal/storage"
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
	ctx := context.Background()

	catalog, err := filter.LoadCatalog(cfg.Session.CatalogPath)
	if err != nil {
		slog.Error("failed to load category catalog", "error", err)
		os.Exit(1)
	}

	index, pool, err := bootstrap.Index(ctx, cfg)
	if err != nil {
		slog.Error("failed to create search index client", "error", err)
		os.Exit(1)
	}
	health := map[string]handlers.Pinger{}
	if pool != nil {
		defer pool.Close()
		health["database"] = pool
	}

	gw := llm.NewGateway(cfg.LLM)
	synth := rag.NewSynthesizer(index, gw, catalog, rag.Options{
		SemanticConfig: cfg.Search.SemanticConfig,
		Model:          cfg.LLM.DefaultModel,
		Backend:        cfg.Search.Backend,
		Embedder:       bootstrap.QueryEmbedder(cfg, gw),
	})

	// Redis (optional unless it backs sessions)
	rdb := bootstrap.Redis(cfg.Redis)
	defer rdb.Close()
	redisCache := bootstrap.SessionCache(rdb)
	redisUp := redisCache.Ping(ctx) == nil
	if !redisUp {
		slog.Warn("redis unavailable, ingestion endpoint disabled")
	}

	var store session.Store
	switch cfg.Session.Backend {
	case "redis":
		if !redisUp {
			slog.Error("session backend is redis but redis is unreachable", "addr", cfg.Redis.Addr)
			os.Exit(1)
		}
		store = session.NewRedisStore(redisCache, cfg.Session.TTL)
		health["redis"] = redisCache
	default:
		store = session.NewMemoryStore(cfg.Session.TTL)
	}

	chatSvc := chat.NewService(store, catalog, filter.NewSampler(), synth, filter.Mode(cfg.Session.SelectionMode))

	deps := api.Deps{
		Config: cfg,
		Chat:   chatSvc,
		Health: health,
	}

	blobs, err := bootstrap.BlobStore(cfg)
	if err != nil {
		slog.Warn("blob store unavailable, ingestion endpoint disabled", "error", err)
	} else if redisUp {
		qc := queue.NewClient(cfg.Redis)
		defer qc.Close()
		deps.Uploader = storage.NewUploader(blobs, cfg.Storage.SASExpiry)
		deps.Queue = qc
	}

	limiter := middleware.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)
	done := make(chan struct{})
	defer close(done)
	go limiter.Run(done)
	deps.Limiter = limiter

	router := api.NewRouter(deps)
	handler := router.Setup()

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("starting API server",
			"addr", cfg.Addr(),
			"search_backend", cfg.Search.Backend,
			"session_backend", cfg.Session.Backend,
			"selection_mode", cfg.Session.SelectionMode,
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
	}
	slog.Info("server stopped")
}
