package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/nikhilbhutani/reviewinsight/internal/api/handlers"
	"github.com/nikhilbhutani/reviewinsight/internal/api/middleware"
	"github.com/nikhilbhutani/reviewinsight/internal/auth"
	"github.com/nikhilbhutani/reviewinsight/internal/chat"
	"github.com/nikhilbhutani/reviewinsight/internal/config"
	"github.com/nikhilbhutani/reviewinsight/internal/metrics"
	"github.com/nikhilbhutani/reviewinsight/internal/storage"
)

// Deps are the services the HTTP layer needs; main builds them once.
// POST /api/v1/ingest is mounted only when both Uploader and Queue are set.
// A nil Limiter is built from the server config.
type Deps struct {
	Config   *config.Config
	Chat     *chat.Service
	Uploader *storage.Uploader
	Queue    handlers.Enqueuer
	Health   map[string]handlers.Pinger
	Limiter  *middleware.RateLimiter
}

type Router struct {
	mux  *chi.Mux
	deps Deps
}

func NewRouter(deps Deps) *Router {
	if deps.Limiter == nil {
		deps.Limiter = middleware.NewRateLimiter(deps.Config.Server.RateLimitRPS, deps.Config.Server.RateLimitBurst)
	}
	return &Router{mux: chi.NewRouter(), deps: deps}
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux
	cfg := rt.deps.Config

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.Server.CORSOrigins))
	r.Use(rt.deps.Limiter.Limit)

	// Health and metrics (no auth)
	health := handlers.NewHealthHandler(rt.deps.Health)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.Auth.JWTSecret != "" {
			r.Use(auth.NewJWTMiddleware(cfg.Auth.JWTSecret).Authenticate)
		}

		categoryH := handlers.NewCategoryHandler(rt.deps.Chat.Catalog())
		r.Get("/categories", categoryH.List)

		sessionH := handlers.NewSessionHandler(rt.deps.Chat)
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", sessionH.Create)
			r.Get("/{id}", sessionH.Get)
			r.Put("/{id}/selections/{category}", sessionH.Select)
			r.Post("/{id}/reload", sessionH.Reload)
			r.Post("/{id}/messages", sessionH.Ask)
		})

		if rt.deps.Uploader != nil && rt.deps.Queue != nil {
			ingestH := handlers.NewIngestHandler(rt.deps.Uploader, rt.deps.Queue)
			r.Post("/ingest", ingestH.Upload)
		}
	})

	return r
}
