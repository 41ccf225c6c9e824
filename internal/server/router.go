package server

import (
	"log/slog"
	"net/http"

	"github.com/cloo-solutions/prepwise/internal/api/handlers"
	"github.com/cloo-solutions/prepwise/internal/api/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterConfig struct {
	SearchHandler *handlers.SearchHandler
	FeedHandler   *handlers.FeedHandler
	HealthHandler *handlers.HealthHandler
	Logger        *slog.Logger
	HTTPMetrics   *middleware.HTTPMetrics
	Gatherer      prometheus.Gatherer
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 1 * 1024 * 1024

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.UserIdentity)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog(logger))
	if cfg.HTTPMetrics != nil {
		r.Use(cfg.HTTPMetrics.Instrument)
	}
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", cfg.HealthHandler.Health)
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/search", func(r chi.Router) {
		r.With(middleware.RequireJSON).Post("/", cfg.SearchHandler.Search)
		r.With(middleware.RequireJSON).Post("/feedback", cfg.SearchHandler.Feedback)
		r.With(middleware.RequireUser).Get("/history", cfg.SearchHandler.History)
	})

	r.Get("/recommendations", cfg.FeedHandler.Recommendations)
	r.Get("/trending", cfg.FeedHandler.Trending)

	return r
}
