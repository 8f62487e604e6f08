// Package http exposes the scoring service over HTTP.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/molscore/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molscore/internal/interfaces/http/handlers"
	"github.com/turtacn/molscore/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handlers and middleware dependencies of the
// route tree.  Nil members are skipped.
type RouterConfig struct {
	ScoreHandler  *handlers.ScoreHandler
	HealthHandler *handlers.HealthHandler

	Logger        logging.Logger
	LoggingConfig *middleware.LoggingConfig

	// HTTPMetrics records per-route request metrics.
	HTTPMetrics middleware.HTTPRecorder
	// MetricsHandler is mounted at MetricsPath (default /metrics).
	MetricsHandler http.Handler
	MetricsPath    string
}

// NewRouter builds the route tree.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	if cfg.Logger != nil {
		lc := middleware.DefaultLoggingConfig()
		if cfg.LoggingConfig != nil {
			lc = *cfg.LoggingConfig
		}
		r.Use(middleware.RequestLogging(cfg.Logger, lc))
	}
	if cfg.HTTPMetrics != nil {
		r.Use(middleware.Metrics(cfg.HTTPMetrics))
	}
	r.Use(chimw.Recoverer)

	if cfg.HealthHandler != nil {
		r.Get("/healthz", cfg.HealthHandler.Liveness)
		r.Get("/readyz", cfg.HealthHandler.Readiness)
	}

	if cfg.MetricsHandler != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, cfg.MetricsHandler)
	}

	r.Route("/api/v1", func(api chi.Router) {
		registerScoreRoutes(api, cfg.ScoreHandler)
	})

	return r
}

func registerScoreRoutes(r chi.Router, h *handlers.ScoreHandler) {
	if h == nil {
		return
	}
	r.Post("/scores", h.Score)
	r.Get("/properties", h.ListProperties)
	r.Get("/properties/{property}/job", h.PreviewJob)
}

//Personal.AI order the ending
