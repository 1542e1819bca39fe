package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/carogaltier/medscheduler/internal/config"
	"github.com/carogaltier/medscheduler/pkg/metrics"
)

const defaultMaxBodyBytes = 1 << 20

type RouterConfig struct {
	// Config is the base that request overrides are merged over
	Config       *config.Config
	Metrics      *metrics.Collector
	Logger       *zap.Logger
	Env          string
	Version      string
	MaxBodyBytes int64
}

func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewCollector()
	}

	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(MetricsMiddleware(cfg.Metrics))
	r.Use(middleware.Recoverer)

	health := NewHealthHandler(cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/defaults", defaultsHandler())
		r.Post("/datasets", createDatasetHandler(cfg.Config, cfg.Metrics, cfg.Logger, cfg.MaxBodyBytes))
	})

	return r
}
