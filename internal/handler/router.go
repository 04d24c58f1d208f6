package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/rksstudio/detailbot/internal/middleware"
)

// NewRouter builds the operational router. logLevel is the runtime log
// level endpoint; metricsHandler serves Prometheus metrics.
func NewRouter(health *HealthHandler, metricsHandler http.Handler, logLevel http.Handler, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))

	health.RegisterRoutes(r)
	r.Handle("/metrics", metricsHandler)
	r.Handle("/debug/loglevel", logLevel)

	return r
}
