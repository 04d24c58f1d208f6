// Package handler exposes the operational HTTP surface: health probes,
// Prometheus metrics and the runtime log level endpoint.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// HealthChecker defines the interface for checking database health.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// OperatorCounter reports how many operators are registered to receive
// leads. Zero operators means leads are stored but reach nobody.
type OperatorCounter interface {
	Count(ctx context.Context) (int, error)
}

// HealthHandler handles health check HTTP requests.
type HealthHandler struct {
	healthChecker HealthChecker
	operators     OperatorCounter
	logger        *zap.Logger
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(healthChecker HealthChecker, operators OperatorCounter, logger *zap.Logger) *HealthHandler {
	if logger == nil {
		panic("logger is required")
	}
	return &HealthHandler{
		healthChecker: healthChecker,
		operators:     operators,
		logger:        logger,
	}
}

// RegisterRoutes registers health routes on the router.
func (h *HealthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.HandleHealth)
	r.Get("/ready", h.HandleReadiness)
	r.Get("/live", h.HandleLiveness)
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status string                     `json:"status"`
	Checks map[string]ComponentHealth `json:"checks,omitempty"`
}

// ComponentHealth represents the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HandleHealth returns a health check response including all service dependencies.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	response := HealthResponse{
		Status: "ok",
		Checks: make(map[string]ComponentHealth),
	}

	hasCriticalFailure := false
	hasDegradation := false

	// Database connectivity is critical.
	if h.healthChecker != nil {
		if err := h.healthChecker.Ping(ctx); err != nil {
			hasCriticalFailure = true
			response.Checks["database"] = ComponentHealth{
				Status:  "unhealthy",
				Message: err.Error(),
			}
			h.logger.Error("database health check failed", zap.Error(err))
		} else {
			response.Checks["database"] = ComponentHealth{Status: "healthy"}
		}
	}

	// An empty operator registry degrades the service: leads are still
	// captured but nobody is notified.
	if h.operators != nil {
		count, err := h.operators.Count(ctx)
		switch {
		case err != nil:
			hasDegradation = true
			response.Checks["operators"] = ComponentHealth{
				Status:  "degraded",
				Message: err.Error(),
			}
		case count == 0:
			hasDegradation = true
			response.Checks["operators"] = ComponentHealth{
				Status:  "degraded",
				Message: "no operators registered",
			}
		default:
			response.Checks["operators"] = ComponentHealth{
				Status:  "healthy",
				Message: fmt.Sprintf("%d operator(s) registered", count),
			}
		}
	}

	if hasCriticalFailure {
		response.Status = "unhealthy"
	} else if hasDegradation {
		response.Status = "degraded"
	}

	w.Header().Set("Content-Type", "application/json")

	statusCode := http.StatusOK
	if response.Status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Debug("failed to write health response", zap.Error(err))
	}
}

// HandleReadiness returns a simple readiness probe response.
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	// Only check the database, the critical dependency.
	if h.healthChecker != nil {
		if err := h.healthChecker.Ping(ctx); err != nil {
			h.logger.Error("readiness check failed", zap.Error(err))
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// HandleLiveness returns a simple liveness probe response.
func (h *HealthHandler) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("alive"))
}
