package handlers

import (
	"context"
	"net/http"
	"time"

	"myblog-backend/application/ports"
	"myblog-backend/pkg/common"

	"go.uber.org/zap"
)

const readinessTimeout = 2 * time.Second

// HealthHandler serves liveness and readiness probes
type HealthHandler struct {
	store   ports.HealthChecker
	version string
	logger  *zap.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(store ports.HealthChecker, version string, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{store: store, version: version, logger: logger}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": h.version,
	})
}

// Ready handles GET /ready. It fails when the post store cannot be reached.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("Readiness check failed", zap.Error(err))
		common.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
			"store":  "unreachable",
		})
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
		"store":  "ok",
	})
}
