package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/PrasadTelasula/kaptivan-sub002/internal/repository"
)

// HealthzHandler serves liveness and readiness probes.
type HealthzHandler struct {
	repo repository.HistoryRepository
}

// NewHealthzHandler creates a healthz handler. repo may be nil.
func NewHealthzHandler(repo repository.HistoryRepository) *HealthzHandler {
	return &HealthzHandler{repo: repo}
}

// Live handles GET /healthz/live - liveness probe (process is alive).
func (h *HealthzHandler) Live(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready handles GET /healthz/ready - readiness probe (dependencies are healthy).
func (h *HealthzHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if h.repo != nil {
		if err := h.repo.Ping(ctx); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
				"status": "unhealthy",
				"reason": "database_unavailable",
				"error":  err.Error(),
			})
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
