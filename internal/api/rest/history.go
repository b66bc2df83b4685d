package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/PrasadTelasula/kaptivan-sub002/internal/models"
	"github.com/PrasadTelasula/kaptivan-sub002/internal/repository"
)

// SaveHistory handles POST /topology/{namespace}/{kind}/{name}/history.
// Builds the current graph with the request's filter/layout parameters and
// persists it, pruning old records past the configured limit.
func (h *Handler) SaveHistory(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		respondError(w, r, http.StatusNotImplemented, ErrCodeInvalidRequest, "history storage is disabled")
		return
	}
	namespace, kind, name, ok := pathWorkload(r)
	if !ok || name == "" {
		respondError(w, r, http.StatusBadRequest, ErrCodeInvalidRequest, "unknown workload kind")
		return
	}
	filters, view, err := parseGraphQuery(r.URL.Query())
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidationFailed, err.Error())
		return
	}

	graph, err := h.buildGraph(r, namespace, kind, name, filters, view)
	if err != nil {
		h.respondProviderError(w, r, err)
		return
	}

	data, err := json.Marshal(graph)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}
	rec := &models.GraphRecord{
		Cluster:   h.cluster,
		Namespace: namespace,
		Kind:      kind,
		Name:      name,
		NodeCount: len(graph.Nodes),
		EdgeCount: len(graph.Edges),
		Data:      data,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.repo.SaveGraph(r.Context(), rec); err != nil {
		h.log.Error("save graph record failed", "error", err)
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}
	if err := h.repo.Prune(r.Context(), h.cluster, namespace, kind, name, h.historyLimit); err != nil {
		h.log.Warn("prune graph history failed", "error", err)
	}

	rec.Data = nil // response carries the summary, not the body
	respondJSON(w, http.StatusCreated, rec)
}

// ListHistory handles GET /topology/{namespace}/{kind}/{name}/history.
func (h *Handler) ListHistory(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		respondError(w, r, http.StatusNotImplemented, ErrCodeInvalidRequest, "history storage is disabled")
		return
	}
	namespace, kind, name, ok := pathWorkload(r)
	if !ok || name == "" {
		respondError(w, r, http.StatusBadRequest, ErrCodeInvalidRequest, "unknown workload kind")
		return
	}
	recs, err := h.repo.ListGraphs(r.Context(), h.cluster, namespace, kind, name, h.historyLimit)
	if err != nil {
		h.log.Error("list graph history failed", "error", err)
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}
	if recs == nil {
		recs = []*models.GraphRecordSummary{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"items": recs})
}

// GetHistoryRecord handles GET /history/{id}, returning the stored graph.
func (h *Handler) GetHistoryRecord(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		respondError(w, r, http.StatusNotImplemented, ErrCodeInvalidRequest, "history storage is disabled")
		return
	}
	id := mux.Vars(r)["id"]
	rec, err := h.repo.GetGraph(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, r, http.StatusNotFound, ErrCodeNotFound, err.Error())
			return
		}
		h.log.Error("get graph record failed", "error", err)
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, rec)
}
