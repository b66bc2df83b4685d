// Package rest exposes the topology API over HTTP: namespace and workload
// discovery, snapshots, positioned graphs, exports, and graph history.
package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/PrasadTelasula/kaptivan-sub002/internal/models"
	"github.com/PrasadTelasula/kaptivan-sub002/internal/pkg/graphcache"
	"github.com/PrasadTelasula/kaptivan-sub002/internal/pkg/logger"
	"github.com/PrasadTelasula/kaptivan-sub002/internal/repository"
)

// TopologyProvider supplies cluster state. Implemented by k8s.Collector.
type TopologyProvider interface {
	Snapshot(ctx context.Context, namespace string, kind models.WorkloadKind, name string) (models.Snapshot, error)
	WorkloadNames(ctx context.Context, namespace string, kind models.WorkloadKind) ([]string, error)
}

// NamespaceLister lists cluster namespaces. Implemented by k8s.Client.
type NamespaceLister interface {
	Namespaces(ctx context.Context) ([]string, error)
}

// Handler serves the topology REST API.
type Handler struct {
	provider     TopologyProvider
	namespaces   NamespaceLister
	cache        *graphcache.Cache
	repo         repository.HistoryRepository
	cluster      string
	historyLimit int
	log          *slog.Logger
}

// NewHandler wires the API handler. repo may be nil when history storage is
// disabled; cache may be nil to bypass graph caching.
func NewHandler(provider TopologyProvider, namespaces NamespaceLister, cache *graphcache.Cache, repo repository.HistoryRepository, cluster string, historyLimit int, log *slog.Logger) *Handler {
	return &Handler{
		provider:     provider,
		namespaces:   namespaces,
		cache:        cache,
		repo:         repo,
		cluster:      cluster,
		historyLimit: historyLimit,
		log:          log,
	}
}

// SetupRoutes configures API routes on the given (sub)router, normally
// mounted at /api/v1.
func SetupRoutes(router *mux.Router, h *Handler) {
	router.HandleFunc("/namespaces", h.ListNamespaces).Methods("GET")

	router.HandleFunc("/topology/{namespace}/{kind}", h.ListWorkloads).Methods("GET")
	router.HandleFunc("/topology/{namespace}/{kind}/{name}", h.GetSnapshot).Methods("GET")
	router.HandleFunc("/topology/{namespace}/{kind}/{name}/graph", h.GetGraph).Methods("GET")
	router.HandleFunc("/topology/{namespace}/{kind}/{name}/export", h.ExportGraph).Methods("GET")

	router.HandleFunc("/topology/{namespace}/{kind}/{name}/history", h.SaveHistory).Methods("POST")
	router.HandleFunc("/topology/{namespace}/{kind}/{name}/history", h.ListHistory).Methods("GET")
	router.HandleFunc("/history/{id}", h.GetHistoryRecord).Methods("GET")
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	respondErrorWithCode(w, status, code, message, logger.FromContext(r.Context()))
}

// workloadKind validates the {kind} path segment.
func workloadKind(s string) (models.WorkloadKind, bool) {
	switch k := models.WorkloadKind(s); k {
	case models.WorkloadDeployment, models.WorkloadDaemonSet, models.WorkloadJob, models.WorkloadCronJob:
		return k, true
	}
	return "", false
}

// pathWorkload extracts and validates the namespace/kind[/name] path vars.
func pathWorkload(r *http.Request) (namespace string, kind models.WorkloadKind, name string, ok bool) {
	vars := mux.Vars(r)
	namespace = vars["namespace"]
	name = vars["name"]
	kind, ok = workloadKind(vars["kind"])
	return namespace, kind, name, ok && namespace != ""
}
