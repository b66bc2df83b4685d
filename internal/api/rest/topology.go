package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	apierrors "k8s.io/apimachinery/pkg/api/errors"

	"github.com/PrasadTelasula/kaptivan-sub002/internal/k8s"
	"github.com/PrasadTelasula/kaptivan-sub002/internal/layout"
	"github.com/PrasadTelasula/kaptivan-sub002/internal/models"
	"github.com/PrasadTelasula/kaptivan-sub002/internal/pkg/graphcache"
	"github.com/PrasadTelasula/kaptivan-sub002/internal/pkg/metrics"
	"github.com/PrasadTelasula/kaptivan-sub002/internal/topology"
)

// ListWorkloads handles GET /topology/{namespace}/{kind}.
func (h *Handler) ListWorkloads(w http.ResponseWriter, r *http.Request) {
	namespace, kind, _, ok := pathWorkload(r)
	if !ok {
		respondError(w, r, http.StatusBadRequest, ErrCodeInvalidRequest, "unknown workload kind")
		return
	}
	names, err := h.provider.WorkloadNames(r.Context(), namespace, kind)
	if err != nil {
		h.respondProviderError(w, r, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"items": names})
}

// GetSnapshot handles GET /topology/{namespace}/{kind}/{name}. Returns the
// raw resource snapshot without graph construction.
func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	namespace, kind, name, ok := pathWorkload(r)
	if !ok || name == "" {
		respondError(w, r, http.StatusBadRequest, ErrCodeInvalidRequest, "unknown workload kind")
		return
	}
	snap, err := h.provider.Snapshot(r.Context(), namespace, kind, name)
	if err != nil {
		h.respondProviderError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

// GetGraph handles GET /topology/{namespace}/{kind}/{name}/graph. Query
// parameters select filters and layout; the response is the positioned graph.
func (h *Handler) GetGraph(w http.ResponseWriter, r *http.Request) {
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
	respondJSON(w, http.StatusOK, graph)
}

// buildGraph fetches the snapshot and runs build + layout, with the variant
// cache in front.
func (h *Handler) buildGraph(r *http.Request, namespace string, kind models.WorkloadKind, name string, filters models.TopologyFilters, view models.TopologyViewOptions) (*models.TopologyGraph, error) {
	variant := graphVariant(filters, view)
	key := graphcache.Key(namespace, kind, name, variant)
	if h.cache != nil {
		if g, ok := h.cache.Get(key); ok {
			return g, nil
		}
	}

	snap, err := h.provider.Snapshot(r.Context(), namespace, kind, name)
	if err != nil {
		return nil, err
	}

	buildStart := time.Now()
	g, err := topology.Build(snap, filters, h.cluster)
	if err != nil {
		return nil, err
	}
	metrics.GraphBuildDurationSeconds.Observe(time.Since(buildStart).Seconds())

	layoutStart := time.Now()
	nodes, edges := layout.Arrange(g.Nodes, g.Edges, view)
	metrics.LayoutDurationSeconds.Observe(time.Since(layoutStart).Seconds())

	graph := &models.TopologyGraph{Nodes: nodes, Edges: edges}
	if h.cache != nil {
		h.cache.Set(key, graph)
	}
	return graph, nil
}

// graphVariant encodes every request parameter that changes the graph output.
func graphVariant(f models.TopologyFilters, v models.TopologyViewOptions) string {
	return fmt.Sprintf("%t%t%t%t%t%t%t%t%t|%s|%s|%s|%g",
		f.ShowServices, f.ShowEndpoints, f.ShowSecrets, f.ShowConfigMaps,
		f.ShowServiceAccount, f.ShowRBAC, f.ShowContainers, f.ShowPods,
		f.ShowReplicaSets, f.StatusFilter, f.SearchTerm, v.Layout, v.Spacing)
}

// parseGraphQuery reads filter and layout parameters. Absent parameters keep
// their defaults; malformed booleans or numbers are an error rather than
// silently ignored.
func parseGraphQuery(q url.Values) (models.TopologyFilters, models.TopologyViewOptions, error) {
	filters := models.DefaultFilters()
	view := models.DefaultViewOptions()

	boolParams := map[string]*bool{
		"showServices":       &filters.ShowServices,
		"showEndpoints":      &filters.ShowEndpoints,
		"showSecrets":        &filters.ShowSecrets,
		"showConfigMaps":     &filters.ShowConfigMaps,
		"showServiceAccount": &filters.ShowServiceAccount,
		"showRBAC":           &filters.ShowRBAC,
		"showContainers":     &filters.ShowContainers,
		"showPods":           &filters.ShowPods,
		"showReplicaSets":    &filters.ShowReplicaSets,
	}
	for param, dst := range boolParams {
		raw := q.Get(param)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return filters, view, fmt.Errorf("invalid %s: %q", param, raw)
		}
		*dst = v
	}

	if sf := q.Get("statusFilter"); sf != "" {
		switch sf {
		case models.StatusFilterAll, models.StatusHealthy, models.StatusWarning, models.StatusError, models.StatusUnknown:
			filters.StatusFilter = sf
		default:
			return filters, view, fmt.Errorf("invalid statusFilter: %q", sf)
		}
	}
	filters.SearchTerm = q.Get("search")

	if l := q.Get("layout"); l != "" {
		switch mode := models.LayoutMode(l); mode {
		case models.LayoutHorizontal, models.LayoutVertical, models.LayoutRadial:
			view.Layout = mode
		default:
			return filters, view, fmt.Errorf("invalid layout: %q", l)
		}
	}
	if s := q.Get("spacing"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || v <= 0 {
			return filters, view, fmt.Errorf("invalid spacing: %q", s)
		}
		view.Spacing = v
	}

	return filters, view, nil
}

// respondProviderError maps cluster API failures to HTTP status codes.
func (h *Handler) respondProviderError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case apierrors.IsNotFound(err):
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case apierrors.IsForbidden(err):
		respondError(w, r, http.StatusForbidden, ErrCodeForbidden, err.Error())
	case errors.Is(err, k8s.ErrCircuitOpen):
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeCircuitBreaker, "cluster API temporarily unavailable")
	case apierrors.IsTimeout(err), errors.Is(err, context.DeadlineExceeded):
		respondError(w, r, http.StatusGatewayTimeout, ErrCodeTimeout, err.Error())
	default:
		h.log.Error("request failed", "path", r.URL.Path, "error", err)
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
	}
}
