package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/PrasadTelasula/kaptivan-sub002/internal/models"
	"github.com/PrasadTelasula/kaptivan-sub002/internal/pkg/graphcache"
	"github.com/PrasadTelasula/kaptivan-sub002/internal/repository"
)

type fakeProvider struct {
	snap  models.Snapshot
	names []string
	err   error
	calls int
}

func (f *fakeProvider) Snapshot(context.Context, string, models.WorkloadKind, string) (models.Snapshot, error) {
	f.calls++
	return f.snap, f.err
}

func (f *fakeProvider) WorkloadNames(context.Context, string, models.WorkloadKind) ([]string, error) {
	return f.names, f.err
}

type fakeLister struct {
	names []string
	err   error
}

func (f *fakeLister) Namespaces(context.Context) ([]string, error) { return f.names, f.err }

type memoryRepo struct {
	mu   sync.Mutex
	recs []*models.GraphRecord
}

func (m *memoryRepo) SaveGraph(_ context.Context, rec *models.GraphRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	stored := *rec
	m.recs = append(m.recs, &stored)
	return nil
}

func (m *memoryRepo) GetGraph(_ context.Context, id string) (*models.GraphRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.recs {
		if rec.ID == id {
			return rec, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memoryRepo) ListGraphs(_ context.Context, cluster, namespace string, kind models.WorkloadKind, name string, limit int) ([]*models.GraphRecordSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.GraphRecordSummary
	for _, rec := range m.recs {
		if rec.Cluster == cluster && rec.Namespace == namespace && rec.Kind == kind && rec.Name == name {
			out = append(out, &models.GraphRecordSummary{
				ID: rec.ID, Cluster: rec.Cluster, Namespace: rec.Namespace,
				Kind: rec.Kind, Name: rec.Name,
				NodeCount: rec.NodeCount, EdgeCount: rec.EdgeCount, CreatedAt: rec.CreatedAt,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryRepo) Prune(context.Context, string, string, models.WorkloadKind, string, int) error {
	return nil
}
func (m *memoryRepo) Ping(context.Context) error { return nil }
func (m *memoryRepo) Close() error               { return nil }

func restSnapshot() *models.DeploymentTopology {
	return &models.DeploymentTopology{
		TopologyBase: models.TopologyBase{Namespace: "prod"},
		Deployment:   models.DeploymentInfo{Name: "web", Namespace: "prod", Replicas: 1, Ready: 1, Status: models.StatusHealthy},
		ReplicaSets: []models.ReplicaSetInfo{
			{
				Name: "web-abc", Namespace: "prod", Replicas: 1, Ready: 1, Status: models.StatusHealthy,
				Pods: []models.PodInfo{{Name: "web-abc-1", Namespace: "prod", Status: models.StatusHealthy}},
			},
		},
	}
}

func newTestRouter(provider TopologyProvider, lister NamespaceLister, repo repository.HistoryRepository, cache *graphcache.Cache) *mux.Router {
	h := NewHandler(provider, lister, cache, repo, "test-cluster", 10, slog.Default())
	router := mux.NewRouter()
	SetupRoutes(router.PathPrefix("/api/v1").Subrouter(), h)
	return router
}

func doRequest(router *mux.Router, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestListNamespaces(t *testing.T) {
	router := newTestRouter(&fakeProvider{}, &fakeLister{names: []string{"default", "prod"}}, nil, nil)
	rec := doRequest(router, http.MethodGet, "/api/v1/namespaces")
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Namespaces []string `json:"namespaces"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, []string{"default", "prod"}, out.Namespaces)
}

func TestListWorkloads(t *testing.T) {
	router := newTestRouter(&fakeProvider{names: []string{"web", "api"}}, &fakeLister{}, nil, nil)
	rec := doRequest(router, http.MethodGet, "/api/v1/topology/prod/deployment")
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Items []string `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, []string{"web", "api"}, out.Items)
}

func TestListWorkloadsBadKind(t *testing.T) {
	router := newTestRouter(&fakeProvider{}, &fakeLister{}, nil, nil)
	rec := doRequest(router, http.MethodGet, "/api/v1/topology/prod/statefulset")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetGraph(t *testing.T) {
	router := newTestRouter(&fakeProvider{snap: restSnapshot()}, &fakeLister{}, nil, nil)
	rec := doRequest(router, http.MethodGet, "/api/v1/topology/prod/deployment/web/graph?layout=horizontal")
	require.Equal(t, http.StatusOK, rec.Code)

	var graph models.TopologyGraph
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &graph))
	assert.Len(t, graph.Nodes, 3)
	assert.Len(t, graph.Edges, 2)
	for _, n := range graph.Nodes {
		assert.False(t, n.Position.X == 0 && n.Position.Y == 0, "node %s not positioned", n.ID)
	}
}

func TestGetGraphInvalidQuery(t *testing.T) {
	router := newTestRouter(&fakeProvider{snap: restSnapshot()}, &fakeLister{}, nil, nil)

	for _, target := range []string{
		"/api/v1/topology/prod/deployment/web/graph?showPods=maybe",
		"/api/v1/topology/prod/deployment/web/graph?layout=circular",
		"/api/v1/topology/prod/deployment/web/graph?spacing=-1",
		"/api/v1/topology/prod/deployment/web/graph?statusFilter=Broken",
	} {
		rec := doRequest(router, http.MethodGet, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestGetGraphUsesCache(t *testing.T) {
	provider := &fakeProvider{snap: restSnapshot()}
	router := newTestRouter(provider, &fakeLister{}, nil, graphcache.New(time.Minute))

	for i := 0; i < 3; i++ {
		rec := doRequest(router, http.MethodGet, "/api/v1/topology/prod/deployment/web/graph")
		require.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Equal(t, 1, provider.calls)

	// a different variant misses
	rec := doRequest(router, http.MethodGet, "/api/v1/topology/prod/deployment/web/graph?layout=vertical")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, provider.calls)
}

func TestGetSnapshotNotFound(t *testing.T) {
	gr := schema.GroupResource{Group: "apps", Resource: "deployments"}
	provider := &fakeProvider{err: apierrors.NewNotFound(gr, "web")}
	router := newTestRouter(provider, &fakeLister{}, nil, nil)

	rec := doRequest(router, http.MethodGet, "/api/v1/topology/prod/deployment/web")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var apiErr APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	assert.Equal(t, ErrCodeNotFound, apiErr.Code)
}

func TestGetSnapshotForbidden(t *testing.T) {
	gr := schema.GroupResource{Group: "apps", Resource: "deployments"}
	provider := &fakeProvider{err: apierrors.NewForbidden(gr, "web", nil)}
	router := newTestRouter(provider, &fakeLister{}, nil, nil)
	rec := doRequest(router, http.MethodGet, "/api/v1/topology/prod/deployment/web")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestExportFormats(t *testing.T) {
	router := newTestRouter(&fakeProvider{snap: restSnapshot()}, &fakeLister{}, nil, nil)

	cases := []struct {
		format      string
		contentType string
		sniff       string
	}{
		{"json", "application/json", `"nodes"`},
		{"svg", "image/svg+xml", "<svg"},
		{"dot", "text/vnd.graphviz", "digraph topology"},
		{"drawio", "application/xml", "<mxfile"},
	}
	for _, tc := range cases {
		rec := doRequest(router, http.MethodGet, "/api/v1/topology/prod/deployment/web/export?format="+tc.format)
		require.Equal(t, http.StatusOK, rec.Code, tc.format)
		assert.Equal(t, tc.contentType, rec.Header().Get("Content-Type"), tc.format)
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "prod-web-topology."+tc.format)
		assert.Contains(t, rec.Body.String(), tc.sniff, tc.format)
	}

	rec := doRequest(router, http.MethodGet, "/api/v1/topology/prod/deployment/web/export?format=png")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistoryLifecycle(t *testing.T) {
	repo := &memoryRepo{}
	router := newTestRouter(&fakeProvider{snap: restSnapshot()}, &fakeLister{}, repo, nil)

	rec := doRequest(router, http.MethodPost, "/api/v1/topology/prod/deployment/web/history")
	require.Equal(t, http.StatusCreated, rec.Code)

	var saved models.GraphRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &saved))
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, 3, saved.NodeCount)
	assert.Equal(t, 2, saved.EdgeCount)
	assert.Empty(t, saved.Data, "create response omits the graph body")

	rec = doRequest(router, http.MethodGet, "/api/v1/topology/prod/deployment/web/history")
	require.Equal(t, http.StatusOK, rec.Code)
	var listing struct {
		Items []*models.GraphRecordSummary `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listing))
	require.Len(t, listing.Items, 1)
	assert.Equal(t, saved.ID, listing.Items[0].ID)

	rec = doRequest(router, http.MethodGet, "/api/v1/history/"+saved.ID)
	require.Equal(t, http.StatusOK, rec.Code)
	var full models.GraphRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &full))
	assert.True(t, strings.Contains(string(full.Data), "deployment-web"))

	rec = doRequest(router, http.MethodGet, "/api/v1/history/"+uuid.NewString())
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHistoryDisabled(t *testing.T) {
	router := newTestRouter(&fakeProvider{snap: restSnapshot()}, &fakeLister{}, nil, nil)
	rec := doRequest(router, http.MethodPost, "/api/v1/topology/prod/deployment/web/history")
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestParseGraphQueryDefaults(t *testing.T) {
	filters, view, err := parseGraphQuery(url.Values{})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultFilters(), filters)
	assert.Equal(t, models.DefaultViewOptions(), view)
}

func TestParseGraphQueryOverrides(t *testing.T) {
	q := url.Values{}
	q.Set("showContainers", "true")
	q.Set("showRBAC", "false")
	q.Set("statusFilter", models.StatusError)
	q.Set("search", "api")
	q.Set("layout", "radial")
	q.Set("spacing", "1.5")

	filters, view, err := parseGraphQuery(q)
	require.NoError(t, err)
	assert.True(t, filters.ShowContainers)
	assert.False(t, filters.ShowRBAC)
	assert.Equal(t, models.StatusError, filters.StatusFilter)
	assert.Equal(t, "api", filters.SearchTerm)
	assert.Equal(t, models.LayoutRadial, view.Layout)
	assert.Equal(t, 1.5, view.Spacing)
}
