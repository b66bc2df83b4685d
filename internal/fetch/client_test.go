package fetch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PrasadTelasula/kaptivan-sub002/internal/models"
)

func TestClientNamespaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/namespaces", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{"namespaces": []string{"default", "prod"}})
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)
	names, err := c.Namespaces(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"default", "prod"}, names)
}

func TestClientSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/topology/prod/deployment/web", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"namespace":  "prod",
			"deployment": map[string]any{"name": "web", "namespace": "prod", "replicas": 2},
		})
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)
	snap, err := c.Snapshot(context.Background(), "prod", models.WorkloadDeployment, "web")
	require.NoError(t, err)

	dep, ok := snap.(*models.DeploymentTopology)
	require.True(t, ok)
	assert.Equal(t, "web", dep.Deployment.Name)
	assert.Equal(t, int32(2), dep.Deployment.Replicas)
}

func TestClientSnapshotUnknownKind(t *testing.T) {
	c, err := NewClient("http://localhost:8080")
	require.NoError(t, err)
	_, err = c.Snapshot(context.Background(), "prod", "statefulset", "db")
	assert.Error(t, err)
}

func TestClientGraphQuery(t *testing.T) {
	var q map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/topology/prod/deployment/web/graph", r.URL.Path)
		q = map[string]string{}
		for k := range r.URL.Query() {
			q[k] = r.URL.Query().Get(k)
		}
		json.NewEncoder(w).Encode(models.TopologyGraph{})
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	filters := models.DefaultFilters()
	filters.ShowContainers = true
	filters.StatusFilter = models.StatusError
	filters.SearchTerm = "api"
	opts := models.TopologyViewOptions{Layout: models.LayoutVertical, Spacing: 1.5}

	_, err = c.Graph(context.Background(), "prod", models.WorkloadDeployment, "web", filters, opts)
	require.NoError(t, err)

	assert.Equal(t, "vertical", q["layout"])
	assert.Equal(t, "1.5", q["spacing"])
	assert.Equal(t, "true", q["showContainers"])
	assert.Equal(t, "true", q["showPods"])
	assert.Equal(t, "Error", q["statusFilter"])
	assert.Equal(t, "api", q["search"])
}

func TestClientErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"code": "NOT_FOUND", "message": "deployment web not found"})
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)
	_, err = c.Snapshot(context.Background(), "prod", models.WorkloadDeployment, "web")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "NOT_FOUND", apiErr.Code)
	assert.Equal(t, "deployment web not found", apiErr.Message)
}

func TestClientErrorPlainBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)
	_, err = c.Namespaces(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
	assert.Equal(t, "service unavailable", apiErr.Message)
}
