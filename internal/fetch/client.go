// Package fetch is the HTTP client for topology snapshots. A session uses it
// for the initial load and for full refetches when the stream falls too far
// behind.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/PrasadTelasula/kaptivan-sub002/internal/models"
)

const defaultTimeout = 30 * time.Second

// APIError is the server's structured error envelope.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Code, e.Message)
}

// Client fetches snapshots and catalog listings from the topology API.
type Client struct {
	base *url.URL
	http *http.Client
}

// NewClient builds a client for the given API base URL, for example
// "http://localhost:8080". Outbound requests are trace-instrumented.
func NewClient(baseURL string) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	return &Client{
		base: u,
		http: &http.Client{
			Timeout:   defaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	if query != nil {
		u.RawQuery = query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{Status: resp.StatusCode}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(body, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(body))
		}
		return apiErr
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// Namespaces lists the namespaces visible to the server.
func (c *Client) Namespaces(ctx context.Context) ([]string, error) {
	var out struct {
		Namespaces []string `json:"namespaces"`
	}
	if err := c.get(ctx, "/api/v1/namespaces", nil, &out); err != nil {
		return nil, err
	}
	return out.Namespaces, nil
}

// Workloads lists workload names of a kind in a namespace.
func (c *Client) Workloads(ctx context.Context, namespace string, kind models.WorkloadKind) ([]string, error) {
	var out struct {
		Items []string `json:"items"`
	}
	path := fmt.Sprintf("/api/v1/topology/%s/%s", url.PathEscape(namespace), kind)
	if err := c.get(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// Snapshot fetches the nested snapshot for one workload.
func (c *Client) Snapshot(ctx context.Context, namespace string, kind models.WorkloadKind, name string) (models.Snapshot, error) {
	path := fmt.Sprintf("/api/v1/topology/%s/%s/%s", url.PathEscape(namespace), kind, url.PathEscape(name))

	var snap models.Snapshot
	switch kind {
	case models.WorkloadDeployment:
		snap = &models.DeploymentTopology{}
	case models.WorkloadDaemonSet:
		snap = &models.DaemonSetTopology{}
	case models.WorkloadJob:
		snap = &models.JobTopology{}
	case models.WorkloadCronJob:
		snap = &models.CronJobTopology{}
	default:
		return nil, fmt.Errorf("unsupported workload kind %q", kind)
	}
	if err := c.get(ctx, path, nil, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// Graph fetches the server-side rendered graph for one workload with the
// given filters and view options applied.
func (c *Client) Graph(ctx context.Context, namespace string, kind models.WorkloadKind, name string, filters models.TopologyFilters, opts models.TopologyViewOptions) (*models.TopologyGraph, error) {
	path := fmt.Sprintf("/api/v1/topology/%s/%s/%s/graph", url.PathEscape(namespace), kind, url.PathEscape(name))
	q := url.Values{}
	q.Set("layout", string(opts.Layout))
	q.Set("spacing", fmt.Sprintf("%g", opts.Spacing))
	q.Set("showReplicaSets", fmt.Sprintf("%t", filters.ShowReplicaSets))
	q.Set("showPods", fmt.Sprintf("%t", filters.ShowPods))
	q.Set("showContainers", fmt.Sprintf("%t", filters.ShowContainers))
	q.Set("showServices", fmt.Sprintf("%t", filters.ShowServices))
	q.Set("showEndpoints", fmt.Sprintf("%t", filters.ShowEndpoints))
	q.Set("showSecrets", fmt.Sprintf("%t", filters.ShowSecrets))
	q.Set("showConfigMaps", fmt.Sprintf("%t", filters.ShowConfigMaps))
	q.Set("showServiceAccount", fmt.Sprintf("%t", filters.ShowServiceAccount))
	q.Set("showRBAC", fmt.Sprintf("%t", filters.ShowRBAC))
	q.Set("statusFilter", filters.StatusFilter)
	if filters.SearchTerm != "" {
		q.Set("search", filters.SearchTerm)
	}
	var graph models.TopologyGraph
	if err := c.get(ctx, path, q, &graph); err != nil {
		return nil, err
	}
	return &graph, nil
}
