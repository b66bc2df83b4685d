// Package metrics provides Prometheus metrics for the topology backend
// (RED + build pipeline + WebSocket). Scrapeable at /metrics; dashboards and
// alerts rely on these names.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "kaptivan"

var (
	// HTTPRequestTotal counts requests by method, path, status (RED: rate).
	HTTPRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by method, path, and status.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDurationSeconds is request latency histogram (RED: duration).
	HTTPRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2.5, 10), // 1ms to ~9.3s
		},
		[]string{"method", "path"},
	)

	// GraphBuildDurationSeconds is snapshot-to-graph build latency.
	GraphBuildDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "graph_build_duration_seconds",
			Help:      "Topology graph build duration in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
	)

	// LayoutDurationSeconds is the layout pass latency.
	LayoutDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "layout_duration_seconds",
			Help:      "Graph layout duration in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		},
	)

	// ReconcileChangesTotal counts applied resource changes.
	ReconcileChangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_changes_total",
			Help:      "Total number of resource changes applied, by resource and change type.",
		},
		[]string{"resource", "change"},
	)

	// WebSocketConnectionsActive is the current number of stream subscribers.
	WebSocketConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_connections_active",
			Help:      "Number of active WebSocket connections.",
		},
	)

	// GraphCacheHitsTotal counts graph cache hits.
	GraphCacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "graph_cache_hits_total",
			Help:      "Total number of graph cache hits.",
		},
	)

	// GraphCacheMissesTotal counts graph cache misses.
	GraphCacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "graph_cache_misses_total",
			Help:      "Total number of graph cache misses.",
		},
	)

	// DBQueryDurationSeconds is the history store query latency.
	DBQueryDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "db_query_duration_seconds",
			Help:      "Database query duration in seconds, by operation.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2.5, 10),
		},
		[]string{"operation"},
	)

	// CircuitBreakerState exposes the cluster API breaker state
	// (0=closed, 1=open, 2=half-open).
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cluster_circuit_breaker_state",
			Help:      "Circuit breaker state per cluster (0=closed, 1=open, 2=half-open).",
		},
		[]string{"cluster"},
	)
)
