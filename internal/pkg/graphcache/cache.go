// Package graphcache provides a TTL cache for positioned topology graphs,
// keyed by workload plus the filter/layout variant that produced them.
// Entries for a namespace are invalidated when a resource change for that
// namespace arrives.
package graphcache

import (
	"strings"
	"sync"
	"time"

	"github.com/PrasadTelasula/kaptivan-sub002/internal/models"
	"github.com/PrasadTelasula/kaptivan-sub002/internal/pkg/metrics"
)

type entry struct {
	graph *models.TopologyGraph
	expAt time.Time
}

// Cache holds graphs with TTL. Thread-safe.
type Cache struct {
	ttl   time.Duration
	mu    sync.RWMutex
	store map[string]*entry
}

// New returns a cache with the given TTL. ttl <= 0 disables the cache: Get
// always misses.
func New(ttl time.Duration) *Cache {
	return &Cache{
		ttl:   ttl,
		store: make(map[string]*entry),
	}
}

// Key builds the cache key for a workload view. variant encodes whatever
// request parameters change the output (filters, layout mode, spacing).
func Key(namespace string, kind models.WorkloadKind, name, variant string) string {
	return namespace + "|" + string(kind) + "|" + name + "|" + variant
}

// Get returns a cached graph when present and fresh.
func (c *Cache) Get(key string) (*models.TopologyGraph, bool) {
	if c.ttl <= 0 {
		metrics.GraphCacheMissesTotal.Inc()
		return nil, false
	}
	c.mu.RLock()
	e, ok := c.store[key]
	c.mu.RUnlock()
	if !ok || e == nil || time.Now().After(e.expAt) {
		metrics.GraphCacheMissesTotal.Inc()
		return nil, false
	}
	metrics.GraphCacheHitsTotal.Inc()
	return e.graph, true
}

// Set stores a graph under the key.
func (c *Cache) Set(key string, graph *models.TopologyGraph) {
	if c.ttl <= 0 || graph == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[key] = &entry{graph: graph, expAt: time.Now().Add(c.ttl)}
}

// InvalidateNamespace removes every entry for the namespace, any workload
// and variant.
func (c *Cache) InvalidateNamespace(namespace string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	prefix := namespace + "|"
	for k := range c.store {
		if strings.HasPrefix(k, prefix) {
			delete(c.store, k)
		}
	}
}

// InvalidateAll clears the cache; used for cluster-scoped changes.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store = make(map[string]*entry)
}
