// Package session orchestrates a live topology view: it owns the current
// snapshot for one workload, applies streamed changes in order, and rebuilds
// the positioned graph synchronously after every state change so consumers
// always read a graph that matches the snapshot.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/PrasadTelasula/kaptivan-sub002/internal/layout"
	"github.com/PrasadTelasula/kaptivan-sub002/internal/models"
	"github.com/PrasadTelasula/kaptivan-sub002/internal/reconcile"
	"github.com/PrasadTelasula/kaptivan-sub002/internal/topology"
)

// Fetcher loads workload snapshots. *fetch.Client satisfies it.
type Fetcher interface {
	Snapshot(ctx context.Context, namespace string, kind models.WorkloadKind, name string) (models.Snapshot, error)
}

// Session is a single-workload view state machine. All methods are safe for
// concurrent use; rebuilds happen under the lock so the published graph never
// mixes two states.
type Session struct {
	fetcher Fetcher
	cluster string
	log     *slog.Logger
	onGraph func(*models.TopologyGraph)

	mu         sync.Mutex
	generation uint64
	snap       models.Snapshot
	filters    models.TopologyFilters
	view       models.TopologyViewOptions
	graph      *models.TopologyGraph
}

// New creates a session. onGraph, when non-nil, is invoked with every rebuilt
// graph; it runs under the session lock and must not call back in.
func New(fetcher Fetcher, cluster string, log *slog.Logger, onGraph func(*models.TopologyGraph)) *Session {
	if log == nil {
		log = slog.Default()
	}
	return &Session{
		fetcher: fetcher,
		cluster: cluster,
		log:     log,
		onGraph: onGraph,
		filters: models.DefaultFilters(),
		view:    models.DefaultViewOptions(),
	}
}

// Load fetches the snapshot for a workload and makes it current. Switching
// workloads bumps the generation; a slow fetch whose generation is no longer
// current is discarded so a stale response can never clobber a newer view.
func (s *Session) Load(ctx context.Context, namespace string, kind models.WorkloadKind, name string) error {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	snap, err := s.fetcher.Snapshot(ctx, namespace, kind, name)
	if err != nil {
		return fmt.Errorf("load %s/%s %s: %w", namespace, name, kind, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		s.log.Debug("discarding stale snapshot fetch",
			"workload", name, "generation", gen, "current", s.generation)
		return nil
	}
	s.snap = snap
	return s.rebuildLocked()
}

// HandleUpdate applies a streamed batch onto the current snapshot and
// rebuilds. Implements stream.Sink. Changes from another namespace are
// discarded: a frame still in flight when the selection switches must not
// materialize foreign resources into the new topology. A malformed change
// keeps the state as of the last good change and logs; reapplying the same
// batch is harmless.
func (s *Session) HandleUpdate(update models.TopologyUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap == nil {
		return
	}
	current := s.snap.SnapshotNamespace()
	relevant := make([]models.ResourceChange, 0, len(update.Changes))
	for _, change := range update.Changes {
		if change.Namespace != "" && change.Namespace != current {
			s.log.Debug("discarding change from superseded selection",
				"resource", change.ResourceType, "name", change.ResourceID,
				"namespace", change.Namespace, "current", current)
			continue
		}
		relevant = append(relevant, change)
	}
	if len(relevant) == 0 {
		return
	}
	update.Changes = relevant
	next, err := reconcile.ApplyUpdate(s.snap, update)
	if err != nil {
		s.log.Warn("partial update applied", "error", err)
	}
	s.snap = next
	if err := s.rebuildLocked(); err != nil {
		s.log.Error("rebuild after update failed", "error", err)
	}
}

// SetFilters replaces the visibility filters and rebuilds.
func (s *Session) SetFilters(filters models.TopologyFilters) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = filters
	if s.snap == nil {
		return nil
	}
	return s.rebuildLocked()
}

// SetViewOptions replaces layout options and rebuilds.
func (s *Session) SetViewOptions(view models.TopologyViewOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = view
	if s.snap == nil {
		return nil
	}
	return s.rebuildLocked()
}

// Graph returns the last built graph, or nil before the first load.
func (s *Session) Graph() *models.TopologyGraph {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph
}

// Snapshot returns the current snapshot, or nil before the first load. The
// returned value must be treated as read-only.
func (s *Session) Snapshot() models.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

func (s *Session) rebuildLocked() error {
	g, err := topology.Build(s.snap, s.filters, s.cluster)
	if err != nil {
		return err
	}
	nodes, edges := layout.Arrange(g.Nodes, g.Edges, s.view)
	s.graph = &models.TopologyGraph{Nodes: nodes, Edges: edges}
	if s.onGraph != nil {
		s.onGraph(s.graph)
	}
	return nil
}
