// Package websocket pushes topology updates to subscribed clients. Each
// client subscribes to one workload; the hub batches informer changes and
// fans the batches out to the clients whose subscription scope they touch.
package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/PrasadTelasula/kaptivan-sub002/internal/models"
)

const flushInterval = 250 * time.Millisecond

// Subscription scopes one client to one workload's namespace.
type Subscription struct {
	Namespace string
	Kind      models.WorkloadKind
	Name      string
}

// matches reports whether a change is relevant to the subscription.
// Cluster-scoped changes (empty namespace) reach every subscriber. Workload,
// pod, and replicaset changes are additionally scoped to the subscribed
// workload so a busy neighbor in the same namespace does not leak into the
// frame; auxiliary kinds (services, config, RBAC) pass on namespace alone
// since their relevance is decided by the reconciler.
func (s Subscription) matches(change models.ResourceChange) bool {
	if change.Namespace == "" {
		return true
	}
	if change.Namespace != s.Namespace {
		return false
	}
	switch change.ResourceType {
	case models.ResourceDeployment, models.ResourceDaemonSet, models.ResourceJob, models.ResourceCronJob:
		return change.ResourceID == s.Name
	case models.ResourcePod, models.ResourceReplicaSet:
		return s.ownsChild(change)
	}
	return true
}

// ownsChild reports whether a pod or replicaset change belongs to the
// subscribed workload. Controllers prefix child names with the workload name;
// pod payloads may instead carry the owning ReplicaSet.
func (s Subscription) ownsChild(change models.ResourceChange) bool {
	if strings.HasPrefix(change.ResourceID, s.Name+"-") {
		return true
	}
	var payload struct {
		Owner string `json:"ownerReplicaSet"`
	}
	if len(change.Data) > 0 && json.Unmarshal(change.Data, &payload) == nil && payload.Owner != "" {
		return strings.HasPrefix(payload.Owner, s.Name+"-")
	}
	return false
}

// Refresher produces the full current state of a subscription as an update
// batch, used on subscribe and on explicit refresh.
type Refresher func(ctx context.Context, sub Subscription) (models.TopologyUpdate, error)

// Hub maintains active connections and delivers batched updates.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	changes    chan models.ResourceChange

	refresher Refresher
	log       *slog.Logger

	mu     sync.RWMutex
	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub creates a hub. refresher may be nil when refresh is served by
// another layer.
func NewHub(ctx context.Context, log *slog.Logger, refresher Refresher) *Hub {
	if log == nil {
		log = slog.Default()
	}
	hubCtx, cancel := context.WithCancel(ctx)
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		changes:    make(chan models.ResourceChange, 1024),
		refresher:  refresher,
		log:        log,
		ctx:        hubCtx,
		cancel:     cancel,
	}
}

// Publish enqueues a change for delivery. Satisfies the informer watcher's
// sink signature.
func (h *Hub) Publish(change models.ResourceChange) {
	select {
	case h.changes <- change:
	case <-h.ctx.Done():
	}
}

// Run owns the client set and the flush loop. Changes accumulate between
// ticks so a burst of informer events becomes one frame per client.
func (h *Hub) Run() {
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	var pending []models.ResourceChange
	for {
		select {
		case <-h.ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()

		case change := <-h.changes:
			pending = append(pending, change)

		case <-ticker.C:
			if len(pending) == 0 {
				continue
			}
			h.flush(pending)
			pending = nil
		}
	}
}

func (h *Hub) flush(pending []models.ResourceChange) {
	now := time.Now().UTC()
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		sub, ok := client.subscription()
		if !ok {
			continue
		}
		var relevant []models.ResourceChange
		for _, change := range pending {
			if sub.matches(change) {
				relevant = append(relevant, change)
			}
		}
		if len(relevant) == 0 {
			continue
		}
		data, err := json.Marshal(models.TopologyUpdate{Changes: relevant, Timestamp: now})
		if err != nil {
			h.log.Error("marshal update", "error", err)
			continue
		}
		select {
		case client.send <- data:
		default:
			// Client buffer full, drop the connection.
			close(client.send)
			delete(h.clients, client)
		}
	}
}

// refresh sends the full current state to one client.
func (h *Hub) refresh(client *Client, sub Subscription) {
	if h.refresher == nil {
		return
	}
	update, err := h.refresher(h.ctx, sub)
	if err != nil {
		h.log.Error("refresh subscription",
			"namespace", sub.Namespace, "workload", sub.Name, "error", err)
		return
	}
	data, err := json.Marshal(update)
	if err != nil {
		h.log.Error("marshal refresh", "error", err)
		return
	}
	h.deliver(client, data)
}

// deliver hands a frame to a client's write pump. Every close of a send
// channel happens under the write lock, so holding the read lock here makes
// the registration check and the send atomic with respect to drops; a client
// that is gone or saturated loses the frame instead of panicking the sender.
func (h *Hub) deliver(client *Client, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.clients[client] {
		return
	}
	select {
	case client.send <- data:
	default:
	}
}

// Stop shuts the hub down and closes every client.
func (h *Hub) Stop() {
	h.cancel()
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
