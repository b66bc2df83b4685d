package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/PrasadTelasula/kaptivan-sub002/internal/models"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 64 * 1024
)

// Client is one WebSocket connection with at most one workload subscription.
type Client struct {
	conn *websocket.Conn
	send chan []byte
	hub  *Hub
	log  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	id     string

	mu  sync.RWMutex
	sub *Subscription
}

// NewClient creates a client for an upgraded connection.
func NewClient(ctx context.Context, hub *Hub, conn *websocket.Conn, id string, log *slog.Logger) *Client {
	clientCtx, cancel := context.WithCancel(ctx)
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		conn:   conn,
		send:   make(chan []byte, 256),
		hub:    hub,
		log:    log,
		ctx:    clientCtx,
		cancel: cancel,
		id:     id,
	}
}

func (c *Client) subscription() (Subscription, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.sub == nil {
		return Subscription{}, false
	}
	return *c.sub, true
}

// ReadPump consumes subscribe/refresh frames until the connection drops.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
			_, message, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					c.log.Warn("websocket read error", "client", c.id, "error", err)
				}
				return
			}
			c.handleMessage(message)
		}
	}
}

// WritePump delivers queued frames and keeps the connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.ctx.Done():
			return

		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Close cancels the client's pumps.
func (c *Client) Close() {
	c.cancel()
}

// handleMessage processes a control frame. A subscribe replaces the current
// subscription and triggers a full-state push; a refresh re-pushes the state
// of the current subscription.
func (c *Client) handleMessage(message []byte) {
	var req models.StreamRequest
	if err := json.Unmarshal(message, &req); err != nil {
		c.log.Warn("malformed control frame", "client", c.id, "error", err)
		return
	}

	switch req.Type {
	case models.StreamSubscribe:
		if req.Name == "" || req.Namespace == "" {
			c.log.Warn("subscribe missing workload or namespace", "client", c.id)
			return
		}
		sub := Subscription{Namespace: req.Namespace, Kind: req.Kind, Name: req.Name}
		c.mu.Lock()
		c.sub = &sub
		c.mu.Unlock()
		go c.hub.refresh(c, sub)

	case models.StreamRefresh:
		if sub, ok := c.subscription(); ok {
			go c.hub.refresh(c, sub)
		}

	default:
		c.log.Warn("unknown control frame type", "client", c.id, "type", req.Type)
	}
}
