// Package stream maintains the WebSocket subscription that feeds resource
// changes into a topology session. The client dials, subscribes to one
// workload, and forwards every decoded update batch to the sink; on a broken
// connection it redials with exponential backoff and replays the last
// subscription.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/PrasadTelasula/kaptivan-sub002/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 * 1024

	defaultMaxAttempts = 5
	defaultBaseBackoff = time.Second
	defaultMaxBackoff  = 30 * time.Second
)

// ErrRetriesExhausted is returned by Run once every reconnect attempt has
// failed.
var ErrRetriesExhausted = errors.New("stream: reconnect attempts exhausted")

// Sink receives decoded update batches. Calls arrive from the read loop, one
// at a time, in wire order.
type Sink interface {
	HandleUpdate(models.TopologyUpdate)
}

// Options configures a stream client. URL is required; zero-valued tuning
// fields fall back to defaults.
type Options struct {
	URL         string
	Dialer      *websocket.Dialer
	Logger      *slog.Logger
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

// Client is a subscribing WebSocket consumer. Safe for concurrent use;
// writes are serialized over the single connection.
type Client struct {
	opts Options
	sink Sink
	log  *slog.Logger

	mu   sync.Mutex
	conn *websocket.Conn
	last *models.StreamRequest
}

// New returns a client pushing updates into sink.
func New(opts Options, sink Sink) (*Client, error) {
	if opts.URL == "" {
		return nil, errors.New("stream: URL is required")
	}
	if sink == nil {
		return nil, errors.New("stream: sink is required")
	}
	if opts.Dialer == nil {
		opts.Dialer = websocket.DefaultDialer
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	if opts.BaseBackoff <= 0 {
		opts.BaseBackoff = defaultBaseBackoff
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = defaultMaxBackoff
	}
	return &Client{opts: opts, sink: sink, log: opts.Logger}, nil
}

// Backoff returns the delay before reconnect attempt n (zero-based): the base
// doubled per attempt, capped at the ceiling.
func Backoff(attempt int, base, ceiling time.Duration) time.Duration {
	d := base
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= ceiling {
			return ceiling
		}
	}
	if d > ceiling {
		return ceiling
	}
	return d
}

// Run connects and consumes updates until the context is canceled or the
// reconnect budget is spent. A connection that manages to deliver at least
// one message resets the attempt counter.
func (c *Client) Run(ctx context.Context) error {
	attempt := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		delivered, err := c.connectAndRead(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if delivered {
			attempt = 0
		}
		attempt++
		if attempt >= c.opts.MaxAttempts {
			return fmt.Errorf("%w: last error: %v", ErrRetriesExhausted, err)
		}
		delay := Backoff(attempt-1, c.opts.BaseBackoff, c.opts.MaxBackoff)
		c.log.Warn("stream disconnected, reconnecting",
			"attempt", attempt, "delay", delay, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

// connectAndRead dials, replays the subscription, and reads until the
// connection breaks. Reports whether any message was delivered.
func (c *Client) connectAndRead(ctx context.Context) (bool, error) {
	conn, _, err := c.opts.Dialer.DialContext(ctx, c.opts.URL, nil)
	if err != nil {
		return false, fmt.Errorf("dial %s: %w", c.opts.URL, err)
	}

	c.mu.Lock()
	c.conn = conn
	replay := c.last
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
		conn.Close()
	}()

	if replay != nil {
		if err := c.writeJSON(*replay); err != nil {
			return false, fmt.Errorf("resubscribe: %w", err)
		}
	}

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	pingCtx, stopPing := context.WithCancel(ctx)
	defer stopPing()
	go c.pingLoop(pingCtx, conn)

	delivered := false
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				return delivered, fmt.Errorf("read: %w", err)
			}
			return delivered, err
		}
		var update models.TopologyUpdate
		if err := json.Unmarshal(message, &update); err != nil {
			c.log.Warn("dropping malformed update", "error", err)
			continue
		}
		delivered = true
		c.sink.HandleUpdate(update)
	}
}

func (c *Client) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			c.mu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// Subscribe sends a subscribe frame for the workload and remembers it for
// replay after a reconnect.
func (c *Client) Subscribe(namespace string, kind models.WorkloadKind, name string) error {
	req := models.StreamRequest{
		Type:      models.StreamSubscribe,
		Namespace: namespace,
		Kind:      kind,
		Name:      name,
	}
	c.mu.Lock()
	c.last = &req
	c.mu.Unlock()
	return c.writeJSON(req)
}

// Refresh asks the server to resend the full current state of the
// subscription.
func (c *Client) Refresh() error {
	c.mu.Lock()
	last := c.last
	c.mu.Unlock()
	if last == nil {
		return errors.New("stream: refresh before subscribe")
	}
	req := *last
	req.Type = models.StreamRefresh
	return c.writeJSON(req)
}

func (c *Client) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return errors.New("stream: not connected")
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(v)
}
