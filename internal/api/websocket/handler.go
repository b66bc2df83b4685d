package websocket

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/PrasadTelasula/kaptivan-sub002/internal/pkg/metrics"
)

// Handler upgrades HTTP requests into hub clients.
type Handler struct {
	hub      *Hub
	log      *slog.Logger
	upgrader websocket.Upgrader
	ctx      context.Context
}

// NewHandler creates a handler. allowedOrigins restricts the Origin header;
// empty means same-origin browsers and non-browser clients only.
func NewHandler(ctx context.Context, hub *Hub, log *slog.Logger, allowedOrigins []string) *Handler {
	if log == nil {
		log = slog.Default()
	}
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}
	return &Handler{
		hub: hub,
		log: log,
		ctx: ctx,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				return origins[origin] || origins["*"]
			},
		},
	}
}

// ServeWS handles websocket requests from clients.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	clientID := uuid.New().String()
	client := NewClient(h.ctx, h.hub, conn, clientID, h.log)

	h.hub.register <- client
	metrics.WebSocketConnectionsActive.Inc()

	go func() {
		client.WritePump()
		metrics.WebSocketConnectionsActive.Dec()
	}()
	go client.ReadPump()

	h.log.Debug("websocket client connected", "client", clientID)
}
