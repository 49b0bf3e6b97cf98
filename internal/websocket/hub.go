package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"

	"mitaict-site/internal/domain"
	"mitaict-site/internal/observability"
)

// Hub fans site events out to every connected admin.
type Hub struct {
	clients map[*Client]struct{}

	broadcast  chan *domain.Event
	register   chan *Client
	unregister chan *Client

	// Closed when Run returns; Broadcast and Register stop blocking.
	done chan struct{}

	connected atomic.Int64
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan *domain.Event, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run(ctx context.Context) error {
	defer h.shutdown()

	for {
		select {
		case <-ctx.Done():
			slog.Info("admin feed hub shutting down gracefully")
			return ctx.Err()

		case client := <-h.register:
			h.clients[client] = struct{}{}
			h.connected.Add(1)
			observability.FeedConnectionsActive.Inc()
			slog.Info("admin feed client registered", slog.String("admin_id", client.adminID))

		case client := <-h.unregister:
			h.removeClient(client)

		case event := <-h.broadcast:
			h.deliver(event)
		}
	}
}

func (h *Hub) deliver(event *domain.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("failed to marshal feed event",
			slog.String("error", err.Error()),
			slog.String("event_id", event.ID))
		return
	}

	for client := range h.clients {
		select {
		case client.send <- data:
			observability.FeedEventsSent.WithLabelValues(event.Type).Inc()
		default:
			// Slow consumer; drop it rather than stall every admin.
			slog.Warn("admin feed client too slow, disconnecting", slog.String("admin_id", client.adminID))
			h.removeClient(client)
		}
	}
}

// removeClient is the only place a send channel is closed, and only for
// clients still in the map, so each channel is closed once.
func (h *Hub) removeClient(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)
	h.connected.Add(-1)
	observability.FeedConnectionsActive.Dec()
	slog.Info("admin feed client unregistered", slog.String("admin_id", client.adminID))
}

// shutdown performs graceful cleanup of all connections
func (h *Hub) shutdown() {
	close(h.done)

	for client := range h.clients {
		h.removeClient(client)
	}

	slog.Info("admin feed hub shutdown complete")
}

// Broadcast queues event for every connected admin. It returns false once
// the hub has stopped.
func (h *Hub) Broadcast(event *domain.Event) bool {
	select {
	case h.broadcast <- event:
		return true
	case <-h.done:
		return false
	}
}

// Register registers a client with the hub. It returns false once the hub
// has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Connected reports how many admins are subscribed.
func (h *Hub) Connected() int {
	return int(h.connected.Load())
}
