package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"mitaict-site/internal/middleware"
	"mitaict-site/internal/observability"
	ws "mitaict-site/internal/websocket"
)

// FeedHandler upgrades authenticated admins onto the live activity feed.
type FeedHandler struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
}

func NewFeedHandler(hub *ws.Hub, allowedOrigins []string) *FeedHandler {
	return &FeedHandler{hub: hub, upgrader: createUpgrader(allowedOrigins)}
}

// createUpgrader accepts requests without an Origin header, any origin when
// "*" is configured, and otherwise only the listed origins.
func createUpgrader(allowedOrigins []string) websocket.Upgrader {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	wildcard := false
	for _, origin := range allowedOrigins {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if origin == "*" {
			wildcard = true
		}
		if origin != "" {
			allowed[origin] = struct{}{}
		}
	}

	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || wildcard {
				return true
			}
			_, ok := allowed[origin]
			return ok
		},
	}
}

// HandleConnection must run behind middleware.Auth, which accepts the
// token from the query string for browser websocket clients.
func (h *FeedHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.GetAdminID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		observability.FromContext(r.Context()).Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	observability.FromContext(r.Context()).Info("admin joined activity feed")
	go ws.NewClient(h.hub, conn, adminID).Serve()
}
