//go:build e2e
// +build e2e

package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"mitaict-site/internal/client/api"
	"mitaict-site/internal/client/session"
	"mitaict-site/internal/client/storage"
	"mitaict-site/internal/domain"
	"mitaict-site/internal/messaging"
)

const eventTimeout = 10 * time.Second

// adminClient is a logged-in admin API client.
type adminClient struct {
	*api.Client
	sessions *session.Manager
}

var (
	sharedMu    sync.Mutex
	sharedAdmin *adminClient
)

// newAdminClient returns the suite's shared admin session. Login is rate
// limited per address, so tests reuse one session unless they end it.
func newAdminClient(t *testing.T) *adminClient {
	t.Helper()
	sharedMu.Lock()
	defer sharedMu.Unlock()
	if sharedAdmin == nil || !sharedAdmin.sessions.IsAuthenticated() {
		sharedAdmin = loginWith(t, adminPassword)
	}
	return sharedAdmin
}

// resetSharedAdmin forces the next newAdminClient to log in again.
func resetSharedAdmin() {
	sharedMu.Lock()
	sharedAdmin = nil
	sharedMu.Unlock()
}

func loginWith(t *testing.T, password string) *adminClient {
	t.Helper()
	ctx := context.Background()

	store, err := storage.Open(ctx, "memory://")
	require.NoError(t, err)

	client := api.New(baseURL)
	sessions, err := session.NewManager(ctx, store, client.Auth)
	require.NoError(t, err)
	client.SetAuthorizer(sessions)

	_, err = sessions.Login(ctx, session.Credentials{Username: adminUsername, Password: password})
	require.NoError(t, err, "admin login should succeed")
	return &adminClient{Client: client, sessions: sessions}
}

func (c *adminClient) token() string {
	return c.sessions.Current().Token
}

// feedClient is a connection to the admin activity feed.
type feedClient struct {
	conn   *websocket.Conn
	events chan *domain.Event
}

func connectFeed(t *testing.T, token string) (*feedClient, error) {
	t.Helper()
	u := wsURL + "/ws/admin/feed?token=" + url.QueryEscape(token)
	conn, resp, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial failed with status %d: %w", resp.StatusCode, err)
		}
		return nil, err
	}

	fc := &feedClient{conn: conn, events: make(chan *domain.Event, 64)}
	go func() {
		defer close(fc.events)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var ev domain.Event
			if json.Unmarshal(data, &ev) == nil {
				fc.events <- &ev
			}
		}
	}()
	t.Cleanup(func() { conn.Close() })
	return fc, nil
}

// waitFor returns the first event that matches, skipping the rest.
func (fc *feedClient) waitFor(t *testing.T, match func(*domain.Event) bool) *domain.Event {
	t.Helper()
	deadline := time.After(eventTimeout)
	for {
		select {
		case ev, ok := <-fc.events:
			require.True(t, ok, "feed connection closed")
			if match(ev) {
				return ev
			}
		case <-deadline:
			t.Fatal("timed out waiting for feed event")
			return nil
		}
	}
}

// notificationTap records everything routed to the notifications queue.
type notificationTap struct {
	mu     sync.Mutex
	events []*domain.Event
}

func newNotificationTap(ctx context.Context, conn *messaging.RabbitMQ) (*notificationTap, error) {
	msgs, err := conn.ConsumeNotifications()
	if err != nil {
		return nil, fmt.Errorf("failed to consume notifications: %w", err)
	}
	tap := &notificationTap{}
	go messaging.Dispatch(ctx, msgs, false, func(_ context.Context, ev *domain.Event) error {
		tap.mu.Lock()
		tap.events = append(tap.events, ev)
		tap.mu.Unlock()
		return nil
	})
	return tap, nil
}

func (n *notificationTap) find(match func(*domain.Event) bool) *domain.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ev := range n.events {
		if match(ev) {
			return ev
		}
	}
	return nil
}

func (n *notificationTap) waitFor(t *testing.T, match func(*domain.Event) bool) *domain.Event {
	t.Helper()
	var found *domain.Event
	require.Eventually(t, func() bool {
		found = n.find(match)
		return found != nil
	}, eventTimeout, 50*time.Millisecond, "notification never arrived")
	return found
}

func contactWithEmail(email string) func(*domain.Event) bool {
	return func(ev *domain.Event) bool {
		if ev.Type != domain.EventContactSubmitted {
			return false
		}
		var c domain.Contact
		return ev.Decode(&c) == nil && c.Email == email
	}
}
