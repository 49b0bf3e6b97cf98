package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mitaict-site/internal/client/apierr"
	"mitaict-site/internal/client/cache"
	"mitaict-site/internal/client/session"
	"mitaict-site/internal/client/storage"
	"mitaict-site/internal/domain"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *session.Manager) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := New(srv.URL + "/api")
	manager, err := session.NewManager(context.Background(), storage.NewMemoryStore(), client.Auth)
	require.NoError(t, err)
	client.SetAuthorizer(manager)
	return client, manager
}

func TestLogin_StoresTokenAndAttachesIt(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/admin/login", func(w http.ResponseWriter, r *http.Request) {
		var creds session.Credentials
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		if creds.Password != "admin123" {
			http.Error(w, `{"detail":"Incorrect username or password"}`, http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(TokenResponse{AccessToken: "tok-1", TokenType: "bearer"})
	})
	mux.HandleFunc("/api/admin/contacts", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode([]domain.Contact{{ID: "c1", Name: "Ada"}})
	})

	client, manager := newTestClient(t, mux)
	ctx := context.Background()

	_, err := manager.Login(ctx, session.Credentials{Username: "admin", Password: "wrong"})
	require.ErrorIs(t, err, session.ErrInvalidCredentials)
	assert.Contains(t, err.Error(), "Incorrect username or password")
	assert.False(t, manager.IsAuthenticated())

	sess, err := manager.Login(ctx, session.Credentials{Username: "admin", Password: "admin123"})
	require.NoError(t, err)
	assert.Equal(t, "tok-1", sess.Token)

	contacts, err := client.Contacts.List(ctx)
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "Ada", contacts[0].Name)
}

func TestUnauthorizedResponse_ClearsSessionOnce(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/admin/login", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(TokenResponse{AccessToken: "stale", TokenType: "bearer"})
	})
	mux.HandleFunc("/api/admin/contacts", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"session expired"}`, http.StatusUnauthorized)
	})

	client, manager := newTestClient(t, mux)
	ctx := context.Background()

	var notified int32
	manager.OnUnauthorized(func() { atomic.AddInt32(&notified, 1) })

	_, err := manager.Login(ctx, session.Credentials{Username: "admin", Password: "x"})
	require.NoError(t, err)

	_, err = client.Contacts.List(ctx)
	require.Error(t, err)
	assert.True(t, apierr.IsUnauthorized(err))
	assert.False(t, manager.IsAuthenticated())

	_, err = client.Contacts.List(ctx)
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&notified))
}

func TestFailedLogin_KeepsExistingSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/admin/login", func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		var creds session.Credentials
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		if creds.Password != "admin123" {
			http.Error(w, `{"detail":"Incorrect username or password"}`, http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(TokenResponse{AccessToken: "tok-1", TokenType: "bearer"})
	})
	mux.HandleFunc("/api/admin/google-login", func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		http.Error(w, `{"detail":"Unauthorized email"}`, http.StatusUnauthorized)
	})

	_, manager := newTestClient(t, mux)
	ctx := context.Background()

	_, err := manager.Login(ctx, session.Credentials{Username: "admin", Password: "admin123"})
	require.NoError(t, err)

	_, err = manager.Login(ctx, session.Credentials{Username: "admin", Password: "wrong"})
	require.ErrorIs(t, err, session.ErrInvalidCredentials)
	_, err = manager.LoginFederated(ctx, "bad-code")
	require.ErrorIs(t, err, session.ErrInvalidCredentials)

	assert.True(t, manager.IsAuthenticated())
	assert.Equal(t, "tok-1", manager.Current().Token)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   apierr.Kind
	}{
		{"validation", http.StatusBadRequest, `{"error":"title is required"}`, apierr.KindValidation},
		{"not found", http.StatusNotFound, `{"error":"service not found"}`, apierr.KindNotFound},
		{"conflict", http.StatusConflict, `{"error":"duplicate"}`, apierr.KindConflict},
		{"server error", http.StatusInternalServerError, `{"error":"boom"}`, apierr.KindUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, tt.body, tt.status)
			}))

			_, err := client.Services.List(context.Background())
			require.Error(t, err)
			assert.Equal(t, tt.kind, apierr.KindOf(err))
		})
	}
}

func TestTransportFailure_IsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	client := New(srv.URL + "/api")
	_, err := client.Services.List(context.Background())
	require.Error(t, err)
	assert.True(t, apierr.IsUnavailable(err))
}

func TestCollection_DrivesResourceCache(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/services", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]domain.Service{{ID: "1", Title: "IT"}})
	})
	mux.HandleFunc("POST /api/admin/services", func(w http.ResponseWriter, r *http.Request) {
		var s domain.Service
		require.NoError(t, json.NewDecoder(r.Body).Decode(&s))
		s.ID = "42"
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(s)
	})
	mux.HandleFunc("PUT /api/admin/services/{id}", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"title is required"}`, http.StatusBadRequest)
	})
	mux.HandleFunc("DELETE /api/admin/services/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	client, _ := newTestClient(t, mux)
	ctx := context.Background()
	services := cache.New[domain.Service](client.Services)

	_, err := services.Load(ctx)
	require.NoError(t, err)

	created, err := services.Create(ctx, domain.Service{Title: "Teams", Description: "d"})
	require.NoError(t, err)
	assert.Equal(t, "42", created.ID)

	_, err = services.Update(ctx, "1", func(s domain.Service) domain.Service {
		s.Title = ""
		return s
	})
	require.Error(t, err)
	assert.True(t, apierr.IsValidation(err))
	got, ok := services.Get("1")
	require.True(t, ok)
	assert.Equal(t, "IT", got.Value.Title)

	require.NoError(t, services.Delete(ctx, "42"))
	assert.Len(t, services.Items(), 1)
}

func TestCollection_UnsupportedOperation(t *testing.T) {
	client, _ := newTestClient(t, http.NotFoundHandler())

	_, err := client.Contacts.Create(context.Background(), domain.Contact{Name: "x"})
	require.Error(t, err)
	assert.True(t, apierr.IsValidation(err))
}

func TestMeetingRequestStatusRoute(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/admin/meeting-requests/m%201/status", r.URL.EscapedPath())
		var m domain.MeetingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&m))
		m.ID = "m 1"
		json.NewEncoder(w).Encode(m)
	}))

	updated, err := client.MeetingRequests.Update(context.Background(), "m 1",
		domain.MeetingRequest{Status: domain.MeetingStatusApproved, AdminNotes: "ok"})
	require.NoError(t, err)
	assert.Equal(t, domain.MeetingStatusApproved, updated.Status)
}

func TestExportContacts(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/admin/contacts/export/csv", r.URL.Path)
		w.Header().Set("Content-Type", "text/csv")
		io.WriteString(w, "name,email\nAda,ada@example.com\n")
	}))

	body, err := client.ExportContacts(context.Background(), "csv")
	require.NoError(t, err)
	defer body.Close()

	raw, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Ada,ada@example.com")
}

func TestChangePassword_WrongCurrentKeepsSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/admin/login", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(TokenResponse{AccessToken: "tok", TokenType: "bearer"})
	})
	mux.HandleFunc("/api/admin/change-password", func(w http.ResponseWriter, r *http.Request) {
		var req changePasswordRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.CurrentPassword != "admin123" {
			http.Error(w, `{"error":"current password is incorrect"}`, http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	_, manager := newTestClient(t, mux)
	ctx := context.Background()
	_, err := manager.Login(ctx, session.Credentials{Username: "admin", Password: "admin123"})
	require.NoError(t, err)

	err = manager.ChangePassword(ctx, "nope", "newpass1")
	require.Error(t, err)
	assert.True(t, apierr.IsValidation(err))
	assert.True(t, manager.IsAuthenticated())

	require.NoError(t, manager.ChangePassword(ctx, "admin123", "newpass1"))
	assert.False(t, manager.IsAuthenticated())
}

func TestTrackingConfig(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"platforms":{"facebook":{"enabled":true,"pixel_id":"px"}}}`)
	}))

	cfg, err := client.TrackingConfig(context.Background())
	require.NoError(t, err)
	assert.True(t, cfg.Platform(domain.PlatformFacebook).Enabled)
	assert.Equal(t, "px", cfg.Platform(domain.PlatformFacebook).PixelID)
}
