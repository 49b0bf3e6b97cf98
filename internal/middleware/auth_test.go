package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mitaict-site/internal/domain"
	"mitaict-site/internal/testutil"
)

type validatorFunc func(ctx context.Context, token string) (*domain.Session, error)

func (f validatorFunc) ValidateSession(ctx context.Context, token string) (*domain.Session, error) {
	return f(ctx, token)
}

func sessionsValidator(sessions map[string]*domain.Session) SessionValidator {
	return validatorFunc(func(_ context.Context, token string) (*domain.Session, error) {
		s, ok := sessions[token]
		if !ok {
			return nil, domain.ErrSessionNotFound
		}
		if time.Now().After(s.ExpiresAt) {
			return nil, domain.ErrSessionExpired
		}
		return s, nil
	})
}

func TestAuth_ValidBearerToken(t *testing.T) {
	session := testutil.NewTestSession(
		testutil.WithToken("valid-token"),
		testutil.WithSessionAdminID("admin-123"),
	)
	validator := sessionsValidator(map[string]*domain.Session{session.Token: session})

	var gotAdminID string
	var gotSession *domain.Session
	handler := Auth(validator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAdminID, _ = GetAdminID(r.Context())
		gotSession, _ = GetSession(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/contacts", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin-123", gotAdminID)
	require.NotNil(t, gotSession)
	assert.Equal(t, "valid-token", gotSession.Token)
}

func TestAuth_TokenQueryParameter(t *testing.T) {
	session := testutil.NewTestSession(testutil.WithToken("ws-token"))
	validator := sessionsValidator(map[string]*domain.Session{session.Token: session})

	called := false
	handler := Auth(validator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/ws/admin/feed?token=ws-token", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.True(t, called)
}

func TestAuth_Rejections(t *testing.T) {
	expired := testutil.NewTestSession(testutil.WithToken("old-token"), testutil.WithExpired())
	validator := sessionsValidator(map[string]*domain.Session{expired.Token: expired})

	tests := []struct {
		name    string
		header  string
		message string
	}{
		{"no header", "", "Not authenticated"},
		{"wrong scheme", "Basic dXNlcjpwYXNz", "Not authenticated"},
		{"empty bearer", "Bearer ", "Not authenticated"},
		{"unknown token", "Bearer nope", "Could not validate credentials"},
		{"expired token", "Bearer old-token", "Could not validate credentials"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := Auth(validator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/admin/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.False(t, called, "next handler should not be called")
			assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
			testutil.AssertJSONError(t, w, http.StatusUnauthorized, tt.message)
		})
	}
}

func TestAuth_ValidatorError(t *testing.T) {
	validator := validatorFunc(func(context.Context, string) (*domain.Session, error) {
		return nil, errors.New("database connection failed")
	})

	handler := Auth(validator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/me", nil)
	req.Header.Set("Authorization", "Bearer any")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	testutil.AssertJSONError(t, w, http.StatusUnauthorized, "Could not validate credentials")
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		header string
		want   string
	}{
		{"header", "/x", "Bearer abc", "abc"},
		{"lowercase scheme", "/x", "bearer abc", "abc"},
		{"header wins over query", "/x?token=q", "Bearer h", "h"},
		{"query", "/x?token=q", "", "q"},
		{"malformed header", "/x?token=q", "abc", ""},
		{"none", "/x", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.want, BearerToken(req))
		})
	}
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()

	_, ok := GetAdminID(ctx)
	assert.False(t, ok)
	_, ok = GetSession(ctx)
	assert.False(t, ok)

	ctx = context.WithValue(ctx, AdminIDKey, 42)
	_, ok = GetAdminID(ctx)
	assert.False(t, ok, "wrong type should not be returned")

	session := testutil.NewTestSession()
	ctx = WithSession(WithAdminID(context.Background(), "admin-1"), session)
	adminID, ok := GetAdminID(ctx)
	assert.True(t, ok)
	assert.Equal(t, "admin-1", adminID)
	got, ok := GetSession(ctx)
	assert.True(t, ok)
	assert.Same(t, session, got)
}
