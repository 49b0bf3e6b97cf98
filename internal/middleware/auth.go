package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"mitaict-site/internal/domain"
	"mitaict-site/internal/observability"
)

type contextKey string

const (
	AdminIDKey contextKey = "admin_id"
	SessionKey contextKey = "session"
)

// SessionValidator resolves a bearer token to a live session.
type SessionValidator interface {
	ValidateSession(ctx context.Context, token string) (*domain.Session, error)
}

// Auth rejects requests without a valid bearer token. The token is read from
// the Authorization header, or from the token query parameter for websocket
// upgrades where browsers cannot set headers.
func Auth(validator SessionValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				unauthorized(w, "Not authenticated")
				return
			}

			session, err := validator.ValidateSession(r.Context(), token)
			if err != nil {
				if !errors.Is(err, domain.ErrSessionNotFound) && !errors.Is(err, domain.ErrSessionExpired) {
					observability.FromContext(r.Context()).Error("failed to validate session", "error", err)
				}
				unauthorized(w, "Could not validate credentials")
				return
			}

			ctx := WithSession(r.Context(), session)
			ctx = WithAdminID(ctx, session.AdminID)
			ctx = observability.WithAdminID(ctx, session.AdminID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the access token from the request, or "".
func BearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			return ""
		}
		return strings.TrimSpace(token)
	}
	return r.URL.Query().Get("token")
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	http.Error(w, `{"error":"`+message+`"}`, http.StatusUnauthorized)
}

// GetAdminID retrieves the authenticated admin ID from context
func GetAdminID(ctx context.Context) (string, bool) {
	adminID, ok := ctx.Value(AdminIDKey).(string)
	return adminID, ok
}

// GetSession retrieves the session from context
func GetSession(ctx context.Context) (*domain.Session, bool) {
	session, ok := ctx.Value(SessionKey).(*domain.Session)
	return session, ok
}

// WithAdminID adds admin ID to context (for testing)
func WithAdminID(ctx context.Context, adminID string) context.Context {
	return context.WithValue(ctx, AdminIDKey, adminID)
}

// WithSession adds session to context (for testing)
func WithSession(ctx context.Context, session *domain.Session) context.Context {
	return context.WithValue(ctx, SessionKey, session)
}
