package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
)

// Auth methods recorded on a session.
const (
	AuthMethodPassword = "password"
	AuthMethodGoogle   = "google"
)

// Session represents an admin bearer-token session
type Session struct {
	ID         string    `json:"id"`
	AdminID    string    `json:"admin_id"`
	Token      string    `json:"token"`
	AuthMethod string    `json:"auth_method"`
	ExpiresAt  time.Time `json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// SessionRepository defines the interface for session data access
type SessionRepository interface {
	Create(ctx context.Context, session *Session) error
	GetByToken(ctx context.Context, token string) (*Session, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context) (int64, error)
}
