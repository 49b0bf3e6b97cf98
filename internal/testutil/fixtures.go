package testutil

import (
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/crypto/bcrypt"

	"mitaict-site/internal/domain"
)

// Counter for generating unique IDs
var idCounter atomic.Int64

// nextID generates a unique ID for test fixtures
func nextID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, idCounter.Add(1))
}

// AdminOptions allows customizing admin fixture creation
type AdminOptions struct {
	ID        string
	Username  string
	Email     string
	Password  string
	CreatedAt time.Time
}

// NewTestAdmin creates an admin whose PasswordHash matches Password.
// The hash uses bcrypt.MinCost to keep tests fast.
func NewTestAdmin(opts ...func(*AdminOptions)) *domain.Admin {
	o := &AdminOptions{
		ID:       nextID("admin"),
		Username: fmt.Sprintf("admin%d", idCounter.Load()),
		Password: "admin123",
	}

	for _, opt := range opts {
		opt(o)
	}

	if o.Email == "" {
		o.Email = o.Username + "@mitaict.com"
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(o.Password), bcrypt.MinCost)
	if err != nil {
		panic(fmt.Sprintf("testutil: hash password: %v", err))
	}

	return &domain.Admin{
		ID:           o.ID,
		Username:     o.Username,
		Email:        o.Email,
		PasswordHash: string(hash),
		CreatedAt:    o.CreatedAt,
	}
}

// WithAdminID sets the admin ID
func WithAdminID(id string) func(*AdminOptions) {
	return func(o *AdminOptions) {
		o.ID = id
	}
}

// WithUsername sets the username
func WithUsername(username string) func(*AdminOptions) {
	return func(o *AdminOptions) {
		o.Username = username
	}
}

// WithEmail sets the email
func WithEmail(email string) func(*AdminOptions) {
	return func(o *AdminOptions) {
		o.Email = email
	}
}

// WithPassword sets the plaintext password the hash is derived from
func WithPassword(password string) func(*AdminOptions) {
	return func(o *AdminOptions) {
		o.Password = password
	}
}

// SessionOptions allows customizing session fixture creation
type SessionOptions struct {
	AdminID    string
	Token      string
	AuthMethod string
	ExpiresAt  time.Time
}

// NewTestSession creates a test session with sensible defaults
func NewTestSession(opts ...func(*SessionOptions)) *domain.Session {
	o := &SessionOptions{
		AdminID:    nextID("admin"),
		Token:      nextID("token"),
		AuthMethod: domain.AuthMethodPassword,
		ExpiresAt:  time.Now().Add(24 * time.Hour),
	}

	for _, opt := range opts {
		opt(o)
	}

	return &domain.Session{
		ID:         nextID("session"),
		AdminID:    o.AdminID,
		Token:      o.Token,
		AuthMethod: o.AuthMethod,
		ExpiresAt:  o.ExpiresAt,
		CreatedAt:  time.Now(),
	}
}

// WithSessionAdminID sets the admin the session belongs to
func WithSessionAdminID(adminID string) func(*SessionOptions) {
	return func(o *SessionOptions) {
		o.AdminID = adminID
	}
}

// WithToken sets the session token
func WithToken(token string) func(*SessionOptions) {
	return func(o *SessionOptions) {
		o.Token = token
	}
}

// WithExpired creates an expired session
func WithExpired() func(*SessionOptions) {
	return func(o *SessionOptions) {
		o.ExpiresAt = time.Now().Add(-1 * time.Hour)
	}
}

// NewTestContact creates a contact submission with sensible defaults
func NewTestContact() *domain.ContactSubmission {
	n := idCounter.Add(1)
	return &domain.ContactSubmission{
		Name:    fmt.Sprintf("Visitor %d", n),
		Email:   fmt.Sprintf("visitor%d@example.com", n),
		Phone:   "+46 70 123 4567",
		Service: "IT and Telecommunication",
		Comment: "We need a network audit.",
	}
}
