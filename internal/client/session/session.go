// Package session owns the admin bearer token on the client: it logs in,
// attaches the token to outgoing requests, and drops it when the server
// rejects it.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"mitaict-site/internal/client/apierr"
	"mitaict-site/internal/client/storage"
)

// AuthMethod records how the current token was obtained.
type AuthMethod string

const (
	AuthPassword  AuthMethod = "password"
	AuthFederated AuthMethod = "google"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// CredentialsError is returned when the server rejects a login. Reason holds
// the server's message.
type CredentialsError struct {
	Reason string
}

func (e *CredentialsError) Error() string {
	if e.Reason == "" {
		return ErrInvalidCredentials.Error()
	}
	return fmt.Sprintf("%s: %s", ErrInvalidCredentials, e.Reason)
}

func (e *CredentialsError) Is(target error) bool {
	return target == ErrInvalidCredentials
}

// Credentials are the username/password pair for a password login.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Session is the client's view of the authenticated session.
type Session struct {
	Token  string
	Method AuthMethod
}

// Authenticator is the remote side of the session lifecycle.
type Authenticator interface {
	Login(ctx context.Context, creds Credentials) (string, error)
	LoginFederated(ctx context.Context, code string) (string, error)
	Logout(ctx context.Context, token string) error
	ChangePassword(ctx context.Context, token, current, next string) error
}

// Manager holds the single source of truth for the bearer token.
type Manager struct {
	mu     sync.RWMutex
	token  string
	method AuthMethod

	store  storage.Store
	auth   Authenticator
	logger *slog.Logger

	subMu          sync.Mutex
	onUnauthorized []func()
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for best-effort failures.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// NewManager creates a Manager and restores any token persisted in store.
// A restored token is only a local belief until a request proves otherwise.
func NewManager(ctx context.Context, store storage.Store, auth Authenticator, opts ...Option) (*Manager, error) {
	m := &Manager{
		store:  store,
		auth:   auth,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}

	token, ok, err := store.Get(ctx, storage.KeyAdminToken)
	if err != nil {
		return nil, fmt.Errorf("failed to load session token: %w", err)
	}
	if ok && token != "" {
		m.token = token
		m.method = AuthPassword
		if method, ok, err := store.Get(ctx, storage.KeyAuthMethod); err == nil && ok && method != "" {
			m.method = AuthMethod(method)
		}
	}
	return m, nil
}

// SetAuthenticator wires the remote side after construction, for callers
// whose HTTP client needs the Manager first.
func (m *Manager) SetAuthenticator(auth Authenticator) {
	m.mu.Lock()
	m.auth = auth
	m.mu.Unlock()
}

// Login exchanges username and password for a token and persists it.
func (m *Manager) Login(ctx context.Context, creds Credentials) (Session, error) {
	token, err := m.authenticator().Login(ctx, creds)
	if err != nil {
		return Session{}, loginError(err)
	}
	return m.establish(ctx, token, AuthPassword)
}

// LoginFederated exchanges an identity-provider authorization code for a token.
func (m *Manager) LoginFederated(ctx context.Context, code string) (Session, error) {
	token, err := m.authenticator().LoginFederated(ctx, code)
	if err != nil {
		return Session{}, loginError(err)
	}
	return m.establish(ctx, token, AuthFederated)
}

func loginError(err error) error {
	switch apierr.KindOf(err) {
	case apierr.KindUnauthorized, apierr.KindValidation, apierr.KindNotFound:
		return &CredentialsError{Reason: apierr.MessageOf(err)}
	default:
		return fmt.Errorf("login failed: %w", err)
	}
}

func (m *Manager) establish(ctx context.Context, token string, method AuthMethod) (Session, error) {
	if token == "" {
		return Session{}, &CredentialsError{Reason: "server returned an empty token"}
	}

	if err := m.store.Set(ctx, storage.KeyAdminToken, token); err != nil {
		return Session{}, fmt.Errorf("failed to persist session token: %w", err)
	}
	if err := m.store.Set(ctx, storage.KeyAuthMethod, string(method)); err != nil {
		m.logger.Warn("failed to persist auth method", slog.String("error", err.Error()))
	}

	m.mu.Lock()
	m.token = token
	m.method = method
	m.mu.Unlock()

	return Session{Token: token, Method: method}, nil
}

// Attach adds the bearer header to req when a token is held.
func (m *Manager) Attach(req *http.Request) *http.Request {
	m.mu.RLock()
	token := m.token
	m.mu.RUnlock()

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

// HandleResponse inspects every API response. A 401 for the token currently
// held clears the session and notifies OnUnauthorized subscribers; it returns
// true only for the call that performed the invalidation.
func (m *Manager) HandleResponse(resp *http.Response) bool {
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		return false
	}

	rejected := ""
	if resp.Request != nil {
		rejected = bearerToken(resp.Request.Header.Get("Authorization"))
	}
	if rejected == "" {
		return false
	}

	m.mu.Lock()
	if m.token == "" || m.token != rejected {
		m.mu.Unlock()
		return false
	}
	m.token = ""
	m.method = ""
	m.mu.Unlock()

	m.forget(context.Background())
	m.logger.Info("session rejected by server, cleared local token")
	m.notifyUnauthorized()
	return true
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return header[len(prefix):]
	}
	return ""
}

// OnUnauthorized registers fn to run when the server invalidates the session.
// It returns a function that removes the registration.
func (m *Manager) OnUnauthorized(fn func()) func() {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	m.onUnauthorized = append(m.onUnauthorized, fn)
	idx := len(m.onUnauthorized) - 1
	return func() {
		m.subMu.Lock()
		defer m.subMu.Unlock()
		if idx < len(m.onUnauthorized) {
			m.onUnauthorized[idx] = nil
		}
	}
}

func (m *Manager) notifyUnauthorized() {
	m.subMu.Lock()
	subs := make([]func(), len(m.onUnauthorized))
	copy(subs, m.onUnauthorized)
	m.subMu.Unlock()

	for _, fn := range subs {
		if fn != nil {
			fn()
		}
	}
}

// Logout tells the server (best effort) and always clears the local session.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	token := m.token
	m.token = ""
	m.method = ""
	m.mu.Unlock()

	if token != "" {
		if err := m.authenticator().Logout(ctx, token); err != nil {
			m.logger.Warn("remote logout failed", slog.String("error", err.Error()))
		}
	}
	return m.forget(ctx)
}

// ChangePassword changes the admin password. On success the current session
// ends and the caller must log in again.
func (m *Manager) ChangePassword(ctx context.Context, current, next string) error {
	m.mu.RLock()
	token := m.token
	m.mu.RUnlock()

	if token == "" {
		return apierr.ErrUnauthorized
	}

	if err := m.authenticator().ChangePassword(ctx, token, current, next); err != nil {
		return err
	}

	m.mu.Lock()
	cleared := m.token == token
	if cleared {
		m.token = ""
		m.method = ""
	}
	m.mu.Unlock()
	if !cleared {
		return nil
	}
	return m.forget(ctx)
}

// IsAuthenticated reports whether a token is held locally.
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token != ""
}

// Current returns the session currently held.
func (m *Manager) Current() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Session{Token: m.token, Method: m.method}
}

func (m *Manager) authenticator() Authenticator {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.auth
}

func (m *Manager) forget(ctx context.Context) error {
	var errs []error
	if err := m.store.Delete(ctx, storage.KeyAdminToken); err != nil {
		errs = append(errs, err)
	}
	if err := m.store.Delete(ctx, storage.KeyAuthMethod); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		m.logger.Error("failed to clear stored session", slog.String("error", err.Error()))
		return fmt.Errorf("failed to clear stored session: %w", err)
	}
	return nil
}
