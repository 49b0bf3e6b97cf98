package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"mitaict-site/internal/domain"
	"mitaict-site/internal/observability"
)

const (
	bcryptCost = 12

	// DefaultSessionTTL is how long an admin bearer token stays valid.
	DefaultSessionTTL = 24 * time.Hour

	minPasswordLength = 8
	maxPasswordLength = 72
)

// IdentityProvider resolves an OAuth authorization code to a verified email.
type IdentityProvider interface {
	VerifiedEmail(ctx context.Context, code string) (string, error)
}

type AuthService struct {
	adminRepo   domain.AdminRepository
	sessionRepo domain.SessionRepository
	identity    IdentityProvider
	ttl         time.Duration
	cost        int
	now         func() time.Time
}

type AuthOption func(*AuthService)

// WithSessionTTL overrides DefaultSessionTTL.
func WithSessionTTL(ttl time.Duration) AuthOption {
	return func(s *AuthService) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithIdentityProvider enables federated login.
func WithIdentityProvider(p IdentityProvider) AuthOption {
	return func(s *AuthService) { s.identity = p }
}

// WithHashCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func WithHashCost(cost int) AuthOption {
	return func(s *AuthService) { s.cost = cost }
}

func NewAuthService(adminRepo domain.AdminRepository, sessionRepo domain.SessionRepository, opts ...AuthOption) *AuthService {
	s := &AuthService{
		adminRepo:   adminRepo,
		sessionRepo: sessionRepo,
		ttl:         DefaultSessionTTL,
		cost:        bcryptCost,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FederatedEnabled reports whether LoginFederated can succeed.
func (s *AuthService) FederatedEnabled() bool {
	return s.identity != nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.Session, error) {
	admin, err := s.adminRepo.GetByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, domain.ErrAdminNotFound) {
			observability.FromContext(ctx).Error("admin lookup failed", slog.String("error", err.Error()))
		}
		return nil, domain.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	return s.createSession(ctx, admin.ID, domain.AuthMethodPassword)
}

// LoginFederated exchanges an OAuth code and opens a session for the admin
// whose email matches the verified identity.
func (s *AuthService) LoginFederated(ctx context.Context, code string) (*domain.Session, error) {
	if s.identity == nil {
		return nil, domain.ErrFederatedDisabled
	}
	if strings.TrimSpace(code) == "" {
		return nil, fmt.Errorf("%w: code is required", domain.ErrInvalidInput)
	}

	email, err := s.identity.VerifiedEmail(ctx, code)
	if err != nil {
		observability.FromContext(ctx).Warn("federated identity rejected", slog.String("error", err.Error()))
		return nil, domain.ErrInvalidCredentials
	}

	admin, err := s.adminRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	return s.createSession(ctx, admin.ID, domain.AuthMethodGoogle)
}

func (s *AuthService) createSession(ctx context.Context, adminID, method string) (*domain.Session, error) {
	session := &domain.Session{
		AdminID:    adminID,
		Token:      uuid.New().String(),
		AuthMethod: method,
		ExpiresAt:  s.now().Add(s.ttl),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessionRepo.Delete(ctx, token)
}

func (s *AuthService) ValidateSession(ctx context.Context, token string) (*domain.Session, error) {
	if token == "" {
		return nil, domain.ErrSessionNotFound
	}
	session, err := s.sessionRepo.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if !session.ExpiresAt.After(s.now()) {
		return nil, domain.ErrSessionExpired
	}
	return session, nil
}

// ChangePassword verifies current, stores the new hash and revokes every
// session of the admin, including the caller's.
func (s *AuthService) ChangePassword(ctx context.Context, adminID, current, next string) error {
	if len(next) < minPasswordLength || len(next) > maxPasswordLength {
		return fmt.Errorf("%w: new password must be %d to %d characters", domain.ErrInvalidInput, minPasswordLength, maxPasswordLength)
	}

	admin, err := s.adminRepo.GetByID(ctx, adminID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(current)); err != nil {
		return domain.ErrIncorrectPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), s.cost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.adminRepo.UpdatePassword(ctx, admin.ID, string(hash))
}

// EnsureAdmin creates the admin unless one with the username already exists.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, email, password string) (bool, error) {
	if _, err := s.adminRepo.GetByUsername(ctx, username); err == nil {
		return false, nil
	} else if !errors.Is(err, domain.ErrAdminNotFound) {
		return false, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return false, fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &domain.Admin{Username: username, Email: email, PasswordHash: string(hash)}
	if err := s.adminRepo.Create(ctx, admin); err != nil {
		if errors.Is(err, domain.ErrAdminExists) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *AuthService) GetAdmin(ctx context.Context, adminID string) (*domain.Admin, error) {
	return s.adminRepo.GetByID(ctx, adminID)
}

// CleanupExpiredSessions deletes sessions past their expiry.
func (s *AuthService) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	return s.sessionRepo.DeleteExpired(ctx)
}
