package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"mitaict-site/internal/domain"
)

const (
	createSessionQuery = `
		INSERT INTO sessions (id, admin_id, token, auth_method, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`
	getSessionByTokenQuery = `
		SELECT id, admin_id, token, auth_method, expires_at, created_at
		FROM sessions
		WHERE token = $1 AND expires_at > $2`
	deleteSessionQuery         = `DELETE FROM sessions WHERE token = $1`
	deleteExpiredSessionsQuery = `DELETE FROM sessions WHERE expires_at <= $1`
)

type SessionRepository struct {
	db                *sql.DB
	now               func() time.Time
	createStmt        *sql.Stmt
	getByTokenStmt    *sql.Stmt
	deleteStmt        *sql.Stmt
	deleteExpiredStmt *sql.Stmt
}

// NewSessionRepository creates a new SessionRepository with prepared statements.
// Returns an error if statement preparation fails.
func NewSessionRepository(db *sql.DB) (*SessionRepository, error) {
	repo := &SessionRepository{db: db, now: time.Now}

	var err error
	if repo.createStmt, err = db.Prepare(createSessionQuery); err != nil {
		return nil, fmt.Errorf("failed to prepare create statement: %w", err)
	}
	if repo.getByTokenStmt, err = db.Prepare(getSessionByTokenQuery); err != nil {
		return nil, fmt.Errorf("failed to prepare getByToken statement: %w", err)
	}
	if repo.deleteStmt, err = db.Prepare(deleteSessionQuery); err != nil {
		return nil, fmt.Errorf("failed to prepare delete statement: %w", err)
	}
	if repo.deleteExpiredStmt, err = db.Prepare(deleteExpiredSessionsQuery); err != nil {
		return nil, fmt.Errorf("failed to prepare deleteExpired statement: %w", err)
	}

	return repo, nil
}

func (r *SessionRepository) Create(ctx context.Context, session *domain.Session) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	if session.AuthMethod == "" {
		session.AuthMethod = domain.AuthMethodPassword
	}

	err := r.createStmt.QueryRowContext(ctx,
		session.ID,
		session.AdminID,
		session.Token,
		session.AuthMethod,
		session.ExpiresAt,
	).Scan(&session.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// GetByToken returns the session only while it has not expired.
func (r *SessionRepository) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	session := &domain.Session{}
	err := r.getByTokenStmt.QueryRowContext(ctx, token, r.now()).Scan(
		&session.ID,
		&session.AdminID,
		&session.Token,
		&session.AuthMethod,
		&session.ExpiresAt,
		&session.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session by token: %w", err)
	}
	return session, nil
}

func (r *SessionRepository) Delete(ctx context.Context, token string) error {
	if _, err := r.deleteStmt.ExecContext(ctx, token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (r *SessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.deleteExpiredStmt.ExecContext(ctx, r.now())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return count, nil
}
