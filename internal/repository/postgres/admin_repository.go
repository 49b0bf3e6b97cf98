package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"mitaict-site/internal/domain"
)

const (
	adminUsernameConstraint = "admins_username_key"
	adminEmailConstraint    = "admins_email_key"

	createAdminQuery = `
		INSERT INTO admins (id, username, email, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`
	adminColumns             = `SELECT id, username, email, password_hash, created_at FROM admins`
	getAdminByIDQuery        = adminColumns + ` WHERE id = $1`
	getAdminByNameQuery      = adminColumns + ` WHERE username = $1`
	getAdminByEmailQuery     = adminColumns + ` WHERE LOWER(email) = LOWER($1)`
	updateAdminPassQuery     = `UPDATE admins SET password_hash = $1 WHERE id = $2`
	revokeAdminSessionsQuery = `DELETE FROM sessions WHERE admin_id = $1`
)

// AdminRepository implements domain.AdminRepository for PostgreSQL
type AdminRepository struct {
	db             *sql.DB
	tx             *TxManager
	createStmt     *sql.Stmt
	getByIDStmt    *sql.Stmt
	getByNameStmt  *sql.Stmt
	getByEmailStmt *sql.Stmt
}

// NewAdminRepository creates an AdminRepository with prepared statements.
func NewAdminRepository(db *sql.DB) (*AdminRepository, error) {
	repo := &AdminRepository{db: db, tx: NewTxManager(db)}

	var err error
	if repo.createStmt, err = db.Prepare(createAdminQuery); err != nil {
		return nil, fmt.Errorf("failed to prepare create statement: %w", err)
	}
	if repo.getByIDStmt, err = db.Prepare(getAdminByIDQuery); err != nil {
		return nil, fmt.Errorf("failed to prepare getByID statement: %w", err)
	}
	if repo.getByNameStmt, err = db.Prepare(getAdminByNameQuery); err != nil {
		return nil, fmt.Errorf("failed to prepare getByUsername statement: %w", err)
	}
	if repo.getByEmailStmt, err = db.Prepare(getAdminByEmailQuery); err != nil {
		return nil, fmt.Errorf("failed to prepare getByEmail statement: %w", err)
	}

	return repo, nil
}

func (r *AdminRepository) Create(ctx context.Context, admin *domain.Admin) error {
	if admin.ID == "" {
		admin.ID = uuid.New().String()
	}

	err := r.createStmt.QueryRowContext(ctx,
		admin.ID,
		admin.Username,
		admin.Email,
		admin.PasswordHash,
	).Scan(&admin.CreatedAt)
	if err != nil {
		if IsUniqueViolation(err, adminUsernameConstraint) || IsUniqueViolation(err, adminEmailConstraint) {
			return domain.ErrAdminExists
		}
		return fmt.Errorf("failed to create admin: %w", err)
	}
	return nil
}

func (r *AdminRepository) GetByID(ctx context.Context, id string) (*domain.Admin, error) {
	return scanAdmin(r.getByIDStmt.QueryRowContext(ctx, id))
}

func (r *AdminRepository) GetByUsername(ctx context.Context, username string) (*domain.Admin, error) {
	return scanAdmin(r.getByNameStmt.QueryRowContext(ctx, username))
}

func (r *AdminRepository) GetByEmail(ctx context.Context, email string) (*domain.Admin, error) {
	return scanAdmin(r.getByEmailStmt.QueryRowContext(ctx, email))
}

// UpdatePassword replaces the hash and deletes the admin's sessions in one
// transaction.
func (r *AdminRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.tx.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, updateAdminPassQuery, passwordHash, id)
		if err != nil {
			return fmt.Errorf("failed to update password: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		} else if n == 0 {
			return domain.ErrAdminNotFound
		}

		if _, err := tx.ExecContext(ctx, revokeAdminSessionsQuery, id); err != nil {
			return fmt.Errorf("failed to revoke sessions: %w", err)
		}
		return nil
	})
}

func scanAdmin(row *sql.Row) (*domain.Admin, error) {
	admin := &domain.Admin{}
	err := row.Scan(
		&admin.ID,
		&admin.Username,
		&admin.Email,
		&admin.PasswordHash,
		&admin.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrAdminNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}
	return admin, nil
}
