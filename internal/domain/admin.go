package domain

import (
	"context"
	"time"
)

// Admin is a back-office user.
type Admin struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// AdminRepository defines the interface for admin data access
type AdminRepository interface {
	Create(ctx context.Context, admin *Admin) error
	GetByID(ctx context.Context, id string) (*Admin, error)
	GetByUsername(ctx context.Context, username string) (*Admin, error)
	GetByEmail(ctx context.Context, email string) (*Admin, error)
	// UpdatePassword replaces the hash and revokes every session of the admin.
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}
