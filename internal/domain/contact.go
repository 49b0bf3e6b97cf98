package domain

import (
	"context"
	"time"
)

// Contact statuses.
const (
	ContactStatusNew       = "new"
	ContactStatusContacted = "contacted"
	ContactStatusClosed    = "closed"
)

// Contact is a contact-form submission.
type Contact struct {
	ID        string    `json:"id"`
	Name      string    `json:"name" validate:"required,max=200"`
	Email     string    `json:"email" validate:"required,email,max=255"`
	Phone     string    `json:"phone" validate:"required,max=50"`
	Service   string    `json:"service" validate:"required,max=200"`
	Comment   string    `json:"comment" validate:"max=5000"`
	Status    string    `json:"status" validate:"omitempty,oneof=new contacted closed"`
	CreatedAt time.Time `json:"created_at"`
}

func (c Contact) EntityID() string { return c.ID }

func (c Contact) WithEntityID(id string) Contact {
	c.ID = id
	return c
}

// ContactSubmission is the public contact-form payload.
type ContactSubmission struct {
	Name           string `json:"name" validate:"required,max=200"`
	Email          string `json:"email" validate:"required,email,max=255"`
	Phone          string `json:"phone" validate:"required,max=50"`
	Service        string `json:"service" validate:"required,max=200"`
	Comment        string `json:"comment" validate:"max=5000"`
	RecaptchaToken string `json:"recaptcha_token"`
}

// ContactRepository defines the interface for contact data access
type ContactRepository interface {
	Create(ctx context.Context, contact *Contact) error
	List(ctx context.Context) ([]*Contact, error)
	GetByID(ctx context.Context, id string) (*Contact, error)
	Update(ctx context.Context, contact *Contact) error
	Delete(ctx context.Context, id string) error
}
