package domain

import (
	"context"
	"time"
)

// Service is a consulting service shown on the public site.
type Service struct {
	ID          string    `json:"id"`
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description" validate:"required,max=2000"`
	Icon        string    `json:"icon" validate:"max=100"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (s Service) EntityID() string { return s.ID }

func (s Service) WithEntityID(id string) Service {
	s.ID = id
	return s
}

// SaasProduct is an entry of the SaaS catalog.
type SaasProduct struct {
	ID          string    `json:"id"`
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description" validate:"required,max=2000"`
	Link        string    `json:"link" validate:"max=500"`
	Features    []string  `json:"features" validate:"max=20,dive,max=200"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (p SaasProduct) EntityID() string { return p.ID }

func (p SaasProduct) WithEntityID(id string) SaasProduct {
	p.ID = id
	return p
}

// ExpertiseGroup is one titled list on the about page.
type ExpertiseGroup struct {
	Title string   `json:"title" validate:"required,max=200"`
	Items []string `json:"items" validate:"dive,max=200"`
}

// AboutContent is the singleton about page.
type AboutContent struct {
	Title     string           `json:"title" validate:"required,max=200"`
	Content   string           `json:"content" validate:"required"`
	Expertise []ExpertiseGroup `json:"expertise" validate:"dive"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// ServiceRepository defines the interface for service data access
type ServiceRepository interface {
	List(ctx context.Context) ([]*Service, error)
	GetByID(ctx context.Context, id string) (*Service, error)
	Create(ctx context.Context, service *Service) error
	Update(ctx context.Context, service *Service) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// SaasProductRepository defines the interface for SaaS product data access
type SaasProductRepository interface {
	List(ctx context.Context) ([]*SaasProduct, error)
	GetByID(ctx context.Context, id string) (*SaasProduct, error)
	Create(ctx context.Context, product *SaasProduct) error
	Update(ctx context.Context, product *SaasProduct) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// SettingsRepository stores singleton site documents (about page, social
// integrations).
type SettingsRepository interface {
	GetAbout(ctx context.Context) (*AboutContent, error)
	SaveAbout(ctx context.Context, about *AboutContent) error
	GetIntegrations(ctx context.Context) (*SocialIntegrations, error)
	SaveIntegrations(ctx context.Context, integrations *SocialIntegrations) error
}
