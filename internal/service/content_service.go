package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"mitaict-site/internal/domain"
	"mitaict-site/internal/observability"
)

// ContentService manages the public site content: services, the SaaS
// catalog, the about page and the social integrations.
type ContentService struct {
	services domain.ServiceRepository
	products domain.SaasProductRepository
	settings domain.SettingsRepository
}

func NewContentService(services domain.ServiceRepository, products domain.SaasProductRepository, settings domain.SettingsRepository) *ContentService {
	return &ContentService{services: services, products: products, settings: settings}
}

// Seed fills every empty collection with the default site content.
func (s *ContentService) Seed(ctx context.Context) error {
	logger := observability.FromContext(ctx)

	if n, err := s.services.Count(ctx); err != nil {
		return err
	} else if n == 0 {
		for _, svc := range defaultServices() {
			if err := s.services.Create(ctx, svc); err != nil {
				return fmt.Errorf("failed to seed service %q: %w", svc.Title, err)
			}
		}
		logger.Info("default services initialized")
	}

	if n, err := s.products.Count(ctx); err != nil {
		return err
	} else if n == 0 {
		for _, p := range defaultProducts() {
			if err := s.products.Create(ctx, p); err != nil {
				return fmt.Errorf("failed to seed saas product %q: %w", p.Title, err)
			}
		}
		logger.Info("default saas products initialized")
	}

	if _, err := s.settings.GetAbout(ctx); errors.Is(err, domain.ErrNotFound) {
		if err := s.settings.SaveAbout(ctx, defaultAbout()); err != nil {
			return fmt.Errorf("failed to seed about content: %w", err)
		}
		logger.Info("default about content initialized")
	} else if err != nil {
		return err
	}

	return nil
}

func (s *ContentService) ListServices(ctx context.Context) ([]*domain.Service, error) {
	return s.services.List(ctx)
}

func (s *ContentService) CreateService(ctx context.Context, svc *domain.Service) error {
	svc.ID = ""
	trimService(svc)
	if err := validateStruct(svc); err != nil {
		return err
	}
	return s.services.Create(ctx, svc)
}

func (s *ContentService) UpdateService(ctx context.Context, svc *domain.Service) error {
	trimService(svc)
	if err := validateStruct(svc); err != nil {
		return err
	}
	return s.services.Update(ctx, svc)
}

func (s *ContentService) DeleteService(ctx context.Context, id string) error {
	return s.services.Delete(ctx, id)
}

func trimService(svc *domain.Service) {
	svc.Title = strings.TrimSpace(svc.Title)
	svc.Description = strings.TrimSpace(svc.Description)
	svc.Icon = strings.TrimSpace(svc.Icon)
}

func (s *ContentService) ListProducts(ctx context.Context) ([]*domain.SaasProduct, error) {
	return s.products.List(ctx)
}

func (s *ContentService) CreateProduct(ctx context.Context, p *domain.SaasProduct) error {
	p.ID = ""
	trimProduct(p)
	if err := validateStruct(p); err != nil {
		return err
	}
	return s.products.Create(ctx, p)
}

func (s *ContentService) UpdateProduct(ctx context.Context, p *domain.SaasProduct) error {
	trimProduct(p)
	if err := validateStruct(p); err != nil {
		return err
	}
	return s.products.Update(ctx, p)
}

func (s *ContentService) DeleteProduct(ctx context.Context, id string) error {
	return s.products.Delete(ctx, id)
}

func trimProduct(p *domain.SaasProduct) {
	p.Title = strings.TrimSpace(p.Title)
	p.Description = strings.TrimSpace(p.Description)
	p.Link = strings.TrimSpace(p.Link)
	features := make([]string, 0, len(p.Features))
	for _, f := range p.Features {
		if f = strings.TrimSpace(f); f != "" {
			features = append(features, f)
		}
	}
	p.Features = features
}

// About returns the about page, falling back to the default content when none
// has been stored yet.
func (s *ContentService) About(ctx context.Context) (*domain.AboutContent, error) {
	about, err := s.settings.GetAbout(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		return defaultAbout(), nil
	}
	return about, err
}

func (s *ContentService) UpdateAbout(ctx context.Context, about *domain.AboutContent) error {
	if about.Expertise == nil {
		about.Expertise = []domain.ExpertiseGroup{}
	}
	if err := validateStruct(about); err != nil {
		return err
	}
	return s.settings.SaveAbout(ctx, about)
}

// Integrations returns the stored social integrations, all disabled when
// nothing has been saved.
func (s *ContentService) Integrations(ctx context.Context) (*domain.SocialIntegrations, error) {
	integrations, err := s.settings.GetIntegrations(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		return &domain.SocialIntegrations{}, nil
	}
	return integrations, err
}

func (s *ContentService) UpdateIntegrations(ctx context.Context, integrations *domain.SocialIntegrations) error {
	if err := s.settings.SaveIntegrations(ctx, integrations); err != nil {
		return err
	}
	observability.FromContext(ctx).Info("social integrations updated",
		slog.Bool("facebook", integrations.Facebook.Enabled),
		slog.Bool("tiktok", integrations.TikTok.Enabled),
		slog.Bool("linkedin", integrations.LinkedIn.Enabled))
	return nil
}

// TrackingConfig is the secret-free view the public site loads pixels from.
func (s *ContentService) TrackingConfig(ctx context.Context) (domain.TrackingConfig, error) {
	integrations, err := s.Integrations(ctx)
	if err != nil {
		return domain.TrackingConfig{}, err
	}
	return integrations.Tracking(), nil
}
