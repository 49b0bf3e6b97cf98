package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mitaict-site/internal/domain"
	"mitaict-site/internal/testutil"
)

type contentFixture struct {
	svc      *ContentService
	services *testutil.MockServiceRepository
	products *testutil.MockSaasProductRepository
	settings *testutil.MockSettingsRepository
}

func newContentFixture() contentFixture {
	f := contentFixture{
		services: testutil.NewMockServiceRepository(),
		products: testutil.NewMockSaasProductRepository(),
		settings: testutil.NewMockSettingsRepository(),
	}
	f.svc = NewContentService(f.services, f.products, f.settings)
	return f
}

func TestContentService_SeedOnlyEmptyCollections(t *testing.T) {
	f := newContentFixture()
	ctx := context.Background()

	require.NoError(t, f.svc.Seed(ctx))

	services, err := f.svc.ListServices(ctx)
	require.NoError(t, err)
	require.Len(t, services, 3)
	assert.Equal(t, "IT and Telecommunication", services[0].Title)
	assert.Equal(t, "Building2", services[1].Icon)

	products, err := f.svc.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 3)
	assert.Equal(t, "https://mitacrm.com/", products[0].Link)
	assert.Len(t, products[2].Features, 4)

	about, err := f.svc.About(ctx)
	require.NoError(t, err)
	assert.Equal(t, "About MITA ICT", about.Title)
	assert.Len(t, about.Expertise, 4)

	require.NoError(t, f.svc.Seed(ctx))
	services, err = f.svc.ListServices(ctx)
	require.NoError(t, err)
	assert.Len(t, services, 3, "seeding twice must not duplicate")
}

func TestContentService_SeedCreateFailure(t *testing.T) {
	f := newContentFixture()
	f.services.CreateFunc = func(ctx context.Context, service *domain.Service) error {
		return errors.New("insert failed")
	}

	err := f.svc.Seed(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to seed service")
}

func TestContentService_CreateServiceValidates(t *testing.T) {
	f := newContentFixture()
	ctx := context.Background()

	err := f.svc.CreateService(ctx, &domain.Service{Title: "   ", Description: "d"})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "title is required")

	svc := &domain.Service{ID: "client-chosen", Title: " Cloud ", Description: "Migrations", Icon: "Cloud"}
	require.NoError(t, f.svc.CreateService(ctx, svc))
	assert.NotEqual(t, "client-chosen", svc.ID)
	assert.Equal(t, "Cloud", svc.Title)
}

func TestContentService_UpdateAndDeleteService(t *testing.T) {
	f := newContentFixture()
	ctx := context.Background()

	svc := &domain.Service{Title: "Cloud", Description: "Migrations"}
	require.NoError(t, f.svc.CreateService(ctx, svc))

	svc.Description = "Cloud migrations"
	require.NoError(t, f.svc.UpdateService(ctx, svc))

	err := f.svc.UpdateService(ctx, &domain.Service{ID: "missing", Title: "x", Description: "y"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, f.svc.DeleteService(ctx, svc.ID))
	assert.ErrorIs(t, f.svc.DeleteService(ctx, svc.ID), domain.ErrNotFound)
}

func TestContentService_CreateProductDropsBlankFeatures(t *testing.T) {
	f := newContentFixture()
	p := &domain.SaasProduct{Title: "MITACRM", Description: "CRM", Features: []string{" Pipelines ", "", "  "}}

	require.NoError(t, f.svc.CreateProduct(context.Background(), p))
	assert.Equal(t, []string{"Pipelines"}, p.Features)
}

func TestContentService_ProductTooManyFeatures(t *testing.T) {
	f := newContentFixture()
	features := make([]string, 21)
	for i := range features {
		features[i] = "feature"
	}

	err := f.svc.CreateProduct(context.Background(), &domain.SaasProduct{Title: "T", Description: "D", Features: features})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestContentService_AboutDefaultsUntilSaved(t *testing.T) {
	f := newContentFixture()
	ctx := context.Background()

	about, err := f.svc.About(ctx)
	require.NoError(t, err)
	assert.Equal(t, "About MITA ICT", about.Title)

	require.ErrorIs(t, f.svc.UpdateAbout(ctx, &domain.AboutContent{Title: "About"}), domain.ErrInvalidInput)

	require.NoError(t, f.svc.UpdateAbout(ctx, &domain.AboutContent{Title: "About", Content: "We ship."}))
	about, err = f.svc.About(ctx)
	require.NoError(t, err)
	assert.Equal(t, "We ship.", about.Content)
	assert.NotNil(t, about.Expertise)
}

func TestContentService_TrackingConfig(t *testing.T) {
	f := newContentFixture()
	ctx := context.Background()

	cfg, err := f.svc.TrackingConfig(ctx)
	require.NoError(t, err)
	assert.False(t, cfg.Platform(domain.PlatformFacebook).Enabled)

	require.NoError(t, f.svc.UpdateIntegrations(ctx, &domain.SocialIntegrations{
		Facebook: domain.FacebookIntegration{Enabled: true, PixelID: "px-1", AppSecret: "s3cret"},
	}))

	cfg, err = f.svc.TrackingConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.TrackingPlatform{Enabled: true, PixelID: "px-1"}, cfg.Platform(domain.PlatformFacebook))

	integrations, err := f.svc.Integrations(ctx)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", integrations.Facebook.AppSecret)
}
