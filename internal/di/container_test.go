package di

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantum-portal/api/internal/domain"
	"github.com/quantum-portal/api/internal/platform/config"
	"github.com/quantum-portal/api/internal/platform/requestctx"
	"github.com/quantum-portal/api/internal/repositories"
	"github.com/quantum-portal/api/internal/repositories/memory"
	"github.com/quantum-portal/api/internal/services"
)

type recordingPublisher struct {
	events []domain.ContentChanged
}

func (p *recordingPublisher) PublishContentChanged(_ context.Context, event domain.ContentChanged) error {
	p.events = append(p.events, event)
	return nil
}

func TestNewContainerRequiresRegistry(t *testing.T) {
	t.Parallel()

	_, err := NewContainer(context.Background(), config.Config{}, nil, Infrastructure{})
	require.Error(t, err)
}

func TestNewContainerWiresServices(t *testing.T) {
	t.Parallel()

	publisher := &recordingPublisher{}
	var cfg config.Config
	cfg.Tenancy.Hosts = map[string]string{"localhost": "acme"}
	now := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

	c, err := NewContainer(context.Background(), cfg, memory.NewRegistry(), Infrastructure{
		Events: publisher,
		Clock:  func() time.Time { return now },
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close(context.Background()) })

	svc := c.Services
	assert.NotNil(t, svc.Tenants)
	assert.NotNil(t, svc.Categories)
	assert.NotNil(t, svc.Brands)
	assert.NotNil(t, svc.StaticPages)
	assert.NotNil(t, svc.DynamicPages)
	assert.NotNil(t, svc.Navigation)
	assert.NotNil(t, svc.Homepage)
	assert.NotNil(t, svc.Audit)
	assert.NotNil(t, svc.Publishing)
	assert.Nil(t, svc.Media, "media needs a signer or cloudinary")
	assert.Nil(t, svc.System, "system service needs dependency checks")

	ctx := context.Background()
	_, err = svc.Tenants.CreateTenant(ctx, services.TenantInput{ID: "acme", Name: "Acme"})
	require.NoError(t, err)
	resolved, err := svc.Tenants.ResolveTenant(ctx, "localhost", "")
	require.NoError(t, err)
	assert.Equal(t, "acme", resolved.ID)

	tctx := requestctx.WithTenantID(ctx, "acme")
	_, err = svc.Brands.CreateBrand(tctx, services.BrandInput{Name: "Summit", Slug: "summit"})
	require.NoError(t, err)
	require.Len(t, publisher.events, 1)
	assert.Equal(t, "acme", publisher.events[0].TenantID)

	entries, err := svc.Audit.List(tctx, services.AuditLogFilter{})
	require.NoError(t, err)
	assert.Len(t, entries.Items, 1)
}

func TestNewContainerBuildsSystemService(t *testing.T) {
	t.Parallel()

	health, err := repositories.NewDependencyHealthRepository([]repositories.DependencyCheck{{
		Name:  "memory",
		Check: func(context.Context) error { return nil },
	}})
	require.NoError(t, err)

	c, err := NewContainer(context.Background(), config.Config{}, memory.NewRegistry(), Infrastructure{
		Health: health,
		Build:  services.BuildInfo{Version: "test"},
	})
	require.NoError(t, err)
	require.NotNil(t, c.Services.System)

	report, err := c.Services.System.HealthReport(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "test", report.Version)
}
