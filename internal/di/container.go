package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/quantum-portal/api/internal/platform/config"
	"github.com/quantum-portal/api/internal/platform/htmlrender"
	"github.com/quantum-portal/api/internal/repositories"
	"github.com/quantum-portal/api/internal/services"
)

// Services bundles the service-layer contracts that handlers rely upon. Concrete implementations
// are assembled via dependency injection in NewContainer.
type Services struct {
	Tenants      services.TenantService
	Categories   services.CategoryService
	Brands       services.BrandService
	StaticPages  services.StaticPageService
	DynamicPages services.DynamicPageService
	Navigation   services.NavigationService
	Homepage     services.HomepageService
	Media        services.MediaService
	Audit        services.AuditLogService
	Publishing   services.PublishingService
	System       services.SystemService
}

// Metrics is what the container needs from the metrics backend.
type Metrics interface {
	services.ContentEventMetrics
	services.PublishMetrics
}

// healthCacheTTL absorbs probe bursts from multiple load balancer health checkers.
const healthCacheTTL = 2 * time.Second

// Infrastructure carries the optional runtime collaborators. A nil field disables the matching
// concern.
type Infrastructure struct {
	Events       services.ContentEventPublisher
	Metrics      Metrics
	Logger       services.EventLogger
	MediaSigner  services.URLSigner
	MediaObjects services.ObjectStore
	Health       repositories.HealthRepository
	// OptionalHealthChecks degrade readiness instead of failing it.
	OptionalHealthChecks []string
	Build                services.BuildInfo
	Clock                func() time.Time
	NewID                func() string
}

// Container wires repositories, services, and background infrastructure for runtime use.
type Container struct {
	Config       config.Config
	Repositories repositories.Registry
	Services     Services
}

// NewContainer constructs the runtime dependencies. Production wiring passes the Firestore
// registry, while tests and local tooling can supply the in-memory one.
func NewContainer(ctx context.Context, cfg config.Config, reg repositories.Registry, infra Infrastructure) (*Container, error) {
	if reg == nil {
		return nil, errors.New("repositories registry is required")
	}

	svc, err := buildServices(ctx, reg, cfg, infra)
	if err != nil {
		return nil, err
	}

	return &Container{
		Config:       cfg,
		Repositories: reg,
		Services:     svc,
	}, nil
}

// Close releases resources such as repository clients.
func (c *Container) Close(ctx context.Context) error {
	if c == nil || c.Repositories == nil {
		return nil
	}
	return c.Repositories.Close(ctx)
}

func buildServices(_ context.Context, reg repositories.Registry, cfg config.Config, infra Infrastructure) (Services, error) {
	var svc Services
	clock := infra.Clock
	if clock == nil {
		clock = time.Now
	}

	auditSvc, err := services.NewAuditLogService(services.AuditLogServiceDeps{
		Repository: reg.AuditLogs(),
		Clock:      clock,
		NewID:      infra.NewID,
		Logger:     infra.Logger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build audit log service: %w", err)
	}
	svc.Audit = auditSvc

	mutations := services.MutationDeps{
		Audit:  auditSvc,
		Events: infra.Events,
		Logger: infra.Logger,
		Clock:  clock,
		NewID:  infra.NewID,
	}
	if infra.Metrics != nil {
		mutations.Metrics = infra.Metrics
	}
	html := htmlrender.New()

	if svc.Tenants, err = services.NewTenantService(services.TenantServiceDeps{
		Tenants:     reg.Tenants(),
		StaticHosts: cfg.Tenancy.Hosts,
		Clock:       clock,
		Logger:      infra.Logger,
	}); err != nil {
		return Services{}, fmt.Errorf("build tenant service: %w", err)
	}

	if svc.Categories, err = services.NewCategoryService(services.CategoryServiceDeps{
		Categories:   reg.Categories(),
		MutationDeps: mutations,
	}); err != nil {
		return Services{}, fmt.Errorf("build category service: %w", err)
	}

	if svc.Brands, err = services.NewBrandService(services.BrandServiceDeps{
		Brands:       reg.Brands(),
		MutationDeps: mutations,
	}); err != nil {
		return Services{}, fmt.Errorf("build brand service: %w", err)
	}

	if svc.StaticPages, err = services.NewStaticPageService(services.StaticPageServiceDeps{
		StaticPages:  reg.StaticPages(),
		DynamicPages: reg.DynamicPages(),
		Renderer:     html,
		MutationDeps: mutations,
	}); err != nil {
		return Services{}, fmt.Errorf("build static page service: %w", err)
	}

	renderer := services.NewPageRenderer(services.PageRendererDeps{
		Categories: reg.Categories(),
		Brands:     reg.Brands(),
		HTML:       html,
	})
	if svc.DynamicPages, err = services.NewDynamicPageService(services.DynamicPageServiceDeps{
		DynamicPages: reg.DynamicPages(),
		StaticPages:  reg.StaticPages(),
		Categories:   reg.Categories(),
		Brands:       reg.Brands(),
		Renderer:     renderer,
		MutationDeps: mutations,
	}); err != nil {
		return Services{}, fmt.Errorf("build dynamic page service: %w", err)
	}

	if svc.Navigation, err = services.NewNavigationService(services.NavigationServiceDeps{
		Menus:        reg.NavigationMenus(),
		Categories:   reg.Categories(),
		Brands:       reg.Brands(),
		StaticPages:  reg.StaticPages(),
		DynamicPages: reg.DynamicPages(),
		MutationDeps: mutations,
	}); err != nil {
		return Services{}, fmt.Errorf("build navigation service: %w", err)
	}

	if svc.Homepage, err = services.NewHomepageService(services.HomepageServiceDeps{
		Sections:     reg.HomepageSections(),
		Categories:   reg.Categories(),
		Brands:       reg.Brands(),
		Navigation:   svc.Navigation,
		Renderer:     html,
		MutationDeps: mutations,
	}); err != nil {
		return Services{}, fmt.Errorf("build homepage service: %w", err)
	}

	if infra.MediaSigner != nil || cfg.Media.Provider == services.MediaProviderCloudinary {
		if svc.Media, err = services.NewMediaService(services.MediaServiceDeps{
			Media:   reg.Media(),
			Signer:  infra.MediaSigner,
			Objects: infra.MediaObjects,
			Settings: services.MediaSettings{
				Provider:            cfg.Media.Provider,
				DefaultFolder:       cfg.Media.DefaultFolder,
				MaxUploadBytes:      cfg.Media.MaxUploadBytes,
				AllowedContentTypes: cfg.Media.AllowedContentTypes,
				PublicBaseURL:       cfg.Media.PublicBaseURL,
				SignedURLTTL:        cfg.Storage.SignedURLTTL,
				CloudinaryCloudName: cfg.Media.CloudinaryCloudName,
				CloudinaryAPIKey:    cfg.Media.CloudinaryAPIKey,
				CloudinaryAPISecret: cfg.Media.CloudinaryAPISecret,
			},
			MutationDeps: mutations,
		}); err != nil {
			return Services{}, fmt.Errorf("build media service: %w", err)
		}
	}

	publishing := services.PublishingServiceDeps{
		Tenants:      reg.Tenants(),
		StaticPages:  reg.StaticPages(),
		DynamicPages: reg.DynamicPages(),
		MutationDeps: mutations,
	}
	if infra.Metrics != nil {
		publishing.Published = infra.Metrics
	}
	if svc.Publishing, err = services.NewPublishingService(publishing); err != nil {
		return Services{}, fmt.Errorf("build publishing service: %w", err)
	}

	if infra.Health != nil {
		if svc.System, err = services.NewSystemService(services.SystemServiceDeps{
			HealthRepository: infra.Health,
			Clock:            clock,
			Build:            infra.Build,
			OptionalChecks:   infra.OptionalHealthChecks,
			CacheTTL:         healthCacheTTL,
		}); err != nil {
			return Services{}, fmt.Errorf("build system service: %w", err)
		}
	}

	return svc, nil
}
