package firestore

import (
	"context"
	"errors"
	"fmt"

	pfirestore "github.com/quantum-portal/api/internal/platform/firestore"
	"github.com/quantum-portal/api/internal/repositories"
)

// Registry exposes every Firestore repository over one shared provider.
type Registry struct {
	provider *pfirestore.Provider

	tenants    *TenantRepository
	categories *CategoryRepository
	brands     *BrandRepository
	static     *StaticPageRepository
	dynamic    *DynamicPageRepository
	menus      *NavigationMenuRepository
	sections   *HomepageSectionRepository
	media      *MediaRepository
	audit      *AuditLogRepository
}

var _ repositories.Registry = (*Registry)(nil)

// NewRegistry builds all repositories. The provider connects lazily on first use.
func NewRegistry(provider *pfirestore.Provider) (*Registry, error) {
	if provider == nil {
		return nil, errors.New("firestore registry: provider is required")
	}
	reg := &Registry{provider: provider}
	var err error
	if reg.tenants, err = NewTenantRepository(provider); err != nil {
		return nil, fmt.Errorf("firestore registry: %w", err)
	}
	if reg.categories, err = NewCategoryRepository(provider); err != nil {
		return nil, fmt.Errorf("firestore registry: %w", err)
	}
	if reg.brands, err = NewBrandRepository(provider); err != nil {
		return nil, fmt.Errorf("firestore registry: %w", err)
	}
	if reg.static, err = NewStaticPageRepository(provider); err != nil {
		return nil, fmt.Errorf("firestore registry: %w", err)
	}
	if reg.dynamic, err = NewDynamicPageRepository(provider); err != nil {
		return nil, fmt.Errorf("firestore registry: %w", err)
	}
	if reg.menus, err = NewNavigationMenuRepository(provider); err != nil {
		return nil, fmt.Errorf("firestore registry: %w", err)
	}
	if reg.sections, err = NewHomepageSectionRepository(provider); err != nil {
		return nil, fmt.Errorf("firestore registry: %w", err)
	}
	if reg.media, err = NewMediaRepository(provider); err != nil {
		return nil, fmt.Errorf("firestore registry: %w", err)
	}
	if reg.audit, err = NewAuditLogRepository(provider); err != nil {
		return nil, fmt.Errorf("firestore registry: %w", err)
	}
	return reg, nil
}

// Provider returns the shared Firestore provider, e.g. for readiness probes.
func (r *Registry) Provider() *pfirestore.Provider { return r.provider }

func (r *Registry) Close(ctx context.Context) error { return r.provider.Close(ctx) }

func (r *Registry) Tenants() repositories.TenantRepository      { return r.tenants }
func (r *Registry) Categories() repositories.CategoryRepository { return r.categories }
func (r *Registry) Brands() repositories.BrandRepository        { return r.brands }
func (r *Registry) StaticPages() repositories.StaticPageRepository {
	return r.static
}
func (r *Registry) DynamicPages() repositories.DynamicPageRepository {
	return r.dynamic
}
func (r *Registry) NavigationMenus() repositories.NavigationMenuRepository {
	return r.menus
}
func (r *Registry) HomepageSections() repositories.HomepageSectionRepository {
	return r.sections
}
func (r *Registry) Media() repositories.MediaRepository        { return r.media }
func (r *Registry) AuditLogs() repositories.AuditLogRepository { return r.audit }
