package repositories

import (
	"context"
	"errors"
	"time"

	domain "github.com/quantum-portal/api/internal/domain"
)

// Registry exposes typed repository accessors and lifecycle hooks for dependency injection.
type Registry interface {
	Close(ctx context.Context) error

	Tenants() TenantRepository
	Categories() CategoryRepository
	Brands() BrandRepository
	StaticPages() StaticPageRepository
	DynamicPages() DynamicPageRepository
	NavigationMenus() NavigationMenuRepository
	HomepageSections() HomepageSectionRepository
	Media() MediaRepository
	AuditLogs() AuditLogRepository
}

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// IsNotFound reports whether err is a repository not-found error.
func IsNotFound(err error) bool {
	var repoErr RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsNotFound()
}

// IsConflict reports whether err is a repository conflict error.
func IsConflict(err error) bool {
	var repoErr RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsConflict()
}

// IsUnavailable reports whether err is a transient repository failure.
func IsUnavailable(err error) bool {
	var repoErr RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsUnavailable()
}

// TenantListFilter narrows tenant listings.
type TenantListFilter struct {
	Status     domain.TenantStatus
	Pagination domain.Pagination
}

// TenantRepository persists tenants. It is the only repository not scoped by the context tenant.
type TenantRepository interface {
	Insert(ctx context.Context, tenant domain.Tenant) error
	Update(ctx context.Context, tenant domain.Tenant) error
	Delete(ctx context.Context, tenantID string) error
	FindByID(ctx context.Context, tenantID string) (domain.Tenant, error)
	FindByDomain(ctx context.Context, host string) (domain.Tenant, error)
	List(ctx context.Context, filter TenantListFilter) (domain.CursorPage[domain.Tenant], error)
}

// CategoryListFilter narrows category listings. A nil ParentID lists every category.
type CategoryListFilter struct {
	ParentID   *string
	ActiveOnly bool
	Pagination domain.Pagination
}

// CategoryRepository persists the tenant's categories.
type CategoryRepository interface {
	Insert(ctx context.Context, category domain.Category) error
	Update(ctx context.Context, category domain.Category) error
	Delete(ctx context.Context, categoryID string) error
	FindByID(ctx context.Context, categoryID string) (domain.Category, error)
	FindBySlug(ctx context.Context, slug string) (domain.Category, error)
	List(ctx context.Context, filter CategoryListFilter) (domain.CursorPage[domain.Category], error)
	ListAll(ctx context.Context) ([]domain.Category, error)
}

// BrandListFilter narrows brand listings.
type BrandListFilter struct {
	FeaturedOnly bool
	ActiveOnly   bool
	Pagination   domain.Pagination
}

// BrandRepository persists the tenant's brands. Listings are ordered by sort order then name.
type BrandRepository interface {
	Insert(ctx context.Context, brand domain.Brand) error
	Update(ctx context.Context, brand domain.Brand) error
	Delete(ctx context.Context, brandID string) error
	FindByID(ctx context.Context, brandID string) (domain.Brand, error)
	FindBySlug(ctx context.Context, slug string) (domain.Brand, error)
	List(ctx context.Context, filter BrandListFilter) (domain.CursorPage[domain.Brand], error)
}

// PageListFilter narrows static and dynamic page listings.
type PageListFilter struct {
	Status     domain.PageStatus
	Pagination domain.Pagination
}

// StaticPageRepository persists static pages.
type StaticPageRepository interface {
	Insert(ctx context.Context, page domain.StaticPage) error
	Update(ctx context.Context, page domain.StaticPage) error
	Delete(ctx context.Context, pageID string) error
	FindByID(ctx context.Context, pageID string) (domain.StaticPage, error)
	FindBySlug(ctx context.Context, slug string) (domain.StaticPage, error)
	List(ctx context.Context, filter PageListFilter) (domain.CursorPage[domain.StaticPage], error)
	ListDue(ctx context.Context, now time.Time) ([]domain.StaticPage, error)
}

// DynamicPageRepository persists dynamic pages with their segments embedded.
type DynamicPageRepository interface {
	Insert(ctx context.Context, page domain.DynamicPage) error
	Update(ctx context.Context, page domain.DynamicPage) error
	Delete(ctx context.Context, pageID string) error
	FindByID(ctx context.Context, pageID string) (domain.DynamicPage, error)
	FindBySlug(ctx context.Context, slug string) (domain.DynamicPage, error)
	List(ctx context.Context, filter PageListFilter) (domain.CursorPage[domain.DynamicPage], error)
	ListDue(ctx context.Context, now time.Time) ([]domain.DynamicPage, error)
}

// NavigationMenuRepository persists navigation menus.
type NavigationMenuRepository interface {
	Insert(ctx context.Context, menu domain.NavigationMenu) error
	Update(ctx context.Context, menu domain.NavigationMenu) error
	Delete(ctx context.Context, menuID string) error
	FindByID(ctx context.Context, menuID string) (domain.NavigationMenu, error)
	FindByLocation(ctx context.Context, location string) (domain.NavigationMenu, error)
	List(ctx context.Context, pager domain.Pagination) (domain.CursorPage[domain.NavigationMenu], error)
}

// HomepageSectionRepository persists homepage sections. ListAll returns sections ordered by Order then ID.
type HomepageSectionRepository interface {
	Insert(ctx context.Context, section domain.HomepageSection) error
	Update(ctx context.Context, section domain.HomepageSection) error
	Delete(ctx context.Context, sectionID string) error
	FindByID(ctx context.Context, sectionID string) (domain.HomepageSection, error)
	ListAll(ctx context.Context) ([]domain.HomepageSection, error)
	UpdateOrders(ctx context.Context, orders map[string]int, updatedAt time.Time) error
}

// MediaListFilter narrows media listings.
type MediaListFilter struct {
	Folder     string
	Status     domain.MediaStatus
	Pagination domain.Pagination
}

// MediaRepository persists media asset metadata.
type MediaRepository interface {
	Insert(ctx context.Context, asset domain.MediaAsset) error
	Update(ctx context.Context, asset domain.MediaAsset) error
	Delete(ctx context.Context, assetID string) error
	FindByID(ctx context.Context, assetID string) (domain.MediaAsset, error)
	List(ctx context.Context, filter MediaListFilter) (domain.CursorPage[domain.MediaAsset], error)
}

// AuditLogFilter narrows audit log listings. Entries are returned newest first.
type AuditLogFilter struct {
	TargetRef  string
	Actor      string
	Pagination domain.Pagination
}

// AuditLogRepository appends and lists audit entries for the context tenant.
type AuditLogRepository interface {
	Append(ctx context.Context, entry domain.AuditLogEntry) error
	List(ctx context.Context, filter AuditLogFilter) (domain.CursorPage[domain.AuditLogEntry], error)
}

// HealthRepository runs dependency checks for readiness probes.
type HealthRepository interface {
	Collect(ctx context.Context) (domain.SystemHealthReport, error)
}
