package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/quantum-portal/api/internal/platform/auth"
	"github.com/quantum-portal/api/internal/services"
)

// AdminHandlers exposes the content management API. Reads need the viewer role and writes the
// editor role; tenant management needs admin and is not tenant scoped.
type AdminHandlers struct {
	authn   *auth.Authenticator
	tenancy *Tenancy
	extra   []func(http.Handler) http.Handler
	uploads func(http.Handler) http.Handler

	tenants      services.TenantService
	categories   services.CategoryService
	brands       services.BrandService
	staticPages  services.StaticPageService
	dynamicPages services.DynamicPageService
	navigation   services.NavigationService
	homepage     services.HomepageService
	media        services.MediaService
	audit        services.AuditLogService
}

// AdminOption configures AdminHandlers.
type AdminOption func(*AdminHandlers)

// WithAdminMiddlewares appends middleware that runs once identity and tenant are known, such as
// idempotency.
func WithAdminMiddlewares(mw ...func(http.Handler) http.Handler) AdminOption {
	return func(h *AdminHandlers) { h.extra = append(h.extra, mw...) }
}

// WithAdminUploadRateLimit caps upload signatures per tenant and identity within window.
func WithAdminUploadRateLimit(limit int, window time.Duration) AdminOption {
	return func(h *AdminHandlers) { h.uploads = RateLimitByActor(limit, window, nil) }
}

// WithAdminTenants sets the tenant service.
func WithAdminTenants(svc services.TenantService) AdminOption {
	return func(h *AdminHandlers) { h.tenants = svc }
}

// WithAdminCatalog sets the category and brand services.
func WithAdminCatalog(categories services.CategoryService, brands services.BrandService) AdminOption {
	return func(h *AdminHandlers) {
		h.categories = categories
		h.brands = brands
	}
}

// WithAdminPages sets the static and dynamic page services.
func WithAdminPages(static services.StaticPageService, dynamic services.DynamicPageService) AdminOption {
	return func(h *AdminHandlers) {
		h.staticPages = static
		h.dynamicPages = dynamic
	}
}

// WithAdminLayout sets the navigation and homepage services.
func WithAdminLayout(navigation services.NavigationService, homepage services.HomepageService) AdminOption {
	return func(h *AdminHandlers) {
		h.navigation = navigation
		h.homepage = homepage
	}
}

// WithAdminMedia sets the media service.
func WithAdminMedia(svc services.MediaService) AdminOption {
	return func(h *AdminHandlers) { h.media = svc }
}

// WithAdminAudit sets the audit log service.
func WithAdminAudit(svc services.AuditLogService) AdminOption {
	return func(h *AdminHandlers) { h.audit = svc }
}

// NewAdminHandlers constructs admin handlers.
func NewAdminHandlers(authn *auth.Authenticator, tenancy *Tenancy, opts ...AdminOption) *AdminHandlers {
	h := &AdminHandlers{authn: authn, tenancy: tenancy}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Routes registers the admin endpoints.
func (h *AdminHandlers) Routes(r chi.Router) {
	if h.authn != nil {
		r.Use(h.authn.RequireFirebaseAuth(auth.RoleViewer))
	}
	editor := auth.RequireRole(auth.RoleEditor)

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireRole(auth.RoleAdmin))
		pr.Use(h.extra...)
		pr.Route("/tenants", func(rt chi.Router) {
			rt.Get("/", h.listTenants)
			rt.Post("/", h.createTenant)
			rt.Get("/{tenantID}", h.getTenant)
			rt.Put("/{tenantID}", h.updateTenant)
			rt.Delete("/{tenantID}", h.deleteTenant)
		})
	})

	r.Group(func(tr chi.Router) {
		tr.Use(h.tenancy.Admin)
		tr.Use(h.extra...)

		tr.Route("/categories", func(rt chi.Router) {
			rt.Get("/", h.listCategories)
			rt.With(editor).Post("/", h.createCategory)
			rt.Get("/tree", h.categoryTree)
			rt.Get("/{id}", h.getCategory)
			rt.With(editor).Put("/{id}", h.updateCategory)
			rt.With(editor).Delete("/{id}", h.deleteCategory)
			rt.Get("/{id}/breadcrumbs", h.categoryBreadcrumbs)
		})
		tr.Route("/brands", func(rt chi.Router) {
			rt.Get("/", h.listBrands)
			rt.With(editor).Post("/", h.createBrand)
			rt.Get("/{id}", h.getBrand)
			rt.With(editor).Put("/{id}", h.updateBrand)
			rt.With(editor).Delete("/{id}", h.deleteBrand)
		})
		tr.Route("/static-pages", func(rt chi.Router) {
			rt.Get("/", h.listStaticPages)
			rt.With(editor).Post("/", h.createStaticPage)
			rt.Get("/{id}", h.getStaticPage)
			rt.With(editor).Put("/{id}", h.updateStaticPage)
			rt.With(editor).Delete("/{id}", h.deleteStaticPage)
			rt.With(editor).Post("/{id}:publish", h.publishStaticPage)
			rt.With(editor).Post("/{id}:unpublish", h.unpublishStaticPage)
		})
		tr.Route("/dynamic-pages", func(rt chi.Router) {
			rt.Get("/", h.listDynamicPages)
			rt.With(editor).Post("/", h.createDynamicPage)
			rt.Get("/{id}", h.getDynamicPage)
			rt.With(editor).Put("/{id}", h.updateDynamicPage)
			rt.With(editor).Delete("/{id}", h.deleteDynamicPage)
			rt.With(editor).Post("/{id}:publish", h.publishDynamicPage)
			rt.With(editor).Post("/{id}:unpublish", h.unpublishDynamicPage)
			rt.With(editor).Post("/{id}/segments", h.addSegment)
			rt.With(editor).Put("/{id}/segments:reorder", h.reorderSegments)
			rt.With(editor).Put("/{id}/segments/{segmentID}", h.updateSegment)
			rt.With(editor).Delete("/{id}/segments/{segmentID}", h.removeSegment)
		})
		tr.Route("/navigation-menus", func(rt chi.Router) {
			rt.Get("/", h.listMenus)
			rt.With(editor).Post("/", h.createMenu)
			rt.Get("/{id}", h.getMenu)
			rt.With(editor).Put("/{id}", h.updateMenu)
			rt.With(editor).Delete("/{id}", h.deleteMenu)
		})
		tr.Get("/homepage-sections", h.listSections)
		tr.With(editor).Post("/homepage-sections", h.createSection)
		tr.With(editor).Put("/homepage-sections:reorder", h.reorderSections)
		tr.With(editor).Put("/homepage-sections/{id}", h.updateSection)
		tr.With(editor).Delete("/homepage-sections/{id}", h.deleteSection)
		tr.With(editor).Patch("/homepage-sections/{id}/visibility", h.setSectionVisibility)
		tr.Route("/media", func(rt chi.Router) {
			rt.Get("/", h.listMedia)
			rt.With(editor, h.uploadLimit).Post("/signatures", h.issueUploadSignature)
			rt.With(editor).Post("/{id}:complete", h.completeUpload)
			rt.Get("/{id}/download", h.issueDownload)
			rt.With(editor).Delete("/{id}", h.deleteMedia)
		})
		tr.Get("/audit-logs", h.listAuditLogs)
	})
}

func (h *AdminHandlers) uploadLimit(next http.Handler) http.Handler {
	if h.uploads == nil {
		return next
	}
	return h.uploads(next)
}

func pathID(r *http.Request, name string) string {
	return strings.TrimSpace(chi.URLParam(r, name))
}

func savedStatus(r *http.Request) int {
	if r.Method == http.MethodPost {
		return http.StatusCreated
	}
	return http.StatusOK
}
