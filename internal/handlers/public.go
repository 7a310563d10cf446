package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/quantum-portal/api/internal/platform/httpx"
	"github.com/quantum-portal/api/internal/services"
)

const (
	defaultPublicMaxAge = 60 * time.Second
	defaultPublicSWR    = 5 * time.Minute
)

// PublicHandlers serves the tenant-scoped storefront read API.
type PublicHandlers struct {
	homepage     services.HomepageService
	categories   services.CategoryService
	brands       services.BrandService
	staticPages  services.StaticPageService
	dynamicPages services.DynamicPageService
	navigation   services.NavigationService
	cache        CachePolicy
}

// PublicOption configures PublicHandlers.
type PublicOption func(*PublicHandlers)

// WithPublicHomepage sets the homepage service.
func WithPublicHomepage(svc services.HomepageService) PublicOption {
	return func(h *PublicHandlers) { h.homepage = svc }
}

// WithPublicCategories sets the category service.
func WithPublicCategories(svc services.CategoryService) PublicOption {
	return func(h *PublicHandlers) { h.categories = svc }
}

// WithPublicBrands sets the brand service.
func WithPublicBrands(svc services.BrandService) PublicOption {
	return func(h *PublicHandlers) { h.brands = svc }
}

// WithPublicPages sets the static and dynamic page services.
func WithPublicPages(static services.StaticPageService, dynamic services.DynamicPageService) PublicOption {
	return func(h *PublicHandlers) {
		h.staticPages = static
		h.dynamicPages = dynamic
	}
}

// WithPublicNavigation sets the navigation service.
func WithPublicNavigation(svc services.NavigationService) PublicOption {
	return func(h *PublicHandlers) { h.navigation = svc }
}

// WithPublicCachePolicy overrides the Cache-Control policy of public responses.
func WithPublicCachePolicy(policy CachePolicy) PublicOption {
	return func(h *PublicHandlers) { h.cache = policy }
}

// NewPublicHandlers constructs the public handlers.
func NewPublicHandlers(opts ...PublicOption) *PublicHandlers {
	h := &PublicHandlers{cache: CachePolicy{MaxAge: defaultPublicMaxAge, StaleWhileRevalidate: defaultPublicSWR}}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Routes registers the public endpoints. Tenancy must already be resolved.
func (h *PublicHandlers) Routes(r chi.Router) {
	r.Get("/homepage", h.getHomepage)
	r.Get("/categories", h.getCategoryTree)
	r.Get("/categories/{slug}", h.getCategory)
	r.Get("/brands", h.listBrands)
	r.Get("/brands/{slug}", h.getBrand)
	r.Get("/pages/{slug}", h.getStaticPage)
	r.Get("/dynamic-pages/{slug}", h.getDynamicPage)
	r.Get("/navigation/{location}", h.getNavigation)
}

func unavailable(w http.ResponseWriter, r *http.Request, name string) {
	httpx.WriteError(r.Context(), w, httpx.NewError("unavailable", name+" service unavailable", http.StatusServiceUnavailable))
}

func (h *PublicHandlers) getHomepage(w http.ResponseWriter, r *http.Request) {
	if h.homepage == nil {
		unavailable(w, r, "homepage")
		return
	}
	page, err := h.homepage.Homepage(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "homepage")
		return
	}
	writeCachedJSON(w, r, h.cache, newHomepageResponse(page))
}

func (h *PublicHandlers) getCategoryTree(w http.ResponseWriter, r *http.Request) {
	if h.categories == nil {
		unavailable(w, r, "category")
		return
	}
	tree, err := h.categories.CategoryTree(r.Context(), true)
	if err != nil {
		writeServiceError(w, r, err, "category")
		return
	}
	writeCachedJSON(w, r, h.cache, map[string]any{"categories": mapSlice(tree, newCategoryNodeResponse)})
}

func (h *PublicHandlers) getCategory(w http.ResponseWriter, r *http.Request) {
	if h.categories == nil {
		unavailable(w, r, "category")
		return
	}
	detail, err := h.categories.GetPublicCategory(r.Context(), strings.TrimSpace(chi.URLParam(r, "slug")))
	if err != nil {
		writeServiceError(w, r, err, "category")
		return
	}
	writeCachedJSON(w, r, h.cache, categoryDetailResponse{
		Category:    newCategoryResponse(detail.Category),
		Breadcrumbs: mapSlice(detail.Breadcrumbs, newCategoryResponse),
		Children:    mapSlice(detail.Children, newCategoryResponse),
	})
}

func (h *PublicHandlers) listBrands(w http.ResponseWriter, r *http.Request) {
	if h.brands == nil {
		unavailable(w, r, "brand")
		return
	}
	featured, _, err := parseOptionalBool(r, "featured")
	if err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	pager, ok := parsePagination(w, r)
	if !ok {
		return
	}
	page, err := h.brands.ListBrands(r.Context(), services.BrandListFilter{FeaturedOnly: featured, ActiveOnly: true, Pagination: pager})
	if err != nil {
		writeServiceError(w, r, err, "brand")
		return
	}
	writeCachedJSON(w, r, h.cache, newListResponse(page, newBrandResponse))
}

func (h *PublicHandlers) getBrand(w http.ResponseWriter, r *http.Request) {
	if h.brands == nil {
		unavailable(w, r, "brand")
		return
	}
	brand, err := h.brands.GetPublicBrand(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeServiceError(w, r, err, "brand")
		return
	}
	writeCachedJSON(w, r, h.cache, newBrandResponse(brand))
}

func (h *PublicHandlers) getStaticPage(w http.ResponseWriter, r *http.Request) {
	if h.staticPages == nil {
		unavailable(w, r, "page")
		return
	}
	page, err := h.staticPages.GetPublishedStaticPage(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeServiceError(w, r, err, "page")
		return
	}
	writeCachedJSON(w, r, h.cache, newRenderedStaticPageResponse(page))
}

func (h *PublicHandlers) getDynamicPage(w http.ResponseWriter, r *http.Request) {
	if h.dynamicPages == nil {
		unavailable(w, r, "page")
		return
	}
	device, err := services.ParseDevice(r.URL.Query().Get("device"))
	if err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	page, err := h.dynamicPages.RenderDynamicPage(r.Context(), chi.URLParam(r, "slug"), device)
	if err != nil {
		writeServiceError(w, r, err, "page")
		return
	}
	writeCachedJSON(w, r, h.cache, newRenderedDynamicPageResponse(page))
}

func (h *PublicHandlers) getNavigation(w http.ResponseWriter, r *http.Request) {
	if h.navigation == nil {
		unavailable(w, r, "navigation")
		return
	}
	menu, err := h.navigation.ResolveMenu(r.Context(), chi.URLParam(r, "location"))
	if err != nil {
		writeServiceError(w, r, err, "navigation_menu")
		return
	}
	writeCachedJSON(w, r, h.cache, newResolvedMenuResponse(menu))
}
