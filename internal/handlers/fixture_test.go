package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	firebaseauth "firebase.google.com/go/v4/auth"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	domain "github.com/quantum-portal/api/internal/domain"
	"github.com/quantum-portal/api/internal/platform/auth"
	"github.com/quantum-portal/api/internal/platform/requestctx"
	"github.com/quantum-portal/api/internal/repositories/memory"
	"github.com/quantum-portal/api/internal/services"
)

var fixtureNow = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

// stubVerifier maps bearer tokens to decoded Firebase tokens.
type stubVerifier struct {
	tokens map[string]*firebaseauth.Token
}

func (v stubVerifier) VerifyIDToken(_ context.Context, token string) (*firebaseauth.Token, error) {
	if t, ok := v.tokens[token]; ok {
		return t, nil
	}
	return nil, errors.New("unknown token")
}

func firebaseToken(uid string, roles []any, tenants []any) *firebaseauth.Token {
	claims := map[string]interface{}{"email": uid + "@example.com", "roles": roles}
	if tenants != nil {
		claims["tenants"] = tenants
	}
	return &firebaseauth.Token{UID: uid, Claims: claims}
}

type cmsFixture struct {
	registry     *memory.Registry
	tenants      services.TenantService
	categories   services.CategoryService
	brands       services.BrandService
	staticPages  services.StaticPageService
	dynamicPages services.DynamicPageService
	navigation   services.NavigationService
	homepage     services.HomepageService
	router       http.Handler
}

// newCMSFixture wires the real services over the in-memory registry behind the full router.
// Tenants: acme (active, shop.acme.test) and globex (suspended).
// Tokens: "admin" (admin), "editor" (editor for acme), "viewer" (viewer for acme), "outsider"
// (editor for globex).
func newCMSFixture(t *testing.T) *cmsFixture {
	t.Helper()
	registry := memory.NewRegistry()
	deps := services.MutationDeps{Clock: func() time.Time { return fixtureNow }}

	tenants, err := services.NewTenantService(services.TenantServiceDeps{Tenants: registry.Tenants(), Clock: deps.Clock})
	require.NoError(t, err)
	categories, err := services.NewCategoryService(services.CategoryServiceDeps{Categories: registry.Categories(), MutationDeps: deps})
	require.NoError(t, err)
	brands, err := services.NewBrandService(services.BrandServiceDeps{Brands: registry.Brands(), MutationDeps: deps})
	require.NoError(t, err)
	staticPages, err := services.NewStaticPageService(services.StaticPageServiceDeps{
		StaticPages:  registry.StaticPages(),
		DynamicPages: registry.DynamicPages(),
		MutationDeps: deps,
	})
	require.NoError(t, err)
	dynamicPages, err := services.NewDynamicPageService(services.DynamicPageServiceDeps{
		DynamicPages: registry.DynamicPages(),
		StaticPages:  registry.StaticPages(),
		Categories:   registry.Categories(),
		Brands:       registry.Brands(),
		MutationDeps: deps,
	})
	require.NoError(t, err)
	navigation, err := services.NewNavigationService(services.NavigationServiceDeps{
		Menus:        registry.NavigationMenus(),
		Categories:   registry.Categories(),
		Brands:       registry.Brands(),
		StaticPages:  registry.StaticPages(),
		DynamicPages: registry.DynamicPages(),
		MutationDeps: deps,
	})
	require.NoError(t, err)
	homepage, err := services.NewHomepageService(services.HomepageServiceDeps{
		Sections:     registry.HomepageSections(),
		Categories:   registry.Categories(),
		Brands:       registry.Brands(),
		Navigation:   navigation,
		MutationDeps: deps,
	})
	require.NoError(t, err)

	ctx := context.Background()
	_, err = tenants.CreateTenant(ctx, services.TenantInput{ID: "acme", Name: "Acme", Domains: []string{"shop.acme.test"}, DefaultLocale: "en-US", Status: domain.TenantStatusActive})
	require.NoError(t, err)
	_, err = tenants.CreateTenant(ctx, services.TenantInput{ID: "globex", Name: "Globex", DefaultLocale: "en-US", Status: domain.TenantStatusSuspended})
	require.NoError(t, err)

	authn := auth.NewAuthenticator(stubVerifier{tokens: map[string]*firebaseauth.Token{
		"admin":    firebaseToken("root", []any{"admin"}, nil),
		"editor":   firebaseToken("ed", []any{"editor"}, []any{"acme"}),
		"viewer":   firebaseToken("vi", []any{"viewer"}, []any{"acme"}),
		"outsider": firebaseToken("out", []any{"editor"}, []any{"globex"}),
	}})
	tenancy := NewTenancy(tenants, "")

	public := NewPublicHandlers(
		WithPublicHomepage(homepage),
		WithPublicCategories(categories),
		WithPublicBrands(brands),
		WithPublicPages(staticPages, dynamicPages),
		WithPublicNavigation(navigation),
	)
	admin := NewAdminHandlers(authn, tenancy,
		WithAdminTenants(tenants),
		WithAdminCatalog(categories, brands),
		WithAdminPages(staticPages, dynamicPages),
		WithAdminLayout(navigation, homepage),
	)

	return &cmsFixture{
		registry:     registry,
		tenants:      tenants,
		categories:   categories,
		brands:       brands,
		staticPages:  staticPages,
		dynamicPages: dynamicPages,
		navigation:   navigation,
		homepage:     homepage,
		router: NewRouter(
			WithPublicMiddlewares(tenancy.Public),
			WithPublicRoutes(public.Routes),
			WithAdminRoutes(admin.Routes),
		),
	}
}

type fixtureRequest struct {
	method  string
	path    string
	token   string
	tenant  string
	body    any
	headers map[string]string
}

func (f *cmsFixture) do(t *testing.T, req fixtureRequest) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if req.body != nil {
		raw, err := json.Marshal(req.body)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	r := httptest.NewRequest(req.method, req.path, body)
	if req.token != "" {
		r.Header.Set("Authorization", "Bearer "+req.token)
	}
	if req.tenant != "" {
		r.Header.Set(DefaultTenantHeader, req.tenant)
	}
	for k, v := range req.headers {
		r.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, r)
	return rr
}

func (f *cmsFixture) acmeCtx() context.Context {
	return requestctx.WithTenantID(context.Background(), "acme")
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeBody[map[string]any](t, rr)["error"].(string)
}

func newTestRouter(register RouteRegistrar) chi.Router {
	r := chi.NewRouter()
	register(r)
	return r
}
