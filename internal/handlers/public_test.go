package handlers

import (
	"net/http"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/quantum-portal/api/internal/domain"
	"github.com/quantum-portal/api/internal/services"
)

func TestPublicCategoriesCachedWithETag(t *testing.T) {
	f := newCMSFixture(t)
	ctx := f.acmeCtx()
	hats, err := f.categories.CreateCategory(ctx, services.CategoryInput{Name: "Hats"})
	require.NoError(t, err)
	_, err = f.categories.CreateCategory(ctx, services.CategoryInput{Name: "Caps", ParentID: hats.ID})
	require.NoError(t, err)
	_, err = f.categories.CreateCategory(ctx, services.CategoryInput{Name: "Hidden", IsActive: new(bool)})
	require.NoError(t, err)

	rr := f.do(t, fixtureRequest{method: http.MethodGet, path: "/api/v1/public/categories", tenant: "acme"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "public, max-age=60, stale-while-revalidate=300", rr.Header().Get("Cache-Control"))
	etag := rr.Header().Get("ETag")
	require.True(t, strings.HasPrefix(etag, `W/"`), etag)

	body := decodeBody[struct {
		Categories []struct {
			Slug     string `json:"slug"`
			Children []struct {
				Slug string `json:"slug"`
			} `json:"children"`
		} `json:"categories"`
	}](t, rr)
	require.Len(t, body.Categories, 1)
	assert.Equal(t, "hats", body.Categories[0].Slug)
	require.Len(t, body.Categories[0].Children, 1)
	assert.Equal(t, "caps", body.Categories[0].Children[0].Slug)

	rr = f.do(t, fixtureRequest{
		method:  http.MethodGet,
		path:    "/api/v1/public/categories",
		tenant:  "acme",
		headers: map[string]string{"If-None-Match": etag},
	})
	assert.Equal(t, http.StatusNotModified, rr.Code)
	assert.Empty(t, rr.Body.String())
}

func TestPublicTenantResolution(t *testing.T) {
	f := newCMSFixture(t)

	rr := f.do(t, fixtureRequest{method: http.MethodGet, path: "http://shop.acme.test/api/v1/public/brands"})
	assert.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = f.do(t, fixtureRequest{method: http.MethodGet, path: "http://unknown.test/api/v1/public/brands"})
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "tenant_not_found", errorCode(t, rr))

	rr = f.do(t, fixtureRequest{method: http.MethodGet, path: "/api/v1/public/brands", tenant: "globex"})
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "tenant_suspended", errorCode(t, rr))
}

func TestPublicBrandsHideInactive(t *testing.T) {
	f := newCMSFixture(t)
	ctx := f.acmeCtx()
	_, err := f.brands.CreateBrand(ctx, services.BrandInput{Name: "Northwind", IsFeatured: true})
	require.NoError(t, err)
	_, err = f.brands.CreateBrand(ctx, services.BrandInput{Name: "Contoso"})
	require.NoError(t, err)
	_, err = f.brands.CreateBrand(ctx, services.BrandInput{Name: "Retired", IsActive: new(bool)})
	require.NoError(t, err)

	rr := f.do(t, fixtureRequest{method: http.MethodGet, path: "/api/v1/public/brands?featured=true", tenant: "acme"})
	require.Equal(t, http.StatusOK, rr.Code)
	page := decodeBody[struct {
		Items []struct {
			Slug string `json:"slug"`
		} `json:"items"`
	}](t, rr)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "northwind", page.Items[0].Slug)

	rr = f.do(t, fixtureRequest{method: http.MethodGet, path: "/api/v1/public/brands/retired", tenant: "acme"})
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "brand_not_found", errorCode(t, rr))

	rr = f.do(t, fixtureRequest{method: http.MethodGet, path: "/api/v1/public/brands?featured=maybe", tenant: "acme"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPublicDynamicPageRendersForDevice(t *testing.T) {
	f := newCMSFixture(t)
	ctx := f.acmeCtx()
	hidden := false
	page, err := f.dynamicPages.CreateDynamicPage(ctx, services.DynamicPageInput{
		Title: "Spring Launch",
		Segments: []services.SegmentInput{
			{ID: "hero", Name: "Hero", Blocks: []services.BlockInput{
				{ID: "html", Type: domain.BlockTypeCustomHTML, Content: map[string]any{"html": `<p class="lead">Hello<script>alert(1)</script></p>`}},
			}},
			{ID: "desktop-only", Name: "Wide", Blocks: []services.BlockInput{
				{ID: "spacer", Type: domain.BlockTypeSpacer, Mobile: &hidden},
			}},
		},
	})
	require.NoError(t, err)

	rr := f.do(t, fixtureRequest{method: http.MethodGet, path: "/api/v1/public/dynamic-pages/spring-launch", tenant: "acme"})
	assert.Equal(t, http.StatusNotFound, rr.Code, "drafts are not public")

	_, err = f.dynamicPages.PublishDynamicPage(ctx, page.ID)
	require.NoError(t, err)

	rr = f.do(t, fixtureRequest{method: http.MethodGet, path: "/api/v1/public/dynamic-pages/spring-launch?device=mobile", tenant: "acme"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	rendered := decodeBody[struct {
		Device   string `json:"device"`
		Segments []struct {
			ID     string `json:"id"`
			Blocks []struct {
				Content map[string]any `json:"content"`
			} `json:"blocks"`
		} `json:"segments"`
	}](t, rr)
	assert.Equal(t, "mobile", rendered.Device)
	require.Len(t, rendered.Segments, 1)
	assert.Equal(t, "hero", rendered.Segments[0].ID)

	html, _ := rendered.Segments[0].Blocks[0].Content["html"].(string)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	assert.Equal(t, 0, doc.Find("script").Length())
	assert.Equal(t, "Hello", doc.Find("p").Text())

	rr = f.do(t, fixtureRequest{method: http.MethodGet, path: "/api/v1/public/dynamic-pages/spring-launch?device=tv", tenant: "acme"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "invalid_request", errorCode(t, rr))
}

func TestPublicNavigationResolvesLinks(t *testing.T) {
	f := newCMSFixture(t)
	ctx := f.acmeCtx()
	shoes, err := f.categories.CreateCategory(ctx, services.CategoryInput{Name: "Shoes"})
	require.NoError(t, err)
	_, err = f.navigation.CreateMenu(ctx, services.NavigationMenuInput{
		Name:     "Main",
		Location: "header",
		Items: []domain.NavigationItem{
			{Label: "Shoes", Type: domain.NavigationItemCategory, TargetID: shoes.ID},
			{Label: "Blog", Type: domain.NavigationItemLink, URL: "https://blog.acme.test"},
		},
	})
	require.NoError(t, err)

	rr := f.do(t, fixtureRequest{method: http.MethodGet, path: "/api/v1/public/navigation/header", tenant: "acme"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	menu := decodeBody[struct {
		Items []struct {
			Label string `json:"label"`
			Href  string `json:"href"`
		} `json:"items"`
	}](t, rr)
	require.Len(t, menu.Items, 2)
	assert.Equal(t, "/categories/shoes", menu.Items[0].Href)
	assert.Equal(t, "https://blog.acme.test", menu.Items[1].Href)

	rr = f.do(t, fixtureRequest{method: http.MethodGet, path: "/api/v1/public/navigation/footer", tenant: "acme"})
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "navigation_menu_not_found", errorCode(t, rr))
}
