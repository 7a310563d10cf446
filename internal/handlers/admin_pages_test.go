package handlers

import (
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminStaticPagePublishFlow(t *testing.T) {
	f := newCMSFixture(t)

	rr := f.do(t, fixtureRequest{method: http.MethodPost, path: "/api/v1/admin/static-pages", token: "editor", tenant: "acme", body: map[string]any{
		"title": "Returns", "format": "markdown", "content": "Send it **back**.",
	}})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	page := decodeBody[struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}](t, rr)
	assert.Equal(t, "draft", page.Status)

	rr = f.do(t, fixtureRequest{method: http.MethodGet, path: "/api/v1/public/pages/returns", tenant: "acme"})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = f.do(t, fixtureRequest{method: http.MethodPost, path: "/api/v1/admin/static-pages/" + page.ID + ":publish", token: "editor", tenant: "acme"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = f.do(t, fixtureRequest{method: http.MethodGet, path: "/api/v1/public/pages/returns", tenant: "acme"})
	require.Equal(t, http.StatusOK, rr.Code)
	rendered := decodeBody[struct {
		HTML string `json:"html"`
	}](t, rr)
	assert.Contains(t, rendered.HTML, "<strong>back</strong>")

	rr = f.do(t, fixtureRequest{method: http.MethodPost, path: "/api/v1/admin/dynamic-pages", token: "editor", tenant: "acme", body: map[string]any{"title": "Returns"}})
	assert.Equal(t, http.StatusConflict, rr.Code, "slugs are shared with static pages")
	assert.Equal(t, "dynamic_page_conflict", errorCode(t, rr))

	rr = f.do(t, fixtureRequest{method: http.MethodPost, path: "/api/v1/admin/static-pages", token: "editor", tenant: "acme", body: map[string]any{
		"title": "Later", "status": "scheduled", "publishAt": "tomorrow",
	}})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAdminDynamicPageSegments(t *testing.T) {
	f := newCMSFixture(t)
	call := func(method, path string, body any) map[string]any {
		rr := f.do(t, fixtureRequest{method: method, path: "/api/v1/admin/dynamic-pages" + path, token: "editor", tenant: "acme", body: body})
		require.Less(t, rr.Code, 300, rr.Body.String())
		return decodeBody[map[string]any](t, rr)
	}
	segmentIDs := func(page map[string]any) []string {
		var ids []string
		for _, s := range page["segments"].([]any) {
			ids = append(ids, s.(map[string]any)["id"].(string))
		}
		return ids
	}

	page := call(http.MethodPost, "", map[string]any{
		"title":    "Landing",
		"segments": []any{map[string]any{"id": "hero", "name": "Hero", "blocks": []any{map[string]any{"type": "spacer"}}}},
	})
	id := page["id"].(string)

	call(http.MethodPost, "/"+id+"/segments", map[string]any{"id": "brands", "name": "Brands", "blocks": []any{map[string]any{"type": "brand_list", "content": map[string]any{"featured": true}}}})
	page = call(http.MethodPost, "/"+id+"/segments", map[string]any{"id": "footer", "name": "Footer"})
	if diff := cmp.Diff([]string{"hero", "brands", "footer"}, segmentIDs(page)); diff != "" {
		t.Fatalf("segments mismatch (-want +got):\n%s", diff)
	}

	page = call(http.MethodPut, "/"+id+"/segments:reorder", map[string]any{"ids": []string{"footer", "hero", "brands"}})
	if diff := cmp.Diff([]string{"footer", "hero", "brands"}, segmentIDs(page)); diff != "" {
		t.Fatalf("reordered segments mismatch (-want +got):\n%s", diff)
	}

	page = call(http.MethodDelete, "/"+id+"/segments/footer", nil)
	if diff := cmp.Diff([]string{"hero", "brands"}, segmentIDs(page)); diff != "" {
		t.Fatalf("segments after removal mismatch (-want +got):\n%s", diff)
	}

	rr := f.do(t, fixtureRequest{method: http.MethodPut, path: "/api/v1/admin/dynamic-pages/" + id + "/segments:reorder", token: "editor", tenant: "acme", body: map[string]any{"ids": []string{"hero"}}})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = f.do(t, fixtureRequest{method: http.MethodPost, path: "/api/v1/admin/dynamic-pages/" + id + "/segments", token: "editor", tenant: "acme", body: map[string]any{"name": "Bad", "blocks": []any{map[string]any{"type": "hologram"}}}})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = f.do(t, fixtureRequest{method: http.MethodDelete, path: "/api/v1/admin/dynamic-pages/missing/segments/hero", token: "editor", tenant: "acme"})
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "dynamic_page_not_found", errorCode(t, rr))
}

func TestAdminHomepageSections(t *testing.T) {
	f := newCMSFixture(t)
	create := func(body map[string]any) string {
		rr := f.do(t, fixtureRequest{method: http.MethodPost, path: "/api/v1/admin/homepage-sections", token: "editor", tenant: "acme", body: body})
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		return decodeBody[idBody](t, rr).ID
	}
	hero := create(map[string]any{"type": "hero", "title": "Welcome", "content": map[string]any{"imageUrl": "/hero.jpg"}})
	brands := create(map[string]any{"type": "featured_brands"})
	html := create(map[string]any{"type": "custom_html", "content": map[string]any{"html": "<b>hi</b>"}})

	rr := f.do(t, fixtureRequest{method: http.MethodPut, path: "/api/v1/admin/homepage-sections:reorder", token: "editor", tenant: "acme", body: map[string]any{"ids": []string{html, hero, brands}}})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = f.do(t, fixtureRequest{method: http.MethodPatch, path: "/api/v1/admin/homepage-sections/" + brands + "/visibility", token: "editor", tenant: "acme", body: map[string]any{"isVisible": false}})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = f.do(t, fixtureRequest{method: http.MethodPatch, path: "/api/v1/admin/homepage-sections/" + brands + "/visibility", token: "editor", tenant: "acme", body: map[string]any{}})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = f.do(t, fixtureRequest{method: http.MethodGet, path: "/api/v1/public/homepage", tenant: "acme"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	home := decodeBody[struct {
		Sections []struct {
			ID string `json:"id"`
		} `json:"sections"`
	}](t, rr)
	var got []string
	for _, s := range home.Sections {
		got = append(got, s.ID)
	}
	assert.Equal(t, []string{html, hero}, got)

	rr = f.do(t, fixtureRequest{method: http.MethodPost, path: "/api/v1/admin/homepage-sections", token: "editor", tenant: "acme", body: map[string]any{"type": "carousel"}})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAdminNavigationMenus(t *testing.T) {
	f := newCMSFixture(t)

	rr := f.do(t, fixtureRequest{method: http.MethodPost, path: "/api/v1/admin/navigation-menus", token: "editor", tenant: "acme", body: map[string]any{
		"name": "Footer", "location": "footer",
		"items": []any{map[string]any{"label": "About", "type": "link", "url": "/about"}},
	}})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	menu := decodeBody[struct {
		ID    string `json:"id"`
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
	}](t, rr)
	require.Len(t, menu.Items, 1)
	assert.NotEmpty(t, menu.Items[0].ID)

	rr = f.do(t, fixtureRequest{method: http.MethodPost, path: "/api/v1/admin/navigation-menus", token: "editor", tenant: "acme", body: map[string]any{"name": "Again", "location": "footer"}})
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "navigation_menu_conflict", errorCode(t, rr))

	rr = f.do(t, fixtureRequest{method: http.MethodDelete, path: "/api/v1/admin/navigation-menus/" + menu.ID, token: "editor", tenant: "acme"})
	assert.Equal(t, http.StatusNoContent, rr.Code)
}
