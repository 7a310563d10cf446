package services

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/quantum-portal/api/internal/domain"
	"github.com/quantum-portal/api/internal/repositories/memory"
)

func TestSanitizeNavigationItems(t *testing.T) {
	input := []NavigationItem{
		{Label: "  Home ", URL: " / "},
		{Label: "", URL: "/dropped"},
		{Label: "Script", URL: "javascript:alert(1)"},
		{Label: "Protocol relative", URL: "//evil.example"},
		{Label: "Mail", URL: "mailto:help@example.com"},
		{Label: "Call", URL: "tel:+15551234"},
		{Label: "Shoes", Type: "CATEGORY", TargetID: " c1 ", URL: "/ignored"},
		{Label: "No target", Type: domain.NavigationItemBrand},
		{Label: "Unknown", Type: "widget", URL: "/x"},
		{ID: "keep", Label: "External", URL: "https://example.com/a", OpenInNewTab: true, Items: []NavigationItem{
			{Label: "Child", URL: "/child"},
		}},
	}

	got := SanitizeNavigationItems(input, sequentialIDs("nav"))
	want := []NavigationItem{
		{ID: "nav-01", Label: "Home", URL: "/", Type: domain.NavigationItemLink},
		{ID: "nav-02", Label: "Mail", URL: "mailto:help@example.com", Type: domain.NavigationItemLink},
		{ID: "nav-03", Label: "Call", URL: "tel:+15551234", Type: domain.NavigationItemLink},
		{ID: "nav-04", Label: "Shoes", Type: domain.NavigationItemCategory, TargetID: "c1"},
		{ID: "keep", Label: "External", URL: "https://example.com/a", Type: domain.NavigationItemLink, OpenInNewTab: true, Items: []NavigationItem{
			{ID: "nav-05", Label: "Child", URL: "/child", Type: domain.NavigationItemLink},
		}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("sanitised items mismatch (-want +got):\n%s", diff)
	}
}

func TestSanitizeNavigationItemsLimits(t *testing.T) {
	deep := NavigationItem{Label: "L5", URL: "/5"}
	for _, label := range []string{"L4", "L3", "L2", "L1"} {
		deep = NavigationItem{Label: label, URL: "/" + strings.ToLower(label), Items: []NavigationItem{deep}}
	}
	got := SanitizeNavigationItems([]NavigationItem{deep}, sequentialIDs("n"))
	depth := 0
	for level := got; len(level) > 0; level = level[0].Items {
		depth++
	}
	assert.Equal(t, maxNavigationDepth, depth)

	wide := make([]NavigationItem, maxNavigationItems+10)
	for i := range wide {
		wide[i] = NavigationItem{Label: "x", URL: "/x"}
	}
	assert.Len(t, SanitizeNavigationItems(wide, sequentialIDs("w")), maxNavigationItems)

	dupes := SanitizeNavigationItems([]NavigationItem{
		{ID: "same", Label: "a", URL: "/a"},
		{ID: "same", Label: "b", URL: "/b"},
	}, sequentialIDs("d"))
	require.Len(t, dupes, 2)
	assert.Equal(t, "same", dupes[0].ID)
	assert.Equal(t, "d-01", dupes[1].ID)
}

type navigationFixture struct {
	svc      NavigationService
	registry *memory.Registry
	ctx      context.Context
}

func newNavigationFixture(t *testing.T) navigationFixture {
	t.Helper()
	registry := memory.NewRegistry()
	deps, _, _ := testMutationDeps("menu")
	svc, err := NewNavigationService(NavigationServiceDeps{
		Menus:        registry.NavigationMenus(),
		Categories:   registry.Categories(),
		Brands:       registry.Brands(),
		StaticPages:  registry.StaticPages(),
		DynamicPages: registry.DynamicPages(),
		MutationDeps: deps,
	})
	require.NoError(t, err)
	return navigationFixture{svc: svc, registry: registry, ctx: tenantCtx("acme")}
}

func TestNavigationMenuLocationIsUnique(t *testing.T) {
	f := newNavigationFixture(t)

	menu, err := f.svc.CreateMenu(f.ctx, NavigationMenuInput{Name: "Header", Location: "Header"})
	require.NoError(t, err)
	assert.Equal(t, "header", menu.Location)

	_, err = f.svc.CreateMenu(f.ctx, NavigationMenuInput{Name: "Other", Location: "header"})
	assert.ErrorIs(t, err, ErrNavigationConflict)

	_, err = f.svc.CreateMenu(f.ctx, NavigationMenuInput{Name: "Bad", Location: "top nav"})
	assert.ErrorIs(t, err, ErrNavigationInvalidInput)

	updated, err := f.svc.UpdateMenu(f.ctx, menu.ID, NavigationMenuInput{Name: "Main header", Location: "header"})
	require.NoError(t, err)
	assert.Equal(t, "Main header", updated.Name)

	found, err := f.svc.GetMenuByLocation(f.ctx, "header")
	require.NoError(t, err)
	assert.Equal(t, menu.ID, found.ID)
}

func TestResolveMenuBuildsHrefsAndDropsStaleTargets(t *testing.T) {
	f := newNavigationFixture(t)
	ctx := f.ctx
	require.NoError(t, f.registry.Categories().Insert(ctx, domain.Category{ID: "c1", Slug: "shoes", IsActive: true}))
	require.NoError(t, f.registry.Categories().Insert(ctx, domain.Category{ID: "c2", Slug: "old", IsActive: false}))
	require.NoError(t, f.registry.Brands().Insert(ctx, domain.Brand{ID: "b1", Slug: "acme", IsActive: true}))
	require.NoError(t, f.registry.StaticPages().Insert(ctx, domain.StaticPage{ID: "p1", Slug: "about", Status: domain.PageStatusPublished}))
	require.NoError(t, f.registry.StaticPages().Insert(ctx, domain.StaticPage{ID: "p2", Slug: "draft", Status: domain.PageStatusDraft}))
	require.NoError(t, f.registry.DynamicPages().Insert(ctx, domain.DynamicPage{ID: "d1", Slug: "sale", Status: domain.PageStatusPublished}))

	_, err := f.svc.CreateMenu(ctx, NavigationMenuInput{
		Name:     "Header",
		Location: "header",
		Items: []NavigationItem{
			{ID: "shop", Label: "Shop", Type: domain.NavigationItemCategory, TargetID: "c1", Items: []NavigationItem{
				{ID: "old", Label: "Old", Type: domain.NavigationItemCategory, TargetID: "c2"},
				{ID: "brand", Label: "Acme", Type: domain.NavigationItemBrand, TargetID: "b1"},
			}},
			{ID: "gone", Label: "Gone", Type: domain.NavigationItemCategory, TargetID: "deleted", Items: []NavigationItem{
				{ID: "orphan", Label: "Orphan", URL: "/orphan"},
			}},
			{ID: "about", Label: "About", Type: domain.NavigationItemPage, TargetID: "p1"},
			{ID: "draft", Label: "Draft", Type: domain.NavigationItemPage, TargetID: "p2"},
			{ID: "sale", Label: "Sale", Type: domain.NavigationItemPage, TargetID: "d1"},
			{ID: "ext", Label: "Blog", URL: "https://blog.example.com", OpenInNewTab: true},
		},
	})
	require.NoError(t, err)

	resolved, err := f.svc.ResolveMenu(ctx, "header")
	require.NoError(t, err)
	want := []domain.ResolvedNavigationItem{
		{ID: "shop", Label: "Shop", Href: "/categories/shoes", Type: domain.NavigationItemCategory, Items: []domain.ResolvedNavigationItem{
			{ID: "brand", Label: "Acme", Href: "/brands/acme", Type: domain.NavigationItemBrand},
		}},
		{ID: "about", Label: "About", Href: "/pages/about", Type: domain.NavigationItemPage},
		{ID: "sale", Label: "Sale", Href: "/pages/sale", Type: domain.NavigationItemPage},
		{ID: "ext", Label: "Blog", Href: "https://blog.example.com", Type: domain.NavigationItemLink, OpenInNewTab: true},
	}
	if diff := cmp.Diff(want, resolved.Items); diff != "" {
		t.Fatalf("resolved menu mismatch (-want +got):\n%s", diff)
	}

	_, err = f.svc.ResolveMenu(ctx, "footer")
	assert.ErrorIs(t, err, ErrNavigationNotFound)
}

func TestResolveMenuSkipsInactiveMenus(t *testing.T) {
	f := newNavigationFixture(t)
	_, err := f.svc.CreateMenu(f.ctx, NavigationMenuInput{Name: "Footer", Location: "footer", IsActive: ptr(false)})
	require.NoError(t, err)

	_, err = f.svc.ResolveMenu(f.ctx, "footer")
	assert.ErrorIs(t, err, ErrNotFound)
}
