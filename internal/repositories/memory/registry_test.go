package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/quantum-portal/api/internal/domain"
	"github.com/quantum-portal/api/internal/platform/requestctx"
	"github.com/quantum-portal/api/internal/repositories"
)

func TestTenantScopedTablesAreIsolated(t *testing.T) {
	reg := NewRegistry()
	acme := requestctx.WithTenantID(context.Background(), "acme")
	globex := requestctx.WithTenantID(context.Background(), "globex")

	require.NoError(t, reg.Brands().Insert(acme, domain.Brand{ID: "b1", Slug: "nike"}))
	require.NoError(t, reg.Brands().Insert(globex, domain.Brand{ID: "b1", Slug: "nike"}))

	err := reg.Brands().Insert(acme, domain.Brand{ID: "b1"})
	assert.True(t, repositories.IsConflict(err))

	require.NoError(t, reg.Brands().Delete(globex, "b1"))
	_, err = reg.Brands().FindByID(globex, "b1")
	assert.True(t, repositories.IsNotFound(err))

	got, err := reg.Brands().FindBySlug(acme, "nike")
	require.NoError(t, err)
	assert.Equal(t, "b1", got.ID)

	_, err = reg.Brands().FindByID(context.Background(), "b1")
	assert.ErrorIs(t, err, requestctx.ErrNoTenant)
}

func TestPaginateWalksAllPages(t *testing.T) {
	reg := NewRegistry()
	ctx := requestctx.WithTenantID(context.Background(), "acme")
	for _, id := range []string{"c", "a", "e", "b", "d"} {
		require.NoError(t, reg.Categories().Insert(ctx, domain.Category{ID: id, Name: id}))
	}

	var seen []string
	token := ""
	for {
		page, err := reg.Categories().List(ctx, repositories.CategoryListFilter{
			Pagination: domain.Pagination{PageSize: 2, PageToken: token},
		})
		require.NoError(t, err)
		for _, c := range page.Items {
			seen = append(seen, c.ID)
		}
		if page.NextPageToken == "" {
			break
		}
		token = page.NextPageToken
	}
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, seen)
}

func TestStoredValuesAreCopied(t *testing.T) {
	reg := NewRegistry()
	ctx := requestctx.WithTenantID(context.Background(), "acme")
	page := domain.DynamicPage{ID: "p1", Segments: []domain.Segment{{ID: "s1", Blocks: []domain.Block{{ID: "b1"}}}}}
	require.NoError(t, reg.DynamicPages().Insert(ctx, page))

	loaded, err := reg.DynamicPages().FindByID(ctx, "p1")
	require.NoError(t, err)
	loaded.Segments[0].Blocks[0].ID = "mutated"

	again, err := reg.DynamicPages().FindByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "b1", again.Segments[0].Blocks[0].ID)
}

func TestUpdateOrdersIsAllOrNothing(t *testing.T) {
	reg := NewRegistry()
	ctx := requestctx.WithTenantID(context.Background(), "acme")
	require.NoError(t, reg.HomepageSections().Insert(ctx, domain.HomepageSection{ID: "a", Order: 0}))

	err := reg.HomepageSections().UpdateOrders(ctx, map[string]int{"a": 5, "ghost": 1}, time.Now())
	assert.True(t, repositories.IsNotFound(err))

	section, err := reg.HomepageSections().FindByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 0, section.Order)
}
