package services

import (
	"context"

	domain "github.com/quantum-portal/api/internal/domain"
	"github.com/quantum-portal/api/internal/repositories"
)

const (
	maxResolvedReferences = 50
	defaultFeaturedLimit  = 12
)

// contentResolver expands category and brand references into storefront summaries. Missing or
// inactive targets are skipped; repository failures other than not-found abort.
type contentResolver struct {
	categories repositories.CategoryRepository
	brands     repositories.BrandRepository
	html       HTMLRenderer
}

func (r contentResolver) categorySummaries(ctx context.Context, ids []string) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(ids))
	if r.categories == nil {
		return out, nil
	}
	for _, id := range capList(ids) {
		category, err := r.categories.FindByID(ctx, id)
		if err != nil {
			if repositories.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		if category.IsActive {
			out = append(out, categorySummary(category))
		}
	}
	return out, nil
}

// rootCategories lists active top-level categories in tree order.
func (r contentResolver) rootCategories(ctx context.Context, limit int) ([]map[string]any, error) {
	out := []map[string]any{}
	if r.categories == nil {
		return out, nil
	}
	all, err := r.categories.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, node := range BuildCategoryTree(all, true) {
		if len(out) == limit {
			break
		}
		out = append(out, categorySummary(node.Category))
	}
	return out, nil
}

func (r contentResolver) brandSummaries(ctx context.Context, ids []string) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(ids))
	if r.brands == nil {
		return out, nil
	}
	for _, id := range capList(ids) {
		brand, err := r.brands.FindByID(ctx, id)
		if err != nil {
			if repositories.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		if brand.IsActive {
			out = append(out, brandSummary(brand))
		}
	}
	return out, nil
}

func (r contentResolver) featuredBrands(ctx context.Context, limit int) ([]map[string]any, error) {
	out := []map[string]any{}
	if r.brands == nil {
		return out, nil
	}
	page, err := r.brands.List(ctx, repositories.BrandListFilter{
		FeaturedOnly: true,
		ActiveOnly:   true,
		Pagination:   domain.Pagination{PageSize: limit},
	})
	if err != nil {
		return nil, err
	}
	for _, brand := range page.Items {
		out = append(out, brandSummary(brand))
	}
	return out, nil
}

func categorySummary(c domain.Category) map[string]any {
	return map[string]any{
		"id":       c.ID,
		"name":     c.Name,
		"slug":     c.Slug,
		"imageUrl": c.ImageURL,
	}
}

func brandSummary(b domain.Brand) map[string]any {
	return map[string]any{
		"id":      b.ID,
		"name":    b.Name,
		"slug":    b.Slug,
		"logoUrl": b.LogoURL,
	}
}

func capList(ids []string) []string {
	if len(ids) > maxResolvedReferences {
		return ids[:maxResolvedReferences]
	}
	return ids
}
