package firestore

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"

	domain "github.com/quantum-portal/api/internal/domain"
	pfirestore "github.com/quantum-portal/api/internal/platform/firestore"
	"github.com/quantum-portal/api/internal/repositories"
)

const brandsCollection = "brands"

// BrandRepository persists brands under tenants/{tenantID}/brands.
type BrandRepository struct {
	base *pfirestore.BaseRepository[brandDocument]
}

// NewBrandRepository constructs a Firestore-backed brand repository.
func NewBrandRepository(provider *pfirestore.Provider) (*BrandRepository, error) {
	if provider == nil {
		return nil, errors.New("brand repository: firestore provider is required")
	}
	return &BrandRepository{
		base: pfirestore.NewTenantRepository[brandDocument](provider, brandsCollection),
	}, nil
}

func (r *BrandRepository) Insert(ctx context.Context, brand domain.Brand) error {
	err := r.base.Create(ctx, brand.ID, brandToDocument(brand))
	return err
}

func (r *BrandRepository) Update(ctx context.Context, brand domain.Brand) error {
	return r.base.Replace(ctx, brand.ID, brandToDocument(brand))
}

func (r *BrandRepository) Delete(ctx context.Context, brandID string) error {
	return r.base.Delete(ctx, brandID)
}

func (r *BrandRepository) FindByID(ctx context.Context, brandID string) (domain.Brand, error) {
	doc, err := r.base.Get(ctx, brandID)
	if err != nil {
		return domain.Brand{}, err
	}
	return brandFromDocument(doc.ID, doc.Data), nil
}

func (r *BrandRepository) FindBySlug(ctx context.Context, slug string) (domain.Brand, error) {
	return findOne(ctx, r.base, "brands.find_by_slug", "slug", slug, brandFromDocument)
}

func (r *BrandRepository) List(ctx context.Context, filter repositories.BrandListFilter) (domain.CursorPage[domain.Brand], error) {
	spec := pageSpec[brandDocument]{
		build: func(q firestore.Query) firestore.Query {
			if filter.FeaturedOnly {
				q = q.Where("is_featured", "==", true)
			}
			if filter.ActiveOnly {
				q = q.Where("is_active", "==", true)
			}
			return q.OrderBy("sort_order", firestore.Asc).OrderBy("name", firestore.Asc).OrderBy(firestore.DocumentID, firestore.Asc)
		},
		cursor: func(doc pfirestore.Document[brandDocument]) []any {
			return []any{doc.Data.SortOrder, doc.Data.Name, doc.ID}
		},
	}
	return listPage(ctx, r.base, filter.Pagination, spec, brandFromDocument)
}
