package firestore

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"

	domain "github.com/quantum-portal/api/internal/domain"
	pfirestore "github.com/quantum-portal/api/internal/platform/firestore"
	"github.com/quantum-portal/api/internal/repositories"
)

const categoriesCollection = "categories"

// CategoryRepository persists categories under tenants/{tenantID}/categories.
type CategoryRepository struct {
	base *pfirestore.BaseRepository[categoryDocument]
}

// NewCategoryRepository constructs a Firestore-backed category repository.
func NewCategoryRepository(provider *pfirestore.Provider) (*CategoryRepository, error) {
	if provider == nil {
		return nil, errors.New("category repository: firestore provider is required")
	}
	return &CategoryRepository{
		base: pfirestore.NewTenantRepository[categoryDocument](provider, categoriesCollection),
	}, nil
}

func (r *CategoryRepository) Insert(ctx context.Context, category domain.Category) error {
	err := r.base.Create(ctx, category.ID, categoryToDocument(category))
	return err
}

func (r *CategoryRepository) Update(ctx context.Context, category domain.Category) error {
	return r.base.Replace(ctx, category.ID, categoryToDocument(category))
}

func (r *CategoryRepository) Delete(ctx context.Context, categoryID string) error {
	return r.base.Delete(ctx, categoryID)
}

func (r *CategoryRepository) FindByID(ctx context.Context, categoryID string) (domain.Category, error) {
	doc, err := r.base.Get(ctx, categoryID)
	if err != nil {
		return domain.Category{}, err
	}
	return categoryFromDocument(doc.ID, doc.Data), nil
}

func (r *CategoryRepository) FindBySlug(ctx context.Context, slug string) (domain.Category, error) {
	return findOne(ctx, r.base, "categories.find_by_slug", "slug", slug, categoryFromDocument)
}

// List orders by sort_order, name and ID. The parent and active filters need composite indexes.
func (r *CategoryRepository) List(ctx context.Context, filter repositories.CategoryListFilter) (domain.CursorPage[domain.Category], error) {
	spec := pageSpec[categoryDocument]{
		build: func(q firestore.Query) firestore.Query {
			if filter.ParentID != nil {
				q = q.Where("parent_id", "==", *filter.ParentID)
			}
			if filter.ActiveOnly {
				q = q.Where("is_active", "==", true)
			}
			return q.OrderBy("sort_order", firestore.Asc).OrderBy("name", firestore.Asc).OrderBy(firestore.DocumentID, firestore.Asc)
		},
		cursor: func(doc pfirestore.Document[categoryDocument]) []any {
			return []any{doc.Data.SortOrder, doc.Data.Name, doc.ID}
		},
	}
	return listPage(ctx, r.base, filter.Pagination, spec, categoryFromDocument)
}

// ListAll loads every category of the tenant, for tree building.
func (r *CategoryRepository) ListAll(ctx context.Context) ([]domain.Category, error) {
	return queryAll(ctx, r.base, byDocumentID, categoryFromDocument)
}
