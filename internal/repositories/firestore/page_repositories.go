package firestore

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/quantum-portal/api/internal/domain"
	pfirestore "github.com/quantum-portal/api/internal/platform/firestore"
	"github.com/quantum-portal/api/internal/repositories"
)

const (
	staticPagesCollection  = "static_pages"
	dynamicPagesCollection = "dynamic_pages"
)

func pageListBuilder(status domain.PageStatus) pfirestore.QueryBuilder {
	return func(q firestore.Query) firestore.Query {
		if status != "" {
			q = q.Where("status", "==", string(status))
		}
		return q.OrderBy("slug", firestore.Asc).OrderBy(firestore.DocumentID, firestore.Asc)
	}
}

func dueBuilder(now time.Time) pfirestore.QueryBuilder {
	return func(q firestore.Query) firestore.Query {
		return q.Where("status", "==", string(domain.PageStatusScheduled)).
			Where("publish_at", "<=", now.UTC()).
			OrderBy("publish_at", firestore.Asc)
	}
}

// StaticPageRepository persists static pages under tenants/{tenantID}/static_pages.
type StaticPageRepository struct {
	base *pfirestore.BaseRepository[staticPageDocument]
}

// NewStaticPageRepository constructs a Firestore-backed static page repository.
func NewStaticPageRepository(provider *pfirestore.Provider) (*StaticPageRepository, error) {
	if provider == nil {
		return nil, errors.New("static page repository: firestore provider is required")
	}
	return &StaticPageRepository{
		base: pfirestore.NewTenantRepository[staticPageDocument](provider, staticPagesCollection),
	}, nil
}

func (r *StaticPageRepository) Insert(ctx context.Context, page domain.StaticPage) error {
	err := r.base.Create(ctx, page.ID, staticPageToDocument(page))
	return err
}

func (r *StaticPageRepository) Update(ctx context.Context, page domain.StaticPage) error {
	return r.base.Replace(ctx, page.ID, staticPageToDocument(page))
}

func (r *StaticPageRepository) Delete(ctx context.Context, pageID string) error {
	return r.base.Delete(ctx, pageID)
}

func (r *StaticPageRepository) FindByID(ctx context.Context, pageID string) (domain.StaticPage, error) {
	doc, err := r.base.Get(ctx, pageID)
	if err != nil {
		return domain.StaticPage{}, err
	}
	return staticPageFromDocument(doc.ID, doc.Data), nil
}

func (r *StaticPageRepository) FindBySlug(ctx context.Context, slug string) (domain.StaticPage, error) {
	return findOne(ctx, r.base, "static_pages.find_by_slug", "slug", slug, staticPageFromDocument)
}

func (r *StaticPageRepository) List(ctx context.Context, filter repositories.PageListFilter) (domain.CursorPage[domain.StaticPage], error) {
	spec := pageSpec[staticPageDocument]{
		build: pageListBuilder(filter.Status),
		cursor: func(doc pfirestore.Document[staticPageDocument]) []any {
			return []any{doc.Data.Slug, doc.ID}
		},
	}
	return listPage(ctx, r.base, filter.Pagination, spec, staticPageFromDocument)
}

// ListDue returns scheduled pages whose publish time has passed.
func (r *StaticPageRepository) ListDue(ctx context.Context, now time.Time) ([]domain.StaticPage, error) {
	return queryAll(ctx, r.base, dueBuilder(now), staticPageFromDocument)
}

// DynamicPageRepository persists dynamic pages. Segments and blocks are embedded in the page document.
type DynamicPageRepository struct {
	base *pfirestore.BaseRepository[dynamicPageDocument]
}

// NewDynamicPageRepository constructs a Firestore-backed dynamic page repository.
func NewDynamicPageRepository(provider *pfirestore.Provider) (*DynamicPageRepository, error) {
	if provider == nil {
		return nil, errors.New("dynamic page repository: firestore provider is required")
	}
	return &DynamicPageRepository{
		base: pfirestore.NewTenantRepository[dynamicPageDocument](provider, dynamicPagesCollection),
	}, nil
}

func (r *DynamicPageRepository) Insert(ctx context.Context, page domain.DynamicPage) error {
	err := r.base.Create(ctx, page.ID, dynamicPageToDocument(page))
	return err
}

func (r *DynamicPageRepository) Update(ctx context.Context, page domain.DynamicPage) error {
	return r.base.Replace(ctx, page.ID, dynamicPageToDocument(page))
}

func (r *DynamicPageRepository) Delete(ctx context.Context, pageID string) error {
	return r.base.Delete(ctx, pageID)
}

func (r *DynamicPageRepository) FindByID(ctx context.Context, pageID string) (domain.DynamicPage, error) {
	doc, err := r.base.Get(ctx, pageID)
	if err != nil {
		return domain.DynamicPage{}, err
	}
	return dynamicPageFromDocument(doc.ID, doc.Data), nil
}

func (r *DynamicPageRepository) FindBySlug(ctx context.Context, slug string) (domain.DynamicPage, error) {
	return findOne(ctx, r.base, "dynamic_pages.find_by_slug", "slug", slug, dynamicPageFromDocument)
}

func (r *DynamicPageRepository) List(ctx context.Context, filter repositories.PageListFilter) (domain.CursorPage[domain.DynamicPage], error) {
	spec := pageSpec[dynamicPageDocument]{
		build: pageListBuilder(filter.Status),
		cursor: func(doc pfirestore.Document[dynamicPageDocument]) []any {
			return []any{doc.Data.Slug, doc.ID}
		},
	}
	return listPage(ctx, r.base, filter.Pagination, spec, dynamicPageFromDocument)
}

func (r *DynamicPageRepository) ListDue(ctx context.Context, now time.Time) ([]domain.DynamicPage, error) {
	return queryAll(ctx, r.base, dueBuilder(now), dynamicPageFromDocument)
}
