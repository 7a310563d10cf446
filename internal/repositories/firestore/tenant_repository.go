package firestore

import (
	"context"
	"errors"
	"strings"

	"cloud.google.com/go/firestore"

	domain "github.com/quantum-portal/api/internal/domain"
	pfirestore "github.com/quantum-portal/api/internal/platform/firestore"
	"github.com/quantum-portal/api/internal/repositories"
)

// TenantRepository stores tenants as root documents of the tenants collection. Content
// collections nest beneath each tenant document.
type TenantRepository struct {
	base *pfirestore.BaseRepository[tenantDocument]
}

// NewTenantRepository constructs a Firestore-backed tenant repository.
func NewTenantRepository(provider *pfirestore.Provider) (*TenantRepository, error) {
	if provider == nil {
		return nil, errors.New("tenant repository: firestore provider is required")
	}
	return &TenantRepository{
		base: pfirestore.NewBaseRepository[tenantDocument](provider, pfirestore.TenantsCollection),
	}, nil
}

func (r *TenantRepository) Insert(ctx context.Context, tenant domain.Tenant) error {
	err := r.base.Create(ctx, tenant.ID, tenantToDocument(tenant))
	return err
}

func (r *TenantRepository) Update(ctx context.Context, tenant domain.Tenant) error {
	return r.base.Replace(ctx, tenant.ID, tenantToDocument(tenant))
}

// Delete removes the tenant document only. Nested content collections are left for an
// offline purge.
func (r *TenantRepository) Delete(ctx context.Context, tenantID string) error {
	return r.base.Delete(ctx, tenantID)
}

func (r *TenantRepository) FindByID(ctx context.Context, tenantID string) (domain.Tenant, error) {
	doc, err := r.base.Get(ctx, tenantID)
	if err != nil {
		return domain.Tenant{}, err
	}
	return tenantFromDocument(doc.ID, doc.Data), nil
}

func (r *TenantRepository) FindByDomain(ctx context.Context, host string) (domain.Tenant, error) {
	host = strings.ToLower(strings.TrimSpace(host))
	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("domains", "array-contains", host).Limit(1)
	})
	if err != nil {
		return domain.Tenant{}, err
	}
	if len(docs) == 0 {
		return domain.Tenant{}, pfirestore.NotFoundError("tenants.find_by_domain", "no tenant for host "+host)
	}
	return tenantFromDocument(docs[0].ID, docs[0].Data), nil
}

func (r *TenantRepository) List(ctx context.Context, filter repositories.TenantListFilter) (domain.CursorPage[domain.Tenant], error) {
	spec := pageSpec[tenantDocument]{
		build: func(q firestore.Query) firestore.Query {
			if filter.Status != "" {
				q = q.Where("status", "==", string(filter.Status))
			}
			return byDocumentID(q)
		},
		cursor: documentIDCursor[tenantDocument],
	}
	return listPage(ctx, r.base, filter.Pagination, spec, tenantFromDocument)
}
