package firestore

import (
	"context"
	"errors"
	"sort"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/quantum-portal/api/internal/domain"
	pfirestore "github.com/quantum-portal/api/internal/platform/firestore"
)

const (
	homepageSectionsCollection = "homepage_sections"
	reorderTxAttempts          = 3
)

// HomepageSectionRepository persists the sections of the tenant home page.
type HomepageSectionRepository struct {
	provider *pfirestore.Provider
	base     *pfirestore.BaseRepository[homepageSectionDocument]
}

// NewHomepageSectionRepository constructs a Firestore-backed homepage section repository.
func NewHomepageSectionRepository(provider *pfirestore.Provider) (*HomepageSectionRepository, error) {
	if provider == nil {
		return nil, errors.New("homepage section repository: firestore provider is required")
	}
	return &HomepageSectionRepository{
		provider: provider,
		base:     pfirestore.NewTenantRepository[homepageSectionDocument](provider, homepageSectionsCollection),
	}, nil
}

func (r *HomepageSectionRepository) Insert(ctx context.Context, section domain.HomepageSection) error {
	err := r.base.Create(ctx, section.ID, homepageSectionToDocument(section))
	return err
}

func (r *HomepageSectionRepository) Update(ctx context.Context, section domain.HomepageSection) error {
	return r.base.Replace(ctx, section.ID, homepageSectionToDocument(section))
}

func (r *HomepageSectionRepository) Delete(ctx context.Context, sectionID string) error {
	return r.base.Delete(ctx, sectionID)
}

func (r *HomepageSectionRepository) FindByID(ctx context.Context, sectionID string) (domain.HomepageSection, error) {
	doc, err := r.base.Get(ctx, sectionID)
	if err != nil {
		return domain.HomepageSection{}, err
	}
	return homepageSectionFromDocument(doc.ID, doc.Data), nil
}

func (r *HomepageSectionRepository) ListAll(ctx context.Context) ([]domain.HomepageSection, error) {
	sections, err := queryAll(ctx, r.base, func(q firestore.Query) firestore.Query {
		return q.OrderBy("order", firestore.Asc)
	}, homepageSectionFromDocument)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(sections, func(i, j int) bool {
		if sections[i].Order != sections[j].Order {
			return sections[i].Order < sections[j].Order
		}
		return sections[i].ID < sections[j].ID
	})
	return sections, nil
}

// UpdateOrders rewrites the order of every listed section in one transaction. A missing
// section aborts the whole update.
func (r *HomepageSectionRepository) UpdateOrders(ctx context.Context, orders map[string]int, updatedAt time.Time) error {
	if len(orders) == 0 {
		return nil
	}
	refs := make(map[string]*firestore.DocumentRef, len(orders))
	for id := range orders {
		ref, err := r.base.DocumentRef(ctx, id)
		if err != nil {
			return err
		}
		refs[id] = ref
	}
	return r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		for id, order := range orders {
			if err := tx.Update(refs[id], []firestore.Update{
				{Path: "order", Value: order},
				{Path: "updated_at", Value: updatedAt.UTC()},
			}); err != nil {
				return pfirestore.WrapError("homepage_sections.update_orders", err)
			}
		}
		return nil
	}, pfirestore.WithTxAttempts(reorderTxAttempts))
}
