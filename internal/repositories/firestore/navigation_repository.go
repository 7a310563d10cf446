package firestore

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"

	domain "github.com/quantum-portal/api/internal/domain"
	pfirestore "github.com/quantum-portal/api/internal/platform/firestore"
)

const navigationMenusCollection = "navigation_menus"

// NavigationMenuRepository persists menus with their item trees embedded.
type NavigationMenuRepository struct {
	base *pfirestore.BaseRepository[navigationMenuDocument]
}

// NewNavigationMenuRepository constructs a Firestore-backed navigation menu repository.
func NewNavigationMenuRepository(provider *pfirestore.Provider) (*NavigationMenuRepository, error) {
	if provider == nil {
		return nil, errors.New("navigation menu repository: firestore provider is required")
	}
	return &NavigationMenuRepository{
		base: pfirestore.NewTenantRepository[navigationMenuDocument](provider, navigationMenusCollection),
	}, nil
}

func (r *NavigationMenuRepository) Insert(ctx context.Context, menu domain.NavigationMenu) error {
	err := r.base.Create(ctx, menu.ID, navigationMenuToDocument(menu))
	return err
}

func (r *NavigationMenuRepository) Update(ctx context.Context, menu domain.NavigationMenu) error {
	return r.base.Replace(ctx, menu.ID, navigationMenuToDocument(menu))
}

func (r *NavigationMenuRepository) Delete(ctx context.Context, menuID string) error {
	return r.base.Delete(ctx, menuID)
}

func (r *NavigationMenuRepository) FindByID(ctx context.Context, menuID string) (domain.NavigationMenu, error) {
	doc, err := r.base.Get(ctx, menuID)
	if err != nil {
		return domain.NavigationMenu{}, err
	}
	return navigationMenuFromDocument(doc.ID, doc.Data), nil
}

func (r *NavigationMenuRepository) FindByLocation(ctx context.Context, location string) (domain.NavigationMenu, error) {
	return findOne(ctx, r.base, "navigation_menus.find_by_location", "location", location, navigationMenuFromDocument)
}

func (r *NavigationMenuRepository) List(ctx context.Context, pager domain.Pagination) (domain.CursorPage[domain.NavigationMenu], error) {
	spec := pageSpec[navigationMenuDocument]{
		build: func(q firestore.Query) firestore.Query {
			return q.OrderBy("location", firestore.Asc).OrderBy(firestore.DocumentID, firestore.Asc)
		},
		cursor: func(doc pfirestore.Document[navigationMenuDocument]) []any {
			return []any{doc.Data.Location, doc.ID}
		},
	}
	return listPage(ctx, r.base, pager, spec, navigationMenuFromDocument)
}
