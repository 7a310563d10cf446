package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	domain "github.com/quantum-portal/api/internal/domain"
	"github.com/quantum-portal/api/internal/repositories"
)

// Registry implements repositories.Registry in process memory.
type Registry struct {
	tenants    *TenantRepository
	categories *CategoryRepository
	brands     *BrandRepository
	static     *StaticPageRepository
	dynamic    *DynamicPageRepository
	menus      *NavigationMenuRepository
	sections   *HomepageSectionRepository
	media      *MediaRepository
	audit      *AuditLogRepository
}

var _ repositories.Registry = (*Registry)(nil)

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tenants:    &TenantRepository{rows: newTable[domain.Tenant]("tenants", false, cloneTenant)},
		categories: &CategoryRepository{rows: newTable[domain.Category]("categories", true, nil)},
		brands:     &BrandRepository{rows: newTable[domain.Brand]("brands", true, nil)},
		static:     &StaticPageRepository{rows: newTable[domain.StaticPage]("static_pages", true, nil)},
		dynamic:    &DynamicPageRepository{rows: newTable[domain.DynamicPage]("dynamic_pages", true, cloneDynamicPage)},
		menus:      &NavigationMenuRepository{rows: newTable[domain.NavigationMenu]("navigation_menus", true, cloneMenu)},
		sections:   &HomepageSectionRepository{rows: newTable[domain.HomepageSection]("homepage_sections", true, nil)},
		media:      &MediaRepository{rows: newTable[domain.MediaAsset]("media", true, nil)},
		audit:      &AuditLogRepository{rows: newTable[domain.AuditLogEntry]("audit_logs", true, nil)},
	}
}

func (r *Registry) Close(context.Context) error { return nil }

func (r *Registry) Tenants() repositories.TenantRepository                   { return r.tenants }
func (r *Registry) Categories() repositories.CategoryRepository              { return r.categories }
func (r *Registry) Brands() repositories.BrandRepository                     { return r.brands }
func (r *Registry) StaticPages() repositories.StaticPageRepository           { return r.static }
func (r *Registry) DynamicPages() repositories.DynamicPageRepository         { return r.dynamic }
func (r *Registry) NavigationMenus() repositories.NavigationMenuRepository   { return r.menus }
func (r *Registry) HomepageSections() repositories.HomepageSectionRepository { return r.sections }
func (r *Registry) Media() repositories.MediaRepository                      { return r.media }
func (r *Registry) AuditLogs() repositories.AuditLogRepository               { return r.audit }

type TenantRepository struct{ rows *table[domain.Tenant] }

func (r *TenantRepository) Insert(ctx context.Context, t domain.Tenant) error {
	return r.rows.insert(ctx, t.ID, t)
}
func (r *TenantRepository) Update(ctx context.Context, t domain.Tenant) error {
	return r.rows.update(ctx, t.ID, t)
}
func (r *TenantRepository) Delete(ctx context.Context, id string) error {
	return r.rows.delete(ctx, id)
}
func (r *TenantRepository) FindByID(ctx context.Context, id string) (domain.Tenant, error) {
	return r.rows.get(ctx, id)
}

func (r *TenantRepository) FindByDomain(ctx context.Context, host string) (domain.Tenant, error) {
	host = strings.ToLower(strings.TrimSpace(host))
	return r.rows.first(ctx, host, func(t domain.Tenant) bool {
		for _, d := range t.Domains {
			if d == host {
				return true
			}
		}
		return false
	})
}

func (r *TenantRepository) List(ctx context.Context, filter repositories.TenantListFilter) (domain.CursorPage[domain.Tenant], error) {
	rows, err := r.rows.all(ctx)
	if err != nil {
		return domain.CursorPage[domain.Tenant]{}, err
	}
	out := rows[:0]
	for _, t := range rows {
		if filter.Status == "" || t.Status == filter.Status {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, filter.Pagination)
}

type CategoryRepository struct{ rows *table[domain.Category] }

func (r *CategoryRepository) Insert(ctx context.Context, c domain.Category) error {
	return r.rows.insert(ctx, c.ID, c)
}
func (r *CategoryRepository) Update(ctx context.Context, c domain.Category) error {
	return r.rows.update(ctx, c.ID, c)
}
func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	return r.rows.delete(ctx, id)
}
func (r *CategoryRepository) FindByID(ctx context.Context, id string) (domain.Category, error) {
	return r.rows.get(ctx, id)
}
func (r *CategoryRepository) FindBySlug(ctx context.Context, slug string) (domain.Category, error) {
	return r.rows.first(ctx, slug, func(c domain.Category) bool { return c.Slug == slug })
}

func (r *CategoryRepository) List(ctx context.Context, filter repositories.CategoryListFilter) (domain.CursorPage[domain.Category], error) {
	rows, err := r.rows.all(ctx)
	if err != nil {
		return domain.CursorPage[domain.Category]{}, err
	}
	out := rows[:0]
	for _, c := range rows {
		if filter.ParentID != nil && c.ParentID != *filter.ParentID {
			continue
		}
		if filter.ActiveOnly && !c.IsActive {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return lessSorted(out[i].SortOrder, out[i].Name, out[i].ID, out[j].SortOrder, out[j].Name, out[j].ID)
	})
	return paginate(out, filter.Pagination)
}

func (r *CategoryRepository) ListAll(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.rows.all(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return rows, nil
}

type BrandRepository struct{ rows *table[domain.Brand] }

func (r *BrandRepository) Insert(ctx context.Context, b domain.Brand) error {
	return r.rows.insert(ctx, b.ID, b)
}
func (r *BrandRepository) Update(ctx context.Context, b domain.Brand) error {
	return r.rows.update(ctx, b.ID, b)
}
func (r *BrandRepository) Delete(ctx context.Context, id string) error {
	return r.rows.delete(ctx, id)
}
func (r *BrandRepository) FindByID(ctx context.Context, id string) (domain.Brand, error) {
	return r.rows.get(ctx, id)
}
func (r *BrandRepository) FindBySlug(ctx context.Context, slug string) (domain.Brand, error) {
	return r.rows.first(ctx, slug, func(b domain.Brand) bool { return b.Slug == slug })
}

func (r *BrandRepository) List(ctx context.Context, filter repositories.BrandListFilter) (domain.CursorPage[domain.Brand], error) {
	rows, err := r.rows.all(ctx)
	if err != nil {
		return domain.CursorPage[domain.Brand]{}, err
	}
	out := rows[:0]
	for _, b := range rows {
		if (filter.FeaturedOnly && !b.IsFeatured) || (filter.ActiveOnly && !b.IsActive) {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		return lessSorted(out[i].SortOrder, out[i].Name, out[i].ID, out[j].SortOrder, out[j].Name, out[j].ID)
	})
	return paginate(out, filter.Pagination)
}

type StaticPageRepository struct{ rows *table[domain.StaticPage] }

func (r *StaticPageRepository) Insert(ctx context.Context, p domain.StaticPage) error {
	return r.rows.insert(ctx, p.ID, p)
}
func (r *StaticPageRepository) Update(ctx context.Context, p domain.StaticPage) error {
	return r.rows.update(ctx, p.ID, p)
}
func (r *StaticPageRepository) Delete(ctx context.Context, id string) error {
	return r.rows.delete(ctx, id)
}
func (r *StaticPageRepository) FindByID(ctx context.Context, id string) (domain.StaticPage, error) {
	return r.rows.get(ctx, id)
}
func (r *StaticPageRepository) FindBySlug(ctx context.Context, slug string) (domain.StaticPage, error) {
	return r.rows.first(ctx, slug, func(p domain.StaticPage) bool { return p.Slug == slug })
}

func (r *StaticPageRepository) List(ctx context.Context, filter repositories.PageListFilter) (domain.CursorPage[domain.StaticPage], error) {
	rows, err := r.rows.all(ctx)
	if err != nil {
		return domain.CursorPage[domain.StaticPage]{}, err
	}
	out := rows[:0]
	for _, p := range rows {
		if filter.Status == "" || p.Status == filter.Status {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug+"\x00"+out[i].ID < out[j].Slug+"\x00"+out[j].ID })
	return paginate(out, filter.Pagination)
}

func (r *StaticPageRepository) ListDue(ctx context.Context, now time.Time) ([]domain.StaticPage, error) {
	rows, err := r.rows.all(ctx)
	if err != nil {
		return nil, err
	}
	out := rows[:0]
	for _, p := range rows {
		if isDue(p.Status, p.PublishAt, now) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PublishAt.Before(*out[j].PublishAt) })
	return out, nil
}

type DynamicPageRepository struct{ rows *table[domain.DynamicPage] }

func (r *DynamicPageRepository) Insert(ctx context.Context, p domain.DynamicPage) error {
	return r.rows.insert(ctx, p.ID, p)
}
func (r *DynamicPageRepository) Update(ctx context.Context, p domain.DynamicPage) error {
	return r.rows.update(ctx, p.ID, p)
}
func (r *DynamicPageRepository) Delete(ctx context.Context, id string) error {
	return r.rows.delete(ctx, id)
}
func (r *DynamicPageRepository) FindByID(ctx context.Context, id string) (domain.DynamicPage, error) {
	return r.rows.get(ctx, id)
}
func (r *DynamicPageRepository) FindBySlug(ctx context.Context, slug string) (domain.DynamicPage, error) {
	return r.rows.first(ctx, slug, func(p domain.DynamicPage) bool { return p.Slug == slug })
}

func (r *DynamicPageRepository) List(ctx context.Context, filter repositories.PageListFilter) (domain.CursorPage[domain.DynamicPage], error) {
	rows, err := r.rows.all(ctx)
	if err != nil {
		return domain.CursorPage[domain.DynamicPage]{}, err
	}
	out := rows[:0]
	for _, p := range rows {
		if filter.Status == "" || p.Status == filter.Status {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug+"\x00"+out[i].ID < out[j].Slug+"\x00"+out[j].ID })
	return paginate(out, filter.Pagination)
}

func (r *DynamicPageRepository) ListDue(ctx context.Context, now time.Time) ([]domain.DynamicPage, error) {
	rows, err := r.rows.all(ctx)
	if err != nil {
		return nil, err
	}
	out := rows[:0]
	for _, p := range rows {
		if isDue(p.Status, p.PublishAt, now) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PublishAt.Before(*out[j].PublishAt) })
	return out, nil
}

type NavigationMenuRepository struct{ rows *table[domain.NavigationMenu] }

func (r *NavigationMenuRepository) Insert(ctx context.Context, m domain.NavigationMenu) error {
	return r.rows.insert(ctx, m.ID, m)
}
func (r *NavigationMenuRepository) Update(ctx context.Context, m domain.NavigationMenu) error {
	return r.rows.update(ctx, m.ID, m)
}
func (r *NavigationMenuRepository) Delete(ctx context.Context, id string) error {
	return r.rows.delete(ctx, id)
}
func (r *NavigationMenuRepository) FindByID(ctx context.Context, id string) (domain.NavigationMenu, error) {
	return r.rows.get(ctx, id)
}
func (r *NavigationMenuRepository) FindByLocation(ctx context.Context, location string) (domain.NavigationMenu, error) {
	return r.rows.first(ctx, location, func(m domain.NavigationMenu) bool { return m.Location == location })
}

func (r *NavigationMenuRepository) List(ctx context.Context, pager domain.Pagination) (domain.CursorPage[domain.NavigationMenu], error) {
	rows, err := r.rows.all(ctx)
	if err != nil {
		return domain.CursorPage[domain.NavigationMenu]{}, err
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Location+"\x00"+rows[i].ID < rows[j].Location+"\x00"+rows[j].ID
	})
	return paginate(rows, pager)
}

type HomepageSectionRepository struct {
	rows *table[domain.HomepageSection]
}

func (r *HomepageSectionRepository) Insert(ctx context.Context, s domain.HomepageSection) error {
	return r.rows.insert(ctx, s.ID, s)
}
func (r *HomepageSectionRepository) Update(ctx context.Context, s domain.HomepageSection) error {
	return r.rows.update(ctx, s.ID, s)
}
func (r *HomepageSectionRepository) Delete(ctx context.Context, id string) error {
	return r.rows.delete(ctx, id)
}
func (r *HomepageSectionRepository) FindByID(ctx context.Context, id string) (domain.HomepageSection, error) {
	return r.rows.get(ctx, id)
}

func (r *HomepageSectionRepository) ListAll(ctx context.Context) ([]domain.HomepageSection, error) {
	rows, err := r.rows.all(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Order != rows[j].Order {
			return rows[i].Order < rows[j].Order
		}
		return rows[i].ID < rows[j].ID
	})
	return rows, nil
}

// UpdateOrders applies every order or none of them.
func (r *HomepageSectionRepository) UpdateOrders(ctx context.Context, orders map[string]int, updatedAt time.Time) error {
	key, err := r.rows.partition(ctx)
	if err != nil {
		return err
	}
	r.rows.mu.Lock()
	defer r.rows.mu.Unlock()
	rows := r.rows.rows[key]
	for id := range orders {
		if _, ok := rows[id]; !ok {
			return notFound("homepage_sections.update_orders", id)
		}
	}
	for id, order := range orders {
		section := rows[id]
		section.Order = order
		section.UpdatedAt = updatedAt
		rows[id] = section
	}
	return nil
}

type MediaRepository struct{ rows *table[domain.MediaAsset] }

func (r *MediaRepository) Insert(ctx context.Context, a domain.MediaAsset) error {
	return r.rows.insert(ctx, a.ID, a)
}
func (r *MediaRepository) Update(ctx context.Context, a domain.MediaAsset) error {
	return r.rows.update(ctx, a.ID, a)
}
func (r *MediaRepository) Delete(ctx context.Context, id string) error {
	return r.rows.delete(ctx, id)
}
func (r *MediaRepository) FindByID(ctx context.Context, id string) (domain.MediaAsset, error) {
	return r.rows.get(ctx, id)
}

func (r *MediaRepository) List(ctx context.Context, filter repositories.MediaListFilter) (domain.CursorPage[domain.MediaAsset], error) {
	rows, err := r.rows.all(ctx)
	if err != nil {
		return domain.CursorPage[domain.MediaAsset]{}, err
	}
	out := rows[:0]
	for _, a := range rows {
		if (filter.Folder != "" && a.Folder != filter.Folder) || (filter.Status != "" && a.Status != filter.Status) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return newerFirst(out[i].CreatedAt, out[i].ID, out[j].CreatedAt, out[j].ID) })
	return paginate(out, filter.Pagination)
}

type AuditLogRepository struct{ rows *table[domain.AuditLogEntry] }

func (r *AuditLogRepository) Append(ctx context.Context, e domain.AuditLogEntry) error {
	return r.rows.insert(ctx, e.ID, e)
}

func (r *AuditLogRepository) List(ctx context.Context, filter repositories.AuditLogFilter) (domain.CursorPage[domain.AuditLogEntry], error) {
	rows, err := r.rows.all(ctx)
	if err != nil {
		return domain.CursorPage[domain.AuditLogEntry]{}, err
	}
	out := rows[:0]
	for _, e := range rows {
		if (filter.TargetRef != "" && e.TargetRef != filter.TargetRef) || (filter.Actor != "" && e.Actor != filter.Actor) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return newerFirst(out[i].CreatedAt, out[i].ID, out[j].CreatedAt, out[j].ID) })
	return paginate(out, filter.Pagination)
}

func lessSorted(orderA int, nameA, idA string, orderB int, nameB, idB string) bool {
	if orderA != orderB {
		return orderA < orderB
	}
	if nameA != nameB {
		return nameA < nameB
	}
	return idA < idB
}

func newerFirst(a time.Time, idA string, b time.Time, idB string) bool {
	if !a.Equal(b) {
		return a.After(b)
	}
	return idA > idB
}

func isDue(status domain.PageStatus, publishAt *time.Time, now time.Time) bool {
	return status == domain.PageStatusScheduled && publishAt != nil && !publishAt.After(now)
}
