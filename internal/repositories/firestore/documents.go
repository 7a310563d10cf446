package firestore

import (
	"time"

	domain "github.com/quantum-portal/api/internal/domain"
)

type seoDocument struct {
	Title       string `firestore:"title,omitempty"`
	Description string `firestore:"description,omitempty"`
}

func seoToDocument(s domain.SEO) seoDocument { return seoDocument(s) }
func (d seoDocument) toDomain() domain.SEO   { return domain.SEO(d) }

type tenantDocument struct {
	Name          string    `firestore:"name"`
	Domains       []string  `firestore:"domains"`
	DefaultLocale string    `firestore:"default_locale"`
	Status        string    `firestore:"status"`
	CreatedAt     time.Time `firestore:"created_at"`
	UpdatedAt     time.Time `firestore:"updated_at"`
}

func tenantToDocument(t domain.Tenant) tenantDocument {
	return tenantDocument{
		Name:          t.Name,
		Domains:       t.Domains,
		DefaultLocale: t.DefaultLocale,
		Status:        string(t.Status),
		CreatedAt:     t.CreatedAt.UTC(),
		UpdatedAt:     t.UpdatedAt.UTC(),
	}
}

func tenantFromDocument(id string, d tenantDocument) domain.Tenant {
	return domain.Tenant{
		ID:            id,
		Name:          d.Name,
		Domains:       d.Domains,
		DefaultLocale: d.DefaultLocale,
		Status:        domain.TenantStatus(d.Status),
		CreatedAt:     d.CreatedAt.UTC(),
		UpdatedAt:     d.UpdatedAt.UTC(),
	}
}

type categoryDocument struct {
	Name        string      `firestore:"name"`
	Slug        string      `firestore:"slug"`
	Description string      `firestore:"description,omitempty"`
	ParentID    string      `firestore:"parent_id"`
	ImageURL    string      `firestore:"image_url,omitempty"`
	SortOrder   int         `firestore:"sort_order"`
	IsActive    bool        `firestore:"is_active"`
	SEO         seoDocument `firestore:"seo"`
	CreatedAt   time.Time   `firestore:"created_at"`
	UpdatedAt   time.Time   `firestore:"updated_at"`
}

func categoryToDocument(c domain.Category) categoryDocument {
	return categoryDocument{
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		ParentID:    c.ParentID,
		ImageURL:    c.ImageURL,
		SortOrder:   c.SortOrder,
		IsActive:    c.IsActive,
		SEO:         seoToDocument(c.SEO),
		CreatedAt:   c.CreatedAt.UTC(),
		UpdatedAt:   c.UpdatedAt.UTC(),
	}
}

func categoryFromDocument(id string, d categoryDocument) domain.Category {
	return domain.Category{
		ID:          id,
		Name:        d.Name,
		Slug:        d.Slug,
		Description: d.Description,
		ParentID:    d.ParentID,
		ImageURL:    d.ImageURL,
		SortOrder:   d.SortOrder,
		IsActive:    d.IsActive,
		SEO:         d.SEO.toDomain(),
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
}

type brandDocument struct {
	Name        string    `firestore:"name"`
	Slug        string    `firestore:"slug"`
	Description string    `firestore:"description,omitempty"`
	LogoURL     string    `firestore:"logo_url,omitempty"`
	WebsiteURL  string    `firestore:"website_url,omitempty"`
	IsFeatured  bool      `firestore:"is_featured"`
	IsActive    bool      `firestore:"is_active"`
	SortOrder   int       `firestore:"sort_order"`
	CreatedAt   time.Time `firestore:"created_at"`
	UpdatedAt   time.Time `firestore:"updated_at"`
}

func brandToDocument(b domain.Brand) brandDocument {
	return brandDocument{
		Name:        b.Name,
		Slug:        b.Slug,
		Description: b.Description,
		LogoURL:     b.LogoURL,
		WebsiteURL:  b.WebsiteURL,
		IsFeatured:  b.IsFeatured,
		IsActive:    b.IsActive,
		SortOrder:   b.SortOrder,
		CreatedAt:   b.CreatedAt.UTC(),
		UpdatedAt:   b.UpdatedAt.UTC(),
	}
}

func brandFromDocument(id string, d brandDocument) domain.Brand {
	return domain.Brand{
		ID:          id,
		Name:        d.Name,
		Slug:        d.Slug,
		Description: d.Description,
		LogoURL:     d.LogoURL,
		WebsiteURL:  d.WebsiteURL,
		IsFeatured:  d.IsFeatured,
		IsActive:    d.IsActive,
		SortOrder:   d.SortOrder,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
}

type staticPageDocument struct {
	Title       string      `firestore:"title"`
	Slug        string      `firestore:"slug"`
	Format      string      `firestore:"format"`
	Content     string      `firestore:"content"`
	Status      string      `firestore:"status"`
	PublishAt   *time.Time  `firestore:"publish_at"`
	SEO         seoDocument `firestore:"seo"`
	CreatedAt   time.Time   `firestore:"created_at"`
	UpdatedAt   time.Time   `firestore:"updated_at"`
	PublishedAt *time.Time  `firestore:"published_at"`
}

func staticPageToDocument(p domain.StaticPage) staticPageDocument {
	return staticPageDocument{
		Title:       p.Title,
		Slug:        p.Slug,
		Format:      string(p.Format),
		Content:     p.Content,
		Status:      string(p.Status),
		PublishAt:   utcPtr(p.PublishAt),
		SEO:         seoToDocument(p.SEO),
		CreatedAt:   p.CreatedAt.UTC(),
		UpdatedAt:   p.UpdatedAt.UTC(),
		PublishedAt: utcPtr(p.PublishedAt),
	}
}

func staticPageFromDocument(id string, d staticPageDocument) domain.StaticPage {
	return domain.StaticPage{
		ID:          id,
		Title:       d.Title,
		Slug:        d.Slug,
		Format:      domain.ContentFormat(d.Format),
		Content:     d.Content,
		Status:      domain.PageStatus(d.Status),
		PublishAt:   utcPtr(d.PublishAt),
		SEO:         d.SEO.toDomain(),
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
		PublishedAt: utcPtr(d.PublishedAt),
	}
}

type blockDocument struct {
	ID       string         `firestore:"id"`
	Type     string         `firestore:"type"`
	Order    int            `firestore:"order"`
	Content  map[string]any `firestore:"content"`
	Desktop  bool           `firestore:"visible_desktop"`
	Mobile   bool           `firestore:"visible_mobile"`
	IsActive bool           `firestore:"is_active"`
}

type segmentDocument struct {
	ID       string          `firestore:"id"`
	Name     string          `firestore:"name"`
	Type     string          `firestore:"type"`
	Order    int             `firestore:"order"`
	IsActive bool            `firestore:"is_active"`
	Settings map[string]any  `firestore:"settings"`
	Blocks   []blockDocument `firestore:"blocks"`
}

type dynamicPageDocument struct {
	Title       string            `firestore:"title"`
	Slug        string            `firestore:"slug"`
	Status      string            `firestore:"status"`
	PublishAt   *time.Time        `firestore:"publish_at"`
	SEO         seoDocument       `firestore:"seo"`
	Segments    []segmentDocument `firestore:"segments"`
	CreatedAt   time.Time         `firestore:"created_at"`
	UpdatedAt   time.Time         `firestore:"updated_at"`
	PublishedAt *time.Time        `firestore:"published_at"`
}

func dynamicPageToDocument(p domain.DynamicPage) dynamicPageDocument {
	segments := make([]segmentDocument, 0, len(p.Segments))
	for _, s := range p.Segments {
		blocks := make([]blockDocument, 0, len(s.Blocks))
		for _, b := range s.Blocks {
			blocks = append(blocks, blockDocument{
				ID:       b.ID,
				Type:     string(b.Type),
				Order:    b.Order,
				Content:  b.Content,
				Desktop:  b.Visibility.Desktop,
				Mobile:   b.Visibility.Mobile,
				IsActive: b.IsActive,
			})
		}
		segments = append(segments, segmentDocument{
			ID:       s.ID,
			Name:     s.Name,
			Type:     s.Type,
			Order:    s.Order,
			IsActive: s.IsActive,
			Settings: s.Settings,
			Blocks:   blocks,
		})
	}
	return dynamicPageDocument{
		Title:       p.Title,
		Slug:        p.Slug,
		Status:      string(p.Status),
		PublishAt:   utcPtr(p.PublishAt),
		SEO:         seoToDocument(p.SEO),
		Segments:    segments,
		CreatedAt:   p.CreatedAt.UTC(),
		UpdatedAt:   p.UpdatedAt.UTC(),
		PublishedAt: utcPtr(p.PublishedAt),
	}
}

func dynamicPageFromDocument(id string, d dynamicPageDocument) domain.DynamicPage {
	segments := make([]domain.Segment, 0, len(d.Segments))
	for _, s := range d.Segments {
		blocks := make([]domain.Block, 0, len(s.Blocks))
		for _, b := range s.Blocks {
			blocks = append(blocks, domain.Block{
				ID:         b.ID,
				Type:       domain.BlockType(b.Type),
				Order:      b.Order,
				Content:    b.Content,
				Visibility: domain.BlockVisibility{Desktop: b.Desktop, Mobile: b.Mobile},
				IsActive:   b.IsActive,
			})
		}
		segments = append(segments, domain.Segment{
			ID:       s.ID,
			Name:     s.Name,
			Type:     s.Type,
			Order:    s.Order,
			IsActive: s.IsActive,
			Settings: s.Settings,
			Blocks:   blocks,
		})
	}
	return domain.DynamicPage{
		ID:          id,
		Title:       d.Title,
		Slug:        d.Slug,
		Status:      domain.PageStatus(d.Status),
		PublishAt:   utcPtr(d.PublishAt),
		SEO:         d.SEO.toDomain(),
		Segments:    segments,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
		PublishedAt: utcPtr(d.PublishedAt),
	}
}

type navigationItemDocument struct {
	ID           string                   `firestore:"id"`
	Label        string                   `firestore:"label"`
	URL          string                   `firestore:"url,omitempty"`
	Type         string                   `firestore:"type"`
	TargetID     string                   `firestore:"target_id,omitempty"`
	OpenInNewTab bool                     `firestore:"open_in_new_tab"`
	Items        []navigationItemDocument `firestore:"items,omitempty"`
}

type navigationMenuDocument struct {
	Name      string                   `firestore:"name"`
	Location  string                   `firestore:"location"`
	Items     []navigationItemDocument `firestore:"items"`
	IsActive  bool                     `firestore:"is_active"`
	CreatedAt time.Time                `firestore:"created_at"`
	UpdatedAt time.Time                `firestore:"updated_at"`
}

func navigationItemsToDocument(items []domain.NavigationItem) []navigationItemDocument {
	if len(items) == 0 {
		return nil
	}
	out := make([]navigationItemDocument, 0, len(items))
	for _, item := range items {
		out = append(out, navigationItemDocument{
			ID:           item.ID,
			Label:        item.Label,
			URL:          item.URL,
			Type:         string(item.Type),
			TargetID:     item.TargetID,
			OpenInNewTab: item.OpenInNewTab,
			Items:        navigationItemsToDocument(item.Items),
		})
	}
	return out
}

func navigationItemsFromDocument(items []navigationItemDocument) []domain.NavigationItem {
	if len(items) == 0 {
		return nil
	}
	out := make([]domain.NavigationItem, 0, len(items))
	for _, item := range items {
		out = append(out, domain.NavigationItem{
			ID:           item.ID,
			Label:        item.Label,
			URL:          item.URL,
			Type:         domain.NavigationItemType(item.Type),
			TargetID:     item.TargetID,
			OpenInNewTab: item.OpenInNewTab,
			Items:        navigationItemsFromDocument(item.Items),
		})
	}
	return out
}

func navigationMenuToDocument(m domain.NavigationMenu) navigationMenuDocument {
	return navigationMenuDocument{
		Name:      m.Name,
		Location:  m.Location,
		Items:     navigationItemsToDocument(m.Items),
		IsActive:  m.IsActive,
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

func navigationMenuFromDocument(id string, d navigationMenuDocument) domain.NavigationMenu {
	return domain.NavigationMenu{
		ID:        id,
		Name:      d.Name,
		Location:  d.Location,
		Items:     navigationItemsFromDocument(d.Items),
		IsActive:  d.IsActive,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

type homepageSectionDocument struct {
	Title     string         `firestore:"title"`
	Type      string         `firestore:"type"`
	Order     int            `firestore:"order"`
	IsVisible bool           `firestore:"is_visible"`
	Content   map[string]any `firestore:"content"`
	CreatedAt time.Time      `firestore:"created_at"`
	UpdatedAt time.Time      `firestore:"updated_at"`
}

func homepageSectionToDocument(s domain.HomepageSection) homepageSectionDocument {
	return homepageSectionDocument{
		Title:     s.Title,
		Type:      string(s.Type),
		Order:     s.Order,
		IsVisible: s.IsVisible,
		Content:   s.Content,
		CreatedAt: s.CreatedAt.UTC(),
		UpdatedAt: s.UpdatedAt.UTC(),
	}
}

func homepageSectionFromDocument(id string, d homepageSectionDocument) domain.HomepageSection {
	return domain.HomepageSection{
		ID:        id,
		Title:     d.Title,
		Type:      domain.HomepageSectionType(d.Type),
		Order:     d.Order,
		IsVisible: d.IsVisible,
		Content:   d.Content,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

type mediaDocument struct {
	FileName    string    `firestore:"file_name"`
	ContentType string    `firestore:"content_type"`
	Size        int64     `firestore:"size"`
	Folder      string    `firestore:"folder"`
	Provider    string    `firestore:"provider"`
	Bucket      string    `firestore:"bucket,omitempty"`
	ObjectPath  string    `firestore:"object_path,omitempty"`
	PublicURL   string    `firestore:"public_url,omitempty"`
	Status      string    `firestore:"status"`
	CreatedBy   string    `firestore:"created_by"`
	CreatedAt   time.Time `firestore:"created_at"`
	UpdatedAt   time.Time `firestore:"updated_at"`
}

func mediaToDocument(a domain.MediaAsset) mediaDocument {
	return mediaDocument{
		FileName:    a.FileName,
		ContentType: a.ContentType,
		Size:        a.Size,
		Folder:      a.Folder,
		Provider:    a.Provider,
		Bucket:      a.Bucket,
		ObjectPath:  a.ObjectPath,
		PublicURL:   a.PublicURL,
		Status:      string(a.Status),
		CreatedBy:   a.CreatedBy,
		CreatedAt:   a.CreatedAt.UTC(),
		UpdatedAt:   a.UpdatedAt.UTC(),
	}
}

func mediaFromDocument(id string, d mediaDocument) domain.MediaAsset {
	return domain.MediaAsset{
		ID:          id,
		FileName:    d.FileName,
		ContentType: d.ContentType,
		Size:        d.Size,
		Folder:      d.Folder,
		Provider:    d.Provider,
		Bucket:      d.Bucket,
		ObjectPath:  d.ObjectPath,
		PublicURL:   d.PublicURL,
		Status:      domain.MediaStatus(d.Status),
		CreatedBy:   d.CreatedBy,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
}

type auditLogDocument struct {
	Actor     string         `firestore:"actor"`
	ActorType string         `firestore:"actor_type"`
	Action    string         `firestore:"action"`
	TargetRef string         `firestore:"target_ref"`
	Metadata  map[string]any `firestore:"metadata,omitempty"`
	Diff      map[string]any `firestore:"diff,omitempty"`
	RequestID string         `firestore:"request_id,omitempty"`
	CreatedAt time.Time      `firestore:"created_at"`
}

func auditLogToDocument(e domain.AuditLogEntry) auditLogDocument {
	return auditLogDocument{
		Actor:     e.Actor,
		ActorType: e.ActorType,
		Action:    e.Action,
		TargetRef: e.TargetRef,
		Metadata:  e.Metadata,
		Diff:      e.Diff,
		RequestID: e.RequestID,
		CreatedAt: e.CreatedAt.UTC(),
	}
}

func auditLogFromDocument(id string, d auditLogDocument) domain.AuditLogEntry {
	return domain.AuditLogEntry{
		ID:        id,
		Actor:     d.Actor,
		ActorType: d.ActorType,
		Action:    d.Action,
		TargetRef: d.TargetRef,
		Metadata:  d.Metadata,
		Diff:      d.Diff,
		RequestID: d.RequestID,
		CreatedAt: d.CreatedAt.UTC(),
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	v := t.UTC()
	return &v
}
