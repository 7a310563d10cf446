package handlers

import (
	domain "github.com/quantum-portal/api/internal/domain"
	"github.com/quantum-portal/api/internal/services"
)

type listResponse[T any] struct {
	Items         []T    `json:"items"`
	NextPageToken string `json:"nextPageToken,omitempty"`
}

func newListResponse[S, T any](page domain.CursorPage[S], convert func(S) T) listResponse[T] {
	return listResponse[T]{Items: mapSlice(page.Items, convert), NextPageToken: page.NextPageToken}
}

func mapSlice[S, T any](in []S, convert func(S) T) []T {
	out := make([]T, 0, len(in))
	for _, item := range in {
		out = append(out, convert(item))
	}
	return out
}

type seoPayload struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

func (p *seoPayload) toDomain() domain.SEO {
	if p == nil {
		return domain.SEO{}
	}
	return domain.SEO{Title: p.Title, Description: p.Description}
}

func newSEOPayload(seo domain.SEO) seoPayload {
	return seoPayload{Title: seo.Title, Description: seo.Description}
}

// tenants

type tenantRequest struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Domains       []string `json:"domains"`
	DefaultLocale string   `json:"defaultLocale"`
	Status        string   `json:"status"`
}

func (p tenantRequest) toInput() services.TenantInput {
	return services.TenantInput{
		ID:            p.ID,
		Name:          p.Name,
		Domains:       p.Domains,
		DefaultLocale: p.DefaultLocale,
		Status:        domain.TenantStatus(p.Status),
	}
}

type tenantResponse struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Domains       []string `json:"domains"`
	DefaultLocale string   `json:"defaultLocale"`
	Status        string   `json:"status"`
	CreatedAt     string   `json:"createdAt,omitempty"`
	UpdatedAt     string   `json:"updatedAt,omitempty"`
}

func newTenantResponse(t services.Tenant) tenantResponse {
	domains := t.Domains
	if domains == nil {
		domains = []string{}
	}
	return tenantResponse{
		ID:            t.ID,
		Name:          t.Name,
		Domains:       domains,
		DefaultLocale: t.DefaultLocale,
		Status:        string(t.Status),
		CreatedAt:     formatTimestamp(t.CreatedAt),
		UpdatedAt:     formatTimestamp(t.UpdatedAt),
	}
}

// categories

type categoryRequest struct {
	Name        string      `json:"name"`
	Slug        string      `json:"slug"`
	Description string      `json:"description"`
	ParentID    string      `json:"parentId"`
	ImageURL    string      `json:"imageUrl"`
	SortOrder   int         `json:"sortOrder"`
	IsActive    *bool       `json:"isActive"`
	SEO         *seoPayload `json:"seo"`
}

func (p categoryRequest) toInput() services.CategoryInput {
	return services.CategoryInput{
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		ParentID:    p.ParentID,
		ImageURL:    p.ImageURL,
		SortOrder:   p.SortOrder,
		IsActive:    p.IsActive,
		SEO:         p.SEO.toDomain(),
	}
}

type categoryResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Description string     `json:"description,omitempty"`
	ParentID    string     `json:"parentId,omitempty"`
	ImageURL    string     `json:"imageUrl,omitempty"`
	SortOrder   int        `json:"sortOrder"`
	IsActive    bool       `json:"isActive"`
	SEO         seoPayload `json:"seo"`
	CreatedAt   string     `json:"createdAt,omitempty"`
	UpdatedAt   string     `json:"updatedAt,omitempty"`
}

func newCategoryResponse(c services.Category) categoryResponse {
	return categoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		ParentID:    c.ParentID,
		ImageURL:    c.ImageURL,
		SortOrder:   c.SortOrder,
		IsActive:    c.IsActive,
		SEO:         newSEOPayload(c.SEO),
		CreatedAt:   formatTimestamp(c.CreatedAt),
		UpdatedAt:   formatTimestamp(c.UpdatedAt),
	}
}

type categoryNodeResponse struct {
	categoryResponse
	Children []categoryNodeResponse `json:"children"`
}

func newCategoryNodeResponse(node services.CategoryNode) categoryNodeResponse {
	return categoryNodeResponse{
		categoryResponse: newCategoryResponse(node.Category),
		Children:         mapSlice(node.Children, newCategoryNodeResponse),
	}
}

type categoryDetailResponse struct {
	Category    categoryResponse   `json:"category"`
	Breadcrumbs []categoryResponse `json:"breadcrumbs"`
	Children    []categoryResponse `json:"children"`
}

// brands

type brandRequest struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	LogoURL     string `json:"logoUrl"`
	WebsiteURL  string `json:"websiteUrl"`
	IsFeatured  bool   `json:"isFeatured"`
	IsActive    *bool  `json:"isActive"`
	SortOrder   int    `json:"sortOrder"`
}

func (p brandRequest) toInput() services.BrandInput {
	return services.BrandInput{
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		LogoURL:     p.LogoURL,
		WebsiteURL:  p.WebsiteURL,
		IsFeatured:  p.IsFeatured,
		IsActive:    p.IsActive,
		SortOrder:   p.SortOrder,
	}
}

type brandResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
	LogoURL     string `json:"logoUrl,omitempty"`
	WebsiteURL  string `json:"websiteUrl,omitempty"`
	IsFeatured  bool   `json:"isFeatured"`
	IsActive    bool   `json:"isActive"`
	SortOrder   int    `json:"sortOrder"`
	CreatedAt   string `json:"createdAt,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
}

func newBrandResponse(b services.Brand) brandResponse {
	return brandResponse{
		ID:          b.ID,
		Name:        b.Name,
		Slug:        b.Slug,
		Description: b.Description,
		LogoURL:     b.LogoURL,
		WebsiteURL:  b.WebsiteURL,
		IsFeatured:  b.IsFeatured,
		IsActive:    b.IsActive,
		SortOrder:   b.SortOrder,
		CreatedAt:   formatTimestamp(b.CreatedAt),
		UpdatedAt:   formatTimestamp(b.UpdatedAt),
	}
}

// static pages

type staticPageRequest struct {
	Title     string      `json:"title"`
	Slug      string      `json:"slug"`
	Format    string      `json:"format"`
	Content   string      `json:"content"`
	Status    string      `json:"status"`
	PublishAt string      `json:"publishAt"`
	SEO       *seoPayload `json:"seo"`
}

func (p staticPageRequest) toInput() (services.StaticPageInput, error) {
	publishAt, err := parseTimestamp("publishAt", p.PublishAt)
	if err != nil {
		return services.StaticPageInput{}, err
	}
	return services.StaticPageInput{
		Title:     p.Title,
		Slug:      p.Slug,
		Format:    domain.ContentFormat(p.Format),
		Content:   p.Content,
		Status:    domain.PageStatus(p.Status),
		PublishAt: publishAt,
		SEO:       p.SEO.toDomain(),
	}, nil
}

type staticPageResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Format      string     `json:"format"`
	Content     string     `json:"content"`
	Status      string     `json:"status"`
	PublishAt   string     `json:"publishAt,omitempty"`
	SEO         seoPayload `json:"seo"`
	CreatedAt   string     `json:"createdAt,omitempty"`
	UpdatedAt   string     `json:"updatedAt,omitempty"`
	PublishedAt string     `json:"publishedAt,omitempty"`
}

func newStaticPageResponse(p services.StaticPage) staticPageResponse {
	return staticPageResponse{
		ID:          p.ID,
		Title:       p.Title,
		Slug:        p.Slug,
		Format:      string(p.Format),
		Content:     p.Content,
		Status:      string(p.Status),
		PublishAt:   formatTimestampPtr(p.PublishAt),
		SEO:         newSEOPayload(p.SEO),
		CreatedAt:   formatTimestamp(p.CreatedAt),
		UpdatedAt:   formatTimestamp(p.UpdatedAt),
		PublishedAt: formatTimestampPtr(p.PublishedAt),
	}
}

type renderedStaticPageResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	HTML        string     `json:"html"`
	SEO         seoPayload `json:"seo"`
	PublishedAt string     `json:"publishedAt,omitempty"`
	UpdatedAt   string     `json:"updatedAt,omitempty"`
}

func newRenderedStaticPageResponse(p services.RenderedStaticPage) renderedStaticPageResponse {
	return renderedStaticPageResponse{
		ID:          p.ID,
		Title:       p.Title,
		Slug:        p.Slug,
		HTML:        p.HTML,
		SEO:         newSEOPayload(p.SEO),
		PublishedAt: formatTimestampPtr(p.PublishedAt),
		UpdatedAt:   formatTimestamp(p.UpdatedAt),
	}
}

// dynamic pages

type visibilityPayload struct {
	Desktop *bool `json:"desktop"`
	Mobile  *bool `json:"mobile"`
}

type blockRequest struct {
	ID         string             `json:"id"`
	Type       string             `json:"type"`
	Order      int                `json:"order"`
	Content    map[string]any     `json:"content"`
	Visibility *visibilityPayload `json:"visibility"`
	IsActive   *bool              `json:"isActive"`
}

func (p blockRequest) toInput() services.BlockInput {
	input := services.BlockInput{
		ID:       p.ID,
		Type:     domain.BlockType(p.Type),
		Order:    p.Order,
		Content:  p.Content,
		IsActive: p.IsActive,
	}
	if p.Visibility != nil {
		input.Desktop = p.Visibility.Desktop
		input.Mobile = p.Visibility.Mobile
	}
	return input
}

type segmentRequest struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Type     string         `json:"type"`
	Order    *int           `json:"order"`
	IsActive *bool          `json:"isActive"`
	Settings map[string]any `json:"settings"`
	Blocks   []blockRequest `json:"blocks"`
}

func (p segmentRequest) toInput() services.SegmentInput {
	return services.SegmentInput{
		ID:       p.ID,
		Name:     p.Name,
		Type:     p.Type,
		Order:    p.Order,
		IsActive: p.IsActive,
		Settings: p.Settings,
		Blocks:   mapSlice(p.Blocks, blockRequest.toInput),
	}
}

type dynamicPageRequest struct {
	Title     string           `json:"title"`
	Slug      string           `json:"slug"`
	Status    string           `json:"status"`
	PublishAt string           `json:"publishAt"`
	SEO       *seoPayload      `json:"seo"`
	Segments  []segmentRequest `json:"segments"`
}

func (p dynamicPageRequest) toInput() (services.DynamicPageInput, error) {
	publishAt, err := parseTimestamp("publishAt", p.PublishAt)
	if err != nil {
		return services.DynamicPageInput{}, err
	}
	return services.DynamicPageInput{
		Title:     p.Title,
		Slug:      p.Slug,
		Status:    domain.PageStatus(p.Status),
		PublishAt: publishAt,
		SEO:       p.SEO.toDomain(),
		Segments:  mapSlice(p.Segments, segmentRequest.toInput),
	}, nil
}

type blockResponse struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Order      int            `json:"order"`
	Content    map[string]any `json:"content"`
	Visibility struct {
		Desktop bool `json:"desktop"`
		Mobile  bool `json:"mobile"`
	} `json:"visibility"`
	IsActive bool `json:"isActive"`
}

func newBlockResponse(b services.Block) blockResponse {
	resp := blockResponse{ID: b.ID, Type: string(b.Type), Order: b.Order, Content: b.Content, IsActive: b.IsActive}
	resp.Visibility.Desktop = b.Visibility.Desktop
	resp.Visibility.Mobile = b.Visibility.Mobile
	return resp
}

type segmentResponse struct {
	ID       string          `json:"id"`
	Name     string          `json:"name,omitempty"`
	Type     string          `json:"type,omitempty"`
	Order    int             `json:"order"`
	IsActive bool            `json:"isActive"`
	Settings map[string]any  `json:"settings,omitempty"`
	Blocks   []blockResponse `json:"blocks"`
}

func newSegmentResponse(s services.Segment) segmentResponse {
	return segmentResponse{
		ID:       s.ID,
		Name:     s.Name,
		Type:     s.Type,
		Order:    s.Order,
		IsActive: s.IsActive,
		Settings: s.Settings,
		Blocks:   mapSlice(s.Blocks, newBlockResponse),
	}
}

type dynamicPageResponse struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Slug        string            `json:"slug"`
	Status      string            `json:"status"`
	PublishAt   string            `json:"publishAt,omitempty"`
	SEO         seoPayload        `json:"seo"`
	Segments    []segmentResponse `json:"segments"`
	CreatedAt   string            `json:"createdAt,omitempty"`
	UpdatedAt   string            `json:"updatedAt,omitempty"`
	PublishedAt string            `json:"publishedAt,omitempty"`
}

func newDynamicPageResponse(p services.DynamicPage) dynamicPageResponse {
	return dynamicPageResponse{
		ID:          p.ID,
		Title:       p.Title,
		Slug:        p.Slug,
		Status:      string(p.Status),
		PublishAt:   formatTimestampPtr(p.PublishAt),
		SEO:         newSEOPayload(p.SEO),
		Segments:    mapSlice(p.Segments, newSegmentResponse),
		CreatedAt:   formatTimestamp(p.CreatedAt),
		UpdatedAt:   formatTimestamp(p.UpdatedAt),
		PublishedAt: formatTimestampPtr(p.PublishedAt),
	}
}

type renderedBlockResponse struct {
	ID      string         `json:"id"`
	Type    string         `json:"type"`
	Content map[string]any `json:"content"`
}

type renderedSegmentResponse struct {
	ID       string                  `json:"id"`
	Name     string                  `json:"name,omitempty"`
	Type     string                  `json:"type,omitempty"`
	Settings map[string]any          `json:"settings,omitempty"`
	Blocks   []renderedBlockResponse `json:"blocks"`
}

type renderedDynamicPageResponse struct {
	ID          string                    `json:"id"`
	Title       string                    `json:"title"`
	Slug        string                    `json:"slug"`
	Device      string                    `json:"device"`
	SEO         seoPayload                `json:"seo"`
	Segments    []renderedSegmentResponse `json:"segments"`
	PublishedAt string                    `json:"publishedAt,omitempty"`
	UpdatedAt   string                    `json:"updatedAt,omitempty"`
}

func newRenderedDynamicPageResponse(p services.RenderedDynamicPage) renderedDynamicPageResponse {
	return renderedDynamicPageResponse{
		ID:     p.ID,
		Title:  p.Title,
		Slug:   p.Slug,
		Device: string(p.Device),
		SEO:    newSEOPayload(p.SEO),
		Segments: mapSlice(p.Segments, func(s domain.RenderedSegment) renderedSegmentResponse {
			return renderedSegmentResponse{
				ID:       s.ID,
				Name:     s.Name,
				Type:     s.Type,
				Settings: s.Settings,
				Blocks: mapSlice(s.Blocks, func(b domain.RenderedBlock) renderedBlockResponse {
					return renderedBlockResponse{ID: b.ID, Type: string(b.Type), Content: b.Content}
				}),
			}
		}),
		PublishedAt: formatTimestampPtr(p.PublishedAt),
		UpdatedAt:   formatTimestamp(p.UpdatedAt),
	}
}

// navigation

type navigationItemPayload struct {
	ID           string                  `json:"id,omitempty"`
	Label        string                  `json:"label"`
	URL          string                  `json:"url,omitempty"`
	Type         string                  `json:"type,omitempty"`
	TargetID     string                  `json:"targetId,omitempty"`
	OpenInNewTab bool                    `json:"openInNewTab,omitempty"`
	Items        []navigationItemPayload `json:"items,omitempty"`
}

func (p navigationItemPayload) toDomain() services.NavigationItem {
	return services.NavigationItem{
		ID:           p.ID,
		Label:        p.Label,
		URL:          p.URL,
		Type:         domain.NavigationItemType(p.Type),
		TargetID:     p.TargetID,
		OpenInNewTab: p.OpenInNewTab,
		Items:        mapSlice(p.Items, navigationItemPayload.toDomain),
	}
}

func newNavigationItemPayload(item services.NavigationItem) navigationItemPayload {
	return navigationItemPayload{
		ID:           item.ID,
		Label:        item.Label,
		URL:          item.URL,
		Type:         string(item.Type),
		TargetID:     item.TargetID,
		OpenInNewTab: item.OpenInNewTab,
		Items:        mapSlice(item.Items, newNavigationItemPayload),
	}
}

type navigationMenuRequest struct {
	Name     string                  `json:"name"`
	Location string                  `json:"location"`
	Items    []navigationItemPayload `json:"items"`
	IsActive *bool                   `json:"isActive"`
}

func (p navigationMenuRequest) toInput() services.NavigationMenuInput {
	return services.NavigationMenuInput{
		Name:     p.Name,
		Location: p.Location,
		Items:    mapSlice(p.Items, navigationItemPayload.toDomain),
		IsActive: p.IsActive,
	}
}

type navigationMenuResponse struct {
	ID        string                  `json:"id"`
	Name      string                  `json:"name"`
	Location  string                  `json:"location"`
	Items     []navigationItemPayload `json:"items"`
	IsActive  bool                    `json:"isActive"`
	CreatedAt string                  `json:"createdAt,omitempty"`
	UpdatedAt string                  `json:"updatedAt,omitempty"`
}

func newNavigationMenuResponse(m services.NavigationMenu) navigationMenuResponse {
	return navigationMenuResponse{
		ID:        m.ID,
		Name:      m.Name,
		Location:  m.Location,
		Items:     mapSlice(m.Items, newNavigationItemPayload),
		IsActive:  m.IsActive,
		CreatedAt: formatTimestamp(m.CreatedAt),
		UpdatedAt: formatTimestamp(m.UpdatedAt),
	}
}

type resolvedItemResponse struct {
	ID           string                 `json:"id"`
	Label        string                 `json:"label"`
	Href         string                 `json:"href"`
	Type         string                 `json:"type"`
	OpenInNewTab bool                   `json:"openInNewTab,omitempty"`
	Items        []resolvedItemResponse `json:"items,omitempty"`
}

func newResolvedItemResponse(item domain.ResolvedNavigationItem) resolvedItemResponse {
	return resolvedItemResponse{
		ID:           item.ID,
		Label:        item.Label,
		Href:         item.Href,
		Type:         string(item.Type),
		OpenInNewTab: item.OpenInNewTab,
		Items:        mapSlice(item.Items, newResolvedItemResponse),
	}
}

type resolvedMenuResponse struct {
	ID       string                 `json:"id"`
	Name     string                 `json:"name"`
	Location string                 `json:"location"`
	Items    []resolvedItemResponse `json:"items"`
}

func newResolvedMenuResponse(m services.ResolvedMenu) resolvedMenuResponse {
	return resolvedMenuResponse{
		ID:       m.ID,
		Name:     m.Name,
		Location: m.Location,
		Items:    mapSlice(m.Items, newResolvedItemResponse),
	}
}

// homepage

type homepageSectionRequest struct {
	Title     string         `json:"title"`
	Type      string         `json:"type"`
	Order     *int           `json:"order"`
	IsVisible *bool          `json:"isVisible"`
	Content   map[string]any `json:"content"`
}

func (p homepageSectionRequest) toInput() services.HomepageSectionInput {
	return services.HomepageSectionInput{
		Title:     p.Title,
		Type:      domain.HomepageSectionType(p.Type),
		Order:     p.Order,
		IsVisible: p.IsVisible,
		Content:   p.Content,
	}
}

type homepageSectionResponse struct {
	ID        string         `json:"id"`
	Title     string         `json:"title,omitempty"`
	Type      string         `json:"type"`
	Order     int            `json:"order"`
	IsVisible bool           `json:"isVisible"`
	Content   map[string]any `json:"content"`
	CreatedAt string         `json:"createdAt,omitempty"`
	UpdatedAt string         `json:"updatedAt,omitempty"`
}

func newHomepageSectionResponse(s services.HomepageSection) homepageSectionResponse {
	return homepageSectionResponse{
		ID:        s.ID,
		Title:     s.Title,
		Type:      string(s.Type),
		Order:     s.Order,
		IsVisible: s.IsVisible,
		Content:   s.Content,
		CreatedAt: formatTimestamp(s.CreatedAt),
		UpdatedAt: formatTimestamp(s.UpdatedAt),
	}
}

type renderedSectionResponse struct {
	ID      string         `json:"id"`
	Title   string         `json:"title,omitempty"`
	Type    string         `json:"type"`
	Content map[string]any `json:"content"`
}

type homepageResponse struct {
	Sections []renderedSectionResponse `json:"sections"`
	Header   *resolvedMenuResponse     `json:"header"`
	Footer   *resolvedMenuResponse     `json:"footer"`
}

func newHomepageResponse(h services.Homepage) homepageResponse {
	resp := homepageResponse{
		Sections: mapSlice(h.Sections, func(s domain.RenderedHomepageSection) renderedSectionResponse {
			return renderedSectionResponse{ID: s.ID, Title: s.Title, Type: string(s.Type), Content: s.Content}
		}),
	}
	if h.Header != nil {
		header := newResolvedMenuResponse(*h.Header)
		resp.Header = &header
	}
	if h.Footer != nil {
		footer := newResolvedMenuResponse(*h.Footer)
		resp.Footer = &footer
	}
	return resp
}

type reorderRequest struct {
	IDs []string `json:"ids"`
}

type visibilityRequest struct {
	IsVisible *bool `json:"isVisible"`
}

// media

type uploadSignatureRequest struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	Folder      string `json:"folder"`
}

type completeUploadRequest struct {
	PublicURL string `json:"publicUrl"`
	Size      int64  `json:"size"`
}

type mediaWebhookRequest struct {
	TenantID  string `json:"tenantId"`
	AssetID   string `json:"assetId"`
	PublicURL string `json:"publicUrl"`
}

type mediaAssetResponse struct {
	ID          string `json:"id"`
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	Folder      string `json:"folder,omitempty"`
	Provider    string `json:"provider"`
	Bucket      string `json:"bucket,omitempty"`
	ObjectPath  string `json:"objectPath"`
	PublicURL   string `json:"publicUrl,omitempty"`
	Status      string `json:"status"`
	CreatedBy   string `json:"createdBy,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
}

func newMediaAssetResponse(a services.MediaAsset) mediaAssetResponse {
	return mediaAssetResponse{
		ID:          a.ID,
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
		CreatedAt:   formatTimestamp(a.CreatedAt),
		UpdatedAt:   formatTimestamp(a.UpdatedAt),
	}
}

type uploadSignatureResponse struct {
	Asset     mediaAssetResponse `json:"asset"`
	Provider  string             `json:"provider"`
	UploadURL string             `json:"uploadUrl"`
	Method    string             `json:"method"`
	Headers   map[string]string  `json:"headers,omitempty"`
	Params    map[string]string  `json:"params,omitempty"`
	ExpiresAt string             `json:"expiresAt,omitempty"`
}

func newUploadSignatureResponse(s services.UploadSignature) uploadSignatureResponse {
	return uploadSignatureResponse{
		Asset:     newMediaAssetResponse(s.Asset),
		Provider:  s.Provider,
		UploadURL: s.UploadURL,
		Method:    s.Method,
		Headers:   s.Headers,
		Params:    s.Params,
		ExpiresAt: formatTimestamp(s.ExpiresAt),
	}
}

type signedURLResponse struct {
	URL       string `json:"url"`
	Method    string `json:"method"`
	ExpiresAt string `json:"expiresAt,omitempty"`
}

// audit

type auditLogResponse struct {
	ID        string         `json:"id"`
	Actor     string         `json:"actor"`
	ActorType string         `json:"actorType,omitempty"`
	Action    string         `json:"action"`
	TargetRef string         `json:"targetRef"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Diff      map[string]any `json:"diff,omitempty"`
	RequestID string         `json:"requestId,omitempty"`
	CreatedAt string         `json:"createdAt"`
}

func newAuditLogResponse(e services.AuditLogEntry) auditLogResponse {
	return auditLogResponse{
		ID:        e.ID,
		Actor:     e.Actor,
		ActorType: e.ActorType,
		Action:    e.Action,
		TargetRef: e.TargetRef,
		Metadata:  e.Metadata,
		Diff:      e.Diff,
		RequestID: e.RequestID,
		CreatedAt: formatTimestamp(e.CreatedAt),
	}
}

type publishResultResponse struct {
	Tenants      int `json:"tenants"`
	StaticPages  int `json:"staticPages"`
	DynamicPages int `json:"dynamicPages"`
	Failures     int `json:"failures"`
}
