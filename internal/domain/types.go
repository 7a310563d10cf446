package domain

import (
	"time"
)

// Pagination defines standard cursor-based paging inputs for list operations.
type Pagination struct {
	PageSize  int
	PageToken string
}

// CursorPage packages list results with an encoded next token.
type CursorPage[T any] struct {
	Items         []T
	NextPageToken string
}

// TenantStatus enumerates the lifecycle of a storefront tenant.
type TenantStatus string

const (
	TenantStatusActive    TenantStatus = "active"
	TenantStatusSuspended TenantStatus = "suspended"
)

// Tenant is one storefront. Every content entity lives under exactly one tenant.
type Tenant struct {
	ID            string
	Name          string
	Domains       []string
	DefaultLocale string
	Status        TenantStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// SEO carries the search metadata shared by categories and pages.
type SEO struct {
	Title       string
	Description string
}

// Category is a node of the tenant's product category tree.
type Category struct {
	ID          string
	Name        string
	Slug        string
	Description string
	ParentID    string
	ImageURL    string
	SortOrder   int
	IsActive    bool
	SEO         SEO
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CategoryNode is a category with its ordered children.
type CategoryNode struct {
	Category Category
	Children []CategoryNode
}

// Brand describes a merchandised brand.
type Brand struct {
	ID          string
	Name        string
	Slug        string
	Description string
	LogoURL     string
	WebsiteURL  string
	IsFeatured  bool
	IsActive    bool
	SortOrder   int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PageStatus is shared by static and dynamic pages.
type PageStatus string

const (
	PageStatusDraft     PageStatus = "draft"
	PageStatusScheduled PageStatus = "scheduled"
	PageStatusPublished PageStatus = "published"
)

// ContentFormat selects how static page content is interpreted.
type ContentFormat string

const (
	ContentFormatHTML     ContentFormat = "html"
	ContentFormatMarkdown ContentFormat = "markdown"
)

// StaticPage holds raw HTML or markdown content.
type StaticPage struct {
	ID          string
	Title       string
	Slug        string
	Format      ContentFormat
	Content     string
	Status      PageStatus
	PublishAt   *time.Time
	SEO         SEO
	CreatedAt   time.Time
	UpdatedAt   time.Time
	PublishedAt *time.Time
}

// RenderedStaticPage is the public, sanitised form of a static page.
type RenderedStaticPage struct {
	ID          string
	Title       string
	Slug        string
	HTML        string
	SEO         SEO
	PublishedAt *time.Time
	UpdatedAt   time.Time
}

// BlockType enumerates the supported dynamic page blocks.
type BlockType string

const (
	BlockTypeHeroBanner      BlockType = "hero_banner"
	BlockTypeProductCarousel BlockType = "product_carousel"
	BlockTypeCategoryList    BlockType = "category_list"
	BlockTypeBrandList       BlockType = "brand_list"
	BlockTypeCustomHTML      BlockType = "custom_html"
	BlockTypeRichText        BlockType = "rich_text"
	BlockTypeImage           BlockType = "image"
	BlockTypeSpacer          BlockType = "spacer"
)

// BlockVisibility holds per-device display flags.
type BlockVisibility struct {
	Desktop bool
	Mobile  bool
}

// Block is an ordered unit of typed content within a segment.
type Block struct {
	ID         string
	Type       BlockType
	Order      int
	Content    map[string]any
	Visibility BlockVisibility
	IsActive   bool
}

// Segment is an ordered top-level section of a dynamic page.
type Segment struct {
	ID       string
	Name     string
	Type     string
	Order    int
	IsActive bool
	Settings map[string]any
	Blocks   []Block
}

// DynamicPage is composed from segments and blocks.
type DynamicPage struct {
	ID          string
	Title       string
	Slug        string
	Status      PageStatus
	PublishAt   *time.Time
	SEO         SEO
	Segments    []Segment
	CreatedAt   time.Time
	UpdatedAt   time.Time
	PublishedAt *time.Time
}

// Device selects which blocks a rendered page keeps.
type Device string

const (
	DeviceAll     Device = "all"
	DeviceDesktop Device = "desktop"
	DeviceMobile  Device = "mobile"
)

// RenderedBlock is a block with its content resolved for the storefront.
type RenderedBlock struct {
	ID      string
	Type    BlockType
	Content map[string]any
}

// RenderedSegment is a segment containing only renderable blocks.
type RenderedSegment struct {
	ID       string
	Name     string
	Type     string
	Settings map[string]any
	Blocks   []RenderedBlock
}

// RenderedDynamicPage is the render-ready form of a dynamic page for one device.
type RenderedDynamicPage struct {
	ID          string
	Title       string
	Slug        string
	Device      Device
	SEO         SEO
	Segments    []RenderedSegment
	PublishedAt *time.Time
	UpdatedAt   time.Time
}

// NavigationItemType selects how a navigation item resolves to an href.
type NavigationItemType string

const (
	NavigationItemLink     NavigationItemType = "link"
	NavigationItemCategory NavigationItemType = "category"
	NavigationItemPage     NavigationItemType = "page"
	NavigationItemBrand    NavigationItemType = "brand"
)

// NavigationItem is one, possibly nested, menu entry.
type NavigationItem struct {
	ID           string
	Label        string
	URL          string
	Type         NavigationItemType
	TargetID     string
	OpenInNewTab bool
	Items        []NavigationItem
}

// NavigationMenu is a named tree of navigation items bound to a location.
type NavigationMenu struct {
	ID        string
	Name      string
	Location  string
	Items     []NavigationItem
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ResolvedNavigationItem is a navigation item with a concrete storefront href.
type ResolvedNavigationItem struct {
	ID           string
	Label        string
	Href         string
	Type         NavigationItemType
	OpenInNewTab bool
	Items        []ResolvedNavigationItem
}

// ResolvedMenu is the public form of a navigation menu.
type ResolvedMenu struct {
	ID       string
	Name     string
	Location string
	Items    []ResolvedNavigationItem
}

// HomepageSectionType enumerates the homepage section kinds.
type HomepageSectionType string

const (
	HomepageSectionHero               HomepageSectionType = "hero"
	HomepageSectionFeaturedCategories HomepageSectionType = "featured_categories"
	HomepageSectionFeaturedBrands     HomepageSectionType = "featured_brands"
	HomepageSectionProductGrid        HomepageSectionType = "product_grid"
	HomepageSectionBanner             HomepageSectionType = "banner"
	HomepageSectionCustomHTML         HomepageSectionType = "custom_html"
)

// HomepageSection is a typed, orderable block of the storefront home page.
type HomepageSection struct {
	ID        string
	Title     string
	Type      HomepageSectionType
	Order     int
	IsVisible bool
	Content   map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RenderedHomepageSection carries resolved section content.
type RenderedHomepageSection struct {
	ID      string
	Title   string
	Type    HomepageSectionType
	Content map[string]any
}

// Homepage aggregates everything the storefront home page needs.
type Homepage struct {
	Sections []RenderedHomepageSection
	Header   *ResolvedMenu
	Footer   *ResolvedMenu
}

// MediaStatus tracks the upload lifecycle of a media asset.
type MediaStatus string

const (
	MediaStatusPending MediaStatus = "pending"
	MediaStatusReady   MediaStatus = "ready"
)

// MediaAsset records an uploaded file and where it lives.
type MediaAsset struct {
	ID          string
	FileName    string
	ContentType string
	Size        int64
	Folder      string
	Provider    string
	Bucket      string
	ObjectPath  string
	PublicURL   string
	Status      MediaStatus
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// UploadSignature is returned to clients so they can upload directly to the provider.
type UploadSignature struct {
	Asset     MediaAsset
	Provider  string
	UploadURL string
	Method    string
	Headers   map[string]string
	Params    map[string]string
	ExpiresAt time.Time
}

// SignedURL is a time-limited URL for a media object.
type SignedURL struct {
	URL       string
	Method    string
	ExpiresAt time.Time
}

// ContentAction names the kind of mutation in a content event.
type ContentAction string

const (
	ContentActionCreated     ContentAction = "created"
	ContentActionUpdated     ContentAction = "updated"
	ContentActionDeleted     ContentAction = "deleted"
	ContentActionPublished   ContentAction = "published"
	ContentActionUnpublished ContentAction = "unpublished"
)

// ContentChanged is emitted after every successful content mutation.
type ContentChanged struct {
	TenantID   string
	Resource   string
	ResourceID string
	Slug       string
	Action     ContentAction
	OccurredAt time.Time
}

// PublishResult reports how many scheduled pages were published.
type PublishResult struct {
	Tenants      int
	StaticPages  int
	DynamicPages int
	Failures     int
}

const (
	// HealthStatusOK indicates all dependencies are healthy.
	HealthStatusOK = "ok"
	// HealthStatusDegraded means only optional dependencies are failing; the API still serves.
	HealthStatusDegraded = "degraded"
	// HealthStatusError indicates the service or a critical dependency is unavailable.
	HealthStatusError = "error"
)

// SystemHealthCheck describes the outcome of an individual dependency probe.
type SystemHealthCheck struct {
	Status    string
	Detail    string
	Error     string
	Latency   time.Duration
	CheckedAt time.Time
}

// SystemHealthReport aggregates dependency status for health endpoints.
type SystemHealthReport struct {
	Status      string
	Checks      map[string]SystemHealthCheck
	Version     string
	CommitSHA   string
	Environment string
	Uptime      time.Duration
	GeneratedAt time.Time
}

// AuditLogEntry stores normalized audit information for admin use.
type AuditLogEntry struct {
	ID        string
	Actor     string
	ActorType string
	Action    string
	TargetRef string
	Metadata  map[string]any
	Diff      map[string]any
	RequestID string
	CreatedAt time.Time
}
