package services

import (
	"context"
	"time"

	domain "github.com/quantum-portal/api/internal/domain"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	Pagination          = domain.Pagination
	Tenant              = domain.Tenant
	Category            = domain.Category
	CategoryNode        = domain.CategoryNode
	Brand               = domain.Brand
	StaticPage          = domain.StaticPage
	RenderedStaticPage  = domain.RenderedStaticPage
	DynamicPage         = domain.DynamicPage
	Segment             = domain.Segment
	Block               = domain.Block
	RenderedDynamicPage = domain.RenderedDynamicPage
	NavigationMenu      = domain.NavigationMenu
	NavigationItem      = domain.NavigationItem
	ResolvedMenu        = domain.ResolvedMenu
	HomepageSection     = domain.HomepageSection
	Homepage            = domain.Homepage
	MediaAsset          = domain.MediaAsset
	UploadSignature     = domain.UploadSignature
	SignedURL           = domain.SignedURL
	PublishResult       = domain.PublishResult
	SystemHealthReport  = domain.SystemHealthReport
	AuditLogEntry       = domain.AuditLogEntry
)

// TenantService manages storefront tenants and resolves the tenant of an incoming request.
type TenantService interface {
	CreateTenant(ctx context.Context, input TenantInput) (Tenant, error)
	UpdateTenant(ctx context.Context, tenantID string, input TenantInput) (Tenant, error)
	GetTenant(ctx context.Context, tenantID string) (Tenant, error)
	ListTenants(ctx context.Context, filter TenantListFilter) (domain.CursorPage[Tenant], error)
	DeleteTenant(ctx context.Context, tenantID string) error
	ResolveTenant(ctx context.Context, host, headerValue string) (Tenant, error)
}

// TenantInput carries writable tenant fields. ID is only honoured on create.
type TenantInput struct {
	ID            string
	Name          string
	Domains       []string
	DefaultLocale string
	Status        domain.TenantStatus
}

// TenantListFilter narrows tenant listings.
type TenantListFilter struct {
	Status     domain.TenantStatus
	Pagination Pagination
}

// CategoryService manages the category tree of the context tenant.
type CategoryService interface {
	CreateCategory(ctx context.Context, input CategoryInput) (Category, error)
	UpdateCategory(ctx context.Context, categoryID string, input CategoryInput) (Category, error)
	GetCategory(ctx context.Context, categoryID string) (Category, error)
	GetPublicCategory(ctx context.Context, slug string) (CategoryDetail, error)
	ListCategories(ctx context.Context, filter CategoryListFilter) (domain.CursorPage[Category], error)
	DeleteCategory(ctx context.Context, categoryID string) error
	CategoryTree(ctx context.Context, activeOnly bool) ([]CategoryNode, error)
	Breadcrumbs(ctx context.Context, categoryID string) ([]Category, error)
}

// CategoryInput carries writable category fields. A nil IsActive means active on create and
// unchanged on update.
type CategoryInput struct {
	Name        string
	Slug        string
	Description string
	ParentID    string
	ImageURL    string
	SortOrder   int
	IsActive    *bool
	SEO         domain.SEO
}

// CategoryListFilter narrows category listings. A nil ParentID lists every category; an empty
// one lists roots.
type CategoryListFilter struct {
	ParentID   *string
	ActiveOnly bool
	Pagination Pagination
}

// CategoryDetail is the public view of one category.
type CategoryDetail struct {
	Category    Category
	Breadcrumbs []Category
	Children    []Category
}

// BrandService manages brands of the context tenant.
type BrandService interface {
	CreateBrand(ctx context.Context, input BrandInput) (Brand, error)
	UpdateBrand(ctx context.Context, brandID string, input BrandInput) (Brand, error)
	GetBrand(ctx context.Context, brandID string) (Brand, error)
	GetPublicBrand(ctx context.Context, slug string) (Brand, error)
	ListBrands(ctx context.Context, filter BrandListFilter) (domain.CursorPage[Brand], error)
	DeleteBrand(ctx context.Context, brandID string) error
}

// BrandInput carries writable brand fields.
type BrandInput struct {
	Name        string
	Slug        string
	Description string
	LogoURL     string
	WebsiteURL  string
	IsFeatured  bool
	IsActive    *bool
	SortOrder   int
}

// BrandListFilter narrows brand listings.
type BrandListFilter struct {
	FeaturedOnly bool
	ActiveOnly   bool
	Pagination   Pagination
}

// StaticPageService manages HTML and markdown pages.
type StaticPageService interface {
	CreateStaticPage(ctx context.Context, input StaticPageInput) (StaticPage, error)
	UpdateStaticPage(ctx context.Context, pageID string, input StaticPageInput) (StaticPage, error)
	GetStaticPage(ctx context.Context, pageID string) (StaticPage, error)
	ListStaticPages(ctx context.Context, filter PageListFilter) (domain.CursorPage[StaticPage], error)
	DeleteStaticPage(ctx context.Context, pageID string) error
	PublishStaticPage(ctx context.Context, pageID string) (StaticPage, error)
	UnpublishStaticPage(ctx context.Context, pageID string) (StaticPage, error)
	GetPublishedStaticPage(ctx context.Context, slug string) (RenderedStaticPage, error)
}

// StaticPageInput carries writable static page fields.
type StaticPageInput struct {
	Title     string
	Slug      string
	Format    domain.ContentFormat
	Content   string
	Status    domain.PageStatus
	PublishAt *time.Time
	SEO       domain.SEO
}

// PageListFilter narrows static and dynamic page listings.
type PageListFilter struct {
	Status     domain.PageStatus
	Pagination Pagination
}

// DynamicPageService manages segment based pages and renders them for the storefront.
type DynamicPageService interface {
	CreateDynamicPage(ctx context.Context, input DynamicPageInput) (DynamicPage, error)
	UpdateDynamicPage(ctx context.Context, pageID string, input DynamicPageInput) (DynamicPage, error)
	GetDynamicPage(ctx context.Context, pageID string) (DynamicPage, error)
	ListDynamicPages(ctx context.Context, filter PageListFilter) (domain.CursorPage[DynamicPage], error)
	DeleteDynamicPage(ctx context.Context, pageID string) error
	PublishDynamicPage(ctx context.Context, pageID string) (DynamicPage, error)
	UnpublishDynamicPage(ctx context.Context, pageID string) (DynamicPage, error)
	AddSegment(ctx context.Context, pageID string, input SegmentInput) (DynamicPage, error)
	UpdateSegment(ctx context.Context, pageID, segmentID string, input SegmentInput) (DynamicPage, error)
	RemoveSegment(ctx context.Context, pageID, segmentID string) (DynamicPage, error)
	ReorderSegments(ctx context.Context, pageID string, segmentIDs []string) (DynamicPage, error)
	RenderDynamicPage(ctx context.Context, slug string, device domain.Device) (RenderedDynamicPage, error)
}

// DynamicPageInput carries a whole dynamic page document.
type DynamicPageInput struct {
	Title     string
	Slug      string
	Status    domain.PageStatus
	PublishAt *time.Time
	SEO       domain.SEO
	Segments  []SegmentInput
}

// SegmentInput carries one segment. A nil Order appends the segment after the existing ones.
type SegmentInput struct {
	ID       string
	Name     string
	Type     string
	Order    *int
	IsActive *bool
	Settings map[string]any
	Blocks   []BlockInput
}

// BlockInput carries one block. Nil visibility flags default to visible.
type BlockInput struct {
	ID       string
	Type     domain.BlockType
	Order    int
	Content  map[string]any
	Desktop  *bool
	Mobile   *bool
	IsActive *bool
}

// NavigationService manages menus and resolves them into storefront links.
type NavigationService interface {
	CreateMenu(ctx context.Context, input NavigationMenuInput) (NavigationMenu, error)
	UpdateMenu(ctx context.Context, menuID string, input NavigationMenuInput) (NavigationMenu, error)
	GetMenu(ctx context.Context, menuID string) (NavigationMenu, error)
	GetMenuByLocation(ctx context.Context, location string) (NavigationMenu, error)
	ListMenus(ctx context.Context, pager Pagination) (domain.CursorPage[NavigationMenu], error)
	DeleteMenu(ctx context.Context, menuID string) error
	ResolveMenu(ctx context.Context, location string) (ResolvedMenu, error)
}

// NavigationMenuInput carries writable menu fields. Items are sanitised before storage.
type NavigationMenuInput struct {
	Name     string
	Location string
	Items    []NavigationItem
	IsActive *bool
}

// HomepageService manages homepage sections and assembles the public homepage.
type HomepageService interface {
	CreateSection(ctx context.Context, input HomepageSectionInput) (HomepageSection, error)
	UpdateSection(ctx context.Context, sectionID string, input HomepageSectionInput) (HomepageSection, error)
	DeleteSection(ctx context.Context, sectionID string) error
	ListSections(ctx context.Context) ([]HomepageSection, error)
	ReorderSections(ctx context.Context, sectionIDs []string) ([]HomepageSection, error)
	SetVisibility(ctx context.Context, sectionID string, visible bool) (HomepageSection, error)
	Homepage(ctx context.Context) (Homepage, error)
}

// HomepageSectionInput carries writable section fields. A nil Order appends the section.
type HomepageSectionInput struct {
	Title     string
	Type      domain.HomepageSectionType
	Order     *int
	IsVisible *bool
	Content   map[string]any
}

// MediaService issues upload signatures and tracks uploaded assets.
type MediaService interface {
	IssueUploadSignature(ctx context.Context, cmd UploadSignatureCommand) (UploadSignature, error)
	CompleteUpload(ctx context.Context, assetID string, cmd CompleteUploadCommand) (MediaAsset, error)
	HandleUploadWebhook(ctx context.Context, event MediaUploadEvent) (MediaAsset, error)
	ListMedia(ctx context.Context, filter MediaListFilter) (domain.CursorPage[MediaAsset], error)
	DeleteMedia(ctx context.Context, assetID string) error
	IssueDownload(ctx context.Context, assetID string) (SignedURL, error)
}

// UploadSignatureCommand describes the file a client is about to upload.
type UploadSignatureCommand struct {
	FileName    string
	ContentType string
	Size        int64
	Folder      string
}

// CompleteUploadCommand marks an asset uploaded. PublicURL is derived when empty.
type CompleteUploadCommand struct {
	PublicURL string
	Size      int64
}

// MediaUploadEvent is the payload of the provider webhook.
type MediaUploadEvent struct {
	TenantID  string
	AssetID   string
	PublicURL string
}

// MediaListFilter narrows media listings.
type MediaListFilter struct {
	Folder     string
	Status     domain.MediaStatus
	Pagination Pagination
}

// PublishingService publishes scheduled pages whose publish time has passed.
type PublishingService interface {
	PublishDue(ctx context.Context, now time.Time) (PublishResult, error)
}

// AuditLogService records and lists audit entries for the context tenant.
type AuditLogService interface {
	Record(ctx context.Context, record AuditLogRecord)
	List(ctx context.Context, filter AuditLogFilter) (domain.CursorPage[AuditLogEntry], error)
}

// AuditLogRecord is the input to AuditLogService.Record.
type AuditLogRecord struct {
	Actor      string
	ActorType  string
	Action     string
	TargetRef  string
	RequestID  string
	OccurredAt time.Time
	Metadata   map[string]any
	Diff       map[string]AuditLogDiff
}

// AuditLogDiff captures before/after values for tracked fields.
type AuditLogDiff struct {
	Before any
	After  any
}

// AuditLogFilter narrows audit listings.
type AuditLogFilter struct {
	TargetRef  string
	Actor      string
	Pagination Pagination
}

// SystemService exposes health information.
type SystemService interface {
	HealthReport(ctx context.Context) (SystemHealthReport, error)
}
