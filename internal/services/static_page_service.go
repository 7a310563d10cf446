package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domain "github.com/quantum-portal/api/internal/domain"
	"github.com/quantum-portal/api/internal/platform/textutil"
	"github.com/quantum-portal/api/internal/repositories"
)

const resourceStaticPage = "static_page"

var (
	staticPageErrors = newResourceErrors(resourceStaticPage)

	// ErrStaticPageInvalidInput indicates the page payload failed validation.
	ErrStaticPageInvalidInput = staticPageErrors.invalid
	// ErrStaticPageNotFound indicates the page does not exist or is not published.
	ErrStaticPageNotFound = staticPageErrors.notFound
	// ErrStaticPageConflict indicates a slug clash with another page.
	ErrStaticPageConflict = staticPageErrors.conflict
)

// StaticPageServiceDeps wires the static page service.
type StaticPageServiceDeps struct {
	StaticPages  repositories.StaticPageRepository
	DynamicPages repositories.DynamicPageRepository
	Renderer     HTMLRenderer
	MutationDeps
}

type staticPageService struct {
	repo     repositories.StaticPageRepository
	slugs    pageSlugs
	renderer HTMLRenderer
	mutations
}

// NewStaticPageService constructs the static page service.
func NewStaticPageService(deps StaticPageServiceDeps) (StaticPageService, error) {
	if deps.StaticPages == nil {
		return nil, errors.New("static page service: static page repository is required")
	}
	return &staticPageService{
		repo:      deps.StaticPages,
		slugs:     pageSlugs{static: deps.StaticPages, dynamic: deps.DynamicPages},
		renderer:  defaultRenderer(deps.Renderer),
		mutations: newMutations(deps.MutationDeps),
	}, nil
}

func (s *staticPageService) CreateStaticPage(ctx context.Context, input StaticPageInput) (StaticPage, error) {
	page, err := s.validate(ctx, "", input)
	if err != nil {
		return StaticPage{}, err
	}
	now := s.now()
	page.ID = s.newID()
	page.CreatedAt = now
	page.UpdatedAt = now
	page.PublishedAt = publishedAtFor(page.Status, nil, now)
	if err := s.repo.Insert(ctx, page); err != nil {
		return StaticPage{}, staticPageErrors.mapRepo(err)
	}
	s.record(ctx, change{resource: resourceStaticPage, resourceID: page.ID, slug: page.Slug, action: domain.ContentActionCreated})
	return page, nil
}

func (s *staticPageService) UpdateStaticPage(ctx context.Context, pageID string, input StaticPageInput) (StaticPage, error) {
	existing, err := s.GetStaticPage(ctx, pageID)
	if err != nil {
		return StaticPage{}, err
	}
	page, err := s.validate(ctx, existing.ID, input)
	if err != nil {
		return StaticPage{}, err
	}
	now := s.now()
	page.ID = existing.ID
	page.CreatedAt = existing.CreatedAt
	page.UpdatedAt = now
	page.PublishedAt = publishedAtFor(page.Status, existing.PublishedAt, now)
	if err := s.repo.Update(ctx, page); err != nil {
		return StaticPage{}, staticPageErrors.mapRepo(err)
	}
	diff := map[string]AuditLogDiff{}
	diffField(diff, "title", existing.Title, page.Title)
	diffField(diff, "slug", existing.Slug, page.Slug)
	diffField(diff, "status", existing.Status, page.Status)
	diffField(diff, "format", existing.Format, page.Format)
	diffField(diff, "contentLength", len(existing.Content), len(page.Content))
	s.record(ctx, change{resource: resourceStaticPage, resourceID: page.ID, slug: page.Slug, action: domain.ContentActionUpdated, diff: diff})
	return page, nil
}

func (s *staticPageService) GetStaticPage(ctx context.Context, pageID string) (StaticPage, error) {
	pageID = strings.TrimSpace(pageID)
	if pageID == "" {
		return StaticPage{}, staticPageErrors.invalidf("page id is required")
	}
	page, err := s.repo.FindByID(ctx, pageID)
	if err != nil {
		return StaticPage{}, staticPageErrors.mapRepo(err)
	}
	return page, nil
}

func (s *staticPageService) ListStaticPages(ctx context.Context, filter PageListFilter) (domain.CursorPage[StaticPage], error) {
	if !validPageStatusFilter(filter.Status) {
		return domain.CursorPage[StaticPage]{}, staticPageErrors.invalidf("unknown status %q", filter.Status)
	}
	page, err := s.repo.List(ctx, repositories.PageListFilter{Status: filter.Status, Pagination: filter.Pagination})
	if err != nil {
		return domain.CursorPage[StaticPage]{}, staticPageErrors.mapRepo(err)
	}
	return page, nil
}

func (s *staticPageService) DeleteStaticPage(ctx context.Context, pageID string) error {
	existing, err := s.GetStaticPage(ctx, pageID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, existing.ID); err != nil {
		return staticPageErrors.mapRepo(err)
	}
	s.record(ctx, change{resource: resourceStaticPage, resourceID: existing.ID, slug: existing.Slug, action: domain.ContentActionDeleted})
	return nil
}

func (s *staticPageService) PublishStaticPage(ctx context.Context, pageID string) (StaticPage, error) {
	page, err := s.GetStaticPage(ctx, pageID)
	if err != nil {
		return StaticPage{}, err
	}
	if page.Status == domain.PageStatusPublished {
		return page, nil
	}
	now := s.now()
	page.Status = domain.PageStatusPublished
	page.PublishedAt = &now
	page.UpdatedAt = now
	if err := s.repo.Update(ctx, page); err != nil {
		return StaticPage{}, staticPageErrors.mapRepo(err)
	}
	s.record(ctx, change{resource: resourceStaticPage, resourceID: page.ID, slug: page.Slug, action: domain.ContentActionPublished})
	return page, nil
}

func (s *staticPageService) UnpublishStaticPage(ctx context.Context, pageID string) (StaticPage, error) {
	page, err := s.GetStaticPage(ctx, pageID)
	if err != nil {
		return StaticPage{}, err
	}
	if page.Status == domain.PageStatusDraft {
		return page, nil
	}
	page.Status = domain.PageStatusDraft
	page.PublishAt = nil
	page.PublishedAt = nil
	page.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, page); err != nil {
		return StaticPage{}, staticPageErrors.mapRepo(err)
	}
	s.record(ctx, change{resource: resourceStaticPage, resourceID: page.ID, slug: page.Slug, action: domain.ContentActionUnpublished})
	return page, nil
}

// GetPublishedStaticPage renders a published page. Markdown is converted first and all HTML is
// sanitised; an empty SEO description falls back to the page text.
func (s *staticPageService) GetPublishedStaticPage(ctx context.Context, slug string) (RenderedStaticPage, error) {
	slug = strings.TrimSpace(slug)
	page, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		return RenderedStaticPage{}, staticPageErrors.mapRepo(err)
	}
	if page.Status != domain.PageStatusPublished {
		return RenderedStaticPage{}, notPublished(staticPageErrors, slug)
	}
	html, err := s.renderer.Render(string(page.Format), page.Content)
	if err != nil {
		return RenderedStaticPage{}, fmt.Errorf("static page %s: %w", page.ID, err)
	}
	seo := page.SEO
	if seo.Title == "" {
		seo.Title = page.Title
	}
	if seo.Description == "" {
		seo.Description = textutil.Excerpt(html, seoDescriptionRunes)
	}
	return RenderedStaticPage{
		ID:          page.ID,
		Title:       page.Title,
		Slug:        page.Slug,
		HTML:        html,
		SEO:         seo,
		PublishedAt: page.PublishedAt,
		UpdatedAt:   page.UpdatedAt,
	}, nil
}

func (s *staticPageService) validate(ctx context.Context, selfID string, input StaticPageInput) (StaticPage, error) {
	title, err := requirePageTitle(staticPageErrors, input.Title)
	if err != nil {
		return StaticPage{}, err
	}
	slug, err := normalizeSlug(input.Slug, title)
	if err != nil {
		return StaticPage{}, fmt.Errorf("%w: %v", ErrStaticPageInvalidInput, err)
	}
	format := domain.ContentFormat(strings.ToLower(strings.TrimSpace(string(input.Format))))
	switch format {
	case "":
		format = domain.ContentFormatHTML
	case domain.ContentFormatHTML, domain.ContentFormatMarkdown:
	default:
		return StaticPage{}, staticPageErrors.invalidf("format must be html or markdown")
	}
	if len(input.Content) > maxPageContentBytes {
		return StaticPage{}, staticPageErrors.invalidf("content exceeds %d bytes", maxPageContentBytes)
	}
	status, publishAt, err := normalizePageStatus(staticPageErrors, input.Status, input.PublishAt, s.now())
	if err != nil {
		return StaticPage{}, err
	}
	if err := s.slugs.ensureFree(ctx, staticPageErrors, slug, selfID); err != nil {
		return StaticPage{}, err
	}
	return StaticPage{
		Title:     title,
		Slug:      slug,
		Format:    format,
		Content:   input.Content,
		Status:    status,
		PublishAt: publishAt,
		SEO:       trimSEO(input.SEO),
	}, nil
}
