package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domain "github.com/quantum-portal/api/internal/domain"
	"github.com/quantum-portal/api/internal/repositories"
)

const resourceDynamicPage = "dynamic_page"

var (
	dynamicPageErrors = newResourceErrors(resourceDynamicPage)

	// ErrDynamicPageInvalidInput indicates the page, a segment or a block failed validation.
	ErrDynamicPageInvalidInput = dynamicPageErrors.invalid
	// ErrDynamicPageNotFound indicates the page or segment does not exist or is not published.
	ErrDynamicPageNotFound = dynamicPageErrors.notFound
	// ErrDynamicPageConflict indicates a slug clash with another page.
	ErrDynamicPageConflict = dynamicPageErrors.conflict
)

// DynamicPageServiceDeps wires the dynamic page service. Renderer is built from the category
// and brand repositories when nil.
type DynamicPageServiceDeps struct {
	DynamicPages repositories.DynamicPageRepository
	StaticPages  repositories.StaticPageRepository
	Categories   repositories.CategoryRepository
	Brands       repositories.BrandRepository
	Renderer     *PageRenderer
	MutationDeps
}

type dynamicPageService struct {
	repo     repositories.DynamicPageRepository
	slugs    pageSlugs
	renderer *PageRenderer
	mutations
}

// NewDynamicPageService constructs the dynamic page service.
func NewDynamicPageService(deps DynamicPageServiceDeps) (DynamicPageService, error) {
	if deps.DynamicPages == nil {
		return nil, errors.New("dynamic page service: dynamic page repository is required")
	}
	renderer := deps.Renderer
	if renderer == nil {
		renderer = NewPageRenderer(PageRendererDeps{Categories: deps.Categories, Brands: deps.Brands})
	}
	return &dynamicPageService{
		repo:      deps.DynamicPages,
		slugs:     pageSlugs{static: deps.StaticPages, dynamic: deps.DynamicPages},
		renderer:  renderer,
		mutations: newMutations(deps.MutationDeps),
	}, nil
}

func (s *dynamicPageService) CreateDynamicPage(ctx context.Context, input DynamicPageInput) (DynamicPage, error) {
	page, err := s.validate(ctx, "", input)
	if err != nil {
		return DynamicPage{}, err
	}
	now := s.now()
	page.ID = s.newID()
	page.CreatedAt = now
	page.UpdatedAt = now
	page.PublishedAt = publishedAtFor(page.Status, nil, now)
	if err := s.repo.Insert(ctx, page); err != nil {
		return DynamicPage{}, dynamicPageErrors.mapRepo(err)
	}
	s.record(ctx, change{
		resource:   resourceDynamicPage,
		resourceID: page.ID,
		slug:       page.Slug,
		action:     domain.ContentActionCreated,
		metadata:   map[string]any{"segments": len(page.Segments)},
	})
	return page, nil
}

func (s *dynamicPageService) UpdateDynamicPage(ctx context.Context, pageID string, input DynamicPageInput) (DynamicPage, error) {
	existing, err := s.GetDynamicPage(ctx, pageID)
	if err != nil {
		return DynamicPage{}, err
	}
	page, err := s.validate(ctx, existing.ID, input)
	if err != nil {
		return DynamicPage{}, err
	}
	now := s.now()
	page.ID = existing.ID
	page.CreatedAt = existing.CreatedAt
	page.UpdatedAt = now
	page.PublishedAt = publishedAtFor(page.Status, existing.PublishedAt, now)
	if err := s.repo.Update(ctx, page); err != nil {
		return DynamicPage{}, dynamicPageErrors.mapRepo(err)
	}
	diff := map[string]AuditLogDiff{}
	diffField(diff, "title", existing.Title, page.Title)
	diffField(diff, "slug", existing.Slug, page.Slug)
	diffField(diff, "status", existing.Status, page.Status)
	diffField(diff, "segments", len(existing.Segments), len(page.Segments))
	s.record(ctx, change{resource: resourceDynamicPage, resourceID: page.ID, slug: page.Slug, action: domain.ContentActionUpdated, diff: diff})
	return page, nil
}

func (s *dynamicPageService) GetDynamicPage(ctx context.Context, pageID string) (DynamicPage, error) {
	pageID = strings.TrimSpace(pageID)
	if pageID == "" {
		return DynamicPage{}, dynamicPageErrors.invalidf("page id is required")
	}
	page, err := s.repo.FindByID(ctx, pageID)
	if err != nil {
		return DynamicPage{}, dynamicPageErrors.mapRepo(err)
	}
	return page, nil
}

func (s *dynamicPageService) ListDynamicPages(ctx context.Context, filter PageListFilter) (domain.CursorPage[DynamicPage], error) {
	if !validPageStatusFilter(filter.Status) {
		return domain.CursorPage[DynamicPage]{}, dynamicPageErrors.invalidf("unknown status %q", filter.Status)
	}
	page, err := s.repo.List(ctx, repositories.PageListFilter{Status: filter.Status, Pagination: filter.Pagination})
	if err != nil {
		return domain.CursorPage[DynamicPage]{}, dynamicPageErrors.mapRepo(err)
	}
	return page, nil
}

func (s *dynamicPageService) DeleteDynamicPage(ctx context.Context, pageID string) error {
	existing, err := s.GetDynamicPage(ctx, pageID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, existing.ID); err != nil {
		return dynamicPageErrors.mapRepo(err)
	}
	s.record(ctx, change{resource: resourceDynamicPage, resourceID: existing.ID, slug: existing.Slug, action: domain.ContentActionDeleted})
	return nil
}

func (s *dynamicPageService) PublishDynamicPage(ctx context.Context, pageID string) (DynamicPage, error) {
	page, err := s.GetDynamicPage(ctx, pageID)
	if err != nil {
		return DynamicPage{}, err
	}
	if page.Status == domain.PageStatusPublished {
		return page, nil
	}
	now := s.now()
	page.Status = domain.PageStatusPublished
	page.PublishedAt = &now
	page.UpdatedAt = now
	if err := s.repo.Update(ctx, page); err != nil {
		return DynamicPage{}, dynamicPageErrors.mapRepo(err)
	}
	s.record(ctx, change{resource: resourceDynamicPage, resourceID: page.ID, slug: page.Slug, action: domain.ContentActionPublished})
	return page, nil
}

func (s *dynamicPageService) UnpublishDynamicPage(ctx context.Context, pageID string) (DynamicPage, error) {
	page, err := s.GetDynamicPage(ctx, pageID)
	if err != nil {
		return DynamicPage{}, err
	}
	if page.Status == domain.PageStatusDraft {
		return page, nil
	}
	page.Status = domain.PageStatusDraft
	page.PublishAt = nil
	page.PublishedAt = nil
	page.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, page); err != nil {
		return DynamicPage{}, dynamicPageErrors.mapRepo(err)
	}
	s.record(ctx, change{resource: resourceDynamicPage, resourceID: page.ID, slug: page.Slug, action: domain.ContentActionUnpublished})
	return page, nil
}

func (s *dynamicPageService) AddSegment(ctx context.Context, pageID string, input SegmentInput) (DynamicPage, error) {
	return s.editSegments(ctx, pageID, "segment.added", func(page *DynamicPage) (string, error) {
		if len(page.Segments) >= maxSegmentsPerPage {
			return "", dynamicPageErrors.invalidf("a page holds at most %d segments", maxSegmentsPerPage)
		}
		segment, err := newSegmentBuilder(s.newID, page.Segments).build(input, nextSegmentOrder(page.Segments))
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrDynamicPageInvalidInput, err)
		}
		page.Segments = append(page.Segments, segment)
		return segment.ID, nil
	})
}

// UpdateSegment replaces one segment. The segment keeps its ID and, when input.Order is nil, its order.
func (s *dynamicPageService) UpdateSegment(ctx context.Context, pageID, segmentID string, input SegmentInput) (DynamicPage, error) {
	return s.editSegments(ctx, pageID, "segment.updated", func(page *DynamicPage) (string, error) {
		i := segmentIndex(page.Segments, segmentID)
		if i < 0 {
			return "", fmt.Errorf("%w: segment %s", ErrDynamicPageNotFound, segmentID)
		}
		current := page.Segments[i]
		others := append(append([]Segment{}, page.Segments[:i]...), page.Segments[i+1:]...)
		input.ID = current.ID
		segment, err := newSegmentBuilder(s.newID, others).build(input, current.Order)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrDynamicPageInvalidInput, err)
		}
		page.Segments[i] = segment
		return segment.ID, nil
	})
}

func (s *dynamicPageService) RemoveSegment(ctx context.Context, pageID, segmentID string) (DynamicPage, error) {
	return s.editSegments(ctx, pageID, "segment.removed", func(page *DynamicPage) (string, error) {
		i := segmentIndex(page.Segments, segmentID)
		if i < 0 {
			return "", fmt.Errorf("%w: segment %s", ErrDynamicPageNotFound, segmentID)
		}
		removed := page.Segments[i].ID
		page.Segments = append(page.Segments[:i:i], page.Segments[i+1:]...)
		return removed, nil
	})
}

func (s *dynamicPageService) ReorderSegments(ctx context.Context, pageID string, segmentIDs []string) (DynamicPage, error) {
	return s.editSegments(ctx, pageID, "segment.reordered", func(page *DynamicPage) (string, error) {
		ordered, err := reorderSegments(page.Segments, segmentIDs)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrDynamicPageInvalidInput, err)
		}
		page.Segments = ordered
		return "", nil
	})
}

// editSegments loads the page, applies edit and stores the result with sorted segments.
func (s *dynamicPageService) editSegments(ctx context.Context, pageID, operation string, edit func(*DynamicPage) (string, error)) (DynamicPage, error) {
	page, err := s.GetDynamicPage(ctx, pageID)
	if err != nil {
		return DynamicPage{}, err
	}
	segmentID, err := edit(&page)
	if err != nil {
		return DynamicPage{}, err
	}
	sortSegments(page.Segments)
	page.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, page); err != nil {
		return DynamicPage{}, dynamicPageErrors.mapRepo(err)
	}
	metadata := map[string]any{"operation": operation, "segments": len(page.Segments)}
	if segmentID != "" {
		metadata["segmentId"] = segmentID
	}
	s.record(ctx, change{
		resource:   resourceDynamicPage,
		resourceID: page.ID,
		slug:       page.Slug,
		action:     domain.ContentActionUpdated,
		metadata:   metadata,
	})
	return page, nil
}

// RenderDynamicPage loads a published page by slug and renders it for device.
func (s *dynamicPageService) RenderDynamicPage(ctx context.Context, slug string, device domain.Device) (RenderedDynamicPage, error) {
	device, err := ParseDevice(string(device))
	if err != nil {
		return RenderedDynamicPage{}, err
	}
	slug = strings.TrimSpace(slug)
	page, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		return RenderedDynamicPage{}, dynamicPageErrors.mapRepo(err)
	}
	if page.Status != domain.PageStatusPublished {
		return RenderedDynamicPage{}, notPublished(dynamicPageErrors, slug)
	}
	rendered, err := s.renderer.Render(ctx, page, device)
	if err != nil {
		return RenderedDynamicPage{}, dynamicPageErrors.mapRepo(fmt.Errorf("render %s: %w", page.ID, err))
	}
	if rendered.SEO.Title == "" {
		rendered.SEO.Title = page.Title
	}
	return rendered, nil
}

func (s *dynamicPageService) validate(ctx context.Context, selfID string, input DynamicPageInput) (DynamicPage, error) {
	title, err := requirePageTitle(dynamicPageErrors, input.Title)
	if err != nil {
		return DynamicPage{}, err
	}
	slug, err := normalizeSlug(input.Slug, title)
	if err != nil {
		return DynamicPage{}, fmt.Errorf("%w: %v", ErrDynamicPageInvalidInput, err)
	}
	status, publishAt, err := normalizePageStatus(dynamicPageErrors, input.Status, input.PublishAt, s.now())
	if err != nil {
		return DynamicPage{}, err
	}
	segments, err := buildSegments(s.newID, input.Segments)
	if err != nil {
		return DynamicPage{}, fmt.Errorf("%w: %v", ErrDynamicPageInvalidInput, err)
	}
	if err := s.slugs.ensureFree(ctx, dynamicPageErrors, slug, selfID); err != nil {
		return DynamicPage{}, err
	}
	return DynamicPage{
		Title:     title,
		Slug:      slug,
		Status:    status,
		PublishAt: publishAt,
		SEO:       trimSEO(input.SEO),
		Segments:  segments,
	}, nil
}

func segmentIndex(segments []Segment, id string) int {
	id = strings.TrimSpace(id)
	for i, s := range segments {
		if s.ID == id {
			return i
		}
	}
	return -1
}
