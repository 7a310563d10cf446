package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	domain "github.com/quantum-portal/api/internal/domain"
	"github.com/quantum-portal/api/internal/repositories"
)

const (
	resourceHomepageSection = "homepage_section"

	maxHomepageSections = 50
	headerMenuLocation  = "header"
	footerMenuLocation  = "footer"
)

var (
	homepageErrors = newResourceErrors(resourceHomepageSection)

	// ErrHomepageInvalidInput indicates the section payload failed validation.
	ErrHomepageInvalidInput = homepageErrors.invalid
	// ErrHomepageNotFound indicates the section does not exist.
	ErrHomepageNotFound = homepageErrors.notFound

	sectionRequirements = map[domain.HomepageSectionType][]string{
		domain.HomepageSectionHero:               {"imageUrl"},
		domain.HomepageSectionBanner:             {"imageUrl"},
		domain.HomepageSectionProductGrid:        {"productIds", "collection"},
		domain.HomepageSectionCustomHTML:         {"html"},
		domain.HomepageSectionFeaturedCategories: nil,
		domain.HomepageSectionFeaturedBrands:     nil,
	}
)

// HomepageServiceDeps wires the homepage service. Navigation resolves the header and footer menus.
type HomepageServiceDeps struct {
	Sections   repositories.HomepageSectionRepository
	Categories repositories.CategoryRepository
	Brands     repositories.BrandRepository
	Navigation NavigationService
	Renderer   HTMLRenderer
	MutationDeps
}

type homepageService struct {
	repo       repositories.HomepageSectionRepository
	navigation NavigationService
	resolver   contentResolver
	mutations
}

// NewHomepageService constructs the homepage service.
func NewHomepageService(deps HomepageServiceDeps) (HomepageService, error) {
	if deps.Sections == nil {
		return nil, errors.New("homepage service: section repository is required")
	}
	return &homepageService{
		repo:       deps.Sections,
		navigation: deps.Navigation,
		resolver: contentResolver{
			categories: deps.Categories,
			brands:     deps.Brands,
			html:       defaultRenderer(deps.Renderer),
		},
		mutations: newMutations(deps.MutationDeps),
	}, nil
}

func (s *homepageService) CreateSection(ctx context.Context, input HomepageSectionInput) (HomepageSection, error) {
	section, err := validateSection(input)
	if err != nil {
		return HomepageSection{}, err
	}
	existing, err := s.ListSections(ctx)
	if err != nil {
		return HomepageSection{}, err
	}
	if len(existing) >= maxHomepageSections {
		return HomepageSection{}, homepageErrors.invalidf("the homepage holds at most %d sections", maxHomepageSections)
	}
	section.Order = nextSectionOrder(existing)
	if input.Order != nil {
		section.Order = *input.Order
	}
	now := s.now()
	section.ID = s.newID()
	section.IsVisible = boolOr(input.IsVisible, true)
	section.CreatedAt = now
	section.UpdatedAt = now
	if err := s.repo.Insert(ctx, section); err != nil {
		return HomepageSection{}, homepageErrors.mapRepo(err)
	}
	s.record(ctx, change{resource: resourceHomepageSection, resourceID: section.ID, action: domain.ContentActionCreated})
	return section, nil
}

func (s *homepageService) UpdateSection(ctx context.Context, sectionID string, input HomepageSectionInput) (HomepageSection, error) {
	existing, err := s.getSection(ctx, sectionID)
	if err != nil {
		return HomepageSection{}, err
	}
	section, err := validateSection(input)
	if err != nil {
		return HomepageSection{}, err
	}
	section.ID = existing.ID
	section.Order = existing.Order
	if input.Order != nil {
		section.Order = *input.Order
	}
	section.IsVisible = boolOr(input.IsVisible, existing.IsVisible)
	section.CreatedAt = existing.CreatedAt
	section.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, section); err != nil {
		return HomepageSection{}, homepageErrors.mapRepo(err)
	}
	diff := map[string]AuditLogDiff{}
	diffField(diff, "title", existing.Title, section.Title)
	diffField(diff, "type", existing.Type, section.Type)
	diffField(diff, "order", existing.Order, section.Order)
	diffField(diff, "isVisible", existing.IsVisible, section.IsVisible)
	s.record(ctx, change{resource: resourceHomepageSection, resourceID: section.ID, action: domain.ContentActionUpdated, diff: diff})
	return section, nil
}

func (s *homepageService) DeleteSection(ctx context.Context, sectionID string) error {
	existing, err := s.getSection(ctx, sectionID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, existing.ID); err != nil {
		return homepageErrors.mapRepo(err)
	}
	s.record(ctx, change{resource: resourceHomepageSection, resourceID: existing.ID, action: domain.ContentActionDeleted})
	return nil
}

func (s *homepageService) ListSections(ctx context.Context) ([]HomepageSection, error) {
	sections, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, homepageErrors.mapRepo(err)
	}
	return sections, nil
}

// ReorderSections assigns orders 0..n-1 following sectionIDs, which must name every section once.
func (s *homepageService) ReorderSections(ctx context.Context, sectionIDs []string) ([]HomepageSection, error) {
	sections, err := s.ListSections(ctx)
	if err != nil {
		return nil, err
	}
	if len(sectionIDs) != len(sections) {
		return nil, homepageErrors.invalidf("expected %d section ids, got %d", len(sections), len(sectionIDs))
	}
	known := make(map[string]struct{}, len(sections))
	for _, section := range sections {
		known[section.ID] = struct{}{}
	}
	orders := make(map[string]int, len(sectionIDs))
	for i, id := range sectionIDs {
		id = strings.TrimSpace(id)
		if _, ok := known[id]; !ok {
			return nil, homepageErrors.invalidf("unknown section %q", id)
		}
		if _, dup := orders[id]; dup {
			return nil, homepageErrors.invalidf("section %q listed twice", id)
		}
		orders[id] = i
	}
	if err := s.repo.UpdateOrders(ctx, orders, s.now()); err != nil {
		return nil, homepageErrors.mapRepo(err)
	}
	s.record(ctx, change{
		resource:   resourceHomepageSection,
		resourceID: "order",
		action:     domain.ContentActionUpdated,
		metadata:   map[string]any{"operation": "sections.reordered", "sections": len(orders)},
	})
	return s.ListSections(ctx)
}

func (s *homepageService) SetVisibility(ctx context.Context, sectionID string, visible bool) (HomepageSection, error) {
	section, err := s.getSection(ctx, sectionID)
	if err != nil {
		return HomepageSection{}, err
	}
	if section.IsVisible == visible {
		return section, nil
	}
	before := section.IsVisible
	section.IsVisible = visible
	section.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, section); err != nil {
		return HomepageSection{}, homepageErrors.mapRepo(err)
	}
	diff := map[string]AuditLogDiff{}
	diffField(diff, "isVisible", before, visible)
	s.record(ctx, change{resource: resourceHomepageSection, resourceID: section.ID, action: domain.ContentActionUpdated, diff: diff})
	return section, nil
}

// Homepage assembles visible sections and the header and footer menus concurrently. A missing
// or inactive menu is left nil.
func (s *homepageService) Homepage(ctx context.Context) (Homepage, error) {
	var page Homepage
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sections, err := s.renderSections(gctx)
		page.Sections = sections
		return err
	})
	g.Go(func() error {
		menu, err := s.menu(gctx, headerMenuLocation)
		page.Header = menu
		return err
	})
	g.Go(func() error {
		menu, err := s.menu(gctx, footerMenuLocation)
		page.Footer = menu
		return err
	})
	if err := g.Wait(); err != nil {
		return Homepage{}, err
	}
	return page, nil
}

func (s *homepageService) renderSections(ctx context.Context) ([]domain.RenderedHomepageSection, error) {
	sections, err := s.ListSections(ctx)
	if err != nil {
		return nil, err
	}
	visible := sections[:0:0]
	for _, section := range sections {
		if section.IsVisible {
			visible = append(visible, section)
		}
	}
	out := make([]domain.RenderedHomepageSection, len(visible))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(defaultRenderConcurrency)
	for i, section := range visible {
		g.Go(func() error {
			content, err := s.resolveSection(gctx, section)
			if err != nil {
				return homepageErrors.mapRepo(fmt.Errorf("section %s: %w", section.ID, err))
			}
			out[i] = domain.RenderedHomepageSection{ID: section.ID, Title: section.Title, Type: section.Type, Content: content}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *homepageService) resolveSection(ctx context.Context, section HomepageSection) (map[string]any, error) {
	content := copyContent(section.Content)
	limit := contentInt(content, "limit", defaultFeaturedLimit, maxResolvedReferences)
	switch section.Type {
	case domain.HomepageSectionCustomHTML:
		content["html"] = s.resolver.html.Sanitize(contentString(content, "html"))
	case domain.HomepageSectionFeaturedCategories:
		var (
			categories []map[string]any
			err        error
		)
		if ids := stringList(content["categoryIds"]); len(ids) > 0 {
			categories, err = s.resolver.categorySummaries(ctx, ids)
		} else {
			categories, err = s.resolver.rootCategories(ctx, limit)
		}
		if err != nil {
			return nil, err
		}
		content["categories"] = categories
	case domain.HomepageSectionFeaturedBrands:
		var (
			brands []map[string]any
			err    error
		)
		if ids := stringList(content["brandIds"]); len(ids) > 0 {
			brands, err = s.resolver.brandSummaries(ctx, ids)
		} else {
			brands, err = s.resolver.featuredBrands(ctx, limit)
		}
		if err != nil {
			return nil, err
		}
		content["brands"] = brands
	}
	return content, nil
}

func (s *homepageService) menu(ctx context.Context, location string) (*ResolvedMenu, error) {
	if s.navigation == nil {
		return nil, nil
	}
	menu, err := s.navigation.ResolveMenu(ctx, location)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &menu, nil
}

func (s *homepageService) getSection(ctx context.Context, sectionID string) (HomepageSection, error) {
	sectionID = strings.TrimSpace(sectionID)
	if sectionID == "" {
		return HomepageSection{}, homepageErrors.invalidf("section id is required")
	}
	section, err := s.repo.FindByID(ctx, sectionID)
	if err != nil {
		return HomepageSection{}, homepageErrors.mapRepo(err)
	}
	return section, nil
}

func validateSection(input HomepageSectionInput) (HomepageSection, error) {
	sectionType := domain.HomepageSectionType(strings.ToLower(strings.TrimSpace(string(input.Type))))
	keys, known := sectionRequirements[sectionType]
	if !known {
		return HomepageSection{}, homepageErrors.invalidf("unknown section type %q", input.Type)
	}
	if len(keys) > 0 {
		satisfied := false
		for _, key := range keys {
			if hasContent(input.Content, key) {
				satisfied = true
				break
			}
		}
		if !satisfied {
			return HomepageSection{}, homepageErrors.invalidf("%s section requires %s", sectionType, strings.Join(keys, " or "))
		}
	}
	content := input.Content
	if content == nil {
		content = map[string]any{}
	}
	return HomepageSection{
		Title:   strings.TrimSpace(input.Title),
		Type:    sectionType,
		Content: content,
	}, nil
}

func nextSectionOrder(sections []HomepageSection) int {
	next := 0
	for _, section := range sections {
		if section.Order >= next {
			next = section.Order + 1
		}
	}
	return next
}
