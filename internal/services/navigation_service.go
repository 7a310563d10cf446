package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	domain "github.com/quantum-portal/api/internal/domain"
	"github.com/quantum-portal/api/internal/repositories"
)

const resourceNavigationMenu = "navigation_menu"

var (
	navigationErrors = newResourceErrors(resourceNavigationMenu)

	// ErrNavigationInvalidInput indicates the menu payload failed validation.
	ErrNavigationInvalidInput = navigationErrors.invalid
	// ErrNavigationNotFound indicates the menu does not exist or is inactive.
	ErrNavigationNotFound = navigationErrors.notFound
	// ErrNavigationConflict indicates another menu already uses the location.
	ErrNavigationConflict = navigationErrors.conflict

	menuLocationPattern = regexp.MustCompile(`^[a-z0-9_-]{1,64}$`)
)

// NavigationServiceDeps wires the navigation service. The target repositories are only needed
// by ResolveMenu.
type NavigationServiceDeps struct {
	Menus        repositories.NavigationMenuRepository
	Categories   repositories.CategoryRepository
	Brands       repositories.BrandRepository
	StaticPages  repositories.StaticPageRepository
	DynamicPages repositories.DynamicPageRepository
	MutationDeps
}

type navigationService struct {
	repo         repositories.NavigationMenuRepository
	categories   repositories.CategoryRepository
	brands       repositories.BrandRepository
	staticPages  repositories.StaticPageRepository
	dynamicPages repositories.DynamicPageRepository
	mutations
}

// NewNavigationService constructs the navigation service.
func NewNavigationService(deps NavigationServiceDeps) (NavigationService, error) {
	if deps.Menus == nil {
		return nil, errors.New("navigation service: menu repository is required")
	}
	return &navigationService{
		repo:         deps.Menus,
		categories:   deps.Categories,
		brands:       deps.Brands,
		staticPages:  deps.StaticPages,
		dynamicPages: deps.DynamicPages,
		mutations:    newMutations(deps.MutationDeps),
	}, nil
}

func (s *navigationService) CreateMenu(ctx context.Context, input NavigationMenuInput) (NavigationMenu, error) {
	menu, err := s.validate(ctx, "", input)
	if err != nil {
		return NavigationMenu{}, err
	}
	now := s.now()
	menu.ID = s.newID()
	menu.IsActive = boolOr(input.IsActive, true)
	menu.CreatedAt = now
	menu.UpdatedAt = now
	if err := s.repo.Insert(ctx, menu); err != nil {
		return NavigationMenu{}, navigationErrors.mapRepo(err)
	}
	s.record(ctx, change{resource: resourceNavigationMenu, resourceID: menu.ID, slug: menu.Location, action: domain.ContentActionCreated})
	return menu, nil
}

func (s *navigationService) UpdateMenu(ctx context.Context, menuID string, input NavigationMenuInput) (NavigationMenu, error) {
	existing, err := s.GetMenu(ctx, menuID)
	if err != nil {
		return NavigationMenu{}, err
	}
	menu, err := s.validate(ctx, existing.ID, input)
	if err != nil {
		return NavigationMenu{}, err
	}
	menu.ID = existing.ID
	menu.IsActive = boolOr(input.IsActive, existing.IsActive)
	menu.CreatedAt = existing.CreatedAt
	menu.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, menu); err != nil {
		return NavigationMenu{}, navigationErrors.mapRepo(err)
	}
	diff := map[string]AuditLogDiff{}
	diffField(diff, "name", existing.Name, menu.Name)
	diffField(diff, "location", existing.Location, menu.Location)
	diffField(diff, "isActive", existing.IsActive, menu.IsActive)
	diffField(diff, "items", countNavigationItems(existing.Items), countNavigationItems(menu.Items))
	s.record(ctx, change{resource: resourceNavigationMenu, resourceID: menu.ID, slug: menu.Location, action: domain.ContentActionUpdated, diff: diff})
	return menu, nil
}

func (s *navigationService) GetMenu(ctx context.Context, menuID string) (NavigationMenu, error) {
	menuID = strings.TrimSpace(menuID)
	if menuID == "" {
		return NavigationMenu{}, navigationErrors.invalidf("menu id is required")
	}
	menu, err := s.repo.FindByID(ctx, menuID)
	if err != nil {
		return NavigationMenu{}, navigationErrors.mapRepo(err)
	}
	return menu, nil
}

func (s *navigationService) GetMenuByLocation(ctx context.Context, location string) (NavigationMenu, error) {
	location = strings.ToLower(strings.TrimSpace(location))
	if !menuLocationPattern.MatchString(location) {
		return NavigationMenu{}, navigationErrors.invalidf("invalid location %q", location)
	}
	menu, err := s.repo.FindByLocation(ctx, location)
	if err != nil {
		return NavigationMenu{}, navigationErrors.mapRepo(err)
	}
	return menu, nil
}

func (s *navigationService) ListMenus(ctx context.Context, pager Pagination) (domain.CursorPage[NavigationMenu], error) {
	page, err := s.repo.List(ctx, pager)
	if err != nil {
		return domain.CursorPage[NavigationMenu]{}, navigationErrors.mapRepo(err)
	}
	return page, nil
}

func (s *navigationService) DeleteMenu(ctx context.Context, menuID string) error {
	existing, err := s.GetMenu(ctx, menuID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, existing.ID); err != nil {
		return navigationErrors.mapRepo(err)
	}
	s.record(ctx, change{resource: resourceNavigationMenu, resourceID: existing.ID, slug: existing.Location, action: domain.ContentActionDeleted})
	return nil
}

// ResolveMenu returns the active menu at location with every item turned into a storefront href.
func (s *navigationService) ResolveMenu(ctx context.Context, location string) (ResolvedMenu, error) {
	menu, err := s.GetMenuByLocation(ctx, location)
	if err != nil {
		return ResolvedMenu{}, err
	}
	if !menu.IsActive {
		return ResolvedMenu{}, fmt.Errorf("%w: menu %s is inactive", ErrNavigationNotFound, menu.Location)
	}
	resolver := &hrefResolver{service: s, cache: make(map[string]string)}
	items, err := resolver.resolve(ctx, menu.Items)
	if err != nil {
		return ResolvedMenu{}, navigationErrors.mapRepo(err)
	}
	return ResolvedMenu{ID: menu.ID, Name: menu.Name, Location: menu.Location, Items: items}, nil
}

func (s *navigationService) validate(ctx context.Context, selfID string, input NavigationMenuInput) (NavigationMenu, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return NavigationMenu{}, navigationErrors.invalidf("name is required")
	}
	location := strings.ToLower(strings.TrimSpace(input.Location))
	if !menuLocationPattern.MatchString(location) {
		return NavigationMenu{}, navigationErrors.invalidf("location must match [a-z0-9_-]+")
	}
	existing, err := s.repo.FindByLocation(ctx, location)
	switch {
	case err == nil && existing.ID != selfID:
		return NavigationMenu{}, navigationErrors.conflictf("location %q is used by menu %s", location, existing.ID)
	case err != nil && !repositories.IsNotFound(err):
		return NavigationMenu{}, navigationErrors.mapRepo(err)
	}
	return NavigationMenu{
		Name:     name,
		Location: location,
		Items:    SanitizeNavigationItems(input.Items, s.newID),
	}, nil
}

// hrefResolver turns item targets into hrefs, remembering each lookup for the duration of one menu.
type hrefResolver struct {
	service *navigationService
	cache   map[string]string
}

func (r *hrefResolver) resolve(ctx context.Context, items []NavigationItem) ([]domain.ResolvedNavigationItem, error) {
	out := make([]domain.ResolvedNavigationItem, 0, len(items))
	for _, item := range items {
		href, err := r.href(ctx, item)
		if err != nil {
			return nil, err
		}
		if href == "" {
			continue
		}
		children, err := r.resolve(ctx, item.Items)
		if err != nil {
			return nil, err
		}
		resolved := domain.ResolvedNavigationItem{
			ID:           item.ID,
			Label:        item.Label,
			Href:         href,
			Type:         item.Type,
			OpenInNewTab: item.OpenInNewTab,
		}
		if len(children) > 0 {
			resolved.Items = children
		}
		out = append(out, resolved)
	}
	return out, nil
}

// href returns "" when the target is missing or not visible on the storefront.
func (r *hrefResolver) href(ctx context.Context, item NavigationItem) (string, error) {
	if item.Type == domain.NavigationItemLink {
		return item.URL, nil
	}
	key := string(item.Type) + "/" + item.TargetID
	if href, ok := r.cache[key]; ok {
		return href, nil
	}
	href, err := r.lookup(ctx, item.Type, item.TargetID)
	if err != nil && !repositories.IsNotFound(err) {
		return "", err
	}
	r.cache[key] = href
	return href, nil
}

func (r *hrefResolver) lookup(ctx context.Context, itemType domain.NavigationItemType, targetID string) (string, error) {
	s := r.service
	switch itemType {
	case domain.NavigationItemCategory:
		if s.categories == nil {
			return "", nil
		}
		category, err := s.categories.FindByID(ctx, targetID)
		if err != nil || !category.IsActive {
			return "", err
		}
		return "/categories/" + category.Slug, nil
	case domain.NavigationItemBrand:
		if s.brands == nil {
			return "", nil
		}
		brand, err := s.brands.FindByID(ctx, targetID)
		if err != nil || !brand.IsActive {
			return "", err
		}
		return "/brands/" + brand.Slug, nil
	case domain.NavigationItemPage:
		if s.staticPages != nil {
			page, err := s.staticPages.FindByID(ctx, targetID)
			if err == nil {
				if page.Status != domain.PageStatusPublished {
					return "", nil
				}
				return "/pages/" + page.Slug, nil
			}
			if !repositories.IsNotFound(err) {
				return "", err
			}
		}
		if s.dynamicPages != nil {
			page, err := s.dynamicPages.FindByID(ctx, targetID)
			if err != nil || page.Status != domain.PageStatusPublished {
				return "", err
			}
			return "/pages/" + page.Slug, nil
		}
	}
	return "", nil
}

func countNavigationItems(items []NavigationItem) int {
	n := len(items)
	for _, item := range items {
		n += countNavigationItems(item.Items)
	}
	return n
}
