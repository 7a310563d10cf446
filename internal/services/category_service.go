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

const resourceCategory = "category"

var (
	categoryErrors = newResourceErrors(resourceCategory)

	// ErrCategoryInvalidInput indicates the category payload failed validation.
	ErrCategoryInvalidInput = categoryErrors.invalid
	// ErrCategoryNotFound indicates the category does not exist.
	ErrCategoryNotFound = categoryErrors.notFound
	// ErrCategoryConflict indicates a slug clash.
	ErrCategoryConflict = categoryErrors.conflict
	// ErrCategoryHasChildren rejects deleting a category that still has children.
	ErrCategoryHasChildren = fmt.Errorf("%w: category has children", ErrCategoryConflict)
)

// CategoryServiceDeps wires the category service.
type CategoryServiceDeps struct {
	Categories repositories.CategoryRepository
	MutationDeps
}

type categoryService struct {
	repo repositories.CategoryRepository
	mutations
}

// NewCategoryService constructs the category service.
func NewCategoryService(deps CategoryServiceDeps) (CategoryService, error) {
	if deps.Categories == nil {
		return nil, errors.New("category service: category repository is required")
	}
	return &categoryService{repo: deps.Categories, mutations: newMutations(deps.MutationDeps)}, nil
}

func (s *categoryService) CreateCategory(ctx context.Context, input CategoryInput) (Category, error) {
	category, err := s.validate(ctx, "", input)
	if err != nil {
		return Category{}, err
	}
	now := s.now()
	category.ID = s.newID()
	category.IsActive = boolOr(input.IsActive, true)
	category.CreatedAt = now
	category.UpdatedAt = now
	if err := s.repo.Insert(ctx, category); err != nil {
		return Category{}, categoryErrors.mapRepo(err)
	}
	s.record(ctx, change{resource: resourceCategory, resourceID: category.ID, slug: category.Slug, action: domain.ContentActionCreated})
	return category, nil
}

func (s *categoryService) UpdateCategory(ctx context.Context, categoryID string, input CategoryInput) (Category, error) {
	existing, err := s.GetCategory(ctx, categoryID)
	if err != nil {
		return Category{}, err
	}
	category, err := s.validate(ctx, existing.ID, input)
	if err != nil {
		return Category{}, err
	}
	category.ID = existing.ID
	category.IsActive = boolOr(input.IsActive, existing.IsActive)
	category.CreatedAt = existing.CreatedAt
	category.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, category); err != nil {
		return Category{}, categoryErrors.mapRepo(err)
	}

	diff := map[string]AuditLogDiff{}
	diffField(diff, "name", existing.Name, category.Name)
	diffField(diff, "slug", existing.Slug, category.Slug)
	diffField(diff, "parentId", existing.ParentID, category.ParentID)
	diffField(diff, "isActive", existing.IsActive, category.IsActive)
	diffField(diff, "sortOrder", existing.SortOrder, category.SortOrder)
	s.record(ctx, change{resource: resourceCategory, resourceID: category.ID, slug: category.Slug, action: domain.ContentActionUpdated, diff: diff})
	return category, nil
}

func (s *categoryService) GetCategory(ctx context.Context, categoryID string) (Category, error) {
	categoryID = strings.TrimSpace(categoryID)
	if categoryID == "" {
		return Category{}, categoryErrors.invalidf("category id is required")
	}
	category, err := s.repo.FindByID(ctx, categoryID)
	if err != nil {
		return Category{}, categoryErrors.mapRepo(err)
	}
	return category, nil
}

// GetPublicCategory returns an active category with its breadcrumbs and active children.
func (s *categoryService) GetPublicCategory(ctx context.Context, slug string) (CategoryDetail, error) {
	slug = strings.TrimSpace(slug)
	all, err := s.repo.ListAll(ctx)
	if err != nil {
		return CategoryDetail{}, categoryErrors.mapRepo(err)
	}
	var found *Category
	for i := range all {
		if all[i].Slug == slug && all[i].IsActive {
			found = &all[i]
			break
		}
	}
	if found == nil {
		return CategoryDetail{}, fmt.Errorf("%w: %s", ErrCategoryNotFound, slug)
	}

	byID := indexCategories(all)
	crumbs, err := BuildBreadcrumbs(byID, found.ID)
	if err != nil {
		return CategoryDetail{}, err
	}
	for _, crumb := range crumbs {
		if !crumb.IsActive {
			return CategoryDetail{}, fmt.Errorf("%w: %s is under an inactive category", ErrCategoryNotFound, slug)
		}
	}

	children := make([]Category, 0)
	for _, c := range all {
		if c.ParentID == found.ID && c.ID != found.ID && c.IsActive {
			children = append(children, c)
		}
	}
	sortCategories(children)
	return CategoryDetail{Category: *found, Breadcrumbs: crumbs, Children: children}, nil
}

func (s *categoryService) ListCategories(ctx context.Context, filter CategoryListFilter) (domain.CursorPage[Category], error) {
	var parent *string
	if filter.ParentID != nil {
		trimmed := strings.TrimSpace(*filter.ParentID)
		parent = &trimmed
	}
	page, err := s.repo.List(ctx, repositories.CategoryListFilter{
		ParentID:   parent,
		ActiveOnly: filter.ActiveOnly,
		Pagination: filter.Pagination,
	})
	if err != nil {
		return domain.CursorPage[Category]{}, categoryErrors.mapRepo(err)
	}
	return page, nil
}

func (s *categoryService) DeleteCategory(ctx context.Context, categoryID string) error {
	existing, err := s.GetCategory(ctx, categoryID)
	if err != nil {
		return err
	}
	children, err := s.repo.List(ctx, repositories.CategoryListFilter{
		ParentID:   &existing.ID,
		Pagination: domain.Pagination{PageSize: 1},
	})
	if err != nil {
		return categoryErrors.mapRepo(err)
	}
	if len(children.Items) > 0 {
		return fmt.Errorf("%w: %s", ErrCategoryHasChildren, existing.ID)
	}
	if err := s.repo.Delete(ctx, existing.ID); err != nil {
		return categoryErrors.mapRepo(err)
	}
	s.record(ctx, change{resource: resourceCategory, resourceID: existing.ID, slug: existing.Slug, action: domain.ContentActionDeleted})
	return nil
}

func (s *categoryService) CategoryTree(ctx context.Context, activeOnly bool) ([]CategoryNode, error) {
	all, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, categoryErrors.mapRepo(err)
	}
	return BuildCategoryTree(all, activeOnly), nil
}

func (s *categoryService) Breadcrumbs(ctx context.Context, categoryID string) ([]Category, error) {
	categoryID = strings.TrimSpace(categoryID)
	if categoryID == "" {
		return nil, categoryErrors.invalidf("category id is required")
	}
	all, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, categoryErrors.mapRepo(err)
	}
	return BuildBreadcrumbs(indexCategories(all), categoryID)
}

// validate normalises input for the category selfID (empty on create).
func (s *categoryService) validate(ctx context.Context, selfID string, input CategoryInput) (Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return Category{}, categoryErrors.invalidf("name is required")
	}
	slug, err := normalizeSlug(input.Slug, name)
	if err != nil {
		return Category{}, fmt.Errorf("%w: %v", ErrCategoryInvalidInput, err)
	}
	if existing, err := s.repo.FindBySlug(ctx, slug); err == nil && existing.ID != selfID {
		return Category{}, categoryErrors.conflictf("slug %q is already used by category %s", slug, existing.ID)
	} else if err != nil && !repositories.IsNotFound(err) {
		return Category{}, categoryErrors.mapRepo(err)
	}

	parentID := strings.TrimSpace(input.ParentID)
	if parentID != "" {
		if parentID == selfID {
			return Category{}, categoryErrors.invalidf("a category cannot be its own parent")
		}
		if _, err := s.repo.FindByID(ctx, parentID); err != nil {
			if repositories.IsNotFound(err) {
				return Category{}, categoryErrors.invalidf("parent %s does not exist", parentID)
			}
			return Category{}, categoryErrors.mapRepo(err)
		}
		if selfID != "" {
			if err := s.ensureNotAncestor(ctx, selfID, parentID); err != nil {
				return Category{}, err
			}
		}
	}

	return Category{
		Name:        name,
		Slug:        slug,
		Description: strings.TrimSpace(input.Description),
		ParentID:    parentID,
		ImageURL:    strings.TrimSpace(input.ImageURL),
		SortOrder:   input.SortOrder,
		SEO:         trimSEO(input.SEO),
	}, nil
}

// ensureNotAncestor rejects moving selfID beneath one of its own descendants.
func (s *categoryService) ensureNotAncestor(ctx context.Context, selfID, parentID string) error {
	all, err := s.repo.ListAll(ctx)
	if err != nil {
		return categoryErrors.mapRepo(err)
	}
	chain, err := BuildBreadcrumbs(indexCategories(all), parentID)
	if err != nil {
		return err
	}
	for _, ancestor := range chain {
		if ancestor.ID == selfID {
			return categoryErrors.invalidf("category %s cannot become its own ancestor", selfID)
		}
	}
	return nil
}

// normalizeSlug canonicalises an explicit slug or derives one from fallback.
func normalizeSlug(explicit, fallback string) (string, error) {
	slug := strings.ToLower(strings.TrimSpace(explicit))
	if slug == "" {
		slug = textutil.Slugify(fallback)
		if slug == "" {
			return "", errors.New("slug cannot be derived, provide one")
		}
	}
	if !textutil.IsSlug(slug) {
		return "", fmt.Errorf("slug %q must be lowercase letters, digits and single hyphens", slug)
	}
	return slug, nil
}
