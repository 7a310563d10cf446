package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	domain "github.com/quantum-portal/api/internal/domain"
	"github.com/quantum-portal/api/internal/repositories"
)

const resourceBrand = "brand"

var (
	brandErrors = newResourceErrors(resourceBrand)

	// ErrBrandInvalidInput indicates the brand payload failed validation.
	ErrBrandInvalidInput = brandErrors.invalid
	// ErrBrandNotFound indicates the brand does not exist.
	ErrBrandNotFound = brandErrors.notFound
	// ErrBrandConflict indicates a slug clash.
	ErrBrandConflict = brandErrors.conflict
)

// BrandServiceDeps wires the brand service.
type BrandServiceDeps struct {
	Brands repositories.BrandRepository
	MutationDeps
}

type brandService struct {
	repo repositories.BrandRepository
	mutations
}

// NewBrandService constructs the brand service.
func NewBrandService(deps BrandServiceDeps) (BrandService, error) {
	if deps.Brands == nil {
		return nil, errors.New("brand service: brand repository is required")
	}
	return &brandService{repo: deps.Brands, mutations: newMutations(deps.MutationDeps)}, nil
}

func (s *brandService) CreateBrand(ctx context.Context, input BrandInput) (Brand, error) {
	brand, err := s.validate(ctx, "", input)
	if err != nil {
		return Brand{}, err
	}
	now := s.now()
	brand.ID = s.newID()
	brand.IsActive = boolOr(input.IsActive, true)
	brand.CreatedAt = now
	brand.UpdatedAt = now
	if err := s.repo.Insert(ctx, brand); err != nil {
		return Brand{}, brandErrors.mapRepo(err)
	}
	s.record(ctx, change{resource: resourceBrand, resourceID: brand.ID, slug: brand.Slug, action: domain.ContentActionCreated})
	return brand, nil
}

func (s *brandService) UpdateBrand(ctx context.Context, brandID string, input BrandInput) (Brand, error) {
	existing, err := s.GetBrand(ctx, brandID)
	if err != nil {
		return Brand{}, err
	}
	brand, err := s.validate(ctx, existing.ID, input)
	if err != nil {
		return Brand{}, err
	}
	brand.ID = existing.ID
	brand.IsActive = boolOr(input.IsActive, existing.IsActive)
	brand.CreatedAt = existing.CreatedAt
	brand.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, brand); err != nil {
		return Brand{}, brandErrors.mapRepo(err)
	}
	diff := map[string]AuditLogDiff{}
	diffField(diff, "name", existing.Name, brand.Name)
	diffField(diff, "slug", existing.Slug, brand.Slug)
	diffField(diff, "isFeatured", existing.IsFeatured, brand.IsFeatured)
	diffField(diff, "isActive", existing.IsActive, brand.IsActive)
	s.record(ctx, change{resource: resourceBrand, resourceID: brand.ID, slug: brand.Slug, action: domain.ContentActionUpdated, diff: diff})
	return brand, nil
}

func (s *brandService) GetBrand(ctx context.Context, brandID string) (Brand, error) {
	brandID = strings.TrimSpace(brandID)
	if brandID == "" {
		return Brand{}, brandErrors.invalidf("brand id is required")
	}
	brand, err := s.repo.FindByID(ctx, brandID)
	if err != nil {
		return Brand{}, brandErrors.mapRepo(err)
	}
	return brand, nil
}

func (s *brandService) GetPublicBrand(ctx context.Context, slug string) (Brand, error) {
	brand, err := s.repo.FindBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		return Brand{}, brandErrors.mapRepo(err)
	}
	if !brand.IsActive {
		return Brand{}, fmt.Errorf("%w: %s", ErrBrandNotFound, slug)
	}
	return brand, nil
}

func (s *brandService) ListBrands(ctx context.Context, filter BrandListFilter) (domain.CursorPage[Brand], error) {
	page, err := s.repo.List(ctx, repositories.BrandListFilter{
		FeaturedOnly: filter.FeaturedOnly,
		ActiveOnly:   filter.ActiveOnly,
		Pagination:   filter.Pagination,
	})
	if err != nil {
		return domain.CursorPage[Brand]{}, brandErrors.mapRepo(err)
	}
	return page, nil
}

func (s *brandService) DeleteBrand(ctx context.Context, brandID string) error {
	existing, err := s.GetBrand(ctx, brandID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, existing.ID); err != nil {
		return brandErrors.mapRepo(err)
	}
	s.record(ctx, change{resource: resourceBrand, resourceID: existing.ID, slug: existing.Slug, action: domain.ContentActionDeleted})
	return nil
}

func (s *brandService) validate(ctx context.Context, selfID string, input BrandInput) (Brand, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return Brand{}, brandErrors.invalidf("name is required")
	}
	slug, err := normalizeSlug(input.Slug, name)
	if err != nil {
		return Brand{}, fmt.Errorf("%w: %v", ErrBrandInvalidInput, err)
	}
	website := strings.TrimSpace(input.WebsiteURL)
	if website != "" && !isAbsoluteHTTPURL(website) {
		return Brand{}, brandErrors.invalidf("websiteUrl must be an absolute http(s) URL")
	}
	if existing, err := s.repo.FindBySlug(ctx, slug); err == nil && existing.ID != selfID {
		return Brand{}, brandErrors.conflictf("slug %q is already used by brand %s", slug, existing.ID)
	} else if err != nil && !repositories.IsNotFound(err) {
		return Brand{}, brandErrors.mapRepo(err)
	}
	return Brand{
		Name:        name,
		Slug:        slug,
		Description: strings.TrimSpace(input.Description),
		LogoURL:     strings.TrimSpace(input.LogoURL),
		WebsiteURL:  website,
		IsFeatured:  input.IsFeatured,
		SortOrder:   input.SortOrder,
	}, nil
}

func isAbsoluteHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
