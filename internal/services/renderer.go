package services

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	domain "github.com/quantum-portal/api/internal/domain"
	"github.com/quantum-portal/api/internal/repositories"
)

const defaultRenderConcurrency = 8

// ParseDevice maps a query value onto a Device. Empty selects DeviceAll.
func ParseDevice(value string) (domain.Device, error) {
	switch device := domain.Device(strings.ToLower(strings.TrimSpace(value))); device {
	case "":
		return domain.DeviceAll, nil
	case domain.DeviceAll, domain.DeviceDesktop, domain.DeviceMobile:
		return device, nil
	default:
		return "", fmt.Errorf("%w: unknown device %q", ErrDynamicPageInvalidInput, value)
	}
}

// PageRendererDeps wires a PageRenderer. Concurrency bounds the number of blocks resolved at once.
type PageRendererDeps struct {
	Categories  repositories.CategoryRepository
	Brands      repositories.BrandRepository
	HTML        HTMLRenderer
	Concurrency int
}

// PageRenderer turns stored dynamic pages into render-ready pages for one device.
type PageRenderer struct {
	resolver contentResolver
	limit    int
}

// NewPageRenderer constructs a PageRenderer.
func NewPageRenderer(deps PageRendererDeps) *PageRenderer {
	limit := deps.Concurrency
	if limit <= 0 {
		limit = defaultRenderConcurrency
	}
	return &PageRenderer{
		resolver: contentResolver{categories: deps.Categories, brands: deps.Brands, html: defaultRenderer(deps.HTML)},
		limit:    limit,
	}
}

// Render filters the page for device, orders what is left and resolves block content. Segments
// without any remaining block are omitted.
func (r *PageRenderer) Render(ctx context.Context, page DynamicPage, device domain.Device) (RenderedDynamicPage, error) {
	if device == "" {
		device = domain.DeviceAll
	}
	segments := visibleSegments(page.Segments, device)

	rendered := make([]domain.RenderedSegment, len(segments))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.limit)
	for i, segment := range segments {
		rendered[i] = domain.RenderedSegment{
			ID:       segment.ID,
			Name:     segment.Name,
			Type:     segment.Type,
			Settings: segment.Settings,
			Blocks:   make([]domain.RenderedBlock, len(segment.Blocks)),
		}
		for j, block := range segment.Blocks {
			out := &rendered[i].Blocks[j]
			g.Go(func() error {
				content, err := r.resolveBlock(gctx, block)
				if err != nil {
					return fmt.Errorf("block %s: %w", block.ID, err)
				}
				*out = domain.RenderedBlock{ID: block.ID, Type: block.Type, Content: content}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return RenderedDynamicPage{}, err
	}

	return RenderedDynamicPage{
		ID:          page.ID,
		Title:       page.Title,
		Slug:        page.Slug,
		Device:      device,
		SEO:         page.SEO,
		Segments:    rendered,
		PublishedAt: page.PublishedAt,
		UpdatedAt:   page.UpdatedAt,
	}, nil
}

// visibleSegments returns ordered copies of the active segments holding at least one block
// that is active and visible on device.
func visibleSegments(segments []Segment, device domain.Device) []Segment {
	out := make([]Segment, 0, len(segments))
	for _, segment := range segments {
		if !segment.IsActive {
			continue
		}
		blocks := make([]Block, 0, len(segment.Blocks))
		for _, block := range segment.Blocks {
			if block.IsActive && visibleOn(block.Visibility, device) {
				blocks = append(blocks, block)
			}
		}
		if len(blocks) == 0 {
			continue
		}
		sortBlocks(blocks)
		segment.Blocks = blocks
		out = append(out, segment)
	}
	sortSegments(out)
	return out
}

func visibleOn(v domain.BlockVisibility, device domain.Device) bool {
	switch device {
	case domain.DeviceDesktop:
		return v.Desktop
	case domain.DeviceMobile:
		return v.Mobile
	default:
		return v.Desktop || v.Mobile
	}
}

func (r *PageRenderer) resolveBlock(ctx context.Context, block Block) (map[string]any, error) {
	content := copyContent(block.Content)
	switch block.Type {
	case domain.BlockTypeCustomHTML:
		content["html"] = r.resolver.html.Sanitize(contentString(content, "html"))
	case domain.BlockTypeRichText:
		html, err := r.resolver.html.Markdown(contentString(content, "markdown"))
		if err != nil {
			return nil, err
		}
		content["html"] = html
	case domain.BlockTypeCategoryList:
		categories, err := r.resolver.categorySummaries(ctx, stringList(content["categoryIds"]))
		if err != nil {
			return nil, err
		}
		content["categories"] = categories
	case domain.BlockTypeBrandList:
		var (
			brands []map[string]any
			err    error
		)
		if ids := stringList(content["brandIds"]); len(ids) > 0 {
			brands, err = r.resolver.brandSummaries(ctx, ids)
		} else {
			brands, err = r.resolver.featuredBrands(ctx, contentInt(content, "limit", defaultFeaturedLimit, maxResolvedReferences))
		}
		if err != nil {
			return nil, err
		}
		content["brands"] = brands
	case domain.BlockTypeProductCarousel:
		if ids := stringList(content["productIds"]); len(ids) > 0 {
			content["productIds"] = ids
		}
	}
	return content, nil
}
