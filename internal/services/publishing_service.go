package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/quantum-portal/api/internal/domain"
	"github.com/quantum-portal/api/internal/platform/requestctx"
	"github.com/quantum-portal/api/internal/repositories"
)

const tenantScanPageSize = 100

// PublishMetrics counts pages published by the scheduler.
type PublishMetrics interface {
	ObservePublished(kind string, n int)
}

// PublishingServiceDeps wires the publishing service.
type PublishingServiceDeps struct {
	Tenants      repositories.TenantRepository
	StaticPages  repositories.StaticPageRepository
	DynamicPages repositories.DynamicPageRepository
	Published    PublishMetrics
	MutationDeps
}

type publishingService struct {
	tenants      repositories.TenantRepository
	staticPages  repositories.StaticPageRepository
	dynamicPages repositories.DynamicPageRepository
	published    PublishMetrics
	mutations
}

// NewPublishingService constructs the publishing service.
func NewPublishingService(deps PublishingServiceDeps) (PublishingService, error) {
	if deps.Tenants == nil || deps.StaticPages == nil || deps.DynamicPages == nil {
		return nil, errors.New("publishing service: tenant and page repositories are required")
	}
	return &publishingService{
		tenants:      deps.Tenants,
		staticPages:  deps.StaticPages,
		dynamicPages: deps.DynamicPages,
		published:    deps.Published,
		mutations:    newMutations(deps.MutationDeps),
	}, nil
}

// PublishDue publishes scheduled pages of every active tenant whose publish time is at or
// before now. A page that fails to publish is counted and logged; the run continues.
func (s *publishingService) PublishDue(ctx context.Context, now time.Time) (PublishResult, error) {
	now = now.UTC()
	var result PublishResult
	token := ""
	for {
		page, err := s.tenants.List(ctx, repositories.TenantListFilter{
			Status:     domain.TenantStatusActive,
			Pagination: domain.Pagination{PageSize: tenantScanPageSize, PageToken: token},
		})
		if err != nil {
			return result, fmt.Errorf("publishing: list tenants: %w", err)
		}
		for _, tenant := range page.Items {
			if err := ctx.Err(); err != nil {
				return result, err
			}
			result.Tenants++
			s.publishTenant(requestctx.WithTenantID(ctx, tenant.ID), tenant.ID, now, &result)
		}
		if page.NextPageToken == "" {
			break
		}
		token = page.NextPageToken
	}

	if s.published != nil {
		s.published.ObservePublished(resourceStaticPage, result.StaticPages)
		s.published.ObservePublished(resourceDynamicPage, result.DynamicPages)
	}
	s.logger(ctx, "publishing.run_completed", map[string]any{
		"tenants":      result.Tenants,
		"staticPages":  result.StaticPages,
		"dynamicPages": result.DynamicPages,
		"failures":     result.Failures,
	})
	return result, nil
}

func (s *publishingService) publishTenant(ctx context.Context, tenantID string, now time.Time, result *PublishResult) {
	statics, err := s.staticPages.ListDue(ctx, now)
	if err != nil {
		result.Failures++
		s.logFailure(ctx, tenantID, resourceStaticPage, "", err)
	}
	for _, page := range statics {
		page.Status = domain.PageStatusPublished
		page.PublishedAt = &now
		page.UpdatedAt = now
		if err := s.staticPages.Update(ctx, page); err != nil {
			result.Failures++
			s.logFailure(ctx, tenantID, resourceStaticPage, page.ID, err)
			continue
		}
		result.StaticPages++
		s.record(ctx, change{resource: resourceStaticPage, resourceID: page.ID, slug: page.Slug, action: domain.ContentActionPublished})
	}

	dynamics, err := s.dynamicPages.ListDue(ctx, now)
	if err != nil {
		result.Failures++
		s.logFailure(ctx, tenantID, resourceDynamicPage, "", err)
	}
	for _, page := range dynamics {
		page.Status = domain.PageStatusPublished
		page.PublishedAt = &now
		page.UpdatedAt = now
		if err := s.dynamicPages.Update(ctx, page); err != nil {
			result.Failures++
			s.logFailure(ctx, tenantID, resourceDynamicPage, page.ID, err)
			continue
		}
		result.DynamicPages++
		s.record(ctx, change{resource: resourceDynamicPage, resourceID: page.ID, slug: page.Slug, action: domain.ContentActionPublished})
	}
}

func (s *publishingService) logFailure(ctx context.Context, tenantID, resource, pageID string, err error) {
	s.logger(ctx, "publishing.page_failed", map[string]any{
		"tenantId": tenantID,
		"resource": resource,
		"pageId":   pageID,
		"error":    err.Error(),
	})
}
