package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	domain "github.com/quantum-portal/api/internal/domain"
	"github.com/quantum-portal/api/internal/platform/htmlrender"
	"github.com/quantum-portal/api/internal/repositories"
)

const (
	seoDescriptionRunes = 160
	maxPageContentBytes = 512 * 1024
)

// HTMLRenderer converts stored content into sanitised HTML.
type HTMLRenderer interface {
	Sanitize(fragment string) string
	Markdown(src string) (string, error)
	Render(format, content string) (string, error)
}

func defaultRenderer(r HTMLRenderer) HTMLRenderer {
	if r == nil {
		return htmlrender.New()
	}
	return r
}

// pageSlugs enforces that a slug names at most one page across static and dynamic pages.
type pageSlugs struct {
	static  repositories.StaticPageRepository
	dynamic repositories.DynamicPageRepository
}

// ensureFree returns a conflict when slug belongs to a page other than selfID.
func (p pageSlugs) ensureFree(ctx context.Context, errs resourceErrors, slug, selfID string) error {
	if p.static != nil {
		page, err := p.static.FindBySlug(ctx, slug)
		switch {
		case err == nil && page.ID != selfID:
			return errs.conflictf("slug %q is used by static page %s", slug, page.ID)
		case err != nil && !repositories.IsNotFound(err):
			return errs.mapRepo(err)
		}
	}
	if p.dynamic != nil {
		page, err := p.dynamic.FindBySlug(ctx, slug)
		switch {
		case err == nil && page.ID != selfID:
			return errs.conflictf("slug %q is used by dynamic page %s", slug, page.ID)
		case err != nil && !repositories.IsNotFound(err):
			return errs.mapRepo(err)
		}
	}
	return nil
}

// normalizePageStatus defaults the status to draft and requires a future publish time for
// scheduled pages.
func normalizePageStatus(errs resourceErrors, status domain.PageStatus, publishAt *time.Time, now time.Time) (domain.PageStatus, *time.Time, error) {
	if status == "" {
		status = domain.PageStatusDraft
	}
	switch status {
	case domain.PageStatusDraft, domain.PageStatusPublished:
	case domain.PageStatusScheduled:
		if publishAt == nil || !publishAt.After(now) {
			return "", nil, errs.invalidf("scheduled pages need a publishAt in the future")
		}
	default:
		return "", nil, errs.invalidf("unknown status %q", status)
	}
	if publishAt != nil {
		utc := publishAt.UTC()
		publishAt = &utc
	}
	return status, publishAt, nil
}

// publishedAtFor keeps the first publish time of a page that stays published.
func publishedAtFor(status domain.PageStatus, previous *time.Time, now time.Time) *time.Time {
	if status != domain.PageStatusPublished {
		return nil
	}
	if previous != nil {
		return previous
	}
	return &now
}

func validPageStatusFilter(status domain.PageStatus) bool {
	switch status {
	case "", domain.PageStatusDraft, domain.PageStatusScheduled, domain.PageStatusPublished:
		return true
	}
	return false
}

func requirePageTitle(errs resourceErrors, title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", errs.invalidf("title is required")
	}
	if len(title) > 200 {
		return "", errs.invalidf("title must be at most 200 bytes")
	}
	return title, nil
}

func notPublished(errs resourceErrors, slug string) error {
	return fmt.Errorf("%w: %s is not published", errs.notFound, slug)
}
