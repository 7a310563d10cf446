package services

import (
	"context"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/oklog/ulid/v2"

	domain "github.com/quantum-portal/api/internal/domain"
	"github.com/quantum-portal/api/internal/platform/auth"
	"github.com/quantum-portal/api/internal/platform/requestctx"
)

// ContentEventPublisher delivers ContentChanged events to downstream caches.
type ContentEventPublisher interface {
	PublishContentChanged(ctx context.Context, event domain.ContentChanged) error
}

// ContentEventMetrics counts published content events.
type ContentEventMetrics interface {
	ObserveContentEvent(resource string, success bool)
}

// EventLogger is the structured logging hook shared by services.
type EventLogger func(ctx context.Context, event string, fields map[string]any)

// MutationDeps are the side-effect collaborators shared by content services. Every field is optional.
type MutationDeps struct {
	Audit   AuditLogService
	Events  ContentEventPublisher
	Metrics ContentEventMetrics
	Logger  EventLogger
	Clock   func() time.Time
	NewID   func() string
}

// mutations records audit entries and emits content events after a successful write.
type mutations struct {
	audit   AuditLogService
	events  ContentEventPublisher
	metrics ContentEventMetrics
	logger  EventLogger
	clock   func() time.Time
	newID   func() string
}

func newMutations(deps MutationDeps) mutations {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	newID := deps.NewID
	if newID == nil {
		newID = func() string { return ulid.Make().String() }
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return mutations{
		audit:   deps.Audit,
		events:  deps.Events,
		metrics: deps.Metrics,
		logger:  logger,
		clock:   func() time.Time { return clock().UTC() },
		newID:   newID,
	}
}

func (m mutations) now() time.Time { return m.clock() }

// change describes one completed mutation.
type change struct {
	resource   string
	resourceID string
	slug       string
	action     domain.ContentAction
	diff       map[string]AuditLogDiff
	metadata   map[string]any
}

func (m mutations) record(ctx context.Context, c change) {
	now := m.now()
	tenantID, _ := requestctx.TenantID(ctx)

	if m.audit != nil && tenantID != "" {
		actor, actorType := actorFromContext(ctx)
		m.audit.Record(ctx, AuditLogRecord{
			Actor:      actor,
			ActorType:  actorType,
			Action:     c.resource + "." + string(c.action),
			TargetRef:  c.resource + "/" + c.resourceID,
			RequestID:  middleware.GetReqID(ctx),
			OccurredAt: now,
			Metadata:   c.metadata,
			Diff:       c.diff,
		})
	}

	if m.events == nil {
		return
	}
	err := m.events.PublishContentChanged(ctx, domain.ContentChanged{
		TenantID:   tenantID,
		Resource:   c.resource,
		ResourceID: c.resourceID,
		Slug:       c.slug,
		Action:     c.action,
		OccurredAt: now,
	})
	if m.metrics != nil {
		m.metrics.ObserveContentEvent(c.resource, err == nil)
	}
	if err != nil {
		m.logger(ctx, "content_event.publish_failed", map[string]any{
			"tenantId":   tenantID,
			"resource":   c.resource,
			"resourceId": c.resourceID,
			"action":     string(c.action),
			"error":      err.Error(),
		})
	}
}

func actorFromContext(ctx context.Context) (string, string) {
	if identity, ok := auth.IdentityFromContext(ctx); ok {
		return identity.Actor(), ActorTypeUser
	}
	if svc, ok := auth.ServiceIdentityFromContext(ctx); ok {
		actor := svc.Email
		if actor == "" {
			actor = svc.Subject
		}
		return "service:" + actor, ActorTypeService
	}
	return ActorTypeSystem, ActorTypeSystem
}

// diffField adds a before/after pair when the values differ.
func diffField[T comparable](diff map[string]AuditLogDiff, name string, before, after T) {
	if before != after {
		diff[name] = AuditLogDiff{Before: before, After: after}
	}
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}

func trimSEO(seo domain.SEO) domain.SEO {
	return domain.SEO{Title: strings.TrimSpace(seo.Title), Description: strings.TrimSpace(seo.Description)}
}
