package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	domain "github.com/quantum-portal/api/internal/domain"
	"github.com/quantum-portal/api/internal/platform/requestctx"
)

var testNow = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

func tenantCtx(tenantID string) context.Context {
	return requestctx.WithTenantID(context.Background(), tenantID)
}

func sequentialIDs(prefix string) func() string {
	var (
		mu sync.Mutex
		n  int
	)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%02d", prefix, n)
	}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.ContentChanged
	err    error
}

func (p *recordingPublisher) PublishContentChanged(_ context.Context, event domain.ContentChanged) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) actions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Resource+"."+string(e.Action))
	}
	return out
}

type recordingAudit struct {
	mu      sync.Mutex
	records []AuditLogRecord
}

func (a *recordingAudit) Record(_ context.Context, record AuditLogRecord) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append(a.records, record)
}

func (a *recordingAudit) List(context.Context, AuditLogFilter) (domain.CursorPage[AuditLogEntry], error) {
	return domain.CursorPage[AuditLogEntry]{}, nil
}

type countingMetrics struct {
	mu        sync.Mutex
	events    map[string]int
	failures  int
	published map[string]int
}

func (m *countingMetrics) ObserveContentEvent(resource string, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.events == nil {
		m.events = map[string]int{}
	}
	m.events[resource]++
	if !success {
		m.failures++
	}
}

func (m *countingMetrics) ObservePublished(kind string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.published == nil {
		m.published = map[string]int{}
	}
	m.published[kind] += n
}

func testMutationDeps(prefix string) (MutationDeps, *recordingPublisher, *recordingAudit) {
	publisher := &recordingPublisher{}
	audit := &recordingAudit{}
	return MutationDeps{
		Audit:  audit,
		Events: publisher,
		Clock:  func() time.Time { return testNow },
		NewID:  sequentialIDs(prefix),
	}, publisher, audit
}

func ptr[T any](v T) *T { return &v }
