package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/quantum-portal/api/internal/domain"
	"github.com/quantum-portal/api/internal/repositories/memory"
)

type logCapture struct {
	mu     sync.Mutex
	events []string
}

func (l *logCapture) log(_ context.Context, event string, _ map[string]any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

func TestPublishDueWalksActiveTenants(t *testing.T) {
	registry := memory.NewRegistry()
	bg := context.Background()
	for _, tenant := range []domain.Tenant{
		{ID: "acme", Name: "Acme", Status: domain.TenantStatusActive},
		{ID: "globex", Name: "Globex", Status: domain.TenantStatusActive},
		{ID: "initech", Name: "Initech", Status: domain.TenantStatusSuspended},
	} {
		require.NoError(t, registry.Tenants().Insert(bg, tenant))
	}

	past := testNow.Add(-time.Hour)
	future := testNow.Add(time.Hour)
	acme := tenantCtx("acme")
	require.NoError(t, registry.StaticPages().Insert(acme, domain.StaticPage{ID: "s1", Title: "Terms", Slug: "terms", Status: domain.PageStatusScheduled, PublishAt: &past}))
	require.NoError(t, registry.StaticPages().Insert(acme, domain.StaticPage{ID: "s2", Title: "Later", Slug: "later", Status: domain.PageStatusScheduled, PublishAt: &future}))
	require.NoError(t, registry.StaticPages().Insert(acme, domain.StaticPage{ID: "s3", Title: "Draft", Slug: "draft", Status: domain.PageStatusDraft, PublishAt: &past}))
	globex := tenantCtx("globex")
	require.NoError(t, registry.DynamicPages().Insert(globex, domain.DynamicPage{ID: "d1", Title: "Sale", Slug: "sale", Status: domain.PageStatusScheduled, PublishAt: &testNow}))
	initech := tenantCtx("initech")
	require.NoError(t, registry.StaticPages().Insert(initech, domain.StaticPage{ID: "s9", Title: "Hidden", Slug: "hidden", Status: domain.PageStatusScheduled, PublishAt: &past}))

	deps, publisher, audit := testMutationDeps("pub")
	metrics := &countingMetrics{}
	logs := &logCapture{}
	deps.Logger = logs.log
	svc, err := NewPublishingService(PublishingServiceDeps{
		Tenants:      registry.Tenants(),
		StaticPages:  registry.StaticPages(),
		DynamicPages: registry.DynamicPages(),
		Published:    metrics,
		MutationDeps: deps,
	})
	require.NoError(t, err)

	result, err := svc.PublishDue(bg, testNow)
	require.NoError(t, err)
	assert.Equal(t, PublishResult{Tenants: 2, StaticPages: 1, DynamicPages: 1}, result)

	terms, err := registry.StaticPages().FindByID(acme, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.PageStatusPublished, terms.Status)
	require.NotNil(t, terms.PublishedAt)
	assert.Equal(t, testNow, *terms.PublishedAt)

	later, err := registry.StaticPages().FindByID(acme, "s2")
	require.NoError(t, err)
	assert.Equal(t, domain.PageStatusScheduled, later.Status)

	hidden, err := registry.StaticPages().FindByID(initech, "s9")
	require.NoError(t, err)
	assert.Equal(t, domain.PageStatusScheduled, hidden.Status)

	assert.ElementsMatch(t, []string{"static_page.published", "dynamic_page.published"}, publisher.actions())
	assert.Len(t, audit.records, 2)
	assert.Equal(t, map[string]int{"static_page": 1, "dynamic_page": 1}, metrics.published)
	assert.Contains(t, logs.events, "publishing.run_completed")

	again, err := svc.PublishDue(bg, testNow)
	require.NoError(t, err)
	assert.Equal(t, PublishResult{Tenants: 2}, again)
}
