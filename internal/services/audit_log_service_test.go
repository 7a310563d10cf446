package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/quantum-portal/api/internal/domain"
	"github.com/quantum-portal/api/internal/platform/pagination"
	"github.com/quantum-portal/api/internal/repositories"
)

type stubAuditRepo struct {
	entries   []domain.AuditLogEntry
	appendErr error

	listFilter repositories.AuditLogFilter
	listResp   domain.CursorPage[domain.AuditLogEntry]
	listErr    error
}

func (s *stubAuditRepo) Append(_ context.Context, entry domain.AuditLogEntry) error {
	s.entries = append(s.entries, entry)
	return s.appendErr
}

func (s *stubAuditRepo) List(_ context.Context, filter repositories.AuditLogFilter) (domain.CursorPage[domain.AuditLogEntry], error) {
	s.listFilter = filter
	return s.listResp, s.listErr
}

type capturedEvent struct {
	name   string
	fields map[string]any
}

type eventCapture struct{ events []capturedEvent }

func (c *eventCapture) log(_ context.Context, event string, fields map[string]any) {
	c.events = append(c.events, capturedEvent{name: event, fields: fields})
}

func newTestAuditService(t *testing.T, repo *stubAuditRepo, logger EventLogger) AuditLogService {
	t.Helper()
	svc, err := NewAuditLogService(AuditLogServiceDeps{
		Repository: repo,
		Clock:      func() time.Time { return time.Date(2025, 3, 9, 8, 0, 0, 0, time.UTC) },
		NewID:      func() string { return "audit-1" },
		Logger:     logger,
	})
	require.NoError(t, err)
	return svc
}

func TestAuditLogServiceRequiresRepository(t *testing.T) {
	_, err := NewAuditLogService(AuditLogServiceDeps{})
	require.Error(t, err)
}

func TestAuditLogServiceRecordCleansFields(t *testing.T) {
	repo := &stubAuditRepo{}
	svc := newTestAuditService(t, repo, nil)

	svc.Record(context.Background(), AuditLogRecord{
		Actor:     "  editor@example.com  ",
		ActorType: " USER ",
		Action:    " page.updated ",
		TargetRef: " page/home ",
		RequestID: " req-123 ",
		Metadata:  map[string]any{"api_key": "abc", "reason": "spring\x00 refresh"},
		Diff: map[string]AuditLogDiff{
			"title":         {Before: "Home", After: "Welcome"},
			"webhookSecret": {Before: "a", After: "b"},
		},
	})

	require.Len(t, repo.entries, 1)
	entry := repo.entries[0]
	assert.Equal(t, "audit-1", entry.ID)
	assert.Equal(t, "editor@example.com", entry.Actor)
	assert.Equal(t, ActorTypeUser, entry.ActorType)
	assert.Equal(t, "page.updated", entry.Action)
	assert.Equal(t, "page/home", entry.TargetRef)
	assert.Equal(t, "req-123", entry.RequestID)
	assert.Equal(t, time.Date(2025, 3, 9, 8, 0, 0, 0, time.UTC), entry.CreatedAt)
	assert.Equal(t, map[string]any{"api_key": auditRedacted, "reason": "spring refresh"}, entry.Metadata)
	assert.Equal(t, map[string]any{
		"title":         map[string]any{"before": "Home", "after": "Welcome"},
		"webhookSecret": map[string]any{"before": auditRedacted, "after": auditRedacted},
	}, entry.Diff)
}

func TestAuditLogServiceKeepsOccurredAt(t *testing.T) {
	repo := &stubAuditRepo{}
	svc := newTestAuditService(t, repo, nil)
	at := time.Date(2025, 1, 1, 9, 30, 0, 0, time.FixedZone("JST", 9*3600))

	svc.Record(context.Background(), AuditLogRecord{Action: "tenant.created", OccurredAt: at})

	require.Len(t, repo.entries, 1)
	assert.Equal(t, at.UTC(), repo.entries[0].CreatedAt)
	assert.Equal(t, time.UTC, repo.entries[0].CreatedAt.Location())
}

func TestAuditLogServiceDropsUnchangedDiffs(t *testing.T) {
	repo := &stubAuditRepo{}
	svc := newTestAuditService(t, repo, nil)

	svc.Record(context.Background(), AuditLogRecord{
		Action: "page.updated",
		Diff: map[string]AuditLogDiff{
			"slug":  {Before: "about", After: " about "},
			"order": {Before: 1, After: 1},
		},
	})

	require.Len(t, repo.entries, 1)
	assert.Nil(t, repo.entries[0].Diff)
}

func TestAuditLogServiceTruncatesMetadataDeterministically(t *testing.T) {
	metadata := make(map[string]any, 60)
	for i := 0; i < 60; i++ {
		metadata[fmt.Sprintf("k%02d", i)] = i
	}

	for run := 0; run < 3; run++ {
		repo := &stubAuditRepo{}
		newTestAuditService(t, repo, nil).Record(context.Background(), AuditLogRecord{Action: "a", Metadata: metadata})

		require.Len(t, repo.entries, 1)
		got := repo.entries[0].Metadata
		require.Len(t, got, defaultAuditScrubber.maxKeys)
		assert.Contains(t, got, "k00")
		assert.Contains(t, got, "k39")
		assert.NotContains(t, got, "k40")
	}
}

func TestAuditScrubberValues(t *testing.T) {
	at := time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)
	long := strings.Repeat("é", 400)

	cases := []struct {
		name string
		in   any
		want any
	}{
		{"nil", nil, nil},
		{"time", at, "2025-02-03T04:05:06Z"},
		{"nil time pointer", (*time.Time)(nil), nil},
		{"strings", []string{" a ", "b\x07"}, []string{"a", "b"}},
		{"number passes through", 42, 42},
		{"decomposed text is composed", "Cafe\u0301", "Caf\u00e9"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, defaultAuditScrubber.value(tc.in))
		})
	}

	truncated := defaultAuditScrubber.value(long).(string)
	assert.LessOrEqual(t, len(truncated), defaultAuditScrubber.valueLimit)
	assert.True(t, strings.HasPrefix(long, truncated))
}

func TestAuditLogServiceRecordLogsAppendFailure(t *testing.T) {
	repo := &stubAuditRepo{appendErr: errors.New("boom")}
	capture := &eventCapture{}
	svc := newTestAuditService(t, repo, capture.log)

	svc.Record(context.Background(), AuditLogRecord{Action: "media.deleted", TargetRef: "media/m1", ActorType: "robot"})

	require.Len(t, capture.events, 1)
	assert.Equal(t, "audit.append_failed", capture.events[0].name)
	assert.Equal(t, "media/m1", capture.events[0].fields["targetRef"])
	assert.Equal(t, "unknown", repo.entries[0].ActorType)
}

func TestAuditLogServiceListMapsInvalidToken(t *testing.T) {
	repo := &stubAuditRepo{listErr: pagination.ErrInvalidPageToken}
	svc := newTestAuditService(t, repo, nil)

	_, err := svc.List(context.Background(), AuditLogFilter{TargetRef: " page/p1 ", Pagination: Pagination{PageToken: "bad"}})

	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "page/p1", repo.listFilter.TargetRef)
}
