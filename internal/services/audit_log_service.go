package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"
	"golang.org/x/text/unicode/norm"

	domain "github.com/quantum-portal/api/internal/domain"
	"github.com/quantum-portal/api/internal/repositories"
)

// Actor types stored on audit entries.
const (
	ActorTypeUser    = "user"
	ActorTypeService = "service"
	ActorTypeSystem  = "system"
	actorTypeUnknown = "unknown"
)

var auditErrors = newResourceErrors("audit_log")

type auditLogService struct {
	repo   repositories.AuditLogRepository
	clock  func() time.Time
	newID  func() string
	logger EventLogger
	scrub  auditScrubber
}

// AuditLogServiceDeps bundles constructor inputs for the audit writer service.
type AuditLogServiceDeps struct {
	Repository repositories.AuditLogRepository
	Clock      func() time.Time
	NewID      func() string
	Logger     EventLogger
}

// NewAuditLogService creates an audit log writer backed by the supplied repository.
func NewAuditLogService(deps AuditLogServiceDeps) (AuditLogService, error) {
	if deps.Repository == nil {
		return nil, errors.New("audit log service: repository is required")
	}
	svc := &auditLogService{
		repo:   deps.Repository,
		clock:  deps.Clock,
		newID:  deps.NewID,
		logger: deps.Logger,
		scrub:  defaultAuditScrubber,
	}
	if svc.clock == nil {
		svc.clock = time.Now
	}
	if svc.newID == nil {
		svc.newID = func() string { return ulid.Make().String() }
	}
	if svc.logger == nil {
		svc.logger = func(context.Context, string, map[string]any) {}
	}
	return svc, nil
}

// Record persists an audit entry. The mutation it describes is already committed, so a store
// failure is logged rather than returned.
func (s *auditLogService) Record(ctx context.Context, record AuditLogRecord) {
	entry := s.entry(record)
	if err := s.repo.Append(ctx, entry); err != nil {
		s.logger(ctx, "audit.append_failed", map[string]any{
			"action":    entry.Action,
			"targetRef": entry.TargetRef,
			"error":     err.Error(),
		})
	}
}

func (s *auditLogService) List(ctx context.Context, filter AuditLogFilter) (domain.CursorPage[AuditLogEntry], error) {
	page, err := s.repo.List(ctx, repositories.AuditLogFilter{
		TargetRef:  strings.TrimSpace(filter.TargetRef),
		Actor:      strings.TrimSpace(filter.Actor),
		Pagination: filter.Pagination,
	})
	if err != nil {
		return domain.CursorPage[AuditLogEntry]{}, auditErrors.mapRepo(err)
	}
	return page, nil
}

func (s *auditLogService) entry(record AuditLogRecord) domain.AuditLogEntry {
	occurred := record.OccurredAt
	if occurred.IsZero() {
		occurred = s.clock()
	}
	return domain.AuditLogEntry{
		ID:        s.newID(),
		Actor:     s.scrub.text(record.Actor, 160),
		ActorType: actorType(record.ActorType),
		Action:    s.scrub.text(record.Action, 120),
		TargetRef: s.scrub.text(record.TargetRef, 200),
		RequestID: s.scrub.text(record.RequestID, 128),
		Metadata:  s.scrub.metadata(record.Metadata),
		Diff:      s.scrub.diff(record.Diff),
		CreatedAt: occurred.UTC(),
	}
}

func actorType(raw string) string {
	switch t := strings.ToLower(strings.TrimSpace(raw)); t {
	case ActorTypeUser, ActorTypeService, ActorTypeSystem:
		return t
	default:
		return actorTypeUnknown
	}
}

// auditScrubber bounds and redacts free-form audit payloads.
type auditScrubber struct {
	sensitive  []string
	maxKeys    int
	keyLimit   int
	valueLimit int
}

const auditRedacted = "[redacted]"

var defaultAuditScrubber = auditScrubber{
	sensitive:  []string{"secret", "signature", "token", "password", "apikey", "credential"},
	maxKeys:    40,
	keyLimit:   80,
	valueLimit: 512,
}

// keys cleans and sorts the original keys, capped at maxKeys. The map points each cleaned key at
// its original.
func (a auditScrubber) keys(original []string) ([]string, map[string]string) {
	cleaned := make(map[string]string, len(original))
	for _, k := range original {
		if c := a.text(k, a.keyLimit); c != "" {
			if _, dup := cleaned[c]; !dup {
				cleaned[c] = k
			}
		}
	}
	out := make([]string, 0, len(cleaned))
	for c := range cleaned {
		out = append(out, c)
	}
	sort.Strings(out)
	if len(out) > a.maxKeys {
		out = out[:a.maxKeys]
	}
	return out, cleaned
}

func (a auditScrubber) metadata(in map[string]any) map[string]any {
	if len(in) == 0 {
		return nil
	}
	raw := make([]string, 0, len(in))
	for k := range in {
		raw = append(raw, k)
	}
	keys, origin := a.keys(raw)
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		if a.isSensitive(k) {
			out[k] = auditRedacted
			continue
		}
		out[k] = a.value(in[origin[k]])
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (a auditScrubber) diff(in map[string]AuditLogDiff) map[string]any {
	if len(in) == 0 {
		return nil
	}
	raw := make([]string, 0, len(in))
	for k := range in {
		raw = append(raw, k)
	}
	keys, origin := a.keys(raw)
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		if a.isSensitive(k) {
			out[k] = map[string]any{"before": auditRedacted, "after": auditRedacted}
			continue
		}
		change := in[origin[k]]
		before, after := a.value(change.Before), a.value(change.After)
		if reflect.DeepEqual(before, after) {
			continue
		}
		out[k] = map[string]any{"before": before, "after": after}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (a auditScrubber) isSensitive(key string) bool {
	folded := strings.ToLower(strings.NewReplacer("_", "", "-", "", ".", "").Replace(key))
	for _, s := range a.sensitive {
		if strings.Contains(folded, s) {
			return true
		}
	}
	return false
}

func (a auditScrubber) value(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		return a.text(x, a.valueLimit)
	case time.Time:
		return x.UTC().Format(time.RFC3339)
	case *time.Time:
		if x == nil {
			return nil
		}
		return x.UTC().Format(time.RFC3339)
	case fmt.Stringer:
		return a.text(x.String(), a.valueLimit)
	case []string:
		out := make([]string, len(x))
		for i, s := range x {
			out[i] = a.text(s, a.valueLimit)
		}
		return out
	default:
		return v
	}
}

// text NFC-normalises s, drops control characters other than tab and newline, and truncates
// to limit bytes on a rune boundary.
func (auditScrubber) text(s string, limit int) string {
	s = strings.TrimSpace(norm.NFC.String(s))
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(min(len(s), limit))
	for _, r := range s {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		if b.Len()+utf8.RuneLen(r) > limit {
			break
		}
		b.WriteRune(r)
	}
	return b.String()
}
