package firestore

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/quantum-portal/api/internal/domain"
	pfirestore "github.com/quantum-portal/api/internal/platform/firestore"
	"github.com/quantum-portal/api/internal/repositories"
)

const auditLogsCollection = "audit_logs"

// AuditLogRepository appends audit entries under tenants/{tenantID}/audit_logs.
type AuditLogRepository struct {
	base *pfirestore.BaseRepository[auditLogDocument]
}

// NewAuditLogRepository constructs a Firestore-backed audit log repository.
func NewAuditLogRepository(provider *pfirestore.Provider) (*AuditLogRepository, error) {
	if provider == nil {
		return nil, errors.New("audit log repository: firestore provider is required")
	}
	return &AuditLogRepository{
		base: pfirestore.NewTenantRepository[auditLogDocument](provider, auditLogsCollection),
	}, nil
}

// Append stores entry. Entries are immutable so a duplicate ID is reported as a conflict.
func (r *AuditLogRepository) Append(ctx context.Context, entry domain.AuditLogEntry) error {
	if entry.ID == "" {
		return errors.New("audit log repository: entry id is required")
	}
	err := r.base.Create(ctx, entry.ID, auditLogToDocument(entry))
	return err
}

func (r *AuditLogRepository) List(ctx context.Context, filter repositories.AuditLogFilter) (domain.CursorPage[domain.AuditLogEntry], error) {
	spec := pageSpec[auditLogDocument]{
		build: func(q firestore.Query) firestore.Query {
			if filter.TargetRef != "" {
				q = q.Where("target_ref", "==", filter.TargetRef)
			}
			if filter.Actor != "" {
				q = q.Where("actor", "==", filter.Actor)
			}
			return q.OrderBy("created_at", firestore.Desc).OrderBy(firestore.DocumentID, firestore.Desc)
		},
		cursor: func(doc pfirestore.Document[auditLogDocument]) []any {
			return []any{doc.Data.CreatedAt.UTC().Format(time.RFC3339Nano), doc.ID}
		},
		restore: restoreTimeThenID,
	}
	return listPage(ctx, r.base, filter.Pagination, spec, auditLogFromDocument)
}
