package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/quantum-portal/api/internal/domain"
	pfirestore "github.com/quantum-portal/api/internal/platform/firestore"
	"github.com/quantum-portal/api/internal/platform/pagination"
)

// pageSpec describes how one collection is ordered and how its cursors are built.
type pageSpec[D any] struct {
	// build applies filters and the OrderBy clauses, ending with the document ID.
	build pfirestore.QueryBuilder
	// cursor returns the StartAfter values for a document, matching the OrderBy clauses.
	cursor func(doc pfirestore.Document[D]) []any
	// restore converts decoded token values back into Firestore values, e.g. timestamps.
	restore func(values []any) ([]any, error)
}

func listPage[D, T any](ctx context.Context, base *pfirestore.BaseRepository[D], pager domain.Pagination, spec pageSpec[D], convert func(string, D) T) (domain.CursorPage[T], error) {
	pager = pagination.Normalize(pager)
	cursor, err := pagination.DecodeToken(pager.PageToken)
	if err != nil {
		return domain.CursorPage[T]{}, err
	}
	startAfter := cursor.After
	if len(startAfter) > 0 && spec.restore != nil {
		if startAfter, err = spec.restore(startAfter); err != nil {
			return domain.CursorPage[T]{}, fmt.Errorf("%w: %v", pagination.ErrInvalidPageToken, err)
		}
	}

	docs, more, err := base.Page(ctx, spec.build, pager.PageSize, startAfter)
	if err != nil {
		return domain.CursorPage[T]{}, err
	}
	page := domain.CursorPage[T]{Items: make([]T, 0, len(docs))}
	for _, doc := range docs {
		page.Items = append(page.Items, convert(doc.ID, doc.Data))
	}
	if more && len(docs) > 0 {
		page.NextPageToken = pagination.NextToken(spec.cursor(docs[len(docs)-1])...)
	}
	return page, nil
}

func queryAll[D, T any](ctx context.Context, base *pfirestore.BaseRepository[D], build pfirestore.QueryBuilder, convert func(string, D) T) ([]T, error) {
	docs, err := base.Query(ctx, build)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		out = append(out, convert(doc.ID, doc.Data))
	}
	return out, nil
}

// findOne returns the first document whose field equals value.
func findOne[D, T any](ctx context.Context, base *pfirestore.BaseRepository[D], op, field string, value any, convert func(string, D) T) (T, error) {
	docs, err := base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where(field, "==", value).Limit(1)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	if len(docs) == 0 {
		var zero T
		return zero, pfirestore.NotFoundError(op, fmt.Sprintf("no document with %s %v", field, value))
	}
	return convert(docs[0].ID, docs[0].Data), nil
}

func byDocumentID(q firestore.Query) firestore.Query {
	return q.OrderBy(firestore.DocumentID, firestore.Asc)
}

func documentIDCursor[D any](doc pfirestore.Document[D]) []any {
	return []any{doc.ID}
}

// restoreTimeThenID turns a [RFC3339 string, id] cursor back into [time.Time, id].
func restoreTimeThenID(values []any) ([]any, error) {
	if len(values) != 2 {
		return nil, fmt.Errorf("expected 2 cursor values, got %d", len(values))
	}
	raw, ok := values[0].(string)
	if !ok {
		return nil, fmt.Errorf("cursor timestamp must be a string")
	}
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return nil, err
	}
	return []any{ts, values[1]}, nil
}
