// Package memory provides process-local repositories for tests, local runs and cmsctl dry runs.
package memory

import (
	"context"
	"fmt"
	"sync"

	domain "github.com/quantum-portal/api/internal/domain"
	"github.com/quantum-portal/api/internal/platform/pagination"
	"github.com/quantum-portal/api/internal/platform/requestctx"
)

// Error satisfies repositories.RepositoryError.
type Error struct {
	op       string
	msg      string
	notFound bool
	conflict bool
}

func (e *Error) Error() string       { return fmt.Sprintf("%s: %s", e.op, e.msg) }
func (e *Error) IsNotFound() bool    { return e.notFound }
func (e *Error) IsConflict() bool    { return e.conflict }
func (e *Error) IsUnavailable() bool { return false }

func notFound(op, id string) error {
	return &Error{op: op, msg: fmt.Sprintf("%q not found", id), notFound: true}
}

func conflict(op, id string) error {
	return &Error{op: op, msg: fmt.Sprintf("%q already exists", id), conflict: true}
}

// table holds one collection partitioned by tenant. An empty partition key is used for
// root collections such as tenants.
type table[T any] struct {
	name   string
	scoped bool
	clone  func(T) T

	mu   sync.RWMutex
	rows map[string]map[string]T
}

func newTable[T any](name string, scoped bool, clone func(T) T) *table[T] {
	if clone == nil {
		clone = func(v T) T { return v }
	}
	return &table[T]{name: name, scoped: scoped, clone: clone, rows: make(map[string]map[string]T)}
}

func (t *table[T]) partition(ctx context.Context) (string, error) {
	if !t.scoped {
		return "", nil
	}
	return requestctx.RequireTenantID(ctx)
}

func (t *table[T]) insert(ctx context.Context, id string, value T) error {
	key, err := t.partition(ctx)
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	rows := t.rows[key]
	if rows == nil {
		rows = make(map[string]T)
		t.rows[key] = rows
	}
	if _, exists := rows[id]; exists {
		return conflict(t.name+".insert", id)
	}
	rows[id] = t.clone(value)
	return nil
}

func (t *table[T]) update(ctx context.Context, id string, value T) error {
	key, err := t.partition(ctx)
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.rows[key][id]; !exists {
		return notFound(t.name+".update", id)
	}
	t.rows[key][id] = t.clone(value)
	return nil
}

func (t *table[T]) delete(ctx context.Context, id string) error {
	key, err := t.partition(ctx)
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.rows[key][id]; !exists {
		return notFound(t.name+".delete", id)
	}
	delete(t.rows[key], id)
	return nil
}

func (t *table[T]) get(ctx context.Context, id string) (T, error) {
	var zero T
	key, err := t.partition(ctx)
	if err != nil {
		return zero, err
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	value, ok := t.rows[key][id]
	if !ok {
		return zero, notFound(t.name+".get", id)
	}
	return t.clone(value), nil
}

// all returns copies of every row in the partition, in no particular order.
func (t *table[T]) all(ctx context.Context) ([]T, error) {
	key, err := t.partition(ctx)
	if err != nil {
		return nil, err
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]T, 0, len(t.rows[key]))
	for _, value := range t.rows[key] {
		out = append(out, t.clone(value))
	}
	return out, nil
}

// first returns the first row matching keep, or a not-found error naming what.
func (t *table[T]) first(ctx context.Context, what string, keep func(T) bool) (T, error) {
	var zero T
	rows, err := t.all(ctx)
	if err != nil {
		return zero, err
	}
	for _, row := range rows {
		if keep(row) {
			return row, nil
		}
	}
	return zero, notFound(t.name+".find", what)
}

// paginate slices sorted items with offset tokens encoded like the Firestore cursors.
func paginate[T any](items []T, pager domain.Pagination) (domain.CursorPage[T], error) {
	pager = pagination.Normalize(pager)
	cursor, err := pagination.DecodeToken(pager.PageToken)
	if err != nil {
		return domain.CursorPage[T]{}, err
	}
	offset := 0
	if !cursor.Empty() {
		n, ok := cursor.After[0].(float64)
		if !ok || n < 0 || len(cursor.After) != 1 {
			return domain.CursorPage[T]{}, fmt.Errorf("%w: bad offset", pagination.ErrInvalidPageToken)
		}
		offset = int(n)
	}
	if offset > len(items) {
		offset = len(items)
	}
	end := offset + pager.PageSize
	page := domain.CursorPage[T]{}
	if end < len(items) {
		page.NextPageToken = pagination.NextToken(end)
	} else {
		end = len(items)
	}
	page.Items = append([]T(nil), items[offset:end]...)
	return page, nil
}
