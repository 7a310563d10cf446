package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/quantum-portal/api/internal/platform/requestctx"
)

// TenantsCollection holds one document per tenant. Tenant-scoped collections nest beneath it.
const TenantsCollection = "tenants"

// Document is a decoded snapshot.
type Document[T any] struct {
	ID         string
	Data       T
	UpdateTime time.Time
}

// QueryBuilder adds filters and ordering to a collection query.
type QueryBuilder func(query firestore.Query) firestore.Query

// collectionResolver picks the collection for a call. Tenant-scoped repositories read the
// tenant from ctx on every call so one repository value serves all tenants.
type collectionResolver func(ctx context.Context, client *firestore.Client) (*firestore.CollectionRef, error)

// BaseRepository wraps one collection of T, decoded with Firestore struct tags.
type BaseRepository[T any] struct {
	provider *Provider
	name     string
	resolve  collectionResolver
}

// NewBaseRepository binds a top-level collection.
func NewBaseRepository[T any](provider *Provider, collection string) *BaseRepository[T] {
	name := strings.TrimSpace(collection)
	return &BaseRepository[T]{
		provider: provider,
		name:     name,
		resolve: func(_ context.Context, client *firestore.Client) (*firestore.CollectionRef, error) {
			return client.Collection(name), nil
		},
	}
}

// NewTenantRepository binds tenants/{tenantID}/{collection}. Calls without a tenant in ctx fail
// with requestctx.ErrNoTenant.
func NewTenantRepository[T any](provider *Provider, collection string) *BaseRepository[T] {
	name := strings.TrimSpace(collection)
	return &BaseRepository[T]{
		provider: provider,
		name:     name,
		resolve: func(ctx context.Context, client *firestore.Client) (*firestore.CollectionRef, error) {
			tenantID, err := requestctx.RequireTenantID(ctx)
			if err != nil {
				return nil, err
			}
			return client.Collection(TenantsCollection).Doc(tenantID).Collection(name), nil
		},
	}
}

// Collection returns the collection for ctx.
func (r *BaseRepository[T]) Collection(ctx context.Context) (*firestore.CollectionRef, error) {
	if r == nil || r.provider == nil || r.name == "" {
		return nil, WrapError("firestore.collection", errors.New("repository is not configured"))
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, err
	}
	coll, err := r.resolve(ctx, client)
	if err != nil {
		return nil, WrapError(r.op("collection"), err)
	}
	return coll, nil
}

// DocumentRef resolves id within the collection for ctx, for use inside transactions.
func (r *BaseRepository[T]) DocumentRef(ctx context.Context, id string) (*firestore.DocumentRef, error) {
	if strings.TrimSpace(id) == "" {
		return nil, WrapError(r.op("document"), errors.New("document id is required"))
	}
	coll, err := r.Collection(ctx)
	if err != nil {
		return nil, err
	}
	return coll.Doc(id), nil
}

// Create inserts value under id. An existing document is a conflict.
func (r *BaseRepository[T]) Create(ctx context.Context, id string, value T) error {
	ref, err := r.DocumentRef(ctx, id)
	if err != nil {
		return err
	}
	_, err = ref.Create(ctx, value)
	return WrapError(r.op("create"), err)
}

// Replace overwrites an existing document. A missing document is not found rather than being
// recreated, so a concurrent delete wins.
func (r *BaseRepository[T]) Replace(ctx context.Context, id string, value T) error {
	ref, err := r.DocumentRef(ctx, id)
	if err != nil {
		return err
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return err
	}
	err = RunTransaction(ctx, client, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(ref); err != nil {
			return err
		}
		return tx.Set(ref, value)
	})
	return WrapError(r.op("replace"), err)
}

// Delete removes the document; a missing one is not found.
func (r *BaseRepository[T]) Delete(ctx context.Context, id string) error {
	ref, err := r.DocumentRef(ctx, id)
	if err != nil {
		return err
	}
	_, err = ref.Delete(ctx, firestore.Exists)
	return WrapError(r.op("delete"), err)
}

// Get loads one document.
func (r *BaseRepository[T]) Get(ctx context.Context, id string) (Document[T], error) {
	ref, err := r.DocumentRef(ctx, id)
	if err != nil {
		return Document[T]{}, err
	}
	snap, err := ref.Get(ctx)
	if err != nil {
		return Document[T]{}, WrapError(r.op("get"), err)
	}
	return r.decode(snap)
}

// Query runs build against the collection and decodes every result.
func (r *BaseRepository[T]) Query(ctx context.Context, build QueryBuilder) ([]Document[T], error) {
	coll, err := r.Collection(ctx)
	if err != nil {
		return nil, err
	}
	query := coll.Query
	if build != nil {
		query = build(query)
	}

	it := query.Documents(ctx)
	defer it.Stop()
	var docs []Document[T]
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return docs, nil
		}
		if err != nil {
			return nil, WrapError(r.op("query"), err)
		}
		doc, err := r.decode(snap)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
}

// Page fetches up to pageSize documents after the cursor values and reports whether more
// follow. It reads one extra document to find out.
func (r *BaseRepository[T]) Page(ctx context.Context, build QueryBuilder, pageSize int, startAfter []any) ([]Document[T], bool, error) {
	if pageSize <= 0 {
		return nil, false, WrapError(r.op("page"), errors.New("page size must be positive"))
	}
	docs, err := r.Query(ctx, func(q firestore.Query) firestore.Query {
		if build != nil {
			q = build(q)
		}
		if len(startAfter) > 0 {
			q = q.StartAfter(startAfter...)
		}
		return q.Limit(pageSize + 1)
	})
	if err != nil || len(docs) <= pageSize {
		return docs, false, err
	}
	return docs[:pageSize], true, nil
}

func (r *BaseRepository[T]) decode(snap *firestore.DocumentSnapshot) (Document[T], error) {
	var data T
	if err := snap.DataTo(&data); err != nil {
		return Document[T]{}, fmt.Errorf("%s: decode %s: %w", r.op("decode"), snap.Ref.ID, err)
	}
	return Document[T]{ID: snap.Ref.ID, Data: data, UpdateTime: snap.UpdateTime}, nil
}

func (r *BaseRepository[T]) op(action string) string {
	if r == nil || r.name == "" {
		return "firestore." + action
	}
	return r.name + "." + action
}
