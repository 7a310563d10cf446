package idempotency

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pfirestore "github.com/quantum-portal/api/internal/platform/firestore"
)

const (
	defaultCollection   = "idempotency_keys"
	defaultCleanupBatch = 100
	txAttempts          = 5
)

// FirestoreStore implements Store in a top-level Firestore collection. Document IDs are a hash
// of the scoped key, which already embeds the tenant.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
}

// NewFirestoreStore constructs a Firestore-backed store. An empty collection uses idempotency_keys.
func NewFirestoreStore(client *firestore.Client, collection string) *FirestoreStore {
	if collection == "" {
		collection = defaultCollection
	}
	return &FirestoreStore{client: client, collection: collection}
}

func (s *FirestoreStore) doc(key string) *firestore.DocumentRef {
	return s.client.Collection(s.collection).Doc(sha256Hex([]byte(key)))
}

func (s *FirestoreStore) update(ctx context.Context, key string, fn func(tx *firestore.Transaction, ref *firestore.DocumentRef, current *Record) error) error {
	ref := s.doc(key)
	return pfirestore.RunTransaction(ctx, s.client, func(ctx context.Context, tx *firestore.Transaction) error {
		current, err := loadRecord(tx, ref)
		if err != nil {
			return err
		}
		return fn(tx, ref, current)
	}, pfirestore.WithTxAttempts(txAttempts))
}

// Reserve implements Store.
func (s *FirestoreStore) Reserve(ctx context.Context, key, fingerprint string, now time.Time, ttl time.Duration) (Reservation, error) {
	var result Reservation
	err := s.update(ctx, key, func(tx *firestore.Transaction, ref *firestore.DocumentRef, current *Record) error {
		res, write, err := reserve(current, key, fingerprint, now, ttl)
		if err != nil {
			return err
		}
		result = res
		if write {
			return tx.Set(ref, toFirestoreRecord(res.Record))
		}
		return nil
	})
	return result, err
}

// SaveResponse implements Store.
func (s *FirestoreStore) SaveResponse(ctx context.Context, key, fingerprint string, resp Response, now time.Time, ttl time.Duration) error {
	return s.update(ctx, key, func(tx *firestore.Transaction, ref *firestore.DocumentRef, current *Record) error {
		record, err := completed(current, key, fingerprint, resp, now, ttl)
		if err != nil {
			return err
		}
		return tx.Set(ref, toFirestoreRecord(record))
	})
}

// Release drops a pending reservation held by fingerprint.
func (s *FirestoreStore) Release(ctx context.Context, key, fingerprint string) error {
	return s.update(ctx, key, func(tx *firestore.Transaction, ref *firestore.DocumentRef, current *Record) error {
		if current == nil || current.Fingerprint != fingerprint || current.Status != StatusPending {
			return nil
		}
		return tx.Delete(ref)
	})
}

// CleanupExpired deletes up to limit expired records, oldest expiry first.
func (s *FirestoreStore) CleanupExpired(ctx context.Context, now time.Time, limit int) (int, error) {
	if limit <= 0 {
		limit = defaultCleanupBatch
	}
	docs, err := s.client.Collection(s.collection).
		Where("expires_at", "<=", now.UTC()).
		OrderBy("expires_at", firestore.Asc).
		Limit(limit).
		Documents(ctx).GetAll()
	if err != nil || len(docs) == 0 {
		return 0, pfirestore.WrapError("idempotency.cleanup", err)
	}
	writer := s.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(docs))
	for _, doc := range docs {
		job, err := writer.Delete(doc.Ref)
		if err != nil {
			writer.End()
			return 0, pfirestore.WrapError("idempotency.cleanup", err)
		}
		jobs = append(jobs, job)
	}
	writer.End()

	removed := 0
	for _, job := range jobs {
		if _, err := job.Results(); err == nil || status.Code(err) == codes.NotFound {
			removed++
		}
	}
	return removed, nil
}

func loadRecord(tx *firestore.Transaction, ref *firestore.DocumentRef) (*Record, error) {
	snap, err := tx.Get(ref)
	if status.Code(err) == codes.NotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var doc firestoreRecord
	if err := snap.DataTo(&doc); err != nil {
		return nil, err
	}
	record := doc.toRecord()
	return &record, nil
}

type firestoreRecord struct {
	Key             string              `firestore:"key"`
	Fingerprint     string              `firestore:"fingerprint"`
	Status          string              `firestore:"status"`
	ResponseStatus  int                 `firestore:"response_status"`
	ResponseHeaders map[string][]string `firestore:"response_headers"`
	ResponseBody    []byte              `firestore:"response_body"`
	CreatedAt       time.Time           `firestore:"created_at"`
	UpdatedAt       time.Time           `firestore:"updated_at"`
	ExpiresAt       time.Time           `firestore:"expires_at"`
}

func toFirestoreRecord(r Record) firestoreRecord {
	return firestoreRecord{
		Key:             r.Key,
		Fingerprint:     r.Fingerprint,
		Status:          string(r.Status),
		ResponseStatus:  r.ResponseStatus,
		ResponseHeaders: r.ResponseHeaders,
		ResponseBody:    r.ResponseBody,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
		ExpiresAt:       r.ExpiresAt,
	}
}

func (r firestoreRecord) toRecord() Record {
	return Record{
		Key:             r.Key,
		Fingerprint:     r.Fingerprint,
		Status:          Status(r.Status),
		ResponseStatus:  r.ResponseStatus,
		ResponseHeaders: r.ResponseHeaders,
		ResponseBody:    r.ResponseBody,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
		ExpiresAt:       r.ExpiresAt,
	}
}
