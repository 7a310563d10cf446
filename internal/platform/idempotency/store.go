package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"time"
)

// DefaultTTL is how long a key stays reserved or replayable.
const DefaultTTL = 24 * time.Hour

// Status is the lifecycle state of a stored key.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// ReservationState is the outcome of Reserve.
type ReservationState int

const (
	// ReservationStateNew: the caller owns the key and must SaveResponse or Release it.
	ReservationStateNew ReservationState = iota
	// ReservationStateCompleted: Record holds a response to replay.
	ReservationStateCompleted
	// ReservationStatePending: another request holds the key.
	ReservationStatePending
)

// Reservation pairs the outcome with the stored record.
type Reservation struct {
	State  ReservationState
	Record Record
}

// Record is one stored key.
type Record struct {
	Key             string
	Fingerprint     string
	Status          Status
	ResponseStatus  int
	ResponseHeaders map[string][]string
	ResponseBody    []byte
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ExpiresAt       time.Time
}

// Response is what gets replayed for a completed key.
type Response struct {
	Status  int
	Headers http.Header
	Body    []byte
}

// Store persists reservations and responses. Keys arrive already scoped to tenant and caller.
type Store interface {
	Reserve(ctx context.Context, key, fingerprint string, now time.Time, ttl time.Duration) (Reservation, error)
	SaveResponse(ctx context.Context, key, fingerprint string, resp Response, now time.Time, ttl time.Duration) error
	Release(ctx context.Context, key, fingerprint string) error
	CleanupExpired(ctx context.Context, now time.Time, limit int) (int, error)
}

// ErrFingerprintMismatch reports a key reused for a different request.
var ErrFingerprintMismatch = errors.New("idempotency: key reserved for different request fingerprint")

// replayedHeaders lists the response headers worth replaying for content API writes. Everything
// else, including hop-by-hop and per-request headers, is regenerated on replay.
var replayedHeaders = []string{
	"Content-Type",
	"Content-Language",
	"Location",
	"Etag",
	"Last-Modified",
	"Cache-Control",
}

// reserve decides what Reserve returns given the current stored record. write is true when the
// returned record must be persisted.
func reserve(current *Record, key, fingerprint string, now time.Time, ttl time.Duration) (res Reservation, write bool, err error) {
	if current == nil || current.expired(now) {
		return Reservation{State: ReservationStateNew, Record: pending(key, fingerprint, now, ttl)}, true, nil
	}
	if current.Fingerprint != fingerprint {
		return Reservation{}, false, ErrFingerprintMismatch
	}
	if current.Status == StatusCompleted {
		return Reservation{State: ReservationStateCompleted, Record: *current}, false, nil
	}
	return Reservation{State: ReservationStatePending, Record: *current}, false, nil
}

// completed returns the record to store after a response. A missing or expired reservation is
// recreated so the response is still replayable.
func completed(current *Record, key, fingerprint string, resp Response, now time.Time, ttl time.Duration) (Record, error) {
	var base Record
	switch {
	case current == nil || current.expired(now):
		base = pending(key, fingerprint, now, ttl)
	case current.Fingerprint != fingerprint:
		return Record{}, ErrFingerprintMismatch
	default:
		base = *current
	}
	now = now.UTC()
	base.Status = StatusCompleted
	base.ResponseStatus = resp.Status
	base.ResponseHeaders = replayable(resp.Headers)
	base.ResponseBody = append([]byte(nil), resp.Body...)
	base.UpdatedAt = now
	base.ExpiresAt = now.Add(orDefaultTTL(ttl))
	return base, nil
}

func pending(key, fingerprint string, now time.Time, ttl time.Duration) Record {
	now = now.UTC()
	return Record{
		Key:         key,
		Fingerprint: fingerprint,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
		ExpiresAt:   now.Add(orDefaultTTL(ttl)),
	}
}

func (r Record) expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && !now.Before(r.ExpiresAt)
}

func orDefaultTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return DefaultTTL
	}
	return ttl
}

func replayable(header http.Header) map[string][]string {
	var out map[string][]string
	for _, name := range replayedHeaders {
		values := header.Values(name)
		if len(values) == 0 {
			continue
		}
		if out == nil {
			out = make(map[string][]string, len(replayedHeaders))
		}
		out[http.CanonicalHeaderKey(name)] = append([]string(nil), values...)
	}
	return out
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
