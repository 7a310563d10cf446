package idempotency

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps records in process memory for tests and the cmsctl memory backend.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (s *MemoryStore) current(key string) *Record {
	if record, ok := s.records[key]; ok {
		return &record
	}
	return nil
}

// Reserve implements Store.
func (s *MemoryStore) Reserve(_ context.Context, key, fingerprint string, now time.Time, ttl time.Duration) (Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, write, err := reserve(s.current(key), key, fingerprint, now, ttl)
	if err == nil && write {
		s.records[key] = res.Record
	}
	return res, err
}

// SaveResponse implements Store.
func (s *MemoryStore) SaveResponse(_ context.Context, key, fingerprint string, resp Response, now time.Time, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, err := completed(s.current(key), key, fingerprint, resp, now, ttl)
	if err != nil {
		return err
	}
	s.records[key] = record
	return nil
}

// Release drops a pending reservation held by fingerprint. Completed records stay replayable.
func (s *MemoryStore) Release(_ context.Context, key, fingerprint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record, ok := s.records[key]; ok && record.Fingerprint == fingerprint && record.Status == StatusPending {
		delete(s.records, key)
	}
	return nil
}

// CleanupExpired removes up to limit expired records, oldest expiry first. A non-positive limit
// removes all of them.
func (s *MemoryStore) CleanupExpired(_ context.Context, now time.Time, limit int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expired []Record
	for _, record := range s.records {
		if record.expired(now) {
			expired = append(expired, record)
		}
	}
	sort.Slice(expired, func(i, j int) bool { return expired[i].ExpiresAt.Before(expired[j].ExpiresAt) })
	if limit > 0 && len(expired) > limit {
		expired = expired[:limit]
	}
	for _, record := range expired {
		delete(s.records, record.Key)
	}
	return len(expired), nil
}

// Len reports how many records are held, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
