package memory

import (
	"context"
	"maps"
	"sort"
	"sync"

	"github.com/cloud8421/recipe/pkg/domain"
)

// Store implements ports.RunStore in memory.
// Safe for concurrent use.
type Store struct {
	mu   sync.RWMutex
	data map[string]*domain.RunRecord
}

// NewStore creates a new in-memory run store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.RunRecord),
	}
}

// Save persists the record in memory, keyed by correlation id.
func (s *Store) Save(_ context.Context, rec *domain.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[rec.CorrelationID] = copyRecord(rec)
	return nil
}

// Load retrieves a record by correlation id.
func (s *Store) Load(_ context.Context, correlationID string) (*domain.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.data[correlationID]
	if !ok {
		return nil, domain.ErrRunNotFound
	}
	return copyRecord(rec), nil
}

// List returns all recorded runs, most recent first.
func (s *Store) List(_ context.Context) ([]*domain.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := make([]*domain.RunRecord, 0, len(s.data))
	for _, rec := range s.data {
		recs = append(recs, copyRecord(rec))
	}
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].StartedAt.Equal(recs[j].StartedAt) {
			return recs[i].CorrelationID < recs[j].CorrelationID
		}
		return recs[i].StartedAt.After(recs[j].StartedAt)
	})
	return recs, nil
}

// Delete removes a record.
func (s *Store) Delete(_ context.Context, correlationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, correlationID)
	return nil
}

// copyRecord isolates callers from the stored value by pointer.
func copyRecord(rec *domain.RunRecord) *domain.RunRecord {
	out := *rec
	out.Values = maps.Clone(rec.Values)
	return &out
}
