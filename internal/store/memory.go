package store

import (
	"errors"
	"sync"
	"time"

	"github.com/i474232898/audible-weather/internal/narration"
)

var (
	// ErrNotFound is returned when no narration record exists for an ID.
	ErrNotFound = errors.New("narration record not found")
)

var _ narration.Journal = (*MemoryStore)(nil)

// MemoryStore is a concurrency-safe in-memory narration journal.
type MemoryStore struct {
	mu sync.RWMutex

	// records in insertion order, oldest first
	records []narration.Record
	index   map[string]int

	// retention configuration
	maxRecords int           // max number of records kept
	maxAge     time.Duration // optional max age for records
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxRecords is <= 0, it is treated as unlimited.
func NewMemoryStore(maxRecords int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		index:      make(map[string]int),
		maxRecords: maxRecords,
		maxAge:     maxAge,
	}
}

// Save appends a record (or replaces one with the same ID) and enforces retention.
func (s *MemoryStore) Save(rec narration.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i, ok := s.index[rec.ID]; ok {
		s.records[i] = rec
		return nil
	}
	s.records = append(s.records, rec)

	// Enforce retention by count.
	if s.maxRecords > 0 && len(s.records) > s.maxRecords {
		over := len(s.records) - s.maxRecords
		s.records = s.records[over:]
	}

	// Enforce retention by age.
	if s.maxAge > 0 {
		cutoff := time.Now().Add(-s.maxAge)
		i := 0
		for ; i < len(s.records); i++ {
			if !s.records[i].StartedAt.Before(cutoff) {
				break
			}
		}
		s.records = s.records[i:]
	}

	s.reindex()
	return nil
}

// Get returns the record with the given ID.
func (s *MemoryStore) Get(id string) (narration.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[id]
	if !ok {
		return narration.Record{}, ErrNotFound
	}
	return s.records[i], nil
}

// Recent returns up to limit records, newest first. A limit <= 0 returns all.
func (s *MemoryStore) Recent(limit int) ([]narration.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.records)
	if limit > 0 && limit < n {
		n = limit
	}

	result := make([]narration.Record, 0, n)
	for i := len(s.records) - 1; i >= 0 && len(result) < n; i-- {
		result = append(result, s.records[i])
	}
	return result, nil
}

// Prune drops records started before cutoff and returns how many were removed.
func (s *MemoryStore) Prune(cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	for _, rec := range s.records {
		if !rec.StartedAt.Before(cutoff) {
			kept = append(kept, rec)
		}
	}
	removed := int64(len(s.records) - len(kept))
	s.records = kept
	s.reindex()
	return removed, nil
}

func (s *MemoryStore) reindex() {
	s.index = make(map[string]int, len(s.records))
	for i, rec := range s.records {
		s.index[rec.ID] = i
	}
}
