package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"docverify/internal/records/models"
	"docverify/pkg/platform/sentinel"
)

// InMemoryStore keeps records in a map. Used when no database is configured.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]models.Record
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{records: make(map[uuid.UUID]models.Record)}
}

func (s *InMemoryStore) Create(_ context.Context, record *models.Record) error {
	if record == nil {
		return fmt.Errorf("record is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[record.ID]; exists {
		return fmt.Errorf("record %s: %w", record.ID, sentinel.ErrConflict)
	}
	s.records[record.ID] = clone(*record)
	return nil
}

func (s *InMemoryStore) UpdateOutcome(_ context.Context, id uuid.UUID, outcome models.Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[id]
	if !ok {
		return fmt.Errorf("record %s: %w", id, sentinel.ErrNotFound)
	}
	record.Apply(outcome)
	s.records[id] = clone(record)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id uuid.UUID) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("record %s: %w", id, sentinel.ErrNotFound)
	}
	out := clone(record)
	return &out, nil
}

// List returns matching records, newest first.
func (s *InMemoryStore) List(_ context.Context, filter models.ListFilter) ([]*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Record, 0)
	for _, record := range s.records {
		if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, record.Status) {
			continue
		}
		if filter.Category != "" && record.Category != filter.Category {
			continue
		}
		r := clone(record)
		out = append(out, &r)
	}

	slices.SortFunc(out, func(a, b *models.Record) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if limit := filter.EffectiveLimit(); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// clone copies the maps so callers cannot mutate stored state.
func clone(r models.Record) models.Record {
	if r.Files != nil {
		files := make(map[string]string, len(r.Files))
		for k, v := range r.Files {
			files[k] = v
		}
		r.Files = files
	}
	if r.Extracted != nil {
		extracted := make(map[string]*string, len(r.Extracted))
		for k, v := range r.Extracted {
			if v != nil {
				val := *v
				v = &val
			}
			extracted[k] = v
		}
		r.Extracted = extracted
	}
	if r.FaceDistance != nil {
		d := *r.FaceDistance
		r.FaceDistance = &d
	}
	return r
}
