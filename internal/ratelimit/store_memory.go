package ratelimit

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore keeps one sliding window per key. Not shared across replicas.
type InMemoryStore struct {
	mu      sync.Mutex
	windows map[string][]time.Time
	now     func() time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{windows: make(map[string][]time.Time), now: time.Now}
}

// Allow records a hit for key if fewer than limit hits happened within window.
func (s *InMemoryStore) Allow(_ context.Context, key string, limit int, window time.Duration) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	hits := prune(s.windows[key], now.Add(-window))

	if len(hits) >= limit {
		s.windows[key] = hits
		resetAt := hits[0].Add(window)
		return &Result{
			Allowed:    false,
			Limit:      limit,
			Remaining:  0,
			ResetAt:    resetAt,
			RetryAfter: retryAfter(resetAt, now),
		}, nil
	}

	hits = append(hits, now)
	s.windows[key] = hits
	return &Result{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - len(hits),
		ResetAt:   hits[0].Add(window),
	}, nil
}

// Reset forgets every hit for key.
func (s *InMemoryStore) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.windows, key)
	return nil
}

// prune drops timestamps at or before cutoff. hits is sorted ascending.
func prune(hits []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for ; i < len(hits); i++ {
		if hits[i].After(cutoff) {
			break
		}
	}
	return hits[i:]
}
