package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

const (
	testLimit  = 3
	testWindow = time.Minute
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	now   time.Time
	ctx   context.Context
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.store.now = func() time.Time { return s.now }
	s.ctx = context.Background()
}

func (s *InMemoryStoreSuite) TestAllowUpToLimit() {
	for i := range testLimit {
		result, err := s.store.Allow(s.ctx, "ip:a", testLimit, testWindow)
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(testLimit-i-1, result.Remaining)
		s.Equal(testLimit, result.Limit)
	}

	result, err := s.store.Allow(s.ctx, "ip:a", testLimit, testWindow)
	s.Require().NoError(err)
	s.False(result.Allowed)
	s.Zero(result.Remaining)
	s.Equal(60, result.RetryAfter)
}

func (s *InMemoryStoreSuite) TestWindowSlides() {
	for range testLimit {
		_, err := s.store.Allow(s.ctx, "ip:b", testLimit, testWindow)
		s.Require().NoError(err)
	}

	s.now = s.now.Add(30 * time.Second)
	denied, err := s.store.Allow(s.ctx, "ip:b", testLimit, testWindow)
	s.Require().NoError(err)
	s.False(denied.Allowed)
	s.Equal(30, denied.RetryAfter)

	s.now = s.now.Add(31 * time.Second)
	allowed, err := s.store.Allow(s.ctx, "ip:b", testLimit, testWindow)
	s.Require().NoError(err)
	s.True(allowed.Allowed)
}

func (s *InMemoryStoreSuite) TestKeysAreIndependent() {
	for range testLimit {
		_, err := s.store.Allow(s.ctx, "ip:c", testLimit, testWindow)
		s.Require().NoError(err)
	}
	result, err := s.store.Allow(s.ctx, "ip:d", testLimit, testWindow)
	s.Require().NoError(err)
	s.True(result.Allowed)
}

func (s *InMemoryStoreSuite) TestReset() {
	for range testLimit {
		_, err := s.store.Allow(s.ctx, "ip:e", testLimit, testWindow)
		s.Require().NoError(err)
	}
	s.Require().NoError(s.store.Reset(s.ctx, "ip:e"))

	result, err := s.store.Allow(s.ctx, "ip:e", testLimit, testWindow)
	s.Require().NoError(err)
	s.True(result.Allowed)
}

func (s *InMemoryStoreSuite) TestConcurrentAllowNeverExceedsLimit() {
	store := NewInMemoryStore()
	const goroutines = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := store.Allow(s.ctx, "ip:f", 10, testWindow)
			if err == nil && result.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	s.Equal(10, allowed)
}
