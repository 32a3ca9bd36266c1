//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"docverify/internal/records/models"
	"docverify/internal/records/store"
	"docverify/pkg/platform/sentinel"
	"docverify/pkg/testutil/containers"
)

type CachedStoreSuite struct {
	suite.Suite
	redis   *containers.RedisContainer
	backing *store.InMemoryStore
	cache   *store.CachedStore
}

func TestCachedStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(CachedStoreSuite))
}

func (s *CachedStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
}

func (s *CachedStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
	s.backing = store.NewInMemory()
	s.cache = store.NewCached(s.backing, s.redis.Client, 5*time.Minute, nil)
}

func (s *CachedStoreSuite) decided(status models.Status) *models.Record {
	ctx := context.Background()
	record := pendingRecord("student", time.Now())
	s.Require().NoError(s.cache.Create(ctx, record))
	s.Require().NoError(s.cache.UpdateOutcome(ctx, record.ID, models.Outcome{Status: status, DecidedAt: time.Now()}))
	return record
}

func (s *CachedStoreSuite) TestReadThroughPopulatesCache() {
	ctx := context.Background()
	record := s.decided(models.StatusVerified)

	found, err := s.cache.FindByID(ctx, record.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusVerified, found.Status)

	n, err := s.redis.Client.Exists(ctx, "docverify:record:"+record.ID.String()).Result()
	s.Require().NoError(err)
	s.Equal(int64(1), n)
}

func (s *CachedStoreSuite) TestUpdateInvalidates() {
	ctx := context.Background()
	record := s.decided(models.StatusDeliveryFailed)

	_, err := s.cache.FindByID(ctx, record.ID)
	s.Require().NoError(err)

	s.Require().NoError(s.cache.UpdateOutcome(ctx, record.ID, models.Outcome{Status: models.StatusVerified, DecidedAt: time.Now()}))

	found, err := s.cache.FindByID(ctx, record.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusVerified, found.Status)
}

func (s *CachedStoreSuite) TestPendingRecordsAreNotCached() {
	ctx := context.Background()
	record := pendingRecord("employee", time.Now())
	s.Require().NoError(s.cache.Create(ctx, record))

	_, err := s.cache.FindByID(ctx, record.ID)
	s.Require().NoError(err)

	n, err := s.redis.Client.Exists(ctx, "docverify:record:"+record.ID.String()).Result()
	s.Require().NoError(err)
	s.Zero(n)
}

func (s *CachedStoreSuite) TestMissPropagatesNotFound() {
	_, err := s.cache.FindByID(context.Background(), pendingRecord("student", time.Now()).ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *CachedStoreSuite) TestTTLEviction() {
	ctx := context.Background()
	short := store.NewCached(s.backing, s.redis.Client, 50*time.Millisecond, nil)
	record := s.decided(models.StatusVerified)

	_, err := short.FindByID(ctx, record.ID)
	s.Require().NoError(err)

	s.Eventually(func() bool {
		n, err := s.redis.Client.Exists(ctx, "docverify:record:"+record.ID.String()).Result()
		return err == nil && n == 0
	}, 2*time.Second, 25*time.Millisecond)
}
