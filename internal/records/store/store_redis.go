package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"docverify/internal/records/models"
)

const recordKeyPrefix = "docverify:record:"

// CachedStore reads records through a Redis cache in front of another Store.
// Writes go to the backing store first and then invalidate the cached copy.
type CachedStore struct {
	backing Store
	client  *redis.Client
	ttl     time.Duration
	logger  *slog.Logger
}

// NewCached wraps backing with a Redis read-through cache.
func NewCached(backing Store, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedStore{backing: backing, client: client, ttl: ttl, logger: logger}
}

func (s *CachedStore) Create(ctx context.Context, record *models.Record) error {
	return s.backing.Create(ctx, record)
}

func (s *CachedStore) UpdateOutcome(ctx context.Context, id uuid.UUID, outcome models.Outcome) error {
	if err := s.backing.UpdateOutcome(ctx, id, outcome); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

// FindByID serves from Redis when possible. Cache failures fall back to the backing store.
func (s *CachedStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Record, error) {
	key := recordKeyPrefix + id.String()

	raw, err := s.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var record models.Record
		if err := json.Unmarshal(raw, &record); err == nil {
			return &record, nil
		}
		s.invalidate(ctx, id)
	case !errors.Is(err, redis.Nil):
		s.logger.WarnContext(ctx, "record cache read failed", "id", id, "error", err)
	}

	record, err := s.backing.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.store(ctx, record); err != nil {
		s.logger.WarnContext(ctx, "record cache write failed", "id", id, "error", err)
	}
	return record, nil
}

func (s *CachedStore) List(ctx context.Context, filter models.ListFilter) ([]*models.Record, error) {
	return s.backing.List(ctx, filter)
}

// pending records are not cached because their outcome is about to change.
func (s *CachedStore) store(ctx context.Context, record *models.Record) error {
	if record.Status == models.StatusPending {
		return nil
	}
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	return s.client.Set(ctx, recordKeyPrefix+record.ID.String(), raw, s.ttl).Err()
}

func (s *CachedStore) invalidate(ctx context.Context, id uuid.UUID) {
	if err := s.client.Del(ctx, recordKeyPrefix+id.String()).Err(); err != nil {
		s.logger.WarnContext(ctx, "record cache invalidation failed", "id", id, "error", err)
	}
}
