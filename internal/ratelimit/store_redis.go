package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "docverify:ratelimit:"

// slidingWindow trims the sorted set to the window, then adds the hit if under the limit.
// Returns {allowed, count, oldest_score_ms}.
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
local allowed = 0
if count < limit then
  redis.call('ZADD', key, now, member)
  count = count + 1
  allowed = 1
end
redis.call('PEXPIRE', key, window)
local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
local oldestScore = now
if oldest[2] then oldestScore = tonumber(oldest[2]) end
return {allowed, count, oldestScore}
`)

// RedisStore shares windows across replicas using one sorted set per key.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (*Result, error) {
	now := time.Now()
	res, err := slidingWindow.Run(ctx, s.client, []string{keyPrefix + key},
		now.UnixMilli(), window.Milliseconds(), limit, strconv.FormatInt(now.UnixNano(), 10)+"-"+uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("rate limit script: %w", err)
	}
	if len(res) != 3 {
		return nil, fmt.Errorf("rate limit script returned %d values", len(res))
	}

	count := int(res[1])
	resetAt := time.UnixMilli(res[2]).Add(window)
	result := &Result{
		Allowed:   res[0] == 1,
		Limit:     limit,
		Remaining: max(limit-count, 0),
		ResetAt:   resetAt,
	}
	if !result.Allowed {
		result.RetryAfter = retryAfter(resetAt, now)
	}
	return result, nil
}

func (s *RedisStore) Reset(ctx context.Context, key string) error {
	return s.client.Del(ctx, keyPrefix+key).Err()
}
