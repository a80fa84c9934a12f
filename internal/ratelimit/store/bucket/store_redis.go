package bucket

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"landgrid/internal/ratelimit/models"
)

// Redis implements the bucket store on a Redis sorted set per key, so the
// sliding window is shared across replicas. Scores are unix nanoseconds.
type Redis struct {
	client *redis.Client
}

// NewRedis creates a Redis-backed bucket store.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// Allow checks if a request is allowed and increments the counter.
func (s *Redis) Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error) {
	now := time.Now()
	cutoff := now.Add(-window).UnixNano()

	pipe := s.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(cutoff, 10))
	countCmd := pipe.ZCard(ctx, key)
	oldestCmd := pipe.ZRangeWithScores(ctx, key, 0, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("ratelimit window read: %w", err)
	}

	count := int(countCmd.Val())
	if count >= limit {
		resetAt := now.Add(window)
		if oldest := oldestCmd.Val(); len(oldest) > 0 {
			resetAt = time.Unix(0, int64(oldest[0].Score)).Add(window)
		}
		retry := int(time.Until(resetAt).Seconds()) + 1
		if retry < 1 {
			retry = 1
		}
		return &models.RateLimitResult{
			Allowed:    false,
			Limit:      limit,
			Remaining:  0,
			ResetAt:    resetAt,
			RetryAfter: retry,
		}, nil
	}

	member := strconv.FormatInt(now.UnixNano(), 10) + ":" + strconv.FormatInt(int64(count), 10)
	pipe = s.client.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixNano()), Member: member})
	pipe.Expire(ctx, key, window+time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("ratelimit window write: %w", err)
	}

	return &models.RateLimitResult{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - count - 1,
		ResetAt:   now.Add(window),
	}, nil
}

// Reset clears the counter for a key.
func (s *Redis) Reset(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

// CurrentCount returns the stored request count for a key. Entries older
// than the window are trimmed on the next Allow, so the count can briefly
// overshoot between requests.
func (s *Redis) CurrentCount(ctx context.Context, key string) (int, error) {
	n, err := s.client.ZCard(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("ratelimit count: %w", err)
	}
	return int(n), nil
}
