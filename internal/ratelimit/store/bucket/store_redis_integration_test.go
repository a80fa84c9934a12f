//go:build integration

package bucket_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"landgrid/internal/ratelimit/store/bucket"
	"landgrid/pkg/testutil/containers"
)

type RedisBucketStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *bucket.Redis
}

func TestRedisBucketStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisBucketStoreSuite))
}

func (s *RedisBucketStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
	s.store = bucket.NewRedis(s.redis.Client)
}

func (s *RedisBucketStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisBucketStoreSuite) TestAllowUpToLimit() {
	ctx := context.Background()
	const limit = 5

	for i := 0; i < limit; i++ {
		result, err := s.store.Allow(ctx, "test:key", limit, time.Minute)
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(limit-i-1, result.Remaining)
	}

	result, err := s.store.Allow(ctx, "test:key", limit, time.Minute)
	s.Require().NoError(err)
	s.False(result.Allowed)
	s.Zero(result.Remaining)
	s.GreaterOrEqual(result.RetryAfter, 1)
}

func (s *RedisBucketStoreSuite) TestWindowExpiry() {
	ctx := context.Background()

	_, err := s.store.Allow(ctx, "test:key:short", 1, time.Second)
	s.Require().NoError(err)

	result, err := s.store.Allow(ctx, "test:key:short", 1, time.Second)
	s.Require().NoError(err)
	s.False(result.Allowed)

	time.Sleep(1100 * time.Millisecond)

	result, err = s.store.Allow(ctx, "test:key:short", 1, time.Second)
	s.Require().NoError(err)
	s.True(result.Allowed)
}

func (s *RedisBucketStoreSuite) TestKeysAreIndependent() {
	ctx := context.Background()

	_, err := s.store.Allow(ctx, "test:key:a", 1, time.Minute)
	s.Require().NoError(err)

	result, err := s.store.Allow(ctx, "test:key:b", 1, time.Minute)
	s.Require().NoError(err)
	s.True(result.Allowed)
}

func (s *RedisBucketStoreSuite) TestReset() {
	ctx := context.Background()

	_, err := s.store.Allow(ctx, "test:key:reset", 1, time.Minute)
	s.Require().NoError(err)

	s.Require().NoError(s.store.Reset(ctx, "test:key:reset"))

	result, err := s.store.Allow(ctx, "test:key:reset", 1, time.Minute)
	s.Require().NoError(err)
	s.True(result.Allowed)
}
