// Package service decides whether a request fits its caller's budget. Keys
// are per-account for authenticated traffic and per-IP otherwise.
package service

import (
	"context"
	"time"

	"landgrid/internal/ratelimit/metrics"
	"landgrid/internal/ratelimit/models"
)

// BucketStore counts requests per key over a sliding window.
type BucketStore interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error)
	Reset(ctx context.Context, key string) error
}

// Service applies per-class budgets on top of a bucket store.
type Service struct {
	buckets BucketStore
	limits  map[models.EndpointClass]models.Limit
	metrics *metrics.Metrics
}

type Option func(s *Service)

// WithLimits overrides the default per-class budgets.
func WithLimits(limits map[models.EndpointClass]models.Limit) Option {
	return func(s *Service) {
		for class, l := range limits {
			s.limits[class] = l
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(buckets BucketStore, opts ...Option) *Service {
	s := &Service{
		buckets: buckets,
		limits:  models.DefaultLimits(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CheckIP enforces the class budget for an unauthenticated caller.
func (s *Service) CheckIP(ctx context.Context, ip string, class models.EndpointClass) (*models.RateLimitResult, error) {
	return s.check(ctx, models.IPKey(ip, class), class)
}

// CheckAccount enforces the class budget for an authenticated caller.
func (s *Service) CheckAccount(ctx context.Context, accountID string, class models.EndpointClass) (*models.RateLimitResult, error) {
	return s.check(ctx, models.AccountKey(accountID, class), class)
}

func (s *Service) check(ctx context.Context, key string, class models.EndpointClass) (*models.RateLimitResult, error) {
	limit, ok := s.limits[class]
	if !ok {
		limit = s.limits[models.ClassWrite]
	}
	result, err := s.buckets.Allow(ctx, key, limit.Requests, limit.Window)
	if err != nil {
		if s.metrics != nil {
			s.metrics.IncrementCheckFailures()
		}
		return nil, err
	}
	if s.metrics != nil {
		if result.Allowed {
			s.metrics.IncrementAllowed(string(class))
		} else {
			s.metrics.IncrementBlocked(string(class))
		}
	}
	return result, nil
}

// Reset clears the budget for one account, for operator use after an
// incident.
func (s *Service) Reset(ctx context.Context, accountID string, class models.EndpointClass) error {
	return s.buckets.Reset(ctx, models.AccountKey(accountID, class))
}
