package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landgrid/internal/ratelimit/models"
	"landgrid/internal/ratelimit/store/bucket"
)

func TestCheckAccount(t *testing.T) {
	ctx := context.Background()
	svc := New(bucket.NewMemory(), WithLimits(map[models.EndpointClass]models.Limit{
		models.ClassWrite: {Requests: 2, Window: time.Minute},
	}))

	t.Run("allows within budget", func(t *testing.T) {
		result, err := svc.CheckAccount(ctx, "acct-1", models.ClassWrite)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
		assert.Equal(t, 1, result.Remaining)
	})

	t.Run("blocks over budget", func(t *testing.T) {
		_, err := svc.CheckAccount(ctx, "acct-1", models.ClassWrite)
		require.NoError(t, err)

		result, err := svc.CheckAccount(ctx, "acct-1", models.ClassWrite)
		require.NoError(t, err)
		assert.False(t, result.Allowed)
	})

	t.Run("classes have separate budgets", func(t *testing.T) {
		result, err := svc.CheckAccount(ctx, "acct-1", models.ClassRead)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	})

	t.Run("accounts have separate budgets", func(t *testing.T) {
		result, err := svc.CheckAccount(ctx, "acct-2", models.ClassWrite)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	})

	t.Run("reset clears the budget", func(t *testing.T) {
		require.NoError(t, svc.Reset(ctx, "acct-1", models.ClassWrite))

		result, err := svc.CheckAccount(ctx, "acct-1", models.ClassWrite)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	})
}

func TestCheckIP(t *testing.T) {
	ctx := context.Background()
	svc := New(bucket.NewMemory(), WithLimits(map[models.EndpointClass]models.Limit{
		models.ClassRead: {Requests: 1, Window: time.Minute},
	}))

	result, err := svc.CheckIP(ctx, "203.0.113.7", models.ClassRead)
	require.NoError(t, err)
	assert.True(t, result.Allowed)

	result, err = svc.CheckIP(ctx, "203.0.113.7", models.ClassRead)
	require.NoError(t, err)
	assert.False(t, result.Allowed)

	// IP and account keyspaces never collide.
	result, err = svc.CheckAccount(ctx, "203.0.113.7", models.ClassRead)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}
