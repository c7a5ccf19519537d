package ratelimit

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Redis tests are opt-in and require CONDUIT_REDIS_URL.
func newTestRedis(t *testing.T, rule Rule) *Redis {
	t.Helper()

	raw := strings.TrimSpace(os.Getenv("CONDUIT_REDIS_URL"))
	if raw == "" {
		t.Skip("integration test skipped: CONDUIT_REDIS_URL is not set")
	}
	rdb, err := NewRedisClient(raw)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		t.Skipf("integration test skipped: redis unreachable: %v", err)
	}
	return NewRedis(rdb, "test-"+uuid.NewString(), rule)
}

func TestRedis_BlocksAfterMax(t *testing.T) {
	r := newTestRedis(t, Rule{Max: 2, Window: time.Minute})
	ctx := context.Background()
	now := time.Now()

	_, blocked, err := r.Blocked(ctx, "k", now)
	require.NoError(t, err)
	require.False(t, blocked)

	require.NoError(t, r.Hit(ctx, "k", now))
	require.NoError(t, r.Hit(ctx, "k", now))

	retry, blocked, err := r.Blocked(ctx, "k", now)
	require.NoError(t, err)
	assert.True(t, blocked)
	assert.Greater(t, retry, time.Duration(0))
	assert.LessOrEqual(t, retry, time.Minute)

	require.NoError(t, r.Reset(ctx, "k"))
	_, blocked, err = r.Blocked(ctx, "k", now)
	require.NoError(t, err)
	assert.False(t, blocked)
}

func TestNewRedisClient_BadURL(t *testing.T) {
	_, err := NewRedisClient("not a url")
	assert.Error(t, err)
}
