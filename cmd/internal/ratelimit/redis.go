package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "conduit:ratelimit:"

// Redis is a fixed-window limiter shared through Redis. The first Hit in a window
// starts it; the counter expires with the window.
type Redis struct {
	rdb    redis.Cmdable
	rule   Rule
	prefix string
}

// NewRedis returns a Redis limiter. name separates counters of different rules.
func NewRedis(rdb redis.Cmdable, name string, rule Rule) *Redis {
	return &Redis{rdb: rdb, rule: rule, prefix: redisKeyPrefix + name + ":"}
}

// NewRedisClient parses a redis:// URL into a client.
func NewRedisClient(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("ratelimit: redis url: %w", err)
	}
	return redis.NewClient(opt), nil
}

// Blocked implements Limiter.
func (r *Redis) Blocked(ctx context.Context, key string, _ time.Time) (time.Duration, bool, error) {
	if !r.rule.Enabled() {
		return 0, false, nil
	}
	k := r.prefix + key

	pipe := r.rdb.Pipeline()
	count := pipe.Get(ctx, k)
	ttl := pipe.PTTL(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return 0, false, err
	}

	n, err := count.Int()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	if n < r.rule.Max {
		return 0, false, nil
	}

	retry := ttl.Val()
	if retry <= 0 {
		retry = r.rule.Window
	}
	return retry, true, nil
}

// Hit implements Limiter.
func (r *Redis) Hit(ctx context.Context, key string, _ time.Time) error {
	if !r.rule.Enabled() {
		return nil
	}
	k := r.prefix + key

	pipe := r.rdb.TxPipeline()
	pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, r.rule.Window)
	_, err := pipe.Exec(ctx)
	return err
}

// Reset implements Limiter.
func (r *Redis) Reset(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, r.prefix+key).Err()
}
