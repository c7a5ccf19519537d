// Package ratelimit counts failed attempts per key and blocks keys that exceed a limit.
//
// Two backends share the Limiter interface: Memory (a sliding window per key,
// process-local) and Redis (a fixed window per key, shared between replicas).
package ratelimit

import (
	"context"
	"time"
)

// Limiter tracks failures per key.
//
// Blocked does not record anything; callers check it before doing work and call
// Hit only when the attempt failed.
type Limiter interface {
	// Blocked reports whether key is over its limit and, if so, how long until it may retry.
	Blocked(ctx context.Context, key string, now time.Time) (retryAfter time.Duration, blocked bool, err error)
	Hit(ctx context.Context, key string, now time.Time) error
	Reset(ctx context.Context, key string) error
}

// Rule is a limit of Max events per Window.
type Rule struct {
	Max    int
	Window time.Duration
}

// Enabled reports whether the rule limits anything.
func (r Rule) Enabled() bool { return r.Max > 0 && r.Window > 0 }
