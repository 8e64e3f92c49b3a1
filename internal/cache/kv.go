// Package cache provides the key-value layer behind the match result cache
// and the rate limiter. Everything here is ephemeral and non-authoritative;
// the relational store remains the source of truth and every consumer of this
// package degrades fail-open when the backend errors.
package cache

import (
	"context"
	"time"
)

// KV is the minimal key-value surface the cache and rate limiter are built
// on: get, set-with-TTL, counter increment, expiry, and prefix-scoped delete.
// Any call may fail independently of the relational store; callers treat
// failures as misses or allow-by-default, never as request failures.
type KV interface {
	// Get returns the value for key, or ok=false if absent or expired.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// SetTTL stores value under key, expiring after ttl.
	SetTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Incr atomically increments the counter at key and returns the new
	// count. A missing key counts from zero.
	Incr(ctx context.Context, key string) (int64, error)

	// Expire sets the remaining lifetime of an existing key. Expiring a
	// missing key is a no-op.
	Expire(ctx context.Context, key string, ttl time.Duration) error

	// DeletePrefix removes every key with the given prefix.
	DeletePrefix(ctx context.Context, prefix string) error

	// Close releases the backend.
	Close() error
}
