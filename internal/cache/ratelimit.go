package cache

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// RateLimiter is a fixed-window counter on the same KV primitives backing the
// match cache.
//
// It is fail-open: if the counting backend errors, the request is allowed.
// Availability is favored over strict enforcement here because the limiter
// guards a recommendation endpoint, not authentication. Do not reuse this
// limiter for anything security-sensitive.
type RateLimiter struct {
	kv  KV
	log zerolog.Logger
}

// NewRateLimiter builds a limiter on the given KV.
func NewRateLimiter(kv KV, log zerolog.Logger) *RateLimiter {
	return &RateLimiter{kv: kv, log: log}
}

// CheckAndIncrement counts a request against identifier's current window and
// reports whether it is allowed plus how many requests remain. The first
// increment of a window sets the key's expiry; later increments ride the
// existing window.
func (r *RateLimiter) CheckAndIncrement(ctx context.Context, identifier string, maxRequests int, window time.Duration) (allowed bool, remaining int) {
	key := "rl:" + identifier

	count, err := r.kv.Incr(ctx, key)
	if err != nil {
		r.log.Warn().Err(err).Str("identifier", identifier).Msg("rate limit backend failed, allowing request")
		return true, maxRequests
	}

	if count == 1 {
		if err := r.kv.Expire(ctx, key, window); err != nil {
			r.log.Warn().Err(err).Str("identifier", identifier).Msg("rate limit expiry failed")
		}
	}

	remaining = maxRequests - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return count <= int64(maxRequests), remaining
}
