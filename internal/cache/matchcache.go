package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"studybuddy/backend/internal/match"
)

// Default TTLs. Match results go stale fast because they depend on mutable
// availability and connection state, so they get a much shorter lifetime than
// profile projections.
const (
	DefaultMatchTTL   = 300 * time.Second
	DefaultProfileTTL = 900 * time.Second
)

// MatchCache stores computed match result sets and profile projections with a
// TTL and user-scoped invalidation. Every key leads with the owning user's ID
// so invalidating a user is a single prefix delete across all namespaces.
//
// The cache is strictly fail-open: a backend error on read is a miss, and a
// backend error on write is logged and swallowed. Engine correctness never
// depends on it; it only affects latency.
type MatchCache struct {
	kv         KV
	log        zerolog.Logger
	matchTTL   time.Duration
	profileTTL time.Duration
}

// NewMatchCache builds a cache on the given KV. Non-positive TTLs fall back
// to the defaults.
func NewMatchCache(kv KV, log zerolog.Logger, matchTTL, profileTTL time.Duration) *MatchCache {
	if matchTTL <= 0 {
		matchTTL = DefaultMatchTTL
	}
	if profileTTL <= 0 {
		profileTTL = DefaultProfileTTL
	}
	return &MatchCache{kv: kv, log: log, matchTTL: matchTTL, profileTTL: profileTTL}
}

func matchKey(userID uint, mc match.Context) string {
	return fmt.Sprintf("u:%d:matches:%s:%d", userID, mc.Type, mc.ID)
}

func profileKey(userID uint) string {
	return fmt.Sprintf("u:%d:profile", userID)
}

func userPrefix(userID uint) string {
	return fmt.Sprintf("u:%d:", userID)
}

// GetMatches returns the cached result set for (userID, mc). Backend errors
// and decode failures read as misses.
func (c *MatchCache) GetMatches(ctx context.Context, userID uint, mc match.Context) ([]match.MatchResult, bool) {
	raw, ok, err := c.kv.Get(ctx, matchKey(userID, mc))
	if err != nil {
		c.log.Warn().Err(err).Uint("user_id", userID).Msg("match cache read failed, treating as miss")
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var results []match.MatchResult
	if err := json.Unmarshal(raw, &results); err != nil {
		c.log.Warn().Err(err).Uint("user_id", userID).Msg("match cache entry corrupt, treating as miss")
		return nil, false
	}
	return results, true
}

// PutMatches stores a computed result set under the match TTL.
func (c *MatchCache) PutMatches(ctx context.Context, userID uint, mc match.Context, results []match.MatchResult) {
	raw, err := json.Marshal(results)
	if err != nil {
		c.log.Warn().Err(err).Uint("user_id", userID).Msg("match cache encode failed, skipping put")
		return
	}
	if err := c.kv.SetTTL(ctx, matchKey(userID, mc), raw, c.matchTTL); err != nil {
		c.log.Warn().Err(err).Uint("user_id", userID).Msg("match cache write failed, skipping put")
	}
}

// InvalidateUser removes every cache entry owned by the user, across all
// namespaces. Entries where the user appears as a candidate under other
// requesters are tolerated until their TTL runs out.
func (c *MatchCache) InvalidateUser(ctx context.Context, userID uint) {
	if err := c.kv.DeletePrefix(ctx, userPrefix(userID)); err != nil {
		c.log.Warn().Err(err).Uint("user_id", userID).Msg("cache invalidation failed")
	}
}

// GetProfile returns a cached profile payload for the user, if present.
func (c *MatchCache) GetProfile(ctx context.Context, userID uint) ([]byte, bool) {
	raw, ok, err := c.kv.Get(ctx, profileKey(userID))
	if err != nil {
		c.log.Warn().Err(err).Uint("user_id", userID).Msg("profile cache read failed, treating as miss")
		return nil, false
	}
	return raw, ok
}

// PutProfile stores a profile payload under the profile TTL.
func (c *MatchCache) PutProfile(ctx context.Context, userID uint, payload []byte) {
	if err := c.kv.SetTTL(ctx, profileKey(userID), payload, c.profileTTL); err != nil {
		c.log.Warn().Err(err).Uint("user_id", userID).Msg("profile cache write failed, skipping put")
	}
}
