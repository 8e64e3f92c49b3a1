package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studybuddy/backend/internal/match"
)

// brokenKV fails every operation, standing in for an unreachable backend.
type brokenKV struct{}

var errBackendDown = errors.New("backend down")

func (brokenKV) Get(context.Context, string) ([]byte, bool, error) { return nil, false, errBackendDown }
func (brokenKV) SetTTL(context.Context, string, []byte, time.Duration) error {
	return errBackendDown
}
func (brokenKV) Incr(context.Context, string) (int64, error)          { return 0, errBackendDown }
func (brokenKV) Expire(context.Context, string, time.Duration) error  { return errBackendDown }
func (brokenKV) DeletePrefix(context.Context, string) error           { return errBackendDown }
func (brokenKV) Close() error                                         { return nil }

var mathCourse = match.Context{Type: match.ContextCourse, ID: 42}

func sampleResults() []match.MatchResult {
	return []match.MatchResult{
		{
			CandidateProfile: match.CandidateProfile{
				UserID:      2,
				DisplayName: "studybee",
				JoinedAt:    time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC),
			},
			OverlapScore:    3,
			ConnectionState: match.StateNone,
		},
		{
			CandidateProfile: match.CandidateProfile{
				UserID:      3,
				DisplayName: "nightowl",
				JoinedAt:    time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC),
			},
			OverlapScore:    0,
			ConnectionState: match.StatePending,
		},
	}
}

func TestMatchCacheRoundTrip(t *testing.T) {
	kv := newTestKV(t)
	c := NewMatchCache(kv, zerolog.Nop(), time.Minute, time.Minute)
	ctx := context.Background()

	_, ok := c.GetMatches(ctx, 1, mathCourse)
	assert.False(t, ok, "expected miss before put")

	want := sampleResults()
	c.PutMatches(ctx, 1, mathCourse, want)

	got, ok := c.GetMatches(ctx, 1, mathCourse)
	require.True(t, ok)
	assert.Equal(t, want, got, "cached ordering must survive the round trip")
}

func TestMatchCacheKeysAreContextScoped(t *testing.T) {
	kv := newTestKV(t)
	c := NewMatchCache(kv, zerolog.Nop(), time.Minute, time.Minute)
	ctx := context.Background()

	c.PutMatches(ctx, 1, mathCourse, sampleResults())

	otherContext := match.Context{Type: match.ContextTopic, ID: 42}
	_, ok := c.GetMatches(ctx, 1, otherContext)
	assert.False(t, ok, "same ID under a different context type must miss")

	_, ok = c.GetMatches(ctx, 2, mathCourse)
	assert.False(t, ok, "another user's lookup must miss")
}

func TestMatchCacheInvalidateUser(t *testing.T) {
	kv := newTestKV(t)
	c := NewMatchCache(kv, zerolog.Nop(), time.Minute, time.Minute)
	ctx := context.Background()

	c.PutMatches(ctx, 1, mathCourse, sampleResults())
	c.PutProfile(ctx, 1, []byte(`{"id":1}`))
	c.PutMatches(ctx, 2, mathCourse, sampleResults())

	c.InvalidateUser(ctx, 1)

	_, ok := c.GetMatches(ctx, 1, mathCourse)
	assert.False(t, ok, "user 1 match entries must be gone")
	_, ok = c.GetProfile(ctx, 1)
	assert.False(t, ok, "user 1 profile entry must be gone")

	// Entries under other requesters are tolerated until TTL.
	_, ok = c.GetMatches(ctx, 2, mathCourse)
	assert.True(t, ok, "user 2 entries must survive")
}

func TestMatchCacheFailOpen(t *testing.T) {
	c := NewMatchCache(brokenKV{}, zerolog.Nop(), time.Minute, time.Minute)
	ctx := context.Background()

	// Reads degrade to misses; writes and invalidations are swallowed.
	_, ok := c.GetMatches(ctx, 1, mathCourse)
	assert.False(t, ok)

	c.PutMatches(ctx, 1, mathCourse, sampleResults())
	c.InvalidateUser(ctx, 1)
	c.PutProfile(ctx, 1, []byte("{}"))
	_, ok = c.GetProfile(ctx, 1)
	assert.False(t, ok)
}

func TestMatchCacheCorruptEntryIsMiss(t *testing.T) {
	kv := newTestKV(t)
	c := NewMatchCache(kv, zerolog.Nop(), time.Minute, time.Minute)
	ctx := context.Background()

	require.NoError(t, kv.SetTTL(ctx, matchKey(1, mathCourse), []byte("not json"), time.Minute))

	_, ok := c.GetMatches(ctx, 1, mathCourse)
	assert.False(t, ok)
}
