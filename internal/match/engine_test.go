package match

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory match.Store with error injection.
type fakeStore struct {
	associations map[string]bool
	candidates   []CandidateProfile
	slots        map[uint][]Slot
	connections  []ConnectionRecord
	nextID       uint

	candidateCalls int
	createErr      error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		associations: make(map[string]bool),
		slots:        make(map[uint][]Slot),
		nextID:       1,
	}
}

func assocKey(userID uint, mc Context) string {
	return fmt.Sprintf("%d/%s/%d", userID, mc.Type, mc.ID)
}

func (s *fakeStore) associate(userID uint, mc Context) {
	s.associations[assocKey(userID, mc)] = true
}

func (s *fakeStore) HasActiveAssociation(_ context.Context, userID uint, mc Context) (bool, error) {
	return s.associations[assocKey(userID, mc)], nil
}

func (s *fakeStore) CandidatesForContext(_ context.Context, requesterID uint, _ Context) ([]CandidateProfile, error) {
	s.candidateCalls++
	out := make([]CandidateProfile, 0, len(s.candidates))
	for _, c := range s.candidates {
		if c.UserID != requesterID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *fakeStore) AvailabilityFor(_ context.Context, userIDs []uint) (map[uint][]Slot, error) {
	out := make(map[uint][]Slot)
	for _, id := range userIDs {
		if slots, ok := s.slots[id]; ok {
			out[id] = slots
		}
	}
	return out, nil
}

func (s *fakeStore) ConnectionsForUser(_ context.Context, userID uint, mc Context) ([]ConnectionRecord, error) {
	var out []ConnectionRecord
	for _, rec := range s.connections {
		if (rec.RequesterID == userID || rec.TargetID == userID) && rec.Context == mc {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *fakeStore) ConnectionBetween(_ context.Context, a, b uint, mc Context) (*ConnectionRecord, error) {
	for _, rec := range s.connections {
		samePair := (rec.RequesterID == a && rec.TargetID == b) || (rec.RequesterID == b && rec.TargetID == a)
		if samePair && rec.Context == mc {
			found := rec
			return &found, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) CreateConnection(_ context.Context, rec *ConnectionRecord) error {
	if s.createErr != nil {
		return s.createErr
	}
	// Emulate the pair+context constraint.
	for _, existing := range s.connections {
		samePair := (existing.RequesterID == rec.RequesterID && existing.TargetID == rec.TargetID) ||
			(existing.RequesterID == rec.TargetID && existing.TargetID == rec.RequesterID)
		if samePair && existing.Context == rec.Context {
			return ErrDuplicatePair
		}
	}
	rec.ID = s.nextID
	rec.CreatedAt = time.Now()
	s.nextID++
	s.connections = append(s.connections, *rec)
	return nil
}

func (s *fakeStore) ConnectionByID(_ context.Context, id uint) (*ConnectionRecord, error) {
	for _, rec := range s.connections {
		if rec.ID == id {
			found := rec
			return &found, nil
		}
	}
	return nil, ErrConnectionNotFound
}

func (s *fakeStore) AcceptConnection(_ context.Context, id uint) error {
	for i := range s.connections {
		if s.connections[i].ID == id {
			s.connections[i].Status = StatusAccepted
			return nil
		}
	}
	return ErrConnectionNotFound
}

func (s *fakeStore) DeleteConnection(_ context.Context, id uint) error {
	for i := range s.connections {
		if s.connections[i].ID == id {
			s.connections = append(s.connections[:i], s.connections[i+1:]...)
			return nil
		}
	}
	return ErrConnectionNotFound
}

// fakeCache is an in-memory match.Cache. With down=true every read misses,
// simulating an unreachable backend behind a fail-open implementation.
type fakeCache struct {
	entries       map[string][]MatchResult
	down          bool
	puts          int
	invalidations map[uint]int
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		entries:       make(map[string][]MatchResult),
		invalidations: make(map[uint]int),
	}
}

func cacheKey(userID uint, mc Context) string {
	return fmt.Sprintf("%d/%s/%d", userID, mc.Type, mc.ID)
}

func (c *fakeCache) GetMatches(_ context.Context, userID uint, mc Context) ([]MatchResult, bool) {
	if c.down {
		return nil, false
	}
	results, ok := c.entries[cacheKey(userID, mc)]
	return results, ok
}

func (c *fakeCache) PutMatches(_ context.Context, userID uint, mc Context, results []MatchResult) {
	c.puts++
	if c.down {
		return
	}
	c.entries[cacheKey(userID, mc)] = results
}

func (c *fakeCache) InvalidateUser(_ context.Context, userID uint) {
	c.invalidations[userID]++
	for key := range c.entries {
		var owner uint
		fmt.Sscanf(key, "%d/", &owner)
		if owner == userID {
			delete(c.entries, key)
		}
	}
}

func candidate(id uint, joined time.Time) CandidateProfile {
	return CandidateProfile{
		UserID:      id,
		DisplayName: fmt.Sprintf("user-%d", id),
		JoinedAt:    joined,
	}
}

var algebra = Context{Type: ContextCourse, ID: 42}

func newTestEngine(store *fakeStore, cache *fakeCache) *Engine {
	return NewEngine(store, cache, zerolog.Nop())
}

func TestFindMatchesContextNotAssociated(t *testing.T) {
	engine := newTestEngine(newFakeStore(), newFakeCache())

	_, err := engine.FindMatches(context.Background(), 1, algebra, 10)
	assert.ErrorIs(t, err, ErrContextNotAssociated)
}

func TestFindMatchesRanksByOverlap(t *testing.T) {
	store := newFakeStore()
	joined := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)

	store.associate(1, algebra)
	store.candidates = []CandidateProfile{
		candidate(2, joined), // Monday 10:00-11:00, overlaps
		candidate(3, joined), // Monday 13:00-14:00, no overlap
	}
	store.slots[1] = []Slot{{DayOfWeek: 1, StartMinute: 540, EndMinute: 720}} // Mon 09:00-12:00
	store.slots[2] = []Slot{{DayOfWeek: 1, StartMinute: 600, EndMinute: 660}}
	store.slots[3] = []Slot{{DayOfWeek: 1, StartMinute: 780, EndMinute: 840}}

	engine := newTestEngine(store, newFakeCache())
	results, err := engine.FindMatches(context.Background(), 1, algebra, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, uint(2), results[0].UserID)
	assert.Equal(t, 1, results[0].OverlapScore)
	assert.Equal(t, uint(3), results[1].UserID)
	assert.Equal(t, 0, results[1].OverlapScore)
}

func TestFindMatchesKeepsZeroOverlapCandidates(t *testing.T) {
	store := newFakeStore()
	store.associate(1, algebra)
	// Candidate shares the course but has no availability at all.
	store.candidates = []CandidateProfile{candidate(5, time.Now())}
	store.slots[1] = []Slot{{DayOfWeek: 2, StartMinute: 540, EndMinute: 600}}

	engine := newTestEngine(store, newFakeCache())
	results, err := engine.FindMatches(context.Background(), 1, algebra, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, uint(5), results[0].UserID)
	assert.Equal(t, 0, results[0].OverlapScore)
}

func TestFindMatchesExcludesRequester(t *testing.T) {
	store := newFakeStore()
	store.associate(1, algebra)
	store.candidates = []CandidateProfile{
		candidate(1, time.Now()),
		candidate(2, time.Now()),
	}

	engine := newTestEngine(store, newFakeCache())
	results, err := engine.FindMatches(context.Background(), 1, algebra, 10)
	require.NoError(t, err)
	for _, r := range results {
		assert.NotEqual(t, uint(1), r.UserID)
	}
}

func TestFindMatchesEnforcesHardCap(t *testing.T) {
	store := newFakeStore()
	store.associate(1, algebra)
	for i := uint(2); i <= 20; i++ {
		store.candidates = append(store.candidates, candidate(i, time.Now()))
	}

	engine := newTestEngine(store, newFakeCache())
	results, err := engine.FindMatches(context.Background(), 1, algebra, 50)
	require.NoError(t, err)
	assert.Len(t, results, MaxLimit)
}

func TestFindMatchesServesFromCache(t *testing.T) {
	store := newFakeStore()
	store.associate(1, algebra)
	store.candidates = []CandidateProfile{candidate(2, time.Now())}

	cache := newFakeCache()
	engine := newTestEngine(store, cache)

	first, err := engine.FindMatches(context.Background(), 1, algebra, 10)
	require.NoError(t, err)
	require.Equal(t, 1, store.candidateCalls)

	second, err := engine.FindMatches(context.Background(), 1, algebra, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, store.candidateCalls, "second call should not recompute")
	assert.Equal(t, first, second, "cache hit must preserve ordering")
}

func TestFindMatchesFailOpenOnCacheOutage(t *testing.T) {
	store := newFakeStore()
	store.associate(1, algebra)
	store.candidates = []CandidateProfile{candidate(2, time.Now())}

	cache := newFakeCache()
	cache.down = true
	engine := newTestEngine(store, cache)

	results, err := engine.FindMatches(context.Background(), 1, algebra, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, uint(2), results[0].UserID)

	// Every call recomputes while the cache is down; determinism holds.
	again, err := engine.FindMatches(context.Background(), 1, algebra, 10)
	require.NoError(t, err)
	assert.Equal(t, results, again)
	assert.Equal(t, 2, store.candidateCalls)
}

func TestFindMatchesReportsConnectionStates(t *testing.T) {
	store := newFakeStore()
	joined := time.Now()
	store.associate(1, algebra)
	store.candidates = []CandidateProfile{
		candidate(2, joined),
		candidate(3, joined),
		candidate(4, joined),
	}
	store.connections = []ConnectionRecord{
		{ID: 1, RequesterID: 1, TargetID: 2, Context: algebra, Status: StatusAccepted},
		{ID: 2, RequesterID: 3, TargetID: 1, Context: algebra, Status: StatusPending},
	}

	engine := newTestEngine(store, newFakeCache())
	results, err := engine.FindMatches(context.Background(), 1, algebra, 10)
	require.NoError(t, err)
	require.Len(t, results, 3)

	states := make(map[uint]ConnectionState)
	for _, r := range results {
		states[r.UserID] = r.ConnectionState
	}
	assert.Equal(t, StateConnected, states[2])
	assert.Equal(t, StatePending, states[3])
	assert.Equal(t, StateNone, states[4])
}

func TestFindMatchesIgnoresOtherContextConnections(t *testing.T) {
	store := newFakeStore()
	store.associate(1, algebra)
	store.candidates = []CandidateProfile{candidate(2, time.Now())}
	// Connected, but under a different context.
	store.connections = []ConnectionRecord{
		{ID: 1, RequesterID: 1, TargetID: 2, Context: Context{Type: ContextTopic, ID: 7}, Status: StatusAccepted},
	}

	engine := newTestEngine(store, newFakeCache())
	results, err := engine.FindMatches(context.Background(), 1, algebra, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, StateNone, results[0].ConnectionState)
}

func TestSendConnectionRequestSelfTarget(t *testing.T) {
	engine := newTestEngine(newFakeStore(), newFakeCache())

	_, err := engine.SendConnectionRequest(context.Background(), 1, 1, algebra)
	assert.ErrorIs(t, err, ErrSelfTarget)
}

func TestSendConnectionRequestCreatesPending(t *testing.T) {
	store := newFakeStore()
	cache := newFakeCache()
	engine := newTestEngine(store, cache)

	rec, err := engine.SendConnectionRequest(context.Background(), 1, 2, algebra)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, rec.Status)
	assert.NotZero(t, rec.ID)

	// Both sides' cached result sets are stale now.
	assert.Equal(t, 1, cache.invalidations[1])
	assert.Equal(t, 1, cache.invalidations[2])
}

func TestSendConnectionRequestDuplicatePending(t *testing.T) {
	store := newFakeStore()
	engine := newTestEngine(store, newFakeCache())

	_, err := engine.SendConnectionRequest(context.Background(), 1, 2, algebra)
	require.NoError(t, err)

	// Same direction.
	_, err = engine.SendConnectionRequest(context.Background(), 1, 2, algebra)
	assert.ErrorIs(t, err, ErrRequestPending)

	// Reverse direction hits the same pair.
	_, err = engine.SendConnectionRequest(context.Background(), 2, 1, algebra)
	assert.ErrorIs(t, err, ErrRequestPending)
}

func TestSendConnectionRequestAlreadyConnected(t *testing.T) {
	store := newFakeStore()
	store.connections = []ConnectionRecord{
		{ID: 9, RequesterID: 2, TargetID: 1, Context: algebra, Status: StatusAccepted},
	}
	engine := newTestEngine(store, newFakeCache())

	_, err := engine.SendConnectionRequest(context.Background(), 1, 2, algebra)
	assert.ErrorIs(t, err, ErrAlreadyConnected)
}

func TestSendConnectionRequestLosesRace(t *testing.T) {
	// The pre-check sees nothing, but the insert loses to a concurrent
	// writer. The engine reports a conflict outcome, never a generic error.
	store := newFakeStore()
	store.createErr = ErrDuplicatePair

	engine := newTestEngine(store, newFakeCache())
	_, err := engine.SendConnectionRequest(context.Background(), 3, 4, algebra)
	assert.ErrorIs(t, err, ErrRequestPending)
}

func TestSendConnectionRequestDistinctContextsAllowed(t *testing.T) {
	store := newFakeStore()
	engine := newTestEngine(store, newFakeCache())

	_, err := engine.SendConnectionRequest(context.Background(), 1, 2, algebra)
	require.NoError(t, err)

	// Same pair under a different context is a separate connection.
	_, err = engine.SendConnectionRequest(context.Background(), 1, 2, Context{Type: ContextTopic, ID: 7})
	assert.NoError(t, err)
}

func TestAcceptConnectionRequest(t *testing.T) {
	store := newFakeStore()
	cache := newFakeCache()
	engine := newTestEngine(store, cache)

	rec, err := engine.SendConnectionRequest(context.Background(), 1, 2, algebra)
	require.NoError(t, err)

	// The requester cannot accept their own request.
	err = engine.AcceptConnectionRequest(context.Background(), rec.ID, 1)
	assert.ErrorIs(t, err, ErrNotRecipient)

	// A stranger cannot accept it either.
	err = engine.AcceptConnectionRequest(context.Background(), rec.ID, 99)
	assert.ErrorIs(t, err, ErrNotRecipient)

	// The recipient can.
	err = engine.AcceptConnectionRequest(context.Background(), rec.ID, 2)
	require.NoError(t, err)

	stored, err := store.ConnectionByID(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, stored.Status)

	// Accepting twice reports the existing connection.
	err = engine.AcceptConnectionRequest(context.Background(), rec.ID, 2)
	assert.ErrorIs(t, err, ErrAlreadyConnected)
}

func TestAcceptConnectionRequestNotFound(t *testing.T) {
	engine := newTestEngine(newFakeStore(), newFakeCache())

	err := engine.AcceptConnectionRequest(context.Background(), 404, 1)
	assert.ErrorIs(t, err, ErrConnectionNotFound)
}

func TestDeclineConnectionRequest(t *testing.T) {
	store := newFakeStore()
	engine := newTestEngine(store, newFakeCache())

	rec, err := engine.SendConnectionRequest(context.Background(), 1, 2, algebra)
	require.NoError(t, err)

	// A third party cannot decline.
	err = engine.DeclineConnectionRequest(context.Background(), rec.ID, 99)
	assert.ErrorIs(t, err, ErrNotRecipient)

	// The recipient declines; the row is gone, not retained.
	err = engine.DeclineConnectionRequest(context.Background(), rec.ID, 2)
	require.NoError(t, err)

	_, err = store.ConnectionByID(context.Background(), rec.ID)
	assert.ErrorIs(t, err, ErrConnectionNotFound)

	// A fresh request between the same users now succeeds.
	_, err = engine.SendConnectionRequest(context.Background(), 1, 2, algebra)
	assert.NoError(t, err)
}

func TestDeclineConnectionRequestByRequester(t *testing.T) {
	// The requester may withdraw their own pending request.
	store := newFakeStore()
	engine := newTestEngine(store, newFakeCache())

	rec, err := engine.SendConnectionRequest(context.Background(), 1, 2, algebra)
	require.NoError(t, err)

	err = engine.DeclineConnectionRequest(context.Background(), rec.ID, 1)
	assert.NoError(t, err)
}
