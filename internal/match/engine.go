// Package match implements the match discovery engine: candidate resolution,
// availability-overlap scoring, connection-state resolution, deterministic
// ranking, and the connection request lifecycle.
package match

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// DefaultStoreTimeout bounds every store round trip made by the engine so a
// slow backend cannot hang a request indefinitely.
const DefaultStoreTimeout = 5 * time.Second

// Engine coordinates the match pipeline. It holds no per-request state;
// concurrent requests need no coordination.
type Engine struct {
	store        Store
	cache        Cache
	log          zerolog.Logger
	storeTimeout time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithStoreTimeout overrides the bounded deadline applied to store calls.
func WithStoreTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.storeTimeout = d
		}
	}
}

// NewEngine builds an engine on top of an explicit store and cache. Neither
// may be nil; the cache may be a no-op implementation but the engine never
// reaches for shared globals.
func NewEngine(store Store, cache Cache, log zerolog.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:        store,
		cache:        cache,
		log:          log,
		storeTimeout: DefaultStoreTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// FindMatches returns up to limit candidates sharing the context with the
// requester, ordered by overlap score descending with join-date tie-breaks.
// Candidates with zero schedule overlap are still returned; sharing the
// context alone is enough to appear, they just rank last.
func (e *Engine) FindMatches(ctx context.Context, requesterID uint, mc Context, limit int) ([]MatchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, e.storeTimeout)
	defer cancel()

	ok, err := e.store.HasActiveAssociation(ctx, requesterID, mc)
	if err != nil {
		return nil, fmt.Errorf("check context association: %w", err)
	}
	if !ok {
		return nil, ErrContextNotAssociated
	}

	limit = clampLimit(limit)

	// The cached set is already ranked and capped at MaxLimit, so a hit only
	// needs truncation. A backend failure inside the cache reads as a miss.
	if cached, hit := e.cache.GetMatches(ctx, requesterID, mc); hit {
		if len(cached) > limit {
			cached = cached[:limit]
		}
		return cached, nil
	}

	results, err := e.computeMatches(ctx, requesterID, mc)
	if err != nil {
		return nil, err
	}

	e.log.Debug().
		Uint("requester_id", requesterID).
		Str("context_type", string(mc.Type)).
		Uint("context_id", mc.ID).
		Int("results", len(results)).
		Msg("computed match results")

	e.cache.PutMatches(ctx, requesterID, mc, results)

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// computeMatches runs the full pipeline against the store: candidates, then
// per-candidate overlap scores and connection states, then ranking. The whole
// candidate set is scored before truncation so ordering is always correct.
func (e *Engine) computeMatches(ctx context.Context, requesterID uint, mc Context) ([]MatchResult, error) {
	candidates, err := e.store.CandidatesForContext(ctx, requesterID, mc)
	if err != nil {
		return nil, fmt.Errorf("resolve candidates: %w", err)
	}

	ids := make([]uint, 0, len(candidates)+1)
	ids = append(ids, requesterID)
	for _, cand := range candidates {
		ids = append(ids, cand.UserID)
	}

	slots, err := e.store.AvailabilityFor(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load availability: %w", err)
	}

	records, err := e.store.ConnectionsForUser(ctx, requesterID, mc)
	if err != nil {
		return nil, fmt.Errorf("load connections: %w", err)
	}
	states := stateByCandidate(requesterID, records)

	requesterSlots := slots[requesterID]
	results := make([]MatchResult, 0, len(candidates))
	for _, cand := range candidates {
		results = append(results, MatchResult{
			CandidateProfile: cand,
			OverlapScore:     OverlapScore(requesterSlots, slots[cand.UserID]),
			ConnectionState:  resolveState(states, cand.UserID),
		})
	}

	return rankResults(results, MaxLimit), nil
}

// SendConnectionRequest creates a pending connection from requesterID to
// targetID, optionally scoped to a context. A concurrent duplicate in either
// direction loses to the store's pair+context constraint and is reported as
// ErrAlreadyConnected or ErrRequestPending, never as a generic failure.
func (e *Engine) SendConnectionRequest(ctx context.Context, requesterID, targetID uint, mc Context) (*ConnectionRecord, error) {
	if requesterID == targetID {
		return nil, ErrSelfTarget
	}

	ctx, cancel := context.WithTimeout(ctx, e.storeTimeout)
	defer cancel()

	// Cheap pre-check for the common case; the constraint is what actually
	// guarantees uniqueness under races.
	existing, err := e.store.ConnectionBetween(ctx, requesterID, targetID, mc)
	if err != nil {
		return nil, fmt.Errorf("check existing connection: %w", err)
	}
	if existing != nil {
		return nil, statusConflictError(existing.Status)
	}

	rec := &ConnectionRecord{
		RequesterID: requesterID,
		TargetID:    targetID,
		Context:     mc,
		Status:      StatusPending,
	}
	if err := e.store.CreateConnection(ctx, rec); err != nil {
		if errors.Is(err, ErrDuplicatePair) {
			return nil, e.classifyDuplicate(ctx, requesterID, targetID, mc)
		}
		return nil, fmt.Errorf("create connection: %w", err)
	}

	e.invalidatePair(ctx, requesterID, targetID)
	return rec, nil
}

// classifyDuplicate re-reads the winning row after a constraint conflict to
// report the precise state to the losing writer.
func (e *Engine) classifyDuplicate(ctx context.Context, requesterID, targetID uint, mc Context) error {
	winner, err := e.store.ConnectionBetween(ctx, requesterID, targetID, mc)
	if err != nil || winner == nil {
		// The row was there a moment ago; pending is the conservative answer.
		return ErrRequestPending
	}
	return statusConflictError(winner.Status)
}

func statusConflictError(status ConnectionStatus) error {
	if status == StatusAccepted {
		return ErrAlreadyConnected
	}
	return ErrRequestPending
}

// AcceptConnectionRequest moves a pending connection to accepted. Only the
// recipient of the request may accept it.
func (e *Engine) AcceptConnectionRequest(ctx context.Context, connectionID, actorID uint) error {
	ctx, cancel := context.WithTimeout(ctx, e.storeTimeout)
	defer cancel()

	rec, err := e.store.ConnectionByID(ctx, connectionID)
	if err != nil {
		return err
	}
	if rec.TargetID != actorID {
		return ErrNotRecipient
	}
	if rec.Status != StatusPending {
		return ErrAlreadyConnected
	}

	if err := e.store.AcceptConnection(ctx, connectionID); err != nil {
		return fmt.Errorf("accept connection: %w", err)
	}

	e.invalidatePair(ctx, rec.RequesterID, rec.TargetID)
	return nil
}

// DeclineConnectionRequest deletes a pending connection. The recipient
// declines it; the requester withdraws it. Anyone else gets ErrNotRecipient.
func (e *Engine) DeclineConnectionRequest(ctx context.Context, connectionID, actorID uint) error {
	ctx, cancel := context.WithTimeout(ctx, e.storeTimeout)
	defer cancel()

	rec, err := e.store.ConnectionByID(ctx, connectionID)
	if err != nil {
		return err
	}
	if rec.TargetID != actorID && rec.RequesterID != actorID {
		return ErrNotRecipient
	}
	if rec.Status != StatusPending {
		return ErrConnectionNotFound
	}

	if err := e.store.DeleteConnection(ctx, connectionID); err != nil {
		return fmt.Errorf("decline connection: %w", err)
	}

	e.invalidatePair(ctx, rec.RequesterID, rec.TargetID)
	return nil
}

// invalidatePair drops both users' cached result sets after a connection
// state change. Entries where either user appears as a candidate under other
// requesters are left to expire by TTL.
func (e *Engine) invalidatePair(ctx context.Context, a, b uint) {
	e.cache.InvalidateUser(ctx, a)
	e.cache.InvalidateUser(ctx, b)
}
