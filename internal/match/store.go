package match

import "context"

// Store is the relational backing the engine reads from and writes to. It is
// always the source of truth; the cache is never authoritative. Implementations
// must honor context cancellation and return ErrDuplicatePair from
// CreateConnection on a pair+context uniqueness violation.
type Store interface {
	// HasActiveAssociation reports whether the user holds an active
	// association with the given context.
	HasActiveAssociation(ctx context.Context, userID uint, mc Context) (bool, error)

	// CandidatesForContext returns the active, verified users other than
	// requesterID that hold an active association with the context.
	CandidatesForContext(ctx context.Context, requesterID uint, mc Context) ([]CandidateProfile, error)

	// AvailabilityFor returns the weekly slots of each listed user, keyed by
	// user ID. Users with no slots may be absent from the map.
	AvailabilityFor(ctx context.Context, userIDs []uint) (map[uint][]Slot, error)

	// ConnectionsForUser returns every live connection involving the user,
	// in either direction, whose context equals mc exactly.
	ConnectionsForUser(ctx context.Context, userID uint, mc Context) ([]ConnectionRecord, error)

	// ConnectionBetween returns the live connection for the unordered pair
	// and context, or nil if none exists.
	ConnectionBetween(ctx context.Context, a, b uint, mc Context) (*ConnectionRecord, error)

	// CreateConnection inserts a pending connection. Returns ErrDuplicatePair
	// if the pair+context constraint rejects it.
	CreateConnection(ctx context.Context, rec *ConnectionRecord) error

	// ConnectionByID returns the connection or ErrConnectionNotFound.
	ConnectionByID(ctx context.Context, id uint) (*ConnectionRecord, error)

	// AcceptConnection moves a pending connection to accepted.
	AcceptConnection(ctx context.Context, id uint) error

	// DeleteConnection removes a connection row.
	DeleteConnection(ctx context.Context, id uint) error
}

// Cache is the non-authoritative result cache consulted around the match
// pipeline. Implementations are fail-open: backend errors surface as misses
// on reads and are logged and swallowed on writes, never returned.
type Cache interface {
	// GetMatches returns the cached result set for (userID, mc), or ok=false
	// on a miss or any backend error.
	GetMatches(ctx context.Context, userID uint, mc Context) (results []MatchResult, ok bool)

	// PutMatches stores the result set under the configured TTL.
	PutMatches(ctx context.Context, userID uint, mc Context, results []MatchResult)

	// InvalidateUser removes every cache entry prefixed by the user's ID.
	InvalidateUser(ctx context.Context, userID uint)
}
