package match

import "errors"

// Validation and conflict errors are user-actionable outcomes; callers match
// them with errors.Is and translate them to HTTP responses. Store failures
// other than ErrDuplicatePair and ErrConnectionNotFound propagate unmodified.
var (
	// ErrContextNotAssociated means the requester holds no active association
	// with the requested course or topic.
	ErrContextNotAssociated = errors.New("requester is not associated with this context")

	// ErrSelfTarget means a connection request targeted the requester itself.
	ErrSelfTarget = errors.New("cannot send a connection request to yourself")

	// ErrAlreadyConnected means an accepted connection already exists for the
	// pair and context, in either direction.
	ErrAlreadyConnected = errors.New("users are already connected")

	// ErrRequestPending means a pending request already exists for the pair
	// and context, in either direction.
	ErrRequestPending = errors.New("a connection request is already pending")

	// ErrConnectionNotFound is returned by accept/decline when no matching
	// pending connection exists.
	ErrConnectionNotFound = errors.New("connection not found")

	// ErrNotRecipient means the acting user is not the recipient of the
	// pending request and may not accept or decline it.
	ErrNotRecipient = errors.New("only the request recipient may do this")

	// ErrDuplicatePair is returned by Store.CreateConnection when the unique
	// pair+context constraint rejects the insert. It is an expected outcome
	// of concurrent duplicate requests, not a fault.
	ErrDuplicatePair = errors.New("a connection already exists for this pair and context")
)
