package match

import "time"

// ContextType identifies the kind of shared context a match is scoped to.
type ContextType string

const (
	ContextCourse ContextType = "course"
	ContextTopic  ContextType = "topic"
)

// Context is the scope within which matching and connection status are
// evaluated: a single course or a single topic. The zero value means "no
// context" and is only meaningful on connections.
type Context struct {
	Type ContextType `json:"type"`
	ID   uint        `json:"id"`
}

// IsZero reports whether the context is unset.
func (c Context) IsZero() bool {
	return c.Type == "" && c.ID == 0
}

// Valid reports whether the context names a course or topic.
func (c Context) Valid() bool {
	return (c.Type == ContextCourse || c.Type == ContextTopic) && c.ID != 0
}

// ConnectionState is the tri-state relationship between the requester and a
// candidate, scoped to the match context.
type ConnectionState string

const (
	StateNone      ConnectionState = "none"
	StatePending   ConnectionState = "pending"
	StateConnected ConnectionState = "connected"
)

// Slot is a weekly availability window. Times are minutes from midnight.
type Slot struct {
	DayOfWeek   int `json:"day_of_week"`
	StartMinute int `json:"start_minute"`
	EndMinute   int `json:"end_minute"`
}

// CandidateProfile is the minimal projection of a user exposed to the match
// pipeline. No full user record leaves the store boundary.
type CandidateProfile struct {
	UserID      uint      `json:"candidate_id"`
	DisplayName string    `json:"display_name"`
	AvatarRef   string    `json:"avatar_ref"`
	StudyStyle  string    `json:"study_style"`
	StudyPace   string    `json:"study_pace"`
	Location    string    `json:"location"`
	Bio         string    `json:"bio"`
	JoinedAt    time.Time `json:"joined_at"`
}

// MatchResult is one ranked entry returned by FindMatches.
type MatchResult struct {
	CandidateProfile
	OverlapScore    int             `json:"overlap_score"`
	ConnectionState ConnectionState `json:"connection_state"`
}

// ConnectionRecord is the store-level view of a connection row.
type ConnectionRecord struct {
	ID          uint
	RequesterID uint
	TargetID    uint
	Context     Context
	Status      ConnectionStatus
	CreatedAt   time.Time
}

// ConnectionStatus is the persisted status of a connection.
type ConnectionStatus string

const (
	StatusPending  ConnectionStatus = "pending"
	StatusAccepted ConnectionStatus = "accepted"
)

// Other returns the user on the other side of the connection from userID.
func (r ConnectionRecord) Other(userID uint) uint {
	if r.RequesterID == userID {
		return r.TargetID
	}
	return r.RequesterID
}
