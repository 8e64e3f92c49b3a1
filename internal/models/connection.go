package models

import "gorm.io/gorm"

// ConnectionStatus defines the state of a connection between two users.
type ConnectionStatus string

const (
	// ConnectionPending means a request has been sent but not yet accepted.
	ConnectionPending ConnectionStatus = "pending"

	// ConnectionAccepted means the request was accepted and the users are
	// study partners. A declined or removed connection is deleted, not kept.
	ConnectionAccepted ConnectionStatus = "accepted"
)

// Connection represents a study-partner request between two users, optionally
// scoped to a course or topic context.
//
// PairLo/PairHi hold the unordered pair (min, max of the two user IDs) so the
// unique index rejects a second live connection for the same pair and context
// regardless of direction. Both writers of a concurrent duplicate race hit the
// same index row; the loser sees a duplicate-key error.
type Connection struct {
	gorm.Model
	RequesterID uint `gorm:"not null;index"`
	TargetID    uint `gorm:"not null;index"`

	PairLo uint `gorm:"not null;uniqueIndex:idx_connection_pair_context"`
	PairHi uint `gorm:"not null;uniqueIndex:idx_connection_pair_context"`

	// Zero values mean the connection is not scoped to any context.
	ContextType string `gorm:"size:20;uniqueIndex:idx_connection_pair_context"`
	ContextID   uint   `gorm:"uniqueIndex:idx_connection_pair_context"`

	Status ConnectionStatus `gorm:"type:varchar(20);not null"`

	Requester User `gorm:"foreignKey:RequesterID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Target    User `gorm:"foreignKey:TargetID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// NormalizePair fills PairLo/PairHi from RequesterID/TargetID.
func (c *Connection) NormalizePair() {
	c.PairLo, c.PairHi = c.RequesterID, c.TargetID
	if c.PairLo > c.PairHi {
		c.PairLo, c.PairHi = c.PairHi, c.PairLo
	}
}
