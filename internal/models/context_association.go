package models

import "time"

// ContextAssociation links a user to a course or a topic.
// A context is identified by (ContextType, ContextID).
type ContextAssociation struct {
	UserID      uint   `gorm:"primaryKey;autoIncrement:false"`
	ContextType string `gorm:"primaryKey;size:20"` // "course" or "topic"
	ContextID   uint   `gorm:"primaryKey;autoIncrement:false"`
	Active      bool   `gorm:"not null;default:true;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	User User `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}
