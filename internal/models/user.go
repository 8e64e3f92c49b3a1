package models

import "gorm.io/gorm"

// User represents a student account in the system.
type User struct {
	gorm.Model
	Nickname     string `gorm:"size:255;unique;not null"`
	Email        string `gorm:"size:255;unique;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	Role         string `gorm:"size:50;not null;default:'user';index"`

	// Only active, verified users may appear as match candidates.
	Active   bool `gorm:"not null;default:true;index"`
	Verified bool `gorm:"not null;default:false;index"`

	AvatarURL  string `gorm:"size:512"`
	StudyStyle string `gorm:"size:50"`
	StudyPace  string `gorm:"size:50"`
	Location   string `gorm:"size:255"`
	Bio        string

	Associations []ContextAssociation `gorm:"foreignKey:UserID"`
	Availability []AvailabilitySlot   `gorm:"foreignKey:UserID"`
}
