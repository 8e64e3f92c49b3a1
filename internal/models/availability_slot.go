package models

import "gorm.io/gorm"

// AvailabilitySlot is a recurring weekly time window in which a user is free
// to study. Times are minutes from midnight; a slot never crosses midnight.
// A user may own any number of slots, including overlapping ones.
type AvailabilitySlot struct {
	gorm.Model
	UserID      uint `gorm:"not null;index"`
	DayOfWeek   int  `gorm:"not null"` // 0 = Sunday .. 6 = Saturday
	StartMinute int  `gorm:"not null"` // minutes from midnight, [0, 1440)
	EndMinute   int  `gorm:"not null"` // must be > StartMinute, <= 1440

	User User `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}
