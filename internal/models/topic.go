package models

import "gorm.io/gorm"

// Topic represents a study topic (e.g., "Linear Algebra", "Go", "MCAT prep").
type Topic struct {
	gorm.Model
	Name string `gorm:"size:100;unique;not null"`
}
