package models

import "gorm.io/gorm"

// Course represents a course students can enroll in for matching.
type Course struct {
	gorm.Model
	Code        string `gorm:"size:50;unique;not null"`
	Name        string `gorm:"size:255;not null"`
	Description string
}
