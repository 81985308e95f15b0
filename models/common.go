package models

import "time"

// PublishInfo holds the fields shared by records an admin can hide.
type PublishInfo struct {
	CreatedAt   time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	IsPublished bool      `gorm:"not null;index" json:"is_published"`
}
