package models

import (
	"time"

	"gorm.io/gorm"
)

// UserActivity is one entry of a user's activity feed, written from the
// domain events the progress tracker emits.
type UserActivity struct {
	gorm.Model
	EventID    string    `gorm:"uniqueIndex;not null" json:"event_id"`
	UserID     uint      `gorm:"index;not null" json:"user_id"`
	ActionType string    `gorm:"not null" json:"action_type"` // event type, e.g. "progress.xp_added"
	Detail     string    `json:"detail"`                      // JSON payload of the event
	OccurredAt time.Time `gorm:"index" json:"occurred_at"`
}
