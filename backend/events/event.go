package events

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeLessonUpdated       Type = "progress.lesson_updated"
	TypeXPAdded             Type = "progress.xp_added"
	TypeChapterUnlocked     Type = "progress.chapter_unlocked"
	TypeAssessmentCompleted Type = "assessment.completed"
)

type Event struct {
	ID         string      `json:"id"`
	Type       Type        `json:"type"`
	UserID     uint        `json:"user_id"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload,omitempty"`
}

func New(t Type, userID uint, payload interface{}) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		UserID:     userID,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}
