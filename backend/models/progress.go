package models

import (
	"time"

	"gorm.io/gorm"
)

// LessonProgress is the latest reported outcome of a lesson for one user.
type LessonProgress struct {
	gorm.Model
	UserID      uint      `gorm:"uniqueIndex:idx_lesson_progress_user_lesson;not null" json:"user_id"`
	ChapterID   string    `gorm:"uniqueIndex:idx_lesson_progress_user_lesson;not null" json:"chapter_id"`
	LessonID    string    `gorm:"uniqueIndex:idx_lesson_progress_user_lesson;not null" json:"lesson_id"`
	Completed   bool      `json:"completed"`
	Score       int       `gorm:"check:score>=0 AND score<=100" json:"score"`
	TimeSpent   int       `json:"time_spent"` // seconds
	Attempts    int       `gorm:"default:1" json:"attempts"`
	LastAttempt time.Time `json:"last_attempt"`
}

type ChapterUnlock struct {
	gorm.Model
	UserID     uint      `gorm:"uniqueIndex:idx_chapter_unlock_user_chapter;not null" json:"user_id"`
	ChapterID  string    `gorm:"uniqueIndex:idx_chapter_unlock_user_chapter;not null" json:"chapter_id"`
	UnlockedAt time.Time `json:"unlocked_at"`
}

// XPGrant is one entry of the append-only experience ledger.
// UserProgress.XP is the running sum of a user's grants.
type XPGrant struct {
	gorm.Model
	UserID uint   `gorm:"index;not null" json:"user_id"`
	Amount int    `gorm:"check:amount>=0" json:"amount"`
	Source string `json:"source"`
}

type ProgressOverview struct {
	XP               int              `json:"xp"`
	StreakDays       int              `json:"streak_days"`
	LessonsCompleted int              `json:"lessons_completed"`
	Lessons          []LessonProgress `json:"lessons"`
	UnlockedChapters []string         `json:"unlocked_chapters"`
}

// LessonRecord is the outcome report a lesson screen sends to the tracker.
type LessonRecord struct {
	LessonID  string `json:"lessonId" validate:"required"`
	ChapterID string `json:"chapterId" validate:"required"`
	Completed bool   `json:"completed"`
	Score     int    `json:"score" validate:"min=0,max=100"`
	TimeSpent int    `json:"timeSpent" validate:"min=0"`
	Attempts  int    `json:"attempts" validate:"min=1"`
}
