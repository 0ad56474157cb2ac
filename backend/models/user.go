package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Username     string `gorm:"unique;not null"`
	Email        string `gorm:"unique;not null"`
	PasswordHash string `gorm:"not null"`
	Role         string `gorm:"default:user"` // user, admin
}

type UserProgress struct {
	gorm.Model
	UserID           uint `gorm:"uniqueIndex;not null"`
	LastActive       time.Time
	StreakDays       int `gorm:"default:0"`
	XP               int `gorm:"default:0"`
	LessonsCompleted int `gorm:"default:0"`
}

// AllModels lists every persisted model, in migration order.
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&UserProgress{},
		&LessonProgress{},
		&ChapterUnlock{},
		&XPGrant{},
		&UserActivity{},
	}
}
