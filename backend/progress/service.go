// Package progress persists lesson outcomes, experience and chapter access
// for each learner.
package progress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"lingua/backend/assessment"
	"lingua/backend/events"
	"lingua/backend/models"
)

var (
	ErrInvalidRecord  = errors.New("invalid progress record")
	ErrInvalidAmount  = errors.New("xp amount must not be negative")
	ErrInvalidChapter = errors.New("chapter id is required")
)

type Service struct {
	db        *gorm.DB
	validate  *validator.Validate
	publisher events.Publisher
	logger    *slog.Logger
}

func NewService(db *gorm.DB, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		db:        db,
		validate:  validator.New(),
		publisher: publisher,
		logger:    logger,
	}
}

// UpdateLessonProgress stores the latest outcome of a lesson. Score, time
// and attempts are overwritten; once a lesson is completed it stays so.
func (s *Service) UpdateLessonProgress(ctx context.Context, userID uint, record models.LessonRecord) (*models.LessonProgress, error) {
	if err := s.validate.Struct(record); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}

	var lp models.LessonProgress
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ? AND chapter_id = ? AND lesson_id = ?", userID, record.ChapterID, record.LessonID).
			First(&lp).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			lp = models.LessonProgress{
				UserID:    userID,
				ChapterID: record.ChapterID,
				LessonID:  record.LessonID,
			}
		}

		newlyCompleted := record.Completed && !lp.Completed
		lp.Completed = lp.Completed || record.Completed
		lp.Score = record.Score
		lp.TimeSpent = record.TimeSpent
		lp.Attempts = record.Attempts
		lp.LastAttempt = time.Now()

		if err := tx.Save(&lp).Error; err != nil {
			return err
		}

		up, err := touchUserProgress(tx, userID)
		if err != nil {
			return err
		}
		if newlyCompleted {
			return tx.Model(up).UpdateColumn("lessons_completed", gorm.Expr("lessons_completed + ?", 1)).Error
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update lesson progress: %w", err)
	}

	s.publish(ctx, events.New(events.TypeLessonUpdated, userID, record))
	return &lp, nil
}

// AddXP appends a grant to the ledger and returns the new total.
func (s *Service) AddXP(ctx context.Context, userID uint, amount int, source string) (int, error) {
	if amount < 0 {
		return 0, ErrInvalidAmount
	}

	var total int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		grant := models.XPGrant{UserID: userID, Amount: amount, Source: source}
		if err := tx.Create(&grant).Error; err != nil {
			return err
		}
		up, err := touchUserProgress(tx, userID)
		if err != nil {
			return err
		}
		if err := tx.Model(up).UpdateColumn("xp", gorm.Expr("xp + ?", amount)).Error; err != nil {
			return err
		}
		if err := tx.First(up, up.ID).Error; err != nil {
			return err
		}
		total = up.XP
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("add xp: %w", err)
	}

	s.publish(ctx, events.New(events.TypeXPAdded, userID, map[string]interface{}{
		"amount": amount,
		"source": source,
		"total":  total,
	}))
	return total, nil
}

// UnlockChapter opens chapterID for the user. It reports whether the
// chapter was locked before; unlocking twice is not an error.
func (s *Service) UnlockChapter(ctx context.Context, userID uint, chapterID string) (bool, error) {
	if chapterID == "" {
		return false, ErrInvalidChapter
	}

	var created bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var unlock models.ChapterUnlock
		err := tx.Where("user_id = ? AND chapter_id = ?", userID, chapterID).First(&unlock).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		unlock = models.ChapterUnlock{UserID: userID, ChapterID: chapterID, UnlockedAt: time.Now()}
		if err := tx.Create(&unlock).Error; err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("unlock chapter: %w", err)
	}

	if created {
		s.publish(ctx, events.New(events.TypeChapterUnlocked, userID, map[string]string{"chapter_id": chapterID}))
	}
	return created, nil
}

func (s *Service) Overview(ctx context.Context, userID uint) (*models.ProgressOverview, error) {
	db := s.db.WithContext(ctx)

	var up models.UserProgress
	if err := db.Where("user_id = ?", userID).First(&up).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load user progress: %w", err)
	}

	var lessons []models.LessonProgress
	if err := db.Where("user_id = ?", userID).Order("chapter_id, lesson_id").Find(&lessons).Error; err != nil {
		return nil, fmt.Errorf("load lessons: %w", err)
	}

	var chapters []string
	if err := db.Model(&models.ChapterUnlock{}).Where("user_id = ?", userID).
		Order("chapter_id").Pluck("chapter_id", &chapters).Error; err != nil {
		return nil, fmt.Errorf("load unlocked chapters: %w", err)
	}

	if lessons == nil {
		lessons = []models.LessonProgress{}
	}
	if chapters == nil {
		chapters = []string{}
	}
	return &models.ProgressOverview{
		XP:               up.XP,
		StreakDays:       up.StreakDays,
		LessonsCompleted: up.LessonsCompleted,
		Lessons:          lessons,
		UnlockedChapters: chapters,
	}, nil
}

// PublishCompletion announces a fully reported assessment attempt.
func (s *Service) PublishCompletion(ctx context.Context, userID uint, assessmentID string, r assessment.Result) {
	s.publish(ctx, events.New(events.TypeAssessmentCompleted, userID, map[string]interface{}{
		"assessment_id": assessmentID,
		"score":         r.Score,
		"passed":        r.Passed,
		"xp":            r.XP,
	}))
}

// ForUser returns a tracker that reports on behalf of userID.
func (s *Service) ForUser(userID uint) assessment.Tracker {
	return &UserTracker{svc: s, userID: userID}
}

func (s *Service) publish(ctx context.Context, e events.Event) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.Error("failed to publish event", "type", e.Type, "user_id", e.UserID, "error", err)
	}
}

// touchUserProgress returns the user's progress row, creating it if needed,
// and marks the user active.
func touchUserProgress(tx *gorm.DB, userID uint) (*models.UserProgress, error) {
	var up models.UserProgress
	if err := tx.Where(models.UserProgress{UserID: userID}).FirstOrCreate(&up).Error; err != nil {
		return nil, err
	}
	if err := tx.Model(&up).UpdateColumn("last_active", time.Now()).Error; err != nil {
		return nil, err
	}
	return &up, nil
}

// UserTracker adapts Service to assessment.Tracker for one user.
type UserTracker struct {
	svc    *Service
	userID uint
}

var _ assessment.Tracker = (*UserTracker)(nil)

func (t *UserTracker) UpdateLessonProgress(ctx context.Context, record models.LessonRecord) error {
	_, err := t.svc.UpdateLessonProgress(ctx, t.userID, record)
	return err
}

func (t *UserTracker) AddXP(ctx context.Context, amount int) error {
	_, err := t.svc.AddXP(ctx, t.userID, amount, "assessment")
	return err
}

func (t *UserTracker) UnlockChapter(ctx context.Context, chapterID string) error {
	_, err := t.svc.UnlockChapter(ctx, t.userID, chapterID)
	return err
}
