package controllers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"lingua/backend/config"
	"lingua/backend/models"
	"lingua/backend/progress"
	"lingua/backend/utils"
)

type ProgressController struct {
	Progress *progress.Service
	Cfg      *config.Config
	Logger   *slog.Logger
}

func NewProgressController(svc *progress.Service, cfg *config.Config, logger *slog.Logger) *ProgressController {
	return &ProgressController{Progress: svc, Cfg: cfg, Logger: logger}
}

type XPInput struct {
	Amount int    `json:"amount"`
	Source string `json:"source"`
}

// GetProgress godoc
// @Summary Get user progress
// @Description Returns XP, lesson records and unlocked chapters
// @Tags progress
// @Produce json
// @Success 200 {object} models.ProgressOverview
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /progress [get]
func (pc *ProgressController) GetProgress(c *fiber.Ctx) error {
	overview, err := pc.Progress.Overview(c.UserContext(), utils.UserID(c))
	if err != nil {
		pc.Logger.Error("load progress overview", "user_id", utils.UserID(c), "error", err)
		return utils.InternalServerError(c, "Could not load progress")
	}
	return utils.Success(c, fiber.StatusOK, overview)
}

// UpdateLessonProgress godoc
// @Summary Record a lesson outcome
// @Tags progress
// @Accept json
// @Produce json
// @Param record body models.LessonRecord true "Lesson outcome"
// @Success 200 {object} models.LessonProgress
// @Failure 422 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /progress/lessons [post]
func (pc *ProgressController) UpdateLessonProgress(c *fiber.Ctx) error {
	var record models.LessonRecord
	if err := c.BodyParser(&record); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	lp, err := pc.Progress.UpdateLessonProgress(c.UserContext(), utils.UserID(c), record)
	if err != nil {
		return pc.trackerError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, lp)
}

// AddXP godoc
// @Summary Grant experience points
// @Tags progress
// @Accept json
// @Produce json
// @Param grant body XPInput true "Amount to grant"
// @Success 200 {object} map[string]interface{}
// @Failure 422 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /progress/xp [post]
func (pc *ProgressController) AddXP(c *fiber.Ctx) error {
	var input XPInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if input.Source == "" {
		input.Source = "api"
	}

	total, err := pc.Progress.AddXP(c.UserContext(), utils.UserID(c), input.Amount, input.Source)
	if err != nil {
		return pc.trackerError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"xp": total})
}

// UnlockChapter godoc
// @Summary Unlock a chapter
// @Tags progress
// @Produce json
// @Param chapterId path string true "Chapter ID"
// @Success 200 {object} map[string]interface{}
// @Security ApiKeyAuth
// @Router /progress/chapters/{chapterId}/unlock [post]
func (pc *ProgressController) UnlockChapter(c *fiber.Ctx) error {
	chapterID := c.Params("chapterId")
	created, err := pc.Progress.UnlockChapter(c.UserContext(), utils.UserID(c), chapterID)
	if err != nil {
		return pc.trackerError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"chapter_id":     chapterID,
		"newly_unlocked": created,
	})
}

func (pc *ProgressController) trackerError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, progress.ErrInvalidRecord),
		errors.Is(err, progress.ErrInvalidAmount),
		errors.Is(err, progress.ErrInvalidChapter):
		return utils.ValidationError(c, err.Error())
	}
	pc.Logger.Error("progress update failed", "user_id", utils.UserID(c), "path", c.Path(), "error", err)
	return utils.InternalServerError(c, "Could not save progress")
}
