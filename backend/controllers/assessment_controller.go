package controllers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"lingua/backend/assessment"
	"lingua/backend/catalog"
	"lingua/backend/config"
	"lingua/backend/metrics"
	"lingua/backend/models"
	"lingua/backend/utils"
)

// CompletionReporter receives finished attempts.
type CompletionReporter interface {
	ForUser(userID uint) assessment.Tracker
	PublishCompletion(ctx context.Context, userID uint, assessmentID string, r assessment.Result)
}

type AssessmentController struct {
	Catalog  *catalog.Catalog
	Sessions *assessment.Registry
	Reporter CompletionReporter
	Cfg      *config.Config
	Logger   *slog.Logger
}

func NewAssessmentController(cat *catalog.Catalog, sessions *assessment.Registry, reporter CompletionReporter, cfg *config.Config, logger *slog.Logger) *AssessmentController {
	return &AssessmentController{
		Catalog:  cat,
		Sessions: sessions,
		Reporter: reporter,
		Cfg:      cfg,
		Logger:   logger,
	}
}

type AssessmentSummary struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Subtitle      string `json:"subtitle"`
	ChapterID     string `json:"chapter_id"`
	Unlocks       string `json:"unlocks,omitempty"`
	QuestionCount int    `json:"question_count"`
}

type SelectInput struct {
	Option string `json:"option"`
}

// ListAssessments godoc
// @Summary List assessments
// @Tags assessments
// @Produce json
// @Success 200 {array} AssessmentSummary
// @Security ApiKeyAuth
// @Router /assessments [get]
func (ac *AssessmentController) ListAssessments(c *fiber.Ctx) error {
	list := ac.Catalog.List()
	out := make([]AssessmentSummary, 0, len(list))
	for _, a := range list {
		out = append(out, summarize(a))
	}
	return utils.Success(c, fiber.StatusOK, out)
}

// StartSession godoc
// @Summary Start an assessment attempt
// @Tags assessments
// @Produce json
// @Param id path string true "Assessment ID"
// @Success 201 {object} assessment.View
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /assessments/{id}/sessions [post]
func (ac *AssessmentController) StartSession(c *fiber.Ctx) error {
	a, err := ac.Catalog.Get(c.Params("id"))
	if err != nil {
		return utils.NotFound(c, "Assessment not found")
	}

	s := assessment.NewSession(a)
	s.UserID = utils.UserID(c)
	ac.Sessions.Add(s)
	metrics.SessionsStarted.WithLabelValues(a.ID).Inc()
	metrics.SessionsActive.Set(float64(ac.Sessions.Len()))

	ac.Logger.Info("assessment session started",
		"session_id", s.ID,
		"assessment_id", a.ID,
		"user_id", s.UserID,
	)
	return utils.Created(c, s.Snapshot())
}

// GetSession godoc
// @Summary Get the current state of an attempt
// @Tags assessments
// @Produce json
// @Param sid path string true "Session ID"
// @Success 200 {object} assessment.View
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /sessions/{sid} [get]
func (ac *AssessmentController) GetSession(c *fiber.Ctx) error {
	s, ok := ac.session(c)
	if !ok {
		return utils.NotFound(c, "Session not found")
	}
	return utils.Success(c, fiber.StatusOK, s.Snapshot())
}

// Select godoc
// @Summary Highlight an option for the current question
// @Tags assessments
// @Accept json
// @Produce json
// @Param sid path string true "Session ID"
// @Param option body SelectInput true "Chosen option"
// @Success 200 {object} assessment.View
// @Failure 409 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /sessions/{sid}/select [post]
func (ac *AssessmentController) Select(c *fiber.Ctx) error {
	s, ok := ac.session(c)
	if !ok {
		return utils.NotFound(c, "Session not found")
	}

	var input SelectInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if err := s.Select(input.Option); err != nil {
		return ac.sessionError(c, s, err)
	}
	return utils.Success(c, fiber.StatusOK, s.Snapshot())
}

// Advance godoc
// @Summary Confirm the selection and move on
// @Description On the last question the attempt is scored and reported
// @Description to the progress tracker before responding.
// @Tags assessments
// @Produce json
// @Param sid path string true "Session ID"
// @Success 200 {object} assessment.View
// @Failure 502 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /sessions/{sid}/advance [post]
func (ac *AssessmentController) Advance(c *fiber.Ctx) error {
	s, ok := ac.session(c)
	if !ok {
		return utils.NotFound(c, "Session not found")
	}

	completing, err := s.Advance()
	if err != nil {
		return ac.sessionError(c, s, err)
	}
	if !completing {
		return utils.Success(c, fiber.StatusOK, s.Snapshot())
	}
	return ac.complete(c, s)
}

// Retry godoc
// @Summary Retry reporting a failed completion
// @Tags assessments
// @Produce json
// @Param sid path string true "Session ID"
// @Success 200 {object} assessment.View
// @Failure 502 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /sessions/{sid}/retry [post]
func (ac *AssessmentController) Retry(c *fiber.Ctx) error {
	s, ok := ac.session(c)
	if !ok {
		return utils.NotFound(c, "Session not found")
	}
	if s.State() != assessment.StateFailed {
		return utils.Conflict(c, assessment.ErrNotCompleting.Error())
	}
	return ac.complete(c, s)
}

// Dismiss godoc
// @Summary Close the completion dialog
// @Tags assessments
// @Param sid path string true "Session ID"
// @Success 204
// @Failure 409 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /sessions/{sid}/dismiss [post]
func (ac *AssessmentController) Dismiss(c *fiber.Ctx) error {
	s, ok := ac.session(c)
	if !ok {
		return utils.NotFound(c, "Session not found")
	}
	if err := s.Dismiss(); err != nil {
		return ac.sessionError(c, s, err)
	}
	ac.Sessions.Remove(s.ID)
	metrics.SessionsActive.Set(float64(ac.Sessions.Len()))
	return utils.NoContent(c)
}

// Abandon godoc
// @Summary Leave an attempt without completing it
// @Tags assessments
// @Param sid path string true "Session ID"
// @Success 204
// @Failure 409 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /sessions/{sid} [delete]
func (ac *AssessmentController) Abandon(c *fiber.Ctx) error {
	s, ok := ac.session(c)
	if !ok {
		return utils.NotFound(c, "Session not found")
	}
	if s.Busy() {
		return utils.Conflict(c, assessment.ErrCompletionInFlight.Error())
	}
	ac.Sessions.Remove(s.ID)
	metrics.SessionsActive.Set(float64(ac.Sessions.Len()))
	ac.Logger.Info("assessment session abandoned", "session_id", s.ID, "state", s.State())
	return utils.NoContent(c)
}

func (ac *AssessmentController) complete(c *fiber.Ctx, s *assessment.Session) error {
	ctx := c.UserContext()
	if ac.Cfg != nil && ac.Cfg.TrackerTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ac.Cfg.TrackerTimeout)
		defer cancel()
	}

	start := time.Now()
	if err := s.Complete(ctx, ac.Reporter.ForUser(s.UserID)); err != nil {
		if errors.Is(err, assessment.ErrCompletionInFlight) || errors.Is(err, assessment.ErrNotCompleting) {
			return ac.sessionError(c, s, err)
		}
		step := "unknown"
		var stepErr *assessment.StepError
		if errors.As(err, &stepErr) {
			step = stepErr.Step.String()
		}
		metrics.CompletionFailures.WithLabelValues(step).Inc()
		metrics.CompletionDuration.WithLabelValues("failure").Observe(time.Since(start).Seconds())
		ac.Logger.Warn("assessment completion failed",
			"session_id", s.ID,
			"user_id", s.UserID,
			"error", err,
		)
		return utils.Error(c, fiber.StatusBadGateway, err, s.Snapshot())
	}

	metrics.CompletionDuration.WithLabelValues("success").Observe(time.Since(start).Seconds())

	result, _ := s.Result()
	metrics.Completions.WithLabelValues(metrics.ResultLabel(result.Passed)).Inc()
	ac.Reporter.PublishCompletion(ctx, s.UserID, s.Assessment().ID, result)
	ac.Logger.Info("assessment completed",
		"session_id", s.ID,
		"user_id", s.UserID,
		"score", result.Score,
		"passed", result.Passed,
	)
	return utils.Success(c, fiber.StatusOK, s.Snapshot())
}

func (ac *AssessmentController) session(c *fiber.Ctx) (*assessment.Session, bool) {
	return ac.Sessions.Get(c.Params("sid"), utils.UserID(c))
}

func (ac *AssessmentController) sessionError(c *fiber.Ctx, s *assessment.Session, err error) error {
	switch {
	case errors.Is(err, assessment.ErrUnknownOption):
		return utils.ValidationError(c, err.Error())
	case errors.Is(err, assessment.ErrNotAnswering),
		errors.Is(err, assessment.ErrNotCompleting),
		errors.Is(err, assessment.ErrCompletionInFlight),
		errors.Is(err, assessment.ErrNotFinished):
		return utils.Error(c, fiber.StatusConflict, err, s.Snapshot())
	}
	return utils.InternalServerError(c, err.Error())
}

func summarize(a *models.Assessment) AssessmentSummary {
	return AssessmentSummary{
		ID:            a.ID,
		Title:         a.Title,
		Subtitle:      a.Subtitle,
		ChapterID:     a.ChapterID,
		Unlocks:       a.Unlocks,
		QuestionCount: len(a.Questions),
	}
}
