package controllers

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"lingua/backend/config"
	"lingua/backend/models"
	"lingua/backend/progress"
	"lingua/backend/utils"
)

const maxActivityDays = 90

type UserController struct {
	DB       *gorm.DB
	Cfg      *config.Config
	Progress *progress.Service
	validate *validator.Validate
}

func NewUserController(db *gorm.DB, cfg *config.Config, svc *progress.Service) *UserController {
	return &UserController{DB: db, Cfg: cfg, Progress: svc, validate: validator.New()}
}

type UpdateUserRequest struct {
	Username    string `json:"username" validate:"omitempty,min=3,max=32"`
	Email       string `json:"email" validate:"omitempty,email"`
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password" validate:"omitempty,min=8"`
}

type ActivityEntry struct {
	ActionType string          `json:"action_type"`
	Detail     json.RawMessage `json:"detail,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// GetProfile godoc
// @Summary Get user profile
// @Description Returns authenticated user's profile data with XP and streak
// @Tags users
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /user/profile [get]
func (uc *UserController) GetProfile(c *fiber.Ctx) error {
	userID := utils.UserID(c)

	var user models.User
	if err := uc.DB.First(&user, userID).Error; err != nil {
		return utils.NotFound(c, "User not found")
	}

	overview, err := uc.Progress.Overview(c.UserContext(), userID)
	if err != nil {
		return utils.InternalServerError(c, "Could not load progress")
	}

	// Формируем ответ без чувствительных данных
	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"id":                user.ID,
		"username":          user.Username,
		"email":             user.Email,
		"role":              user.Role,
		"created_at":        user.CreatedAt,
		"xp":                overview.XP,
		"streak_days":       overview.StreakDays,
		"lessons_completed": overview.LessonsCompleted,
		"unlocked_chapters": overview.UnlockedChapters,
	})
}

// UpdateProfile godoc
// @Summary Update user profile
// @Description Updates authenticated user's profile data
// @Tags users
// @Accept json
// @Produce json
// @Param input body UpdateUserRequest true "Profile update data"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 401 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /user/profile [put]
func (uc *UserController) UpdateProfile(c *fiber.Ctx) error {
	var input UpdateUserRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if err := uc.validate.Struct(input); err != nil {
		return utils.ValidationError(c, err.Error())
	}

	var user models.User
	if err := uc.DB.First(&user, utils.UserID(c)).Error; err != nil {
		return utils.NotFound(c, "User not found")
	}

	// Обновление имени пользователя
	if input.Username != "" && input.Username != user.Username {
		if taken, err := uc.taken("username", input.Username, user.ID); err != nil {
			return utils.InternalServerError(c, "Could not query database")
		} else if taken {
			return utils.Conflict(c, "Username already taken")
		}
		user.Username = input.Username
	}

	// Обновление email
	if input.Email != "" && input.Email != user.Email {
		if taken, err := uc.taken("email", input.Email, user.ID); err != nil {
			return utils.InternalServerError(c, "Could not query database")
		} else if taken {
			return utils.Conflict(c, "Email already taken")
		}
		user.Email = input.Email
	}

	// Обновление пароля
	if input.NewPassword != "" {
		if input.OldPassword == "" {
			return utils.BadRequest(c, "Old password is required to set new password")
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.OldPassword)); err != nil {
			return utils.Unauthorized(c, "Invalid old password")
		}
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return utils.InternalServerError(c, "Could not hash password")
		}
		user.PasswordHash = string(hashedPassword)
	}

	if err := uc.DB.Save(&user).Error; err != nil {
		return utils.InternalServerError(c, "Could not update user")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"message": "Profile updated successfully",
	})
}

// GetUserActivity godoc
// @Summary Get user activity
// @Description Returns the user's recent progress events, newest first
// @Tags users
// @Produce json
// @Param days query int false "Number of days to look back" default(7)
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /user/activity [get]
func (uc *UserController) GetUserActivity(c *fiber.Ctx) error {
	days, err := strconv.Atoi(c.Query("days", "7"))
	if err != nil || days < 1 {
		return utils.BadRequest(c, "days must be a positive integer")
	}
	if days > maxActivityDays {
		days = maxActivityDays
	}

	var rows []models.UserActivity
	if err := uc.DB.WithContext(c.UserContext()).
		Where("user_id = ? AND occurred_at >= ?", utils.UserID(c), time.Now().UTC().AddDate(0, 0, -days)).
		Order("occurred_at DESC").
		Find(&rows).Error; err != nil {
		return utils.InternalServerError(c, "Failed to fetch activity")
	}

	entries := make([]ActivityEntry, 0, len(rows))
	for _, row := range rows {
		entry := ActivityEntry{ActionType: row.ActionType, OccurredAt: row.OccurredAt}
		if json.Valid([]byte(row.Detail)) {
			entry.Detail = json.RawMessage(row.Detail)
		}
		entries = append(entries, entry)
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"activity":    entries,
		"period_days": days,
	})
}

func (uc *UserController) taken(column, value string, self uint) (bool, error) {
	var existing models.User
	err := uc.DB.Where(column+" = ?", value).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return existing.ID != self, nil
}
