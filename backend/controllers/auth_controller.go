package controllers

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/gofiber/fiber/v2"

	"lingua/backend/config"
	"lingua/backend/metrics"
	"lingua/backend/models"
	"lingua/backend/utils"
)

type AuthController struct {
	DB       *gorm.DB
	Cfg      *config.Config
	validate *validator.Validate
}

func NewAuthController(db *gorm.DB, cfg *config.Config) *AuthController {
	return &AuthController{DB: db, Cfg: cfg, validate: validator.New()}
}

type RegisterInput struct {
	Username string `json:"username" validate:"required,min=3,max=32"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Register godoc
// @Summary Register a new user
// @Description Creates a new user account
// @Tags auth
// @Accept json
// @Produce json
// @Param user body RegisterInput true "User registration data"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Router /auth/register [post]
func (ac *AuthController) Register(c *fiber.Ctx) error {
	var input RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if err := ac.validate.Struct(input); err != nil {
		return utils.ValidationError(c, err.Error())
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return utils.InternalServerError(c, "Could not hash password")
	}

	user := models.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
	}

	var existing int64
	if err := ac.DB.Model(&models.User{}).Where("username = ? OR email = ?", user.Username, user.Email).Count(&existing).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}
	if existing > 0 {
		return utils.Conflict(c, "Username or email already taken")
	}

	if err := ac.DB.Create(&user).Error; err != nil {
		return utils.InternalServerError(c, "Could not create user")
	}

	return ac.respondWithToken(c, &user)
}

// Login godoc
// @Summary User login
// @Description Authenticate user and return JWT token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginInput true "Login credentials"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 401 {object} utils.ErrorResponse
// @Router /auth/login [post]
func (ac *AuthController) Login(c *fiber.Ctx) error {
	var input LoginInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if err := ac.validate.Struct(input); err != nil {
		return utils.ValidationError(c, err.Error())
	}

	var user models.User
	if err := ac.DB.Where("username = ?", input.Username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.LoginAttempts.WithLabelValues("failure").Inc()
			return utils.Unauthorized(c, "Invalid credentials")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		return utils.Unauthorized(c, "Invalid credentials")
	}
	metrics.LoginAttempts.WithLabelValues("success").Inc()

	if err := ac.touchStreak(user.ID, time.Now()); err != nil {
		return utils.InternalServerError(c, "Could not update streak")
	}

	return ac.respondWithToken(c, &user)
}

// touchStreak records a login at now. Only streak_days and last_active are
// written so concurrent XP and lesson updates on the same row survive.
func (ac *AuthController) touchStreak(userID uint, now time.Time) error {
	var up models.UserProgress
	if err := ac.DB.Where(models.UserProgress{UserID: userID}).FirstOrCreate(&up).Error; err != nil {
		return err
	}
	return ac.DB.Model(&up).UpdateColumns(map[string]interface{}{
		"streak_days": nextStreak(up.StreakDays, up.LastActive, now),
		"last_active": now,
	}).Error
}

// nextStreak counts consecutive calendar days (UTC) with a login.
func nextStreak(current int, last, now time.Time) int {
	if last.IsZero() || current <= 0 {
		return 1
	}
	y1, m1, d1 := last.UTC().Date()
	y2, m2, d2 := now.UTC().Date()
	days := int(time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC).Sub(time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)).Hours() / 24)
	switch {
	case days <= 0:
		return current
	case days == 1:
		return current + 1
	default:
		return 1
	}
}

func (ac *AuthController) respondWithToken(c *fiber.Ctx, user *models.User) error {
	token, err := utils.GenerateJWTToken(user.ID, ac.Cfg)
	if err != nil {
		return utils.InternalServerError(c, "Could not generate token")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"token": token,
		"user": fiber.Map{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
		},
	})
}
