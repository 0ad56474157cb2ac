package routes

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"lingua/backend/assessment"
	"lingua/backend/catalog"
	"lingua/backend/config"
	"lingua/backend/controllers"
	"lingua/backend/middleware"
	"lingua/backend/progress"
)

type Dependencies struct {
	DB       *gorm.DB
	Cfg      *config.Config
	Logger   *slog.Logger
	Catalog  *catalog.Catalog
	Sessions *assessment.Registry
	Progress *progress.Service

	// Reporter defaults to Progress.
	Reporter controllers.CompletionReporter
}

func SetupRoutes(app *fiber.App, deps Dependencies) {
	reporter := deps.Reporter
	if reporter == nil {
		reporter = deps.Progress
	}

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Auth routes
	authController := controllers.NewAuthController(deps.DB, deps.Cfg)
	app.Post("/api/auth/register", authController.Register)
	app.Post("/api/auth/login", authController.Login)

	// Middleware
	authMiddleware := middleware.AuthMiddleware(deps.Cfg)

	// User routes
	userController := controllers.NewUserController(deps.DB, deps.Cfg, deps.Progress)
	app.Get("/api/user/profile", authMiddleware, userController.GetProfile)
	app.Put("/api/user/profile", authMiddleware, userController.UpdateProfile)
	app.Get("/api/user/activity", authMiddleware, userController.GetUserActivity)

	// Progress routes
	progressController := controllers.NewProgressController(deps.Progress, deps.Cfg, deps.Logger)
	progressGroup := app.Group("/api/progress", authMiddleware)
	progressGroup.Get("/", progressController.GetProgress)
	progressGroup.Post("/lessons", progressController.UpdateLessonProgress)
	progressGroup.Post("/xp", progressController.AddXP)
	progressGroup.Post("/chapters/:chapterId/unlock", progressController.UnlockChapter)

	// Assessment routes
	assessmentController := controllers.NewAssessmentController(deps.Catalog, deps.Sessions, reporter, deps.Cfg, deps.Logger)
	assessments := app.Group("/api/assessments", authMiddleware)
	assessments.Get("/", assessmentController.ListAssessments)
	assessments.Post("/:id/sessions", assessmentController.StartSession)

	sessions := app.Group("/api/sessions", authMiddleware)
	sessions.Get("/:sid", assessmentController.GetSession)
	sessions.Delete("/:sid", assessmentController.Abandon)
	sessions.Post("/:sid/select", assessmentController.Select)
	sessions.Post("/:sid/advance", assessmentController.Advance)
	sessions.Post("/:sid/retry", assessmentController.Retry)
	sessions.Post("/:sid/dismiss", assessmentController.Dismiss)
}
