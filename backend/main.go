package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"lingua/backend/assessment"
	"lingua/backend/catalog"
	"lingua/backend/config"
	"lingua/backend/events"
	"lingua/backend/metrics"
	"lingua/backend/middleware"
	"lingua/backend/progress"
	"lingua/backend/routes"
	"lingua/backend/utils"
)

const (
	sessionMaxAge    = 2 * time.Hour
	sessionPruneTick = 10 * time.Minute
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// Initialize logger
	logger := utils.InitLogger(utils.LoggerConfig{Format: cfg.LogFormat})

	// Initialize database
	db, err := utils.InitDB(cfg)
	if err != nil {
		log.Fatalf("Error initializing database: %v", err)
	}

	broker, err := events.NewAMQPPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange, logger)
	if err != nil {
		log.Fatalf("Error initializing event publisher: %v", err)
	}
	publisher := events.Fanout{broker, events.NewDBRecorder(db)}
	defer publisher.Close()

	sessions := assessment.NewRegistry()
	deps := routes.Dependencies{
		DB:       db,
		Cfg:      cfg,
		Logger:   logger,
		Catalog:  catalog.Default(),
		Sessions: sessions,
		Progress: progress.NewService(db, publisher, logger),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go pruneSessions(ctx, sessions, logger)

	// Create Fiber app
	app := fiber.New(fiber.Config{ErrorHandler: utils.ErrorHandler})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(middleware.LoggingMiddleware(logger))

	// Setup routes
	routes.SetupRoutes(app, deps)

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		if err := app.ShutdownWithTimeout(cfg.TrackerTimeout + 5*time.Second); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
	}()

	// Start server
	logger.Info("server starting", "port", cfg.ServerPort, "db_driver", cfg.DBDriver)
	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		log.Fatal(err)
	}
}

func pruneSessions(ctx context.Context, sessions *assessment.Registry, logger *slog.Logger) {
	ticker := time.NewTicker(sessionPruneTick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n := sessions.Prune(now, sessionMaxAge)
			metrics.SessionsActive.Set(float64(sessions.Len()))
			if n > 0 {
				logger.Info("pruned inactive assessment sessions", "removed", n, "remaining", sessions.Len())
			}
		}
	}
}
