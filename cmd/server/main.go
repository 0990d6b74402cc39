package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	swagger "github.com/gofiber/swagger"
	"github.com/sirupsen/logrus"

	"github.com/localnerve/docsdb/internal/apps"
	"github.com/localnerve/docsdb/internal/config"
	"github.com/localnerve/docsdb/internal/database"
	"github.com/localnerve/docsdb/internal/handlers"
	"github.com/localnerve/docsdb/internal/middleware"
	"github.com/localnerve/docsdb/internal/storage"
	"github.com/localnerve/docsdb/internal/tasks"

	_ "github.com/localnerve/docsdb/docs/api" // Swagger docs
)

// @title DocsDB API
// @version 1.0.0
// @description Document parsing and smart link service with multi-database support
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url https://github.com/localnerve/docsdb
// @contact.email info@localnerve.com

// @license.name AGPL-3.0
// @license.url https://www.gnu.org/licenses/agpl-3.0.html

// @host localhost:3000
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name cookie_session

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	configureLogging(cfg)

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	// Run auto-migrations
	if err := database.AutoMigrate(db); err != nil {
		logrus.Fatalf("Failed to run migrations: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fs, err := storage.New(ctx, cfg)
	if err != nil {
		logrus.Fatalf("Failed to open file storage: %v", err)
	}

	// Wire the apps and start the task workers
	broker := tasks.NewBroker(tasks.WithLogger(logrus.StandardLogger()))
	registry := apps.New(cfg, db, fs, broker)
	if err := registry.Ready(); err != nil {
		logrus.Fatalf("Failed to initialize apps: %v", err)
	}
	if err := broker.Start(ctx); err != nil {
		logrus.Fatalf("Failed to start task broker: %v", err)
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler,
		BodyLimit:    64 * 1024 * 1024,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(compress.New())

	// Prometheus metrics
	prometheus := fiberprometheus.New("docsdb")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API routes under /api, all authenticated
	api := app.Group("/api", middleware.Authenticate(middleware.AuthorizerSession(cfg)))
	handlers.Register(api, registry)

	// 404 handler
	app.Use(handlers.NotFoundHandler)

	logrus.Info("Authorizer will be initialized on first authenticated request")

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		logrus.Info("Gracefully shutting down...")
		_ = app.Shutdown()
	}()

	// Start server
	port := cfg.Port
	logrus.Infof("Starting server on port %s", port)
	if err := app.Listen(":" + port); err != nil {
		logrus.Errorf("Failed to start server: %v", err)
	}

	broker.Stop()
	logrus.Info("Server stopped")
}

// configureLogging applies LOG_LEVEL and LOG_FORMAT to the standard logger
func configureLogging(cfg *config.Config) {
	if cfg.LogFormat == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.Warnf("Unknown LOG_LEVEL %q, using info", cfg.LogLevel)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}
