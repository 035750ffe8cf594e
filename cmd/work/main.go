package main

import (
	"os"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"crewdesk/config"
	"crewdesk/middleware"
	"crewdesk/models"
	"crewdesk/routes"
)

func main() {
	log := logrus.WithField("service", "work")

	if err := config.LoadConfig("8003", "tasks_db"); err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}

	if config.AppConfig.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: config.AppConfig.SentryDSN}); err != nil {
			log.WithError(err).Fatal("failed to initialize sentry")
		}
	}

	db, err := config.ConnectDB()
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	if err := db.AutoMigrate(&models.Task{}, &models.Comment{}, &models.Attachment{}); err != nil {
		log.WithError(err).Fatal("failed to migrate database")
	}

	if err := os.MkdirAll(config.AppConfig.UploadDir, 0o755); err != nil {
		log.WithError(err).Fatal("failed to create upload directory")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 32 * 1024 * 1024,
	})
	app.Use(middleware.CORS())

	routes.SetupWorkRoutes(app, db, log)

	log.WithField("port", config.AppConfig.ServerPort).Info("work service starting")
	if err := app.Listen(":" + config.AppConfig.ServerPort); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
