package main

import (
	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"crewdesk/config"
	"crewdesk/middleware"
	"crewdesk/models"
	"crewdesk/routes"
)

func main() {
	log := logrus.WithField("service", "team")

	if err := config.LoadConfig("8002", "teams_db"); err != nil {
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
	if err := db.AutoMigrate(&models.Team{}); err != nil {
		log.WithError(err).Fatal("failed to migrate database")
	}

	app := fiber.New()
	app.Use(middleware.CORS())

	routes.SetupTeamRoutes(app, db, log)

	log.WithField("port", config.AppConfig.ServerPort).Info("team service starting")
	if err := app.Listen(":" + config.AppConfig.ServerPort); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
