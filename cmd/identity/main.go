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
	log := logrus.WithField("service", "identity")

	if err := config.LoadConfig("8001", "users_db"); err != nil {
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
	if err := db.AutoMigrate(&models.User{}); err != nil {
		log.WithError(err).Fatal("failed to migrate database")
	}

	app := fiber.New()
	app.Use(middleware.CORS())

	routes.SetupIdentityRoutes(app, db, log)

	log.WithField("port", config.AppConfig.ServerPort).Info("identity service starting")
	if err := app.Listen(":" + config.AppConfig.ServerPort); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
