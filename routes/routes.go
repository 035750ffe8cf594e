// Package routes wires controllers, middleware, and stores onto each
// service's fiber app. Every service also gets a request logger and a
// /health endpoint that pings its database.
package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"crewdesk/client"
	"crewdesk/config"
	"crewdesk/controllers"
	"crewdesk/middleware"
	"crewdesk/rolesync"
	"crewdesk/store"
)

func requestLogger() fiber.Handler {
	return logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	})
}

// notFound keeps unmatched paths on the same JSON error shape as everything
// else.
func notFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Not Found"})
}

func healthHandler(service string, db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.Ping()
		}
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"service": service,
				"status":  "degraded",
			})
		}
		return c.JSON(fiber.Map{"service": service, "status": "ok"})
	}
}

// SetupIdentityRoutes mounts the identity service: registration, login, and
// the admin-gated user management endpoints. Role and deletion guards call
// out to the team service through the leadership checker.
func SetupIdentityRoutes(app *fiber.App, db *gorm.DB, log *logrus.Entry) {
	users := store.NewUserStore(db)
	teams := client.New("team service", config.AppConfig.TeamServiceURL, config.AppConfig.PeerTimeout)
	uc := controllers.NewUserController(users, teams, log)

	app.Use(requestLogger())
	app.Get("/health", healthHandler("identity", db))

	app.Post("/users", uc.Register)
	app.Post("/users/token", middleware.LoginRateLimiter(), uc.Login)

	// Authenticated endpoints re-load the user row so deactivation takes
	// effect immediately, not at token expiry.
	authed := app.Group("/users", middleware.ProtectedWithLookup(users))
	authed.Get("/", uc.ListUsers)
	authed.Get("/me", uc.Me)
	authed.Get("/:username", uc.GetUser)

	admin := authed.Group("", middleware.RequireAdmin())
	admin.Patch("/:username/activate", uc.ActivateUser)
	admin.Patch("/:username/deactivate", uc.DeactivateUser)
	admin.Patch("/:username/role", uc.UpdateRole)
	admin.Delete("/:username", uc.DeleteUser)

	app.Use(notFound)
	log.Info("identity routes initialized")
}

// SetupTeamRoutes mounts the team service. The internal is-leader endpoints
// register first and stay unauthenticated: they are called
// service-to-service without a user credential and expose only a boolean.
func SetupTeamRoutes(app *fiber.App, db *gorm.DB, log *logrus.Entry) {
	teams := store.NewTeamStore(db)
	users := client.New("user service", config.AppConfig.UserServiceURL, config.AppConfig.PeerTimeout)
	sync := rolesync.New(teams, users, log)
	tc := controllers.NewTeamController(teams, users, sync, log)

	app.Use(requestLogger())
	app.Get("/health", healthHandler("team", db))

	app.Get("/teams/internal/is-leader/:username", tc.IsLeader)
	app.Get("/teams/:id/internal/is-leader/:username", tc.IsLeaderOfTeam)

	authed := app.Group("/teams", middleware.Protected())
	authed.Get("/", tc.ListTeams)
	authed.Get("/leader/:username", middleware.RequireAdmin(), tc.ListTeamsLedBy)
	authed.Get("/:id", tc.GetTeam)
	authed.Patch("/:id", tc.UpdateTeam)
	authed.Post("/:id/members", tc.AddMember)
	authed.Delete("/:id/members/:username", tc.RemoveMember)
	authed.Patch("/:id/assign-leader", tc.AssignLeader)

	admin := authed.Group("", middleware.RequireAdmin())
	admin.Post("/", tc.CreateTeam)
	admin.Delete("/:id", tc.DeleteTeam)

	app.Use(notFound)
	log.Info("team routes initialized")
}

// SetupWorkRoutes mounts the work service: tasks, comments, attachments.
// The literal /tasks/me and /tasks/team prefixes register before /tasks/:id
// so they are never captured as task IDs.
func SetupWorkRoutes(app *fiber.App, db *gorm.DB, log *logrus.Entry) {
	tasks := store.NewTaskStore(db)
	teams := client.New("team service", config.AppConfig.TeamServiceURL, config.AppConfig.PeerTimeout)
	users := client.New("user service", config.AppConfig.UserServiceURL, config.AppConfig.PeerTimeout)
	tc := controllers.NewTaskController(tasks, teams, users, config.AppConfig.UploadDir, log)

	app.Use(requestLogger())
	app.Get("/health", healthHandler("work", db))

	authed := app.Group("/tasks", middleware.Protected())
	authed.Post("/", tc.CreateTask)
	authed.Get("/me", tc.ListMyTasks)
	authed.Get("/team/:teamId", tc.ListTeamTasks)
	authed.Get("/:id", tc.GetTask)
	authed.Patch("/:id", tc.UpdateTask)
	authed.Patch("/:id/status", tc.UpdateTaskStatus)
	authed.Delete("/:id", tc.DeleteTask)

	authed.Post("/:id/comments", tc.AddComment)
	authed.Get("/:id/comments", tc.ListComments)
	authed.Delete("/:id/comments/:commentId", tc.DeleteComment)

	authed.Post("/:id/attachments", tc.UploadAttachment)
	authed.Get("/:id/attachments", tc.ListAttachments)
	authed.Get("/:id/attachments/:attachmentId", tc.DownloadAttachment)
	authed.Delete("/:id/attachments/:attachmentId", tc.DeleteAttachment)

	app.Use(notFound)
	log.Info("work routes initialized")
}
