package router

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/noah-isme/gradebook-api/internal/config"
	"github.com/noah-isme/gradebook-api/internal/handler"
	"github.com/noah-isme/gradebook-api/internal/middleware"
	"github.com/noah-isme/gradebook-api/internal/models"
	"github.com/noah-isme/gradebook-api/internal/observability"
)

// APIPrefix is the mount point of the versioned API.
const APIPrefix = "/api/v1"

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	DB                    *gorm.DB
	ActivityConfigHandler *handler.ActivityConfigHandler
	GradeHandler          *handler.GradeHandler
	SummaryHandler        *handler.SummaryHandler
	ChangeRequestHandler  *handler.ChangeRequestHandler
	NotificationHandler   *handler.NotificationHandler
	AdminActivityHandler  *handler.AdminActivityHandler
	JWTMiddleware         fiber.Handler
	WriteLimiter          fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group(APIPrefix, func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.DB))

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = middleware.JWTProtected(cfg.JWTSecret)
	}
	var writeGuard []fiber.Handler
	if deps.WriteLimiter != nil {
		writeGuard = append(writeGuard, deps.WriteLimiter)
	}

	if deps.ActivityConfigHandler != nil {
		subjects := api.Group("/subjects", jwtMiddleware)
		deps.ActivityConfigHandler.Register(subjects)
	}

	if deps.GradeHandler != nil {
		grades := api.Group("/grades", jwtMiddleware)
		deps.GradeHandler.RegisterGrades(grades, writeGuard...)

		enrollments := api.Group("/enrollments", jwtMiddleware, middleware.RequireRole(models.RoleAdmin))
		deps.GradeHandler.RegisterEnrollments(enrollments)
	}

	if deps.SummaryHandler != nil {
		students := api.Group("/students", jwtMiddleware)
		deps.SummaryHandler.Register(students)
	}

	if deps.ChangeRequestHandler != nil {
		changeRequests := api.Group("/change-requests", jwtMiddleware, middleware.RequireRole(models.RoleAdmin, models.RoleTeacher))
		deps.ChangeRequestHandler.Register(changeRequests, writeGuard...)
	}

	if deps.NotificationHandler != nil {
		notifications := api.Group("/notifications", jwtMiddleware)
		deps.NotificationHandler.Register(notifications)
	}

	if deps.AdminActivityHandler != nil {
		logs := api.Group("/activity-logs", jwtMiddleware, middleware.RequireRole(models.RoleAdmin))
		deps.AdminActivityHandler.Register(logs)
	}
}
