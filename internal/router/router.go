package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/kelaskita/kelaskita-api/internal/config"
	"github.com/kelaskita/kelaskita-api/internal/handler"
	"github.com/kelaskita/kelaskita-api/internal/middleware"
	"github.com/kelaskita/kelaskita-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AssignmentHandler *handler.AssignmentHandler
	SubmissionHandler *handler.SubmissionHandler
	EvaluationHandler *handler.EvaluationHandler
	RubricHandler     *handler.RubricHandler
	JWTMiddleware     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	api.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	// Student-facing routes
	if deps.AssignmentHandler != nil {
		student := app.Group("/api/v1/assignments", jwtMiddleware)
		deps.AssignmentHandler.Register(student)
	}

	if deps.SubmissionHandler != nil {
		submissions := app.Group("/api/v1/submissions",
			jwtMiddleware,
			middleware.RateLimit("submissions", 30, time.Minute),
		)
		deps.SubmissionHandler.Register(submissions)
	}

	// Teacher-facing routes
	teacher := app.Group("/api/v1/teacher", jwtMiddleware, middleware.RequireRole(middleware.RoleTeacher))

	if deps.AssignmentHandler != nil {
		deps.AssignmentHandler.RegisterTeacher(teacher.Group("/assignments"))
	}

	if deps.SubmissionHandler != nil {
		deps.SubmissionHandler.RegisterTeacher(teacher)
	}

	if deps.EvaluationHandler != nil {
		deps.EvaluationHandler.Register(teacher.Group("/evaluations"))
	}

	if deps.RubricHandler != nil {
		deps.RubricHandler.Register(teacher.Group("/rubrics"))
	}
}
