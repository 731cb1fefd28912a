package server

import (
	"context"
	"time"

	"github.com/raintag/raintag/internal/controllers"
	"github.com/raintag/raintag/internal/middlewares"
	"github.com/raintag/raintag/internal/version"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

type HTTPServerDependencies struct {
	RunController *controllers.RunController

	// AuthToken guards the run and stats endpoints when non-empty.
	AuthToken string
}

// NewHTTPServer builds the fiber app for service mode: an unauthenticated
// health check plus the run-trigger and stats endpoints.
func NewHTTPServer(ctx context.Context, deps HTTPServerDependencies) *fiber.App {
	router := fiber.New(fiber.Config{
		AppName: "raintag",
	})

	router.Use(middlewares.RequestIDMiddleware())
	router.Use(logger.New())

	// Health check endpoint (no authentication required)
	router.Get("/health", func(c fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":    "healthy",
			"service":   "raintag",
			"version":   version.GetVersion(),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	auth := middlewares.BearerAuthMiddleware(deps.AuthToken)

	router.Post("/run", deps.RunController.TriggerRun, auth)
	router.Get("/stats", deps.RunController.GetStats, auth)

	return router
}
