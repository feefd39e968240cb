// Package main provides the journeyc API server implementation.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	cli "github.com/urfave/cli/v3"

	"github.com/dukex/journeyc/pkg/cmd"
	"github.com/dukex/journeyc/pkg/eventbus"
	"github.com/dukex/journeyc/pkg/log"
	"github.com/dukex/journeyc/pkg/web"
)

func runServe(ctx context.Context, c *cli.Command, logger *slog.Logger) error {
	log.Setup(c.String("log-level"))

	logger.InfoContext(ctx, "Initializing journeyc API")

	tracer, err := setupTracer(ctx, c)
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}

	engine, err := cmd.NewAnalysisEngine(logger, c.String("cache-url"), tracer)
	if err != nil {
		return err
	}

	service := cmd.NewMappingService(logger, engine, tracer)

	var eventBus eventbus.EventBus
	if provider := c.String("event-bus"); provider != "" {
		eventBus = cmd.NewEventBus(provider, logger)
		defer func() {
			if err := eventBus.Close(); err != nil {
				logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
			}
		}()
	}

	handlers := web.NewAPIHandlers(
		service,
		engine,
		validator.New(validator.WithRequiredStructEnabled()),
		eventBus,
		logger,
	)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		DisableColors: true,
	}))

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Journeyc API")
	})

	w := app.Group("/workflows")
	w.Post("/convert", handlers.ConvertWorkflow)
	w.Post("/analyze", handlers.AnalyzeWorkflow)

	app.Get("/health", handlers.HealthCheck)

	return app.Listen(":" + strconv.Itoa(c.Int("port")))
}
