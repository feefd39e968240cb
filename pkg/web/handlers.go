// Package web provides HTTP handlers and REST API endpoints for workflow
// conversion and analysis.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/dukex/journeyc/pkg/analysis"
	"github.com/dukex/journeyc/pkg/eventbus"
	"github.com/dukex/journeyc/pkg/events"
	"github.com/dukex/journeyc/pkg/journey"
)

type APIHandlers struct {
	mappingService *journey.MappingService
	engine         *analysis.Engine
	validator      *validator.Validate
	publisher      eventbus.EventPublisher
	logger         *slog.Logger
}

// NewAPIHandlers wires the conversion and analysis services into HTTP
// handlers. The publisher is optional and may be nil when no event bus is
// configured.
func NewAPIHandlers(
	mappingService *journey.MappingService,
	engine *analysis.Engine,
	validator *validator.Validate,
	publisher eventbus.EventPublisher,
	logger *slog.Logger,
) *APIHandlers {
	return &APIHandlers{
		mappingService: mappingService,
		engine:         engine,
		validator:      validator,
		publisher:      publisher,
		logger:         logger,
	}
}

func (h *APIHandlers) ConvertWorkflow(c fiber.Ctx) error {
	var req ConvertRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	h.publish(c.Context(), req.Workflow.ID,
		events.NewConversionStarted(req.Workflow.ID, req.Workflow.Name))

	result, err := h.mappingService.MapToJourney(c.Context(), req.Workflow, req.ToolCompatibility)
	if err != nil {
		h.publish(c.Context(), req.Workflow.ID,
			events.NewConversionFailed(req.Workflow.ID, err.Error()))

		return handleServiceError(c, err)
	}

	h.publish(c.Context(), req.Workflow.ID,
		events.NewConversionCompleted(
			req.Workflow.ID,
			result.ID,
			len(result.States),
			len(result.Transitions),
			result.Metadata.PreservationScore,
			result.Metadata.FunctionalEquivalenceScore,
			result.Metadata.StructuralIntegrityScore,
		))

	return c.JSON(ConvertResponse{Journey: result})
}

func (h *APIHandlers) AnalyzeWorkflow(c fiber.Ctx) error {
	var req AnalyzeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.engine.AnalyzeWorkflow(c.Context(), req.Workflow, req.ToolCompatibility)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(AnalyzeResponse{Analysis: result})
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"status":    "healthy",
		"message":   "Journeyc API is healthy",
		"timestamp": time.Now().UTC(),
	})
}

func (h *APIHandlers) publish(ctx context.Context, key string, event eventbus.Event) {
	if h.publisher == nil {
		return
	}

	if err := h.publisher.Publish(ctx, key, event); err != nil {
		h.logger.Warn("Failed to publish event", "error", err)
	}
}
