package web

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"

	"github.com/dukex/journeyc/pkg/graph"
	"github.com/dukex/journeyc/pkg/journey"
	"github.com/dukex/journeyc/pkg/journeyctx"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func unprocessable(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(422).
		WithInstance(c.Path()).
		WithType("conversion_failed").
		WithDetail(detail)

	return c.Status(fiber.StatusUnprocessableEntity).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleServiceError provides typed error handling for mapping service errors.
func handleServiceError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, journey.ErrWorkflowNil), errors.Is(err, journey.ErrNoNodes):
		return badRequest(c, err.Error())

	case journey.IsValidationError(err):
		return unprocessable(c, err.Error())

	case errors.Is(err, graph.ErrCyclicGraph),
		errors.Is(err, journeyctx.ErrCircularVariableDependency),
		errors.Is(err, journeyctx.ErrInheritanceCycle):
		return unprocessable(c, err.Error())

	default:
		return internalError(c, err)
	}
}
