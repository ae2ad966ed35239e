package web

import (
	"errors"

	"github.com/dukex/operion-canvas/pkg/graph"
	"github.com/dukex/operion-canvas/pkg/persistence"
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType("not_found").
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleStoreError maps graph store and graph model errors to problems.
func handleStoreError(c fiber.Ctx, err error) error {
	switch {
	case persistence.IsGraphNotFound(err):
		problem := problems.NewStatusProblem(404).
			WithInstance(c.Path()).
			WithType("graph_not_found").
			WithDetail("graph not found")

		return c.Status(fiber.StatusNotFound).JSON(problem)

	case errors.Is(err, persistence.ErrInvalidGraphID):
		problem := problems.NewStatusProblem(400).
			WithInstance(c.Path()).
			WithType("invalid_graph_id").
			WithDetail(err.Error())

		return c.Status(fiber.StatusBadRequest).JSON(problem)

	case errors.Is(err, persistence.ErrInvalidSortField):
		return badRequest(c, err.Error())

	case errors.Is(err, graph.ErrSelfConnection),
		errors.Is(err, graph.ErrDuplicateConnection),
		errors.Is(err, graph.ErrNodeNotFound),
		errors.Is(err, graph.ErrUnknownHandle),
		errors.Is(err, graph.ErrDuplicateNode),
		errors.Is(err, graph.ErrDuplicateConnID),
		errors.Is(err, graph.ErrEmptyID):
		problem := problems.NewStatusProblem(422).
			WithInstance(c.Path()).
			WithType("invalid_definition").
			WithDetail(err.Error())

		return c.Status(fiber.StatusUnprocessableEntity).JSON(problem)

	default:
		return internalError(c, err)
	}
}
