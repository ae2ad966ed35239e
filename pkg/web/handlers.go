// Package web provides the HTTP API for storing graphs and previewing mappings.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/dukex/operion-canvas/pkg/eventbus"
	"github.com/dukex/operion-canvas/pkg/events"
	"github.com/dukex/operion-canvas/pkg/graph"
	"github.com/dukex/operion-canvas/pkg/mapping"
	"github.com/dukex/operion-canvas/pkg/models"
	"github.com/dukex/operion-canvas/pkg/persistence"
	"github.com/dukex/operion-canvas/pkg/registry"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type APIHandlers struct {
	store     persistence.Persistence
	registry  *registry.Registry
	validator *validator.Validate
	publisher eventbus.EventPublisher
	logger    *slog.Logger
}

// NewAPIHandlers builds the handlers. publisher may be nil.
func NewAPIHandlers(
	logger *slog.Logger,
	store persistence.Persistence,
	registry *registry.Registry,
	validator *validator.Validate,
	publisher eventbus.EventPublisher,
) *APIHandlers {
	return &APIHandlers{
		store:     store,
		registry:  registry,
		validator: validator,
		publisher: publisher,
		logger:    logger,
	}
}

// Routes mounts every API route on router.
func (h *APIHandlers) Routes(router fiber.Router) {
	g := router.Group("/graphs")
	g.Get("/", h.GetGraphs)
	g.Get("/:id", h.GetGraph)
	g.Put("/:id", h.PutGraph)
	g.Delete("/:id", h.DeleteGraph)
	g.Post("/:id/validate", h.ValidateGraph)

	router.Post("/mapping/preview", h.PreviewMapping)
	router.Get("/node-types", h.GetNodeTypes)
	router.Get("/health", h.HealthCheck)
}

func (h *APIHandlers) GetGraphs(c fiber.Ctx) error {
	opts, err := parseListGraphsOptions(c)
	if err != nil {
		return badRequest(c, "Invalid query parameters: "+err.Error())
	}

	opts, err = opts.Normalize()
	if err != nil {
		return handleStoreError(c, err)
	}

	graphs, err := h.store.Graphs(c.Context(), opts)
	if err != nil {
		return handleStoreError(c, err)
	}

	return c.JSON(ListGraphsResponse{
		Graphs:     graphs,
		Pagination: Pagination{Limit: opts.Limit, Offset: opts.Offset},
		Sorting:    Sorting{SortBy: opts.SortBy, SortOrder: opts.SortOrder},
	})
}

func parseListGraphsOptions(c fiber.Ctx) (persistence.ListGraphsOptions, error) {
	opts := persistence.ListGraphsOptions{
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return opts, err
		}

		opts.Limit = limit
	}

	if offsetStr := c.Query("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil {
			return opts, err
		}

		opts.Offset = offset
	}

	return opts, nil
}

func (h *APIHandlers) GetGraph(c fiber.Ctx) error {
	stored, err := h.store.GraphByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleStoreError(c, err)
	}

	return c.JSON(stored)
}

// PutGraph creates or replaces a graph. The definition must import cleanly; semantic
// problems such as unknown node types are allowed and reported by ValidateGraph.
func (h *APIHandlers) PutGraph(c fiber.Ctx) error {
	id := c.Params("id")

	var req SaveGraphRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	model, err := graph.FromDefinition(h.registry, req.Definition)
	if err != nil {
		return handleStoreError(c, err)
	}

	ctx := c.Context()

	created := false
	revision := uint64(1)

	existing, err := h.store.GraphByID(ctx, id)

	switch {
	case err == nil:
		revision = existing.Revision + 1
	case persistence.IsGraphNotFound(err):
		created = true
	default:
		return handleStoreError(c, err)
	}

	stored := &models.Graph{
		ID:         id,
		Name:       req.Name,
		Definition: model.Definition(),
		Revision:   revision,
	}

	if existing != nil {
		stored.CreatedAt = existing.CreatedAt
	}

	started := time.Now()

	err = h.store.SaveGraph(ctx, stored)
	if err != nil {
		h.publish(ctx, id, events.GraphSaveFailed{
			BaseEvent: events.NewBaseEvent(events.GraphSaveFailedEvent, id),
			Revision:  revision,
			Error:     err.Error(),
		})

		return handleStoreError(c, err)
	}

	h.publish(ctx, id, events.GraphSaved{
		BaseEvent:   events.NewBaseEvent(events.GraphSavedEvent, id),
		Revision:    revision,
		Nodes:       len(stored.Definition.Nodes),
		Connections: len(stored.Definition.Connections),
		Duration:    time.Since(started),
	})

	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}

	return c.Status(status).JSON(stored)
}

func (h *APIHandlers) DeleteGraph(c fiber.Ctx) error {
	id := c.Params("id")

	err := h.store.DeleteGraph(c.Context(), id)
	if err != nil {
		return handleStoreError(c, err)
	}

	h.publish(c.Context(), id, events.GraphDeleted{BaseEvent: events.NewBaseEvent(events.GraphDeletedEvent, id)})

	return c.SendStatus(fiber.StatusNoContent)
}

// ValidateGraph loads a stored graph and reports every structural problem.
func (h *APIHandlers) ValidateGraph(c fiber.Ctx) error {
	stored, err := h.store.GraphByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleStoreError(c, err)
	}

	model, err := graph.FromDefinition(h.registry, stored.Definition)
	if err != nil {
		return handleStoreError(c, err)
	}

	issues := graph.ValidationErrors(model.Validate())
	if issues == nil {
		issues = []*graph.ValidationError{}
	}

	return c.JSON(ValidationResponse{Valid: len(issues) == 0, Errors: issues})
}

// PreviewMapping applies a mapping to a caller-supplied context.
func (h *APIHandlers) PreviewMapping(c fiber.Ctx) error {
	var req MappingPreviewRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	spec, err := req.spec()
	if err != nil {
		return badRequest(c, err.Error())
	}

	ctx := mapping.Context(req.Context)
	if ctx == nil {
		ctx = mapping.Context{}
	}

	fields := []string{}

	for nodeID, entry := range ctx {
		if data, ok := entry.Get(mapping.DataKey); ok {
			fields = append(fields, mapping.FieldPaths(nodeID, data)...)
		}
	}

	slices.Sort(fields)

	return c.JSON(MappingPreviewResponse{
		Result: mapping.ApplyMappings(spec, ctx, req.Input),
		Fields: fields,
	})
}

// GetNodeTypes lists the registry, optionally filtered by ?category=.
func (h *APIHandlers) GetNodeTypes(c fiber.Ctx) error {
	if category := c.Query("category"); category != "" {
		return c.JSON(h.registry.TypesByCategory(models.CategoryType(category)))
	}

	return c.JSON(h.registry.Types())
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	storeErr := h.store.HealthCheck(c.Context())
	registryOk := h.registry.Len() > 0

	status := "unhealthy"
	message := "Operion Canvas API is unhealthy"
	httpStatus := http.StatusInternalServerError

	storeCheck := "ok"
	if storeErr != nil {
		storeCheck = storeErr.Error()
	}

	registryCheck := "ok"
	if !registryOk {
		registryCheck = "no node types registered"
	}

	if storeErr == nil && registryOk {
		status = "healthy"
		message = "Operion Canvas API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"registry":   registryCheck,
			"repository": storeCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

func (h *APIHandlers) publish(ctx context.Context, graphID string, event eventbus.Event) {
	if h.publisher == nil {
		return
	}

	err := h.publisher.Publish(ctx, graphID, event)
	if err != nil {
		h.logger.WarnContext(ctx, "Failed to publish graph event", "event_type", event.GetType(), "error", err)
	}
}
