package main

import (
	"log/slog"
	"strconv"

	"github.com/dukex/operion-canvas/pkg/eventbus"
	"github.com/dukex/operion-canvas/pkg/otelhelper"
	"github.com/dukex/operion-canvas/pkg/persistence"
	"github.com/dukex/operion-canvas/pkg/registry"
	"github.com/dukex/operion-canvas/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	eventBus    eventbus.EventBus
	tracer      trace.Tracer
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	registry *registry.Registry,
	eventBus eventbus.EventBus,
	tracer trace.Tracer,
) *API {
	if tracer == nil {
		tracer = otelhelper.NoopTracer()
	}

	return &API{
		persistence: persistence,
		logger:      logger,
		registry:    registry,
		eventBus:    eventBus,
		tracer:      tracer,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	var publisher eventbus.EventPublisher
	if a.eventBus != nil {
		publisher = a.eventBus
	}

	handlers := web.NewAPIHandlers(a.logger, a.persistence, a.registry, a.validate, publisher)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))
	app.Use(a.traceRequests)

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Operion Canvas API")
	})

	handlers.Routes(app)

	return app
}

// traceRequests wraps each request in a server span.
func (a *API) traceRequests(c fiber.Ctx) error {
	ctx, span := otelhelper.StartSpan(c.Context(), a.tracer, c.Method()+" "+c.Path(),
		attribute.String("http.method", c.Method()),
		attribute.String("http.target", c.OriginalURL()),
	)
	defer span.End()

	c.SetContext(ctx)

	err := c.Next()
	if err != nil {
		otelhelper.SetError(span, err)

		return err
	}

	status := c.Response().StatusCode()
	span.SetAttributes(attribute.Int("http.status_code", status))

	if status >= fiber.StatusInternalServerError {
		span.SetStatus(codes.Error, strconv.Itoa(status))
	}

	return nil
}

func (a *API) Start(port int) error {
	return a.App().Listen(":" + strconv.Itoa(port))
}
