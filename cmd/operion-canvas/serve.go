package main

import (
	"context"
	"fmt"

	"github.com/dukex/operion-canvas/pkg/cmd"
	"github.com/dukex/operion-canvas/pkg/config"
	"github.com/dukex/operion-canvas/pkg/eventbus"
	"github.com/dukex/operion-canvas/pkg/log"
	"github.com/dukex/operion-canvas/pkg/otelhelper"
	"github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel/trace"
)

const defaultPort = 9092

// catalogFlag is shared by commands that build a registry.
func catalogFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "catalog",
		Usage:   "Directory of node type catalogs (JSON or YAML) loaded over the built-in palette",
		Sources: cli.EnvVars("CATALOG_DIR"),
	}
}

func configFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to the TOML editor configuration",
		Value:   "operion-canvas.toml",
		Sources: cli.EnvVars("CANVAS_CONFIG"),
	}
}

// catalogDir prefers the flag over the configuration file.
func catalogDir(command *cli.Command) (string, error) {
	if dir := command.String("catalog"); dir != "" {
		return dir, nil
	}

	cfg, err := config.Load(command.String("config"))
	if err != nil {
		return "", err
	}

	return cfg.Catalog.Dir, nil
}

func NewServeCommand() *cli.Command {
	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start the graph API server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Graph store URL (file path, postgres:// or redis://)",
				Value:   "file://./data",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (memory, kafka)",
				Value:   "memory",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "kafka-brokers",
				Usage:   "Comma separated Kafka brokers",
				Value:   "localhost:9092",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export traces over OTLP/HTTP",
				Sources: cli.EnvVars("OTEL_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			catalogFlag(),
			configFlag(),
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger := log.WithModule("api")

			logger.InfoContext(ctx, "Initializing Operion Canvas API")

			var tracer trace.Tracer

			if command.Bool("tracing") {
				t, shutdown, err := otelhelper.NewTracer(ctx, "operion-canvas")
				if err != nil {
					return fmt.Errorf("failed to initialize tracer: %w", err)
				}

				defer func() {
					if err := shutdown(context.Background()); err != nil {
						logger.ErrorContext(ctx, "Failed to shutdown tracer provider", "error", err)
					}
				}()

				tracer = t
			}

			dir, err := catalogDir(command)
			if err != nil {
				return err
			}

			registry, err := cmd.NewRegistry(logger, dir)
			if err != nil {
				return fmt.Errorf("failed to load node types: %w", err)
			}

			persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			if err != nil {
				return fmt.Errorf("failed to open graph store: %w", err)
			}

			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus, err := cmd.NewEventBus(command.String("event-bus"), command.String("kafka-brokers"), logger)
			if err != nil {
				return err
			}

			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			err = eventbus.LogActivity(eventBus, log.WithModule("activity"))
			if err != nil {
				return err
			}

			err = eventBus.Subscribe(ctx)
			if err != nil {
				return fmt.Errorf("failed to subscribe to graph events: %w", err)
			}

			api := NewAPI(logger, persistence, registry, eventBus, tracer)

			return api.Start(int(command.Int("port")))
		},
	}
}
