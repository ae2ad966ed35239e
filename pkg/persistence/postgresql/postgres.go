// Package postgresql provides PostgreSQL persistence for graph definitions.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/dukex/operion-canvas/pkg/models"
	"github.com/dukex/operion-canvas/pkg/persistence"
	"github.com/dukex/operion-canvas/pkg/persistence/sqlbase"
	_ "github.com/lib/pq"
)

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db        *sql.DB
	logger    *slog.Logger
	graphRepo *GraphRepository
}

// NewPersistence opens the database, pings it and runs pending migrations.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		_ = database.Close()

		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		_ = database.Close()

		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:        database,
		logger:    logger,
		graphRepo: NewGraphRepository(database, logger),
	}, nil
}

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

func (p *Persistence) Graphs(ctx context.Context, opts persistence.ListGraphsOptions) ([]models.GraphSummary, error) {
	return p.graphRepo.List(ctx, opts)
}

func (p *Persistence) GraphByID(ctx context.Context, id string) (*models.Graph, error) {
	return p.graphRepo.GetByID(ctx, id)
}

func (p *Persistence) SaveGraph(ctx context.Context, graph *models.Graph) error {
	return p.graphRepo.Save(ctx, graph)
}

func (p *Persistence) DeleteGraph(ctx context.Context, id string) error {
	return p.graphRepo.Delete(ctx, id)
}
