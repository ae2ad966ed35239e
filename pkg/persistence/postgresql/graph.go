package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dukex/operion-canvas/pkg/models"
	"github.com/dukex/operion-canvas/pkg/persistence"
)

// GraphRepository handles graph-related database operations.
type GraphRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewGraphRepository creates a new graph repository.
func NewGraphRepository(db *sql.DB, logger *slog.Logger) *GraphRepository {
	return &GraphRepository{db: db, logger: logger}
}

type rowScanner interface {
	Scan(dest ...any) error
}

// List returns graph summaries ordered and paged by opts. The sort column comes from
// the Normalize allowlist, so it is safe to interpolate.
func (r *GraphRepository) List(ctx context.Context, opts persistence.ListGraphsOptions) ([]models.GraphSummary, error) {
	opts, err := opts.Normalize()
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT
			id
		  , name
		  , COALESCE(jsonb_array_length(definition->'nodes'), 0)
		  , COALESCE(jsonb_array_length(definition->'connections'), 0)
		  , revision
		  , created_at
		  , updated_at
		FROM graphs
		ORDER BY %s %s, id %s
		LIMIT $1 OFFSET $2
	`, opts.SortBy, strings.ToUpper(opts.SortOrder), strings.ToUpper(opts.SortOrder))

	rows, err := r.db.QueryContext(ctx, query, opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query graphs: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	summaries := make([]models.GraphSummary, 0)

	for rows.Next() {
		var summary models.GraphSummary

		err := rows.Scan(
			&summary.ID,
			&summary.Name,
			&summary.Nodes,
			&summary.Connections,
			&summary.Revision,
			&summary.CreatedAt,
			&summary.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan graph summary: %w", err)
		}

		summaries = append(summaries, summary)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating graphs: %w", err)
	}

	return summaries, nil
}

// GetByID returns a graph or a GraphError wrapping persistence.ErrGraphNotFound.
func (r *GraphRepository) GetByID(ctx context.Context, id string) (*models.Graph, error) {
	err := persistence.ValidateGraphID(id)
	if err != nil {
		return nil, persistence.NewGraphError("GetByID", id, err)
	}

	query := `
		SELECT
			id
		  , name
		  , definition
		  , revision
		  , created_at
		  , updated_at
		FROM graphs
		WHERE id = $1
	`

	graph, err := r.scanGraph(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewGraphError("GetByID", id, persistence.ErrGraphNotFound)
		}

		return nil, fmt.Errorf("failed to scan graph: %w", err)
	}

	return graph, nil
}

func (r *GraphRepository) scanGraph(row rowScanner) (*models.Graph, error) {
	var (
		graph      models.Graph
		definition []byte
	)

	err := row.Scan(&graph.ID, &graph.Name, &definition, &graph.Revision, &graph.CreatedAt, &graph.UpdatedAt)
	if err != nil {
		return nil, err
	}

	err = json.Unmarshal(definition, &graph.Definition)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal definition: %w", err)
	}

	return &graph, nil
}

// Save upserts a graph, keeping the original created_at on update.
func (r *GraphRepository) Save(ctx context.Context, graph *models.Graph) error {
	err := persistence.ValidateGraphID(graph.ID)
	if err != nil {
		return persistence.NewGraphError("Save", graph.ID, err)
	}

	now := time.Now().UTC()
	if graph.CreatedAt.IsZero() {
		graph.CreatedAt = now
	}

	graph.UpdatedAt = now

	definition, err := json.Marshal(graph.Definition)
	if err != nil {
		return fmt.Errorf("failed to marshal definition: %w", err)
	}

	query := `
		INSERT INTO graphs (id, name, definition, revision, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name
		  , definition = EXCLUDED.definition
		  , revision = EXCLUDED.revision
		  , updated_at = EXCLUDED.updated_at
		RETURNING created_at
	`

	err = r.db.QueryRowContext(ctx, query,
		graph.ID,
		graph.Name,
		definition,
		graph.Revision,
		graph.CreatedAt,
		graph.UpdatedAt,
	).Scan(&graph.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save graph: %w", err)
	}

	return nil
}

// Delete removes a graph.
func (r *GraphRepository) Delete(ctx context.Context, id string) error {
	err := persistence.ValidateGraphID(id)
	if err != nil {
		return persistence.NewGraphError("Delete", id, err)
	}

	result, err := r.db.ExecContext(ctx, "DELETE FROM graphs WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete graph: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if affected == 0 {
		return persistence.NewGraphError("Delete", id, persistence.ErrGraphNotFound)
	}

	return nil
}
