package postgresql_test

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/dukex/operion-canvas/pkg/geom"
	"github.com/dukex/operion-canvas/pkg/models"
	"github.com/dukex/operion-canvas/pkg/persistence"
	"github.com/dukex/operion-canvas/pkg/persistence/postgresql"
	"github.com/dukex/operion-canvas/pkg/value"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

var postgresContainer *postgres.PostgresContainer

func dropDb(ctx context.Context, t *testing.T, databaseURL string) {
	t.Helper()

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	for _, table := range []string{"graphs", "schema_migrations"} {
		_, err = db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE")
		require.NoError(t, err)
	}

	err = db.Close()
	require.NoError(t, err)
}

func setupTestDB(t *testing.T) (*postgresql.Persistence, context.Context, string) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping PostgreSQL container test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)

	if postgresContainer == nil || !postgresContainer.IsRunning() {
		var err error

		postgresContainer, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("operion_canvas_test"),
			postgres.WithUsername("operion"),
			postgres.WithPassword("operion"),
			postgres.BasicWaitStrategies(),
		)
		require.NoError(t, err)
	}

	databaseURL, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	dropDb(ctx, t, databaseURL)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	store, err := postgresql.NewPersistence(ctx, logger, databaseURL)
	require.NoError(t, err)

	t.Cleanup(func() {
		dropDb(ctx, t, databaseURL)

		err = store.Close(ctx)
		require.NoError(t, err)

		cancel()
	})

	return store, ctx, databaseURL
}

func testGraph(id, name string) *models.Graph {
	return &models.Graph{
		ID:   id,
		Name: name,
		Definition: models.Definition{
			Nodes: []models.NodeDefinition{
				{ID: "n1", Type: "webhook_trigger", Name: "Webhook", Position: geom.Pt(100, 100), Config: value.MapOf(nil)},
				{ID: "n2", Type: "http_request", Name: "Fetch", Position: geom.Pt(400, 100), Config: value.MapOf(nil)},
			},
			Connections: []models.ConnectionDefinition{
				{ID: "c1", Source: "n1", Target: "n2", SourceOutput: "output", TargetInput: "input"},
			},
		},
		Revision: 1,
	}
}

func TestNewPersistence_Migrations(t *testing.T) {
	_, ctx, databaseURL := setupTestDB(t)

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	defer func() { _ = db.Close() }()

	var version int

	err = db.QueryRowContext(ctx, "SELECT MAX(version) FROM schema_migrations").Scan(&version)
	require.NoError(t, err)
	assert.Equal(t, 1, version)

	var exists bool

	err = db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT FROM information_schema.tables WHERE table_name = 'graphs'
		)`).Scan(&exists)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestPersistence_SaveAndLoadGraph(t *testing.T) {
	store, ctx, _ := setupTestDB(t)

	graph := testGraph("graph-1", "Webhook fan-out")
	require.NoError(t, store.SaveGraph(ctx, graph))

	loaded, err := store.GraphByID(ctx, "graph-1")
	require.NoError(t, err)
	assert.Equal(t, "Webhook fan-out", loaded.Name)
	assert.Equal(t, uint64(1), loaded.Revision)
	require.Len(t, loaded.Definition.Nodes, 2)
	assert.Equal(t, geom.Pt(400, 100), loaded.Definition.Nodes[1].Position)
	require.Len(t, loaded.Definition.Connections, 1)
	assert.Equal(t, "n1", loaded.Definition.Connections[0].Source)

	createdAt := graph.CreatedAt

	update := testGraph("graph-1", "Renamed")
	update.Revision = 2
	require.NoError(t, store.SaveGraph(ctx, update))
	assert.True(t, createdAt.Equal(update.CreatedAt))

	loaded, err = store.GraphByID(ctx, "graph-1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", loaded.Name)
	assert.Equal(t, uint64(2), loaded.Revision)
}

func TestPersistence_ListGraphs(t *testing.T) {
	store, ctx, _ := setupTestDB(t)

	for _, name := range []string{"charlie", "alpha", "bravo"} {
		require.NoError(t, store.SaveGraph(ctx, testGraph(name, name)))
	}

	summaries, err := store.Graphs(ctx, persistence.ListGraphsOptions{SortBy: "name", SortOrder: "asc", Limit: 2})
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "alpha", summaries[0].Name)
	assert.Equal(t, "bravo", summaries[1].Name)
	assert.Equal(t, 2, summaries[0].Nodes)
	assert.Equal(t, 1, summaries[0].Connections)

	_, err = store.Graphs(ctx, persistence.ListGraphsOptions{SortBy: "id; DROP TABLE graphs"})
	require.ErrorIs(t, err, persistence.ErrInvalidSortField)
}

func TestPersistence_DeleteGraph(t *testing.T) {
	store, ctx, _ := setupTestDB(t)

	require.NoError(t, store.SaveGraph(ctx, testGraph("graph-1", "doomed")))
	require.NoError(t, store.DeleteGraph(ctx, "graph-1"))

	_, err := store.GraphByID(ctx, "graph-1")
	assert.True(t, persistence.IsGraphNotFound(err))

	err = store.DeleteGraph(ctx, "graph-1")
	assert.True(t, persistence.IsGraphNotFound(err))
}

func TestPersistence_HealthCheck(t *testing.T) {
	store, ctx, _ := setupTestDB(t)

	require.NoError(t, store.HealthCheck(ctx))
}
