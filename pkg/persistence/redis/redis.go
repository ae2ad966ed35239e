// Package redis stores graph definitions in Redis, one JSON string key per graph plus
// an index set of graph ids.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/operion-canvas/pkg/models"
	"github.com/dukex/operion-canvas/pkg/persistence"
	redis "github.com/redis/go-redis/v9"
)

const defaultPrefix = "operion:canvas"

// Persistence implements persistence.Persistence on top of a Redis client.
type Persistence struct {
	client redis.UniversalClient
	logger *slog.Logger
	prefix string
}

// NewPersistence connects to the Redis server at url (redis://[:password@]host:port/db).
func NewPersistence(ctx context.Context, logger *slog.Logger, url string) (*Persistence, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = client.Ping(pingCtx).Err()
	if err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.InfoContext(ctx, "Connected to Redis", "addr", opts.Addr, "db", opts.DB)

	return NewWithClient(client, logger), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client redis.UniversalClient, logger *slog.Logger) *Persistence {
	return &Persistence{client: client, logger: logger, prefix: defaultPrefix}
}

func (p *Persistence) graphKey(id string) string {
	return p.prefix + ":graph:" + id
}

func (p *Persistence) indexKey() string {
	return p.prefix + ":graphs"
}

func (p *Persistence) Close(_ context.Context) error {
	err := p.client.Close()
	if err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}

	return nil
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.client.Ping(ctx).Err()
	if err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	return nil
}

// Graphs loads every indexed graph and sorts and pages in memory.
func (p *Persistence) Graphs(ctx context.Context, opts persistence.ListGraphsOptions) ([]models.GraphSummary, error) {
	opts, err := opts.Normalize()
	if err != nil {
		return nil, err
	}

	ids, err := p.client.SMembers(ctx, p.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list graph ids: %w", err)
	}

	summaries := make([]models.GraphSummary, 0, len(ids))
	if len(ids) == 0 {
		return summaries, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = p.graphKey(id)
	}

	values, err := p.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load graphs: %w", err)
	}

	for i, raw := range values {
		body, ok := raw.(string)
		if !ok {
			p.logger.WarnContext(ctx, "indexed graph is missing", "graph_id", ids[i])

			continue
		}

		var graph models.Graph

		err := json.Unmarshal([]byte(body), &graph)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal graph %s: %w", ids[i], err)
		}

		summaries = append(summaries, graph.Summary())
	}

	return persistence.SortAndPage(summaries, opts), nil
}

func (p *Persistence) GraphByID(ctx context.Context, id string) (*models.Graph, error) {
	err := persistence.ValidateGraphID(id)
	if err != nil {
		return nil, persistence.NewGraphError("GetByID", id, err)
	}

	body, err := p.client.Get(ctx, p.graphKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, persistence.NewGraphError("GetByID", id, persistence.ErrGraphNotFound)
		}

		return nil, fmt.Errorf("failed to fetch graph %s: %w", id, err)
	}

	var graph models.Graph

	err = json.Unmarshal(body, &graph)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal graph %s: %w", id, err)
	}

	return &graph, nil
}

// SaveGraph writes the graph and its index entry in one MULTI/EXEC.
func (p *Persistence) SaveGraph(ctx context.Context, graph *models.Graph) error {
	err := persistence.ValidateGraphID(graph.ID)
	if err != nil {
		return persistence.NewGraphError("Save", graph.ID, err)
	}

	now := time.Now().UTC()
	if graph.CreatedAt.IsZero() {
		existing, err := p.GraphByID(ctx, graph.ID)

		switch {
		case err == nil:
			graph.CreatedAt = existing.CreatedAt
		case persistence.IsGraphNotFound(err):
			graph.CreatedAt = now
		default:
			return err
		}
	}

	graph.UpdatedAt = now

	body, err := json.Marshal(graph)
	if err != nil {
		return fmt.Errorf("failed to marshal graph %s: %w", graph.ID, err)
	}

	_, err = p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, p.graphKey(graph.ID), body, 0)
		pipe.SAdd(ctx, p.indexKey(), graph.ID)

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save graph %s: %w", graph.ID, err)
	}

	return nil
}

func (p *Persistence) DeleteGraph(ctx context.Context, id string) error {
	err := persistence.ValidateGraphID(id)
	if err != nil {
		return persistence.NewGraphError("Delete", id, err)
	}

	var deleted *redis.IntCmd

	_, err = p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		deleted = pipe.Del(ctx, p.graphKey(id))
		pipe.SRem(ctx, p.indexKey(), id)

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete graph %s: %w", id, err)
	}

	if deleted.Val() == 0 {
		return persistence.NewGraphError("Delete", id, persistence.ErrGraphNotFound)
	}

	return nil
}
