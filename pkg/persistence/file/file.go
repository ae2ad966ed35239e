// Package file stores graph definitions as JSON files on the local file system.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/dukex/operion-canvas/pkg/models"
	"github.com/dukex/operion-canvas/pkg/persistence"
)

const graphsDir = "graphs"

// Persistence implements persistence.Persistence with one JSON file per graph.
type Persistence struct {
	root string
}

// NewPersistence creates a file store rooted at root. A "file://" prefix is accepted.
func NewPersistence(root string) *Persistence {
	return &Persistence{root: strings.Replace(root, "file://", "", 1)}
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck verifies the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (fp *Persistence) graphPath(id string) string {
	return filepath.Clean(path.Join(fp.root, graphsDir, id+".json"))
}

// Graphs lists stored graphs.
func (fp *Persistence) Graphs(ctx context.Context, opts persistence.ListGraphsOptions) ([]models.GraphSummary, error) {
	opts, err := opts.Normalize()
	if err != nil {
		return nil, err
	}

	jsonFiles, err := fs.Glob(os.DirFS(path.Join(fp.root, graphsDir)), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list graph files: %w", err)
	}

	summaries := make([]models.GraphSummary, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		graphID := strings.TrimSuffix(file, ".json")

		graph, err := fp.GraphByID(ctx, graphID)
		if err != nil {
			if persistence.IsGraphNotFound(err) {
				continue
			}

			return nil, fmt.Errorf("failed to load graph %s: %w", graphID, err)
		}

		summaries = append(summaries, graph.Summary())
	}

	return persistence.SortAndPage(summaries, opts), nil
}

// GraphByID reads one graph.
func (fp *Persistence) GraphByID(_ context.Context, id string) (*models.Graph, error) {
	err := persistence.ValidateGraphID(id)
	if err != nil {
		return nil, persistence.NewGraphError("GetByID", id, err)
	}

	body, err := os.ReadFile(fp.graphPath(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
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

// SaveGraph writes a graph, replacing any previous version atomically.
func (fp *Persistence) SaveGraph(ctx context.Context, graph *models.Graph) error {
	err := persistence.ValidateGraphID(graph.ID)
	if err != nil {
		return persistence.NewGraphError("Save", graph.ID, err)
	}

	err = os.MkdirAll(path.Join(fp.root, graphsDir), 0o750)
	if err != nil {
		return fmt.Errorf("failed to create graphs directory: %w", err)
	}

	now := time.Now().UTC()
	if graph.CreatedAt.IsZero() {
		existing, err := fp.GraphByID(ctx, graph.ID)
		if err == nil {
			graph.CreatedAt = existing.CreatedAt
		} else {
			graph.CreatedAt = now
		}
	}

	graph.UpdatedAt = now

	data, err := json.MarshalIndent(graph, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal graph %s: %w", graph.ID, err)
	}

	target := fp.graphPath(graph.ID)

	tmp, err := os.CreateTemp(filepath.Dir(target), graph.ID+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for graph %s: %w", graph.ID, err)
	}

	_, err = tmp.Write(data)
	if err == nil {
		err = tmp.Close()
	} else {
		_ = tmp.Close()
	}

	if err != nil {
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("failed to write graph %s: %w", graph.ID, err)
	}

	err = os.Rename(tmp.Name(), target)
	if err != nil {
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("failed to replace graph %s: %w", graph.ID, err)
	}

	return nil
}

// DeleteGraph removes a graph file.
func (fp *Persistence) DeleteGraph(_ context.Context, id string) error {
	err := persistence.ValidateGraphID(id)
	if err != nil {
		return persistence.NewGraphError("Delete", id, err)
	}

	err = os.Remove(fp.graphPath(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return persistence.NewGraphError("Delete", id, persistence.ErrGraphNotFound)
		}

		return fmt.Errorf("failed to delete graph %s: %w", id, err)
	}

	return nil
}
