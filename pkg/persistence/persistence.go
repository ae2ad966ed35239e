// Package persistence defines the graph store the editor saves definitions to.
package persistence

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/dukex/operion-canvas/pkg/models"
)

type Persistence interface {
	Graphs(ctx context.Context, opts ListGraphsOptions) ([]models.GraphSummary, error)
	GraphByID(ctx context.Context, id string) (*models.Graph, error)
	SaveGraph(ctx context.Context, graph *models.Graph) error
	DeleteGraph(ctx context.Context, id string) error
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}

// ListGraphsOptions controls ordering and paging of Graphs.
type ListGraphsOptions struct {
	SortBy    string // created_at, updated_at or name
	SortOrder string // asc or desc
	Limit     int
	Offset    int
}

// Normalize fills defaults and validates the sort field.
func (o ListGraphsOptions) Normalize() (ListGraphsOptions, error) {
	if o.Limit <= 0 || o.Limit > 100 {
		o.Limit = 20
	}

	if o.Offset < 0 {
		o.Offset = 0
	}

	if o.SortBy == "" {
		o.SortBy = "updated_at"
	}

	o.SortOrder = strings.ToLower(o.SortOrder)
	if o.SortOrder != "asc" {
		o.SortOrder = "desc"
	}

	switch o.SortBy {
	case "created_at", "updated_at", "name":
	default:
		return o, NewSortError(o.SortBy)
	}

	return o, nil
}

// SortAndPage applies opts to summaries in memory, for stores without a query engine.
func SortAndPage(summaries []models.GraphSummary, opts ListGraphsOptions) []models.GraphSummary {
	slices.SortStableFunc(summaries, func(a, b models.GraphSummary) int {
		var c int

		switch opts.SortBy {
		case "created_at":
			c = a.CreatedAt.Compare(b.CreatedAt)
		case "name":
			c = cmp.Compare(a.Name, b.Name)
		default:
			c = a.UpdatedAt.Compare(b.UpdatedAt)
		}

		c = cmp.Or(c, cmp.Compare(a.ID, b.ID))

		if opts.SortOrder == "desc" {
			return -c
		}

		return c
	})

	if opts.Offset >= len(summaries) {
		return []models.GraphSummary{}
	}

	end := min(opts.Offset+opts.Limit, len(summaries))

	return summaries[opts.Offset:end]
}
