package models

import "time"

// Graph is a stored graph definition. Viewport state is never part of it.
type Graph struct {
	ID         string     `json:"id"         validate:"required"`
	Name       string     `json:"name"`
	Definition Definition `json:"definition"`
	Revision   uint64     `json:"revision"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// GraphSummary is the listing form of a Graph.
type GraphSummary struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Nodes       int       `json:"nodes"`
	Connections int       `json:"connections"`
	Revision    uint64    `json:"revision"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (g *Graph) Summary() GraphSummary {
	return GraphSummary{
		ID:          g.ID,
		Name:        g.Name,
		Nodes:       len(g.Definition.Nodes),
		Connections: len(g.Definition.Connections),
		Revision:    g.Revision,
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}
}
