package web

import (
	"encoding/json"

	"github.com/dukex/operion-canvas/pkg/graph"
	"github.com/dukex/operion-canvas/pkg/mapping"
	"github.com/dukex/operion-canvas/pkg/models"
	"github.com/dukex/operion-canvas/pkg/value"
)

// SaveGraphRequest is the body of PUT /graphs/:id.
type SaveGraphRequest struct {
	Name       string            `json:"name"       validate:"max=255"`
	Definition models.Definition `json:"definition"`
}

// ValidationResponse is returned by POST /graphs/:id/validate.
type ValidationResponse struct {
	Valid  bool                     `json:"valid"`
	Errors []*graph.ValidationError `json:"errors"`
}

// MappingPreviewRequest is the body of POST /mapping/preview. Mapping may be the text
// a user typed (a JSON string) or the mapping object itself.
type MappingPreviewRequest struct {
	Mapping json.RawMessage        `json:"mapping"`
	Context map[string]value.Value `json:"context"`
	Input   value.Value            `json:"input"`
}

// MappingPreviewResponse carries the mapped result and the field paths the context
// offers.
type MappingPreviewResponse struct {
	Result value.Value `json:"result"`
	Fields []string    `json:"fields"`
}

// spec decodes the mapping field.
func (r MappingPreviewRequest) spec() (mapping.Spec, error) {
	if len(r.Mapping) == 0 || string(r.Mapping) == "null" {
		return mapping.Spec{}, nil
	}

	var text string
	if err := json.Unmarshal(r.Mapping, &text); err == nil {
		return mapping.ParseSpecText(text)
	}

	return mapping.ParseSpecText(string(r.Mapping))
}

// ListGraphsResponse is returned by GET /graphs.
type ListGraphsResponse struct {
	Graphs     []models.GraphSummary `json:"graphs"`
	Pagination Pagination            `json:"pagination"`
	Sorting    Sorting               `json:"sorting"`
}

type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

type Sorting struct {
	SortBy    string `json:"sort_by"`
	SortOrder string `json:"sort_order"`
}
