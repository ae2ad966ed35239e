package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence errors that all implementations use.
var (
	// ErrGraphNotFound indicates no graph exists for the given identifier.
	ErrGraphNotFound = errors.New("graph not found")

	// ErrInvalidGraphID indicates an identifier that cannot be stored safely.
	ErrInvalidGraphID = errors.New("invalid graph id")

	// ErrInvalidSortField indicates a sort field outside the allowlist.
	ErrInvalidSortField = errors.New("invalid sort field")
)

// GraphError wraps graph store errors with the operation and graph involved.
type GraphError struct {
	Op      string // Operation being performed (e.g., "GetByID", "Save", "Delete")
	GraphID string
	Err     error
}

func (e *GraphError) Error() string {
	return fmt.Sprintf("%s operation failed for graph %s: %v", e.Op, e.GraphID, e.Err)
}

func (e *GraphError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for graph errors.
func (e *GraphError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

func NewGraphError(op, graphID string, err error) *GraphError {
	return &GraphError{Op: op, GraphID: graphID, Err: err}
}

// NewSortError reports a rejected sort field.
func NewSortError(field string) error {
	return fmt.Errorf("%w: %s", ErrInvalidSortField, field)
}

// IsGraphNotFound checks if an error indicates a graph was not found.
func IsGraphNotFound(err error) bool {
	return errors.Is(err, ErrGraphNotFound)
}

// ValidateGraphID rejects ids that are empty or could escape a storage namespace.
func ValidateGraphID(id string) error {
	if id == "" || len(id) > 255 {
		return ErrInvalidGraphID
	}

	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return fmt.Errorf("%w: %q", ErrInvalidGraphID, id)
		}
	}

	return nil
}
