package graph

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by structural edits. A rejected edit never mutates the model.
var (
	ErrSelfConnection      = errors.New("connection source and target are the same node")
	ErrDuplicateConnection = errors.New("nodes are already connected")
	ErrNodeNotFound        = errors.New("node not found")
	ErrUnknownHandle       = errors.New("unknown handle")
	ErrDuplicateNode       = errors.New("node id already exists")
	ErrDuplicateConnID     = errors.New("connection id already exists")
	ErrEmptyID             = errors.New("id is required")

	// ErrInvalidGraph is wrapped by every ValidationError.
	ErrInvalidGraph = errors.New("invalid graph")
)

// ValidationKind classifies a structural problem found by Validate.
type ValidationKind string

const (
	KindUnresolvedType ValidationKind = "unresolved_type"
	KindUnknownHandle  ValidationKind = "unknown_handle"
	KindDanglingRef    ValidationKind = "dangling_reference"
	KindInvalidStatus  ValidationKind = "invalid_status"
)

// ValidationError describes one problem in a graph. Validate joins them with errors.Join.
type ValidationError struct {
	Kind    ValidationKind `json:"kind"`
	NodeID  string         `json:"node_id,omitempty"`
	ConnID  string         `json:"connection_id,omitempty"`
	Message string         `json:"message"`
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}

	subject := e.NodeID
	if e.ConnID != "" {
		subject = "connection " + e.ConnID
	} else if subject != "" {
		subject = "node " + subject
	}

	if subject == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}

	return fmt.Sprintf("%s: %s: %s", e.Kind, subject, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidGraph }

// ValidationErrors flattens a joined Validate error into its ValidationErrors.
func ValidationErrors(err error) []*ValidationError {
	switch e := err.(type) {
	case nil:
		return nil
	case *ValidationError:
		return []*ValidationError{e}
	case interface{ Unwrap() []error }:
		var out []*ValidationError
		for _, inner := range e.Unwrap() {
			out = append(out, ValidationErrors(inner)...)
		}

		return out
	case interface{ Unwrap() error }:
		return ValidationErrors(e.Unwrap())
	default:
		return nil
	}
}

// IsValidationError reports whether err contains at least one ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError

	return errors.As(err, &ve)
}
