// Package registry holds the node-type metadata the editor core looks types up in.
// A Registry is passed explicitly to the graph model and the interaction machine.
package registry

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/dukex/operion-canvas/pkg/models"
	"github.com/go-playground/validator/v10"
)

var (
	// ErrTypeAlreadyRegistered is returned when a type name is registered twice.
	ErrTypeAlreadyRegistered = errors.New("node type already registered")

	// ErrInvalidNodeType is returned when a registry entry fails validation.
	ErrInvalidNodeType = errors.New("invalid node type")
)

// Lookup is the read-only view of a registry used by the editor core.
type Lookup interface {
	NodeType(name string) (models.NodeType, bool)
}

type Registry struct {
	logger   *slog.Logger
	validate *validator.Validate

	mu    sync.RWMutex
	types map[string]models.NodeType
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		logger:   log,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		types:    make(map[string]models.NodeType),
	}
}

// Register adds a node type. Names are unique.
func (r *Registry) Register(nodeType models.NodeType) error {
	err := r.validate.Struct(nodeType)
	if err != nil {
		return fmt.Errorf("%w %q: %w", ErrInvalidNodeType, nodeType.Name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.types[nodeType.Name]; exists {
		return fmt.Errorf("%w: %s", ErrTypeAlreadyRegistered, nodeType.Name)
	}

	r.types[nodeType.Name] = nodeType

	r.logger.Debug("Registered node type", "type", nodeType.Name, "category", nodeType.Category)

	return nil
}

// Replace registers nodeType, overwriting an existing entry with the same name.
func (r *Registry) Replace(nodeType models.NodeType) error {
	err := r.validate.Struct(nodeType)
	if err != nil {
		return fmt.Errorf("%w %q: %w", ErrInvalidNodeType, nodeType.Name, err)
	}

	r.mu.Lock()
	r.types[nodeType.Name] = nodeType
	r.mu.Unlock()

	return nil
}

func (r *Registry) NodeType(name string) (models.NodeType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.types[name]

	return t, ok
}

// Handles returns the handle set of a type, or the default pair for unknown types.
func (r *Registry) Handles(name string) models.Handles {
	return HandlesOf(r, name)
}

// HandlesOf resolves the effective handles of a type through any Lookup.
// A nil lookup or an unknown type yields the default input/output pair.
func HandlesOf(lookup Lookup, name string) models.Handles {
	if lookup == nil {
		return models.DefaultHandles()
	}

	t, ok := lookup.NodeType(name)
	if !ok {
		return models.DefaultHandles()
	}

	return t.EffectiveHandles()
}

// Types returns all registered types ordered by category, then name.
func (r *Registry) Types() []models.NodeType {
	r.mu.RLock()
	out := make([]models.NodeType, 0, len(r.types))

	for _, t := range r.types {
		out = append(out, t)
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b models.NodeType) int {
		return cmp.Or(cmp.Compare(a.Category, b.Category), cmp.Compare(a.Name, b.Name))
	})

	return out
}

// TypesByCategory returns the registered types of one category.
func (r *Registry) TypesByCategory(category models.CategoryType) []models.NodeType {
	var out []models.NodeType

	for _, t := range r.Types() {
		if t.Category == category {
			out = append(out, t)
		}
	}

	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.types)
}
