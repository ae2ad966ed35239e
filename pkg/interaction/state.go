// Package interaction turns pointer and keyboard input into edits of a graph model,
// its viewport and the current selection.
//
// Transition is a pure function from (view, state, event) to the next state and a
// list of patches. Machine owns the mutable pieces, applies the patches and calls the
// render callback once per event.
package interaction

import (
	"github.com/dukex/operion-canvas/pkg/geom"
)

// Mode is the coarse interaction state.
type Mode int

const (
	Idle Mode = iota
	Panning
	DraggingNodes
	ConnectingFrom
)

func (m Mode) String() string {
	switch m {
	case Panning:
		return "panning"
	case DraggingNodes:
		return "dragging_nodes"
	case ConnectingFrom:
		return "connecting_from"
	default:
		return "idle"
	}
}

// NodeStart is the position of a dragged node when the drag began.
type NodeStart struct {
	ID       string
	Position geom.Point
}

// State is the full interaction state. Only the fields of the current Mode are set.
type State struct {
	Mode Mode

	// Last pointer position, screen space. Panning and DraggingNodes.
	Last geom.Point

	// Pointer position at drag start, screen space, and the dragged nodes. A zoom
	// during the drag moves Origin to Last and folds the graph-space movement so far
	// into Offset. DraggingNodes.
	Origin geom.Point
	Offset geom.Point
	Starts []NodeStart
	Moved  bool

	// Source of the pending connection and the current pointer. ConnectingFrom.
	FromNode   string
	FromHandle string
	Pointer    geom.Point
}

func IdleState() State { return State{Mode: Idle} }

func (s State) Is(mode Mode) bool { return s.Mode == mode }
