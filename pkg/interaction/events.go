package interaction

import (
	"github.com/dukex/operion-canvas/pkg/geom"
	"github.com/dukex/operion-canvas/pkg/routing"
)

// Modifier is a bit set of held modifier keys.
type Modifier uint8

const (
	ModShift Modifier = 1 << iota
	ModCtrl
	ModAlt
	ModMeta
)

func (m Modifier) Has(mod Modifier) bool { return m&mod != 0 }

// Command reports whether the platform command key (Ctrl or Meta) is held.
func (m Modifier) Command() bool { return m.Has(ModCtrl) || m.Has(ModMeta) }

// Key names understood by KeyDown.
const (
	KeyEscape    = "Escape"
	KeyDelete    = "Delete"
	KeyBackspace = "Backspace"
	KeyEnter     = "Enter"
	KeyS         = "s"
	KeyA         = "a"
)

// Event is an input event. The concrete types below are the only implementations.
type Event interface {
	isEvent()
}

// PointerDown is a button press at a screen point over Target.
type PointerDown struct {
	Point     geom.Point
	Target    routing.Target
	Modifiers Modifier
}

// PointerMove carries the current pointer position in screen space.
type PointerMove struct {
	Point geom.Point
}

// PointerUp is a button release over Target.
type PointerUp struct {
	Point  geom.Point
	Target routing.Target
}

type KeyDown struct {
	Key       string
	Modifiers Modifier
}

// Cancel aborts the current gesture, as Escape does.
type Cancel struct{}

// ConnectionClick selects a connection.
type ConnectionClick struct {
	ID string
}

// Wheel zooms around Point. A positive DeltaY zooms out.
type Wheel struct {
	Point  geom.Point
	DeltaY float64
}

// DropNodeType places a new node of Type under the screen point, as when a palette
// item is dropped on the canvas.
type DropNodeType struct {
	Point geom.Point
	Type  string
}

func (PointerDown) isEvent()     {}
func (PointerMove) isEvent()     {}
func (PointerUp) isEvent()       {}
func (KeyDown) isEvent()         {}
func (Cancel) isEvent()          {}
func (ConnectionClick) isEvent() {}
func (Wheel) isEvent()           {}
func (DropNodeType) isEvent()    {}
