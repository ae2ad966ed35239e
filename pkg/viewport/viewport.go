// Package viewport maps between graph space and screen space.
//
//	screen = graph*Scale + Offset
//	graph  = (screen - Offset) / Scale
//
// Viewport state belongs to the editing session and is never saved with a graph.
package viewport

import (
	"math"

	"github.com/dukex/operion-canvas/pkg/geom"
)

const (
	MinScale = 0.1
	MaxScale = 3.0

	ZoomInFactor  = 1.2
	ZoomOutFactor = 0.8

	// Wheel zoom factors for scrolling down and up.
	WheelOutFactor = 0.9
	WheelInFactor  = 1.1
)

// NodeSize is the footprint assumed for every node when computing content bounds.
var NodeSize = geom.Size{W: 200, H: 100}

// State is the serializable part of a Transform.
type State struct {
	Offset geom.Point `json:"offset"`
	Scale  float64    `json:"scale"`
}

type Transform struct {
	Offset geom.Point
	Scale  float64

	// FitPadding is subtracted from each viewport dimension before fitting.
	FitPadding float64
}

func New() *Transform {
	return &Transform{Scale: 1}
}

func (t *Transform) State() State { return State{Offset: t.Offset, Scale: t.Scale} }

// SetState restores a saved state, clamping the scale.
func (t *Transform) SetState(s State) {
	t.Offset = s.Offset
	t.Scale = 1

	if s.Scale > 0 && !math.IsInf(s.Scale, 0) {
		t.Scale = clamp(s.Scale)
	}
}

func (t *Transform) ToScreen(p geom.Point) geom.Point {
	return p.Mul(t.Scale).Add(t.Offset)
}

func (t *Transform) ToGraph(p geom.Point) geom.Point {
	return p.Sub(t.Offset).Div(t.Scale)
}

// ToGraphDelta converts a screen-space displacement into graph space.
func (t *Transform) ToGraphDelta(d geom.Point) geom.Point {
	return d.Div(t.Scale)
}

// ZoomAt multiplies the scale by factor, clamped to [MinScale, MaxScale], keeping the
// graph point under the screen point p fixed.
func (t *Transform) ZoomAt(p geom.Point, factor float64) {
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return
	}

	next := clamp(t.Scale * factor)
	ratio := next / t.Scale

	t.Offset = p.Sub(p.Sub(t.Offset).Mul(ratio))
	t.Scale = next
}

// ZoomIn zooms by ZoomInFactor around the center of a viewport of the given size.
func (t *Transform) ZoomIn(size geom.Size) {
	t.ZoomAt(center(size), ZoomInFactor)
}

// ZoomOut zooms by ZoomOutFactor around the center of a viewport of the given size.
func (t *Transform) ZoomOut(size geom.Size) {
	t.ZoomAt(center(size), ZoomOutFactor)
}

// Wheel applies one wheel step at p. A positive deltaY zooms out.
func (t *Transform) Wheel(p geom.Point, deltaY float64) {
	switch {
	case deltaY > 0:
		t.ZoomAt(p, WheelOutFactor)
	case deltaY < 0:
		t.ZoomAt(p, WheelInFactor)
	}
}

// PanBy moves the offset by a screen-space delta. Panning is unbounded.
func (t *Transform) PanBy(delta geom.Point) {
	t.Offset = t.Offset.Add(delta)
}

func (t *Transform) Reset() {
	t.Offset = geom.Point{}
	t.Scale = 1
}

// FitToContent scales and centers the content so that it fits the viewport, never
// zooming past 1. It reports false and leaves the transform untouched when there is
// no content.
func (t *Transform) FitToContent(positions []geom.Point, size geom.Size) bool {
	bounds, ok := ContentBounds(positions)
	if !ok {
		return false
	}

	scale := math.Min(
		math.Min((size.W-t.FitPadding)/bounds.W(), (size.H-t.FitPadding)/bounds.H()),
		1,
	)
	if scale <= 0 || math.IsNaN(scale) {
		return false
	}

	t.Scale = clamp(scale)
	t.centerOn(bounds, size)

	return true
}

// CenterContent centers the content at the current scale.
func (t *Transform) CenterContent(positions []geom.Point, size geom.Size) bool {
	bounds, ok := ContentBounds(positions)
	if !ok {
		return false
	}

	t.centerOn(bounds, size)

	return true
}

func (t *Transform) centerOn(bounds geom.Rect, size geom.Size) {
	t.Offset = center(size).Sub(bounds.Center().Mul(t.Scale))
}

// VisibleRect returns the graph-space rectangle shown in a viewport of the given size.
func (t *Transform) VisibleRect(size geom.Size) geom.Rect {
	return geom.Rect{
		Min: t.ToGraph(geom.Point{}),
		Max: t.ToGraph(geom.Point{X: size.W, Y: size.H}),
	}
}

// ContentBounds is the union of node footprints placed at positions.
func ContentBounds(positions []geom.Point) (geom.Rect, bool) {
	rects := make([]geom.Rect, len(positions))
	for i, p := range positions {
		rects[i] = geom.RectAt(p, NodeSize)
	}

	return geom.Bounds(rects)
}

// Snap rounds each coordinate to the nearest multiple of grid, halves rounding up.
// A non-positive grid returns p unchanged.
func Snap(p geom.Point, grid float64) geom.Point {
	if grid <= 0 {
		return p
	}

	return geom.Point{X: snapValue(p.X, grid), Y: snapValue(p.Y, grid)}
}

func snapValue(v, grid float64) float64 {
	return math.Floor(v/grid+0.5) * grid
}

func clamp(s float64) float64 {
	return math.Max(MinScale, math.Min(MaxScale, s))
}

func center(size geom.Size) geom.Point {
	return geom.Point{X: size.W / 2, Y: size.H / 2}
}
