// Package routing computes connection curves between node handles and resolves
// screen points to the canvas element under them.
package routing

import (
	"math"
	"strconv"
	"strings"

	"github.com/dukex/operion-canvas/pkg/geom"
)

// MinControlOffset is the smallest horizontal distance of a control point from its end.
const MinControlOffset = 50.0

const curveSamples = 32

// Curve is a cubic bezier from Start to End.
type Curve struct {
	Start geom.Point
	C1    geom.Point
	C2    geom.Point
	End   geom.Point
}

// Route builds the curve between an output anchor and an input anchor. Control points
// sit horizontally at c = max(50, |dx|/2) from each end, so the curve always leaves
// an output to the right and enters an input from the left.
func Route(start, end geom.Point) Curve {
	c := math.Max(MinControlOffset, math.Abs(end.X-start.X)*0.5)

	return Curve{
		Start: start,
		C1:    geom.Point{X: start.X + c, Y: start.Y},
		C2:    geom.Point{X: end.X - c, Y: end.Y},
		End:   end,
	}
}

// At evaluates the curve at t in [0, 1].
func (c Curve) At(t float64) geom.Point {
	u := 1 - t
	a, b, d, e := u*u*u, 3*u*u*t, 3*u*t*t, t*t*t

	return geom.Point{
		X: a*c.Start.X + b*c.C1.X + d*c.C2.X + e*c.End.X,
		Y: a*c.Start.Y + b*c.C1.Y + d*c.C2.Y + e*c.End.Y,
	}
}

// Distance approximates the shortest distance from p to the curve by sampling it
// as a polyline.
func (c Curve) Distance(p geom.Point) float64 {
	best := math.Inf(1)
	prev := c.Start

	for i := 1; i <= curveSamples; i++ {
		next := c.At(float64(i) / curveSamples)
		best = math.Min(best, segmentDistance(p, prev, next))
		prev = next
	}

	return best
}

// SVG renders the curve as an SVG path "M sx sy C c1x c1y, c2x c2y, ex ey".
func (c Curve) SVG() string {
	var b strings.Builder

	b.WriteString("M ")
	writePoint(&b, c.Start)
	b.WriteString(" C ")
	writePoint(&b, c.C1)
	b.WriteString(", ")
	writePoint(&b, c.C2)
	b.WriteString(", ")
	writePoint(&b, c.End)

	return b.String()
}

func writePoint(b *strings.Builder, p geom.Point) {
	b.WriteString(formatCoord(p.X))
	b.WriteByte(' ')
	b.WriteString(formatCoord(p.Y))
}

func formatCoord(v float64) string {
	v = math.Round(v*100) / 100
	if v == 0 {
		v = 0 // no "-0"
	}

	return strconv.FormatFloat(v, 'f', -1, 64)
}

func segmentDistance(p, a, b geom.Point) float64 {
	ab := b.Sub(a)

	lengthSq := ab.X*ab.X + ab.Y*ab.Y
	if lengthSq == 0 {
		return p.Dist(a)
	}

	ap := p.Sub(a)
	t := math.Max(0, math.Min(1, (ap.X*ab.X+ap.Y*ab.Y)/lengthSq))

	return p.Dist(a.Add(ab.Mul(t)))
}
