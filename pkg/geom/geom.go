// Package geom provides the planar primitives shared by the scoring engine,
// the problem model and the renderers.
//
// Coordinates are plain float64 values in room units. The package has no
// notion of a stage or of musicians; it only answers distance and angle
// questions.
package geom

import (
	"fmt"
	"math"
)

// TwoPi is a full turn in radians.
const TwoPi = 2 * math.Pi

// Point is a position in the room. It serialises as {"x": .., "y": ..}.
type Point struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// String implements fmt.Stringer.
func (p Point) String() string {
	return fmt.Sprintf("(%g, %g)", p.X, p.Y)
}

// Add returns p translated by (dx, dy).
func (p Point) Add(dx, dy float64) Point {
	return Point{X: p.X + dx, Y: p.Y + dy}
}

// DistanceSquared returns the squared Euclidean distance between p and q.
func (p Point) DistanceSquared(q Point) float64 {
	dx := p.X - q.X
	dy := p.Y - q.Y
	return dx*dx + dy*dy
}

// Distance returns the Euclidean distance between p and q.
func (p Point) Distance(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Bearing returns the angle of the vector from p to q in (-π, π].
func (p Point) Bearing(q Point) float64 {
	return math.Atan2(q.Y-p.Y, q.X-p.X)
}

// IsFinite reports whether both coordinates are finite numbers.
func (p Point) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// NormAngle maps an angle in radians onto [0, 2π).
func NormAngle(a float64) float64 {
	a = math.Mod(a, TwoPi)
	if a < 0 {
		a += TwoPi
	}
	// math.Mod of a tiny negative number plus 2π can round up to exactly 2π.
	if a >= TwoPi {
		a -= TwoPi
	}
	return a
}

// PointToSegmentDistanceSquared returns the squared distance from p to the
// closest point of the segment [a, b]. A degenerate segment is treated as
// the single point a.
func PointToSegmentDistanceSquared(p, a, b Point) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	d2 := dx*dx + dy*dy
	if d2 == 0 {
		return p.DistanceSquared(a)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / d2
	t = math.Max(0, math.Min(1, t))
	return p.DistanceSquared(Point{X: a.X + t*dx, Y: a.Y + t*dy})
}

// SegmentIntersectsCircle reports whether the segment [a, b] passes strictly
// within radius of center.
func SegmentIntersectsCircle(a, b, center Point, radius float64) bool {
	return PointToSegmentDistanceSquared(center, a, b) < radius*radius
}

// Rect is an axis-aligned rectangle given by its bottom-left corner and size.
type Rect struct {
	Min    Point
	Width  float64
	Height float64
}

// Max returns the top-right corner.
func (r Rect) Max() Point {
	return Point{X: r.Min.X + r.Width, Y: r.Min.Y + r.Height}
}

// Center returns the midpoint of the rectangle.
func (r Rect) Center() Point {
	return Point{X: r.Min.X + r.Width/2, Y: r.Min.Y + r.Height/2}
}

// Inset shrinks the rectangle by m on every side. The result may have a
// negative size when m exceeds half a side.
func (r Rect) Inset(m float64) Rect {
	return Rect{
		Min:    Point{X: r.Min.X + m, Y: r.Min.Y + m},
		Width:  r.Width - 2*m,
		Height: r.Height - 2*m,
	}
}

// Contains reports whether p lies inside r, boundary included.
func (r Rect) Contains(p Point) bool {
	max := r.Max()
	return p.X >= r.Min.X && p.X <= max.X && p.Y >= r.Min.Y && p.Y <= max.Y
}

// ContainsRect reports whether o lies entirely inside r.
func (r Rect) ContainsRect(o Rect) bool {
	return r.Contains(o.Min) && r.Contains(o.Max())
}

// Edges returns the four sides counter-clockwise from the bottom edge.
func (r Rect) Edges() [4][2]Point {
	bl := r.Min
	tr := r.Max()
	br := Point{X: tr.X, Y: bl.Y}
	tl := Point{X: bl.X, Y: tr.Y}
	return [4][2]Point{{bl, br}, {br, tr}, {tr, tl}, {tl, bl}}
}

// DistanceSquaredToBoundary returns the squared distance from p to the
// closest point on the rectangle's outline.
func (r Rect) DistanceSquaredToBoundary(p Point) float64 {
	best := math.Inf(1)
	for _, e := range r.Edges() {
		best = math.Min(best, PointToSegmentDistanceSquared(p, e[0], e[1]))
	}
	return best
}
