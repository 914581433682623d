package geom

import "math"

// Epsilon is the tolerance used when comparing coordinates.
const Epsilon = 1e-9

// Point is a position in drawing-surface coordinates (y grows downward).
type Point struct {
	X float64 `json:"x" toml:"x" yaml:"x" msgpack:"x"`
	Y float64 `json:"y" toml:"y" yaml:"y" msgpack:"y"`
}

// Pt is shorthand for Point{x, y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Add returns p translated by v.
func (p Point) Add(v Vec) Point { return Point{X: p.X + v.X, Y: p.Y + v.Y} }

// Sub returns the vector from q to p.
func (p Point) Sub(q Point) Vec { return Vec{X: p.X - q.X, Y: p.Y - q.Y} }

// Distance returns the Euclidean distance between p and q.
func (p Point) Distance(q Point) float64 { return p.Sub(q).Len() }

// Lerp interpolates linearly from p (t=0) to q (t=1).
func (p Point) Lerp(q Point, t float64) Point {
	return Point{X: p.X + (q.X-p.X)*t, Y: p.Y + (q.Y-p.Y)*t}
}

// Eq reports whether p and q are within Epsilon of each other.
func (p Point) Eq(q Point) bool { return p.Near(q, Epsilon) }

// Near reports whether p and q are within tol on both axes.
func (p Point) Near(q Point, tol float64) bool {
	return math.Abs(p.X-q.X) <= tol && math.Abs(p.Y-q.Y) <= tol
}

// Vec is a 2D displacement.
type Vec struct {
	X float64 `json:"x" toml:"x" yaml:"x" msgpack:"x"`
	Y float64 `json:"y" toml:"y" yaml:"y" msgpack:"y"`
}

// Add returns v + w.
func (v Vec) Add(w Vec) Vec { return Vec{X: v.X + w.X, Y: v.Y + w.Y} }

// Sub returns v - w.
func (v Vec) Sub(w Vec) Vec { return Vec{X: v.X - w.X, Y: v.Y - w.Y} }

// Scale returns v scaled by s.
func (v Vec) Scale(s float64) Vec { return Vec{X: v.X * s, Y: v.Y * s} }

// Neg returns -v.
func (v Vec) Neg() Vec { return Vec{X: -v.X, Y: -v.Y} }

// Dot returns the dot product of v and w.
func (v Vec) Dot(w Vec) float64 { return v.X*w.X + v.Y*w.Y }

// Len returns the length of v.
func (v Vec) Len() float64 { return math.Hypot(v.X, v.Y) }

// IsZero reports whether v has (near) zero length.
func (v Vec) IsZero() bool { return v.Len() < Epsilon }

// Unit returns v scaled to length 1, or the zero vector if v is zero.
func (v Vec) Unit() Vec {
	l := v.Len()
	if l < Epsilon {
		return Vec{}
	}
	return Vec{X: v.X / l, Y: v.Y / l}
}

// Perp returns v rotated by 90 degrees: (-y, x).
func (v Vec) Perp() Vec { return Vec{X: -v.Y, Y: v.X} }

// Angle returns the direction of v in radians in (-π, π], measured from +x
// toward +y. Adding zero folds a negative-zero Y so (-1, -0) is π, not -π.
func (v Vec) Angle() float64 { return math.Atan2(v.Y+0, v.X) }

// Degrees returns the direction of v in degrees in (-180, 180].
func (v Vec) Degrees() float64 { return v.Angle() * 180 / math.Pi }

// Box is an axis-aligned rectangle. W and H are never negative.
type Box struct {
	X float64 `json:"x" toml:"x" yaml:"x" msgpack:"x"`
	Y float64 `json:"y" toml:"y" yaml:"y" msgpack:"y"`
	W float64 `json:"width" toml:"width" yaml:"width" msgpack:"width"`
	H float64 `json:"height" toml:"height" yaml:"height" msgpack:"height"`
}

// NewBox returns a box with the given origin and size. A negative size
// flips the box so that W and H are non-negative.
func NewBox(x, y, w, h float64) Box {
	if w < 0 {
		x, w = x+w, -w
	}
	if h < 0 {
		y, h = y+h, -h
	}
	return Box{X: x, Y: y, W: w, H: h}
}

// PointBox returns the degenerate box located at p.
func PointBox(p Point) Box { return Box{X: p.X, Y: p.Y} }

// Center returns the center of b.
func (b Box) Center() Point { return Point{X: b.X + b.W/2, Y: b.Y + b.H/2} }

// At returns the point at fractional position (fx, fy) inside b.
func (b Box) At(fx, fy float64) Point { return Point{X: b.X + b.W*fx, Y: b.Y + b.H*fy} }

// Contains reports whether p lies on or inside b, within Epsilon.
func (b Box) Contains(p Point) bool {
	return p.X >= b.X-Epsilon && p.X <= b.X+b.W+Epsilon &&
		p.Y >= b.Y-Epsilon && p.Y <= b.Y+b.H+Epsilon
}

// IsDegenerate reports whether b has zero area.
func (b Box) IsDegenerate() bool { return b.W < Epsilon || b.H < Epsilon }

// Translate returns b moved by v.
func (b Box) Translate(v Vec) Box { return Box{X: b.X + v.X, Y: b.Y + v.Y, W: b.W, H: b.H} }

// Union returns the smallest box containing both a and b.
func (b Box) Union(o Box) Box {
	x0, y0 := math.Min(b.X, o.X), math.Min(b.Y, o.Y)
	x1, y1 := math.Max(b.X+b.W, o.X+o.W), math.Max(b.Y+b.H, o.Y+o.H)
	return Box{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Expand grows b by d on every side.
func (b Box) Expand(d float64) Box { return NewBox(b.X-d, b.Y-d, b.W+2*d, b.H+2*d) }

// Bounds returns the bounding box of pts. It returns the zero box for no points.
func Bounds(pts ...Point) Box {
	if len(pts) == 0 {
		return Box{}
	}
	minX, minY, maxX, maxY := pts[0].X, pts[0].Y, pts[0].X, pts[0].Y
	for _, p := range pts[1:] {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	return Box{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 { return math.Max(lo, math.Min(hi, v)) }
