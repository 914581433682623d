package path

import (
	"math"

	"github.com/matzehuels/leaderline/pkg/errors"
	"github.com/matzehuels/leaderline/pkg/geom"
	"github.com/matzehuels/leaderline/pkg/socket"
)

// MagnetReach is the distance magnet control points project from each
// endpoint. It does not depend on the chord, so short and long lines keep
// the same leash shape. Overrides are clamped to [magnetMinReach,
// magnetMaxReach].
const (
	MagnetReach    = 40.0
	magnetMinReach = 10.0
	magnetMaxReach = 80.0
)

// Generate builds the path descriptor from start to end for cfg.Type.
// startSide and endSide are the resolved sockets of each endpoint and
// determine the exit directions. Coincident endpoints yield a single MoveTo
// with zero length for every type.
func Generate(start geom.Point, startSide socket.Socket, end geom.Point, endSide socket.Socket, cfg Config) (Descriptor, error) {
	if !cfg.Type.Valid() {
		return Descriptor{}, errors.New(errors.ErrCodeUnsupportedPathType, "unknown path type %d", int(cfg.Type))
	}
	if start.Eq(end) {
		return Descriptor{Segments: []Segment{{Op: MoveTo, To: start}}}, nil
	}

	c := cfg.EffectiveCurvature()
	var segs []Segment
	switch cfg.Type {
	case Straight:
		segs = straight(start, end)
	case Arc:
		segs = arc(start, startSide, end, c)
	case Fluid:
		segs = fluid(start, startSide, end, endSide, c)
	case Magnet:
		segs = magnet(start, startSide, end, endSide, c, cfg.EffectiveReach())
	case Grid:
		segs = grid(start, startSide, end, endSide)
	}
	return newDescriptor(segs), nil
}

func straight(start, end geom.Point) []Segment {
	return []Segment{{Op: MoveTo, To: start}, {Op: LineTo, To: end}}
}

// arc bends a single curve off the chord. The control point sits on the
// chord normal at curvature*chord from the midpoint, on the side the start
// socket exits toward.
func arc(start geom.Point, startSide socket.Socket, end geom.Point, c float64) []Segment {
	chord := end.Sub(start)
	n := chord.Unit().Perp()
	if exit := startSide.Normal(); n.Dot(exit) < 0 {
		n = n.Neg()
	}
	q := start.Lerp(end, 0.5).Add(n.Scale(c * chord.Len()))
	return []Segment{{Op: MoveTo, To: start}, quadratic(start, q, end)}
}

// quadratic returns the cubic segment equivalent to the quadratic curve
// start-q-end.
func quadratic(start, q, end geom.Point) Segment {
	return Segment{
		Op: CubicTo,
		C1: start.Add(q.Sub(start).Scale(2.0 / 3)),
		C2: end.Add(q.Sub(end).Scale(2.0 / 3)),
		To: end,
	}
}

func fluid(start geom.Point, startSide socket.Socket, end geom.Point, endSide socket.Socket, c float64) []Segment {
	chord := end.Sub(start)
	reach := c * chord.Len()
	n1, n2 := exitDirections(chord, startSide, endSide)
	return []Segment{
		{Op: MoveTo, To: start},
		{Op: CubicTo, C1: start.Add(n1.Scale(reach)), C2: end.Add(n2.Scale(reach)), To: end},
	}
}

// magnet projects a fixed reach instead of one proportional to the chord.
// Curvature blends each control point from the chord direction (c=0, a
// straight line) toward the socket normal (c=1).
func magnet(start geom.Point, startSide socket.Socket, end geom.Point, endSide socket.Socket, c, reach float64) []Segment {
	chord := end.Sub(start)
	dir := chord.Unit()
	n1, n2 := exitDirections(chord, startSide, endSide)

	d1 := dir.Scale(1 - c).Add(n1.Scale(c))
	d2 := dir.Neg().Scale(1 - c).Add(n2.Scale(c))
	return []Segment{
		{Op: MoveTo, To: start},
		{Op: CubicTo, C1: start.Add(d1.Scale(reach)), C2: end.Add(d2.Scale(reach)), To: end},
	}
}

// exitDirections returns the outward direction for each end of the chord.
// Sockets without a normal (center) fall back to heading along the chord.
func exitDirections(chord geom.Vec, startSide, endSide socket.Socket) (geom.Vec, geom.Vec) {
	dir := chord.Unit()
	n1, n2 := startSide.Normal(), endSide.Normal()
	if n1.IsZero() {
		n1 = dir
	}
	if n2.IsZero() {
		n2 = dir.Neg()
	}
	return n1, n2
}

type axis int

const (
	horizontal axis = iota
	vertical
)

// exitAxis reports the axis a grid path leaves side along. Sockets without
// a side axis (center, corners) follow the chord's dominant axis.
func exitAxis(side socket.Socket, chord geom.Vec) axis {
	switch side {
	case socket.Left, socket.Right:
		return horizontal
	case socket.Top, socket.Bottom:
		return vertical
	}
	if math.Abs(chord.X) >= math.Abs(chord.Y) {
		return horizontal
	}
	return vertical
}

// grid routes orthogonally. Perpendicular exit axes meet at one bend;
// parallel exit axes split at the midpoint of that axis with two bends.
func grid(start geom.Point, startSide socket.Socket, end geom.Point, endSide socket.Socket) []Segment {
	chord := end.Sub(start)
	a1 := exitAxis(startSide, chord)
	a2 := exitAxis(endSide, chord.Neg())

	var pts []geom.Point
	switch {
	case a1 == horizontal && a2 == vertical:
		pts = []geom.Point{start, {X: end.X, Y: start.Y}, end}
	case a1 == vertical && a2 == horizontal:
		pts = []geom.Point{start, {X: start.X, Y: end.Y}, end}
	case a1 == horizontal:
		mid := (start.X + end.X) / 2
		pts = []geom.Point{start, {X: mid, Y: start.Y}, {X: mid, Y: end.Y}, end}
	default:
		mid := (start.Y + end.Y) / 2
		pts = []geom.Point{start, {X: start.X, Y: mid}, {X: end.X, Y: mid}, end}
	}

	pts = simplify(pts)
	segs := make([]Segment, 0, len(pts))
	segs = append(segs, Segment{Op: MoveTo, To: pts[0]})
	for _, p := range pts[1:] {
		segs = append(segs, Segment{Op: LineTo, To: p})
	}
	return segs
}

// simplify drops repeated points and interior points that lie on the
// straight line through their neighbours.
func simplify(pts []geom.Point) []geom.Point {
	out := make([]geom.Point, 0, len(pts))
	for _, p := range pts {
		if len(out) > 0 && out[len(out)-1].Eq(p) {
			continue
		}
		if n := len(out); n >= 2 && collinear(out[n-2], out[n-1], p) {
			out[n-1] = p
			continue
		}
		out = append(out, p)
	}
	return out
}

func collinear(a, b, c geom.Point) bool {
	ab, bc := b.Sub(a), c.Sub(b)
	return math.Abs(ab.X*bc.Y-ab.Y*bc.X) < geom.Epsilon && ab.Dot(bc) > 0
}
