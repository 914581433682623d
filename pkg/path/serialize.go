package path

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/matzehuels/leaderline/pkg/geom"
)

// Steps is the number of flat pieces each cubic segment is subdivided into
// for length measurement and point lookup.
const Steps = 32

// Serialized is the drawable form of a Descriptor together with its
// flattened point table. It is immutable and safe for concurrent use.
type Serialized struct {
	// Command is the SVG path data using absolute M, L and C commands.
	Command string
	// Length is the approximate arc length.
	Length float64

	pts []geom.Point
	cum []float64
}

// Serialize converts d into path data and builds the lookup table used by
// PointAt and the tangent helpers. It is deterministic: the same descriptor
// always yields the same command string and length.
func Serialize(d Descriptor) *Serialized {
	pts := flatten(d.Segments)
	cum := make([]float64, len(pts))
	for i := 1; i < len(pts); i++ {
		cum[i] = cum[i-1] + pts[i].Distance(pts[i-1])
	}
	s := &Serialized{Command: command(d.Segments), pts: pts, cum: cum}
	if len(cum) > 0 {
		s.Length = cum[len(cum)-1]
	}
	return s
}

func command(segs []Segment) string {
	var b strings.Builder
	for i, s := range segs {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(s.Op.String())
		if s.Op == CubicTo {
			writePoint(&b, s.C1)
			b.WriteByte(' ')
			writePoint(&b, s.C2)
			b.WriteByte(' ')
		}
		writePoint(&b, s.To)
	}
	return b.String()
}

func writePoint(b *strings.Builder, p geom.Point) {
	b.WriteString(formatCoord(p.X))
	b.WriteByte(',')
	b.WriteString(formatCoord(p.Y))
}

// formatCoord rounds to three decimals and avoids "-0".
func formatCoord(v float64) string {
	r := math.Round(v*1000) / 1000
	if r == 0 {
		r = 0
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

// flatten walks segs and returns the polyline approximation: line segments
// contribute their endpoint, cubic segments contribute Steps points.
func flatten(segs []Segment) []geom.Point {
	if len(segs) == 0 {
		return nil
	}
	pts := make([]geom.Point, 0, len(segs)*Steps)
	cur := segs[0].To
	pts = append(pts, cur)
	for _, s := range segs[1:] {
		switch s.Op {
		case CubicTo:
			for i := 1; i <= Steps; i++ {
				pts = append(pts, cubicAt(cur, s.C1, s.C2, s.To, float64(i)/Steps))
			}
		default:
			pts = append(pts, s.To)
		}
		cur = s.To
	}
	return pts
}

func polylineLength(pts []geom.Point) float64 {
	var l float64
	for i := 1; i < len(pts); i++ {
		l += pts[i].Distance(pts[i-1])
	}
	return l
}

func cubicAt(p0, p1, p2, p3 geom.Point, t float64) geom.Point {
	if t >= 1 {
		return p3
	}
	u := 1 - t
	a, b, c, d := u*u*u, 3*u*u*t, 3*u*t*t, t*t*t
	return geom.Point{
		X: a*p0.X + b*p1.X + c*p2.X + d*p3.X,
		Y: a*p0.Y + b*p1.Y + c*p2.Y + d*p3.Y,
	}
}

// Points returns a copy of the flattened polyline.
func (s *Serialized) Points() []geom.Point {
	out := make([]geom.Point, len(s.pts))
	copy(out, s.pts)
	return out
}

// Start returns the first point of the path.
func (s *Serialized) Start() geom.Point {
	if len(s.pts) == 0 {
		return geom.Point{}
	}
	return s.pts[0]
}

// End returns the last point of the path.
func (s *Serialized) End() geom.Point {
	if len(s.pts) == 0 {
		return geom.Point{}
	}
	return s.pts[len(s.pts)-1]
}

// Bounds returns the bounding box of the flattened path.
func (s *Serialized) Bounds() geom.Box { return geom.Bounds(s.pts...) }

// locate returns the index i of the flattened piece pts[i-1]..pts[i] holding
// fraction t of the length, and the local interpolation factor within it.
func (s *Serialized) locate(t float64) (int, float64) {
	target := geom.Clamp(t, 0, 1) * s.Length
	i := sort.SearchFloat64s(s.cum, target)
	if i == 0 {
		i = 1
	}
	if i >= len(s.cum) {
		i = len(s.cum) - 1
	}
	seg := s.cum[i] - s.cum[i-1]
	if seg <= 0 {
		return i, 1
	}
	return i, (target - s.cum[i-1]) / seg
}

// PointAt returns the point at fraction t ∈ [0,1] of the arc length.
// PointAt(0) and PointAt(1) are exactly the path endpoints.
func (s *Serialized) PointAt(t float64) geom.Point {
	switch {
	case len(s.pts) == 0:
		return geom.Point{}
	case t <= 0 || s.Length == 0:
		return s.pts[0]
	case t >= 1:
		return s.pts[len(s.pts)-1]
	}
	i, f := s.locate(t)
	return s.pts[i-1].Lerp(s.pts[i], f)
}

// TangentAt returns the unit direction of travel at fraction t. A path of
// zero length has no tangent and returns the zero vector.
func (s *Serialized) TangentAt(t float64) geom.Vec {
	if s.Length == 0 {
		return geom.Vec{}
	}
	i, _ := s.locate(t)
	if v := s.pts[i].Sub(s.pts[i-1]); !v.IsZero() {
		return v.Unit()
	}
	for j := i + 1; j < len(s.pts); j++ {
		if v := s.pts[j].Sub(s.pts[j-1]); !v.IsZero() {
			return v.Unit()
		}
	}
	for j := i - 1; j > 0; j-- {
		if v := s.pts[j].Sub(s.pts[j-1]); !v.IsZero() {
			return v.Unit()
		}
	}
	return geom.Vec{}
}

// StartTangent returns the direction of the first non-empty flattened piece.
func (s *Serialized) StartTangent() geom.Vec {
	for i := 1; i < len(s.pts); i++ {
		if v := s.pts[i].Sub(s.pts[i-1]); !v.IsZero() {
			return v.Unit()
		}
	}
	return geom.Vec{}
}

// EndTangent returns the direction of the last non-empty flattened piece.
func (s *Serialized) EndTangent() geom.Vec {
	for i := len(s.pts) - 1; i > 0; i-- {
		if v := s.pts[i].Sub(s.pts[i-1]); !v.IsZero() {
			return v.Unit()
		}
	}
	return geom.Vec{}
}
