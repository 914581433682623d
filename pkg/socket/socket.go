package socket

import (
	"math"
	"strconv"
	"strings"

	"github.com/matzehuels/leaderline/pkg/errors"
	"github.com/matzehuels/leaderline/pkg/geom"
)

// Socket names an attachment point on a rectangle.
type Socket int

const (
	Auto Socket = iota
	Center
	Top
	Right
	Bottom
	Left
	TopLeft
	TopRight
	BottomLeft
	BottomRight
)

// Corner classification band, in degrees from the horizontal axis of the
// box-normalized direction vector. Angles below cornerMin attach to the left
// or right side, angles above cornerMax to the top or bottom side, anything
// in between to the matching corner.
const (
	cornerMin = 30.0
	cornerMax = 60.0
)

var names = [...]string{
	Auto:        "auto",
	Center:      "center",
	Top:         "top",
	Right:       "right",
	Bottom:      "bottom",
	Left:        "left",
	TopLeft:     "top_left",
	TopRight:    "top_right",
	BottomLeft:  "bottom_left",
	BottomRight: "bottom_right",
}

// fractions holds the fractional (x, y) position of each concrete socket.
var fractions = [...][2]float64{
	Center:      {0.5, 0.5},
	Top:         {0.5, 0},
	Right:       {1, 0.5},
	Bottom:      {0.5, 1},
	Left:        {0, 0.5},
	TopLeft:     {0, 0},
	TopRight:    {1, 0},
	BottomLeft:  {0, 1},
	BottomRight: {1, 1},
}

// All lists every concrete (non-auto) socket.
var All = []Socket{Center, Top, Right, Bottom, Left, TopLeft, TopRight, BottomLeft, BottomRight}

// Valid reports whether s is a known socket value.
func (s Socket) Valid() bool { return s >= Auto && s <= BottomRight }

// String returns the snake_case name of s.
func (s Socket) String() string {
	if !s.Valid() {
		return "socket(" + strconv.Itoa(int(s)) + ")"
	}
	return names[s]
}

// Parse converts a socket name to a Socket. It accepts snake_case,
// kebab-case and camelCase spellings ("top_left", "top-left", "topLeft").
func Parse(name string) (Socket, error) {
	key := normalize(name)
	if key == "" {
		return Auto, nil
	}
	for i, n := range names {
		if strings.ReplaceAll(n, "_", "") == key {
			return Socket(i), nil
		}
	}
	return Auto, errors.New(errors.ErrCodeUnsupportedSocket, "unknown socket %q", name)
}

func normalize(name string) string {
	r := strings.NewReplacer("_", "", "-", "", " ", "")
	return strings.ToLower(r.Replace(strings.TrimSpace(name)))
}

// MarshalText implements encoding.TextMarshaler.
func (s Socket) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, errors.New(errors.ErrCodeUnsupportedSocket, "unknown socket value %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Socket) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Fraction returns the fractional position of s on a box. Auto reports the
// center fraction.
func (s Socket) Fraction() (fx, fy float64) {
	if s == Auto || !s.Valid() {
		s = Center
	}
	f := fractions[s]
	return f[0], f[1]
}

// Normal returns the outward unit direction of s, with y growing downward.
// Center and Auto have no outward direction and return the zero vector.
func (s Socket) Normal() geom.Vec {
	if s == Auto || s == Center || !s.Valid() {
		return geom.Vec{}
	}
	fx, fy := s.Fraction()
	return geom.Vec{X: fx*2 - 1, Y: fy*2 - 1}.Unit()
}

// Opposite returns the socket on the other side of the box.
func (s Socket) Opposite() Socket {
	switch s {
	case Top:
		return Bottom
	case Bottom:
		return Top
	case Left:
		return Right
	case Right:
		return Left
	case TopLeft:
		return BottomRight
	case BottomRight:
		return TopLeft
	case TopRight:
		return BottomLeft
	case BottomLeft:
		return TopRight
	}
	return s
}

// IsCorner reports whether s is one of the four corner sockets.
func (s Socket) IsCorner() bool {
	return s == TopLeft || s == TopRight || s == BottomLeft || s == BottomRight
}

// Resolve returns the attachment point and concrete side for requested on
// box. For Auto, the side facing opposing is chosen; a nil opposing point
// resolves to Center. The returned socket is never Auto.
//
// Resolve is pure and only fails for values outside the Socket enum.
func Resolve(box geom.Box, requested Socket, opposing *geom.Point) (geom.Point, Socket, error) {
	if !requested.Valid() {
		return geom.Point{}, Center, errors.New(errors.ErrCodeUnsupportedSocket, "unknown socket value %d", int(requested))
	}
	side := requested
	if side == Auto {
		side = Center
		if opposing != nil {
			side = Toward(box, *opposing)
		}
	}
	fx, fy := side.Fraction()
	return box.At(fx, fy), side, nil
}

// Toward classifies the direction from the center of box to target into one
// of the eight directional sockets. The direction is first normalized by the
// half-width and half-height of the box so that a target on the box diagonal
// maps to a corner regardless of aspect ratio. A target at the center yields
// Center.
func Toward(box geom.Box, target geom.Point) Socket {
	d := target.Sub(box.Center())
	if box.W > geom.Epsilon && box.H > geom.Epsilon {
		d = geom.Vec{X: d.X / (box.W / 2), Y: d.Y / (box.H / 2)}
	}
	if d.IsZero() {
		return Center
	}

	phi := math.Atan2(math.Abs(d.Y), math.Abs(d.X)) * 180 / math.Pi
	right, down := d.X >= 0, d.Y >= 0

	switch {
	case phi < cornerMin:
		if right {
			return Right
		}
		return Left
	case phi > cornerMax:
		if down {
			return Bottom
		}
		return Top
	case down && right:
		return BottomRight
	case down:
		return BottomLeft
	case right:
		return TopRight
	default:
		return TopLeft
	}
}
