package plug

import (
	"strings"

	"github.com/matzehuels/leaderline/pkg/errors"
	"github.com/matzehuels/leaderline/pkg/geom"
	"github.com/matzehuels/leaderline/pkg/path"
)

// Kind is a marker drawn at a line end.
type Kind int

const (
	None Kind = iota
	Behind
	Disc
	Square
	Arrow1
	Arrow2
	Arrow3
	Hand
	Crosshair
)

var kindNames = [...]string{
	None:      "none",
	Behind:    "behind",
	Disc:      "disc",
	Square:    "square",
	Arrow1:    "arrow1",
	Arrow2:    "arrow2",
	Arrow3:    "arrow3",
	Hand:      "hand",
	Crosshair: "crosshair",
}

func (k Kind) Valid() bool { return k >= None && k <= Crosshair }

func (k Kind) String() string {
	if !k.Valid() {
		return "unknown"
	}
	return kindNames[k]
}

// ParseKind converts a plug name. "arrow" is accepted for arrow1 and the
// empty string selects None.
func ParseKind(name string) (Kind, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	switch key {
	case "":
		return None, nil
	case "arrow":
		return Arrow1, nil
	}
	for i, n := range kindNames {
		if n == key {
			return Kind(i), nil
		}
	}
	return None, errors.New(errors.ErrCodeUnsupportedPlug, "unknown plug %q", name)
}

func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, errors.New(errors.ErrCodeUnsupportedPlug, "unknown plug %d", int(k))
	}
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Visible reports whether k draws a marker.
func (k Kind) Visible() bool { return k != None && k != Behind }

// Shape is a marker outline in stroke-width units. The tip is at the
// origin and the marker extends toward -x. Length is the marker's visual
// length along the line, which is also how far the stroke is pulled back
// from the tip.
type Shape struct {
	Path   string
	Length float64
	Width  float64
	// Stroked shapes are drawn with a stroke instead of a fill.
	Stroked bool
	// Points is the closed polygon of Path for polygonal shapes, for
	// rasterizers that do not parse path data. It is nil for Disc and
	// Crosshair.
	Points []geom.Point
}

var shapes = map[Kind]Shape{
	Disc: {
		Path:   "M0,0 A1.5,1.5 0 1,1 -3,0 A1.5,1.5 0 1,1 0,0 Z",
		Length: 3, Width: 3,
	},
	Square: {
		Path:   "M0,-1.5 L-3,-1.5 L-3,1.5 L0,1.5 Z",
		Points: poly(0, -1.5, -3, -1.5, -3, 1.5, 0, 1.5),
		Length: 3, Width: 3,
	},
	Arrow1: {
		Path:   "M0,0 L-4,-2 L-4,2 Z",
		Points: poly(0, 0, -4, -2, -4, 2),
		Length: 4, Width: 4,
	},
	Arrow2: {
		Path:   "M0,0 L-5,-2.5 L-3.5,0 L-5,2.5 Z",
		Points: poly(0, 0, -5, -2.5, -3.5, 0, -5, 2.5),
		Length: 5, Width: 5,
	},
	Arrow3: {
		Path:   "M0,0 L-6,-1.5 L-6,1.5 Z",
		Points: poly(0, 0, -6, -1.5, -6, 1.5),
		Length: 6, Width: 3,
	},
	Hand: {
		Path:   "M0,-0.6 L-3,-0.6 L-3,-1.6 L-5.5,-1.6 L-5.5,1.6 L-3,1.6 L-3,0.6 L0,0.6 Z",
		Points: poly(0, -0.6, -3, -0.6, -3, -1.6, -5.5, -1.6, -5.5, 1.6, -3, 1.6, -3, 0.6, 0, 0.6),
		Length: 5.5, Width: 3.2,
	},
	Crosshair: {
		Path:   "M-3,0 L3,0 M0,-3 L0,3 M2,0 A2,2 0 1,1 -2,0 A2,2 0 1,1 2,0",
		Length: 3, Width: 6, Stroked: true,
	},
}

func poly(xy ...float64) []geom.Point {
	pts := make([]geom.Point, len(xy)/2)
	for i := range pts {
		pts[i] = geom.Pt(xy[2*i], xy[2*i+1])
	}
	return pts
}

// ShapeOf returns the marker shape of k. Kinds without a marker return the
// zero Shape.
func ShapeOf(k Kind) Shape { return shapes[k] }

// Spec configures one line end.
type Spec struct {
	Kind Kind `json:"kind" toml:"kind" yaml:"kind" msgpack:"kind"`
	// Size scales the marker relative to the stroke width. Zero means 1.
	Size float64 `json:"size,omitempty" toml:"size" yaml:"size" msgpack:"size,omitempty"`
	// Color overrides the line color; "auto" picks a contrasting color.
	Color string `json:"color,omitempty" toml:"color" yaml:"color" msgpack:"color,omitempty"`
}

func (s Spec) scale() float64 {
	if s.Size <= 0 {
		return 1
	}
	return s.Size
}

// End selects which end of a path a plug sits on.
type End int

const (
	AtStart End = iota
	AtEnd
)

func (e End) String() string {
	if e == AtStart {
		return "start"
	}
	return "end"
}

// Transform places a marker: translate to Position, rotate by Angle
// degrees, scale by Scale, then draw the kind's Shape.
type Transform struct {
	End      End        `json:"end" msgpack:"end"`
	Kind     Kind       `json:"kind" msgpack:"kind"`
	Position geom.Point `json:"position" msgpack:"position"`
	Angle    float64    `json:"angle" msgpack:"angle"`
	Scale    float64    `json:"scale" msgpack:"scale"`
	PullBack float64    `json:"pull_back" msgpack:"pull_back"`
	Color    string     `json:"color,omitempty" msgpack:"color,omitempty"`
}

// Place computes the marker transform for one end of p. The rotation
// follows the tangent of the first or last flattened piece, pointing away
// from the line body. The pull-back equals the marker's visual length,
// limited to the path length.
func Place(p *path.Serialized, end End, spec Spec, strokeWidth float64) Transform {
	t := Transform{End: end, Kind: spec.Kind, Scale: spec.scale() * strokeWidth}

	var dir geom.Vec
	if end == AtStart {
		t.Position = p.Start()
		dir = p.StartTangent().Neg()
	} else {
		t.Position = p.End()
		dir = p.EndTangent()
	}
	if !dir.IsZero() {
		t.Angle = dir.Degrees()
	}
	if spec.Kind.Visible() {
		t.PullBack = min(ShapeOf(spec.Kind).Length*t.Scale, p.Length)
	}
	return t
}

// FitPullBacks scales the two pull-back lengths down proportionally when
// together they would consume more than 90% of length.
func FitPullBacks(head, tail, length float64) (float64, float64) {
	limit := 0.9 * length
	if head+tail <= limit || head+tail == 0 {
		return head, tail
	}
	k := limit / (head + tail)
	return head * k, tail * k
}
