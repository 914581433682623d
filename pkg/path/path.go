package path

import (
	"strings"

	"github.com/matzehuels/leaderline/pkg/errors"
	"github.com/matzehuels/leaderline/pkg/geom"
)

// Type selects the curve family used between two attachment points. The
// zero value is Fluid.
type Type int

const (
	Fluid Type = iota
	Straight
	Arc
	Magnet
	Grid
)

var typeNames = [...]string{
	Straight: "straight",
	Arc:      "arc",
	Fluid:    "fluid",
	Magnet:   "magnet",
	Grid:     "grid",
}

// Default curvature per type. Straight and grid paths ignore curvature.
var defaultCurvature = [...]float64{
	Straight: 0,
	Arc:      0.2,
	Fluid:    0.4,
	Magnet:   0.5,
	Grid:     0,
}

// Types lists every supported path type.
var Types = []Type{Straight, Arc, Fluid, Magnet, Grid}

func (t Type) Valid() bool { return t >= 0 && int(t) < len(typeNames) }

func (t Type) String() string {
	if !t.Valid() {
		return "unknown"
	}
	return typeNames[t]
}

// DefaultCurvature returns the curvature used when a Config leaves it unset.
func (t Type) DefaultCurvature() float64 {
	if !t.Valid() {
		return 0
	}
	return defaultCurvature[t]
}

// ParseType converts a path type name. The empty string selects Fluid.
func ParseType(name string) (Type, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return Fluid, nil
	}
	for i, n := range typeNames {
		if n == key {
			return Type(i), nil
		}
	}
	return Fluid, errors.New(errors.ErrCodeUnsupportedPathType, "unknown path type %q", name)
}

func (t Type) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, errors.New(errors.ErrCodeUnsupportedPathType, "unknown path type %d", int(t))
	}
	return []byte(t.String()), nil
}

func (t *Type) UnmarshalText(b []byte) error {
	v, err := ParseType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Config is the immutable per-pass path configuration.
type Config struct {
	Type Type
	// Curvature overrides the type's default when non-nil. Values are
	// clamped to [0, 1].
	Curvature *float64
	// Reach overrides MagnetReach for magnet paths when non-nil.
	Reach *float64
}

// Curvature returns c as an override value for Config.Curvature.
func Curvature(c float64) *float64 { return &c }

// EffectiveCurvature returns the clamped curvature to use for c.
func (c Config) EffectiveCurvature() float64 {
	if c.Curvature == nil {
		return c.Type.DefaultCurvature()
	}
	return geom.Clamp(*c.Curvature, 0, 1)
}

// Reach returns r as an override value for Config.Reach.
func Reach(r float64) *float64 { return &r }

// EffectiveReach returns the clamped magnet reach to use for c.
func (c Config) EffectiveReach() float64 {
	if c.Reach == nil {
		return MagnetReach
	}
	return geom.Clamp(*c.Reach, magnetMinReach, magnetMaxReach)
}

// Op is a path segment command.
type Op int

const (
	MoveTo Op = iota
	LineTo
	CubicTo
)

func (o Op) String() string {
	switch o {
	case MoveTo:
		return "M"
	case LineTo:
		return "L"
	case CubicTo:
		return "C"
	}
	return "?"
}

// Segment is one path command. C1 and C2 are only meaningful for CubicTo.
// Every segment starts where the previous one ended.
type Segment struct {
	Op     Op
	C1, C2 geom.Point
	To     geom.Point
}

// Descriptor is an ordered list of segments starting with a single MoveTo,
// plus the cached arc length. A Descriptor is never modified after
// construction; changes produce a new one.
type Descriptor struct {
	Segments []Segment
	Length   float64
}

// Start returns the first point of d.
func (d Descriptor) Start() geom.Point {
	if len(d.Segments) == 0 {
		return geom.Point{}
	}
	return d.Segments[0].To
}

// End returns the last point of d.
func (d Descriptor) End() geom.Point {
	if len(d.Segments) == 0 {
		return geom.Point{}
	}
	return d.Segments[len(d.Segments)-1].To
}

// IsEmpty reports whether d has nothing to draw.
func (d Descriptor) IsEmpty() bool { return len(d.Segments) < 2 || d.Length == 0 }

// Bends returns the number of interior vertices of d.
func (d Descriptor) Bends() int {
	if len(d.Segments) < 2 {
		return 0
	}
	return len(d.Segments) - 2
}

func newDescriptor(segs []Segment) Descriptor {
	return Descriptor{Segments: segs, Length: polylineLength(flatten(segs))}
}
