package leaderline

import (
	"github.com/matzehuels/leaderline/pkg/attach"
	"github.com/matzehuels/leaderline/pkg/color"
	"github.com/matzehuels/leaderline/pkg/errors"
	"github.com/matzehuels/leaderline/pkg/geom"
	"github.com/matzehuels/leaderline/pkg/label"
	"github.com/matzehuels/leaderline/pkg/path"
	"github.com/matzehuels/leaderline/pkg/plug"
	"github.com/matzehuels/leaderline/pkg/socket"
)

// Style defaults.
const (
	DefaultColor   = "coral"
	DefaultSize    = 4.0
	DefaultOpacity = 1.0
)

// Attachment is one end of a line: either a measurable element or a fixed
// point. Exactly one of Element and Point must be set.
type Attachment struct {
	Element attach.Element `json:"element,omitempty"`
	Point   *geom.Point    `json:"point,omitempty"`
	Socket  socket.Socket  `json:"socket"`
}

// ElementAt returns an element attachment using socket s.
func ElementAt(el attach.Element, s socket.Socket) Attachment {
	return Attachment{Element: el, Socket: s}
}

// PointAt returns a fixed-point attachment.
func PointAt(x, y float64) Attachment {
	p := geom.Pt(x, y)
	return Attachment{Point: &p, Socket: socket.Auto}
}

// Validate fails with INVALID_ATTACHMENT unless exactly one variant is set.
func (a Attachment) Validate() error {
	switch {
	case a.Element == "" && a.Point == nil:
		return errors.New(errors.ErrCodeInvalidAttachment, "attachment needs an element or a point")
	case a.Element != "" && a.Point != nil:
		return errors.New(errors.ErrCodeInvalidAttachment, "attachment %q cannot have both an element and a point", a.Element)
	case !a.Socket.Valid():
		return errors.New(errors.ErrCodeUnsupportedSocket, "unknown socket value %d", int(a.Socket))
	}
	if a.Point != nil {
		return errors.ValidateFinite("attachment point", a.Point.X, a.Point.Y)
	}
	return nil
}

// Dash configures a dashed stroke.
type Dash struct {
	Enabled bool    `json:"enabled" toml:"enabled" yaml:"enabled" msgpack:"enabled"`
	Len     float64 `json:"len,omitempty" toml:"len" yaml:"len" msgpack:"len,omitempty"`
	Gap     float64 `json:"gap,omitempty" toml:"gap" yaml:"gap" msgpack:"gap,omitempty"`
	Animate bool    `json:"animate,omitempty" toml:"animate" yaml:"animate" msgpack:"animate,omitempty"`
}

// Shadow configures a drop shadow under the line.
type Shadow struct {
	Enabled bool    `json:"enabled" toml:"enabled" yaml:"enabled" msgpack:"enabled"`
	Dx      float64 `json:"dx" toml:"dx" yaml:"dx" msgpack:"dx"`
	Dy      float64 `json:"dy" toml:"dy" yaml:"dy" msgpack:"dy"`
	Blur    float64 `json:"blur" toml:"blur" yaml:"blur" msgpack:"blur"`
	Color   string  `json:"color,omitempty" toml:"color" yaml:"color" msgpack:"color,omitempty"`
	Opacity float64 `json:"opacity,omitempty" toml:"opacity" yaml:"opacity" msgpack:"opacity,omitempty"`
}

// Options is the full configuration of a line. Zero fields take the
// defaults applied by Normalize.
type Options struct {
	Path      path.Type `json:"path"`
	Curvature *float64  `json:"curvature,omitempty"`

	Color   string  `json:"color,omitempty"`
	Size    float64 `json:"size,omitempty"`
	Opacity float64 `json:"opacity,omitempty"`

	StartPlug plug.Spec           `json:"start_plug"`
	EndPlug   plug.Spec           `json:"end_plug"`
	Outline   plug.OutlineOptions `json:"outline"`
	Dash      Dash                `json:"dash"`
	Shadow    Shadow              `json:"shadow"`
	Labels    label.Set           `json:"labels"`
}

// DefaultOptions returns a fluid coral line with an arrow at the end.
func DefaultOptions() Options {
	return Options{
		Path:      path.Fluid,
		Color:     DefaultColor,
		Size:      DefaultSize,
		Opacity:   DefaultOpacity,
		StartPlug: plug.Spec{Kind: plug.Behind},
		EndPlug:   plug.Spec{Kind: plug.Arrow1},
	}
}

// Normalize fills defaults and validates o, returning the canonical
// options. Unknown enum values and malformed colors fail fast.
func (o Options) Normalize() (Options, error) {
	if !o.Path.Valid() {
		return o, errors.New(errors.ErrCodeUnsupportedPathType, "unknown path type %d", int(o.Path))
	}
	if !o.StartPlug.Kind.Valid() || !o.EndPlug.Kind.Valid() {
		return o, errors.New(errors.ErrCodeUnsupportedPlug, "unknown plug kind")
	}
	if o.Curvature != nil {
		if err := errors.ValidateFinite("curvature", *o.Curvature); err != nil {
			return o, err
		}
		c := geom.Clamp(*o.Curvature, 0, 1)
		o.Curvature = &c
	}
	if err := errors.ValidateNonNegative("size", o.Size, o.Opacity, o.StartPlug.Size, o.EndPlug.Size); err != nil {
		return o, err
	}

	if o.Color == "" {
		o.Color = DefaultColor
	}
	if o.Size == 0 {
		o.Size = DefaultSize
	}
	if o.Opacity == 0 {
		o.Opacity = DefaultOpacity
	}
	o.Opacity = min(o.Opacity, 1)

	if o.Dash.Enabled {
		if o.Dash.Len <= 0 {
			o.Dash.Len = 2 * o.Size
		}
		if o.Dash.Gap <= 0 {
			o.Dash.Gap = o.Size
		}
	}
	if o.Shadow.Enabled {
		if o.Shadow.Color == "" {
			o.Shadow.Color = "#000000"
		}
		if o.Shadow.Opacity <= 0 {
			o.Shadow.Opacity = 0.8
		}
		if o.Shadow.Blur <= 0 {
			o.Shadow.Blur = 3
		}
	}

	if _, _, err := color.Parse(o.Color); err != nil {
		return o, err
	}
	// Plug and outline colors may also be "auto", resolved against o.Color.
	for _, c := range []string{o.Shadow.Color, o.StartPlug.Color, o.EndPlug.Color, o.Outline.Color} {
		if c == "" {
			continue
		}
		if _, err := color.Resolve(c, o.Color); err != nil {
			return o, err
		}
	}
	return o, nil
}

func (o Options) pathConfig() path.Config {
	return path.Config{Type: o.Path, Curvature: o.Curvature}
}
