package plug

import "github.com/matzehuels/leaderline/pkg/color"

// Outline defaults.
const (
	DefaultOutlineWidth   = 1.0
	DefaultOutlineOpacity = 0.5
)

// OutlineOptions is the canonical outline configuration. Width is added on
// each side of the primary stroke.
type OutlineOptions struct {
	Enabled bool    `json:"enabled" toml:"enabled" yaml:"enabled" msgpack:"enabled"`
	Color   string  `json:"color,omitempty" toml:"color" yaml:"color" msgpack:"color,omitempty"`
	Width   float64 `json:"width,omitempty" toml:"width" yaml:"width" msgpack:"width,omitempty"`
	Opacity float64 `json:"opacity,omitempty" toml:"opacity" yaml:"opacity" msgpack:"opacity,omitempty"`
}

// OutlineStroke is the stroke drawn beneath the primary path using the
// same path data.
type OutlineStroke struct {
	Width   float64 `json:"width" msgpack:"width"`
	Color   string  `json:"color" msgpack:"color"`
	Opacity float64 `json:"opacity" msgpack:"opacity"`
}

// Outline derives the outline stroke for a primary stroke of width
// primaryWidth, color primaryColor and opacity primaryOpacity. An empty or
// "auto" color resolves to the color contrasting with primaryColor. The
// second return value is false when the outline is disabled.
func Outline(primaryWidth float64, primaryColor string, primaryOpacity float64, o OutlineOptions) (OutlineStroke, bool, error) {
	if !o.Enabled {
		return OutlineStroke{}, false, nil
	}
	w := o.Width
	if w <= 0 {
		w = DefaultOutlineWidth
	}
	op := o.Opacity
	if op <= 0 {
		op = DefaultOutlineOpacity
	}
	c := o.Color
	if c == "" {
		c = color.Auto
	}
	resolved, err := color.Resolve(c, primaryColor)
	if err != nil {
		return OutlineStroke{}, false, err
	}
	return OutlineStroke{
		Width:   primaryWidth + 2*w,
		Color:   resolved,
		Opacity: min(op, 1) * primaryOpacity,
	}, true, nil
}

// Color returns the fill color of a plug. An unset color inherits the line
// color; "auto" resolves against it.
func Color(spec Spec, lineColor string) (string, error) {
	if spec.Color == "" {
		return lineColor, nil
	}
	return color.Resolve(spec.Color, lineColor)
}
