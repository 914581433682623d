package render

import (
	"strings"

	"github.com/matzehuels/leaderline/pkg/errors"
	"github.com/matzehuels/leaderline/pkg/geom"
	"github.com/matzehuels/leaderline/pkg/leaderline"
)

// Element defaults.
const (
	DefaultElementFill   = "#f8f9fa"
	DefaultElementStroke = "#343a40"
	DefaultBackground    = "#ffffff"
)

// Format is an artifact kind.
type Format string

const (
	FormatSVG     Format = "svg"
	FormatPNG     Format = "png"
	FormatJSON    Format = "json"
	FormatMsgpack Format = "msgpack"
)

// Formats lists every supported artifact kind.
var Formats = []Format{FormatSVG, FormatPNG, FormatJSON, FormatMsgpack}

// ParseFormat converts a format name. "mp" is accepted for msgpack.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatSVG, FormatPNG, FormatJSON, FormatMsgpack:
		return f, nil
	case "mp":
		return FormatMsgpack, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unknown output format %q (want svg, png, json or msgpack)", name)
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	switch f {
	case FormatSVG:
		return "image/svg+xml"
	case FormatPNG:
		return "image/png"
	case FormatJSON:
		return "application/json"
	case FormatMsgpack:
		return "application/msgpack"
	}
	return "application/octet-stream"
}

// Ext returns the file extension of f, with the leading dot.
func (f Format) Ext() string {
	if f == FormatMsgpack {
		return ".mp"
	}
	return "." + string(f)
}

// Element is a box drawn beneath the lines.
type Element struct {
	ID     string   `json:"id" msgpack:"id"`
	Box    geom.Box `json:"box" msgpack:"box"`
	Text   string   `json:"text,omitempty" msgpack:"text,omitempty"`
	Fill   string   `json:"fill,omitempty" msgpack:"fill,omitempty"`
	Stroke string   `json:"stroke,omitempty" msgpack:"stroke,omitempty"`
}

// FillColor returns the fill, or DefaultElementFill when unset.
func (e Element) FillColor() string { return or(e.Fill, DefaultElementFill) }

// StrokeColor returns the border color, or DefaultElementStroke when unset.
func (e Element) StrokeColor() string { return or(e.Stroke, DefaultElementStroke) }

// Line is a computed line. A nil Geometry means the line has not been
// measured and is skipped by every sink.
type Line struct {
	ID       string               `json:"id" msgpack:"id"`
	Geometry *leaderline.Geometry `json:"geometry" msgpack:"geometry"`
}

// Drawable reports whether l contributes anything to an image.
func (l Line) Drawable() bool {
	return l.Geometry != nil && l.Geometry.Visible && !l.Geometry.Empty
}

// Frame is one renderable canvas.
type Frame struct {
	Width      float64   `json:"width" msgpack:"width"`
	Height     float64   `json:"height" msgpack:"height"`
	Background string    `json:"background,omitempty" msgpack:"background,omitempty"`
	Elements   []Element `json:"elements" msgpack:"elements"`
	Lines      []Line    `json:"lines" msgpack:"lines"`
}

// BackgroundColor returns the canvas color, or DefaultBackground when unset.
func (f Frame) BackgroundColor() string { return or(f.Background, DefaultBackground) }

// Bounds covers the canvas, every element and every drawable line.
func (f Frame) Bounds() geom.Box {
	b := geom.NewBox(0, 0, f.Width, f.Height)
	for _, e := range f.Elements {
		b = b.Union(e.Box)
	}
	for _, l := range f.Lines {
		if l.Drawable() {
			b = b.Union(l.Geometry.Bounds)
		}
	}
	return b
}

func or(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
