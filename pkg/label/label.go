package label

import (
	"unicode/utf8"

	"github.com/matzehuels/leaderline/pkg/errors"
	"github.com/matzehuels/leaderline/pkg/geom"
	"github.com/matzehuels/leaderline/pkg/path"
)

// Slot identifies one of the five label positions on a line.
type Slot int

const (
	Start Slot = iota
	Middle
	End
	Caption
	Path
)

// Slots lists every slot in render order.
var Slots = []Slot{Start, Middle, End, Caption, Path}

func (s Slot) String() string {
	switch s {
	case Start:
		return "start"
	case Middle:
		return "middle"
	case End:
		return "end"
	case Caption:
		return "caption"
	case Path:
		return "path"
	}
	return "unknown"
}

func (s Slot) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Slot) UnmarshalText(b []byte) error {
	for _, slot := range Slots {
		if slot.String() == string(b) {
			*s = slot
			return nil
		}
	}
	return errors.New(errors.ErrCodeInvalidInput, "unknown label slot %q", b)
}

// Anchor fractions along the path and the normal offset of the caption and
// path labels.
const (
	StartFraction  = 0.10
	MiddleFraction = 0.50
	EndFraction    = 0.90
	NormalOffset   = 20.0
)

// Approximate glyph advance as a fraction of the font size.
const charWidth = 0.55

// Style is a fully resolved label style.
type Style struct {
	FontSize     float64 `json:"font_size" msgpack:"font_size"`
	FontFamily   string  `json:"font_family" msgpack:"font_family"`
	Color        string  `json:"color" msgpack:"color"`
	Background   string  `json:"background" msgpack:"background"`
	Padding      float64 `json:"padding" msgpack:"padding"`
	CornerRadius float64 `json:"corner_radius,omitempty" msgpack:"corner_radius,omitempty"`
}

// DefaultStyle returns the style applied to plain string labels.
func DefaultStyle() Style {
	return Style{
		FontSize:   14,
		FontFamily: "sans-serif",
		Color:      "#000000",
		Background: "transparent",
		Padding:    4,
	}
}

// Label is a label request. Zero-valued style fields inherit the default
// style; Padding is a pointer because zero padding is a valid override.
type Label struct {
	Text         string   `json:"text" toml:"text" yaml:"text" msgpack:"text"`
	FontSize     float64  `json:"font_size,omitempty" toml:"font_size" yaml:"font_size" msgpack:"font_size,omitempty"`
	FontFamily   string   `json:"font_family,omitempty" toml:"font_family" yaml:"font_family" msgpack:"font_family,omitempty"`
	Color        string   `json:"color,omitempty" toml:"color" yaml:"color" msgpack:"color,omitempty"`
	Background   string   `json:"background,omitempty" toml:"background" yaml:"background" msgpack:"background,omitempty"`
	Padding      *float64 `json:"padding,omitempty" toml:"padding" yaml:"padding" msgpack:"padding,omitempty"`
	CornerRadius float64  `json:"corner_radius,omitempty" toml:"corner_radius" yaml:"corner_radius" msgpack:"corner_radius,omitempty"`
	Offset       geom.Vec `json:"offset" toml:"offset" yaml:"offset" msgpack:"offset"`
}

// Text returns a plain label with the default style.
func Text(s string) *Label { return &Label{Text: s} }

// Style merges l over the default style, field by field.
func (l *Label) Style() Style {
	s := DefaultStyle()
	if l.FontSize > 0 {
		s.FontSize = l.FontSize
	}
	if l.FontFamily != "" {
		s.FontFamily = l.FontFamily
	}
	if l.Color != "" {
		s.Color = l.Color
	}
	if l.Background != "" {
		s.Background = l.Background
	}
	if l.Padding != nil {
		s.Padding = max(*l.Padding, 0)
	}
	if l.CornerRadius > 0 {
		s.CornerRadius = l.CornerRadius
	}
	return s
}

// Set holds the optional label for each slot.
type Set struct {
	Start   *Label `json:"start,omitempty"`
	Middle  *Label `json:"middle,omitempty"`
	End     *Label `json:"end,omitempty"`
	Caption *Label `json:"caption,omitempty"`
	Path    *Label `json:"path,omitempty"`
}

// Get returns the label in slot, or nil.
func (s Set) Get(slot Slot) *Label {
	switch slot {
	case Start:
		return s.Start
	case Middle:
		return s.Middle
	case End:
		return s.End
	case Caption:
		return s.Caption
	case Path:
		return s.Path
	}
	return nil
}

// Empty reports whether no slot is populated.
func (s Set) Empty() bool {
	for _, slot := range Slots {
		if l := s.Get(slot); l != nil && l.Text != "" {
			return false
		}
	}
	return true
}

// Placement is a positioned label ready for drawing. Position is the label
// center; Box is its approximate extent including padding.
type Placement struct {
	Slot     Slot       `json:"slot" msgpack:"slot"`
	Text     string     `json:"text" msgpack:"text"`
	Style    Style      `json:"style" msgpack:"style"`
	Position geom.Point `json:"position" msgpack:"position"`
	Box      geom.Box   `json:"box" msgpack:"box"`
}

// Layout positions every populated slot of set along p, in render order.
// Slots that are nil or have empty text produce no placement.
func Layout(p *path.Serialized, set Set) []Placement {
	mid := p.PointAt(MiddleFraction)
	normal := p.TangentAt(MiddleFraction).Perp()

	var out []Placement
	for _, slot := range Slots {
		l := set.Get(slot)
		if l == nil || l.Text == "" {
			continue
		}

		var pos geom.Point
		switch slot {
		case Start:
			pos = p.PointAt(StartFraction)
		case Middle:
			pos = mid
		case End:
			pos = p.PointAt(EndFraction)
		case Caption:
			pos = mid.Add(normal.Scale(-NormalOffset))
		case Path:
			pos = mid.Add(normal.Scale(NormalOffset))
		}
		pos = pos.Add(l.Offset)

		style := l.Style()
		out = append(out, Placement{
			Slot:     slot,
			Text:     l.Text,
			Style:    style,
			Position: pos,
			Box:      box(pos, l.Text, style),
		})
	}
	return out
}

// Size returns the approximate width and height of text in style. Glyph
// widths are estimated, not measured.
func Size(text string, style Style) (w, h float64) {
	n := float64(utf8.RuneCountInString(text))
	return n*style.FontSize*charWidth + 2*style.Padding, style.FontSize + 2*style.Padding
}

func box(center geom.Point, text string, style Style) geom.Box {
	w, h := Size(text, style)
	return geom.Box{X: center.X - w/2, Y: center.Y - h/2, W: w, H: h}
}
