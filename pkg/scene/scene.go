// Package scene loads scene files: a canvas, a set of element boxes and the
// leader lines connecting them.
//
// Scenes are written in TOML, YAML or JSON. The three formats share one
// schema; fields with both a shorthand and a table form (endpoints,
// labels, plugs, outline, dash, shadow) are normalized at decode time:
//
//	width = 480
//	height = 240
//
//	[[element]]
//	id = "api"
//	x = 20
//	y = 80
//	w = 120
//	h = 60
//
//	[[element]]
//	id = "db"
//	x = 340
//	y = 80
//	w = 120
//	h = 60
//
//	[[line]]
//	from = "api:right"
//	to = "db"
//	path = "grid"
//	middle_label = "query"
//	outline = { color = "#ffffff", width = 2 }
//
// A scene is an input only; it is never written back.
package scene

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/leaderline/pkg/attach"
	"github.com/matzehuels/leaderline/pkg/cache"
	"github.com/matzehuels/leaderline/pkg/errors"
	"github.com/matzehuels/leaderline/pkg/geom"
	"github.com/matzehuels/leaderline/pkg/label"
	"github.com/matzehuels/leaderline/pkg/leaderline"
	"github.com/matzehuels/leaderline/pkg/path"
)

// Canvas defaults.
const (
	DefaultWidth  = 800.0
	DefaultHeight = 600.0
)

// Format is a scene file encoding.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFromPath picks the format from a file extension.
func FormatFromPath(p string) (Format, error) {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "cannot infer scene format from %q (want .toml, .yaml or .json)", p)
}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTOML, FormatYAML, FormatJSON:
		return f, nil
	case "yml":
		return FormatYAML, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unknown scene format %q", s)
}

// Scene is a decoded scene file.
type Scene struct {
	Width      float64   `toml:"width" yaml:"width" json:"width"`
	Height     float64   `toml:"height" yaml:"height" json:"height"`
	Background string    `toml:"background" yaml:"background" json:"background,omitempty"`
	Elements   []Element `toml:"element" yaml:"elements" json:"elements"`
	Lines      []Line    `toml:"line" yaml:"lines" json:"lines"`
}

// Element is a named box lines can attach to.
type Element struct {
	ID     string  `toml:"id" yaml:"id" json:"id"`
	X      float64 `toml:"x" yaml:"x" json:"x"`
	Y      float64 `toml:"y" yaml:"y" json:"y"`
	W      float64 `toml:"w" yaml:"w" json:"w"`
	H      float64 `toml:"h" yaml:"h" json:"h"`
	Text   string  `toml:"text" yaml:"text" json:"text,omitempty"`
	Fill   string  `toml:"fill" yaml:"fill" json:"fill,omitempty"`
	Stroke string  `toml:"stroke" yaml:"stroke" json:"stroke,omitempty"`
}

// Box returns the element's bounding box.
func (e Element) Box() geom.Box { return geom.NewBox(e.X, e.Y, e.W, e.H) }

// Line is a line definition. Zero fields take the defaults of
// leaderline.DefaultOptions.
type Line struct {
	ID        string   `toml:"id" yaml:"id" json:"id,omitempty"`
	From      Endpoint `toml:"from" yaml:"from" json:"from"`
	To        Endpoint `toml:"to" yaml:"to" json:"to"`
	Path      string   `toml:"path" yaml:"path" json:"path,omitempty"`
	Curvature *float64 `toml:"curvature" yaml:"curvature" json:"curvature,omitempty"`
	Color     string   `toml:"color" yaml:"color" json:"color,omitempty"`
	Size      float64  `toml:"size" yaml:"size" json:"size,omitempty"`
	Opacity   float64  `toml:"opacity" yaml:"opacity" json:"opacity,omitempty"`
	Hidden    bool     `toml:"hidden" yaml:"hidden" json:"hidden,omitempty"`

	StartPlug Plug    `toml:"start_plug" yaml:"start_plug" json:"start_plug"`
	EndPlug   Plug    `toml:"end_plug" yaml:"end_plug" json:"end_plug"`
	Outline   Outline `toml:"outline" yaml:"outline" json:"outline"`
	Dash      Dash    `toml:"dash" yaml:"dash" json:"dash"`
	Shadow    Shadow  `toml:"shadow" yaml:"shadow" json:"shadow"`

	StartLabel  Label `toml:"start_label" yaml:"start_label" json:"start_label"`
	MiddleLabel Label `toml:"middle_label" yaml:"middle_label" json:"middle_label"`
	EndLabel    Label `toml:"end_label" yaml:"end_label" json:"end_label"`
	Caption     Label `toml:"caption" yaml:"caption" json:"caption"`
	PathLabel   Label `toml:"path_label" yaml:"path_label" json:"path_label"`
}

// Options converts the definition into normalized line options.
func (l Line) Options() (leaderline.Options, error) {
	o := leaderline.DefaultOptions()
	if l.Path != "" {
		t, err := path.ParseType(l.Path)
		if err != nil {
			return o, err
		}
		o.Path = t
	}
	o.Curvature = l.Curvature
	if l.Color != "" {
		o.Color = l.Color
	}
	if l.Size != 0 {
		o.Size = l.Size
	}
	if l.Opacity != 0 {
		o.Opacity = l.Opacity
	}
	if l.StartPlug.IsSet() {
		o.StartPlug = l.StartPlug.Spec
	}
	if l.EndPlug.IsSet() {
		o.EndPlug = l.EndPlug.Spec
	}
	o.Outline = l.Outline.OutlineOptions
	o.Dash = leaderline.Dash{Enabled: l.Dash.Enabled, Len: l.Dash.Len, Gap: l.Dash.Gap, Animate: l.Dash.Animate}
	o.Shadow = leaderline.Shadow{
		Enabled: l.Shadow.Enabled,
		Dx:      l.Shadow.Dx,
		Dy:      l.Shadow.Dy,
		Blur:    l.Shadow.Blur,
		Color:   l.Shadow.Color,
		Opacity: l.Shadow.Opacity,
	}
	o.Labels = label.Set{
		Start:   l.StartLabel.ptr(),
		Middle:  l.MiddleLabel.ptr(),
		End:     l.EndLabel.ptr(),
		Caption: l.Caption.ptr(),
		Path:    l.PathLabel.ptr(),
	}
	return o.Normalize()
}

func (l Label) ptr() *label.Label {
	if l.Text == "" {
		return nil
	}
	v := l.Label
	return &v
}

// Attachments converts both endpoints.
func (l Line) Attachments() (start, end leaderline.Attachment) {
	return l.From.attachment(), l.To.attachment()
}

func (e Endpoint) attachment() leaderline.Attachment {
	if e.Point != nil {
		p := *e.Point
		return leaderline.Attachment{Point: &p, Socket: e.Socket}
	}
	return leaderline.ElementAt(attach.Element(e.Element), e.Socket)
}

// Load reads and validates a scene file, inferring the format from its
// extension.
func Load(p string) (*Scene, error) {
	format, err := FormatFromPath(p)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "open scene %s", p)
	}
	defer f.Close()
	return Decode(f, format)
}

// Parse decodes and validates scene data.
func Parse(data []byte, format Format) (*Scene, error) {
	return Decode(bytes.NewReader(data), format)
}

// Decode reads a scene in the given format and validates it. Unknown keys
// are rejected for YAML and JSON.
func Decode(r io.Reader, format Format) (*Scene, error) {
	var s Scene
	var err error
	switch format {
	case FormatTOML:
		_, err = toml.NewDecoder(r).Decode(&s)
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		err = dec.Decode(&s)
		if err == io.EOF {
			err = nil
		}
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		err = dec.Decode(&s)
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown scene format %q", format)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidScene, err, "decode %s scene", format)
	}
	if err := s.Normalize(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Normalize fills canvas defaults and line IDs, then validates the scene:
// element IDs must be valid and unique, boxes finite and non-negative, and
// every line must reference known elements and carry valid options.
func (s *Scene) Normalize() error {
	if s.Width <= 0 {
		s.Width = DefaultWidth
	}
	if s.Height <= 0 {
		s.Height = DefaultHeight
	}

	ids := make(map[string]bool, len(s.Elements))
	for i, e := range s.Elements {
		if err := errors.ValidateID("element", e.ID); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidScene, err, "element %d", i)
		}
		if ids[e.ID] {
			return errors.New(errors.ErrCodeInvalidScene, "duplicate element id %q", e.ID)
		}
		ids[e.ID] = true
		if err := errors.ValidateFinite("element box", e.X, e.Y); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidScene, err, "element %q", e.ID)
		}
		if err := errors.ValidateNonNegative("element size", e.W, e.H); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidScene, err, "element %q", e.ID)
		}
	}

	lineIDs := make(map[string]bool, len(s.Lines))
	for i := range s.Lines {
		l := &s.Lines[i]
		if l.ID == "" {
			l.ID = fmt.Sprintf("line-%d", i+1)
		}
		if lineIDs[l.ID] {
			return errors.New(errors.ErrCodeInvalidScene, "duplicate line id %q", l.ID)
		}
		lineIDs[l.ID] = true

		for _, ep := range []Endpoint{l.From, l.To} {
			if ep.Point == nil && !ids[ep.Element] {
				return errors.New(errors.ErrCodeInvalidScene, "line %q references unknown element %q", l.ID, ep.Element)
			}
		}
		start, end := l.Attachments()
		for _, a := range []leaderline.Attachment{start, end} {
			if err := a.Validate(); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidScene, err, "line %q", l.ID)
			}
		}
		if _, err := l.Options(); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidScene, err, "line %q", l.ID)
		}
	}
	return nil
}

// Element returns the element with the given ID.
func (s *Scene) Element(id string) (Element, bool) {
	for _, e := range s.Elements {
		if e.ID == id {
			return e, true
		}
	}
	return Element{}, false
}

// Hash returns a content hash of the normalized scene for cache keys.
func (s *Scene) Hash() string {
	data, _ := json.Marshal(s)
	return cache.Hash(data)
}
