package scene

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/leaderline/pkg/geom"
	"github.com/matzehuels/leaderline/pkg/label"
	"github.com/matzehuels/leaderline/pkg/plug"
	"github.com/matzehuels/leaderline/pkg/socket"
)

// Several scene fields accept either a scalar shorthand or a table. Each
// such type decodes from the generic value produced by the TOML, YAML or
// JSON decoder through one fromAny method, so the three formats share a
// single set of rules.

type anyDecoder interface{ fromAny(v any) error }

func decodeJSON(d anyDecoder, b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	return d.fromAny(v)
}

func decodeYAML(d anyDecoder, n *yaml.Node) error {
	var v any
	if err := n.Decode(&v); err != nil {
		return err
	}
	return d.fromAny(v)
}

// Endpoint is one end of a line: an element ID with an optional socket, or
// a fixed point. The string shorthand is "id" or "id:socket".
type Endpoint struct {
	Element string
	Point   *geom.Point
	Socket  socket.Socket
}

func (e *Endpoint) fromAny(v any) error {
	*e = Endpoint{}
	switch t := v.(type) {
	case string:
		id, sock, _ := strings.Cut(t, ":")
		e.Element = strings.TrimSpace(id)
		return e.setSocket(sock)
	case map[string]any:
		if err := checkKeys(t, "element", "socket", "x", "y"); err != nil {
			return err
		}
		e.Element, _ = t["element"].(string)
		x, hasX := number(t["x"])
		y, hasY := number(t["y"])
		if hasX || hasY {
			if !hasX || !hasY {
				return fmt.Errorf("point endpoint needs both x and y")
			}
			p := geom.Pt(x, y)
			e.Point = &p
		}
		s, _ := t["socket"].(string)
		return e.setSocket(s)
	}
	return fmt.Errorf("endpoint must be a string or a table, got %T", v)
}

func (e *Endpoint) setSocket(name string) error {
	s, err := socket.Parse(name)
	if err != nil {
		return err
	}
	e.Socket = s
	return nil
}

func (e *Endpoint) UnmarshalTOML(v any) error        { return e.fromAny(v) }
func (e *Endpoint) UnmarshalJSON(b []byte) error     { return decodeJSON(e, b) }
func (e *Endpoint) UnmarshalYAML(n *yaml.Node) error { return decodeYAML(e, n) }

// Label accepts a plain string or a table of label fields.
type Label struct{ label.Label }

func (l *Label) fromAny(v any) error {
	l.Label = label.Label{}
	switch t := v.(type) {
	case string:
		l.Text = t
		return nil
	case map[string]any:
		if err := checkKeys(t, "text", "font_size", "font_family", "color", "background",
			"padding", "corner_radius", "offset_x", "offset_y"); err != nil {
			return err
		}
		l.Text, _ = t["text"].(string)
		l.FontSize, _ = number(t["font_size"])
		l.FontFamily, _ = t["font_family"].(string)
		l.Color, _ = t["color"].(string)
		l.Background, _ = t["background"].(string)
		if p, ok := number(t["padding"]); ok {
			l.Padding = &p
		}
		l.CornerRadius, _ = number(t["corner_radius"])
		l.Offset.X, _ = number(t["offset_x"])
		l.Offset.Y, _ = number(t["offset_y"])
		if l.Text == "" {
			return fmt.Errorf("label table needs text")
		}
		return nil
	}
	return fmt.Errorf("label must be a string or a table, got %T", v)
}

func (l *Label) UnmarshalTOML(v any) error        { return l.fromAny(v) }
func (l *Label) UnmarshalJSON(b []byte) error     { return decodeJSON(l, b) }
func (l *Label) UnmarshalYAML(n *yaml.Node) error { return decodeYAML(l, n) }

// Plug accepts a kind name or a table {kind, size, color}.
type Plug struct {
	plug.Spec
	set bool
}

// IsSet reports whether the plug was present in the scene file.
func (p Plug) IsSet() bool { return p.set }

func (p *Plug) fromAny(v any) error {
	p.Spec, p.set = plug.Spec{}, true
	switch t := v.(type) {
	case string:
		k, err := plug.ParseKind(t)
		p.Kind = k
		return err
	case map[string]any:
		if err := checkKeys(t, "kind", "size", "color"); err != nil {
			return err
		}
		name, _ := t["kind"].(string)
		k, err := plug.ParseKind(name)
		if err != nil {
			return err
		}
		p.Kind = k
		p.Size, _ = number(t["size"])
		p.Color, _ = t["color"].(string)
		return nil
	}
	return fmt.Errorf("plug must be a string or a table, got %T", v)
}

func (p *Plug) UnmarshalTOML(v any) error        { return p.fromAny(v) }
func (p *Plug) UnmarshalJSON(b []byte) error     { return decodeJSON(p, b) }
func (p *Plug) UnmarshalYAML(n *yaml.Node) error { return decodeYAML(p, n) }

// Outline accepts true/false or a table {color, width, opacity}. A table
// enables the outline unless it sets enabled = false.
type Outline struct{ plug.OutlineOptions }

func (o *Outline) fromAny(v any) error {
	o.OutlineOptions = plug.OutlineOptions{}
	switch t := v.(type) {
	case bool:
		o.Enabled = t
		return nil
	case map[string]any:
		if err := checkKeys(t, "enabled", "color", "width", "opacity"); err != nil {
			return err
		}
		o.Enabled = true
		if e, ok := t["enabled"].(bool); ok {
			o.Enabled = e
		}
		o.Color, _ = t["color"].(string)
		o.Width, _ = number(t["width"])
		o.Opacity, _ = number(t["opacity"])
		return nil
	}
	return fmt.Errorf("outline must be a bool or a table, got %T", v)
}

func (o *Outline) UnmarshalTOML(v any) error        { return o.fromAny(v) }
func (o *Outline) UnmarshalJSON(b []byte) error     { return decodeJSON(o, b) }
func (o *Outline) UnmarshalYAML(n *yaml.Node) error { return decodeYAML(o, n) }

// Dash accepts true/false or a table {len, gap, animate}.
type Dash struct {
	Enabled bool
	Len     float64
	Gap     float64
	Animate bool
}

func (d *Dash) fromAny(v any) error {
	*d = Dash{}
	switch t := v.(type) {
	case bool:
		d.Enabled = t
		return nil
	case map[string]any:
		if err := checkKeys(t, "enabled", "len", "gap", "animate"); err != nil {
			return err
		}
		d.Enabled = true
		if e, ok := t["enabled"].(bool); ok {
			d.Enabled = e
		}
		d.Len, _ = number(t["len"])
		d.Gap, _ = number(t["gap"])
		d.Animate, _ = t["animate"].(bool)
		return nil
	}
	return fmt.Errorf("dash must be a bool or a table, got %T", v)
}

func (d *Dash) UnmarshalTOML(v any) error        { return d.fromAny(v) }
func (d *Dash) UnmarshalJSON(b []byte) error     { return decodeJSON(d, b) }
func (d *Dash) UnmarshalYAML(n *yaml.Node) error { return decodeYAML(d, n) }

// Shadow accepts true/false or a table {dx, dy, blur, color, opacity}.
type Shadow struct {
	Enabled bool
	Dx, Dy  float64
	Blur    float64
	Color   string
	Opacity float64
}

func (s *Shadow) fromAny(v any) error {
	*s = Shadow{}
	switch t := v.(type) {
	case bool:
		s.Enabled = t
		if t {
			s.Dx, s.Dy = 2, 4
		}
		return nil
	case map[string]any:
		if err := checkKeys(t, "enabled", "dx", "dy", "blur", "color", "opacity"); err != nil {
			return err
		}
		s.Enabled = true
		if e, ok := t["enabled"].(bool); ok {
			s.Enabled = e
		}
		s.Dx, _ = number(t["dx"])
		s.Dy, _ = number(t["dy"])
		s.Blur, _ = number(t["blur"])
		s.Color, _ = t["color"].(string)
		s.Opacity, _ = number(t["opacity"])
		return nil
	}
	return fmt.Errorf("shadow must be a bool or a table, got %T", v)
}

func (s *Shadow) UnmarshalTOML(v any) error        { return s.fromAny(v) }
func (s *Shadow) UnmarshalJSON(b []byte) error     { return decodeJSON(s, b) }
func (s *Shadow) UnmarshalYAML(n *yaml.Node) error { return decodeYAML(s, n) }

// number converts the numeric types produced by the three decoders.
func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

// checkKeys rejects unknown table keys so that typos surface at load time.
func checkKeys(m map[string]any, allowed ...string) error {
	var unknown []string
	for k := range m {
		found := false
		for _, a := range allowed {
			if k == a {
				found = true
				break
			}
		}
		if !found {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("unknown keys %s", strings.Join(unknown, ", "))
	}
	return nil
}
