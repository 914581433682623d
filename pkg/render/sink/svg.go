package sink

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"math"
	"strconv"

	"github.com/matzehuels/leaderline/pkg/fonts"
	"github.com/matzehuels/leaderline/pkg/geom"
	"github.com/matzehuels/leaderline/pkg/label"
	"github.com/matzehuels/leaderline/pkg/plug"
	"github.com/matzehuels/leaderline/pkg/render"
)

// Seconds per dash period for animated dashes.
const dashPeriodSeconds = 0.5

type SVGOption func(*svgRenderer)

type svgRenderer struct {
	elements bool
	animate  bool
	fit      bool
	padding  float64
}

// WithoutElements draws only the lines.
func WithoutElements() SVGOption { return func(r *svgRenderer) { r.elements = false } }

// WithAnimation emits CSS keyframes for lines with animated dashes.
func WithAnimation() SVGOption { return func(r *svgRenderer) { r.animate = true } }

// WithFitBounds grows the view box to cover everything drawn, plus padding.
func WithFitBounds(padding float64) SVGOption {
	return func(r *svgRenderer) { r.fit = true; r.padding = padding }
}

// RenderSVG draws f as a standalone SVG document. Lines are drawn in frame
// order above all elements; each line draws its shadow, outline, primary
// stroke, plugs and labels in that order.
func RenderSVG(f render.Frame, opts ...SVGOption) []byte {
	r := svgRenderer{elements: true}
	for _, opt := range opts {
		opt(&r)
	}

	view := geom.NewBox(0, 0, f.Width, f.Height)
	if r.fit {
		view = f.Bounds().Expand(r.padding)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="%s %s %s %s" width="%s" height="%s">`+"\n",
		num(view.X), num(view.Y), num(view.W), num(view.H), num(view.W), num(view.H))

	renderDefs(&buf, &r, f.Lines)
	fmt.Fprintf(&buf, `  <rect x="%s" y="%s" width="%s" height="%s" fill="%s"/>`+"\n",
		num(view.X), num(view.Y), num(view.W), num(view.H), escape(f.BackgroundColor()))

	if r.elements {
		for _, e := range f.Elements {
			renderElement(&buf, e)
		}
	}
	for _, l := range f.Lines {
		if l.Drawable() {
			renderLine(&buf, &r, l)
		}
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func renderDefs(buf *bytes.Buffer, r *svgRenderer, lines []render.Line) {
	var filters, keyframes bytes.Buffer
	for _, l := range lines {
		if !l.Drawable() {
			continue
		}
		g := l.Geometry
		if s := g.Shadow; s != nil {
			fmt.Fprintf(&filters, `    <filter id="%s" x="-50%%" y="-50%%" width="200%%" height="200%%">`+"\n",
				shadowID(l.ID))
			fmt.Fprintf(&filters, `      <feDropShadow dx="%s" dy="%s" stdDeviation="%s" flood-color="%s" flood-opacity="%s"/>`+"\n",
				num(s.Dx), num(s.Dy), num(s.Blur/2), escape(s.Color), num(s.Opacity))
			filters.WriteString("    </filter>\n")
		}
		if r.animate && g.Stroke.Animated && len(g.Stroke.DashArray) == 2 {
			period := g.Stroke.DashArray[0] + g.Stroke.DashArray[1]
			fmt.Fprintf(&keyframes, "    @keyframes %s { from { stroke-dashoffset: 0; } to { stroke-dashoffset: %s; } }\n",
				animID(l.ID), num(-period))
			fmt.Fprintf(&keyframes, "    .%s { animation: %s %ss linear infinite; }\n",
				animID(l.ID), animID(l.ID), num(dashPeriodSeconds))
		}
	}
	if filters.Len() == 0 && keyframes.Len() == 0 {
		return
	}
	buf.WriteString("  <defs>\n")
	buf.Write(filters.Bytes())
	if keyframes.Len() > 0 {
		buf.WriteString("    <style>\n")
		buf.Write(keyframes.Bytes())
		buf.WriteString("    </style>\n")
	}
	buf.WriteString("  </defs>\n")
}

func renderElement(buf *bytes.Buffer, e render.Element) {
	b := e.Box
	fmt.Fprintf(buf, `  <g class="element" id="element-%s">`+"\n", escape(e.ID))
	fmt.Fprintf(buf, `    <rect x="%s" y="%s" width="%s" height="%s" rx="4" fill="%s" stroke="%s" stroke-width="1.5"/>`+"\n",
		num(b.X), num(b.Y), num(b.W), num(b.H), escape(e.FillColor()), escape(e.StrokeColor()))
	if e.Text != "" {
		c := b.Center()
		fmt.Fprintf(buf, `    <text x="%s" y="%s" text-anchor="middle" dominant-baseline="central" font-family="%s" font-size="14" fill="%s">%s</text>`+"\n",
			num(c.X), num(c.Y), escape(fonts.FallbackFontFamily), escape(e.StrokeColor()), escape(e.Text))
	}
	buf.WriteString("  </g>\n")
}

func renderLine(buf *bytes.Buffer, r *svgRenderer, l render.Line) {
	g := l.Geometry
	filter := ""
	if g.Shadow != nil {
		filter = fmt.Sprintf(` filter="url(#%s)"`, shadowID(l.ID))
	}
	fmt.Fprintf(buf, `  <g class="leader-line" id="line-%s"%s>`+"\n", escape(l.ID), filter)

	if o := g.Outline; o != nil {
		fmt.Fprintf(buf, `    <path class="outline" d="%s" fill="none" stroke="%s" stroke-width="%s" stroke-opacity="%s"/>`+"\n",
			g.OutlineCommand(), escape(o.Color), num(o.Width), num(o.Opacity))
	}

	s := g.Stroke
	var dash, class string
	if len(s.DashArray) > 0 {
		dash = fmt.Sprintf(` stroke-dasharray="%s" stroke-dashoffset="%s"`, nums(s.DashArray), num(s.DashOffset))
		if r.animate && s.Animated {
			class = " " + animID(l.ID)
		}
	}
	fmt.Fprintf(buf, `    <path class="stroke%s" d="%s" fill="none" stroke="%s" stroke-width="%s" stroke-opacity="%s"%s/>`+"\n",
		class, g.StrokeCommand, escape(s.Color), num(s.Width), num(s.Opacity), dash)

	for _, p := range g.Plugs {
		renderPlug(buf, p, s.Opacity)
	}
	for _, pl := range g.Labels {
		renderLabel(buf, pl)
	}
	buf.WriteString("  </g>\n")
}

func renderPlug(buf *bytes.Buffer, p plug.Transform, opacity float64) {
	shape := plug.ShapeOf(p.Kind)
	paint := fmt.Sprintf(`fill="%s"`, escape(p.Color))
	if shape.Stroked {
		paint = fmt.Sprintf(`fill="none" stroke="%s" stroke-width="0.5"`, escape(p.Color))
	}
	fmt.Fprintf(buf, `    <path class="plug plug-%s" d="%s" transform="translate(%s %s) rotate(%s) scale(%s)" %s fill-opacity="%s"/>`+"\n",
		p.Kind, shape.Path, num(p.Position.X), num(p.Position.Y), num(p.Angle), num(p.Scale), paint, num(opacity))
}

func renderLabel(buf *bytes.Buffer, pl label.Placement) {
	st := pl.Style
	fmt.Fprintf(buf, `    <g class="label label-%s">`+"\n", pl.Slot)
	if st.Background != "" && st.Background != "transparent" {
		b := pl.Box
		fmt.Fprintf(buf, `      <rect x="%s" y="%s" width="%s" height="%s" rx="%s" fill="%s"/>`+"\n",
			num(b.X), num(b.Y), num(b.W), num(b.H), num(st.CornerRadius), escape(st.Background))
	}
	fmt.Fprintf(buf, `      <text x="%s" y="%s" text-anchor="middle" dominant-baseline="central" font-family="%s" font-size="%s" fill="%s">%s</text>`+"\n",
		num(pl.Position.X), num(pl.Position.Y), escape(st.FontFamily), num(st.FontSize), escape(st.Color), escape(pl.Text))
	buf.WriteString("    </g>\n")
}

func shadowID(lineID string) string { return "shadow-" + lineID }
func animID(lineID string) string   { return "dash-" + lineID }

// num formats a coordinate with at most three decimals.
func num(v float64) string {
	v = math.Round(v*1000) / 1000
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func nums(vs []float64) string {
	var b bytes.Buffer
	for i, v := range vs {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(num(v))
	}
	return b.String()
}

func escape(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
