package sink

import (
	"bytes"
	"math"

	"github.com/fogleman/gg"

	"github.com/matzehuels/leaderline/pkg/color"
	"github.com/matzehuels/leaderline/pkg/errors"
	"github.com/matzehuels/leaderline/pkg/fonts"
	"github.com/matzehuels/leaderline/pkg/geom"
	"github.com/matzehuels/leaderline/pkg/label"
	"github.com/matzehuels/leaderline/pkg/path"
	"github.com/matzehuels/leaderline/pkg/plug"
	"github.com/matzehuels/leaderline/pkg/render"
)

// MaxPNGPixels bounds the raster size of a single PNG.
const MaxPNGPixels = 64 << 20

// PNGOption configures PNG rendering.
type PNGOption func(*pngRenderer)

type pngRenderer struct {
	scale    float64
	elements bool
	fit      bool
	padding  float64
}

// WithScale sets the PNG scale factor (default 2.0 for 2x resolution).
func WithScale(s float64) PNGOption {
	return func(r *pngRenderer) {
		if s > 0 {
			r.scale = s
		}
	}
}

// WithPNGFitBounds grows the image to cover everything drawn, plus padding.
func WithPNGFitBounds(padding float64) PNGOption {
	return func(r *pngRenderer) { r.fit = true; r.padding = padding }
}

// WithoutPNGElements draws only the lines.
func WithoutPNGElements() PNGOption { return func(r *pngRenderer) { r.elements = false } }

// RenderPNG rasterizes f with the same layering as RenderSVG. Shadows are
// drawn unblurred and dash offsets are ignored; labels use the embedded Go
// fonts.
func RenderPNG(f render.Frame, opts ...PNGOption) ([]byte, error) {
	r := pngRenderer{scale: 2.0, elements: true}
	for _, opt := range opts {
		opt(&r)
	}

	view := geom.NewBox(0, 0, f.Width, f.Height)
	if r.fit {
		view = f.Bounds().Expand(r.padding)
	}
	w, h := int(math.Ceil(view.W*r.scale)), int(math.Ceil(view.H*r.scale))
	if w <= 0 || h <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "canvas %gx%g is empty", view.W, view.H)
	}
	if w*h > MaxPNGPixels {
		return nil, errors.New(errors.ErrCodeInvalidInput, "canvas %dx%d exceeds the PNG size limit", w, h)
	}

	c := &canvas{dc: gg.NewContext(w, h), view: view, scale: r.scale}
	if err := c.setColor(f.BackgroundColor(), 1); err != nil {
		return nil, err
	}
	c.dc.Clear()

	if r.elements {
		for _, e := range f.Elements {
			if err := c.element(e); err != nil {
				return nil, err
			}
		}
	}
	for _, l := range f.Lines {
		if !l.Drawable() {
			continue
		}
		if err := c.line(l); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "draw line %s", l.ID)
		}
	}

	var buf bytes.Buffer
	if err := c.dc.EncodePNG(&buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode png")
	}
	return buf.Bytes(), nil
}

// canvas maps frame coordinates onto the raster. The transform is applied
// to points by hand so line widths and font sizes scale with them.
type canvas struct {
	dc    *gg.Context
	view  geom.Box
	scale float64
}

func (c *canvas) pt(p geom.Point) (float64, float64) {
	return (p.X - c.view.X) * c.scale, (p.Y - c.view.Y) * c.scale
}

func (c *canvas) setColor(s string, opacity float64) error {
	col, alpha, err := color.Parse(s)
	if err != nil {
		return err
	}
	c.dc.SetRGBA(col.R, col.G, col.B, alpha*opacity)
	return nil
}

func (c *canvas) element(e render.Element) error {
	x, y := c.pt(geom.Pt(e.Box.X, e.Box.Y))
	w, h := e.Box.W*c.scale, e.Box.H*c.scale
	c.dc.DrawRoundedRectangle(x, y, w, h, 4*c.scale)
	if err := c.setColor(e.FillColor(), 1); err != nil {
		return err
	}
	c.dc.FillPreserve()
	if err := c.setColor(e.StrokeColor(), 1); err != nil {
		return err
	}
	c.dc.SetLineWidth(1.5 * c.scale)
	c.dc.Stroke()

	if e.Text == "" {
		return nil
	}
	face, err := fonts.Face("", 14*c.scale)
	if err != nil {
		return err
	}
	c.dc.SetFontFace(face)
	cx, cy := c.pt(e.Box.Center())
	c.dc.DrawStringAnchored(e.Text, cx, cy, 0.5, 0.35)
	return nil
}

func (c *canvas) line(l render.Line) error {
	g := l.Geometry
	stroke := g.StrokePath()
	s := g.Stroke

	if sh := g.Shadow; sh != nil {
		c.tracePath(stroke, geom.Vec{X: sh.Dx, Y: sh.Dy})
		if err := c.setColor(sh.Color, sh.Opacity*s.Opacity); err != nil {
			return err
		}
		c.dc.SetLineWidth(s.Width * c.scale)
		c.dc.Stroke()
	}

	if o := g.Outline; o != nil {
		c.tracePath(stroke, geom.Vec{})
		if err := c.setColor(o.Color, o.Opacity); err != nil {
			return err
		}
		c.dc.SetLineWidth(o.Width * c.scale)
		c.dc.Stroke()
	}

	c.tracePath(stroke, geom.Vec{})
	if err := c.setColor(s.Color, s.Opacity); err != nil {
		return err
	}
	c.dc.SetLineWidth(s.Width * c.scale)
	if len(s.DashArray) > 0 {
		dash := make([]float64, len(s.DashArray))
		for i, d := range s.DashArray {
			dash[i] = d * c.scale
		}
		c.dc.SetDash(dash...)
	}
	c.dc.Stroke()
	c.dc.SetDash()

	for _, p := range g.Plugs {
		if err := c.plug(p, s.Opacity); err != nil {
			return err
		}
	}
	for _, pl := range g.Labels {
		if err := c.label(pl); err != nil {
			return err
		}
	}
	return nil
}

func (c *canvas) tracePath(d path.Descriptor, offset geom.Vec) {
	c.dc.NewSubPath()
	for _, seg := range d.Segments {
		x, y := c.pt(seg.To.Add(offset))
		switch seg.Op {
		case path.MoveTo:
			c.dc.MoveTo(x, y)
		case path.LineTo:
			c.dc.LineTo(x, y)
		case path.CubicTo:
			x1, y1 := c.pt(seg.C1.Add(offset))
			x2, y2 := c.pt(seg.C2.Add(offset))
			c.dc.CubicTo(x1, y1, x2, y2, x, y)
		}
	}
}

// plugPoint maps a point in marker units to the raster.
func (c *canvas) plugPoint(p plug.Transform, local geom.Point) (float64, float64) {
	rad := p.Angle * math.Pi / 180
	sin, cos := math.Sincos(rad)
	x := local.X*p.Scale*cos - local.Y*p.Scale*sin
	y := local.X*p.Scale*sin + local.Y*p.Scale*cos
	return c.pt(geom.Pt(p.Position.X+x, p.Position.Y+y))
}

func (c *canvas) plug(p plug.Transform, opacity float64) error {
	if err := c.setColor(p.Color, opacity); err != nil {
		return err
	}
	shape := plug.ShapeOf(p.Kind)
	switch p.Kind {
	case plug.Disc:
		x, y := c.plugPoint(p, geom.Pt(-1.5, 0))
		c.dc.DrawCircle(x, y, 1.5*p.Scale*c.scale)
		c.dc.Fill()
	case plug.Crosshair:
		c.dc.SetLineWidth(0.5 * p.Scale * c.scale)
		for _, seg := range [][2]geom.Point{
			{geom.Pt(-3, 0), geom.Pt(3, 0)},
			{geom.Pt(0, -3), geom.Pt(0, 3)},
		} {
			x1, y1 := c.plugPoint(p, seg[0])
			x2, y2 := c.plugPoint(p, seg[1])
			c.dc.DrawLine(x1, y1, x2, y2)
			c.dc.Stroke()
		}
		x, y := c.plugPoint(p, geom.Pt(0, 0))
		c.dc.DrawCircle(x, y, 2*p.Scale*c.scale)
		c.dc.Stroke()
	default:
		if len(shape.Points) == 0 {
			return nil
		}
		c.dc.NewSubPath()
		for i, lp := range shape.Points {
			x, y := c.plugPoint(p, lp)
			if i == 0 {
				c.dc.MoveTo(x, y)
			} else {
				c.dc.LineTo(x, y)
			}
		}
		c.dc.ClosePath()
		c.dc.Fill()
	}
	return nil
}

func (c *canvas) label(pl label.Placement) error {
	st := pl.Style
	if st.Background != "" && st.Background != color.Transparent {
		x, y := c.pt(geom.Pt(pl.Box.X, pl.Box.Y))
		c.dc.DrawRoundedRectangle(x, y, pl.Box.W*c.scale, pl.Box.H*c.scale, st.CornerRadius*c.scale)
		if err := c.setColor(st.Background, 1); err != nil {
			return err
		}
		c.dc.Fill()
	}
	face, err := fonts.Face(st.FontFamily, st.FontSize*c.scale)
	if err != nil {
		return err
	}
	c.dc.SetFontFace(face)
	if err := c.setColor(st.Color, 1); err != nil {
		return err
	}
	x, y := c.pt(pl.Position)
	c.dc.DrawStringAnchored(pl.Text, x, y, 0.5, 0.35)
	return nil
}
