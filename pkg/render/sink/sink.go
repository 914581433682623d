package sink

import (
	"github.com/matzehuels/leaderline/pkg/errors"
	"github.com/matzehuels/leaderline/pkg/render"
)

// Options are the format-independent render settings.
type Options struct {
	// Scale is the PNG resolution factor. Zero means 2.
	Scale float64
	// Fit grows the canvas to cover everything drawn, plus Padding.
	Fit     bool
	Padding float64
	// Animate emits CSS dash animation in SVG output.
	Animate bool
	// LinesOnly skips element boxes in image output.
	LinesOnly bool
}

// Render writes f in the given format.
func Render(f render.Frame, format render.Format, opts Options) ([]byte, error) {
	switch format {
	case render.FormatSVG:
		var so []SVGOption
		if opts.Fit {
			so = append(so, WithFitBounds(opts.Padding))
		}
		if opts.Animate {
			so = append(so, WithAnimation())
		}
		if opts.LinesOnly {
			so = append(so, WithoutElements())
		}
		return RenderSVG(f, so...), nil
	case render.FormatPNG:
		var po []PNGOption
		if opts.Scale > 0 {
			po = append(po, WithScale(opts.Scale))
		}
		if opts.Fit {
			po = append(po, WithPNGFitBounds(opts.Padding))
		}
		if opts.LinesOnly {
			po = append(po, WithoutPNGElements())
		}
		return RenderPNG(f, po...)
	case render.FormatJSON:
		return RenderJSON(f)
	case render.FormatMsgpack:
		return RenderMsgpack(f)
	}
	return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown output format %q", format)
}
