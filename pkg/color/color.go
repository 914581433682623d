// Package color resolves CSS-style color strings used by leader-line
// styles.
//
// The main entry point is [Contrasting], which picks black or white for an
// "auto" outline or plug color so that it stays legible against the primary
// stroke. Colors are parsed and blended with go-colorful; luminance follows
// the WCAG 2 relative luminance definition.
package color

import (
	"math"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/leaderline/pkg/errors"
)

const (
	Black = "#000000"
	White = "#ffffff"

	// Auto is the style keyword that asks for a contrasting color.
	Auto = "auto"
	// Transparent is the CSS keyword for a fully transparent color.
	Transparent = "transparent"
)

var named = map[string]string{
	"black":   "#000000",
	"silver":  "#c0c0c0",
	"gray":    "#808080",
	"grey":    "#808080",
	"white":   "#ffffff",
	"maroon":  "#800000",
	"red":     "#ff0000",
	"purple":  "#800080",
	"fuchsia": "#ff00ff",
	"green":   "#008000",
	"lime":    "#00ff00",
	"olive":   "#808000",
	"yellow":  "#ffff00",
	"navy":    "#000080",
	"blue":    "#0000ff",
	"teal":    "#008080",
	"aqua":    "#00ffff",
	"orange":  "#ffa500",
	"coral":   "#ff7f50",

	"steelblue": "#4682b4",
	"tomato":    "#ff6347",
	"crimson":   "#dc143c",
	"gold":      "#ffd700",
	"indigo":    "#4b0082",
}

// Parse decodes s into an opaque color and its alpha in [0, 1]. Accepted
// forms are #rgb, #rrggbb, #rrggbbaa, rgb(r, g, b), rgba(r, g, b, a), the
// CSS basic color names and "transparent".
func Parse(s string) (colorful.Color, float64, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == Transparent {
		return colorful.Color{}, 0, nil
	}
	if hex, ok := named[v]; ok {
		v = hex
	}

	switch {
	case strings.HasPrefix(v, "#"):
		return parseHex(s, v)
	case strings.HasPrefix(v, "rgba(") || strings.HasPrefix(v, "rgb("):
		return parseFunc(s, v)
	}
	return colorful.Color{}, 0, errors.New(errors.ErrCodeInvalidColor, "unrecognized color %q", s)
}

func parseHex(orig, v string) (colorful.Color, float64, error) {
	alpha := 1.0
	switch len(v) {
	case 4, 7:
	case 9:
		a, err := strconv.ParseUint(v[7:], 16, 8)
		if err != nil {
			return colorful.Color{}, 0, errors.Wrap(errors.ErrCodeInvalidColor, err, "invalid alpha in %q", orig)
		}
		alpha = float64(a) / 255
		v = v[:7]
	default:
		return colorful.Color{}, 0, errors.New(errors.ErrCodeInvalidColor, "invalid hex color %q", orig)
	}
	c, err := colorful.Hex(v)
	if err != nil {
		return colorful.Color{}, 0, errors.Wrap(errors.ErrCodeInvalidColor, err, "invalid hex color %q", orig)
	}
	return c, alpha, nil
}

func parseFunc(orig, v string) (colorful.Color, float64, error) {
	open, end := strings.IndexByte(v, '('), strings.LastIndexByte(v, ')')
	if end < open {
		return colorful.Color{}, 0, errors.New(errors.ErrCodeInvalidColor, "unterminated color function %q", orig)
	}
	args := strings.FieldsFunc(v[open+1:end], func(r rune) bool {
		return r == ',' || r == ' ' || r == '/'
	})
	if len(args) != 3 && len(args) != 4 {
		return colorful.Color{}, 0, errors.New(errors.ErrCodeInvalidColor, "color %q needs 3 or 4 components", orig)
	}

	var ch [3]float64
	for i := range ch {
		f, err := component(args[i], 255)
		if err != nil {
			return colorful.Color{}, 0, errors.Wrap(errors.ErrCodeInvalidColor, err, "invalid component in %q", orig)
		}
		ch[i] = f
	}
	alpha := 1.0
	if len(args) == 4 {
		f, err := component(args[3], 1)
		if err != nil {
			return colorful.Color{}, 0, errors.Wrap(errors.ErrCodeInvalidColor, err, "invalid alpha in %q", orig)
		}
		alpha = f
	}
	return colorful.Color{R: ch[0], G: ch[1], B: ch[2]}, alpha, nil
}

// component parses a number or percentage and scales it to [0, 1], where
// scale is the value that maps to 1.
func component(s string, scale float64) (float64, error) {
	if p, ok := strings.CutSuffix(s, "%"); ok {
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return 0, err
		}
		return clamp01(f / 100), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return clamp01(f / scale), nil
}

func clamp01(f float64) float64 { return math.Max(0, math.Min(1, f)) }

// Hex formats c as #rrggbb.
func Hex(c colorful.Color) string { return c.Clamped().Hex() }

// Luminance returns the WCAG relative luminance of c.
func Luminance(c colorful.Color) float64 {
	r, g, b := c.Clamped().LinearRgb()
	return 0.2126*r + 0.7152*g + 0.0722*b
}

// ContrastRatio returns the WCAG contrast ratio between two colors, in
// [1, 21].
func ContrastRatio(a, b colorful.Color) float64 {
	la, lb := Luminance(a), Luminance(b)
	if la < lb {
		la, lb = lb, la
	}
	return (la + 0.05) / (lb + 0.05)
}

// Contrasting returns Black or White, whichever has the higher contrast
// ratio against c. Translucent colors are composited over white first.
func Contrasting(c string) (string, error) {
	col, alpha, err := Parse(c)
	if err != nil {
		return "", err
	}
	col = over(col, alpha)

	black, _ := colorful.Hex(Black)
	white, _ := colorful.Hex(White)
	if ContrastRatio(col, black) >= ContrastRatio(col, white) {
		return Black, nil
	}
	return White, nil
}

// Resolve returns c unchanged unless it is Auto, in which case the color
// contrasting against base is returned.
func Resolve(c, base string) (string, error) {
	if strings.EqualFold(strings.TrimSpace(c), Auto) {
		return Contrasting(base)
	}
	if _, _, err := Parse(c); err != nil {
		return "", err
	}
	return c, nil
}

// Blend interpolates from a (t=0) to b (t=1) in CIE L*a*b* space.
func Blend(a, b string, t float64) (string, error) {
	ca, _, err := Parse(a)
	if err != nil {
		return "", err
	}
	cb, _, err := Parse(b)
	if err != nil {
		return "", err
	}
	return Hex(ca.BlendLab(cb, clamp01(t))), nil
}

func over(c colorful.Color, alpha float64) colorful.Color {
	if alpha >= 1 {
		return c
	}
	white := colorful.Color{R: 1, G: 1, B: 1}
	return white.BlendRgb(c, alpha)
}
