// Package fonts provides the embedded fonts used when rasterizing labels.
//
// The Go font family ships with golang.org/x/image, so PNG output needs no
// system fonts. Parsed fonts are shared; faces are not safe for concurrent
// use, so every caller gets its own.
package fonts

import (
	"strings"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
)

// FallbackFontFamily is the CSS font stack written into SVG output for
// labels that do not name a family.
const FallbackFontFamily = `'Go', 'Helvetica Neue', Arial, sans-serif`

var (
	parseOnce sync.Once
	regular   *truetype.Font
	mono      *truetype.Font
	parseErr  error
)

func parse() {
	parseOnce.Do(func() {
		if regular, parseErr = truetype.Parse(goregular.TTF); parseErr != nil {
			return
		}
		mono, parseErr = truetype.Parse(gomono.TTF)
	})
}

// IsMonospace reports whether a CSS font family asks for a fixed-width face.
func IsMonospace(family string) bool {
	f := strings.ToLower(family)
	return strings.Contains(f, "mono") || strings.Contains(f, "courier")
}

// Face returns a face of the given size for a CSS font family. Families
// containing "mono" or "courier" map to Go Mono; everything else to Go
// Regular.
func Face(family string, size float64) (font.Face, error) {
	parse()
	if parseErr != nil {
		return nil, parseErr
	}
	ttf := regular
	if IsMonospace(family) {
		ttf = mono
	}
	return truetype.NewFace(ttf, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	}), nil
}
