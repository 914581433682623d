package render

import (
	"testing"

	"github.com/matzehuels/leaderline/pkg/errors"
	"github.com/matzehuels/leaderline/pkg/geom"
	"github.com/matzehuels/leaderline/pkg/leaderline"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"svg", FormatSVG},
		{" PNG ", FormatPNG},
		{"json", FormatJSON},
		{"msgpack", FormatMsgpack},
		{"mp", FormatMsgpack},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if err != nil {
				t.Fatalf("ParseFormat(%q) error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}

	if _, err := ParseFormat("pdf"); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("ParseFormat(pdf) error = %v, want INVALID_FORMAT", err)
	}
}

func TestFormatMetadata(t *testing.T) {
	if got := FormatPNG.ContentType(); got != "image/png" {
		t.Errorf("ContentType = %q", got)
	}
	if got := FormatMsgpack.Ext(); got != ".mp" {
		t.Errorf("Ext = %q", got)
	}
	if got := FormatSVG.Ext(); got != ".svg" {
		t.Errorf("Ext = %q", got)
	}
}

func TestFrameBounds(t *testing.T) {
	f := Frame{
		Width:  100,
		Height: 100,
		Elements: []Element{
			{ID: "far", Box: geom.NewBox(150, 0, 50, 20)},
		},
		Lines: []Line{
			{ID: "shown", Geometry: &leaderline.Geometry{Visible: true, Bounds: geom.NewBox(-10, 0, 20, 20)}},
			{ID: "hidden", Geometry: &leaderline.Geometry{Bounds: geom.NewBox(0, 0, 500, 500)}},
			{ID: "pending"},
		},
	}
	want := geom.Box{X: -10, Y: 0, W: 210, H: 100}
	if got := f.Bounds(); got != want {
		t.Errorf("Bounds() = %+v, want %+v", got, want)
	}
}

func TestDefaults(t *testing.T) {
	var e Element
	if e.FillColor() != DefaultElementFill || e.StrokeColor() != DefaultElementStroke {
		t.Errorf("element defaults = %q, %q", e.FillColor(), e.StrokeColor())
	}
	if (Frame{Background: "navy"}).BackgroundColor() != "navy" {
		t.Error("explicit background ignored")
	}
	if (Frame{}).BackgroundColor() != DefaultBackground {
		t.Error("default background not applied")
	}
}
