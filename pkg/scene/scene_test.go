package scene

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/leaderline/pkg/attach"
	"github.com/matzehuels/leaderline/pkg/errors"
	"github.com/matzehuels/leaderline/pkg/geom"
	"github.com/matzehuels/leaderline/pkg/path"
	"github.com/matzehuels/leaderline/pkg/plug"
	"github.com/matzehuels/leaderline/pkg/socket"
)

const tomlScene = `
width = 300

[[element]]
id = "a"
x = 0
y = 0
w = 100
h = 50

[[element]]
id = "b"
x = 200
y = 0
w = 100
h = 50

[[line]]
from = "a:right"
to = "b"
path = "grid"
middle_label = "plain"
caption = { text = "styled", font_size = 10, padding = 0 }
outline = true
end_plug = { kind = "arrow2", size = 2 }
dash = { gap = 3 }
`

const yamlScene = `
elements:
  - {id: a, x: 0, y: 0, w: 100, h: 50}
  - {id: b, x: 200, y: 0, w: 100, h: 50}
lines:
  - from: a:right
    to: b
    path: grid
    middle_label: plain
    caption: {text: styled, font_size: 10, padding: 0}
    outline: true
    end_plug: {kind: arrow2, size: 2}
    dash: {gap: 3}
`

const jsonScene = `{
  "elements": [
    {"id": "a", "x": 0, "y": 0, "w": 100, "h": 50},
    {"id": "b", "x": 200, "y": 0, "w": 100, "h": 50}
  ],
  "lines": [{
    "from": "a:right",
    "to": "b",
    "path": "grid",
    "middle_label": "plain",
    "caption": {"text": "styled", "font_size": 10, "padding": 0},
    "outline": true,
    "end_plug": {"kind": "arrow2", "size": 2},
    "dash": {"gap": 3}
  }]
}`

func TestParseFormatsAgree(t *testing.T) {
	for _, tt := range []struct {
		format Format
		data   string
	}{
		{FormatTOML, tomlScene},
		{FormatYAML, yamlScene},
		{FormatJSON, jsonScene},
	} {
		t.Run(string(tt.format), func(t *testing.T) {
			s, err := Parse([]byte(tt.data), tt.format)
			require.NoError(t, err)
			require.Len(t, s.Elements, 2)
			require.Len(t, s.Lines, 1)

			l := s.Lines[0]
			assert.Equal(t, "line-1", l.ID)
			assert.Equal(t, "a", l.From.Element)
			assert.Equal(t, socket.Right, l.From.Socket)
			assert.Equal(t, socket.Auto, l.To.Socket)

			o, err := l.Options()
			require.NoError(t, err)
			assert.Equal(t, path.Grid, o.Path)
			require.NotNil(t, o.Labels.Middle)
			assert.Equal(t, "plain", o.Labels.Middle.Text)
			require.NotNil(t, o.Labels.Caption)
			assert.Equal(t, 10.0, o.Labels.Caption.FontSize)
			require.NotNil(t, o.Labels.Caption.Padding)
			assert.Zero(t, *o.Labels.Caption.Padding)
			assert.True(t, o.Outline.Enabled)
			assert.Equal(t, plug.Arrow2, o.EndPlug.Kind)
			assert.Equal(t, 2.0, o.EndPlug.Size)
			assert.Equal(t, plug.Behind, o.StartPlug.Kind, "unset plugs keep defaults")
			assert.True(t, o.Dash.Enabled)
			assert.Equal(t, 3.0, o.Dash.Gap)
			assert.Equal(t, 8.0, o.Dash.Len, "dash length defaults to twice the size")
		})
	}
}

func TestCanvasDefaults(t *testing.T) {
	s, err := Parse([]byte(`{}`), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, DefaultWidth, s.Width)
	assert.Equal(t, DefaultHeight, s.Height)
}

func TestOutlineTable(t *testing.T) {
	var o Outline
	require.NoError(t, o.fromAny(map[string]any{"color": "#fff", "width": int64(2)}))
	assert.True(t, o.Enabled)
	assert.Equal(t, "#fff", o.Color)
	assert.Equal(t, 2.0, o.Width)

	require.NoError(t, o.fromAny(map[string]any{"enabled": false, "color": "#fff"}))
	assert.False(t, o.Enabled)

	require.NoError(t, o.fromAny(false))
	assert.False(t, o.Enabled)

	assert.Error(t, o.fromAny("yes"))
	assert.Error(t, o.fromAny(map[string]any{"colour": "#fff"}))
}

func TestEndpointForms(t *testing.T) {
	var e Endpoint
	require.NoError(t, e.fromAny("api:bottom-left"))
	assert.Equal(t, "api", e.Element)
	assert.Equal(t, socket.BottomLeft, e.Socket)

	require.NoError(t, e.fromAny(map[string]any{"x": 10, "y": 2.5}))
	require.NotNil(t, e.Point)
	assert.Equal(t, geom.Pt(10, 2.5), *e.Point)
	assert.Empty(t, e.Element)

	assert.Error(t, e.fromAny(map[string]any{"x": 10}))
	err := e.fromAny("api:sideways")
	assert.True(t, errors.Is(err, errors.ErrCodeUnsupportedSocket))
}

func TestLabelForms(t *testing.T) {
	var l Label
	require.NoError(t, l.fromAny("hello"))
	assert.Equal(t, "hello", l.Text)
	assert.Nil(t, l.Padding)

	require.NoError(t, l.fromAny(map[string]any{"text": "hi", "offset_x": 3, "color": "red"}))
	assert.Equal(t, "hi", l.Text)
	assert.Equal(t, geom.Vec{X: 3}, l.Offset)
	assert.Equal(t, "red", l.Color)

	assert.Error(t, l.fromAny(map[string]any{"font_size": 3}), "text is required")
	assert.Error(t, l.fromAny(42))
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"duplicate element", `{"elements":[{"id":"a"},{"id":"a"}]}`},
		{"empty element id", `{"elements":[{"id":""}]}`},
		{"negative size", `{"elements":[{"id":"a","w":-1}]}`},
		{"unknown element", `{"elements":[{"id":"a"}],"lines":[{"from":"a","to":"ghost"}]}`},
		{"missing endpoint", `{"elements":[{"id":"a"}],"lines":[{"from":"a"}]}`},
		{"bad path", `{"elements":[{"id":"a"},{"id":"b"}],"lines":[{"from":"a","to":"b","path":"zigzag"}]}`},
		{"bad color", `{"elements":[{"id":"a"},{"id":"b"}],"lines":[{"from":"a","to":"b","color":"blurple"}]}`},
		{"duplicate line", `{"elements":[{"id":"a"},{"id":"b"}],"lines":[{"id":"x","from":"a","to":"b"},{"id":"x","from":"b","to":"a"}]}`},
		{"unknown field", `{"elements":[],"colour":"red"}`},
		{"bad plug", `{"elements":[{"id":"a"},{"id":"b"}],"lines":[{"from":"a","to":"b","end_plug":"harpoon"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), FormatJSON)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrCodeInvalidScene), "got %v", err)
		})
	}
}

func TestFormatFromPath(t *testing.T) {
	for in, want := range map[string]Format{
		"a.toml": FormatTOML, "b.YAML": FormatYAML, "c.yml": FormatYAML, "d.json": FormatJSON,
	} {
		got, err := FormatFromPath(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
	_, err := FormatFromPath("scene.xml")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidFormat))
}

func TestLoadExamples(t *testing.T) {
	for _, name := range []string{"services.toml", "callout.yaml", "pipeline.json"} {
		t.Run(name, func(t *testing.T) {
			s, err := Load("../../examples/scenes/" + name)
			require.NoError(t, err)
			assert.NotEmpty(t, s.Lines)
			for _, l := range s.Lines {
				_, err := l.Options()
				assert.NoError(t, err, l.ID)
			}
		})
	}
}

func TestHashIsStable(t *testing.T) {
	a, err := Parse([]byte(jsonScene), FormatJSON)
	require.NoError(t, err)
	b, err := Parse([]byte(jsonScene), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, a.Hash(), b.Hash())

	b.Elements[0].X = 1
	assert.NotEqual(t, a.Hash(), b.Hash())
}

func TestBoardMeasureAndMove(t *testing.T) {
	s, err := Parse([]byte(jsonScene), FormatJSON)
	require.NoError(t, err)
	b := s.NewBoard()

	box, err := b.Measure(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, geom.Box{W: 100, H: 50}, box)

	var fired atomic.Int32
	cancel := b.OnLayoutChange("a", func() { fired.Add(1) })
	require.NoError(t, b.Nudge("a", 10, 5))
	assert.Equal(t, int32(1), fired.Load())

	box, _ = b.Box("a")
	assert.Equal(t, geom.Box{X: 10, Y: 5, W: 100, H: 50}, box)

	cancel()
	require.NoError(t, b.Move("a", geom.Box{}))
	assert.Equal(t, int32(1), fired.Load(), "cancelled subscription is not called")

	assert.Equal(t, []attach.Element{"a", "b"}, b.Elements())
	assert.True(t, errors.Is(b.Move("ghost", geom.Box{}), errors.ErrCodeNotFound))
}

func TestBoardRemoveFailsMeasurement(t *testing.T) {
	b := NewBoard(map[attach.Element]geom.Box{"a": {W: 1, H: 1}})
	b.Remove("a")
	_, err := b.Measure(context.Background(), "a")
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound))
}

func TestBoardLatencyHonorsContext(t *testing.T) {
	b := NewBoard(map[attach.Element]geom.Box{"a": {W: 1, H: 1}})
	b.SetLatency(time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := b.Measure(ctx, "a")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
