package leaderline

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/leaderline/pkg/errors"
	"github.com/matzehuels/leaderline/pkg/geom"
	"github.com/matzehuels/leaderline/pkg/label"
	"github.com/matzehuels/leaderline/pkg/path"
	"github.com/matzehuels/leaderline/pkg/plug"
	"github.com/matzehuels/leaderline/pkg/socket"
)

func ptr[T any](v T) *T { return &v }

func pointAnchor(x, y float64, s socket.Socket) Anchor {
	return Anchor{Box: geom.PointBox(geom.Pt(x, y)), Socket: s}
}

func TestComputeGrid(t *testing.T) {
	opts := DefaultOptions()
	opts.Path = path.Grid

	g, err := Compute(pointAnchor(50, 50, socket.Right), pointAnchor(250, 150, socket.Left), opts)
	require.NoError(t, err)

	assert.Equal(t, "M50,50 L150,50 L150,150 L250,150", g.Command)
	assert.InDelta(t, 300, g.Length, 1e-9)
	assert.Equal(t, socket.Right, g.StartSocket)
	assert.Equal(t, socket.Left, g.EndSocket)

	// Arrow1 at size 4 pulls the stroke back by its length, 4*4.
	assert.Equal(t, "M50,50 L150,50 L150,150 L234,150", g.StrokeCommand)
	require.Len(t, g.Plugs, 1)
	assert.Equal(t, plug.AtEnd, g.Plugs[0].End)
	assert.Equal(t, geom.Pt(250, 150), g.Plugs[0].Position)
	assert.InDelta(t, 0, g.Plugs[0].Angle, 1e-9)
	assert.Equal(t, DefaultColor, g.Plugs[0].Color)
	assert.True(t, g.Visible)
	assert.False(t, g.Empty)
}

func TestComputeAutoSocketsFaceEachOther(t *testing.T) {
	start := Anchor{Box: geom.Box{X: 0, Y: 0, W: 100, H: 50}}
	end := Anchor{Box: geom.Box{X: 300, Y: 0, W: 100, H: 50}}
	opts := DefaultOptions()
	opts.Path = path.Straight

	g, err := Compute(start, end, opts)
	require.NoError(t, err)
	assert.Equal(t, socket.Right, g.StartSocket)
	assert.Equal(t, socket.Left, g.EndSocket)
	assert.Equal(t, geom.Pt(100, 25), g.Start)
	assert.Equal(t, geom.Pt(300, 25), g.End)
	assert.InDelta(t, 200, g.Length, 1e-9)
}

func TestComputeIsDeterministic(t *testing.T) {
	start := Anchor{Box: geom.Box{X: 10, Y: 10, W: 80, H: 30}}
	end := Anchor{Box: geom.Box{X: 200, Y: 160, W: 60, H: 60}}
	for _, typ := range path.Types {
		opts := DefaultOptions()
		opts.Path = typ
		a, err := Compute(start, end, opts)
		require.NoError(t, err)
		b, err := Compute(start, end, opts)
		require.NoError(t, err)
		assert.Equal(t, a.Command, b.Command, typ.String())
		assert.Equal(t, a.StrokeCommand, b.StrokeCommand, typ.String())
		assert.Equal(t, a.Bounds, b.Bounds, typ.String())
	}
}

func TestComputeDegenerate(t *testing.T) {
	opts := DefaultOptions()
	opts.Labels = label.Set{Middle: label.Text("here")}
	opts.Outline = plug.OutlineOptions{Enabled: true}

	g, err := Compute(pointAnchor(40, 40, socket.Auto), pointAnchor(40, 40, socket.Auto), opts)
	require.NoError(t, err)
	assert.True(t, g.Empty)
	assert.Zero(t, g.Length)
	assert.Empty(t, g.Plugs)
	assert.Empty(t, g.Labels)
	assert.Nil(t, g.Outline)
	assert.Equal(t, "M40,40", g.Command)
}

func TestComputeRejectsUnknownValues(t *testing.T) {
	a, b := pointAnchor(0, 0, socket.Auto), pointAnchor(100, 0, socket.Auto)

	_, err := Compute(a, b, Options{Path: path.Type(42)})
	assert.True(t, errors.Is(err, errors.ErrCodeUnsupportedPathType))

	_, err = Compute(Anchor{Socket: socket.Socket(42)}, b, DefaultOptions())
	assert.True(t, errors.Is(err, errors.ErrCodeUnsupportedSocket))

	opts := DefaultOptions()
	opts.EndPlug.Kind = plug.Kind(42)
	_, err = Compute(a, b, opts)
	assert.True(t, errors.Is(err, errors.ErrCodeUnsupportedPlug))

	opts = DefaultOptions()
	opts.Color = "not-a-color"
	_, err = Compute(a, b, opts)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidColor))
}

func TestComputeOutline(t *testing.T) {
	opts := DefaultOptions()
	opts.Path = path.Straight
	opts.Outline = plug.OutlineOptions{Enabled: true}

	g, err := Compute(pointAnchor(0, 0, socket.Auto), pointAnchor(100, 0, socket.Auto), opts)
	require.NoError(t, err)
	require.NotNil(t, g.Outline)
	assert.InDelta(t, DefaultSize+2*plug.DefaultOutlineWidth, g.Outline.Width, 1e-9)
	assert.Equal(t, "#000000", g.Outline.Color)
	assert.Equal(t, g.StrokeCommand, g.OutlineCommand())

	opts.Outline.Enabled = false
	g, err = Compute(pointAnchor(0, 0, socket.Auto), pointAnchor(100, 0, socket.Auto), opts)
	require.NoError(t, err)
	assert.Empty(t, g.OutlineCommand())
}

func TestComputeLabelsUseFullPath(t *testing.T) {
	opts := DefaultOptions()
	opts.Path = path.Straight
	opts.Labels = label.Set{
		Start:  label.Text("s"),
		Middle: label.Text("m"),
		End:    label.Text("e"),
	}

	g, err := Compute(pointAnchor(0, 0, socket.Auto), pointAnchor(100, 0, socket.Auto), opts)
	require.NoError(t, err)
	require.Len(t, g.Labels, 3)
	assert.InDelta(t, 10, g.Labels[0].Position.X, 1e-6)
	assert.InDelta(t, 50, g.Labels[1].Position.X, 1e-6)
	assert.InDelta(t, 90, g.Labels[2].Position.X, 1e-6)
	for _, l := range g.Labels {
		assert.True(t, g.Bounds.Contains(l.Box.Center()))
	}
}

func TestComputeDashAndShadow(t *testing.T) {
	opts := DefaultOptions()
	opts.Dash = Dash{Enabled: true}
	opts.Shadow = Shadow{Enabled: true, Dx: 2, Dy: 2}

	g, err := Compute(pointAnchor(0, 0, socket.Auto), pointAnchor(100, 80, socket.Auto), opts)
	require.NoError(t, err)
	assert.Equal(t, []float64{8, 4}, g.Stroke.DashArray)
	assert.False(t, g.Stroke.Animated)
	require.NotNil(t, g.Shadow)
	assert.Equal(t, "#000000", g.Shadow.Color)
	assert.InDelta(t, 0.8, g.Shadow.Opacity, 1e-9)
}

func TestComputePullBacksNeverExceedPath(t *testing.T) {
	opts := DefaultOptions()
	opts.Path = path.Straight
	opts.Size = 20
	opts.StartPlug = plug.Spec{Kind: plug.Arrow3}
	opts.EndPlug = plug.Spec{Kind: plug.Arrow3}

	g, err := Compute(pointAnchor(0, 0, socket.Auto), pointAnchor(30, 0, socket.Auto), opts)
	require.NoError(t, err)
	require.Len(t, g.Plugs, 2)
	total := g.Plugs[0].PullBack + g.Plugs[1].PullBack
	assert.LessOrEqual(t, total, 0.9*g.Length+1e-9)
	assert.False(t, math.IsNaN(total))
}

func TestNormalizeDefaults(t *testing.T) {
	o, err := Options{}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, DefaultOptions().Path, o.Path, "zero options use the default path type")
	assert.Equal(t, DefaultColor, o.Color)
	assert.Equal(t, DefaultSize, o.Size)
	assert.Equal(t, DefaultOpacity, o.Opacity)

	o, err = Options{Curvature: ptr(3.0)}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, 1.0, *o.Curvature)

	_, err = Options{Size: -1}.Normalize()
	assert.Error(t, err)

	_, err = Options{EndPlug: plug.Spec{Kind: plug.Arrow1, Color: "auto"}}.Normalize()
	assert.NoError(t, err)
}

func TestComputeZeroOptionsMatchDefaultPath(t *testing.T) {
	a, b := pointAnchor(0, 0, socket.Right), pointAnchor(200, 100, socket.Left)

	zero, err := Compute(a, b, Options{})
	require.NoError(t, err)
	def, err := Compute(a, b, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, path.Fluid, zero.PathType)
	assert.Equal(t, def.Command, zero.Command)
}

func TestAttachmentValidate(t *testing.T) {
	tests := []struct {
		name string
		a    Attachment
		code errors.Code
	}{
		{"neither", Attachment{}, errors.ErrCodeInvalidAttachment},
		{"both", Attachment{Element: "a", Point: ptr(geom.Pt(0, 0))}, errors.ErrCodeInvalidAttachment},
		{"bad socket", Attachment{Element: "a", Socket: socket.Socket(99)}, errors.ErrCodeUnsupportedSocket},
		{"nan point", Attachment{Point: ptr(geom.Pt(math.NaN(), 0))}, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.a.Validate()
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.GetCode(err))
		})
	}
	assert.NoError(t, ElementAt("a", socket.Top).Validate())
	assert.NoError(t, PointAt(1, 2).Validate())
}

func TestStrokePathSurvivesDecoding(t *testing.T) {
	opts := DefaultOptions()
	opts.Path = path.Fluid
	g, err := Compute(pointAnchor(0, 0, socket.Right), pointAnchor(200, 120, socket.Left), opts)
	require.NoError(t, err)

	data, err := json.Marshal(g)
	require.NoError(t, err)
	var back Geometry
	require.NoError(t, json.Unmarshal(data, &back))

	assert.Nil(t, back.Path())
	assert.Equal(t, g.StrokeCommand, path.Serialize(back.StrokePath()).Command)
	assert.Equal(t, g.StrokeCommand, path.Serialize(g.StrokePath()).Command)
}
