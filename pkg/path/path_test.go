package path

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/leaderline/pkg/errors"
	"github.com/matzehuels/leaderline/pkg/geom"
	"github.com/matzehuels/leaderline/pkg/socket"
)

const tol = 1e-3

func assertNear(t *testing.T, want, got geom.Point, msgAndArgs ...any) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, tol, msgAndArgs...)
	assert.InDelta(t, want.Y, got.Y, tol, msgAndArgs...)
}

func TestParseType(t *testing.T) {
	for _, typ := range Types {
		got, err := ParseType(typ.String())
		require.NoError(t, err)
		assert.Equal(t, typ, got)
	}
	got, err := ParseType("")
	require.NoError(t, err)
	assert.Equal(t, Fluid, got)
	var zero Type
	assert.Equal(t, Fluid, zero, "the empty name and the zero value agree")
	assert.False(t, Type(-1).Valid())
	assert.False(t, Type(len(Types)).Valid())

	_, err = ParseType("zigzag")
	assert.True(t, errors.Is(err, errors.ErrCodeUnsupportedPathType))
}

func TestEffectiveCurvature(t *testing.T) {
	tests := []struct {
		cfg  Config
		want float64
	}{
		{Config{Type: Arc}, 0.2},
		{Config{Type: Fluid}, 0.4},
		{Config{Type: Magnet}, 0.5},
		{Config{Type: Straight}, 0},
		{Config{Type: Grid}, 0},
		{Config{Type: Arc, Curvature: Curvature(0.7)}, 0.7},
		{Config{Type: Arc, Curvature: Curvature(5)}, 1},
		{Config{Type: Arc, Curvature: Curvature(-1)}, 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, tt.cfg.EffectiveCurvature(), 1e-12, "%s", tt.cfg.Type)
	}
}

func TestGenerateUnknownType(t *testing.T) {
	_, err := Generate(geom.Pt(0, 0), socket.Right, geom.Pt(10, 0), socket.Left, Config{Type: Type(42)})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeUnsupportedPathType, errors.GetCode(err))
}

func TestGenerateDegenerate(t *testing.T) {
	p := geom.Pt(12, 34)
	for _, typ := range Types {
		d, err := Generate(p, socket.Right, p, socket.Left, Config{Type: typ})
		require.NoError(t, err)
		assert.Len(t, d.Segments, 1, "%s", typ)
		assert.Equal(t, MoveTo, d.Segments[0].Op)
		assert.Zero(t, d.Length)
		assert.True(t, d.IsEmpty())

		s := Serialize(d)
		assert.Equal(t, "M12,34", s.Command)
		assert.Equal(t, p, s.PointAt(0.5))
		assert.True(t, s.TangentAt(0.5).IsZero())
	}
}

func TestEndpointsExactForEveryType(t *testing.T) {
	sides := [][2]socket.Socket{
		{socket.Right, socket.Left},
		{socket.Bottom, socket.Top},
		{socket.Right, socket.Right},
		{socket.Top, socket.Left},
		{socket.Center, socket.Center},
		{socket.TopRight, socket.BottomLeft},
	}
	start, end := geom.Pt(10, 20), geom.Pt(230, -75)
	for _, typ := range Types {
		for _, sd := range sides {
			d, err := Generate(start, sd[0], end, sd[1], Config{Type: typ})
			require.NoError(t, err)
			s := Serialize(d)

			assertNear(t, start, s.PointAt(0), "%s %v start", typ, sd)
			assertNear(t, end, s.PointAt(1), "%s %v end", typ, sd)
			assert.Greater(t, s.Length, 0.0)
			assert.InDelta(t, d.Length, s.Length, 1e-9)
			assert.GreaterOrEqual(t, s.Length, start.Distance(end)-tol, "no path is shorter than its chord")
		}
	}
}

func TestSerializeIsIdempotent(t *testing.T) {
	d, err := Generate(geom.Pt(0, 0), socket.Right, geom.Pt(140, 90), socket.Top, Config{Type: Fluid})
	require.NoError(t, err)

	a, b := Serialize(d), Serialize(d)
	assert.Equal(t, a.Command, b.Command)
	assert.Equal(t, a.Length, b.Length)
	assert.Equal(t, a.Points(), b.Points())
}

func TestStraight(t *testing.T) {
	d, err := Generate(geom.Pt(0, 0), socket.Right, geom.Pt(30, 40), socket.Left, Config{Type: Straight})
	require.NoError(t, err)
	s := Serialize(d)

	assert.Equal(t, "M0,0 L30,40", s.Command)
	assert.InDelta(t, 50.0, s.Length, 1e-12)
	assertNear(t, geom.Pt(15, 20), s.PointAt(0.5))
	assert.InDelta(t, 0.6, s.TangentAt(0.3).X, 1e-12)
}

func TestArcBulgesTowardStartExit(t *testing.T) {
	start, end := geom.Pt(0, 0), geom.Pt(100, 0)

	down, err := Generate(start, socket.Bottom, end, socket.Bottom, Config{Type: Arc})
	require.NoError(t, err)
	up, err := Generate(start, socket.Top, end, socket.Top, Config{Type: Arc})
	require.NoError(t, err)

	// Quadratic control point sits 0.2*100 off the chord, so the curve apex
	// is half of that.
	assert.InDelta(t, 10.0, Serialize(down).PointAt(0.5).Y, 0.05)
	assert.InDelta(t, -10.0, Serialize(up).PointAt(0.5).Y, 0.05)
	assert.Equal(t, CubicTo, down.Segments[1].Op)
}

func TestFluidControlPointsFollowSockets(t *testing.T) {
	start, end := geom.Pt(0, 0), geom.Pt(100, 100)
	d, err := Generate(start, socket.Right, end, socket.Left, Config{Type: Fluid})
	require.NoError(t, err)

	c := d.Segments[1]
	reach := 0.4 * start.Distance(end)
	assertNear(t, geom.Pt(reach, 0), c.C1)
	assertNear(t, geom.Pt(100-reach, 100), c.C2)
}

func TestFluidCenterSocketFollowsChord(t *testing.T) {
	d, err := Generate(geom.Pt(0, 0), socket.Center, geom.Pt(100, 0), socket.Center, Config{Type: Fluid})
	require.NoError(t, err)
	c := d.Segments[1]
	assertNear(t, geom.Pt(40, 0), c.C1)
	assertNear(t, geom.Pt(60, 0), c.C2)
}

func TestMagnetReachIsFixed(t *testing.T) {
	tests := []struct {
		name  string
		end   geom.Point
		reach *float64
		want  float64
	}{
		{"short chord", geom.Pt(40, 0), nil, MagnetReach},
		{"mid chord", geom.Pt(100, 0), nil, MagnetReach},
		{"long chord", geom.Pt(400, 0), nil, MagnetReach},
		{"override", geom.Pt(100, 0), Reach(25), 25},
		{"override above max", geom.Pt(100, 0), Reach(500), magnetMaxReach},
		{"override below min", geom.Pt(100, 0), Reach(2), magnetMinReach},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{Type: Magnet, Curvature: Curvature(0), Reach: tt.reach}
			d, err := Generate(geom.Pt(0, 0), socket.Bottom, tt.end, socket.Bottom, cfg)
			require.NoError(t, err)
			assertNear(t, geom.Pt(tt.want, 0), d.Segments[1].C1)

			cfg.Curvature = Curvature(1)
			d, err = Generate(geom.Pt(0, 0), socket.Bottom, tt.end, socket.Bottom, cfg)
			require.NoError(t, err)
			assertNear(t, geom.Pt(0, tt.want), d.Segments[1].C1)
		})
	}
}

func TestGridTwoBendsForParallelExits(t *testing.T) {
	start, end := geom.Pt(50, 50), geom.Pt(250, 150)
	d, err := Generate(start, socket.Right, end, socket.Left, Config{Type: Grid})
	require.NoError(t, err)

	assert.Equal(t, 2, d.Bends())
	s := Serialize(d)
	assert.Equal(t, "M50,50 L150,50 L150,150 L250,150", s.Command)
	assert.Equal(t, start, s.PointAt(0))
	assert.Equal(t, end, s.PointAt(1))
	assert.InDelta(t, 300.0, s.Length, 1e-9)
}

func TestGridOneBendForPerpendicularExits(t *testing.T) {
	d, err := Generate(geom.Pt(50, 50), socket.Right, geom.Pt(250, 150), socket.Top, Config{Type: Grid})
	require.NoError(t, err)
	assert.Equal(t, 1, d.Bends())
	assert.Equal(t, "M50,50 L250,50 L250,150", Serialize(d).Command)

	d, err = Generate(geom.Pt(50, 50), socket.Bottom, geom.Pt(250, 150), socket.Left, Config{Type: Grid})
	require.NoError(t, err)
	assert.Equal(t, "M50,50 L50,150 L250,150", Serialize(d).Command)
}

func TestGridVerticalParallelExits(t *testing.T) {
	d, err := Generate(geom.Pt(0, 0), socket.Bottom, geom.Pt(100, 200), socket.Top, Config{Type: Grid})
	require.NoError(t, err)
	assert.Equal(t, "M0,0 L0,100 L100,100 L100,200", Serialize(d).Command)
}

func TestGridCollapsesAlignedPoints(t *testing.T) {
	d, err := Generate(geom.Pt(0, 10), socket.Right, geom.Pt(100, 10), socket.Left, Config{Type: Grid})
	require.NoError(t, err)
	assert.Equal(t, 0, d.Bends())
	assert.Equal(t, "M0,10 L100,10", Serialize(d).Command)
}

func TestGridCenterSocketsUseDominantAxis(t *testing.T) {
	d, err := Generate(geom.Pt(0, 0), socket.Center, geom.Pt(200, 50), socket.Center, Config{Type: Grid})
	require.NoError(t, err)
	assert.Equal(t, "M0,0 L100,0 L100,50 L200,50", Serialize(d).Command)
}

func TestFormatCoord(t *testing.T) {
	assert.Equal(t, "1.235", formatCoord(1.23456))
	assert.Equal(t, "0", formatCoord(-0.0001))
	assert.Equal(t, "-2.5", formatCoord(-2.5))
	assert.Equal(t, "100", formatCoord(100))
}

func TestTangents(t *testing.T) {
	d, err := Generate(geom.Pt(0, 0), socket.Right, geom.Pt(100, 100), socket.Top, Config{Type: Grid})
	require.NoError(t, err)
	s := Serialize(d)
	assert.Equal(t, geom.Vec{X: 1, Y: 0}, s.StartTangent())
	assert.Equal(t, geom.Vec{X: 0, Y: 1}, s.EndTangent())
	assert.Equal(t, geom.Vec{X: 1, Y: 0}, s.TangentAt(0.25))
	assert.Equal(t, geom.Vec{X: 0, Y: 1}, s.TangentAt(0.75))
}

func TestTrimStraight(t *testing.T) {
	d, err := Generate(geom.Pt(0, 0), socket.Right, geom.Pt(100, 0), socket.Left, Config{Type: Straight})
	require.NoError(t, err)

	trimmed := Trim(d, 10, 20)
	assert.Equal(t, geom.Pt(10, 0), trimmed.Start())
	assert.Equal(t, geom.Pt(80, 0), trimmed.End())
	assert.InDelta(t, 70.0, trimmed.Length, 1e-9)
	assert.InDelta(t, 100.0, d.Length, 1e-9, "input is not modified")
}

func TestTrimClampsToSegment(t *testing.T) {
	d, err := Generate(geom.Pt(0, 0), socket.Right, geom.Pt(10, 0), socket.Left, Config{Type: Straight})
	require.NoError(t, err)

	trimmed := Trim(d, 50, 50)
	assert.Greater(t, trimmed.Length, 0.0)
	assert.InDelta(t, 1.0, trimmed.Length, 1e-9)
}

func TestTrimCubic(t *testing.T) {
	d, err := Generate(geom.Pt(0, 0), socket.Right, geom.Pt(200, 120), socket.Left, Config{Type: Fluid})
	require.NoError(t, err)

	trimmed := Trim(d, 0, 15)
	assert.Equal(t, d.Start(), trimmed.Start())
	assert.InDelta(t, d.Length-15, trimmed.Length, 0.5)
	assert.InDelta(t, 15.0, trimmed.End().Distance(d.End()), 0.5)
}

func TestTrimGridOnlyTouchesEndSegments(t *testing.T) {
	d, err := Generate(geom.Pt(50, 50), socket.Right, geom.Pt(250, 150), socket.Left, Config{Type: Grid})
	require.NoError(t, err)

	trimmed := Trim(d, 5, 5)
	assert.Equal(t, "M55,50 L150,50 L150,150 L245,150", Serialize(trimmed).Command)
}

func TestTrimEmpty(t *testing.T) {
	p := geom.Pt(1, 1)
	d, err := Generate(p, socket.Center, p, socket.Center, Config{Type: Arc})
	require.NoError(t, err)
	assert.Equal(t, d, Trim(d, 5, 5))
}

func TestParseRoundTrip(t *testing.T) {
	for _, typ := range Types {
		d, err := Generate(geom.Pt(10, 20), socket.Right, geom.Pt(200, 140), socket.Top, Config{Type: typ})
		require.NoError(t, err)
		cmd := Serialize(d).Command

		parsed, err := Parse(cmd)
		require.NoError(t, err, typ.String())
		assert.Equal(t, cmd, Serialize(parsed).Command, typ.String())
		assert.InDelta(t, d.Length, parsed.Length, 0.01, typ.String())
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	for _, cmd := range []string{
		"L1,2",
		"M1,2 M3,4",
		"M1,2 L3",
		"M1,2 C1,2 3,4",
		"M1,x",
		"10,20",
	} {
		_, err := Parse(cmd)
		assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput), cmd)
	}

	d, err := Parse("")
	require.NoError(t, err)
	assert.True(t, d.IsEmpty())
}
