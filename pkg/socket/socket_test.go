package socket

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/leaderline/pkg/errors"
	"github.com/matzehuels/leaderline/pkg/geom"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Socket
	}{
		{"", Auto},
		{"auto", Auto},
		{"center", Center},
		{"Top", Top},
		{"top_left", TopLeft},
		{"top-left", TopLeft},
		{"topLeft", TopLeft},
		{" bottom_right ", BottomRight},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		require.NoError(t, err, "Parse(%q)", tt.in)
		assert.Equal(t, tt.want, got, "Parse(%q)", tt.in)
	}

	_, err := Parse("middle")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeUnsupportedSocket))
}

func TestStringRoundTrip(t *testing.T) {
	for _, s := range append([]Socket{Auto}, All...) {
		got, err := Parse(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	assert.Equal(t, "socket(42)", Socket(42).String())
}

func TestResolveFixedSockets(t *testing.T) {
	box := geom.Box{X: 10, Y: 20, W: 100, H: 50}
	tests := []struct {
		s    Socket
		want geom.Point
	}{
		{Center, geom.Pt(60, 45)},
		{Top, geom.Pt(60, 20)},
		{Right, geom.Pt(110, 45)},
		{Bottom, geom.Pt(60, 70)},
		{Left, geom.Pt(10, 45)},
		{TopLeft, geom.Pt(10, 20)},
		{TopRight, geom.Pt(110, 20)},
		{BottomLeft, geom.Pt(10, 70)},
		{BottomRight, geom.Pt(110, 70)},
	}
	other := geom.Pt(1000, 1000)
	for _, tt := range tests {
		pt, side, err := Resolve(box, tt.s, &other)
		require.NoError(t, err)
		assert.Equal(t, tt.s, side, "explicit socket is kept")
		assert.Equal(t, tt.want, pt, "socket %s", tt.s)
		assert.True(t, box.Contains(pt))
	}
}

func TestResolveAuto(t *testing.T) {
	box := geom.Box{X: 0, Y: 0, W: 100, H: 50}
	tests := []struct {
		name     string
		opposing geom.Point
		want     Socket
	}{
		{"far right", geom.Pt(300, 25), Right},
		{"far left", geom.Pt(-300, 25), Left},
		{"below", geom.Pt(50, 200), Bottom},
		{"above", geom.Pt(50, -200), Top},
		{"diagonal down right", geom.Pt(150, 75), BottomRight},
		{"diagonal up left", geom.Pt(-50, -25), TopLeft},
		{"diagonal up right", geom.Pt(150, -25), TopRight},
		{"diagonal down left", geom.Pt(-50, 75), BottomLeft},
		{"at center", geom.Pt(50, 25), Center},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, side, err := Resolve(box, Auto, &tt.opposing)
			require.NoError(t, err)
			assert.Equal(t, tt.want, side)
		})
	}
}

func TestResolveAutoWithoutOpposingIsCenter(t *testing.T) {
	box := geom.Box{X: 0, Y: 0, W: 40, H: 40}
	pt, side, err := Resolve(box, Auto, nil)
	require.NoError(t, err)
	assert.Equal(t, Center, side)
	assert.Equal(t, geom.Pt(20, 20), pt)
}

func TestResolveAutoIsDeterministic(t *testing.T) {
	box := geom.Box{X: 3, Y: 7, W: 120, H: 30}
	other := geom.Pt(400, -90)
	p1, s1, _ := Resolve(box, Auto, &other)
	p2, s2, _ := Resolve(box, Auto, &other)
	assert.Equal(t, p1, p2)
	assert.Equal(t, s1, s2)
}

func TestResolveAutoFlipsWithOpposingDirection(t *testing.T) {
	box := geom.Box{X: 0, Y: 0, W: 100, H: 100}
	c := box.Center()
	angles := []float64{0, 10, 20, 40, 45, 50, 70, 80, 90, 100, 135, 160, 200, 225, 250, 300, 315, 340}
	for _, deg := range angles {
		rad := deg * math.Pi / 180
		v := geom.Vec{X: math.Cos(rad), Y: math.Sin(rad)}.Scale(200)
		a, b := c.Add(v), c.Add(v.Neg())

		_, sa, err := Resolve(box, Auto, &a)
		require.NoError(t, err)
		_, sb, err := Resolve(box, Auto, &b)
		require.NoError(t, err)
		assert.Equal(t, sa.Opposite(), sb, "angle %v: %s vs %s", deg, sa, sb)
	}
}

func TestResolveDegenerateBox(t *testing.T) {
	box := geom.PointBox(geom.Pt(10, 10))
	other := geom.Pt(0, 100)
	for _, s := range append([]Socket{Auto}, All...) {
		pt, side, err := Resolve(box, s, &other)
		require.NoError(t, err)
		assert.Equal(t, geom.Pt(10, 10), pt)
		assert.NotEqual(t, Auto, side)
	}

	// A zero-size box classifies by the raw direction.
	_, side, _ := Resolve(box, Auto, &other)
	assert.Equal(t, Bottom, side)
}

func TestResolveRejectsUnknownSocket(t *testing.T) {
	_, _, err := Resolve(geom.Box{W: 1, H: 1}, Socket(99), nil)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeUnsupportedSocket, errors.GetCode(err))
}

func TestNormalAndOpposite(t *testing.T) {
	assert.Equal(t, geom.Vec{X: 0, Y: -1}, Top.Normal())
	assert.Equal(t, geom.Vec{X: 1, Y: 0}, Right.Normal())
	assert.True(t, Center.Normal().IsZero())
	assert.InDelta(t, 1.0, BottomRight.Normal().Len(), 1e-12)

	for _, s := range All {
		assert.Equal(t, s, s.Opposite().Opposite())
		if s != Center {
			n := s.Normal().Add(s.Opposite().Normal())
			assert.True(t, n.IsZero(), "%s normal should negate its opposite", s)
		}
	}
}

func TestTextMarshaling(t *testing.T) {
	b, err := TopRight.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "top_right", string(b))

	var s Socket
	require.NoError(t, s.UnmarshalText([]byte("bottom-left")))
	assert.Equal(t, BottomLeft, s)
	assert.Error(t, s.UnmarshalText([]byte("nowhere")))
}
