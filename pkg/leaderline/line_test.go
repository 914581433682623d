package leaderline

import (
	"context"
	stderrors "errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/leaderline/pkg/attach"
	"github.com/matzehuels/leaderline/pkg/color"
	"github.com/matzehuels/leaderline/pkg/errors"
	"github.com/matzehuels/leaderline/pkg/geom"
	"github.com/matzehuels/leaderline/pkg/label"
	"github.com/matzehuels/leaderline/pkg/path"
	"github.com/matzehuels/leaderline/pkg/plug"
	"github.com/matzehuels/leaderline/pkg/socket"
)

// board is a mutable set of element boxes used as a Measurer.
type board struct {
	mu    sync.Mutex
	boxes map[attach.Element]geom.Box
	fail  atomic.Bool
}

func newBoard() *board {
	return &board{boxes: map[attach.Element]geom.Box{
		"a": {X: 0, Y: 0, W: 100, H: 50},
		"b": {X: 300, Y: 0, W: 100, H: 50},
	}}
}

func (b *board) Measure(_ context.Context, el attach.Element) (geom.Box, error) {
	if b.fail.Load() {
		return geom.Box{}, stderrors.New("element detached")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	box, ok := b.boxes[el]
	if !ok {
		return geom.Box{}, stderrors.New("no such element")
	}
	return box, nil
}

func (b *board) move(el attach.Element, box geom.Box) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.boxes[el] = box
}

func newTestLine(t *testing.T, b *board, opts Options, ropts ...attach.Option) (*Line, *attach.Reconciler) {
	t.Helper()
	r := attach.New(b, append([]attach.Option{attach.WithThrottle(0)}, ropts...)...)
	t.Cleanup(r.Close)

	l, err := NewLine(r, ElementAt("a", socket.Auto), ElementAt("b", socket.Auto), opts)
	require.NoError(t, err)
	t.Cleanup(l.Close)
	waitFor(t, func() bool { return l.Geometry() != nil })
	return l, r
}

// quiesce waits until both ends settled and their queued notifications
// have been delivered.
func quiesce(t *testing.T, r *attach.Reconciler) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, r.Settle(ctx))
	time.Sleep(50 * time.Millisecond)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 5*time.Millisecond)
}

func TestLineConnects(t *testing.T) {
	opts := DefaultOptions()
	opts.Path = path.Straight
	l, _ := newTestLine(t, newBoard(), opts)

	g := l.Geometry()
	assert.Equal(t, geom.Pt(100, 25), g.Start)
	assert.Equal(t, geom.Pt(300, 25), g.End)
	assert.True(t, g.Visible)
	assert.False(t, g.Stale)
	assert.Equal(t, uint64(1), l.Revision())
}

func TestLineStylePatchKeepsRoute(t *testing.T) {
	l, _ := newTestLine(t, newBoard(), DefaultOptions())
	before := l.Geometry()
	rev := l.Revision()

	require.NoError(t, l.Apply(Patch{
		Color:        ptr("navy"),
		Size:         ptr(2.0),
		OutlineColor: ptr("auto"),
		Dash:         &Dash{Enabled: true},
	}))

	after := l.Geometry()
	assert.Equal(t, rev, l.Revision())
	assert.Equal(t, before.Command, after.Command)
	assert.Equal(t, "navy", after.Stroke.Color)
	assert.Equal(t, 2.0, after.Stroke.Width)
	assert.Equal(t, []float64{4, 2}, after.Stroke.DashArray)
	assert.Equal(t, "coral", before.Stroke.Color, "previous geometry is never mutated")
}

func TestLineGeometryPatchReroutes(t *testing.T) {
	l, _ := newTestLine(t, newBoard(), DefaultOptions())
	rev := l.Revision()

	require.NoError(t, l.Apply(Patch{Path: ptr(path.Grid), EndSocket: ptr(socket.Bottom)}))
	assert.Equal(t, rev+1, l.Revision())

	g := l.Geometry()
	assert.Equal(t, path.Grid, g.PathType)
	assert.Equal(t, socket.Bottom, g.EndSocket)
	assert.Equal(t, geom.Pt(350, 50), g.End)
}

func TestLineInvalidPatchChangesNothing(t *testing.T) {
	l, _ := newTestLine(t, newBoard(), DefaultOptions())
	before := l.Options()

	err := l.Apply(Patch{Color: ptr("blurple"), Path: ptr(path.Grid)})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidColor))
	assert.Equal(t, before, l.Options())

	err = l.Apply(Patch{StartSocket: ptr(socket.Socket(77))})
	assert.True(t, errors.Is(err, errors.ErrCodeUnsupportedSocket))
}

func TestLineFollowsMovedElement(t *testing.T) {
	b := newBoard()
	opts := DefaultOptions()
	opts.Path = path.Straight
	l, _ := newTestLine(t, b, opts)
	rev := l.Revision()

	b.move("b", geom.Box{X: 0, Y: 300, W: 100, H: 50})
	require.NoError(t, l.Remeasure())

	waitFor(t, func() bool { return l.Geometry().End == geom.Pt(50, 300) })
	assert.Equal(t, socket.Bottom, l.Geometry().StartSocket)
	assert.Greater(t, l.Revision(), rev)
}

func TestLineUnchangedLayoutDoesNotReroute(t *testing.T) {
	b := newBoard()
	l, r := newTestLine(t, b, DefaultOptions())
	rev := l.Revision()

	require.NoError(t, l.Remeasure())
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, r.Settle(ctx))
	assert.Equal(t, rev, l.Revision())
}

func TestLineStaleWhenDisconnected(t *testing.T) {
	b := newBoard()
	l, _ := newTestLine(t, b, DefaultOptions(), attach.WithMaxFailures(1))
	start := l.Geometry().Start

	b.fail.Store(true)
	require.NoError(t, l.Remeasure())

	waitFor(t, func() bool { return l.Geometry().Stale })
	assert.Equal(t, start, l.Geometry().Start, "last known position is kept")
}

func TestLineShowHide(t *testing.T) {
	r := attach.New(newBoard())
	defer r.Close()
	l, err := NewLine(r, PointAt(0, 0), PointAt(100, 100), DefaultOptions())
	require.NoError(t, err)
	defer l.Close()
	rev := l.Revision()

	var seen []bool
	var mu sync.Mutex
	cancel := l.OnChange(func(g *Geometry) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, g.Visible)
	})
	defer cancel()

	l.Hide()
	assert.False(t, l.Geometry().Visible)
	l.Hide()
	l.Show()
	assert.True(t, l.Geometry().Visible)
	assert.Equal(t, rev, l.Revision())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []bool{false, true}, seen)
}

func TestLineWithFixedPoints(t *testing.T) {
	r := attach.New(newBoard())
	defer r.Close()

	opts := DefaultOptions()
	opts.Path = path.Grid
	start := PointAt(50, 50)
	start.Socket = socket.Right
	end := PointAt(250, 150)
	end.Socket = socket.Left

	l, err := NewLine(r, start, end, opts)
	require.NoError(t, err)
	defer l.Close()

	g := l.Geometry()
	require.NotNil(t, g, "fixed points are connected on mount")
	assert.Equal(t, "M50,50 L150,50 L150,150 L250,150", g.Command)
}

func TestNewLineRejectsBadInput(t *testing.T) {
	r := attach.New(newBoard())
	defer r.Close()

	_, err := NewLine(r, Attachment{}, ElementAt("b", socket.Auto), DefaultOptions())
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidAttachment))

	_, err = NewLine(r, ElementAt("a", socket.Auto), ElementAt("b", socket.Auto), Options{Path: path.Type(9)})
	assert.True(t, errors.Is(err, errors.ErrCodeUnsupportedPathType))
}

func TestLineCloseUnmounts(t *testing.T) {
	l, r := newTestLine(t, newBoard(), DefaultOptions())
	s, e := l.Endpoints()
	l.Close()

	_, ok := r.State(s)
	assert.False(t, ok)
	_, ok = r.State(e)
	assert.False(t, ok)
	assert.NotNil(t, l.Geometry())
	assert.Error(t, l.Apply(Patch{Color: ptr("red")}))
}

func TestLineAnimateMovesDashOffset(t *testing.T) {
	opts := DefaultOptions()
	opts.Dash = Dash{Enabled: true, Animate: true}
	l, _ := newTestLine(t, newBoard(), opts)
	rev := l.Revision()

	l.Animate(0)
	a := l.Geometry().Stroke.DashOffset
	l.Animate(0.5)
	b := l.Geometry().Stroke.DashOffset
	assert.NotEqual(t, a, b)
	assert.Equal(t, rev, l.Revision())
}

func TestLineAnimateReusesDecoration(t *testing.T) {
	opts := DefaultOptions()
	opts.Dash = Dash{Enabled: true, Animate: true}
	opts.Outline = plug.OutlineOptions{Enabled: true, Color: color.Auto}
	opts.EndPlug.Color = color.Auto
	opts.Labels = label.Set{Middle: label.Text("query")}
	l, r := newTestLine(t, newBoard(), opts)
	quiesce(t, r)

	before := l.Geometry()
	var frames atomic.Int32
	l.OnChange(func(*Geometry) { frames.Add(1) })
	for i := 0; i < 10; i++ {
		l.Animate(float64(i) / 10)
	}
	after := l.Geometry()

	assert.GreaterOrEqual(t, frames.Load(), int32(10))
	assert.NotEqual(t, before.Stroke.DashOffset, after.Stroke.DashOffset)
	assert.Same(t, before.Outline, after.Outline, "outline color is resolved once")
	require.Len(t, after.Plugs, 1)
	assert.Same(t, &before.Plugs[0], &after.Plugs[0], "plug color is resolved once")
	assert.Same(t, &before.Labels[0], &after.Labels[0])
	assert.Equal(t, before.StrokeCommand, after.StrokeCommand)
}

func TestLineAnimateWithoutDashIsNoop(t *testing.T) {
	l, r := newTestLine(t, newBoard(), DefaultOptions())
	quiesce(t, r)
	before := l.Geometry()
	l.Animate(0.5)
	assert.Same(t, before, l.Geometry())
}
