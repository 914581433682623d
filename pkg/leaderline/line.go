package leaderline

import (
	"context"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/leaderline/pkg/anim"
	"github.com/matzehuels/leaderline/pkg/attach"
	"github.com/matzehuels/leaderline/pkg/errors"
	"github.com/matzehuels/leaderline/pkg/label"
	"github.com/matzehuels/leaderline/pkg/observability"
	"github.com/matzehuels/leaderline/pkg/path"
	"github.com/matzehuels/leaderline/pkg/plug"
	"github.com/matzehuels/leaderline/pkg/socket"
)

// Patch is a partial update of a line's options. Nil fields are left
// unchanged.
//
// Style fields only re-derive strokes, plugs and labels from the cached
// route. Geometry fields (Path, Curvature, sockets, Labels and plug kinds)
// regenerate the path and bump the revision.
type Patch struct {
	// Geometry
	Path        *path.Type
	Curvature   *float64
	StartSocket *socket.Socket
	EndSocket   *socket.Socket
	Labels      *label.Set
	StartPlug   *plug.Kind
	EndPlug     *plug.Kind

	// Style
	Color          *string
	Size           *float64
	Opacity        *float64
	StartPlugColor *string
	EndPlugColor   *string
	StartPlugSize  *float64
	EndPlugSize    *float64
	Outline        *plug.OutlineOptions
	OutlineColor   *string
	Dash           *Dash
	Shadow         *Shadow
}

// Geometric reports whether p requires a new path.
func (p Patch) Geometric() bool {
	return p.Path != nil || p.Curvature != nil ||
		p.StartSocket != nil || p.EndSocket != nil ||
		p.Labels != nil || p.StartPlug != nil || p.EndPlug != nil
}

// fields lists the names of the style fields set in p.
func (p Patch) fields() []string {
	var out []string
	add := func(set bool, name string) {
		if set {
			out = append(out, name)
		}
	}
	add(p.Color != nil, "color")
	add(p.Size != nil, "size")
	add(p.Opacity != nil, "opacity")
	add(p.StartPlugColor != nil, "start_plug_color")
	add(p.EndPlugColor != nil, "end_plug_color")
	add(p.StartPlugSize != nil, "start_plug_size")
	add(p.EndPlugSize != nil, "end_plug_size")
	add(p.Outline != nil, "outline")
	add(p.OutlineColor != nil, "outline_color")
	add(p.Dash != nil, "dash")
	add(p.Shadow != nil, "shadow")
	return out
}

func (p Patch) apply(o Options, start, end socket.Socket) (Options, socket.Socket, socket.Socket) {
	if p.Path != nil {
		o.Path = *p.Path
	}
	if p.Curvature != nil {
		c := *p.Curvature
		o.Curvature = &c
	}
	if p.StartSocket != nil {
		start = *p.StartSocket
	}
	if p.EndSocket != nil {
		end = *p.EndSocket
	}
	if p.Labels != nil {
		o.Labels = *p.Labels
	}
	if p.StartPlug != nil {
		o.StartPlug.Kind = *p.StartPlug
	}
	if p.EndPlug != nil {
		o.EndPlug.Kind = *p.EndPlug
	}
	if p.Color != nil {
		o.Color = *p.Color
	}
	if p.Size != nil {
		o.Size = *p.Size
	}
	if p.Opacity != nil {
		o.Opacity = *p.Opacity
	}
	if p.StartPlugColor != nil {
		o.StartPlug.Color = *p.StartPlugColor
	}
	if p.EndPlugColor != nil {
		o.EndPlug.Color = *p.EndPlugColor
	}
	if p.StartPlugSize != nil {
		o.StartPlug.Size = *p.StartPlugSize
	}
	if p.EndPlugSize != nil {
		o.EndPlug.Size = *p.EndPlugSize
	}
	if p.Outline != nil {
		o.Outline = *p.Outline
	}
	if p.OutlineColor != nil {
		o.Outline.Color = *p.OutlineColor
	}
	if p.Dash != nil {
		o.Dash = *p.Dash
	}
	if p.Shadow != nil {
		o.Shadow = *p.Shadow
	}
	return o, start, end
}

// LineOption configures a Line.
type LineOption func(*Line)

// WithLineLogger sets the logger for recomputation events.
func WithLineLogger(l *log.Logger) LineOption {
	return func(ln *Line) {
		if l != nil {
			ln.logger = l
		}
	}
}

// Line is a live connector between two attachments. It mounts both ends on
// a Reconciler and recomputes its Geometry whenever either end publishes a
// new state. All methods are safe for concurrent use.
type Line struct {
	id     string
	r      *attach.Reconciler
	logger *log.Logger

	mu       sync.Mutex
	ends     [2]Attachment
	ids      [2]attach.ID
	opts     Options
	route    *route
	geom     *Geometry
	visible  bool
	progress float64
	revision uint64
	err      error
	closed   bool

	nextListener int
	listeners    map[int]func(*Geometry)
	unsubs       []func()
}

// NewLine validates both attachments and options, mounts the ends on r and
// returns the live line. Geometry is nil until both ends have been
// measured at least once.
func NewLine(r *attach.Reconciler, start, end Attachment, opts Options, lopts ...LineOption) (*Line, error) {
	for _, a := range []Attachment{start, end} {
		if err := a.Validate(); err != nil {
			return nil, err
		}
	}
	norm, err := opts.Normalize()
	if err != nil {
		return nil, err
	}

	l := &Line{
		id:        string(attach.NewID()),
		r:         r,
		logger:    log.New(io.Discard),
		ends:      [2]Attachment{start, end},
		opts:      norm,
		visible:   true,
		listeners: make(map[int]func(*Geometry)),
	}
	for _, opt := range lopts {
		opt(l)
	}

	for i, a := range l.ends {
		id, err := mount(r, a)
		if err != nil {
			l.Close()
			return nil, err
		}
		l.ids[i] = id
		cancel, err := r.Subscribe(id, func(attach.State) { l.refresh(false) })
		if err != nil {
			l.Close()
			return nil, err
		}
		l.unsubs = append(l.unsubs, cancel)
	}
	l.refresh(false)
	return l, nil
}

func mount(r *attach.Reconciler, a Attachment) (attach.ID, error) {
	if a.Point != nil {
		return r.MountPoint(*a.Point, a.Socket)
	}
	return r.Mount(a.Element, a.Socket)
}

// ID returns the line's identifier.
func (l *Line) ID() string { return l.id }

// Endpoints returns the reconciler IDs of the start and end attachments.
func (l *Line) Endpoints() (start, end attach.ID) { return l.ids[0], l.ids[1] }

// Geometry returns the latest computed geometry, or nil if either end has
// not been measured yet. The returned value must not be modified.
func (l *Line) Geometry() *Geometry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.geom
}

// Err returns the error of the most recent computation, if any.
func (l *Line) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Revision counts path generations. Style patches leave it unchanged.
func (l *Line) Revision() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.revision
}

// Options returns the normalized options currently in effect.
func (l *Line) Options() Options {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.opts
}

// Show makes the line visible.
func (l *Line) Show() { l.setVisible(true) }

// Hide hides the line without discarding its geometry.
func (l *Line) Hide() { l.setVisible(false) }

func (l *Line) setVisible(v bool) {
	l.mu.Lock()
	if l.closed || l.visible == v {
		l.mu.Unlock()
		return
	}
	l.visible = v
	if l.geom != nil {
		g := *l.geom
		g.Visible = v
		l.geom = &g
	}
	l.notifyUnlock()
}

// Remeasure forces both element ends to be measured again, bypassing the
// reconciler's throttle.
func (l *Line) Remeasure() error {
	for _, id := range l.ids {
		if err := l.r.ForceUpdate(id); err != nil {
			return err
		}
	}
	return nil
}

// Refresh recomputes the geometry from the endpoint states the reconciler
// currently holds, without waiting for its notifications.
func (l *Line) Refresh() { l.refresh(false) }

// Animate re-derives the dash offset for progress in [0, 1]. Only the
// offset changes: the path, plugs, labels and resolved colors of the
// current geometry are shared with the new one.
func (l *Line) Animate(progress float64) {
	l.mu.Lock()
	l.progress = progress
	d := l.opts.Dash
	if l.closed || l.geom == nil || !d.Enabled || !d.Animate {
		l.mu.Unlock()
		return
	}
	g := *l.geom
	g.Stroke.DashOffset = anim.DashOffset(anim.Linear, d.Len, d.Gap, progress)
	l.geom = &g
	l.notifyUnlock()
}

// Apply merges p into the line's options. The patch is validated as a
// whole; on error nothing changes.
func (l *Line) Apply(p Patch) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return errors.New(errors.ErrCodeInternal, "line %s is closed", l.id)
	}
	next, ss, es := p.apply(l.opts, l.ends[0].Socket, l.ends[1].Socket)
	norm, err := next.Normalize()
	if err == nil && (!ss.Valid() || !es.Valid()) {
		err = errors.New(errors.ErrCodeUnsupportedSocket, "unknown socket in patch")
	}
	if err != nil {
		l.mu.Unlock()
		return err
	}
	l.opts = norm
	l.ends[0].Socket, l.ends[1].Socket = ss, es
	geometric := p.Geometric()
	l.mu.Unlock()

	if !geometric {
		observability.Line().OnStylePatch(context.Background(), p.fields())
	}
	l.refresh(geometric)
	return l.Err()
}

// OnChange calls fn with every new geometry, including visibility changes.
// The returned function removes the listener.
func (l *Line) OnChange(fn func(*Geometry)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextListener++
	id := l.nextListener
	l.listeners[id] = fn
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.listeners, id)
	}
}

// Close unmounts both ends and stops recomputation. The last geometry stays
// readable.
func (l *Line) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	unsubs := l.unsubs
	l.unsubs = nil
	l.listeners = map[int]func(*Geometry){}
	l.mu.Unlock()

	for _, u := range unsubs {
		u()
	}
	for _, id := range l.ids {
		if id != "" {
			l.r.Unmount(id)
		}
	}
}

// refresh recomputes the geometry from the current endpoint states. The
// route is reused unless reroute is set or an anchor moved.
func (l *Line) refresh(reroute bool) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}

	var anchors [2]Anchor
	stale := false
	for i, id := range l.ids {
		st, ok := l.r.State(id)
		if !ok {
			l.mu.Unlock()
			return
		}
		a, ok := AnchorFromState(st, l.ends[i].Socket)
		if !ok {
			l.mu.Unlock()
			return
		}
		anchors[i] = a
		stale = stale || st.Phase == attach.Disconnected
	}

	if reroute || l.route == nil || l.route.anchors != anchors || l.route.pathCfg.Type != l.opts.Path ||
		!sameCurvature(l.route.pathCfg.Curvature, l.opts.Curvature) {
		rt, err := newRoute(anchors[0], anchors[1], l.opts)
		if err != nil {
			l.err = err
			l.mu.Unlock()
			return
		}
		l.route = rt
		l.revision++
		l.logger.Debug("line rerouted", "id", l.id, "revision", l.revision, "length", rt.full.Length)
	}

	g, err := decorate(l.route, l.opts, l.progress)
	if err != nil {
		l.err = err
		l.mu.Unlock()
		return
	}
	g.Visible = l.visible
	g.Stale = stale
	l.geom = g
	l.err = nil
	l.notifyUnlock()
}

// notifyUnlock releases l.mu and delivers the current geometry to all
// listeners.
func (l *Line) notifyUnlock() {
	g := l.geom
	fns := make([]func(*Geometry), 0, len(l.listeners))
	for id := 1; id <= l.nextListener; id++ {
		if fn, ok := l.listeners[id]; ok {
			fns = append(fns, fn)
		}
	}
	l.mu.Unlock()
	if g == nil {
		return
	}
	for _, fn := range fns {
		fn(g)
	}
}

func sameCurvature(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
