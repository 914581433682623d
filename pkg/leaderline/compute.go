package leaderline

import (
	"context"
	"time"

	"github.com/matzehuels/leaderline/pkg/anim"
	"github.com/matzehuels/leaderline/pkg/attach"
	"github.com/matzehuels/leaderline/pkg/errors"
	"github.com/matzehuels/leaderline/pkg/geom"
	"github.com/matzehuels/leaderline/pkg/label"
	"github.com/matzehuels/leaderline/pkg/observability"
	"github.com/matzehuels/leaderline/pkg/path"
	"github.com/matzehuels/leaderline/pkg/plug"
	"github.com/matzehuels/leaderline/pkg/socket"
)

// Anchor is a resolved line end: the box to attach to and the requested
// socket on it. Fixed points use a degenerate box.
type Anchor struct {
	Box    geom.Box      `json:"box"`
	Socket socket.Socket `json:"socket"`
}

// AnchorFromState builds an anchor from a reconciled endpoint, using
// requested as the socket. It returns false while the endpoint has never
// been measured.
func AnchorFromState(st attach.State, requested socket.Socket) (Anchor, bool) {
	if st.Layout == nil {
		return Anchor{}, false
	}
	return Anchor{Box: *st.Layout, Socket: requested}, true
}

// Stroke is the resolved primary stroke style.
type Stroke struct {
	Color      string    `json:"color" msgpack:"color"`
	Width      float64   `json:"width" msgpack:"width"`
	Opacity    float64   `json:"opacity" msgpack:"opacity"`
	DashArray  []float64 `json:"dash_array,omitempty" msgpack:"dash_array,omitempty"`
	DashOffset float64   `json:"dash_offset,omitempty" msgpack:"dash_offset,omitempty"`
	Animated   bool      `json:"animated,omitempty" msgpack:"animated,omitempty"`
}

// Geometry is the drawable result of one computation. It is never
// modified after it is returned.
type Geometry struct {
	Start       geom.Point    `json:"start" msgpack:"start"`
	End         geom.Point    `json:"end" msgpack:"end"`
	StartSocket socket.Socket `json:"start_socket" msgpack:"start_socket"`
	EndSocket   socket.Socket `json:"end_socket" msgpack:"end_socket"`
	PathType    path.Type     `json:"path_type" msgpack:"path_type"`

	// Command is the full path from socket to socket; Length is its arc
	// length. StrokeCommand is Command with the plug pull-backs removed and
	// is what the primary stroke and the outline draw.
	Command       string  `json:"command" msgpack:"command"`
	Length        float64 `json:"length" msgpack:"length"`
	StrokeCommand string  `json:"stroke_command" msgpack:"stroke_command"`

	Stroke  Stroke              `json:"stroke" msgpack:"stroke"`
	Outline *plug.OutlineStroke `json:"outline,omitempty" msgpack:"outline,omitempty"`
	Shadow  *Shadow             `json:"shadow,omitempty" msgpack:"shadow,omitempty"`
	Plugs   []plug.Transform    `json:"plugs,omitempty" msgpack:"plugs,omitempty"`
	Labels  []label.Placement   `json:"labels,omitempty" msgpack:"labels,omitempty"`
	Bounds  geom.Box            `json:"bounds" msgpack:"bounds"`

	// Empty is set when both ends coincide and there is nothing to draw.
	Empty bool `json:"empty,omitempty" msgpack:"empty,omitempty"`
	// Visible is false for hidden lines.
	Visible bool `json:"visible" msgpack:"visible"`
	// Stale is set when an endpoint is disconnected and its last known
	// position was used.
	Stale bool `json:"stale,omitempty" msgpack:"stale,omitempty"`

	path   *path.Serialized
	desc   path.Descriptor
	stroke path.Descriptor
}

// Path returns the serialized full path for arc-length queries. It is nil
// for geometry decoded from JSON or msgpack.
func (g *Geometry) Path() *path.Serialized { return g.path }

// StrokePath returns the segments of StrokeCommand, for rasterizers that
// draw segment by segment. Decoded geometry re-parses StrokeCommand.
func (g *Geometry) StrokePath() path.Descriptor {
	if len(g.stroke.Segments) == 0 && g.StrokeCommand != "" {
		if d, err := path.Parse(g.StrokeCommand); err == nil {
			return d
		}
	}
	return g.stroke
}

// OutlineCommand returns the path data of the outline stroke, which is
// the stroke path itself; it is empty when no outline is drawn.
func (g *Geometry) OutlineCommand() string {
	if g.Outline == nil {
		return ""
	}
	return g.StrokeCommand
}

// route is the result of socket resolution and path generation, reused by
// style-only updates.
type route struct {
	start, end geom.Point
	startSide  socket.Socket
	endSide    socket.Socket
	desc       path.Descriptor
	full       *path.Serialized
	anchors    [2]Anchor
	pathCfg    path.Config
}

// Compute resolves both anchors, generates and serializes the path, and
// derives plugs, outline and labels. It is pure: the same inputs always
// produce the same geometry.
func Compute(start, end Anchor, opts Options) (*Geometry, error) {
	began := time.Now()
	opts, err := opts.Normalize()
	if err != nil {
		return nil, err
	}
	rt, err := newRoute(start, end, opts)
	if err == nil {
		var g *Geometry
		g, err = decorate(rt, opts, 0)
		if err == nil {
			observability.Line().OnCompute(context.Background(), opts.Path.String(), g.Length, time.Since(began), nil)
			return g, nil
		}
	}
	observability.Line().OnCompute(context.Background(), opts.Path.String(), 0, time.Since(began), err)
	return nil, err
}

func newRoute(start, end Anchor, opts Options) (*route, error) {
	for _, a := range []Anchor{start, end} {
		if !a.Socket.Valid() {
			return nil, errors.New(errors.ErrCodeUnsupportedSocket, "unknown socket value %d", int(a.Socket))
		}
	}
	sc, ec := start.Box.Center(), end.Box.Center()
	sp, ss, err := socket.Resolve(start.Box, start.Socket, &ec)
	if err != nil {
		return nil, err
	}
	ep, es, err := socket.Resolve(end.Box, end.Socket, &sc)
	if err != nil {
		return nil, err
	}

	cfg := opts.pathConfig()
	d, err := path.Generate(sp, ss, ep, es, cfg)
	if err != nil {
		return nil, err
	}
	return &route{
		start: sp, end: ep, startSide: ss, endSide: es,
		desc: d, full: path.Serialize(d),
		anchors: [2]Anchor{start, end},
		pathCfg: cfg,
	}, nil
}

// decorate derives everything that depends on style from a route. It never
// regenerates the path. progress drives dash animation.
func decorate(rt *route, opts Options, progress float64) (*Geometry, error) {
	g := &Geometry{
		Start:       rt.start,
		End:         rt.end,
		StartSocket: rt.startSide,
		EndSocket:   rt.endSide,
		PathType:    opts.Path,
		Command:     rt.full.Command,
		Length:      rt.full.Length,
		Visible:     true,
		Stroke: Stroke{
			Color:   opts.Color,
			Width:   opts.Size,
			Opacity: opts.Opacity,
		},
		path:   rt.full,
		desc:   rt.desc,
		stroke: rt.desc,
	}

	if rt.desc.IsEmpty() {
		g.Empty = true
		g.StrokeCommand = rt.full.Command
		g.Bounds = geom.PointBox(rt.start)
		return g, nil
	}

	startPlug := plug.Place(rt.full, plug.AtStart, opts.StartPlug, opts.Size)
	endPlug := plug.Place(rt.full, plug.AtEnd, opts.EndPlug, opts.Size)
	head, tail := plug.FitPullBacks(startPlug.PullBack, endPlug.PullBack, rt.full.Length)
	startPlug.PullBack, endPlug.PullBack = head, tail

	var err error
	for _, p := range []struct {
		tr   *plug.Transform
		spec plug.Spec
	}{{&startPlug, opts.StartPlug}, {&endPlug, opts.EndPlug}} {
		if !p.spec.Kind.Visible() {
			continue
		}
		if p.tr.Color, err = plug.Color(p.spec, opts.Color); err != nil {
			return nil, err
		}
		g.Plugs = append(g.Plugs, *p.tr)
	}
	g.stroke = path.Trim(rt.desc, head, tail)
	g.StrokeCommand = path.Serialize(g.stroke).Command

	outline, ok, err := plug.Outline(opts.Size, opts.Color, opts.Opacity, opts.Outline)
	if err != nil {
		return nil, err
	}
	if ok {
		g.Outline = &outline
	}

	if opts.Dash.Enabled {
		g.Stroke.DashArray = []float64{opts.Dash.Len, opts.Dash.Gap}
		g.Stroke.Animated = opts.Dash.Animate
		if opts.Dash.Animate {
			g.Stroke.DashOffset = anim.DashOffset(anim.Linear, opts.Dash.Len, opts.Dash.Gap, progress)
		}
	}
	if opts.Shadow.Enabled {
		s := opts.Shadow
		g.Shadow = &s
	}

	g.Labels = label.Layout(rt.full, opts.Labels)
	g.Bounds = bounds(g, opts)
	return g, nil
}

// bounds covers the path, the stroke, plugs and labels.
func bounds(g *Geometry, opts Options) geom.Box {
	b := g.path.Bounds()
	pad := opts.Size / 2
	if g.Outline != nil {
		pad = g.Outline.Width / 2
	}
	for _, p := range g.Plugs {
		s := plug.ShapeOf(p.Kind)
		pad = max(pad, max(s.Length, s.Width)*p.Scale)
	}
	b = b.Expand(pad)
	for _, l := range g.Labels {
		b = b.Union(l.Box)
	}
	return b
}
