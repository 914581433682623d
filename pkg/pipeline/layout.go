package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/leaderline/pkg/attach"
	"github.com/matzehuels/leaderline/pkg/errors"
	"github.com/matzehuels/leaderline/pkg/leaderline"
	"github.com/matzehuels/leaderline/pkg/observability"
	"github.com/matzehuels/leaderline/pkg/render"
	"github.com/matzehuels/leaderline/pkg/scene"
)

// =============================================================================
// Reconciliation
// =============================================================================

// Reconcile measures the scene's elements, mounts one live line per scene
// line and waits until every endpoint has settled. The returned frame
// holds each line's final geometry in scene order; hidden lines keep
// their geometry with Visible unset.
//
// Lines whose endpoints could not be measured before the settle timeout
// fail the whole call with a TIMEOUT error.
func Reconcile(ctx context.Context, sc *scene.Scene, opts Options) (render.Frame, error) {
	opts.SetReconcileDefaults()
	began := time.Now()
	hooks := observability.Pipeline()
	hooks.OnReconcileStart(ctx, 2*len(sc.Lines))

	frame, err := reconcile(ctx, sc, opts)
	hooks.OnReconcileComplete(ctx, time.Since(began), err)
	return frame, err
}

func reconcile(ctx context.Context, sc *scene.Scene, opts Options) (render.Frame, error) {
	board := sc.NewBoard()
	board.SetLatency(opts.Latency)
	r := attach.New(board,
		attach.WithThrottle(0),
		attach.WithLayoutSource(board),
		attach.WithLogger(opts.Logger),
	)
	defer r.Close()

	lines, err := MountLines(r, sc, opts.Logger)
	if err != nil {
		return render.Frame{}, err
	}
	defer closeLines(lines)

	sctx, cancel := context.WithTimeout(ctx, opts.SettleTimeout)
	defer cancel()
	if err := r.Settle(sctx); err != nil {
		return render.Frame{}, err
	}

	frame := NewFrame(sc)
	for i, l := range lines {
		l.Refresh()
		if err := l.Err(); err != nil {
			return render.Frame{}, errors.Wrap(errors.ErrCodeInternal, err, "line %q", sc.Lines[i].ID)
		}
		g := l.Geometry()
		if g == nil {
			opts.Logger.Warn("line has no geometry", "line", sc.Lines[i].ID)
		} else if g.Stale {
			opts.Logger.Warn("line uses last known position", "line", sc.Lines[i].ID)
		}
		frame.Lines = append(frame.Lines, render.Line{ID: sc.Lines[i].ID, Geometry: g})
	}
	opts.Logger.Debug("reconciled scene", "elements", len(sc.Elements), "lines", len(lines))
	return frame, nil
}

// MountLines creates one live line per scene line on r, in scene order.
// Hidden lines are mounted hidden. On error every line created so far is
// closed.
func MountLines(r *attach.Reconciler, sc *scene.Scene, logger *log.Logger) ([]*leaderline.Line, error) {
	lines := make([]*leaderline.Line, 0, len(sc.Lines))
	for _, def := range sc.Lines {
		lo, err := def.Options()
		if err != nil {
			closeLines(lines)
			return nil, errors.Wrap(errors.ErrCodeInvalidScene, err, "line %q", def.ID)
		}
		start, end := def.Attachments()
		l, err := leaderline.NewLine(r, start, end, lo, leaderline.WithLineLogger(logger))
		if err != nil {
			closeLines(lines)
			return nil, errors.Wrap(errors.ErrCodeInvalidScene, err, "line %q", def.ID)
		}
		if def.Hidden {
			l.Hide()
		}
		lines = append(lines, l)
	}
	return lines, nil
}

func closeLines(lines []*leaderline.Line) {
	for _, l := range lines {
		l.Close()
	}
}

// NewFrame returns a frame with the scene's canvas and element boxes and no
// lines.
func NewFrame(sc *scene.Scene) render.Frame {
	f := render.Frame{
		Width:      sc.Width,
		Height:     sc.Height,
		Background: sc.Background,
		Elements:   make([]render.Element, 0, len(sc.Elements)),
	}
	for _, e := range sc.Elements {
		f.Elements = append(f.Elements, render.Element{
			ID:     e.ID,
			Box:    e.Box(),
			Text:   e.Text,
			Fill:   e.Fill,
			Stroke: e.Stroke,
		})
	}
	return f
}
