package attach

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/leaderline/pkg/geom"
	"github.com/matzehuels/leaderline/pkg/socket"
)

// ID identifies a mounted endpoint.
type ID string

// NewID returns a fresh random endpoint ID.
func NewID() ID { return ID(uuid.NewString()) }

// Element is an opaque reference to a measurable element. Only the
// Measurer and LayoutSource interpret it.
type Element string

// Measurer measures the current bounding box of an element. It may block
// and may fail; implementations should honor ctx cancellation.
type Measurer interface {
	Measure(ctx context.Context, el Element) (geom.Box, error)
}

// MeasureFunc adapts a function to the Measurer interface.
type MeasureFunc func(ctx context.Context, el Element) (geom.Box, error)

func (f MeasureFunc) Measure(ctx context.Context, el Element) (geom.Box, error) { return f(ctx, el) }

// LayoutSource notifies about layout changes (scroll, resize, moves) that
// require re-measuring an element. The returned function cancels the
// subscription.
type LayoutSource interface {
	OnLayoutChange(el Element, fn func()) (cancel func())
}

// Phase is the lifecycle position of an endpoint.
type Phase int

const (
	Unmeasured Phase = iota
	Measuring
	Connected
	Disconnected
)

func (p Phase) String() string {
	switch p {
	case Unmeasured:
		return "unmeasured"
	case Measuring:
		return "measuring"
	case Connected:
		return "connected"
	case Disconnected:
		return "disconnected"
	}
	return "unknown"
}

// Settled reports whether no measurement is expected to change the phase.
func (p Phase) Settled() bool { return p == Connected || p == Disconnected }

// State is a snapshot of one endpoint. It never aliases reconciler memory.
type State struct {
	ID      ID      `json:"id"`
	Element Element `json:"element,omitempty"`
	Fixed   bool    `json:"fixed"`
	Phase   Phase   `json:"phase"`

	Connected  bool      `json:"connected"`
	Visible    bool      `json:"visible"`
	LastUpdate time.Time `json:"last_update"`

	// Layout is the last successfully measured box, or the degenerate box of
	// a fixed point. It is nil until the first success.
	Layout *geom.Box `json:"layout,omitempty"`
	// Requested is the socket asked for at mount time; Socket and Point are
	// its resolution on Layout without an opposing point.
	Requested socket.Socket `json:"requested"`
	Socket    socket.Socket `json:"socket"`
	Point     geom.Point    `json:"point"`

	// Seq is the sequence number of the measurement reflected in Layout.
	Seq      uint64 `json:"seq"`
	Failures int    `json:"failures"`
	Err      error  `json:"-"`
}

// HasLayout reports whether s has ever been measured.
func (s State) HasLayout() bool { return s.Layout != nil }

func (s State) clone() State {
	if s.Layout != nil {
		b := *s.Layout
		s.Layout = &b
	}
	return s
}
