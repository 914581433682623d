package attach

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/leaderline/pkg/errors"
	"github.com/matzehuels/leaderline/pkg/geom"
	"github.com/matzehuels/leaderline/pkg/observability"
	"github.com/matzehuels/leaderline/pkg/socket"
)

const (
	// DefaultThrottle bounds how often layout notifications re-measure an
	// endpoint.
	DefaultThrottle = 32 * time.Millisecond
	// DefaultMaxFailures is the number of consecutive failed measurements
	// after which an endpoint is disconnected.
	DefaultMaxFailures = 3
)

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithThrottle sets the minimum interval between measurements triggered by
// layout notifications. Non-positive values disable throttling.
func WithThrottle(d time.Duration) Option { return func(r *Reconciler) { r.throttle = max(d, 0) } }

// WithMaxFailures sets the consecutive failure limit. Values below 1 are
// ignored.
func WithMaxFailures(n int) Option {
	return func(r *Reconciler) {
		if n > 0 {
			r.maxFailures = n
		}
	}
}

// WithMeasureTimeout bounds each measurement. A timed-out measurement
// counts as a failure. Zero (the default) waits indefinitely.
func WithMeasureTimeout(d time.Duration) Option {
	return func(r *Reconciler) { r.timeout = max(d, 0) }
}

// WithLayoutSource subscribes mounted elements to layout notifications.
func WithLayoutSource(src LayoutSource) Option { return func(r *Reconciler) { r.layout = src } }

// WithLogger sets the logger for measurement events.
func WithLogger(l *log.Logger) Option {
	return func(r *Reconciler) {
		if l != nil {
			r.logger = l
		}
	}
}

type subscriber struct {
	id int
	fn func(State)
}

type endpoint struct {
	state State
	subs  []subscriber

	issued    uint64
	lastIssue time.Time
	inflight  bool
	dirty     bool
	cancel    context.CancelFunc

	timer    *time.Timer
	timerGen uint64

	unsubscribe func()
}

func (ep *endpoint) busy() bool { return ep.inflight || ep.timer != nil }

type event struct {
	state State
	subs  []subscriber
}

// Reconciler turns asynchronous, possibly out-of-order measurement results
// into one consistent State per endpoint. All state lives behind a single
// mutex; each measurement runs on its own goroutine and its result is
// applied only if it carries the latest sequence number issued for that
// endpoint. Subscribers are notified in order on a dedicated goroutine and
// may call back into the Reconciler.
type Reconciler struct {
	measurer    Measurer
	layout      LayoutSource
	throttle    time.Duration
	maxFailures int
	timeout     time.Duration
	logger      *log.Logger

	ctx    context.Context
	stop   context.CancelFunc
	wg     sync.WaitGroup
	wake   chan struct{}
	done   chan struct{}
	closed bool

	mu        sync.Mutex
	endpoints map[ID]*endpoint
	queue     []event
	changed   chan struct{}
	lastStamp time.Time
	nextSub   int
}

// New creates a Reconciler that measures elements with m.
func New(m Measurer, opts ...Option) *Reconciler {
	ctx, stop := context.WithCancel(context.Background())
	r := &Reconciler{
		measurer:    m,
		throttle:    DefaultThrottle,
		maxFailures: DefaultMaxFailures,
		logger:      log.New(io.Discard),
		ctx:         ctx,
		stop:        stop,
		wake:        make(chan struct{}, 1),
		done:        make(chan struct{}),
		endpoints:   make(map[ID]*endpoint),
		changed:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	go r.dispatch()
	return r
}

// Mount registers an element endpoint and issues its first measurement.
func (r *Reconciler) Mount(el Element, requested socket.Socket) (ID, error) {
	if el == "" {
		return "", errors.New(errors.ErrCodeInvalidAttachment, "element reference is empty")
	}
	if !requested.Valid() {
		return "", errors.New(errors.ErrCodeUnsupportedSocket, "unknown socket value %d", int(requested))
	}

	id := NewID()
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return "", errors.New(errors.ErrCodeInternal, "reconciler is closed")
	}
	ep := &endpoint{state: State{ID: id, Element: el, Phase: Unmeasured, Requested: requested, Socket: socket.Center}}
	r.endpoints[id] = ep
	r.measureLocked(ep)
	r.mu.Unlock()

	if r.layout != nil {
		cancel := r.layout.OnLayoutChange(el, func() { r.Notify(id) })
		r.mu.Lock()
		if cur, ok := r.endpoints[id]; ok && cur == ep {
			ep.unsubscribe = cancel
			cancel = nil
		}
		r.mu.Unlock()
		if cancel != nil {
			cancel()
		}
	}

	r.logger.Debug("endpoint mounted", "id", id, "element", el, "socket", requested)
	return id, nil
}

// MountPoint registers a fixed-point endpoint. It is connected immediately
// and never measured.
func (r *Reconciler) MountPoint(p geom.Point, requested socket.Socket) (ID, error) {
	if err := errors.ValidateFinite("point", p.X, p.Y); err != nil {
		return "", err
	}
	if !requested.Valid() {
		return "", errors.New(errors.ErrCodeUnsupportedSocket, "unknown socket value %d", int(requested))
	}

	id := NewID()
	box := geom.PointBox(p)
	pt, side, _ := socket.Resolve(box, requested, nil)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return "", errors.New(errors.ErrCodeInternal, "reconciler is closed")
	}
	ep := &endpoint{state: State{
		ID:        id,
		Fixed:     true,
		Phase:     Connected,
		Connected: true,
		Visible:   true,
		Layout:    &box,
		Requested: requested,
		Socket:    side,
		Point:     pt,
	}}
	r.endpoints[id] = ep
	r.publishLocked(ep)
	return id, nil
}

// Notify reports a layout change for id. Bursts of notifications within
// the throttle window collapse into a single measurement. A measurement
// already in flight is never cancelled by a notification; one follow-up
// measurement is issued after it completes.
func (r *Reconciler) Notify(id ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ep, ok := r.endpoints[id]
	if !ok || ep.state.Fixed || r.closed {
		return
	}
	switch {
	case ep.timer != nil:
		return
	case ep.inflight:
		ep.dirty = true
		return
	}
	r.followUpLocked(id, ep)
}

// followUpLocked measures ep now or when its throttle window ends.
func (r *Reconciler) followUpLocked(id ID, ep *endpoint) {
	wait := r.throttle - time.Since(ep.lastIssue)
	if wait <= 0 {
		r.measureLocked(ep)
		return
	}
	r.scheduleLocked(id, ep, wait)
}

// ForceUpdate re-measures id immediately, bypassing the throttle.
func (r *Reconciler) ForceUpdate(id ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ep, ok := r.endpoints[id]
	if !ok {
		return errors.New(errors.ErrCodeNotFound, "endpoint %s is not mounted", id)
	}
	if ep.state.Fixed || r.closed {
		return nil
	}
	r.stopTimerLocked(ep)
	r.measureLocked(ep)
	return nil
}

// Unmount removes id. In-flight measurements are cancelled and their
// results dropped. Subscribers receive a final Disconnected state that
// keeps the last known point.
func (r *Reconciler) Unmount(id ID) {
	r.mu.Lock()
	ep, ok := r.endpoints[id]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.endpoints, id)
	r.stopTimerLocked(ep)
	if ep.cancel != nil {
		ep.cancel()
		ep.cancel = nil
	}
	ep.inflight = false
	ep.state.Phase = Disconnected
	ep.state.Connected = false
	ep.state.Visible = false
	r.publishLocked(ep)
	unsubscribe := ep.unsubscribe
	r.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	r.logger.Debug("endpoint unmounted", "id", id)
}

// State returns a snapshot of id.
func (r *Reconciler) State(id ID) (State, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ep, ok := r.endpoints[id]
	if !ok {
		return State{}, false
	}
	return ep.state.clone(), true
}

// Subscribe calls fn with every published state of id, in order. The
// returned function cancels the subscription.
func (r *Reconciler) Subscribe(id ID, fn func(State)) (func(), error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ep, ok := r.endpoints[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "endpoint %s is not mounted", id)
	}
	r.nextSub++
	sid := r.nextSub
	ep.subs = append(ep.subs, subscriber{id: sid, fn: fn})

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		for i, s := range ep.subs {
			if s.id == sid {
				ep.subs = append(ep.subs[:i:i], ep.subs[i+1:]...)
				return
			}
		}
	}, nil
}

// Settle blocks until every mounted endpoint is Connected or Disconnected
// with no measurement pending, or ctx is done.
func (r *Reconciler) Settle(ctx context.Context) error {
	for {
		r.mu.Lock()
		settled := true
		for _, ep := range r.endpoints {
			if ep.busy() || !ep.state.Phase.Settled() {
				settled = false
				break
			}
		}
		ch := r.changed
		r.mu.Unlock()

		if settled {
			return nil
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return errors.Wrap(errors.ErrCodeTimeout, ctx.Err(), "endpoints did not settle")
		}
	}
}

// Close cancels all measurements and stops notification delivery.
func (r *Reconciler) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	var unsubs []func()
	for _, ep := range r.endpoints {
		r.stopTimerLocked(ep)
		if ep.unsubscribe != nil {
			unsubs = append(unsubs, ep.unsubscribe)
		}
	}
	r.mu.Unlock()

	for _, u := range unsubs {
		u()
	}
	r.stop()
	r.wg.Wait()
	close(r.done)
}

// measureLocked issues a new measurement for ep, superseding any request
// still in flight.
func (r *Reconciler) measureLocked(ep *endpoint) {
	if ep.cancel != nil {
		ep.cancel()
	}
	ep.issued++
	seq := ep.issued
	ep.lastIssue = time.Now()
	ep.inflight = true
	ep.dirty = false

	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if r.timeout > 0 {
		ctx, cancel = context.WithTimeout(r.ctx, r.timeout)
	} else {
		ctx, cancel = context.WithCancel(r.ctx)
	}
	ep.cancel = cancel

	if ep.state.Phase != Measuring {
		ep.state.Phase = Measuring
		r.publishLocked(ep)
	}

	id, el := ep.state.ID, ep.state.Element
	observability.Measure().OnMeasureStart(ctx, string(id), seq)
	r.logger.Debug("measure issued", "id", id, "element", el, "seq", seq)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		start := time.Now()
		box, err := r.run(ctx, el)
		r.complete(ctx, id, seq, box, err, time.Since(start))
	}()
}

// run measures el but returns as soon as ctx is done, even if the Measurer
// ignores cancellation.
func (r *Reconciler) run(ctx context.Context, el Element) (geom.Box, error) {
	type result struct {
		box geom.Box
		err error
	}
	ch := make(chan result, 1)
	go func() {
		b, err := r.measurer.Measure(ctx, el)
		ch <- result{b, err}
	}()
	select {
	case res := <-ch:
		return res.box, res.err
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return geom.Box{}, errors.Wrap(errors.ErrCodeTimeout, ctx.Err(), "measure %s", el)
		}
		return geom.Box{}, ctx.Err()
	}
}

func (r *Reconciler) complete(ctx context.Context, id ID, seq uint64, box geom.Box, err error, took time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ep, ok := r.endpoints[id]
	switch {
	case !ok || r.closed:
		observability.Measure().OnMeasureDiscarded(ctx, string(id), seq, "unmounted")
		return
	case seq != ep.issued:
		observability.Measure().OnMeasureDiscarded(ctx, string(id), seq, "stale")
		r.logger.Debug("stale measurement discarded", "id", id, "seq", seq, "latest", ep.issued)
		return
	}
	ep.inflight = false
	ep.cancel()
	ep.cancel = nil
	dirty := ep.dirty
	ep.dirty = false
	observability.Measure().OnMeasureComplete(ctx, string(id), seq, took, err)

	if err == nil {
		err = errors.ValidateFinite("measured box", box.X, box.Y, box.W, box.H)
	}
	if err != nil {
		r.failLocked(ep, err)
		if dirty && ep.timer == nil {
			r.followUpLocked(id, ep)
		}
		return
	}

	box = geom.NewBox(box.X, box.Y, box.W, box.H)
	pt, side, _ := socket.Resolve(box, ep.state.Requested, nil)
	ep.state.Phase = Connected
	ep.state.Connected = true
	ep.state.Visible = true
	ep.state.Layout = &box
	ep.state.Socket = side
	ep.state.Point = pt
	ep.state.Seq = seq
	ep.state.Failures = 0
	ep.state.Err = nil
	r.publishLocked(ep)

	if dirty {
		r.followUpLocked(id, ep)
	}
}

func (r *Reconciler) failLocked(ep *endpoint, err error) {
	ep.state.Failures++
	ep.state.Err = errors.Wrap(errors.ErrCodeMeasurementFailed, err, "measure %s", ep.state.Element)
	id := ep.state.ID

	if ep.state.Failures >= r.maxFailures {
		r.logger.Warn("endpoint disconnected", "id", id, "element", ep.state.Element, "failures", ep.state.Failures, "err", err)
		ep.state.Phase = Disconnected
		ep.state.Connected = false
		ep.state.Visible = false
		r.publishLocked(ep)
		return
	}

	r.logger.Debug("measure failed, retrying", "id", id, "failures", ep.state.Failures, "err", err)
	r.scheduleLocked(id, ep, r.throttle)
	r.broadcastLocked()
}

func (r *Reconciler) scheduleLocked(id ID, ep *endpoint, wait time.Duration) {
	ep.timerGen++
	gen := ep.timerGen
	ep.timer = time.AfterFunc(wait, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		cur, ok := r.endpoints[id]
		if !ok || cur != ep || ep.timerGen != gen || ep.timer == nil || r.closed {
			return
		}
		ep.timer = nil
		if ep.inflight {
			ep.dirty = true
			return
		}
		r.measureLocked(ep)
	})
}

func (r *Reconciler) stopTimerLocked(ep *endpoint) {
	if ep.timer != nil {
		ep.timer.Stop()
		ep.timer = nil
	}
	ep.timerGen++
}

// publishLocked stamps ep's state and queues it for subscribers.
func (r *Reconciler) publishLocked(ep *endpoint) {
	now := time.Now()
	if !now.After(r.lastStamp) {
		now = r.lastStamp.Add(time.Nanosecond)
	}
	r.lastStamp = now
	ep.state.LastUpdate = now

	if len(ep.subs) > 0 {
		subs := make([]subscriber, len(ep.subs))
		copy(subs, ep.subs)
		r.queue = append(r.queue, event{state: ep.state.clone(), subs: subs})
		select {
		case r.wake <- struct{}{}:
		default:
		}
	}
	r.broadcastLocked()
}

func (r *Reconciler) broadcastLocked() {
	close(r.changed)
	r.changed = make(chan struct{})
}

func (r *Reconciler) dispatch() {
	for {
		select {
		case <-r.wake:
		case <-r.done:
			return
		}
		for {
			r.mu.Lock()
			if len(r.queue) == 0 {
				r.mu.Unlock()
				break
			}
			ev := r.queue[0]
			r.queue = r.queue[1:]
			r.mu.Unlock()

			for _, s := range ev.subs {
				s.fn(ev.state)
			}
		}
	}
}
