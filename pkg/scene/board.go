package scene

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/matzehuels/leaderline/pkg/attach"
	"github.com/matzehuels/leaderline/pkg/errors"
	"github.com/matzehuels/leaderline/pkg/geom"
)

// Board holds the live element boxes of a scene. It is the Measurer and
// LayoutSource for a reconciler: Measure returns the current box and Move
// fires the element's layout-change callbacks.
type Board struct {
	mu      sync.Mutex
	boxes   map[attach.Element]geom.Box
	subs    map[attach.Element]map[int]func()
	next    int
	latency time.Duration
}

// NewBoard creates a board with the scene's element boxes.
func (s *Scene) NewBoard() *Board {
	boxes := make(map[attach.Element]geom.Box, len(s.Elements))
	for _, e := range s.Elements {
		boxes[attach.Element(e.ID)] = e.Box()
	}
	return NewBoard(boxes)
}

// NewBoard creates a board from explicit boxes.
func NewBoard(boxes map[attach.Element]geom.Box) *Board {
	b := &Board{
		boxes: make(map[attach.Element]geom.Box, len(boxes)),
		subs:  make(map[attach.Element]map[int]func()),
	}
	for k, v := range boxes {
		b.boxes[k] = v
	}
	return b
}

// SetLatency delays every measurement by d, which lets interactive
// previews exercise out-of-order results.
func (b *Board) SetLatency(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.latency = max(d, 0)
}

// Measure implements attach.Measurer. Unknown or removed elements fail
// with NOT_FOUND.
func (b *Board) Measure(ctx context.Context, el attach.Element) (geom.Box, error) {
	b.mu.Lock()
	wait := b.latency
	b.mu.Unlock()

	if wait > 0 {
		t := time.NewTimer(wait)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return geom.Box{}, ctx.Err()
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	box, ok := b.boxes[el]
	if !ok {
		return geom.Box{}, errors.New(errors.ErrCodeNotFound, "element %q is not on the board", el)
	}
	return box, nil
}

// OnLayoutChange implements attach.LayoutSource.
func (b *Board) OnLayoutChange(el attach.Element, fn func()) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	id := b.next
	if b.subs[el] == nil {
		b.subs[el] = make(map[int]func())
	}
	b.subs[el][id] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[el], id)
	}
}

// Box returns the current box of el.
func (b *Board) Box(el attach.Element) (geom.Box, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	box, ok := b.boxes[el]
	return box, ok
}

// Elements returns the element IDs in sorted order.
func (b *Board) Elements() []attach.Element {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]attach.Element, 0, len(b.boxes))
	for el := range b.boxes {
		out = append(out, el)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Move replaces the box of el and notifies its subscribers.
func (b *Board) Move(el attach.Element, box geom.Box) error {
	b.mu.Lock()
	if _, ok := b.boxes[el]; !ok {
		b.mu.Unlock()
		return errors.New(errors.ErrCodeNotFound, "element %q is not on the board", el)
	}
	b.boxes[el] = box
	fns := b.callbacksLocked(el)
	b.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
	return nil
}

// Nudge translates el by (dx, dy).
func (b *Board) Nudge(el attach.Element, dx, dy float64) error {
	box, ok := b.Box(el)
	if !ok {
		return errors.New(errors.ErrCodeNotFound, "element %q is not on the board", el)
	}
	return b.Move(el, box.Translate(geom.Vec{X: dx, Y: dy}))
}

// Remove takes el off the board. Later measurements fail, so lines
// attached to it eventually disconnect.
func (b *Board) Remove(el attach.Element) {
	b.mu.Lock()
	delete(b.boxes, el)
	fns := b.callbacksLocked(el)
	b.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

func (b *Board) callbacksLocked(el attach.Element) []func() {
	ids := make([]int, 0, len(b.subs[el]))
	for id := range b.subs[el] {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(), len(ids))
	for i, id := range ids {
		fns[i] = b.subs[el][id]
	}
	return fns
}

var (
	_ attach.Measurer     = (*Board)(nil)
	_ attach.LayoutSource = (*Board)(nil)
)
