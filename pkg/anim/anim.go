// Package anim defines the interpolation contract used to animate numeric
// line properties such as dash offset or the visible fraction of a path.
//
// The engine never runs timers itself. A host calls a [Driver] with the
// progress of its own clock and applies the returned value.
package anim

import (
	"math"

	"github.com/matzehuels/leaderline/pkg/geom"
)

// Driver interpolates between two values for a progress in [0, 1].
type Driver interface {
	Interpolate(from, to, progress float64) float64
}

// DriverFunc adapts a plain function to the Driver interface.
type DriverFunc func(from, to, progress float64) float64

func (f DriverFunc) Interpolate(from, to, progress float64) float64 { return f(from, to, progress) }

// Linear interpolates at constant speed.
var Linear Driver = DriverFunc(func(from, to, p float64) float64 {
	return from + (to-from)*geom.Clamp(p, 0, 1)
})

// EaseInOut accelerates from rest and decelerates to rest (cubic).
var EaseInOut Driver = DriverFunc(func(from, to, p float64) float64 {
	p = geom.Clamp(p, 0, 1)
	var e float64
	if p < 0.5 {
		e = 4 * p * p * p
	} else {
		e = 1 - math.Pow(-2*p+2, 3)/2
	}
	return from + (to-from)*e
})

// DashOffset returns the stroke-dashoffset for marching-ants animation: it
// moves one full dash period (dash + gap) over progress 0..1. A non-positive
// period yields 0.
func DashOffset(d Driver, dash, gap, progress float64) float64 {
	period := dash + gap
	if period <= 0 {
		return 0
	}
	return -math.Mod(d.Interpolate(0, period, progress), period)
}

// Reveal returns the dash array values that show the first fraction of a
// path of the given length, for draw-on animations.
func Reveal(d Driver, length, progress float64) (dash, gap float64) {
	shown := d.Interpolate(0, length, progress)
	return shown, math.Max(length-shown, 0) + 1
}
