// Package plug derives end-marker and outline geometry from a serialized
// path.
//
// A plug is rotated to the direction of travel at its end of the path,
// taken from the first or last flattened piece rather than the chord, so
// markers on curves point along the curve. Visible plugs also report a
// pull-back distance; the caller trims the path by that amount so the
// stroke does not poke through the marker tip.
//
// The outline is a second stroke over the same path data, wider by the
// outline width on each side and drawn underneath the primary stroke.
package plug
