// Package socket resolves where a leader line attaches to a rectangle.
//
// A [Socket] is one of nine fixed attachment points (center, four side
// midpoints, four corners) or [Auto]. Auto picks the side facing the other
// endpoint of the line: the vector from the box center to the opposing point
// is normalized by the box half-extents, and its angle from the horizontal
// selects a side (below 30 degrees), a corner (30 to 60 degrees) or the
// top/bottom side (above 60 degrees).
//
// Resolution is a pure function of its inputs:
//
//	pt, side, err := socket.Resolve(box, socket.Auto, &other)
//
// The returned side is never Auto, and the point always lies on or inside
// the box. Degenerate boxes are accepted; every socket of a zero-size box is
// the box origin.
package socket
