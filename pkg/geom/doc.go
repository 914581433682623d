// Package geom provides the value types shared by every stage of the
// leader-line engine: points, vectors and axis-aligned boxes.
//
// All types are immutable values. Coordinates follow the drawing-surface
// convention used by SVG and most UI toolkits: x grows to the right and y
// grows downward, so "up" is the -y direction.
//
// A [Box] with zero width and height is a valid degenerate box; it is how a
// fixed-point anchor is represented when it flows through the socket
// resolver.
package geom
