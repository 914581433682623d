// Package label places text labels along a serialized leader-line path.
//
// Five slots are available. Start, Middle and End sit on the path at 10%,
// 50% and 90% of its arc length. Caption and Path sit 20 units off the
// midpoint along the path normal, on opposite sides. The normal is always
// the geometric one, so on a vertical path they land left and right of it.
//
// Labels are not collision-avoided; overlapping labels draw in slot order.
// Sizes are approximations derived from the font size.
package label
