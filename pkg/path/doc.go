// Package path generates and serializes leader-line paths.
//
// [Generate] turns two resolved attachment points into a [Descriptor]: a
// MoveTo followed by line and cubic segments. Five families are supported:
//
//   - Straight: one line segment.
//   - Arc: one curve bulging off the chord toward the start socket's exit.
//   - Fluid: a cubic whose control points leave each endpoint along its
//     socket normal, proportional to the chord length.
//   - Magnet: like fluid, but control points project a fixed reach
//     (MagnetReach, overrides clamped to [10, 80]) regardless of chord.
//   - Grid: orthogonal routing with one bend, or two when both sockets exit
//     along the same axis.
//
// [Serialize] converts a descriptor into SVG path data and flattens curves
// into [Steps] pieces per cubic. The flattened table backs arc-length
// queries such as [Serialized.PointAt], which label layout and plug
// placement use.
//
// Descriptors are values: [Trim] and every regeneration return a new one.
package path
