// Package leaderline computes drawable connector lines between two anchors.
//
// [Compute] is the pure entry point: given two anchors (a box and a
// requested socket each) and [Options], it resolves the sockets, generates
// and serializes the path, then derives plug transforms, the outline
// stroke, label placements and the overall bounds. The result is an
// immutable [Geometry].
//
// [Line] is the live form. It mounts both attachments on an
// [attach.Reconciler] and recomputes whenever either end publishes a new
// state:
//
//	r := attach.New(measurer)
//	defer r.Close()
//
//	l, err := leaderline.NewLine(r,
//	    leaderline.ElementAt("header", socket.Auto),
//	    leaderline.ElementAt("footer", socket.Top),
//	    leaderline.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	defer l.Close()
//
//	l.OnChange(func(g *leaderline.Geometry) { draw(g) })
//
// # Patches
//
// [Line.Apply] merges a [Patch]. Style fields (color, size, opacity, plug
// colors, outline, dash, shadow) re-derive strokes and plugs from the
// cached route and leave [Line.Revision] unchanged. Geometry fields (path
// type, curvature, sockets, labels, plug kinds) generate a new path.
//
// An endpoint that becomes disconnected keeps its last measured box; the
// geometry is then marked Stale rather than removed.
package leaderline
