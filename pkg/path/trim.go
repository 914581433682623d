package path

import "github.com/matzehuels/leaderline/pkg/geom"

// Trim returns d shortened by head at the start and tail at the end,
// measured along the path. Trimming only ever shortens the first and last
// drawn segment; each amount is limited to the length of its segment, and
// when both ends fall in the same segment the combined amount leaves at
// least a tenth of it. Negative amounts are treated as zero.
func Trim(d Descriptor, head, tail float64) Descriptor {
	if d.IsEmpty() {
		return d
	}
	head, tail = max(head, 0), max(tail, 0)
	if head == 0 && tail == 0 {
		return d
	}

	segs := make([]Segment, len(d.Segments))
	copy(segs, d.Segments)

	first, last := 1, len(segs)-1
	if first == last {
		l := segmentLength(segs[0].To, segs[1])
		if head+tail > 0.9*l {
			k := 0.9 * l / (head + tail)
			head, tail = head*k, tail*k
		}
	}

	if tail > 0 {
		from := segs[last-1].To
		seg := segs[last]
		if l := segmentLength(from, seg); l > 0 {
			t := paramAtLength(from, seg, l-min(tail, l))
			segs[last] = splitAt(from, seg, t, true)
		}
	}
	if head > 0 {
		from := segs[first-1].To
		seg := segs[first]
		if l := segmentLength(from, seg); l > 0 {
			t := paramAtLength(from, seg, min(head, l))
			rest := splitAt(from, seg, t, false)
			segs[0] = Segment{Op: MoveTo, To: pointAt(from, seg, t)}
			segs[first] = rest
		}
	}
	return newDescriptor(segs)
}

func segmentLength(from geom.Point, s Segment) float64 {
	return polylineLength(flatten([]Segment{{Op: MoveTo, To: from}, s}))
}

func pointAt(from geom.Point, s Segment, t float64) geom.Point {
	if s.Op == CubicTo {
		return cubicAt(from, s.C1, s.C2, s.To, t)
	}
	return from.Lerp(s.To, t)
}

// paramAtLength maps an arc length along a single segment to its curve
// parameter using the same subdivision as flatten.
func paramAtLength(from geom.Point, s Segment, length float64) float64 {
	if s.Op != CubicTo {
		return length / from.Distance(s.To)
	}
	prev := from
	var acc float64
	for i := 1; i <= Steps; i++ {
		t := float64(i) / Steps
		p := cubicAt(from, s.C1, s.C2, s.To, t)
		d := p.Distance(prev)
		if acc+d >= length {
			if d == 0 {
				return t
			}
			return (float64(i-1) + (length-acc)/d) / Steps
		}
		acc += d
		prev = p
	}
	return 1
}

// splitAt cuts segment s (starting at from) at parameter t and returns the
// leading part when keepHead is true, the trailing part otherwise.
func splitAt(from geom.Point, s Segment, t float64, keepHead bool) Segment {
	if s.Op != CubicTo {
		p := from.Lerp(s.To, t)
		if keepHead {
			return Segment{Op: s.Op, To: p}
		}
		return s
	}
	p01, p12, p23 := from.Lerp(s.C1, t), s.C1.Lerp(s.C2, t), s.C2.Lerp(s.To, t)
	p012, p123 := p01.Lerp(p12, t), p12.Lerp(p23, t)
	mid := p012.Lerp(p123, t)
	if keepHead {
		return Segment{Op: CubicTo, C1: p01, C2: p012, To: mid}
	}
	return Segment{Op: CubicTo, C1: p123, C2: p23, To: s.To}
}
