package path

import (
	"strconv"
	"strings"

	"github.com/matzehuels/leaderline/pkg/errors"
	"github.com/matzehuels/leaderline/pkg/geom"
)

// Parse reads path data written by Serialize back into a Descriptor. Only
// the absolute M, L and C commands are accepted; a single leading MoveTo
// is required.
func Parse(command string) (Descriptor, error) {
	fields := strings.Fields(strings.ReplaceAll(command, ",", " "))
	var (
		segs []Segment
		op   Op
		nums []float64
	)
	flush := func() error {
		if len(segs) == 0 && op != MoveTo {
			return errors.New(errors.ErrCodeInvalidInput, "path data must start with M")
		}
		want := 2
		if op == CubicTo {
			want = 6
		}
		if len(nums) != want {
			return errors.New(errors.ErrCodeInvalidInput, "%s needs %d coordinates, got %d", op, want, len(nums))
		}
		s := Segment{Op: op, To: geom.Pt(nums[want-2], nums[want-1])}
		if op == CubicTo {
			s.C1, s.C2 = geom.Pt(nums[0], nums[1]), geom.Pt(nums[2], nums[3])
		}
		if op == MoveTo && len(segs) > 0 {
			return errors.New(errors.ErrCodeInvalidInput, "path data has more than one M")
		}
		segs = append(segs, s)
		nums = nums[:0]
		return nil
	}

	started := false
	for _, f := range fields {
		if c := f[0]; c == 'M' || c == 'L' || c == 'C' {
			if started {
				if err := flush(); err != nil {
					return Descriptor{}, err
				}
			}
			started = true
			op = map[byte]Op{'M': MoveTo, 'L': LineTo, 'C': CubicTo}[c]
			if f = f[1:]; f == "" {
				continue
			}
		}
		if !started {
			return Descriptor{}, errors.New(errors.ErrCodeInvalidInput, "path data must start with M")
		}
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return Descriptor{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "bad coordinate %q", f)
		}
		nums = append(nums, v)
	}
	if started {
		if err := flush(); err != nil {
			return Descriptor{}, err
		}
	}
	return newDescriptor(segs), nil
}
