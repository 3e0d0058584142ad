// Package proto implements the command language described in the external
// interfaces section: verb parsing, coordinate ranges, and the line-based
// output formats for nodes, queued messages, and type listings.
package proto

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sarchlab/redpile/loc"
)

// Range is one axis of a region: either a single scalar (Start==End,
// Step==1) or a..b[..step] span, grounded on command.c's Range{start, end,
// step} and the FOR_REGION macro's start/end swap-to-ascending + abs(step)
// walk.
type Range struct {
	Start, End int64
	Step       uint64
}

// ParseRange parses "N", "a..b" or "a..b..step".
func ParseRange(s string) (Range, error) {
	parts := strings.Split(s, "..")
	switch len(parts) {
	case 1:
		v, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			return Range{}, fmt.Errorf("proto: invalid coordinate %q", s)
		}
		return Range{Start: v, End: v, Step: 1}, nil

	case 2, 3:
		start, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			return Range{}, fmt.Errorf("proto: invalid range start %q", s)
		}
		end, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return Range{}, fmt.Errorf("proto: invalid range end %q", s)
		}
		step := uint64(1)
		if len(parts) == 3 {
			raw, err := strconv.ParseInt(parts[2], 10, 64)
			if err != nil || raw == 0 {
				return Range{}, fmt.Errorf("proto: invalid range step %q", s)
			}
			if raw < 0 {
				raw = -raw
			}
			step = uint64(raw)
		}
		return Range{Start: start, End: end, Step: step}, nil

	default:
		return Range{}, fmt.Errorf("proto: invalid range %q", s)
	}
}

// Values enumerates every coordinate the range covers, ascending,
// regardless of which of Start/End is numerically larger (FOR_REGION
// swaps them before walking).
func (r Range) Values() []loc.Coord {
	lo, hi := r.Start, r.End
	if lo > hi {
		lo, hi = hi, lo
	}
	step := r.Step
	if step == 0 {
		step = 1
	}

	var out []loc.Coord
	for v := lo; v <= hi; v += int64(step) {
		out = append(out, loc.Coord(v))
	}
	return out
}

// Region is a Cartesian product of three axis ranges.
type Region struct {
	X, Y, Z Range
}

// ParseRegion parses a comma-separated "x,y,z" coordinate group, each axis
// independently a scalar or range per ParseRange.
func ParseRegion(s string) (Region, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return Region{}, fmt.Errorf("proto: region %q must have 3 comma-separated axes", s)
	}

	x, err := ParseRange(parts[0])
	if err != nil {
		return Region{}, err
	}
	y, err := ParseRange(parts[1])
	if err != nil {
		return Region{}, err
	}
	z, err := ParseRange(parts[2])
	if err != nil {
		return Region{}, err
	}
	return Region{X: x, Y: y, Z: z}, nil
}

// Locations enumerates every point in the region's Cartesian product, x
// outermost and z innermost, matching FOR_REGION's nesting order.
func (r Region) Locations() []loc.Location {
	xs, ys, zs := r.X.Values(), r.Y.Values(), r.Z.Values()
	out := make([]loc.Location, 0, len(xs)*len(ys)*len(zs))
	for _, x := range xs {
		for _, y := range ys {
			for _, z := range zs {
				out = append(out, loc.New(x, y, z))
			}
		}
	}
	return out
}
