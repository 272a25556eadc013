package image

import (
	"fmt"
	"strings"
)

// PadMode selects how the border around a plane is filled.
type PadMode uint8

const (
	// PadSymmetric mirrors the plane including the edge sample
	// (…, 1, 0 | 0, 1, …), repeating the reflection when the radius
	// exceeds the plane size.
	PadSymmetric PadMode = iota

	// PadReplicate repeats the nearest edge sample.
	PadReplicate

	// PadZero fills the border with zeros.
	PadZero
)

// String returns the mode name.
func (m PadMode) String() string {
	switch m {
	case PadSymmetric:
		return "symmetric"
	case PadReplicate:
		return "replicate"
	case PadZero:
		return "zero"
	default:
		return fmt.Sprintf("PadMode(%d)", m)
	}
}

// ParsePadMode parses a mode name as returned by String.
func ParsePadMode(s string) (PadMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "symmetric", "mirror":
		return PadSymmetric, nil
	case "replicate", "edge", "clamp":
		return PadReplicate, nil
	case "zero", "constant":
		return PadZero, nil
	default:
		return 0, fmt.Errorf("image: unknown pad mode %q", s)
	}
}

// PaddedLen returns the element count of p padded by r on every side.
func PaddedLen(p *Plane, r int) int {
	return (p.width + 2*r) * (p.height + 2*r)
}

// PadInto writes p padded by r on every side into dst, row-major with
// stride p.Width()+2r. Only the first PaddedLen(p, r) elements are written,
// so dst may be a larger fixed-capacity buffer.
func PadInto(dst []float32, p *Plane, r int, mode PadMode) error {
	if r < 0 {
		return fmt.Errorf("%w: negative radius %d", ErrInvalidDimensions, r)
	}
	need := PaddedLen(p, r)
	if len(dst) < need {
		return fmt.Errorf("%w: have %d, need %d", ErrDataTooSmall, len(dst), need)
	}

	index := indexFunc(mode)
	if index == nil {
		return fmt.Errorf("image: unknown pad mode %v", mode)
	}

	stride := p.width + 2*r
	for y := 0; y < p.height+2*r; y++ {
		row := dst[y*stride : (y+1)*stride]
		sy, ok := index(y-r, p.height)
		if !ok {
			clear(row)
			continue
		}
		src := p.Row(sy)

		// Interior run, then the left and right borders.
		copy(row[r:r+p.width], src)
		for x := 0; x < r; x++ {
			row[x] = sample(src, index, x-r)
			row[r+p.width+x] = sample(src, index, p.width+x)
		}
	}
	return nil
}

func sample(row []float32, index func(int, int) (int, bool), i int) float32 {
	j, ok := index(i, len(row))
	if !ok {
		return 0
	}
	return row[j]
}

// indexFunc maps an out-of-range coordinate to a source coordinate.
// ok is false when the border sample is a constant zero.
func indexFunc(mode PadMode) func(i, size int) (int, bool) {
	switch mode {
	case PadSymmetric:
		return func(i, size int) (int, bool) { return mirror(i, size), true }
	case PadReplicate:
		return func(i, size int) (int, bool) { return min(max(i, 0), size-1), true }
	case PadZero:
		return func(i, size int) (int, bool) { return i, i >= 0 && i < size }
	default:
		return nil
	}
}

// mirror reflects i into [0, size) with period 2·size, repeating edge samples.
func mirror(i, size int) int {
	if i < 0 {
		i = -i - 1
	}
	if i >= size {
		period := 2 * size
		i %= period
		if i >= size {
			i = period - i - 1
		}
	}
	return i
}
