package filter

import (
	"errors"
	"fmt"

	"github.com/gogpu/segrefine/internal/kernel"
)

// Pass errors.
var (
	// ErrInvalidGeometry is returned for non-positive dimensions or a negative radius.
	ErrInvalidGeometry = errors.New("filter: invalid geometry")

	// ErrShortBuffer is returned when a plane is smaller than the geometry requires.
	ErrShortBuffer = errors.New("filter: buffer too small for geometry")

	// ErrIntensityRange is returned when an intensity difference falls outside
	// the range table domain [0, 256).
	ErrIntensityRange = errors.New("filter: intensity difference outside table domain")
)

// Geometry describes the active frame of a pass.
// Width and Height are the unpadded output dimensions; Radius is the
// padding on every side of the input planes.
type Geometry struct {
	Width  int
	Height int
	Radius int
}

// Stride returns the padded row length of the input planes.
func (g Geometry) Stride() int { return g.Width + 2*g.Radius }

// Rows returns the padded row count of the input planes.
func (g Geometry) Rows() int { return g.Height + 2*g.Radius }

// PaddedLen returns the element count of a padded input plane.
func (g Geometry) PaddedLen() int { return g.Stride() * g.Rows() }

// OutputLen returns the element count of the output plane.
func (g Geometry) OutputLen() int { return g.Width * g.Height }

// Window returns the side length of the square window.
func (g Geometry) Window() int { return 2*g.Radius + 1 }

func (g Geometry) validate() error {
	if g.Width <= 0 || g.Height <= 0 || g.Radius < 0 {
		return fmt.Errorf("%w: %dx%d radius %d", ErrInvalidGeometry, g.Width, g.Height, g.Radius)
	}
	return nil
}

// RangeError reports the first window whose intensity difference could not
// index the range table.
type RangeError struct {
	// X, Y are the output coordinates of the window center.
	X, Y int
	// Diff is the absolute intensity difference that was rejected.
	Diff float32
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("filter: intensity difference %v at (%d, %d) outside [0, 256)", e.Diff, e.X, e.Y)
}

// Unwrap returns ErrIntensityRange.
func (e *RangeError) Unwrap() error { return ErrIntensityRange }

// JointBilateral writes the refined mask for geometry g into dst.
//
// For every output pixel the window of (2r+1)² padded samples around it is
// weighted by table[floor(|src - center|)], where center is the source sample
// at the window center. The output is the weight-normalized sum of seg over
// the window. Only dst[:g.OutputLen()] is written.
//
// src and seg are padded planes of g.PaddedLen() elements with stride
// g.Stride(). Intensity differences must lie in [0, 256); otherwise a
// *RangeError is returned and dst holds an incomplete pass, so callers that
// must not expose partial results pass a staging buffer.
func JointBilateral(dst, src, seg []float32, g Geometry, table *kernel.Table) error {
	if err := g.validate(); err != nil {
		return err
	}
	if table == nil {
		return fmt.Errorf("%w: nil range table", ErrShortBuffer)
	}
	if err := checkLengths(dst, src, seg, g); err != nil {
		return err
	}

	stride := g.Stride()
	r := g.Radius
	window := g.Window()
	out := dst[:g.OutputLen()]

	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			center := src[(y+r)*stride+x+r]

			var norm, sum float32
			for ky := 0; ky < window; ky++ {
				row := (y + ky) * stride
				srcRow := src[row+x : row+x+window]
				segRow := seg[row+x : row+x+window]

				for kx, v := range srcRow {
					diff := v - center
					if diff < 0 {
						diff = -diff
					}
					// Negated comparison also rejects NaN.
					if !(diff < kernel.Size) {
						return &RangeError{X: x, Y: y, Diff: diff}
					}
					w := table[int(diff)]
					norm += w
					sum += segRow[kx] * w
				}
			}

			// norm >= table[0] = 1: the center always weighs itself.
			out[y*g.Width+x] = sum / norm
		}
	}

	return nil
}

// BoxMean writes the unweighted mean of seg over each (2r+1)² window into
// dst. It is the limit of JointBilateral as the range parameter grows.
func BoxMean(dst, seg []float32, g Geometry) error {
	if err := g.validate(); err != nil {
		return err
	}
	if len(seg) < g.PaddedLen() || len(dst) < g.OutputLen() {
		return fmt.Errorf("%w: seg %d, dst %d", ErrShortBuffer, len(seg), len(dst))
	}

	stride := g.Stride()
	window := g.Window()
	inv := 1 / float32(window*window)

	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			var sum float32
			for ky := 0; ky < window; ky++ {
				row := (y + ky) * stride
				for _, v := range seg[row+x : row+x+window] {
					sum += v
				}
			}
			dst[y*g.Width+x] = sum * inv
		}
	}

	return nil
}

func checkLengths(dst, src, seg []float32, g Geometry) error {
	padded := g.PaddedLen()
	if len(src) < padded {
		return fmt.Errorf("%w: source has %d elements, need %d", ErrShortBuffer, len(src), padded)
	}
	if len(seg) < padded {
		return fmt.Errorf("%w: segmentation has %d elements, need %d", ErrShortBuffer, len(seg), padded)
	}
	if len(dst) < g.OutputLen() {
		return fmt.Errorf("%w: output has %d elements, need %d", ErrShortBuffer, len(dst), g.OutputLen())
	}
	return nil
}
