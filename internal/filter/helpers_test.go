package filter

import (
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// Test helper functions shared across filter tests.

// filled returns a plane of n elements set to v.
func filled(n int, v float32) []float32 {
	p := make([]float32, n)
	for i := range p {
		p[i] = v
	}
	return p
}

// checkerboard returns a padded plane alternating lo and hi, with the
// outer radius rows and columns replicated from the nearest interior sample.
func checkerboard(g Geometry, lo, hi float32) []float32 {
	stride := g.Stride()
	p := make([]float32, g.PaddedLen())
	for y := 0; y < g.Rows(); y++ {
		iy := clampInt(y-g.Radius, 0, g.Height-1)
		for x := 0; x < stride; x++ {
			ix := clampInt(x-g.Radius, 0, g.Width-1)
			if (ix+iy)%2 == 0 {
				p[y*stride+x] = lo
			} else {
				p[y*stride+x] = hi
			}
		}
	}
	return p
}

// ramp returns a padded plane whose samples step by step per element.
func ramp(g Geometry, step float32) []float32 {
	p := make([]float32, g.PaddedLen())
	for i := range p {
		p[i] = float32(i%g.Stride()) * step
	}
	return p
}

// interior copies the unpadded region of a padded plane.
func interior(p []float32, g Geometry) []float32 {
	out := make([]float32, 0, g.OutputLen())
	for y := 0; y < g.Height; y++ {
		row := (y+g.Radius)*g.Stride() + g.Radius
		out = append(out, p[row:row+g.Width]...)
	}
	return out
}

func clampInt(v, minVal, maxVal int) int {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}

// approx compares float planes with a relative and absolute tolerance.
func approx(tolerance float64) cmp.Option {
	return cmpopts.EquateApprox(0, tolerance)
}
