// Package image prepares single-channel float planes for the refinement
// engine: grayscale conversion, mask extraction, resizing, border padding
// and file I/O.
//
// The engine imposes no border policy. Hosts pick one of the padding modes
// here (symmetric mirroring is the default) and write the padded planes
// into the engine's buffers.
package image

import (
	"errors"
	"fmt"
)

// Common errors for plane operations.
var (
	// ErrInvalidDimensions is returned when width or height is non-positive.
	ErrInvalidDimensions = errors.New("image: invalid dimensions")

	// ErrDataTooSmall is returned when provided data is smaller than required.
	ErrDataTooSmall = errors.New("image: data buffer too small")
)

// Plane is a single-channel, row-major float32 image with stride equal to
// its width.
type Plane struct {
	data   []float32
	width  int
	height int
}

// NewPlane creates a zeroed plane with the given dimensions.
func NewPlane(width, height int) (*Plane, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	return &Plane{
		data:   make([]float32, width*height),
		width:  width,
		height: height,
	}, nil
}

// Width returns the plane width in pixels.
func (p *Plane) Width() int { return p.width }

// Height returns the plane height in pixels.
func (p *Plane) Height() int { return p.height }

// Data returns the underlying samples.
func (p *Plane) Data() []float32 { return p.data }

// Row returns the samples of row y, or nil if y is out of bounds.
func (p *Plane) Row(y int) []float32 {
	if y < 0 || y >= p.height {
		return nil
	}
	return p.data[y*p.width : (y+1)*p.width]
}

// Scale multiplies every sample by s.
func (p *Plane) Scale(s float32) {
	for i := range p.data {
		p.data[i] *= s
	}
}
