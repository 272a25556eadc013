// Package binding exposes an Engine through the flat, scalar-only surface a
// sandboxed host such as a browser wasm runtime can call.
//
// The host queries the plane addresses once, writes padded source and
// segmentation samples straight into that memory, calls Filter with the
// frame geometry and reads the refined mask back from the output plane.
package binding

import (
	"errors"
	"fmt"
	"math"

	"github.com/gogpu/segrefine"
)

// ErrInvalidArgument is returned by ParseDims for a value that is not an
// exact uint32.
var ErrInvalidArgument = errors.New("binding: argument must be an integer in [0, 4294967295]")

// Plane indexes in the array returned by Host.Addresses.
const (
	SourcePlane = iota
	SegmentationPlane
	OutputPlane
)

// Host adapts an Engine to scalar arguments.
type Host struct {
	engine *segrefine.Engine
}

// New returns a Host backed by e. A nil e selects segrefine.Default.
func New(e *segrefine.Engine) *Host {
	if e == nil {
		e = segrefine.Default()
	}
	return &Host{engine: e}
}

// Engine returns the underlying engine.
func (h *Host) Engine() *segrefine.Engine { return h.engine }

// Addresses returns the source, segmentation and output plane addresses,
// in that order. Repeated calls return identical values.
func (h *Host) Addresses() [3]uintptr {
	a := h.engine.Addresses()
	return [3]uintptr{
		SourcePlane:       a.Source,
		SegmentationPlane: a.Segmentation,
		OutputPlane:       a.Output,
	}
}

// Filter runs one pass over the frame the host wrote into the published
// planes. On error the output plane is left unchanged.
func (h *Host) Filter(width, height, spatialRadius, rng uint32) error {
	return h.engine.Apply(segrefine.Config{
		Width:         width,
		Height:        height,
		SpatialRadius: spatialRadius,
		Range:         rng,
	})
}

// Config returns width, height, spatial radius and range of the last
// successful pass, and false if no pass has succeeded yet.
func (h *Host) Config() ([4]uint32, bool) {
	c, ok := h.engine.Config()
	return [4]uint32{c.Width, c.Height, c.SpatialRadius, c.Range}, ok
}

// ParseDims converts the width, height, spatial radius and range a host
// passed as numbers. Every value must be finite, integral and fit a uint32;
// nothing is wrapped, truncated or clamped.
func ParseDims(args []float64) ([4]uint32, error) {
	var dims [4]uint32
	if len(args) != len(dims) {
		return dims, fmt.Errorf("%w: want %d arguments, got %d", ErrInvalidArgument, len(dims), len(args))
	}
	for i, v := range args {
		if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) || v < 0 || v > math.MaxUint32 {
			return [4]uint32{}, fmt.Errorf("%w: argument %d is %v", ErrInvalidArgument, i, v)
		}
		dims[i] = uint32(v)
	}
	return dims, nil
}
