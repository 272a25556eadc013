// Package arena provides fixed-capacity, address-stable frame storage.
//
// An Arena allocates its planes once, at construction, and never resizes or
// moves them. Addresses published to a host therefore stay valid for the
// lifetime of the Arena. The active frame geometry is tracked as a logical
// size inside the fixed capacity.
//
// Thread safety: Arena is not safe for concurrent use. Callers serialize all
// access (the owning engine holds a single mutex around every operation).
package arena

import (
	"errors"
	"fmt"
	"unsafe"
)

// Arena errors.
var (
	// ErrInvalidCapacity is returned when the requested capacity is non-positive.
	ErrInvalidCapacity = errors.New("arena: invalid capacity")

	// ErrCapacityExceeded is returned when a frame does not fit the fixed capacity.
	ErrCapacityExceeded = errors.New("arena: frame exceeds capacity")
)

// Addresses holds the numeric addresses of the three published planes.
type Addresses struct {
	Source       uintptr
	Segmentation uintptr
	Output       uintptr
}

// Arena owns the source, segmentation, output and scratch planes.
type Arena struct {
	capacity int

	source       []float32
	segmentation []float32
	output       []float32

	// scratch stages a pass so output is only written once the pass succeeds.
	// It is never published.
	scratch []float32

	// Logical sizes of the active frame.
	paddedLen int
	outputLen int

	published Addresses
}

// New allocates an arena holding capacity elements per plane.
func New(capacity int) (*Arena, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}

	a := &Arena{
		capacity:     capacity,
		source:       make([]float32, capacity),
		segmentation: make([]float32, capacity),
		output:       make([]float32, capacity),
		scratch:      make([]float32, capacity),
	}
	a.published = a.addresses()
	return a, nil
}

// Capacity returns the number of elements in each plane.
func (a *Arena) Capacity() int {
	return a.capacity
}

// Addresses returns the addresses of element 0 of each published plane.
// The result is identical for every call on the same Arena.
func (a *Arena) Addresses() Addresses {
	got := a.addresses()
	if got != a.published {
		// Relocation would invalidate every address a host already holds.
		panic("arena: backing storage relocated")
	}
	return got
}

func (a *Arena) addresses() Addresses {
	return Addresses{
		Source:       uintptr(unsafe.Pointer(unsafe.SliceData(a.source))),
		Segmentation: uintptr(unsafe.Pointer(unsafe.SliceData(a.segmentation))),
		Output:       uintptr(unsafe.Pointer(unsafe.SliceData(a.output))),
	}
}

// Source returns the full-capacity padded source plane.
func (a *Arena) Source() []float32 { return a.source }

// Segmentation returns the full-capacity padded segmentation plane.
func (a *Arena) Segmentation() []float32 { return a.segmentation }

// Output returns the full-capacity output plane.
func (a *Arena) Output() []float32 { return a.output }

// Scratch returns the staging plane, sized to the reserved output length.
func (a *Arena) Scratch() []float32 { return a.scratch[:a.outputLen] }

// Reserve records the logical sizes of the next pass.
// It never allocates: a frame that does not fit is rejected.
func (a *Arena) Reserve(paddedLen, outputLen int) error {
	if paddedLen < 0 || outputLen < 0 {
		return fmt.Errorf("%w: negative size", ErrCapacityExceeded)
	}
	if paddedLen > a.capacity || outputLen > a.capacity {
		return fmt.Errorf("%w: padded %d, output %d, capacity %d",
			ErrCapacityExceeded, paddedLen, outputLen, a.capacity)
	}
	a.paddedLen = paddedLen
	a.outputLen = outputLen
	return nil
}

// PaddedLen returns the reserved length of the padded input planes.
func (a *Arena) PaddedLen() int { return a.paddedLen }

// OutputLen returns the reserved length of the output plane.
func (a *Arena) OutputLen() int { return a.outputLen }

// Commit copies the staged pass into the output plane.
// Only the first OutputLen elements of output are written.
func (a *Arena) Commit() {
	copy(a.output[:a.outputLen], a.scratch[:a.outputLen])
}
