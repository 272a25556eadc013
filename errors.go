package segrefine

import (
	"errors"

	"github.com/gogpu/segrefine/internal/arena"
	"github.com/gogpu/segrefine/internal/filter"
	"github.com/gogpu/segrefine/internal/kernel"
)

// Errors returned by Engine operations. Rejected calls wrap one of these and
// leave the output buffer untouched.
var (
	// ErrInvalidDimensions is returned when width or height is zero.
	ErrInvalidDimensions = errors.New("segrefine: width and height must be positive")

	// ErrZeroRange is returned when the range parameter is zero.
	ErrZeroRange = kernel.ErrZeroRange

	// ErrCapacityExceeded is returned when the padded frame does not fit the arena.
	ErrCapacityExceeded = arena.ErrCapacityExceeded

	// ErrInvalidCapacity is returned by NewEngine for a non-positive capacity.
	ErrInvalidCapacity = arena.ErrInvalidCapacity

	// ErrIntensityRange is returned when a source intensity difference cannot
	// index the range table. The concrete error is a *RangeError.
	ErrIntensityRange = filter.ErrIntensityRange

	// ErrShortBuffer is returned by Process when a caller slice is smaller
	// than the configured frame.
	ErrShortBuffer = filter.ErrShortBuffer
)

// RangeError reports the output pixel whose window held an intensity
// difference outside [0, 256).
type RangeError = filter.RangeError
