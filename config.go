package segrefine

import (
	"fmt"
	"math"
	"math/bits"

	"github.com/gogpu/segrefine/internal/filter"
)

// Config describes one filter pass.
//
// Width and Height are the unpadded frame dimensions. SpatialRadius is both
// the window radius and the padding the host adds on every side of the
// source and segmentation planes. Range sets the falloff of the intensity
// weights; larger values weigh dissimilar pixels more.
type Config struct {
	Width         uint32 `yaml:"width"`
	Height        uint32 `yaml:"height"`
	SpatialRadius uint32 `yaml:"spatial_radius"`
	Range         uint32 `yaml:"range"`
}

// PaddedWidth returns the row stride of the padded input planes.
func (c Config) PaddedWidth() uint64 {
	return uint64(c.Width) + 2*uint64(c.SpatialRadius)
}

// PaddedHeight returns the row count of the padded input planes.
func (c Config) PaddedHeight() uint64 {
	return uint64(c.Height) + 2*uint64(c.SpatialRadius)
}

// PaddedLen returns the element count of a padded input plane.
// It saturates at math.MaxUint64 instead of overflowing.
func (c Config) PaddedLen() uint64 {
	hi, lo := bits.Mul64(c.PaddedWidth(), c.PaddedHeight())
	if hi != 0 {
		return math.MaxUint64
	}
	return lo
}

// OutputLen returns the element count of the output plane.
func (c Config) OutputLen() uint64 {
	return uint64(c.Width) * uint64(c.Height)
}

// WindowSize returns the side length of the square filter window.
func (c Config) WindowSize() uint64 {
	return 2*uint64(c.SpatialRadius) + 1
}

// Validate checks c against the invariants of a pass on an arena of the
// given capacity. It performs no buffer access.
func (c Config) Validate(capacity int) error {
	if c.Width == 0 || c.Height == 0 {
		return fmt.Errorf("%w: got %dx%d", ErrInvalidDimensions, c.Width, c.Height)
	}
	if c.Range == 0 {
		return fmt.Errorf("%w: got 0", ErrZeroRange)
	}
	if capacity < 0 || c.PaddedLen() > uint64(capacity) {
		return fmt.Errorf("%w: padded %dx%d needs %d elements, capacity %d",
			ErrCapacityExceeded, c.PaddedWidth(), c.PaddedHeight(), c.PaddedLen(), capacity)
	}
	return nil
}

// geometry converts a validated config to filter geometry.
func (c Config) geometry() filter.Geometry {
	return filter.Geometry{
		Width:  int(c.Width),
		Height: int(c.Height),
		Radius: int(c.SpatialRadius),
	}
}

// String returns a compact description for logs.
func (c Config) String() string {
	return fmt.Sprintf("%dx%d sp=%d range=%d", c.Width, c.Height, c.SpatialRadius, c.Range)
}
