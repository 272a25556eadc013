// Package kernel provides the range (intensity-difference) weight table used
// by the joint bilateral pass, and a single-entry cache keyed on the range
// parameter.
package kernel

import (
	"errors"
	"fmt"
	"math"
)

// Size is the number of table entries: one per quantized absolute intensity
// difference in [0, 255].
const Size = 256

// ErrZeroRange is returned for a range of 0, where the Gaussian coefficient
// is singular.
var ErrZeroRange = errors.New("kernel: range must be positive")

// Table maps a quantized absolute intensity difference to its weight.
type Table [Size]float32

// Coefficient returns 1 / sqrt(2π·r²), the exponent scale for range r.
func Coefficient(r uint32) float64 {
	rf := float64(r)
	return 1 / math.Sqrt(2*math.Pi*rf*rf)
}

// Build computes the weight table for range r:
//
//	weight[d] = exp(-d² · Coefficient(r))
//
// weight[0] is exactly 1.
func Build(r uint32) (Table, error) {
	var t Table
	if r == 0 {
		return t, ErrZeroRange
	}
	t.fill(r)
	return t, nil
}

func (t *Table) fill(r uint32) {
	c := Coefficient(r)
	for d := range t {
		fd := float64(d)
		t[d] = float32(math.Exp(-fd * fd * c))
	}
}

// Cache memoizes the table for the most recently requested range.
//
// Cache is not synchronized; the owning engine serializes access.
type Cache struct {
	table Table
	rng   uint32
	valid bool

	builds uint64
	hits   uint64
}

// Lookup returns the table for range r. When r equals the cached range the
// existing table is returned unmodified; otherwise all entries are recomputed
// and r becomes the cached range. rebuilt reports which case occurred.
func (c *Cache) Lookup(r uint32) (table *Table, rebuilt bool, err error) {
	if r == 0 {
		return nil, false, fmt.Errorf("%w: got 0", ErrZeroRange)
	}
	if c.valid && c.rng == r {
		c.hits++
		return &c.table, false, nil
	}

	c.table.fill(r)
	c.rng = r
	c.valid = true
	c.builds++
	return &c.table, true, nil
}

// Range returns the cached range key, if any.
func (c *Cache) Range() (uint32, bool) {
	return c.rng, c.valid
}

// Snapshot returns a copy of the cached table.
func (c *Cache) Snapshot() (Table, bool) {
	return c.table, c.valid
}

// Builds returns how many times the table has been recomputed.
func (c *Cache) Builds() uint64 { return c.builds }

// Hits returns how many lookups reused the cached table.
func (c *Cache) Hits() uint64 { return c.hits }
