// Package filter provides the joint bilateral mask refinement pass.
//
// The pass smooths a single-channel segmentation plane using weights taken
// from a second, structurally richer plane (the grayscale source frame).
// Weights depend only on the intensity difference to the window center; the
// window radius bounds the spatial extent but does not modulate weight.
//
// All filters are designed for:
//   - Zero-allocation hot paths
//   - Row-major access over caller-owned padded planes
//   - No boundary handling: padding belongs to the caller
package filter
