package segrefine

import "log/slog"

// Option configures an Engine during creation.
// Use functional options to customize Engine behavior.
//
// Example:
//
//	// Default capacity, package logger
//	e, err := segrefine.NewEngine()
//
//	// Room for a 640x480 frame padded by radius 8
//	e, err := segrefine.NewEngine(segrefine.WithCapacity((640+16)*(480+16)))
type Option func(*engineOptions)

// engineOptions holds optional configuration for Engine creation.
type engineOptions struct {
	capacity int
	logger   *slog.Logger
}

// defaultOptions returns the default engine options.
func defaultOptions() engineOptions {
	return engineOptions{
		capacity: DefaultCapacity,
		logger:   nil, // Falls back to the package logger on every call
	}
}

// WithCapacity sets the number of elements allocated for each arena plane.
// The capacity bounds the padded frame size for the engine's lifetime.
func WithCapacity(n int) Option {
	return func(o *engineOptions) {
		o.capacity = n
	}
}

// WithLogger sets a logger for this engine only.
// Without it the engine logs through Logger, so later SetLogger calls apply.
func WithLogger(l *slog.Logger) Option {
	return func(o *engineOptions) {
		o.logger = l
	}
}
