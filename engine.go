package segrefine

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/gogpu/segrefine/internal/arena"
	"github.com/gogpu/segrefine/internal/filter"
	"github.com/gogpu/segrefine/internal/kernel"
)

// DefaultCapacity is the per-plane element capacity of engines created
// without WithCapacity. It holds, for example, a 2048x2048 padded frame.
const DefaultCapacity = 1024 * 1024 * 4

// Addresses holds the numeric addresses of the source, segmentation and
// output planes. They are stable for the lifetime of the Engine.
type Addresses = arena.Addresses

// KernelTable is the 256-entry range weight table indexed by the quantized
// absolute intensity difference.
type KernelTable = kernel.Table

// Buffers exposes the full-capacity planes of an engine inside Access.
//
// Source and Segmentation are padded planes: the host writes row-major
// samples with stride Config.PaddedWidth(), including the border. Output is
// unpadded with stride Config.Width.
type Buffers struct {
	Source       []float32
	Segmentation []float32
	Output       []float32
}

// Stats reports engine activity counters.
type Stats struct {
	// Passes is the number of successful passes.
	Passes uint64
	// Rejected is the number of passes that returned an error.
	Rejected uint64
	// KernelBuilds counts range table recomputations.
	KernelBuilds uint64
	// KernelHits counts passes that reused the cached range table.
	KernelHits uint64
}

// Engine owns the buffer arena, the range table cache and the last applied
// configuration, all behind a single mutex. Every method takes exclusive
// access for its full duration, so address queries, buffer access and
// passes never overlap.
//
// Thread safety: Engine is safe for concurrent use. Concurrent callers are
// serialized; blocking on the mutex is expected behavior.
type Engine struct {
	mu sync.Mutex

	arena  *arena.Arena
	kernel kernel.Cache

	config  Config
	applied bool

	passes   uint64
	rejected uint64

	logger *slog.Logger
}

// NewEngine allocates an engine with a fixed-capacity arena.
// The arena is never resized; frames that do not fit are rejected.
func NewEngine(opts ...Option) (*Engine, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	a, err := arena.New(o.capacity)
	if err != nil {
		return nil, fmt.Errorf("segrefine: %w", err)
	}

	e := &Engine{
		arena:  a,
		logger: o.logger,
	}
	e.log().Info("arena allocated",
		"capacity", a.Capacity(),
		"bytes", 4*4*a.Capacity())
	return e, nil
}

var (
	defaultOnce   sync.Once
	defaultEngine *Engine
)

// Default returns the process-wide engine, allocating it with
// DefaultCapacity on first use. Later calls return the same engine.
func Default() *Engine {
	defaultOnce.Do(func() {
		e, err := NewEngine()
		if err != nil {
			// Only reachable if DefaultCapacity is invalid.
			panic(err)
		}
		defaultEngine = e
	})
	return defaultEngine
}

func (e *Engine) log() *slog.Logger {
	if e.logger != nil {
		return e.logger
	}
	return Logger()
}

// Capacity returns the per-plane element capacity.
func (e *Engine) Capacity() int {
	// Immutable after construction.
	return e.arena.Capacity()
}

// Addresses returns the addresses of the published planes.
// Two calls on the same engine always return identical values.
func (e *Engine) Addresses() Addresses {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.arena.Addresses()
}

// Access runs fn with exclusive access to the engine's planes.
// Hosts write input frames and read results inside fn; the slices must not
// be retained after fn returns.
func (e *Engine) Access(fn func(Buffers) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	return fn(Buffers{
		Source:       e.arena.Source(),
		Segmentation: e.arena.Segmentation(),
		Output:       e.arena.Output(),
	})
}

// Apply runs one joint bilateral pass over the frame currently held in the
// source and segmentation planes and overwrites the first
// cfg.Width*cfg.Height elements of the output plane.
//
// The range table is recomputed only when cfg.Range differs from the last
// applied range. On error nothing in the output plane changes.
func (e *Engine) Apply(cfg Config) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.apply(cfg)
}

// Process copies a padded source and segmentation frame into the arena,
// runs Apply and copies the refined mask into out, all under one
// acquisition of the engine lock.
//
// src and seg must hold at least cfg.PaddedLen() elements and out at least
// cfg.OutputLen() elements.
func (e *Engine) Process(cfg Config, src, seg, out []float32) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.validate(cfg); err != nil {
		return err
	}
	padded := int(cfg.PaddedLen())
	n := int(cfg.OutputLen())
	if len(src) < padded || len(seg) < padded || len(out) < n {
		return e.reject(cfg, fmt.Errorf("%w: src %d, seg %d, out %d for %v",
			ErrShortBuffer, len(src), len(seg), len(out), cfg))
	}

	copy(e.arena.Source(), src[:padded])
	copy(e.arena.Segmentation(), seg[:padded])

	if err := e.run(cfg); err != nil {
		return err
	}

	copy(out[:n], e.arena.Output()[:n])
	return nil
}

// apply validates cfg and runs a pass. Callers hold e.mu.
func (e *Engine) apply(cfg Config) error {
	if err := e.validate(cfg); err != nil {
		return err
	}
	return e.run(cfg)
}

// run executes a pass for a validated cfg. Callers hold e.mu.
func (e *Engine) run(cfg Config) error {
	g := cfg.geometry()
	if err := e.arena.Reserve(g.PaddedLen(), g.OutputLen()); err != nil {
		return e.reject(cfg, err)
	}

	table, rebuilt, err := e.kernel.Lookup(cfg.Range)
	if err != nil {
		return e.reject(cfg, err)
	}
	if rebuilt {
		e.log().Debug("range table rebuilt", "range", cfg.Range)
	}

	// Stage into scratch so a rejected pass never exposes partial output.
	err = filter.JointBilateral(e.arena.Scratch(), e.arena.Source(), e.arena.Segmentation(), g, table)
	if err != nil {
		return e.reject(cfg, err)
	}
	e.arena.Commit()

	e.config = cfg
	e.applied = true
	e.passes++
	e.log().Debug("pass complete",
		"width", cfg.Width,
		"height", cfg.Height,
		"spatial_radius", cfg.SpatialRadius,
		"range", cfg.Range)
	return nil
}

// validate checks cfg before any buffer access. Callers hold e.mu.
func (e *Engine) validate(cfg Config) error {
	if err := cfg.Validate(e.arena.Capacity()); err != nil {
		return e.reject(cfg, err)
	}
	return nil
}

// reject records and logs a rejected call, returning err.
func (e *Engine) reject(cfg Config, err error) error {
	e.rejected++
	e.log().Warn("pass rejected", "config", cfg.String(), "error", err)
	return err
}

// Config returns the configuration of the last successful pass.
func (e *Engine) Config() (Config, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.config, e.applied
}

// KernelTable returns a copy of the cached range table and whether one has
// been built.
func (e *Engine) KernelTable() (KernelTable, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.kernel.Snapshot()
}

// KernelRange returns the range the cached table was built for.
func (e *Engine) KernelRange() (uint32, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.kernel.Range()
}

// Stats returns a snapshot of the engine counters.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	return Stats{
		Passes:       e.passes,
		Rejected:     e.rejected,
		KernelBuilds: e.kernel.Builds(),
		KernelHits:   e.kernel.Hits(),
	}
}
