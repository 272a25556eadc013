// Command segrefine refines a coarse segmentation mask against its source
// frame with the joint bilateral engine and writes the result as a PNG.
//
// Usage:
//
//	segrefine -source frame.png -mask coarse.png -out refined.png [-radius 3 -range 10]
//
// Settings are read from an optional YAML file (-config), then from
// SEGREFINE_* environment variables (also loaded from a .env file), then
// from flags.
package main

import (
	"errors"
	"flag"
	"fmt"
	stdimage "image"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/gogpu/segrefine"
	"github.com/gogpu/segrefine/internal/image"
)

func main() {
	os.Exit(realMain(os.Args[1:], os.Stdout, os.Stderr))
}

func realMain(args []string, stdout, stderr io.Writer) int {
	cfg, err := parseConfig(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		color.New(color.FgRed).Fprintf(stderr, "segrefine: %v\n", err)
		return 2
	}

	logger, closer := newLogger(cfg, stderr)
	defer func() { _ = closer.Close() }()

	res, err := run(cfg, logger)
	if err != nil {
		logger.Error("refinement failed", "error", err)
		color.New(color.FgRed, color.Bold).Fprintf(stderr, "segrefine: %v\n", err)
		return 1
	}

	printSummary(stdout, cfg, res)
	return 0
}

// newLogger builds the run logger. With a log file configured, records go
// to a size-rotated file; otherwise to stderr.
func newLogger(cfg config, stderr io.Writer) (*slog.Logger, io.Closer) {
	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}

	var (
		w      io.Writer = stderr
		closer io.Closer = nopCloser{}
	)
	if cfg.LogFile != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     7, // days
			Compress:   true,
		}
		w, closer = lj, lj
	}

	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(h).With("run", uuid.NewString()), closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// result describes a completed run.
type result struct {
	Width, Height int
	SourceFormat  string
	MaskFormat    string
	Elapsed       time.Duration
}

func run(cfg config, logger *slog.Logger) (result, error) {
	var res result

	// Decode both inputs concurrently.
	var src, mask stdimage.Image
	var g errgroup.Group
	g.Go(func() error {
		var err error
		src, res.SourceFormat, err = image.LoadImage(cfg.Source)
		if err != nil {
			return fmt.Errorf("source %s: %w", cfg.Source, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		mask, res.MaskFormat, err = image.LoadImage(cfg.Mask)
		if err != nil {
			return fmt.Errorf("mask %s: %w", cfg.Mask, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return res, err
	}

	b := src.Bounds()
	width, height, err := cfg.frameSize(b.Dx(), b.Dy())
	if err != nil {
		return res, err
	}
	res.Width, res.Height = width, height
	logger.Debug("inputs decoded",
		"source", cfg.Source, "source_format", res.SourceFormat,
		"mask", cfg.Mask, "mask_format", res.MaskFormat,
		"width", width, "height", height)

	if src, err = image.Resize(src, width, height); err != nil {
		return res, err
	}
	if mask, err = image.Resize(mask, width, height); err != nil {
		return res, err
	}

	mode, err := image.ParsePadMode(cfg.Pad)
	if err != nil {
		return res, err
	}

	opts := []segrefine.Option{segrefine.WithLogger(logger)}
	if cfg.Capacity > 0 {
		opts = append(opts, segrefine.WithCapacity(cfg.Capacity))
	}
	engine, err := segrefine.NewEngine(opts...)
	if err != nil {
		return res, err
	}

	frame := segrefine.Config{
		Width:         uint32(width),
		Height:        uint32(height),
		SpatialRadius: cfg.Radius,
		Range:         cfg.Range,
	}
	if err := frame.Validate(engine.Capacity()); err != nil {
		return res, err
	}

	luma := image.Luma(src)
	seg := image.MaskPlane(mask)
	if cfg.MaskScale != 1 {
		seg.Scale(cfg.MaskScale)
	}
	r := int(cfg.Radius)
	err = engine.Access(func(buf segrefine.Buffers) error {
		if err := image.PadInto(buf.Source, luma, r, mode); err != nil {
			return fmt.Errorf("pad source: %w", err)
		}
		if err := image.PadInto(buf.Segmentation, seg, r, mode); err != nil {
			return fmt.Errorf("pad mask: %w", err)
		}
		return nil
	})
	if err != nil {
		return res, err
	}

	start := time.Now()
	if err := engine.Apply(frame); err != nil {
		return res, err
	}
	res.Elapsed = time.Since(start)

	out, err := image.NewPlane(width, height)
	if err != nil {
		return res, err
	}
	err = engine.Access(func(buf segrefine.Buffers) error {
		copy(out.Data(), buf.Output[:frame.OutputLen()])
		return nil
	})
	if err != nil {
		return res, err
	}

	// The refined mask is in the same units as the scaled input mask.
	if err := image.SavePNG(cfg.Out, out.ToGray(255/cfg.MaskScale)); err != nil {
		return res, err
	}

	logger.Info("refined mask written",
		"out", cfg.Out,
		"config", frame.String(),
		"elapsed", res.Elapsed,
		"kernel_builds", engine.Stats().KernelBuilds)
	return res, nil
}

// printSummary writes a short colored report with locale-formatted numbers.
func printSummary(w io.Writer, cfg config, res result) {
	tag, err := language.Parse(cfg.Locale)
	if err != nil {
		tag = language.English
	}
	p := message.NewPrinter(tag)

	color.New(color.FgGreen, color.Bold).Fprint(w, "refined ")
	fmt.Fprintln(w, cfg.Out)

	dim := color.New(color.FgHiBlack)
	dim.Fprint(w, "  frame   ")
	p.Fprintf(w, "%d x %d (%d pixels, radius %d, range %d)\n",
		res.Width, res.Height, res.Width*res.Height, cfg.Radius, cfg.Range)
	dim.Fprint(w, "  window  ")
	p.Fprintf(w, "%d samples per pixel\n", (2*uint64(cfg.Radius)+1)*(2*uint64(cfg.Radius)+1))
	dim.Fprint(w, "  elapsed ")
	p.Fprintf(w, "%.3f ms\n", float64(res.Elapsed.Microseconds())/1000)
}
