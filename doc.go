// Package segrefine refines coarse segmentation masks with a joint
// bilateral filter guided by a grayscale source frame.
//
// # Overview
//
// An Engine owns three fixed-capacity float32 planes (source,
// segmentation, output), a memoized 256-entry range weight table and the
// configuration of the last pass. Hosts write a padded frame into the
// source and segmentation planes, call Apply with the frame geometry and
// read the refined mask from the output plane.
//
// # Quick Start
//
//	import "github.com/gogpu/segrefine"
//
//	e, err := segrefine.NewEngine()
//	if err != nil {
//	    return err
//	}
//
//	cfg := segrefine.Config{Width: 256, Height: 144, SpatialRadius: 3, Range: 10}
//	out := make([]float32, cfg.OutputLen())
//
//	// src and seg hold cfg.PaddedLen() samples with stride cfg.PaddedWidth()
//	if err := e.Process(cfg, src, seg, out); err != nil {
//	    return err
//	}
//
// # Frame Layout
//
// Source and segmentation planes are padded by the spatial radius on every
// side: row-major with stride Width+2*SpatialRadius and
// Height+2*SpatialRadius rows. The engine imposes no border policy; the
// host fills the border. Source samples are intensities whose pairwise
// differences stay below 256 (typically 0..255). Segmentation samples are
// usually probabilities in 0..1.
//
// The output plane is unpadded, Width*Height samples with stride Width.
// A pass writes only that region; the rest of the plane is left untouched.
//
// # Weighting
//
// Every neighbor in the (2r+1)x(2r+1) window is weighted by
// exp(-d*d*c) with c = 1/sqrt(2*pi*range*range), where d is the floor of
// the absolute intensity difference to the window center. There is no
// spatial falloff term: all neighbors at equal intensity difference weigh
// the same regardless of distance. The table is rebuilt only when the
// range changes.
//
// # Addresses
//
// The planes are allocated once at construction and never move. Addresses
// returns their numeric locations for hosts that share linear memory with
// the engine, such as a browser running the wasm build.
//
// # Thread Safety
//
// All Engine methods serialize on one mutex. Buffer access from Go goes
// through Access or Process so it never overlaps a pass.
//
// # Logging
//
// segrefine is silent by default. Use SetLogger or WithLogger to receive
// structured log records through log/slog.
package segrefine
