//go:build js && wasm

// Command segrefine-wasm publishes the refinement engine to JavaScript.
//
// It registers two functions on globalThis:
//
//	segrefineAddresses() -> [source, segmentation, output]
//	segrefineFilter(width, height, spatialRadius, range) -> undefined | {error}
//
// Addresses are byte offsets into the module's linear memory. The caller
// writes padded float32 frames at the source and segmentation offsets and
// reads width*height refined samples from the output offset.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"syscall/js"

	"github.com/gogpu/segrefine"
	"github.com/gogpu/segrefine/binding"
)

func main() {
	segrefine.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	host := binding.New(nil)

	js.Global().Set("segrefineAddresses", js.FuncOf(func(js.Value, []js.Value) any {
		a := host.Addresses()
		return []any{int(a[0]), int(a[1]), int(a[2])}
	}))

	js.Global().Set("segrefineFilter", js.FuncOf(func(_ js.Value, args []js.Value) any {
		nums := make([]float64, len(args))
		for i, arg := range args {
			if arg.Type() != js.TypeNumber {
				return failure(fmt.Errorf("segrefineFilter: argument %d is a %v, want number", i, arg.Type()))
			}
			nums[i] = arg.Float()
		}
		dims, err := binding.ParseDims(nums)
		if err != nil {
			return failure(fmt.Errorf("segrefineFilter: %w", err))
		}
		if err := host.Filter(dims[0], dims[1], dims[2], dims[3]); err != nil {
			return failure(err)
		}
		return js.Undefined()
	}))

	// Keep the exported functions alive.
	select {}
}

func failure(err error) any {
	return map[string]any{"error": err.Error()}
}
