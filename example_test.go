package segrefine_test

import (
	"fmt"

	"github.com/gogpu/segrefine"
)

// ExampleEngine_Process refines a 4x4 mask guided by a checkerboard frame.
// A constant mask is a fixed point of the filter whatever the source.
func ExampleEngine_Process() {
	e, err := segrefine.NewEngine(segrefine.WithCapacity(64))
	if err != nil {
		fmt.Println("engine:", err)
		return
	}

	cfg := segrefine.Config{Width: 4, Height: 4, SpatialRadius: 1, Range: 1}
	n := int(cfg.PaddedLen())

	src := make([]float32, n)
	seg := make([]float32, n)
	for i := range src {
		if i%2 == 1 {
			src[i] = 255
		}
		seg[i] = 1
	}
	out := make([]float32, cfg.OutputLen())

	if err := e.Process(cfg, src, seg, out); err != nil {
		fmt.Println("process:", err)
		return
	}
	fmt.Println(out)
	// Output: [1 1 1 1 1 1 1 1 1 1 1 1 1 1 1 1]
}

// ExampleEngine_Apply shows a rejected pass.
func ExampleEngine_Apply() {
	e, err := segrefine.NewEngine(segrefine.WithCapacity(64))
	if err != nil {
		fmt.Println("engine:", err)
		return
	}

	err = e.Apply(segrefine.Config{Width: 4, Height: 4, SpatialRadius: 1, Range: 0})
	fmt.Println(err)
	// Output: kernel: range must be positive: got 0
}
