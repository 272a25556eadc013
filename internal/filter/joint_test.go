package filter

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gogpu/segrefine/internal/kernel"
)

func mustTable(t testing.TB, r uint32) *kernel.Table {
	t.Helper()
	table, err := kernel.Build(r)
	if err != nil {
		t.Fatalf("kernel.Build(%d): %v", r, err)
	}
	return &table
}

func TestGeometry(t *testing.T) {
	g := Geometry{Width: 4, Height: 3, Radius: 2}

	if g.Stride() != 8 {
		t.Errorf("Stride() = %d, want 8", g.Stride())
	}
	if g.Rows() != 7 {
		t.Errorf("Rows() = %d, want 7", g.Rows())
	}
	if g.PaddedLen() != 56 {
		t.Errorf("PaddedLen() = %d, want 56", g.PaddedLen())
	}
	if g.OutputLen() != 12 {
		t.Errorf("OutputLen() = %d, want 12", g.OutputLen())
	}
	if g.Window() != 5 {
		t.Errorf("Window() = %d, want 5", g.Window())
	}
}

func TestJointBilateralInvalidGeometry(t *testing.T) {
	table := mustTable(t, 1)
	buf := make([]float32, 64)

	tests := []struct {
		name string
		g    Geometry
	}{
		{"zero width", Geometry{Width: 0, Height: 2, Radius: 1}},
		{"zero height", Geometry{Width: 2, Height: 0, Radius: 1}},
		{"negative radius", Geometry{Width: 2, Height: 2, Radius: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := JointBilateral(buf, buf, buf, tt.g, table)
			if !errors.Is(err, ErrInvalidGeometry) {
				t.Errorf("JointBilateral error = %v, want ErrInvalidGeometry", err)
			}
		})
	}
}

func TestJointBilateralShortBuffers(t *testing.T) {
	g := Geometry{Width: 4, Height: 4, Radius: 1}
	table := mustTable(t, 1)
	full := make([]float32, g.PaddedLen())
	short := make([]float32, g.PaddedLen()-1)
	out := make([]float32, g.OutputLen())

	tests := []struct {
		name          string
		dst, src, seg []float32
	}{
		{"short source", out, short, full},
		{"short segmentation", out, full, short},
		{"short output", out[:len(out)-1], full, full},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := JointBilateral(tt.dst, tt.src, tt.seg, g, table)
			if !errors.Is(err, ErrShortBuffer) {
				t.Errorf("JointBilateral error = %v, want ErrShortBuffer", err)
			}
		})
	}

	if err := JointBilateral(out, full, full, g, nil); !errors.Is(err, ErrShortBuffer) {
		t.Errorf("JointBilateral(nil table) error = %v, want ErrShortBuffer", err)
	}
}

func TestJointBilateralCheckerboardConstantMask(t *testing.T) {
	g := Geometry{Width: 4, Height: 4, Radius: 1}
	src := checkerboard(g, 0, 255)
	seg := filled(g.PaddedLen(), 1)
	dst := make([]float32, g.OutputLen())

	if err := JointBilateral(dst, src, seg, g, mustTable(t, 1)); err != nil {
		t.Fatalf("JointBilateral: %v", err)
	}

	want := filled(16, 1)
	if diff := cmp.Diff(want, dst); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestJointBilateralConstantSegmentationLaw(t *testing.T) {
	tests := []struct {
		name  string
		g     Geometry
		rng   uint32
		value float32
		src   func(Geometry) []float32
	}{
		{"ramp r1", Geometry{Width: 7, Height: 5, Radius: 1}, 3, 0.25, func(g Geometry) []float32 { return ramp(g, 20) }},
		{"ramp r3", Geometry{Width: 9, Height: 6, Radius: 3}, 40, 0.8, func(g Geometry) []float32 { return ramp(g, 15) }},
		{"checker r2", Geometry{Width: 6, Height: 6, Radius: 2}, 7, 0.5, func(g Geometry) []float32 { return checkerboard(g, 10, 200) }},
		{"flat", Geometry{Width: 3, Height: 8, Radius: 2}, 1, 0.1, func(g Geometry) []float32 { return filled(g.PaddedLen(), 128) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seg := filled(tt.g.PaddedLen(), tt.value)
			dst := make([]float32, tt.g.OutputLen())

			if err := JointBilateral(dst, tt.src(tt.g), seg, tt.g, mustTable(t, tt.rng)); err != nil {
				t.Fatalf("JointBilateral: %v", err)
			}

			want := filled(tt.g.OutputLen(), tt.value)
			if diff := cmp.Diff(want, dst, approx(1e-5)); diff != "" {
				t.Errorf("output mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestJointBilateralZeroRadiusIsIdentity(t *testing.T) {
	g := Geometry{Width: 5, Height: 3, Radius: 0}
	src := ramp(g, 50)
	seg := make([]float32, g.PaddedLen())
	for i := range seg {
		seg[i] = float32(i) * 0.07
	}
	dst := make([]float32, g.OutputLen())

	if err := JointBilateral(dst, src, seg, g, mustTable(t, 2)); err != nil {
		t.Fatalf("JointBilateral: %v", err)
	}

	if diff := cmp.Diff(seg, dst); diff != "" {
		t.Errorf("radius 0 output mismatch (-want +got):\n%s", diff)
	}
}

func TestJointBilateralLargeRangeConvergesToBoxMean(t *testing.T) {
	g := Geometry{Width: 6, Height: 5, Radius: 2}
	src := checkerboard(g, 0, 255)
	seg := make([]float32, g.PaddedLen())
	for i := range seg {
		seg[i] = float32((i*37)%11) / 10
	}

	got := make([]float32, g.OutputLen())
	if err := JointBilateral(got, src, seg, g, mustTable(t, math.MaxUint32)); err != nil {
		t.Fatalf("JointBilateral: %v", err)
	}
	want := make([]float32, g.OutputLen())
	if err := BoxMean(want, seg, g); err != nil {
		t.Fatalf("BoxMean: %v", err)
	}

	if diff := cmp.Diff(want, got, approx(1e-4)); diff != "" {
		t.Errorf("large-range output differs from box mean (-want +got):\n%s", diff)
	}
}

func TestJointBilateralPreservesStepEdge(t *testing.T) {
	g := Geometry{Width: 8, Height: 4, Radius: 2}
	stride := g.Stride()
	src := make([]float32, g.PaddedLen())
	seg := make([]float32, g.PaddedLen())
	for i := range src {
		if i%stride >= stride/2 {
			src[i] = 200
			seg[i] = 1
		}
	}

	dst := make([]float32, g.OutputLen())
	if err := JointBilateral(dst, src, seg, g, mustTable(t, 1)); err != nil {
		t.Fatalf("JointBilateral: %v", err)
	}

	// Weight for a difference of 200 underflows to 0, so each side only
	// averages its own mask values.
	want := interior(seg, g)
	if diff := cmp.Diff(want, dst); diff != "" {
		t.Errorf("edge not preserved (-want +got):\n%s", diff)
	}

	box := make([]float32, g.OutputLen())
	if err := BoxMean(box, seg, g); err != nil {
		t.Fatalf("BoxMean: %v", err)
	}
	if cmp.Equal(want, box) {
		t.Error("box mean unexpectedly preserves the edge; test does not discriminate")
	}
}

func TestJointBilateralWritesOnlyOutputRegion(t *testing.T) {
	g := Geometry{Width: 3, Height: 2, Radius: 1}
	dst := filled(20, -1)

	err := JointBilateral(dst, ramp(g, 1), filled(g.PaddedLen(), 0.5), g, mustTable(t, 3))
	if err != nil {
		t.Fatalf("JointBilateral: %v", err)
	}

	for i, v := range dst {
		if i < g.OutputLen() {
			if math.Abs(float64(v)-0.5) > 1e-6 {
				t.Errorf("dst[%d] = %v, want 0.5", i, v)
			}
		} else if v != -1 {
			t.Errorf("dst[%d] = %v beyond output region, want untouched -1", i, v)
		}
	}
}

func TestJointBilateralIntensityDomain(t *testing.T) {
	g := Geometry{Width: 2, Height: 2, Radius: 1}
	table := mustTable(t, 5)
	seg := filled(g.PaddedLen(), 1)
	dst := make([]float32, g.OutputLen())

	t.Run("upper edge accepted", func(t *testing.T) {
		src := make([]float32, g.PaddedLen())
		src[0] = 255.9
		if err := JointBilateral(dst, src, seg, g, table); err != nil {
			t.Errorf("JointBilateral error = %v, want nil for difference 255.9", err)
		}
	})

	t.Run("negative samples accepted", func(t *testing.T) {
		src := filled(g.PaddedLen(), -100)
		src[5] = 100
		if err := JointBilateral(dst, src, seg, g, table); err != nil {
			t.Errorf("JointBilateral error = %v, want nil for difference 200", err)
		}
	})

	t.Run("difference 256 rejected", func(t *testing.T) {
		src := make([]float32, g.PaddedLen())
		src[0] = 256
		err := JointBilateral(dst, src, seg, g, table)
		if !errors.Is(err, ErrIntensityRange) {
			t.Fatalf("JointBilateral error = %v, want ErrIntensityRange", err)
		}
		var rerr *RangeError
		if !errors.As(err, &rerr) {
			t.Fatalf("error %T is not *RangeError", err)
		}
		if rerr.X != 0 || rerr.Y != 0 || rerr.Diff != 256 {
			t.Errorf("RangeError = %+v, want {X:0 Y:0 Diff:256}", *rerr)
		}
	})

	t.Run("NaN rejected", func(t *testing.T) {
		src := make([]float32, g.PaddedLen())
		src[g.PaddedLen()-1] = float32(math.NaN())
		if err := JointBilateral(dst, src, seg, g, table); !errors.Is(err, ErrIntensityRange) {
			t.Errorf("JointBilateral error = %v, want ErrIntensityRange", err)
		}
	})
}

func TestBoxMean(t *testing.T) {
	g := Geometry{Width: 2, Height: 1, Radius: 1}
	// Padded 4x3 plane.
	seg := []float32{
		0, 1, 2, 3,
		4, 5, 6, 7,
		8, 9, 10, 11,
	}
	dst := make([]float32, 2)

	if err := BoxMean(dst, seg, g); err != nil {
		t.Fatalf("BoxMean: %v", err)
	}

	want := []float32{45.0 / 9, 54.0 / 9}
	if diff := cmp.Diff(want, dst, approx(1e-6)); diff != "" {
		t.Errorf("BoxMean mismatch (-want +got):\n%s", diff)
	}

	if err := BoxMean(dst, seg[:5], g); !errors.Is(err, ErrShortBuffer) {
		t.Errorf("BoxMean(short) error = %v, want ErrShortBuffer", err)
	}
}

func BenchmarkJointBilateral(b *testing.B) {
	g := Geometry{Width: 256, Height: 144, Radius: 3}
	src := checkerboard(g, 40, 90)
	seg := filled(g.PaddedLen(), 0.5)
	dst := make([]float32, g.OutputLen())
	table := mustTable(b, 3)

	b.ReportAllocs()
	for b.Loop() {
		if err := JointBilateral(dst, src, seg, g, table); err != nil {
			b.Fatal(err)
		}
	}
}
