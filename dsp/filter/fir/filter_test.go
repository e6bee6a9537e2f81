package fir

import (
	"math"
	"testing"
)

func TestImpulseResponseEqualsCoefficients(t *testing.T) {
	coeffs := []float64{0.5, -0.25, 0.125, 2}
	f := New(coeffs)

	for n := range 8 {
		x := 0.0
		if n == 0 {
			x = 1
		}

		want := 0.0
		if n < len(coeffs) {
			want = coeffs[n]
		}

		if got := f.ProcessSample(x); got != want {
			t.Fatalf("h[%d] = %v, want %v", n, got, want)
		}
	}
}

func TestProcessSampleMatchesDirectConvolution(t *testing.T) {
	coeffs := []float64{0.1, 0.2, 0.3, 0.2, 0.1}
	input := []float64{1, -0.5, 0.25, 0.75, -1, 0.3, 0, 0.9, -0.2, 0.4}
	f := New(coeffs)

	for n, x := range input {
		want := 0.0
		for k, h := range coeffs {
			if n-k >= 0 {
				want += h * input[n-k]
			}
		}

		if got := f.ProcessSample(x); math.Abs(got-want) > 1e-12 {
			t.Fatalf("y[%d] = %v, want %v", n, got, want)
		}
	}
}

func TestProcessBlockMatchesSample(t *testing.T) {
	coeffs := []float64{0.25, 0.5, 0.25}
	input := []float64{1, 0.5, -0.3, 0.7, 0, -1}

	ref := New(coeffs)
	block := append([]float64(nil), input...)
	New(coeffs).ProcessBlock(block)

	for i, x := range input {
		if want := ref.ProcessSample(x); block[i] != want {
			t.Fatalf("sample %d: ProcessBlock=%v, ProcessSample=%v", i, block[i], want)
		}
	}
}

func TestResetAndAccessors(t *testing.T) {
	coeffs := []float64{1, 2, 3}
	f := New(coeffs)
	coeffs[0] = 42

	if f.Order() != 2 {
		t.Fatalf("Order() = %d, want 2", f.Order())
	}

	got := f.Coefficients()
	if got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Fatalf("Coefficients() = %v, want [1 2 3]", got)
	}

	f.ProcessSample(1)
	f.ProcessSample(1)
	f.Reset()

	if y := f.ProcessSample(0); y != 0 {
		t.Fatalf("after reset got %v, want 0", y)
	}
}

func TestEmptyFilter(t *testing.T) {
	if y := New(nil).ProcessSample(1); y != 0 {
		t.Fatalf("empty filter output %v, want 0", y)
	}
}

func TestProcessSampleDoesNotAllocate(t *testing.T) {
	f := New(make([]float64, 12))
	allocs := testing.AllocsPerRun(100, func() {
		f.ProcessSample(0.5)
	})

	if allocs != 0 {
		t.Fatalf("ProcessSample allocated %v times per run", allocs)
	}
}

func BenchmarkProcessSample12(b *testing.B) {
	f := New([]float64{0.01, -0.03, 0.07, -0.15, 0.3, 0.8, 0.3, -0.15, 0.07, -0.03, 0.01, 0})

	for i := range b.N {
		f.ProcessSample(float64(i & 1))
	}
}
