package window

import (
	"math"
	"testing"
)

func TestKaiserShape(t *testing.T) {
	for _, size := range []int{7, 8, 49} {
		w, err := Kaiser(size, 5)
		if err != nil {
			t.Fatal(err)
		}

		if len(w) != size {
			t.Fatalf("len=%d, want %d", len(w), size)
		}

		for i := range size / 2 {
			if math.Abs(w[i]-w[size-1-i]) > 1e-12 {
				t.Fatalf("size %d: w[%d]=%v, w[%d]=%v, want symmetric", size, i, w[i], size-1-i, w[size-1-i])
			}

			if w[i] > w[i+1]+1e-12 {
				t.Fatalf("size %d: not rising towards the centre at %d", size, i)
			}
		}

		// The edges weigh 1/I0(beta).
		if want := 1 / besselI0(5); math.Abs(w[0]-want) > 1e-12 {
			t.Fatalf("edge = %v, want %v", w[0], want)
		}
	}

	w, _ := Kaiser(49, 5)
	if math.Abs(w[24]-1) > 1e-12 {
		t.Fatalf("centre = %v, want 1", w[24])
	}
}

func TestKaiserZeroBetaIsRectangular(t *testing.T) {
	w, err := Kaiser(16, 0)
	if err != nil {
		t.Fatal(err)
	}

	for i, v := range w {
		if v != 1 {
			t.Fatalf("w[%d]=%v, want 1", i, v)
		}
	}
}

func TestKaiserRejectsInvalidArguments(t *testing.T) {
	tests := []struct {
		size int
		beta float64
	}{
		{0, 5},
		{-3, 5},
		{8, -1},
		{8, math.NaN()},
	}

	for _, tt := range tests {
		if _, err := Kaiser(tt.size, tt.beta); err == nil {
			t.Fatalf("Kaiser(%d, %v) returned no error", tt.size, tt.beta)
		}
	}
}

func TestBesselI0(t *testing.T) {
	// Reference values of I0.
	tests := []struct{ x, want float64 }{
		{0, 1},
		{1, 1.2660658777520082},
		{3, 4.880792585865024},
		{5, 27.239871823604442},
	}

	for _, tt := range tests {
		if got := besselI0(tt.x); math.Abs(got-tt.want) > 1e-6*tt.want {
			t.Errorf("I0(%v) = %v, want %v", tt.x, got, tt.want)
		}
	}
}

func TestApplyCoefficientsInPlace(t *testing.T) {
	samples := []float64{1, 2, 3, 4}
	if err := ApplyCoefficientsInPlace(samples, []float64{0.5, 0, -1, 2}); err != nil {
		t.Fatal(err)
	}

	want := []float64{0.5, 0, -3, 8}
	for i := range want {
		if samples[i] != want[i] {
			t.Fatalf("samples[%d]=%v, want %v", i, samples[i], want[i])
		}
	}

	if err := ApplyCoefficientsInPlace(samples, []float64{1}); err == nil {
		t.Fatal("expected length mismatch error")
	}
}
