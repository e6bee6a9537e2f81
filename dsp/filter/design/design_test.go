package design

import (
	"math"
	"testing"

	"github.com/cwbudde/peaklim/dsp/filter/biquad"
)

func TestResponseShapes(t *testing.T) {
	const sr = 48000.0

	tests := []struct {
		name      string
		c         biquad.Coefficients
		pass      float64
		stop      float64
		passWant  float64
		passTol   float64
		stopBelow float64
	}{
		{"highpass", Highpass(1000, defaultQ, sr), 20000, 20, 0, 0.1, -40},
		{"lowpass", Lowpass(1000, defaultQ, sr), 20, 20000, 0, 0.1, -40},
		{"highshelf", HighShelf(1000, 6, defaultQ, sr), 20000, 20, 6, 0.1, 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.c.MagnitudeDB(tt.pass, sr); math.Abs(got-tt.passWant) > tt.passTol {
				t.Fatalf("passband gain = %v dB, want %v", got, tt.passWant)
			}

			if got := tt.c.MagnitudeDB(tt.stop, sr); got > tt.stopBelow {
				t.Fatalf("gain at %v Hz = %v dB, want below %v", tt.stop, got, tt.stopBelow)
			}
		})
	}
}

func TestButterworthCornerIsMinus3dB(t *testing.T) {
	const sr = 48000.0

	for _, c := range []biquad.Coefficients{Highpass(500, 0, sr), Lowpass(500, 0, sr)} {
		if got := c.MagnitudeDB(500, sr); math.Abs(got+3.0103) > 1e-3 {
			t.Fatalf("corner gain = %v dB, want -3.01", got)
		}
	}
}

func TestHighShelfMidpointIsHalfGain(t *testing.T) {
	c := HighShelf(2000, 8, defaultQ, 48000)
	if got := c.MagnitudeDB(2000, 48000); math.Abs(got-4) > 1e-6 {
		t.Fatalf("shelf midpoint = %v dB, want 4", got)
	}
}

func TestInvalidInputsYieldZeroCoefficients(t *testing.T) {
	tests := []struct {
		name       string
		freq, rate float64
	}{
		{"zero frequency", 0, 48000},
		{"at nyquist", 24000, 48000},
		{"negative rate", 1000, -1},
		{"NaN rate", 1000, math.NaN()},
		{"Inf frequency", math.Inf(1), 48000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, c := range []biquad.Coefficients{
				Highpass(tt.freq, defaultQ, tt.rate),
				Lowpass(tt.freq, defaultQ, tt.rate),
				HighShelf(tt.freq, 4, defaultQ, tt.rate),
			} {
				if c != (biquad.Coefficients{}) {
					t.Fatalf("got %+v, want zero coefficients", c)
				}
			}
		})
	}
}

func TestNonPositiveQFallsBackToButterworth(t *testing.T) {
	if Highpass(1000, -1, 48000) != Highpass(1000, defaultQ, 48000) {
		t.Fatal("q <= 0 should use the default Q")
	}
}
