package testutil

import (
	"math"
	"testing"

	algofft "github.com/MeKo-Christian/algo-fft"
)

// BandLimitedNoise returns DeterministicNoise with every FFT bin above
// cutoff (a fraction of the sample rate, below 0.5) removed, scaled to the
// given sample peak. length must suit the FFT planner; powers of two do.
// The spectrum is brick-wall limited over the whole block, so the signal is
// periodic in length.
func BandLimitedNoise(tb testing.TB, seed int64, peak float64, length int, cutoff float64) []float64 {
	tb.Helper()

	plan, err := algofft.NewPlan64(length)
	if err != nil {
		tb.Fatalf("BandLimitedNoise: FFT plan: %v", err)
	}

	src := make([]complex128, length)
	for i, v := range DeterministicNoise(seed, 1, length) {
		src[i] = complex(v, 0)
	}

	bins := make([]complex128, length)
	if err := plan.Forward(bins, src); err != nil {
		tb.Fatalf("BandLimitedNoise: forward FFT: %v", err)
	}

	last := int(cutoff * float64(length))
	for k := range bins {
		if min(k, length-k) > last {
			bins[k] = 0
		}
	}

	if err := plan.Inverse(src, bins); err != nil {
		tb.Fatalf("BandLimitedNoise: inverse FFT: %v", err)
	}

	out := make([]float64, length)
	maxAbs := 0.0

	for i, v := range src {
		out[i] = real(v)
		maxAbs = math.Max(maxAbs, math.Abs(out[i]))
	}

	if maxAbs == 0 {
		return out
	}

	for i := range out {
		out[i] *= peak / maxAbs
	}

	return out
}
