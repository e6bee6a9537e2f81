package truepeak

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
)

const (
	// DefaultFactor is the oversampling factor used by meters that do not
	// choose one.
	DefaultFactor = 4
	maxFactor     = 16
	// guard is the minimum run of zeros appended before the FFT so that the
	// circular transform does not fold the end of the signal onto its start.
	guard = 64
)

var (
	// ErrEmptyInput is returned for zero-length input.
	ErrEmptyInput = errors.New("truepeak: empty input")
	// ErrInvalidFactor is returned for factors that are not a power of two
	// in [1, 16].
	ErrInvalidFactor = errors.New("truepeak: oversampling factor must be a power of two in [1, 16]")
)

// Oversample returns x interpolated by factor using band-limited spectral
// zero padding. The result has len(x)*factor samples and out[i*factor]
// reproduces x[i] up to rounding.
func Oversample(x []float64, factor int) ([]float64, error) {
	if len(x) == 0 {
		return nil, ErrEmptyInput
	}

	if factor < 1 || factor > maxFactor || factor&(factor-1) != 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidFactor, factor)
	}

	if factor == 1 {
		return append([]float64(nil), x...), nil
	}

	n := nextPowerOf2(len(x) + guard)
	m := n * factor

	plan, err := algofft.NewPlan64(n)
	if err != nil {
		return nil, fmt.Errorf("truepeak: failed to create FFT plan: %w", err)
	}

	upPlan, err := algofft.NewPlan64(m)
	if err != nil {
		return nil, fmt.Errorf("truepeak: failed to create FFT plan: %w", err)
	}

	padded := make([]complex128, n)
	for i, v := range x {
		padded[i] = complex(v, 0)
	}

	bins := make([]complex128, n)
	if err := plan.Forward(bins, padded); err != nil {
		return nil, fmt.Errorf("truepeak: forward FFT failed: %w", err)
	}

	// Positive frequencies stay at the front, negative ones move to the back
	// of the wider spectrum. The Nyquist bin is split between both halves so
	// the interpolant stays real.
	half := n / 2
	wide := make([]complex128, m)
	copy(wide[:half], bins[:half])
	copy(wide[m-half+1:], bins[half+1:])

	nyquist := bins[half] / 2
	wide[half] = nyquist
	wide[m-half] = nyquist

	upsampled := make([]complex128, m)
	if err := upPlan.Inverse(upsampled, wide); err != nil {
		return nil, fmt.Errorf("truepeak: inverse FFT failed: %w", err)
	}

	// Inverse is normalised by 1/m; the original energy was spread over n.
	scale := float64(factor)
	out := make([]float64, len(x)*factor)

	for i := range out {
		out[i] = real(upsampled[i]) * scale
	}

	return out, nil
}

// TruePeak returns the largest absolute value of x after oversampling by
// factor. It is never below the sample peak of x.
func TruePeak(x []float64, factor int) (float64, error) {
	up, err := Oversample(x, factor)
	if err != nil {
		return 0, err
	}

	peak := 0.0
	for _, v := range x {
		peak = math.Max(peak, math.Abs(v))
	}

	for _, v := range up {
		peak = math.Max(peak, math.Abs(v))
	}

	return peak, nil
}

// TruePeakDB returns TruePeak in dBTP.
func TruePeakDB(x []float64, factor int) (float64, error) {
	peak, err := TruePeak(x, factor)
	if err != nil {
		return 0, err
	}

	if peak == 0 {
		return math.Inf(-1), nil
	}

	return 20 * math.Log10(peak), nil
}

func nextPowerOf2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}

	return p
}
