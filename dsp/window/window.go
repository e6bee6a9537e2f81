package window

import (
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// Kaiser returns the symmetric Kaiser window of the given size. Sample n sits
// at r = 2n/(size-1) - 1 and weighs I0(beta*sqrt(1-r*r)) / I0(beta).
func Kaiser(size int, beta float64) ([]float64, error) {
	if err := validateKaiser(size, beta); err != nil {
		return nil, err
	}

	out := make([]float64, size)
	for n := range out {
		out[n] = kaiserAt(samplePosition(n, size), beta)
	}

	return out, nil
}

// ApplyCoefficientsInPlace multiplies samples by coeffs element-wise.
func ApplyCoefficientsInPlace(samples, coeffs []float64) error {
	if len(samples) != len(coeffs) {
		return errMismatchedLength
	}

	vecmath.MulBlockInPlace(samples, coeffs)

	return nil
}

func samplePosition(n, size int) float64 {
	if size <= 1 {
		return 0.5
	}

	return float64(n) / float64(size-1)
}

func kaiserAt(x, beta float64) float64 {
	if beta <= 0 {
		return 1
	}

	r := 2*x - 1
	term := math.Sqrt(math.Max(0, 1-r*r))

	return besselI0(beta*term) / besselI0(beta)
}

// besselI0 approximates the modified Bessel function I0 with the
// Abramowitz-Stegun polynomials.
func besselI0(x float64) float64 {
	ax := math.Abs(x)
	if ax < 3.75 {
		y := x / 3.75
		y *= y

		return 1.0 + y*(3.5156229+y*(3.0899424+y*(1.2067492+y*(0.2659732+y*(0.0360768+y*0.0045813)))))
	}

	y := 3.75 / ax

	return (math.Exp(ax) / math.Sqrt(ax)) *
		(0.39894228 + y*(0.01328592+y*(0.00225319+y*(-0.00157565+y*(0.00916281+y*(-0.02057706+y*(0.02635537+y*(-0.01647633+y*0.00392377))))))))
}
