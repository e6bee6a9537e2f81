package truepeak

import (
	"math"

	"github.com/cwbudde/peaklim/dsp/filter/fir"
)

// Delay is the number of samples by which Estimator.Process lags its input.
const Delay = halfTaps

// Estimator tracks the true peak of a single channel.
//
// Inputs must be finite; callers sanitise NaN and Inf before pushing.
type Estimator struct {
	// phases[p] interpolates the point p/Oversample after the sample pushed
	// Delay calls earlier. Every branch sees the same input stream.
	phases  [Oversample]*fir.Filter
	prevSeg float64
}

// New returns a cleared estimator.
func New() *Estimator {
	e := &Estimator{}

	for p := range Oversample {
		coeffs := make([]float64, TapsPerPhase)
		for k := range coeffs {
			coeffs[k] = polyphase[p][TapsPerPhase-1-k]
		}

		e.phases[p] = fir.New(coeffs)
	}

	return e
}

// Process pushes x and returns the true-peak estimate for the sample pushed
// Delay calls earlier.
func (e *Estimator) Process(x float64) float64 {
	peak := math.Abs(e.phases[0].ProcessSample(x))

	// Segment between the centre sample and its successor.
	seg := 0.0
	for p := 1; p < Oversample; p++ {
		if a := math.Abs(e.phases[p].ProcessSample(x)); a > seg {
			seg = a
		}
	}

	if seg > peak {
		peak = seg
	}

	if e.prevSeg > peak {
		peak = e.prevSeg
	}

	e.prevSeg = seg

	return peak
}

// Measure returns the largest true-peak estimate over x, flushing the
// estimator with zeros so the tail of x is included. The estimator state is
// reset before and after the measurement.
func (e *Estimator) Measure(x []float64) float64 {
	e.Reset()
	defer e.Reset()

	peak := 0.0
	for _, v := range x {
		if p := e.Process(v); p > peak {
			peak = p
		}
	}

	for range Delay + 1 {
		if p := e.Process(0); p > peak {
			peak = p
		}
	}

	return peak
}

// Reset clears the interpolation history.
func (e *Estimator) Reset() {
	for _, f := range e.phases {
		f.Reset()
	}

	e.prevSeg = 0
}
