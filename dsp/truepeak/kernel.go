package truepeak

import (
	"math"

	"github.com/cwbudde/peaklim/dsp/window"
)

const (
	// Oversample is the interpolation factor.
	Oversample = 4
	// TapsPerPhase is the FIR length of each polyphase branch.
	TapsPerPhase = 12

	kaiserBeta = 5.0
	halfTaps   = TapsPerPhase / 2
	// protoLen spans the prototype lowpass from -halfTaps to +halfTaps input
	// samples at the oversampled rate.
	protoLen = Oversample*TapsPerPhase + 1
)

// polyphase[p][k] weights history slot k (0 oldest, TapsPerPhase-1 newest)
// for the sub-sample p/Oversample after the centre sample.
var polyphase = designPolyphase()

// designPolyphase splits a Kaiser-windowed sinc prototype into Oversample
// branches, each normalised to unity DC gain.
func designPolyphase() [Oversample][TapsPerPhase]float64 {
	proto, err := window.Kaiser(protoLen, kaiserBeta)
	if err != nil {
		panic(err)
	}

	sincs := make([]float64, protoLen)
	for i := range sincs {
		sincs[i] = sinc(float64(i-protoLen/2) / Oversample)
	}

	if err := window.ApplyCoefficientsInPlace(proto, sincs); err != nil {
		panic(err)
	}

	var k [Oversample][TapsPerPhase]float64

	for p := range Oversample {
		var sum float64

		for tap := range TapsPerPhase {
			// Offset (tap-(halfTaps-1)) - p/Oversample input samples from the
			// interpolation point, in prototype samples.
			k[p][tap] = proto[Oversample*(tap+1)-p]
			sum += k[p][tap]
		}

		for tap := range TapsPerPhase {
			k[p][tap] /= sum
		}
	}

	return k
}

// Kernel returns a copy of the polyphase coefficients, indexed [phase][tap].
func Kernel() [Oversample][TapsPerPhase]float64 {
	return polyphase
}

// sinc is exactly zero at non-zero integers so that phase 0 is a pure delay.
func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}

	if x == math.Trunc(x) {
		return 0
	}

	px := math.Pi * x

	return math.Sin(px) / px
}
