package loudness

import (
	"github.com/cwbudde/peaklim/dsp/filter/biquad"
	"github.com/cwbudde/peaklim/dsp/filter/design"
)

// K-weighting stages: a +4 dB high shelf at 1.5 kHz followed by a 38 Hz
// high-pass, both Butterworth-damped.
const (
	shelfFreq   = 1500.0
	shelfGainDB = 4.0
	hpfFreq     = 38.0
	kQ          = 0.7071067811865476
)

// newKFilter returns the two-stage K-weighting cascade for one channel.
func newKFilter(sampleRate float64) *biquad.Chain {
	return biquad.NewChain(
		design.HighShelf(shelfFreq, shelfGainDB, kQ, sampleRate),
		design.Highpass(hpfFreq, kQ, sampleRate),
	)
}
