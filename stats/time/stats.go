// Package time provides time-domain level statistics for audio buffers.
package time

import "math"

// Stats holds level statistics of a signal.
type Stats struct {
	Length        int
	DC            float64 // mean
	RMS           float64
	Peak          float64 // max |x|
	PeakPos       int
	CrestFactor   float64 // Peak / RMS, 0 for silence
	ZeroCrossings int
	Clipped       int // samples with |x| >= 1
}

// DCdB returns |DC| in dBFS.
func (s Stats) DCdB() float64 { return ampTodB(s.DC) }

// RMSdB returns RMS in dBFS.
func (s Stats) RMSdB() float64 { return ampTodB(s.RMS) }

// PeakdB returns Peak in dBFS.
func (s Stats) PeakdB() float64 { return ampTodB(s.Peak) }

// CrestFactordB returns the crest factor in dB, 0 for silence.
func (s Stats) CrestFactordB() float64 {
	if s.CrestFactor == 0 {
		return 0
	}

	return 20 * math.Log10(s.CrestFactor)
}

func ampTodB(value float64) float64 {
	a := math.Abs(value)
	if a == 0 {
		return math.Inf(-1)
	}

	return 20 * math.Log10(a)
}

// Calculate computes all statistics of signal in one pass.
func Calculate(signal []float64) Stats {
	var acc Accumulator
	acc.Update(signal)

	return acc.Result()
}

// Accumulator gathers statistics across consecutive blocks. Results are
// identical to calling Calculate on the concatenated blocks.
type Accumulator struct {
	n             int
	sum           float64
	comp          float64 // Kahan compensation for sum
	sumSq         float64
	peak          float64
	peakPos       int
	zeroCrossings int
	clipped       int
	last          float64
}

// Update adds a block of samples.
func (a *Accumulator) Update(samples []float64) {
	for _, x := range samples {
		y := x - a.comp
		t := a.sum + y
		a.comp = (t - a.sum) - y
		a.sum = t

		a.sumSq += x * x

		abs := math.Abs(x)
		if abs > a.peak {
			a.peak = abs
			a.peakPos = a.n
		}

		if abs >= 1 {
			a.clipped++
		}

		if a.n > 0 && a.last*x < 0 {
			a.zeroCrossings++
		}

		a.last = x
		a.n++
	}
}

// Result returns the statistics gathered so far.
func (a *Accumulator) Result() Stats {
	if a.n == 0 {
		return Stats{}
	}

	nf := float64(a.n)
	rms := math.Sqrt(a.sumSq / nf)

	var crest float64
	if rms > 0 {
		crest = a.peak / rms
	}

	return Stats{
		Length:        a.n,
		DC:            a.sum / nf,
		RMS:           rms,
		Peak:          a.peak,
		PeakPos:       a.peakPos,
		CrestFactor:   crest,
		ZeroCrossings: a.zeroCrossings,
		Clipped:       a.clipped,
	}
}

// Reset clears the accumulator.
func (a *Accumulator) Reset() {
	*a = Accumulator{}
}
