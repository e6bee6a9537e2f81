package limiter

import "github.com/cwbudde/peaklim/dsp/core"

// Stats is a snapshot of limiter metering.
type Stats struct {
	// Peak is the largest output magnitude observed.
	Peak float64
	// MaxGain is the applied gain closest to unity.
	MaxGain float64
	// MinGain is the deepest applied gain.
	MinGain float64
}

// PeakDB returns Peak in dBFS.
func (s Stats) PeakDB() float64 {
	return core.LinearToDB(s.Peak)
}

// MaxReductionDB returns the deepest gain reduction in dB as a value <= 0.
func (s Stats) MaxReductionDB() float64 {
	return core.LinearToDB(s.MinGain)
}

// MinReductionDB returns the shallowest gain reduction in dB as a value <= 0.
func (s Stats) MinReductionDB() float64 {
	return core.LinearToDB(s.MaxGain)
}

func neutralStats() Stats {
	return Stats{Peak: 0, MaxGain: 1, MinGain: 1}
}

type statsAccumulator struct {
	cur    Stats
	primed bool
}

func (a *statsAccumulator) update(peak, minGain, maxGain float64) {
	if !a.primed {
		a.cur = Stats{Peak: peak, MaxGain: maxGain, MinGain: minGain}
		a.primed = true

		return
	}

	if peak > a.cur.Peak {
		a.cur.Peak = peak
	}

	if minGain < a.cur.MinGain {
		a.cur.MinGain = minGain
	}

	if maxGain > a.cur.MaxGain {
		a.cur.MaxGain = maxGain
	}
}

func (a *statsAccumulator) snapshot() Stats {
	if !a.primed {
		return neutralStats()
	}

	return a.cur
}

func (a *statsAccumulator) reset() {
	a.cur = neutralStats()
	a.primed = false
}
