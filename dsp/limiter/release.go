package limiter

import "math"

// releaseSmoother lets gain fall immediately and recover towards unity with
// a one-pole exponential law. With r = exp(-1/(release*fs)) each recovering
// step closes (1-r) of the remaining distance to 1, never overshooting the
// lookahead gain.
type releaseSmoother struct {
	step float64 // 1 - r
	gain float64
}

func newReleaseSmoother() releaseSmoother {
	return releaseSmoother{gain: 1}
}

// setRelease updates the coefficient for a release time in milliseconds.
func (s *releaseSmoother) setRelease(ms, sampleRate float64) {
	samples := ms / 1000 * sampleRate
	// -expm1(-x) is 1-exp(-x) without cancellation for long releases.
	s.step = -math.Expm1(-1 / samples)
}

// coefficient returns r.
func (s *releaseSmoother) coefficient() float64 {
	return 1 - s.step
}

// process returns the applied gain for a lookahead gain g.
func (s *releaseSmoother) process(g float64) float64 {
	if g < s.gain {
		s.gain = g
		return g
	}

	next := s.gain + s.step*(1-s.gain)
	if next > g {
		next = g
	}

	s.gain = next

	return next
}

func (s *releaseSmoother) reset() {
	s.gain = 1
}
