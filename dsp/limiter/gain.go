package limiter

import "math"

const (
	// peakSentinel replaces NaN, Inf and absurdly large peak magnitudes so
	// the gain collapses instead of becoming non-finite.
	peakSentinel = 1e15
	// peakFloor keeps the threshold division finite for silent input.
	peakFloor = 1e-12
	// truePeakHeadroomDB lowers the threshold in true-peak mode. Near
	// 0.45 fs the estimator reads up to about 0.6 dB low and gain changes
	// add inter-sample overshoot of their own; without headroom the output
	// reconstructs about 1 dB over the threshold there.
	truePeakHeadroomDB = -1.5
)

var truePeakCeiling = math.Pow(10, truePeakHeadroomDB/20)

// candidateGain returns the largest gain that keeps peak at or below
// threshold, capped at unity. The product gain*peak never rounds above
// threshold.
func candidateGain(peak, threshold float64) float64 {
	if peak <= threshold {
		return 1
	}

	g := threshold / math.Max(peak, peakFloor)
	if g*peak > threshold {
		g = math.Nextafter(g, 0)
	}

	return g
}

// sanitizePeak maps NaN, Inf and magnitudes beyond the sentinel to the
// sentinel.
func sanitizePeak(p float64) float64 {
	if p != p || p > peakSentinel {
		return peakSentinel
	}

	return p
}

// sanitizeSample makes x safe to store in the delay line and reports the
// peak magnitude the detector should see for it.
func sanitizeSample(x float64) (sample, peak float64) {
	switch {
	case x != x:
		return 0, peakSentinel
	case x > peakSentinel:
		return peakSentinel, peakSentinel
	case x < -peakSentinel:
		return -peakSentinel, peakSentinel
	default:
		return x, math.Abs(x)
	}
}

// gainComputer turns a stream of peak magnitudes into the lookahead gain
// curve: the gain for the oldest sample in the window is the minimum
// candidate gain over the whole window. Because candidateGain decreases
// monotonically with the peak, this is the candidate gain of the window's
// maximum peak, which is tracked with a monotonic deque.
//
// The engine runs it with window lookahead+1 against a delay of lookahead,
// so output sample i is scaled by the minimum over detector entries
// [i, i+lookahead] inclusive. The sample lookahead frames ahead is included:
// a peak there already lowers the gain of sample i, and the very first
// output frame already sees the first input sample.
//
// The deque holds at most window entries in preallocated rings; push is
// O(1) amortised and never allocates.
type gainComputer struct {
	window int

	peaks []float64
	index []int
	head  int
	size  int
	t     int

	// hold is a peak floor applied for holdFrames more pushes.
	hold       float64
	holdFrames int
}

func newGainComputer(window int) *gainComputer {
	if window < 1 {
		window = 1
	}

	return &gainComputer{
		window: window,
		peaks:  make([]float64, window),
		index:  make([]int, window),
	}
}

// push adds the peak of the newest sample and returns the maximum peak over
// the last window samples.
func (g *gainComputer) push(peak float64) float64 {
	g.t++

	// Evict entries that left the window.
	for g.size > 0 && g.index[g.head] <= g.t-g.window {
		g.head++
		if g.head == g.window {
			g.head = 0
		}

		g.size--
	}

	// Drop smaller peaks from the back; they can never be the maximum again.
	for g.size > 0 {
		back := g.head + g.size - 1
		if back >= g.window {
			back -= g.window
		}

		if g.peaks[back] > peak {
			break
		}

		g.size--
	}

	slot := g.head + g.size
	if slot >= g.window {
		slot -= g.window
	}

	g.peaks[slot] = peak
	g.index[slot] = g.t
	g.size++

	return g.peaks[g.head]
}

// gain pushes peak and returns the lookahead gain for the oldest sample in
// the window.
func (g *gainComputer) gain(peak, threshold float64) float64 {
	p := g.push(peak)
	if g.holdFrames > 0 {
		g.holdFrames--
		p = math.Max(p, g.hold)

		if g.holdFrames == 0 {
			g.hold = 0
		}
	}

	return candidateGain(p, threshold)
}

// holdPeak keeps the window maximum at or above peak for the next frames
// pushes. It covers samples whose detector entries fell out of alignment
// when the lookahead delay changed.
func (g *gainComputer) holdPeak(peak float64, frames int) {
	g.hold = math.Max(peak, g.hold)
	g.holdFrames = max(frames, g.holdFrames)
}

func (g *gainComputer) reset() {
	g.head = 0
	g.size = 0
	g.t = 0
	g.hold = 0
	g.holdFrames = 0
}
