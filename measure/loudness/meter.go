package loudness

import (
	"fmt"
	"math"

	"github.com/cwbudde/peaklim/dsp/filter/biquad"
)

const (
	momentarySeconds = 0.4
	shortTermSeconds = 3.0
	// Gating blocks are momentary windows taken every 100 ms.
	blockStepSeconds = 0.1

	absoluteGateLUFS = -70.0
	relativeGateLU   = -10.0

	// SilenceLUFS is reported when there is no signal to measure.
	SilenceLUFS = -120.0
)

// window is a sliding sum of squared samples.
type window struct {
	history []float64
	pos     int
	sum     float64
}

func newWindow(n int) window {
	return window{history: make([]float64, n)}
}

func (w *window) push(sq float64) {
	w.sum += sq - w.history[w.pos]
	if w.sum < 0 {
		w.sum = 0
	}

	w.history[w.pos] = sq
	w.pos++

	if w.pos == len(w.history) {
		w.pos = 0
	}
}

func (w *window) meanSquare() float64 {
	return w.sum / float64(len(w.history))
}

func (w *window) reset() {
	clear(w.history)
	w.pos = 0
	w.sum = 0
}

// Meter accumulates K-weighted loudness over planar channel buffers.
type Meter struct {
	cfg MeterConfig

	filters   []*biquad.Chain
	momentary []window
	shortTerm []window

	step         int
	sinceStep    int
	frames       int
	blocks       []float64
	maxMomentary float64
	maxShort     float64
}

// NewMeter returns a meter configured by opts.
func NewMeter(opts ...MeterOption) (*Meter, error) {
	cfg := ApplyMeterOptions(opts...)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m := &Meter{
		cfg:       cfg,
		filters:   make([]*biquad.Chain, cfg.Channels),
		momentary: make([]window, cfg.Channels),
		shortTerm: make([]window, cfg.Channels),
		step:      max(int(math.Round(blockStepSeconds*cfg.SampleRate)), 1),
	}

	momN := int(math.Round(momentarySeconds * cfg.SampleRate))
	shortN := int(math.Round(shortTermSeconds * cfg.SampleRate))

	for c := range cfg.Channels {
		m.filters[c] = newKFilter(cfg.SampleRate)
		m.momentary[c] = newWindow(momN)
		m.shortTerm[c] = newWindow(shortN)
	}

	m.Reset()

	return m, nil
}

// Reset clears all filter and integration state.
func (m *Meter) Reset() {
	for c := range m.filters {
		m.filters[c].Reset()
		m.momentary[c].reset()
		m.shortTerm[c].reset()
	}

	m.sinceStep = 0
	m.frames = 0
	m.blocks = m.blocks[:0]
	m.maxMomentary = 0
	m.maxShort = 0
}

// Process feeds one planar block; every channel buffer must have the same
// length.
func (m *Meter) Process(buf [][]float64) error {
	if len(buf) != m.cfg.Channels {
		return fmt.Errorf("%w: got %d, want %d", ErrChannelMismatch, len(buf), m.cfg.Channels)
	}

	n := len(buf[0])
	for c := range buf {
		if len(buf[c]) != n {
			return fmt.Errorf("loudness: channel %d has %d samples, want %d", c, len(buf[c]), n)
		}
	}

	momN := len(m.momentary[0].history)
	shortN := len(m.shortTerm[0].history)

	for i := range n {
		for c := range buf {
			y := m.filters[c].ProcessSample(buf[c][i])
			sq := y * y
			m.momentary[c].push(sq)
			m.shortTerm[c].push(sq)
		}

		m.frames++

		if m.frames >= shortN {
			m.maxShort = max(m.maxShort, m.shortTermPower())
		}

		if m.frames < momN {
			continue
		}

		m.sinceStep++
		if m.frames > momN && m.sinceStep < m.step {
			continue
		}

		m.sinceStep = 0
		p := m.momentaryPower()
		m.blocks = append(m.blocks, p)
		m.maxMomentary = max(m.maxMomentary, p)
	}

	return nil
}

func (m *Meter) momentaryPower() float64 {
	sum := 0.0
	for c := range m.momentary {
		sum += m.momentary[c].meanSquare()
	}

	return sum
}

func (m *Meter) shortTermPower() float64 {
	sum := 0.0
	for c := range m.shortTerm {
		sum += m.shortTerm[c].meanSquare()
	}

	return sum
}

// Momentary returns the loudness of the last 400 ms in LUFS.
func (m *Meter) Momentary() float64 { return toLUFS(m.momentaryPower()) }

// ShortTerm returns the loudness of the last 3 s in LUFS.
func (m *Meter) ShortTerm() float64 { return toLUFS(m.shortTermPower()) }

// MaxMomentary returns the loudest complete momentary window so far.
func (m *Meter) MaxMomentary() float64 { return toLUFS(m.maxMomentary) }

// MaxShortTerm returns the loudest complete short-term window so far.
func (m *Meter) MaxShortTerm() float64 { return toLUFS(m.maxShort) }

// Integrated returns the gated programme loudness since the last Reset.
// Blocks below -70 LUFS are discarded, then blocks more than 10 LU below
// the mean of the remainder.
func (m *Meter) Integrated() float64 {
	absGate := fromLUFS(absoluteGateLUFS)

	var sum float64

	count := 0

	for _, p := range m.blocks {
		if p > absGate {
			sum += p
			count++
		}
	}

	if count == 0 {
		return SilenceLUFS
	}

	relGate := fromLUFS(toLUFS(sum/float64(count)) + relativeGateLU)

	sum, count = 0, 0

	for _, p := range m.blocks {
		if p > absGate && p > relGate {
			sum += p
			count++
		}
	}

	if count == 0 {
		return SilenceLUFS
	}

	return toLUFS(sum / float64(count))
}

func toLUFS(power float64) float64 {
	if power <= 0 {
		return SilenceLUFS
	}

	return max(-0.691+10*math.Log10(power), SilenceLUFS)
}

func fromLUFS(lufs float64) float64 {
	return math.Pow(10, (lufs+0.691)/10)
}
