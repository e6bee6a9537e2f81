package limiter

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"
	"github.com/cwbudde/peaklim/dsp/core"
	"github.com/cwbudde/peaklim/dsp/delay"
	"github.com/cwbudde/peaklim/dsp/truepeak"
)

// Engine is a linked-channel lookahead peak limiter.
//
// A zero Engine holds the default configuration and must be initialised
// with Init before Process. Setters may be called at any time between
// Process calls and take effect from the next sample. An Engine must not be
// used from more than one goroutine at a time; independent engines share no
// state.
type Engine struct {
	cfg        Config
	configured bool
	ready      bool

	lookahead int

	lines      []*delay.Line
	estimators []*truepeak.Estimator
	gain       *gainComputer
	release    releaseSmoother
	stats      statsAccumulator

	delayed [][]float64
	gains   []float64
}

// New returns an initialised engine configured by opts.
func New(opts ...Option) (*Engine, error) {
	cfg := ApplyOptions(opts...)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{cfg: cfg, configured: true}
	e.allocate()

	return e, nil
}

func (e *Engine) ensureConfig() {
	if !e.configured {
		e.cfg = DefaultConfig()
		e.configured = true
	}
}

// Init (re)allocates all buffers for the given sample rate and channel
// count and resets audio state and stats. Gain, threshold, release,
// true-peak and stats settings are kept. On error the engine is unchanged.
func (e *Engine) Init(sampleRate float64, channels int) error {
	e.ensureConfig()

	cfg := e.cfg
	cfg.SampleRate = sampleRate
	cfg.Channels = channels

	if err := cfg.Validate(); err != nil {
		return err
	}

	e.cfg = cfg
	e.allocate()

	return nil
}

func (e *Engine) allocate() {
	e.lookahead = max(core.MillisToSamples(e.cfg.LookaheadMs, e.cfg.SampleRate), 1)

	capacity := e.lookahead + truepeak.Delay
	channels := e.cfg.Channels
	blockSize := e.cfg.BlockSize

	e.lines = make([]*delay.Line, channels)
	e.estimators = make([]*truepeak.Estimator, channels)
	e.delayed = make([][]float64, channels)

	for c := range channels {
		// capacity is always positive here.
		line, _ := delay.New(capacity)
		e.lines[c] = line
		e.estimators[c] = truepeak.New()
		e.delayed[c] = make([]float64, blockSize)
	}

	e.gains = make([]float64, blockSize)
	// Inclusive window [i, i+lookahead]; see gainComputer.
	e.gain = newGainComputer(e.lookahead + 1)
	e.release = newReleaseSmoother()
	e.release.setRelease(e.cfg.ReleaseMs, e.cfg.SampleRate)
	e.stats.reset()
	e.applyDelay()
	e.ready = true
}

func (e *Engine) applyDelay() {
	d := e.lookahead
	if e.cfg.TruePeak {
		d += truepeak.Delay
	}

	for _, line := range e.lines {
		// d never exceeds the line capacity.
		_ = line.SetDelay(d)
	}
}

// SetInputGain sets the linear gain applied before limiting.
func (e *Engine) SetInputGain(gain float64) error {
	if err := validateInputGain(gain); err != nil {
		return err
	}

	e.ensureConfig()
	e.cfg.InputGain = gain

	return nil
}

// SetInputGainDB sets the input gain in dB.
func (e *Engine) SetInputGainDB(dB float64) error {
	if !core.IsFinite(dB) {
		return fmt.Errorf("%w: %v dB", ErrInvalidInputGain, dB)
	}

	return e.SetInputGain(core.DBToLinear(dB))
}

// SetThreshold sets the linear output ceiling in (0, 1].
func (e *Engine) SetThreshold(threshold float64) error {
	if err := validateThreshold(threshold); err != nil {
		return err
	}

	e.ensureConfig()
	e.cfg.Threshold = threshold

	return nil
}

// SetThresholdDB sets the output ceiling in dBFS; values above 0 are
// rejected.
func (e *Engine) SetThresholdDB(dB float64) error {
	if dB > 0 || !core.IsFinite(dB) {
		return fmt.Errorf("%w: %v dBFS", ErrInvalidThreshold, dB)
	}

	return e.SetThreshold(core.DBToLinear(dB))
}

// SetRelease sets the release time constant in milliseconds.
func (e *Engine) SetRelease(ms float64) error {
	if err := validateRelease(ms); err != nil {
		return err
	}

	e.ensureConfig()
	e.cfg.ReleaseMs = ms

	if e.ready {
		e.release.setRelease(ms, e.cfg.SampleRate)
	}

	return nil
}

// SetTruePeak switches between sample-peak and true-peak detection. The
// latency changes by truepeak.Delay samples when the mode flips.
func (e *Engine) SetTruePeak(enabled bool) {
	e.ensureConfig()

	if e.cfg.TruePeak == enabled {
		return
	}

	e.cfg.TruePeak = enabled

	if e.ready {
		// Samples already buffered were detected under the old alignment.
		// Hold their sample peak until every one of them has been output.
		peak := 0.0
		for c, line := range e.lines {
			peak = math.Max(peak, line.Peak())
			e.estimators[c].Reset()
		}

		e.gain.holdPeak(sanitizePeak(peak), e.lookahead+truepeak.Delay+1)
		e.applyDelay()
	}
}

// SetStatsPolicy selects cumulative or per-call statistics.
func (e *Engine) SetStatsPolicy(policy StatsPolicy) error {
	if err := validateStatsPolicy(policy); err != nil {
		return err
	}

	e.ensureConfig()
	e.cfg.StatsPolicy = policy

	return nil
}

// SampleRate returns the configured sample rate in Hz.
func (e *Engine) SampleRate() float64 { e.ensureConfig(); return e.cfg.SampleRate }

// Channels returns the configured channel count.
func (e *Engine) Channels() int { e.ensureConfig(); return e.cfg.Channels }

// InputGain returns the linear input gain.
func (e *Engine) InputGain() float64 { e.ensureConfig(); return e.cfg.InputGain }

// Threshold returns the linear output ceiling.
func (e *Engine) Threshold() float64 { e.ensureConfig(); return e.cfg.Threshold }

// Release returns the release time in milliseconds.
func (e *Engine) Release() float64 { e.ensureConfig(); return e.cfg.ReleaseMs }

// TruePeak reports whether true-peak detection is enabled.
func (e *Engine) TruePeak() bool { e.ensureConfig(); return e.cfg.TruePeak }

// StatsPolicy returns the active statistics policy.
func (e *Engine) StatsPolicy() StatsPolicy { e.ensureConfig(); return e.cfg.StatsPolicy }

// Config returns a copy of the current configuration.
func (e *Engine) Config() Config {
	e.ensureConfig()
	return e.cfg
}

// Latency returns the delay between input and output in samples.
func (e *Engine) Latency() (int, error) {
	if !e.ready {
		return 0, ErrNotInitialized
	}

	if e.cfg.TruePeak {
		return e.lookahead + truepeak.Delay, nil
	}

	return e.lookahead, nil
}

// Process limits one block. inputs and outputs hold one slice per channel,
// all of the same length. Output sample n is input sample n-Latency()
// scaled by the applied gain. Inputs and outputs may be the same slices,
// and the same slice may appear in several channel slots.
//
// Process does not allocate.
func (e *Engine) Process(inputs, outputs [][]float64) error {
	if !e.ready {
		return ErrNotInitialized
	}

	n, err := e.checkBuffers(inputs, outputs)
	if err != nil {
		return err
	}

	if e.cfg.StatsPolicy == StatsPerCall {
		e.stats.reset()
	}

	blockSize := e.cfg.BlockSize
	for lo := 0; lo < n; lo += blockSize {
		e.processChunk(inputs, outputs, lo, min(lo+blockSize, n))
	}

	return nil
}

func (e *Engine) checkBuffers(inputs, outputs [][]float64) (int, error) {
	channels := e.cfg.Channels
	if len(inputs) != channels {
		return 0, fmt.Errorf("%w: %d inputs for %d channels", ErrChannelMismatch, len(inputs), channels)
	}

	if len(outputs) != channels {
		return 0, fmt.Errorf("%w: %d outputs for %d channels", ErrChannelMismatch, len(outputs), channels)
	}

	n := len(inputs[0])
	for c := range channels {
		if len(inputs[c]) != n || len(outputs[c]) != n {
			return 0, fmt.Errorf("%w: channel %d has %d/%d samples, want %d",
				ErrBufferLength, c, len(inputs[c]), len(outputs[c]), n)
		}
	}

	return n, nil
}

// processChunk reads every input frame of [lo, hi) before writing any
// output so that aliased buffers are safe.
func (e *Engine) processChunk(inputs, outputs [][]float64, lo, hi int) {
	m := hi - lo
	gains := e.gains[:m]
	inputGain := e.cfg.InputGain
	threshold := e.cfg.Threshold
	truePeak := e.cfg.TruePeak

	if truePeak {
		threshold *= truePeakCeiling
	}

	for k := range m {
		peak := 0.0

		for c, line := range e.lines {
			x, p := sanitizeSample(inputs[c][lo+k] * inputGain)
			if truePeak {
				p = sanitizePeak(e.estimators[c].Process(x))
			}

			e.delayed[c][k] = line.Push(x)

			if p > peak {
				peak = p
			}
		}

		gains[k] = e.release.process(e.gain.gain(peak, threshold))
	}

	outPeak := 0.0

	for c := range e.lines {
		out := outputs[c][lo:hi]
		vecmath.MulBlock(out, e.delayed[c][:m], gains)

		if p := core.MaxAbs(out); p > outPeak {
			outPeak = p
		}
	}

	minGain, maxGain := gains[0], gains[0]
	for _, g := range gains[1:] {
		if g < minGain {
			minGain = g
		}

		if g > maxGain {
			maxGain = g
		}
	}

	e.stats.update(outPeak, minGain, maxGain)
}

// Stats returns a snapshot of the accumulated statistics. Before any frame
// has been processed it returns {Peak: 0, MinGain: 1, MaxGain: 1}.
func (e *Engine) Stats() Stats {
	return e.stats.snapshot()
}

// ResetStats clears the statistics without touching audio state.
func (e *Engine) ResetStats() {
	e.stats.reset()
}

// Reset clears delay lines, detector history, gain state and stats while
// keeping the configuration.
func (e *Engine) Reset() {
	if !e.ready {
		e.stats.reset()
		return
	}

	for c, line := range e.lines {
		line.Reset()
		e.estimators[c].Reset()
	}

	e.gain.reset()
	e.release.reset()
	e.stats.reset()
}

// GainReductionDB returns the most recently applied gain in dB (<= 0).
func (e *Engine) GainReductionDB() float64 {
	if !e.ready {
		return 0
	}

	return core.LinearToDB(e.release.gain)
}
