package limiter

import (
	"fmt"
	"math"

	"github.com/cwbudde/peaklim/dsp/core"
)

const (
	defaultThreshold   = 1.0
	defaultInputGain   = 1.0
	defaultReleaseMs   = 50.0
	defaultLookaheadMs = 1.2

	maxChannels    = 2
	maxReleaseMs   = 10000.0
	minLookaheadMs = 0.1
	maxLookaheadMs = 20.0
)

// StatsPolicy selects when the stats accumulator is cleared.
type StatsPolicy int

const (
	// StatsCumulative accumulates stats across Process calls until
	// ResetStats, Reset or Init.
	StatsCumulative StatsPolicy = iota
	// StatsPerCall clears stats at the start of every Process call, so a
	// snapshot describes the most recent block only.
	StatsPerCall
)

// String returns a human-readable policy name.
func (p StatsPolicy) String() string {
	switch p {
	case StatsCumulative:
		return "cumulative"
	case StatsPerCall:
		return "per-call"
	default:
		return fmt.Sprintf("StatsPolicy(%d)", int(p))
	}
}

// ParseStatsPolicy converts a policy name as produced by String.
func ParseStatsPolicy(s string) (StatsPolicy, error) {
	switch s {
	case "cumulative", "":
		return StatsCumulative, nil
	case "per-call", "percall":
		return StatsPerCall, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidStatsPolicy, s)
	}
}

// Config is the complete engine configuration.
type Config struct {
	core.ProcessorConfig

	// InputGain is the linear gain applied before limiting.
	InputGain float64
	// Threshold is the linear output ceiling in (0, 1].
	Threshold float64
	// ReleaseMs is the release time constant in milliseconds.
	ReleaseMs float64
	// TruePeak enables inter-sample peak detection.
	TruePeak bool
	// LookaheadMs is the lookahead duration; fixed at Init.
	LookaheadMs float64
	// StatsPolicy selects cumulative or per-call statistics.
	StatsPolicy StatsPolicy
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns the engine defaults: 48 kHz stereo, 0 dBFS ceiling,
// unity input gain, 50 ms release, sample-peak detection, 1.2 ms lookahead.
func DefaultConfig() Config {
	return Config{
		ProcessorConfig: core.DefaultProcessorConfig(),
		InputGain:       defaultInputGain,
		Threshold:       defaultThreshold,
		ReleaseMs:       defaultReleaseMs,
		LookaheadMs:     defaultLookaheadMs,
		StatsPolicy:     StatsCumulative,
	}
}

// WithSampleRate sets the sample rate in Hz.
func WithSampleRate(sampleRate float64) Option {
	return func(cfg *Config) { cfg.SampleRate = sampleRate }
}

// WithChannels sets the channel count (1 or 2).
func WithChannels(channels int) Option {
	return func(cfg *Config) { cfg.Channels = channels }
}

// WithBlockSize sets the internal chunk size used to size scratch buffers.
// Process accepts blocks of any length regardless of this value.
func WithBlockSize(frames int) Option {
	return func(cfg *Config) { cfg.BlockSize = frames }
}

// WithInputGain sets the linear input gain.
func WithInputGain(gain float64) Option {
	return func(cfg *Config) { cfg.InputGain = gain }
}

// WithInputGainDB sets the input gain in dB.
func WithInputGainDB(dB float64) Option {
	return func(cfg *Config) { cfg.InputGain = core.DBToLinear(dB) }
}

// WithThreshold sets the linear output ceiling.
func WithThreshold(threshold float64) Option {
	return func(cfg *Config) { cfg.Threshold = threshold }
}

// WithThresholdDB sets the output ceiling in dBFS.
func WithThresholdDB(dB float64) Option {
	return func(cfg *Config) {
		if dB > 0 {
			// Keep the value invalid so validation reports it.
			cfg.Threshold = math.Inf(1)
			return
		}

		cfg.Threshold = core.DBToLinear(dB)
	}
}

// WithRelease sets the release time in milliseconds.
func WithRelease(ms float64) Option {
	return func(cfg *Config) { cfg.ReleaseMs = ms }
}

// WithTruePeak enables or disables true-peak detection.
func WithTruePeak(enabled bool) Option {
	return func(cfg *Config) { cfg.TruePeak = enabled }
}

// WithLookahead sets the lookahead duration in milliseconds.
func WithLookahead(ms float64) Option {
	return func(cfg *Config) { cfg.LookaheadMs = ms }
}

// WithStatsPolicy selects the statistics policy.
func WithStatsPolicy(policy StatsPolicy) Option {
	return func(cfg *Config) { cfg.StatsPolicy = policy }
}

// ApplyOptions applies zero or more options to the default config.
func ApplyOptions(opts ...Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return cfg
}

// Validate checks every field and returns the first violation.
func (c Config) Validate() error {
	if err := validateSampleRate(c.SampleRate); err != nil {
		return err
	}

	if err := validateChannels(c.Channels); err != nil {
		return err
	}

	if c.BlockSize <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidBlockSize, c.BlockSize)
	}

	if err := validateInputGain(c.InputGain); err != nil {
		return err
	}

	if err := validateThreshold(c.Threshold); err != nil {
		return err
	}

	if err := validateRelease(c.ReleaseMs); err != nil {
		return err
	}

	if err := validateLookahead(c.LookaheadMs); err != nil {
		return err
	}

	return validateStatsPolicy(c.StatsPolicy)
}

func validateSampleRate(sr float64) error {
	if !core.ValidSampleRate(sr) {
		return fmt.Errorf("%w: %v", ErrInvalidSampleRate, sr)
	}

	return nil
}

func validateChannels(ch int) error {
	if ch < 1 || ch > maxChannels {
		return fmt.Errorf("%w: %d", ErrInvalidChannels, ch)
	}

	return nil
}

func validateInputGain(g float64) error {
	if g <= 0 || !core.IsFinite(g) {
		return fmt.Errorf("%w: %v", ErrInvalidInputGain, g)
	}

	return nil
}

func validateThreshold(t float64) error {
	if t <= 0 || t > 1 || !core.IsFinite(t) {
		return fmt.Errorf("%w: %v not in (0, 1]", ErrInvalidThreshold, t)
	}

	return nil
}

func validateRelease(ms float64) error {
	if ms <= 0 || ms > maxReleaseMs || !core.IsFinite(ms) {
		return fmt.Errorf("%w: %v ms not in (0, %v]", ErrInvalidRelease, ms, maxReleaseMs)
	}

	return nil
}

func validateLookahead(ms float64) error {
	if ms < minLookaheadMs || ms > maxLookaheadMs || !core.IsFinite(ms) {
		return fmt.Errorf("%w: %v ms not in [%v, %v]", ErrInvalidLookahead, ms, minLookaheadMs, maxLookaheadMs)
	}

	return nil
}

func validateStatsPolicy(p StatsPolicy) error {
	if p != StatsCumulative && p != StatsPerCall {
		return fmt.Errorf("%w: %d", ErrInvalidStatsPolicy, int(p))
	}

	return nil
}
