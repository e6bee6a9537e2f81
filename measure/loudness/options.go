package loudness

import (
	"errors"
	"fmt"

	"github.com/cwbudde/peaklim/dsp/core"
)

// maxChannels bounds the channel count; every channel is weighted 1.0,
// which is correct for mono, stereo and the front channels of surround.
const maxChannels = 8

var (
	// ErrInvalidSampleRate is returned for rates that cannot place the
	// K-weighting shelf below Nyquist.
	ErrInvalidSampleRate = errors.New("loudness: invalid sample rate")
	// ErrInvalidChannels is returned for channel counts outside [1, 8].
	ErrInvalidChannels = errors.New("loudness: invalid channel count")
	// ErrChannelMismatch is returned when Process receives the wrong
	// number of channel buffers.
	ErrChannelMismatch = errors.New("loudness: channel buffer count mismatch")
)

// MeterConfig defines configuration for the loudness meter. BlockSize is
// unused.
type MeterConfig struct {
	core.ProcessorConfig
}

// MeterOption mutates a MeterConfig.
type MeterOption func(*MeterConfig)

// DefaultMeterConfig returns 48 kHz stereo.
func DefaultMeterConfig() MeterConfig {
	return MeterConfig{ProcessorConfig: core.DefaultProcessorConfig()}
}

// WithSampleRate sets the sample rate in Hz.
func WithSampleRate(sampleRate float64) MeterOption {
	return func(cfg *MeterConfig) { cfg.SampleRate = sampleRate }
}

// WithChannels sets the number of channels.
func WithChannels(channels int) MeterOption {
	return func(cfg *MeterConfig) { cfg.Channels = channels }
}

// ApplyMeterOptions applies zero or more options to the default config.
func ApplyMeterOptions(opts ...MeterOption) MeterConfig {
	cfg := DefaultMeterConfig()

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return cfg
}

// Validate checks the configuration.
func (c MeterConfig) Validate() error {
	if !core.ValidSampleRate(c.SampleRate) || c.Nyquist() <= shelfFreq {
		return fmt.Errorf("%w: %v", ErrInvalidSampleRate, c.SampleRate)
	}

	if c.Channels < 1 || c.Channels > maxChannels {
		return fmt.Errorf("%w: %d", ErrInvalidChannels, c.Channels)
	}

	return nil
}
