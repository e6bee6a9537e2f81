package core

// ProcessorConfig holds the settings shared by every processor: the stream
// format and the largest block processed in one pass.
type ProcessorConfig struct {
	SampleRate float64
	BlockSize  int
	Channels   int
}

// DefaultProcessorConfig returns 48 kHz stereo with 1024-frame blocks.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		SampleRate: 48000,
		BlockSize:  1024,
		Channels:   2,
	}
}

// Nyquist returns half the sample rate.
func (c ProcessorConfig) Nyquist() float64 {
	return c.SampleRate / 2
}

// ValidSampleRate reports whether sr is positive and finite.
func ValidSampleRate(sr float64) bool {
	return sr > 0 && IsFinite(sr)
}
