// Package limiter implements a lookahead brick-wall peak limiter.
//
// An Engine delays the program signal by a fixed lookahead and computes, for
// every delayed sample, the deepest gain reduction demanded anywhere in the
// lookahead window. Reduction is therefore already in place when a peak
// leaves the delay line, so attack is instantaneous while release recovers
// exponentially with a configurable time constant. With true-peak mode on,
// peaks are estimated on a 4x oversampled grid (see package truepeak) and
// the reported latency grows by truepeak.Delay samples. True-peak mode
// limits 1.5 dB below the threshold so that the reconstructed waveform of
// content band-limited to 0.45 fs stays under it.
//
// Stereo channels are linked: one gain curve, driven by the louder channel,
// is applied to both so the stereo image is preserved.
//
// Process is real-time safe. It does not allocate, lock or perform I/O, and
// its cost is linear in the block size. An Engine must not be used from more
// than one goroutine at a time; independent engines share no state.
//
// Basic usage:
//
//	e, err := limiter.New(
//		limiter.WithSampleRate(48000),
//		limiter.WithChannels(2),
//		limiter.WithThresholdDB(-1),
//		limiter.WithRelease(50),
//	)
//	if err != nil {
//		return err
//	}
//	if err := e.Process(in, out); err != nil {
//		return err
//	}
//	st := e.Stats()
package limiter
