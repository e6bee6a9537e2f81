package limiter

import "errors"

var (
	// ErrInvalidSampleRate is returned for non-positive or non-finite rates.
	ErrInvalidSampleRate = errors.New("limiter: sample rate must be positive and finite")
	// ErrInvalidChannels is returned for channel counts other than 1 or 2.
	ErrInvalidChannels = errors.New("limiter: channel count must be 1 or 2")
	// ErrInvalidRelease is returned for release times outside (0, 10000] ms.
	ErrInvalidRelease = errors.New("limiter: release time out of range")
	// ErrInvalidThreshold is returned for thresholds outside (0, 1] (0 dBFS).
	ErrInvalidThreshold = errors.New("limiter: threshold out of range")
	// ErrInvalidInputGain is returned for non-positive or non-finite gains.
	ErrInvalidInputGain = errors.New("limiter: input gain must be positive and finite")
	// ErrInvalidLookahead is returned for lookahead times outside [0.1, 20] ms.
	ErrInvalidLookahead = errors.New("limiter: lookahead out of range")
	// ErrInvalidBlockSize is returned for non-positive block sizes.
	ErrInvalidBlockSize = errors.New("limiter: block size must be positive")
	// ErrInvalidStatsPolicy is returned for unknown stats policies.
	ErrInvalidStatsPolicy = errors.New("limiter: unknown stats policy")
	// ErrNotInitialized is returned when processing before Init.
	ErrNotInitialized = errors.New("limiter: engine not initialized")
	// ErrChannelMismatch is returned when the number of buffers does not
	// match the configured channel count.
	ErrChannelMismatch = errors.New("limiter: channel buffer count mismatch")
	// ErrBufferLength is returned when channel buffers differ in length.
	ErrBufferLength = errors.New("limiter: buffer length mismatch")
)
