package limiter

import "fmt"

// Planar maps host channel buffers onto the engine's channel count. A
// single buffer offered to a stereo engine is used for both channels, so
// the mono signal is limited as a linked pair and written back in place.
// Any other count mismatch is an error.
func Planar(channels int, bufs ...[]float64) ([][]float64, error) {
	if err := validateChannels(channels); err != nil {
		return nil, err
	}

	switch {
	case len(bufs) == channels:
		return bufs, nil
	case len(bufs) == 1 && channels == 2:
		return [][]float64{bufs[0], bufs[0]}, nil
	default:
		return nil, fmt.Errorf("%w: %d buffers for %d channels", ErrChannelMismatch, len(bufs), channels)
	}
}

// Deinterleave splits interleaved float32 frames into planar float64
// channels. Every dst slice must hold at least len(src)/len(dst) samples.
func Deinterleave(dst [][]float64, src []float32) (int, error) {
	channels := len(dst)
	if channels == 0 {
		return 0, fmt.Errorf("%w: no destination channels", ErrChannelMismatch)
	}

	if len(src)%channels != 0 {
		return 0, fmt.Errorf("%w: %d samples not divisible by %d channels", ErrBufferLength, len(src), channels)
	}

	frames := len(src) / channels
	for c := range dst {
		if len(dst[c]) < frames {
			return 0, fmt.Errorf("%w: channel %d holds %d of %d frames", ErrBufferLength, c, len(dst[c]), frames)
		}
	}

	for i := range frames {
		base := i * channels
		for c := range dst {
			dst[c][i] = float64(src[base+c])
		}
	}

	return frames, nil
}

// Interleave writes the first frames samples of each planar channel into
// dst as interleaved float32.
func Interleave(dst []float32, src [][]float64, frames int) error {
	channels := len(src)
	if channels == 0 {
		return fmt.Errorf("%w: no source channels", ErrChannelMismatch)
	}

	if len(dst) < frames*channels {
		return fmt.Errorf("%w: destination holds %d of %d samples", ErrBufferLength, len(dst), frames*channels)
	}

	for c := range src {
		if len(src[c]) < frames {
			return fmt.Errorf("%w: channel %d holds %d of %d frames", ErrBufferLength, c, len(src[c]), frames)
		}
	}

	for i := range frames {
		base := i * channels
		for c := range src {
			dst[base+c] = float32(src[c][i])
		}
	}

	return nil
}

// Interleaved drives an Engine from interleaved float32 buffers as
// delivered by audio devices. Scratch space is allocated once, so Process
// does not allocate.
type Interleaved struct {
	engine *Engine
	planar [][]float64
	frames int
}

// NewInterleaved wraps an initialised engine.
func NewInterleaved(e *Engine) (*Interleaved, error) {
	if !e.ready {
		return nil, ErrNotInitialized
	}

	frames := e.cfg.BlockSize
	planar := make([][]float64, e.cfg.Channels)

	for c := range planar {
		planar[c] = make([]float64, frames)
	}

	return &Interleaved{engine: e, planar: planar, frames: frames}, nil
}

// Engine returns the wrapped engine.
func (p *Interleaved) Engine() *Engine {
	return p.engine
}

// Process limits the interleaved samples in src into dst. dst may alias
// src. Both must contain whole frames for the engine's channel count.
func (p *Interleaved) Process(dst, src []float32) error {
	channels := len(p.planar)
	if len(dst) != len(src) {
		return fmt.Errorf("%w: %d output samples for %d input samples", ErrBufferLength, len(dst), len(src))
	}

	if len(src)%channels != 0 {
		return fmt.Errorf("%w: %d samples not divisible by %d channels", ErrBufferLength, len(src), channels)
	}

	chunk := p.frames * channels
	for lo := 0; lo < len(src); lo += chunk {
		hi := min(lo+chunk, len(src))
		frames := (hi - lo) / channels

		if _, err := Deinterleave(p.planar, src[lo:hi]); err != nil {
			return err
		}

		for c := range p.planar {
			p.planar[c] = p.planar[c][:frames]
		}

		err := p.engine.Process(p.planar, p.planar)

		for c := range p.planar {
			p.planar[c] = p.planar[c][:p.frames]
		}

		if err != nil {
			return err
		}

		if err := Interleave(dst[lo:hi], p.planar, frames); err != nil {
			return err
		}
	}

	return nil
}
