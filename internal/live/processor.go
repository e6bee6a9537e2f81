// Package live runs a limiter engine between an audio capture device and a
// playback device.
package live

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/cwbudde/peaklim/dsp/limiter"
	"github.com/cwbudde/peaklim/internal/metrics"
)

const bytesPerSample = 4

// ErrShortBuffer is reported when a device hands over fewer bytes than the
// announced frame count requires.
var ErrShortBuffer = errors.New("live: device buffer shorter than frame count")

// Processor converts little-endian float32 device buffers and limits them.
// It is driven from the device callback and must not be shared between
// devices.
type Processor struct {
	lim      *limiter.Interleaved
	engine   *limiter.Engine
	metrics  *metrics.LimiterMetrics
	channels int
	in, out  []float32
	dropped  atomic.Uint64
	frames   atomic.Uint64
}

// NewProcessor wraps an initialised engine. maxFrames sizes the conversion
// buffers; larger device periods grow them once. m may be nil.
func NewProcessor(e *limiter.Engine, m *metrics.LimiterMetrics, maxFrames int) (*Processor, error) {
	lim, err := limiter.NewInterleaved(e)
	if err != nil {
		return nil, err
	}

	if maxFrames < 1 {
		return nil, fmt.Errorf("live: period must be at least one frame: %d", maxFrames)
	}

	n := maxFrames * e.Channels()

	return &Processor{
		lim:      lim,
		engine:   e,
		metrics:  m,
		channels: e.Channels(),
		in:       make([]float32, n),
		out:      make([]float32, n),
	}, nil
}

// Process limits frameCount frames from input into output. On any error the
// output is silenced and the block counted as dropped, so the device never
// plays unlimited audio.
func (p *Processor) Process(output, input []byte, frameCount uint32) {
	if err := p.process(output, input, int(frameCount)); err != nil {
		clear(output)
		p.dropped.Add(1)

		if p.metrics != nil {
			p.metrics.RecordError("live")
		}

		return
	}

	p.frames.Add(uint64(frameCount))

	if p.metrics != nil {
		p.metrics.ObserveBlock(int(frameCount), p.engine.Stats(), p.engine.GainReductionDB())
	}
}

func (p *Processor) process(output, input []byte, frames int) error {
	n := frames * p.channels
	if len(input) < n*bytesPerSample || len(output) < n*bytesPerSample {
		return fmt.Errorf("%w: %d frames, %d in, %d out bytes", ErrShortBuffer, frames, len(input), len(output))
	}

	if n > len(p.in) {
		p.in = make([]float32, n)
		p.out = make([]float32, n)
	}

	in, out := p.in[:n], p.out[:n]

	for i := range in {
		in[i] = math.Float32frombits(binary.LittleEndian.Uint32(input[i*bytesPerSample:]))
	}

	if err := p.lim.Process(out, in); err != nil {
		return err
	}

	for i, v := range out {
		binary.LittleEndian.PutUint32(output[i*bytesPerSample:], math.Float32bits(v))
	}

	return nil
}

// Dropped returns the number of blocks that were silenced.
func (p *Processor) Dropped() uint64 {
	return p.dropped.Load()
}

// Frames returns the number of frames limited so far.
func (p *Processor) Frames() uint64 {
	return p.frames.Load()
}
