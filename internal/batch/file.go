// Package batch limits WAV files, one independent engine per file, with a
// bounded number of files in flight.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cwbudde/peaklim/dsp/limiter"
	"github.com/cwbudde/peaklim/internal/wavio"
	timestats "github.com/cwbudde/peaklim/stats/time"
)

// FileOptions controls how a single file is processed.
type FileOptions struct {
	// Limiter options; sample rate and channel count are taken from the
	// input file.
	Limiter []limiter.Option
	// CompensateLatency drops the first Latency() output frames and flushes
	// the tail so the output lines up with the input sample for sample.
	CompensateLatency bool
	// BitDepth of the output file; 0 keeps the input depth.
	BitDepth int
	// BlockFrames is the read size; 0 uses the engine block size.
	BlockFrames int
}

// Result reports what happened to one file.
type Result struct {
	Input   string
	Output  string
	Info    wavio.Info
	Latency int
	Frames  int
	Limiter limiter.Stats
	// Levels holds output level statistics per channel.
	Levels   []timestats.Stats
	Duration time.Duration
	Err      error
}

// ProcessFile limits in into out. The context is checked between blocks.
func ProcessFile(ctx context.Context, in, out string, opts FileOptions) (res Result, err error) {
	start := time.Now()
	res = Result{Input: in, Output: out}

	defer func() {
		res.Duration = time.Since(start)
		res.Err = err
	}()

	src, err := os.Open(in)
	if err != nil {
		return res, err
	}
	defer src.Close()

	reader, err := wavio.NewReader(src)
	if err != nil {
		return res, fmt.Errorf("%s: %w", in, err)
	}

	info := reader.Info()
	res.Info = info

	engineOpts := append([]limiter.Option{}, opts.Limiter...)
	engineOpts = append(engineOpts,
		limiter.WithSampleRate(float64(info.SampleRate)),
		limiter.WithChannels(info.Channels),
	)

	engine, err := limiter.New(engineOpts...)
	if err != nil {
		return res, fmt.Errorf("%s: %w", in, err)
	}

	latency, err := engine.Latency()
	if err != nil {
		return res, err
	}

	res.Latency = latency

	bitDepth := opts.BitDepth
	if bitDepth == 0 {
		bitDepth = info.BitDepth
	}

	dst, err := os.Create(out)
	if err != nil {
		return res, err
	}

	defer func() {
		if cerr := dst.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	writer, err := wavio.NewWriter(dst, info.SampleRate, info.Channels, bitDepth)
	if err != nil {
		return res, fmt.Errorf("%s: %w", out, err)
	}

	frames := opts.BlockFrames
	if frames <= 0 {
		frames = engine.Config().BlockSize
	}

	p := &pipeline{
		engine: engine,
		writer: writer,
		skip:   0,
		buf:    make([][]float64, info.Channels),
		level:  make([]timestats.Accumulator, info.Channels),
	}

	if opts.CompensateLatency {
		p.skip = latency
	}

	for c := range p.buf {
		p.buf[c] = make([]float64, frames)
	}

	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		n, rerr := reader.Read(p.buf)
		if n > 0 {
			if err := p.push(n); err != nil {
				return res, fmt.Errorf("%s: %w", in, err)
			}
		}

		if errors.Is(rerr, io.EOF) {
			break
		}

		if rerr != nil {
			return res, fmt.Errorf("%s: %w", in, rerr)
		}
	}

	if opts.CompensateLatency {
		if err := p.flush(latency); err != nil {
			return res, fmt.Errorf("%s: %w", in, err)
		}
	}

	if err := writer.Close(); err != nil {
		return res, err
	}

	res.Frames = writer.Frames()
	res.Limiter = engine.Stats()
	res.Levels = make([]timestats.Stats, len(p.level))
	for c := range p.level {
		res.Levels[c] = p.level[c].Result()
	}

	return res, nil
}

// pipeline pushes blocks through the engine in place and writes them,
// discarding the first skip frames.
type pipeline struct {
	engine *limiter.Engine
	writer *wavio.Writer
	skip   int
	buf    [][]float64
	view   [][]float64
	level  []timestats.Accumulator
}

func (p *pipeline) push(n int) error {
	if p.view == nil {
		p.view = make([][]float64, len(p.buf))
	}

	for c := range p.buf {
		p.view[c] = p.buf[c][:n]
	}

	if err := p.engine.Process(p.view, p.view); err != nil {
		return err
	}

	drop := min(p.skip, n)
	p.skip -= drop

	if drop == n {
		return nil
	}

	for c := range p.view {
		p.view[c] = p.view[c][drop:]
	}

	for c, ch := range p.view {
		p.level[c].Update(ch)
	}

	return p.writer.Write(p.view, n-drop)
}

// flush pushes silence to drain the lookahead delay.
func (p *pipeline) flush(frames int) error {
	for frames > 0 {
		n := min(frames, len(p.buf[0]))
		for c := range p.buf {
			clear(p.buf[c][:n])
		}

		if err := p.push(n); err != nil {
			return err
		}

		frames -= n
	}

	return nil
}
