// Package delay provides the fixed-capacity delay line used as the limiter's
// lookahead buffer.
package delay

import "fmt"

// Line is a circular delay line with an adjustable integer tap.
//
// Push stores one sample and returns the sample written Delay() pushes
// earlier. Until that many samples have been pushed it returns silence.
// The backing buffer is allocated once in New.
type Line struct {
	buffer   []float64
	writePos int
	delay    int
}

// New returns a delay line able to hold delays of up to capacity samples.
// The initial delay equals capacity.
func New(capacity int) (*Line, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("delay capacity must be > 0: %d", capacity)
	}

	// One extra slot so a delay of exactly capacity never reads the slot
	// being written.
	return &Line{buffer: make([]float64, capacity+1), delay: capacity}, nil
}

// Cap returns the largest supported delay in samples.
func (d *Line) Cap() int {
	return len(d.buffer) - 1
}

// Delay returns the current delay in samples.
func (d *Line) Delay() int {
	return d.delay
}

// SetDelay changes the tap position. The contents are kept, so samples
// already inside the line are emitted at the new offset.
func (d *Line) SetDelay(delay int) error {
	if delay < 0 || delay > d.Cap() {
		return fmt.Errorf("delay must be in [0, %d]: %d", d.Cap(), delay)
	}

	d.delay = delay

	return nil
}

// Push writes one sample and returns the sample written Delay() pushes ago.
func (d *Line) Push(sample float64) float64 {
	size := len(d.buffer)
	d.buffer[d.writePos] = sample

	readPos := d.writePos - d.delay
	if readPos < 0 {
		readPos += size
	}

	out := d.buffer[readPos]

	d.writePos++
	if d.writePos >= size {
		d.writePos = 0
	}

	return out
}

// PushBlock pushes src through the line and writes the delayed samples to
// dst. dst may alias src.
func (d *Line) PushBlock(dst, src []float64) {
	if len(src) == 0 {
		return
	}

	_ = dst[len(src)-1] // bounds check hint
	for i, x := range src {
		dst[i] = d.Push(x)
	}
}

// Peak returns the largest magnitude held in the line, including samples
// older than the current delay.
func (d *Line) Peak() float64 {
	peak := 0.0
	for _, x := range d.buffer {
		if x < 0 {
			x = -x
		}

		if x > peak {
			peak = x
		}
	}

	return peak
}

// Reset clears line state. The delay setting is kept.
func (d *Line) Reset() {
	for i := range d.buffer {
		d.buffer[i] = 0
	}

	d.writePos = 0
}
