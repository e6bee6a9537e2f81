// Package wavio streams planar float64 audio in and out of PCM WAV files.
package wavio

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

var (
	// ErrInvalidFile is returned for input that is not a PCM WAV file.
	ErrInvalidFile = errors.New("wavio: not a valid WAV file")
	// ErrUnsupportedFormat is returned for bit depths or channel counts the
	// limiter cannot handle.
	ErrUnsupportedFormat = errors.New("wavio: unsupported format")
)

// Info describes a WAV stream.
type Info struct {
	SampleRate int
	Channels   int
	BitDepth   int
	// Frames is the number of frames in the data chunk, 0 when unknown.
	Frames int
}

func fullScale(bitDepth int) float64 {
	return float64(int64(1) << (bitDepth - 1))
}

func checkFormat(bitDepth, channels int) error {
	if bitDepth != 16 && bitDepth != 24 && bitDepth != 32 {
		return fmt.Errorf("%w: bit depth %d", ErrUnsupportedFormat, bitDepth)
	}

	if channels != 1 && channels != 2 {
		return fmt.Errorf("%w: %d channels", ErrUnsupportedFormat, channels)
	}

	return nil
}

// Reader decodes interleaved integer PCM into planar float64 in [-1, 1).
type Reader struct {
	dec   *wav.Decoder
	info  Info
	buf   *audio.IntBuffer
	scale float64
	done  bool
}

// NewReader parses the WAV header of r.
func NewReader(r io.ReadSeeker) (*Reader, error) {
	dec := wav.NewDecoder(r)
	dec.ReadInfo()

	if !dec.IsValidFile() {
		return nil, ErrInvalidFile
	}

	info := Info{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
	}

	if err := checkFormat(info.BitDepth, info.Channels); err != nil {
		return nil, err
	}

	// 1 is integer PCM, 0xFFFE is WAVE_FORMAT_EXTENSIBLE.
	if dec.WavAudioFormat != 1 && dec.WavAudioFormat != 0xFFFE {
		return nil, fmt.Errorf("%w: audio format %d", ErrUnsupportedFormat, dec.WavAudioFormat)
	}

	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("wavio: locating PCM data: %w", err)
	}

	info.Frames = dec.PCMSize / (info.BitDepth / 8) / info.Channels

	return &Reader{
		dec:   dec,
		info:  info,
		scale: 1 / fullScale(info.BitDepth),
		buf: &audio.IntBuffer{
			Format: &audio.Format{SampleRate: info.SampleRate, NumChannels: info.Channels},
		},
	}, nil
}

// Info returns the stream format.
func (r *Reader) Info() Info {
	return r.info
}

// Read fills dst (one slice per channel, equal lengths) with up to
// len(dst[0]) frames and returns the number of frames read. It returns
// io.EOF once the data chunk is exhausted.
func (r *Reader) Read(dst [][]float64) (int, error) {
	if len(dst) != r.info.Channels {
		return 0, fmt.Errorf("wavio: %d destination channels for a %d channel file", len(dst), r.info.Channels)
	}

	if r.done {
		return 0, io.EOF
	}

	want := len(dst[0]) * r.info.Channels
	if cap(r.buf.Data) < want {
		r.buf.Data = make([]int, want)
	}

	r.buf.Data = r.buf.Data[:want]

	n, err := r.dec.PCMBuffer(r.buf)
	if err != nil {
		return 0, fmt.Errorf("wavio: decoding PCM: %w", err)
	}

	if n < want {
		r.done = true
	}

	frames := n / r.info.Channels
	if frames == 0 {
		return 0, io.EOF
	}

	channels := r.info.Channels
	for i := range frames {
		for c := range channels {
			dst[c][i] = float64(r.buf.Data[i*channels+c]) * r.scale
		}
	}

	return frames, nil
}

// Writer encodes planar float64 as interleaved integer PCM. Samples are
// rounded and clamped to the integer range.
type Writer struct {
	enc      *wav.Encoder
	channels int
	scale    float64
	buf      *audio.IntBuffer
	frames   int
}

// NewWriter writes a WAV header to w. Close must be called to finalise the
// chunk sizes.
func NewWriter(w io.WriteSeeker, sampleRate, channels, bitDepth int) (*Writer, error) {
	if err := checkFormat(bitDepth, channels); err != nil {
		return nil, err
	}

	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate %d", ErrUnsupportedFormat, sampleRate)
	}

	return &Writer{
		enc:      wav.NewEncoder(w, sampleRate, bitDepth, channels, 1),
		channels: channels,
		scale:    fullScale(bitDepth),
		buf: &audio.IntBuffer{
			Format:         &audio.Format{SampleRate: sampleRate, NumChannels: channels},
			SourceBitDepth: bitDepth,
		},
	}, nil
}

// Write encodes the first frames samples of every channel in src.
func (w *Writer) Write(src [][]float64, frames int) error {
	if len(src) != w.channels {
		return fmt.Errorf("wavio: %d source channels for a %d channel file", len(src), w.channels)
	}

	if frames == 0 {
		return nil
	}

	n := frames * w.channels
	if cap(w.buf.Data) < n {
		w.buf.Data = make([]int, n)
	}

	w.buf.Data = w.buf.Data[:n]

	// Truncation keeps every code at or below the magnitude of its sample,
	// so a signal limited to a ceiling still reads back under it.
	hi := w.scale - 1
	for c, ch := range src {
		for i, x := range ch[:frames] {
			v := math.Trunc(x * w.scale)
			if v > hi {
				v = hi
			} else if v < -w.scale {
				v = -w.scale
			} else if v != v {
				v = 0
			}

			w.buf.Data[i*w.channels+c] = int(v)
		}
	}

	if err := w.enc.Write(w.buf); err != nil {
		return fmt.Errorf("wavio: encoding PCM: %w", err)
	}

	w.frames += frames

	return nil
}

// Frames returns the number of frames written so far.
func (w *Writer) Frames() int {
	return w.frames
}

// Close finalises the WAV header. The underlying writer is not closed.
func (w *Writer) Close() error {
	if err := w.enc.Close(); err != nil {
		return fmt.Errorf("wavio: finalising file: %w", err)
	}

	return nil
}

// ReadFile decodes a whole WAV file into planar channels.
func ReadFile(path string) (Info, [][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, nil, err
	}
	defer f.Close()

	r, err := NewReader(f)
	if err != nil {
		return Info{}, nil, fmt.Errorf("%s: %w", path, err)
	}

	info := r.Info()
	data := make([][]float64, info.Channels)

	for c := range data {
		data[c] = make([]float64, info.Frames)
	}

	frames, err := r.Read(data)
	if err != nil && !errors.Is(err, io.EOF) {
		return Info{}, nil, fmt.Errorf("%s: %w", path, err)
	}

	for c := range data {
		data[c] = data[c][:frames]
	}

	info.Frames = frames

	return info, data, nil
}

// WriteFile encodes planar channels into a new WAV file at path.
func WriteFile(path string, sampleRate, bitDepth int, data [][]float64) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	w, err := NewWriter(f, sampleRate, len(data), bitDepth)
	if err != nil {
		return err
	}

	frames := 0
	if len(data) > 0 {
		frames = len(data[0])
	}

	if err := w.Write(data, frames); err != nil {
		return err
	}

	return w.Close()
}
