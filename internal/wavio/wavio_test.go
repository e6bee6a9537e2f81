package wavio

import (
	"bytes"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/peaklim/dsp/core"
	"github.com/cwbudde/peaklim/internal/testutil"
)

func TestRoundTrip(t *testing.T) {
	for _, bitDepth := range []int{16, 24, 32} {
		path := filepath.Join(t.TempDir(), "tone.wav")
		data := testutil.Planar(
			testutil.DeterministicSine(440, 48000, 0.5, 1000),
			testutil.DeterministicNoise(3, 0.9, 1000),
		)

		require.NoError(t, WriteFile(path, 48000, bitDepth, data))

		info, got, err := ReadFile(path)
		require.NoError(t, err)

		assert.Equal(t, Info{SampleRate: 48000, Channels: 2, BitDepth: bitDepth, Frames: 1000}, info)

		tol := 1.0 / fullScale(bitDepth)
		for c := range data {
			diff, err := testutil.MaxAbsDiff(got[c], data[c])
			require.NoError(t, err)
			assert.LessOrEqual(t, diff, tol, "bit depth %d channel %d", bitDepth, c)
		}
	}
}

func TestStreamingRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mono.wav")
	src := testutil.DeterministicNoise(5, 0.5, 2500)
	require.NoError(t, WriteFile(path, 44100, 16, [][]float64{src}))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	r, err := NewReader(f)
	require.NoError(t, err)
	assert.Equal(t, 2500, r.Info().Frames)

	block := testutil.Zeros(1, 1024)

	var got []float64

	for {
		n, err := r.Read(block)
		got = append(got, block[0][:n]...)

		if errors.Is(err, io.EOF) {
			break
		}

		require.NoError(t, err)
	}

	require.Len(t, got, len(src))
	testutil.RequireSliceNearlyEqual(t, got, src, 1.0/32768)

	_, err = r.Read(block)
	assert.ErrorIs(t, err, io.EOF)
}

func TestWriterClamps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hot.wav")
	require.NoError(t, WriteFile(path, 8000, 16, [][]float64{{2, -2, 1, -1, 0}}))

	_, got, err := ReadFile(path)
	require.NoError(t, err)

	want := []float64{32767.0 / 32768, -1, 32767.0 / 32768, -1, 0}
	testutil.RequireSliceNearlyEqual(t, got[0], want, 0)
}

func TestWriterNeverRaisesMagnitude(t *testing.T) {
	ceiling := core.DBToLinear(-1)
	// One LSB below full scale and a half-LSB above a code both round up but
	// must truncate.
	in := []float64{ceiling, -ceiling, 0.5 + 0.75/32768, -(0.5 + 0.75/32768)}

	for _, bitDepth := range []int{16, 24, 32} {
		path := filepath.Join(t.TempDir(), "ceiling.wav")
		require.NoError(t, WriteFile(path, 48000, bitDepth, [][]float64{in}))

		_, got, err := ReadFile(path)
		require.NoError(t, err)

		for i, v := range got[0] {
			assert.LessOrEqual(t, math.Abs(v), math.Abs(in[i]), "bit depth %d sample %d", bitDepth, i)
			assert.Less(t, math.Abs(in[i])-math.Abs(v), 1/fullScale(bitDepth), "bit depth %d sample %d", bitDepth, i)
		}
	}

	// -1 dBFS at 16 bit is 29204.6 LSB.
	path := filepath.Join(t.TempDir(), "ceiling16.wav")
	require.NoError(t, WriteFile(path, 48000, 16, [][]float64{{ceiling}}))

	_, got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 29204.0/32768, got[0][0])
}

func TestInvalidInput(t *testing.T) {
	_, err := NewReader(bytes.NewReader([]byte("definitely not a wav file")))
	assert.ErrorIs(t, err, ErrInvalidFile)

	_, err = NewWriter(nil, 48000, 2, 12)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = NewWriter(nil, 48000, 6, 16)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, _, err = ReadFile(filepath.Join(t.TempDir(), "missing.wav"))
	assert.Error(t, err)
}

func TestChannelMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.wav")
	require.NoError(t, WriteFile(path, 48000, 16, testutil.Zeros(2, 10)))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	r, err := NewReader(f)
	require.NoError(t, err)

	_, err = r.Read(testutil.Zeros(1, 10))
	assert.Error(t, err)
}
