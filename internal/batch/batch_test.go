package batch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/cwbudde/peaklim/dsp/core"
	"github.com/cwbudde/peaklim/dsp/limiter"
	"github.com/cwbudde/peaklim/internal/metrics"
	"github.com/cwbudde/peaklim/internal/testutil"
	"github.com/cwbudde/peaklim/internal/wavio"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func writeWAV(t *testing.T, path string, data ...[]float64) {
	t.Helper()
	require.NoError(t, wavio.WriteFile(path, 48000, 16, data))
}

func TestProcessFileCompensatesLatency(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.wav")
	out := filepath.Join(dir, "out.wav")

	writeWAV(t, in, testutil.DeterministicSine(440, 48000, 0.3, 3000), testutil.DeterministicNoise(1, 0.3, 3000))

	res, err := ProcessFile(context.Background(), in, out, FileOptions{
		Limiter:           []limiter.Option{limiter.WithThresholdDB(-1)},
		CompensateLatency: true,
		BlockFrames:       500,
	})
	require.NoError(t, err)

	assert.Equal(t, 58, res.Latency)
	assert.Equal(t, 3000, res.Frames)
	assert.InDelta(t, 1.0, res.Limiter.MinGain, 0)
	require.Len(t, res.Levels, 2)

	_, want, err := wavio.ReadFile(in)
	require.NoError(t, err)

	_, got, err := wavio.ReadFile(out)
	require.NoError(t, err)

	// Below the threshold the limiter is transparent, so the aligned output
	// reproduces the quantised input exactly.
	for c := range want {
		testutil.RequireSliceNearlyEqual(t, got[c], want[c], 0)
	}
}

func TestProcessFileWithoutCompensation(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.wav")
	out := filepath.Join(dir, "out.wav")

	writeWAV(t, in, testutil.DC(0.25, 1000))

	res, err := ProcessFile(context.Background(), in, out, FileOptions{
		Limiter: []limiter.Option{limiter.WithTruePeak(true)},
	})
	require.NoError(t, err)
	assert.Equal(t, 64, res.Latency)
	assert.Equal(t, 1000, res.Frames)

	_, got, err := wavio.ReadFile(out)
	require.NoError(t, err)

	for i := range 64 {
		require.Zero(t, got[0][i], "frame %d", i)
	}

	assert.InDelta(t, 0.25, got[0][64], 1.0/32768)
}

func TestProcessFileLimits(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.wav")
	out := filepath.Join(dir, "out.wav")

	writeWAV(t, in, testutil.DeterministicNoise(7, 0.99, 4800), testutil.DeterministicNoise(8, 0.99, 4800))

	res, err := ProcessFile(context.Background(), in, out, FileOptions{
		Limiter:           []limiter.Option{limiter.WithThresholdDB(-6)},
		CompensateLatency: true,
		BitDepth:          24,
	})
	require.NoError(t, err)

	info, got, err := wavio.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, 24, info.BitDepth)

	// Quantisation truncates towards zero, so the file stays under the ceiling.
	limit := core.DBToLinear(-6)
	for c := range got {
		testutil.RequireBounded(t, got[c], limit)
		assert.LessOrEqual(t, res.Levels[c].Peak, limit)
	}

	assert.Less(t, res.Limiter.MinGain, 0.6)
}

func TestProcessFileErrors(t *testing.T) {
	dir := t.TempDir()
	bogus := filepath.Join(dir, "bogus.wav")
	require.NoError(t, os.WriteFile(bogus, []byte("RIFF but not really"), 0o644))

	_, err := ProcessFile(context.Background(), bogus, filepath.Join(dir, "x.wav"), FileOptions{})
	assert.ErrorIs(t, err, wavio.ErrInvalidFile)

	in := filepath.Join(dir, "in.wav")
	writeWAV(t, in, testutil.DC(0.1, 100))

	_, err = ProcessFile(context.Background(), in, filepath.Join(dir, "y.wav"), FileOptions{
		Limiter: []limiter.Option{limiter.WithRelease(-1)},
	})
	assert.ErrorIs(t, err, limiter.ErrInvalidRelease)
}

func TestRunnerProcessesAllFiles(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")

	for i, name := range []string{"a.wav", "b.wav", "c.WAV", "d.wav"} {
		writeWAV(t, filepath.Join(dir, name), testutil.DeterministicNoise(int64(i), 1, 2000))
	}

	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.wav"), []byte("nope"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip me"), 0o644))

	jobs, err := Discover(dir, outDir)
	require.NoError(t, err)
	require.Len(t, jobs, 5)

	m, err := metrics.NewLimiterMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	r := &Runner{
		Jobs:    2,
		Options: FileOptions{Limiter: []limiter.Option{limiter.WithThresholdDB(-3)}},
		Metrics: m,
	}

	results, err := r.Run(context.Background(), jobs)
	require.Error(t, err)
	assert.ErrorIs(t, err, wavio.ErrInvalidFile)
	require.Len(t, results, 5)

	failed := 0

	for i, res := range results {
		assert.Equal(t, jobs[i].Input, res.Input)

		if res.Err != nil {
			failed++
			continue
		}

		assert.Equal(t, 2000, res.Frames)
		assert.FileExists(t, res.Output)
	}

	assert.Equal(t, 1, failed)
	assert.Equal(t, 2, promtest.CollectAndCount(m, "peaklim_files_processed_total"))
}

func TestRunnerCancelled(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.wav")
	writeWAV(t, in, testutil.DC(0.1, 100))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := &Runner{Jobs: 4}
	results, err := r.Run(ctx, []Job{
		{Input: in, Output: filepath.Join(dir, "o1.wav")},
		{Input: in, Output: filepath.Join(dir, "o2.wav")},
	})

	assert.ErrorIs(t, err, context.Canceled)

	for _, res := range results {
		assert.ErrorIs(t, res.Err, context.Canceled)
	}
}

func TestDiscoverRejectsSameDirectory(t *testing.T) {
	dir := t.TempDir()

	_, err := Discover(dir, dir)
	assert.Error(t, err)

	_, err = Discover(filepath.Join(dir, "missing"), filepath.Join(dir, "out"))
	assert.Error(t, err)
}
