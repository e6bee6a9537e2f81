package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/peaklim/internal/metrics"
)

// Job is one input/output file pair.
type Job struct {
	Input  string
	Output string
}

// Runner processes jobs concurrently. Engines are never shared between
// goroutines.
type Runner struct {
	// Jobs bounds the number of files in flight; values below 1 mean 1.
	Jobs    int
	Options FileOptions
	Logger  *slog.Logger
	// Metrics is optional.
	Metrics *metrics.LimiterMetrics
}

// Run processes every job and returns one Result per job in input order.
// A failing file does not stop the others; the returned error joins all
// per-file errors. Cancelling ctx stops files that have not started and
// interrupts running ones between blocks.
func (r *Runner) Run(ctx context.Context, jobs []Job) ([]Result, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	logger = logger.With("run_id", uuid.NewString())

	results := make([]Result, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(r.Jobs, 1))

	for i, job := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = Result{Input: job.Input, Output: job.Output, Err: err}
				return nil
			}

			res, err := ProcessFile(ctx, job.Input, job.Output, r.Options)
			results[i] = res

			if r.Metrics != nil {
				r.Metrics.RecordFile(res.Limiter, err)
			}

			if err != nil {
				logger.Error("file failed", "input", job.Input, "error", err)
				return nil
			}

			logger.Info("file done",
				"input", job.Input,
				"frames", res.Frames,
				"peak_dbfs", res.Limiter.PeakDB(),
				"max_reduction_db", res.Limiter.MaxReductionDB(),
				"duration", res.Duration)

			return nil
		})
	}

	// Workers never return errors, so Wait only synchronises.
	_ = g.Wait()

	var errs []error

	for _, res := range results {
		if res.Err != nil {
			errs = append(errs, res.Err)
		}
	}

	return results, errors.Join(errs...)
}

// Discover lists the .wav files directly inside dir and pairs each with a
// file of the same name in outDir. outDir is created if needed and must
// differ from dir.
func Discover(dir, outDir string) ([]Job, error) {
	absIn, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	absOut, err := filepath.Abs(outDir)
	if err != nil {
		return nil, err
	}

	if absIn == absOut {
		return nil, fmt.Errorf("output directory must differ from input directory: %s", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", outDir, err)
	}

	var jobs []Job

	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".wav") {
			continue
		}

		jobs = append(jobs, Job{
			Input:  filepath.Join(dir, e.Name()),
			Output: filepath.Join(outDir, e.Name()),
		})
	}

	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Input < jobs[j].Input })

	return jobs, nil
}
