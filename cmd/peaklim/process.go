package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cwbudde/peaklim/internal/batch"
)

type fileReport struct {
	Input              string  `json:"input"`
	Output             string  `json:"output"`
	SampleRate         int     `json:"sample_rate"`
	Channels           int     `json:"channels"`
	Frames             int     `json:"frames"`
	LatencySamples     int     `json:"latency_samples"`
	PeakDBFS           float64 `json:"peak_dbfs"`
	MaxGainReductionDB float64 `json:"max_gain_reduction_db"`
	DurationMs         int64   `json:"duration_ms"`
	Error              string  `json:"error,omitempty"`
}

func newFileReport(res batch.Result) fileReport {
	r := fileReport{
		Input:              res.Input,
		Output:             res.Output,
		SampleRate:         res.Info.SampleRate,
		Channels:           res.Info.Channels,
		Frames:             res.Frames,
		LatencySamples:     res.Latency,
		PeakDBFS:           reportDB(res.Limiter.PeakDB()),
		MaxGainReductionDB: reportDB(res.Limiter.MaxReductionDB()),
		DurationMs:         res.Duration.Milliseconds(),
	}

	if res.Err != nil {
		r.Error = res.Err.Error()
	}

	return r
}

func writeReports(w io.Writer, asJSON bool, reports ...fileReport) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		if len(reports) == 1 {
			return enc.Encode(reports[0])
		}

		return enc.Encode(reports)
	}

	for _, r := range reports {
		if r.Error != "" {
			if _, err := fmt.Fprintf(w, "%s: FAILED: %s\n", r.Input, r.Error); err != nil {
				return err
			}

			continue
		}

		_, err := fmt.Fprintf(w, "%s -> %s: %d frames @ %d Hz, latency %d, peak %.2f dBFS, max reduction %.2f dB\n",
			r.Input, r.Output, r.Frames, r.SampleRate, r.LatencySamples, r.PeakDBFS, r.MaxGainReductionDB)
		if err != nil {
			return err
		}
	}

	return nil
}

func (a *app) processCommand() *cobra.Command {
	var (
		compensate bool
		bitDepth   int
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "process IN.wav OUT.wav",
		Short: "Limit a WAV file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := a.settings.Limiter.Options()
			if err != nil {
				return err
			}

			res, err := batch.ProcessFile(cmd.Context(), args[0], args[1], batch.FileOptions{
				Limiter:           opts,
				CompensateLatency: compensate,
				BitDepth:          bitDepth,
			})
			if err != nil {
				return err
			}

			a.logger.Debug("processed file", "input", res.Input, "duration", res.Duration)

			return writeReports(cmd.OutOrStdout(), asJSON, newFileReport(res))
		},
	}

	a.addLimiterFlags(cmd)
	cmd.Flags().BoolVar(&compensate, "compensate-latency", false, "drop the lookahead delay so output aligns with input")
	cmd.Flags().IntVar(&bitDepth, "bit-depth", 0, "output bit depth: 16, 24 or 32 (default: same as input)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")

	return cmd
}
