package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cwbudde/peaklim/dsp/limiter"
)

func (a *app) latencyCommand() *cobra.Command {
	var (
		sampleRate float64
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "latency",
		Short: "Print the limiter latency in samples",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := a.settings.Limiter.Options()
			if err != nil {
				return err
			}

			engine, err := limiter.New(append(opts, limiter.WithSampleRate(sampleRate))...)
			if err != nil {
				return err
			}

			samples, err := engine.Latency()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return json.NewEncoder(out).Encode(struct {
					SampleRate float64 `json:"sample_rate"`
					TruePeak   bool    `json:"true_peak"`
					Samples    int     `json:"samples"`
					Ms         float64 `json:"ms"`
				}{sampleRate, engine.TruePeak(), samples, float64(samples) * 1000 / sampleRate})
			}

			_, err = fmt.Fprintln(out, samples)

			return err
		},
	}

	f := cmd.Flags()
	f.Float64Var(&sampleRate, "sample-rate", 48000, "sample rate in Hz")
	f.Bool("true-peak", false, "include the true-peak detector delay")
	f.Float64("lookahead-ms", 1.2, "lookahead in milliseconds")
	f.BoolVar(&asJSON, "json", false, "print the result as JSON")

	a.bind(cmd, "limiter.true_peak", "true-peak")
	a.bind(cmd, "limiter.lookahead_ms", "lookahead-ms")

	return cmd
}
