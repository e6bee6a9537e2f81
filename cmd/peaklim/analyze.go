package main

import (
	"encoding/json"
	"fmt"
	"math"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cwbudde/peaklim/internal/wavio"
	"github.com/cwbudde/peaklim/measure/loudness"
	"github.com/cwbudde/peaklim/measure/truepeak"
	timestats "github.com/cwbudde/peaklim/stats/time"
)

type channelReport struct {
	Channel        int     `json:"channel"`
	SamplePeakDBFS float64 `json:"sample_peak_dbfs"`
	TruePeakDBTP   float64 `json:"true_peak_dbtp"`
	RMSDBFS        float64 `json:"rms_dbfs"`
	CrestFactorDB  float64 `json:"crest_factor_db"`
	DC             float64 `json:"dc"`
	Clipped        int     `json:"clipped"`
}

type analyzeReport struct {
	File       string `json:"file"`
	SampleRate int    `json:"sample_rate"`
	BitDepth   int    `json:"bit_depth"`
	Frames     int    `json:"frames"`
	// Programme loudness over all channels.
	IntegratedLUFS   float64         `json:"integrated_lufs"`
	MaxShortTermLUFS float64         `json:"max_short_term_lufs"`
	Channels         []channelReport `json:"channels"`
}

func (a *app) analyzeCommand() *cobra.Command {
	var (
		factor int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "analyze FILE.wav",
		Short: "Report peak, true peak, loudness and level statistics of a WAV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, data, err := wavio.ReadFile(args[0])
			if err != nil {
				return err
			}

			report := analyzeReport{
				File:       args[0],
				SampleRate: info.SampleRate,
				BitDepth:   info.BitDepth,
				Frames:     info.Frames,
			}

			meter, err := loudness.NewMeter(
				loudness.WithSampleRate(float64(info.SampleRate)),
				loudness.WithChannels(info.Channels),
			)
			if err != nil {
				return err
			}

			if err := meter.Process(data); err != nil {
				return err
			}

			report.IntegratedLUFS = meter.Integrated()
			report.MaxShortTermLUFS = meter.MaxShortTerm()

			for c, ch := range data {
				s := timestats.Calculate(ch)

				tp := math.Inf(-1)
				if len(ch) > 0 {
					if tp, err = truepeak.TruePeakDB(ch, factor); err != nil {
						return err
					}
				}

				report.Channels = append(report.Channels, channelReport{
					Channel:        c,
					SamplePeakDBFS: reportDB(s.PeakdB()),
					TruePeakDBTP:   reportDB(tp),
					RMSDBFS:        reportDB(s.RMSdB()),
					CrestFactorDB:  s.CrestFactordB(),
					DC:             s.DC,
					Clipped:        s.Clipped,
				})
			}

			a.logger.Debug("analyzed file", "file", args[0], "frames", info.Frames)

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")

				return enc.Encode(report)
			}

			fmt.Fprintf(out, "%s: %d frames @ %d Hz, %d bit\n", report.File, report.Frames, report.SampleRate, report.BitDepth)
			fmt.Fprintf(out, "integrated %.1f LUFS, max short-term %.1f LUFS\n", report.IntegratedLUFS, report.MaxShortTermLUFS)

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(tw, "ch\tsample peak dBFS\ttrue peak dBTP\tRMS dBFS\tcrest dB\tclipped\t")

			for _, ch := range report.Channels {
				fmt.Fprintf(tw, "%d\t%.2f\t%.2f\t%.2f\t%.2f\t%d\t\n",
					ch.Channel, ch.SamplePeakDBFS, ch.TruePeakDBTP, ch.RMSDBFS, ch.CrestFactorDB, ch.Clipped)
			}

			return tw.Flush()
		},
	}

	cmd.Flags().IntVar(&factor, "oversample", truepeak.DefaultFactor, "oversampling factor for the true-peak reading")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")

	return cmd
}
