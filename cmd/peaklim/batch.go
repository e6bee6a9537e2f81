package main

import (
	"github.com/spf13/cobra"

	"github.com/cwbudde/peaklim/internal/batch"
)

func (a *app) batchCommand() *cobra.Command {
	var (
		compensate bool
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "batch DIR OUTDIR",
		Short: "Limit every WAV file in a directory concurrently",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := a.settings.Limiter.Options()
			if err != nil {
				return err
			}

			jobs, err := batch.Discover(args[0], args[1])
			if err != nil {
				return err
			}

			if len(jobs) == 0 {
				a.logger.Warn("no wav files found", "dir", args[0])
				return nil
			}

			runner := &batch.Runner{
				Jobs: a.settings.Batch.Jobs,
				Options: batch.FileOptions{
					Limiter:           opts,
					CompensateLatency: compensate,
				},
				Logger: a.logger,
			}

			results, runErr := runner.Run(cmd.Context(), jobs)

			reports := make([]fileReport, len(results))
			for i, res := range results {
				reports[i] = newFileReport(res)
			}

			if err := writeReports(cmd.OutOrStdout(), asJSON, reports...); err != nil {
				return err
			}

			return runErr
		},
	}

	a.addLimiterFlags(cmd)
	cmd.Flags().Int("jobs", 4, "number of files processed in parallel")
	cmd.Flags().BoolVar(&compensate, "compensate-latency", false, "drop the lookahead delay so output aligns with input")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the reports as JSON")
	a.bind(cmd, "batch.jobs", "jobs")

	return cmd
}
