package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/peaklim/dsp/limiter"
	"github.com/cwbudde/peaklim/internal/live"
	"github.com/cwbudde/peaklim/internal/metrics"
)

func (a *app) liveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "live",
		Short: "Limit the default capture device into the default playback device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.settings.Live

			opts, err := a.settings.Limiter.Options()
			if err != nil {
				return err
			}

			// Meters need per-callback readings rather than a running total.
			opts = append(opts,
				limiter.WithSampleRate(float64(cfg.SampleRate)),
				limiter.WithChannels(cfg.Channels),
				limiter.WithStatsPolicy(limiter.StatsPerCall),
			)

			engine, err := limiter.New(opts...)
			if err != nil {
				return err
			}

			reg := prometheus.NewRegistry()

			m, err := metrics.NewLimiterMetrics(reg)
			if err != nil {
				return err
			}

			g, ctx := errgroup.WithContext(cmd.Context())

			if cfg.MetricsAddr != "" {
				g.Go(func() error {
					return serveMetrics(ctx, cfg.MetricsAddr, m.Handler())
				})

				a.logger.Info("serving metrics", "addr", cfg.MetricsAddr)
			}

			g.Go(func() error {
				return live.Run(ctx, live.Config{
					SampleRate:   cfg.SampleRate,
					Channels:     cfg.Channels,
					PeriodFrames: cfg.PeriodFrames,
				}, engine, m, a.logger)
			})

			return g.Wait()
		},
	}

	a.addLimiterFlags(cmd)
	cmd.Flags().Int("sample-rate", 48000, "requested device sample rate")
	cmd.Flags().Int("channels", 2, "device channel count (1 or 2)")
	cmd.Flags().Int("period-frames", 256, "device period in frames")
	cmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9109")

	a.bind(cmd, "live.sample_rate", "sample-rate")
	a.bind(cmd, "live.channels", "channels")
	a.bind(cmd, "live.period_frames", "period-frames")
	a.bind(cmd, "live.metrics_addr", "metrics-addr")

	return cmd
}

// serveMetrics runs an HTTP server for handler on addr until ctx ends.
func serveMetrics(ctx context.Context, addr string, handler http.Handler) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
