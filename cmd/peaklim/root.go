package main

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cwbudde/peaklim/internal/config"
	"github.com/cwbudde/peaklim/internal/logging"
)

// minReportDB replaces -Inf levels of silent signals in reports, since
// JSON cannot encode infinities.
const minReportDB = -200

type binding struct {
	key  string
	flag string
}

// app carries state shared by all subcommands of one invocation.
type app struct {
	v        *viper.Viper
	cfgFile  string
	bindings map[*cobra.Command][]binding

	settings *config.Settings
	logger   *slog.Logger
	closeLog func() error
}

func newRootCommand() *cobra.Command {
	a := &app{
		v:        config.New(),
		bindings: make(map[*cobra.Command][]binding),
	}

	root := &cobra.Command{
		Use:           "peaklim",
		Short:         "Lookahead peak limiter for files and live audio",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if a.closeLog != nil {
				return a.closeLog()
			}

			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default ./peaklim.yaml or ~/.config/peaklim/peaklim.yaml)")
	pf.String("log-level", "info", "log level: trace, debug, info, warn, error")
	pf.String("log-format", logging.FormatText, "log format: text or json")
	pf.String("log-file", "", "also write logs to this file, rotated by size")

	a.bind(root, "log.level", "log-level")
	a.bind(root, "log.format", "log-format")
	a.bind(root, "log.file", "log-file")

	root.AddCommand(
		a.processCommand(),
		a.batchCommand(),
		a.analyzeCommand(),
		a.liveCommand(),
		a.latencyCommand(),
	)

	return root
}

// bind records that flag on cmd overrides the config key. Bindings are
// applied for the command that actually runs and its parents.
func (a *app) bind(cmd *cobra.Command, key, flag string) {
	a.bindings[cmd] = append(a.bindings[cmd], binding{key: key, flag: flag})
}

func (a *app) setup(cmd *cobra.Command) error {
	for c := cmd; c != nil; c = c.Parent() {
		for _, b := range a.bindings[c] {
			f := c.Flags().Lookup(b.flag)
			if f == nil {
				f = c.PersistentFlags().Lookup(b.flag)
			}

			if f == nil {
				return fmt.Errorf("flag --%s is not defined on %s", b.flag, c.Name())
			}

			if err := a.v.BindPFlag(b.key, f); err != nil {
				return fmt.Errorf("error binding flag --%s: %w", b.flag, err)
			}
		}
	}

	settings, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}

	logger, closeLog, err := logging.New(cmd.ErrOrStderr(), settings.Log.LoggingOptions())
	if err != nil {
		return err
	}

	a.settings = settings
	a.logger = logging.ForComponent(logger, cmd.Name())
	a.closeLog = closeLog

	return nil
}

// addLimiterFlags registers the engine settings shared by every command
// that processes audio.
func (a *app) addLimiterFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Float64("threshold-db", -1, "output ceiling in dBFS (<= 0)")
	f.Float64("input-gain-db", 0, "gain applied before limiting in dB")
	f.Float64("release-ms", 50, "release time constant in milliseconds")
	f.Float64("lookahead-ms", 1.2, "lookahead in milliseconds")
	f.Bool("true-peak", false, "limit inter-sample peaks (adds latency)")
	f.Int("block-size", 1024, "maximum frames per internal processing block")
	f.String("stats-policy", "cumulative", "statistics policy: cumulative or per-call")

	a.bind(cmd, "limiter.threshold_db", "threshold-db")
	a.bind(cmd, "limiter.input_gain_db", "input-gain-db")
	a.bind(cmd, "limiter.release_ms", "release-ms")
	a.bind(cmd, "limiter.lookahead_ms", "lookahead-ms")
	a.bind(cmd, "limiter.true_peak", "true-peak")
	a.bind(cmd, "limiter.block_size", "block-size")
	a.bind(cmd, "limiter.stats_policy", "stats-policy")
}

func reportDB(db float64) float64 {
	if math.IsInf(db, -1) || db < minReportDB {
		return minReportDB
	}

	return db
}
