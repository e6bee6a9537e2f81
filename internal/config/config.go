// Package config loads peaklim settings from defaults, an optional YAML
// file, PEAKLIM_* environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/cwbudde/peaklim/dsp/limiter"
	"github.com/cwbudde/peaklim/internal/logging"
)

// EnvPrefix is prepended to every environment variable, so limiter.release_ms
// is read from PEAKLIM_LIMITER_RELEASE_MS.
const EnvPrefix = "PEAKLIM"

// Settings is the complete command configuration.
type Settings struct {
	Log     LogSettings     `mapstructure:"log"`
	Limiter LimiterSettings `mapstructure:"limiter"`
	Batch   BatchSettings   `mapstructure:"batch"`
	Live    LiveSettings    `mapstructure:"live"`
}

// LogSettings configures logging.
type LogSettings struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// LimiterSettings mirrors the limiter engine configuration in user units.
type LimiterSettings struct {
	ThresholdDB float64 `mapstructure:"threshold_db"`
	InputGainDB float64 `mapstructure:"input_gain_db"`
	ReleaseMs   float64 `mapstructure:"release_ms"`
	LookaheadMs float64 `mapstructure:"lookahead_ms"`
	TruePeak    bool    `mapstructure:"true_peak"`
	BlockSize   int     `mapstructure:"block_size"`
	StatsPolicy string  `mapstructure:"stats_policy"`
}

// BatchSettings configures the batch runner.
type BatchSettings struct {
	Jobs int `mapstructure:"jobs"`
}

// LiveSettings configures the live device loop.
type LiveSettings struct {
	SampleRate   int    `mapstructure:"sample_rate"`
	Channels     int    `mapstructure:"channels"`
	PeriodFrames int    `mapstructure:"period_frames"`
	MetricsAddr  string `mapstructure:"metrics_addr"`
}

// New returns a viper instance with defaults and environment binding set
// up. Flags are bound by the caller.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", logging.FormatText)
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)

	v.SetDefault("limiter.threshold_db", -1.0)
	v.SetDefault("limiter.input_gain_db", 0.0)
	v.SetDefault("limiter.release_ms", 50.0)
	v.SetDefault("limiter.lookahead_ms", 1.2)
	v.SetDefault("limiter.true_peak", false)
	v.SetDefault("limiter.block_size", 1024)
	v.SetDefault("limiter.stats_policy", "cumulative")

	v.SetDefault("batch.jobs", 4)

	v.SetDefault("live.sample_rate", 48000)
	v.SetDefault("live.channels", 2)
	v.SetDefault("live.period_frames", 256)
	v.SetDefault("live.metrics_addr", "")
}

// Load reads path (if non-empty) or peaklim.yaml from the working directory
// and the user config directory, then unmarshals and validates the result.
// A missing default config file is not an error; a missing explicit one is.
func Load(v *viper.Viper, path string) (*Settings, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("peaklim")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/peaklim")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return settings, nil
}

// Validate checks settings that the limiter does not validate itself.
func (s *Settings) Validate() error {
	if _, err := logging.ParseLevel(s.Log.Level); err != nil {
		return err
	}

	if s.Log.Format != logging.FormatText && s.Log.Format != logging.FormatJSON {
		return fmt.Errorf("unknown log format %q", s.Log.Format)
	}

	if s.Batch.Jobs < 1 {
		return fmt.Errorf("batch.jobs must be >= 1: %d", s.Batch.Jobs)
	}

	if s.Live.PeriodFrames < 1 {
		return fmt.Errorf("live.period_frames must be >= 1: %d", s.Live.PeriodFrames)
	}

	opts, err := s.Limiter.Options()
	if err != nil {
		return err
	}

	cfg := limiter.ApplyOptions(opts...)

	return cfg.Validate()
}

// LoggingOptions converts the log section for logging.New.
func (s LogSettings) LoggingOptions() logging.Options {
	return logging.Options{
		Level:      s.Level,
		Format:     s.Format,
		File:       s.File,
		MaxSizeMB:  s.MaxSizeMB,
		MaxBackups: s.MaxBackups,
	}
}

// Options converts the limiter section into engine options. Sample rate
// and channel count come from the audio source and are not included.
func (s LimiterSettings) Options() ([]limiter.Option, error) {
	policy, err := limiter.ParseStatsPolicy(s.StatsPolicy)
	if err != nil {
		return nil, err
	}

	return []limiter.Option{
		limiter.WithThresholdDB(s.ThresholdDB),
		limiter.WithInputGainDB(s.InputGainDB),
		limiter.WithRelease(s.ReleaseMs),
		limiter.WithLookahead(s.LookaheadMs),
		limiter.WithTruePeak(s.TruePeak),
		limiter.WithBlockSize(s.BlockSize),
		limiter.WithStatsPolicy(policy),
	}, nil
}
