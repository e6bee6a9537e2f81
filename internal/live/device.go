package live

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/gen2brain/malgo"

	"github.com/cwbudde/peaklim/dsp/core"
	"github.com/cwbudde/peaklim/dsp/limiter"
	"github.com/cwbudde/peaklim/internal/metrics"
)

// Config selects the device format. The device runs in duplex mode with
// float32 samples on both sides.
type Config struct {
	SampleRate   int
	Channels     int
	PeriodFrames int
}

// Run opens the default duplex device, limits everything it captures into
// its playback stream and blocks until ctx is cancelled. If the device
// settles on a different sample rate the engine is re-initialised for it.
func Run(ctx context.Context, cfg Config, engine *limiter.Engine, m *metrics.LimiterMetrics, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	malgoCtx, err := malgo.InitContext(backendFor(runtime.GOOS), malgo.ContextConfig{}, func(message string) {
		logger.Debug("malgo", "message", message)
	})
	if err != nil {
		return fmt.Errorf("live: init context: %w", err)
	}

	defer func() {
		_ = malgoCtx.Uninit()
		malgoCtx.Free()
	}()

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Duplex)
	deviceConfig.Capture.Format = malgo.FormatF32
	deviceConfig.Capture.Channels = uint32(cfg.Channels)
	deviceConfig.Playback.Format = malgo.FormatF32
	deviceConfig.Playback.Channels = uint32(cfg.Channels)
	deviceConfig.SampleRate = uint32(cfg.SampleRate)
	deviceConfig.PeriodSizeInFrames = uint32(cfg.PeriodFrames)
	deviceConfig.Alsa.NoMMap = 1

	var proc *Processor

	callbacks := malgo.DeviceCallbacks{
		Data: func(output, input []byte, frameCount uint32) {
			proc.Process(output, input, frameCount)
		},
		Stop: func() {
			logger.Warn("audio device stopped")
		},
	}

	device, err := malgo.InitDevice(malgoCtx.Context, deviceConfig, callbacks)
	if err != nil {
		return fmt.Errorf("live: init device: %w", err)
	}
	defer device.Uninit()

	rate := float64(device.SampleRate())
	if rate != engine.SampleRate() || cfg.Channels != engine.Channels() {
		logger.Warn("re-initialising limiter for device format",
			"requested_rate", cfg.SampleRate,
			"device_rate", device.SampleRate(),
			"channels", cfg.Channels)

		if err := engine.Init(rate, cfg.Channels); err != nil {
			return err
		}
	}

	proc, err = NewProcessor(engine, m, cfg.PeriodFrames)
	if err != nil {
		return err
	}

	latency, err := engine.Latency()
	if err != nil {
		return err
	}

	if m != nil {
		m.SetLatency(latency)
	}

	if err := device.Start(); err != nil {
		return fmt.Errorf("live: start device: %w", err)
	}

	logger.Info("live limiter running",
		"sample_rate", device.SampleRate(),
		"channels", cfg.Channels,
		"latency_samples", latency,
		"true_peak", engine.TruePeak(),
		"threshold_db", core.LinearToDB(engine.Threshold()))

	<-ctx.Done()

	if err := device.Stop(); err != nil {
		return fmt.Errorf("live: stop device: %w", err)
	}

	logger.Info("live limiter stopped", "frames", proc.Frames(), "dropped_blocks", proc.Dropped())

	return nil
}

// backendFor picks the native backend per platform; nil lets malgo choose.
func backendFor(goos string) []malgo.Backend {
	switch goos {
	case "linux":
		return []malgo.Backend{malgo.BackendAlsa}
	case "windows":
		return []malgo.Backend{malgo.BackendWasapi}
	case "darwin":
		return []malgo.Backend{malgo.BackendCoreaudio}
	default:
		return nil
	}
}
