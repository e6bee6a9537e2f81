// Package metrics exports limiter statistics to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cwbudde/peaklim/dsp/limiter"
)

// LimiterMetrics holds the gauges and counters for one limiter stream.
// Every update method is non-blocking and safe to call from the audio
// callback.
type LimiterMetrics struct {
	registry *prometheus.Registry

	outputPeak    prometheus.Gauge
	gainReduction prometheus.Gauge
	maxReduction  prometheus.Gauge
	latency       prometheus.Gauge
	framesTotal   prometheus.Counter
	blocksTotal   prometheus.Counter
	errorsTotal   *prometheus.CounterVec
	filesTotal    *prometheus.CounterVec
	fileReduction prometheus.Histogram
}

// NewLimiterMetrics creates the collectors and registers them on registry.
func NewLimiterMetrics(registry *prometheus.Registry) (*LimiterMetrics, error) {
	m := &LimiterMetrics{registry: registry}
	m.initMetrics()

	if err := registry.Register(m); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *LimiterMetrics) initMetrics() {
	m.outputPeak = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "peaklim_output_peak_dbfs",
		Help: "Output sample peak of the most recent stats window in dBFS",
	})

	m.gainReduction = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "peaklim_gain_reduction_db",
		Help: "Currently applied gain in dB (0 means no reduction)",
	})

	m.maxReduction = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "peaklim_max_gain_reduction_db",
		Help: "Deepest applied gain of the most recent stats window in dB",
	})

	m.latency = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "peaklim_latency_samples",
		Help: "Limiter latency in samples",
	})

	m.framesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "peaklim_frames_processed_total",
		Help: "Total number of frames processed",
	})

	m.blocksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "peaklim_blocks_processed_total",
		Help: "Total number of blocks processed",
	})

	m.errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "peaklim_process_errors_total",
			Help: "Total number of processing errors",
		},
		[]string{"stage"}, // stage: read, process, write, device
	)

	m.filesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "peaklim_files_processed_total",
			Help: "Total number of files processed by batch runs",
		},
		[]string{"status"}, // status: success, error
	)

	m.fileReduction = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "peaklim_file_max_gain_reduction_db",
		Help:    "Deepest gain reduction per processed file in dB (positive values)",
		Buckets: []float64{0.1, 0.5, 1, 2, 3, 6, 10, 20},
	})
}

// Describe implements prometheus.Collector.
func (m *LimiterMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.outputPeak.Describe(ch)
	m.gainReduction.Describe(ch)
	m.maxReduction.Describe(ch)
	m.latency.Describe(ch)
	m.framesTotal.Describe(ch)
	m.blocksTotal.Describe(ch)
	m.errorsTotal.Describe(ch)
	m.filesTotal.Describe(ch)
	m.fileReduction.Describe(ch)
}

// Collect implements prometheus.Collector.
func (m *LimiterMetrics) Collect(ch chan<- prometheus.Metric) {
	m.outputPeak.Collect(ch)
	m.gainReduction.Collect(ch)
	m.maxReduction.Collect(ch)
	m.latency.Collect(ch)
	m.framesTotal.Collect(ch)
	m.blocksTotal.Collect(ch)
	m.errorsTotal.Collect(ch)
	m.filesTotal.Collect(ch)
	m.fileReduction.Collect(ch)
}

// ObserveBlock records one processed block. Silence reports its peak as
// -Inf, which Prometheus renders as such.
func (m *LimiterMetrics) ObserveBlock(frames int, stats limiter.Stats, gainReductionDB float64) {
	m.framesTotal.Add(float64(frames))
	m.blocksTotal.Inc()
	m.outputPeak.Set(stats.PeakDB())
	m.maxReduction.Set(stats.MaxReductionDB())
	m.gainReduction.Set(gainReductionDB)
}

// SetLatency records the engine latency.
func (m *LimiterMetrics) SetLatency(samples int) {
	m.latency.Set(float64(samples))
}

// RecordError counts a failure in the given stage.
func (m *LimiterMetrics) RecordError(stage string) {
	m.errorsTotal.WithLabelValues(stage).Inc()
}

// RecordFile counts one finished batch file and its deepest reduction.
func (m *LimiterMetrics) RecordFile(stats limiter.Stats, err error) {
	if err != nil {
		m.filesTotal.WithLabelValues("error").Inc()
		return
	}

	m.filesTotal.WithLabelValues("success").Inc()
	m.fileReduction.Observe(-stats.MaxReductionDB())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *LimiterMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
