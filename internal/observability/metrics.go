package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// conversion pipeline.
type Metrics struct {
	FilesConverted   prometheus.Counter
	FilesSkipped     prometheus.Counter
	FilesFailed      prometheus.Counter
	VariablesWritten prometheus.Counter
	PipelineRunning  prometheus.Gauge

	ConversionDuration prometheus.Histogram

	// Timezone lookup metrics.
	TimezoneLookups     *prometheus.CounterVec // labels: outcome={success,error}
	TimezoneCache       *prometheus.CounterVec // labels: result={hit,miss}
	TimezoneAPIDuration prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FilesConverted,
		m.FilesSkipped,
		m.FilesFailed,
		m.VariablesWritten,
		m.PipelineRunning,
		m.ConversionDuration,
		m.TimezoneLookups,
		m.TimezoneCache,
		m.TimezoneAPIDuration,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FilesConverted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fluxtower_etl",
			Name:      "files_converted_total",
			Help:      "Total year files converted successfully.",
		}),
		FilesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fluxtower_etl",
			Name:      "files_skipped_total",
			Help:      "Total year files skipped because the output already existed.",
		}),
		FilesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fluxtower_etl",
			Name:      "files_failed_total",
			Help:      "Total year files whose conversion failed.",
		}),
		VariablesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fluxtower_etl",
			Name:      "variables_written_total",
			Help:      "Total standardized variables written across all files.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "fluxtower_etl",
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		ConversionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "fluxtower_etl",
			Name:      "conversion_duration_seconds",
			Help:      "Duration of one complete file conversion.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		TimezoneLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fluxtower_etl",
			Name:      "timezone_lookups_total",
			Help:      "Timezone API requests by outcome.",
		}, []string{"outcome"}),
		TimezoneCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fluxtower_etl",
			Name:      "timezone_cache_total",
			Help:      "Timezone cache lookups by result.",
		}, []string{"result"}),
		TimezoneAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "fluxtower_etl",
			Name:      "timezone_api_duration_seconds",
			Help:      "GeoNames API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}
