package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "windrose"

// Metrics holds the Prometheus counters, histograms, and gauges for the bot service.
type Metrics struct {
	UpdatesConsumed prometheus.Counter
	RepliesProduced prometheus.Counter
	HandleErrors    prometheus.Counter
	PipelineRunning prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Diagram metrics.
	UploadsParsed  *prometheus.CounterVec // labels: outcome={success,invalid,error}
	RowsSkipped    prometheus.Counter
	Renders        *prometheus.CounterVec // labels: outcome={success,error}
	RenderDuration prometheus.Histogram

	// Session store metrics.
	SessionsStored   prometheus.Gauge
	SessionEvictions *prometheus.CounterVec // labels: reason={capacity,expired}
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics(true)

	prometheus.MustRegister(
		m.UpdatesConsumed,
		m.RepliesProduced,
		m.HandleErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.UploadsParsed,
		m.RowsSkipped,
		m.Renders,
		m.RenderDuration,
		m.SessionsStored,
		m.SessionEvictions,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics(false)
}

// NewUnregisteredMetrics creates Metrics that no registry exposes, for
// one-shot tools without a /metrics endpoint.
func NewUnregisteredMetrics() *Metrics {
	return newMetrics(true)
}

func newMetrics(withBuckets bool) *Metrics {
	batchBuckets := []float64{1, 5, 10, 20, 30, 40, 50, 75, 100}
	durationBuckets := []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10}
	renderBuckets := []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}
	if !withBuckets {
		batchBuckets, durationBuckets, renderBuckets = nil, nil, nil
	}

	return &Metrics{
		UpdatesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "updates_consumed_total",
			Help:      "Total chat updates read from the source topic.",
		}),
		RepliesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replies_produced_total",
			Help:      "Total replies written to the sink topic.",
		}),
		HandleErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handle_errors_total",
			Help:      "Total updates that could not be handled.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of updates per batch extracted from Kafka.",
			Buckets:   batchBuckets,
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-handle-load cycle.",
			Buckets:   durationBuckets,
		}),
		UploadsParsed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_parsed_total",
			Help:      "Uploaded exports by parse outcome.",
		}, []string{"outcome"}),
		RowsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_skipped_total",
			Help:      "Data rows dropped because they could not be parsed.",
		}),
		Renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renders_total",
			Help:      "Diagram renders by outcome.",
		}, []string{"outcome"}),
		RenderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Time spent drawing one diagram.",
			Buckets:   renderBuckets,
		}),
		SessionsStored: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_stored",
			Help:      "Sessions currently holding an uploaded dataset.",
		}),
		SessionEvictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_evictions_total",
			Help:      "Sessions dropped from the store by reason.",
		}, []string{"reason"}),
	}
}
