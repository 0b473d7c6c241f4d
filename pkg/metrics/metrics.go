// Package metrics exposes Prometheus collectors for the processing pipeline
// and the external provider clients.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	PipelineRuns      *prometheus.CounterVec
	PipelineDuration  prometheus.Histogram
	ProviderCalls     *prometheus.CounterVec
	ProviderDuration  *prometheus.HistogramVec
	QueueDepth        prometheus.Gauge
	StuckMeetingsSeen prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		PipelineRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "meetings_pipeline_runs_total",
			Help: "Pipeline runs by terminal outcome.",
		}, []string{"outcome"}),
		PipelineDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "meetings_pipeline_duration_seconds",
			Help:    "Wall time of one pipeline run.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		ProviderCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "meetings_provider_calls_total",
			Help: "External provider calls by provider and result.",
		}, []string{"provider", "result"}),
		ProviderDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "meetings_provider_call_duration_seconds",
			Help:    "Latency of external provider calls.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}, []string{"provider"}),
		QueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "meetings_queue_depth",
			Help: "Jobs waiting in the processing queue.",
		}),
		StuckMeetingsSeen: factory.NewCounter(prometheus.CounterOpts{
			Name: "meetings_stuck_reconciled_total",
			Help: "Meetings the reconciliation sweep flagged as failed.",
		}),
	}
}

// Handler serves the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
