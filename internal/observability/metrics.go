package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "oes_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for the ETL run.
type Metrics struct {
	SeriesPlanned    prometheus.Gauge
	BatchesRequested prometheus.Counter
	PipelineRunning  prometheus.Gauge

	// Table ingestion metrics.
	CellsIngested        *prometheus.CounterVec // labels: state={value,suppressed,unavailable,malformed}
	IngestAnomalies      *prometheus.CounterVec // labels: kind={malformed_id,unexpected_series,malformed_value}
	OccupationFallbacks  prometheus.Counter
	BatchProcessDuration prometheus.Histogram

	// BLS API metrics.
	APIRequests *prometheus.CounterVec // labels: outcome={success,client,server,network,quota}
	APIDuration prometheus.Histogram
	APIRetries  prometheus.Counter

	// Response cache metrics.
	CacheLookups *prometheus.CounterVec // labels: layer={memory,redis}, result={hit,miss,error}
}

func newMetrics() *Metrics {
	return &Metrics{
		SeriesPlanned: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "series_planned",
			Help:      "Number of series IDs planned for the current run.",
		}),
		BatchesRequested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_requested_total",
			Help:      "Total batches sent to the BLS API (including cache hits).",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while a run is in progress, 0 otherwise.",
		}),
		CellsIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cells_ingested_total",
			Help:      "Table cells written, by resulting cell state.",
		}, []string{"state"}),
		IngestAnomalies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_anomalies_total",
			Help:      "Results reported and discarded or flagged during ingestion, by kind.",
		}, []string{"kind"}),
		OccupationFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "occupation_fallbacks_total",
			Help:      "Salary-schedule codes resolved by the zero-last-digit fallback.",
		}),
		BatchProcessDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete query-and-ingest cycle for one batch.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		APIRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "BLS API requests by outcome.",
		}, []string{"outcome"}),
		APIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "BLS API request duration in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		APIRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_retries_total",
			Help:      "BLS API batch retries after a retryable error.",
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Batch response cache lookups by layer and result.",
		}, []string{"layer", "result"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.SeriesPlanned,
		m.BatchesRequested,
		m.PipelineRunning,
		m.CellsIngested,
		m.IngestAnomalies,
		m.OccupationFallbacks,
		m.BatchProcessDuration,
		m.APIRequests,
		m.APIDuration,
		m.APIRetries,
		m.CacheLookups,
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics registered with a fresh registry to
// avoid "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	m := newMetrics()
	prometheus.NewRegistry().MustRegister(m.collectors()...)
	return m
}
