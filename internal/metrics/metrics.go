// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics holds the Prometheus collectors for research runs. A
// one-shot CLI has no scrape endpoint, so metrics are exported in the text
// format for the node exporter textfile collector.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pdiddy/variant-research/pkg/types"
)

// Metrics groups the collectors on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	SourceFetchesTotal *prometheus.CounterVec
	SourceLatency      *prometheus.HistogramVec
	SourceRecords      *prometheus.GaugeVec
	RunsTotal          *prometheus.CounterVec
	RunDuration        prometheus.Histogram
	LastRunTimestamp   prometheus.Gauge
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		SourceFetchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "variant_research_source_fetches_total",
				Help: "Source client runs by source and status (ok, partial, error).",
			},
			[]string{"source", "status"},
		),
		SourceLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "variant_research_source_fetch_seconds",
				Help:    "Source client wall time in seconds.",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
			},
			[]string{"source"},
		),
		SourceRecords: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "variant_research_source_records",
				Help: "Records returned by the latest run of each source.",
			},
			[]string{"source"},
		),
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "variant_research_runs_total",
				Help: "Research runs by terminal state.",
			},
			[]string{"state"},
		),
		RunDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "variant_research_run_seconds",
				Help:    "Research run wall time in seconds.",
				Buckets: []float64{5, 10, 30, 60, 120, 300, 600},
			},
		),
		LastRunTimestamp: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "variant_research_last_run_timestamp_seconds",
				Help: "Unix time the last run finished.",
			},
		),
	}

	m.Registry.MustRegister(
		m.SourceFetchesTotal,
		m.SourceLatency,
		m.SourceRecords,
		m.RunsTotal,
		m.RunDuration,
		m.LastRunTimestamp,
	)
	return m
}

// ObserveSource records one finished source client run.
func (m *Metrics) ObserveSource(source string, status types.Status, records int, elapsed time.Duration) {
	m.SourceFetchesTotal.WithLabelValues(source, string(status)).Inc()
	m.SourceLatency.WithLabelValues(source).Observe(elapsed.Seconds())
	m.SourceRecords.WithLabelValues(source).Set(float64(records))
}

// ObserveRun records one finished run.
func (m *Metrics) ObserveRun(state string, elapsed time.Duration) {
	m.RunsTotal.WithLabelValues(state).Inc()
	m.RunDuration.Observe(elapsed.Seconds())
	m.LastRunTimestamp.SetToCurrentTime()
}

// WriteTextfile writes all metrics to path in the Prometheus text format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	return nil
}
