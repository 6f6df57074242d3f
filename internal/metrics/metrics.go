// Package metrics records Prometheus metrics for a normalization run.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/matsen/prettybib/internal/reference"
)

// Lookup outcomes.
const (
	OutcomeHit      = "hit"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
	OutcomeCached   = "cached"
)

// Recorder owns a private registry so runs never share global state.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	lookupsTotal   *prometheus.CounterVec
	lookupDuration *prometheus.HistogramVec
	rateLimitDelay *prometheus.HistogramVec
	fieldsFilled   *prometheus.CounterVec
	diagnostics    *prometheus.CounterVec
	entries        *prometheus.CounterVec
}

// New creates a Recorder with all metrics registered.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		lookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prettybib_lookups_total",
				Help: "Total number of enrichment lookups by source and outcome",
			},
			[]string{"source", "outcome"},
		),
		lookupDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "prettybib_lookup_duration_seconds",
				Help:    "Duration of individual lookup attempts",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source"},
		),
		rateLimitDelay: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "prettybib_rate_limit_delay_seconds",
				Help:    "Time spent waiting on the per-source rate gate",
				Buckets: []float64{0.01, 0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"source"},
		),
		fieldsFilled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prettybib_fields_filled_total",
				Help: "Total number of sentinel fields replaced by enrichment",
			},
			[]string{"strategy", "field"},
		),
		diagnostics: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prettybib_diagnostics_total",
				Help: "Total number of diagnostics by severity and kind",
			},
			[]string{"severity", "kind"},
		),
		entries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prettybib_entries_total",
				Help: "Total number of entries by final status",
			},
			[]string{"status"},
		),
	}
}

// Registry exposes the underlying registry (for tests and exporters).
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// RecordLookup records one lookup attempt.
func (r *Recorder) RecordLookup(source, outcome string, duration time.Duration) {
	if r == nil {
		return
	}
	r.lookupsTotal.WithLabelValues(source, outcome).Inc()
	if outcome != OutcomeCached {
		r.lookupDuration.WithLabelValues(source).Observe(duration.Seconds())
	}
}

// RecordRateLimit records time spent waiting for the rate gate.
func (r *Recorder) RecordRateLimit(source string, delay time.Duration) {
	if r == nil {
		return
	}
	r.rateLimitDelay.WithLabelValues(source).Observe(delay.Seconds())
}

// RecordFill records a sentinel field replaced by strategy.
func (r *Recorder) RecordFill(strategy, field string) {
	if r == nil {
		return
	}
	r.fieldsFilled.WithLabelValues(strategy, field).Inc()
}

// RecordDiagnostics counts diagnostics by severity and kind.
func (r *Recorder) RecordDiagnostics(diags []reference.Diagnostic) {
	if r == nil {
		return
	}
	for _, d := range diags {
		r.diagnostics.WithLabelValues(string(d.Severity), string(d.Kind)).Inc()
	}
}

// RecordEntries counts entries by their final status.
func (r *Recorder) RecordEntries(entries []reference.Entry) {
	if r == nil {
		return
	}
	for _, e := range entries {
		r.entries.WithLabelValues(string(e.Status)).Inc()
	}
}

// WriteFile writes all metrics to path in the Prometheus text format.
func (r *Recorder) WriteFile(path string) error {
	if r == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}
