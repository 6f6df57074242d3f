// Package pipeline runs the normalization stages in order:
// validate, fill placeholders, optionally enrich, then render.
package pipeline

import (
	"context"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/matsen/prettybib/internal/export"
	"github.com/matsen/prettybib/internal/metrics"
	"github.com/matsen/prettybib/internal/placeholder"
	"github.com/matsen/prettybib/internal/reference"
	"github.com/matsen/prettybib/internal/validate"
)

// Enricher fills sentinel fields from external sources.
type Enricher interface {
	Enrich(ctx context.Context, entries []reference.Entry) ([]reference.Entry, []reference.Diagnostic)
}

// Options configures a run.
type Options struct {
	Enricher Enricher          // nil skips enrichment
	Logger   *zap.Logger       // nil discards
	Metrics  *metrics.Recorder // nil records nothing

	// ParseDiagnostics are reported ahead of the run's own diagnostics.
	ParseDiagnostics []reference.Diagnostic
}

// Result is the outcome of a run.
type Result struct {
	Output      string                 // Canonical BibTeX
	Entries     []reference.Entry      // Final entries, in input order
	Diagnostics []reference.Diagnostic // In the order they were produced
}

// HasErrors reports whether any diagnostic is an error.
func (r *Result) HasErrors() bool {
	errs, _ := r.Counts()
	return errs > 0
}

// Counts returns the number of error and warning diagnostics.
func (r *Result) Counts() (errors, warnings int) {
	return reference.CountBySeverity(r.Diagnostics)
}

// StatusCounts tallies entries by final status.
func (r *Result) StatusCounts() map[reference.Status]int {
	counts := make(map[reference.Status]int)
	for _, e := range r.Entries {
		counts[e.Status]++
	}
	return counts
}

// Run normalizes entries. Entry-level problems become diagnostics and never
// stop the run. The only error is cancellation of ctx during enrichment, in
// which case the partial result is still returned.
func Run(ctx context.Context, entries []reference.Entry, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	start := time.Now()

	res := Check(entries)
	res.Diagnostics = append(slices.Clone(opts.ParseDiagnostics), res.Diagnostics...)

	if opts.Enricher != nil {
		pending := res.StatusCounts()[reference.StatusSentinelFilled]
		logger.Debug("enriching", zap.Int("entries", len(res.Entries)), zap.Int("incomplete", pending))

		enriched, diags := opts.Enricher.Enrich(ctx, res.Entries)
		res.Entries = enriched
		res.Diagnostics = append(res.Diagnostics, diags...)
	}

	res.Output = export.ToBibTeXList(res.Entries)

	opts.Metrics.RecordDiagnostics(res.Diagnostics)
	opts.Metrics.RecordEntries(res.Entries)

	errs, warns := res.Counts()
	logger.Info("normalized",
		zap.Int("entries", len(res.Entries)),
		zap.Int("errors", errs),
		zap.Int("warnings", warns),
		zap.Duration("elapsed", time.Since(start)))

	if err := ctx.Err(); err != nil && opts.Enricher != nil {
		return res, fmt.Errorf("enrichment interrupted: %w", err)
	}
	return res, nil
}

// Check validates entries and fills placeholders without enriching or
// rendering.
func Check(entries []reference.Entry) *Result {
	validated, diags := validate.Validate(entries)
	return &Result{
		Entries:     placeholder.ResolveAll(validated),
		Diagnostics: diags,
	}
}
