// Package enrich fills sentinel fields from local and remote metadata sources.
//
// The enricher only ever writes to a field whose current value is the
// sentinel. Everything else about an entry is left untouched, so enriching an
// already enriched collection changes nothing.
package enrich

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/matsen/prettybib/internal/anthology"
	"github.com/matsen/prettybib/internal/dbpedia"
	"github.com/matsen/prettybib/internal/metrics"
	"github.com/matsen/prettybib/internal/openlibrary"
	"github.com/matsen/prettybib/internal/reference"
	"github.com/matsen/prettybib/internal/schema"
)

// Rate gates, one per external service.
const (
	gateDBpedia     = "dbpedia"
	gateOpenLibrary = "openlibrary"
)

// Config controls remote lookups.
type Config struct {
	MaxRetries  int           // Attempts per lookup, at least 1
	Timeout     time.Duration // Per attempt; zero means no limit
	Backoff     time.Duration // Delay before the second attempt, doubled after each failure
	MinInterval time.Duration // Minimum spacing between requests to one service
	Workers     int           // Entries enriched concurrently
}

// DefaultConfig returns the default lookup settings.
func DefaultConfig() Config {
	return Config{
		MaxRetries:  3,
		Timeout:     10 * time.Second,
		Backoff:     time.Second,
		MinInterval: time.Second,
		Workers:     4,
	}
}

// JournalSource resolves journal names to ISSNs.
type JournalSource interface {
	JournalISSN(ctx context.Context, name string) ([]dbpedia.Journal, error)
}

// BookSource resolves book metadata.
type BookSource interface {
	BookByISBN(ctx context.Context, isbn string) (*openlibrary.Book, error)
	SearchBook(ctx context.Context, title, author string) ([]openlibrary.Book, error)
}

// Cache memoizes remote results. A nil value records "no match".
type Cache interface {
	GetLookup(source, query string) ([]byte, bool, error)
	PutLookup(source, query string, value []byte) error
}

// Enricher fills sentinel fields. It is safe for concurrent use; the rate
// gates are shared by every worker.
type Enricher struct {
	cfg       Config
	journals  JournalSource
	books     BookSource
	anthology *anthology.Index
	cache     Cache
	logger    *zap.Logger
	metrics   *metrics.Recorder

	limiters map[string]*rate.Limiter
	flight   singleflight.Group
}

// Option configures an Enricher.
type Option func(*Enricher)

// WithJournalSource enables ISSN lookups by journal name.
func WithJournalSource(s JournalSource) Option {
	return func(e *Enricher) { e.journals = s }
}

// WithBookSource enables book metadata lookups.
func WithBookSource(s BookSource) Option {
	return func(e *Enricher) { e.books = s }
}

// WithAnthology enables copying fields from known papers with the same title.
func WithAnthology(idx *anthology.Index) Option {
	return func(e *Enricher) { e.anthology = idx }
}

// WithCache memoizes remote results in c.
func WithCache(c Cache) Option {
	return func(e *Enricher) { e.cache = c }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Enricher) { e.logger = l }
}

// WithMetrics records lookup and fill metrics in r.
func WithMetrics(r *metrics.Recorder) Option {
	return func(e *Enricher) { e.metrics = r }
}

// New creates an Enricher.
func New(cfg Config, opts ...Option) *Enricher {
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 1
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}

	e := &Enricher{
		cfg:    cfg,
		logger: zap.NewNop(),
		limiters: map[string]*rate.Limiter{
			gateDBpedia:     newLimiter(cfg.MinInterval),
			gateOpenLibrary: newLimiter(cfg.MinInterval),
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func newLimiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

// Enrich returns copies of entries with as many sentinel fields filled as
// the configured sources allow, plus a diagnostic for every lookup that
// failed. Output order matches input order whatever the scheduling.
//
// If ctx is cancelled, entries not yet processed keep status
// enrichment-pending.
func (e *Enricher) Enrich(ctx context.Context, entries []reference.Entry) ([]reference.Entry, []reference.Diagnostic) {
	out := make([]reference.Entry, len(entries))
	perEntry := make([][]reference.Diagnostic, len(entries))
	for i, en := range entries {
		out[i] = en.Clone()
		if len(requiredSentinels(out[i])) > 0 {
			out[i].Status = reference.StatusEnrichmentPending
		}
	}

	b := newBatch(out)
	for i := range out {
		perEntry[i] = b.conflicts[i]
	}

	g := new(errgroup.Group)
	g.SetLimit(e.cfg.Workers)
	for i := range out {
		if out[i].Status != reference.StatusEnrichmentPending {
			continue
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			filled, diags := e.enrichEntry(ctx, b, out[i])
			out[i] = filled
			perEntry[i] = append(perEntry[i], diags...)
			return nil
		})
	}
	g.Wait()

	var diags []reference.Diagnostic
	for _, d := range perEntry {
		diags = append(diags, d...)
	}
	return out, diags
}

// failure is a strategy that could not fill some of its target fields.
type failure struct {
	strategy string
	fields   []string
	err      error
}

// enrichEntry runs every strategy, in order, against one entry.
func (e *Enricher) enrichEntry(ctx context.Context, b *batch, en reference.Entry) (reference.Entry, []reference.Diagnostic) {
	log := e.logger.With(zap.String("key", en.Key))
	var failures []failure

	for _, s := range e.strategies(b) {
		var targets []string
		for _, f := range s.targets(en) {
			if canFill(en, f) {
				targets = append(targets, f)
			}
		}
		if len(targets) == 0 {
			continue
		}

		values, err := s.resolve(ctx, en)
		if err != nil {
			if ctx.Err() != nil {
				// Interrupted, not failed.
				return en, nil
			}
			if s.local && isNotFound(err) {
				continue
			}
			log.Debug("strategy failed", zap.String("strategy", s.name), zap.Error(err))
			failures = append(failures, failure{strategy: s.name, fields: targets, err: err})
			continue
		}

		for _, f := range targets {
			v, ok := values[f]
			if !ok || reference.IsBlank(v) || reference.IsSentinel(v) || !canFill(en, f) {
				continue
			}
			en.Fields[f] = v
			e.metrics.RecordFill(s.name, f)
			log.Info("filled field",
				zap.String("field", f),
				zap.String("strategy", s.name),
				zap.String("value", v))
		}
	}

	var diags []reference.Diagnostic
	for _, fl := range failures {
		for _, f := range fl.fields {
			if !canFill(en, f) {
				continue
			}
			diags = append(diags, reference.Warnf(en.Key, reference.KindEnrichmentFailed,
				"could not resolve '%s' via %s: %v", f, fl.strategy, fl.err).WithField(f))
		}
	}

	switch {
	case len(requiredSentinels(en)) == 0:
		en.Status = reference.StatusComplete
	case len(diags) > 0:
		en.Status = reference.StatusEnrichmentFailed
	default:
		en.Status = reference.StatusSentinelFilled
	}
	return en, diags
}

// canFill is the only gate in front of a write: a field may be filled
// exactly when its current value is the sentinel.
func canFill(en reference.Entry, field string) bool {
	v, ok := en.Fields[field]
	return ok && reference.IsSentinel(v)
}

// requiredSentinels lists required fields of en still holding the sentinel.
func requiredSentinels(en reference.Entry) []string {
	return en.SentinelFields(schema.RequiredFields(en.Type))
}

// batch is state derived from the whole collection before any worker starts.
// Workers only read it.
type batch struct {
	issnByJournal map[string]string // normalized journal -> first real ISSN
	conflicts     [][]reference.Diagnostic
}

func newBatch(entries []reference.Entry) *batch {
	b := &batch{
		issnByJournal: make(map[string]string),
		conflicts:     make([][]reference.Diagnostic, len(entries)),
	}
	firstKey := make(map[string]string)

	for i, en := range entries {
		if schema.Parse(en.Type) != schema.Article {
			continue
		}
		journal, ok := en.Known("journal")
		if !ok {
			continue
		}
		issn, ok := en.Known("issn")
		if !ok {
			continue
		}

		jk := journalKey(journal)
		prev, seen := b.issnByJournal[jk]
		switch {
		case !seen:
			b.issnByJournal[jk] = issn
			firstKey[jk] = en.Key
		case prev != issn:
			b.conflicts[i] = append(b.conflicts[i], reference.Warnf(en.Key, reference.KindConflictingISSN,
				"journal '%s' has ISSN '%s' here but '%s' in '%s'", journal, issn, prev, firstKey[jk]).WithField("issn"))
		}
	}
	return b
}

func journalKey(journal string) string {
	return reference.NormalizeTitle(journal)
}

// Summary renders a short description of what an enricher is configured to use.
func (e *Enricher) Summary() string {
	var parts []string
	for _, s := range e.strategies(&batch{}) {
		parts = append(parts, s.name)
	}
	return fmt.Sprintf("strategies: %s; retries=%d timeout=%s interval=%s workers=%d",
		strings.Join(parts, ", "), e.cfg.MaxRetries, e.cfg.Timeout, e.cfg.MinInterval, e.cfg.Workers)
}
