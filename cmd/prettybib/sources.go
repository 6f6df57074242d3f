package main

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/matsen/prettybib/internal/anthology"
	"github.com/matsen/prettybib/internal/config"
	"github.com/matsen/prettybib/internal/dbpedia"
	"github.com/matsen/prettybib/internal/enrich"
	"github.com/matsen/prettybib/internal/metrics"
	"github.com/matsen/prettybib/internal/openlibrary"
	"github.com/matsen/prettybib/internal/storage"
)

// buildEnricher wires the configured sources into an Enricher. Without remote
// only the offline strategies run. The returned close function releases the
// lookup cache.
func buildEnricher(cfg *config.Config, anthologies []string, remote bool, logger *zap.Logger, recorder *metrics.Recorder) (*enrich.Enricher, func(), error) {
	ec := cfg.Enrich

	db, err := storage.OpenDB(ec.CachePath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening lookup cache: %w", err)
	}
	if ec.CachePath != "" && ec.CacheTTL > 0 {
		removed, err := db.PruneLookups(time.Now().Add(-ec.CacheTTL))
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		logger.Debug("pruned lookup cache", zap.String("path", ec.CachePath), zap.Int("removed", removed))
	}

	idx, err := anthology.Load(anthologies...)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	if idx.Len() > 0 {
		logger.Debug("loaded anthology", zap.Int("entries", idx.Len()))
	}

	opts := []enrich.Option{
		enrich.WithAnthology(idx),
		enrich.WithCache(db),
		enrich.WithLogger(logger),
		enrich.WithMetrics(recorder),
	}
	if remote {
		dbOpts := []dbpedia.ClientOption{dbpedia.WithContact(ec.Contact)}
		if ec.DBpediaEndpoint != "" {
			dbOpts = append(dbOpts, dbpedia.WithEndpoint(ec.DBpediaEndpoint))
		}
		olOpts := []openlibrary.ClientOption{openlibrary.WithContact(ec.Contact)}
		if ec.OpenLibraryURL != "" {
			olOpts = append(olOpts, openlibrary.WithBaseURL(ec.OpenLibraryURL))
		}
		opts = append(opts,
			enrich.WithJournalSource(dbpedia.NewClient(dbOpts...)),
			enrich.WithBookSource(openlibrary.NewClient(olOpts...)),
		)
	}

	e := enrich.New(enrich.Config{
		MaxRetries:  ec.MaxRetries,
		Timeout:     ec.Timeout,
		Backoff:     ec.Backoff,
		MinInterval: ec.MinInterval,
		Workers:     ec.Workers,
	}, opts...)
	logger.Debug("enricher ready", zap.String("config", e.Summary()))

	return e, func() { db.Close() }, nil
}

// mergeAnthologies returns config anthologies followed by flag ones, without
// repeats.
func mergeAnthologies(fromConfig, fromFlags []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range append(append([]string(nil), fromConfig...), fromFlags...) {
		p = config.ExpandPath(p)
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
