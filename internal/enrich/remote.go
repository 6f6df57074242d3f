package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/matsen/prettybib/internal/metrics"
)

// remote performs one logical lookup against an external service: cache
// first, then up to MaxRetries attempts through the service's rate gate.
// Concurrent identical lookups share a single request. Successful results and
// definitive misses are cached; transient failures are not.
func remote[T any](ctx context.Context, e *Enricher, gate, source, query string, fetch func(context.Context) (T, error)) (T, error) {
	var zero T

	if e.cache != nil {
		data, hit, err := e.cache.GetLookup(source, query)
		switch {
		case err != nil:
			e.logger.Warn("lookup cache read failed", zap.String("source", source), zap.Error(err))
		case hit && data == nil:
			e.metrics.RecordLookup(source, metrics.OutcomeCached, 0)
			return zero, ErrNoMatch
		case hit:
			var v T
			if err := json.Unmarshal(data, &v); err == nil {
				e.metrics.RecordLookup(source, metrics.OutcomeCached, 0)
				return v, nil
			}
		}
	}

	v, err, _ := e.flight.Do(source+"\x00"+query, func() (any, error) {
		v, err := e.retry(ctx, gate, source, func(ctx context.Context) (any, error) {
			return fetch(ctx)
		})
		e.store(source, query, v, err)
		return v, err
	})
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}

// retry calls fetch until it succeeds, fails definitively or runs out of
// attempts. The delay between attempts starts at Backoff and doubles.
func (e *Enricher) retry(ctx context.Context, gate, source string, fetch func(context.Context) (any, error)) (any, error) {
	delay := e.cfg.Backoff
	for attempt := 1; ; attempt++ {
		if err := e.wait(ctx, gate); err != nil {
			return nil, err
		}

		actx, cancel := e.attemptContext(ctx)
		start := time.Now()
		v, err := fetch(actx)
		elapsed := time.Since(start)
		cancel()

		switch {
		case err == nil:
			e.metrics.RecordLookup(source, metrics.OutcomeHit, elapsed)
			return v, nil
		case isNotFound(err):
			e.metrics.RecordLookup(source, metrics.OutcomeNotFound, elapsed)
			return nil, err
		}
		e.metrics.RecordLookup(source, metrics.OutcomeError, elapsed)

		if !isRetryable(err) {
			return nil, err
		}
		if attempt >= e.cfg.MaxRetries {
			return nil, fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, attempt, err)
		}

		e.logger.Debug("lookup failed, retrying",
			zap.String("source", source),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
}

// wait blocks until the gate admits another request.
func (e *Enricher) wait(ctx context.Context, gate string) error {
	start := time.Now()
	if err := e.limiters[gate].Wait(ctx); err != nil {
		return err
	}
	e.metrics.RecordRateLimit(gate, time.Since(start))
	return nil
}

func (e *Enricher) attemptContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.cfg.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.cfg.Timeout)
}

// store records a lookup outcome in the cache.
func (e *Enricher) store(source, query string, v any, err error) {
	if e.cache == nil {
		return
	}

	var data []byte
	switch {
	case err == nil:
		b, merr := json.Marshal(v)
		if merr != nil {
			e.logger.Warn("lookup cache encode failed", zap.String("source", source), zap.Error(merr))
			return
		}
		data = b
	case isNotFound(err):
		data = nil
	default:
		return
	}

	if perr := e.cache.PutLookup(source, query, data); perr != nil {
		e.logger.Warn("lookup cache write failed", zap.String("source", source), zap.Error(perr))
	}
}
