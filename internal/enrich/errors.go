package enrich

import (
	"context"
	"errors"

	"github.com/matsen/prettybib/internal/dbpedia"
	"github.com/matsen/prettybib/internal/openlibrary"
)

var (
	// ErrNoMatch indicates a source definitively has nothing for the query.
	ErrNoMatch = errors.New("no match")

	// ErrAmbiguous indicates candidates disagree on a value to fill.
	ErrAmbiguous = errors.New("ambiguous result")

	// ErrRetriesExhausted indicates every allowed attempt failed.
	ErrRetriesExhausted = errors.New("retries exhausted")
)

// isNotFound reports a definitive "nothing here" answer; these are not retried.
func isNotFound(err error) bool {
	return errors.Is(err, ErrNoMatch) || dbpedia.IsNotFound(err) || openlibrary.IsNotFound(err)
}

// isRetryable reports failures worth another attempt: per-attempt timeouts,
// network errors, rate limiting and server errors.
func isRetryable(err error) bool {
	if isNotFound(err) {
		return false
	}
	return errors.Is(err, context.DeadlineExceeded) ||
		dbpedia.IsRetryable(err) ||
		openlibrary.IsRetryable(err)
}
