package dbpedia

import (
	"errors"
	"fmt"
	"net/http"
)

// Common errors returned by the DBpedia client.
var (
	// ErrNotFound indicates the query matched nothing.
	ErrNotFound = errors.New("not found in DBpedia")

	// ErrRateLimited indicates the endpoint refused the request for quota reasons.
	ErrRateLimited = errors.New("DBpedia rate limit exceeded")

	// ErrNetworkError indicates a network connectivity issue.
	ErrNetworkError = errors.New("network error communicating with DBpedia")

	// ErrInvalidResponse indicates an unexpected response body.
	ErrInvalidResponse = errors.New("invalid response from DBpedia")
)

// APIError represents a non-success HTTP status from the SPARQL endpoint.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("DBpedia API error (status %d): %s", e.StatusCode, e.Message)
}

// IsNotFound returns true if the error indicates nothing matched.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsRateLimited returns true if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests
	}
	return false
}

// IsRetryable returns true for failures that may succeed on a later attempt:
// network errors, rate limiting and server-side errors.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrNetworkError) || IsRateLimited(err) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500
	}
	return false
}
