package openlibrary

import (
	"errors"
	"fmt"
	"net/http"
)

// Common errors returned by the Open Library client.
var (
	// ErrNotFound indicates no book matched the request.
	ErrNotFound = errors.New("not found in Open Library")

	// ErrRateLimited indicates the rate limit has been exceeded.
	ErrRateLimited = errors.New("Open Library rate limit exceeded")

	// ErrNetworkError indicates a network connectivity issue.
	ErrNetworkError = errors.New("network error communicating with Open Library")

	// ErrInvalidResponse indicates an unexpected API response.
	ErrInvalidResponse = errors.New("invalid response from Open Library")
)

// APIError represents a non-success HTTP status from Open Library.
type APIError struct {
	StatusCode int
	Message    string
	Query      string // ISBN or search terms, for context
}

func (e *APIError) Error() string {
	if e.Query != "" {
		return fmt.Sprintf("Open Library API error (status %d): %s (query: %s)", e.StatusCode, e.Message, e.Query)
	}
	return fmt.Sprintf("Open Library API error (status %d): %s", e.StatusCode, e.Message)
}

// IsNotFound returns true if the error indicates no book matched.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusNotFound
	}
	return false
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

// IsRetryable returns true for failures that may succeed on a later attempt.
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
