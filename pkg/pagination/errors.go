package pagination

import (
	"errors"
	"fmt"
)

// ErrCircuitBreakerTripped is matched by the error that aborts a crawl after
// too many consecutive page failures.
var ErrCircuitBreakerTripped = errors.New("circuit breaker tripped")

// FetchErrorClass classifies a page fetch failure for logging and metrics.
type FetchErrorClass string

const (
	// ClassNetwork covers transport failures.
	ClassNetwork FetchErrorClass = "network"

	// ClassTimeout covers requests that exceeded the page timeout.
	ClassTimeout FetchErrorClass = "timeout"

	// ClassStatus covers non-2xx responses.
	ClassStatus FetchErrorClass = "status"

	// ClassParse covers responses that could not be turned into records.
	ClassParse FetchErrorClass = "parse"

	// ClassUnknown is used when a session returns an unclassified error.
	ClassUnknown FetchErrorClass = "unknown"
)

// PageFetchError is a page-scoped failure reported by a Session.
type PageFetchError struct {
	Page       int
	URL        string
	Class      FetchErrorClass
	StatusCode int
	Err        error
}

// Error implements the error interface.
func (e *PageFetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("page %d (%s): %s error (status %d): %v", e.Page, e.URL, e.Class, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("page %d (%s): %s error: %v", e.Page, e.URL, e.Class, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *PageFetchError) Unwrap() error {
	return e.Err
}

// CircuitBreakerError aborts a crawl. LastErr is kept for logging only and is
// not part of the unwrap chain.
type CircuitBreakerError struct {
	ConsecutiveErrors int
	Threshold         int
	LastErr           error
}

// Error implements the error interface.
func (e *CircuitBreakerError) Error() string {
	return fmt.Sprintf("too many consecutive errors (%d/%d), last: %v", e.ConsecutiveErrors, e.Threshold, e.LastErr)
}

// Unwrap lets errors.Is match ErrCircuitBreakerTripped.
func (e *CircuitBreakerError) Unwrap() error {
	return ErrCircuitBreakerTripped
}

// asPageFetchError returns err as a *PageFetchError, wrapping foreign errors.
func asPageFetchError(err error, page int, url string) *PageFetchError {
	var pfe *PageFetchError
	if errors.As(err, &pfe) {
		if pfe.Page == 0 {
			pfe.Page = page
		}
		if pfe.URL == "" {
			pfe.URL = url
		}
		return pfe
	}
	return &PageFetchError{Page: page, URL: url, Class: ClassUnknown, Err: err}
}
