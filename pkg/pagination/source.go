package pagination

import (
	"context"
	"time"
)

// PageRequest describes one attempt at fetching a page.
type PageRequest struct {
	// Page is the 1-based page number.
	Page int

	// Headers are sent with the request.
	Headers map[string]string

	// Timeout bounds the network call. It does not include Delay.
	Timeout time.Duration

	// Delay is waited before the request is issued. Zero on first attempts.
	Delay time.Duration
}

// Session fetches pages over a single connection pool. FetchPage must be safe
// for concurrent use and must return promptly once ctx is done.
type Session[T any] interface {
	// FetchPage returns the records of one page. An empty result means the
	// source is exhausted. Failures should be *PageFetchError.
	FetchPage(ctx context.Context, req PageRequest) ([]T, error)

	// Close releases the connection pool.
	Close() error
}

// Source opens one Session per crawl.
type Source[T any] interface {
	Open(ctx context.Context) (Session[T], error)
}
