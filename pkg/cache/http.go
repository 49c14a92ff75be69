package cache

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTTL is used when no positive TTL is configured.
const DefaultTTL = 10 * time.Minute

// MaxBodySize bounds how much of a page body is read.
const MaxBodySize = 8 << 20

// ErrBodyTooLarge is returned when a body exceeds the read limit.
var ErrBodyTooLarge = errors.New("body exceeds size limit")

// ReadBody reads r up to limit bytes. A longer body fails with ErrBodyTooLarge
// instead of being truncated.
func ReadBody(r io.Reader, limit int64) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("%w (%d bytes)", ErrBodyTooLarge, limit)
	}
	return body, nil
}

// ResponseToEntry converts a page response to a PageEntry expiring after ttl.
// The response body is restored after reading; bodies over MaxBodySize fail
// with ErrBodyTooLarge.
func ResponseToEntry(resp *http.Response, ttl time.Duration) (*PageEntry, error) {
	if resp == nil {
		return nil, fmt.Errorf("response cannot be nil")
	}

	body, err := ReadBody(resp.Body, MaxBodySize)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(body))

	if ttl <= 0 {
		ttl = DefaultTTL
	}

	now := time.Now()
	entry := &PageEntry{
		Body:        body,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Expires:     now.Add(ttl),
		CachedAt:    now,
	}
	if resp.Request != nil && resp.Request.URL != nil {
		entry.URL = resp.Request.URL.String()
	}

	return entry, nil
}

// Cacheable reports whether a response may be stored.
func Cacheable(resp *http.Response) bool {
	if resp == nil {
		return false
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false
	}
	return resp.Header.Get("Cache-Control") != "no-store"
}
