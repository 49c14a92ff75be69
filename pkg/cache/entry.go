package cache

import (
	"time"
)

// PageEntry is a cached listing page.
type PageEntry struct {
	// URL is the page address the body was fetched from.
	URL string `json:"url"`

	// Body is the raw response body.
	Body []byte `json:"body"`

	// StatusCode of the response that produced Body.
	StatusCode int `json:"status_code"`

	// ContentType header of the response.
	ContentType string `json:"content_type,omitempty"`

	// Expires is when the entry becomes stale.
	Expires time.Time `json:"expires"`

	// CachedAt is when the entry was created.
	CachedAt time.Time `json:"cached_at"`
}

// IsExpired returns true if the entry has expired.
func (e *PageEntry) IsExpired() bool {
	return !time.Now().Before(e.Expires)
}

// TTL returns the time until expiration, or 0 if already expired.
func (e *PageEntry) TTL() time.Duration {
	ttl := time.Until(e.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}
