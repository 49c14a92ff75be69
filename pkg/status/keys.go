// Package status persists crawl progress snapshots in Redis so a running or
// finished crawl can be inspected from another process.
package status

import (
	"time"
)

// Redis key layout.
const (
	// KeyPrefixCrawl holds one JSON snapshot per crawl ID.
	KeyPrefixCrawl = "crawler:status:"

	// KeyPrefixLatest maps a target label to its most recent crawl ID.
	KeyPrefixLatest = "crawler:latest:"
)

// DefaultRetention is how long snapshots are kept after their last update.
const DefaultRetention = 24 * time.Hour

// CrawlKey returns the snapshot key for a crawl ID.
func CrawlKey(crawlID string) string {
	return KeyPrefixCrawl + crawlID
}

// LatestKey returns the key pointing at the latest crawl for a label.
func LatestKey(label string) string {
	return KeyPrefixLatest + label
}
