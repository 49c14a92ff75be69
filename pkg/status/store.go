package status

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/listing-crawler/pkg/pagination"
)

// ErrNotFound is returned when no snapshot exists for a crawl or label.
var ErrNotFound = errors.New("crawl status not found")

// Prometheus metrics for status persistence.
var (
	crawlerStatusWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crawler_status_writes_total",
		Help: "Status snapshots written to Redis by crawl state",
	}, []string{"state"})

	crawlerStatusErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crawler_status_errors_total",
		Help: "Failed status snapshot writes",
	})
)

// Store writes scheduler status snapshots to Redis. It implements
// pagination.Reporter.
type Store struct {
	redis     *redis.Client
	logger    zerolog.Logger
	retention time.Duration
}

// NewStore creates a status store. A non-positive retention uses DefaultRetention.
func NewStore(redisClient *redis.Client, logger zerolog.Logger, retention time.Duration) *Store {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Store{
		redis:     redisClient,
		logger:    logger,
		retention: retention,
	}
}

// Report stores a snapshot and points the label's latest key at it.
func (s *Store) Report(ctx context.Context, st pagination.Status) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal crawl status: %w", err)
	}

	pipe := s.redis.Pipeline()
	pipe.Set(ctx, CrawlKey(st.CrawlID), data, s.retention)
	pipe.Set(ctx, LatestKey(st.Label), st.CrawlID, s.retention)

	if _, err := pipe.Exec(ctx); err != nil {
		crawlerStatusErrorsTotal.Inc()
		return fmt.Errorf("store crawl status in redis: %w", err)
	}

	crawlerStatusWritesTotal.WithLabelValues(string(st.State)).Inc()

	s.logger.Debug().
		Str("crawl_id", st.CrawlID).
		Str("state", string(st.State)).
		Int("next_page", st.NextPage).
		Msg("Crawl status stored")

	return nil
}

// Get returns the snapshot of a crawl.
func (s *Store) Get(ctx context.Context, crawlID string) (*pagination.Status, error) {
	data, err := s.redis.Get(ctx, CrawlKey(crawlID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get crawl status: %w", err)
	}

	var st pagination.Status
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parse crawl status: %w", err)
	}
	return &st, nil
}

// Latest returns the most recent snapshot for a target label.
func (s *Store) Latest(ctx context.Context, label string) (*pagination.Status, error) {
	crawlID, err := s.redis.Get(ctx, LatestKey(label)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get latest crawl id: %w", err)
	}
	return s.Get(ctx, crawlID)
}

// IsStale returns true if a non-terminal snapshot has not been updated for maxAge.
// Such a crawl most likely died without reporting its final state.
func IsStale(st *pagination.Status, maxAge time.Duration) bool {
	if st.State.Terminal() {
		return false
	}
	return time.Since(st.UpdatedAt) > maxAge
}
