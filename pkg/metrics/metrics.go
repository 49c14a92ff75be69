// Package metrics exposes the Prometheus registry the crawler's packages
// register with, plus the HTTP endpoint that serves it.
//
// Metrics are defined in their respective packages (pagination, listing,
// cache, status, sink) via promauto.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Registry is the default Prometheus registry used by the crawler.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// shutdownTimeout bounds the graceful stop of the metrics server.
const shutdownTimeout = 5 * time.Second

// Handler serves /metrics and /health.
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", healthHandler)
	return mux
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

// Serve runs the metrics endpoint on addr until ctx is done.
func Serve(ctx context.Context, addr string, logger zerolog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("Serving metrics")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown metrics server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}

// Metrics Documentation
//
// Scheduler Metrics (pkg/pagination):
//   - crawler_pages_total{outcome} (Counter): Resolved page attempts (batch, empty, failed)
//   - crawler_fetch_errors_total{class} (Counter): Page failures by class (network, timeout, status, parse, unknown)
//   - crawler_retries_total (Counter): Page retries scheduled
//   - crawler_pages_discarded_total (Counter): Pages dropped after exhausting their attempts
//   - crawler_circuit_breaker_trips_total (Counter): Crawls aborted by the circuit breaker
//   - crawler_batch_records (Histogram): Records per emitted batch
//   - crawler_crawls_total{state} (Counter): Finished crawls by terminal state
//
// Request Metrics (pkg/listing):
//   - listing_requests_total{status} (Counter): Page requests by HTTP status or network_error
//   - listing_request_duration_seconds (Histogram): Page request duration
//   - listing_properties_total (Counter): Properties parsed
//
// Cache Metrics (pkg/cache):
//   - crawler_cache_hits_total (Counter): Page cache hits
//   - crawler_cache_misses_total (Counter): Page cache misses
//   - crawler_cache_stored_bytes (Counter): Bytes written to the cache
//   - crawler_cache_errors_total{operation} (Counter): Cache operation errors
//
// Status Metrics (pkg/status):
//   - crawler_status_writes_total{state} (Counter): Snapshots written by crawl state
//   - crawler_status_errors_total (Counter): Failed snapshot writes
//
// Sink Metrics (pkg/sink):
//   - sink_rows_written_total{format} (Counter): Records written by file format
//
// Example Prometheus Queries:
//
//   # Page failure ratio
//   sum(rate(crawler_pages_total{outcome="failed"}[5m])) / sum(rate(crawler_pages_total[5m]))
//
//   # Aborted crawls
//   increase(crawler_crawls_total{state="aborted"}[1h])
//
//   # P95 page latency
//   histogram_quantile(0.95, rate(listing_request_duration_seconds_bucket[5m]))
