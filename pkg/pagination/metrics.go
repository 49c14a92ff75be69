package pagination

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the scheduler.
var (
	crawlerPagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crawler_pages_total",
		Help: "Resolved page attempts by outcome (batch, empty, failed)",
	}, []string{"outcome"})

	crawlerFetchErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crawler_fetch_errors_total",
		Help: "Page fetch failures by error class",
	}, []string{"class"})

	crawlerRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crawler_retries_total",
		Help: "Total number of page retries scheduled",
	})

	crawlerPagesDiscardedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crawler_pages_discarded_total",
		Help: "Pages dropped after exhausting their attempts",
	})

	crawlerCircuitBreakerTripsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crawler_circuit_breaker_trips_total",
		Help: "Crawls aborted by the consecutive error circuit breaker",
	})

	crawlerBatchRecords = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "crawler_batch_records",
		Help:    "Records per emitted batch",
		Buckets: []float64{1, 5, 10, 20, 30, 50, 100},
	})

	crawlerCrawlsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crawler_crawls_total",
		Help: "Finished crawls by terminal state",
	}, []string{"state"})
)
