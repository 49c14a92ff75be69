package listing

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for page requests.
var (
	listingRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "listing_requests_total",
		Help: "Total listing page requests by status",
	}, []string{"status"})

	listingRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "listing_request_duration_seconds",
		Help:    "Listing page request duration in seconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 15},
	})

	listingPropertiesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "listing_properties_total",
		Help: "Total properties parsed from listing pages",
	})
)
