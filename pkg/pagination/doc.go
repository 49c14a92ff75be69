// Package pagination drives a bounded, concurrent crawl over a paginated source
// whose end is only discovered by fetching an empty page.
//
// Example usage:
//
//	cfg, _ := config.New("https://www.ariamarz.com/buy-apartment/tehran")
//	scheduler := pagination.NewScheduler[record.Record](listing.NewSource(cfg), cfg)
//	for batch, err := range scheduler.Batches(ctx) {
//		if err != nil {
//			// *CircuitBreakerError or the context error
//		}
//		// consume batch
//	}
//
// The scheduler:
//   - Dispatches rounds of ConcurrencyLimit pages, only when no page is outstanding
//   - Resolves outstanding pages in dispatch order (FIFO), retries included
//   - Retries a failed page after RetryDelay until it has had MaxRetry attempts, then drops it
//   - Stops dispatching new pages once any page comes back empty (draining)
//   - Aborts with ErrCircuitBreakerTripped after ConsecutiveErrorThreshold failures in a row
//   - Opens one Session per crawl and closes it exactly once on every exit path
//
// Page-scoped failures (*PageFetchError) never reach the caller; they are
// retried, dropped, or counted towards the circuit breaker.
package pagination
