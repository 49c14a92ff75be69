package pagination

import (
	"context"
	"time"
)

// retryPolicy decides what happens to a page after a failed attempt.
type retryPolicy struct {
	// maxAttempts is the total number of attempts a page gets.
	maxAttempts int

	// delay is waited before every retried request.
	delay time.Duration
}

// next returns the attempt number for a retry and whether one is allowed.
func (p retryPolicy) next(attempt int) (int, bool) {
	next := attempt + 1
	return next, next <= p.maxAttempts
}

// Wait blocks for d or until ctx is done, whichever comes first.
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
