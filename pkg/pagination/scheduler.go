package pagination

import (
	"context"
	"fmt"
	"iter"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/listing-crawler/pkg/config"
)

// reportTimeout bounds the final status report, which runs after the crawl context is gone.
const reportTimeout = 5 * time.Second

// Scheduler crawls a paginated Source under the bounds of a config.Config.
type Scheduler[T any] struct {
	source   Source[T]
	cfg      config.Config
	reporter Reporter
	logger   zerolog.Logger
}

type options struct {
	reporter Reporter
	logger   *zerolog.Logger
}

// Option customizes a Scheduler.
type Option func(*options)

// WithReporter sets a Reporter that receives status snapshots.
func WithReporter(r Reporter) Option {
	return func(o *options) { o.reporter = r }
}

// WithLogger replaces the component logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = &l }
}

// NewScheduler creates a scheduler for source.
func NewScheduler[T any](source Source[T], cfg config.Config, opts ...Option) *Scheduler[T] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger := log.With().Str("component", "scheduler").Logger()
	if o.logger != nil {
		logger = *o.logger
	}

	return &Scheduler[T]{
		source:   source,
		cfg:      withLimits(cfg),
		reporter: o.reporter,
		logger:   logger,
	}
}

// Batches returns a lazy, single-pass sequence of non-empty batches. Every
// call starts a new crawl from page 1. The sequence ends after the source is
// exhausted; it yields a final non-nil error when the circuit breaker trips,
// the session cannot be opened, or ctx ends. Breaking out of the loop early
// cancels outstanding fetches and closes the session.
func (s *Scheduler[T]) Batches(ctx context.Context) iter.Seq2[[]T, error] {
	return func(yield func([]T, error) bool) {
		if err := s.crawl(ctx, yield); err != nil {
			yield(nil, err)
		}
	}
}

// Run consumes Batches, passing each batch to fn. It returns the first error
// from fn unmodified, or the crawl's terminal error.
func (s *Scheduler[T]) Run(ctx context.Context, fn func(batch []T) error) error {
	for batch, err := range s.Batches(ctx) {
		if err != nil {
			return err
		}
		if err := fn(batch); err != nil {
			return err
		}
	}
	return nil
}

// withLimits fills numeric limits that a hand-built Config left unset or negative.
func withLimits(cfg config.Config) config.Config {
	if cfg.ConcurrencyLimit < 1 {
		cfg.ConcurrencyLimit = config.DefaultConcurrencyLimit
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Duration(config.DefaultTimeoutSeconds) * time.Second
	}
	if cfg.MaxRetry < 1 {
		cfg.MaxRetry = config.DefaultMaxRetry
	}
	if cfg.RetryDelay < 0 {
		cfg.RetryDelay = time.Duration(config.DefaultRetryDelaySeconds * float64(time.Second))
	}
	if cfg.ConsecutiveErrorThreshold < 1 {
		cfg.ConsecutiveErrorThreshold = config.DefaultConsecutiveErrorThreshold
	}
	return cfg
}

// pageTask is one attempt at a page. Its result channel is buffered so the
// fetch goroutine never blocks, even when nobody is waiting anymore.
type pageTask[T any] struct {
	page    int
	attempt int
	result  chan pageResult[T]
}

type pageResult[T any] struct {
	records []T
	err     error
}

// run holds the state of a single crawl invocation.
type run[T any] struct {
	*Scheduler[T]
	session Session[T]
	policy  retryPolicy
	logger  zerolog.Logger
	wg      sync.WaitGroup
	status  Status
}

func (s *Scheduler[T]) crawl(parent context.Context, yield func([]T, error) bool) (err error) {
	r := &run[T]{
		Scheduler: s,
		policy:    retryPolicy{maxAttempts: s.cfg.MaxRetry, delay: s.cfg.RetryDelay},
		status: Status{
			CrawlID:   uuid.NewString(),
			Label:     s.cfg.Label,
			State:     StateRunning,
			NextPage:  1,
			StartedAt: time.Now(),
		},
	}
	r.logger = s.logger.With().
		Str("crawl_id", r.status.CrawlID).
		Str("label", s.cfg.Label).
		Logger()

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	session, err := s.source.Open(ctx)
	if err != nil {
		r.status.State = StateStopped
		r.finish(parent, err)
		return fmt.Errorf("open session: %w", err)
	}
	r.session = session

	defer func() {
		// Outstanding fetches are cancelled and joined before the pool goes away.
		cancel()
		r.wg.Wait()
		if cerr := session.Close(); cerr != nil {
			r.logger.Warn().Err(cerr).Msg("Failed to close session")
		}
		if !r.status.State.Terminal() {
			r.status.State = StateStopped
		}
		r.finish(parent, err)
	}()

	r.logger.Info().
		Str("target", s.cfg.Target).
		Int("concurrency", s.cfg.ConcurrencyLimit).
		Int("max_retry", s.cfg.MaxRetry).
		Int("error_threshold", s.cfg.ConsecutiveErrorThreshold).
		Msg("Starting crawl")
	r.report(ctx)

	var active []*pageTask[T]
	for r.status.State == StateRunning || len(active) > 0 {
		if r.status.State == StateRunning && len(active) == 0 {
			active = r.dispatchRound(ctx)
		}

		task := active[0]
		active = active[1:]

		var res pageResult[T]
		select {
		case res = <-task.result:
		case <-ctx.Done():
			return ctx.Err()
		}
		if err := ctx.Err(); err != nil {
			// A fetch cut short by cancellation is not a page failure.
			return err
		}
		r.status.Outstanding = len(active)

		if res.err == nil {
			r.status.ConsecutiveErrors = 0

			if len(res.records) == 0 {
				crawlerPagesTotal.WithLabelValues("empty").Inc()
				if r.status.State == StateRunning {
					r.status.State = StateDraining
					r.logger.Info().
						Int("page", task.page).
						Int("outstanding", len(active)).
						Msg("Empty page, draining outstanding pages")
					r.report(ctx)
				}
				continue
			}

			crawlerPagesTotal.WithLabelValues("batch").Inc()
			crawlerBatchRecords.Observe(float64(len(res.records)))
			r.status.Batches++
			r.status.Records += len(res.records)
			r.logger.Debug().
				Int("page", task.page).
				Int("attempt", task.attempt).
				Int("records", len(res.records)).
				Msg("Page fetched")

			if !yield(res.records, nil) {
				return nil
			}
			continue
		}

		pfe := asPageFetchError(res.err, task.page, s.cfg.PageURL(task.page))
		crawlerPagesTotal.WithLabelValues("failed").Inc()
		crawlerFetchErrorsTotal.WithLabelValues(string(pfe.Class)).Inc()
		r.status.ConsecutiveErrors++

		r.logger.Error().
			Err(pfe.Err).
			Str("error_class", string(pfe.Class)).
			Int("page", pfe.Page).
			Str("url", pfe.URL).
			Int("attempt", task.attempt).
			Int("consecutive_errors", r.status.ConsecutiveErrors).
			Msg("Page fetch failed")

		if r.status.ConsecutiveErrors >= s.cfg.ConsecutiveErrorThreshold {
			r.status.State = StateAborted
			crawlerCircuitBreakerTripsTotal.Inc()
			return &CircuitBreakerError{
				ConsecutiveErrors: r.status.ConsecutiveErrors,
				Threshold:         s.cfg.ConsecutiveErrorThreshold,
				LastErr:           pfe,
			}
		}

		next, ok := r.policy.next(task.attempt)
		if !ok {
			crawlerPagesDiscardedTotal.Inc()
			r.status.Discarded = append(r.status.Discarded, task.page)
			r.logger.Warn().
				Int("page", task.page).
				Str("url", pfe.URL).
				Int("attempts", task.attempt).
				Msg("Discarding page after exhausting retries")
			r.report(ctx)
			continue
		}

		crawlerRetriesTotal.Inc()
		r.status.Retries++
		active = append(active, r.dispatch(ctx, task.page, next, r.policy.delay))
		r.status.Outstanding = len(active)
	}

	r.status.State = StateDone
	return nil
}

// dispatchRound starts ConcurrencyLimit fetches for the next unseen pages.
func (r *run[T]) dispatchRound(ctx context.Context) []*pageTask[T] {
	first := r.status.NextPage
	round := make([]*pageTask[T], 0, r.cfg.ConcurrencyLimit)
	for i := 0; i < r.cfg.ConcurrencyLimit; i++ {
		round = append(round, r.dispatch(ctx, r.status.NextPage, 1, 0))
		r.status.NextPage++
	}
	r.status.Outstanding = len(round)

	r.logger.Debug().
		Int("first_page", first).
		Int("last_page", r.status.NextPage-1).
		Msg("Dispatching round")
	r.report(ctx)

	return round
}

// dispatch starts one fetch attempt in its own goroutine.
func (r *run[T]) dispatch(ctx context.Context, page, attempt int, delay time.Duration) *pageTask[T] {
	task := &pageTask[T]{
		page:    page,
		attempt: attempt,
		result:  make(chan pageResult[T], 1),
	}
	req := PageRequest{
		Page:    page,
		Headers: r.cfg.RequestHeaders(),
		Timeout: r.cfg.Timeout,
		Delay:   delay,
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		// Outer bound only; the session applies Timeout to the request itself.
		pageCtx, cancel := context.WithTimeout(ctx, req.Delay+req.Timeout)
		defer cancel()

		records, err := r.session.FetchPage(pageCtx, req)
		task.result <- pageResult[T]{records: records, err: err}
	}()

	return task
}

func (r *run[T]) report(ctx context.Context) {
	if r.reporter == nil {
		return
	}
	r.status.UpdatedAt = time.Now()
	snapshot := r.status
	snapshot.Discarded = append([]int(nil), r.status.Discarded...)
	if err := r.reporter.Report(ctx, snapshot); err != nil {
		r.logger.Warn().Err(err).Msg("Failed to report crawl status")
	}
}

// finish logs and reports the terminal state. parent may already be cancelled.
func (r *run[T]) finish(parent context.Context, err error) {
	crawlerCrawlsTotal.WithLabelValues(string(r.status.State)).Inc()

	level := zerolog.InfoLevel
	switch {
	case r.status.State == StateAborted:
		level = zerolog.ErrorLevel
	case err != nil:
		level = zerolog.WarnLevel
	}
	r.logger.WithLevel(level).
		Err(err).
		Str("state", string(r.status.State)).
		Int("batches", r.status.Batches).
		Int("records", r.status.Records).
		Int("retries", r.status.Retries).
		Ints("discarded", r.status.Discarded).
		Dur("duration", time.Since(r.status.StartedAt)).
		Msg("Crawl finished")

	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), reportTimeout)
	defer cancel()
	r.report(ctx)
}
