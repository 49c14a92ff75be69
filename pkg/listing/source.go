package listing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/listing-crawler/pkg/cache"
	"github.com/Sternrassler/listing-crawler/pkg/config"
	"github.com/Sternrassler/listing-crawler/pkg/pagination"
	"github.com/Sternrassler/listing-crawler/pkg/record"
)

// Source opens crawl sessions against the listing site.
type Source struct {
	cfg      config.Config
	cache    *cache.Manager
	cacheTTL time.Duration
	baseURL  *url.URL
	logger   zerolog.Logger
}

// Option customizes a Source.
type Option func(*Source)

// WithCache serves pages from Redis when present and stores successful pages for ttl.
func WithCache(m *cache.Manager, ttl time.Duration) Option {
	return func(s *Source) {
		s.cache = m
		s.cacheTTL = ttl
	}
}

// WithBaseURL sends requests to base instead of the target's scheme and host.
// The path and query of every page are kept.
func WithBaseURL(base string) Option {
	return func(s *Source) {
		if u, err := url.Parse(base); err == nil && u.Host != "" {
			s.baseURL = u
		}
	}
}

// WithLogger replaces the component logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Source) { s.logger = l }
}

// NewSource creates a Source for cfg's target.
func NewSource(cfg config.Config, opts ...Option) *Source {
	s := &Source{
		cfg:    cfg,
		logger: log.With().Str("component", "listing").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open starts a session with its own connection pool.
func (s *Source) Open(ctx context.Context) (pagination.Session[record.Record], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = s.cfg.ConcurrencyLimit

	return &Session{
		source:    s,
		transport: transport,
		client:    &http.Client{Transport: transport},
	}, nil
}

// Session fetches pages over one HTTP connection pool.
type Session struct {
	source    *Source
	transport *http.Transport
	client    *http.Client
	closeOnce sync.Once
}

// FetchPage fetches and parses one page. Failures are *pagination.PageFetchError.
func (s *Session) FetchPage(ctx context.Context, req pagination.PageRequest) ([]record.Record, error) {
	pageURL := s.source.resolve(s.source.cfg.PageURL(req.Page))

	if err := pagination.Wait(ctx, req.Delay); err != nil {
		return nil, s.fail(req.Page, pageURL, classify(err), 0, err)
	}

	body, err := s.body(ctx, req, pageURL)
	if err != nil {
		return nil, err
	}

	props, err := ParsePage(bytes.NewReader(body), s.source.cfg.Label)
	if err != nil {
		return nil, s.fail(req.Page, pageURL, pagination.ClassParse, 0, err)
	}
	listingPropertiesTotal.Add(float64(len(props)))

	return Records(props), nil
}

// body returns the page body from the cache or the site.
func (s *Session) body(ctx context.Context, req pagination.PageRequest, pageURL string) ([]byte, error) {
	src := s.source
	logger := src.logger.With().Int("page", req.Page).Str("url", pageURL).Logger()

	var key cache.PageKey
	if src.cache != nil {
		var err error
		if key, err = cache.KeyForURL(pageURL); err != nil {
			logger.Warn().Err(err).Msg("Cannot build cache key")
		} else if entry, err := src.cache.Get(ctx, key); err == nil {
			logger.Debug().Msg("Page served from cache")
			return entry.Body, nil
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			logger.Warn().Err(err).Msg("Cache get error")
		}
	}

	reqCtx, cancel := context.WithTimeout(ctx, req.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, s.fail(req.Page, pageURL, pagination.ClassNetwork, 0, fmt.Errorf("create request: %w", err))
	}
	for name, value := range req.Headers {
		// Left to the transport so compressed bodies are decoded transparently.
		if strings.EqualFold(name, "Accept-Encoding") {
			continue
		}
		httpReq.Header.Set(name, value)
	}
	if req.Page > 1 {
		httpReq.Header.Set("Referer", src.resolve(src.cfg.PageURL(req.Page-1)))
	}

	logger.Info().Msg("Scraping page")

	start := time.Now()
	resp, err := s.client.Do(httpReq)
	listingRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		listingRequestsTotal.WithLabelValues("network_error").Inc()
		return nil, s.fail(req.Page, pageURL, classify(err), 0, err)
	}
	defer resp.Body.Close()

	listingRequestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, s.fail(req.Page, pageURL, pagination.ClassStatus, resp.StatusCode, errors.New(resp.Status))
	}

	if src.cache != nil && key.Host != "" && cache.Cacheable(resp) {
		entry, err := cache.ResponseToEntry(resp, src.cacheTTL)
		if err != nil {
			return nil, s.fail(req.Page, pageURL, readErrorClass(err), 0, err)
		}
		if err := src.cache.Set(ctx, key, entry); err != nil {
			logger.Warn().Err(err).Msg("Failed to cache page")
		}
		return entry.Body, nil
	}

	body, err := cache.ReadBody(resp.Body, cache.MaxBodySize)
	if err != nil {
		return nil, s.fail(req.Page, pageURL, readErrorClass(err), 0, fmt.Errorf("read body: %w", err))
	}
	return body, nil
}

// readErrorClass treats an oversized page as unparsable.
func readErrorClass(err error) pagination.FetchErrorClass {
	if errors.Is(err, cache.ErrBodyTooLarge) {
		return pagination.ClassParse
	}
	return classify(err)
}

// Close releases the session's idle connections. It is safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(s.transport.CloseIdleConnections)
	return nil
}

func (s *Session) fail(page int, pageURL string, class pagination.FetchErrorClass, status int, err error) error {
	return &pagination.PageFetchError{
		Page:       page,
		URL:        pageURL,
		Class:      class,
		StatusCode: status,
		Err:        err,
	}
}

// resolve rewrites a page address onto the configured base URL.
func (s *Source) resolve(pageURL string) string {
	if s.baseURL == nil {
		return pageURL
	}
	u, err := url.Parse(pageURL)
	if err != nil {
		return pageURL
	}
	u.Scheme = s.baseURL.Scheme
	u.Host = s.baseURL.Host
	return u.String()
}

// classify maps a transport error to a fetch error class.
func classify(err error) pagination.FetchErrorClass {
	if errors.Is(err, context.DeadlineExceeded) {
		return pagination.ClassTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return pagination.ClassTimeout
	}
	return pagination.ClassNetwork
}
