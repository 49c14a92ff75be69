// Package config holds the validated, bounded parameters of a single crawl.
//
// Numeric parameters are normalized with a clamp-to-default policy: a value of
// the right kind that falls outside its documented range is replaced by the
// documented default. It is never rejected and never clamped to the nearest
// bound. Values of the wrong kind fail with a *ConfigTypeError.
package config

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Bounds and defaults for crawl parameters.
const (
	MinConcurrencyLimit     = 1
	MaxConcurrencyLimit     = 10
	DefaultConcurrencyLimit = 10

	MinTimeoutSeconds     = 5
	MaxTimeoutSeconds     = 15
	DefaultTimeoutSeconds = 5

	MinMaxRetry     = 1
	MaxMaxRetry     = 4
	DefaultMaxRetry = 2

	MinRetryDelaySeconds     = 0.5
	MaxRetryDelaySeconds     = 2.0
	DefaultRetryDelaySeconds = 1.0

	MinConsecutiveErrorThreshold     = 5
	MaxConsecutiveErrorThreshold     = 15
	DefaultConsecutiveErrorThreshold = 5
)

// SiteURL is the listing site root. It doubles as the default Referer.
const SiteURL = "https://www.ariamarz.com/"

// pageQuery is appended to the target to address a single page.
const pageQuery = "?in=&page="

var targetPattern = regexp.MustCompile(`^(https?://)?(www\.)?(ariamarz)(\.com)(/[a-zA-Z_-]+)+(/)?$`)

// DefaultUserAgents is used when no user-agent pool is configured.
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:109.0) Gecko/20100101 Firefox/119.0/sUZ6nayS3umMDe4j",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_10) AppleWebKit/537.36 (KHTML, like Gecko) Firefox/55.0.649.87 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:134.0) Gecko/20100101 Firefox/134.0",
	"Mozilla/5.0 (Linux; Android 12; XQ-BC72) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/82.0.4062.3 Mobile Safari/537.36",
	"Mozilla/5.0 (compatible; MSIE 10.0; AOL 9.7; AOLBuild 4343.55; Windows NT 6.2; WOW64; Trident/6.0)-620",
}

// Config holds the parameters governing one crawl.
// Build it with New, FromValues or FromEnv; use With to derive a revalidated copy.
type Config struct {
	// Target is the normalized listing address (scheme included, no trailing slash).
	Target string

	// Label is the last path segment of Target, attached to every record.
	Label string

	// ConcurrencyLimit is the number of page fetches in flight per round.
	ConcurrencyLimit int

	// Timeout bounds a single page fetch.
	Timeout time.Duration

	// MaxRetry is the number of attempts a page gets before it is discarded.
	MaxRetry int

	// RetryDelay is waited before a retried page request is issued.
	RetryDelay time.Duration

	// ConsecutiveErrorThreshold trips the circuit breaker.
	ConsecutiveErrorThreshold int

	// UserAgents is the pool default headers draw their User-Agent from.
	UserAgents []string

	// Headers are sent with every page request.
	Headers map[string]string

	// generatedHeaders is set when Headers were built from UserAgents.
	generatedHeaders bool
}

// settings collects raw option values before normalization.
type settings struct {
	concurrencyLimit *int
	timeout          *int
	maxRetry         *int
	retryDelay       *float64
	errorThreshold   *int
	userAgents       []string
	headers          map[string]string
	rand             *rand.Rand
}

// Option sets a raw configuration value.
type Option func(*settings)

// WithConcurrencyLimit sets the number of concurrent page fetches, in [1,10].
func WithConcurrencyLimit(n int) Option {
	return func(s *settings) { s.concurrencyLimit = &n }
}

// WithTimeout sets the per-page timeout in whole seconds, in [5,15].
func WithTimeout(seconds int) Option {
	return func(s *settings) { s.timeout = &seconds }
}

// WithMaxRetry sets the number of attempts per page, in [1,4].
func WithMaxRetry(n int) Option {
	return func(s *settings) { s.maxRetry = &n }
}

// WithRetryDelay sets the retry delay in seconds, in [0.5,2.0].
func WithRetryDelay(seconds float64) Option {
	return func(s *settings) { s.retryDelay = &seconds }
}

// WithConsecutiveErrorThreshold sets the circuit breaker threshold, in [5,15].
func WithConsecutiveErrorThreshold(n int) Option {
	return func(s *settings) { s.errorThreshold = &n }
}

// WithUserAgents replaces the user-agent pool. An empty pool selects the default.
func WithUserAgents(agents []string) Option {
	return func(s *settings) { s.userAgents = append([]string(nil), agents...) }
}

// WithHeaders replaces the request headers. An empty map selects the default set.
func WithHeaders(headers map[string]string) Option {
	return func(s *settings) {
		s.headers = make(map[string]string, len(headers))
		for k, v := range headers {
			s.headers[k] = v
		}
	}
}

// WithRand sets the random source used to pick a user agent for the default headers.
func WithRand(r *rand.Rand) Option {
	return func(s *settings) { s.rand = r }
}

// New validates target and applies opts.
func New(target string, opts ...Option) (Config, error) {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}
	return build(target, &s)
}

// With returns a copy of c with opts applied and every field revalidated.
func (c Config) With(opts ...Option) (Config, error) {
	timeout := int(c.Timeout / time.Second)
	delay := c.RetryDelay.Seconds()
	s := settings{
		concurrencyLimit: &c.ConcurrencyLimit,
		timeout:          &timeout,
		maxRetry:         &c.MaxRetry,
		retryDelay:       &delay,
		errorThreshold:   &c.ConsecutiveErrorThreshold,
		userAgents:       append([]string(nil), c.UserAgents...),
	}
	for _, opt := range opts {
		opt(&s)
	}

	// Generated headers are redrawn when the pool or the random source changes.
	if s.headers == nil {
		regenerate := c.generatedHeaders && (s.rand != nil || !slices.Equal(s.userAgents, c.UserAgents))
		if !regenerate {
			WithHeaders(c.Headers)(&s)
		}
	}
	return build(c.Target, &s)
}

func build(target string, s *settings) (Config, error) {
	normalized, label, err := parseTarget(target)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Target:                    normalized,
		Label:                     label,
		ConcurrencyLimit:          inRangeOr(deref(s.concurrencyLimit, DefaultConcurrencyLimit), MinConcurrencyLimit, MaxConcurrencyLimit, DefaultConcurrencyLimit),
		Timeout:                   time.Duration(inRangeOr(deref(s.timeout, DefaultTimeoutSeconds), MinTimeoutSeconds, MaxTimeoutSeconds, DefaultTimeoutSeconds)) * time.Second,
		MaxRetry:                  inRangeOr(deref(s.maxRetry, DefaultMaxRetry), MinMaxRetry, MaxMaxRetry, DefaultMaxRetry),
		RetryDelay:                seconds(inRangeOr(deref(s.retryDelay, DefaultRetryDelaySeconds), MinRetryDelaySeconds, MaxRetryDelaySeconds, DefaultRetryDelaySeconds)),
		ConsecutiveErrorThreshold: inRangeOr(deref(s.errorThreshold, DefaultConsecutiveErrorThreshold), MinConsecutiveErrorThreshold, MaxConsecutiveErrorThreshold, DefaultConsecutiveErrorThreshold),
		UserAgents:                s.userAgents,
	}
	if len(cfg.UserAgents) == 0 {
		cfg.UserAgents = append([]string(nil), DefaultUserAgents...)
	}

	cfg.Headers = s.headers
	if len(cfg.Headers) == 0 {
		cfg.Headers = defaultHeaders(pickUserAgent(cfg.UserAgents, s.rand))
		cfg.generatedHeaders = true
	}

	return cfg, nil
}

// PageURL returns the address of the given page.
func (c Config) PageURL(page int) string {
	return c.Target + pageQuery + strconv.Itoa(page)
}

// RequestHeaders returns a copy of the configured headers.
func (c Config) RequestHeaders() map[string]string {
	out := make(map[string]string, len(c.Headers))
	for k, v := range c.Headers {
		out[k] = v
	}
	return out
}

// URLFor builds a target address from a transaction status, listing category and city.
func URLFor(status, kind, city string) string {
	return fmt.Sprintf("%s%s-%s/%s", SiteURL, status, kind, city)
}

// FileName joins an output base name and a format extension.
func FileName(base, ext string) string {
	return base + "." + ext
}

func parseTarget(target string) (string, string, error) {
	if !targetPattern.MatchString(target) {
		return "", "", &InvalidTargetError{Target: target}
	}

	target = strings.TrimRight(target, "/")
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		target = "https://" + target
	}

	return target, target[strings.LastIndex(target, "/")+1:], nil
}

func defaultHeaders(userAgent string) map[string]string {
	return map[string]string{
		"User-Agent":      userAgent,
		"Referer":         SiteURL,
		"Accept-Encoding": "gzip, deflate, br, zstd",
		"Accept-Language": "en-US,en;q=0.5",
		"Connection":      "keep-alive",
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Sec-Fetch-Dest":  "document",
		"Sec-Fetch-Mode":  "navigate",
		"Sec-Fetch-Site":  "same-origin",
	}
}

func pickUserAgent(pool []string, r *rand.Rand) string {
	if r == nil {
		return pool[rand.IntN(len(pool))]
	}
	return pool[r.IntN(len(pool))]
}

// inRangeOr returns v when it lies in [lo, hi] and def otherwise. NaN is never in range.
func inRangeOr[N int | float64](v, lo, hi, def N) N {
	if v != v || v < lo || v > hi {
		return def
	}
	return v
}

func deref[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
