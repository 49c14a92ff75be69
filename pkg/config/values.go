package config

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Keys accepted by FromValues.
const (
	KeyConcurrencyLimit          = "concurrency_limit"
	KeyTimeout                   = "timeout"
	KeyMaxRetry                  = "max_retry"
	KeyRetryDelay                = "retry_delay"
	KeyConsecutiveErrorThreshold = "consecutive_error_threshold"
	KeyUserAgents                = "user_agents"
	KeyHeaders                   = "headers"
)

// Environment variables read by FromEnv.
const (
	EnvConcurrencyLimit = "CRAWL_CONCURRENCY"
	EnvTimeout          = "CRAWL_TIMEOUT"
	EnvMaxRetry         = "CRAWL_MAX_RETRY"
	EnvRetryDelay       = "CRAWL_RETRY_DELAY"
	EnvErrorThreshold   = "CRAWL_ERROR_THRESHOLD"
)

// FromValues builds a Config from loosely typed values, such as a decoded
// JSON document. Integer fields reject floating-point values, even whole ones;
// decode JSON with UseNumber so integers arrive as json.Number.
// Options in opts are applied after values.
func FromValues(target string, values map[string]any, opts ...Option) (Config, error) {
	var s settings

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		v := values[key]
		switch key {
		case KeyConcurrencyLimit, KeyTimeout, KeyMaxRetry, KeyConsecutiveErrorThreshold:
			n, err := intValue(key, v)
			if err != nil {
				return Config{}, err
			}
			*intField(&s, key) = &n
		case KeyRetryDelay:
			f, err := floatValue(key, v)
			if err != nil {
				return Config{}, err
			}
			s.retryDelay = &f
		case KeyUserAgents:
			agents, err := stringSlice(key, v)
			if err != nil {
				return Config{}, err
			}
			s.userAgents = agents
		case KeyHeaders:
			headers, err := stringMap(key, v)
			if err != nil {
				return Config{}, err
			}
			s.headers = headers
		default:
			return Config{}, fmt.Errorf("%w: unknown field %q", ErrInvalidConfig, key)
		}
	}

	for _, opt := range opts {
		opt(&s)
	}
	return build(target, &s)
}

// FromEnv builds a Config from CRAWL_* variables resolved through lookup
// (os.LookupEnv in production). Unset variables keep their defaults.
func FromEnv(target string, lookup func(string) (string, bool), opts ...Option) (Config, error) {
	var s settings

	ints := []struct {
		env   string
		field string
		dst   **int
	}{
		{EnvConcurrencyLimit, KeyConcurrencyLimit, &s.concurrencyLimit},
		{EnvTimeout, KeyTimeout, &s.timeout},
		{EnvMaxRetry, KeyMaxRetry, &s.maxRetry},
		{EnvErrorThreshold, KeyConsecutiveErrorThreshold, &s.errorThreshold},
	}
	for _, f := range ints {
		raw, ok := lookup(f.env)
		if !ok || raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Config{}, &ConfigTypeError{Field: f.field, Want: "an integer", Got: raw}
		}
		*f.dst = &n
	}

	if raw, ok := lookup(EnvRetryDelay); ok && raw != "" {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Config{}, &ConfigTypeError{Field: KeyRetryDelay, Want: "a number", Got: raw}
		}
		s.retryDelay = &f
	}

	for _, opt := range opts {
		opt(&s)
	}
	return build(target, &s)
}

func intField(s *settings, key string) **int {
	switch key {
	case KeyConcurrencyLimit:
		return &s.concurrencyLimit
	case KeyTimeout:
		return &s.timeout
	case KeyMaxRetry:
		return &s.maxRetry
	default:
		return &s.errorThreshold
	}
}

func intValue(field string, v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int8:
		return int(n), nil
	case int16:
		return int(n), nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case uint8:
		return int(n), nil
	case uint16:
		return int(n), nil
	case uint32:
		return saturate(uint64(n)), nil
	case uint:
		return saturate(uint64(n)), nil
	case uint64:
		return saturate(n), nil
	case uintptr:
		return saturate(uint64(n)), nil
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), nil
		}
	}
	return 0, &ConfigTypeError{Field: field, Want: "an integer", Got: v}
}

// saturate converts n to int. Values beyond math.MaxInt stay out of every
// range and so fall back to the default.
func saturate(n uint64) int {
	if n > math.MaxInt {
		return math.MaxInt
	}
	return int(n)
}

func floatValue(field string, v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return f, nil
		}
	default:
		if i, err := intValue(field, v); err == nil {
			return float64(i), nil
		}
	}
	return 0, &ConfigTypeError{Field: field, Want: "a floating point number", Got: v}
}

func stringSlice(field string, v any) ([]string, error) {
	switch list := v.(type) {
	case nil:
		return nil, nil
	case []string:
		return append([]string(nil), list...), nil
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			str, ok := item.(string)
			if !ok {
				return nil, &ConfigTypeError{Field: field, Want: "a list of strings", Got: v}
			}
			out = append(out, str)
		}
		return out, nil
	}
	return nil, &ConfigTypeError{Field: field, Want: "a list of strings", Got: v}
}

func stringMap(field string, v any) (map[string]string, error) {
	switch m := v.(type) {
	case nil:
		return nil, nil
	case map[string]string:
		out := make(map[string]string, len(m))
		for k, val := range m {
			out[k] = val
		}
		return out, nil
	case map[string]any:
		out := make(map[string]string, len(m))
		for k, item := range m {
			str, ok := item.(string)
			if !ok {
				return nil, &ConfigTypeError{Field: field, Want: "a mapping of strings", Got: v}
			}
			out[k] = str
		}
		return out, nil
	}
	return nil, &ConfigTypeError{Field: field, Want: "a mapping of strings", Got: v}
}
