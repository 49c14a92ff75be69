package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// keyPrefix namespaces page entries in a shared Redis database.
const keyPrefix = "listing"

// PageKey identifies a cached page.
type PageKey struct {
	// Host of the listing site, without "www.".
	Host string

	// Path of the listing, e.g. "/buy-apartment/tehran".
	Path string

	// Query parameters of the page request.
	Query url.Values
}

// KeyForURL builds a PageKey from a page address.
func KeyForURL(raw string) (PageKey, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return PageKey{}, fmt.Errorf("parse page url: %w", err)
	}
	if u.Host == "" {
		return PageKey{}, fmt.Errorf("page url %q has no host", raw)
	}
	return PageKey{
		Host:  strings.TrimPrefix(strings.ToLower(u.Host), "www."),
		Path:  u.Path,
		Query: u.Query(),
	}, nil
}

// String generates a deterministic key string.
// Format: listing:host/path:param1=val1:param2=val2
//
// Example:
//
//	listing:ariamarz.com/buy-apartment/tehran:in=:page=2
func (k PageKey) String() string {
	parts := []string{keyPrefix}

	location := k.Host
	if path := strings.Trim(k.Path, "/"); path != "" {
		location += "/" + path
	}
	if location != "" {
		parts = append(parts, location)
	}

	// Sorted for determinism.
	if len(k.Query) > 0 {
		names := make([]string, 0, len(k.Query))
		for name := range k.Query {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			parts = append(parts, fmt.Sprintf("%s=%s", name, k.Query.Get(name)))
		}
	}

	return strings.Join(parts, ":")
}
