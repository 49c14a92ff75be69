// Package testutil provides testing utilities for the listing crawler.
package testutil

import (
	"fmt"
	"html"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

// Listing is one property rendered by the mock site.
type Listing struct {
	ID     int
	Status string // "buy" or "rent"
	Type   string // apartment, commercial, villa, office, industrial, old house
	Price  int

	// Unpriced renders an empty price row; the crawler skips such listings.
	Unpriced bool

	// Deposit of a rental; 0 renders a non-numeric "negotiable" label.
	Deposit int

	Area int

	// YearBuilt; 0 renders an "unknown" label.
	YearBuilt int
}

// MockResponse overrides the response for a page.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration

	// Times limits the override to the first n requests of the page; 0 means always.
	Times int
}

// Request is a request seen by the mock site.
type Request struct {
	Page   int
	Path   string
	Header http.Header
}

// MockSite is a configurable mock listing site for testing. Pages without
// listings render an empty result page.
type MockSite struct {
	server    *httptest.Server
	mu        sync.Mutex
	pages     map[int][]Listing
	overrides map[int]*MockResponse
	requests  []Request
}

// NewMockSite starts a mock site that is shut down when the test ends.
func NewMockSite(t testing.TB) *MockSite {
	t.Helper()

	site := &MockSite{
		pages:     make(map[int][]Listing),
		overrides: make(map[int]*MockResponse),
	}
	site.server = httptest.NewServer(http.HandlerFunc(site.serve))
	t.Cleanup(site.server.Close)

	return site
}

// URL returns the mock server URL.
func (m *MockSite) URL() string {
	return m.server.URL
}

// SetListing adds listings to a page.
func (m *MockSite) SetListing(page int, listings ...Listing) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages[page] = append(m.pages[page], listings...)
}

// SetPages fills pages 1..n with one apartment listing each.
func (m *MockSite) SetPages(n int) {
	for page := 1; page <= n; page++ {
		m.SetListing(page, Listing{
			ID:        page,
			Status:    "buy",
			Type:      "apartment",
			Price:     page * 1_000_000,
			Area:      50 + page,
			YearBuilt: 1390 + page,
		})
	}
}

// SetResponse overrides the response for a page.
func (m *MockSite) SetResponse(page int, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overrides[page] = &resp
}

// Requests returns every request seen so far.
func (m *MockSite) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.requests...)
}

// RequestCount returns the number of requests made to the server.
func (m *MockSite) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// PageRequests returns how often a page was requested.
func (m *MockSite) PageRequests(page int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.requests {
		if r.Page == page {
			n++
		}
	}
	return n
}

func (m *MockSite) serve(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil {
		http.Error(w, "missing page", http.StatusBadRequest)
		return
	}

	m.mu.Lock()
	m.requests = append(m.requests, Request{Page: page, Path: r.URL.Path, Header: r.Header.Clone()})
	override := m.overrides[page]
	if override != nil && override.Times > 0 {
		override.Times--
		if override.Times == 0 {
			delete(m.overrides, page)
		}
	}
	listings := append([]Listing(nil), m.pages[page]...)
	m.mu.Unlock()

	if override != nil {
		if override.Delay > 0 {
			select {
			case <-time.After(override.Delay):
			case <-r.Context().Done():
				return
			}
		}
		for key, value := range override.Headers {
			w.Header().Set(key, value)
		}
		status := override.StatusCode
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		w.Write([]byte(override.Body))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(RenderPage(listings)))
}

var persian = map[string]string{
	"buy":        "خرید و فروش",
	"rent":       "رهن و اجاره",
	"apartment":  "آپارتمان",
	"commercial": "مغازه و تجاری",
	"villa":      "خانه ویلایی حیاط دار",
	"office":     "دفتر کار و اداری",
	"industrial": "صنعتی، کشاورزی",
	"old house":  "زمین و کلنگی",
}

// RenderPage renders listings the way the live site lays them out.
func RenderPage(listings []Listing) string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html lang="fa" dir="rtl"><head><meta charset="utf-8"><title>آگهی ها</title></head><body><main class="products">`)
	for _, l := range listings {
		renderListing(&b, l)
	}
	b.WriteString(`</main></body></html>`)
	return b.String()
}

func renderListing(b *strings.Builder, l Listing) {
	price := ""
	if !l.Unpriced {
		price = fmt.Sprintf("قیمت: %s تومان", formatAmount(l.Price))
	}

	deposit := "توافقی"
	if l.Deposit > 0 {
		deposit = formatAmount(l.Deposit) + " تومان ودیعه"
	}

	year := "سال ساخت نامشخص"
	if l.YearBuilt > 0 {
		year = fmt.Sprintf("سال ساخت %d", l.YearBuilt)
	}

	area := fmt.Sprintf("%d متر", l.Area)
	var details []string
	switch l.Type {
	case "industrial", "old house":
		details = []string{"زمین", "سند تک برگ", area, year}
	default:
		details = []string{"2 خواب", area, "طبقه 3", year}
	}

	fmt.Fprintf(b, `<div class="product-plate"><a href="/ad/%d"><img data-id="%d" src="/img/%d.jpg"></a>`, l.ID, l.ID, l.ID)
	b.WriteString(`<div class="product-plate-detail">`)
	fmt.Fprintf(b, `<span class="product-kind"><img alt="%s" src="/icons/kind.svg">%s</span>`,
		html.EscapeString(persian[l.Status]), html.EscapeString(persian[l.Type]))
	b.WriteString(`<div class="row"><ul class="col-7">`)
	fmt.Fprintf(b, `<li>%s</li>`, html.EscapeString(price))
	if l.Status == "rent" {
		fmt.Fprintf(b, `<li>%s</li>`, html.EscapeString(deposit))
	}
	b.WriteString(`</ul><ul class="col-5">`)
	for _, d := range details {
		fmt.Fprintf(b, `<li>%s</li>`, html.EscapeString(d))
	}
	b.WriteString(`</ul></div></div></div>`)
}

// formatAmount renders n with thousands separators.
func formatAmount(n int) string {
	s := strconv.Itoa(n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
	}
	for i := pre; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
