package listing

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrMalformedListing is returned when a listing lacks a required value.
var ErrMalformedListing = errors.New("malformed listing")

// ParsePage extracts every priced listing from a page. An empty result means
// the page has no listings. A listing with a missing or unknown required
// value fails the whole page.
func ParsePage(r io.Reader, city string) ([]Property, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var (
		props    []Property
		parseErr error
	)
	doc.Find(".product-plate-detail").EachWithBreak(func(i int, plate *goquery.Selection) bool {
		price := strings.TrimSpace(plate.Find("li").First().Text())
		if price == "" {
			return true
		}

		p, err := parsePlate(plate, price, city)
		if err != nil {
			parseErr = fmt.Errorf("listing %d: %w", i+1, err)
			return false
		}
		props = append(props, p)
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}

	return props, nil
}

func parsePlate(plate *goquery.Selection, price, city string) (Property, error) {
	p := Property{City: city}

	rawID, ok := plate.Parent().Find("img").First().Attr("data-id")
	if !ok {
		return p, fmt.Errorf("%w: no id", ErrMalformedListing)
	}
	id, err := strconv.Atoi(strings.TrimSpace(rawID))
	if err != nil {
		return p, fmt.Errorf("%w: id %q", ErrMalformedListing, rawID)
	}
	p.ID = id

	badge := plate.Find("img").First()
	alt, _ := badge.Attr("alt")
	if p.Status, ok = Label(strings.TrimSpace(alt)); !ok {
		return p, fmt.Errorf("%w: unknown status %q", ErrMalformedListing, alt)
	}
	kind := strings.TrimSpace(badge.Parent().Text())
	if p.Type, ok = Label(kind); !ok {
		return p, fmt.Errorf("%w: unknown type %q", ErrMalformedListing, kind)
	}

	// "<label> <amount> <currency>"
	parts := strings.SplitN(price, " ", 3)
	if len(parts) < 2 {
		return p, fmt.Errorf("%w: price %q", ErrMalformedListing, price)
	}
	if p.Price, err = amount(parts[1]); err != nil {
		return p, fmt.Errorf("%w: price %q", ErrMalformedListing, price)
	}

	if p.Status == StatusRent {
		deposit := cellText(plate, ".col-7 li:nth-child(2)")
		if v, err := amount(firstWord(deposit)); err == nil {
			p.DepositAmount = &v
		}
	}

	areaRow := ".col-5 li:nth-child(3)"
	if builtUpTypes[p.Type] {
		areaRow = ".col-5 li:nth-child(2)"
	}
	area := cellText(plate, areaRow)
	if p.Area, err = strconv.Atoi(firstWord(area)); err != nil {
		return p, fmt.Errorf("%w: area %q", ErrMalformedListing, area)
	}

	if p.Type != TypeOldHouse {
		if v, err := strconv.Atoi(lastWord(cellText(plate, ".col-5 li:nth-child(4)"))); err == nil {
			p.YearBuilt = &v
		}
	}

	return p, nil
}

func cellText(s *goquery.Selection, selector string) string {
	return strings.TrimSpace(s.Find(selector).First().Text())
}

// amount parses a number with thousands separators.
func amount(s string) (int, error) {
	return strconv.Atoi(strings.ReplaceAll(s, ",", ""))
}

func firstWord(s string) string {
	word, _, _ := strings.Cut(s, " ")
	return word
}

// lastWord returns the text after the last space, or "" if there is none.
func lastWord(s string) string {
	i := strings.LastIndex(s, " ")
	if i < 0 {
		return ""
	}
	return s[i+1:]
}
