// Package listing fetches and parses listing pages of the property site. It
// provides the pagination.Source the crawler schedules.
package listing

import (
	"github.com/Sternrassler/listing-crawler/pkg/record"
)

// Status and type labels produced by the parser.
const (
	StatusBuy  = "buy"
	StatusRent = "rent"

	TypeApartment  = "apartment"
	TypeCommercial = "commercial"
	TypeVilla      = "villa"
	TypeOffice     = "office"
	TypeIndustrial = "industrial"
	TypeOldHouse   = "old house"
)

// Property is one listing on a page.
type Property struct {
	ID     int
	City   string
	Status string
	Type   string
	Price  int

	// DepositAmount is only set for rentals; nil when the deposit is not a number.
	DepositAmount *int

	Area int

	// YearBuilt is never set for old houses; nil when not given.
	YearBuilt *int
}

// Record converts p to an ordered record:
// id, city, status, type, price, [deposit-amount], area, [year_built].
func (p Property) Record() record.Record {
	rec := record.Record{
		{Name: "id", Value: p.ID},
		{Name: "city", Value: p.City},
		{Name: "status", Value: p.Status},
		{Name: "type", Value: p.Type},
		{Name: "price", Value: p.Price},
	}
	if p.Status == StatusRent {
		rec = append(rec, record.Field{Name: "deposit-amount", Value: p.DepositAmount})
	}
	rec = append(rec, record.Field{Name: "area", Value: p.Area})
	if p.Type != TypeOldHouse {
		rec = append(rec, record.Field{Name: "year_built", Value: p.YearBuilt})
	}
	return rec
}

// Records converts a page of properties.
func Records(props []Property) []record.Record {
	out := make([]record.Record, len(props))
	for i, p := range props {
		out[i] = p.Record()
	}
	return out
}

// labels maps the site's Persian labels to status and type names.
var labels = map[string]string{
	"خرید و فروش":                  StatusBuy,
	"رهن و اجاره":                  StatusRent,
	"آپارتمان":                     TypeApartment,
	"مغازه و تجاری":                TypeCommercial,
	"خانه ویلایی حیاط دار":         TypeVilla,
	"خانه حیاط دار ویلایی":         TypeVilla,
	"ویلا، خانه ویلایی و باغ ویلا": TypeVilla,
	"دفتر کار و اداری":             TypeOffice,
	"صنعتی، کشاورزی":               TypeIndustrial,
	"زمین و کلنگی":                 TypeOldHouse,
}

// Label returns the English name for a site label.
func Label(fa string) (string, bool) {
	en, ok := labels[fa]
	return en, ok
}

// builtUpTypes list their area in the second column row; the others in the third.
var builtUpTypes = map[string]bool{
	TypeApartment:  true,
	TypeCommercial: true,
	TypeVilla:      true,
	TypeOffice:     true,
}
