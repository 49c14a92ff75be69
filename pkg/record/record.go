// Package record defines the ordered record shape shared by the listing
// fetcher and the sinks.
package record

import (
	"fmt"
	"strconv"
)

// Field is a single named value.
type Field struct {
	Name  string
	Value any
}

// Record is an ordered sequence of fields. Order is preserved so a sink can
// derive its header from the first record it writes.
type Record []Field

// Names returns the field names in order.
func (r Record) Names() []string {
	names := make([]string, len(r))
	for i, f := range r {
		names[i] = f.Name
	}
	return names
}

// Get returns the value of the named field.
func (r Record) Get(name string) (any, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Strings returns the canonical string form of every value, in order.
func (r Record) Strings() []string {
	out := make([]string, len(r))
	for i, f := range r {
		out[i] = Format(f.Value)
	}
	return out
}

// Format renders a field value. Nil and nil pointers render as "".
func Format(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case *int:
		if val == nil {
			return ""
		}
		return strconv.Itoa(*val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}
