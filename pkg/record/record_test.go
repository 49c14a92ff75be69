package record

import (
	"testing"
)

func TestRecord_NamesAndStrings(t *testing.T) {
	deposit := 250
	r := Record{
		{Name: "id", Value: 42},
		{Name: "city", Value: "tehran"},
		{Name: "deposit-amount", Value: &deposit},
		{Name: "year_built", Value: (*int)(nil)},
	}

	names := r.Names()
	wantNames := []string{"id", "city", "deposit-amount", "year_built"}
	for i := range wantNames {
		if names[i] != wantNames[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, names[i], wantNames[i])
		}
	}

	values := r.Strings()
	wantValues := []string{"42", "tehran", "250", ""}
	for i := range wantValues {
		if values[i] != wantValues[i] {
			t.Errorf("Strings()[%d] = %q, want %q", i, values[i], wantValues[i])
		}
	}
}

func TestRecord_Get(t *testing.T) {
	r := Record{{Name: "price", Value: 1000}}

	v, ok := r.Get("price")
	if !ok || v != 1000 {
		t.Errorf("Get(price) = %v, %v", v, ok)
	}
	if _, ok := r.Get("area"); ok {
		t.Error("Get(area) should report missing field")
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"x", "x"},
		{int64(7), "7"},
		{1.5, "1.5"},
		{true, "true"},
		{uint(3), "3"},
	}

	for _, tt := range tests {
		if got := Format(tt.in); got != tt.want {
			t.Errorf("Format(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
