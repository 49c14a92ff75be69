package cache

import (
	"net/url"
	"testing"
)

func TestPageKey_String(t *testing.T) {
	tests := []struct {
		name string
		key  PageKey
		want string
	}{
		{
			name: "host only",
			key:  PageKey{Host: "ariamarz.com"},
			want: "listing:ariamarz.com",
		},
		{
			name: "host and path",
			key:  PageKey{Host: "ariamarz.com", Path: "/buy-apartment/tehran/"},
			want: "listing:ariamarz.com/buy-apartment/tehran",
		},
		{
			name: "query params sorted",
			key: PageKey{
				Host:  "ariamarz.com",
				Path:  "/rent-villa/shiraz",
				Query: url.Values{"page": []string{"3"}, "in": []string{""}},
			},
			want: "listing:ariamarz.com/rent-villa/shiraz:in=:page=3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.String(); got != tt.want {
				t.Errorf("PageKey.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKeyForURL(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{
			name: "page url",
			raw:  "https://www.ariamarz.com/buy-apartment/tehran?in=&page=2",
			want: "listing:ariamarz.com/buy-apartment/tehran:in=:page=2",
		},
		{
			name: "www and scheme do not matter",
			raw:  "http://ARIAMARZ.com/buy-apartment/tehran?page=2&in=",
			want: "listing:ariamarz.com/buy-apartment/tehran:in=:page=2",
		},
		{
			name:    "no host",
			raw:     "/buy-apartment/tehran?page=2",
			wantErr: true,
		},
		{
			name:    "unparsable",
			raw:     "http://[::1",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := KeyForURL(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("KeyForURL() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got := key.String(); got != tt.want {
				t.Errorf("KeyForURL().String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKeyForURL_DistinctPages(t *testing.T) {
	a, _ := KeyForURL("https://www.ariamarz.com/buy-apartment/tehran?in=&page=1")
	b, _ := KeyForURL("https://www.ariamarz.com/buy-apartment/tehran?in=&page=2")
	if a.String() == b.String() {
		t.Errorf("pages 1 and 2 share key %q", a.String())
	}
}
