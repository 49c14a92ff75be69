package sink

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sternrassler/listing-crawler/pkg/record"
)

func intPtr(v int) *int { return &v }

func saleRecord(id int) record.Record {
	return record.Record{
		{Name: "id", Value: id},
		{Name: "city", Value: "tehran"},
		{Name: "status", Value: "buy"},
		{Name: "type", Value: "apartment"},
		{Name: "price", Value: 4_500_000_000},
		{Name: "area", Value: 90},
		{Name: "year_built", Value: intPtr(1399)},
	}
}

func rentRecord(id int) record.Record {
	return record.Record{
		{Name: "id", Value: id},
		{Name: "city", Value: "shiraz"},
		{Name: "status", Value: "rent"},
		{Name: "type", Value: "office"},
		{Name: "price", Value: 12_000_000},
		{Name: "deposit-amount", Value: (*int)(nil)},
		{Name: "area", Value: 60},
		{Name: "year_built", Value: (*int)(nil)},
	}
}

func TestWrite_Validation(t *testing.T) {
	dir := t.TempDir()
	data := []record.Record{saleRecord(1)}

	tests := []struct {
		name    string
		target  string
		data    []record.Record
		mode    Mode
		wantErr error
	}{
		{"empty target", "", data, Append, ErrEmptyTarget},
		{"blank target", "   ", data, Append, ErrEmptyTarget},
		{"extension only", filepath.Join(dir, ".csv"), data, Append, ErrEmptyTarget},
		{"unsupported format", filepath.Join(dir, "out.json"), data, Append, ErrUnsupportedFormat},
		{"no extension", filepath.Join(dir, "out"), data, Append, ErrUnsupportedFormat},
		{"no data", filepath.Join(dir, "out.csv"), nil, Append, ErrEmptyData},
		{"invalid mode", filepath.Join(dir, "out.csv"), data, Mode(7), ErrInvalidMode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Write(tt.target, tt.data, tt.mode)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestWrite_RoundTrip(t *testing.T) {
	for _, format := range Formats {
		t.Run(format, func(t *testing.T) {
			target := filepath.Join(t.TempDir(), "data."+format)

			require.NoError(t, Write(target, []record.Record{rentRecord(1), rentRecord(2)}, Append))
			require.NoError(t, Write(target, []record.Record{rentRecord(3)}, Append))

			rows, header, err := Read(target)
			require.NoError(t, err)

			wantHeader := []string{"id", "city", "status", "type", "price", "deposit-amount", "area", "year_built"}
			if diff := cmp.Diff(wantHeader, header); diff != "" {
				t.Errorf("header mismatch (-want +got):\n%s", diff)
			}

			want := make([]map[string]string, 0, 3)
			for _, id := range []string{"1", "2", "3"} {
				want = append(want, map[string]string{
					"id": id, "city": "shiraz", "status": "rent", "type": "office",
					"price": "12000000", "deposit-amount": "", "area": "60", "year_built": "",
				})
			}
			if diff := cmp.Diff(want, rows); diff != "" {
				t.Errorf("rows mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWrite_Overwrite(t *testing.T) {
	for _, format := range Formats {
		t.Run(format, func(t *testing.T) {
			target := filepath.Join(t.TempDir(), "data."+format)

			require.NoError(t, Write(target, []record.Record{rentRecord(1), rentRecord(2)}, Append))
			require.NoError(t, Write(target, []record.Record{saleRecord(9)}, Overwrite))

			rows, header, err := Read(target)
			require.NoError(t, err)

			assert.Equal(t, saleRecord(9).Names(), header)
			require.Len(t, rows, 1)
			assert.Equal(t, "9", rows[0]["id"])
			assert.Equal(t, "4500000000", rows[0]["price"])
			assert.Equal(t, "1399", rows[0]["year_built"])
		})
	}
}

func TestWrite_HeaderOnceAcrossBatches(t *testing.T) {
	target := filepath.Join(t.TempDir(), "data.csv")

	for id := 1; id <= 3; id++ {
		require.NoError(t, Write(target, []record.Record{saleRecord(id)}, Append))
	}

	content, err := os.ReadFile(target)
	require.NoError(t, err)

	want := "id,city,status,type,price,area,year_built\n" +
		"1,tehran,buy,apartment,4500000000,90,1399\n" +
		"2,tehran,buy,apartment,4500000000,90,1399\n" +
		"3,tehran,buy,apartment,4500000000,90,1399\n"
	assert.Equal(t, want, string(content))
}

func TestWrite_AppendsToEmptyExistingFile(t *testing.T) {
	target := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(target, nil, 0o644))

	require.NoError(t, Write(target, []record.Record{saleRecord(1)}, Append))

	_, header, err := Read(target)
	require.NoError(t, err)
	assert.Equal(t, saleRecord(1).Names(), header)
}

func TestRead_Missing(t *testing.T) {
	for _, format := range Formats {
		_, _, err := Read(filepath.Join(t.TempDir(), "missing."+format))
		assert.ErrorIs(t, err, os.ErrNotExist, format)
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"a", Append, false},
		{"append", Append, false},
		{"W", Overwrite, false},
		{"overwrite", Overwrite, false},
		{"x", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseMode(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestMode_String(t *testing.T) {
	assert.Equal(t, "append", Append.String())
	assert.Equal(t, "overwrite", Overwrite.String())
	assert.Equal(t, "Mode(5)", Mode(5).String())
}
