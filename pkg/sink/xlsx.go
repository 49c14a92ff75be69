package sink

import (
	"errors"
	"io/fs"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/Sternrassler/listing-crawler/pkg/record"
)

func writeXLSX(path string, data []record.Record, mode Mode) (err error) {
	var f *excelize.File
	if mode == Append {
		f, err = excelize.OpenFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			f, err = excelize.NewFile(), nil
		}
		if err != nil {
			return err
		}
	} else {
		f = excelize.NewFile()
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	rows, err := f.GetRows(sheet)
	if err != nil {
		return err
	}

	next := len(rows) + 1
	if len(rows) == 0 {
		if err := setRow(f, sheet, 1, stringsToCells(data[0].Names())); err != nil {
			return err
		}
		next = 2
	}

	for _, rec := range data {
		cells := make([]any, len(rec))
		for i, field := range rec {
			cells[i] = cellValue(field.Value)
		}
		if err := setRow(f, sheet, next, cells); err != nil {
			return err
		}
		next++
	}

	return f.SaveAs(path)
}

func setRow(f *excelize.File, sheet string, row int, cells []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &cells)
}

// cellValue keeps numbers numeric and leaves missing values blank.
func cellValue(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case *int:
		if val == nil {
			return nil
		}
		return *val
	case string, int, int64, float64, bool:
		return val
	default:
		return record.Format(val)
	}
}

func stringsToCells(values []string) []any {
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}

func readXLSX(path string) ([][]string, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return f.GetRows(f.GetSheetName(f.GetActiveSheetIndex()), excelize.Options{RawCellValue: true})
}
