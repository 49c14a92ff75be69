package sink

import (
	"encoding/csv"
	"errors"
	"io"
	"os"

	"github.com/Sternrassler/listing-crawler/pkg/record"
)

func writeCSV(path string, data []record.Record, mode Mode) (err error) {
	flags := os.O_WRONLY | os.O_CREATE | os.O_APPEND
	if mode == Overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}

	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(data[0].Names()); err != nil {
			return err
		}
	}
	for _, rec := range data {
		if err := w.Write(rec.Strings()); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var table [][]string
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			return table, nil
		}
		if err != nil {
			return nil, err
		}
		table = append(table, row)
	}
}
