// Package sink persists crawled records to CSV or XLSX files.
//
// The header is taken from the first record written to a new (or
// overwritten) file. Appending to an existing file adds rows below the
// existing header.
package sink

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/listing-crawler/pkg/record"
)

// Errors returned by Write and Read.
var (
	ErrEmptyTarget       = errors.New("sink: empty target file name")
	ErrEmptyData         = errors.New("sink: no records to write")
	ErrUnsupportedFormat = errors.New("sink: unsupported file format")
	ErrInvalidMode       = errors.New("sink: invalid write mode")
)

// Mode selects how Write treats an existing file.
type Mode int

const (
	// Append adds rows to an existing file and creates it when missing.
	Append Mode = iota

	// Overwrite replaces any existing file.
	Overwrite
)

// String returns the mode's short name.
func (m Mode) String() string {
	switch m {
	case Append:
		return "append"
	case Overwrite:
		return "overwrite"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode accepts "a"/"append" and "w"/"overwrite".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "a", "append":
		return Append, nil
	case "w", "overwrite":
		return Overwrite, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// Formats lists the supported file extensions without the dot.
var Formats = []string{"csv", "xlsx"}

var sinkRowsWrittenTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "sink_rows_written_total",
	Help: "Records written to output files by format",
}, []string{"format"})

// Write stores data in target. The format follows the target's extension.
func Write(target string, data []record.Record, mode Mode) error {
	path, format, err := resolve(target)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return ErrEmptyData
	}
	if mode != Append && mode != Overwrite {
		return fmt.Errorf("%w: %v", ErrInvalidMode, mode)
	}

	switch format {
	case "csv":
		err = writeCSV(path, data, mode)
	case "xlsx":
		err = writeXLSX(path, data, mode)
	}
	if err != nil {
		log.Error().Err(err).Str("file", path).Msg("Failed to write records")
		return fmt.Errorf("write %s: %w", path, err)
	}

	sinkRowsWrittenTotal.WithLabelValues(format).Add(float64(len(data)))
	log.Debug().Str("file", path).Int("rows", len(data)).Str("mode", mode.String()).Msg("Records written")
	return nil
}

// Read loads a file written by Write. Rows are keyed by header name.
func Read(target string) ([]map[string]string, []string, error) {
	path, format, err := resolve(target)
	if err != nil {
		return nil, nil, err
	}

	var table [][]string
	switch format {
	case "csv":
		table, err = readCSV(path)
	case "xlsx":
		table, err = readXLSX(path)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(table) == 0 {
		return nil, nil, nil
	}

	header := table[0]
	rows := make([]map[string]string, 0, len(table)-1)
	for _, cells := range table[1:] {
		row := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(cells) {
				row[name] = cells[i]
			} else {
				row[name] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, header, nil
}

// resolve validates target and returns the cleaned path and format.
func resolve(target string) (string, string, error) {
	path := strings.TrimSpace(target)
	if path == "" {
		return "", "", ErrEmptyTarget
	}

	ext := filepath.Ext(path)
	format := strings.ToLower(strings.TrimPrefix(ext, "."))
	if format != "csv" && format != "xlsx" {
		return "", "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if strings.TrimSuffix(filepath.Base(path), ext) == "" {
		return "", "", ErrEmptyTarget
	}
	return path, format, nil
}
