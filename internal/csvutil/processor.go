// Package csvutil provides a small generic CSV reader.
package csvutil

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// ReadOptions configures CSV reading behavior.
type ReadOptions struct {
	// FieldsPerRecord sets the expected number of fields per record.
	// If 0, it's taken from the first record.
	FieldsPerRecord int

	// SkipInvalid controls whether malformed records are skipped with
	// a warning or returned as an error.
	SkipInvalid bool
}

// ReadCSV reads a CSV file, skips the header row and parses each
// record into type T via the parser function.
func ReadCSV[T any](filename string, parser func([]string) (T, error), opts ReadOptions) ([]T, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open CSV file: %w", err)
	}
	defer func() { _ = file.Close() }()

	if fi, err := file.Stat(); err != nil || fi.Size() == 0 {
		return nil, fmt.Errorf("CSV file is empty or cannot be read")
	}

	reader := csv.NewReader(file)
	if opts.FieldsPerRecord > 0 {
		reader.FieldsPerRecord = opts.FieldsPerRecord
	}

	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	var items []T
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			if opts.SkipInvalid {
				slog.Warn("Skipping malformed record", "error", err)
				continue
			}
			return nil, fmt.Errorf("read record: %w", err)
		}

		item, err := parser(record)
		if err != nil {
			if opts.SkipInvalid {
				slog.Warn("Skipping invalid record", "error", err)
				continue
			}
			return nil, fmt.Errorf("invalid record: %w", err)
		}
		items = append(items, item)
	}

	return items, nil
}
