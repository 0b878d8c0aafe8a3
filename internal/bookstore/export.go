package bookstore

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

// ExportCSV writes every record to path as comma-separated rows with
// the fixed CSVHeader, overwriting an existing file. encoding/csv
// quotes fields containing the delimiter or line breaks. Returns the
// number of data rows written.
func (s *Store) ExportCSV(ctx context.Context, path string) (int, error) {
	books, err := s.ListAll(ctx, "id", true)
	if err != nil {
		return 0, err
	}

	file, err := os.Create(path)
	if err != nil {
		return 0, ioFailure(fmt.Errorf("create export file: %w", err))
	}
	defer func() { _ = file.Close() }()

	writer := csv.NewWriter(file)
	if err := writer.Write(CSVHeader); err != nil {
		return 0, ioFailure(err)
	}

	for _, book := range books {
		if err := writer.Write(csvRow(&book)); err != nil {
			return 0, ioFailure(err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return 0, ioFailure(err)
	}
	if err := file.Close(); err != nil {
		return 0, ioFailure(err)
	}
	return len(books), nil
}

func csvRow(book *Book) []string {
	return []string{
		strconv.FormatInt(book.ID, 10),
		book.Title,
		book.Author,
		optional(book.Genre),
		optional(book.Summary),
		optional(book.DatePublished),
		book.DateEntered.UTC().Format(timeLayout),
		optional(book.Series),
		optionalFloat(book.GoodreadsScore),
		optional(book.MajorAwards),
		optional(book.ImagePath),
		optional(book.ISBN),
		optionalInt(book.PageCount),
		optional(book.Publisher),
	}
}

func optional(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func optionalFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func optionalInt(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}
