// Package bookstore owns the persistent book catalog: a single SQLite
// table exposed through explicit create/read/update/delete, search,
// aggregate and export operations.
package bookstore

import (
	"time"
)

// Book is the sole persisted entity. Pointer fields distinguish
// "not set" from an empty value; only Title and Author are required.
type Book struct {
	// ID is the store-assigned surrogate key, set once at creation.
	ID int64

	Title  string
	Author string

	Genre         *string
	Summary       *string
	DatePublished *string

	// DateEntered is stamped at creation and never mutated afterwards.
	DateEntered time.Time

	Series         *string
	GoodreadsScore *float64
	MajorAwards    *string
	ImagePath      *string
	ISBN           *string
	PageCount      *int64
	Publisher      *string
}

// Stats aggregates the catalog. AverageScore and the date range are
// nil on an empty store rather than zero values.
type Stats struct {
	TotalCount     int64
	DistinctGenres int64
	AverageScore   *float64
	EarliestEntry  *time.Time
	LatestEntry    *time.Time
}

// CSVHeader is the fixed column order used by export. It matches the
// table attribute list exactly.
var CSVHeader = []string{
	"id",
	"title",
	"author",
	"genre",
	"summary",
	"date_published",
	"date_entered",
	"part_of_series",
	"goodreads_score",
	"major_awards",
	"image_path",
	"isbn",
	"page_count",
	"publisher",
}
