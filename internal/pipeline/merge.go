package pipeline

import (
	"regexp"

	"github.com/lepinkainen/bookshelf/internal/bookstore"
	"github.com/lepinkainen/bookshelf/internal/enrichment"
	"github.com/lepinkainen/bookshelf/internal/vision"
)

var yearPattern = regexp.MustCompile(`\b\d{4}\b`)

// merge combines the extractor's draft with the enrichment fields.
//
// The extractor wins for title, author, genre, summary and series: the
// vision model saw the physical object. The enrichment-exclusive
// fields (isbn, page count, publisher) are added whenever present.
// date_published is the asymmetric case: the bibliographic service has
// cleaner structured dates, so its value replaces the extractor's when
// the extractor had none or the enricher's is strictly more specific.
func merge(draft *vision.DraftFields, fields enrichment.Fields) *bookstore.Book {
	book := &bookstore.Book{
		Title:  draft.Title,
		Author: draft.Author,
	}

	book.Genre = optional(draft.Genre)
	book.Summary = optional(draft.Summary)
	book.Series = optional(draft.Series)

	book.ISBN = fields.ISBN
	book.PageCount = fields.PageCount
	book.Publisher = fields.Publisher

	book.DatePublished = mergeDate(optional(draft.DatePublished), fields.DatePublished)

	return book
}

// mergeDate picks between the extractor's and the enricher's
// publication date. The enricher wins only when the extractor had no
// value or the enricher's is strictly more specific; ties keep the
// extractor's.
func mergeDate(extracted, enriched *string) *string {
	if enriched == nil {
		return extracted
	}
	if extracted == nil {
		return enriched
	}
	if moreSpecific(*enriched, *extracted) {
		return enriched
	}
	return extracted
}

// moreSpecific reports whether candidate carries strictly more date
// information than current: it is longer, or it contains a 4-digit
// year that current lacks.
func moreSpecific(candidate, current string) bool {
	if len(candidate) > len(current) {
		return true
	}
	return yearPattern.MatchString(candidate) && !yearPattern.MatchString(current)
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
