package pipeline

import (
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/lepinkainen/bookshelf/internal/enrichment"
	"github.com/lepinkainen/bookshelf/internal/vision"
)

func strptr(s string) *string { return &s }

func TestMergeExtractorWinsCoreFields(t *testing.T) {
	draft := &vision.DraftFields{
		Title:   "Original Title",
		Author:  "Original Author",
		Genre:   "Fantasy",
		Summary: "A summary.",
		Series:  "Trilogy",
	}
	isbn := "9780000000001"
	publisher := "Some House"

	book := merge(draft, enrichment.Fields{ISBN: &isbn, Publisher: &publisher})

	assert.Equal(t, "Original Title", book.Title)
	assert.Equal(t, "Original Author", book.Author)
	assert.Equal(t, "Fantasy", *book.Genre)
	assert.Equal(t, "A summary.", *book.Summary)
	assert.Equal(t, "Trilogy", *book.Series)
	assert.Equal(t, "9780000000001", *book.ISBN)
	assert.Equal(t, "Some House", *book.Publisher)
}

func TestMergeAbsentDraftFieldsStayNil(t *testing.T) {
	draft := &vision.DraftFields{Title: "T", Author: "A"}
	book := merge(draft, enrichment.Fields{})

	assert.Zero(t, book.Genre)
	assert.Zero(t, book.Summary)
	assert.Zero(t, book.Series)
	assert.Zero(t, book.ISBN)
	assert.Zero(t, book.PageCount)
	assert.Zero(t, book.Publisher)
	assert.Zero(t, book.DatePublished)
}

func TestMergeDate(t *testing.T) {
	tests := []struct {
		name      string
		extracted *string
		enriched  *string
		want      *string
	}{
		{"both absent", nil, nil, nil},
		{"only extracted", strptr("2001"), nil, strptr("2001")},
		{"only enriched", nil, strptr("2001-03-01"), strptr("2001-03-01")},
		{"enriched more specific", strptr("2001"), strptr("March 2001"), strptr("March 2001")},
		{"extracted more specific", strptr("March 2001"), strptr("2001"), strptr("March 2001")},
		{"tie keeps extracted", strptr("1965"), strptr("2003"), strptr("1965")},
		{"year beats yearless", strptr("spring"), strptr("1990"), strptr("1990")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mergeDate(tt.extracted, tt.enriched)
			if tt.want == nil {
				assert.Zero(t, got)
				return
			}
			assert.NotZero(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

func TestMoreSpecific(t *testing.T) {
	assert.True(t, moreSpecific("March 2001", "2001"))
	assert.False(t, moreSpecific("2001", "March 2001"))
	assert.True(t, moreSpecific("1990", "spring"))
	assert.False(t, moreSpecific("2003", "1965"))
	assert.False(t, moreSpecific("abcd", "1965"))
}
