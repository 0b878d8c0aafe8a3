// Package enrichment augments extracted book drafts with bibliographic
// data from the Google Books volumes API. Enrichment is strictly
// best-effort: a missing or failing metadata source must never block a
// user from recording a book they physically photographed.
package enrichment

// Fields holds the enrichment-exclusive metadata plus a possibly more
// precise publication date. Nil means the source had nothing.
type Fields struct {
	ISBN          *string
	PageCount     *int64
	Publisher     *string
	DatePublished *string
}

// Empty reports whether no field was found.
func (f Fields) Empty() bool {
	return f.ISBN == nil && f.PageCount == nil && f.Publisher == nil && f.DatePublished == nil
}

// Match is a single search hit from the metadata service, in the
// service's own ranking order.
type Match struct {
	Title         string
	Authors       []string
	Publisher     string
	DatePublished string
	PageCount     int64
	ISBN          string
	Description   string
}

// Fields converts the match into the enrichment field set.
func (m *Match) Fields() Fields {
	var fields Fields
	if m.ISBN != "" {
		isbn := m.ISBN
		fields.ISBN = &isbn
	}
	if m.PageCount > 0 {
		pages := m.PageCount
		fields.PageCount = &pages
	}
	if m.Publisher != "" {
		publisher := m.Publisher
		fields.Publisher = &publisher
	}
	if m.DatePublished != "" {
		date := m.DatePublished
		fields.DatePublished = &date
	}
	return fields
}
