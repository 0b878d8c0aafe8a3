package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/lepinkainen/bookshelf/internal/bookstore"
)

const (
	titleColumnWidth  = 40
	authorColumnWidth = 25
)

// renderBookTable renders a compact catalog table for list and search.
func renderBookTable(books []bookstore.Book) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	tw.AppendHeader(table.Row{"ID", "Title", "Author", "Genre", "Published", "Score", "Entered"})

	for _, book := range books {
		tw.AppendRow(table.Row{
			book.ID,
			truncateCell(book.Title, titleColumnWidth),
			truncateCell(book.Author, authorColumnWidth),
			cellOrDash(book.Genre),
			cellOrDash(book.DatePublished),
			scoreCell(book.GoodreadsScore),
			book.DateEntered.Format("2006-01-02"),
		})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})

	return tw.Render()
}

func truncateCell(value string, width int) string {
	if len(value) <= width {
		return value
	}
	if width <= 3 {
		return value[:width]
	}
	return value[:width-3] + "..."
}

func cellOrDash(value *string) string {
	if value == nil || *value == "" {
		return "-"
	}
	return *value
}

func scoreCell(score *float64) string {
	if score == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f/5", *score)
}

// formatBook renders the full detail block for a single record, used
// after a successful add and for search detail output.
func formatBook(book *bookstore.Book) string {
	var b strings.Builder

	fmt.Fprintf(&b, "ID:        %d\n", book.ID)
	fmt.Fprintf(&b, "Title:     %s\n", book.Title)
	fmt.Fprintf(&b, "Author:    %s\n", book.Author)
	writeOptional(&b, "Genre", book.Genre)
	writeOptional(&b, "Series", book.Series)
	writeOptional(&b, "Published", book.DatePublished)
	writeOptional(&b, "Publisher", book.Publisher)
	writeOptional(&b, "ISBN", book.ISBN)
	if book.PageCount != nil {
		fmt.Fprintf(&b, "Pages:     %d\n", *book.PageCount)
	}
	if book.GoodreadsScore != nil {
		fmt.Fprintf(&b, "Score:     %.1f/5\n", *book.GoodreadsScore)
	}
	writeOptional(&b, "Awards", book.MajorAwards)
	if book.Summary != nil && *book.Summary != "" {
		fmt.Fprintf(&b, "Summary:   %s\n", truncateCell(*book.Summary, 200))
	}
	fmt.Fprintf(&b, "Entered:   %s\n", book.DateEntered.Format(time.RFC3339))

	return b.String()
}

func writeOptional(b *strings.Builder, label string, value *string) {
	if value == nil || *value == "" {
		return
	}
	fmt.Fprintf(b, "%-10s %s\n", label+":", *value)
}

// formatStats renders the aggregate statistics block.
func formatStats(stats *bookstore.Stats) string {
	var b strings.Builder

	b.WriteString("Library statistics\n")
	b.WriteString("==================\n")
	fmt.Fprintf(&b, "Total books:     %d\n", stats.TotalCount)
	fmt.Fprintf(&b, "Distinct genres: %d\n", stats.DistinctGenres)
	if stats.AverageScore != nil {
		fmt.Fprintf(&b, "Average score:   %.2f/5\n", *stats.AverageScore)
	} else {
		b.WriteString("Average score:   n/a\n")
	}
	if stats.EarliestEntry != nil && stats.LatestEntry != nil {
		fmt.Fprintf(&b, "First entry:     %s\n", stats.EarliestEntry.Format("2006-01-02"))
		fmt.Fprintf(&b, "Latest entry:    %s\n", stats.LatestEntry.Format("2006-01-02"))
	}

	return b.String()
}
