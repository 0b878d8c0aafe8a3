package enrichment

import (
	"context"
	"log/slog"
)

// interactiveSearchLimit is how many candidate editions the picker shows.
const interactiveSearchLimit = 5

// SelectFunc presents candidate matches to the user and returns the
// chosen one, or nil to skip enrichment for this book.
type SelectFunc func(title string, matches []Match) (*Match, error)

// InteractiveEnricher wraps the Google Books client with a user-driven
// match selection instead of first-match-wins. Like all enrichment it
// never fails the pipeline: errors and a declined selection both
// degrade to an empty field set.
type InteractiveEnricher struct {
	client *GoogleBooksClient
	sel    SelectFunc
}

// NewInteractiveEnricher wires a selection callback over the client.
func NewInteractiveEnricher(client *GoogleBooksClient, sel SelectFunc) *InteractiveEnricher {
	return &InteractiveEnricher{client: client, sel: sel}
}

// Enrich searches for candidate editions and lets the user pick one.
// A single match is used directly without prompting.
func (e *InteractiveEnricher) Enrich(ctx context.Context, title, author string) Fields {
	matches, err := e.client.Search(ctx, title, author, interactiveSearchLimit)
	if err != nil {
		slog.Debug("Enrichment lookup failed", "title", title, "author", author, "error", err)
		return Fields{}
	}
	switch len(matches) {
	case 0:
		return Fields{}
	case 1:
		return matches[0].Fields()
	}

	chosen, err := e.sel(title, matches)
	if err != nil {
		slog.Warn("Match selection failed, skipping enrichment", "error", err)
		return Fields{}
	}
	if chosen == nil {
		slog.Debug("Enrichment match skipped by user", "title", title)
		return Fields{}
	}
	return chosen.Fields()
}
