// Package pipeline orchestrates the book ingestion sequence:
// cover photo -> vision extraction -> metadata enrichment -> record store.
// Either a fully validated record is persisted or nothing is.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/lepinkainen/bookshelf/internal/bookstore"
	"github.com/lepinkainen/bookshelf/internal/enrichment"
	"github.com/lepinkainen/bookshelf/internal/fileutil"
	"github.com/lepinkainen/bookshelf/internal/vision"
)

// maxImageDimension is the longest edge sent to the vision model.
// Larger photos are downscaled before extraction.
const maxImageDimension = 2048

// Extractor produces a draft record from raw image bytes.
type Extractor interface {
	Extract(ctx context.Context, imageData []byte, mimeType string) (*vision.DraftFields, error)
}

// Enricher augments a title/author pair with bibliographic fields.
// Implementations never fail; a dead source yields empty Fields.
type Enricher interface {
	Enrich(ctx context.Context, title, author string) enrichment.Fields
}

// AwardsFunc looks up major literary awards for a book. Optional and
// best-effort; errors are absorbed.
type AwardsFunc func(ctx context.Context, title, author, published string) (string, error)

// recordCreator is the slice of the store the pipeline needs.
type recordCreator interface {
	Create(ctx context.Context, book *bookstore.Book) (*bookstore.Book, error)
}

// Pipeline wires the ingestion collaborators together.
type Pipeline struct {
	extractor Extractor
	enricher  Enricher
	store     recordCreator
	awards    AwardsFunc
	now       func() time.Time
}

// Option customizes the pipeline.
type Option func(*Pipeline)

// WithAwards enables the best-effort awards lookup after the merge.
func WithAwards(awards AwardsFunc) Option {
	return func(p *Pipeline) {
		p.awards = awards
	}
}

// WithClock overrides the date_entered clock. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// New builds an ingestion pipeline.
func New(extractor Extractor, enricher Enricher, store recordCreator, opts ...Option) *Pipeline {
	p := &Pipeline{
		extractor: extractor,
		enricher:  enricher,
		store:     store,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Ingest runs a single cover photo through the pipeline and returns
// the persisted record with its assigned id.
func (p *Pipeline) Ingest(ctx context.Context, imagePath string) (*bookstore.Book, error) {
	imageData, mimeType, err := fileutil.ReadImage(imagePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &Error{Kind: FileNotFound, Err: err}
		}
		return nil, &Error{Kind: ReadFailure, Err: err}
	}
	imageData, mimeType = fileutil.DownscaleIfLarge(imageData, mimeType, maxImageDimension)

	slog.Info("Analyzing cover photo", "path", imagePath)
	draft, err := p.extractor.Extract(ctx, imageData, mimeType)
	if err != nil {
		if vision.IsKind(err, vision.MissingRequiredField) {
			return nil, &Error{Kind: InsufficientData, Err: err}
		}
		return nil, &Error{Kind: ExtractionFailed, Err: err}
	}
	slog.Info("Extracted", "title", draft.Title, "author", draft.Author)

	fields := p.enricher.Enrich(ctx, draft.Title, draft.Author)
	book := merge(draft, fields)

	if p.awards != nil {
		awards, err := p.awards(ctx, draft.Title, draft.Author, draft.DatePublished)
		if err != nil {
			slog.Debug("Awards lookup failed", "title", draft.Title, "error", err)
		} else if awards != "" {
			book.MajorAwards = &awards
		}
	}

	book.DateEntered = p.now().UTC()
	if abs, err := filepath.Abs(imagePath); err == nil {
		book.ImagePath = &abs
	} else {
		path := imagePath
		book.ImagePath = &path
	}

	// The extractor guarantees title and author, but persistence is
	// the last line of defense: an invalid record is never stored.
	if book.Title == "" || book.Author == "" {
		return nil, &Error{Kind: InsufficientData, Err: fmt.Errorf("draft lost required fields")}
	}

	stored, err := p.store.Create(ctx, book)
	if err != nil {
		return nil, &Error{Kind: PersistenceFailed, Err: err}
	}
	return stored, nil
}
