package pipeline

import (
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepinkainen/bookshelf/internal/bookstore"
	"github.com/lepinkainen/bookshelf/internal/enrichment"
	"github.com/lepinkainen/bookshelf/internal/vision"
)

type fakeExtractor struct {
	draft *vision.DraftFields
	err   error
	calls int
}

func (f *fakeExtractor) Extract(ctx context.Context, imageData []byte, mimeType string) (*vision.DraftFields, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.draft, nil
}

type fakeEnricher struct {
	fields enrichment.Fields
	calls  int
}

func (f *fakeEnricher) Enrich(ctx context.Context, title, author string) enrichment.Fields {
	f.calls++
	return f.fields
}

type fakeStore struct {
	created *bookstore.Book
	err     error
}

func (f *fakeStore) Create(ctx context.Context, book *bookstore.Book) (*bookstore.Book, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = book
	stored := *book
	stored.ID = 7
	return &stored, nil
}

// writeTestImage writes a small valid PNG and returns its path.
func writeTestImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cover.png")
	file, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(file, image.NewRGBA(image.Rect(0, 0, 8, 8))))
	require.NoError(t, file.Close())
	return path
}

func draftFields() *vision.DraftFields {
	return &vision.DraftFields{
		Title:         "The Dispossessed",
		Author:        "Ursula K. Le Guin",
		Genre:         "Science Fiction",
		DatePublished: "1974",
	}
}

func TestIngestPersistsMergedRecord(t *testing.T) {
	extractor := &fakeExtractor{draft: draftFields()}
	isbn := "9780061054884"
	pages := int64(387)
	enricher := &fakeEnricher{fields: enrichment.Fields{ISBN: &isbn, PageCount: &pages}}
	store := &fakeStore{}

	fixed := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	p := New(extractor, enricher, store, WithClock(func() time.Time { return fixed }))

	imagePath := writeTestImage(t)
	book, err := p.Ingest(context.Background(), imagePath)
	require.NoError(t, err)

	assert.Equal(t, int64(7), book.ID)
	assert.Equal(t, "The Dispossessed", book.Title)
	assert.Equal(t, "Ursula K. Le Guin", book.Author)
	require.NotNil(t, store.created.ISBN)
	assert.Equal(t, "9780061054884", *store.created.ISBN)
	require.NotNil(t, store.created.PageCount)
	assert.Equal(t, int64(387), *store.created.PageCount)
	assert.Equal(t, fixed, store.created.DateEntered)

	require.NotNil(t, store.created.ImagePath)
	assert.True(t, filepath.IsAbs(*store.created.ImagePath))
	assert.Equal(t, 1, extractor.calls)
	assert.Equal(t, 1, enricher.calls)
}

func TestIngestNeverAltersExtractedTitleAuthor(t *testing.T) {
	extractor := &fakeExtractor{draft: draftFields()}
	publisher := "Harper Voyager"
	enricher := &fakeEnricher{fields: enrichment.Fields{Publisher: &publisher}}
	store := &fakeStore{}

	p := New(extractor, enricher, store)
	_, err := p.Ingest(context.Background(), writeTestImage(t))
	require.NoError(t, err)

	assert.Equal(t, "The Dispossessed", store.created.Title)
	assert.Equal(t, "Ursula K. Le Guin", store.created.Author)
}

func TestIngestMissingFile(t *testing.T) {
	extractor := &fakeExtractor{draft: draftFields()}
	store := &fakeStore{}
	p := New(extractor, &fakeEnricher{}, store)

	_, err := p.Ingest(context.Background(), filepath.Join(t.TempDir(), "nope.jpg"))
	require.Error(t, err)
	assert.True(t, IsKind(err, FileNotFound))
	assert.Equal(t, 0, extractor.calls)
	assert.Nil(t, store.created)
}

func TestIngestInsufficientDataDoesNotTouchStore(t *testing.T) {
	extractor := &fakeExtractor{
		err: &vision.Error{Kind: vision.MissingRequiredField, Err: errors.New("no author visible")},
	}
	enricher := &fakeEnricher{}
	store := &fakeStore{}
	p := New(extractor, enricher, store)

	_, err := p.Ingest(context.Background(), writeTestImage(t))
	require.Error(t, err)
	assert.True(t, IsKind(err, InsufficientData))
	assert.Equal(t, 0, enricher.calls)
	assert.Nil(t, store.created)
}

func TestIngestExtractionFailure(t *testing.T) {
	extractor := &fakeExtractor{
		err: &vision.Error{Kind: vision.ServiceUnavailable, Err: errors.New("503")},
	}
	store := &fakeStore{}
	p := New(extractor, &fakeEnricher{}, store)

	_, err := p.Ingest(context.Background(), writeTestImage(t))
	require.Error(t, err)
	assert.True(t, IsKind(err, ExtractionFailed))
	assert.Nil(t, store.created)
}

func TestIngestSucceedsWithEmptyEnrichment(t *testing.T) {
	extractor := &fakeExtractor{draft: draftFields()}
	store := &fakeStore{}
	p := New(extractor, &fakeEnricher{}, store)

	book, err := p.Ingest(context.Background(), writeTestImage(t))
	require.NoError(t, err)

	assert.Equal(t, "The Dispossessed", book.Title)
	assert.Nil(t, store.created.ISBN)
	assert.Nil(t, store.created.PageCount)
	assert.Nil(t, store.created.Publisher)
}

func TestIngestPersistenceFailure(t *testing.T) {
	extractor := &fakeExtractor{draft: draftFields()}
	store := &fakeStore{err: errors.New("disk full")}
	p := New(extractor, &fakeEnricher{}, store)

	_, err := p.Ingest(context.Background(), writeTestImage(t))
	require.Error(t, err)
	assert.True(t, IsKind(err, PersistenceFailed))
}

func TestIngestAwardsAreBestEffort(t *testing.T) {
	extractor := &fakeExtractor{draft: draftFields()}
	store := &fakeStore{}

	t.Run("awards recorded", func(t *testing.T) {
		p := New(extractor, &fakeEnricher{}, store,
			WithAwards(func(ctx context.Context, title, author, published string) (string, error) {
				assert.Equal(t, "The Dispossessed", title)
				assert.Equal(t, "1974", published)
				return "Hugo Award, Nebula Award", nil
			}),
		)
		_, err := p.Ingest(context.Background(), writeTestImage(t))
		require.NoError(t, err)
		require.NotNil(t, store.created.MajorAwards)
		assert.Equal(t, "Hugo Award, Nebula Award", *store.created.MajorAwards)
	})

	t.Run("awards failure absorbed", func(t *testing.T) {
		p := New(extractor, &fakeEnricher{}, store,
			WithAwards(func(ctx context.Context, title, author, published string) (string, error) {
				return "", errors.New("model overloaded")
			}),
		)
		book, err := p.Ingest(context.Background(), writeTestImage(t))
		require.NoError(t, err)
		assert.Nil(t, book.MajorAwards)
	})

	t.Run("no awards found", func(t *testing.T) {
		p := New(extractor, &fakeEnricher{}, store,
			WithAwards(func(ctx context.Context, title, author, published string) (string, error) {
				return "", nil
			}),
		)
		_, err := p.Ingest(context.Background(), writeTestImage(t))
		require.NoError(t, err)
		assert.Nil(t, store.created.MajorAwards)
	})
}
