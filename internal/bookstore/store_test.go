package bookstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "books.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func strptr(s string) *string     { return &s }
func floatptr(f float64) *float64 { return &f }
func intptr(i int64) *int64       { return &i }

func testBook(title, author string) *Book {
	return &Book{Title: title, Author: author}
}

func TestCreateAssignsIDAndDateEntered(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	before := time.Now().UTC()
	book, err := store.Create(ctx, testBook("The Hobbit", "J.R.R. Tolkien"))
	require.NoError(t, err)

	assert.Equal(t, int64(1), book.ID)
	assert.Equal(t, "The Hobbit", book.Title)
	assert.False(t, book.DateEntered.Before(before.Add(-time.Second)))

	second, err := store.Create(ctx, testBook("The Silmarillion", "J.R.R. Tolkien"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.ID)
}

func TestCreateRoundTripsOptionalFields(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	input := &Book{
		Title:          "Dune",
		Author:         "Frank Herbert",
		Genre:          strptr("Science Fiction"),
		Summary:        strptr("A desert planet and its spice."),
		DatePublished:  strptr("1965"),
		Series:         strptr("Dune"),
		GoodreadsScore: floatptr(4.3),
		MajorAwards:    strptr("Hugo Award, Nebula Award"),
		ImagePath:      strptr("/photos/dune.jpg"),
		ISBN:           strptr("9780441172719"),
		PageCount:      intptr(412),
		Publisher:      strptr("Chilton Books"),
	}

	created, err := store.Create(ctx, input)
	require.NoError(t, err)

	got, err := store.Get(ctx, created.ID)
	require.NoError(t, err)

	assert.Equal(t, "Dune", got.Title)
	require.NotNil(t, got.Genre)
	assert.Equal(t, "Science Fiction", *got.Genre)
	require.NotNil(t, got.GoodreadsScore)
	assert.InDelta(t, 4.3, *got.GoodreadsScore, 0.001)
	require.NotNil(t, got.PageCount)
	assert.Equal(t, int64(412), *got.PageCount)
	require.NotNil(t, got.Publisher)
	assert.Equal(t, "Chilton Books", *got.Publisher)
}

func TestCreateEmptyTitleIsConstraintViolation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Create(ctx, testBook("", "Somebody"))
	require.Error(t, err)
	assert.True(t, IsKind(err, ConstraintViolation))

	_, err = store.Create(ctx, testBook("   ", "Somebody"))
	assert.True(t, IsKind(err, ConstraintViolation))

	_, err = store.Create(ctx, testBook("Something", ""))
	assert.True(t, IsKind(err, ConstraintViolation))

	// Nothing was stored.
	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.TotalCount)
}

func TestGetNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), 42)
	require.Error(t, err)
	assert.True(t, IsKind(err, NotFound))
}

func TestUpdatePreservesDateEntered(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, testBook("Draft Title", "Author"))
	require.NoError(t, err)

	created.Title = "Final Title"
	created.Genre = strptr("Fantasy")
	created.DateEntered = created.DateEntered.Add(48 * time.Hour) // must be ignored
	require.NoError(t, store.Update(ctx, created))

	got, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Final Title", got.Title)
	require.NotNil(t, got.Genre)
	assert.Equal(t, "Fantasy", *got.Genre)

	original, err := store.Create(ctx, testBook("Second", "Author"))
	require.NoError(t, err)
	assert.True(t, got.DateEntered.Before(original.DateEntered.Add(time.Second)),
		"date_entered must not move forward on update")
}

func TestUpdateValidatesAndReportsNotFound(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.Update(ctx, &Book{ID: 99, Title: "Ghost", Author: "Writer"})
	assert.True(t, IsKind(err, NotFound))

	created, err := store.Create(ctx, testBook("Real", "Writer"))
	require.NoError(t, err)
	created.Author = ""
	assert.True(t, IsKind(store.Update(ctx, created), ConstraintViolation))
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, testBook("Ephemeral", "Writer"))
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, created.ID))

	_, err = store.Get(ctx, created.ID)
	assert.True(t, IsKind(err, NotFound))

	assert.True(t, IsKind(store.Delete(ctx, created.ID), NotFound))
}

func TestSearchMatchesTitleAuthorGenreCaseInsensitively(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	hobbit := testBook("The Hobbit", "J.R.R. Tolkien")
	_, err := store.Create(ctx, hobbit)
	require.NoError(t, err)

	dune := testBook("Dune", "Frank Herbert")
	dune.Genre = strptr("Science Fiction")
	_, err = store.Create(ctx, dune)
	require.NoError(t, err)

	tolkienBio := testBook("Tolkien: A Biography", "Humphrey Carpenter")
	_, err = store.Create(ctx, tolkienBio)
	require.NoError(t, err)

	results, err := store.Search(ctx, "TOLKIEN")
	require.NoError(t, err)
	require.Len(t, results, 2)
	// Deterministic order by id ascending.
	assert.Equal(t, "The Hobbit", results[0].Title)
	assert.Equal(t, "Tolkien: A Biography", results[1].Title)

	byGenre, err := store.Search(ctx, "science")
	require.NoError(t, err)
	require.Len(t, byGenre, 1)
	assert.Equal(t, "Dune", byGenre[0].Title)
}

func TestSearchNoMatchesIsEmptyNotError(t *testing.T) {
	store := newTestStore(t)

	results, err := store.Search(context.Background(), "nothing here")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestListAllOrdering(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, title := range []string{"Charlie", "Alpha", "Bravo"} {
		_, err := store.Create(ctx, testBook(title, "Author"))
		require.NoError(t, err)
	}

	byTitle, err := store.ListAll(ctx, "title", true)
	require.NoError(t, err)
	require.Len(t, byTitle, 3)
	assert.Equal(t, "Alpha", byTitle[0].Title)
	assert.Equal(t, "Charlie", byTitle[2].Title)

	descending, err := store.ListAll(ctx, "id", false)
	require.NoError(t, err)
	assert.Equal(t, int64(3), descending[0].ID)

	// Unknown column falls back to id ascending.
	fallback, err := store.ListAll(ctx, "genre; DROP TABLE books", true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), fallback[0].ID)
}

func TestStatsEmptyStore(t *testing.T) {
	store := newTestStore(t)

	stats, err := store.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(0), stats.TotalCount)
	assert.Equal(t, int64(0), stats.DistinctGenres)
	assert.Nil(t, stats.AverageScore)
	assert.Nil(t, stats.EarliestEntry)
	assert.Nil(t, stats.LatestEntry)
}

func TestStatsAggregates(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := testBook("One", "A")
	first.Genre = strptr("Fantasy")
	first.GoodreadsScore = floatptr(4.0)
	_, err := store.Create(ctx, first)
	require.NoError(t, err)

	second := testBook("Two", "B")
	second.Genre = strptr("Fantasy")
	second.GoodreadsScore = floatptr(3.0)
	_, err = store.Create(ctx, second)
	require.NoError(t, err)

	// No genre, no score: must not drag the average down.
	third := testBook("Three", "C")
	_, err = store.Create(ctx, third)
	require.NoError(t, err)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(3), stats.TotalCount)
	assert.Equal(t, int64(1), stats.DistinctGenres)
	require.NotNil(t, stats.AverageScore)
	assert.InDelta(t, 3.5, *stats.AverageScore, 0.001)
	require.NotNil(t, stats.EarliestEntry)
	require.NotNil(t, stats.LatestEntry)
	assert.False(t, stats.LatestEntry.Before(*stats.EarliestEntry))
}
