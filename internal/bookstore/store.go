package bookstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS books (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	title           TEXT NOT NULL,
	author          TEXT NOT NULL,
	genre           TEXT,
	summary         TEXT,
	date_published  TEXT,
	date_entered    TEXT NOT NULL,
	part_of_series  TEXT,
	goodreads_score REAL,
	major_awards    TEXT,
	image_path      TEXT,
	isbn            TEXT,
	page_count      INTEGER,
	publisher       TEXT
)`

// timeLayout is used for date_entered. Storing UTC RFC3339 keeps
// lexicographic and chronological order identical, so MIN/MAX work in SQL.
const timeLayout = time.RFC3339Nano

var bookColumns = []string{
	"id", "title", "author", "genre", "summary", "date_published",
	"date_entered", "part_of_series", "goodreads_score", "major_awards",
	"image_path", "isbn", "page_count", "publisher",
}

// Columns allowed as list ordering keys.
var orderColumns = map[string]bool{
	"id":           true,
	"title":        true,
	"author":       true,
	"date_entered": true,
}

// Store is a SQLite-backed book catalog. It relies on the engine's own
// file-level locking; no extra coordination is layered on top.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the database at path and ensures
// the books table exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, ioFailure(fmt.Errorf("open database: %w", err))
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, ioFailure(fmt.Errorf("create table: %w", err))
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func validate(book *Book) error {
	if strings.TrimSpace(book.Title) == "" {
		return constraint("title")
	}
	if strings.TrimSpace(book.Author) == "" {
		return constraint("author")
	}
	return nil
}

// Create inserts a new record and returns it with the assigned id.
// DateEntered is stamped here if the caller left it zero.
func (s *Store) Create(ctx context.Context, book *Book) (*Book, error) {
	if err := validate(book); err != nil {
		return nil, err
	}
	if book.DateEntered.IsZero() {
		book.DateEntered = time.Now().UTC()
	}

	query, args, err := sq.Insert("books").
		Columns(bookColumns[1:]...).
		Values(
			book.Title, book.Author, book.Genre, book.Summary,
			book.DatePublished, book.DateEntered.UTC().Format(timeLayout),
			book.Series, book.GoodreadsScore, book.MajorAwards,
			book.ImagePath, book.ISBN, book.PageCount, book.Publisher,
		).ToSql()
	if err != nil {
		return nil, ioFailure(err)
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, ioFailure(fmt.Errorf("insert: %w", err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, ioFailure(err)
	}

	return s.Get(ctx, id)
}

// Get returns the record with the given id.
func (s *Store) Get(ctx context.Context, id int64) (*Book, error) {
	query, args, err := sq.Select(bookColumns...).
		From("books").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, ioFailure(err)
	}

	book, err := scanBook(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, ioFailure(err)
	}
	return book, nil
}

// Update rewrites every mutable field of an existing record.
// date_entered is immutable and deliberately left out of the SET list.
func (s *Store) Update(ctx context.Context, book *Book) error {
	if err := validate(book); err != nil {
		return err
	}

	query, args, err := sq.Update("books").
		Set("title", book.Title).
		Set("author", book.Author).
		Set("genre", book.Genre).
		Set("summary", book.Summary).
		Set("date_published", book.DatePublished).
		Set("part_of_series", book.Series).
		Set("goodreads_score", book.GoodreadsScore).
		Set("major_awards", book.MajorAwards).
		Set("image_path", book.ImagePath).
		Set("isbn", book.ISBN).
		Set("page_count", book.PageCount).
		Set("publisher", book.Publisher).
		Where(sq.Eq{"id": book.ID}).
		ToSql()
	if err != nil {
		return ioFailure(err)
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return ioFailure(fmt.Errorf("update: %w", err))
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return ioFailure(err)
	}
	if affected == 0 {
		return notFound(book.ID)
	}
	return nil
}

// Delete removes the record with the given id.
func (s *Store) Delete(ctx context.Context, id int64) error {
	query, args, err := sq.Delete("books").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return ioFailure(err)
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return ioFailure(fmt.Errorf("delete: %w", err))
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return ioFailure(err)
	}
	if affected == 0 {
		return notFound(id)
	}
	return nil
}

// Search returns records whose title, author or genre contains the
// query, case-insensitively. Ordering is by id ascending so results
// are deterministic. An empty result is not an error.
func (s *Store) Search(ctx context.Context, query string) ([]Book, error) {
	pattern := "%" + strings.ToLower(query) + "%"
	stmt, args, err := sq.Select(bookColumns...).
		From("books").
		Where(sq.Or{
			sq.Like{"lower(title)": pattern},
			sq.Like{"lower(author)": pattern},
			sq.Like{"lower(genre)": pattern},
		}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, ioFailure(err)
	}
	return s.queryBooks(ctx, stmt, args...)
}

// ListAll returns every record ordered by the given column.
// Unknown columns fall back to id so the ordering is always defined.
func (s *Store) ListAll(ctx context.Context, orderBy string, ascending bool) ([]Book, error) {
	if !orderColumns[orderBy] {
		orderBy = "id"
	}
	direction := "ASC"
	if !ascending {
		direction = "DESC"
	}

	stmt, args, err := sq.Select(bookColumns...).
		From("books").
		OrderBy(orderBy + " " + direction).
		ToSql()
	if err != nil {
		return nil, ioFailure(err)
	}
	return s.queryBooks(ctx, stmt, args...)
}

// Stats aggregates the catalog in a single query. AVG ignores NULL
// scores, so the average covers rated books only.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(DISTINCT genre),
		       AVG(goodreads_score),
		       MIN(date_entered),
		       MAX(date_entered)
		FROM books`)

	var (
		stats    Stats
		avg      sql.NullFloat64
		earliest sql.NullString
		latest   sql.NullString
	)
	if err := row.Scan(&stats.TotalCount, &stats.DistinctGenres, &avg, &earliest, &latest); err != nil {
		return nil, ioFailure(fmt.Errorf("aggregate: %w", err))
	}

	if avg.Valid {
		stats.AverageScore = &avg.Float64
	}
	if earliest.Valid {
		t, err := time.Parse(timeLayout, earliest.String)
		if err != nil {
			return nil, ioFailure(err)
		}
		stats.EarliestEntry = &t
	}
	if latest.Valid {
		t, err := time.Parse(timeLayout, latest.String)
		if err != nil {
			return nil, ioFailure(err)
		}
		stats.LatestEntry = &t
	}
	return &stats, nil
}

func (s *Store) queryBooks(ctx context.Context, query string, args ...any) ([]Book, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, ioFailure(fmt.Errorf("query: %w", err))
	}
	defer func() { _ = rows.Close() }()

	var books []Book
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, ioFailure(err)
		}
		books = append(books, *book)
	}
	if err := rows.Err(); err != nil {
		return nil, ioFailure(err)
	}
	return books, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBook(row rowScanner) (*Book, error) {
	var (
		book    Book
		entered string
		genre   sql.NullString
		summary sql.NullString
		pubDate sql.NullString
		series  sql.NullString
		score   sql.NullFloat64
		awards  sql.NullString
		image   sql.NullString
		isbn    sql.NullString
		pages   sql.NullInt64
		pub     sql.NullString
	)
	err := row.Scan(
		&book.ID, &book.Title, &book.Author, &genre, &summary, &pubDate,
		&entered, &series, &score, &awards, &image, &isbn, &pages, &pub,
	)
	if err != nil {
		return nil, err
	}

	book.DateEntered, err = time.Parse(timeLayout, entered)
	if err != nil {
		return nil, fmt.Errorf("parse date_entered: %w", err)
	}

	book.Genre = nullString(genre)
	book.Summary = nullString(summary)
	book.DatePublished = nullString(pubDate)
	book.Series = nullString(series)
	book.MajorAwards = nullString(awards)
	book.ImagePath = nullString(image)
	book.ISBN = nullString(isbn)
	book.Publisher = nullString(pub)
	if score.Valid {
		book.GoodreadsScore = &score.Float64
	}
	if pages.Valid {
		book.PageCount = &pages.Int64
	}
	return &book, nil
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}
