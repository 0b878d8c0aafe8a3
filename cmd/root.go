// Package cmd wires the kong command surface to the ingestion pipeline
// and the record store.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/lepinkainen/humanlog"
	"github.com/spf13/viper"

	"github.com/lepinkainen/bookshelf/internal/bookstore"
	"github.com/lepinkainen/bookshelf/internal/config"
	"github.com/lepinkainen/bookshelf/internal/enrichment"
	"github.com/lepinkainen/bookshelf/internal/fileutil"
	"github.com/lepinkainen/bookshelf/internal/pipeline"
	"github.com/lepinkainen/bookshelf/internal/tui"
	"github.com/lepinkainen/bookshelf/internal/vision"
)

// CLI represents the complete command structure for the bookshelf application.
type CLI struct {
	// Global flags
	DB      string `help:"Path to SQLite database file (overrides config)"`
	Verbose bool   `short:"v" help:"Enable debug logging"`

	Add    AddCmd    `cmd:"" help:"Add a book from a cover photo"`
	Batch  BatchCmd  `cmd:"" help:"Add every cover photo in a folder"`
	List   ListCmd   `cmd:"" help:"List all books"`
	Search SearchCmd `cmd:"" help:"Search books by title, author or genre"`
	Export ExportCmd `cmd:"" help:"Export all books to a CSV file"`
	Stats  StatsCmd  `cmd:"" help:"Show library statistics"`
	Delete DeleteCmd `cmd:"" help:"Delete a book by id"`
}

// AddCmd runs the ingestion pipeline for a single cover photo.
type AddCmd struct {
	Image       string `arg:"" help:"Path to book cover image"`
	Interactive bool   `short:"i" help:"Pick the enrichment match interactively instead of first-match-wins"`
	NoEnrich    bool   `help:"Skip the metadata enrichment lookup"`
}

// BatchCmd runs the pipeline for every supported image in a directory.
type BatchCmd struct {
	Folder      string `arg:"" help:"Path to folder containing cover images"`
	Interactive bool   `short:"i" help:"Pick enrichment matches interactively"`
	NoEnrich    bool   `help:"Skip the metadata enrichment lookup"`
}

// ListCmd prints the whole catalog.
type ListCmd struct {
	OrderBy string `help:"Column to order by (id, title, author, date_entered)" default:"id"`
	Desc    bool   `help:"Sort descending"`
}

// SearchCmd prints records matching a query.
type SearchCmd struct {
	Query string `arg:"" help:"Search text, matched against title, author and genre"`
}

// ExportCmd writes the catalog to CSV.
type ExportCmd struct {
	Path string `arg:"" help:"Output CSV file path (overwritten if it exists)"`
}

// StatsCmd prints aggregate statistics.
type StatsCmd struct{}

// DeleteCmd removes a record.
type DeleteCmd struct {
	ID int64 `arg:"" help:"Book id to delete"`
}

// Execute runs the kong-based CLI.
func Execute() {
	initLogging(slog.LevelInfo)

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("bookshelf"),
		kong.Description("Catalog physical books from cover photos using a vision model."),
		kong.UsageOnError(),
	)

	if cli.Verbose {
		initLogging(slog.LevelDebug)
	}

	v := initViper()
	if cli.DB != "" {
		v.Set("dbfile", cli.DB)
	}

	cfg, err := config.Load(v)
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	if err := ctx.Run(cfg); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

// initViper sets defaults, binds the credential environment variables
// and reads an optional config.yaml from the working directory.
func initViper() *viper.Viper {
	v := viper.New()
	config.SetDefaults(v)

	v.AutomaticEnv()
	if err := v.BindEnv("openai.apikey", "OPENAI_API_KEY"); err != nil {
		slog.Error("Failed to bind environment variable", "error", err)
	}
	if err := v.BindEnv("googlebooks.apikey", "GOOGLE_BOOKS_API_KEY"); err != nil {
		slog.Error("Failed to bind environment variable", "error", err)
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			slog.Debug("No config file found, using environment and defaults")
		} else {
			slog.Error("Fatal error reading config file", "error", err)
			os.Exit(1)
		}
	}
	return v
}

func initLogging(level slog.Level) {
	handler := humanlog.NewHandler(os.Stdout, &humanlog.Options{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}

// openStore opens the configured database.
var openStore = func(cfg *config.Config) (*bookstore.Store, error) {
	return bookstore.Open(cfg.DBFile)
}

// buildPipeline wires the extractor, the chosen enricher and the store.
func buildPipeline(cfg *config.Config, store *bookstore.Store, interactive, noEnrich bool) *pipeline.Pipeline {
	visionClient := vision.NewClient(cfg)

	var enricher pipeline.Enricher
	switch {
	case noEnrich:
		enricher = noEnrichment{}
	case interactive:
		client := enrichment.NewGoogleBooksClient(cfg)
		enricher = enrichment.NewInteractiveEnricher(client, selectMatch)
	default:
		enricher = enrichment.NewGoogleBooksClient(cfg)
	}

	return pipeline.New(visionClient, enricher, store,
		pipeline.WithAwards(visionClient.IdentifyAwards),
	)
}

// noEnrichment disables the enrichment step entirely.
type noEnrichment struct{}

func (noEnrichment) Enrich(context.Context, string, string) enrichment.Fields {
	return enrichment.Fields{}
}

// selectMatch adapts the TUI picker to the enrichment selection callback.
func selectMatch(title string, matches []enrichment.Match) (*enrichment.Match, error) {
	result, err := tui.SelectMatch(title, matches)
	if err != nil {
		return nil, err
	}
	if result.Action == tui.ActionSelected {
		return result.Selection, nil
	}
	return nil, nil
}

// Run methods for each command

func (a *AddCmd) Run(cfg *config.Config) error {
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	p := buildPipeline(cfg, store, a.Interactive, a.NoEnrich)
	book, err := p.Ingest(context.Background(), a.Image)
	if err != nil {
		return err
	}

	fmt.Printf("Added book #%d\n\n%s", book.ID, formatBook(book))
	return nil
}

func (b *BatchCmd) Run(cfg *config.Config) error {
	images, err := fileutil.ListImages(b.Folder)
	if err != nil {
		return err
	}
	if len(images) == 0 {
		return fmt.Errorf("no image files found in %s", b.Folder)
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	p := buildPipeline(cfg, store, b.Interactive, b.NoEnrich)

	var succeeded, failed int
	for i, image := range images {
		slog.Info("Processing", "image", image, "progress", fmt.Sprintf("%d/%d", i+1, len(images)))
		book, err := p.Ingest(context.Background(), image)
		if err != nil {
			slog.Error("Failed to add book", "image", image, "error", err)
			failed++
			continue
		}
		fmt.Printf("Added book #%d: %s by %s\n", book.ID, book.Title, book.Author)
		succeeded++
	}

	fmt.Printf("\nBatch complete: %d added, %d failed\n", succeeded, failed)
	if succeeded == 0 {
		return fmt.Errorf("all %d images failed", failed)
	}
	return nil
}

func (l *ListCmd) Run(cfg *config.Config) error {
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	books, err := store.ListAll(context.Background(), l.OrderBy, !l.Desc)
	if err != nil {
		return err
	}
	if len(books) == 0 {
		fmt.Println("No books in the library yet.")
		return nil
	}

	fmt.Printf("%d book(s) in your library:\n\n", len(books))
	fmt.Println(renderBookTable(books))
	return nil
}

func (s *SearchCmd) Run(cfg *config.Config) error {
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	books, err := store.Search(context.Background(), s.Query)
	if err != nil {
		return err
	}
	if len(books) == 0 {
		fmt.Printf("No books found matching %q.\n", s.Query)
		return nil
	}

	fmt.Printf("Found %d book(s) matching %q:\n\n", len(books), s.Query)
	fmt.Println(renderBookTable(books))
	return nil
}

func (e *ExportCmd) Run(cfg *config.Config) error {
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	count, err := store.ExportCSV(context.Background(), e.Path)
	if err != nil {
		return err
	}

	fmt.Printf("Exported %d book(s) to %s\n", count, e.Path)
	return nil
}

func (s *StatsCmd) Run(cfg *config.Config) error {
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	stats, err := store.Stats(context.Background())
	if err != nil {
		return err
	}

	fmt.Print(formatStats(stats))
	return nil
}

func (d *DeleteCmd) Run(cfg *config.Config) error {
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	book, err := store.Get(context.Background(), d.ID)
	if err != nil {
		return err
	}
	if err := store.Delete(context.Background(), d.ID); err != nil {
		return err
	}

	fmt.Printf("Deleted book #%d: %s by %s\n", book.ID, book.Title, book.Author)
	return nil
}
