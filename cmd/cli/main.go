package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/linkshala/linkshala-api/pkg/adapters/repository/sqlite"
	"github.com/linkshala/linkshala-api/pkg/adapters/search"
	"github.com/linkshala/linkshala-api/pkg/config"
	"github.com/linkshala/linkshala-api/pkg/core/domain"
	"github.com/linkshala/linkshala-api/pkg/core/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const usage = "expected 'export', 'import', 'dedupe' or 'reindex' subcommands"

type app struct {
	repo       *sqlite.SQLiteRepository
	index      *search.LinkIndex
	categories *services.CategoryService
	links      *services.LinkService
	bulk       *services.BulkService
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	exportActive := exportCmd.Bool("active", false, "only export active links")
	importCmd := flag.NewFlagSet("import", flag.ExitOnError)
	importFile := importCmd.String("file", "", "JSON file to import")
	dedupeCmd := flag.NewFlagSet("dedupe", flag.ExitOnError)
	reindexCmd := flag.NewFlagSet("reindex", flag.ExitOnError)

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(1)
	}

	cfg := config.Load()
	a, err := newApp(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize")
	}
	defer a.close()

	ctx := context.Background()
	switch os.Args[1] {
	case "export":
		exportCmd.Parse(os.Args[2:])
		err = a.export(ctx, os.Stdout, *exportActive)
	case "import":
		importCmd.Parse(os.Args[2:])
		if *importFile == "" {
			importCmd.PrintDefaults()
			os.Exit(1)
		}
		err = a.importFile(ctx, *importFile)
	case "dedupe":
		dedupeCmd.Parse(os.Args[2:])
		err = a.dedupe(ctx)
	case "reindex":
		reindexCmd.Parse(os.Args[2:])
		err = a.reindex(ctx)
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(1)
	}
	if err != nil {
		a.close()
		log.Fatal().Err(err).Str("command", os.Args[1]).Msg("Command failed")
	}
}

// newApp opens the store and the search index. The on-disk index is locked
// while a server holds it open, so run index-touching commands with the
// server stopped or with SEARCH_INDEX_PATH pointed elsewhere.
func newApp(cfg *config.Config) (*app, error) {
	repo, err := sqlite.NewSQLiteRepository(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to db: %w", err)
	}
	index, err := search.NewLinkIndex(cfg.SearchIndexPath)
	if err != nil {
		repo.Close()
		return nil, fmt.Errorf("open search index: %w", err)
	}

	categories := services.NewCategoryService(repo, repo, index)
	return &app{
		repo:       repo,
		index:      index,
		categories: categories,
		links:      services.NewLinkService(repo, categories, index, nil),
		bulk:       services.NewBulkService(repo, categories, index),
	}, nil
}

func (a *app) close() {
	_ = a.index.Close()
	_ = a.repo.Close()
}

func (a *app) export(ctx context.Context, w io.Writer, activeOnly bool) error {
	links, err := a.repo.Dump(ctx)
	if err != nil {
		return err
	}
	if activeOnly {
		links = lo.Filter(links, func(l domain.Link, _ int) bool { return l.IsActive })
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(links); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	log.Info().Int("links", len(links)).Msg("Exported links")
	return nil
}

// importFile feeds an export (or any array of link inputs) through the bulk
// importer, so URLs are normalized and categories created as needed.
func (a *app) importFile(ctx context.Context, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("open %s: %w", filename, err)
	}
	defer file.Close()

	result, err := a.importFrom(ctx, file)
	if err != nil {
		return err
	}
	for _, s := range result.Skipped {
		log.Info().Int("index", s.Index).Str("url", s.URL).Msg("Skipping existing link")
	}
	for _, inv := range result.Invalid {
		log.Warn().Int("index", inv.Index).Str("reason", inv.Reason).Msg("Invalid link")
	}
	log.Info().
		Int("created", result.CreatedCount).
		Int("skipped", result.SkippedCount).
		Int("invalid", result.InvalidCount).
		Msg("Import finished")
	return nil
}

func (a *app) importFrom(ctx context.Context, r io.Reader) (*domain.BulkResult, error) {
	var items []domain.LinkInput
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return a.bulk.BulkCreate(ctx, items)
}

func (a *app) dedupe(ctx context.Context) error {
	report, err := a.bulk.RemoveDuplicates(ctx)
	if err != nil {
		return err
	}
	for _, r := range report.Removed {
		log.Info().Str("id", r.ID).Str("url", r.URL).Msg("Removed duplicate")
	}
	log.Info().Int("groups", report.DuplicateGroups).Int("removed", report.RemovedCount).Msg("Dedupe finished")
	return nil
}

func (a *app) reindex(ctx context.Context) error {
	n, err := a.links.Reindex(ctx)
	if err != nil {
		return err
	}
	log.Info().Int("links", n).Msg("Search index rebuilt")
	return nil
}
