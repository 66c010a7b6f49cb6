package handler

import (
	"context"
	"net/http"
	"sync"

	"github.com/linkshala/linkshala-api/pkg/adapters/describer"
	"github.com/linkshala/linkshala-api/pkg/adapters/handler"
	"github.com/linkshala/linkshala-api/pkg/adapters/repository/sqlite"
	"github.com/linkshala/linkshala-api/pkg/adapters/search"
	"github.com/linkshala/linkshala-api/pkg/config"
	"github.com/linkshala/linkshala-api/pkg/core/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	once    sync.Once
	mux     http.Handler
	initErr error
)

// setup runs on the first request of a cold start. On Vercel the local disk
// is ephemeral, so DATABASE_URL should point at Turso and the search index
// lives in memory, rebuilt from the store.
func setup() {
	cfg := config.Load()
	cfg.SearchIndexPath = ""
	log.Logger = zerolog.New(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) { w.NoColor = true })).
		With().Timestamp().Logger()

	repo, err := sqlite.NewSQLiteRepository(cfg.DatabaseURL)
	if err != nil {
		initErr = err
		return
	}
	index, err := search.NewLinkIndex(cfg.SearchIndexPath)
	if err != nil {
		initErr = err
		return
	}

	categories := services.NewCategoryService(repo, repo, index)
	links := services.NewLinkService(repo, categories, index, describer.NewPageDescriber(cfg.DescriberTimeout))
	if n, err := links.Reindex(context.Background()); err != nil {
		log.Error().Err(err).Msg("Initial reindex failed")
	} else {
		log.Info().Int("links", n).Msg("Search index rebuilt")
	}

	mux = handler.NewRouter(cfg, handler.Services{
		Links:      links,
		Categories: categories,
		Bulk:       services.NewBulkService(repo, categories, index),
		Stats:      services.NewStatsService(repo),
	})
}

// Handler is the entrypoint for Vercel
func Handler(w http.ResponseWriter, r *http.Request) {
	once.Do(setup)
	if initErr != nil {
		log.Error().Err(initErr).Msg("Initialization failed")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"success":false,"error":"service unavailable"}`))
		return
	}
	mux.ServeHTTP(w, r)
}
