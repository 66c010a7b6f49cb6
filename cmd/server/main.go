package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/linkshala/linkshala-api/pkg/adapters/describer"
	"github.com/linkshala/linkshala-api/pkg/adapters/handler"
	"github.com/linkshala/linkshala-api/pkg/adapters/repository/sqlite"
	"github.com/linkshala/linkshala-api/pkg/adapters/search"
	"github.com/linkshala/linkshala-api/pkg/config"
	"github.com/linkshala/linkshala-api/pkg/core/services"
	"github.com/linkshala/linkshala-api/pkg/tasks"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const AppVersion = "1.0.0"

func setupLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.IsProduction() {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})
}

func main() {
	fmt.Printf("%s v%s\n", color.New(color.FgHiCyan).Add(color.Bold).Sprint("LinkShala"), AppVersion)
	fmt.Println("Curated link catalog and admin API")
	color.HiBlack("==================================\n")

	cfg := config.Load()
	setupLogger(cfg)

	if cfg.AdminPassword == "" {
		log.Warn().Msg("ADMIN_PASSWORD is empty, admin login is disabled")
	}
	if cfg.IsProduction() && cfg.JWTSecret == "secret" {
		log.Warn().Msg("JWT_SECRET is the default value, set a real secret in production")
	}

	// Initialize Repository
	repo, err := sqlite.NewSQLiteRepository(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer repo.Close()

	index, err := search.NewLinkIndex(cfg.SearchIndexPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.SearchIndexPath).Msg("Failed to open search index")
	}
	defer index.Close()

	// Initialize Services
	categories := services.NewCategoryService(repo, repo, index)
	links := services.NewLinkService(repo, categories, index, describer.NewPageDescriber(cfg.DescriberTimeout))
	bulk := services.NewBulkService(repo, categories, index)
	stats := services.NewStatsService(repo)

	if n, err := links.Reindex(context.Background()); err != nil {
		log.Error().Err(err).Msg("Initial reindex failed, search may be stale")
	} else {
		log.Info().Int("links", n).Msg("Search index rebuilt")
	}

	scheduler := tasks.NewScheduler()
	if err := scheduler.ScheduleReindex(cfg.ReindexSchedule, links); err != nil {
		log.Fatal().Err(err).Msg("Invalid REINDEX_SCHEDULE")
	}
	scheduler.Start()

	// Initialize Router
	mux := handler.NewRouter(cfg, handler.Services{
		Links:      links,
		Categories: categories,
		Bulk:       bulk,
		Stats:      stats,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.AppEnv).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
	scheduler.Stop(ctx)
	links.WaitBackfills()
}
