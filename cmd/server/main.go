package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"

	"flickbox/internal/catalog"
	"flickbox/internal/config"
	"flickbox/internal/env"
	"flickbox/internal/handlers"
	"flickbox/internal/library"
	"flickbox/internal/logger"
	"flickbox/internal/policy"
	"flickbox/internal/reviews"
	"flickbox/internal/tmdb"

	_ "github.com/joho/godotenv/autoload"
)

func main() {
	log := logger.New(slog.LevelDebug)
	slog.SetDefault(log)

	if err := run(log); err != nil {
		fmt.Println("Error:", err.Error())
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	kv, err := library.OpenBadger(cfg.Library.Path)
	if err != nil {
		return fmt.Errorf("failed to open library store: %w", err)
	}
	defer func() {
		if err := kv.Close(); err != nil {
			slog.Error("Failed to close library store", logger.Error(err))
		}
	}()

	reviewStore, err := reviews.Open(cfg.Reviews.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open reviews db: %w", err)
	}
	defer func() {
		if err := reviewStore.Close(); err != nil {
			slog.Error("Failed to close reviews db", logger.Error(err))
		}
	}()

	fetcher, err := catalog.New(catalog.Config{
		Source:        tmdb.New(cfg.Catalog.APIKey, cfg.Catalog.BaseURL),
		Filter:        policy.New(cfg.Policy.Denylist, cfg.Policy.YearFloor),
		ImageBase:     cfg.Catalog.ImageBase,
		BackdropBase:  cfg.Catalog.BackdropBase,
		DetailWorkers: cfg.Catalog.DetailWorkers,
	})
	if err != nil {
		return fmt.Errorf("failed to init catalog: %w", err)
	}

	app, err := handlers.New(&handlers.Config{
		Catalog: fetcher,
		Library: library.NewStore(kv),
		Reviews: reviewStore,
	})
	if err != nil {
		return fmt.Errorf("failed to init handlers: %w", err)
	}

	r := chi.NewRouter()
	r.Use(httplog.RequestLogger(log, &httplog.Options{
		Level:         slog.LevelInfo,
		RecoverPanics: true,
	}))
	origins := []string{"*"}
	if env.IsProduction() && len(cfg.Server.AllowedOrigins) > 0 {
		origins = cfg.Server.AllowedOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		MaxAge:         300,
	}))
	app.RegisterRoutes(r)

	slog.Info("listening", slog.String("addr", cfg.Server.Addr))
	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
