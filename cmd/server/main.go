package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/newsroom-publishing-api/internal/api"
	"github.com/newsroom-publishing-api/internal/auth"
	"github.com/newsroom-publishing-api/internal/cms"
	"github.com/newsroom-publishing-api/internal/config"
	"github.com/newsroom-publishing-api/internal/database"
	"github.com/newsroom-publishing-api/internal/repository"
	"github.com/newsroom-publishing-api/internal/service"
	"github.com/newsroom-publishing-api/pkg/logger"
)

func main() {
	// Load .env if present (local development)
	_ = godotenv.Load()

	// Initialize logger
	log := logger.New()
	log.Info().Msg("Starting newsroom publishing API server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Run migrations
	migrationsPath := os.Getenv("MIGRATIONS_PATH")
	if migrationsPath == "" {
		migrationsPath = "./migrations"
	}
	if err := db.RunMigrations(migrationsPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Initialize repositories
	repos := repository.New(db)

	// Initialize CMS client and services
	cmsClient := cms.NewClient(&cfg.CMS)
	services := service.NewServices(repos, cmsClient, cfg, log)

	// Role resolution against the authoritative user store
	authority := auth.NewAuthority(repos.User, log)

	// Start background publish retry processor
	go services.Review.StartRetryProcessor(context.Background())
	log.Info().Msg("Publish retry processor started")

	// Initialize router
	router := api.NewRouter(services, authority, cfg, log)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Stop retry processor
	services.Review.StopRetryProcessor()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited gracefully")
}
