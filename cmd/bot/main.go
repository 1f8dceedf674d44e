// Package main is the entry point for the quads bot.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"quads-bot/internal/bot"
	"quads-bot/internal/checker"
	"quads-bot/internal/config"
	"quads-bot/internal/pkg/db"
	"quads-bot/internal/pkg/lock"
	"quads-bot/internal/repository"
	"quads-bot/internal/service"
	"quads-bot/internal/telemetry"
	"quads-bot/internal/timezone"
)

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// A missing .env is normal in production.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("Failed to load .env")
	}

	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		log.Warn().Str("level", cfg.Log.Level).Msg("Unknown log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if _, err := timezone.Resolve(cfg.Checker.DefaultTimezone); err != nil {
		log.Fatal().Err(err).Msg("Invalid default timezone")
	}

	log.Info().Msg("Configuration loaded successfully")

	// Create context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize database connection pool
	dbPool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbPool.Close()

	// Run database migrations
	if err := db.Migrate(ctx, dbPool); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(dbPool.Pool, cfg.Checker.DefaultTimezone)
	settingsRepo := repository.NewSettingsRepository(dbPool.Pool)

	// Initialize services
	quadsChecker := checker.New(checker.WithJokeRules(cfg.Checker.JokeRules))
	checkService := service.NewCheckService(
		userRepo,
		quadsChecker,
		lock.NewUserLock(),
		cfg.Checker.LockTimeout,
		cfg.Checker.DefaultTimezone,
		cfg.Checker.CacheSize,
	)
	leaderboardService := service.NewLeaderboardService(userRepo)
	adminService := service.NewAdminService(userRepo, settingsRepo, cfg.Admin.IDs)

	log.Info().Msg("Loading timezone polygons...")
	finder, err := timezone.NewFinder()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load timezone finder")
	}

	// Metrics
	telemetry.Init()
	if cfg.Metrics.Addr != "" {
		go func() {
			if err := telemetry.Serve(ctx, cfg.Metrics.Addr, dbPool.HealthCheck); err != nil {
				log.Error().Err(err).Msg("Metrics server stopped")
			}
		}()
	}

	// Initialize bot
	telegramBot, err := bot.New(&bot.Dependencies{
		Config:      cfg,
		Checks:      checkService,
		Leaderboard: leaderboardService,
		Admin:       adminService,
		Finder:      finder,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create bot")
	}

	// Start bot in a goroutine
	go func() {
		log.Info().Msg("Bot is starting...")
		telegramBot.Start()
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	log.Info().Msg("Received shutdown signal")

	// Graceful shutdown
	telegramBot.Stop()
	log.Info().Msg("Bot stopped gracefully")
}
