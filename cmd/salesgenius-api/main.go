// Package main provides the SalesGenius API server entrypoint.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/MarcoRipari/SalesGenius/internal/analytics"
	"github.com/MarcoRipari/SalesGenius/internal/auth"
	"github.com/MarcoRipari/SalesGenius/internal/cache"
	"github.com/MarcoRipari/SalesGenius/internal/catalog"
	"github.com/MarcoRipari/SalesGenius/internal/chat"
	"github.com/MarcoRipari/SalesGenius/internal/config"
	"github.com/MarcoRipari/SalesGenius/internal/knowledge"
	"github.com/MarcoRipari/SalesGenius/internal/llm"
	"github.com/MarcoRipari/SalesGenius/internal/observability"
	"github.com/MarcoRipari/SalesGenius/internal/storage"
)

func main() {
	// Load configuration
	cfgPath := os.Getenv("CONFIG_PATH")
	if len(os.Args) > 2 && os.Args[1] == "--config" {
		cfgPath = os.Args[2]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := observability.NewLogger(observability.LogConfig{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
	})

	logger.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("database", cfg.Database.Driver).
		Str("cache", cfg.Cache.Driver).
		Msg("Starting SalesGenius API")

	// Open database and run migrations
	db, err := storage.Open(cfg)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to open database")
		os.Exit(1)
	}
	defer db.Close()

	if err := storage.Migrate(context.Background(), db); err != nil {
		logger.Error().Err(err).Msg("Failed to run migrations")
		os.Exit(1)
	}

	// Initialize cache
	var cacheClient cache.Client
	if cfg.Cache.Driver == "redis" {
		cacheClient, err = cache.NewRedisClient(cache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			PoolSize: cfg.Cache.Redis.PoolSize,
		})
		if err != nil {
			logger.Error().Err(err).Msg("Failed to connect to Redis")
			os.Exit(1)
		}
	} else {
		cacheClient = cache.NewMemoryClient(cfg.Cache.MaxEntries)
	}
	defer cacheClient.Close()

	// Wire services
	repos := storage.NewRepositories(db)
	extractor := catalog.NewExtractor(cfg.Scraper, cfg.Catalog, logger)
	resolver := catalog.NewResolver(repos.Products, cacheClient, cfg.Catalog, logger)
	knowledgeSvc := knowledge.NewService(repos, extractor, resolver, cfg.Scraper, logger)
	llmClient := llm.NewClient(cfg.Chat.APIKey, cfg.Chat.Model, logger)
	chatSvc := chat.NewService(repos, knowledgeSvc, resolver, llmClient, cacheClient, cfg.Chat, cfg.Catalog, logger)
	authSvc := auth.NewService(repos, cfg.Auth, logger)
	analyticsSvc := analytics.NewService(repos, logger)

	router := NewRouter(logger, cfg, &Services{
		Repos:     repos,
		Auth:      authSvc,
		Knowledge: knowledgeSvc,
		Chat:      chatSvc,
		Analytics: analyticsSvc,
		Resolver:  resolver,
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("HTTP server listening")
		serverErrors <- srv.ListenAndServe()
	}()

	// Wait for interrupt or error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error().Err(err).Msg("Server error")
	case sig := <-shutdown:
		logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
		if err := srv.Close(); err != nil {
			logger.Error().Err(err).Msg("Forced shutdown failed")
		}
	}

	logger.Info().Msg("Server stopped")
}
