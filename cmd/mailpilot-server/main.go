// Package main provides the entry point for the mailpilot HTTP server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gshashi/mailpilot/internal/assistant"
	"github.com/gshashi/mailpilot/internal/config"
	"github.com/gshashi/mailpilot/internal/contextcache"
	"github.com/gshashi/mailpilot/internal/llm"
	"github.com/gshashi/mailpilot/internal/mailbox"
	"github.com/gshashi/mailpilot/internal/metrics"
	"github.com/gshashi/mailpilot/internal/server"
	"github.com/gshashi/mailpilot/internal/store"
)

const version = "0.1.0"

// shutdownTimeout bounds graceful HTTP drain on shutdown.
const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg := config.Load()

	// Setup logger (dual output: stderr text + file JSON)
	logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer cleanup()

	logger.Info("mailpilot starting",
		"version", version,
		"surrealdb_url", cfg.SurrealDBURL,
		"llm_provider", cfg.LLMProvider,
		"addr", cfg.ServerAddr,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	// Connect to the conversation store
	storeCfg := store.Config{
		URL:       cfg.SurrealDBURL,
		Namespace: cfg.SurrealDBNamespace,
		Database:  cfg.SurrealDBDatabase,
		Username:  cfg.SurrealDBUser,
		Password:  cfg.SurrealDBPass,
		AuthLevel: cfg.SurrealDBAuthLevel,
	}

	dbClient, err := store.NewClient(ctx, storeCfg, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		logger.Info("closing database connection")
		_ = dbClient.Close(ctx)
	}()

	if err := dbClient.InitSchema(ctx); err != nil {
		logger.Error("failed to initialize database schema", "error", err)
		os.Exit(1)
	}

	// Create the language oracle
	model, err := llm.NewModel(cfg)
	if err != nil {
		logger.Error("failed to create model", "error", err)
		os.Exit(1)
	}
	logger.Info("model initialized", "model", model.Model())

	// Optional Redis context cache
	var cache *contextcache.Cache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		cache = contextcache.New(rdb, logger)
		logger.Info("context cache enabled", "addr", cfg.RedisAddr)
	}

	dialer := mailbox.NewGmailClient(cfg.GmailBaseURL, logger)

	a := assistant.New(model, dialer, dbClient, cache, metrics.NewCollector(), logger, assistant.Options{
		ConfidenceThreshold: cfg.ConfidenceThreshold,
		HistoryWindow:       cfg.HistoryWindow,
	})

	srv := server.New(a, dbClient, dialer, cfg.JWTSecret, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Listen(cfg.ServerAddr)
	}()

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig)
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
		return
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	logger.Info("mailpilot stopped")
}
