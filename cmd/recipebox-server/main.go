// Package main provides the HTTP server for recipebox.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/raphaelgruber/recipebox/internal/app"
	"github.com/raphaelgruber/recipebox/internal/config"
	"github.com/raphaelgruber/recipebox/internal/server"
)

const version = "0.1.0"

func main() {
	// Parse flags
	wipeDB := flag.Bool("wipe", false, "wipe all data from database on startup (testing only)")
	memory := flag.Bool("memory", false, "use an in-memory store instead of SurrealDB")
	flag.Parse()

	// Load configuration
	cfg := config.Load()

	// Setup logger (dual output: stderr text + file JSON)
	logger, cleanup := config.SetupLogger(cfg, "server")
	defer cleanup()

	logger.Info("recipebox-server starting",
		"version", version,
		"port", cfg.ServerPort,
		"memory", *memory,
		"surrealdb_url", cfg.SurrealDBURL,
		"llm_provider", cfg.LLMProvider,
	)

	// Create app with all dependencies
	initCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	a, err := app.New(initCtx, cfg, logger, app.Options{Memory: *memory})
	cancel()
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := a.Close(context.Background()); err != nil {
			logger.Error("failed to close app", "error", err)
		}
	}()

	// Wipe database if requested (via flag or env var)
	if *wipeDB || os.Getenv("RECIPEBOX_WIPE_DB") == "true" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := a.WipeData(ctx)
		cancel()
		if err != nil {
			logger.Error("failed to wipe database", "error", err)
			os.Exit(1)
		}
	}

	// Handle shutdown signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(a.Service, a.Events, logger)
	if err := srv.Run(ctx, fmt.Sprintf(":%d", cfg.ServerPort)); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
