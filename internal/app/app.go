// Package app wires configuration, storage, the ingredient parser and the
// recipe service together. Both binaries build their dependencies here.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/raphaelgruber/recipebox/internal/config"
	"github.com/raphaelgruber/recipebox/internal/db"
	"github.com/raphaelgruber/recipebox/internal/ingredients"
	"github.com/raphaelgruber/recipebox/internal/memstore"
	"github.com/raphaelgruber/recipebox/internal/metrics"
	"github.com/raphaelgruber/recipebox/internal/service"
)

// Options selects how the app is assembled.
type Options struct {
	// Memory uses the in-memory store instead of SurrealDB.
	Memory bool
	// EventBuffer is the per-subscriber event buffer; 0 uses the default.
	EventBuffer int
}

// App holds the wired dependencies.
type App struct {
	Service *service.RecipeService
	Events  *service.Dispatcher
	Metrics *metrics.Collector

	db     *db.Client
	logger *slog.Logger
}

// New creates an app with all dependencies.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	// Create metrics collector for runtime statistics
	mc := metrics.NewCollector()

	var (
		store    service.Store
		dbClient *db.Client
	)
	if opts.Memory {
		logger.Info("using in-memory store")
		store = memstore.New()
	} else {
		dbCfg := db.Config{
			URL:       cfg.SurrealDBURL,
			Namespace: cfg.SurrealDBNamespace,
			Database:  cfg.SurrealDBDatabase,
			Username:  cfg.SurrealDBUser,
			Password:  cfg.SurrealDBPass,
			AuthLevel: cfg.SurrealDBAuthLevel,
		}
		client, err := db.NewClient(ctx, dbCfg, logger, mc)
		if err != nil {
			return nil, err
		}
		if err := client.InitSchema(ctx); err != nil {
			_ = client.Close(ctx)
			return nil, err
		}
		store, dbClient = client, client
	}

	parser, err := ingredients.New(ctx, cfg, logger, mc)
	if err != nil {
		if dbClient != nil {
			_ = dbClient.Close(ctx)
		}
		return nil, fmt.Errorf("ingredient parser: %w", err)
	}

	events := service.NewDispatcher(opts.EventBuffer)
	svc := service.NewRecipeService(store, service.Options{
		Logger:  logger,
		Metrics: mc,
		Parser:  parser,
		Events:  events,
	})

	return &App{
		Service: svc,
		Events:  events,
		Metrics: mc,
		db:      dbClient,
		logger:  logger,
	}, nil
}

// Close closes all connections.
func (a *App) Close(ctx context.Context) error {
	if a.db != nil {
		return a.db.Close(ctx)
	}
	return nil
}

// WipeData deletes all data from the database. Use for testing only.
func (a *App) WipeData(ctx context.Context) error {
	if a.db == nil {
		return errors.New("wipe: not supported by the in-memory store")
	}
	return a.db.WipeData(ctx)
}
