// Package app wires configuration, storage and the dashboard service
// together for the server and the CLI.
package app

import (
	"context"
	"fmt"

	"github.com/intake-tracker/backend/internal/cache"
	"github.com/intake-tracker/backend/internal/config"
	"github.com/intake-tracker/backend/internal/dashboard"
	"github.com/intake-tracker/backend/internal/models"
	"github.com/intake-tracker/backend/internal/parser"
	"github.com/intake-tracker/backend/internal/storage"
)

// App holds the long-lived components built from one configuration.
type App struct {
	Config  *config.AppConfig
	Store   storage.SheetStore
	Cache   *cache.TableCache
	Rules   *models.Rules
	Service *dashboard.Service
}

// New opens the configured sheet store and builds the dashboard service.
func New(ctx context.Context, cfg *config.AppConfig) (*App, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	rules, err := parser.LoadRules(cfg.Parsing.RulesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(ctx, cfg.StorageOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open sheet: %w", err)
	}

	tc := cache.NewTableCache(cfg.CacheTTL())
	resolver := parser.NewTimestampResolver(cfg.Parsing.DayFirst, loc)

	return &App{
		Config:  cfg,
		Store:   store,
		Cache:   tc,
		Rules:   rules,
		Service: dashboard.NewService(store, tc, rules, resolver),
	}, nil
}

// Close releases the sheet store.
func (a *App) Close() error {
	return storage.Close(a.Store)
}
