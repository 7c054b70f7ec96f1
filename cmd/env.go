package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadscout/internal/export"
	"github.com/sells-group/leadscout/internal/mapper"
	"github.com/sells-group/leadscout/internal/notify"
	"github.com/sells-group/leadscout/internal/registry"
	"github.com/sells-group/leadscout/internal/store"
	"github.com/sells-group/leadscout/internal/summary"
	syncpkg "github.com/sells-group/leadscout/internal/sync"
	"github.com/sells-group/leadscout/pkg/anthropic"
)

// appEnv holds the initialized store, registry client and services needed by
// the sync/score/export/serve commands.
type appEnv struct {
	Store        store.Store
	Registry     *registry.Client
	Mapper       *mapper.Mapper
	Orchestrator *syncpkg.Orchestrator
	Exporter     *export.Exporter
	Summarizer   *summary.Generator
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initEnv sets up the store, registry client, mapper and orchestrator.
// Callers should defer env.Close().
func initEnv(ctx context.Context) (*appEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	regCfg, err := cfg.RegistryConfig()
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	client := registry.NewClient(regCfg)

	var logos mapper.LogoFinder
	if cfg.Logo.Enabled {
		logos = mapper.NewHTTPLogoFinder(cfg.Logo.BaseURL)
	}
	m := mapper.New(logos)

	var summarizer *summary.Generator
	var syncSummarizer syncpkg.Summarizer
	if cfg.Summary.Enabled && cfg.Anthropic.Key != "" {
		summarizer = summary.New(
			anthropic.NewClient(cfg.Anthropic.Key),
			cfg.Anthropic.Model,
			int64(cfg.Anthropic.MaxTokens),
		)
		syncSummarizer = summarizer
	}

	var notifier syncpkg.Notifier
	if cfg.Notify.Enabled() {
		notifier = notify.New(cfg.Notify)
	}

	return &appEnv{
		Store:        st,
		Registry:     client,
		Mapper:       m,
		Orchestrator: syncpkg.New(client, st, m, cfg.Sync, syncSummarizer, notifier),
		Exporter:     export.New(st),
		Summarizer:   summarizer,
	}, nil
}

// initStore opens the configured database backend.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &cfg.Store.Pool)
	case "sqlite", "":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
