package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/vijay-prabhu/researchdesk/internal/config"
	"github.com/vijay-prabhu/researchdesk/internal/database"
	"github.com/vijay-prabhu/researchdesk/internal/fetch"
	"github.com/vijay-prabhu/researchdesk/internal/llm"
	"github.com/vijay-prabhu/researchdesk/internal/logger"
	"github.com/vijay-prabhu/researchdesk/internal/pipeline"
	"github.com/vijay-prabhu/researchdesk/internal/rules"
	"github.com/vijay-prabhu/researchdesk/internal/search"
	"github.com/vijay-prabhu/researchdesk/internal/search/exa"
	"github.com/vijay-prabhu/researchdesk/internal/search/google"
)

// app bundles the dependencies shared by commands
type app struct {
	cfg   *config.Config
	log   logger.Logger
	db    *database.DB
	store *rules.Store
}

// newApp loads configuration, opens the database and loads the rules
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	log, err := logger.New(logger.Config{Level: level})
	if err != nil {
		return nil, err
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := rules.NewStore(database.NewRuleRepository(db))
	if err := store.Initialize(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return &app{cfg: cfg, log: log, db: db, store: store}, nil
}

func (a *app) Close() {
	_ = a.log.Sync()
	a.db.Close()
}

// pipeline wires search, LLM and rules. withSearch is false for commands
// that only categorize records they already have.
func (a *app) pipeline(ctx context.Context, withSearch bool, opts ...pipeline.Option) (*pipeline.Pipeline, error) {
	var sp search.Provider
	if withSearch {
		p, err := newSearchProvider(ctx, a.cfg, a.log)
		if err != nil {
			return nil, err
		}
		sp = p
	}

	client, err := llm.New(ctx, a.cfg, a.log)
	if err != nil {
		return nil, err
	}

	opts = append([]pipeline.Option{pipeline.WithLogger(a.log)}, opts...)
	return pipeline.New(sp, client, a.store, a.cfg, opts...), nil
}

func newSearchProvider(ctx context.Context, cfg *config.Config, log logger.Logger) (search.Provider, error) {
	switch cfg.Search.Provider {
	case "exa":
		key := cfg.ExaAPIKey()
		if key == "" {
			return nil, errors.New("EXA_API_KEY is not set")
		}
		return exa.New(cfg.Search.Exa.BaseURL, key, log), nil
	case "google":
		key := cfg.GoogleAPIKey()
		if key == "" {
			return nil, errors.New("GOOGLE_API_KEY is not set")
		}
		p, err := google.New(ctx, key, cfg.Search.Google.CX, fetch.New(), log)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown search provider: %s", cfg.Search.Provider)
	}
}
