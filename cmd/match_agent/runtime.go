package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/daniel/expert-match/internal/admission"
	"github.com/daniel/expert-match/internal/config"
	"github.com/daniel/expert-match/internal/db"
	"github.com/daniel/expert-match/internal/embedding"
	"github.com/daniel/expert-match/internal/graph"
	"github.com/daniel/expert-match/internal/matching"
)

// runtime bundles the wired backends shared by all subcommands.
type runtime struct {
	cfg          config.Config
	db           *db.DB
	orchestrator *matching.Orchestrator
	logger       *slog.Logger

	closers []func() error
}

// loadConfig assembles the effective configuration: file, then
// environment, then defaults.
func loadConfig() (config.Config, error) {
	cfg := &config.Config{}
	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}
	cfg.LoadEnv()
	if verbose {
		cfg.Verbose = true
	}

	merged := cfg.MergeWithDefaults(config.Defaults())
	if err := merged.Validate(); err != nil {
		return config.Config{}, err
	}
	return merged, nil
}

func newLogger(cfg config.Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// newRuntime connects the database, the graph backend, and the Gemini
// client, and wires them into an orchestrator. Callers must invoke
// close when done.
func newRuntime(ctx context.Context) (*runtime, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg)

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	rt := &runtime{cfg: cfg, db: database, logger: logger}
	rt.closers = append(rt.closers, func() error {
		database.Close()
		return nil
	})

	graphStore := graph.NewAGEStore(database.Pool(), cfg.GraphName)
	exists, err := graphStore.GraphExists(ctx)
	if err != nil {
		logger.Warn("graph availability check failed", "graph", cfg.GraphName, "error", err)
	} else if !exists {
		logger.Warn("graph does not exist; relationship scores will be zero", "graph", cfg.GraphName)
	}
	graphScorer := graph.NewScorer(graphStore, logger)

	ctrl := admission.NewController(cfg.Limits)

	var embedder embedding.Embedder
	var describer embedding.Describer
	if cfg.APIKey != "" {
		emCfg := embedding.Config{APIKey: cfg.APIKey}
		gemini, err := embedding.NewGeminiEmbedder(ctx, emCfg, ctrl, admission.DefaultPolicy)
		if err != nil {
			rt.close()
			return nil, fmt.Errorf("failed to create embedding client: %w", err)
		}
		rt.closers = append(rt.closers, gemini.Close)
		embedder = gemini

		desc, err := embedding.NewGeminiDescriber(ctx, emCfg, ctrl, admission.DefaultPolicy)
		if err != nil {
			rt.close()
			return nil, fmt.Errorf("failed to create describer client: %w", err)
		}
		rt.closers = append(rt.closers, desc.Close)
		describer = desc
	} else {
		logger.Warn("GEMINI_API_KEY not set; similarity scores will fall back to weight redistribution")
	}

	rt.orchestrator = matching.New(database, graphScorer, embedder, describer, matching.Options{
		Workers: cfg.Workers,
		Logger:  logger,
	})
	return rt, nil
}

func (rt *runtime) close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			rt.logger.Warn("cleanup failed", "error", err)
		}
	}
}
