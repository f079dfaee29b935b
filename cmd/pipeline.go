package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/oankit/cf-ai-observability-agent/internal/capability"
	"github.com/oankit/cf-ai-observability-agent/internal/config"
	"github.com/oankit/cf-ai-observability-agent/internal/conversation"
	"github.com/oankit/cf-ai-observability-agent/internal/intent"
	"github.com/oankit/cf-ai-observability-agent/internal/memory"
	"github.com/oankit/cf-ai-observability-agent/internal/observability"
	"github.com/oankit/cf-ai-observability-agent/internal/provider"
	"github.com/oankit/cf-ai-observability-agent/internal/synth"
)

// pipeline bundles everything a command needs to answer queries.
type pipeline struct {
	manager *conversation.Manager
	close   func()
}

// buildOracles constructs the embedding, classification, and generation
// oracles for the configured provider. Anthropic deployments still embed
// through an OpenAI-compatible endpoint.
func buildOracles(cfg *config.Config) (provider.Embedder, provider.Classifier, provider.Generator, error) {
	oa := cfg.GetProviderConfig("openai")
	openaiOracle := provider.NewOpenAIOracle(oa.APIKey, oa.BaseURL, oa.Model, oa.EmbeddingModel)

	switch cfg.Provider {
	case "openai":
		if oa.APIKey == "" {
			return nil, nil, nil, fmt.Errorf("no API key configured for openai (set LLM_API_KEY or providers.openai.api_key)")
		}
		return openaiOracle, openaiOracle, openaiOracle, nil
	case "anthropic":
		ac := cfg.GetProviderConfig("anthropic")
		if ac.APIKey == "" {
			return nil, nil, nil, fmt.Errorf("no API key configured for anthropic (set ANTHROPIC_API_KEY or providers.anthropic.api_key)")
		}
		anthropicOracle := provider.NewAnthropicOracle(ac.APIKey, ac.BaseURL, ac.Model)
		return openaiOracle, anthropicOracle, anthropicOracle, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

// buildPipeline wires the full query pipeline from config. metrics may be
// nil (the ask command runs without instrumentation).
func buildPipeline(ctx context.Context, cfg *config.Config, metrics *observability.Metrics, log *zap.Logger) (*pipeline, error) {
	if err := intent.ValidateTable(); err != nil {
		return nil, err
	}

	embedder, classifierOracle, generator, err := buildOracles(cfg)
	if err != nil {
		return nil, err
	}
	embedder = observability.InstrumentEmbedder(embedder, metrics)
	classifierOracle = observability.InstrumentClassifier(classifierOracle, metrics)
	generator = observability.InstrumentGenerator(generator, metrics)

	dbPath := cfg.Storage.SQLitePath
	if dbPath == "" {
		dbPath, err = conversation.DefaultDBPath()
		if err != nil {
			return nil, err
		}
	}
	sqliteStore, err := conversation.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}

	// The vector index shares the SQLite database file with the session
	// store; Postgres deployments keep the cache local.
	index, err := memory.NewSQLiteIndex(sqliteStore.DB())
	if err != nil {
		sqliteStore.Close()
		return nil, fmt.Errorf("open vector index: %w", err)
	}

	var store conversation.Store = sqliteStore
	closeStore := func() { sqliteStore.Close() }
	if cfg.Storage.Driver == "postgres" {
		pgStore, err := conversation.NewPostgresStore(ctx, cfg.Storage.PostgresURL)
		if err != nil {
			sqliteStore.Close()
			return nil, fmt.Errorf("open postgres session store: %w", err)
		}
		store = pgStore
		closeStore = func() {
			pgStore.Close()
			sqliteStore.Close()
		}
	}

	cache := memory.NewCache(embedder, index, cfg.Cache.Threshold, log)
	classifier := intent.NewClassifier(classifierOracle, log)
	router, err := capability.NewRouter(log,
		capability.LogsProvider{},
		capability.AnalyticsProvider{},
		capability.TracesProvider{},
	)
	if err != nil {
		closeStore()
		return nil, err
	}
	synthesizer := synth.NewSynthesizer(generator, log)

	manager := conversation.NewManager(store, cache, classifier, router, synthesizer, metrics, log)
	return &pipeline{manager: manager, close: closeStore}, nil
}
