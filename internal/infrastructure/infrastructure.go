// Package infrastructure assembles the shared systems every entry point needs:
// logging, the Postgres pool, the document archive, metrics, the text
// generator and the embedder.
package infrastructure

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/JaimeStill/triage/internal/config"
	"github.com/JaimeStill/triage/internal/generation"
	"github.com/JaimeStill/triage/internal/retrieval"
	"github.com/JaimeStill/triage/pkg/database"
	"github.com/JaimeStill/triage/pkg/lifecycle"
	"github.com/JaimeStill/triage/pkg/metrics"
	"github.com/JaimeStill/triage/pkg/storage"
)

// Infrastructure holds the systems shared by the server and the commands.
//
// Storage is nil when no blob account is configured, Generator is nil when
// generation is disabled, and Embedder is nil when no embedding client could
// be created. Consumers take their degraded paths in each case.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System
	Metrics   *metrics.Metrics
	Generator generation.Generator
	Embedder  retrieval.Embedder
}

// New creates an Infrastructure from the application configuration.
// Systems are initialized but not started; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	var store storage.System
	if cfg.Storage.Enabled() {
		store, err = storage.New(&cfg.Storage, logger)
		if err != nil {
			return nil, fmt.Errorf("storage init failed: %w", err)
		}
	} else {
		logger.Warn("document archive disabled: no storage account configured")
	}

	gen, err := generation.New(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("generation init failed: %w", err)
	}

	embedder, err := newEmbedder(&cfg.LLM, &cfg.Retrieval)
	if err != nil {
		logger.Warn("retrieval disabled: embedder unavailable", "error", err)
	}

	return &Infrastructure{
		Lifecycle: lifecycle.New(),
		Logger:    logger,
		Database:  db,
		Storage:   store,
		Metrics:   metrics.New(),
		Generator: gen,
		Embedder:  embedder,
	}, nil
}

// Start registers all infrastructure systems with the lifecycle coordinator.
func (i *Infrastructure) Start() error {
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	if i.Storage != nil {
		if err := i.Storage.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("storage start failed: %w", err)
		}
	}
	return nil
}

// newEmbedder returns the configured embedder, wrapped in a query cache
// unless the cache size is zero.
func newEmbedder(llm *config.LLMConfig, cfg *config.RetrievalConfig) (retrieval.Embedder, error) {
	inner, err := retrieval.NewEmbedder(llm)
	if err != nil {
		return nil, err
	}
	if cfg.CacheEntries() == 0 {
		return inner, nil
	}

	cached, err := retrieval.NewCachedEmbedder(inner, cfg.CacheEntries())
	if err != nil {
		return nil, err
	}
	return cached, nil
}
