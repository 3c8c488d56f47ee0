package api

import (
	"github.com/JaimeStill/triage/internal/config"
	"github.com/JaimeStill/triage/internal/infrastructure"
	"github.com/JaimeStill/triage/pkg/pagination"
)

// Runtime extends Infrastructure with the configuration sections the API
// domain systems read.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination pagination.Config
	Retrieval  *config.RetrievalConfig
	Tickets    *config.TicketsConfig
	Ingest     *config.IngestConfig
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	scoped := *infra
	scoped.Logger = infra.Logger.With("module", "api")

	return &Runtime{
		Infrastructure: &scoped,
		Pagination:     cfg.API.Pagination,
		Retrieval:      &cfg.Retrieval,
		Tickets:        &cfg.Tickets,
		Ingest:         &cfg.Ingest,
	}
}
