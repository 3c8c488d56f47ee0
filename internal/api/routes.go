package api

import (
	"net/http"

	"github.com/JaimeStill/triage/internal/answers"
	"github.com/JaimeStill/triage/internal/config"
	"github.com/JaimeStill/triage/internal/ingest"
	"github.com/JaimeStill/triage/internal/verification"
	"github.com/JaimeStill/triage/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
	runtime *Runtime,
) {
	groups := []routes.Group{
		answers.NewHandler(
			domain.Router,
			domain.Classifier,
			domain.Interactions,
			runtime.Logger,
		).Routes(),
		verification.NewHandler(
			domain.Verifier,
			cfg.Retrieval.ClampK,
			runtime.Logger,
		).Routes(),
		ingest.NewHandler(
			domain.Indexer,
			runtime.Logger,
			cfg.API.MaxUploadSizeBytes(),
		).Routes(),
		domain.Tickets.Handler().Routes(),
		domain.Interactions.Handler().Routes(),
		domain.Prompts.Handler().Routes(),
	}

	if runtime.Storage != nil {
		groups = append(groups, newStorageHandler(
			runtime.Storage,
			runtime.Logger,
			cfg.Storage.MaxListSize,
		).routes())
	}

	routes.Register(mux, groups...)
}
