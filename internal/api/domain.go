package api

import (
	"github.com/JaimeStill/triage/internal/answers"
	"github.com/JaimeStill/triage/internal/ingest"
	"github.com/JaimeStill/triage/internal/interactions"
	"github.com/JaimeStill/triage/internal/pipeline"
	"github.com/JaimeStill/triage/internal/prompts"
	"github.com/JaimeStill/triage/internal/retrieval"
	"github.com/JaimeStill/triage/internal/sensitivity"
	"github.com/JaimeStill/triage/internal/tickets"
	"github.com/JaimeStill/triage/internal/verification"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Prompts      prompts.System
	Tickets      tickets.System
	Interactions interactions.System
	Store        *retrieval.Store
	Classifier   *sensitivity.Classifier
	Filer        *tickets.Filer
	Router       *answers.Router
	Verifier     *verification.Verifier
	Indexer      *ingest.Indexer
}

// NewDomain creates all domain systems from the API runtime.
//
// Review tickets always go to the append-only file log; the database sink is
// added when ticket persistence is enabled.
func NewDomain(runtime *Runtime) *Domain {
	db := runtime.Database.Connection()

	promptsSystem := prompts.New(db, runtime.Logger, runtime.Pagination)
	ticketsSystem := tickets.New(db, runtime.Logger, runtime.Pagination)
	interactionsSystem := interactions.New(db, runtime.Logger, runtime.Pagination)

	store := retrieval.NewStore(db, runtime.Embedder, runtime.Retrieval, runtime.Logger)

	classifier := sensitivity.New(
		runtime.Generator,
		promptsSystem,
		runtime.Metrics,
		runtime.Logger,
	)

	sinks := []tickets.Sink{tickets.NewFileLog(runtime.Tickets.LogPath)}
	if runtime.Tickets.PersistEnabled() {
		sinks = append(sinks, ticketsSystem)
	}
	filer := tickets.NewFiler(runtime.Logger, runtime.Metrics, sinks...)

	router := answers.New(answers.Runtime{
		Classifier: classifier,
		Filer:      filer,
		Pipeline:   pipeline.New(store, runtime.Generator, promptsSystem, runtime.Logger),
		Metrics:    runtime.Metrics,
		Logger:     runtime.Logger,
		Threshold:  runtime.Tickets.Threshold,
		DefaultK:   runtime.Retrieval.DefaultK,
		MaxK:       runtime.Retrieval.MaxK,
	})

	verifier := verification.New(store, runtime.Generator, promptsSystem, runtime.Logger)

	var archive ingest.Archive
	if runtime.Storage != nil {
		archive = runtime.Storage
	}
	indexer := ingest.New(runtime.Ingest, store, archive, runtime.Logger)

	return &Domain{
		Prompts:      promptsSystem,
		Tickets:      ticketsSystem,
		Interactions: interactionsSystem,
		Store:        store,
		Classifier:   classifier,
		Filer:        filer,
		Router:       router,
		Verifier:     verifier,
		Indexer:      indexer,
	}
}
