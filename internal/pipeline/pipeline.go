// Package pipeline runs retrieval followed by evidence-grounded generation
// against one collection, degrading to an evidence excerpt when generation
// is unavailable.
package pipeline

import (
	"context"
	"log/slog"
	"strings"

	"github.com/JaimeStill/triage/internal/generation"
	"github.com/JaimeStill/triage/internal/prompts"
	"github.com/JaimeStill/triage/internal/retrieval"
)

// Outcome names how a pipeline run ended.
type Outcome string

const (
	Generated            Outcome = "generated"
	Fallback             Outcome = "fallback"
	NoDocuments          Outcome = "no_documents"
	RetrievalUnavailable Outcome = "retrieval_unavailable"
)

const (
	// NoDocumentsMessage is returned when the collection holds nothing relevant.
	NoDocumentsMessage = "No documents found in the index."
	// UnavailableMessage is returned when the collection cannot be searched.
	UnavailableMessage = "The knowledge base is temporarily unavailable; please try again later."

	answerMaxTokens = 512
	excerptLimit    = 4000
)

// Result is the answer text with its structured provenance.
type Result struct {
	Text       string            `json:"text"`
	Provenance []string          `json:"provenance"`
	Chunks     []retrieval.Chunk `json:"chunks,omitempty"`
	Outcome    Outcome           `json:"outcome"`
}

// String renders the text with the retrieved document list appended to
// generated answers.
func (r Result) String() string {
	if r.Outcome != Generated || len(r.Provenance) == 0 {
		return r.Text
	}
	return r.Text + "\n\n[Retrieved docs: " + strings.Join(r.Provenance, ", ") + "]"
}

// Pipeline binds a retriever and an optional generator.
type Pipeline struct {
	retriever retrieval.Retriever
	gen       generation.Generator
	prompts   prompts.Source
	logger    *slog.Logger
}

// New creates a Pipeline. gen may be nil, in which case every run with
// evidence yields the fallback excerpt.
func New(r retrieval.Retriever, gen generation.Generator, src prompts.Source, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		retriever: r,
		gen:       gen,
		prompts:   src,
		logger:    logger.With("system", "pipeline"),
	}
}

// Run answers question from the top k chunks of collection. It never fails.
func (p *Pipeline) Run(ctx context.Context, question string, k int, collection retrieval.Collection) Result {
	chunks, err := p.retriever.Retrieve(ctx, question, k, collection)
	if err != nil {
		p.logger.ErrorContext(ctx, "retrieval failed", "collection", collection, "error", err)
		return Result{Text: UnavailableMessage, Provenance: []string{}, Outcome: RetrievalUnavailable}
	}
	if len(chunks) == 0 {
		return Result{Text: NoDocumentsMessage, Provenance: []string{}, Outcome: NoDocuments}
	}

	evidence := retrieval.Compose(chunks)
	provenance := retrieval.DocIDs(chunks)

	if p.gen == nil {
		return Result{Text: FallbackText(evidence, nil), Provenance: provenance, Chunks: chunks, Outcome: Fallback}
	}

	system := prompts.Compose(ctx, p.prompts, prompts.StageAnswer)
	answer, err := p.gen.Generate(ctx, system, UserPrompt(question, evidence), answerMaxTokens, 0)
	if err != nil {
		p.logger.WarnContext(ctx, "generation failed, returning evidence excerpt",
			"collection", collection,
			"error", err,
		)
		return Result{Text: FallbackText(evidence, err), Provenance: provenance, Chunks: chunks, Outcome: Fallback}
	}

	return Result{Text: answer, Provenance: provenance, Chunks: chunks, Outcome: Generated}
}

// UserPrompt formats the question and evidence for the answer stage.
func UserPrompt(question, evidence string) string {
	return "Question:\n" + question + "\n\nRetrieved Evidence:\n" + evidence + "\n\nAnswer:"
}

// FallbackText presents the leading evidence when no generation occurred.
// A nil cause means no generator is configured; otherwise the call failed.
// The cause itself is logged, not shown.
func FallbackText(evidence string, cause error) string {
	reason := "no generator is configured"
	hint := "If you want a polished answer, configure llm.provider and its credentials and re-run."
	if cause != nil {
		reason = "the generation request failed"
		hint = "The generator may be temporarily unavailable; try again later for a polished answer."
	}
	return "I could not call a generator (" + reason + "); here are the top retrieved evidence chunks:\n\n" +
		truncate(evidence, excerptLimit) +
		"\n\n" + hint
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
