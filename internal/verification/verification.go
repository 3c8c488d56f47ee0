// Package verification estimates whether an answer is grounded in the
// evidence its question retrieves, using a lexical overlap score and an
// optional model judge.
package verification

import (
	"context"
	"log/slog"
	"math"
	"regexp"
	"strings"

	"github.com/JaimeStill/triage/internal/generation"
	"github.com/JaimeStill/triage/internal/prompts"
	"github.com/JaimeStill/triage/internal/retrieval"
	"github.com/JaimeStill/triage/pkg/formatting"
)

// Judge decisions. Supported and NotSupported come from the model; the
// rest describe why no model decision is available.
const (
	Supported    = "SUPPORTED"
	NotSupported = "NOT_SUPPORTED"
	NoJudge      = "NO_JUDGE"
	Unparsed     = "UNPARSED"
	Failed       = "ERROR"
)

const (
	judgeSystem     = "You are a precise fact-checker. Use ONLY the provided evidence."
	judgeMaxTokens  = 250
	judgeMaxChunks  = 6
	judgeChunkChars = 2000
)

var tokenPattern = regexp.MustCompile(`\w+`)

// Judgment is the judge's verdict on an answer.
type Judgment struct {
	Decision string `json:"decision"`
	Score    *int   `json:"score,omitempty"`
	Reason   string `json:"reason,omitempty"`
	Raw      string `json:"raw,omitempty"`
}

// Report summarises a verification pass.
type Report struct {
	OverlapScore  float64  `json:"overlap_score"`
	NumRetrieved  int      `json:"num_retrieved"`
	RetrievedDocs []string `json:"retrieved_docs"`
	Judgment      Judgment `json:"judgment"`
	Error         string   `json:"error,omitempty"`
}

// Verifier re-runs retrieval for a question and scores an answer against it.
type Verifier struct {
	retriever retrieval.Retriever
	judge     generation.Generator
	prompts   prompts.Source
	logger    *slog.Logger
}

// New creates a Verifier. judge may be nil, in which case only the overlap
// score is computed.
func New(r retrieval.Retriever, judge generation.Generator, src prompts.Source, logger *slog.Logger) *Verifier {
	return &Verifier{
		retriever: r,
		judge:     judge,
		prompts:   src,
		logger:    logger.With("system", "verification"),
	}
}

// Verify checks answer against the public collection.
func (v *Verifier) Verify(ctx context.Context, question, answer string, k int) Report {
	return v.VerifyIn(ctx, question, answer, k, retrieval.Public)
}

// VerifyIn checks answer against collection.
func (v *Verifier) VerifyIn(ctx context.Context, question, answer string, k int, collection retrieval.Collection) Report {
	chunks, err := v.retriever.Retrieve(ctx, question, k, collection)
	if err != nil {
		v.logger.WarnContext(ctx, "verification retrieval failed", "collection", collection, "error", err)
		return Report{
			RetrievedDocs: []string{},
			Judgment:      Judgment{Decision: Failed, Reason: "retrieval unavailable"},
			Error:         err.Error(),
		}
	}

	report := Report{
		OverlapScore:  Overlap(answer, chunks),
		NumRetrieved:  len(chunks),
		RetrievedDocs: retrieval.DocIDs(chunks),
		Judgment:      v.judgeAnswer(ctx, question, answer, chunks),
	}

	v.logger.InfoContext(ctx, "answer verified",
		"collection", collection,
		"overlap", report.OverlapScore,
		"retrieved", report.NumRetrieved,
		"decision", report.Judgment.Decision,
	)
	return report
}

// Overlap is the fraction of the answer's lowercase word tokens found in
// the joined lowercase evidence text. An empty answer scores zero.
func Overlap(answer string, chunks []retrieval.Chunk) float64 {
	tokens := tokenPattern.FindAllString(strings.ToLower(answer), -1)
	if len(tokens) == 0 {
		return 0
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = strings.ToLower(c.Text)
	}
	evidence := strings.Join(texts, " ")

	found := 0
	for _, t := range tokens {
		if strings.Contains(evidence, t) {
			found++
		}
	}
	return float64(found) / float64(len(tokens))
}

type judgeReply struct {
	Decision string   `json:"decision"`
	Score    *float64 `json:"score"`
	Reason   string   `json:"reason"`
}

func (v *Verifier) judgeAnswer(ctx context.Context, question, answer string, chunks []retrieval.Chunk) Judgment {
	if v.judge == nil {
		return Judgment{Decision: NoJudge, Reason: "no judge available"}
	}

	user := prompts.Compose(ctx, v.prompts, prompts.StageJudge) +
		"\n\nQUESTION:\n" + question +
		"\n\nRETRIEVED EVIDENCE:\n" + JudgeEvidence(chunks) +
		"\n\nANSWER:\n" + answer

	raw, err := v.judge.Generate(ctx, judgeSystem, user, judgeMaxTokens, 0)
	if err != nil {
		v.logger.WarnContext(ctx, "judge call failed", "error", err)
		return Judgment{Decision: Failed, Reason: err.Error()}
	}

	reply, err := formatting.Parse[judgeReply](raw)
	if err != nil {
		return Judgment{Decision: Unparsed, Raw: raw}
	}

	decision := strings.ToUpper(strings.TrimSpace(reply.Decision))
	if decision != Supported && decision != NotSupported {
		return Judgment{Decision: Unparsed, Raw: raw}
	}

	j := Judgment{Decision: decision, Reason: reply.Reason, Raw: raw}
	if reply.Score != nil {
		score := clampScore(*reply.Score)
		j.Score = &score
	}
	return j
}

// JudgeEvidence renders at most six chunks, each cut to 2000 characters,
// for the judge prompt.
func JudgeEvidence(chunks []retrieval.Chunk) string {
	chunks = chunks[:min(len(chunks), judgeMaxChunks)]

	parts := make([]string, len(chunks))
	for i, c := range chunks {
		text := []rune(c.Text)
		if len(text) > judgeChunkChars {
			text = text[:judgeChunkChars]
		}
		parts[i] = "=== " + c.Label() + " ===\n" + string(text)
	}
	return strings.Join(parts, "\n\n")
}

func clampScore(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	return int(math.Round(math.Max(0, math.Min(100, v))))
}
