package sensitivity

import (
	"context"
	"errors"
	"log/slog"

	"github.com/JaimeStill/triage/internal/generation"
	"github.com/JaimeStill/triage/internal/prompts"
	"github.com/JaimeStill/triage/pkg/formatting"
	"github.com/JaimeStill/triage/pkg/metrics"
)

const (
	classifySystem    = "You are a deterministic, rule-following text classifier."
	classifyMaxTokens = 150
)

// Classifier runs the rule stage and the model fallback.
type Classifier struct {
	gen     generation.Generator
	prompts prompts.Source
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New creates a Classifier. gen may be nil, in which case unmatched queries
// degrade to YELLOW without a model call. A nil prompt source uses the
// built-in instructions.
func New(gen generation.Generator, src prompts.Source, m *metrics.Metrics, logger *slog.Logger) *Classifier {
	return &Classifier{
		gen:     gen,
		prompts: src,
		metrics: m,
		logger:  logger.With("system", "sensitivity"),
	}
}

type modelReply struct {
	Label      Label   `json:"label"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// Classify labels query. It never fails; the returned confidence is always
// within [0, 1].
func (c *Classifier) Classify(ctx context.Context, query string) Result {
	result, ok := Rules(query)
	if !ok {
		result = c.model(ctx, query)
	}
	result.Confidence = clamp(result.Confidence)

	c.metrics.Classified(string(result.Label), string(result.Stage))
	c.logger.InfoContext(ctx, "query classified",
		"label", result.Label,
		"confidence", result.Confidence,
		"stage", result.Stage,
	)
	return result
}

func (c *Classifier) model(ctx context.Context, query string) (result Result) {
	if c.gen == nil {
		return Degraded("no classifier model configured")
	}

	defer func() {
		if r := recover(); r != nil {
			c.logger.ErrorContext(ctx, "classifier panic recovered", "panic", r)
			result = Degraded("classifier error")
		}
	}()

	user := prompts.Compose(ctx, c.prompts, prompts.StageClassify) + "\n\nQuery: \"" + query + "\""

	reply, err := c.gen.Generate(ctx, classifySystem, user, classifyMaxTokens, 0)
	if err != nil {
		c.logger.WarnContext(ctx, "classifier model failed", "error", err)
		return Degraded("classifier error")
	}

	parsed, err := formatting.Parse[modelReply](reply)
	switch {
	case errors.Is(err, formatting.ErrNoObject):
		return Degraded("No valid JSON returned")
	case err != nil, parsed.Label == "":
		return Degraded("Could not parse model JSON")
	}

	return Result{
		Label:      parsed.Label,
		Confidence: clamp(parsed.Confidence),
		Reason:     parsed.Reason,
		Stage:      StageModel,
	}
}
