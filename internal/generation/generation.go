// Package generation defines the text generation collaborator used by the
// classifier, the answer pipeline, and the verification judge, along with
// the providers that back it.
package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/triage/internal/config"
)

// Generator produces a completion for a system/user prompt pair.
// Implementations must be safe for concurrent use. Any failure is returned as
// an error wrapping ErrUnavailable; callers only distinguish success from failure.
type Generator interface {
	Generate(ctx context.Context, system, user string, maxTokens int, temperature float64) (string, error)
}

var (
	ErrUnavailable     = errors.New("generator unavailable")
	ErrEmptyResponse   = errors.New("generator returned no content")
	ErrUnknownProvider = errors.New("unknown generation provider")
)

// New builds the Generator selected by cfg.LLM.Provider.
// A nil Generator with a nil error means generation is intentionally disabled
// and callers must take their deterministic fallback paths.
func New(cfg *config.Config, logger *slog.Logger) (Generator, error) {
	logger = logger.With("system", "generation")

	switch cfg.LLM.Provider {
	case config.ProviderNone:
		logger.Warn("generation disabled", "provider", cfg.LLM.Provider)
		return nil, nil
	case config.ProviderOpenAI:
		if cfg.LLM.APIKey == "" {
			logger.Warn("generation disabled: no api key configured", "provider", cfg.LLM.Provider)
			return nil, nil
		}
		g, err := NewOpenAI(&cfg.LLM)
		if err != nil {
			return nil, err
		}
		logger.Info("generator ready", "provider", cfg.LLM.Provider, "model", cfg.LLM.Model)
		return g, nil
	case config.ProviderAgent:
		g := NewAgent(cfg.Agent)
		logger.Info("generator ready", "provider", cfg.LLM.Provider, "agent", cfg.Agent.Name)
		return g, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.LLM.Provider)
	}
}

// Ping issues a minimal completion to prove the generator is reachable.
func Ping(ctx context.Context, g Generator) (string, error) {
	if g == nil {
		return "", fmt.Errorf("%w: not configured", ErrUnavailable)
	}
	return g.Generate(ctx, "You are a connectivity probe.", "Reply with the single word: pong", 5, 0)
}
