package generation

import (
	"context"
	"fmt"
	"strings"

	"github.com/JaimeStill/go-agents/pkg/agent"
	gaconfig "github.com/JaimeStill/go-agents/pkg/config"
)

// Agent generates completions through a go-agents provider (Ollama, Azure,
// OpenAI-compatible), configured by the [agent] section.
type Agent struct {
	cfg gaconfig.AgentConfig
}

// NewAgent creates an Agent generator. Each call builds its own agent from a
// copy of cfg so the system prompt never leaks between concurrent requests.
func NewAgent(cfg gaconfig.AgentConfig) *Agent {
	return &Agent{cfg: cfg}
}

func (g *Agent) Generate(ctx context.Context, system, user string, maxTokens int, temperature float64) (string, error) {
	cfg := g.cfg
	cfg.SystemPrompt = system

	a, err := agent.New(&cfg)
	if err != nil {
		return "", fmt.Errorf("%w: create agent: %w", ErrUnavailable, err)
	}

	resp, err := a.Chat(ctx, user, map[string]any{
		"max_tokens":  maxTokens,
		"temperature": temperature,
	})
	if err != nil {
		return "", fmt.Errorf("%w: chat call: %w", ErrUnavailable, err)
	}

	content := strings.TrimSpace(resp.Content())
	if content == "" {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, ErrEmptyResponse)
	}
	return content, nil
}
