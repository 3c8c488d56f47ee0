package generation

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/JaimeStill/triage/internal/config"
)

// OpenAI generates completions through an OpenAI-compatible chat endpoint.
type OpenAI struct {
	model llms.Model
}

// NewOpenAI creates an OpenAI generator from the LLM configuration.
func NewOpenAI(cfg *config.LLMConfig) (*OpenAI, error) {
	client, err := NewOpenAIClient(cfg)
	if err != nil {
		return nil, err
	}
	return &OpenAI{model: client}, nil
}

// NewOpenAIClient creates the langchaingo client shared by chat generation
// and embeddings.
func NewOpenAIClient(cfg *config.LLMConfig) (*openai.LLM, error) {
	opts := []openai.Option{
		openai.WithModel(cfg.Model),
		openai.WithEmbeddingModel(cfg.EmbeddingModel),
	}
	if cfg.APIKey != "" {
		opts = append(opts, openai.WithToken(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("init openai client: %w", err)
	}
	return client, nil
}

// WithModel wraps an existing langchaingo model.
func WithModel(model llms.Model) *OpenAI {
	return &OpenAI{model: model}
}

func (g *OpenAI) Generate(ctx context.Context, system, user string, maxTokens int, temperature float64) (string, error) {
	msgs := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, user),
	}

	resp, err := g.model.GenerateContent(
		ctx, msgs,
		llms.WithTemperature(temperature),
		llms.WithMaxTokens(maxTokens),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, ErrEmptyResponse)
	}

	content := strings.TrimSpace(resp.Choices[0].Content)
	if content == "" {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, ErrEmptyResponse)
	}
	return content, nil
}
