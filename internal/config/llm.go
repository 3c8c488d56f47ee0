package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
)

// Generation providers selectable through llm.provider.
const (
	ProviderNone   = "none"
	ProviderOpenAI = "openai"
	ProviderAgent  = "agent"
)

var providers = []string{ProviderNone, ProviderOpenAI, ProviderAgent}

const (
	EnvLLMProvider            = "TRIAGE_LLM_PROVIDER"
	EnvLLMModel               = "TRIAGE_LLM_MODEL"
	EnvLLMAPIKey              = "TRIAGE_LLM_API_KEY"
	EnvLLMBaseURL             = "TRIAGE_LLM_BASE_URL"
	EnvLLMEmbeddingModel      = "TRIAGE_LLM_EMBEDDING_MODEL"
	EnvLLMEmbeddingDimensions = "TRIAGE_LLM_EMBEDDING_DIMENSIONS"

	// EnvOpenAIAPIKey is honoured as a fallback so existing .env files keep working.
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
)

// LLMConfig selects and configures the generation and embedding backends.
type LLMConfig struct {
	Provider            string `toml:"provider"`
	Model               string `toml:"model"`
	APIKey              string `toml:"api_key"`
	BaseURL             string `toml:"base_url"`
	EmbeddingModel      string `toml:"embedding_model"`
	EmbeddingDimensions int    `toml:"embedding_dimensions"`
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *LLMConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *LLMConfig) Merge(overlay *LLMConfig) {
	if overlay.Provider != "" {
		c.Provider = overlay.Provider
	}
	if overlay.Model != "" {
		c.Model = overlay.Model
	}
	if overlay.APIKey != "" {
		c.APIKey = overlay.APIKey
	}
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.EmbeddingModel != "" {
		c.EmbeddingModel = overlay.EmbeddingModel
	}
	if overlay.EmbeddingDimensions != 0 {
		c.EmbeddingDimensions = overlay.EmbeddingDimensions
	}
}

func (c *LLMConfig) loadDefaults() {
	if c.Provider == "" {
		c.Provider = ProviderOpenAI
	}
	if c.Model == "" {
		c.Model = "gpt-3.5-turbo"
	}
	if c.EmbeddingModel == "" {
		c.EmbeddingModel = "text-embedding-3-small"
	}
	if c.EmbeddingDimensions == 0 {
		c.EmbeddingDimensions = 1536
	}
}

func (c *LLMConfig) loadEnv() {
	if v := os.Getenv(EnvLLMProvider); v != "" {
		c.Provider = v
	}
	if v := os.Getenv(EnvLLMModel); v != "" {
		c.Model = v
	}
	if v := os.Getenv(EnvOpenAIAPIKey); v != "" && c.APIKey == "" {
		c.APIKey = v
	}
	if v := os.Getenv(EnvLLMAPIKey); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv(EnvLLMBaseURL); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv(EnvLLMEmbeddingModel); v != "" {
		c.EmbeddingModel = v
	}
	if v := os.Getenv(EnvLLMEmbeddingDimensions); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.EmbeddingDimensions = n
		}
	}
}

func (c *LLMConfig) validate() error {
	if !slices.Contains(providers, c.Provider) {
		return fmt.Errorf("invalid provider %q: must be one of %v", c.Provider, providers)
	}
	if c.EmbeddingDimensions < 1 {
		return fmt.Errorf("embedding_dimensions must be positive")
	}
	return nil
}
