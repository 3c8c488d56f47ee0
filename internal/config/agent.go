package config

import (
	"fmt"
	"os"

	gaconfig "github.com/JaimeStill/go-agents/pkg/config"
)

const (
	EnvAgentName         = "TRIAGE_AGENT_NAME"
	EnvAgentProviderName = "TRIAGE_AGENT_PROVIDER_NAME"
	EnvAgentBaseURL      = "TRIAGE_AGENT_BASE_URL"
	EnvAgentToken        = "TRIAGE_AGENT_TOKEN"
	EnvAgentDeployment   = "TRIAGE_AGENT_DEPLOYMENT"
	EnvAgentAPIVersion   = "TRIAGE_AGENT_API_VERSION"
	EnvAgentAuthType     = "TRIAGE_AGENT_AUTH_TYPE"
	EnvAgentModelName    = "TRIAGE_AGENT_MODEL_NAME"
)

// FinalizeAgent applies the three-phase finalize pattern to a go-agents
// AgentConfig: go-agents defaults, environment overrides, and validation.
// The agent is only used when llm.provider is "agent", but it is always
// finalized so a misconfigured section fails at startup rather than on the
// first question.
func FinalizeAgent(c *gaconfig.AgentConfig) error {
	loadAgentDefaults(c)
	loadAgentEnv(c)
	return validateAgent(c)
}

func loadAgentDefaults(c *gaconfig.AgentConfig) {
	defaults := gaconfig.DefaultAgentConfig()
	defaults.Name = "triage"
	defaults.Merge(c)
	*c = defaults
}

func loadAgentEnv(c *gaconfig.AgentConfig) {
	if c.Provider == nil {
		c.Provider = &gaconfig.ProviderConfig{}
	}
	if c.Provider.Options == nil {
		c.Provider.Options = make(map[string]any)
	}
	if c.Model == nil {
		c.Model = &gaconfig.ModelConfig{}
	}
	if v := os.Getenv(EnvAgentName); v != "" {
		c.Name = v
	}
	if v := os.Getenv(EnvAgentProviderName); v != "" {
		c.Provider.Name = v
	}
	if v := os.Getenv(EnvAgentBaseURL); v != "" {
		c.Provider.BaseURL = v
	}
	if v := os.Getenv(EnvAgentModelName); v != "" {
		c.Model.Name = v
	}

	options := map[string]string{
		EnvAgentToken:      "token",
		EnvAgentDeployment: "deployment",
		EnvAgentAPIVersion: "api_version",
		EnvAgentAuthType:   "auth_type",
	}
	for env, key := range options {
		if v := os.Getenv(env); v != "" {
			c.Provider.Options[key] = v
		}
	}
}

func validateAgent(c *gaconfig.AgentConfig) error {
	switch {
	case c.Name == "":
		return fmt.Errorf("name required")
	case c.Provider == nil || c.Provider.Name == "":
		return fmt.Errorf("provider name required")
	case c.Model == nil:
		return fmt.Errorf("model required")
	}
	return nil
}
