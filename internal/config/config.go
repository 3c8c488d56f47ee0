package config

import (
	"fmt"
	"os"
	"time"

	gaconfig "github.com/JaimeStill/go-agents/pkg/config"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/triage/pkg/database"
	"github.com/JaimeStill/triage/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"
	DotEnvFile           = ".env"

	EnvTriageEnv             = "TRIAGE_ENV"
	EnvTriageShutdownTimeout = "TRIAGE_SHUTDOWN_TIMEOUT"
	EnvTriageVersion         = "TRIAGE_VERSION"
)

var databaseEnv = &database.Env{
	Host:            "TRIAGE_DB_HOST",
	Port:            "TRIAGE_DB_PORT",
	Name:            "TRIAGE_DB_NAME",
	User:            "TRIAGE_DB_USER",
	Password:        "TRIAGE_DB_PASSWORD",
	SSLMode:         "TRIAGE_DB_SSL_MODE",
	MaxOpenConns:    "TRIAGE_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "TRIAGE_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "TRIAGE_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "TRIAGE_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	ContainerName:    "TRIAGE_STORAGE_CONTAINER_NAME",
	ConnectionString: "TRIAGE_STORAGE_CONNECTION_STRING",
	ServiceURL:       "TRIAGE_STORAGE_SERVICE_URL",
	MaxListSize:      "TRIAGE_STORAGE_MAX_LIST_SIZE",
}

// Config is the root configuration for the triage service and its commands.
type Config struct {
	Server          ServerConfig         `toml:"server"`
	Database        database.Config      `toml:"database"`
	Storage         storage.Config       `toml:"storage"`
	API             APIConfig            `toml:"api"`
	Agent           gaconfig.AgentConfig `toml:"agent"`
	LLM             LLMConfig            `toml:"llm"`
	Retrieval       RetrievalConfig      `toml:"retrieval"`
	Tickets         TicketsConfig        `toml:"tickets"`
	Ingest          IngestConfig         `toml:"ingest"`
	ShutdownTimeout string               `toml:"shutdown_timeout"`
	Version         string               `toml:"version"`
}

// Env returns the TRIAGE_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvTriageEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads .env (without overriding variables already set in the process),
// the base config (if present), and any environment overlay, then finalizes
// all values. With no files present, defaults and environment variables
// provide all configuration.
func Load() (*Config, error) {
	if _, err := os.Stat(DotEnvFile); err == nil {
		if err := godotenv.Load(DotEnvFile); err != nil {
			return nil, fmt.Errorf("load %s: %w", DotEnvFile, err)
		}
	}

	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.API.Merge(&overlay.API)
	c.Agent.Merge(&overlay.Agent)
	c.LLM.Merge(&overlay.LLM)
	c.Retrieval.Merge(&overlay.Retrieval)
	c.Tickets.Merge(&overlay.Tickets)
	c.Ingest.Merge(&overlay.Ingest)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}

	sections := []struct {
		name     string
		finalize func() error
	}{
		{"server", c.Server.Finalize},
		{"database", func() error { return c.Database.Finalize(databaseEnv) }},
		{"storage", func() error { return c.Storage.Finalize(storageEnv) }},
		{"api", c.API.Finalize},
		{"agent", func() error { return FinalizeAgent(&c.Agent) }},
		{"llm", c.LLM.Finalize},
		{"retrieval", c.Retrieval.Finalize},
		{"tickets", c.Tickets.Finalize},
		{"ingest", c.Ingest.Finalize},
	}

	for _, s := range sections {
		if err := s.finalize(); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvTriageShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvTriageVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvTriageEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
