package config

import (
	"fmt"
	"os"
	"strconv"
)

const (
	EnvTicketsLogPath   = "TRIAGE_TICKETS_LOG_PATH"
	EnvTicketsThreshold = "TRIAGE_TICKETS_THRESHOLD"
	EnvTicketsPersist   = "TRIAGE_TICKETS_PERSIST"
)

// TicketsConfig controls review ticket filing for low-confidence YELLOW queries.
type TicketsConfig struct {
	LogPath   string  `toml:"log_path"`
	Threshold float64 `toml:"threshold"`
	Persist   *bool   `toml:"persist"`
}

// PersistEnabled reports whether tickets are also written to the database.
func (c *TicketsConfig) PersistEnabled() bool {
	return c.Persist != nil && *c.Persist
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *TicketsConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *TicketsConfig) Merge(overlay *TicketsConfig) {
	if overlay.LogPath != "" {
		c.LogPath = overlay.LogPath
	}
	if overlay.Threshold != 0 {
		c.Threshold = overlay.Threshold
	}
	if overlay.Persist != nil {
		c.Persist = overlay.Persist
	}
}

func (c *TicketsConfig) loadDefaults() {
	if c.LogPath == "" {
		c.LogPath = "logs/human_review.log"
	}
	if c.Threshold == 0 {
		c.Threshold = 0.6
	}
	if c.Persist == nil {
		persist := true
		c.Persist = &persist
	}
}

func (c *TicketsConfig) loadEnv() {
	if v := os.Getenv(EnvTicketsLogPath); v != "" {
		c.LogPath = v
	}
	if v := os.Getenv(EnvTicketsThreshold); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Threshold = f
		}
	}
	if v := os.Getenv(EnvTicketsPersist); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Persist = &b
		}
	}
}

func (c *TicketsConfig) validate() error {
	if c.Threshold < 0 || c.Threshold > 1 {
		return fmt.Errorf("threshold must be within [0,1], got %v", c.Threshold)
	}
	return nil
}
