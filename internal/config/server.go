package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvServerHost            = "TRIAGE_SERVER_HOST"
	EnvServerPort            = "TRIAGE_SERVER_PORT"
	EnvServerReadTimeout     = "TRIAGE_SERVER_READ_TIMEOUT"
	EnvServerWriteTimeout    = "TRIAGE_SERVER_WRITE_TIMEOUT"
	EnvServerIdleTimeout     = "TRIAGE_SERVER_IDLE_TIMEOUT"
	EnvServerShutdownTimeout = "TRIAGE_SERVER_SHUTDOWN_TIMEOUT"
)

// ServerConfig holds HTTP server parameters. WriteTimeout bounds a whole
// answer request, including retrieval and generation.
type ServerConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	ReadTimeout     string `toml:"read_timeout"`
	WriteTimeout    string `toml:"write_timeout"`
	IdleTimeout     string `toml:"idle_timeout"`
	ShutdownTimeout string `toml:"shutdown_timeout"`
}

// Addr returns the host:port listen address.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c *ServerConfig) ReadTimeoutDuration() time.Duration     { return durationOf(c.ReadTimeout) }
func (c *ServerConfig) WriteTimeoutDuration() time.Duration    { return durationOf(c.WriteTimeout) }
func (c *ServerConfig) IdleTimeoutDuration() time.Duration     { return durationOf(c.IdleTimeout) }
func (c *ServerConfig) ShutdownTimeoutDuration() time.Duration { return durationOf(c.ShutdownTimeout) }

// Finalize applies defaults, environment variable overrides, and validation.
func (c *ServerConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *ServerConfig) Merge(overlay *ServerConfig) {
	if overlay.Host != "" {
		c.Host = overlay.Host
	}
	if overlay.Port != 0 {
		c.Port = overlay.Port
	}
	if overlay.ReadTimeout != "" {
		c.ReadTimeout = overlay.ReadTimeout
	}
	if overlay.WriteTimeout != "" {
		c.WriteTimeout = overlay.WriteTimeout
	}
	if overlay.IdleTimeout != "" {
		c.IdleTimeout = overlay.IdleTimeout
	}
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
}

func (c *ServerConfig) loadDefaults() {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.ReadTimeout == "" {
		c.ReadTimeout = "1m"
	}
	if c.WriteTimeout == "" {
		c.WriteTimeout = "2m"
	}
	if c.IdleTimeout == "" {
		c.IdleTimeout = "2m"
	}
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
}

func (c *ServerConfig) loadEnv() {
	if v := os.Getenv(EnvServerHost); v != "" {
		c.Host = v
	}
	if v := os.Getenv(EnvServerPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
	durations := map[string]*string{
		EnvServerReadTimeout:     &c.ReadTimeout,
		EnvServerWriteTimeout:    &c.WriteTimeout,
		EnvServerIdleTimeout:     &c.IdleTimeout,
		EnvServerShutdownTimeout: &c.ShutdownTimeout,
	}
	for env, dst := range durations {
		if v := os.Getenv(env); v != "" {
			*dst = v
		}
	}
}

func (c *ServerConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	durations := []struct {
		name  string
		value string
	}{
		{"read_timeout", c.ReadTimeout},
		{"write_timeout", c.WriteTimeout},
		{"idle_timeout", c.IdleTimeout},
		{"shutdown_timeout", c.ShutdownTimeout},
	}
	for _, d := range durations {
		if _, err := time.ParseDuration(d.value); err != nil {
			return fmt.Errorf("invalid %s: %w", d.name, err)
		}
	}
	return nil
}

func durationOf(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
