package storage

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// MaxListCap bounds a single List page regardless of configuration.
const MaxListCap int32 = 5000

// Config holds Azure Blob Storage connection parameters.
// Either ConnectionString (shared key) or ServiceURL (Entra ID through the
// default Azure credential chain) selects the account. Leaving both empty
// disables storage.
type Config struct {
	ContainerName    string `toml:"container_name"`
	ConnectionString string `toml:"connection_string"`
	ServiceURL       string `toml:"service_url"`
	MaxListSize      int32  `toml:"max_list_size"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	ContainerName    string
	ConnectionString string
	ServiceURL       string
	MaxListSize      string
}

// Enabled reports whether an account has been configured.
func (c *Config) Enabled() bool {
	return c.ConnectionString != "" || c.ServiceURL != ""
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.ContainerName != "" {
		c.ContainerName = overlay.ContainerName
	}
	if overlay.ConnectionString != "" {
		c.ConnectionString = overlay.ConnectionString
	}
	if overlay.ServiceURL != "" {
		c.ServiceURL = overlay.ServiceURL
	}
	if overlay.MaxListSize != 0 {
		c.MaxListSize = overlay.MaxListSize
	}
}

func (c *Config) loadDefaults() {
	if c.ContainerName == "" {
		c.ContainerName = "documents"
	}
	if c.MaxListSize == 0 {
		c.MaxListSize = 50
	}
	c.MaxListSize = min(c.MaxListSize, MaxListCap)
}

func (c *Config) loadEnv(env *Env) {
	lookup := func(name string) string {
		if name == "" {
			return ""
		}
		return os.Getenv(name)
	}

	if v := lookup(env.ContainerName); v != "" {
		c.ContainerName = v
	}
	if v := lookup(env.ConnectionString); v != "" {
		c.ConnectionString = v
	}
	if v := lookup(env.ServiceURL); v != "" {
		c.ServiceURL = v
	}
	if v := lookup(env.MaxListSize); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.MaxListSize = min(int32(n), MaxListCap)
		}
	}
}

func (c *Config) validate() error {
	if c.ContainerName == "" {
		return fmt.Errorf("container_name required")
	}
	if c.ServiceURL != "" && !strings.HasPrefix(c.ServiceURL, "https://") && !strings.HasPrefix(c.ServiceURL, "http://") {
		return fmt.Errorf("service_url must be an http(s) URL")
	}
	return nil
}

// ParseMaxResults parses a max_results query value, returning fallback for
// an empty value and capping the result at MaxListCap.
func ParseMaxResults(s string, fallback int32) (int32, error) {
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: max_results must be a positive integer", ErrInvalidParam)
	}
	return min(int32(n), MaxListCap), nil
}
