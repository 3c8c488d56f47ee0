package config

import (
	"fmt"
	"os"

	"github.com/JaimeStill/triage/pkg/formatting"
	"github.com/JaimeStill/triage/pkg/middleware"
	"github.com/JaimeStill/triage/pkg/pagination"
)

const (
	EnvAPIBasePath      = "TRIAGE_API_BASE_PATH"
	EnvAPIMaxUploadSize = "TRIAGE_API_MAX_UPLOAD_SIZE"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "TRIAGE_CORS_ENABLED",
	Origins:          "TRIAGE_CORS_ORIGINS",
	AllowedMethods:   "TRIAGE_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "TRIAGE_CORS_ALLOWED_HEADERS",
	AllowCredentials: "TRIAGE_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "TRIAGE_CORS_MAX_AGE",
}

var authEnv = &middleware.AuthEnv{
	Enabled:   "TRIAGE_AUTH_ENABLED",
	IssuerURL: "TRIAGE_AUTH_ISSUER_URL",
	ClientID:  "TRIAGE_AUTH_CLIENT_ID",
}

var rateLimitEnv = &middleware.RateLimitEnv{
	Enabled:           "TRIAGE_RATE_LIMIT_ENABLED",
	RequestsPerSecond: "TRIAGE_RATE_LIMIT_RPS",
	Burst:             "TRIAGE_RATE_LIMIT_BURST",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "TRIAGE_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "TRIAGE_PAGINATION_MAX_PAGE_SIZE",
}

// APIConfig holds API routing, request policy, and pagination settings.
type APIConfig struct {
	BasePath      string                     `toml:"base_path"`
	MaxUploadSize string                     `toml:"max_upload_size"`
	CORS          middleware.CORSConfig      `toml:"cors"`
	Auth          middleware.AuthConfig      `toml:"auth"`
	RateLimit     middleware.RateLimitConfig `toml:"rate_limit"`
	Pagination    pagination.Config          `toml:"pagination"`
}

// MaxUploadSizeBytes returns MaxUploadSize in bytes, falling back to 50MB
// when the value cannot be parsed.
func (c *APIConfig) MaxUploadSizeBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxUploadSize)
	if err != nil {
		return 50 << 20
	}
	return size
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested configs.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if _, err := formatting.ParseBytes(c.MaxUploadSize); err != nil {
		return fmt.Errorf("invalid max_upload_size: %w", err)
	}
	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Auth.Finalize(authEnv); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := c.RateLimit.Finalize(rateLimitEnv); err != nil {
		return fmt.Errorf("rate_limit: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxUploadSize != "" {
		c.MaxUploadSize = overlay.MaxUploadSize
	}

	c.CORS.Merge(&overlay.CORS)
	c.Auth.Merge(&overlay.Auth)
	c.RateLimit.Merge(&overlay.RateLimit)
	c.Pagination.Merge(&overlay.Pagination)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxUploadSize == "" {
		c.MaxUploadSize = "50MB"
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv(EnvAPIBasePath); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv(EnvAPIMaxUploadSize); v != "" {
		c.MaxUploadSize = v
	}
}
