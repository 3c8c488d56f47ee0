// Package api assembles the API module: every domain system, its routes, and
// the request middleware stack.
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/JaimeStill/triage/internal/config"
	"github.com/JaimeStill/triage/internal/infrastructure"
	"github.com/JaimeStill/triage/pkg/middleware"
	"github.com/JaimeStill/triage/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware.
// When authentication is enabled the issuer is discovered here, so an
// unreachable issuer fails startup.
func NewModule(ctx context.Context, cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(runtime)

	mux := http.NewServeMux()
	registerRoutes(mux, domain, cfg, runtime)

	var verifier middleware.TokenVerifier
	if cfg.API.Auth.IsEnabled() {
		v, err := middleware.NewOIDCVerifier(ctx, &cfg.API.Auth)
		if err != nil {
			return nil, fmt.Errorf("auth init failed: %w", err)
		}
		verifier = v
	}

	limiter := middleware.NewRateLimiter(&cfg.API.RateLimit)
	if cfg.API.RateLimit.Enabled {
		go limiter.Run(infra.Lifecycle.Context())
	}

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Logger))
	m.Use(runtime.Metrics.Middleware())
	m.Use(middleware.Auth(&cfg.API.Auth, verifier, runtime.Logger))
	m.Use(middleware.RateLimit(&cfg.API.RateLimit, limiter))

	return m, nil
}
