package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
)

// AuthConfig configures OIDC bearer-token verification for a module.
type AuthConfig struct {
	Enabled   *bool    `toml:"enabled"`
	IssuerURL string   `toml:"issuer_url"`
	ClientID  string   `toml:"client_id"`
	Public    []string `toml:"public"`
}

// IsEnabled reports whether bearer tokens are required. Unset means disabled.
func (c *AuthConfig) IsEnabled() bool {
	return c.Enabled != nil && *c.Enabled
}

// AuthEnv maps AuthConfig fields to environment variable names.
type AuthEnv struct {
	Enabled   string
	IssuerURL string
	ClientID  string
}

// Finalize applies environment overrides and validates that an enabled
// config names both an issuer and a client.
func (c *AuthConfig) Finalize(env *AuthEnv) error {
	if env != nil {
		if v, ok := lookup(env.Enabled); ok {
			if b, err := strconv.ParseBool(v); err == nil {
				c.Enabled = &b
			}
		}
		envString(env.IssuerURL, &c.IssuerURL)
		envString(env.ClientID, &c.ClientID)
	}
	if !c.IsEnabled() {
		return nil
	}
	if c.IssuerURL == "" {
		return fmt.Errorf("issuer_url required when auth is enabled")
	}
	if c.ClientID == "" {
		return fmt.Errorf("client_id required when auth is enabled")
	}
	return nil
}

// Merge overwrites fields set in overlay. An overlay that omits enabled
// keeps the base setting, so an environment file cannot switch auth off by
// leaving out the [api.auth] table.
func (c *AuthConfig) Merge(overlay *AuthConfig) {
	if overlay.Enabled != nil {
		c.Enabled = overlay.Enabled
	}
	if overlay.IssuerURL != "" {
		c.IssuerURL = overlay.IssuerURL
	}
	if overlay.ClientID != "" {
		c.ClientID = overlay.ClientID
	}
	if overlay.Public != nil {
		c.Public = overlay.Public
	}
}

// ErrUnauthorized is returned when a request carries no usable bearer token.
var ErrUnauthorized = errors.New("unauthorized")

// TokenVerifier validates a raw bearer token and returns its subject.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (string, error)
}

type oidcVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewOIDCVerifier discovers the issuer's signing keys and returns a verifier
// that checks signature, expiry and audience against the configured client.
func NewOIDCVerifier(ctx context.Context, cfg *AuthConfig) (TokenVerifier, error) {
	provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("discover oidc issuer %s: %w", cfg.IssuerURL, err)
	}
	return &oidcVerifier{
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
	}, nil
}

func (v *oidcVerifier) Verify(ctx context.Context, rawToken string) (string, error) {
	token, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return "", err
	}
	return token.Subject, nil
}

type subjectKey struct{}

// Subject returns the authenticated subject stored on ctx by Auth.
func Subject(ctx context.Context) (string, bool) {
	sub, ok := ctx.Value(subjectKey{}).(string)
	return sub, ok
}

// Auth returns middleware that requires a valid bearer token on every request
// except paths listed in cfg.Public. Passes through when disabled.
func Auth(cfg *AuthConfig, verifier TokenVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.IsEnabled() || isPublic(cfg.Public, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			raw, ok := bearerToken(r)
			if !ok {
				unauthorized(w)
				return
			}

			sub, err := verifier.Verify(r.Context(), raw)
			if err != nil {
				logger.WarnContext(r.Context(), "token rejected", "error", err)
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), subjectKey{}, sub)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func isPublic(public []string, path string) bool {
	for _, p := range public {
		if path == p || (strings.HasSuffix(p, "/") && strings.HasPrefix(path, p)) {
			return true
		}
	}
	return false
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer`)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": ErrUnauthorized.Error()})
}
