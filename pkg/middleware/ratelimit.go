package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig configures the per-client token bucket.
type RateLimitConfig struct {
	Enabled           bool    `toml:"enabled"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
	IdleTTL           string  `toml:"idle_ttl"`
}

// RateLimitEnv maps RateLimitConfig fields to environment variable names.
type RateLimitEnv struct {
	Enabled           string
	RequestsPerSecond string
	Burst             string
}

// Finalize applies defaults, environment overrides and validation.
func (c *RateLimitConfig) Finalize(env *RateLimitEnv) error {
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = 5
	}
	if c.Burst <= 0 {
		c.Burst = 10
	}
	if c.IdleTTL == "" {
		c.IdleTTL = "3m"
	}

	if env != nil {
		envBool(env.Enabled, &c.Enabled)
		envFloat(env.RequestsPerSecond, &c.RequestsPerSecond)
		envInt(env.Burst, &c.Burst)
	}

	if c.RequestsPerSecond <= 0 {
		return fmt.Errorf("requests_per_second must be positive")
	}
	if c.Burst < 1 {
		return fmt.Errorf("burst must be at least 1")
	}
	if _, err := time.ParseDuration(c.IdleTTL); err != nil {
		return fmt.Errorf("invalid idle_ttl: %w", err)
	}
	return nil
}

// Merge overwrites fields from overlay. Enabled always applies.
func (c *RateLimitConfig) Merge(overlay *RateLimitConfig) {
	c.Enabled = overlay.Enabled
	if overlay.RequestsPerSecond > 0 {
		c.RequestsPerSecond = overlay.RequestsPerSecond
	}
	if overlay.Burst > 0 {
		c.Burst = overlay.Burst
	}
	if overlay.IdleTTL != "" {
		c.IdleTTL = overlay.IdleTTL
	}
}

// IdleTTLDuration returns IdleTTL as a time.Duration.
func (c *RateLimitConfig) IdleTTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.IdleTTL)
	return d
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter tracks one token bucket per client address.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*client
	limit   rate.Limit
	burst   int
	ttl     time.Duration
	now     func() time.Time
}

// NewRateLimiter builds a limiter from cfg. Call Sweep periodically (or Run)
// to drop idle clients.
func NewRateLimiter(cfg *RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		clients: make(map[string]*client),
		limit:   rate.Limit(cfg.RequestsPerSecond),
		burst:   cfg.Burst,
		ttl:     cfg.IdleTTLDuration(),
		now:     time.Now,
	}
}

// Allow reports whether the client identified by key may proceed now.
func (l *RateLimiter) Allow(key string) bool {
	return l.get(key).Allow()
}

// Sweep removes clients idle for longer than the configured TTL.
func (l *RateLimiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.ttl)
	for key, c := range l.clients {
		if c.lastSeen.Before(cutoff) {
			delete(l.clients, key)
		}
	}
}

// Run sweeps idle clients every TTL until ctx is cancelled.
func (l *RateLimiter) Run(ctx context.Context) {
	if l.ttl <= 0 {
		return
	}
	ticker := time.NewTicker(l.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep()
		}
	}
}

// Len returns the number of tracked clients.
func (l *RateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

func (l *RateLimiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = c
	}
	c.lastSeen = l.now()
	return c.limiter
}

// RateLimit returns middleware that rejects requests over the per-client
// budget with 429. Passes through when cfg is disabled.
func RateLimit(cfg *RateLimitConfig, limiter *RateLimiter) func(http.Handler) http.Handler {
	retryAfter := strconv.Itoa(int(math.Ceil(1 / cfg.RequestsPerSecond)))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled {
				next.ServeHTTP(w, r)
				return
			}

			if !limiter.Allow(clientKey(r)) {
				w.Header().Set("Retry-After", retryAfter)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]string{"error": "rate limit exceeded"})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	if sub, ok := Subject(r.Context()); ok {
		return "sub:" + sub
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
