// Package module mounts self-contained HTTP handlers under single-segment
// path prefixes, each with its own middleware stack.
package module

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/JaimeStill/triage/pkg/middleware"
)

// Module serves an inner handler beneath a prefix. Requests reach the inner
// handler with the prefix removed from the path.
type Module struct {
	prefix string
	inner  http.Handler
	stack  middleware.System
}

// New creates a Module for a single-level prefix such as "/api".
// It panics on an empty, relative, or multi-level prefix since that is a
// wiring mistake rather than a runtime condition.
func New(prefix string, inner http.Handler) *Module {
	if err := checkPrefix(prefix); err != nil {
		panic(err)
	}
	return &Module{
		prefix: prefix,
		inner:  inner,
		stack:  middleware.New(),
	}
}

// Prefix returns the module's path prefix.
func (m *Module) Prefix() string {
	return m.prefix
}

// Use appends middleware to the module's stack.
func (m *Module) Use(mw func(http.Handler) http.Handler) {
	m.stack.Use(mw)
}

// Handler returns the inner handler wrapped with the module's middleware.
func (m *Module) Handler() http.Handler {
	return m.stack.Apply(m.inner)
}

// ServeHTTP strips the prefix and dispatches to the wrapped inner handler.
func (m *Module) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, m.prefix)
	if rest == "" {
		rest = "/"
	}

	inner := r.Clone(r.Context())
	inner.URL.Path = rest
	inner.URL.RawPath = ""

	m.Handler().ServeHTTP(w, inner)
}

func checkPrefix(prefix string) error {
	switch {
	case prefix == "":
		return fmt.Errorf("module prefix cannot be empty")
	case !strings.HasPrefix(prefix, "/"):
		return fmt.Errorf("module prefix must start with /: %s", prefix)
	case strings.Count(prefix, "/") != 1:
		return fmt.Errorf("module prefix must be single-level sub-path: %s", prefix)
	}
	return nil
}
