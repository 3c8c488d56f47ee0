package main

import (
	"context"
	"time"

	"github.com/JaimeStill/triage/internal/config"
	"github.com/JaimeStill/triage/internal/generation"
	"github.com/JaimeStill/triage/internal/infrastructure"
)

const pingTimeout = 15 * time.Second

type Server struct {
	infra   *infrastructure.Infrastructure
	modules *Modules
	http    *httpServer
}

func NewServer(cfg *config.Config) (*Server, error) {
	infra, err := infrastructure.New(cfg)
	if err != nil {
		return nil, err
	}

	modules, err := NewModules(infra.Lifecycle.Context(), infra, cfg)
	if err != nil {
		return nil, err
	}

	router := buildRouter(infra)
	modules.Mount(router)

	infra.Logger.Info(
		"server initialized",
		"addr", cfg.Server.Addr(),
		"version", cfg.Version,
		"env", cfg.Env(),
		"provider", cfg.LLM.Provider,
	)

	return &Server{
		infra:   infra,
		modules: modules,
		http:    newHTTPServer(&cfg.Server, router, infra.Logger),
	}, nil
}

func (s *Server) Start() error {
	s.infra.Logger.Info("starting service")

	if err := s.infra.Start(); err != nil {
		return err
	}

	if err := s.http.Start(s.infra.Lifecycle); err != nil {
		return err
	}

	go func() {
		s.infra.Lifecycle.WaitForStartup()
		if err := s.infra.Lifecycle.StartupErr(); err != nil {
			s.infra.Logger.Error("startup incomplete", "error", err)
			return
		}
		s.infra.Logger.Info("all subsystems ready")
	}()

	go s.pingGenerator()

	return nil
}

func (s *Server) Shutdown(timeout time.Duration) error {
	s.infra.Logger.Info("initiating shutdown")
	return s.infra.Lifecycle.Shutdown(timeout)
}

// pingGenerator logs whether the configured model answers. Answers still
// degrade to their fallbacks when it does not, so a failure is only a warning.
func (s *Server) pingGenerator() {
	if s.infra.Generator == nil {
		s.infra.Logger.Warn("generation disabled: answers use evidence fallbacks")
		return
	}

	ctx, cancel := context.WithTimeout(s.infra.Lifecycle.Context(), pingTimeout)
	defer cancel()

	reply, err := generation.Ping(ctx, s.infra.Generator)
	if err != nil {
		s.infra.Logger.Warn("llm ping failed", "error", err)
		return
	}
	s.infra.Logger.Info("llm ping ok", "reply", reply)
}
