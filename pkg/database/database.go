// Package database owns the Postgres pool shared by the vector store, review
// tickets, the interaction log and prompt overrides.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/JaimeStill/triage/pkg/lifecycle"
)

// ErrNotReady is returned by Ping until the startup hook has reached the server.
var ErrNotReady = errors.New("database not ready")

// System is the pool plus its lifecycle hooks.
type System interface {
	Connection() *sql.DB
	// Ping checks the server within the configured connect timeout. It is
	// registered as the "database" readiness check.
	Ping(ctx context.Context) error
	Start(lc *lifecycle.Coordinator) error
}

type pool struct {
	db      *sql.DB
	log     *slog.Logger
	timeout time.Duration
	ready   atomic.Bool
}

// New opens the pool without dialing. The first round trip happens in the
// startup hook registered by Start.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	db, err := sql.Open("pgx", cfg.Dsn())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

	return &pool{
		db:      db,
		log:     logger.With("system", "database", "host", cfg.Host, "name", cfg.Name),
		timeout: cfg.ConnTimeoutDuration(),
	}, nil
}

func (p *pool) Connection() *sql.DB { return p.db }

func (p *pool) Ping(ctx context.Context) error {
	if !p.ready.Load() {
		return ErrNotReady
	}
	return p.ping(ctx)
}

func (p *pool) ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.db.PingContext(ctx)
}

func (p *pool) Start(lc *lifecycle.Coordinator) error {
	lc.OnStartup("database", func() error {
		if err := p.ping(lc.Context()); err != nil {
			p.log.Error("unable to reach database", "error", err)
			return fmt.Errorf("database unreachable: %w", err)
		}
		p.ready.Store(true)
		p.log.Info("database ready")
		return nil
	})

	lc.RegisterCheck("database", p.Ping)

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		p.ready.Store(false)

		stats := p.db.Stats()
		if err := p.db.Close(); err != nil {
			p.log.Error("database close failed", "error", err)
			return
		}
		p.log.Info("database closed",
			"open", stats.OpenConnections,
			"in_use", stats.InUse,
			"wait_count", stats.WaitCount,
		)
	})

	return nil
}
