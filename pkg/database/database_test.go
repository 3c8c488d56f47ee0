package database_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/JaimeStill/triage/pkg/database"
)

func TestPingBeforeStart(t *testing.T) {
	cfg := database.Config{Name: "triage", User: "triage"}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	sys, err := database.New(&cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	defer sys.Connection().Close()

	if err := sys.Ping(context.Background()); !errors.Is(err, database.ErrNotReady) {
		t.Errorf("ping before start: got %v, want ErrNotReady", err)
	}
}
