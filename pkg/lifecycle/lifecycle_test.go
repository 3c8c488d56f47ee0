package lifecycle_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/JaimeStill/triage/pkg/lifecycle"
)

func TestStartupReadiness(t *testing.T) {
	tests := []struct {
		name      string
		hookErr   error
		wantReady bool
	}{
		{"clean startup", nil, true},
		{"failed hook", errors.New("ping refused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lc := lifecycle.New()
			lc.OnStartup("database", func() error { return tt.hookErr })

			if lc.Ready() {
				t.Fatal("ready before WaitForStartup")
			}
			lc.WaitForStartup()

			if lc.Ready() != tt.wantReady {
				t.Errorf("ready: got %v, want %v", lc.Ready(), tt.wantReady)
			}
			if tt.hookErr != nil && !errors.Is(lc.StartupErr(), tt.hookErr) {
				t.Errorf("startup err: got %v", lc.StartupErr())
			}
		})
	}
}

func TestProbe(t *testing.T) {
	lc := lifecycle.New()
	down := errors.New("connection refused")
	lc.RegisterCheck("database", func(ctx context.Context) error { return nil })
	lc.RegisterCheck("llm", func(ctx context.Context) error { return down })

	failed := lc.Probe(context.Background())
	if len(failed) != 1 {
		t.Fatalf("failed checks: got %d, want 1", len(failed))
	}
	if !errors.Is(failed["llm"], down) {
		t.Errorf("llm: got %v", failed["llm"])
	}
}

func TestShutdown(t *testing.T) {
	lc := lifecycle.New()
	closed := make(chan struct{})
	lc.OnShutdown(func() {
		<-lc.Context().Done()
		close(closed)
	})

	if err := lc.Shutdown(time.Second); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	select {
	case <-closed:
	default:
		t.Error("shutdown hook did not run")
	}
}

func TestShutdownTimeout(t *testing.T) {
	lc := lifecycle.New()
	release := make(chan struct{})
	defer close(release)
	lc.OnShutdown(func() { <-release })

	if err := lc.Shutdown(10 * time.Millisecond); err == nil {
		t.Error("expected timeout error")
	}
}
