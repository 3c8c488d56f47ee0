package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/JaimeStill/triage/internal/config"
)

const baseConfig = `
shutdown_timeout = "20s"

[server]
port = 9090

[database]
name = "triage"
user = "triage"
password = "triage"

[agent]
name = "triage-test"

[agent.provider]
name = "ollama"

[agent.model]
name = "llama3.1:8b"

[llm]
provider = "none"

[retrieval]
default_k = 5
max_k = 10

[tickets]
log_path = "review/tickets.log"
`

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func workdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv(config.EnvTriageEnv, "")
	return dir
}

func TestLoadDefaults(t *testing.T) {
	dir := workdir(t)
	writeFile(t, dir, config.BaseConfigFile, baseConfig)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 9090 || cfg.Server.Host != "0.0.0.0" {
		t.Errorf("server: %+v", cfg.Server)
	}
	if cfg.ShutdownTimeoutDuration() != 20*time.Second {
		t.Errorf("shutdown timeout: %v", cfg.ShutdownTimeoutDuration())
	}
	if cfg.Retrieval.PublicTable != "public_chunks" || cfg.Retrieval.InternalTable != "internal_chunks" {
		t.Errorf("retrieval tables: %+v", cfg.Retrieval)
	}
	if cfg.Tickets.Threshold != 0.6 || !cfg.Tickets.PersistEnabled() || cfg.Tickets.LogPath != "review/tickets.log" {
		t.Errorf("tickets: %+v", cfg.Tickets)
	}
	if cfg.Ingest.ChunkSize != 800 || cfg.Ingest.ChunkOverlap != 200 || cfg.Ingest.PublicDir != "external_pdfs" {
		t.Errorf("ingest: %+v", cfg.Ingest)
	}
	if cfg.API.BasePath != "/api" || cfg.API.MaxUploadSizeBytes() != 50<<20 {
		t.Errorf("api: base=%s upload=%d", cfg.API.BasePath, cfg.API.MaxUploadSizeBytes())
	}
	if cfg.LLM.EmbeddingDimensions != 1536 {
		t.Errorf("embedding dimensions: %d", cfg.LLM.EmbeddingDimensions)
	}
}

func TestLoadOverlayAndEnv(t *testing.T) {
	dir := workdir(t)
	writeFile(t, dir, config.BaseConfigFile, baseConfig)
	writeFile(t, dir, "config.staging.toml", `
[retrieval]
max_k = 12

[tickets]
persist = false
threshold = 0.5
`)

	t.Setenv(config.EnvTriageEnv, "staging")
	t.Setenv(config.EnvRetrievalDefaultK, "3")
	t.Setenv(config.EnvTicketsLogPath, "/var/log/triage/review.log")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Env() != "staging" {
		t.Errorf("env: %s", cfg.Env())
	}
	if cfg.Retrieval.DefaultK != 3 || cfg.Retrieval.MaxK != 12 {
		t.Errorf("retrieval: %+v", cfg.Retrieval)
	}
	if cfg.Tickets.PersistEnabled() || cfg.Tickets.Threshold != 0.5 {
		t.Errorf("tickets overlay: %+v", cfg.Tickets)
	}
	if cfg.Tickets.LogPath != "/var/log/triage/review.log" {
		t.Errorf("tickets env: %s", cfg.Tickets.LogPath)
	}
}

func TestLoadDotEnvDoesNotOverrideProcess(t *testing.T) {
	dir := workdir(t)
	writeFile(t, dir, config.BaseConfigFile, baseConfig)
	writeFile(t, dir, config.DotEnvFile, "TRIAGE_SERVER_PORT=7000\nTRIAGE_INGEST_WORKERS=9\n")

	t.Setenv(config.EnvServerPort, "7100")
	t.Setenv(config.EnvIngestWorkers, "")
	os.Unsetenv(config.EnvIngestWorkers)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 7100 {
		t.Errorf("port: got %d, want process value 7100", cfg.Server.Port)
	}
	if cfg.Ingest.Workers != 9 {
		t.Errorf("workers: got %d, want .env value 9", cfg.Ingest.Workers)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		overlay string
		wantErr string
	}{
		{"shared tables", "[retrieval]\ninternal_table = \"public_chunks\"\n", "retrieval"},
		{"max below default", "[retrieval]\ndefault_k = 8\nmax_k = 4\n", "max_k"},
		{"threshold above one", "[tickets]\nthreshold = 1.5\n", "threshold"},
		{"unknown provider", "[llm]\nprovider = \"mystery\"\n", "invalid provider"},
		{"bad shutdown", "shutdown_timeout = \"soon\"\n", "shutdown_timeout"},
		{"negative cache", "[retrieval]\ncache_size = -1\n", "cache_size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := workdir(t)
			writeFile(t, dir, config.BaseConfigFile, baseConfig)
			writeFile(t, dir, "config.bad.toml", tt.overlay)
			t.Setenv(config.EnvTriageEnv, "bad")

			_, err := config.Load()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("got %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadCacheSize(t *testing.T) {
	tests := []struct {
		name    string
		overlay string
		want    int
	}{
		{"default", "", 512},
		{"explicit size", "[retrieval]\ncache_size = 64\n", 64},
		{"zero disables", "[retrieval]\ncache_size = 0\n", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := workdir(t)
			writeFile(t, dir, config.BaseConfigFile, baseConfig)
			writeFile(t, dir, "config.cache.toml", tt.overlay)
			t.Setenv(config.EnvTriageEnv, "cache")

			cfg, err := config.Load()
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if got := cfg.Retrieval.CacheEntries(); got != tt.want {
				t.Errorf("cache entries: got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestClampK(t *testing.T) {
	cfg := &config.RetrievalConfig{DefaultK: 4, MaxK: 20}

	tests := []struct {
		in, want int
	}{
		{0, 4},
		{-3, 4},
		{1, 1},
		{7, 7},
		{20, 20},
		{500, 20},
	}

	for _, tt := range tests {
		if got := cfg.ClampK(tt.in); got != tt.want {
			t.Errorf("ClampK(%d): got %d, want %d", tt.in, got, tt.want)
		}
	}
}
