// Command ingest indexes a folder of documents into the public and internal
// collections. Files beneath a directory named after ingest.public_dir go to
// the public collection; everything else is internal.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/JaimeStill/triage/internal/config"
	"github.com/JaimeStill/triage/internal/infrastructure"
	"github.com/JaimeStill/triage/internal/ingest"
	"github.com/JaimeStill/triage/internal/retrieval"
)

func main() {
	var (
		dir       = flag.String("dir", "data", "Folder to ingest")
		workers   = flag.Int("workers", 0, "Concurrent files (0 uses ingest.workers)")
		noArchive = flag.Bool("no-archive", false, "Skip archiving originals in blob storage")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config load failed:", err)
	}
	if *workers > 0 {
		cfg.Ingest.Workers = *workers
	}

	infra, err := infrastructure.New(cfg)
	if err != nil {
		log.Fatal("infrastructure init failed:", err)
	}
	if infra.Embedder == nil {
		log.Fatal("ingest requires an embedder: configure llm.api_key")
	}

	if err := infra.Start(); err != nil {
		log.Fatal("infrastructure start failed:", err)
	}
	infra.Lifecycle.WaitForStartup()
	if err := infra.Lifecycle.StartupErr(); err != nil {
		log.Fatal("startup failed:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := retrieval.NewStore(infra.Database.Connection(), infra.Embedder, &cfg.Retrieval, infra.Logger)

	var archive ingest.Archive
	if infra.Storage != nil && !*noArchive {
		archive = infra.Storage
	}

	report, err := ingest.New(&cfg.Ingest, store, archive, infra.Logger).IngestDir(ctx, *dir)

	if report != nil {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(report)
	}

	if shutdownErr := infra.Lifecycle.Shutdown(cfg.ShutdownTimeoutDuration()); shutdownErr != nil {
		infra.Logger.Error("shutdown failed", "error", shutdownErr)
	}

	if err != nil {
		log.Fatal("ingest failed:", err)
	}
}
