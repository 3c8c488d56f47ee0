// Command migrate applies the embedded schema: the pgvector chunk tables for
// both collections, review tickets, the interaction log and prompt overrides.
package main

import (
	"embed"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"

	"github.com/JaimeStill/triage/internal/config"
)

//go:embed migrations/*.sql
var migrations embed.FS

// envDSN overrides the URL otherwise assembled from the database config.
const envDSN = "TRIAGE_DB_DSN"

type options struct {
	up, down, version bool
	steps, force      int
	forceSet          bool
}

func main() {
	var (
		dsn  = flag.String("dsn", "", "Database URL (default: TRIAGE_DB_DSN, then the database config)")
		opts options
	)
	flag.BoolVar(&opts.up, "up", false, "Apply all pending migrations")
	flag.BoolVar(&opts.down, "down", false, "Revert all migrations")
	flag.IntVar(&opts.steps, "steps", 0, "Apply N migrations (negative reverts)")
	flag.BoolVar(&opts.version, "version", false, "Print the current schema version")
	flag.IntVar(&opts.force, "force", -1, "Force the schema version after a failed migration")
	flag.Parse()

	flag.Visit(func(f *flag.Flag) {
		if f.Name == "force" {
			opts.forceSet = true
		}
	})

	url, err := resolveDSN(*dsn)
	if err != nil {
		log.Fatal(err)
	}

	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		log.Fatalf("failed to open embedded migrations: %v", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, url)
	if err != nil {
		log.Fatalf("failed to create migrator: %v", err)
	}
	defer m.Close()

	msg, err := run(m, opts)
	if err != nil {
		log.Fatal(err)
	}
	if msg == "" {
		fmt.Println("usage: migrate [-dsn URL] -up | -down | -steps N | -version | -force N")
		flag.PrintDefaults()
		return
	}
	fmt.Println(msg)
}

func resolveDSN(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if v := os.Getenv(envDSN); v != "" {
		return v, nil
	}

	cfg, err := config.Load()
	if err != nil {
		return "", fmt.Errorf("failed to load config: %w", err)
	}
	return cfg.Database.URL(), nil
}

// run performs the selected action. An empty message means no action was chosen.
func run(m *migrate.Migrate, opts options) (string, error) {
	ignoreNoChange := func(err error) error {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return err
	}

	switch {
	case opts.version:
		v, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			return "no migrations applied", nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to read version: %w", err)
		}
		return fmt.Sprintf("version: %d, dirty: %v", v, dirty), nil
	case opts.forceSet:
		if err := m.Force(opts.force); err != nil {
			return "", fmt.Errorf("failed to force version: %w", err)
		}
		return fmt.Sprintf("forced to version %d", opts.force), nil
	case opts.up:
		if err := ignoreNoChange(m.Up()); err != nil {
			return "", fmt.Errorf("up: %w", err)
		}
		return "schema up to date", nil
	case opts.down:
		if err := ignoreNoChange(m.Down()); err != nil {
			return "", fmt.Errorf("down: %w", err)
		}
		return "schema reverted", nil
	case opts.steps != 0:
		if err := ignoreNoChange(m.Steps(opts.steps)); err != nil {
			return "", fmt.Errorf("steps %d: %w", opts.steps, err)
		}
		return fmt.Sprintf("applied %d migration steps", opts.steps), nil
	}
	return "", nil
}
