package config

import (
	"fmt"
	"os"
	"strconv"
)

const (
	EnvIngestChunkSize    = "TRIAGE_INGEST_CHUNK_SIZE"
	EnvIngestChunkOverlap = "TRIAGE_INGEST_CHUNK_OVERLAP"
	EnvIngestWorkers      = "TRIAGE_INGEST_WORKERS"
	EnvIngestPublicDir    = "TRIAGE_INGEST_PUBLIC_DIR"
)

// IngestConfig controls offline document indexing.
// Files whose parent directory is PublicDir are indexed into the public
// collection; everything else is internal.
type IngestConfig struct {
	ChunkSize    int    `toml:"chunk_size"`
	ChunkOverlap int    `toml:"chunk_overlap"`
	Workers      int    `toml:"workers"`
	PublicDir    string `toml:"public_dir"`
}

func (c *IngestConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

func (c *IngestConfig) Merge(overlay *IngestConfig) {
	if overlay.ChunkSize != 0 {
		c.ChunkSize = overlay.ChunkSize
	}
	if overlay.ChunkOverlap != 0 {
		c.ChunkOverlap = overlay.ChunkOverlap
	}
	if overlay.Workers != 0 {
		c.Workers = overlay.Workers
	}
	if overlay.PublicDir != "" {
		c.PublicDir = overlay.PublicDir
	}
}

func (c *IngestConfig) loadDefaults() {
	if c.ChunkSize == 0 {
		c.ChunkSize = 800
	}
	if c.ChunkOverlap == 0 {
		c.ChunkOverlap = 200
	}
	if c.Workers == 0 {
		c.Workers = 4
	}
	if c.PublicDir == "" {
		c.PublicDir = "external_pdfs"
	}
}

func (c *IngestConfig) loadEnv() {
	setInt := func(env string, dst *int) {
		if v := os.Getenv(env); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	setInt(EnvIngestChunkSize, &c.ChunkSize)
	setInt(EnvIngestChunkOverlap, &c.ChunkOverlap)
	setInt(EnvIngestWorkers, &c.Workers)

	if v := os.Getenv(EnvIngestPublicDir); v != "" {
		c.PublicDir = v
	}
}

func (c *IngestConfig) validate() error {
	if c.ChunkSize < 1 {
		return fmt.Errorf("chunk_size must be positive")
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("chunk_overlap must be within [0, chunk_size)")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be positive")
	}
	return nil
}
