package config

import (
	"fmt"
	"os"
	"strconv"
)

const (
	EnvRetrievalPublicTable   = "TRIAGE_RETRIEVAL_PUBLIC_TABLE"
	EnvRetrievalInternalTable = "TRIAGE_RETRIEVAL_INTERNAL_TABLE"
	EnvRetrievalDefaultK      = "TRIAGE_RETRIEVAL_DEFAULT_K"
	EnvRetrievalMaxK          = "TRIAGE_RETRIEVAL_MAX_K"
	EnvRetrievalCacheSize     = "TRIAGE_RETRIEVAL_CACHE_SIZE"
)

// RetrievalConfig names the isolated public and internal chunk tables and
// bounds the number of chunks a single question may retrieve.
type RetrievalConfig struct {
	PublicTable   string `toml:"public_table"`
	InternalTable string `toml:"internal_table"`
	DefaultK      int    `toml:"default_k"`
	MaxK          int    `toml:"max_k"`
	CacheSize     *int   `toml:"cache_size"`
}

// CacheEntries returns the query embedding cache size. Zero disables the cache.
func (c *RetrievalConfig) CacheEntries() int {
	if c.CacheSize == nil {
		return 0
	}
	return *c.CacheSize
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *RetrievalConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *RetrievalConfig) Merge(overlay *RetrievalConfig) {
	if overlay.PublicTable != "" {
		c.PublicTable = overlay.PublicTable
	}
	if overlay.InternalTable != "" {
		c.InternalTable = overlay.InternalTable
	}
	if overlay.DefaultK != 0 {
		c.DefaultK = overlay.DefaultK
	}
	if overlay.MaxK != 0 {
		c.MaxK = overlay.MaxK
	}
	if overlay.CacheSize != nil {
		c.CacheSize = overlay.CacheSize
	}
}

func (c *RetrievalConfig) loadDefaults() {
	if c.PublicTable == "" {
		c.PublicTable = "public_chunks"
	}
	if c.InternalTable == "" {
		c.InternalTable = "internal_chunks"
	}
	if c.DefaultK == 0 {
		c.DefaultK = 4
	}
	if c.MaxK == 0 {
		c.MaxK = 20
	}
	if c.CacheSize == nil {
		size := 512
		c.CacheSize = &size
	}
}

func (c *RetrievalConfig) loadEnv() {
	if v := os.Getenv(EnvRetrievalPublicTable); v != "" {
		c.PublicTable = v
	}
	if v := os.Getenv(EnvRetrievalInternalTable); v != "" {
		c.InternalTable = v
	}
	if v := os.Getenv(EnvRetrievalDefaultK); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.DefaultK = n
		}
	}
	if v := os.Getenv(EnvRetrievalMaxK); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxK = n
		}
	}
	if v := os.Getenv(EnvRetrievalCacheSize); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.CacheSize = &n
		}
	}
}

func (c *RetrievalConfig) validate() error {
	if c.PublicTable == c.InternalTable {
		return fmt.Errorf("public_table and internal_table must differ")
	}
	if c.DefaultK < 1 {
		return fmt.Errorf("default_k must be positive")
	}
	if c.MaxK < c.DefaultK {
		return fmt.Errorf("max_k cannot be less than default_k")
	}
	if c.CacheEntries() < 0 {
		return fmt.Errorf("cache_size cannot be negative")
	}
	return nil
}

// ClampK normalises a requested k into [1, MaxK], substituting DefaultK for
// non-positive requests.
func (c *RetrievalConfig) ClampK(k int) int {
	if k < 1 {
		return c.DefaultK
	}
	return min(k, c.MaxK)
}
