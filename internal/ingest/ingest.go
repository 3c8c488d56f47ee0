// Package ingest turns source documents into indexed chunks: text is
// extracted, split with overlap, embedded, and written to the collection's
// vector table, and the original file is archived in blob storage.
package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/tmc/langchaingo/textsplitter"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/triage/internal/config"
	"github.com/JaimeStill/triage/internal/retrieval"
	"github.com/JaimeStill/triage/pkg/storage"
)

// ChunkWriter replaces the indexed chunks of one document in a collection.
type ChunkWriter interface {
	Replace(ctx context.Context, c retrieval.Collection, docID string, records []retrieval.Record) error
}

// Archive stores original files.
type Archive interface {
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) error
}

// Summary describes one indexed document.
type Summary struct {
	DocID      string               `json:"doc_id"`
	Collection retrieval.Collection `json:"collection"`
	FileType   string               `json:"file_type"`
	Pages      int                  `json:"pages,omitempty"`
	Chunks     int                  `json:"chunks"`
	ArchiveKey string               `json:"archive_key,omitempty"`
}

// Skip records a file that was not indexed.
type Skip struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Report is the outcome of a folder ingestion.
type Report struct {
	Documents []Summary `json:"documents"`
	Skipped   []Skip    `json:"skipped"`
	Chunks    int       `json:"chunks"`
}

// Indexer runs the ingestion pipeline.
type Indexer struct {
	store     ChunkWriter
	archive   Archive
	splitter  textsplitter.RecursiveCharacter
	publicDir string
	workers   int
	logger    *slog.Logger
}

// New creates an Indexer. archive may be nil to skip archiving originals.
func New(cfg *config.IngestConfig, store ChunkWriter, archive Archive, logger *slog.Logger) *Indexer {
	return &Indexer{
		store:   store,
		archive: archive,
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(cfg.ChunkSize),
			textsplitter.WithChunkOverlap(cfg.ChunkOverlap),
		),
		publicDir: cfg.PublicDir,
		workers:   cfg.Workers,
		logger:    logger.With("system", "ingest"),
	}
}

// CollectionFor returns the public collection for files whose path passes
// through the configured public directory, and internal otherwise.
func (ix *Indexer) CollectionFor(path string) retrieval.Collection {
	dir := filepath.ToSlash(filepath.Dir(path))
	if slices.Contains(strings.Split(dir, "/"), ix.publicDir) {
		return retrieval.Public
	}
	return retrieval.Internal
}

// Chunk splits a document's text into records with provenance metadata.
func (ix *Indexer) Chunk(name, fileType, text string, c retrieval.Collection) ([]retrieval.Record, error) {
	parts, err := ix.splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("split %s: %w", name, err)
	}

	source := "internal"
	if c == retrieval.Public {
		source = "external"
	}

	records := make([]retrieval.Record, 0, len(parts))
	for i, p := range parts {
		records = append(records, retrieval.Record{
			Chunk: retrieval.Chunk{
				ID:   fmt.Sprintf("%s_%d", name, i),
				Text: p,
				Metadata: retrieval.Metadata{
					DocID:    name,
					FileType: fileType,
					Source:   source,
				},
			},
		})
	}
	return records, nil
}

// Index extracts, chunks, embeds, stores, and archives one document.
func (ix *Indexer) Index(ctx context.Context, name string, data []byte, c retrieval.Collection) (Summary, error) {
	if _, err := retrieval.ParseCollection(string(c)); err != nil {
		return Summary{}, err
	}

	doc, err := Extract(name, data)
	if err != nil {
		return Summary{}, err
	}
	if strings.TrimSpace(doc.Text) == "" {
		return Summary{}, fmt.Errorf("%w: %s", ErrEmptyText, name)
	}

	records, err := ix.Chunk(name, doc.FileType, doc.Text, c)
	if err != nil {
		return Summary{}, err
	}

	if err := ix.store.Replace(ctx, c, name, records); err != nil {
		return Summary{}, fmt.Errorf("index %s: %w", name, err)
	}

	summary := Summary{
		DocID:      name,
		Collection: c,
		FileType:   doc.FileType,
		Pages:      doc.Pages,
		Chunks:     len(records),
	}

	if ix.archive != nil {
		key := storage.Key(string(c), name)
		if err := ix.archive.Upload(ctx, key, bytes.NewReader(data), doc.ContentType); err != nil {
			ix.logger.WarnContext(ctx, "archive original failed", "key", key, "error", err)
		} else {
			summary.ArchiveKey = key
		}
	}

	ix.logger.InfoContext(ctx, "document indexed",
		"doc_id", name,
		"collection", c,
		"chunks", summary.Chunks,
	)
	return summary, nil
}

// IngestDir indexes every regular file beneath root using a bounded pool of
// workers. Files that cannot be indexed are reported as skipped; only a
// walk failure or context cancellation aborts the run.
func (ix *Indexer) IngestDir(ctx context.Context, root string) (*Report, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() && strings.Contains(d.Name(), ".") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	var (
		mu     sync.Mutex
		report = &Report{Documents: []Summary{}, Skipped: []Skip{}}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(ix.workers, 1))

	for _, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			summary, err := ix.indexFile(gctx, path)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				ix.logger.WarnContext(gctx, "file skipped", "path", path, "error", err)
				report.Skipped = append(report.Skipped, Skip{Path: path, Reason: err.Error()})
				return nil
			}
			report.Documents = append(report.Documents, summary)
			report.Chunks += summary.Chunks
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return report, err
	}

	slices.SortFunc(report.Documents, func(a, b Summary) int { return strings.Compare(a.DocID, b.DocID) })
	slices.SortFunc(report.Skipped, func(a, b Skip) int { return strings.Compare(a.Path, b.Path) })

	ix.logger.InfoContext(ctx, "ingestion complete",
		"root", root,
		"documents", len(report.Documents),
		"skipped", len(report.Skipped),
		"chunks", report.Chunks,
	)
	return report, nil
}

func (ix *Indexer) indexFile(ctx context.Context, path string) (Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Summary{}, err
	}
	return ix.Index(ctx, filepath.Base(path), data, ix.CollectionFor(path))
}
