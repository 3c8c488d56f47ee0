package retrieval

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/pgvector/pgvector-go"

	"github.com/JaimeStill/triage/internal/config"
	"github.com/JaimeStill/triage/pkg/repository"
)

// Record is a chunk prepared for indexing.
type Record struct {
	Chunk
	Embedding []float32
}

// Store is the pgvector-backed Retriever. Each collection lives in its own
// table so internal evidence can never surface in a public answer.
type Store struct {
	db       *sql.DB
	embedder Embedder
	tables   map[Collection]string
	logger   *slog.Logger
}

// NewStore creates a Store over the tables named in cfg.
func NewStore(db *sql.DB, embedder Embedder, cfg *config.RetrievalConfig, logger *slog.Logger) *Store {
	return &Store{
		db:       db,
		embedder: embedder,
		tables: map[Collection]string{
			Public:   cfg.PublicTable,
			Internal: cfg.InternalTable,
		},
		logger: logger.With("system", "retrieval"),
	}
}

// Table returns the table backing c.
func (s *Store) Table(c Collection) (string, error) {
	table, ok := s.tables[c]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidCollection, c)
	}
	return table, nil
}

func (s *Store) Retrieve(ctx context.Context, query string, n int, c Collection) ([]Chunk, error) {
	table, err := s.Table(c)
	if err != nil {
		return nil, err
	}
	if n < 1 {
		return []Chunk{}, nil
	}
	if s.embedder == nil {
		return nil, fmt.Errorf("%w: no embedder configured", ErrUnavailable)
	}

	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		s.logger.WarnContext(ctx, "query embedding failed", "collection", c, "error", err)
		return nil, fmt.Errorf("%w: embed query: %w", ErrUnavailable, err)
	}

	q := fmt.Sprintf(
		`SELECT id, content, doc_id, file_type, source, embedding <=> $1 AS score
		FROM %s
		ORDER BY embedding <=> $1
		LIMIT $2`,
		table,
	)

	chunks, err := repository.QueryMany(ctx, s.db, q, []any{pgvector.NewVector(vector), n}, scanChunk)
	if err != nil {
		s.logger.WarnContext(ctx, "vector search failed", "collection", c, "error", err)
		return nil, fmt.Errorf("%w: search %s: %w", ErrUnavailable, c, err)
	}

	s.logger.DebugContext(ctx, "chunks retrieved", "collection", c, "requested", n, "returned", len(chunks))
	return chunks, nil
}

// Replace embeds any records lacking a vector and swaps every chunk of
// docID in c for records in one transaction, so a shorter revision of a
// document leaves no stale chunks behind.
func (s *Store) Replace(ctx context.Context, c Collection, docID string, records []Record) error {
	if docID == "" {
		return fmt.Errorf("%w: replace requires a doc id", ErrInvalidRecord)
	}
	table, err := s.Table(c)
	if err != nil {
		return err
	}
	if err := s.embedMissing(ctx, records); err != nil {
		return err
	}

	insert := fmt.Sprintf(
		`INSERT INTO %s (id, content, doc_id, file_type, source, embedding)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content,
			doc_id = EXCLUDED.doc_id,
			file_type = EXCLUDED.file_type,
			source = EXCLUDED.source,
			embedding = EXCLUDED.embedding`,
		table,
	)

	removed, err := repository.WithTx(ctx, s.db, func(tx *sql.Tx) (int64, error) {
		res, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE doc_id = $1`, table), docID)
		if err != nil {
			return 0, fmt.Errorf("clear %s: %w", docID, err)
		}
		removed, _ := res.RowsAffected()
		if len(records) == 0 {
			return removed, nil
		}

		stmt, err := tx.PrepareContext(ctx, insert)
		if err != nil {
			return 0, err
		}
		defer stmt.Close()

		for _, r := range records {
			if _, err := stmt.ExecContext(
				ctx,
				r.ID, r.Text, r.Metadata.DocID, r.Metadata.FileType, r.Metadata.Source,
				pgvector.NewVector(r.Embedding),
			); err != nil {
				return 0, fmt.Errorf("upsert chunk %s: %w", r.ID, err)
			}
		}
		return removed, nil
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	s.logger.InfoContext(ctx, "chunks indexed",
		"collection", c,
		"count", len(records),
		"replaced", removed,
	)
	return nil
}

func (s *Store) embedMissing(ctx context.Context, records []Record) error {
	var texts []string
	var idx []int
	for i, r := range records {
		if len(r.Embedding) == 0 {
			texts = append(texts, r.Text)
			idx = append(idx, i)
		}
	}
	if len(texts) == 0 {
		return nil
	}
	if s.embedder == nil {
		return fmt.Errorf("%w: no embedder configured", ErrUnavailable)
	}

	vectors, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return fmt.Errorf("%w: embed documents: %w", ErrUnavailable, err)
	}
	if len(vectors) != len(texts) {
		return fmt.Errorf("%w: embedder returned %d vectors for %d texts", ErrUnavailable, len(vectors), len(texts))
	}

	for j, i := range idx {
		records[i].Embedding = vectors[j]
	}
	return nil
}

func scanChunk(s repository.Scanner) (Chunk, error) {
	var (
		c     Chunk
		score float64
	)
	err := s.Scan(&c.ID, &c.Text, &c.Metadata.DocID, &c.Metadata.FileType, &c.Metadata.Source, &score)
	c.Score = &score
	return c, err
}
