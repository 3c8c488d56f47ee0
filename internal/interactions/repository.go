package interactions

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/triage/pkg/pagination"
	"github.com/JaimeStill/triage/pkg/query"
	"github.com/JaimeStill/triage/pkg/repository"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates the Postgres-backed interaction System.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "interactions"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) Record(ctx context.Context, e Entry) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO interactions(created_at, question_hash, answer_snippet, retrieved_docs, label, outcome)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		e.Time, e.QuestionHash, e.AnswerSnippet, docList(e.RetrievedDocs), e.Label, e.Outcome,
	)
	if err != nil {
		return fmt.Errorf("record interaction: %w", repository.MapError(err, ErrNotFound, ErrDuplicate))
	}
	return nil
}

func (r *repo) List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Entry], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "AnswerSnippet")
	filters.Apply(qb)

	result, err := repository.QueryPage(ctx, r.db, qb, page, scanEntry)
	if err != nil {
		return nil, fmt.Errorf("list interactions: %w", repository.MapError(err, ErrNotFound, ErrDuplicate))
	}
	return result, nil
}
