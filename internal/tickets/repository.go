package tickets

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/triage/pkg/pagination"
	"github.com/JaimeStill/triage/pkg/query"
	"github.com/JaimeStill/triage/pkg/repository"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates the Postgres-backed ticket System.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "tickets"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) Name() string { return "database" }

func (r *repo) Write(ctx context.Context, t Ticket) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO review_tickets(created_at, query_hash, label, confidence, reason)
		VALUES ($1, $2, $3, $4, $5)`,
		t.Time, t.QueryHash, t.Label, t.Confidence, t.Reason,
	)
	if err != nil {
		return fmt.Errorf("insert ticket: %w", repository.MapError(err, ErrNotFound, ErrDuplicate))
	}
	return nil
}

func (r *repo) List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Stored], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "QueryHash", "Reason")
	filters.Apply(qb)

	result, err := repository.QueryPage(ctx, r.db, qb, page, scanTicket)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", repository.MapError(err, ErrNotFound, ErrDuplicate))
	}
	return result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Stored, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	t, err := repository.QueryOne(ctx, r.db, q, args, scanTicket)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &t, nil
}
