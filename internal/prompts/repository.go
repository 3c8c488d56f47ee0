package prompts

import (
	"context"
	"database/sql"
	"errors"
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

// New creates the Postgres-backed prompt System.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "prompts"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) Instructions(ctx context.Context, stage Stage) (string, error) {
	if _, err := ParseStage(string(stage)); err != nil {
		return "", err
	}

	var text string
	err := r.db.QueryRowContext(
		ctx,
		"SELECT instructions FROM prompts WHERE stage = $1 AND active = true",
		stage,
	).Scan(&text)

	switch {
	case err == nil:
		return text, nil
	case errors.Is(err, sql.ErrNoRows):
		return Default(stage)
	default:
		r.logger.WarnContext(ctx, "prompt override lookup failed", "stage", stage, "error", err)
		return "", repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
}

func (r *repo) List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Prompt], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort, query.SortField{Field: "Name"}).
		WhereSearch(page.Search, "Name", "Description")
	filters.Apply(qb)

	result, err := repository.QueryPage(ctx, r.db, qb, page, scanPrompt)
	if err != nil {
		return nil, fmt.Errorf("list prompts: %w", repository.MapError(err, ErrNotFound, ErrDuplicate))
	}
	return result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Prompt, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	p, err := repository.QueryOne(ctx, r.db, q, args, scanPrompt)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &p, nil
}

func (r *repo) Create(ctx context.Context, cmd Command) (*Prompt, error) {
	if err := cmd.validate(); err != nil {
		return nil, err
	}

	q := `INSERT INTO prompts(name, stage, instructions, description)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + columns

	p, err := r.mutate(ctx, q, cmd.Name, cmd.Stage, cmd.Instructions, cmd.Description)
	if err != nil {
		return nil, err
	}

	r.logger.InfoContext(ctx, "prompt created", "id", p.ID, "name", p.Name, "stage", p.Stage)
	return p, nil
}

func (r *repo) Update(ctx context.Context, id uuid.UUID, cmd Command) (*Prompt, error) {
	if err := cmd.validate(); err != nil {
		return nil, err
	}

	q := `UPDATE prompts
		SET name = $1, stage = $2, instructions = $3, description = $4
		WHERE id = $5
		RETURNING ` + columns

	p, err := r.mutate(ctx, q, cmd.Name, cmd.Stage, cmd.Instructions, cmd.Description, id)
	if err != nil {
		return nil, err
	}

	r.logger.InfoContext(ctx, "prompt updated", "id", p.ID, "name", p.Name)
	return p, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, repository.ExecExpectOne(ctx, tx, "DELETE FROM prompts WHERE id = $1", id)
	})
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.InfoContext(ctx, "prompt deleted", "id", id)
	return nil
}

// Activate makes id the only active override for its stage.
func (r *repo) Activate(ctx context.Context, id uuid.UUID) (*Prompt, error) {
	p, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Prompt, error) {
		var stage Stage
		if err := tx.QueryRowContext(ctx, "SELECT stage FROM prompts WHERE id = $1", id).Scan(&stage); err != nil {
			return Prompt{}, err
		}

		if _, err := tx.ExecContext(
			ctx,
			"UPDATE prompts SET active = false WHERE stage = $1 AND active = true AND id <> $2",
			stage, id,
		); err != nil {
			return Prompt{}, fmt.Errorf("deactivate current: %w", err)
		}

		q := "UPDATE prompts SET active = true WHERE id = $1 RETURNING " + columns
		return repository.QueryOne(ctx, tx, q, []any{id}, scanPrompt)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.InfoContext(ctx, "prompt activated", "id", p.ID, "stage", p.Stage)
	return &p, nil
}

func (r *repo) Deactivate(ctx context.Context, id uuid.UUID) (*Prompt, error) {
	q := "UPDATE prompts SET active = false WHERE id = $1 RETURNING " + columns

	p, err := r.mutate(ctx, q, id)
	if err != nil {
		return nil, err
	}

	r.logger.InfoContext(ctx, "prompt deactivated", "id", p.ID, "stage", p.Stage)
	return p, nil
}

func (r *repo) mutate(ctx context.Context, q string, args ...any) (*Prompt, error) {
	p, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Prompt, error) {
		return repository.QueryOne(ctx, tx, q, args, scanPrompt)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &p, nil
}
