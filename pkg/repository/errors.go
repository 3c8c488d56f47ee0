package repository

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation = "23505"
	pgUndefinedTable  = "42P01"
)

// ErrNotMigrated indicates a query touched a table that does not exist yet.
var ErrNotMigrated = errors.New("database schema not migrated")

// MapError translates database errors to domain errors.
// sql.ErrNoRows maps to notFoundErr, a unique violation to duplicateErr, and
// an undefined table to ErrNotMigrated. Other errors are returned unchanged.
func MapError(err error, notFoundErr, duplicateErr error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return notFoundErr
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return duplicateErr
		case pgUndefinedTable:
			return ErrNotMigrated
		}
	}

	return err
}
