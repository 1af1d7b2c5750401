package db

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

// pgUniqueViolation is the SQLSTATE Postgres reports for unique index violations.
const pgUniqueViolation = "23505"

// DuplicateKeyError represents a database constraint violation error
type DuplicateKeyError struct {
	Field string // The field that caused the constraint violation
	err   error  // The underlying database error
}

func (e *DuplicateKeyError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("duplicate key violation: %s already exists", e.Field)
	}
	return "duplicate key violation"
}

// Unwrap returns the underlying error for error chain support
func (e *DuplicateKeyError) Unwrap() error {
	return e.err
}

// NewDuplicateKeyError creates a new DuplicateKeyError
func NewDuplicateKeyError(field string, err error) error {
	return &DuplicateKeyError{
		Field: field,
		err:   err,
	}
}

// WrapIfDuplicateConstraint reports whether err is a unique constraint
// violation from either backend, and if so returns it as a DuplicateKeyError.
// Any other error is returned unchanged.
func WrapIfDuplicateConstraint(err error) (bool, error) {
	var sqliteErr sqlite3.Error
	var pgErr *pgconn.PgError
	switch {
	case errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique:
		return true, NewDuplicateKeyError(extractViolatedFieldFromSQLite(err), err)
	case errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation:
		return true, NewDuplicateKeyError(extractViolatedFieldFromPostgres(pgErr), err)
	default:
		return false, err
	}
}

// Matches "table.column" in "UNIQUE constraint failed: accounts.email".
var sqliteUniqueConstraintRegex = regexp.MustCompile(`UNIQUE constraint failed: \w+\.(\w+)`)

func extractViolatedFieldFromSQLite(err error) string {
	matches := sqliteUniqueConstraintRegex.FindStringSubmatch(err.Error())
	if len(matches) > 1 {
		return matches[1]
	}
	return "unknown"
}

// Matches the column in a detail line such as "Key (email)=(a@b.c) already exists."
var pgDetailKeyRegex = regexp.MustCompile(`^Key \((\w+)\)=`)

func extractViolatedFieldFromPostgres(pgErr *pgconn.PgError) string {
	if pgErr.ColumnName != "" {
		return pgErr.ColumnName
	}
	if matches := pgDetailKeyRegex.FindStringSubmatch(pgErr.Detail); len(matches) > 1 {
		return matches[1]
	}
	if pgErr.ConstraintName != "" {
		return pgErr.ConstraintName
	}
	return "unknown"
}
