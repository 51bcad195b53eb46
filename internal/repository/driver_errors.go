package repository

import (
	"errors"
	"fmt"
	"strings"

	"lookup-values/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const pgUniqueViolation = "23505"

// constraintViolation classifies a unique violation raised by the database
// itself, which happens when a concurrent writer slips past a pre-check.
// ok is false for every other error.
func constraintViolation(err error) (primaryKey bool, ok bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolation {
		return strings.HasSuffix(pqErr.Constraint, "_pkey"), true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return strings.HasSuffix(pgErr.ConstraintName, "_pkey"), true
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true, true
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return false, true
		case sqlite3.SQLITE_CONSTRAINT:
			// connection without extended result codes
			if strings.Contains(liteErr.Error(), "UNIQUE constraint failed") {
				return false, true
			}
		}
	}
	return false, false
}

func translateWriteError(err error, instance string, values Values, msg string) error {
	if primaryKey, ok := constraintViolation(err); ok {
		if primaryKey {
			return domain.PrimaryKeyConflict(instance, values)
		}
		return domain.UniqueConstraintViolation(instance, values)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
