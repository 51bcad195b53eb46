package repository

import (
	"strconv"
	"strings"

	"github.com/lib/pq"
)

// Dialect covers the SQL differences between the supported drivers.
type Dialect struct {
	name         string
	placeholder  byte // '$' for postgres, '?' for sqlite (numbered form)
	forUpdate    bool
	catalogQuery string
}

// Postgres is spoken by both lib/pq and pgx.
var Postgres = Dialect{
	name:        "postgres",
	placeholder: '$',
	forUpdate:   true,
	catalogQuery: `SELECT 1 FROM information_schema.tables
		WHERE table_schema = current_schema() AND table_name = $1`,
}

// SQLite has no row locks; writers are serialized by the database lock.
var SQLite = Dialect{
	name:         "sqlite",
	placeholder:  '?',
	forUpdate:    false,
	catalogQuery: `SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = ?1`,
}

// DialectFor maps a database/sql driver name to its dialect.
func DialectFor(driver string) Dialect {
	if driver == "sqlite" {
		return SQLite
	}
	return Postgres
}

func (d Dialect) Name() string { return d.name }

// Placeholder returns the n-th (1-based) bind parameter.
func (d Dialect) Placeholder(n int) string {
	return string(d.placeholder) + strconv.Itoa(n)
}

// ForUpdate returns the locking clause appended to a locking read, if any.
func (d Dialect) ForUpdate() string {
	if d.forUpdate {
		return " FOR UPDATE"
	}
	return ""
}

// QuoteIdent quotes a table or column name. Both dialects use the
// standard double quote form.
func (d Dialect) QuoteIdent(name string) string {
	return pq.QuoteIdentifier(name)
}

func (d Dialect) quoteList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = d.QuoteIdent(n)
	}
	return strings.Join(quoted, ", ")
}
