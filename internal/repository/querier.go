package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// Querier is the query handle every repository call runs on.
// *sql.DB and *sql.Tx both satisfy it, so callers decide the transaction scope.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ Querier = (*sql.DB)(nil)
	_ Querier = (*sql.Tx)(nil)
)

// Database pairs a pool with the SQL dialect spoken by its driver.
type Database struct {
	DB      *sql.DB
	Dialect Dialect
}

// NewDatabase wraps db. driver is the database/sql driver name it was opened with.
func NewDatabase(db *sql.DB, driver string) *Database {
	return &Database{DB: db, Dialect: DialectFor(driver)}
}

// TxFunc runs inside a transaction; returning an error rolls it back.
type TxFunc func(q Querier) error

// RunInTx executes fn in a transaction: rollback when fn returns an error or
// panics, commit otherwise.
func (d *Database) RunInTx(ctx context.Context, fn TxFunc) (err error) {
	tx, err := d.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
