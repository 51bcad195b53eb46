package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"lookup-values/internal/domain"

	"github.com/juju/errors"
)

// Column one column/value pair.
type Column struct {
	Name  string
	Value any
}

// Values an ordered column list, used both as a key (WHERE) and as data (SET / INSERT).
type Values []Column

// Names returns the column names in order.
func (v Values) Names() []string {
	names := make([]string, len(v))
	for i, c := range v {
		names[i] = c.Name
	}
	return names
}

// Args returns the bind arguments in order.
func (v Values) Args() []any {
	args := make([]any, len(v))
	for i, c := range v {
		args[i] = c.Value
	}
	return args
}

func (v Values) String() string {
	parts := make([]string, len(v))
	for i, c := range v {
		parts[i] = fmt.Sprintf("%s=%v", c.Name, display(c.Value))
	}
	return strings.Join(parts, ", ")
}

func display(v any) any {
	switch p := v.(type) {
	case *string:
		if p == nil {
			return "null"
		}
		return *p
	case *bool:
		if p == nil {
			return "null"
		}
		return *p
	}
	return v
}

// Scanner is implemented by *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// Table describes a table whose rows map to R. Columns lists every selected
// column in the order Scan expects them.
type Table[R any] struct {
	Name       string
	Instance   string // used in error messages, e.g. "lookup_value"
	PrimaryKey []string
	Columns    []string
	Scan       func(Scanner) (R, error)
}

func (d Dialect) where(key Values, start int) (string, []any) {
	conds := make([]string, len(key))
	for i, c := range key {
		conds[i] = fmt.Sprintf("%s = %s", d.QuoteIdent(c.Name), d.Placeholder(start+i))
	}
	return strings.Join(conds, " AND "), key.Args()
}

func (d Dialect) selectSQL(table string, columns []string, key Values) (string, []any) {
	where, args := d.where(key, 1)
	return fmt.Sprintf("SELECT %s FROM %s WHERE %s", d.quoteList(columns), d.QuoteIdent(table), where), args
}

func (d Dialect) insertSQL(table string, values Values) (string, []any) {
	placeholders := make([]string, len(values))
	for i := range values {
		placeholders[i] = d.Placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		d.QuoteIdent(table), d.quoteList(values.Names()), strings.Join(placeholders, ", ")), values.Args()
}

func (d Dialect) updateSQL(table string, key Values, values Values) (string, []any) {
	sets := make([]string, len(values))
	for i, c := range values {
		sets[i] = fmt.Sprintf("%s = %s", d.QuoteIdent(c.Name), d.Placeholder(i+1))
	}
	where, keyArgs := d.where(key, len(values)+1)
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s", d.QuoteIdent(table), strings.Join(sets, ", "), where),
		append(values.Args(), keyArgs...)
}

func (d Dialect) deleteSQL(table string, key Values) (string, []any) {
	where, args := d.where(key, 1)
	return fmt.Sprintf("DELETE FROM %s WHERE %s", d.QuoteIdent(table), where), args
}

func (d Dialect) exists(ctx context.Context, q Querier, table string, key Values) (bool, error) {
	where, args := d.where(key, 1)
	query := fmt.Sprintf("SELECT 1 FROM %s WHERE %s LIMIT 1", d.QuoteIdent(table), where)
	var one int
	err := q.QueryRowContext(ctx, query, args...).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CheckPrimaryKey fails with a primary key conflict when a row with key exists.
func CheckPrimaryKey[R any](ctx context.Context, q Querier, d Dialect, t Table[R], key Values) error {
	found, err := d.exists(ctx, q, t.Name, key)
	if err != nil {
		return fmt.Errorf("failed to check primary key of %s: %w", t.Instance, err)
	}
	if found {
		return domain.PrimaryKeyConflict(t.Instance, key)
	}
	return nil
}

// CheckUniqueKey fails with a unique constraint violation when any row matches every column of key.
func CheckUniqueKey[R any](ctx context.Context, q Querier, d Dialect, t Table[R], key Values) error {
	found, err := d.exists(ctx, q, t.Name, key)
	if err != nil {
		return fmt.Errorf("failed to check unique key of %s: %w", t.Instance, err)
	}
	if found {
		return domain.UniqueConstraintViolation(t.Instance, key)
	}
	return nil
}

// FindByPrimaryKey loads one row. forUpdate takes a row lock held until the
// end of the transaction q belongs to.
func FindByPrimaryKey[R any](ctx context.Context, q Querier, d Dialect, t Table[R], key Values, forUpdate bool) (R, error) {
	query, args := d.selectSQL(t.Name, t.Columns, key)
	if forUpdate {
		query += d.ForUpdate()
	}
	row, err := t.Scan(q.QueryRowContext(ctx, query, args...))
	if err != nil {
		var zero R
		if err == sql.ErrNoRows {
			return zero, errors.NotFoundf("%s with %s", t.Instance, key)
		}
		return zero, fmt.Errorf("failed to get %s: %w", t.Instance, err)
	}
	return row, nil
}

// FindRows returns every row ordered by primary key.
func FindRows[R any](ctx context.Context, q Querier, d Dialect, t Table[R]) ([]R, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s",
		d.quoteList(t.Columns), d.QuoteIdent(t.Name), d.quoteList(t.PrimaryKey))
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", t.Instance, err)
	}
	defer rows.Close()

	result := []R{}
	for rows.Next() {
		r, err := t.Scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", t.Instance, err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", t.Instance, err)
	}
	return result, nil
}

// CreateRow inserts values and returns the row as persisted.
func CreateRow[R any](ctx context.Context, q Querier, d Dialect, t Table[R], values Values) (R, error) {
	query, args := d.insertSQL(t.Name, values)
	query += " RETURNING " + d.quoteList(t.Columns)
	row, err := t.Scan(q.QueryRowContext(ctx, query, args...))
	if err != nil {
		var zero R
		return zero, translateWriteError(err, t.Instance, values, "failed to create "+t.Instance)
	}
	return row, nil
}

// UpdateRow applies values to the row at key and returns the updated row.
// Empty values only re-read the row.
func UpdateRow[R any](ctx context.Context, q Querier, d Dialect, t Table[R], key Values, values Values) (R, error) {
	if len(values) == 0 {
		return FindByPrimaryKey(ctx, q, d, t, key, false)
	}
	query, args := d.updateSQL(t.Name, key, values)
	query += " RETURNING " + d.quoteList(t.Columns)
	row, err := t.Scan(q.QueryRowContext(ctx, query, args...))
	if err != nil {
		var zero R
		if err == sql.ErrNoRows {
			return zero, errors.NotFoundf("%s with %s", t.Instance, key)
		}
		return zero, translateWriteError(err, t.Instance, values, "failed to update "+t.Instance)
	}
	return row, nil
}

// DeleteRow deletes the row at key; NotFound when nothing was deleted.
func DeleteRow[R any](ctx context.Context, q Querier, d Dialect, t Table[R], key Values) error {
	n, err := DeleteValues(ctx, q, d, t.Name, key)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", t.Instance, err)
	}
	if n == 0 {
		return errors.NotFoundf("%s with %s", t.Instance, key)
	}
	return nil
}

// InsertValues inserts one row into a table without a typed row mapping.
func InsertValues(ctx context.Context, q Querier, d Dialect, table string, values Values) error {
	query, args := d.insertSQL(table, values)
	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return translateWriteError(err, table, values, "failed to insert into "+table)
	}
	return nil
}

// UpdateValues updates the rows matching key and returns how many changed.
func UpdateValues(ctx context.Context, q Querier, d Dialect, table string, key Values, values Values) (int64, error) {
	query, args := d.updateSQL(table, key, values)
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, translateWriteError(err, table, values, "failed to update "+table)
	}
	return res.RowsAffected()
}

// DeleteValues deletes the rows matching key and returns how many went.
func DeleteValues(ctx context.Context, q Querier, d Dialect, table string, key Values) (int64, error) {
	query, args := d.deleteSQL(table, key)
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// TableExists looks name up in the schema catalog.
func TableExists(ctx context.Context, q Querier, d Dialect, name string) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, d.catalogQuery, name).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up table %s: %w", name, err)
	}
	return true, nil
}
