package repository

import (
	"context"
	"fmt"

	"lookup-values/internal/domain"
)

// SQLLookupsRepository LookupsRepository on database/sql.
type SQLLookupsRepository struct {
	dialect Dialect
}

// NewSQLLookupsRepository creates the repository for dialect d.
func NewSQLLookupsRepository(d Dialect) *SQLLookupsRepository {
	return &SQLLookupsRepository{dialect: d}
}

var _ LookupsRepository = (*SQLLookupsRepository)(nil)

func (r *SQLLookupsRepository) GetLookup(ctx context.Context, q Querier, uuid string) (*domain.Lookup, error) {
	l, err := FindByPrimaryKey(ctx, q, r.dialect, Lookups, PrimaryKey(uuid), false)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *SQLLookupsRepository) ListLookups(ctx context.Context, q Querier) ([]*domain.Lookup, error) {
	rows, err := FindRows(ctx, q, r.dialect, Lookups)
	if err != nil {
		return nil, err
	}
	lookups := make([]*domain.Lookup, len(rows))
	for i := range rows {
		lookups[i] = &rows[i]
	}
	return lookups, nil
}

func (r *SQLLookupsRepository) CreateLookup(ctx context.Context, q Querier, lookup *domain.Lookup) (*domain.Lookup, error) {
	if err := CheckPrimaryKey(ctx, q, r.dialect, Lookups, PrimaryKey(lookup.UUID)); err != nil {
		return nil, err
	}
	if err := CheckUniqueKey(ctx, q, r.dialect, Lookups, Values{{Name: "lookup_type", Value: lookup.LookupType}}); err != nil {
		return nil, err
	}
	created, err := CreateRow(ctx, q, r.dialect, Lookups, Values{
		{Name: "uuid", Value: lookup.UUID},
		{Name: "lookup_type", Value: lookup.LookupType},
		{Name: "meaning", Value: lookup.Meaning},
		{Name: "description", Value: lookup.Description},
		{Name: "is_enabled", Value: lookup.IsEnabled},
	})
	if err != nil {
		return nil, err
	}
	if _, err := EnsureMirrorTable(ctx, q, r.dialect, created.LookupType); err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *SQLLookupsRepository) DeleteLookup(ctx context.Context, q Querier, uuid string) error {
	return DeleteRow(ctx, q, r.dialect, Lookups, PrimaryKey(uuid))
}

func (r *SQLLookupsRepository) CountLookupValues(ctx context.Context, q Querier, uuid string) (int, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE lookup_uuid = %s",
		r.dialect.QuoteIdent(LookupValuesTableName), r.dialect.Placeholder(1))
	var n int
	if err := q.QueryRowContext(ctx, query, uuid).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count lookup values: %w", err)
	}
	return n, nil
}
