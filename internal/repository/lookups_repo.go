package repository

import (
	"context"

	"lookup-values/internal/domain"
)

// LookupsRepository data access for _lookups.
// Every method runs on the caller's query handle.
type LookupsRepository interface {
	// GetLookup NotFound when absent.
	GetLookup(ctx context.Context, q Querier, uuid string) (*domain.Lookup, error)
	// ListLookups ordered by uuid.
	ListLookups(ctx context.Context, q Querier) ([]*domain.Lookup, error)
	// CreateLookup inserts the lookup and provisions its mirror table.
	CreateLookup(ctx context.Context, q Querier, lookup *domain.Lookup) (*domain.Lookup, error)
	// DeleteLookup removes the lookup row. The mirror table is kept.
	DeleteLookup(ctx context.Context, q Querier, uuid string) error
	// CountLookupValues counts _lookup_values rows referencing the lookup.
	CountLookupValues(ctx context.Context, q Querier, uuid string) (int, error)
}
