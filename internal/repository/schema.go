package repository

import (
	"context"
	"fmt"
)

// Bootstrap DDL for empty databases (local dev, sqlite, tests). Existing
// tables are left untouched; this is not a migration tool.
const (
	lookupsDDL = `CREATE TABLE IF NOT EXISTS _lookups (
		uuid %[1]s PRIMARY KEY,
		lookup_type TEXT NOT NULL UNIQUE,
		meaning TEXT NOT NULL,
		description TEXT,
		is_enabled BOOLEAN NOT NULL DEFAULT TRUE
	)`
	lookupValuesDDL = `CREATE TABLE IF NOT EXISTS _lookup_values (
		uuid %[1]s PRIMARY KEY,
		lookup_uuid %[1]s NOT NULL REFERENCES _lookups (uuid),
		lookup_code TEXT NOT NULL,
		meaning TEXT NOT NULL,
		description TEXT,
		is_enabled BOOLEAN NOT NULL DEFAULT TRUE,
		UNIQUE (lookup_uuid, lookup_code),
		UNIQUE (lookup_uuid, meaning)
	)`
	mirrorDDL = `CREATE TABLE IF NOT EXISTS %s (
		lookup_code TEXT PRIMARY KEY,
		meaning TEXT NOT NULL,
		description TEXT,
		is_enabled BOOLEAN NOT NULL DEFAULT TRUE
	)`
)

func (d Dialect) uuidType() string {
	if d.name == "postgres" {
		return "UUID"
	}
	return "TEXT"
}

// EnsureSchema creates _lookups and _lookup_values when missing.
func EnsureSchema(ctx context.Context, q Querier, d Dialect) error {
	for _, ddl := range []string{lookupsDDL, lookupValuesDDL} {
		if _, err := q.ExecContext(ctx, fmt.Sprintf(ddl, d.uuidType())); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

// EnsureMirrorTable creates the mirror table of lookupType when missing and
// returns its name.
func EnsureMirrorTable(ctx context.Context, q Querier, d Dialect, lookupType string) (string, error) {
	name, err := MirrorTableName(lookupType)
	if err != nil {
		return "", err
	}
	if _, err := q.ExecContext(ctx, fmt.Sprintf(mirrorDDL, d.QuoteIdent(name))); err != nil {
		return "", fmt.Errorf("failed to create mirror table %s: %w", name, err)
	}
	return name, nil
}
