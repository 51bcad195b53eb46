package repository

import (
	"context"
	"fmt"
	"regexp"

	"lookup-values/internal/domain"

	"github.com/juju/errors"
)

// LookupValuesTableName is the primary table; mirror tables reuse it as a suffix.
const LookupValuesTableName = "_lookup_values"

// lookup types become part of a table name, so they are restricted to
// lowercase identifiers short enough for postgres' 63 byte limit.
var lookupTypePattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,48}$`)

// MirrorTableName maps a lookup type to its mirror table, e.g.
// "status" -> "status_lookup_values". Types that are not plain identifiers
// are rejected rather than interpolated into SQL.
func MirrorTableName(lookupType string) (string, error) {
	if !lookupTypePattern.MatchString(lookupType) {
		return "", errors.NotValidf("lookup type %q", lookupType)
	}
	return lookupType + LookupValuesTableName, nil
}

// ResolveMirrorTable names the mirror table of lookupType and checks that the
// schema catalog knows it.
func ResolveMirrorTable(ctx context.Context, q Querier, d Dialect, lookupType string) (string, error) {
	name, err := MirrorTableName(lookupType)
	if err != nil {
		return "", err
	}
	ok, err := TableExists(ctx, q, d, name)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", errors.NotFoundf("mirror table %s", name)
	}
	return name, nil
}

func mirrorValues(v domain.MirrorValue) Values {
	return Values{
		{Name: "lookup_code", Value: v.LookupCode},
		{Name: "meaning", Value: v.Meaning},
		{Name: "description", Value: v.Description},
		{Name: "is_enabled", Value: v.IsEnabled},
	}
}

// CreateMirrorValue inserts v into the mirror table.
func CreateMirrorValue(ctx context.Context, q Querier, d Dialect, table string, v domain.MirrorValue) error {
	return InsertValues(ctx, q, d, table, mirrorValues(v))
}

// UpdateMirrorValue overwrites the mirror row keyed by lookupCode with v.
// lookupCode is the code before the update, since v may carry a new one.
func UpdateMirrorValue(ctx context.Context, q Querier, d Dialect, table, lookupCode string, v domain.MirrorValue) error {
	n, err := UpdateValues(ctx, q, d, table, Values{{Name: "lookup_code", Value: lookupCode}}, mirrorValues(v))
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.NotFoundf("%s row with lookup_code=%s", table, lookupCode)
	}
	return nil
}

// DeleteMirrorValue removes the mirror row keyed by lookupCode.
func DeleteMirrorValue(ctx context.Context, q Querier, d Dialect, table, lookupCode string) error {
	n, err := DeleteValues(ctx, q, d, table, Values{{Name: "lookup_code", Value: lookupCode}})
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	if n == 0 {
		return errors.NotFoundf("%s row with lookup_code=%s", table, lookupCode)
	}
	return nil
}
