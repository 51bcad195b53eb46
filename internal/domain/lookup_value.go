package domain

import (
	"strings"

	"github.com/google/uuid"
	"github.com/juju/errors"
)

// LookupValue one coded option of a Lookup (table _lookup_values).
type LookupValue struct {
	UUID        string  `json:"uuid" db:"uuid"`
	LookupUUID  string  `json:"lookup_uuid" db:"lookup_uuid"` // immutable after create
	LookupCode  string  `json:"lookup_code" db:"lookup_code"` // unique per lookup_uuid
	Meaning     string  `json:"meaning" db:"meaning"`         // unique per lookup_uuid
	Description *string `json:"description" db:"description"`
	IsEnabled   bool    `json:"is_enabled" db:"is_enabled"`
}

// MirrorValue the copy of a lookup value kept in <lookup_type>_lookup_values.
// The mirror table is scoped to one lookup type, so it carries no lookup_uuid.
type MirrorValue struct {
	LookupCode  string  `db:"lookup_code"`
	Meaning     string  `db:"meaning"`
	Description *string `db:"description"`
	IsEnabled   bool    `db:"is_enabled"`
}

// Mirror returns the mirror-table projection of v.
func (v LookupValue) Mirror() MirrorValue {
	return MirrorValue{
		LookupCode:  v.LookupCode,
		Meaning:     v.Meaning,
		Description: v.Description,
		IsEnabled:   v.IsEnabled,
	}
}

// DataEqual reports whether v and o hold the same data columns.
// The primary key is not compared.
func (v LookupValue) DataEqual(o LookupValue) bool {
	return v.LookupUUID == o.LookupUUID &&
		v.LookupCode == o.LookupCode &&
		v.Meaning == o.Meaning &&
		equalStringPtr(v.Description, o.Description) &&
		v.IsEnabled == o.IsEnabled
}

// CreateLookupValue input for creating a lookup value. UUID is optional;
// IsEnabled defaults to true.
type CreateLookupValue struct {
	UUID        string  `json:"uuid,omitempty"`
	LookupUUID  string  `json:"lookup_uuid"`
	LookupCode  string  `json:"lookup_code"`
	Meaning     string  `json:"meaning"`
	Description *string `json:"description"`
	IsEnabled   *bool   `json:"is_enabled"`
}

// CanonicalUUID parses s as a uuid and returns its lower-case hyphenated
// form, so braced, urn and upper-case spellings compare equal to stored keys.
func CanonicalUUID(field, s string) (string, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return "", errors.BadRequestf("%s %q is not a valid uuid", field, s)
	}
	return id.String(), nil
}

// Normalize checks required fields and returns c with its uuids in
// canonical form.
func (c CreateLookupValue) Normalize() (CreateLookupValue, error) {
	var err error
	if c.UUID != "" {
		if c.UUID, err = CanonicalUUID("uuid", c.UUID); err != nil {
			return c, err
		}
	}
	if c.LookupUUID, err = CanonicalUUID("lookup_uuid", c.LookupUUID); err != nil {
		return c, err
	}
	if strings.TrimSpace(c.LookupCode) == "" {
		return c, errors.BadRequestf("lookup_code is required")
	}
	if strings.TrimSpace(c.Meaning) == "" {
		return c, errors.BadRequestf("meaning is required")
	}
	return c, nil
}

// Row returns the row to insert for c, with the given primary key.
func (c CreateLookupValue) Row(id string) LookupValue {
	enabled := true
	if c.IsEnabled != nil {
		enabled = *c.IsEnabled
	}
	return LookupValue{
		UUID:        id,
		LookupUUID:  c.LookupUUID,
		LookupCode:  c.LookupCode,
		Meaning:     c.Meaning,
		Description: c.Description,
		IsEnabled:   enabled,
	}
}

// UpdateLookupValue partial update. Nil pointers leave the column untouched;
// Description uses Optional so it can be set to null explicitly.
type UpdateLookupValue struct {
	LookupUUID  *string           `json:"lookup_uuid"`
	LookupCode  *string           `json:"lookup_code"`
	Meaning     *string           `json:"meaning"`
	Description Optional[*string] `json:"description"`
	IsEnabled   *bool             `json:"is_enabled"`
}

// Normalize rejects present-but-blank required columns and returns u with
// lookup_uuid in canonical form.
func (u UpdateLookupValue) Normalize() (UpdateLookupValue, error) {
	if u.LookupUUID != nil {
		id, err := CanonicalUUID("lookup_uuid", *u.LookupUUID)
		if err != nil {
			return u, err
		}
		u.LookupUUID = &id
	}
	if u.LookupCode != nil && strings.TrimSpace(*u.LookupCode) == "" {
		return u, errors.BadRequestf("lookup_code cannot be empty")
	}
	if u.Meaning != nil && strings.TrimSpace(*u.Meaning) == "" {
		return u, errors.BadRequestf("meaning cannot be empty")
	}
	return u, nil
}

// Merge returns row with u applied over it.
func (u UpdateLookupValue) Merge(row LookupValue) LookupValue {
	merged := row
	if u.LookupUUID != nil {
		merged.LookupUUID = *u.LookupUUID
	}
	if u.LookupCode != nil {
		merged.LookupCode = *u.LookupCode
	}
	if u.Meaning != nil {
		merged.Meaning = *u.Meaning
	}
	if u.Description.Set {
		merged.Description = u.Description.Value
	}
	if u.IsEnabled != nil {
		merged.IsEnabled = *u.IsEnabled
	}
	return merged
}

func equalStringPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
