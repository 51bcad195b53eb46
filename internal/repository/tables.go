package repository

import (
	"database/sql"

	"lookup-values/internal/domain"
)

// LookupValues maps _lookup_values.
var LookupValues = Table[domain.LookupValue]{
	Name:       LookupValuesTableName,
	Instance:   "lookup_value",
	PrimaryKey: []string{"uuid"},
	Columns:    []string{"uuid", "lookup_uuid", "lookup_code", "meaning", "description", "is_enabled"},
	Scan:       scanLookupValue,
}

// Lookups maps _lookups.
var Lookups = Table[domain.Lookup]{
	Name:       "_lookups",
	Instance:   "lookup",
	PrimaryKey: []string{"uuid"},
	Columns:    []string{"uuid", "lookup_type", "meaning", "description", "is_enabled"},
	Scan:       scanLookup,
}

func scanLookupValue(s Scanner) (domain.LookupValue, error) {
	var v domain.LookupValue
	var description sql.NullString
	if err := s.Scan(&v.UUID, &v.LookupUUID, &v.LookupCode, &v.Meaning, &description, &v.IsEnabled); err != nil {
		return domain.LookupValue{}, err
	}
	v.Description = nullStringPtr(description)
	return v, nil
}

func scanLookup(s Scanner) (domain.Lookup, error) {
	var l domain.Lookup
	var description sql.NullString
	if err := s.Scan(&l.UUID, &l.LookupType, &l.Meaning, &description, &l.IsEnabled); err != nil {
		return domain.Lookup{}, err
	}
	l.Description = nullStringPtr(description)
	return l, nil
}

func nullStringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

// PrimaryKey builds the single-column uuid key.
func PrimaryKey(uuid string) Values {
	return Values{{Name: "uuid", Value: uuid}}
}
