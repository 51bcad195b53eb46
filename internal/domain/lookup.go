package domain

// Lookup parent entity grouping lookup values by type (table _lookups).
type Lookup struct {
	UUID        string  `json:"uuid" db:"uuid"`
	LookupType  string  `json:"lookup_type" db:"lookup_type"` // e.g. "status"; selects the mirror table
	Meaning     string  `json:"meaning" db:"meaning"`
	Description *string `json:"description" db:"description"`
	IsEnabled   bool    `json:"is_enabled" db:"is_enabled"`
}

// CreateLookup input for creating a lookup.
type CreateLookup struct {
	UUID        string  `json:"uuid,omitempty"`
	LookupType  string  `json:"lookup_type"`
	Meaning     string  `json:"meaning"`
	Description *string `json:"description"`
	IsEnabled   *bool   `json:"is_enabled"`
}
