package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"lookup-values/internal/domain"
	"lookup-values/internal/repository"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

type fixture struct {
	db           *repository.Database
	lookups      *LookupService
	lookupValues *LookupValueService
}

func newFixture(t *testing.T) *fixture {
	sqlDB, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	db := repository.NewDatabase(sqlDB, "sqlite")
	require.NoError(t, repository.EnsureSchema(context.Background(), sqlDB, db.Dialect))

	logger := zap.NewNop()
	lookups := NewLookupService(repository.NewSQLLookupsRepository(db.Dialect), logger)
	return &fixture{
		db:           db,
		lookups:      lookups,
		lookupValues: NewLookupValueService(db.Dialect, lookups, logger),
	}
}

func (f *fixture) createLookup(t *testing.T, lookupType string) *domain.Lookup {
	var lookup *domain.Lookup
	err := f.db.RunInTx(context.Background(), func(q repository.Querier) error {
		var err error
		lookup, err = f.lookups.Create(context.Background(), q, domain.CreateLookup{LookupType: lookupType, Meaning: lookupType})
		return err
	})
	require.NoError(t, err)
	return lookup
}

func (f *fixture) create(data domain.CreateLookupValue) (*domain.LookupValue, error) {
	var v *domain.LookupValue
	err := f.db.RunInTx(context.Background(), func(q repository.Querier) error {
		var err error
		v, err = f.lookupValues.Create(context.Background(), q, data)
		return err
	})
	return v, err
}

func (f *fixture) update(id string, data domain.UpdateLookupValue) (*domain.LookupValue, error) {
	var v *domain.LookupValue
	err := f.db.RunInTx(context.Background(), func(q repository.Querier) error {
		var err error
		v, err = f.lookupValues.Update(context.Background(), q, id, data)
		return err
	})
	return v, err
}

func (f *fixture) delete(id string) error {
	return f.db.RunInTx(context.Background(), func(q repository.Querier) error {
		return f.lookupValues.Delete(context.Background(), q, id)
	})
}

// mirrorRow reads the mirror row keyed by code; ok is false when absent.
func (f *fixture) mirrorRow(t *testing.T, table, code string) (domain.MirrorValue, bool) {
	var m domain.MirrorValue
	var description sql.NullString
	err := f.db.DB.QueryRow(`SELECT lookup_code, meaning, description, is_enabled FROM `+table+` WHERE lookup_code = ?1`, code).
		Scan(&m.LookupCode, &m.Meaning, &description, &m.IsEnabled)
	if err == sql.ErrNoRows {
		return m, false
	}
	require.NoError(t, err)
	if description.Valid {
		m.Description = &description.String
	}
	return m, true
}

func strPtr(s string) *string { return &s }

func TestLookupValueService_CreateThenFindOne(t *testing.T) {
	f := newFixture(t)
	status := f.createLookup(t, "status")

	created, err := f.create(domain.CreateLookupValue{
		LookupUUID:  status.UUID,
		LookupCode:  "open",
		Meaning:     "Open",
		Description: strPtr("ticket is open"),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.UUID)
	assert.True(t, created.IsEnabled)

	found, err := f.lookupValues.FindOne(context.Background(), f.db.DB, created.UUID)
	require.NoError(t, err)
	assert.Equal(t, *created, *found)

	mirror, ok := f.mirrorRow(t, "status_lookup_values", "open")
	require.True(t, ok)
	assert.Equal(t, created.Mirror(), mirror)
}

func TestLookupValueService_CreateWithSuppliedKey(t *testing.T) {
	f := newFixture(t)
	status := f.createLookup(t, "status")
	id := "6a1f0e38-2a57-4d3e-9b0c-0e6c1d7f2a11"

	created, err := f.create(domain.CreateLookupValue{UUID: id, LookupUUID: status.UUID, LookupCode: "open", Meaning: "Open"})
	require.NoError(t, err)
	assert.Equal(t, id, created.UUID)

	_, err = f.create(domain.CreateLookupValue{UUID: id, LookupUUID: status.UUID, LookupCode: "closed", Meaning: "Closed"})
	assert.True(t, errors.Is(err, domain.ErrPrimaryKeyConflict))
}

func TestLookupValueService_UniqueCodePerLookup(t *testing.T) {
	f := newFixture(t)
	status := f.createLookup(t, "status")
	priority := f.createLookup(t, "priority")

	_, err := f.create(domain.CreateLookupValue{LookupUUID: status.UUID, LookupCode: "open", Meaning: "Open"})
	require.NoError(t, err)

	_, err = f.create(domain.CreateLookupValue{LookupUUID: status.UUID, LookupCode: "open", Meaning: "Opened"})
	assert.True(t, errors.Is(err, domain.ErrUniqueConstraint))

	_, err = f.create(domain.CreateLookupValue{LookupUUID: priority.UUID, LookupCode: "open", Meaning: "Open"})
	assert.NoError(t, err)

	// the failed create left nothing behind in either table
	all, err := f.lookupValues.Find(context.Background(), f.db.DB)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestLookupValueService_UniqueMeaningPerLookup(t *testing.T) {
	f := newFixture(t)
	status := f.createLookup(t, "status")

	_, err := f.create(domain.CreateLookupValue{LookupUUID: status.UUID, LookupCode: "open", Meaning: "Open"})
	require.NoError(t, err)

	_, err = f.create(domain.CreateLookupValue{LookupUUID: status.UUID, LookupCode: "opened", Meaning: "Open"})
	assert.True(t, errors.Is(err, domain.ErrUniqueConstraint))
}

func TestLookupValueService_CreateUnknownLookup(t *testing.T) {
	f := newFixture(t)

	_, err := f.create(domain.CreateLookupValue{LookupUUID: "0b8d6c5e-3f0a-4c2b-8e7d-1a2b3c4d5e6f", LookupCode: "open", Meaning: "Open"})
	assert.True(t, errors.Is(err, errors.NotFound))
}

func TestLookupValueService_CreateValidation(t *testing.T) {
	f := newFixture(t)
	status := f.createLookup(t, "status")

	for _, data := range []domain.CreateLookupValue{
		{LookupUUID: "not-a-uuid", LookupCode: "open", Meaning: "Open"},
		{LookupUUID: status.UUID, LookupCode: " ", Meaning: "Open"},
		{LookupUUID: status.UUID, LookupCode: "open", Meaning: ""},
		{UUID: "nope", LookupUUID: status.UUID, LookupCode: "open", Meaning: "Open"},
	} {
		_, err := f.create(data)
		assert.True(t, errors.Is(err, errors.BadRequest), "%+v", data)
	}
}

func TestLookupValueService_UpdateNoChanges(t *testing.T) {
	f := newFixture(t)
	status := f.createLookup(t, "status")
	created, err := f.create(domain.CreateLookupValue{LookupUUID: status.UUID, LookupCode: "open", Meaning: "Open"})
	require.NoError(t, err)

	enabled := true
	updated, err := f.update(created.UUID, domain.UpdateLookupValue{
		LookupUUID: &status.UUID,
		LookupCode: strPtr("open"),
		IsEnabled:  &enabled,
	})
	require.NoError(t, err)
	assert.Equal(t, *created, *updated)
}

func TestLookupValueService_UpdateLookupUUIDRejected(t *testing.T) {
	f := newFixture(t)
	status := f.createLookup(t, "status")
	priority := f.createLookup(t, "priority")
	created, err := f.create(domain.CreateLookupValue{LookupUUID: status.UUID, LookupCode: "open", Meaning: "Open"})
	require.NoError(t, err)

	_, err = f.update(created.UUID, domain.UpdateLookupValue{LookupUUID: &priority.UUID, Meaning: strPtr("Opened")})
	assert.True(t, errors.Is(err, errors.BadRequest))

	found, err := f.lookupValues.FindOne(context.Background(), f.db.DB, created.UUID)
	require.NoError(t, err)
	assert.Equal(t, *created, *found)
}

func TestLookupValueService_UpdateUniqueKeys(t *testing.T) {
	f := newFixture(t)
	status := f.createLookup(t, "status")
	_, err := f.create(domain.CreateLookupValue{LookupUUID: status.UUID, LookupCode: "open", Meaning: "Open"})
	require.NoError(t, err)
	closed, err := f.create(domain.CreateLookupValue{LookupUUID: status.UUID, LookupCode: "closed", Meaning: "Closed"})
	require.NoError(t, err)

	_, err = f.update(closed.UUID, domain.UpdateLookupValue{LookupCode: strPtr("open")})
	assert.True(t, errors.Is(err, domain.ErrUniqueConstraint))

	_, err = f.update(closed.UUID, domain.UpdateLookupValue{Meaning: strPtr("Open")})
	assert.True(t, errors.Is(err, domain.ErrUniqueConstraint))

	// meaning changes alone are checked against meaning, not code
	updated, err := f.update(closed.UUID, domain.UpdateLookupValue{Meaning: strPtr("open")})
	require.NoError(t, err)
	assert.Equal(t, "open", updated.Meaning)

	mirror, ok := f.mirrorRow(t, "status_lookup_values", "closed")
	require.True(t, ok)
	assert.Equal(t, "open", mirror.Meaning)
}

func TestLookupValueService_UpdateNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.update("6a1f0e38-2a57-4d3e-9b0c-0e6c1d7f2a11", domain.UpdateLookupValue{Meaning: strPtr("x")})
	assert.True(t, errors.Is(err, errors.NotFound))

	_, err = f.update("bad id", domain.UpdateLookupValue{Meaning: strPtr("x")})
	assert.True(t, errors.Is(err, errors.BadRequest))
}

func TestLookupValueService_DeleteRemovesMirror(t *testing.T) {
	f := newFixture(t)
	status := f.createLookup(t, "status")
	created, err := f.create(domain.CreateLookupValue{LookupUUID: status.UUID, LookupCode: "open", Meaning: "Open"})
	require.NoError(t, err)

	require.NoError(t, f.delete(created.UUID))

	_, err = f.lookupValues.FindOne(context.Background(), f.db.DB, created.UUID)
	assert.True(t, errors.Is(err, errors.NotFound))
	_, ok := f.mirrorRow(t, "status_lookup_values", "open")
	assert.False(t, ok)

	err = f.delete(created.UUID)
	assert.True(t, errors.Is(err, errors.NotFound))
}

func TestLookupValueService_MissingMirrorRollsBack(t *testing.T) {
	f := newFixture(t)
	status := f.createLookup(t, "status")
	_, err := f.db.DB.Exec(`DROP TABLE status_lookup_values`)
	require.NoError(t, err)

	_, err = f.create(domain.CreateLookupValue{LookupUUID: status.UUID, LookupCode: "open", Meaning: "Open"})
	assert.True(t, errors.Is(err, errors.NotFound))

	all, err := f.lookupValues.Find(context.Background(), f.db.DB)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestLookupValueService_EndToEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	status := f.createLookup(t, "status")
	assert.Equal(t, "status", status.LookupType)

	created, err := f.create(domain.CreateLookupValue{
		LookupUUID:  status.UUID,
		LookupCode:  "open",
		Meaning:     "Open",
		Description: strPtr("still open"),
	})
	require.NoError(t, err)

	all, err := f.lookupValues.Find(ctx, f.db.DB)
	require.NoError(t, err)
	assert.Contains(t, all, *created)

	updated, err := f.update(created.UUID, domain.UpdateLookupValue{
		LookupCode:  strPtr("open2"),
		Description: domain.Some[*string](nil),
	})
	require.NoError(t, err)
	assert.Equal(t, "open2", updated.LookupCode)
	assert.Nil(t, updated.Description)

	_, ok := f.mirrorRow(t, "status_lookup_values", "open")
	assert.False(t, ok)
	mirror, ok := f.mirrorRow(t, "status_lookup_values", "open2")
	require.True(t, ok)
	assert.Equal(t, updated.Mirror(), mirror)

	require.NoError(t, f.delete(created.UUID))

	all, err = f.lookupValues.Find(ctx, f.db.DB)
	require.NoError(t, err)
	assert.NotContains(t, all, *updated)
	_, ok = f.mirrorRow(t, "status_lookup_values", "open2")
	assert.False(t, ok)
}

func TestLookupValueService_AcceptsNonCanonicalUUIDs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	status := f.createLookup(t, "status")
	upperLookup := strings.ToUpper(status.UUID)

	created, err := f.create(domain.CreateLookupValue{
		UUID:       "{0B1C2D3E-4F50-4617-8899-AABBCCDDEEFF}",
		LookupUUID: upperLookup,
		LookupCode: "open",
		Meaning:    "Open",
	})
	require.NoError(t, err)
	assert.Equal(t, "0b1c2d3e-4f50-4617-8899-aabbccddeeff", created.UUID)
	assert.Equal(t, status.UUID, created.LookupUUID)

	for _, id := range []string{
		strings.ToUpper(created.UUID),
		"urn:uuid:" + created.UUID,
		"{" + created.UUID + "}",
	} {
		got, err := f.lookupValues.FindOne(ctx, f.db.DB, id)
		require.NoError(t, err, id)
		assert.Equal(t, created, got)
	}

	// the row's own lookup_uuid in another spelling is not a change
	v, err := f.update(strings.ToUpper(created.UUID), domain.UpdateLookupValue{LookupUUID: &upperLookup})
	require.NoError(t, err)
	assert.Equal(t, created, v)

	code := "open2"
	v, err = f.update(created.UUID, domain.UpdateLookupValue{LookupUUID: &upperLookup, LookupCode: &code})
	require.NoError(t, err)
	assert.Equal(t, "open2", v.LookupCode)
	assert.Equal(t, status.UUID, v.LookupUUID)

	bad := "not-a-uuid"
	_, err = f.update(created.UUID, domain.UpdateLookupValue{LookupUUID: &bad})
	assert.True(t, errors.Is(err, errors.BadRequest))

	require.NoError(t, f.delete("urn:uuid:"+strings.ToUpper(created.UUID)))
	_, err = f.lookupValues.FindOne(ctx, f.db.DB, created.UUID)
	assert.True(t, errors.Is(err, errors.NotFound))
}

func TestLookupValueService_UpdateChangedFlag(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	status := f.createLookup(t, "status")
	created, err := f.create(domain.CreateLookupValue{LookupUUID: status.UUID, LookupCode: "open", Meaning: "Open"})
	require.NoError(t, err)

	disabled := false
	for _, want := range []bool{true, false} {
		err = f.db.RunInTx(ctx, func(q repository.Querier) error {
			_, changed, err := f.lookupValues.UpdateChanged(ctx, q, created.UUID, domain.UpdateLookupValue{IsEnabled: &disabled})
			assert.Equal(t, want, changed)
			return err
		})
		require.NoError(t, err)
	}
}
