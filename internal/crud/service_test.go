package crud

import (
	"context"
	"database/sql"
	"testing"

	"lookup-values/internal/domain"
	"lookup-values/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	valueUUID  = "6a1f0e38-2a57-4d3e-9b0c-0e6c1d7f2a11"
	lookupUUID = "0b8d6c5e-3f0a-4c2b-8e7d-1a2b3c4d5e6f"
)

var columns = []string{"uuid", "lookup_uuid", "lookup_code", "meaning", "description", "is_enabled"}

type testEntity struct{}

func (testEntity) Table() repository.Table[domain.LookupValue] { return repository.LookupValues }

func (testEntity) SuppliedKey(data domain.CreateLookupValue) (repository.Values, bool) {
	if data.UUID == "" {
		return nil, false
	}
	return repository.PrimaryKey(data.UUID), true
}

func (testEntity) CreateValues(data domain.CreateLookupValue) repository.Values {
	return repository.Values{
		{Name: "uuid", Value: data.UUID},
		{Name: "lookup_uuid", Value: data.LookupUUID},
		{Name: "lookup_code", Value: data.LookupCode},
		{Name: "meaning", Value: data.Meaning},
	}
}

func (testEntity) Merge(row domain.LookupValue, data domain.UpdateLookupValue) domain.LookupValue {
	return data.Merge(row)
}

func (testEntity) DataEqual(a, b domain.LookupValue) bool { return a.DataEqual(b) }

func (testEntity) UpdateValues(data domain.UpdateLookupValue) repository.Values {
	var values repository.Values
	if data.LookupCode != nil {
		values = append(values, repository.Column{Name: "lookup_code", Value: *data.LookupCode})
	}
	return values
}

type recorder struct {
	stages []string
	fail   string
}

func (r *recorder) hook(stage string) Hook[domain.LookupValue, domain.CreateLookupValue, domain.UpdateLookupValue, string] {
	return func(ctx context.Context, call *Call[domain.LookupValue, domain.CreateLookupValue, domain.UpdateLookupValue, string]) error {
		r.stages = append(r.stages, stage)
		if stage == r.fail {
			return errors.BadRequestf("%s refused", stage)
		}
		if stage[:3] == "pre" {
			call.State = stage
		} else if call.State == "" {
			return errors.Errorf("%s ran without state", stage)
		}
		return nil
	}
}

func setup(t *testing.T, rec *recorder) (*sql.DB, sqlmock.Sqlmock, *Service[domain.LookupValue, domain.CreateLookupValue, domain.UpdateLookupValue, string]) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	svc := New[domain.LookupValue, domain.CreateLookupValue, domain.UpdateLookupValue, string](repository.Postgres, testEntity{},
		Hooks[domain.LookupValue, domain.CreateLookupValue, domain.UpdateLookupValue, string]{
			PreCreate:  rec.hook("preCreate"),
			PostCreate: rec.hook("postCreate"),
			PreUpdate:  rec.hook("preUpdate"),
			PostUpdate: rec.hook("postUpdate"),
			PreDelete:  rec.hook("preDelete"),
			PostDelete: rec.hook("postDelete"),
		}, zap.NewNop())
	return db, mock, svc
}

func storedRow(code string) *sqlmock.Rows {
	return sqlmock.NewRows(columns).AddRow(valueUUID, lookupUUID, code, "Open", nil, true)
}

func TestCreate_HookOrder(t *testing.T) {
	rec := &recorder{}
	db, mock, svc := setup(t, rec)
	defer db.Close()

	mock.ExpectQuery(`SELECT 1 FROM "_lookup_values" WHERE "uuid" = \$1`).
		WithArgs(valueUUID).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))
	mock.ExpectQuery(`INSERT INTO "_lookup_values" .* RETURNING`).
		WithArgs(valueUUID, lookupUUID, "open", "Open").
		WillReturnRows(storedRow("open"))

	row, err := svc.Create(context.Background(), db, domain.CreateLookupValue{
		UUID: valueUUID, LookupUUID: lookupUUID, LookupCode: "open", Meaning: "Open",
	})

	require.NoError(t, err)
	assert.Equal(t, "open", row.LookupCode)
	assert.Equal(t, []string{"preCreate", "postCreate"}, rec.stages)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_PrimaryKeyConflictSkipsHooks(t *testing.T) {
	rec := &recorder{}
	db, mock, svc := setup(t, rec)
	defer db.Close()

	mock.ExpectQuery(`SELECT 1 FROM "_lookup_values"`).
		WithArgs(valueUUID).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	_, err := svc.Create(context.Background(), db, domain.CreateLookupValue{
		UUID: valueUUID, LookupUUID: lookupUUID, LookupCode: "open", Meaning: "Open",
	})

	assert.True(t, errors.Is(err, domain.ErrPrimaryKeyConflict))
	assert.Empty(t, rec.stages)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_PreHookErrorStopsWrite(t *testing.T) {
	rec := &recorder{fail: "preCreate"}
	db, mock, svc := setup(t, rec)
	defer db.Close()

	_, err := svc.Create(context.Background(), db, domain.CreateLookupValue{
		LookupUUID: lookupUUID, LookupCode: "open", Meaning: "Open",
	})

	assert.True(t, errors.Is(err, errors.BadRequest))
	assert.Equal(t, []string{"preCreate"}, rec.stages)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_HookOrderAndLockingRead(t *testing.T) {
	rec := &recorder{}
	db, mock, svc := setup(t, rec)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM "_lookup_values" WHERE "uuid" = \$1 FOR UPDATE`).
		WithArgs(valueUUID).
		WillReturnRows(storedRow("open"))
	mock.ExpectQuery(`UPDATE "_lookup_values" SET "lookup_code" = \$1 WHERE "uuid" = \$2 RETURNING`).
		WithArgs("open2", valueUUID).
		WillReturnRows(storedRow("open2"))

	code := "open2"
	row, changed, err := svc.UpdateChanged(context.Background(), db, repository.PrimaryKey(valueUUID), domain.UpdateLookupValue{LookupCode: &code})

	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "open2", row.LookupCode)
	assert.Equal(t, []string{"preUpdate", "postUpdate"}, rec.stages)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_NoChangesRunsNothing(t *testing.T) {
	rec := &recorder{}
	db, mock, svc := setup(t, rec)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FOR UPDATE`).
		WithArgs(valueUUID).
		WillReturnRows(storedRow("open"))

	code := "open"
	row, changed, err := svc.UpdateChanged(context.Background(), db, repository.PrimaryKey(valueUUID), domain.UpdateLookupValue{LookupCode: &code})

	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, "open", row.LookupCode)
	assert.Empty(t, rec.stages)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_NotFound(t *testing.T) {
	rec := &recorder{}
	db, mock, svc := setup(t, rec)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FOR UPDATE`).
		WithArgs(valueUUID).
		WillReturnError(sql.ErrNoRows)

	code := "open2"
	_, err := svc.Update(context.Background(), db, repository.PrimaryKey(valueUUID), domain.UpdateLookupValue{LookupCode: &code})

	assert.True(t, errors.Is(err, errors.NotFound))
	assert.Empty(t, rec.stages)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_HookOrder(t *testing.T) {
	rec := &recorder{}
	db, mock, svc := setup(t, rec)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FOR UPDATE`).
		WithArgs(valueUUID).
		WillReturnRows(storedRow("open"))
	mock.ExpectExec(`DELETE FROM "_lookup_values" WHERE "uuid" = \$1`).
		WithArgs(valueUUID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := svc.Delete(context.Background(), db, repository.PrimaryKey(valueUUID))

	require.NoError(t, err)
	assert.Equal(t, []string{"preDelete", "postDelete"}, rec.stages)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_PostHookErrorIsReturned(t *testing.T) {
	rec := &recorder{fail: "postDelete"}
	db, mock, svc := setup(t, rec)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FOR UPDATE`).
		WithArgs(valueUUID).
		WillReturnRows(storedRow("open"))
	mock.ExpectExec(`DELETE FROM "_lookup_values"`).
		WithArgs(valueUUID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := svc.Delete(context.Background(), db, repository.PrimaryKey(valueUUID))

	assert.True(t, errors.Is(err, errors.BadRequest))
	assert.Equal(t, []string{"preDelete", "postDelete"}, rec.stages)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFind(t *testing.T) {
	rec := &recorder{}
	db, mock, svc := setup(t, rec)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM "_lookup_values" ORDER BY "uuid"`).
		WillReturnRows(storedRow("open"))

	rows, err := svc.Find(context.Background(), db)

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, valueUUID, rows[0].UUID)
	require.NoError(t, mock.ExpectationsWereMet())
}
