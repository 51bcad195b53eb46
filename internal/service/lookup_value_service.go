package service

import (
	"context"

	"lookup-values/internal/crud"
	"lookup-values/internal/domain"
	"lookup-values/internal/repository"

	"github.com/google/uuid"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// LookupFinder resolves a lookup by uuid on the caller's query handle.
type LookupFinder interface {
	FindOne(ctx context.Context, q repository.Querier, uuid string) (*domain.Lookup, error)
}

// lookupValueState is resolved by the pre hooks and read by the post hooks
// of the same call.
type lookupValueState struct {
	lookup      *domain.Lookup
	mirrorTable string
}

type (
	lookupValueCall  = crud.Call[domain.LookupValue, domain.CreateLookupValue, domain.UpdateLookupValue, lookupValueState]
	lookupValueHooks = crud.Hooks[domain.LookupValue, domain.CreateLookupValue, domain.UpdateLookupValue, lookupValueState]
	lookupValueBase  = crud.Service[domain.LookupValue, domain.CreateLookupValue, domain.UpdateLookupValue, lookupValueState]
)

// LookupValueService keeps _lookup_values and the per-type mirror tables in
// step. Every method runs on the query handle it is given; the caller owns
// the transaction and rolls it back on error.
type LookupValueService struct {
	base    *lookupValueBase
	lookups LookupFinder
	dialect repository.Dialect
	logger  *zap.Logger
}

// NewLookupValueService creates the service.
func NewLookupValueService(d repository.Dialect, lookups LookupFinder, logger *zap.Logger) *LookupValueService {
	s := &LookupValueService{
		lookups: lookups,
		dialect: d,
		logger:  logger,
	}
	s.base = crud.New[domain.LookupValue, domain.CreateLookupValue, domain.UpdateLookupValue, lookupValueState](d, lookupValueEntity{}, lookupValueHooks{
		PreCreate:  s.preCreate,
		PostCreate: s.postCreate,
		PreUpdate:  s.preUpdate,
		PostUpdate: s.postUpdate,
		PreDelete:  s.preDelete,
		PostDelete: s.postDelete,
	}, logger)
	return s
}

// Create inserts a lookup value and its mirror row.
func (s *LookupValueService) Create(ctx context.Context, q repository.Querier, data domain.CreateLookupValue) (*domain.LookupValue, error) {
	data, err := data.Normalize()
	if err != nil {
		return nil, err
	}
	if data.UUID == "" {
		data.UUID = uuid.NewString()
	}
	row, err := s.base.Create(ctx, q, data)
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Find returns all lookup values ordered by uuid.
func (s *LookupValueService) Find(ctx context.Context, q repository.Querier) ([]domain.LookupValue, error) {
	return s.base.Find(ctx, q)
}

// FindOne returns the lookup value with id.
func (s *LookupValueService) FindOne(ctx context.Context, q repository.Querier, id string) (*domain.LookupValue, error) {
	id, err := canonicalID(id)
	if err != nil {
		return nil, err
	}
	row, err := s.base.FindOne(ctx, q, repository.PrimaryKey(id))
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Update applies data to the lookup value with id and to its mirror row.
// An update that changes nothing returns the stored row untouched.
func (s *LookupValueService) Update(ctx context.Context, q repository.Querier, id string, data domain.UpdateLookupValue) (*domain.LookupValue, error) {
	row, _, err := s.UpdateChanged(ctx, q, id, data)
	return row, err
}

// UpdateChanged is Update that also reports whether any column was written.
func (s *LookupValueService) UpdateChanged(ctx context.Context, q repository.Querier, id string, data domain.UpdateLookupValue) (*domain.LookupValue, bool, error) {
	id, err := canonicalID(id)
	if err != nil {
		return nil, false, err
	}
	if data, err = data.Normalize(); err != nil {
		return nil, false, err
	}
	row, changed, err := s.base.UpdateChanged(ctx, q, repository.PrimaryKey(id), data)
	if err != nil {
		return nil, false, err
	}
	return &row, changed, nil
}

// Delete removes the lookup value with id and its mirror row.
func (s *LookupValueService) Delete(ctx context.Context, q repository.Querier, id string) error {
	id, err := canonicalID(id)
	if err != nil {
		return err
	}
	return s.base.Delete(ctx, q, repository.PrimaryKey(id))
}

func canonicalID(id string) (string, error) {
	return domain.CanonicalUUID("uuid", id)
}

// resolveLookup loads the parent lookup and its mirror table into call.State.
func (s *LookupValueService) resolveLookup(ctx context.Context, call *lookupValueCall, lookupUUID string) error {
	lookup, err := s.lookups.FindOne(ctx, call.Query, lookupUUID)
	if err != nil {
		return err
	}
	table, err := repository.ResolveMirrorTable(ctx, call.Query, s.dialect, lookup.LookupType)
	if err != nil {
		return err
	}
	s.logger.Debug("resolved lookup",
		zap.String("lookup_uuid", lookup.UUID),
		zap.String("lookup_type", lookup.LookupType),
		zap.String("table", table),
	)
	call.State = lookupValueState{lookup: lookup, mirrorTable: table}
	return nil
}

func uniqueCodeKey(lookupUUID, code string) repository.Values {
	return repository.Values{{Name: "lookup_uuid", Value: lookupUUID}, {Name: "lookup_code", Value: code}}
}

func uniqueMeaningKey(lookupUUID, meaning string) repository.Values {
	return repository.Values{{Name: "lookup_uuid", Value: lookupUUID}, {Name: "meaning", Value: meaning}}
}

func (s *LookupValueService) preCreate(ctx context.Context, call *lookupValueCall) error {
	data := call.CreateData
	if err := s.resolveLookup(ctx, call, data.LookupUUID); err != nil {
		return err
	}
	if err := repository.CheckUniqueKey(ctx, call.Query, s.dialect, repository.LookupValues, uniqueCodeKey(data.LookupUUID, data.LookupCode)); err != nil {
		return err
	}
	return repository.CheckUniqueKey(ctx, call.Query, s.dialect, repository.LookupValues, uniqueMeaningKey(data.LookupUUID, data.Meaning))
}

func (s *LookupValueService) postCreate(ctx context.Context, call *lookupValueCall) error {
	s.logger.Debug("creating mirror value",
		zap.String("table", call.State.mirrorTable),
		zap.String("lookup_code", call.Result.LookupCode),
	)
	return repository.CreateMirrorValue(ctx, call.Query, s.dialect, call.State.mirrorTable, call.Result.Mirror())
}

func (s *LookupValueService) preUpdate(ctx context.Context, call *lookupValueCall) error {
	data, row := call.UpdateData, call.Row
	if data.LookupUUID != nil && *data.LookupUUID != row.LookupUUID {
		return errors.BadRequestf("lookup_uuid is not updateable")
	}
	if data.LookupCode != nil && *data.LookupCode != row.LookupCode {
		if err := repository.CheckUniqueKey(ctx, call.Query, s.dialect, repository.LookupValues, uniqueCodeKey(row.LookupUUID, *data.LookupCode)); err != nil {
			return err
		}
	}
	if data.Meaning != nil && *data.Meaning != row.Meaning {
		if err := repository.CheckUniqueKey(ctx, call.Query, s.dialect, repository.LookupValues, uniqueMeaningKey(row.LookupUUID, *data.Meaning)); err != nil {
			return err
		}
	}
	return s.resolveLookup(ctx, call, row.LookupUUID)
}

func (s *LookupValueService) postUpdate(ctx context.Context, call *lookupValueCall) error {
	s.logger.Debug("updating mirror value",
		zap.String("table", call.State.mirrorTable),
		zap.String("lookup_code", call.Row.LookupCode),
		zap.String("new_lookup_code", call.Result.LookupCode),
	)
	// the mirror row is keyed by the code as it was before this update
	return repository.UpdateMirrorValue(ctx, call.Query, s.dialect, call.State.mirrorTable, call.Row.LookupCode, call.Result.Mirror())
}

func (s *LookupValueService) preDelete(ctx context.Context, call *lookupValueCall) error {
	return s.resolveLookup(ctx, call, call.Row.LookupUUID)
}

func (s *LookupValueService) postDelete(ctx context.Context, call *lookupValueCall) error {
	s.logger.Debug("deleting mirror value",
		zap.String("table", call.State.mirrorTable),
		zap.String("lookup_code", call.Row.LookupCode),
	)
	return repository.DeleteMirrorValue(ctx, call.Query, s.dialect, call.State.mirrorTable, call.Row.LookupCode)
}

// lookupValueEntity maps lookup values onto the base service.
type lookupValueEntity struct{}

func (lookupValueEntity) Table() repository.Table[domain.LookupValue] {
	return repository.LookupValues
}

func (lookupValueEntity) SuppliedKey(data domain.CreateLookupValue) (repository.Values, bool) {
	if data.UUID == "" {
		return nil, false
	}
	return repository.PrimaryKey(data.UUID), true
}

func (lookupValueEntity) CreateValues(data domain.CreateLookupValue) repository.Values {
	row := data.Row(data.UUID)
	return repository.Values{
		{Name: "uuid", Value: row.UUID},
		{Name: "lookup_uuid", Value: row.LookupUUID},
		{Name: "lookup_code", Value: row.LookupCode},
		{Name: "meaning", Value: row.Meaning},
		{Name: "description", Value: row.Description},
		{Name: "is_enabled", Value: row.IsEnabled},
	}
}

func (lookupValueEntity) Merge(row domain.LookupValue, data domain.UpdateLookupValue) domain.LookupValue {
	return data.Merge(row)
}

func (lookupValueEntity) DataEqual(a, b domain.LookupValue) bool {
	return a.DataEqual(b)
}

// UpdateValues never includes lookup_uuid: a differing value is rejected by
// preUpdate and an equal one changes nothing.
func (lookupValueEntity) UpdateValues(data domain.UpdateLookupValue) repository.Values {
	var values repository.Values
	if data.LookupCode != nil {
		values = append(values, repository.Column{Name: "lookup_code", Value: *data.LookupCode})
	}
	if data.Meaning != nil {
		values = append(values, repository.Column{Name: "meaning", Value: *data.Meaning})
	}
	if data.Description.Set {
		values = append(values, repository.Column{Name: "description", Value: data.Description.Value})
	}
	if data.IsEnabled != nil {
		values = append(values, repository.Column{Name: "is_enabled", Value: *data.IsEnabled})
	}
	return values
}
