// Package crud is the generic base service: it owns the primary-table row
// operations of an entity and runs entity hooks around them.
//
// Each operation is a fixed pipeline of stages:
//
//	create: check supplied key -> PreCreate -> insert row  -> PostCreate
//	update: lock row -> merge/no-op check -> PreUpdate -> update row -> PostUpdate
//	delete: lock row -> PreDelete -> delete row -> PostDelete
//
// Hooks receive a *Call that lives for one invocation only, so anything a
// pre hook resolves for its post hook travels in Call.State.
package crud

import (
	"context"

	"lookup-values/internal/repository"

	"go.uber.org/zap"
)

// Entity adapts a row type R, its create input C and its update input U.
type Entity[R, C, U any] interface {
	Table() repository.Table[R]
	// SuppliedKey returns the caller supplied primary key, if any.
	SuppliedKey(data C) (repository.Values, bool)
	// CreateValues returns the columns to insert, primary key included.
	CreateValues(data C) repository.Values
	// Merge applies data over row.
	Merge(row R, data U) R
	// DataEqual compares the data columns of two rows.
	DataEqual(a, b R) bool
	// UpdateValues returns the columns data sets.
	UpdateValues(data U) repository.Values
}

// Call is the explicit per-invocation context handed to every hook.
type Call[R, C, U, S any] struct {
	Query      repository.Querier
	Key        repository.Values
	CreateData C
	UpdateData U
	Row        R // stored row, loaded with a lock (update, delete)
	Result     R // row returned by the primary write (create, update)
	State      S
}

// Hook is one stage contributed by the entity.
type Hook[R, C, U, S any] func(ctx context.Context, call *Call[R, C, U, S]) error

// Hooks is the capability set of an entity. Nil hooks are skipped.
type Hooks[R, C, U, S any] struct {
	PreCreate  Hook[R, C, U, S]
	PostCreate Hook[R, C, U, S]
	PreUpdate  Hook[R, C, U, S]
	PostUpdate Hook[R, C, U, S]
	PreDelete  Hook[R, C, U, S]
	PostDelete Hook[R, C, U, S]
}

// Service runs the pipelines for one entity.
type Service[R, C, U, S any] struct {
	dialect repository.Dialect
	entity  Entity[R, C, U]
	table   repository.Table[R]
	hooks   Hooks[R, C, U, S]
	logger  *zap.Logger
}

// New creates the base service for entity.
func New[R, C, U, S any](d repository.Dialect, entity Entity[R, C, U], hooks Hooks[R, C, U, S], logger *zap.Logger) *Service[R, C, U, S] {
	table := entity.Table()
	return &Service[R, C, U, S]{
		dialect: d,
		entity:  entity,
		table:   table,
		hooks:   hooks,
		logger:  logger.With(zap.String("instance", table.Instance)),
	}
}

func (s *Service[R, C, U, S]) run(ctx context.Context, op, stage string, hook Hook[R, C, U, S], call *Call[R, C, U, S]) error {
	if hook == nil {
		return nil
	}
	s.logger.Debug("hook", zap.String("op", op), zap.String("stage", stage))
	return hook(ctx, call)
}

// Create inserts a row built from data.
func (s *Service[R, C, U, S]) Create(ctx context.Context, q repository.Querier, data C) (R, error) {
	var zero R
	call := &Call[R, C, U, S]{Query: q, CreateData: data}
	s.logger.Debug("create: entry")

	if key, ok := s.entity.SuppliedKey(data); ok {
		call.Key = key
		s.logger.Debug("create: checking primary key", zap.Stringer("key", key))
		if err := repository.CheckPrimaryKey(ctx, q, s.dialect, s.table, key); err != nil {
			return zero, err
		}
	}
	if err := s.run(ctx, "create", "preCreate", s.hooks.PreCreate, call); err != nil {
		return zero, err
	}

	s.logger.Debug("create: creating row")
	created, err := repository.CreateRow(ctx, q, s.dialect, s.table, s.entity.CreateValues(data))
	if err != nil {
		return zero, err
	}
	call.Result = created

	if err := s.run(ctx, "create", "postCreate", s.hooks.PostCreate, call); err != nil {
		return zero, err
	}
	s.logger.Debug("create: exit")
	return call.Result, nil
}

// Find returns every row ordered by primary key.
func (s *Service[R, C, U, S]) Find(ctx context.Context, q repository.Querier) ([]R, error) {
	s.logger.Debug("find: entry")
	return repository.FindRows(ctx, q, s.dialect, s.table)
}

// FindOne loads the row at key without locking it.
func (s *Service[R, C, U, S]) FindOne(ctx context.Context, q repository.Querier, key repository.Values) (R, error) {
	s.logger.Debug("findOne: entry", zap.Stringer("key", key))
	return repository.FindByPrimaryKey(ctx, q, s.dialect, s.table, key, false)
}

// Update merges data over the locked row at key. When no data column
// changes, the stored row is returned and no hook or write runs.
func (s *Service[R, C, U, S]) Update(ctx context.Context, q repository.Querier, key repository.Values, data U) (R, error) {
	row, _, err := s.UpdateChanged(ctx, q, key, data)
	return row, err
}

// UpdateChanged is Update that also reports whether the row was written.
// The flag comes from the locked row, so it matches what was persisted.
func (s *Service[R, C, U, S]) UpdateChanged(ctx context.Context, q repository.Querier, key repository.Values, data U) (R, bool, error) {
	var zero R
	s.logger.Debug("update: entry", zap.Stringer("key", key))

	row, err := repository.FindByPrimaryKey(ctx, q, s.dialect, s.table, key, true)
	if err != nil {
		return zero, false, err
	}
	if s.entity.DataEqual(s.entity.Merge(row, data), row) {
		s.logger.Debug("update: no changes", zap.Stringer("key", key))
		return row, false, nil
	}

	call := &Call[R, C, U, S]{Query: q, Key: key, UpdateData: data, Row: row}
	if err := s.run(ctx, "update", "preUpdate", s.hooks.PreUpdate, call); err != nil {
		return zero, false, err
	}

	s.logger.Debug("update: updating row")
	updated, err := repository.UpdateRow(ctx, q, s.dialect, s.table, key, s.entity.UpdateValues(data))
	if err != nil {
		return zero, false, err
	}
	call.Result = updated

	if err := s.run(ctx, "update", "postUpdate", s.hooks.PostUpdate, call); err != nil {
		return zero, false, err
	}
	s.logger.Debug("update: exit")
	return call.Result, true, nil
}

// Delete removes the locked row at key.
func (s *Service[R, C, U, S]) Delete(ctx context.Context, q repository.Querier, key repository.Values) error {
	s.logger.Debug("delete: entry", zap.Stringer("key", key))

	row, err := repository.FindByPrimaryKey(ctx, q, s.dialect, s.table, key, true)
	if err != nil {
		return err
	}

	call := &Call[R, C, U, S]{Query: q, Key: key, Row: row}
	if err := s.run(ctx, "delete", "preDelete", s.hooks.PreDelete, call); err != nil {
		return err
	}

	s.logger.Debug("delete: deleting row")
	if err := repository.DeleteRow(ctx, q, s.dialect, s.table, key); err != nil {
		return err
	}

	if err := s.run(ctx, "delete", "postDelete", s.hooks.PostDelete, call); err != nil {
		return err
	}
	s.logger.Debug("delete: exit")
	return nil
}
