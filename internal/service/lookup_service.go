package service

import (
	"context"
	"strings"

	"lookup-values/internal/domain"
	"lookup-values/internal/repository"

	"github.com/google/uuid"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// LookupService manages lookups stored in the local _lookups table.
type LookupService struct {
	repo   repository.LookupsRepository
	logger *zap.Logger
}

// NewLookupService creates the service.
func NewLookupService(repo repository.LookupsRepository, logger *zap.Logger) *LookupService {
	return &LookupService{repo: repo, logger: logger}
}

var _ LookupFinder = (*LookupService)(nil)

// FindOne returns the lookup with id, NotFound when absent.
func (s *LookupService) FindOne(ctx context.Context, q repository.Querier, id string) (*domain.Lookup, error) {
	id, err := canonicalID(id)
	if err != nil {
		return nil, err
	}
	return s.repo.GetLookup(ctx, q, id)
}

// Find returns all lookups.
func (s *LookupService) Find(ctx context.Context, q repository.Querier) ([]*domain.Lookup, error) {
	return s.repo.ListLookups(ctx, q)
}

// Create inserts a lookup and provisions the mirror table for its type.
func (s *LookupService) Create(ctx context.Context, q repository.Querier, data domain.CreateLookup) (*domain.Lookup, error) {
	lookupType := strings.TrimSpace(data.LookupType)
	if _, err := repository.MirrorTableName(lookupType); err != nil {
		return nil, err
	}
	if strings.TrimSpace(data.Meaning) == "" {
		return nil, errors.BadRequestf("meaning is required")
	}
	id := data.UUID
	if id == "" {
		id = uuid.NewString()
	} else {
		var err error
		if id, err = canonicalID(id); err != nil {
			return nil, err
		}
	}
	enabled := true
	if data.IsEnabled != nil {
		enabled = *data.IsEnabled
	}

	lookup, err := s.repo.CreateLookup(ctx, q, &domain.Lookup{
		UUID:        id,
		LookupType:  lookupType,
		Meaning:     data.Meaning,
		Description: data.Description,
		IsEnabled:   enabled,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("lookup created", zap.String("uuid", lookup.UUID), zap.String("lookup_type", lookup.LookupType))
	return lookup, nil
}

// Delete removes a lookup that no lookup value references any more.
func (s *LookupService) Delete(ctx context.Context, q repository.Querier, id string) error {
	id, err := canonicalID(id)
	if err != nil {
		return err
	}
	n, err := s.repo.CountLookupValues(ctx, q, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return errors.BadRequestf("lookup %s still has %d lookup values", id, n)
	}
	return s.repo.DeleteLookup(ctx, q, id)
}
