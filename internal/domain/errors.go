package domain

import (
	"fmt"

	"github.com/juju/errors"
)

// Error kinds beyond the generic juju ones. NotFound and BadRequest use
// errors.NotFound and errors.BadRequest directly; both conflict kinds below
// also satisfy errors.Is(err, errors.AlreadyExists).
const (
	ErrPrimaryKeyConflict = errors.ConstError("primary key conflict")
	ErrUniqueConstraint   = errors.ConstError("unique constraint violation")
)

// PrimaryKeyConflict reports that a caller supplied primary key is in use.
func PrimaryKeyConflict(instance string, key any) error {
	return fmt.Errorf("%w: %w", ErrPrimaryKeyConflict, errors.AlreadyExistsf("%s with %v", instance, key))
}

// UniqueConstraintViolation reports that a row already holds the unique key.
func UniqueConstraintViolation(instance string, key any) error {
	return fmt.Errorf("%w: %w", ErrUniqueConstraint, errors.AlreadyExistsf("%s with %v", instance, key))
}

// Kind names the taxonomy member of err, for metrics and logs.
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, errors.NotFound):
		return "not_found"
	case errors.Is(err, ErrPrimaryKeyConflict), errors.Is(err, ErrUniqueConstraint), errors.Is(err, errors.AlreadyExists):
		return "conflict"
	case errors.Is(err, errors.BadRequest), errors.Is(err, errors.NotValid):
		return "bad_request"
	default:
		return "error"
	}
}
