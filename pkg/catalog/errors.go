package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation matches every ValidationError via errors.Is
	ErrValidation = errors.New("validation failed")
	// ErrNotFound matches every NotFoundError via errors.Is
	ErrNotFound = errors.New("not found")
)

// Validation reasons shared between packages
const (
	ReasonMissingField       = "missing required field"
	ReasonSlugCollision      = "slug collision"
	ReasonIDCollision        = "id collision"
	ReasonNameCollision      = "name collision"
	ReasonNoDimensionFilters = "at least one dimension filter with values is required"
	ReasonOtherNotInDomain   = "other metric not found in same domain"
	ReasonUnknownOperator    = "unknown operator"
	ReasonUnknownMode        = "unknown derivation mode"
	ReasonInvalidValue       = "invalid value"
)

// ValidationError reports caller input that is malformed or violates a
// registry invariant. Retrying with the same input reproduces it.
type ValidationError struct {
	Reason string
	Field  string
}

// NewValidationError creates a validation error for the given reason
func NewValidationError(reason string) *ValidationError {
	return &ValidationError{Reason: reason}
}

// NewFieldValidationError creates a validation error attached to a field
func NewFieldValidationError(reason, field string) *ValidationError {
	return &ValidationError{Reason: reason, Field: field}
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// Is lets errors.Is(err, ErrValidation) match
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// IsCollision reports whether the error is a uniqueness violation
func (e *ValidationError) IsCollision() bool {
	switch e.Reason {
	case ReasonSlugCollision, ReasonIDCollision, ReasonNameCollision:
		return true
	default:
		return false
	}
}

// NotFoundError reports a referenced entity missing from the snapshot
type NotFoundError struct {
	Entity string
	Key    string
	Reason string
}

// NewNotFoundError creates a not-found error for an entity key
func NewNotFoundError(entity, key string) *NotFoundError {
	return &NotFoundError{Entity: entity, Key: key}
}

func (e *NotFoundError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}

	if e.Key == "" {
		return fmt.Sprintf("%s not found", e.Entity)
	}

	return fmt.Sprintf("%s %q not found", e.Entity, e.Key)
}

// Is lets errors.Is(err, ErrNotFound) match
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
