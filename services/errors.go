package services

import (
	"errors"
	"fmt"

	"referral-tracking-api/repository"
)

// ValidationError reports a missing or invalid input field.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NotFoundError reports that a referral, user, review or evaluation does not exist.
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string { return e.Entity + " not found" }

// AuthorizationError reports that the requester may not act on the resource.
type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string { return e.Message }

// ConflictError reports a duplicate key or a concurrent modification.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// PersistenceError wraps an unexpected storage failure.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *PersistenceError) Unwrap() error { return e.Err }

func invalid(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// storeErr converts a repository error into one of the service error kinds.
// Errors that already carry a kind pass through untouched.
func storeErr(op, entity string, err error) error {
	if err == nil {
		return nil
	}
	if isKind(err) {
		return err
	}
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return &NotFoundError{Entity: entity}
	case errors.Is(err, repository.ErrStaleRevision):
		return &ConflictError{Message: "referral was modified by another request, please retry"}
	case errors.Is(err, repository.ErrDuplicate):
		return &ConflictError{Message: entity + " already exists"}
	}
	return &PersistenceError{Op: op, Err: err}
}

func isKind(err error) bool {
	var (
		ve *ValidationError
		ne *NotFoundError
		ae *AuthorizationError
		ce *ConflictError
		pe *PersistenceError
	)
	return errors.As(err, &ve) || errors.As(err, &ne) || errors.As(err, &ae) ||
		errors.As(err, &ce) || errors.As(err, &pe)
}
