package access

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by every domain package. Domain errors wrap one of
// these so the transport layer can map them with errors.Is.
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("access denied")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrInconsistent    = errors.New("inconsistent references")
	ErrUpstream        = errors.New("upstream failure")
	ErrInvalid         = errors.New("invalid input")
)

// Upstream marks err as a failure of an external collaborator.
func Upstream(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrUpstream, err)
}

// Invalid builds a validation error for a single field.
func Invalid(field, reason string) error {
	return &FieldError{Field: field, Reason: reason}
}

type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Reason
}

func (e *FieldError) Unwrap() error {
	return ErrInvalid
}
