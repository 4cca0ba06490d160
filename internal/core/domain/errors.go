package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by a service wraps exactly one of these so
// the transport layer can map it to a status code and a stable kind string.
var (
	ErrValidation         = errors.New("validation error")
	ErrStateConflict      = errors.New("not found or not in the expected state")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrForbidden          = errors.New("access forbidden")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrDependency         = errors.New("dependency failure")
)

var (
	ErrDuplicateRequest = fmt.Errorf("%w: a matching borrow request is already open", ErrValidation)
	ErrInvalidToken     = fmt.Errorf("%w: verification link is invalid or has expired", ErrValidation)
	ErrAccountExists    = fmt.Errorf("%w: an account with this email already exists", ErrConflict)
	ErrSignupPending    = fmt.Errorf("%w: a verification email was already sent to this address", ErrConflict)
	ErrAlreadyVerified  = fmt.Errorf("%w: this email is already verified", ErrConflict)
	ErrAccountNotFound  = fmt.Errorf("%w: account not found", ErrNotFound)
)

// Validationf builds a validation error carrying a human readable detail.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Kind returns the stable machine-readable name for err.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrStateConflict):
		return "state_conflict"
	case errors.Is(err, ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrDependency):
		return "dependency_failure"
	default:
		return "internal"
	}
}
