// Package apperror defines the error kinds the policy layer reports.
//
// The service layer never returns HTTP status codes — it returns one of the
// sentinel kinds below wrapped in an AppError, and the handler layer maps
// kinds to statuses. Callers (and tests) match on the kind with errors.Is,
// never on message text.
package apperror

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized: the operation needs an identity and none was
	// presented (or the caller's role fails an up-front role gate).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrAccessDenied: an identity was presented but its role, or the
	// target record's role, does not permit the operation.
	ErrAccessDenied = errors.New("access denied")

	// ErrValidation: a malformed or missing input field.
	ErrValidation = errors.New("validation failed")

	// ErrUniqueness: an email or address collision at signup or update.
	ErrUniqueness = errors.New("uniqueness violation")

	// ErrNotFound: the target id does not resolve to a record.
	ErrNotFound = errors.New("not found")

	// ErrInvalidCredentials: login mismatch. Deliberately the same kind
	// and message whether the email is unknown or the password is wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidTarget: the operation was applied to a record of the
	// wrong role, e.g. a marks update aimed at a teacher.
	ErrInvalidTarget = errors.New("invalid target")
)

// AppError carries a sentinel kind plus the human-readable message shown to
// the caller. Field is set for validation errors so clients know which input
// was bad.
type AppError struct {
	Err     error  // sentinel kind, matched with errors.Is
	Message string // human-readable error message
	Field   string // optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

func AccessDenied(message string) *AppError {
	return &AppError{
		Err:     ErrAccessDenied,
		Message: message,
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Uniqueness reports a collision on one of the unique fields.
func Uniqueness(field string) *AppError {
	return &AppError{
		Err:     ErrUniqueness,
		Message: fmt.Sprintf("%s must be unique", field),
		Field:   field,
	}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

// InvalidCredentials returns the undifferentiated login failure. The message
// never says whether the email or the password was wrong — that asymmetry
// would let callers enumerate accounts.
func InvalidCredentials() *AppError {
	return &AppError{
		Err:     ErrInvalidCredentials,
		Message: "invalid credentials",
	}
}

func InvalidTarget(message string) *AppError {
	return &AppError{
		Err:     ErrInvalidTarget,
		Message: message,
	}
}
