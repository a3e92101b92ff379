package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation indicates bad caller input.
	ErrValidation = errors.New("validation failed")
	// ErrUnauthenticated indicates that no bearer token was supplied.
	ErrUnauthenticated = errors.New("authentication token not supplied")
	// ErrInvalidToken indicates a token that fails verification or has no live session.
	ErrInvalidToken = errors.New("invalid authentication token")
	// ErrNotAuthorized indicates an authenticated caller without a required role.
	ErrNotAuthorized = errors.New("not authorized")
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a uniqueness violation.
	ErrConflict = errors.New("conflict")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrStorage wraps faults raised by a storage backend.
	ErrStorage = errors.New("storage error")
	// ErrConfiguration indicates missing or broken process configuration.
	ErrConfiguration = errors.New("configuration error")
)

// FieldError is a validation failure tied to one input field.
type FieldError struct {
	Field   string
	Message string
}

// NewFieldError builds a FieldError.
func NewFieldError(field, message string) *FieldError {
	return &FieldError{Field: field, Message: message}
}

func (e *FieldError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is match ErrValidation.
func (e *FieldError) Unwrap() error {
	return ErrValidation
}

// NotFoundf returns an ErrNotFound carrying a caller facing message.
func NotFoundf(format string, args ...any) error {
	return &messageError{kind: ErrNotFound, msg: fmt.Sprintf(format, args...)}
}

// Conflictf returns an ErrConflict carrying a caller facing message.
func Conflictf(format string, args ...any) error {
	return &messageError{kind: ErrConflict, msg: fmt.Sprintf(format, args...)}
}

type messageError struct {
	kind error
	msg  string
}

func (e *messageError) Error() string { return e.msg }

func (e *messageError) Unwrap() error { return e.kind }

// Public returns the message that may be shown to callers.
func (e *messageError) Public() string { return e.msg }

// StorageFault wraps err as an ErrStorage for the named operation.
func StorageFault(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}
