// Package errors defines the storefront error taxonomy shared by the
// store, the payment gateway client, the services and the HTTP layer.
package errors

import (
	stderrors "errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an order, transaction or product does not exist.
	ErrNotFound = stderrors.New("not found")
	// ErrConflict is returned when a unique key (idempotency key) is already taken.
	ErrConflict = stderrors.New("conflict")
	// ErrGatewayNotConfigured signals that no payment gateway client is available.
	ErrGatewayNotConfigured = stderrors.New("payment gateway not configured")
)

// ValidationError describes a rejected checkout or request field.
type ValidationError struct {
	Field   string            `json:"field"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// NewValidationError creates a validation error for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Details: map[string]string{field: message},
	}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// GatewayError wraps a failure talking to the payment gateway.
type GatewayError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *GatewayError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("payment gateway %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("payment gateway %s: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the call may succeed if attempted again.
func (e *GatewayError) Retryable() bool {
	return e.StatusCode == 0 || e.StatusCode >= 500 || e.StatusCode == 429
}

// StoreError wraps a persistence failure.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError wraps err unless it already carries a taxonomy meaning.
func NewStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	if stderrors.Is(err, ErrNotFound) || stderrors.Is(err, ErrConflict) {
		return err
	}
	var se *StoreError
	if stderrors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

// InternalError is an unexpected failure surfaced as a server error.
type InternalError struct {
	Message string
	Err     error
}

func NewInternalError(message string, err error) *InternalError {
	return &InternalError{Message: message, Err: err}
}

func (e *InternalError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is, or wraps, ErrNotFound.
func IsNotFound(err error) bool {
	return stderrors.Is(err, ErrNotFound)
}

// IsValidation reports whether err is, or wraps, a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return stderrors.As(err, &ve)
}

// AsValidation extracts the *ValidationError from err, if any.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	ok := stderrors.As(err, &ve)
	return ve, ok
}
