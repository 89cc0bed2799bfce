package shared

import (
	"fmt"
	"strings"
)

// Error codes used across the deal engine. The HTTP layer maps each one to a status.
const (
	CodeValidation           = "VALIDATION_ERROR"
	CodeInvalidState         = "INVALID_STATE"
	CodeConfirmationRequired = "CONFIRMATION_REQUIRED"
	CodeNotFound             = "NOT_FOUND"
	CodeConflict             = "CONFLICT"
	CodeConcurrentUpdate     = "CONCURRENT_MODIFICATION"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is matches any DomainError carrying the same code, so callers can write
// errors.Is(err, shared.ErrNotFound) against wrapped or freshly built errors.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithDetail returns a copy of the error with an extra detail entry
func (e *DomainError) WithDetail(key string, value any) *DomainError {
	details := make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &DomainError{Code: e.Code, Message: e.Message, Details: details}
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewValidationError reports missing or malformed input
func NewValidationError(format string, args ...any) *DomainError {
	return NewDomainError(CodeValidation, fmt.Sprintf(format, args...))
}

// NewInvalidStateError reports an operation the current status does not permit
func NewInvalidStateError(format string, args ...any) *DomainError {
	return NewDomainError(CodeInvalidState, fmt.Sprintf(format, args...))
}

// NewNotFoundError reports an id that does not resolve within the tenant
func NewNotFoundError(resource string, id fmt.Stringer) *DomainError {
	return NewDomainError(CodeNotFound, fmt.Sprintf("%s %s not found", resource, id)).
		WithDetail("resource", resource)
}

// NewConflictError reports a uniqueness clash
func NewConflictError(format string, args ...any) *DomainError {
	return NewDomainError(CodeConflict, fmt.Sprintf(format, args...))
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrConflict            = NewDomainError(CodeConflict, "Resource already exists")
	ErrInvalidInput        = NewDomainError(CodeValidation, "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError(CodeConcurrentUpdate, "Resource was modified by another process")
	ErrInvalidState        = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
)

// ConfirmationRequiredError is not a failure: the caller may retry the same
// action with explicit confirmation. VRMs lists the part-exchanges that
// triggered it.
type ConfirmationRequiredError struct {
	Reason string
	VRMs   []string
}

func (e *ConfirmationRequiredError) Error() string {
	return fmt.Sprintf("%s: %s", e.Reason, strings.Join(e.VRMs, ", "))
}

// Code returns the error code used by the HTTP layer
func (e *ConfirmationRequiredError) Code() string {
	return CodeConfirmationRequired
}
