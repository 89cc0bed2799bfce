package dto

import (
	"net/http"

	"github.com/dealer/backend/internal/domain/shared"
)

// Error codes returned in ErrorInfo.Code.
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	ErrCodeInternal        = "ERR_INTERNAL"
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
	ErrCodeRateLimited     = "ERR_RATE_LIMITED"
)

// Input error codes
const (
	ErrCodeValidation  = "ERR_VALIDATION"
	ErrCodeBadRequest  = "ERR_BAD_REQUEST"
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
)

// Access error codes
const (
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
)

// Resource error codes
const (
	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeConflict            = "ERR_CONFLICT"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
)

// Deal lifecycle error codes
const (
	// ErrCodeInvalidState is an operation the deal's current status forbids
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodeConfirmationRequired asks the caller to repeat the request with
	// explicit confirmation; it is not a failure
	ErrCodeConfirmationRequired = "ERR_CONFIRMATION_REQUIRED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:        http.StatusInternalServerError,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeRateLimited:     http.StatusTooManyRequests,

	ErrCodeValidation:  http.StatusBadRequest,
	ErrCodeBadRequest:  http.StatusBadRequest,
	ErrCodeInvalidJSON: http.StatusBadRequest,

	ErrCodeUnauthorized: http.StatusUnauthorized,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	ErrCodeInvalidState:         http.StatusUnprocessableEntity,
	ErrCodeConfirmationRequired: http.StatusPreconditionRequired,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes are 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// domainErrorCodes maps shared.DomainError codes onto API codes
var domainErrorCodes = map[string]string{
	shared.CodeValidation:           ErrCodeValidation,
	shared.CodeInvalidState:         ErrCodeInvalidState,
	shared.CodeConfirmationRequired: ErrCodeConfirmationRequired,
	shared.CodeNotFound:             ErrCodeNotFound,
	shared.CodeConflict:             ErrCodeConflict,
	shared.CodeConcurrentUpdate:     ErrCodeConcurrencyConflict,
}

// NormalizeErrorCode converts a domain error code to its API form.
// Codes already in API form, and unknown codes, are returned unchanged.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := domainErrorCodes[code]; ok {
		return apiCode
	}
	return code
}
