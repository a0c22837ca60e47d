package utils

import (
	"fmt"
	"net/http"
)

// Error codes with HTTP status mapping
const (
	// General errors
	ErrCodeInvalidRequest   = "INVALID_REQUEST"
	ErrCodeValidationFailed = "VALIDATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeInternalError    = "INTERNAL_ERROR"

	// Database errors
	ErrCodeConnectionFailed  = "CONNECTION_FAILED"
	ErrCodeQueryFailed       = "QUERY_FAILED"
	ErrCodeQueryTimeout      = "QUERY_TIMEOUT"
	ErrCodeQueryCancelled    = "QUERY_CANCELLED"
	ErrCodeTransactionFailed = "TRANSACTION_FAILED"
	ErrCodeTunnelFailed      = "TUNNEL_FAILED"

	// Dialect errors
	ErrCodeUnsupportedDialect = "UNSUPPORTED_DIALECT"
)

// HTTPStatus maps error codes to HTTP status codes
var HTTPStatus = map[string]int{
	ErrCodeInvalidRequest:   http.StatusBadRequest,
	ErrCodeValidationFailed: http.StatusUnprocessableEntity,
	ErrCodeNotFound:         http.StatusNotFound,
	ErrCodeInternalError:    http.StatusInternalServerError,

	ErrCodeConnectionFailed:  http.StatusServiceUnavailable,
	ErrCodeQueryFailed:       http.StatusInternalServerError,
	ErrCodeQueryTimeout:      http.StatusRequestTimeout,
	ErrCodeQueryCancelled:    http.StatusConflict,
	ErrCodeTransactionFailed: http.StatusInternalServerError,
	ErrCodeTunnelFailed:      http.StatusServiceUnavailable,

	ErrCodeUnsupportedDialect: http.StatusBadRequest,
}

// AppError represents an application error with additional context
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s - %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Status returns the HTTP status for the error's code
func (e *AppError) Status() int {
	if status, ok := HTTPStatus[e.Code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// NewAppError creates an error with the default message for its code
func NewAppError(code string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: defaultMessage(code),
		Cause:   cause,
	}
}

// NewAppErrorWithDetails creates an error with extra human context
func NewAppErrorWithDetails(code, details string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: defaultMessage(code),
		Details: details,
		Cause:   cause,
	}
}

func defaultMessage(code string) string {
	messages := map[string]string{
		ErrCodeInvalidRequest:   "The request is invalid",
		ErrCodeValidationFailed: "Validation failed",
		ErrCodeNotFound:         "Resource not found",
		ErrCodeInternalError:    "Internal server error",

		ErrCodeConnectionFailed:  "Database connection failed",
		ErrCodeQueryFailed:       "Query execution failed",
		ErrCodeQueryTimeout:      "Query timeout",
		ErrCodeQueryCancelled:    "Query was cancelled",
		ErrCodeTransactionFailed: "Transaction failed",
		ErrCodeTunnelFailed:      "SSH tunnel failed",

		ErrCodeUnsupportedDialect: "Unsupported database dialect",
	}
	if msg, exists := messages[code]; exists {
		return msg
	}
	return "Unknown error"
}
