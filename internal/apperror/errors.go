// Package apperror provides domain-specific error types for the PayFlow
// auth API. These errors carry an HTTP status code and a user-safe message.
// The Echo error handler maps them to the uniform response envelope
// automatically.
//
// NEVER return raw database or infrastructure errors to the client. Always
// wrap them in an apperror type or return a generic internal error.
package apperror

import (
	"fmt"
	"net/http"
)

// Error type classifiers. Machine-readable; stable across releases.
const (
	TypeValidation         = "validation_failed"
	TypeEmailTaken         = "email_taken"
	TypeInvalidCredentials = "invalid_credentials"
	TypeUnauthorized       = "unauthorized"
	TypeBadRequest         = "bad_request"
	TypeNotFound           = "not_found"
	TypeRateLimited        = "rate_limited"
	TypeInternal           = "internal_error"
)

// FieldError is a single field-level validation failure, returned to the
// client in the order the fields were checked.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// AppError is the base error type for all domain errors. It carries an
// HTTP status code, a machine-readable error type, and a human-readable
// message safe to show to the client.
type AppError struct {
	// Code is the HTTP status code (e.g., 400, 401, 500).
	Code int `json:"-"`

	// Type is a machine-readable error classifier (e.g., "email_taken").
	Type string `json:"type"`

	// Message is a human-readable description safe for the client.
	Message string `json:"message"`

	// Fields holds per-field validation detail for validation errors.
	Fields []FieldError `json:"errors,omitempty"`

	// Internal holds the underlying error for logging. Never exposed to
	// clients in production.
	Internal error `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Type, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *AppError) Unwrap() error {
	return e.Internal
}

// Status returns the envelope status string: "fail" for 4xx responses,
// "error" for everything else.
func (e *AppError) Status() string {
	return StatusForCode(e.Code)
}

// StatusForCode maps an HTTP status code to the envelope status string.
func StatusForCode(code int) string {
	if code >= 400 && code < 500 {
		return "fail"
	}
	return "error"
}

// --- Constructors ---

// NewValidation creates a 400 error carrying the ordered field-level detail
// produced by the credential validator.
func NewValidation(fields []FieldError) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Type:    TypeValidation,
		Message: "validation failed",
		Fields:  fields,
	}
}

// NewEmailTaken creates a 400 error for a registration attempt against an
// email that already has an account. The message differs from validation
// failures but the response shape does not.
func NewEmailTaken() *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Type:    TypeEmailTaken,
		Message: "an account with this email already exists",
	}
}

// NewInvalidCredentials creates a 401 error with a deliberately generic
// message. Both unknown-email and wrong-password failures use this exact
// error so responses never reveal whether an email is registered.
func NewInvalidCredentials() *AppError {
	return &AppError{
		Code:    http.StatusUnauthorized,
		Type:    TypeInvalidCredentials,
		Message: "invalid email or password",
	}
}

// NewUnauthorized creates a 401 error for missing/invalid/expired tokens.
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Code:    http.StatusUnauthorized,
		Type:    TypeUnauthorized,
		Message: message,
	}
}

// NewBadRequest creates a 400 Bad Request error (malformed body etc.).
func NewBadRequest(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Type:    TypeBadRequest,
		Message: message,
	}
}

// NewNotFound creates a 404 Not Found error.
func NewNotFound(message string) *AppError {
	return &AppError{
		Code:    http.StatusNotFound,
		Type:    TypeNotFound,
		Message: message,
	}
}

// NewRateLimited creates a 429 Too Many Requests error.
func NewRateLimited() *AppError {
	return &AppError{
		Code:    http.StatusTooManyRequests,
		Type:    TypeRateLimited,
		Message: "too many requests, please try again later",
	}
}

// NewInternal creates a 500 Internal Server Error. The real error is stored
// in Internal for logging but the client only sees a generic message.
func NewInternal(err error) *AppError {
	return &AppError{
		Code:     http.StatusInternalServerError,
		Type:     TypeInternal,
		Message:  "an unexpected error occurred",
		Internal: err,
	}
}

// IsType reports whether err is an *AppError with the given classifier.
func IsType(err error, errType string) bool {
	appErr, ok := err.(*AppError)
	return ok && appErr.Type == errType
}

// SafeMessage returns the client-safe error message from an error. If the
// error is an AppError, returns its Message field (which is safe to expose).
// For any other error type, returns a generic message to prevent leaking
// internal details like table names, query structure, or stack traces.
func SafeMessage(err error) string {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Message
	}
	return "an unexpected error occurred"
}

// SafeCode returns the HTTP status code from an AppError, or 500 for
// any other error type.
func SafeCode(err error) int {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return http.StatusInternalServerError
}
