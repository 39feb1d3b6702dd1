package types

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unified error code across boardroom.
type ErrorCode string

// Turn error codes. The split between CONFIGURATION and PROVIDER is
// deliberate: operators must be able to tell "misconfigured" apart from
// "backend degraded".
const (
	ErrNotFound           ErrorCode = "NOT_FOUND"
	ErrPreconditionFailed ErrorCode = "PRECONDITION_FAILED"
	ErrInvalidRequest     ErrorCode = "INVALID_REQUEST"
	ErrConfiguration      ErrorCode = "CONFIGURATION"
	ErrProvider           ErrorCode = "PROVIDER"
)

// Upstream error codes used by provider adapters when classifying
// backend responses.
const (
	ErrUnauthorized    ErrorCode = "UNAUTHORIZED"
	ErrRateLimited     ErrorCode = "RATE_LIMITED"
	ErrUpstreamTimeout ErrorCode = "UPSTREAM_TIMEOUT"
	ErrUpstreamError   ErrorCode = "UPSTREAM_ERROR"
	ErrInternalError   ErrorCode = "INTERNAL_ERROR"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"http_status,omitempty"`
	Retryable  bool      `json:"retryable"`
	Provider   string    `json:"provider,omitempty"`
	Cause      error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// NotFound creates a NOT_FOUND error with a 404 status.
func NotFound(message string) *Error {
	return &Error{Code: ErrNotFound, Message: message, HTTPStatus: http.StatusNotFound}
}

// PreconditionFailed creates a PRECONDITION_FAILED error with a 400 status.
func PreconditionFailed(message string) *Error {
	return &Error{Code: ErrPreconditionFailed, Message: message, HTTPStatus: http.StatusBadRequest}
}

// Configuration creates a CONFIGURATION error. Configuration errors are
// fatal for the call and never converted into reply content.
func Configuration(message string) *Error {
	return &Error{Code: ErrConfiguration, Message: message, HTTPStatus: http.StatusInternalServerError}
}

// ProviderFailure wraps an upstream completion failure.
func ProviderFailure(provider string, cause error) *Error {
	return &Error{
		Code:       ErrProvider,
		Message:    "provider completion failed",
		HTTPStatus: http.StatusBadGateway,
		Provider:   provider,
		Cause:      cause,
	}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithHTTPStatus sets the HTTP status code.
func (e *Error) WithHTTPStatus(status int) *Error {
	e.HTTPStatus = status
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// WithProvider sets the provider name.
func (e *Error) WithProvider(provider string) *Error {
	e.Provider = provider
	return e
}

// GetErrorCode extracts the error code from an error, unwrapping as needed.
func GetErrorCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCode reports whether err carries the given code anywhere in its chain.
func IsCode(err error, code ErrorCode) bool {
	return GetErrorCode(err) == code
}

// HTTPStatusOf returns the HTTP status for an error, defaulting to 500.
func HTTPStatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) && e.HTTPStatus != 0 {
		return e.HTTPStatus
	}
	return http.StatusInternalServerError
}
