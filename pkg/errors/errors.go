package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for the rule store boundary.
var (
	// ErrRepositoryUnavailable means the rule store could not be reached.
	// Callers degrade to "no rules known" rather than failing the request.
	ErrRepositoryUnavailable = errors.New("rule repository unavailable")

	// ErrCountryNotFound means the requested country has no dial-plan row.
	ErrCountryNotFound = errors.New("country not found")
)

// ErrorCode represents a unique error code
type ErrorCode int

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrBadRequest ErrorCode = iota + 1000
	ErrInternal
)

// StatusCode maps the error code to an HTTP status. The error middleware
// uses it to pick the response status for errors attached to a request.
func (e *AppError) StatusCode() int {
	if e.Code == ErrBadRequest {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func NewBadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    ErrBadRequest,
		Message: message,
		Err:     err,
	}
}

// NewInternal wraps an unexpected failure so the error middleware reports
// it as a 500.
func NewInternal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal server error",
		Err:     err,
	}
}
