package chartago

import (
	"errors"
	"fmt"

	"github.com/eshaffer321/chartagopm-go/internal/types"
)

var (
	// ErrNotAuthenticated is returned when authentication is required
	ErrNotAuthenticated = types.ErrNotAuthenticated

	// ErrAuthExpired is returned when the server rejected the bearer token
	ErrAuthExpired = types.ErrAuthExpired

	// ErrRefreshFailed is returned when the silent refresh failed and the
	// session was cleared
	ErrRefreshFailed = types.ErrRefreshFailed

	// ErrIncompleteCredentials is returned when a user or token is missing
	ErrIncompleteCredentials = types.ErrIncompleteCredentials

	// ErrSessionExpired is returned when session has expired
	ErrSessionExpired = types.ErrSessionExpired

	// ErrTransport is returned when no response was received
	ErrTransport = types.ErrTransport

	// ErrRateLimited is returned when rate limited
	ErrRateLimited = types.ErrRateLimited

	// ErrTimeout is returned on timeout
	ErrTimeout = types.ErrTimeout

	// ErrNotFound is returned when resource not found
	ErrNotFound = types.ErrNotFound

	// ErrInvalidRequest is returned for invalid requests
	ErrInvalidRequest = types.ErrInvalidRequest

	// ErrServerError is returned for server errors
	ErrServerError = types.ErrServerError
)

// GenericUserMessage is shown for failures without a better description
const GenericUserMessage = "Something went wrong. Please try again."

// Error represents an API error
type Error = types.Error

// ValidationError is a form check that failed before any request was sent
type ValidationError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return e.Message
}

// ValidationErrors represents multiple validation errors
type ValidationErrors struct {
	Errors []*ValidationError `json:"errors"`
}

// Error implements the error interface
func (e *ValidationErrors) Error() string {
	if len(e.Errors) == 0 {
		return "validation failed"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d validation errors occurred", len(e.Errors))
}

// NewError creates a new API error
func NewError(code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// WrapError wraps an error with additional context
func WrapError(err error, code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsAuthError checks if error is authentication related
func IsAuthError(err error) bool {
	return errors.Is(err, ErrNotAuthenticated) ||
		errors.Is(err, ErrAuthExpired) ||
		errors.Is(err, ErrRefreshFailed) ||
		errors.Is(err, ErrSessionExpired)
}

// IsRetryable checks if error is retryable
func IsRetryable(err error) bool {
	if errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrServerError) {
		return true
	}

	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500 || apiErr.StatusCode == 429
	}

	return false
}

// UserMessage turns err into a short sentence fit for showing to a person
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}

	var verrs *ValidationErrors
	if errors.As(err, &verrs) && len(verrs.Errors) > 0 {
		return verrs.Errors[0].Message
	}

	switch {
	case errors.Is(err, ErrRefreshFailed), errors.Is(err, ErrSessionExpired):
		return "Your session has expired. Please sign in again."
	case errors.Is(err, ErrNotAuthenticated):
		return "Please sign in to continue."
	case errors.Is(err, ErrTransport):
		return "Unable to reach the server. Check your connection and try again."
	case errors.Is(err, ErrRateLimited):
		return "Too many requests. Please wait a moment and try again."
	}

	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 && apiErr.Message != "" {
		return apiErr.Message
	}

	return GenericUserMessage
}
