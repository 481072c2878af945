package types

import (
	"errors"
	"time"
)

const (
	// DefaultBaseURL is the default chartagoPM API base URL
	DefaultBaseURL = "http://localhost:8000"

	// DefaultTimeout is the default HTTP client timeout
	DefaultTimeout = 30 * time.Second

	// UserAgent is the user agent string
	UserAgent = "chartagopm-go/1.0.0"

	// RefreshPath is the cookie-credentialed token refresh endpoint
	RefreshPath = "/api/refresh/token"
)

// Common errors
var (
	// ErrNotAuthenticated is returned when authentication is required
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrAuthExpired is returned when the bearer token was rejected as stale
	ErrAuthExpired = errors.New("access token expired")

	// ErrRefreshFailed is returned when the silent token refresh did not
	// produce a usable token and the session was cleared
	ErrRefreshFailed = errors.New("token refresh failed")

	// ErrIncompleteCredentials is returned when a user or token is missing
	ErrIncompleteCredentials = errors.New("user and token must both be present")

	// ErrSessionExpired is returned when a persisted session has expired
	ErrSessionExpired = errors.New("session expired")

	// ErrTransport is returned when no response was received
	ErrTransport = errors.New("transport error")

	// ErrRateLimited is returned when rate limited
	ErrRateLimited = errors.New("rate limited")

	// ErrTimeout is returned on timeout
	ErrTimeout = errors.New("request timeout")

	// ErrInvalidRequest is returned when the server rejects the request body
	ErrInvalidRequest = errors.New("invalid request")

	// ErrNotFound is returned when resource not found
	ErrNotFound = errors.New("resource not found")

	// ErrServerError is returned for server errors
	ErrServerError = errors.New("server error")
)
