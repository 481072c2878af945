package types

import (
	"context"
	"net/http"
	"time"
)

// User is the identity record returned by the auth endpoints
type User struct {
	UserID            int    `json:"userId"`
	Username          string `json:"username"`
	Email             string `json:"email"`
	ProfilePictureURL string `json:"profilePictureUrl,omitempty"`
	TeamID            *int   `json:"teamId,omitempty"`
}

// Session represents an authenticated session. User and Token are either
// both set or both empty.
type Session struct {
	User      *User     `json:"user,omitempty"`
	Token     string    `json:"token,omitempty"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}

// Authenticated reports whether the session holds credentials
func (s Session) Authenticated() bool {
	return s.User != nil && s.Token != ""
}

// Logger interface for logging
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// RetryConfig configures retry behavior for transport failures and 5xx
// responses. Nil disables retries.
type RetryConfig struct {
	MaxRetries int           `json:"maxRetries"`
	RetryWait  time.Duration `json:"retryWait"`
	MaxWait    time.Duration `json:"maxWait"`
}

// Hooks provides lifecycle hooks for requests
type Hooks struct {
	OnRequest  func(ctx context.Context, req *http.Request)
	OnResponse func(ctx context.Context, resp *http.Response, duration time.Duration)
	OnError    func(ctx context.Context, err error)
	// OnRefresh fires after every refresh attempt made by the interceptor
	OnRefresh func(ctx context.Context, succeeded bool)
}
