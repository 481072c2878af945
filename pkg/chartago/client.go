package chartago

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/eshaffer321/chartagopm-go/internal/reauth"
	"github.com/eshaffer321/chartagopm-go/internal/session"
	"github.com/eshaffer321/chartagopm-go/internal/transport"
	internalTypes "github.com/eshaffer321/chartagopm-go/internal/types"
	"github.com/getsentry/sentry-go"
	"github.com/pkg/errors"
)

const (
	// DefaultBaseURL is the default chartagoPM API base URL
	DefaultBaseURL = internalTypes.DefaultBaseURL

	// DefaultTimeout is the default HTTP client timeout
	DefaultTimeout = internalTypes.DefaultTimeout

	// UserAgent is the user agent string
	UserAgent = internalTypes.UserAgent
)

// Client is the main chartagoPM API client
type Client struct {
	// Service interfaces
	Auth     AuthService
	Users    UserService
	Projects ProjectService
	Tasks    TaskService
	Teams    TeamService

	// Internal fields
	baseURL     string
	transport   Transport
	interceptor *reauth.Interceptor
	session     *session.Store
	options     *ClientOptions
}

// ClientOptions configures the client
type ClientOptions struct {
	// BaseURL overrides the default API base URL
	BaseURL string

	// HTTPClient allows using a custom HTTP client. A cookie jar is added
	// when it has none.
	HTTPClient *http.Client

	// Timeout sets the HTTP client timeout
	Timeout time.Duration

	// Token and User seed the session. Both or neither must be set.
	Token string
	User  *User

	// SessionFile path for session persistence
	SessionFile string

	// Logger for debug logging
	Logger Logger

	// RetryConfig configures retry behavior
	RetryConfig *internalTypes.RetryConfig

	// RateLimiter for rate limiting
	RateLimiter RateLimiter

	// Hooks for observability
	Hooks *internalTypes.Hooks

	// SentryDSN enables Sentry error tracking when set
	SentryDSN string

	// SentryOptions allows custom Sentry configuration
	SentryOptions *sentry.ClientOptions

	// CoalesceRefresh makes concurrent 403s share a single refresh call
	CoalesceRefresh bool

	// RefreshPath overrides the token refresh endpoint
	RefreshPath string
}

// Logger interface for logging
type Logger = internalTypes.Logger

// RateLimiter interface for rate limiting
type RateLimiter interface {
	Wait(ctx context.Context) error
}

// Transport sends one request and returns the response for any status
type Transport interface {
	Do(ctx context.Context, req *transport.Request) (*transport.Response, error)
}

// NewClient creates a new chartagoPM client
func NewClient(opts *ClientOptions) (*Client, error) {
	if opts == nil {
		opts = &ClientOptions{}
	}

	if (opts.Token == "") != (opts.User == nil) {
		return nil, errors.Wrap(ErrIncompleteCredentials, "invalid client options")
	}

	// Initialize Sentry if DSN is provided
	if opts.SentryDSN != "" || opts.SentryOptions != nil {
		sentryOpts := sentry.ClientOptions{}

		if opts.SentryOptions != nil {
			sentryOpts = *opts.SentryOptions
		}

		if opts.SentryDSN != "" {
			sentryOpts.Dsn = opts.SentryDSN
		}

		if sentryOpts.Environment == "" {
			sentryOpts.Environment = "production"
		}

		// Log error but don't fail client creation
		if err := sentry.Init(sentryOpts); err != nil && opts.Logger != nil {
			opts.Logger.Error("Failed to initialize Sentry", "error", err)
		}
	}

	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}

	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{
			Timeout: DefaultTimeout,
		}
	}

	if opts.Timeout > 0 {
		opts.HTTPClient.Timeout = opts.Timeout
	}

	var persister session.Persister
	if opts.SessionFile != "" {
		persister = session.NewFilePersister(opts.SessionFile, opts.Logger)
	}
	store := session.NewStore(&session.Options{
		Persister: persister,
		Logger:    opts.Logger,
	})

	trans := transport.NewRESTTransport(&transport.Options{
		BaseURL:     opts.BaseURL,
		HTTPClient:  opts.HTTPClient,
		RetryConfig: opts.RetryConfig,
		Logger:      opts.Logger,
		Hooks:       opts.Hooks,
		Tokens:      store,
	})

	c := newClient(trans, store, opts)

	// Load session if file specified
	if opts.SessionFile != "" && opts.Token == "" {
		if err := c.Auth.LoadSession(opts.SessionFile); err != nil && opts.Logger != nil {
			opts.Logger.Warn("Failed to load session", "error", err)
		}
	}

	if opts.Token != "" {
		if err := store.SetCredentials(opts.User, opts.Token); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// NewClientWithSession creates a client that resumes the session saved at path
func NewClientWithSession(path string) (*Client, error) {
	c, err := NewClient(&ClientOptions{SessionFile: path})
	if err != nil {
		return nil, err
	}
	if _, err := c.Auth.GetSession(); err != nil {
		return nil, err
	}
	return c, nil
}

// newClient wires the services around an executor and a session store
func newClient(trans Transport, store *session.Store, opts *ClientOptions) *Client {
	if opts == nil {
		opts = &ClientOptions{}
	}

	c := &Client{
		baseURL:   opts.BaseURL,
		transport: trans,
		session:   store,
		options:   opts,
		interceptor: reauth.New(trans, store, &reauth.Options{
			RefreshPath: opts.RefreshPath,
			Coalesce:    opts.CoalesceRefresh,
			Logger:      opts.Logger,
			Hooks:       opts.Hooks,
		}),
	}

	c.initServices()
	return c
}

// initServices initializes all service implementations
func (c *Client) initServices() {
	c.Auth = &authService{client: c}
	c.Users = &userService{client: c}
	c.Projects = &projectService{client: c}
	c.Tasks = &taskService{client: c}
	c.Teams = &teamService{client: c}
}

// Session returns a snapshot of the current credentials
func (c *Client) Session() Session {
	return c.session.Snapshot()
}

// OnSessionChange registers fn to run after every sign-in, refresh and
// sign-out. The returned func unregisters it.
func (c *Client) OnSessionChange(fn func(Session)) func() {
	return c.session.Subscribe(fn)
}

// do sends req through the reauthenticating interceptor and decodes a 2xx
// body into result
func (c *Client) do(ctx context.Context, op string, req *transport.Request, result interface{}) error {
	return c.run(ctx, op, req, func() error {
		res, err := c.interceptor.Execute(ctx, req)
		if err != nil {
			return err
		}

		if res.Outcome == reauth.AuthRetryFailed {
			return &Error{
				Code:       "REFRESH_FAILED",
				Message:    "session expired, please sign in again",
				StatusCode: res.Response.StatusCode,
				RequestID:  res.Response.RequestID,
				Err:        fmt.Errorf("%w: %w", ErrRefreshFailed, transport.HTTPError(res.Response)),
			}
		}

		return transport.Decode(res.Response, result)
	})
}

// doDirect sends req without the refresh handling. Auth endpoints use it.
func (c *Client) doDirect(ctx context.Context, op string, req *transport.Request, result interface{}) error {
	return c.run(ctx, op, req, func() error {
		resp, err := c.transport.Do(ctx, req)
		if err != nil {
			return err
		}
		return transport.Decode(resp, result)
	})
}

func (c *Client) run(ctx context.Context, op string, req *transport.Request, send func() error) error {
	// Rate limiting
	if c.options.RateLimiter != nil {
		if err := c.options.RateLimiter.Wait(ctx); err != nil {
			c.capture(ctx, op, req, err, 0)
			return fmt.Errorf("rate limiter: %w", err)
		}
	}

	start := time.Now()
	err := send()
	duration := time.Since(start)

	if err != nil {
		c.capture(ctx, op, req, err, duration)

		// Transport errors already reached OnError inside the transport.
		if !errors.Is(err, ErrTransport) && c.options.Hooks != nil && c.options.Hooks.OnError != nil {
			c.options.Hooks.OnError(ctx, err)
		}
	}

	return err
}

// capture reports err to Sentry, preferring the hub carried by ctx
func (c *Client) capture(ctx context.Context, op string, req *transport.Request, err error, duration time.Duration) {
	configure := func(scope *sentry.Scope) {
		scope.SetTag("rest.operation", op)
		scope.SetContext("rest", map[string]interface{}{
			"method":   req.Method,
			"path":     req.Path,
			"duration": duration.String(),
		})
	}

	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.WithScope(func(scope *sentry.Scope) {
			configure(scope)
			hub.CaptureException(err)
		})
		return
	}

	sentry.WithScope(func(scope *sentry.Scope) {
		configure(scope)
		sentry.CaptureException(err)
	})
}

// Close flushes any pending Sentry events and performs cleanup
func (c *Client) Close() {
	sentry.Flush(2 * time.Second)
}
