// Package transport performs single HTTP calls against the chartagoPM API.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/eshaffer321/chartagopm-go/internal/types"
	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
	"golang.org/x/net/publicsuffix"
)

const (
	authHeaderKey   = "Authorization"
	requestIDHeader = "X-Request-ID"
	contentType     = "application/json"
)

// TokenSource supplies the bearer token at the moment a request is built
type TokenSource interface {
	Token() string
}

// Request is a not-yet-sent API call
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   interface{}

	// Anonymous suppresses the bearer header. The refresh call uses it
	// because it authenticates with the session cookie instead.
	Anonymous bool
}

// Response is a completed API call, whatever its status
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	RequestID  string
}

// OK reports a 2xx status
func (r *Response) OK() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Options for REST transport
type Options struct {
	BaseURL     string
	HTTPClient  *http.Client
	Headers     map[string]string
	RetryConfig *types.RetryConfig
	Logger      types.Logger
	Hooks       *types.Hooks
	Tokens      TokenSource
}

// RESTTransport executes JSON requests and attaches the bearer token
type RESTTransport struct {
	baseURL     string
	httpClient  *http.Client
	retryClient *retryablehttp.Client
	headers     map[string]string
	tokens      TokenSource
	logger      types.Logger
	hooks       *types.Hooks
}

// NewRESTTransport creates a new REST transport. The HTTP client gets a
// cookie jar if it has none, since the refresh endpoint relies on cookies.
func NewRESTTransport(opts *Options) *RESTTransport {
	if opts == nil {
		opts = &Options{}
	}

	if opts.BaseURL == "" {
		opts.BaseURL = types.DefaultBaseURL
	}

	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{
			Timeout: types.DefaultTimeout,
		}
	}

	if opts.HTTPClient.Jar == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err == nil {
			opts.HTTPClient.Jar = jar
		}
	}

	var retryClient *retryablehttp.Client
	if opts.RetryConfig != nil {
		retryClient = retryablehttp.NewClient()
		retryClient.HTTPClient = opts.HTTPClient
		retryClient.RetryMax = opts.RetryConfig.MaxRetries
		retryClient.RetryWaitMin = opts.RetryConfig.RetryWait
		retryClient.RetryWaitMax = opts.RetryConfig.MaxWait
		// Hand back the last response instead of a "giving up" error so
		// status handling stays with the caller.
		retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

		if opts.Logger != nil {
			retryClient.Logger = &retryLogger{logger: opts.Logger}
		} else {
			retryClient.Logger = nil
		}
	}

	headers := map[string]string{
		"Accept":       contentType,
		"Content-Type": contentType,
		"User-Agent":   types.UserAgent,
	}

	for k, v := range opts.Headers {
		headers[k] = v
	}

	return &RESTTransport{
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		httpClient:  opts.HTTPClient,
		retryClient: retryClient,
		headers:     headers,
		tokens:      opts.Tokens,
		logger:      opts.Logger,
		hooks:       opts.Hooks,
	}
}

// Do sends req and returns the response for any status code. Only a
// failure to get a response at all is returned as an error.
func (t *RESTTransport) Do(ctx context.Context, req *Request) (*Response, error) {
	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal request")
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, t.url(req), body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}

	for k, v := range t.headers {
		httpReq.Header.Set(k, v)
	}

	if !req.Anonymous && t.tokens != nil {
		if token := t.tokens.Token(); token != "" {
			httpReq.Header.Set(authHeaderKey, fmt.Sprintf("Bearer %s", token))
		}
	}

	requestID := uuid.New().String()
	httpReq.Header.Set(requestIDHeader, requestID)

	if t.hooks != nil && t.hooks.OnRequest != nil {
		t.hooks.OnRequest(ctx, httpReq)
	}

	if t.logger != nil {
		t.logger.Debug("REST request", "method", req.Method, "path", req.Path, "requestId", requestID)
	}

	start := time.Now()
	resp, err := t.doRequest(httpReq)
	duration := time.Since(start)

	if err != nil {
		err = &types.Error{
			Code:      "TRANSPORT_ERROR",
			Message:   fmt.Sprintf("%s %s: %v", req.Method, req.Path, err),
			RequestID: requestID,
			Err:       fmt.Errorf("%w: %w", types.ErrTransport, err),
		}
		if t.hooks != nil && t.hooks.OnError != nil {
			t.hooks.OnError(ctx, err)
		}
		return nil, err
	}
	defer resp.Body.Close()

	if t.hooks != nil && t.hooks.OnResponse != nil {
		t.hooks.OnResponse(ctx, resp, duration)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response")
	}

	if t.logger != nil {
		t.logger.Debug("REST response", "status", resp.StatusCode, "duration", duration, "size", len(respBody))
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       respBody,
		RequestID:  requestID,
	}, nil
}

// BaseURL returns the API root requests are resolved against
func (t *RESTTransport) BaseURL() string {
	return t.baseURL
}

func (t *RESTTransport) url(req *Request) string {
	u := t.baseURL + req.Path
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}
	return u
}

// doRequest executes the HTTP request with retry if configured
func (t *RESTTransport) doRequest(req *http.Request) (*http.Response, error) {
	if t.retryClient != nil {
		retryReq, err := retryablehttp.FromRequest(req)
		if err != nil {
			return nil, err
		}
		return t.retryClient.Do(retryReq)
	}
	return t.httpClient.Do(req)
}

// retryLogger adapts our logger to retryablehttp
type retryLogger struct {
	logger types.Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, keysAndValues...)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, keysAndValues...)
}

func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn(msg, keysAndValues...)
}
