// Package reauth wraps the request executor with a single silent token
// refresh on 403 responses.
//
// A call that hits 403 gets exactly one refresh attempt. If the refresh
// yields a token and a user is signed in, the credentials are updated and
// the original request is sent again, once. Otherwise the session is cleared
// and the original 403 is returned. The replay never goes through this
// handling again, so a call can never loop. A caller whose context ends
// while the refresh is running gets the context error and leaves the
// session alone.
package reauth

import (
	"context"
	"net/http"
	"time"

	"github.com/eshaffer321/chartagopm-go/internal/session"
	"github.com/eshaffer321/chartagopm-go/internal/transport"
	"github.com/eshaffer321/chartagopm-go/internal/types"
	"golang.org/x/sync/singleflight"
)

// Executor performs one HTTP call
type Executor interface {
	Do(ctx context.Context, req *transport.Request) (*transport.Response, error)
}

// Outcome records which path a call took through the interceptor
type Outcome int

const (
	// Success means the first response was not a 403 and is returned as-is
	Success Outcome = iota
	// AuthRetrySucceeded means the token was refreshed and the request replayed once
	AuthRetrySucceeded
	// AuthRetryFailed means the refresh failed, the session was cleared and
	// the original 403 is returned
	AuthRetryFailed
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case AuthRetrySucceeded:
		return "auth_retry_succeeded"
	case AuthRetryFailed:
		return "auth_retry_failed"
	default:
		return "unknown"
	}
}

// Result is the response the caller sees plus the path that produced it
type Result struct {
	Outcome  Outcome
	Response *transport.Response
}

// Options configures an Interceptor
type Options struct {
	// RefreshPath defaults to types.RefreshPath
	RefreshPath string

	// Coalesce shares one in-flight refresh between concurrent 403s.
	// Off by default: every call refreshes independently.
	Coalesce bool

	// RefreshTimeout bounds a shared refresh, which outlives the caller
	// that started it. Defaults to types.DefaultTimeout.
	RefreshTimeout time.Duration

	Logger types.Logger
	Hooks  *types.Hooks
}

// Interceptor is the reauthenticating executor
type Interceptor struct {
	exec           Executor
	lifecycle      session.Controller
	refreshPath    string
	coalesce       bool
	refreshTimeout time.Duration
	group          singleflight.Group
	logger      types.Logger
	hooks       *types.Hooks
}

// New creates an interceptor around exec that updates lifecycle, usually a
// *session.Store
func New(exec Executor, lifecycle session.Controller, opts *Options) *Interceptor {
	if opts == nil {
		opts = &Options{}
	}
	refreshPath := opts.RefreshPath
	if refreshPath == "" {
		refreshPath = types.RefreshPath
	}
	refreshTimeout := opts.RefreshTimeout
	if refreshTimeout <= 0 {
		refreshTimeout = types.DefaultTimeout
	}

	return &Interceptor{
		exec:           exec,
		lifecycle:      lifecycle,
		refreshPath:    refreshPath,
		coalesce:       opts.Coalesce,
		refreshTimeout: refreshTimeout,
		logger:         opts.Logger,
		hooks:          opts.Hooks,
	}
}

// RefreshPath returns the endpoint used to refresh the token
func (i *Interceptor) RefreshPath() string {
	return i.refreshPath
}

// Execute sends req, refreshing the token and replaying once on 403.
// A transport error on the first attempt is returned without any refresh,
// and so is ctx.Err() when ctx ends before the refresh finishes.
func (i *Interceptor) Execute(ctx context.Context, req *transport.Request) (*Result, error) {
	resp, err := i.exec.Do(ctx, req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusForbidden {
		return &Result{Outcome: Success, Response: resp}, nil
	}

	if i.logger != nil {
		i.logger.Debug("Access token rejected, refreshing", "method", req.Method, "path", req.Path)
	}

	token, err := i.refresh(ctx)
	if err != nil {
		return nil, err
	}

	if token == "" {
		if i.logger != nil {
			i.logger.Warn("Token refresh failed, clearing session", "path", req.Path)
		}
		i.lifecycle.ClearSession()
		i.onRefresh(ctx, false)
		return &Result{Outcome: AuthRetryFailed, Response: resp}, nil
	}

	// The token only lands if a user is still signed in at this moment.
	if err := i.lifecycle.RefreshToken(token); err != nil {
		if i.logger != nil {
			i.logger.Warn("Refreshed token has no signed-in user, clearing session", "path", req.Path, "error", err)
		}
		i.lifecycle.ClearSession()
		i.onRefresh(ctx, false)
		return &Result{Outcome: AuthRetryFailed, Response: resp}, nil
	}
	i.onRefresh(ctx, true)

	if i.logger != nil {
		i.logger.Debug("Replaying request with refreshed token", "method", req.Method, "path", req.Path)
	}

	replay, err := i.exec.Do(ctx, req)
	if err != nil {
		return &Result{Outcome: AuthRetrySucceeded}, err
	}

	return &Result{Outcome: AuthRetrySucceeded, Response: replay}, nil
}

// refresh calls the refresh endpoint and returns the new token, or "" when
// the call failed or carried no token. The error is set only when ctx ended
// first.
func (i *Interceptor) refresh(ctx context.Context) (string, error) {
	if !i.coalesce {
		token := i.doRefresh(ctx)
		if token == "" && ctx.Err() != nil {
			return "", ctx.Err()
		}
		return token, nil
	}

	// The shared call runs detached from whichever caller started it, so
	// one caller giving up cannot fail the others.
	ch := i.group.DoChan(i.refreshPath, func() (interface{}, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), i.refreshTimeout)
		defer cancel()
		return i.doRefresh(shared), nil
	})

	select {
	case res := <-ch:
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (i *Interceptor) doRefresh(ctx context.Context) string {
	resp, err := i.exec.Do(ctx, &transport.Request{
		Method:    http.MethodGet,
		Path:      i.refreshPath,
		Anonymous: true,
	})
	if err != nil {
		if i.logger != nil {
			i.logger.Warn("Refresh request failed", "error", err)
		}
		return ""
	}

	var body struct {
		AccessToken string `json:"accessToken"`
	}
	if err := transport.Decode(resp, &body); err != nil {
		if i.logger != nil {
			i.logger.Warn("Refresh rejected", "status", resp.StatusCode, "error", err)
		}
		return ""
	}

	return body.AccessToken
}

func (i *Interceptor) onRefresh(ctx context.Context, succeeded bool) {
	if i.hooks != nil && i.hooks.OnRefresh != nil {
		i.hooks.OnRefresh(ctx, succeeded)
	}
}
