package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/eshaffer321/chartagopm-go/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticTokens string

func (s staticTokens) Token() string { return string(s) }

func TestRESTTransport_AttachesBearerToken(t *testing.T) {
	var gotAuth, gotRequestID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tr := NewRESTTransport(&Options{BaseURL: srv.URL, Tokens: staticTokens("tok-123")})

	resp, err := tr.Do(context.Background(), &Request{Method: http.MethodGet, Path: "/api/projects"})
	require.NoError(t, err)
	assert.True(t, resp.OK())
	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.NotEmpty(t, gotRequestID)
	assert.Equal(t, gotRequestID, resp.RequestID)
}

func TestRESTTransport_OmitsHeaderWithoutToken(t *testing.T) {
	var hadAuth bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hadAuth = r.Header["Authorization"]
	}))
	defer srv.Close()

	tr := NewRESTTransport(&Options{BaseURL: srv.URL, Tokens: staticTokens("")})
	_, err := tr.Do(context.Background(), &Request{Method: http.MethodGet, Path: "/api/users"})
	require.NoError(t, err)
	assert.False(t, hadAuth)

	tr = NewRESTTransport(&Options{BaseURL: srv.URL, Tokens: staticTokens("tok")})
	_, err = tr.Do(context.Background(), &Request{Method: http.MethodGet, Path: "/api/refresh/token", Anonymous: true})
	require.NoError(t, err)
	assert.False(t, hadAuth)
}

func TestRESTTransport_ReturnsNon2xxWithoutError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"expired"}`))
	}))
	defer srv.Close()

	tr := NewRESTTransport(&Options{BaseURL: srv.URL})
	resp, err := tr.Do(context.Background(), &Request{Method: http.MethodGet, Path: "/api/tasks/"})

	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.JSONEq(t, `{"message":"expired"}`, string(resp.Body))
}

func TestRESTTransport_SendsJSONBodyAndQuery(t *testing.T) {
	var got map[string]string
	var gotQuery url.Values
	var gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotQuery = r.URL.Query()
		_ = json.NewDecoder(r.Body).Decode(&got)
	}))
	defer srv.Close()

	tr := NewRESTTransport(&Options{BaseURL: srv.URL + "/"})
	_, err := tr.Do(context.Background(), &Request{
		Method: http.MethodPatch,
		Path:   "/api/tasks/4/status",
		Query:  url.Values{"dry": []string{"1"}},
		Body:   map[string]string{"status": "Completed"},
	})

	require.NoError(t, err)
	assert.Equal(t, http.MethodPatch, gotMethod)
	assert.Equal(t, "Completed", got["status"])
	assert.Equal(t, "1", gotQuery.Get("dry"))
}

func TestRESTTransport_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	var hookErr error
	tr := NewRESTTransport(&Options{
		BaseURL: base,
		Hooks: &types.Hooks{
			OnError: func(ctx context.Context, err error) { hookErr = err },
		},
	})

	resp, err := tr.Do(context.Background(), &Request{Method: http.MethodGet, Path: "/api/users"})
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, types.ErrTransport)
	assert.Equal(t, err, hookErr)
}

func TestRESTTransport_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	tr := NewRESTTransport(&Options{BaseURL: srv.URL})
	_, err := tr.Do(ctx, &Request{Method: http.MethodGet, Path: "/slow"})

	assert.ErrorIs(t, err, types.ErrTransport)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRESTTransport_KeepsCookies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			http.SetCookie(w, &http.Cookie{Name: "jwt", Value: "refresh-1", Path: "/", HttpOnly: true})
		case "/api/refresh/token":
			c, err := r.Cookie("jwt")
			if err != nil {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			_, _ = w.Write([]byte(`{"accessToken":"` + c.Value + `"}`))
		}
	}))
	defer srv.Close()

	tr := NewRESTTransport(&Options{BaseURL: srv.URL})
	_, err := tr.Do(context.Background(), &Request{Method: http.MethodPost, Path: "/api/auth/login"})
	require.NoError(t, err)

	resp, err := tr.Do(context.Background(), &Request{Method: http.MethodGet, Path: "/api/refresh/token", Anonymous: true})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(resp.Body), "refresh-1")
}

func TestRESTTransport_RetriesServerErrorsWhenConfigured(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tr := NewRESTTransport(&Options{
		BaseURL: srv.URL,
		RetryConfig: &types.RetryConfig{
			MaxRetries: 3,
			RetryWait:  time.Millisecond,
			MaxWait:    5 * time.Millisecond,
		},
	})

	resp, err := tr.Do(context.Background(), &Request{Method: http.MethodGet, Path: "/api/projects"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestRESTTransport_DoesNotRetry403(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	tr := NewRESTTransport(&Options{
		BaseURL:     srv.URL,
		RetryConfig: &types.RetryConfig{MaxRetries: 3, RetryWait: time.Millisecond, MaxWait: time.Millisecond},
	})

	resp, err := tr.Do(context.Background(), &Request{Method: http.MethodGet, Path: "/api/projects"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
