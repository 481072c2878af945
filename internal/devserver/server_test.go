package devserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	"github.com/eshaffer321/chartagopm-go/internal/config"
	"github.com/eshaffer321/chartagopm-go/pkg/chartago"
)

var itoa = strconv.Itoa

type testServer struct {
	*Server
	now time.Time
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{now: time.Now()}

	cfg := &config.ServerConfig{
		JWTSecret:       "access-secret",
		RefreshSecret:   "refresh-secret",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
		SeedDemo:        true,
	}
	srv, err := New(cfg, zaptest.NewLogger(t), &Options{
		Now:        func() time.Time { return ts.now },
		BcryptCost: bcrypt.MinCost,
	})
	require.NoError(t, err)
	ts.Server = srv
	return ts
}

type call struct {
	method string
	path   string
	body   interface{}
	token  string
	cookie *http.Cookie
}

func (ts *testServer) do(t *testing.T, c call) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	if c.body != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(c.body))
	}
	req := httptest.NewRequest(c.method, c.path, &body)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}

	rec := httptest.NewRecorder()
	ts.Handler().ServeHTTP(rec, req)
	return rec
}

func refreshCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == RefreshCookie {
			return c
		}
	}
	return nil
}

func (ts *testServer) login(t *testing.T) (chartago.AuthResponse, *http.Cookie) {
	t.Helper()
	rec := ts.do(t, call{
		method: http.MethodPost,
		path:   "/api/auth/login",
		body:   map[string]string{"email": "demo@chartago.dev", "password": "password123"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp chartago.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	cookie := refreshCookie(rec)
	require.NotNil(t, cookie)
	return resp, cookie
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestServer_Health(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, call{method: http.MethodGet, path: "/health"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestServer_Login(t *testing.T) {
	ts := newTestServer(t)

	resp, cookie := ts.login(t)
	assert.NotEmpty(t, resp.Token)
	require.NotNil(t, resp.User)
	assert.Equal(t, "demo", resp.User.Username)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, "/", cookie.Path)
}

func TestServer_LoginFailures(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name string
		body interface{}
		want int
	}{
		{"missing fields", map[string]string{"email": "demo@chartago.dev"}, http.StatusBadRequest},
		{"malformed", "not an object", http.StatusBadRequest},
		{"wrong password", map[string]string{"email": "demo@chartago.dev", "password": "nope"}, http.StatusUnauthorized},
		{"unknown user", map[string]string{"email": "x@chartago.dev", "password": "password123"}, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, call{method: http.MethodPost, path: "/api/auth/login", body: tt.body})
			assert.Equal(t, tt.want, rec.Code)
			assert.Nil(t, refreshCookie(rec))
			assert.Contains(t, rec.Body.String(), "message")
		})
	}
}

func TestServer_Signup(t *testing.T) {
	ts := newTestServer(t)
	body := map[string]string{"username": "ana", "email": "ana@example.com", "password": "secret"}

	rec := ts.do(t, call{method: http.MethodPost, path: "/api/auth/signup", body: body})
	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decode[chartago.AuthResponse](t, rec)
	assert.Equal(t, "ana", resp.User.Username)
	assert.NotEmpty(t, resp.Token)
	assert.NotNil(t, refreshCookie(rec))

	rec = ts.do(t, call{method: http.MethodPost, path: "/api/auth/signup", body: body})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestServer_ProtectedRoutes(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, call{method: http.MethodGet, path: "/api/projects"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "missing token")

	rec = ts.do(t, call{method: http.MethodGet, path: "/api/projects", token: "garbage"})
	assert.Equal(t, http.StatusForbidden, rec.Code, "invalid token")

	resp, _ := ts.login(t)
	rec = ts.do(t, call{method: http.MethodGet, path: "/api/projects", token: resp.Token})
	require.Equal(t, http.StatusOK, rec.Code)
	projects := decode[[]chartago.Project](t, rec)
	require.Len(t, projects, 1)
	assert.Equal(t, "Apollo", projects[0].Name)
}

func TestServer_ExpiredAccessTokenIsForbidden(t *testing.T) {
	ts := newTestServer(t)
	resp, _ := ts.login(t)

	ts.now = ts.now.Add(2 * time.Minute)

	rec := ts.do(t, call{method: http.MethodGet, path: "/api/tasks/", token: resp.Token})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestServer_Refresh(t *testing.T) {
	ts := newTestServer(t)
	_, cookie := ts.login(t)

	rec := ts.do(t, call{method: http.MethodGet, path: "/api/refresh/token"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "no cookie")

	rec = ts.do(t, call{method: http.MethodGet, path: "/api/refresh/token", cookie: &http.Cookie{Name: RefreshCookie, Value: "garbage"}})
	assert.Equal(t, http.StatusForbidden, rec.Code, "bad cookie")

	ts.now = ts.now.Add(2 * time.Minute)

	rec = ts.do(t, call{method: http.MethodGet, path: "/api/refresh/token", cookie: cookie})
	require.Equal(t, http.StatusOK, rec.Code)
	fresh := decode[struct {
		AccessToken string `json:"accessToken"`
	}](t, rec)
	require.NotEmpty(t, fresh.AccessToken)

	rec = ts.do(t, call{method: http.MethodGet, path: "/api/tasks/", token: fresh.AccessToken})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_LogoutRevokesRefresh(t *testing.T) {
	ts := newTestServer(t)
	_, cookie := ts.login(t)

	rec := ts.do(t, call{method: http.MethodPost, path: "/api/auth/logout", cookie: cookie})
	require.Equal(t, http.StatusOK, rec.Code)
	cleared := refreshCookie(rec)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)

	rec = ts.do(t, call{method: http.MethodGet, path: "/api/refresh/token", cookie: cookie})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestServer_AuthenticatedUser(t *testing.T) {
	ts := newTestServer(t)
	resp, cookie := ts.login(t)

	rec := ts.do(t, call{method: http.MethodPost, path: "/api/users/authenticated", token: resp.Token})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, resp.Token, decode[chartago.AuthResponse](t, rec).Token)

	ts.now = ts.now.Add(2 * time.Minute)

	rec = ts.do(t, call{method: http.MethodPost, path: "/api/users/authenticated", token: resp.Token, cookie: cookie})
	require.Equal(t, http.StatusOK, rec.Code)
	viaCookie := decode[chartago.AuthResponse](t, rec)
	assert.NotEmpty(t, viaCookie.Token)
	assert.Equal(t, "demo", viaCookie.User.Username)

	rec = ts.do(t, call{method: http.MethodPost, path: "/api/users/authenticated"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServer_TaskLifecycle(t *testing.T) {
	ts := newTestServer(t)
	resp, _ := ts.login(t)
	project := ts.Store().Projects()[0]

	rec := ts.do(t, call{
		method: http.MethodPost,
		path:   "/api/tasks/" + itoa(project.ID),
		token:  resp.Token,
		body:   chartago.CreateTaskParams{Title: "Ship it", Priority: chartago.TaskPriorityUrgent},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	task := decode[chartago.Task](t, rec)
	assert.Equal(t, chartago.TaskStatusToDo, task.Status)
	assert.Equal(t, resp.User.UserID, task.AuthorUserID)

	rec = ts.do(t, call{
		method: http.MethodPatch,
		path:   "/api/tasks/" + itoa(task.ID) + "/status",
		token:  resp.Token,
		body:   map[string]string{"status": "Nope"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, call{
		method: http.MethodPatch,
		path:   "/api/tasks/" + itoa(task.ID) + "/status",
		token:  resp.Token,
		body:   map[string]chartago.TaskStatus{"status": chartago.TaskStatusCompleted},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, chartago.TaskStatusCompleted, decode[chartago.Task](t, rec).Status)

	rec = ts.do(t, call{
		method: http.MethodPost,
		path:   "/api/tasks/assign/task",
		token:  resp.Token,
		body:   map[string]int{"taskId": task.ID, "userId": resp.User.UserID},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(t, call{method: http.MethodGet, path: "/api/tasks/" + itoa(task.ID) + "/assignees", token: resp.Token})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]chartago.TeamMember](t, rec), 1)

	rec = ts.do(t, call{method: http.MethodDelete, path: "/api/tasks/" + itoa(task.ID) + "/users/" + itoa(resp.User.UserID), token: resp.Token})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, call{method: http.MethodDelete, path: "/api/tasks/" + itoa(task.ID), token: resp.Token})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, call{method: http.MethodDelete, path: "/api/tasks/" + itoa(task.ID), token: resp.Token})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_ProjectRoutes(t *testing.T) {
	ts := newTestServer(t)
	resp, _ := ts.login(t)

	rec := ts.do(t, call{method: http.MethodPost, path: "/api/projects", token: resp.Token, body: map[string]string{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, call{method: http.MethodPost, path: "/api/projects", token: resp.Token, body: chartago.CreateProjectParams{Name: "Gemini"}})
	require.Equal(t, http.StatusCreated, rec.Code)
	project := decode[chartago.Project](t, rec)

	rec = ts.do(t, call{method: http.MethodGet, path: "/api/projects/" + itoa(project.ID) + "/team", token: resp.Token})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]chartago.TeamMember](t, rec), 2, "creator's team owns the project")

	rec = ts.do(t, call{method: http.MethodGet, path: "/api/projects/abc", token: resp.Token})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, call{method: http.MethodDelete, path: "/api/projects/" + itoa(project.ID), token: resp.Token})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, call{method: http.MethodGet, path: "/api/projects/" + itoa(project.ID), token: resp.Token})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_UpdateUserOnlySelf(t *testing.T) {
	ts := newTestServer(t)
	resp, _ := ts.login(t)

	rec := ts.do(t, call{
		method: http.MethodPatch,
		path:   "/api/users/" + itoa(resp.User.UserID+100),
		token:  resp.Token,
		body:   map[string]string{"username": "x"},
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(t, call{
		method: http.MethodPatch,
		path:   "/api/users/" + itoa(resp.User.UserID),
		token:  resp.Token,
		body:   map[string]string{"username": "demo2"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "demo2", decode[chartago.User](t, rec).Username)
}

func TestServer_TeamRoutes(t *testing.T) {
	ts := newTestServer(t)
	resp, _ := ts.login(t)

	rec := ts.do(t, call{method: http.MethodGet, path: "/api/teams", token: resp.Token})
	require.Equal(t, http.StatusOK, rec.Code)
	teams := decode[[]chartago.Team](t, rec)
	require.Len(t, teams, 1)
	team := teams[0]

	var sam *chartago.TeamMember
	for _, m := range team.Members {
		if m.Username == "sam" {
			sam = m
		}
	}
	require.NotNil(t, sam)

	rec = ts.do(t, call{
		method: http.MethodPatch,
		path:   "/api/teams/" + itoa(team.ID) + "/members/" + itoa(sam.UserID) + "/role",
		token:  resp.Token,
		body:   map[string]string{"newRole": "Tester"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Tester", decode[chartago.TeamMember](t, rec).Role)

	rec = ts.do(t, call{method: http.MethodDelete, path: "/api/teams/" + itoa(team.ID) + "/members/" + itoa(sam.UserID), token: resp.Token})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, call{
		method: http.MethodPost,
		path:   "/api/teams/members",
		token:  resp.Token,
		body:   chartago.AddTeamMemberParams{TeamID: team.ID, UserID: sam.UserID, Role: "Developer"},
	})
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestServer_Metrics(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t)
	ts.do(t, call{method: http.MethodGet, path: "/api/refresh/token"})

	rec := ts.do(t, call{method: http.MethodGet, path: "/metrics"})
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `chartago_auth_events_total{event="login",outcome="success"} 1`)
	assert.Contains(t, body, `chartago_token_refreshes_total{outcome="failure"} 1`)
	assert.Contains(t, body, `route="/api/auth/login"`)
}

func TestServer_TwoServersInOneProcess(t *testing.T) {
	newTestServer(t)
	newTestServer(t)
}

func TestServer_CORSAllowsConfiguredOrigin(t *testing.T) {
	cfg := &config.ServerConfig{
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
		CORSOrigins:     []string{"http://localhost:3000"},
	}
	srv, err := New(cfg, nil, &Options{BcryptCost: bcrypt.MinCost})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodOptions, "/api/projects", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}
