package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/eshaffer321/chartagopm-go/internal/config"
	"github.com/eshaffer321/chartagopm-go/internal/devserver"
	"github.com/eshaffer321/chartagopm-go/pkg/chartago"
)

type cli struct {
	baseURL     string
	sessionFile string
}

func newCLI(t *testing.T) *cli {
	t.Helper()

	for _, key := range []string{"EMAIL", "PASSWORD", "BASE_URL", "SESSION_FILE", "LOG_LEVEL", "MAX_RETRIES", "RATE_LIMIT_RPS"} {
		t.Setenv(config.ClientPrefix+"_"+key, "")
		require.NoError(t, os.Unsetenv(config.ClientPrefix+"_"+key))
	}

	srv, err := devserver.New(&config.ServerConfig{
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
		SeedDemo:        true,
	}, nil, &devserver.Options{BcryptCost: bcrypt.MinCost})
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return &cli{
		baseURL:     ts.URL,
		sessionFile: filepath.Join(t.TempDir(), "session.json"),
	}
}

// run executes one CLI invocation with a fresh app, as a new process would
func (c *cli) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	a := &app{out: &out, in: os.Stdin}
	root := newRootCmd(a)
	root.SetArgs(append([]string{"--base-url", c.baseURL, "--session-file", c.sessionFile}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (c *cli) login(t *testing.T) {
	t.Helper()
	out, err := c.run(t, "login", "--email", "demo@chartago.dev", "--password", "password123")
	require.NoError(t, err, out)
	require.Contains(t, out, "Signed in as demo")
}

func TestCLI_LoginPersistsSession(t *testing.T) {
	c := newCLI(t)
	c.login(t)

	info, err := os.Stat(c.sessionFile)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	out, err := c.run(t, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "demo")
	assert.Contains(t, out, "demo@chartago.dev")
}

func TestCLI_RequiresSession(t *testing.T) {
	c := newCLI(t)

	_, err := c.run(t, "projects", "list")
	require.Error(t, err)
	assert.ErrorIs(t, err, chartago.ErrNotAuthenticated)
	assert.Equal(t, "Please sign in to continue.", chartago.UserMessage(err))
}

func TestCLI_SignsInFromEnvironment(t *testing.T) {
	c := newCLI(t)
	t.Setenv("CHARTAGO_EMAIL", "demo@chartago.dev")
	t.Setenv("CHARTAGO_PASSWORD", "password123")

	out, err := c.run(t, "projects", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Apollo")
}

func TestCLI_LoginValidation(t *testing.T) {
	c := newCLI(t)

	_, err := c.run(t, "login", "--email", "demo@chartago.dev", "--password", " ")
	require.Error(t, err)
	assert.Equal(t, "Please fill in all fields", chartago.UserMessage(err))

	_, err = os.Stat(c.sessionFile)
	assert.True(t, os.IsNotExist(err), "failed login writes no session")
}

func TestCLI_ProjectAndTaskWorkflow(t *testing.T) {
	c := newCLI(t)
	c.login(t)

	out, err := c.run(t, "projects", "create", "Gemini", "--description", "Second", "--start", "2025-01-01")
	require.NoError(t, err)
	assert.Contains(t, out, "CREATED project")

	out, err = c.run(t, "projects", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Gemini")
	assert.Contains(t, out, "2025-01-01")

	out, err = c.run(t, "tasks", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Design board")

	_, err = c.run(t, "tasks", "status", "1", "nonsense")
	require.Error(t, err)
	assert.Contains(t, chartago.UserMessage(err), "Unknown status")

	_, err = c.run(t, "tasks", "create", "abc", "x")
	require.Error(t, err)
	assert.Contains(t, chartago.UserMessage(err), "Invalid project id")
}

func TestCLI_TeamsList(t *testing.T) {
	c := newCLI(t)
	c.login(t)

	out, err := c.run(t, "teams", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Core")
	assert.Contains(t, out, "sam")
}

func TestCLI_LogoutForgetsSession(t *testing.T) {
	c := newCLI(t)
	c.login(t)

	out, err := c.run(t, "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed out")

	_, err = os.Stat(c.sessionFile)
	assert.True(t, os.IsNotExist(err))

	_, err = c.run(t, "whoami")
	assert.ErrorIs(t, err, chartago.ErrNotAuthenticated)
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in   string
		want chartago.TaskStatus
	}{
		{"To Do", chartago.TaskStatusToDo},
		{"todo", chartago.TaskStatusToDo},
		{"work-in-progress", chartago.TaskStatusWorkInProgress},
		{"WIP", chartago.TaskStatusWorkInProgress},
		{"under_review", chartago.TaskStatusUnderReview},
		{"review", chartago.TaskStatusUnderReview},
		{"done", chartago.TaskStatusCompleted},
		{"Completed", chartago.TaskStatusCompleted},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseStatus(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := parseStatus("blocked")
	var verr *chartago.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestParsePriority(t *testing.T) {
	p, err := parsePriority("urgent")
	require.NoError(t, err)
	assert.Equal(t, chartago.TaskPriorityUrgent, p)

	p, err = parsePriority("")
	require.NoError(t, err)
	assert.Empty(t, p)

	_, err = parsePriority("p0")
	assert.Error(t, err)
}

func TestParseDate(t *testing.T) {
	d, err := parseDate("due", "2025-02-01")
	require.NoError(t, err)
	assert.Equal(t, "2025-02-01", formatDate(d))

	d, err = parseDate("due", "")
	require.NoError(t, err)
	assert.Nil(t, d)

	_, err = parseDate("due", "01/02/2025")
	assert.Error(t, err)
}

func TestReadSecretFromPipe(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	_, err = w.WriteString("hunter2\n")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	var out bytes.Buffer
	a := &app{out: &out, in: r}
	secret, err := a.readSecret("Password: ")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", secret)
	assert.Equal(t, "Password: ", out.String())
}
