package main

import (
	"context"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/chartagopm-go/internal/config"
	"github.com/eshaffer321/chartagopm-go/pkg/chartago"
)

// TestServerInitialization verifies that the server can initialize without panicking
// This catches jsonschema validation errors and other startup issues
func TestServerInitialization(t *testing.T) {
	client := &chartago.Client{}

	impl := &mcp.Implementation{
		Name:    "chartagopm",
		Version: "1.0.0",
	}

	server := mcp.NewServer(impl, nil)

	// This should not panic - if it does, the test fails
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("Server initialization panicked: %v", r)
		}
	}()

	registerTools(server, client)
}

func TestSignIn(t *testing.T) {
	url := startDevServer(t)
	ctx := context.Background()

	t.Run("without credentials", func(t *testing.T) {
		client := newClient(t, url)
		err := signIn(ctx, client, &config.ClientConfig{})
		assert.ErrorIs(t, err, chartago.ErrNotAuthenticated)
	})

	t.Run("with credentials", func(t *testing.T) {
		client := newClient(t, url)
		err := signIn(ctx, client, &config.ClientConfig{Email: "demo@chartago.dev", Password: "password123"})
		require.NoError(t, err)
		assert.True(t, client.Session().Authenticated())
	})

	t.Run("already signed in", func(t *testing.T) {
		client := signedInClient(t, url)
		token := client.Session().Token
		require.NoError(t, signIn(ctx, client, &config.ClientConfig{}))
		assert.Equal(t, token, client.Session().Token)
	})
}
