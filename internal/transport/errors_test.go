package transport

import (
	"testing"

	"github.com/eshaffer321/chartagopm-go/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleHTTPError_ServerError_IncludesResponseBody(t *testing.T) {
	tests := []struct {
		name          string
		statusCode    int
		responseBody  []byte
		expectedInMsg string
	}{
		{
			name:          "525 SSL Handshake Failed with HTML body",
			statusCode:    525,
			responseBody:  []byte(`<html><body>SSL Handshake Failed</body></html>`),
			expectedInMsg: "525",
		},
		{
			name:          "500 with JSON error message",
			statusCode:    500,
			responseBody:  []byte(`{"message": "Database connection failed"}`),
			expectedInMsg: "Database connection failed",
		},
		{
			name:          "502 Bad Gateway with empty body",
			statusCode:    502,
			responseBody:  []byte{},
			expectedInMsg: "Bad Gateway",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := handleHTTPError(tt.statusCode, tt.responseBody)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedInMsg)
			assert.ErrorIs(t, err, types.ErrServerError)
		})
	}
}

func TestHandleHTTPError_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		sentinel   error
		code       string
		message    string
	}{
		{"401", 401, `{}`, types.ErrNotAuthenticated, "NOT_AUTHENTICATED", "not authenticated"},
		{"403", 403, `{"message":"Invalid token"}`, types.ErrAuthExpired, "AUTH_EXPIRED", "Invalid token"},
		{"404", 404, ``, types.ErrNotFound, "NOT_FOUND", "resource not found"},
		{"429", 429, ``, types.ErrRateLimited, "RATE_LIMITED", "rate limited"},
		{"408", 408, ``, types.ErrTimeout, "TIMEOUT", "request timeout"},
		{"400 error field", 400, `{"error":"Email already in use"}`, types.ErrInvalidRequest, "BAD_REQUEST", "Email already in use"},
		{"418", 418, ``, nil, "HTTP_ERROR", "HTTP error: 418"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := handleHTTPError(tt.statusCode, []byte(tt.body))

			var apiErr *types.Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.code, apiErr.Code)
			assert.Equal(t, tt.statusCode, apiErr.StatusCode)
			assert.Equal(t, tt.message, apiErr.Message)
			if tt.sentinel != nil {
				assert.ErrorIs(t, err, tt.sentinel)
			}
		})
	}
}

func TestDecode(t *testing.T) {
	var out struct {
		AccessToken string `json:"accessToken"`
	}

	err := Decode(&Response{StatusCode: 200, Body: []byte(`{"accessToken":"abc"}`)}, &out)
	require.NoError(t, err)
	assert.Equal(t, "abc", out.AccessToken)

	err = Decode(&Response{StatusCode: 200, Body: []byte(`not json`)}, &out)
	assert.Error(t, err)

	err = Decode(&Response{StatusCode: 404, RequestID: "req-1"}, &out)
	var apiErr *types.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "req-1", apiErr.RequestID)

	assert.NoError(t, Decode(&Response{StatusCode: 204}, nil))
}
