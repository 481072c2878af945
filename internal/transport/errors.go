package transport

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/eshaffer321/chartagopm-go/internal/types"
	"github.com/pkg/errors"
)

// Decode maps a non-2xx response to an error, or unmarshals a 2xx body into v
func Decode(resp *Response, v interface{}) error {
	if err := HTTPError(resp); err != nil {
		return err
	}

	if v != nil && len(resp.Body) > 0 {
		if err := json.Unmarshal(resp.Body, v); err != nil {
			return errors.Wrap(err, "failed to parse response")
		}
	}

	return nil
}

// HTTPError returns nil for 2xx responses and a typed error otherwise
func HTTPError(resp *Response) error {
	if resp.OK() {
		return nil
	}

	err := handleHTTPError(resp.StatusCode, resp.Body)
	if apiErr, ok := err.(*types.Error); ok {
		apiErr.RequestID = resp.RequestID
	}
	return err
}

// handleHTTPError handles HTTP errors
func handleHTTPError(statusCode int, body []byte) error {
	var errResp struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}

	_ = json.Unmarshal(body, &errResp)

	msg := errResp.Error
	if msg == "" {
		msg = errResp.Message
	}

	switch statusCode {
	case http.StatusUnauthorized:
		return &types.Error{
			Code:       "NOT_AUTHENTICATED",
			Message:    msgOr(msg, "not authenticated"),
			StatusCode: statusCode,
			Err:        types.ErrNotAuthenticated,
		}
	case http.StatusForbidden:
		return &types.Error{
			Code:       "AUTH_EXPIRED",
			Message:    msgOr(msg, "access token expired"),
			StatusCode: statusCode,
			Err:        types.ErrAuthExpired,
		}
	case http.StatusNotFound:
		return &types.Error{
			Code:       "NOT_FOUND",
			Message:    msgOr(msg, "resource not found"),
			StatusCode: statusCode,
			Err:        types.ErrNotFound,
		}
	case http.StatusTooManyRequests:
		return &types.Error{
			Code:       "RATE_LIMITED",
			Message:    msgOr(msg, "rate limited"),
			StatusCode: statusCode,
			Err:        types.ErrRateLimited,
		}
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return &types.Error{
			Code:       "TIMEOUT",
			Message:    msgOr(msg, "request timeout"),
			StatusCode: statusCode,
			Err:        types.ErrTimeout,
		}
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		return &types.Error{
			Code:       "BAD_REQUEST",
			Message:    msgOr(msg, http.StatusText(statusCode)),
			StatusCode: statusCode,
			Err:        types.ErrInvalidRequest,
		}
	default:
		if statusCode >= 500 {
			baseMsg := fmt.Sprintf("server error: %d", statusCode)
			if desc := httpStatusDescription(statusCode); desc != "" {
				baseMsg = fmt.Sprintf("server error: %d (%s)", statusCode, desc)
			}

			if msg != "" {
				baseMsg = fmt.Sprintf("%s: %s", baseMsg, msg)
			}

			return &types.Error{
				Code:       "SERVER_ERROR",
				Message:    baseMsg,
				StatusCode: statusCode,
				Err:        types.ErrServerError,
			}
		}
		return &types.Error{
			Code:       "HTTP_ERROR",
			Message:    msgOr(msg, fmt.Sprintf("HTTP error: %d", statusCode)),
			StatusCode: statusCode,
		}
	}
}

func msgOr(msg, fallback string) string {
	if msg != "" {
		return msg
	}
	return fallback
}

// httpStatusDescription returns a human-readable description for common HTTP status codes.
func httpStatusDescription(statusCode int) string {
	descriptions := map[int]string{
		500: "Internal Server Error",
		501: "Not Implemented",
		502: "Bad Gateway",
		503: "Service Unavailable",
		504: "Gateway Timeout",
		520: "Web Server Error",
		521: "Web Server Is Down",
		522: "Connection Timed Out",
		523: "Origin Is Unreachable",
		524: "A Timeout Occurred",
		525: "SSL Handshake Failed",
		526: "Invalid SSL Certificate",
	}
	return descriptions[statusCode]
}
