package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrNotConfigured is returned when a client is used before it has a valid
// configuration.
var ErrNotConfigured = errors.New("client is not configured")

// APIError is returned for every non-2xx response.
type APIError struct {
	// StatusCode is the HTTP status of the response.
	StatusCode int

	// Message is the server-provided error message, or the raw body when the
	// body is not a structured error.
	Message string

	// RequestID is the X-Request-Id sent with the failing request.
	RequestID string

	// Missing lists identifiers the server reported as unknown.
	Missing []map[string]any

	// Duplicated lists identifiers the server reported as duplicates.
	Duplicated []map[string]any
}

func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("API error (status %d, request %s): %s", e.StatusCode, e.RequestID, e.Message)
	}
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is an APIError with status 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// newAPIError builds an APIError from a response body of the form
// {"error": {"code": 400, "message": "...", "missing": [...]}}.
func newAPIError(statusCode int, body []byte, requestID string) *APIError {
	apiErr := &APIError{
		StatusCode: statusCode,
		RequestID:  requestID,
	}

	var payload struct {
		Error struct {
			Code       int              `json:"code"`
			Message    string           `json:"message"`
			Missing    []map[string]any `json:"missing"`
			Duplicated []map[string]any `json:"duplicated"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error.Message != "" {
		apiErr.Message = payload.Error.Message
		apiErr.Missing = payload.Error.Missing
		apiErr.Duplicated = payload.Error.Duplicated
		return apiErr
	}

	apiErr.Message = string(body)
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(statusCode)
	}
	return apiErr
}

// isRetryableStatus reports whether a response status is worth retrying. Only
// statuses where the server did not act on the request qualify.
func isRetryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
