package apiclient

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// APIError is an error response. Realm faults carry the realm error code
// name in Code.
type APIError struct {
	StatusCode int    `json:"status"`
	Title      string `json:"title"`
	Detail     string `json:"detail,omitempty"`
	Code       string `json:"code,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	msg := e.Detail
	if msg == "" {
		msg = e.Title
	}
	if e.Code != "" {
		return fmt.Sprintf("%d %s: %s", e.StatusCode, e.Code, msg)
	}
	return fmt.Sprintf("%d: %s", e.StatusCode, msg)
}

// IsAuthError reports a missing, invalid, or expired token.
func (e *APIError) IsAuthError() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// IsUnavailable reports that the server could not reach a data source.
func (e *APIError) IsUnavailable() bool {
	return e.StatusCode == http.StatusServiceUnavailable
}

// parseError builds an APIError from a problem document, falling back to
// the raw body.
func parseError(status int, body []byte) *APIError {
	var apiErr APIError
	if json.Unmarshal(body, &apiErr) == nil && (apiErr.Title != "" || apiErr.Detail != "") {
		apiErr.StatusCode = status
		return &apiErr
	}
	return &APIError{
		StatusCode: status,
		Title:      http.StatusText(status),
		Detail:     strings.TrimSpace(string(body)),
	}
}
