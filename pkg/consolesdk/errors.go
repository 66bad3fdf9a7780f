package consolesdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ============================================================================
// Typed Errors
// ============================================================================

// AuthError is returned by Login when the auth service rejects the
// credentials or answers without a usable token.
type AuthError struct {
	// StatusCode is the HTTP status of the token response (200 when the body was malformed)
	StatusCode int

	// Message describes why the login failed
	Message string
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	return fmt.Sprintf("login failed (%d): %s", e.StatusCode, e.Message)
}

// UnauthorizedError is returned when an authenticated call receives 401.
type UnauthorizedError struct {
	Backend Backend
	Method  string
	Path    string
}

// Error implements the error interface.
func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("%s %s %s: unauthorized", e.Backend, e.Method, e.Path)
}

// APIError is returned for any non-2xx response other than 401.
type APIError struct {
	Backend    Backend
	StatusCode int

	// Code and Message come from the backend error body when it has one
	Code    string
	Message string

	// Fields holds per-field validation failures reported by the backend
	Fields []FieldError
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %d %s: %s", e.Backend, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %d: %s", e.Backend, e.StatusCode, e.Message)
}

// FieldError is a single field failure reported by the sales service.
type FieldError struct {
	Field string `json:"field"`
	Err   string `json:"error"`
}

// NetworkError wraps a transport failure: the backend was never reached or
// the response could not be read.
type NetworkError struct {
	Backend Backend
	Op      string
	Err     error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Backend, e.Op, e.Err)
}

// Unwrap returns the underlying transport error.
func (e *NetworkError) Unwrap() error { return e.Err }

// IsUnauthorized reports whether err is, or wraps, an *UnauthorizedError.
func IsUnauthorized(err error) bool {
	var ue *UnauthorizedError
	return errors.As(err, &ue)
}

// ============================================================================
// Error Parsing Helpers
// ============================================================================

// errorBody is the error document written by the backends:
// {"code": "invalid_argument", "message": "..."}. For validation failures the
// message itself is a JSON array of field errors.
type errorBody struct {
	Code    json.RawMessage `json:"code"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

// parseErrorResponse turns a non-2xx response into an *APIError.
// Returns nil if the response indicates success (2xx status code).
func parseErrorResponse(backend Backend, statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	apiErr := &APIError{
		Backend:    backend,
		StatusCode: statusCode,
	}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		apiErr.Code = rawCode(eb.Code)
		apiErr.Message = eb.Message
		if apiErr.Message == "" {
			apiErr.Message = eb.Error
		}

		var fields []FieldError
		if strings.HasPrefix(strings.TrimSpace(eb.Message), "[") {
			if err := json.Unmarshal([]byte(eb.Message), &fields); err == nil {
				apiErr.Fields = fields
			}
		}
	}

	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(statusCode)
	}

	return apiErr
}

// rawCode accepts both string and numeric error codes.
func rawCode(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	return strings.TrimSpace(string(raw))
}
