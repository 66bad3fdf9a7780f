package consolesdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// request describes a single upstream call.
type request struct {
	backend Backend
	baseURL string
	method  string
	path    string
	body    any
	headers map[string]string

	// authenticated calls carry the Authorizer's bearer token and trigger
	// OnUnauthorized on 401
	authenticated bool
}

func (c *Client) authRequest(method, path string, body any) request {
	return request{
		backend:       BackendAuth,
		baseURL:       c.AuthBaseURL,
		method:        method,
		path:          path,
		body:          body,
		authenticated: true,
	}
}

func (c *Client) salesRequest(method, path string, body any) request {
	return request{
		backend:       BackendSales,
		baseURL:       c.SalesBaseURL,
		method:        method,
		path:          path,
		body:          body,
		authenticated: true,
	}
}

// do performs the request. Transport failures come back as *NetworkError and
// a 401 on an authenticated call as *UnauthorizedError; any other response is
// returned for the caller to decode.
func (c *Client) do(ctx context.Context, r request) (*http.Response, error) {
	var body io.Reader
	if r.body != nil {
		payload, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, r.baseURL+r.path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	var sent string
	if r.authenticated && c.Authorizer != nil {
		if token, ok := c.Authorizer.Authorization(ctx); ok {
			req.Header.Set("Authorization", "Bearer "+token)
			sent = token
		}
	}

	// Custom headers win over the defaults above
	for key, value := range r.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.observe(r, 0, start)
		return nil, &NetworkError{Backend: r.backend, Op: r.method + " " + r.path, Err: err}
	}
	c.observe(r, resp.StatusCode, start)

	if r.authenticated && resp.StatusCode == http.StatusUnauthorized {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()

		if c.OnUnauthorized != nil {
			c.OnUnauthorized(ctx, sent)
		}

		return nil, &UnauthorizedError{Backend: r.backend, Method: r.method, Path: r.path}
	}

	return resp, nil
}

func (c *Client) observe(r request, status int, start time.Time) {
	if c.Observer != nil {
		c.Observer(r.backend, r.method, status, time.Since(start))
	}
}

// decodeJSON decodes a 2xx JSON response into target. Non-2xx responses are
// turned into an *APIError.
func decodeJSON(backend Backend, resp *http.Response, target any) error {
	defer resp.Body.Close()

	// Read body once for both error parsing and success decoding
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Backend: backend, Op: "read response", Err: err}
	}

	if err := parseErrorResponse(backend, resp.StatusCode, bodyBytes); err != nil {
		return err
	}

	if err := json.Unmarshal(bodyBytes, target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// checkStatus discards the body and returns an *APIError for non-2xx responses.
func checkStatus(backend Backend, resp *http.Response) error {
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Backend: backend, Op: "read response", Err: err}
	}

	return parseErrorResponse(backend, resp.StatusCode, bodyBytes)
}
