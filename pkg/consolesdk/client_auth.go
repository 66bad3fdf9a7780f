package consolesdk

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

// Login exchanges operator credentials for a bearer token using HTTP Basic
// authentication against the auth service's token endpoint.
//
// Rejections (any non-2xx, including 401) and responses without a token are
// returned as *AuthError. OnUnauthorized is not invoked.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	credentials := base64.StdEncoding.EncodeToString([]byte(email + ":" + password))

	resp, err := c.do(ctx, request{
		backend: BackendAuth,
		baseURL: c.AuthBaseURL,
		method:  http.MethodGet,
		path:    "/token/" + c.TokenKeyID,
		headers: map[string]string{
			"Authorization": "Basic " + credentials,
		},
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &NetworkError{Backend: BackendAuth, Op: "read token response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := http.StatusText(resp.StatusCode)
		if apiErr, ok := parseErrorResponse(BackendAuth, resp.StatusCode, bodyBytes).(*APIError); ok && apiErr.Message != "" {
			msg = apiErr.Message
		}
		return "", &AuthError{StatusCode: resp.StatusCode, Message: msg}
	}

	var tokenResp TokenResponse
	if err := json.Unmarshal(bodyBytes, &tokenResp); err != nil {
		return "", &AuthError{StatusCode: resp.StatusCode, Message: "malformed token response"}
	}

	if strings.TrimSpace(tokenResp.Token) == "" {
		return "", &AuthError{StatusCode: resp.StatusCode, Message: "token response has no token"}
	}

	return tokenResp.Token, nil
}
