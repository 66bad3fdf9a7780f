package consolesdk

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// DefaultTokenKeyID is the key id the auth service issues console tokens under.
const DefaultTokenKeyID = "54bb2165-71e1-41a6-af3e-7da4a0e1e2c1"

// Backend names a logical upstream service.
type Backend string

const (
	BackendAuth  Backend = "auth"
	BackendSales Backend = "sales"
)

// Observer receives one call per completed upstream request. Status is 0 when
// the request failed before a response was received.
type Observer func(backend Backend, method string, status int, elapsed time.Duration)

// Client is a client for the console's auth and sales backends.
type Client struct {
	AuthBaseURL  string
	SalesBaseURL string
	TokenKeyID   string
	HTTPClient   *http.Client

	// Authorizer supplies the bearer token for every call except Login.
	// A nil Authorizer sends requests without credentials.
	Authorizer Authorizer

	// OnUnauthorized is called for every 401 on an authenticated call with
	// the token that call carried ("" when none was sent).
	OnUnauthorized func(ctx context.Context, token string)

	// Observer is optional and used for metrics.
	Observer Observer
}

// NewClient creates a client for the given backend base URLs, e.g.
// "http://localhost:6000/v1/auth" and "http://localhost:3000/v1".
func NewClient(authBaseURL, salesBaseURL string) *Client {
	return &Client{
		AuthBaseURL:  strings.TrimSuffix(authBaseURL, "/"),
		SalesBaseURL: strings.TrimSuffix(salesBaseURL, "/"),
		TokenKeyID:   DefaultTokenKeyID,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// authRootURL strips the "/v1/auth" prefix from the auth base URL so the
// service-level check routes can be reached.
func (c *Client) authRootURL() string {
	return strings.TrimSuffix(c.AuthBaseURL, "/v1/auth")
}
