package consolesdk

import (
	"context"
	"net/http"
)

// CheckLiveness calls the sales service liveness endpoint. Any 2xx is
// success; the body is not interpreted.
func (c *Client) CheckLiveness(ctx context.Context) error {
	resp, err := c.do(ctx, c.salesRequest(http.MethodGet, "/liveness", nil))
	if err != nil {
		return err
	}

	return checkStatus(BackendSales, resp)
}

// CheckReadiness calls the sales service readiness endpoint.
func (c *Client) CheckReadiness(ctx context.Context) error {
	resp, err := c.do(ctx, c.salesRequest(http.MethodGet, "/readiness", nil))
	if err != nil {
		return err
	}

	return checkStatus(BackendSales, resp)
}

// CheckAuthLiveness calls the auth service, which mounts the same check
// routes under its root rather than under /v1/auth.
func (c *Client) CheckAuthLiveness(ctx context.Context) error {
	r := c.authRequest(http.MethodGet, "/v1/liveness", nil)
	r.baseURL = c.authRootURL()

	resp, err := c.do(ctx, r)
	if err != nil {
		return err
	}

	return checkStatus(BackendAuth, resp)
}
