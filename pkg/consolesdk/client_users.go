package consolesdk

import (
	"context"
	"net/http"
	"net/url"
)

// ListUsers returns every user account known to the sales service.
func (c *Client) ListUsers(ctx context.Context) ([]UserAccount, error) {
	resp, err := c.do(ctx, c.salesRequest(http.MethodGet, "/users", nil))
	if err != nil {
		return nil, err
	}

	var users []UserAccount
	if err := decodeJSON(BackendSales, resp, &users); err != nil {
		return nil, err
	}

	return users, nil
}

// CreateUser creates a user account. The sales service owns every business
// rule (uniqueness, role validity, password policy).
func (c *Client) CreateUser(ctx context.Context, nu NewUser) (*UserAccount, error) {
	resp, err := c.do(ctx, c.salesRequest(http.MethodPost, "/users", nu))
	if err != nil {
		return nil, err
	}

	var user UserAccount
	if err := decodeJSON(BackendSales, resp, &user); err != nil {
		return nil, err
	}

	return &user, nil
}

// UpdateUser changes the non-nil fields of the user with the given id.
func (c *Client) UpdateUser(ctx context.Context, id string, uu UpdateUser) (*UserAccount, error) {
	resp, err := c.do(ctx, c.salesRequest(http.MethodPut, "/users/"+url.PathEscape(id), uu))
	if err != nil {
		return nil, err
	}

	var user UserAccount
	if err := decodeJSON(BackendSales, resp, &user); err != nil {
		return nil, err
	}

	return &user, nil
}

// DeleteUser removes the user with the given id.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	resp, err := c.do(ctx, c.salesRequest(http.MethodDelete, "/users/"+url.PathEscape(id), nil))
	if err != nil {
		return err
	}

	return checkStatus(BackendSales, resp)
}
