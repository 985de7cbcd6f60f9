package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ugel-satipo/portal/internal/cli/api"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success bool      `json:"success"`
	Token   string    `json:"token"`
	User    *api.User `json:"usuario"`
}

type meResponse struct {
	Success bool      `json:"success"`
	User    *api.User `json:"usuario"`
}

// Login authenticates with email and password. The request is sent without
// the stored token, so a rejection never touches the current session.
func (c *Client) Login(ctx context.Context, email, password string) (*api.LoginResult, error) {
	r, err := jsonRequest(http.MethodPost, "/auth/login", loginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	var resp loginResponse
	if err := c.do(withoutCredentials(ctx), r, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" || resp.User == nil {
		return nil, fmt.Errorf("%w: login response without token or user", ErrTransport)
	}
	return &api.LoginResult{Token: resp.Token, User: resp.User}, nil
}

// Me returns the authoritative record of the user owning the stored token
func (c *Client) Me(ctx context.Context) (*api.User, error) {
	var resp meResponse
	if err := c.do(ctx, request{method: http.MethodGet, path: "/auth/me"}, &resp); err != nil {
		return nil, err
	}
	if resp.User == nil {
		return nil, fmt.Errorf("%w: session response without user", ErrTransport)
	}
	return resp.User, nil
}

// ChangePassword changes the logged-in user's password
func (c *Client) ChangePassword(ctx context.Context, current, next string) error {
	r, err := jsonRequest(http.MethodPost, "/auth/cambiar-password", map[string]string{
		"passwordActual": current,
		"passwordNuevo":  next,
	})
	if err != nil {
		return err
	}
	return c.do(ctx, r, nil)
}

// Health is the API's /health answer
type Health struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// Health reports whether the API is up and which version it runs
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.do(ctx, request{method: http.MethodGet, path: "/health"}, &h); err != nil {
		return nil, err
	}
	return &h, nil
}
