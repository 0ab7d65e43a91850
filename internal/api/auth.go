package api

import (
	"context"
	"net/http"
)

// credentials is the wire form for login and register requests.
type credentials struct {
	Name     string `json:"name"`
	Password string `json:"password"`
	Language string `json:"language,omitempty"`
}

// tokenResponse carries the bearer credential issued on login/register.
type tokenResponse struct {
	Token string `json:"token"`
}

// Login exchanges username/password for a bearer token.
func (c *Client) Login(ctx context.Context, name, password string) (string, error) {
	resp, err := c.do(ctx, http.MethodPost, "/auth/login", credentials{Name: name, Password: password})
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", statusError(resp)
	}

	var issued tokenResponse
	if err := decode(resp, &issued); err != nil {
		return "", err
	}
	return issued.Token, nil
}

// Register creates an account and returns its bearer token.
func (c *Client) Register(ctx context.Context, name, password, language string) (string, error) {
	resp, err := c.do(ctx, http.MethodPost, "/auth/register", credentials{Name: name, Password: password, Language: language})
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", statusError(resp)
	}

	var issued tokenResponse
	if err := decode(resp, &issued); err != nil {
		return "", err
	}
	return issued.Token, nil
}

// Me returns the identity bound to the current credential.
func (c *Client) Me(ctx context.Context) (*User, error) {
	resp, err := c.do(ctx, http.MethodGet, "/auth/me", nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var user User
	if err := decode(resp, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
