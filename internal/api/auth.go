package api

import (
	"context"
	"errors"
)

// SignIn exchanges credentials for a bearer token
func (c *Client) SignIn(ctx context.Context, email, password string) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.post(ctx, "/api/auth/signin", SignInRequest{Email: email, Password: password}, &out); err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, errors.New("sign-in response has no token")
	}
	return &out, nil
}

// SignUp creates an account and returns its bearer token
func (c *Client) SignUp(ctx context.Context, req SignUpRequest) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.post(ctx, "/api/auth/signup", req, &out); err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, errors.New("sign-up response has no token")
	}
	return &out, nil
}

// ChatToken exchanges the current session for a chat-service token
func (c *Client) ChatToken(ctx context.Context) (*ChatToken, error) {
	var out ChatToken
	if err := c.post(ctx, "/api/chat/token", nil, &out); err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, errors.New("chat token response has no token")
	}
	return &out, nil
}
