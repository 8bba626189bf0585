package api

import (
	"context"
	"net/http"
	"net/url"

	"booksy/internal/model"
)

// Login handles POST auth/login.
func (c *httpClient) Login(ctx context.Context, req model.LoginRequest) (*model.AuthResponse, error) {
	var resp model.AuthResponse
	if err := c.do(ctx, "auth.login", http.MethodPost, "auth/login", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register handles POST auth/signup.
func (c *httpClient) Register(ctx context.Context, req model.RegisterRequest) (*model.AuthResponse, error) {
	var resp model.AuthResponse
	if err := c.do(ctx, "auth.signup", http.MethodPost, "auth/signup", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CurrentUser handles GET auth/me/{userId}.
func (c *httpClient) CurrentUser(ctx context.Context, userID string) (*model.User, error) {
	var user model.User
	if err := c.do(ctx, "auth.me", http.MethodGet, "auth/me/"+url.PathEscape(userID), nil, &user); err != nil {
		return nil, err
	}
	// Password is never kept client-side.
	user.Password = nil
	return &user, nil
}
