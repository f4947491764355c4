package client

import (
	"context"
	"net/http"

	"avocare/models"
)

func (c *Client) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	var resp models.LoginResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/users/login", "/api/users/login", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (*models.StatusResponse, error) {
	var resp models.StatusResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/users/register", "/api/users/register", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ResendVerification(ctx context.Context, email string) (*models.StatusResponse, error) {
	var resp models.StatusResponse
	req := models.ResendVerificationRequest{Email: email}
	if err := c.doJSON(ctx, http.MethodPost, "/api/users/resend-verification", "/api/users/resend-verification", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
