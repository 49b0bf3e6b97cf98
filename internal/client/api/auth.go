package api

import (
	"context"
	"net/http"

	"mitaict-site/internal/client/session"
)

// AuthClient is the remote half of the admin session. It implements
// session.Authenticator.
type AuthClient struct {
	client *Client
}

var _ session.Authenticator = (*AuthClient)(nil)

// TokenResponse is the login response body.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type googleLoginRequest struct {
	Code string `json:"code"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// Login exchanges a username and password for a bearer token.
func (a *AuthClient) Login(ctx context.Context, creds session.Credentials) (string, error) {
	var resp TokenResponse
	if err := a.client.do(ctx, request{method: http.MethodPost, path: "/admin/login", body: creds, anonymous: true}, &resp); err != nil {
		return "", err
	}
	return resp.AccessToken, nil
}

// LoginFederated exchanges a Google authorization code for a bearer token.
func (a *AuthClient) LoginFederated(ctx context.Context, code string) (string, error) {
	var resp TokenResponse
	if err := a.client.do(ctx, request{method: http.MethodPost, path: "/admin/google-login", body: googleLoginRequest{Code: code}, anonymous: true}, &resp); err != nil {
		return "", err
	}
	return resp.AccessToken, nil
}

func (a *AuthClient) Logout(ctx context.Context, token string) error {
	return a.client.do(ctx, request{method: http.MethodPost, path: "/admin/logout", token: token}, nil)
}

func (a *AuthClient) ChangePassword(ctx context.Context, token, current, next string) error {
	return a.client.do(ctx, request{
		method: http.MethodPost,
		path:   "/admin/change-password",
		body:   changePasswordRequest{CurrentPassword: current, NewPassword: next},
		token:  token,
	}, nil)
}
