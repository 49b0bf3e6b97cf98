package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// GoogleIdentity verifies admin logins against Google OAuth.
type GoogleIdentity struct {
	config      *oauth2.Config
	userInfoURL string
	httpClient  *http.Client
}

// NewGoogleIdentity returns nil when the client credentials are missing.
func NewGoogleIdentity(clientID, clientSecret, redirectURL string) *GoogleIdentity {
	if clientID == "" || clientSecret == "" {
		return nil
	}
	return &GoogleIdentity{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     google.Endpoint,
			RedirectURL:  redirectURL,
			Scopes:       []string{"email", "profile"},
		},
		userInfoURL: googleUserInfoURL,
	}
}

// AuthCodeURL is the consent page the admin UI redirects to.
func (g *GoogleIdentity) AuthCodeURL(state string) string {
	return g.config.AuthCodeURL(state)
}

func (g *GoogleIdentity) VerifiedEmail(ctx context.Context, code string) (string, error) {
	if g.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, g.httpClient)
	}

	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("token exchange failed: %w", err)
	}

	client := g.config.Client(ctx, token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create userinfo request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch Google user: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("google API returned status %d", resp.StatusCode)
	}

	var data struct {
		Email         string `json:"email"`
		VerifiedEmail bool   `json:"verified_email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", fmt.Errorf("failed to decode Google user response: %w", err)
	}
	if data.Email == "" || !data.VerifiedEmail {
		return "", errors.New("google account email is not verified")
	}
	return data.Email, nil
}
