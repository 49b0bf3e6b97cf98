package api

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"mitaict-site/internal/domain"
)

// ContactResponse is the reply to a contact form submission.
type ContactResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (c *Client) About(ctx context.Context) (*domain.AboutContent, error) {
	var about domain.AboutContent
	if err := c.get(ctx, "/about", &about); err != nil {
		return nil, err
	}
	return &about, nil
}

func (c *Client) UpdateAbout(ctx context.Context, about domain.AboutContent) (*domain.AboutContent, error) {
	var updated domain.AboutContent
	if err := c.put(ctx, "/admin/about", about, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Integrations returns the full integration settings, secrets included.
func (c *Client) Integrations(ctx context.Context) (*domain.SocialIntegrations, error) {
	var integrations domain.SocialIntegrations
	if err := c.get(ctx, "/admin/social-integrations", &integrations); err != nil {
		return nil, err
	}
	return &integrations, nil
}

func (c *Client) UpdateIntegrations(ctx context.Context, integrations domain.SocialIntegrations) (*domain.SocialIntegrations, error) {
	var updated domain.SocialIntegrations
	if err := c.put(ctx, "/admin/social-integrations", integrations, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// TrackingConfig returns the public per-platform tracking switches.
func (c *Client) TrackingConfig(ctx context.Context) (domain.TrackingConfig, error) {
	var cfg domain.TrackingConfig
	err := c.get(ctx, "/tracking-config", &cfg)
	return cfg, err
}

func (c *Client) SubmitContact(ctx context.Context, submission domain.ContactSubmission) (*ContactResponse, error) {
	var resp ContactResponse
	if err := c.post(ctx, "/contact", submission, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) SendChatMessage(ctx context.Context, req domain.ChatRequest) (*domain.ChatReply, error) {
	var reply domain.ChatReply
	if err := c.post(ctx, "/chat/message", req, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// ExportContacts streams the contact export in format. The caller closes the
// returned reader.
func (c *Client) ExportContacts(ctx context.Context, format string) (io.ReadCloser, error) {
	resp, err := c.send(ctx, request{
		method: http.MethodGet,
		path:   "/admin/contacts/export/" + url.PathEscape(format),
	})
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// Me returns the admin owning the current session.
func (c *Client) Me(ctx context.Context) (*domain.Admin, error) {
	var admin domain.Admin
	if err := c.get(ctx, "/admin/me", &admin); err != nil {
		return nil, err
	}
	return &admin, nil
}
