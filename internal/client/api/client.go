// Package api is the HTTP client for the site's JSON API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"mitaict-site/internal/client/apierr"
)

const (
	// DefaultBaseURL is the API root of a local site-server.
	DefaultBaseURL = "http://localhost:8080/api"
	// DefaultTimeout is the HTTP client timeout.
	DefaultTimeout = 30 * time.Second

	headerAuthorization = "Authorization"
	headerContentType   = "Content-Type"
	headerUserAgent     = "User-Agent"
	contentTypeJSON     = "application/json"
	userAgent           = "mitactl/1.0"
)

// Authorizer attaches credentials to requests and observes every response.
// session.Manager satisfies it.
type Authorizer interface {
	Attach(req *http.Request) *http.Request
	HandleResponse(resp *http.Response) bool
}

// Client talks to the site API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	auth       Authorizer

	Auth            *AuthClient
	Services        *Collection[Service]
	SaasProducts    *Collection[SaasProduct]
	Contacts        *Collection[Contact]
	ChatSessions    *Collection[ChatSession]
	MeetingRequests *Collection[MeetingRequest]
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithAuthorizer routes every request through a.
func WithAuthorizer(a Authorizer) Option {
	return func(c *Client) {
		c.auth = a
	}
}

// New creates a client for the API rooted at baseURL (".../api").
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}

	c.Auth = &AuthClient{client: c}
	c.Services = newCollection[Service](c, ServiceRoutes)
	c.SaasProducts = newCollection[SaasProduct](c, SaasProductRoutes)
	c.Contacts = newCollection[Contact](c, ContactRoutes)
	c.ChatSessions = newCollection[ChatSession](c, ChatSessionRoutes)
	c.MeetingRequests = newCollection[MeetingRequest](c, MeetingRequestRoutes)
	return c
}

// SetAuthorizer replaces the authorizer after construction.
func (c *Client) SetAuthorizer(a Authorizer) {
	c.auth = a
}

// request describes one API call.
type request struct {
	method string
	path   string
	body   any
	// token, when set, is sent instead of the authorizer's token.
	token string
	// anonymous requests bypass the authorizer entirely.
	anonymous bool
}

// do performs req and decodes a JSON response into result.
func (c *Client) do(ctx context.Context, req request, result any) error {
	resp, err := c.send(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if result == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return apierr.Unavailable(fmt.Errorf("failed to read response body: %w", err))
	}
	if len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// send performs req and returns a 2xx response whose body the caller closes.
func (c *Client) send(ctx context.Context, req request) (*http.Response, error) {
	reqURL := c.baseURL + "/" + strings.TrimLeft(req.path, "/")
	if _, err := url.Parse(reqURL); err != nil {
		return nil, fmt.Errorf("failed to build URL: %w", err)
	}

	var bodyReader io.Reader
	if req.body != nil {
		bodyBytes, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, reqURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set(headerUserAgent, userAgent)
	if req.body != nil {
		httpReq.Header.Set(headerContentType, contentTypeJSON)
	}
	switch {
	case req.token != "":
		httpReq.Header.Set(headerAuthorization, "Bearer "+req.token)
	case c.auth != nil && !req.anonymous:
		httpReq = c.auth.Attach(httpReq)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, apierr.Unavailable(err)
	}
	if c.auth != nil && !req.anonymous {
		c.auth.HandleResponse(resp)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, apierr.FromResponse(resp.StatusCode, respBody)
	}
	return resp, nil
}

func (c *Client) get(ctx context.Context, path string, result any) error {
	return c.do(ctx, request{method: http.MethodGet, path: path}, result)
}

func (c *Client) post(ctx context.Context, path string, body, result any) error {
	return c.do(ctx, request{method: http.MethodPost, path: path, body: body}, result)
}

func (c *Client) put(ctx context.Context, path string, body, result any) error {
	return c.do(ctx, request{method: http.MethodPut, path: path, body: body}, result)
}

func (c *Client) delete(ctx context.Context, path string) error {
	return c.do(ctx, request{method: http.MethodDelete, path: path}, nil)
}
