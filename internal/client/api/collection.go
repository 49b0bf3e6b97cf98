package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"mitaict-site/internal/client/apierr"
	"mitaict-site/internal/client/cache"
	"mitaict-site/internal/domain"
)

type (
	Service        = domain.Service
	SaasProduct    = domain.SaasProduct
	Contact        = domain.Contact
	ChatSession    = domain.ChatSession
	MeetingRequest = domain.MeetingRequest
)

// Routes are the paths of one admin collection. "{id}" is replaced by the
// escaped entity id. An empty route means the operation is not offered.
type Routes struct {
	List   string
	Create string
	Update string
	Delete string
}

var (
	ServiceRoutes = Routes{
		List:   "/services",
		Create: "/admin/services",
		Update: "/admin/services/{id}",
		Delete: "/admin/services/{id}",
	}
	SaasProductRoutes = Routes{
		List:   "/saas-products",
		Create: "/admin/saas-products",
		Update: "/admin/saas-products/{id}",
		Delete: "/admin/saas-products/{id}",
	}
	ContactRoutes = Routes{
		List:   "/admin/contacts",
		Update: "/admin/contacts/{id}",
		Delete: "/admin/contacts/{id}",
	}
	ChatSessionRoutes = Routes{
		List:   "/admin/chat-sessions",
		Delete: "/admin/chat-sessions/{id}",
	}
	MeetingRequestRoutes = Routes{
		List:   "/admin/meeting-requests",
		Update: "/admin/meeting-requests/{id}/status",
		Delete: "/admin/meeting-requests/{id}",
	}
)

// Collection is the remote side of a cache.ResourceCache.
type Collection[T any] struct {
	client *Client
	routes Routes
}

func newCollection[T any](c *Client, routes Routes) *Collection[T] {
	return &Collection[T]{client: c, routes: routes}
}

func (c *Collection[T]) List(ctx context.Context) ([]T, error) {
	if c.routes.List == "" {
		return nil, unsupported("list")
	}
	var items []T
	if err := c.client.get(ctx, c.routes.List, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Collection[T]) Create(ctx context.Context, draft T) (T, error) {
	var created T
	if c.routes.Create == "" {
		return created, unsupported("create")
	}
	if err := c.client.post(ctx, c.routes.Create, draft, &created); err != nil {
		return created, err
	}
	return created, nil
}

func (c *Collection[T]) Update(ctx context.Context, id string, value T) (T, error) {
	var updated T
	if c.routes.Update == "" {
		return updated, unsupported("update")
	}
	if err := c.client.put(ctx, withID(c.routes.Update, id), value, &updated); err != nil {
		return updated, err
	}
	return updated, nil
}

func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	if c.routes.Delete == "" {
		return unsupported("delete")
	}
	return c.client.delete(ctx, withID(c.routes.Delete, id))
}

// Get fetches one entity from its resource path.
func (c *Collection[T]) Get(ctx context.Context, id string) (T, error) {
	var item T
	path := c.routes.Delete
	if path == "" {
		return item, unsupported("get")
	}
	err := c.client.do(ctx, request{method: http.MethodGet, path: withID(path, id)}, &item)
	return item, err
}

func withID(route, id string) string {
	return strings.ReplaceAll(route, "{id}", url.PathEscape(id))
}

func unsupported(op string) error {
	return apierr.New(apierr.KindValidation, "%s is not supported for this collection", op)
}

var (
	_ cache.Remote[Service]        = (*Collection[Service])(nil)
	_ cache.Remote[SaasProduct]    = (*Collection[SaasProduct])(nil)
	_ cache.Remote[Contact]        = (*Collection[Contact])(nil)
	_ cache.Remote[ChatSession]    = (*Collection[ChatSession])(nil)
	_ cache.Remote[MeetingRequest] = (*Collection[MeetingRequest])(nil)
)
