// Package storage provides the durable key/value store the admin client keeps
// its session token and consent record in.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Well-known keys.
const (
	KeyAdminToken    = "adminToken"
	KeyAuthMethod    = "authMethod"
	KeyCookieConsent = "cookieConsent"
)

var ErrUnsupportedDriver = errors.New("unsupported storage driver")

// Store is a string key/value store that survives process restarts.
type Store interface {
	// Get returns the value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Open selects a driver from a URL: memory://, file:///path/state.json (or a
// bare path), redis://host:port/db.
func Open(ctx context.Context, rawURL string) (Store, error) {
	if rawURL == "" || rawURL == "memory://" {
		return NewMemoryStore(), nil
	}

	if !strings.Contains(rawURL, "://") {
		return NewFileStore(rawURL)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse storage url: %w", err)
	}

	switch u.Scheme {
	case "memory":
		return NewMemoryStore(), nil
	case "file":
		path := u.Path
		if u.Host != "" {
			path = u.Host + path
		}
		return NewFileStore(path)
	case "redis", "rediss":
		opts, err := redis.ParseURL(rawURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis url: %w", err)
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return NewRedisStore(client, ""), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, u.Scheme)
	}
}
