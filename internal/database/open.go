// Package database selects and constructs the gallery persistence backend.
package database

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/go-logr/logr"
	"github.com/kozaktomas/face-search/internal/config"
	"github.com/kozaktomas/face-search/internal/database/postgres"
	"github.com/kozaktomas/face-search/internal/database/redis"
	"github.com/kozaktomas/face-search/internal/gallery"
)

// Backend is a gallery persister that holds resources until closed.
type Backend interface {
	gallery.Persister
	io.Closer
}

// Open returns the backend for location. A plain path or file:// URL selects the file
// persister; redis:// and rediss:// select Redis; postgres:// and postgresql:// select
// PostgreSQL with pgvector.
func Open(ctx context.Context, location string, cfg *config.Config, logger logr.Logger) (Backend, error) {
	scheme := schemeOf(location)

	switch scheme {
	case "":
		return NewFilePersister(location), nil
	case "file":
		u, err := url.Parse(location)
		if err != nil {
			return nil, fmt.Errorf("invalid gallery store %q: %w", location, err)
		}
		path := u.Path
		if u.Host != "" && u.Host != "localhost" {
			// file://relative/path parses the first segment as host
			path = u.Host + u.Path
		}
		return NewFilePersister(path), nil
	case "redis", "rediss":
		client, err := redis.NewClient(ctx, location)
		if err != nil {
			return nil, err
		}
		return redis.NewPersister(client, cfg.Redis.Key), nil
	case "postgres", "postgresql":
		pool, err := postgres.Open(ctx, location, &cfg.Database, logger)
		if err != nil {
			return nil, err
		}
		return postgres.NewGalleryPersister(pool, redact(location)), nil
	default:
		return nil, fmt.Errorf("unsupported gallery store scheme %q", scheme)
	}
}

// schemeOf returns the lowercased URL scheme of location, or "" for a filesystem path.
func schemeOf(location string) string {
	scheme, _, ok := strings.Cut(location, "://")
	if !ok {
		return ""
	}
	return strings.ToLower(scheme)
}

// redact hides credentials in a connection URL.
func redact(location string) string {
	u, err := url.Parse(location)
	if err != nil {
		return "postgres://(unparseable)"
	}
	return u.Redacted()
}
