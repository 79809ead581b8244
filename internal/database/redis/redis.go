// Package redis persists the encoded gallery as a single blob under a Redis key.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kozaktomas/face-search/internal/constants"
	"github.com/kozaktomas/face-search/internal/gallery"
)

// Persister stores the gallery under one key. The key holds the same versioned
// encoding the file persister writes.
type Persister struct {
	client *goredis.Client
	key    string
	addr   string
}

// NewClient creates a client from a redis:// URL and verifies the connection.
func NewClient(ctx context.Context, url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// NewPersister creates a persister using key, or the default key when empty.
func NewPersister(client *goredis.Client, key string) *Persister {
	if strings.TrimSpace(key) == "" {
		key = constants.DefaultRedisKey
	}
	return &Persister{client: client, key: key, addr: client.Options().Addr}
}

// Location returns a redis:// address including the key.
func (p *Persister) Location() string {
	return fmt.Sprintf("redis://%s/%s", p.addr, p.key)
}

// Exists reports whether the key holds a non-empty value.
func (p *Persister) Exists(ctx context.Context) (bool, error) {
	n, err := p.client.StrLen(ctx, p.key).Result()
	if err != nil {
		return false, fmt.Errorf("redis STRLEN %s: %w", p.key, err)
	}
	return n > 0, nil
}

// Load fetches and decodes the gallery blob.
func (p *Persister) Load(ctx context.Context) (*gallery.Gallery, error) {
	data, err := p.client.Get(ctx, p.key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, fmt.Errorf("redis key %s not found", p.key)
	}
	if err != nil {
		return nil, fmt.Errorf("redis GET %s: %w", p.key, err)
	}
	return gallery.Decode(data)
}

// Save replaces the blob. SET is atomic, so readers see the old or the new gallery.
func (p *Persister) Save(ctx context.Context, g *gallery.Gallery) error {
	data, err := gallery.Encode(g)
	if err != nil {
		return err
	}
	if err := p.client.Set(ctx, p.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis SET %s: %w", p.key, err)
	}
	return nil
}

// Discard deletes the key.
func (p *Persister) Discard(ctx context.Context) error {
	if err := p.client.Del(ctx, p.key).Err(); err != nil {
		return fmt.Errorf("redis DEL %s: %w", p.key, err)
	}
	return nil
}

// Close closes the underlying client.
func (p *Persister) Close() error {
	return p.client.Close()
}
