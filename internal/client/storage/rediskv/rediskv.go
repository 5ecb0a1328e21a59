// Package rediskv stores values as plain Redis strings under a key prefix.
package rediskv

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/codemap/internal/client/storage"
	"github.com/redis/go-redis/v9"
)

const DefaultPrefix = "codemap:"

type Repository struct {
	client *redis.Client
	prefix string
}

var _ storage.Storage = (*Repository)(nil)

// New wraps an existing client. An empty prefix selects DefaultPrefix.
func New(client *redis.Client, prefix string) *Repository {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Repository{client: client, prefix: prefix}
}

// Open parses a redis:// URL, checks connectivity and returns a repository
// owning the client.
func Open(ctx context.Context, url, prefix string) (*Repository, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}
	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return New(client, prefix), nil
}

func (r *Repository) key(k string) string {
	return r.prefix + k
}

func (r *Repository) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, storage.ErrEmptyKey
	}
	raw, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return raw, nil
}

func (r *Repository) Set(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return storage.ErrEmptyKey
	}
	if err := r.client.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

func (r *Repository) Remove(ctx context.Context, key string) error {
	if key == "" {
		return storage.ErrEmptyKey
	}
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

func (r *Repository) Close() error {
	return r.client.Close()
}
