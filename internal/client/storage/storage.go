// Package storage defines the key-value capability the credential store
// persists through, together with in-memory and file backed implementations.
// Database, Redis and S3 backends live in sub-packages.
package storage

import (
	"context"
	"errors"
)

var ErrEmptyKey = errors.New("storage: empty key")

// Storage is a minimal durable key-value store.
//
// Get returns (nil, nil) when the key is absent. Remove of an absent key is
// not an error.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}

// Closer is implemented by backends that hold connections.
type Closer interface {
	Close() error
}
