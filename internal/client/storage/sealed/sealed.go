// Package sealed encrypts values before they reach another storage.Storage.
//
// The AES key is derived from a passphrase with Argon2id. The random salt is
// kept in the wrapped store itself under SaltKey, so the same passphrase opens
// the store again after a restart.
package sealed

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/codemap/internal/client/storage"
	"github.com/dmitrijs2005/codemap/internal/common"
	"github.com/dmitrijs2005/codemap/internal/cryptox"
)

const SaltKey = "sealed.salt"

var (
	ErrEmptyPassphrase = errors.New("sealed: empty passphrase")
	ErrReservedKey     = errors.New("sealed: key is reserved")
)

type Store struct {
	inner      storage.Storage
	passphrase []byte

	mu  sync.Mutex
	key []byte
}

var _ storage.Storage = (*Store)(nil)

func New(inner storage.Storage, passphrase string) (*Store, error) {
	if passphrase == "" {
		return nil, ErrEmptyPassphrase
	}
	return &Store{inner: inner, passphrase: []byte(passphrase)}, nil
}

// encryptionKey derives the key once, creating and persisting the salt on
// first use.
func (s *Store) encryptionKey(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.key != nil {
		return s.key, nil
	}

	salt, err := s.inner.Get(ctx, SaltKey)
	if err != nil {
		return nil, fmt.Errorf("sealed: load salt: %w", err)
	}
	if salt == nil {
		if salt, err = cryptox.NewSalt(); err != nil {
			return nil, err
		}
		if err := s.inner.Set(ctx, SaltKey, salt); err != nil {
			return nil, fmt.Errorf("sealed: store salt: %w", err)
		}
	}

	s.key = cryptox.DeriveKey(s.passphrase, salt)
	common.WipeByteArray(s.passphrase)
	return s.key, nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if key == SaltKey {
		return nil, ErrReservedKey
	}
	blob, err := s.inner.Get(ctx, key)
	if err != nil || blob == nil {
		return nil, err
	}

	k, err := s.encryptionKey(ctx)
	if err != nil {
		return nil, err
	}
	return cryptox.Open(k, blob)
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if key == SaltKey {
		return ErrReservedKey
	}
	k, err := s.encryptionKey(ctx)
	if err != nil {
		return err
	}

	blob, err := cryptox.Seal(k, value)
	if err != nil {
		return err
	}
	return s.inner.Set(ctx, key, blob)
}

func (s *Store) Remove(ctx context.Context, key string) error {
	if key == SaltKey {
		return ErrReservedKey
	}
	return s.inner.Remove(ctx, key)
}
