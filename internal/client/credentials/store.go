package credentials

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/codemap/internal/client/storage"
	"github.com/dmitrijs2005/codemap/internal/logging"
)

const (
	DefaultKey  = "auth.credential"
	DefaultSkew = 5 * time.Minute
)

// Store is the single owner of the current Credential. It is safe for
// concurrent use.
type Store struct {
	storage storage.Storage
	key     string
	skew    time.Duration
	now     func() time.Time
	log     logging.Logger

	mu   sync.RWMutex
	cred Credential
}

type Option func(*Store)

func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

func WithSkew(d time.Duration) Option {
	return func(s *Store) { s.skew = d }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithLogger(l logging.Logger) Option {
	return func(s *Store) { s.log = l }
}

func NewStore(st storage.Storage, opts ...Option) *Store {
	s := &Store{
		storage: st,
		key:     DefaultKey,
		skew:    DefaultSkew,
		now:     time.Now,
		log:     logging.Discard(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Load restores the persisted credential. Read errors and malformed records
// leave the store logged out; malformed records are also removed.
func (s *Store) Load(ctx context.Context) {
	data, err := s.storage.Get(ctx, s.key)
	if err != nil {
		s.log.Warn(ctx, "credential load failed", "error", err)
		return
	}
	if data == nil {
		return
	}

	c, err := decode(data)
	if err != nil {
		s.log.Warn(ctx, "discarding malformed credential record", "error", err)
		if err := s.storage.Remove(ctx, s.key); err != nil {
			s.log.Warn(ctx, "credential cleanup failed", "error", err)
		}
		return
	}

	s.mu.Lock()
	s.cred = c
	s.mu.Unlock()
}

// Save replaces the credential in memory and persists it. The in-memory copy
// is updated even when persisting fails; the storage error is returned.
func (s *Store) Save(ctx context.Context, c Credential) error {
	if err := c.Validate(); err != nil {
		return err
	}
	// the durable form has millisecond precision
	c.ExpiresAt = c.ExpiresAt.Truncate(time.Millisecond)

	data, err := encode(c)
	if err != nil {
		return fmt.Errorf("credentials: encode: %w", err)
	}

	s.mu.Lock()
	s.cred = c
	s.mu.Unlock()

	if err := s.storage.Set(ctx, s.key, data); err != nil {
		return fmt.Errorf("credentials: persist: %w", err)
	}
	return nil
}

// Clear forgets the credential in memory and in storage.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.cred = Credential{}
	s.mu.Unlock()

	if err := s.storage.Remove(ctx, s.key); err != nil {
		return fmt.Errorf("credentials: remove: %w", err)
	}
	return nil
}

func (s *Store) Current() (Credential, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cred, !s.cred.IsZero()
}

// IsExpired reports whether now >= ExpiresAt - skew. It is true when there is
// no credential.
func (s *Store) IsExpired(skew time.Duration) bool {
	c, _ := s.Current()
	return c.ExpiredAt(s.now(), skew)
}

// Now reads the store's clock.
func (s *Store) Now() time.Time {
	return s.now()
}

// Expired evaluates c against the store's clock.
func (s *Store) Expired(c Credential, skew time.Duration) bool {
	return c.ExpiredAt(s.now(), skew)
}

func (s *Store) IsAuthenticated() bool {
	c, ok := s.Current()
	return ok && !c.ExpiredAt(s.now(), s.skew)
}

func (s *Store) Skew() time.Duration {
	return s.skew
}
