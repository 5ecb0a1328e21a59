// Package users keeps the stub API's accounts and refresh tokens in memory.
package users

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/codemap/internal/common"
	"github.com/dmitrijs2005/codemap/internal/cryptox"
	"github.com/dmitrijs2005/codemap/internal/stubapi/auth"
	"github.com/dmitrijs2005/codemap/internal/stubapi/config"
	"github.com/google/uuid"
)

var ErrUserExists = errors.New("user already exists")

// TokenPair is what login and refresh hand out. ExpiresAt belongs to the
// access token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

type User struct {
	ID       string
	UserName string
	Salt     []byte
	Verifier []byte
}

type refreshToken struct {
	userID    string
	expiresAt time.Time
}

type Service struct {
	mu     sync.Mutex
	users  map[string]*User
	tokens map[string]refreshToken

	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	now                          func() time.Time
}

// NewService creates the service and registers the account from cfg.
func NewService(cfg *config.Config) (*Service, error) {
	s := &Service{
		users:                        make(map[string]*User),
		tokens:                       make(map[string]refreshToken),
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidity,
		refreshTokenValidityDuration: cfg.RefreshTokenValidity,
		now:                          time.Now,
	}
	if _, err := s.Register(context.Background(), cfg.Username, []byte(cfg.Password)); err != nil {
		return nil, err
	}
	return s, nil
}

// SetClock replaces time.Now, for tests.
func (s *Service) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

func (s *Service) Register(_ context.Context, username string, password []byte) (*User, error) {
	salt, err := cryptox.NewSalt()
	if err != nil {
		return nil, common.ErrorInternal
	}
	user := &User{
		ID:       uuid.NewString(),
		UserName: username,
		Salt:     salt,
		Verifier: cryptox.DeriveKey(password, salt),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[username]; ok {
		return nil, fmt.Errorf("%w: %s", ErrUserExists, username)
	}
	s.users[username] = user
	return user, nil
}

func (s *Service) checkVerifier(verifier []byte, verifierCandidate []byte) bool {
	return subtle.ConstantTimeCompare(verifier, verifierCandidate) == 1
}

func (s *Service) generateRefreshToken() (string, error) {
	return common.MakeRandHexString(32)
}

// issue must be called with s.mu held.
func (s *Service) issue(userID string) (*TokenPair, error) {
	now := s.now()
	access, exp, err := auth.GenerateToken(userID, s.jwtSecret, now, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}
	refresh, err := s.generateRefreshToken()
	if err != nil {
		return nil, common.ErrorInternal
	}
	s.tokens[refresh] = refreshToken{userID: userID, expiresAt: now.Add(s.refreshTokenValidityDuration)}
	return &TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresAt: exp}, nil
}

func (s *Service) Login(_ context.Context, userName string, password []byte) (*TokenPair, error) {
	s.mu.Lock()
	user, ok := s.users[userName]
	s.mu.Unlock()

	if !ok {
		// same amount of work as a real check
		cryptox.DeriveKey(password, common.GenerateRandByteArray(cryptox.SaltSize))
		return nil, common.ErrorUnauthorized
	}
	if !s.checkVerifier(user.Verifier, cryptox.DeriveKey(password, user.Salt)) {
		return nil, common.ErrorUnauthorized
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issue(user.ID)
}

// Refresh exchanges a refresh token for a new pair. The presented token is
// consumed, so every refresh token works exactly once.
func (s *Service) Refresh(_ context.Context, token string) (*TokenPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rt, ok := s.tokens[token]
	if !ok {
		return nil, common.ErrorUnauthorized
	}
	delete(s.tokens, token)

	if !s.now().Before(rt.expiresAt) {
		return nil, common.ErrRefreshTokenExpired
	}
	return s.issue(rt.userID)
}

// Revoke forgets a refresh token. Unknown tokens are ignored.
func (s *Service) Revoke(_ context.Context, token string) {
	s.mu.Lock()
	delete(s.tokens, token)
	s.mu.Unlock()
}

// Authenticate checks an access token and returns its user id.
func (s *Service) Authenticate(token string) (string, error) {
	return auth.GetUserIDFromToken(token, s.jwtSecret)
}

// ActiveRefreshTokens reports how many refresh tokens are outstanding.
func (s *Service) ActiveRefreshTokens() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}
