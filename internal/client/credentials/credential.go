package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingAccessToken = errors.New("credentials: missing access token")
	ErrMissingExpiry      = errors.New("credentials: missing expiry")
)

// Credential is the current token pair. The zero value means "logged out".
type Credential struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

func (c Credential) IsZero() bool {
	return c.AccessToken == ""
}

// Validate checks the invariant that a present access token always has an
// expiry.
func (c Credential) Validate() error {
	if c.AccessToken == "" {
		return ErrMissingAccessToken
	}
	if c.ExpiresAt.IsZero() {
		return ErrMissingExpiry
	}
	return nil
}

// ExpiredAt reports whether the credential counts as expired at now, treating
// it as stale skew before its real expiry.
func (c Credential) ExpiredAt(now time.Time, skew time.Duration) bool {
	if c.IsZero() {
		return true
	}
	return !now.Before(c.ExpiresAt.Add(-skew))
}

type record struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresAt    int64  `json:"expiresAt"`
}

func encode(c Credential) ([]byte, error) {
	return json.Marshal(record{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		ExpiresAt:    c.ExpiresAt.UnixMilli(),
	})
}

func decode(data []byte) (Credential, error) {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return Credential{}, err
	}
	if r.ExpiresAt <= 0 {
		return Credential{}, ErrMissingExpiry
	}
	c := Credential{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		ExpiresAt:    time.UnixMilli(r.ExpiresAt),
	}
	return c, c.Validate()
}

// tokenResponse accepts both camelCase and snake_case token endpoint bodies.
type tokenResponse struct {
	AccessToken       string   `json:"accessToken"`
	AccessTokenSnake  string   `json:"access_token"`
	RefreshToken      string   `json:"refreshToken"`
	RefreshTokenSnake string   `json:"refresh_token"`
	ExpiresIn         *float64 `json:"expiresIn"`
	ExpiresInSnake    *float64 `json:"expires_in"`
	ExpiresAt         *int64   `json:"expiresAt"`
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// FromTokenResponse builds a Credential from a login or refresh response body.
//
// Expiry is taken from, in order: expiresIn (seconds from now), expiresAt
// (epoch ms), the access token's JWT exp claim, or defaultLifetime from now.
func FromTokenResponse(body []byte, now time.Time, defaultLifetime time.Duration) (Credential, error) {
	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return Credential{}, fmt.Errorf("credentials: token response: %w", err)
	}

	c := Credential{
		AccessToken:  firstNonEmpty(tr.AccessToken, tr.AccessTokenSnake),
		RefreshToken: firstNonEmpty(tr.RefreshToken, tr.RefreshTokenSnake),
	}
	if c.AccessToken == "" {
		return Credential{}, ErrMissingAccessToken
	}

	expiresIn := tr.ExpiresIn
	if expiresIn == nil {
		expiresIn = tr.ExpiresInSnake
	}

	switch {
	case expiresIn != nil && *expiresIn > 0:
		c.ExpiresAt = now.Add(time.Duration(*expiresIn * float64(time.Second)))
	case tr.ExpiresAt != nil && *tr.ExpiresAt > 0:
		c.ExpiresAt = time.UnixMilli(*tr.ExpiresAt)
	default:
		if exp, ok := jwtExpiry(c.AccessToken); ok {
			c.ExpiresAt = exp
		} else {
			c.ExpiresAt = now.Add(defaultLifetime)
		}
	}

	return c, nil
}

// jwtExpiry reads the exp claim without verifying the signature; the client
// never holds the signing key and only uses it for scheduling refreshes.
func jwtExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
