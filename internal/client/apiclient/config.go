package apiclient

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

const (
	DefaultTimeout          = 30 * time.Second
	DefaultMaxRetries       = 3
	DefaultRetryBaseDelay   = time.Second
	DefaultRefreshPath      = "/auth/refresh"
	DefaultLoginPath        = "/auth/login"
	DefaultLogoutPath       = "/auth/logout"
	DefaultSkewMargin       = 5 * time.Minute
	DefaultTokenLifetime    = time.Hour
	DefaultMaxResponseBytes = 10 << 20
)

var (
	ErrMissingBaseURL = errors.New("apiclient: base URL is required")
	ErrInvalidBaseURL = errors.New("apiclient: invalid base URL")
)

// Config is copied at the start of every call; UpdateConfig never affects
// calls already in flight.
type Config struct {
	BaseURL        string
	Timeout        time.Duration
	MaxRetries     int
	RetryBaseDelay time.Duration
	AuthEnabled    bool
	LoggingEnabled bool

	RefreshPath string
	LoginPath   string
	LogoutPath  string

	// SkewMargin treats a token as expired this long before its real expiry.
	SkewMargin time.Duration
	// DefaultTokenLifetime applies when a token response carries no expiry.
	DefaultTokenLifetime time.Duration

	// RateLimit caps outgoing attempts per second; zero disables limiting.
	RateLimit float64
	RateBurst int

	MaxResponseBytes int64
}

func DefaultConfig() Config {
	return Config{
		Timeout:              DefaultTimeout,
		MaxRetries:           DefaultMaxRetries,
		RetryBaseDelay:       DefaultRetryBaseDelay,
		AuthEnabled:          true,
		RefreshPath:          DefaultRefreshPath,
		LoginPath:            DefaultLoginPath,
		LogoutPath:           DefaultLogoutPath,
		SkewMargin:           DefaultSkewMargin,
		DefaultTokenLifetime: DefaultTokenLifetime,
		MaxResponseBytes:     DefaultMaxResponseBytes,
	}
}

// normalize fills unset fields with defaults and clamps negative values.
func (c Config) normalize() Config {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.RetryBaseDelay < 0 {
		c.RetryBaseDelay = 0
	}
	if c.RefreshPath == "" {
		c.RefreshPath = DefaultRefreshPath
	}
	if c.LoginPath == "" {
		c.LoginPath = DefaultLoginPath
	}
	if c.LogoutPath == "" {
		c.LogoutPath = DefaultLogoutPath
	}
	if c.SkewMargin < 0 {
		c.SkewMargin = 0
	}
	if c.DefaultTokenLifetime <= 0 {
		c.DefaultTokenLifetime = DefaultTokenLifetime
	}
	if c.RateBurst <= 0 {
		c.RateBurst = 1
	}
	if c.MaxResponseBytes <= 0 {
		c.MaxResponseBytes = DefaultMaxResponseBytes
	}
	return c
}

func (c Config) Validate() error {
	if c.BaseURL == "" {
		return ErrMissingBaseURL
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidBaseURL, c.BaseURL)
	}
	return nil
}
