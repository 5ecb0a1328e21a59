package config

import (
	"time"

	"github.com/dmitrijs2005/codemap/internal/client/apiclient"
)

// Config holds runtime settings for the codemap CLI.
type Config struct {
	BaseURL        string
	Timeout        time.Duration
	MaxRetries     int
	RetryBaseDelay time.Duration
	AuthEnabled    bool
	LoggingEnabled bool
	LogLevel       string

	// Storage is a storage DSN (see storage/factory); Passphrase seals it.
	Storage    string
	Passphrase string

	SkewMargin    time.Duration
	TokenLifetime time.Duration
	RateLimit     float64
	RateBurst     int
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.BaseURL = "http://127.0.0.1:8080"
	c.Timeout = apiclient.DefaultTimeout
	c.MaxRetries = apiclient.DefaultMaxRetries
	c.RetryBaseDelay = apiclient.DefaultRetryBaseDelay
	c.AuthEnabled = true
	c.LoggingEnabled = false
	c.LogLevel = "warn"
	c.Storage = "file://"
	c.SkewMargin = apiclient.DefaultSkewMargin
	c.TokenLifetime = apiclient.DefaultTokenLifetime
	c.RateBurst = 1
}

// Sources tells Load where to look. Zero values skip the file, use ".env"
// and the process environment.
type Sources struct {
	File   string
	DotEnv string
	Lookup func(key string) (string, bool)
}

// Load builds a Config from defaults, the optional file and the environment.
// Later sources take precedence over earlier ones.
func Load(src Sources) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if src.File != "" {
		if err := parseFile(cfg, src.File); err != nil {
			return nil, err
		}
	}
	if err := parseEnv(cfg, src.DotEnv, src.Lookup); err != nil {
		return nil, err
	}
	return cfg, nil
}

// APIConfig maps the CLI settings onto the API client configuration.
func (c *Config) APIConfig() apiclient.Config {
	ac := apiclient.DefaultConfig()
	ac.BaseURL = c.BaseURL
	ac.Timeout = c.Timeout
	ac.MaxRetries = c.MaxRetries
	ac.RetryBaseDelay = c.RetryBaseDelay
	ac.AuthEnabled = c.AuthEnabled
	ac.LoggingEnabled = c.LoggingEnabled
	ac.SkewMargin = c.SkewMargin
	ac.DefaultTokenLifetime = c.TokenLifetime
	ac.RateLimit = c.RateLimit
	ac.RateBurst = c.RateBurst
	return ac
}
