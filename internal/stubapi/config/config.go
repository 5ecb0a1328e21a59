// Package config handles configuration for the stub API server,
// including defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the stub API server.
//
// Fields:
//   - Addr: HTTP bind address.
//   - SecretKey: HMAC secret for signing JWTs (HS256). Do not use test defaults in prod.
//   - AccessTokenValidity / RefreshTokenValidity: token lifetimes.
//   - Username / Password: the single account the server accepts.
//   - LogLevel: slog level name.
//   - Latency: artificial delay added to every response, for timeout drills.
type Config struct {
	Addr                 string
	SecretKey            string
	AccessTokenValidity  time.Duration
	RefreshTokenValidity time.Duration
	Username             string
	Password             string
	LogLevel             string
	Latency              time.Duration
}

// LoadDefaults populates Config with sensible development defaults.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.Addr = ":8080"
	c.SecretKey = "secretKey"
	c.AccessTokenValidity = 15 * time.Minute
	c.RefreshTokenValidity = 24 * time.Hour
	c.Username = "coder"
	c.Password = "coder"
	c.LogLevel = "info"
	c.Latency = 0
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}
