package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/codemap/internal/flagx"
	"github.com/dmitrijs2005/codemap/internal/timex"
)

// ConfigEnv names the environment variable consulted when no -c/-config
// flag is given.
const ConfigEnv = "STUBAPI_CONFIG"

// JsonConfig is the on-disk shape of the configuration. Pointer fields
// distinguish "absent" from zero so a partial file only overrides what it
// names. Durations accept "15m" strings or integer milliseconds.
type JsonConfig struct {
	Addr                 *string         `json:"addr"`
	SecretKey            *string         `json:"secret_key"`
	AccessTokenValidity  *timex.Duration `json:"access_token_validity"`
	RefreshTokenValidity *timex.Duration `json:"refresh_token_validity"`
	Username             *string         `json:"username"`
	Password             *string         `json:"password"`
	LogLevel             *string         `json:"log_level"`
	Latency              *timex.Duration `json:"latency"`
}

// parseJson loads configuration values from the JSON file named by -c,
// -config or STUBAPI_CONFIG into config. No file means nothing to do.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigFileFlag(args, ConfigEnv)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}

	if c.Addr != nil {
		config.Addr = *c.Addr
	}
	if c.SecretKey != nil {
		config.SecretKey = *c.SecretKey
	}
	if c.AccessTokenValidity != nil {
		config.AccessTokenValidity = c.AccessTokenValidity.Duration
	}
	if c.RefreshTokenValidity != nil {
		config.RefreshTokenValidity = c.RefreshTokenValidity.Duration
	}
	if c.Username != nil {
		config.Username = *c.Username
	}
	if c.Password != nil {
		config.Password = *c.Password
	}
	if c.LogLevel != nil {
		config.LogLevel = *c.LogLevel
	}
	if c.Latency != nil {
		config.Latency = c.Latency.Duration
	}
	return nil
}
