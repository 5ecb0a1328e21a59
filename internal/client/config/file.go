package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/codemap/internal/timex"
	"gopkg.in/yaml.v3"
)

// fileConfig is a DTO for the config file. Pointer fields distinguish "not
// set" from zero values so a partial file only overrides what it names.
type fileConfig struct {
	BaseURL        *string         `json:"base_url" yaml:"base_url"`
	Timeout        *timex.Duration `json:"timeout" yaml:"timeout"`
	MaxRetries     *int            `json:"max_retries" yaml:"max_retries"`
	RetryBaseDelay *timex.Duration `json:"retry_base_delay" yaml:"retry_base_delay"`
	AuthEnabled    *bool           `json:"auth_enabled" yaml:"auth_enabled"`
	LoggingEnabled *bool           `json:"logging_enabled" yaml:"logging_enabled"`
	LogLevel       *string         `json:"log_level" yaml:"log_level"`
	Storage        *string         `json:"storage" yaml:"storage"`
	Passphrase     *string         `json:"passphrase" yaml:"passphrase"`
	SkewMargin     *timex.Duration `json:"skew_margin" yaml:"skew_margin"`
	TokenLifetime  *timex.Duration `json:"token_lifetime" yaml:"token_lifetime"`
	RateLimit      *float64        `json:"rate_limit" yaml:"rate_limit"`
	RateBurst      *int            `json:"rate_burst" yaml:"rate_burst"`
}

func parseFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config file: %w", err)
	}

	var fc fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}

	fc.apply(cfg)
	return nil
}

func (fc fileConfig) apply(cfg *Config) {
	setString(&cfg.BaseURL, fc.BaseURL)
	setDuration(&cfg.Timeout, fc.Timeout)
	if fc.MaxRetries != nil {
		cfg.MaxRetries = *fc.MaxRetries
	}
	setDuration(&cfg.RetryBaseDelay, fc.RetryBaseDelay)
	if fc.AuthEnabled != nil {
		cfg.AuthEnabled = *fc.AuthEnabled
	}
	if fc.LoggingEnabled != nil {
		cfg.LoggingEnabled = *fc.LoggingEnabled
	}
	setString(&cfg.LogLevel, fc.LogLevel)
	setString(&cfg.Storage, fc.Storage)
	setString(&cfg.Passphrase, fc.Passphrase)
	setDuration(&cfg.SkewMargin, fc.SkewMargin)
	setDuration(&cfg.TokenLifetime, fc.TokenLifetime)
	if fc.RateLimit != nil {
		cfg.RateLimit = *fc.RateLimit
	}
	if fc.RateBurst != nil {
		cfg.RateBurst = *fc.RateBurst
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *timex.Duration) {
	if v != nil {
		*dst = v.Duration
	}
}
