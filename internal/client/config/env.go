package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/dmitrijs2005/codemap/internal/common"
	"github.com/dmitrijs2005/codemap/internal/timex"
	"github.com/joho/godotenv"
)

// parseEnv overlays cfg with CODEMAP_* variables. Values from the process
// environment (lookup) win over the dotenv file. A missing dotenv file is
// not an error.
func parseEnv(cfg *Config, dotenv string, lookup func(string) (string, bool)) error {
	if dotenv == "" {
		dotenv = ".env"
	}
	if lookup == nil {
		lookup = os.LookupEnv
	}

	fileVars, err := godotenv.Read(dotenv)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("dotenv %s: %w", dotenv, err)
	}

	get := func(name string) (string, bool) {
		key := common.EnvPrefix + name
		if v, ok := lookup(key); ok {
			return v, true
		}
		v, ok := fileVars[key]
		return v, ok
	}

	var errs []error
	str := func(name string, dst *string) {
		if v, ok := get(name); ok {
			*dst = v
		}
	}
	dur := func(name string, dst *time.Duration) {
		if v, ok := get(name); ok {
			d, err := timex.Parse(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", common.EnvPrefix, name, err))
				return
			}
			*dst = d
		}
	}
	integer := func(name string, dst *int) {
		if v, ok := get(name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", common.EnvPrefix, name, err))
				return
			}
			*dst = n
		}
	}
	boolean := func(name string, dst *bool) {
		if v, ok := get(name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", common.EnvPrefix, name, err))
				return
			}
			*dst = b
		}
	}

	str("BASE_URL", &cfg.BaseURL)
	dur("TIMEOUT", &cfg.Timeout)
	integer("MAX_RETRIES", &cfg.MaxRetries)
	dur("RETRY_BASE_DELAY", &cfg.RetryBaseDelay)
	boolean("AUTH_ENABLED", &cfg.AuthEnabled)
	boolean("LOGGING_ENABLED", &cfg.LoggingEnabled)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("STORAGE", &cfg.Storage)
	str("PASSPHRASE", &cfg.Passphrase)
	dur("SKEW_MARGIN", &cfg.SkewMargin)
	dur("TOKEN_LIFETIME", &cfg.TokenLifetime)
	integer("RATE_BURST", &cfg.RateBurst)
	if v, ok := get("RATE_LIMIT"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sRATE_LIMIT: %w", common.EnvPrefix, err))
		} else {
			cfg.RateLimit = f
		}
	}

	return errors.Join(errs...)
}
