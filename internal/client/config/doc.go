// Package config loads runtime configuration for the codemap CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file given with -c/--config. JSON, or YAML when the
//     extension is .yaml/.yml.
//  3. A .env file in the working directory, then real CODEMAP_* environment
//     variables (the process environment wins over .env).
//  4. Command-line flags, applied by the cli package on top of Load's result.
//
// # File schema
//
// Durations accept Go duration strings or integer milliseconds:
//
//	{
//	  "base_url": "https://coding.example.org/api",
//	  "timeout": "10s",
//	  "max_retries": 3,
//	  "retry_base_delay": 500,
//	  "auth_enabled": true,
//	  "logging_enabled": false,
//	  "storage": "file://",
//	  "rate_limit": 5
//	}
//
// # Environment
//
//	CODEMAP_BASE_URL, CODEMAP_TIMEOUT, CODEMAP_MAX_RETRIES,
//	CODEMAP_RETRY_BASE_DELAY, CODEMAP_AUTH_ENABLED, CODEMAP_LOGGING_ENABLED,
//	CODEMAP_LOG_LEVEL, CODEMAP_STORAGE, CODEMAP_PASSPHRASE,
//	CODEMAP_SKEW_MARGIN, CODEMAP_TOKEN_LIFETIME, CODEMAP_RATE_LIMIT,
//	CODEMAP_RATE_BURST
package config
