package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/codemap/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-a string        HTTP bind address (e.g., ":8080")
//	-s string        JWT HMAC secret key
//	-t duration      access token validity (e.g., "15m")
//	-r duration      refresh token validity
//	-u string        accepted username
//	-p string        accepted password
//	-l string        log level
//	-latency duration
//	                 artificial response delay
//
// The function first filters args to only the flags it recognizes using
// flagx.FilterArgs, so -c/-config and anything else are left alone.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-s", "-t", "-r", "-u", "-p", "-l", "-latency", "--latency"})

	fs := flag.NewFlagSet("stubapi", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.Addr, "a", config.Addr, "address and port to run server")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.DurationVar(&config.AccessTokenValidity, "t", config.AccessTokenValidity, "access token validity")
	fs.DurationVar(&config.RefreshTokenValidity, "r", config.RefreshTokenValidity, "refresh token validity")
	fs.StringVar(&config.Username, "u", config.Username, "accepted username")
	fs.StringVar(&config.Password, "p", config.Password, "accepted password")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.DurationVar(&config.Latency, "latency", config.Latency, "artificial response delay")

	return fs.Parse(args)
}
