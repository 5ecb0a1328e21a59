// Package common contains shared constants, sentinel errors and small helpers
// used across codemap components.
package common

const (
	// AuthorizationHeader carries the bearer credential on outbound requests.
	AuthorizationHeader = "Authorization"

	// BearerPrefix precedes the access token in AuthorizationHeader.
	BearerPrefix = "Bearer "

	// RequestIDHeader correlates all attempts of one logical API call.
	RequestIDHeader = "X-Request-ID"

	// EnvPrefix prefixes every environment variable read by codemap.
	EnvPrefix = "CODEMAP_"
)
