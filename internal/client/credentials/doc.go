// Package credentials holds the access/refresh credential pair used by the
// API client and persists it through a storage.Storage.
//
// The durable record is a single JSON document:
//
//	{"accessToken":"...","refreshToken":"...","expiresAt":1700000000000}
//
// where expiresAt is epoch milliseconds.
package credentials
