// Package apiclient is the HTTP/JSON client every dashboard call goes through.
//
// A Client owns the credential lifecycle for the remote API. It refreshes an
// expired access token at most once no matter how many calls notice the
// expiry at the same time. It retries transient failures with exponential
// backoff and reports every failed call as a *Failure with a stable Kind.
//
// Typical use:
//
//	c, err := apiclient.New(cfg, apiclient.WithStore(store))
//	resp, err := c.Get(ctx, "/codes", map[string]any{"q": "E11"})
//	var f *apiclient.Failure
//	if errors.As(err, &f) && f.Kind == apiclient.KindAuth { ... }
package apiclient
