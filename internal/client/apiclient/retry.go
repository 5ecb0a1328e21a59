package apiclient

import (
	"context"
	"fmt"
	"math"
	"time"
)

// backoff is the delay before attempt n (1-indexed, n >= 2):
// base * 2^(n-2).
func backoff(base time.Duration, n int) time.Duration {
	if n < 2 || base <= 0 {
		return 0
	}
	shift := n - 2
	if shift >= 62 || base > time.Duration(math.MaxInt64>>shift) {
		return time.Duration(math.MaxInt64)
	}
	return base << shift
}

// sleepContext waits for d or until ctx ends.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run drives up to MaxRetries+1 attempts of cl. Only NETWORK, TIMEOUT and
// SERVER failures are retried, and never once the caller's context is done.
func (c *Client) run(ctx context.Context, cl *call) (*Response, error) {
	limiter := c.currentLimiter()
	maxAttempts := cl.cfg.MaxRetries + 1

	var last *Failure
	for n := 1; n <= maxAttempts; n++ {
		if n > 1 {
			delay := backoff(cl.cfg.RetryBaseDelay, n)
			c.log.Warn(ctx, "retrying api call",
				"request_id", cl.requestID,
				"method", cl.method,
				"path", cl.path,
				"attempt", n,
				"delay", delay,
				"last_kind", string(last.Kind),
			)
			if err := c.sleep(ctx, delay); err != nil {
				f := c.cancelled(cl, fmt.Errorf("%w (last failure: %v)", err, last))
				f.Attempts = n - 1
				return nil, f
			}
		}

		resp, f := c.attempt(ctx, cl, limiter)
		if f == nil {
			c.log.Debug(ctx, "api call succeeded",
				"request_id", cl.requestID, "path", cl.path, "status", resp.Status, "attempt", n)
			return resp, nil
		}

		f.Attempts = n
		last = f
		c.log.Debug(ctx, "api attempt failed",
			"request_id", cl.requestID, "path", cl.path, "kind", string(f.Kind), "status", f.Status, "attempt", n)

		if !f.Retryable() || f.final || ctx.Err() != nil {
			break
		}
	}
	return nil, last
}
