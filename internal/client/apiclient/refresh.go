package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/dmitrijs2005/codemap/internal/client/credentials"
	"github.com/dmitrijs2005/codemap/internal/logging"
)

type refreshState int

const (
	stateIdle refreshState = iota
	stateRefreshing
)

// refreshCall is the handle every waiter of one refresh attaches to. token
// and err are written before done is closed.
type refreshCall struct {
	done  chan struct{}
	token string
	err   error
}

// coordinator hands out a valid access token and guarantees at most one
// refresh request is in flight.
type coordinator struct {
	store *credentials.Store
	log   logging.Logger
	// send performs the refresh request; it is Client.run with auth skipped.
	send func(ctx context.Context, cl *call) (*Response, error)
	// prepare builds the call for a refresh request under cfg.
	prepare func(cfg Config, req Request) (*call, error)

	mu      sync.Mutex
	state   refreshState
	pending *refreshCall
}

// AccessToken returns the token to send, or "" when auth is disabled or no
// credential is stored. An expired credential is refreshed first.
func (c *coordinator) AccessToken(ctx context.Context, cfg Config) (string, error) {
	if !cfg.AuthEnabled {
		return "", nil
	}

	cred, ok := c.store.Current()
	if !ok {
		return "", nil
	}
	if !c.store.Expired(cred, cfg.SkewMargin) {
		return cred.AccessToken, nil
	}

	c.mu.Lock()
	pending := c.pending
	if c.state == stateIdle {
		// a refresh may have settled since the unlocked read
		cred, ok = c.store.Current()
		if !ok {
			c.mu.Unlock()
			return "", nil
		}
		if !c.store.Expired(cred, cfg.SkewMargin) {
			c.mu.Unlock()
			return cred.AccessToken, nil
		}

		pending = &refreshCall{done: make(chan struct{})}
		c.state = stateRefreshing
		c.pending = pending
		go c.refresh(context.WithoutCancel(ctx), cfg, cred, pending)
	}
	c.mu.Unlock()

	select {
	case <-pending.done:
		return pending.token, pending.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// refresh runs detached from the initiating caller and settles pending for
// every waiter before the coordinator returns to idle.
func (c *coordinator) refresh(ctx context.Context, cfg Config, cred credentials.Credential, pending *refreshCall) {
	token, err := c.exchange(ctx, cfg, cred)
	if err != nil {
		c.log.Warn(ctx, "token refresh failed, clearing credentials", "error", err)
		if cerr := c.store.Clear(ctx); cerr != nil {
			c.log.Warn(ctx, "credential clear failed", "error", cerr)
		}
	}

	c.mu.Lock()
	pending.token, pending.err = token, err
	close(pending.done)
	c.pending = nil
	c.state = stateIdle
	c.mu.Unlock()
}

func (c *coordinator) exchange(ctx context.Context, cfg Config, cred credentials.Credential) (string, error) {
	if cred.RefreshToken == "" {
		return "", ErrNoRefreshToken
	}

	cl, err := c.prepare(cfg, Request{
		Method:   http.MethodPost,
		Path:     cfg.RefreshPath,
		Body:     map[string]string{"refreshToken": cred.RefreshToken},
		SkipAuth: true,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}

	resp, err := c.send(ctx, cl)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}

	next, err := credentials.FromTokenResponse(resp.Data, c.store.Now(), cfg.DefaultTokenLifetime)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}
	if next.RefreshToken == "" {
		next.RefreshToken = cred.RefreshToken
	}

	if err := c.store.Save(ctx, next); err != nil {
		// the in-memory credential is already replaced
		c.log.Warn(ctx, "refreshed credential not persisted", "error", err)
	}
	return next.AccessToken, nil
}
