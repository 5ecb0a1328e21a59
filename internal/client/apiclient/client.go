package apiclient

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/codemap/internal/client/credentials"
	"github.com/dmitrijs2005/codemap/internal/client/storage"
	"github.com/dmitrijs2005/codemap/internal/logging"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// waiter is satisfied by *rate.Limiter.
type waiter interface {
	Wait(ctx context.Context) error
}

// Client is safe for concurrent use.
type Client struct {
	http      *http.Client
	store     *credentials.Store
	refresher *coordinator
	log       logging.Logger
	sleep     func(ctx context.Context, d time.Duration) error
	now       func() time.Time
	newID     func() string

	mu      sync.RWMutex
	cfg     Config
	limiter *rate.Limiter
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithLogger(l logging.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithStore shares an existing credential store. The caller is responsible
// for calling Load on it.
func WithStore(s *credentials.Store) Option {
	return func(c *Client) { c.store = s }
}

// WithSleep replaces the inter-retry wait, mainly for tests.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) { c.sleep = fn }
}

// WithClock replaces time.Now for failure timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New validates cfg and builds a client. Without WithStore the credential
// lives in memory only.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg = cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		http:  &http.Client{},
		log:   logging.Discard(),
		sleep: sleepContext,
		now:   time.Now,
		newID: uuid.NewString,
		cfg:   cfg,
	}
	for _, o := range opts {
		o(c)
	}
	if c.store == nil {
		c.store = credentials.NewStore(storage.NewMemory(),
			credentials.WithSkew(cfg.SkewMargin),
			credentials.WithLogger(c.log),
		)
	}
	c.limiter = newLimiter(cfg)
	c.refresher = &coordinator{
		store:   c.store,
		log:     c.log,
		send:    c.run,
		prepare: c.prepare,
	}
	return c, nil
}

func newLimiter(cfg Config) *rate.Limiter {
	if cfg.RateLimit <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)
}

func (c *Client) currentLimiter() waiter {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.limiter == nil {
		return nil
	}
	return c.limiter
}

// Config returns a copy of the current configuration.
func (c *Client) Config() Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg
}

// UpdateConfig replaces the configuration for calls started afterwards.
func (c *Client) UpdateConfig(cfg Config) error {
	cfg = cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if cfg.RateLimit != c.cfg.RateLimit || cfg.RateBurst != c.cfg.RateBurst {
		c.limiter = newLimiter(cfg)
	}
	c.cfg = cfg
	return nil
}

func (c *Client) Store() *credentials.Store {
	return c.store
}

// SetCredential stores a credential obtained from an explicit login.
func (c *Client) SetCredential(ctx context.Context, cred credentials.Credential) error {
	return c.store.Save(ctx, cred)
}

func (c *Client) ClearCredential(ctx context.Context) error {
	return c.store.Clear(ctx)
}

// IsAuthenticated reports whether a credential is present and outside the
// configured skew margin of its expiry.
func (c *Client) IsAuthenticated() bool {
	cred, ok := c.store.Current()
	return ok && !c.store.Expired(cred, c.Config().SkewMargin)
}

func (c *Client) prepare(cfg Config, req Request) (*call, error) {
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}

	cl := &call{
		cfg:       cfg,
		method:    method,
		path:      req.Path,
		headers:   req.Headers,
		timeout:   req.Timeout,
		skipAuth:  req.SkipAuth,
		requestID: c.newID(),
	}
	if cl.timeout <= 0 {
		cl.timeout = cfg.Timeout
	}

	target, err := buildURL(cfg.BaseURL, req.Path, req.Query)
	if err != nil {
		f := c.newFailure(cl, KindClient, "invalid request URL", err)
		f.Code = "INVALID_REQUEST"
		return nil, f
	}
	cl.url = target

	body, err := encodeBody(method, req.Body)
	if err != nil {
		f := c.newFailure(cl, KindClient, "request body could not be encoded", err)
		f.Code = "INVALID_REQUEST"
		return nil, f
	}
	cl.body = body
	return cl, nil
}

// Do performs req. On failure the error is always a *Failure.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	cl, err := c.prepare(c.Config(), req)
	if err != nil {
		return nil, err
	}
	return c.run(ctx, cl)
}

func (c *Client) Get(ctx context.Context, path string, query map[string]any) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query})
}

func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body})
}

func (c *Client) Put(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodPut, Path: path, Body: body})
}

func (c *Client) Patch(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodPatch, Path: path, Body: body})
}

func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path})
}
