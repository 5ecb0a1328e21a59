package apiclient

import "sync"

var (
	defaultMu     sync.RWMutex
	defaultClient *Client
)

// Init builds the process-wide client, replacing any previous one.
func Init(cfg Config, opts ...Option) (*Client, error) {
	c, err := New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	defaultMu.Lock()
	defaultClient = c
	defaultMu.Unlock()
	return c, nil
}

// Default returns the client set up by Init. It panics before Init.
func Default() *Client {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	if defaultClient == nil {
		panic("apiclient: Default called before Init")
	}
	return defaultClient
}

// Reset drops the process-wide client.
func Reset() {
	defaultMu.Lock()
	defaultClient = nil
	defaultMu.Unlock()
}
