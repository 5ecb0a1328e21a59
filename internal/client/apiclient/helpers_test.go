package apiclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/codemap/internal/client/credentials"
	"github.com/dmitrijs2005/codemap/internal/client/storage"
	"github.com/stretchr/testify/require"
)

// sleepRecorder replaces the retry wait and keeps every requested delay.
type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *sleepRecorder) recorded() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

func testConfig(baseURL string) Config {
	cfg := DefaultConfig()
	cfg.BaseURL = baseURL
	cfg.Timeout = 5 * time.Second
	cfg.MaxRetries = 3
	cfg.RetryBaseDelay = 100 * time.Millisecond
	return cfg
}

type fixture struct {
	client  *Client
	store   *credentials.Store
	mem     *storage.Memory
	sleeper *sleepRecorder
	server  *httptest.Server
}

func newFixture(t *testing.T, handler http.Handler, mutate ...func(*Config)) *fixture {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := testConfig(srv.URL)
	for _, m := range mutate {
		m(&cfg)
	}

	mem := storage.NewMemory()
	store := credentials.NewStore(mem)
	sleeper := &sleepRecorder{}

	c, err := New(cfg, WithStore(store), WithSleep(sleeper.sleep))
	require.NoError(t, err)

	return &fixture{client: c, store: store, mem: mem, sleeper: sleeper, server: srv}
}

func (f *fixture) login(t *testing.T, access, refresh string, expiresAt time.Time) {
	t.Helper()
	require.NoError(t, f.client.SetCredential(context.Background(), credentials.Credential{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
	}))
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func validCredential(access string) credentials.Credential {
	return credentials.Credential{
		AccessToken:  access,
		RefreshToken: "refresh-" + access,
		ExpiresAt:    time.Now().Add(time.Hour),
	}
}
