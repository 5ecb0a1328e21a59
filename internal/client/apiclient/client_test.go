package apiclient

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/codemap/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, ErrMissingBaseURL)

	_, err = New(Config{BaseURL: "ftp://files.local"})
	assert.ErrorIs(t, err, ErrInvalidBaseURL)

	_, err = New(Config{BaseURL: "http://"})
	assert.ErrorIs(t, err, ErrInvalidBaseURL)

	c, err := New(Config{BaseURL: "http://api.local", MaxRetries: -4})
	require.NoError(t, err)
	cfg := c.Config()
	assert.Equal(t, 0, cfg.MaxRetries)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, DefaultRefreshPath, cfg.RefreshPath)
	assert.Equal(t, int64(DefaultMaxResponseBytes), cfg.MaxResponseBytes)
}

func TestDo_SuccessHeadersAndQuery(t *testing.T) {
	var got *http.Request
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		writeJSON(w, http.StatusOK, `{"items":[{"code":"E11.9"}]}`)
	}))

	resp, err := f.client.Do(context.Background(), Request{
		Method:  "get",
		Path:    "/codes",
		Query:   map[string]any{"q": "E11", "limit": 10, "system": nil},
		Headers: map[string]string{"Accept": "application/vnd.codes+json", "X-Tenant": "north"},
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.Status)
	assert.JSONEq(t, `{"items":[{"code":"E11.9"}]}`, string(resp.Data))
	assert.NotEmpty(t, resp.RequestID)

	require.NotNil(t, got)
	assert.Equal(t, http.MethodGet, got.Method)
	assert.Equal(t, "/codes", got.URL.Path)
	assert.Equal(t, "limit=10&q=E11", got.URL.RawQuery)
	assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
	assert.Equal(t, "application/vnd.codes+json", got.Header.Get("Accept"), "caller headers win")
	assert.Equal(t, "north", got.Header.Get("X-Tenant"))
	assert.Equal(t, resp.RequestID, got.Header.Get("X-Request-ID"))
	assert.Empty(t, got.Header.Get("Authorization"), "no credential, no header")
}

func TestDo_BodyOnlyForWrites(t *testing.T) {
	bodies := map[string]string{}
	var mu sync.Mutex
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies[r.Method] = string(b)
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	ctx := context.Background()
	payload := map[string]string{"display": "Type 2 diabetes"}

	for _, m := range []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete} {
		_, err := f.client.Do(ctx, Request{Method: m, Path: "/codes/E11", Body: payload})
		require.NoError(t, err, m)
	}

	assert.Empty(t, bodies[http.MethodGet])
	for _, m := range []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete} {
		assert.JSONEq(t, `{"display":"Type 2 diabetes"}`, bodies[m], m)
	}
}

func TestDo_ConvenienceMethods(t *testing.T) {
	var seen []string
	var mu sync.Mutex
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Method+" "+r.URL.RequestURI())
		mu.Unlock()
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("ok"))
	}))
	ctx := context.Background()

	resp, err := f.client.Get(ctx, "/codes", map[string]any{"page": 1})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)

	_, err = f.client.Post(ctx, "/codes", map[string]string{"code": "X"})
	require.NoError(t, err)
	_, err = f.client.Put(ctx, "/codes/X", map[string]string{"code": "X"})
	require.NoError(t, err)
	_, err = f.client.Patch(ctx, "/codes/X", map[string]string{"display": "x"})
	require.NoError(t, err)
	_, err = f.client.Delete(ctx, "/codes/X")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"GET /codes?page=1",
		"POST /codes",
		"PUT /codes/X",
		"PATCH /codes/X",
		"DELETE /codes/X",
	}, seen)
}

func TestDo_ClientAndAuthFailuresAreNotRetried(t *testing.T) {
	for _, status := range []int{400, 401, 403, 404, 422} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			var attempts atomic.Int32
			f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				attempts.Add(1)
				writeJSON(w, status, `{"code":"NOPE","message":"rejected"}`)
			}))

			_, err := f.client.Get(context.Background(), "/codes", nil)
			require.Error(t, err)

			fail, ok := AsFailure(err)
			require.True(t, ok)
			assert.Equal(t, kindForStatus(status), fail.Kind)
			assert.True(t, fail.IsClient())
			assert.Equal(t, status, fail.Status)
			assert.Equal(t, "NOPE", fail.Code)
			assert.Equal(t, "rejected", fail.Message)
			assert.Equal(t, "/codes", fail.Path)
			assert.Equal(t, http.MethodGet, fail.Method)
			assert.False(t, fail.Timestamp.IsZero())
			assert.Equal(t, 1, fail.Attempts)

			assert.EqualValues(t, 1, attempts.Load())
			assert.Empty(t, f.sleeper.recorded())
		})
	}
}

func TestDo_ServerFailuresRetriedWithBackoff(t *testing.T) {
	var attempts atomic.Int32
	var ids sync.Map
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := attempts.Add(1)
		ids.Store(r.Header.Get("X-Request-ID"), true)
		writeJSON(w, http.StatusInternalServerError, `{"code":"E`+string(rune('0'+n))+`","message":"boom"}`)
	}))

	_, err := f.client.Get(context.Background(), "/codes", nil)
	fail, ok := AsFailure(err)
	require.True(t, ok)

	assert.Equal(t, KindServer, fail.Kind)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.EqualValues(t, 4, attempts.Load(), "MaxRetries+1 attempts")
	assert.Equal(t, 4, fail.Attempts)
	assert.Equal(t, "E4", fail.Code, "the last failure is returned")
	assert.Equal(t, []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
	}, f.sleeper.recorded())

	count := 0
	ids.Range(func(_, _ any) bool { count++; return true })
	assert.Equal(t, 1, count, "all attempts share one request id")
}

func TestDo_RecoversAfterTransientFailure(t *testing.T) {
	var attempts atomic.Int32
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			writeJSON(w, http.StatusBadGateway, `{}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"ok":true}`)
	}))

	resp, err := f.client.Get(context.Background(), "/codes", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(resp.Data))
	assert.EqualValues(t, 3, attempts.Load())
	assert.Len(t, f.sleeper.recorded(), 2)
}

func TestDo_NetworkFailuresRetried(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	rec := &sleepRecorder{}
	cfg := testConfig(url)
	cfg.MaxRetries = 2
	c, err := New(cfg, WithSleep(rec.sleep))
	require.NoError(t, err)

	_, err = c.Get(context.Background(), "/codes", nil)
	fail, ok := AsFailure(err)
	require.True(t, ok)

	assert.Equal(t, KindNetwork, fail.Kind)
	assert.Equal(t, 3, fail.Attempts)
	assert.Error(t, fail.Err)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, rec.recorded())
}

func TestDo_TimeoutPerAttempt(t *testing.T) {
	var attempts atomic.Int32
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}), func(c *Config) { c.MaxRetries = 1 })

	start := time.Now()
	_, err := f.client.Do(context.Background(), Request{Path: "/slow", Timeout: 50 * time.Millisecond})
	fail, ok := AsFailure(err)
	require.True(t, ok)

	assert.Equal(t, KindTimeout, fail.Kind)
	assert.True(t, fail.Retryable())
	assert.Equal(t, 2, fail.Attempts)
	assert.EqualValues(t, 2, attempts.Load())
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestDo_CallerCancellationIsTerminal(t *testing.T) {
	var attempts atomic.Int32
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		<-r.Context().Done()
	}))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := f.client.Get(ctx, "/codes", nil)
	fail, ok := AsFailure(err)
	require.True(t, ok)

	assert.Equal(t, KindNetwork, fail.Kind)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, fail.Attempts)
	assert.Empty(t, f.sleeper.recorded())
}

func TestDo_ParseFailureNotRetried(t *testing.T) {
	var attempts atomic.Int32
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		writeJSON(w, http.StatusOK, `{"items":[`)
	}))

	_, err := f.client.Get(context.Background(), "/codes", nil)
	fail, ok := AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, KindParse, fail.Kind)
	assert.EqualValues(t, 1, attempts.Load())
}

func TestDo_ResponseSizeLimit(t *testing.T) {
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write(bytes.Repeat([]byte("x"), 64))
	}), func(c *Config) { c.MaxResponseBytes = 32 })

	_, err := f.client.Get(context.Background(), "/big", nil)
	fail, ok := AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, KindParse, fail.Kind)
	assert.Contains(t, fail.Message, "exceeds 32 bytes")
}

func TestDo_InvalidBodyIsClientFailure(t *testing.T) {
	var attempts atomic.Int32
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
	}))

	_, err := f.client.Post(context.Background(), "/codes", map[string]any{"bad": func() {}})
	fail, ok := AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, KindClient, fail.Kind)
	assert.Equal(t, "INVALID_REQUEST", fail.Code)
	assert.Equal(t, 0, fail.Attempts)
	assert.Zero(t, attempts.Load())
}

func TestUpdateConfig_DoesNotAffectInFlightCalls(t *testing.T) {
	var attempts atomic.Int32
	var f *fixture
	f = newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			cfg := f.client.Config()
			cfg.MaxRetries = 0
			cfg.RetryBaseDelay = time.Hour
			assert.NoError(t, f.client.UpdateConfig(cfg))
		}
		writeJSON(w, http.StatusServiceUnavailable, `{}`)
	}), func(c *Config) { c.MaxRetries = 2 })

	_, err := f.client.Get(context.Background(), "/codes", nil)
	require.Error(t, err)
	assert.EqualValues(t, 3, attempts.Load(), "the in-flight call keeps its snapshot")
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, f.sleeper.recorded())

	attempts.Store(10)
	_, err = f.client.Get(context.Background(), "/codes", nil)
	require.Error(t, err)
	assert.EqualValues(t, 11, attempts.Load(), "later calls use the new configuration")

	assert.ErrorIs(t, f.client.UpdateConfig(Config{}), ErrMissingBaseURL)
	assert.Equal(t, 0, f.client.Config().MaxRetries)
}

func TestDo_LoggingRedactsAuthorization(t *testing.T) {
	var buf bytes.Buffer
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"ok":true}`)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.LoggingEnabled = true
	c, err := New(cfg, WithLogger(logging.NewText(&buf, "info")))
	require.NoError(t, err)
	require.NoError(t, c.SetCredential(context.Background(), validCredential("secret-access-token")))

	_, err = c.Post(context.Background(), "/codes", map[string]string{"code": "E11"})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "api request")
	assert.Contains(t, out, "api response")
	assert.Contains(t, out, "[REDACTED]")
	assert.Contains(t, out, `E11`)
	assert.NotContains(t, out, "secret-access-token")
}

func TestDo_LoggingDisabledIsSilent(t *testing.T) {
	var buf bytes.Buffer
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{}`)
	}))
	defer srv.Close()

	c, err := New(testConfig(srv.URL), WithLogger(logging.NewText(&buf, "info")))
	require.NoError(t, err)
	_, err = c.Get(context.Background(), "/", nil)
	require.NoError(t, err)
	assert.False(t, strings.Contains(buf.String(), "api request"))
}

func TestDo_RateLimited(t *testing.T) {
	var attempts atomic.Int32
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}), func(c *Config) {
		c.RateLimit = 1
		c.RateBurst = 1
	})

	ctx := context.Background()
	_, err := f.client.Get(ctx, "/a", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = f.client.Get(ctx, "/b", nil)
	fail, ok := AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, KindNetwork, fail.Kind)
	assert.Equal(t, 1, fail.Attempts)
	assert.Empty(t, f.sleeper.recorded())
	assert.EqualValues(t, 1, attempts.Load(), "the limiter blocks before the request is sent")
}
