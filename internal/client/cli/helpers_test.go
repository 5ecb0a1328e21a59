package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// fakeAPI is a minimal coding API: one user, one code, bearer "acc".
type fakeAPI struct {
	mu       sync.Mutex
	lastBody string
	lastURL  string
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.lastBody = string(body)
	f.lastURL = r.URL.String()
	f.mu.Unlock()

	switch r.URL.Path {
	case "/auth/login":
		var in map[string]string
		_ = json.Unmarshal(body, &in)
		if in["username"] != "coder" || in["password"] != "pw" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"code":"BAD_CREDENTIALS","message":"invalid username or password"}`))
			return
		}
		_, _ = w.Write([]byte(`{"accessToken":"acc","refreshToken":"ref","expiresIn":3600}`))
		return
	case "/auth/logout":
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if r.Header.Get("Authorization") != "Bearer acc" {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code":"UNAUTHORIZED","message":"missing token"}`))
		return
	}

	switch {
	case r.URL.Path == "/codes/E11.9":
		_, _ = w.Write([]byte(`{"id":"E11.9","display":"Type 2 diabetes mellitus without complications"}`))
	case r.URL.Path == "/codes/E11.9/mappings":
		_, _ = w.Write([]byte(`[{"target":"44054006","system":"snomed"}]`))
	case r.URL.Path == "/codes/search":
		_, _ = w.Write([]byte(`{"items":[{"id":"E11.9"}],"q":"` + r.URL.Query().Get("q") + `"}`))
	case r.URL.Path == "/codes":
		_, _ = w.Write([]byte(`{"items":[{"id":"E11.9"}],"total":1}`))
	case r.URL.Path == "/echo":
		_, _ = w.Write(body)
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"code":"NOT_FOUND","message":"no such code"}`))
	}
}

func (f *fakeAPI) last() (string, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastURL, f.lastBody
}

type harness struct {
	t        *testing.T
	api      *fakeAPI
	baseURL  string
	stateDir string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	noTerminal(t)

	api := &fakeAPI{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	return &harness{t: t, api: api, baseURL: srv.URL, stateDir: t.TempDir()}
}

// run executes one codemap invocation against the fake API with file storage
// shared between invocations.
func (h *harness) run(stdin string, args ...string) (int, string, string) {
	h.t.Helper()
	var out, errOut bytes.Buffer
	full := append([]string{
		"--base-url", h.baseURL,
		"--storage", "file://" + h.stateDir,
		"--env-file", filepath.Join(h.stateDir, "missing.env"),
		"--retries", "0",
	}, args...)
	code := Execute(context.Background(), full, Streams{
		In:  strings.NewReader(stdin),
		Out: &out,
		Err: &errOut,
	})
	return code, out.String(), errOut.String()
}
