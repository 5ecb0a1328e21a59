package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dmitrijs2005/codemap/internal/client/apiclient"
	"github.com/dmitrijs2005/codemap/internal/client/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExec struct {
	loggedIn bool
	calls    []string
	fail     error
}

func (f *fakeExec) record(s string) error {
	f.calls = append(f.calls, s)
	return f.fail
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) Login(_ context.Context, user string) error {
	f.loggedIn = true
	return f.record("login " + user)
}
func (f *fakeExec) Logout(context.Context) error {
	f.loggedIn = false
	return f.record("logout")
}
func (f *fakeExec) Status(context.Context) error { return f.record("status") }
func (f *fakeExec) Call(_ context.Context, method, path, body string, query []string) error {
	return f.record(strings.Join(append([]string{"call", method, path, body}, query...), " "))
}
func (f *fakeExec) ListCodes(_ context.Context, p services.ListParams) error {
	return f.record("list " + p.System)
}
func (f *fakeExec) SearchCodes(_ context.Context, term string, _ services.ListParams) error {
	return f.record("search " + term)
}
func (f *fakeExec) GetCode(_ context.Context, id string) error      { return f.record("get " + id) }
func (f *fakeExec) CodeMappings(_ context.Context, id string) error { return f.record("mappings " + id) }

func runScript(t *testing.T, exec *fakeExec, lines ...string) string {
	t.Helper()
	var out bytes.Buffer
	body := func() (string, error) { return `{"b":1}`, nil }
	runREPL(context.Background(), exec, func() string { return "(s)" }, rdr(strings.Join(lines, "\n")), body, &out)
	return out.String()
}

func TestRunREPL_Dispatch(t *testing.T) {
	exec := &fakeExec{}
	out := runScript(t, exec,
		"",
		"login coder",
		"list icd10",
		"l",
		"search type 2 diabetes",
		"get E11.9",
		"mappings E11.9",
		"call get /codes a=1",
		"call post /codes",
		"status",
		"logout",
		"quit",
		"status",
	)

	assert.Equal(t, []string{
		"login coder",
		"list icd10",
		"list ",
		"search type 2 diabetes",
		"get E11.9",
		"mappings E11.9",
		"call GET /codes  a=1",
		`call POST /codes {"b":1}`,
		"status",
		"logout",
	}, exec.calls)
	assert.Contains(t, out, "codemap (s)> ")
	assert.True(t, strings.HasSuffix(out, "Bye!\n"))
}

func TestRunREPL_UsageAndUnknown(t *testing.T) {
	exec := &fakeExec{loggedIn: true}
	out := runScript(t, exec, "help", "get", "mappings", "search", "call GET", "list icd10 x", "nope")

	assert.Contains(t, out, "Available commands: list, search")
	assert.Contains(t, out, "Usage: get ID")
	assert.Contains(t, out, "Usage: mappings ID")
	assert.Contains(t, out, "Usage: search TERM")
	assert.Contains(t, out, "Usage: call METHOD PATH")
	assert.Contains(t, out, `error: invalid page "x"`)
	assert.Contains(t, out, "Unknown command: nope")
	assert.Empty(t, exec.calls)
}

func TestRunREPL_ErrorsDoNotStopTheLoop(t *testing.T) {
	exec := &fakeExec{fail: &apiclient.Failure{Kind: apiclient.KindServer, Status: 503, Method: "GET", Path: "/codes"}}
	out := runScript(t, exec, "list", "get E11", "exit")

	require.Len(t, exec.calls, 2)
	assert.Contains(t, out, "error: GET /codes: SERVER 503")
}

func TestRunREPL_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exec := &fakeExec{}
	var out bytes.Buffer
	runREPL(ctx, exec, func() string { return "" }, rdr("status\n"), nil, &out)
	assert.Empty(t, exec.calls)
	assert.Empty(t, out.String())
}

func TestDescribeError(t *testing.T) {
	assert.Equal(t, "plain", describeError(errors.New("plain")))

	f := &apiclient.Failure{Kind: apiclient.KindTimeout, Method: "GET", Path: "/codes", RequestID: "r1", Attempts: 4}
	got := describeError(f)
	assert.Contains(t, got, "GET /codes: TIMEOUT (request r1, 4 attempt(s))")
	assert.Contains(t, got, "hint: check --base-url")
}
