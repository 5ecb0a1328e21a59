package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/codemap/internal/client/apiclient"
)

// printJSON writes data indented, or as is when it is not valid JSON.
func printJSON(w io.Writer, data json.RawMessage) {
	if len(data) == 0 {
		return
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		fmt.Fprintln(w, string(data))
		return
	}
	fmt.Fprintln(w, buf.String())
}

func printResponse(w io.Writer, resp *apiclient.Response) {
	switch {
	case len(resp.Data) > 0:
		printJSON(w, resp.Data)
	case resp.Text != "":
		fmt.Fprintln(w, resp.Text)
	default:
		fmt.Fprintf(w, "%d (empty response)\n", resp.Status)
	}
}

// describeError renders err for the terminal, with a hint for the kinds a
// user can act on.
func describeError(err error) string {
	f, ok := apiclient.AsFailure(err)
	if !ok {
		return err.Error()
	}

	msg := f.Error()
	if f.RequestID != "" {
		msg += fmt.Sprintf(" (request %s, %d attempt(s))", f.RequestID, f.Attempts)
	}
	switch {
	case errors.Is(err, apiclient.ErrRefreshFailed), f.Kind == apiclient.KindAuth:
		msg += "\nhint: run `codemap login`"
	case f.Kind == apiclient.KindNetwork, f.Kind == apiclient.KindTimeout:
		msg += "\nhint: check --base-url and that the API is reachable"
	}
	return msg
}
