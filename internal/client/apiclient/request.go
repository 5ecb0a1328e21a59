package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"time"
)

// Request describes one logical call. It is never mutated; every attempt
// builds a fresh *http.Request from it.
type Request struct {
	Method string
	// Path is relative to Config.BaseURL and may carry its own query string.
	Path string
	// Body is sent for every method except GET and HEAD. []byte, string and
	// json.RawMessage are sent as is; anything else is JSON encoded.
	Body any
	// Query values that are nil or nil pointers are omitted.
	Query   map[string]any
	Headers map[string]string
	// Timeout overrides Config.Timeout for each attempt of this call.
	Timeout  time.Duration
	SkipAuth bool
}

func hasBody(method string) bool {
	return method != http.MethodGet && method != http.MethodHead
}

func buildURL(base, path string, query map[string]any) (string, error) {
	u := strings.TrimRight(base, "/")
	if path != "" {
		u += "/" + strings.TrimLeft(path, "/")
	}
	if _, err := url.Parse(u); err != nil {
		return "", err
	}

	values := url.Values{}
	for k, v := range query {
		s, ok := queryValue(v)
		if !ok {
			continue
		}
		values.Set(k, s)
	}
	if len(values) == 0 {
		return u, nil
	}

	sep := "?"
	if strings.Contains(u, "?") {
		sep = "&"
	}
	// Encode sorts by key
	return u + sep + values.Encode(), nil
}

func queryValue(v any) (string, bool) {
	if v == nil {
		return "", false
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return "", false
		}
		rv = rv.Elem()
	}
	return fmt.Sprint(rv.Interface()), true
}

func encodeBody(method string, body any) ([]byte, error) {
	if body == nil || !hasBody(method) {
		return nil, nil
	}
	switch b := body.(type) {
	case []byte:
		return b, nil
	case json.RawMessage:
		return b, nil
	case string:
		return []byte(b), nil
	case io.Reader:
		return io.ReadAll(b)
	}
	return json.Marshal(body)
}

func newHTTPRequest(ctx context.Context, method, target string, body []byte) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	return http.NewRequestWithContext(ctx, method, target, r)
}
