package apiclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/codemap/internal/common"
)

// call is the immutable, pre-encoded form of a Request shared by all of its
// attempts.
type call struct {
	cfg       Config
	method    string
	path      string
	url       string
	body      []byte
	headers   map[string]string
	timeout   time.Duration
	skipAuth  bool
	requestID string
}

func (c *Client) newFailure(cl *call, kind Kind, msg string, err error) *Failure {
	return &Failure{
		Kind:      kind,
		Message:   msg,
		Timestamp: c.now(),
		Path:      cl.path,
		Method:    cl.method,
		RequestID: cl.requestID,
		Err:       err,
	}
}

// cancelled reports a caller-side context end. It is never retried.
func (c *Client) cancelled(cl *call, err error) *Failure {
	f := c.newFailure(cl, KindNetwork, "request cancelled", err)
	f.final = true
	return f
}

// attempt runs BUILD → AUTHENTICATE → SEND → PARSE once.
func (c *Client) attempt(ctx context.Context, cl *call, limiter waiter) (*Response, *Failure) {
	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return nil, c.cancelled(cl, err)
		}
	}

	var token string
	if !cl.skipAuth && cl.cfg.AuthEnabled {
		tok, err := c.refresher.AccessToken(ctx, cl.cfg)
		if err != nil {
			if ctx.Err() != nil {
				return nil, c.cancelled(cl, ctx.Err())
			}
			f := c.newFailure(cl, KindAuth, "session expired, log in again", err)
			f.Code = "REFRESH_FAILED"
			if inner, ok := AsFailure(err); ok {
				f.Status = inner.Status
			}
			return nil, f
		}
		token = tok
	}

	attemptCtx, cancel := context.WithTimeout(ctx, cl.timeout)
	defer cancel()

	req, err := newHTTPRequest(attemptCtx, cl.method, cl.url, cl.body)
	if err != nil {
		return nil, c.newFailure(cl, KindClient, "invalid request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(common.RequestIDHeader, cl.requestID)
	for k, v := range cl.headers {
		req.Header.Set(k, v)
	}
	if token != "" {
		req.Header.Set(common.AuthorizationHeader, common.BearerPrefix+token)
	}

	if cl.cfg.LoggingEnabled {
		c.log.Info(ctx, "api request",
			"request_id", cl.requestID,
			"method", cl.method,
			"url", cl.url,
			"headers", redactHeaders(req.Header),
			"body", truncate(cl.body),
		)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.transportFailure(ctx, attemptCtx, cl, err)
	}
	defer resp.Body.Close()

	limit := cl.cfg.MaxResponseBytes
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, c.transportFailure(ctx, attemptCtx, cl, err)
	}
	if int64(len(body)) > limit {
		f := c.newFailure(cl, KindParse, fmt.Sprintf("response body exceeds %d bytes", limit), nil)
		f.Status = resp.StatusCode
		return nil, f
	}

	if cl.cfg.LoggingEnabled {
		c.log.Info(ctx, "api response",
			"request_id", cl.requestID,
			"status", resp.StatusCode,
			"body", truncate(body),
		)
	}

	out, f := parseResponse(resp.StatusCode, resp.Header, body)
	if f != nil {
		f.Timestamp = c.now()
		f.Path = cl.path
		f.Method = cl.method
		f.RequestID = cl.requestID
		return nil, f
	}
	out.RequestID = cl.requestID
	return out, nil
}

// transportFailure classifies an error from sending or reading.
func (c *Client) transportFailure(parent, attemptCtx context.Context, cl *call, err error) *Failure {
	if parent.Err() != nil {
		return c.cancelled(cl, parent.Err())
	}
	if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		return c.newFailure(cl, KindTimeout, fmt.Sprintf("request timed out after %s", cl.timeout), err)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return c.newFailure(cl, KindTimeout, "request timed out", err)
	}
	return c.newFailure(cl, KindNetwork, "network error", err)
}

const maxLoggedBody = 2048

func truncate(b []byte) string {
	if len(b) <= maxLoggedBody {
		return string(b)
	}
	return string(b[:maxLoggedBody]) + "...(truncated)"
}

func redactHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k := range h {
		v := h.Get(k)
		if strings.EqualFold(k, common.AuthorizationHeader) {
			v = common.BearerPrefix + "[REDACTED]"
		}
		out[k] = v
	}
	return out
}
