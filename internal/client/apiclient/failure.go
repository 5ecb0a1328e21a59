package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Kind classifies a failed call.
type Kind string

const (
	KindNetwork Kind = "NETWORK"
	KindTimeout Kind = "TIMEOUT"
	KindClient  Kind = "CLIENT"
	KindAuth    Kind = "AUTH"
	KindServer  Kind = "SERVER"
	KindParse   Kind = "PARSE"
)

// Retryable reports whether a failure of this kind may succeed on a plain
// repeat of the same request.
func (k Kind) Retryable() bool {
	switch k {
	case KindNetwork, KindTimeout, KindServer:
		return true
	}
	return false
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrUnavailable    = errors.New("server unavailable")
	ErrNoRefreshToken = errors.New("no refresh token")
	ErrRefreshFailed  = errors.New("token refresh failed")
)

// Failure is the error returned by every unsuccessful call.
type Failure struct {
	Kind      Kind
	Status    int
	Code      string
	Message   string
	Details   json.RawMessage
	Timestamp time.Time
	Path      string
	Method    string
	// Attempts is the number of network attempts made before giving up.
	Attempts  int
	RequestID string
	// Err is the underlying transport or decode error, if any.
	Err error

	// final marks failures caused by the caller giving up; never retried.
	final bool
}

func (f *Failure) Error() string {
	var b strings.Builder
	if f.Method != "" {
		b.WriteString(f.Method)
		b.WriteByte(' ')
	}
	b.WriteString(f.Path)
	b.WriteString(": ")
	b.WriteString(string(f.Kind))
	if f.Status != 0 {
		fmt.Fprintf(&b, " %d", f.Status)
	}
	if f.Code != "" {
		fmt.Fprintf(&b, " [%s]", f.Code)
	}
	if f.Message != "" {
		b.WriteString(": ")
		b.WriteString(f.Message)
	}
	return b.String()
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Is lets callers keep matching on the package sentinels:
// AUTH is ErrUnauthorized, NETWORK/TIMEOUT/SERVER are ErrUnavailable.
func (f *Failure) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return f.Kind == KindAuth
	case ErrUnavailable:
		return f.Kind.Retryable()
	}
	return false
}

func (f *Failure) Retryable() bool {
	return f.Kind.Retryable()
}

// IsClient is true for CLIENT and for its AUTH sub-kind.
func (f *Failure) IsClient() bool {
	return f.Kind == KindClient || f.Kind == KindAuth
}

// AsFailure extracts a *Failure from err.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return KindAuth
	case status >= 500:
		return KindServer
	default:
		return KindClient
	}
}
