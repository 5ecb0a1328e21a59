package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"
)

// Response is a successful (2xx) outcome. JSON bodies land in Data, anything
// else in Text.
type Response struct {
	Status    int
	Headers   http.Header
	Data      json.RawMessage
	Text      string
	RequestID string
}

// Decode unmarshals Data into v.
func (r *Response) Decode(v any) error {
	if len(r.Data) == 0 {
		return fmt.Errorf("apiclient: response has no JSON body")
	}
	return json.Unmarshal(r.Data, v)
}

// DecodeJSON is the generic form of Response.Decode.
func DecodeJSON[T any](r *Response) (T, error) {
	var v T
	err := r.Decode(&v)
	return v, err
}

func isJSON(contentType string) bool {
	if contentType == "" {
		return false
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}

type errorBody struct {
	Code    json.RawMessage `json:"code"`
	Message string          `json:"message"`
	Details json.RawMessage `json:"details"`
}

// code renders a string or numeric code as text.
func (e errorBody) code() string {
	raw := bytes.TrimSpace(e.Code)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return string(raw)
}

func statusText(status int) string {
	if t := http.StatusText(status); t != "" {
		return t
	}
	return "HTTP " + strconv.Itoa(status)
}

// parseResponse turns a status, headers and fully read body into exactly one
// of *Response or *Failure. The failure still needs Path/Method/Timestamp.
func parseResponse(status int, header http.Header, body []byte) (*Response, *Failure) {
	jsonBody := isJSON(header.Get("Content-Type"))
	empty := len(bytes.TrimSpace(body)) == 0

	if status < 200 || status > 299 {
		f := &Failure{Kind: kindForStatus(status), Status: status}
		if jsonBody && !empty {
			var eb errorBody
			if err := json.Unmarshal(body, &eb); err == nil {
				f.Code = eb.code()
				f.Message = eb.Message
				if len(eb.Details) > 0 && string(eb.Details) != "null" {
					f.Details = eb.Details
				}
			}
		}
		if f.Message == "" {
			f.Message = statusText(status)
		}
		return nil, f
	}

	r := &Response{Status: status, Headers: header}
	switch {
	case jsonBody && empty:
	case jsonBody:
		var data json.RawMessage
		if err := json.Unmarshal(body, &data); err != nil {
			return nil, &Failure{
				Kind:    KindParse,
				Status:  status,
				Message: "response body is not valid JSON",
				Err:     err,
			}
		}
		r.Data = data
	default:
		r.Text = string(body)
	}
	return r, nil
}
