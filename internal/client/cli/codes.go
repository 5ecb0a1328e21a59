package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/codemap/internal/client/apiclient"
	"github.com/dmitrijs2005/codemap/internal/client/services"
)

var callMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
	http.MethodHead:   true,
}

// parseQuery turns "name=value" pairs into request query values.
func parseQuery(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	q := make(map[string]any, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid query parameter %q, want name=value", p)
		}
		q[k] = v
	}
	return q, nil
}

// Call sends an arbitrary request. A non-empty body must be JSON.
func (a *App) Call(ctx context.Context, method, path, body string, query []string) error {
	method = strings.ToUpper(method)
	if !callMethods[method] {
		return fmt.Errorf("unsupported method %q", method)
	}

	q, err := parseQuery(query)
	if err != nil {
		return err
	}

	req := apiclient.Request{Method: method, Path: path, Query: q}
	if body != "" {
		if !json.Valid([]byte(body)) {
			return fmt.Errorf("request body is not valid JSON")
		}
		req.Body = json.RawMessage(body)
	}

	resp, err := a.api.Do(ctx, req)
	if err != nil {
		return err
	}
	printResponse(a.out, resp)
	return nil
}

func (a *App) ListCodes(ctx context.Context, p services.ListParams) error {
	data, err := a.codes.List(ctx, p)
	if err != nil {
		return err
	}
	printJSON(a.out, data)
	return nil
}

func (a *App) SearchCodes(ctx context.Context, term string, p services.ListParams) error {
	data, err := a.codes.Search(ctx, term, p)
	if err != nil {
		return err
	}
	printJSON(a.out, data)
	return nil
}

func (a *App) GetCode(ctx context.Context, id string) error {
	data, err := a.codes.Get(ctx, id)
	if err != nil {
		return err
	}
	printJSON(a.out, data)
	return nil
}

func (a *App) CodeMappings(ctx context.Context, id string) error {
	data, err := a.codes.Mappings(ctx, id)
	if err != nil {
		return err
	}
	printJSON(a.out, data)
	return nil
}
