package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/codemap/internal/client/apiclient"
)

// Doer performs API requests; *apiclient.Client implements it.
type Doer interface {
	Do(ctx context.Context, req apiclient.Request) (*apiclient.Response, error)
}

// ListParams are optional; zero values are left out of the query string.
type ListParams struct {
	System   string
	Page     int
	PageSize int
}

func (p ListParams) query() map[string]any {
	q := map[string]any{}
	if p.System != "" {
		q["system"] = p.System
	}
	if p.Page > 0 {
		q["page"] = p.Page
	}
	if p.PageSize > 0 {
		q["pageSize"] = p.PageSize
	}
	return q
}

// CodeService maps code catalogue operations onto API paths. Payloads are
// passed through untouched.
type CodeService struct {
	api Doer
}

func NewCodeService(api Doer) *CodeService {
	return &CodeService{api: api}
}

func codePath(id string, rest ...string) string {
	p := "/codes/" + url.PathEscape(id)
	for _, r := range rest {
		p += "/" + r
	}
	return p
}

func (s *CodeService) data(ctx context.Context, req apiclient.Request) (json.RawMessage, error) {
	resp, err := s.api.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (s *CodeService) List(ctx context.Context, p ListParams) (json.RawMessage, error) {
	return s.data(ctx, apiclient.Request{Method: http.MethodGet, Path: "/codes", Query: p.query()})
}

func (s *CodeService) Search(ctx context.Context, term string, p ListParams) (json.RawMessage, error) {
	q := p.query()
	q["q"] = term
	return s.data(ctx, apiclient.Request{Method: http.MethodGet, Path: "/codes/search", Query: q})
}

func (s *CodeService) Get(ctx context.Context, id string) (json.RawMessage, error) {
	return s.data(ctx, apiclient.Request{Method: http.MethodGet, Path: codePath(id)})
}

func (s *CodeService) Update(ctx context.Context, id string, body json.RawMessage) (json.RawMessage, error) {
	return s.data(ctx, apiclient.Request{Method: http.MethodPut, Path: codePath(id), Body: body})
}

func (s *CodeService) Delete(ctx context.Context, id string) error {
	_, err := s.api.Do(ctx, apiclient.Request{Method: http.MethodDelete, Path: codePath(id)})
	return err
}

func (s *CodeService) Mappings(ctx context.Context, id string) (json.RawMessage, error) {
	return s.data(ctx, apiclient.Request{Method: http.MethodGet, Path: codePath(id, "mappings")})
}
