// Package codes is the stub API's in-memory clinical code catalogue.
package codes

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/codemap/internal/common"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

var ErrInvalidPatch = errors.New("nothing to update")

// Mapping links a code to its equivalent in another coding system.
type Mapping struct {
	System       string `json:"system"`
	Target       string `json:"target"`
	Display      string `json:"display"`
	Relationship string `json:"relationship"`
}

type Code struct {
	ID        string    `json:"id"`
	System    string    `json:"system"`
	Display   string    `json:"display"`
	Status    string    `json:"status"`
	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updatedAt"`
	mappings  []Mapping
}

// Patch lists the editable fields; nil means unchanged.
type Patch struct {
	Display *string `json:"display"`
	Status  *string `json:"status"`
}

type Page struct {
	Items    []Code `json:"items"`
	Total    int    `json:"total"`
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize"`
}

type Query struct {
	System   string
	Term     string
	Page     int
	PageSize int
}

type Catalogue struct {
	mu    sync.RWMutex
	codes map[string]*Code
	now   func() time.Time
}

func NewCatalogue() *Catalogue {
	return &Catalogue{codes: make(map[string]*Code), now: time.Now}
}

// Put inserts or replaces a code.
func (c *Catalogue) Put(code Code, mappings ...Mapping) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if code.Status == "" {
		code.Status = "active"
	}
	if code.Version == 0 {
		code.Version = 1
	}
	code.UpdatedAt = c.now().UTC()
	code.mappings = append([]Mapping(nil), mappings...)
	c.codes[code.ID] = &code
}

func (q Query) matches(code *Code) bool {
	if q.System != "" && !strings.EqualFold(q.System, code.System) {
		return false
	}
	if q.Term == "" {
		return true
	}
	term := strings.ToLower(q.Term)
	return strings.Contains(strings.ToLower(code.ID), term) ||
		strings.Contains(strings.ToLower(code.Display), term)
}

// Find returns one page of codes matching q, ordered by id.
func (c *Catalogue) Find(q Query) Page {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}

	c.mu.RLock()
	matched := make([]Code, 0, len(c.codes))
	for _, code := range c.codes {
		if q.matches(code) {
			matched = append(matched, *code)
		}
	}
	c.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	page := Page{Items: []Code{}, Total: len(matched), Page: q.Page, PageSize: q.PageSize}
	start := (q.Page - 1) * q.PageSize
	if start < len(matched) {
		end := min(start+q.PageSize, len(matched))
		page.Items = matched[start:end]
	}
	return page
}

func (c *Catalogue) Get(id string) (Code, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	code, ok := c.codes[id]
	if !ok {
		return Code{}, common.ErrorNotFound
	}
	return *code, nil
}

func (c *Catalogue) Update(id string, p Patch) (Code, error) {
	if p.Display == nil && p.Status == nil {
		return Code{}, ErrInvalidPatch
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	code, ok := c.codes[id]
	if !ok {
		return Code{}, common.ErrorNotFound
	}
	if p.Display != nil {
		code.Display = *p.Display
	}
	if p.Status != nil {
		code.Status = *p.Status
	}
	code.Version++
	code.UpdatedAt = c.now().UTC()
	return *code, nil
}

func (c *Catalogue) Delete(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.codes[id]; !ok {
		return common.ErrorNotFound
	}
	delete(c.codes, id)
	return nil
}

func (c *Catalogue) Mappings(id string) ([]Mapping, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	code, ok := c.codes[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return append([]Mapping{}, code.mappings...), nil
}

// Seed fills the catalogue with a small ICD-10-CM sample.
func Seed(c *Catalogue) {
	snomed := func(target, display string) Mapping {
		return Mapping{System: "snomed", Target: target, Display: display, Relationship: "equivalent"}
	}
	c.Put(Code{ID: "E11.9", System: "icd10", Display: "Type 2 diabetes mellitus without complications"},
		snomed("44054006", "Diabetes mellitus type 2"))
	c.Put(Code{ID: "E10.9", System: "icd10", Display: "Type 1 diabetes mellitus without complications"},
		snomed("46635009", "Diabetes mellitus type 1"))
	c.Put(Code{ID: "I10", System: "icd10", Display: "Essential (primary) hypertension"},
		snomed("59621000", "Essential hypertension"))
	c.Put(Code{ID: "J45.909", System: "icd10", Display: "Unspecified asthma, uncomplicated"},
		snomed("195967001", "Asthma"))
	c.Put(Code{ID: "N18.3", System: "icd10", Display: "Chronic kidney disease, stage 3"},
		snomed("433144002", "Chronic kidney disease stage 3"))
	c.Put(Code{ID: "44054006", System: "snomed", Display: "Diabetes mellitus type 2"})
}
