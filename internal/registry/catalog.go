package registry

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

var (
	ErrStandardNotFound = errors.New("standard not found")
	ErrStandardExists   = errors.New("standard already exists")
)

// Standard is one tracked standards document, keyed by acronym.
type Standard struct {
	Acronym   string    `json:"acronym" bson:"acronym"`
	Title     string    `json:"title" bson:"title"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Catalog persists the standards list. Meetings live in the lineage
// store; the catalog holds only the top-level records.
type Catalog interface {
	Create(ctx context.Context, s *Standard) error
	Get(ctx context.Context, acronym string) (*Standard, error)
	List(ctx context.Context) ([]*Standard, error)
	Delete(ctx context.Context, acronym string) error
}

// MemoryCatalog is an in-memory Catalog for tests and development.
type MemoryCatalog struct {
	mu        sync.RWMutex
	standards map[string]*Standard
}

func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{standards: make(map[string]*Standard)}
}

func (c *MemoryCatalog) Create(ctx context.Context, s *Standard) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.standards[s.Acronym]; ok {
		return ErrStandardExists
	}
	cs := *s
	c.standards[s.Acronym] = &cs
	return nil
}

func (c *MemoryCatalog) Get(ctx context.Context, acronym string) (*Standard, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.standards[acronym]
	if !ok {
		return nil, ErrStandardNotFound
	}
	cs := *s
	return &cs, nil
}

func (c *MemoryCatalog) List(ctx context.Context) ([]*Standard, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Standard, 0, len(c.standards))
	for _, s := range c.standards {
		cs := *s
		out = append(out, &cs)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Acronym < out[j].Acronym })
	return out, nil
}

func (c *MemoryCatalog) Delete(ctx context.Context, acronym string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.standards[acronym]; !ok {
		return ErrStandardNotFound
	}
	delete(c.standards, acronym)
	return nil
}
