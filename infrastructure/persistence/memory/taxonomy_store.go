package memory

import (
	"context"
	"sort"
	"sync"

	"catmenu/domain/core/entities"
	"catmenu/domain/core/valueobjects"
	pkgerrors "catmenu/pkg/errors"
)

// TaxonomyStore is an in-memory implementation of ports.TaxonomyStore.
// Siblings are enumerated by name, then id, like the DynamoDB parent index.
type TaxonomyStore struct {
	mu         sync.RWMutex
	categories map[valueobjects.CategoryID]*entities.Category

	// For testing error scenarios
	shouldFailOn map[string]error
}

// NewTaxonomyStore creates an empty taxonomy
func NewTaxonomyStore() *TaxonomyStore {
	return &TaxonomyStore{
		categories:   make(map[valueobjects.CategoryID]*entities.Category),
		shouldFailOn: make(map[string]error),
	}
}

// Put adds or replaces a category
func (s *TaxonomyStore) Put(category *entities.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *category
	s.categories[c.ID] = &c
}

// SaveCategories adds or replaces categories
func (s *TaxonomyStore) SaveCategories(ctx context.Context, categories []*entities.Category) error {
	for _, c := range categories {
		s.Put(c)
	}
	return nil
}

// ReplaceCategories swaps the whole taxonomy for categories
func (s *TaxonomyStore) ReplaceCategories(categories []*entities.Category) {
	next := make(map[valueobjects.CategoryID]*entities.Category, len(categories))
	for _, category := range categories {
		c := *category
		next[c.ID] = &c
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories = next
}

// SetError makes the named method fail with err until ClearErrors is called
func (s *TaxonomyStore) SetError(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shouldFailOn[method] = err
}

// ClearErrors removes all configured errors
func (s *TaxonomyStore) ClearErrors() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shouldFailOn = make(map[string]error)
}

// Len returns the number of categories held
func (s *TaxonomyStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.categories)
}

// GetRootCategories implements ports.TaxonomyStore
func (s *TaxonomyStore) GetRootCategories(ctx context.Context) ([]*entities.Category, error) {
	return s.childrenOf("GetRootCategories", valueobjects.NoParent)
}

// GetCategory implements ports.TaxonomyStore
func (s *TaxonomyStore) GetCategory(ctx context.Context, id valueobjects.CategoryID) (*entities.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.shouldFailOn["GetCategory"]; err != nil {
		return nil, err
	}

	c, ok := s.categories[id]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("category " + id.String())
	}
	out := *c
	return &out, nil
}

// GetChildren implements ports.TaxonomyStore
func (s *TaxonomyStore) GetChildren(ctx context.Context, id valueobjects.CategoryID) ([]*entities.Category, error) {
	return s.childrenOf("GetChildren", id)
}

func (s *TaxonomyStore) childrenOf(method string, parent valueobjects.CategoryID) ([]*entities.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.shouldFailOn[method]; err != nil {
		return nil, err
	}

	var out []*entities.Category
	for _, c := range s.categories {
		if c.ParentID == parent {
			cp := *c
			out = append(out, &cp)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].SortKey() < out[j].SortKey()
	})
	return out, nil
}
