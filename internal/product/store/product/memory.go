// Package product holds the ProductStore implementations. The store
// exclusively owns each snapshot: every read hands out a copy, and
// mutation happens only inside Execute with the record lock held.
package product

import (
	"context"
	"sync"

	"custos/internal/product/models"
	id "custos/pkg/domain"
	"custos/pkg/platform/sentinel"
)

// InMemory keeps snapshots in a map. It favors clarity over
// performance and backs unit tests and single-node deployments.
type InMemory struct {
	mu       sync.RWMutex
	products map[id.ProductID]*models.Product
}

func NewInMemory() *InMemory {
	return &InMemory{products: make(map[id.ProductID]*models.Product)}
}

// CreateIfAbsent inserts the snapshot unless the id is already taken.
// Exactly one concurrent caller wins; the rest get sentinel.ErrConflict.
func (s *InMemory) CreateIfAbsent(_ context.Context, product *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.products[product.ID]; exists {
		return sentinel.ErrConflict
	}
	s.products[product.ID] = product.Clone()
	return nil
}

// FindByID returns a copy of the snapshot or sentinel.ErrNotFound.
func (s *InMemory) FindByID(_ context.Context, productID id.ProductID) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if product, ok := s.products[productID]; ok {
		return product.Clone(), nil
	}
	return nil, sentinel.ErrNotFound
}

// Execute atomically validates and mutates one snapshot with the store
// lock held. If validate fails nothing changes; otherwise mutate runs
// and the full snapshot is replaced in one step. Partial field updates
// are never observable.
func (s *InMemory) Execute(
	_ context.Context,
	productID id.ProductID,
	validate func(*models.Product) error,
	mutate func(*models.Product),
) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.products[productID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}

	working := current.Clone()
	if err := validate(working); err != nil {
		return nil, err
	}
	mutate(working)
	s.products[productID] = working
	return working.Clone(), nil
}

// Count reports how many products are registered.
func (s *InMemory) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products), nil
}
