package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/chesterzelaya/database-populator/internal/domain"
)

// StoredProduct is one inserted record with its assigned ID
type StoredProduct struct {
	ID     string
	Record domain.ProductRecord
}

// MemoryRepository keeps inserted products per category in process memory
type MemoryRepository struct {
	mu       sync.RWMutex
	products map[string][]StoredProduct
}

// NewMemoryRepository creates an empty repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{products: make(map[string][]StoredProduct)}
}

// Insert appends a copy of record to category and returns its new ID
func (r *MemoryRepository) Insert(ctx context.Context, record *domain.ProductRecord, category string) (string, error) {
	if record == nil || category == "" {
		return "", domain.ErrInvalidRequest
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	id := uuid.NewString()

	r.mu.Lock()
	r.products[category] = append(r.products[category], StoredProduct{ID: id, Record: *record})
	r.mu.Unlock()

	return id, nil
}

// List returns the products inserted into category in insertion order
func (r *MemoryRepository) List(category string) []StoredProduct {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]StoredProduct(nil), r.products[category]...)
}
