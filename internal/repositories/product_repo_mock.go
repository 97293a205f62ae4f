package repositories

import (
	"fmt"
	"sync"

	"organicbasket/internal/models"

	"github.com/google/uuid"
)

// MockProductRepository is an in-memory implementation of ProductRepository.
type MockProductRepository struct {
	products   map[string]models.Product
	referenced map[string]bool // product IDs held by order items
	mu         sync.RWMutex
}

// NewMockProductRepository creates a new instance of MockProductRepository.
func NewMockProductRepository() *MockProductRepository {
	return &MockProductRepository{
		products:   make(map[string]models.Product),
		referenced: make(map[string]bool),
	}
}

// MarkReferenced records that order items reference the product, so Delete
// will refuse it. Mirrors what the GORM repository derives from order_items.
func (r *MockProductRepository) MarkReferenced(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.referenced[id] = true
}

// GetAll returns all products.
func (r *MockProductRepository) GetAll() ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	productList := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		productList = append(productList, p)
	}
	return productList, nil
}

// ListActive returns active products, optionally filtered by category.
func (r *MockProductRepository) ListActive(category string) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	productList := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		if !p.IsActive {
			continue
		}
		if category != "" && p.Category != category {
			continue
		}
		productList = append(productList, p)
	}
	return productList, nil
}

// ListFeatured returns up to limit featured active products.
func (r *MockProductRepository) ListFeatured(limit int) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	productList := make([]models.Product, 0, limit)
	for _, p := range r.products {
		if !p.IsFeatured || !p.IsActive {
			continue
		}
		productList = append(productList, p)
		if len(productList) == limit {
			break
		}
	}
	return productList, nil
}

// GetByID returns a product by its ID.
func (r *MockProductRepository) GetByID(id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("product with ID %s not found", id)
	}
	return &product, nil
}

// Create adds a new product.
func (r *MockProductRepository) Create(product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	r.products[product.ID] = *product
	return nil
}

// Update modifies an existing product.
func (r *MockProductRepository) Update(product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.products[product.ID]
	if !ok {
		return fmt.Errorf("product with ID %s not found for update", product.ID)
	}
	r.products[product.ID] = *product
	return nil
}

// Delete removes a product by its ID, refusing if order items reference it.
func (r *MockProductRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.referenced[id] {
		return fmt.Errorf("cannot delete product %s: %w", id, ErrProductReferenced)
	}
	_, ok := r.products[id]
	if !ok {
		return fmt.Errorf("product with ID %s not found for deletion", id)
	}
	delete(r.products, id)
	return nil
}

// Count returns the number of products.
func (r *MockProductRepository) Count() (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.products)), nil
}
