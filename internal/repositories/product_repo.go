package repositories

import (
	"errors"

	"organicbasket/internal/models"
)

// ErrProductReferenced is returned when deleting a product that existing
// order items still reference. Order history integrity wins over cleanup.
var ErrProductReferenced = errors.New("product is referenced by order items")

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	GetAll() ([]models.Product, error)
	// ListActive returns active products, optionally filtered by category.
	ListActive(category string) ([]models.Product, error)
	ListFeatured(limit int) ([]models.Product, error)
	GetByID(id string) (*models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	// Delete removes a product unless order items reference it, in which
	// case it returns ErrProductReferenced.
	Delete(id string) error
	Count() (int64, error)
}
