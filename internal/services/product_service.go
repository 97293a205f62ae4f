package services

import (
	"organicbasket/internal/models"
	"organicbasket/internal/repositories"
)

// ProductService handles business logic related to the product catalog.
type ProductService struct {
	repo repositories.ProductRepository
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository) *ProductService {
	return &ProductService{
		repo: repo,
	}
}

// GetAllProducts retrieves all products, including inactive ones.
func (s *ProductService) GetAllProducts() ([]models.Product, error) {
	return s.repo.GetAll()
}

// ListProducts retrieves the storefront catalog: active products, optionally
// filtered by category.
func (s *ProductService) ListProducts(category string) ([]models.Product, error) {
	return s.repo.ListActive(category)
}

// ListFeatured retrieves up to limit featured products for the home page.
func (s *ProductService) ListFeatured(limit int) ([]models.Product, error) {
	return s.repo.ListFeatured(limit)
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(id string) (*models.Product, error) {
	return s.repo.GetByID(id)
}

// CreateProduct creates a new product.
func (s *ProductService) CreateProduct(product *models.Product) error {
	return s.repo.Create(product)
}

// UpdateProduct updates an existing product.
func (s *ProductService) UpdateProduct(product *models.Product) error {
	return s.repo.Update(product)
}

// DeleteProduct deletes a product by its ID. Deletion is refused with
// repositories.ErrProductReferenced while order items reference the product,
// so order history keeps its frozen lines intact.
func (s *ProductService) DeleteProduct(id string) error {
	return s.repo.Delete(id)
}
