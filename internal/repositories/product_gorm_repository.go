package repositories

import (
	"fmt"

	"organicbasket/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// GetAll retrieves all products from the database.
func (r *GORMProductRepository) GetAll() ([]models.Product, error) {
	var products []models.Product
	if err := r.db.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to get all products: %w", err)
	}
	return products, nil
}

// ListActive retrieves active products, optionally filtered by category.
func (r *GORMProductRepository) ListActive(category string) ([]models.Product, error) {
	query := r.db.Where("is_active = ?", true)
	if category != "" {
		query = query.Where("category = ?", category)
	}
	var products []models.Product
	if err := query.Order("name").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list active products: %w", err)
	}
	return products, nil
}

// ListFeatured retrieves up to limit featured active products.
func (r *GORMProductRepository) ListFeatured(limit int) ([]models.Product, error) {
	var products []models.Product
	err := r.db.Where("is_featured = ? AND is_active = ?", true, true).
		Limit(limit).Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list featured products: %w", err)
	}
	return products, nil
}

// GetByID retrieves a single product by its ID from the database.
func (r *GORMProductRepository) GetByID(id string) (*models.Product, error) {
	var product models.Product
	if err := r.db.First(&product, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("product with ID %s not found", id)
		}
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	return &product, nil
}

// Create creates a new product in the database.
func (r *GORMProductRepository) Create(product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if err := r.db.Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// Update updates an existing product in the database.
func (r *GORMProductRepository) Update(product *models.Product) error {
	res := r.db.Save(product) // Save will update all fields, including zero values
	if res.Error != nil {
		return fmt.Errorf("failed to update product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with ID %s not found for update", product.ID)
	}
	return nil
}

// Delete deletes a product by its ID, refusing if order items reference it.
func (r *GORMProductRepository) Delete(id string) error {
	var referenced int64
	if err := r.db.Model(&models.OrderItem{}).Where("product_id = ?", id).Count(&referenced).Error; err != nil {
		return fmt.Errorf("failed to check order references for product %s: %w", id, err)
	}
	if referenced > 0 {
		return fmt.Errorf("cannot delete product %s: %w", id, ErrProductReferenced)
	}

	res := r.db.Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with ID %s not found for deletion", id)
	}
	return nil
}

// Count returns the number of products in the catalog.
func (r *GORMProductRepository) Count() (int64, error) {
	var count int64
	if err := r.db.Model(&models.Product{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}
