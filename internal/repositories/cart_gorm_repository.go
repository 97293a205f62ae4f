package repositories

import (
	"fmt"

	"organicbasket/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMCartRepository is a GORM implementation of CartRepository.
type GORMCartRepository struct {
	db *gorm.DB
}

// NewGORMCartRepository creates a new instance of GORMCartRepository.
func NewGORMCartRepository(db *gorm.DB) *GORMCartRepository {
	return &GORMCartRepository{
		db: db,
	}
}

// GetOrCreateByUser returns the user's cart with its lines, creating an
// empty cart on first access. The unique index on user_id guards against
// duplicate creation under concurrent first access; on a conflict we
// re-fetch the winning row.
func (r *GORMCartRepository) GetOrCreateByUser(userID string) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.Preload("Items.Product").First(&cart, "user_id = ?", userID).Error
	if err == nil {
		return &cart, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("failed to get cart for user %s: %w", userID, err)
	}

	cart = models.Cart{ID: uuid.New().String(), UserID: userID}
	if createErr := r.db.Create(&cart).Error; createErr != nil {
		// Lost the race against a concurrent first access; the other
		// request's cart is the one to use.
		var existing models.Cart
		if fetchErr := r.db.Preload("Items.Product").First(&existing, "user_id = ?", userID).Error; fetchErr == nil {
			return &existing, nil
		}
		return nil, fmt.Errorf("failed to create cart for user %s: %w", userID, createErr)
	}
	return &cart, nil
}

// GetItem returns a cart line by its ID.
func (r *GORMCartRepository) GetItem(itemID string) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.db.Preload("Product").First(&item, "id = ?", itemID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("cart item with ID %s not found", itemID)
		}
		return nil, fmt.Errorf("failed to get cart item %s: %w", itemID, err)
	}
	return &item, nil
}

// GetItemByProduct returns the cart's line for a product, or nil if absent.
func (r *GORMCartRepository) GetItemByProduct(cartID, productID string) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.Preload("Product").First(&item, "cart_id = ? AND product_id = ?", cartID, productID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cart item for product %s: %w", productID, err)
	}
	return &item, nil
}

// CreateItem adds a new line to a cart.
func (r *GORMCartRepository) CreateItem(item *models.CartItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if err := r.db.Create(item).Error; err != nil {
		return fmt.Errorf("failed to create cart item: %w", err)
	}
	return nil
}

// UpdateItemQuantity sets the quantity of an existing line.
func (r *GORMCartRepository) UpdateItemQuantity(itemID string, quantity int) error {
	res := r.db.Model(&models.CartItem{}).Where("id = ?", itemID).Update("quantity", quantity)
	if res.Error != nil {
		return fmt.Errorf("failed to update cart item %s: %w", itemID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("cart item with ID %s not found for update", itemID)
	}
	return nil
}

// RemoveItem deletes a line unconditionally.
func (r *GORMCartRepository) RemoveItem(itemID string) error {
	res := r.db.Delete(&models.CartItem{}, "id = ?", itemID)
	if res.Error != nil {
		return fmt.Errorf("failed to remove cart item %s: %w", itemID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("cart item with ID %s not found for removal", itemID)
	}
	return nil
}

// ClearItems removes every line from the cart.
func (r *GORMCartRepository) ClearItems(cartID string) error {
	if err := r.db.Delete(&models.CartItem{}, "cart_id = ?", cartID).Error; err != nil {
		return fmt.Errorf("failed to clear cart %s: %w", cartID, err)
	}
	return nil
}
