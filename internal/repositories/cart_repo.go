package repositories

import (
	"organicbasket/internal/models"
)

// CartRepository defines the interface for cart data access. Line items are
// owned by the cart; callers never create or delete them outside of it.
type CartRepository interface {
	// GetOrCreateByUser returns the user's single cart, creating an empty
	// one on first access. Safe against concurrent first access.
	GetOrCreateByUser(userID string) (*models.Cart, error)
	GetItem(itemID string) (*models.CartItem, error)
	GetItemByProduct(cartID, productID string) (*models.CartItem, error)
	CreateItem(item *models.CartItem) error
	UpdateItemQuantity(itemID string, quantity int) error
	RemoveItem(itemID string) error
	// ClearItems removes every line from the cart.
	ClearItems(cartID string) error
}
